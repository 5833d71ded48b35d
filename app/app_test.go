package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/reqbind/crypto"
	"go.hackfix.me/reqbind/web/client"
	"go.hackfix.me/reqbind/web/server/middleware"
)

// startServer runs the serve command in the background, and returns the
// address it's listening on, and a channel that receives the command error
// once it stops.
func startServer(
	ctx context.Context, t *testing.T, tapp *testApp, assertHandler func(bool), args ...string,
) (string, <-chan error) {
	t.Helper()

	addrCh := make(chan string)
	tapp.stderr.waitFor(`started listener.*address=(\S+)`, 1, addrCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- tapp.Run(append([]string{"serve", "127.0.0.1:0"}, args...)...)
	}()

	select {
	case addr := <-addrCh:
		return addr, errCh
	case err := <-errCh:
		t.Logf("serve command failed: %v", err)
		assertHandler(false)
	case <-ctx.Done():
		t.Log("timed out waiting for the server to start")
		assertHandler(false)
	}

	return "", nil
}

func newClient(addr string, tlsCfg *tls.Config) *client.Client {
	return client.New(addr, tlsCfg, slog.New(slog.DiscardHandler))
}

func TestAppRoutes(t *testing.T) {
	t.Parallel()

	ctx, cancel, _ := newTestContext(t, 5*time.Second)
	defer cancel()

	tapp, err := newTestApp(ctx)
	require.NoError(t, err)

	err = tapp.Run("routes")
	require.NoError(t, err)

	out := tapp.stdout.String()
	for _, s := range []string{
		"/log-test", "/headers/info", "/request-body-string-v3-v1",
		"ANY", "POST", "Log a message at every level", "/metrics",
	} {
		assert.Contains(t, out, s)
	}
}

func TestAppServe(t *testing.T) {
	t.Parallel()

	ctx, cancel, h := newTestContext(t, 10*time.Second)
	defer cancel()

	tapp, err := newTestApp(ctx)
	require.NoError(t, err)

	addr, errCh := startServer(ctx, t, tapp, h)
	c := newClient(addr, nil)

	t.Run("ok/log_test", func(t *testing.T) {
		resp, err := c.Send(ctx, client.SendRequest{Path: "/log-test"})
		h(assert.NoError(t, err))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", resp.Body)
		assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
		assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
		assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
	})

	t.Run("ok/headers", func(t *testing.T) {
		resp, err := c.Send(ctx, client.SendRequest{
			Path:    "/headers",
			Header:  http.Header{"Accept-Language": {"fr-CA,fr;q=0.9"}},
			Cookies: map[string]string{"myCookie": "chocolate"},
		})
		h(assert.NoError(t, err))
		assert.Equal(t, "ok", resp.Body)
	})

	t.Run("ok/body_v3_v1", func(t *testing.T) {
		resp, err := c.Send(ctx, client.SendRequest{
			Method: http.MethodPost,
			Path:   "/request-body-string-v3-v1",
			Body:   "hello",
		})
		h(assert.NoError(t, err))
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "ok", resp.Body)
	})

	t.Run("err/body_v4_missing", func(t *testing.T) {
		resp, err := c.Send(ctx, client.SendRequest{
			Method: http.MethodPost,
			Path:   "/request-body-string-v4",
		})
		h(assert.Error(t, err))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "required request body is missing", resp.Body)
	})

	t.Run("ok/metrics", func(t *testing.T) {
		resp, err := c.Send(ctx, client.SendRequest{Path: "/metrics"})
		h(assert.NoError(t, err))
		assert.Contains(t, resp.Body,
			`reqbind_http_requests_total{code="201",method="post",route="/request-body-string-v3-v1"} 1`)
	})

	t.Run("ok/send_command", func(t *testing.T) {
		sapp, err := newTestApp(ctx)
		require.NoError(t, err)

		err = sapp.Run("send", "--address", addr, "/request-body-string-v4", "hello")
		h(assert.NoError(t, err))
		assert.Equal(t, "200 OK\nok\n", sapp.stdout.String())
	})

	cancel()
	select {
	case err = <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the server to stop")
	}

	assert.Equal(t, "name = Spring\n", tapp.stdout.String())

	stderr := tapp.stderr.String()
	assert.Contains(t, stderr, "info log = Spring")
	assert.Contains(t, stderr, "warn log = Spring")
	assert.Contains(t, stderr, "error log = Spring")
	assert.NotContains(t, stderr, "debug log = Spring")
	assert.NotContains(t, stderr, "trace log = Spring")
	assert.Contains(t, stderr, "locale=fr-CA")
	assert.Contains(t, stderr, "my_cookie=chocolate")
	assert.Contains(t, stderr, "message_body=hello")
}

func TestAppServeConfig(t *testing.T) {
	t.Parallel()

	ctx, cancel, h := newTestContext(t, 10*time.Second)
	defer cancel()

	fs := memoryfs.New()
	cfgJSON := `{"server": {"max_body_size": 8, "error_level": "none", "default_locale": "de"}}`
	require.NoError(t, vfs.WriteFile(fs, "/config.json", []byte(cfgJSON), 0o644))

	tapp, err := newTestApp(ctx, WithFS(fs))
	require.NoError(t, err)

	addr, errCh := startServer(ctx, t, tapp, h, "--log-level", "TRACE")
	c := newClient(addr, nil)

	resp, err := c.Send(ctx, client.SendRequest{
		Method: http.MethodPost,
		Path:   "/request-body-string-v4",
		Body:   "more than eight bytes",
	})
	h(assert.Error(t, err))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp, err = c.Send(ctx, client.SendRequest{Path: "/headers/info"})
	h(assert.NoError(t, err))
	assert.Contains(t, resp.Body, `"locale":"de"`)

	resp, err = c.Send(ctx, client.SendRequest{Path: "/log-test"})
	h(assert.NoError(t, err))
	assert.Equal(t, "ok", resp.Body)

	cancel()
	select {
	case err = <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the server to stop")
	}

	stderr := tapp.stderr.String()
	assert.Contains(t, stderr, "TRC trace log = Spring")
	assert.Contains(t, stderr, "debug log = Spring")
	assert.Contains(t, stderr, "String concat log=Spring")
}

func TestAppCert(t *testing.T) {
	t.Parallel()

	ctx, cancel, h := newTestContext(t, 10*time.Second)
	defer cancel()

	fs := memoryfs.New()
	const certPath = "/certs/bundle.pem"

	// The certificate must be valid for the TLS handshake, so use the real time.
	tapp, err := newTestApp(ctx, WithFS(fs), WithTimeNow(time.Now))
	require.NoError(t, err)

	err = tapp.Run("cert", certPath, "--expiration", "30d")
	require.NoError(t, err)

	data, err := vfs.ReadFile(fs, certPath)
	require.NoError(t, err)
	cert, err := crypto.DecodeTLSCert(data)
	require.NoError(t, err)
	require.NotNil(t, cert.Leaf)
	assert.Equal(t, []string{"localhost"}, cert.Leaf.DNSNames)

	err = tapp.Run("cert", certPath)
	assert.ErrorContains(t, err, fmt.Sprintf("file '%s' already exists", certPath))

	t.Run("ok/serve_tls", func(t *testing.T) {
		sapp, err := newTestApp(ctx, WithFS(fs))
		require.NoError(t, err)

		addr, errCh := startServer(ctx, t, sapp, h, "--tls-cert-file", certPath)

		pool, err := crypto.CertPool(cert)
		require.NoError(t, err)
		tlsCfg := crypto.DefaultTLSConfig()
		tlsCfg.RootCAs = pool

		resp, err := newClient("https://"+addr, tlsCfg).Send(ctx,
			client.SendRequest{Path: "/log-test"})
		h(assert.NoError(t, err))
		assert.Equal(t, "ok", resp.Body)

		// Plain HTTP is served on the same port.
		resp, err = newClient(addr, nil).Send(ctx, client.SendRequest{Path: "/log-test"})
		h(assert.NoError(t, err))
		assert.Equal(t, "ok", resp.Body)

		cancel()
		select {
		case err = <-errCh:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for the server to stop")
		}
	})
}

func TestAppErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		args   []string
		expErr string
	}{
		{
			name:   "err/invalid_error_level",
			args:   []string{"serve", "--error-level", "some"},
			expErr: "invalid error level 'some'",
		},
		{
			name:   "err/missing_tls_cert",
			args:   []string{"serve", "127.0.0.1:0", "--tls-cert-file", "/nope.pem"},
			expErr: "failed reading TLS certificate file",
		},
		{
			name:   "err/invalid_log_level",
			args:   []string{"routes", "--log-level", "LOUD"},
			expErr: "failed parsing CLI arguments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel, _ := newTestContext(t, 5*time.Second)
			defer cancel()

			tapp, err := newTestApp(ctx)
			require.NoError(t, err)

			err = tapp.Run(tt.args...)
			assert.ErrorContains(t, err, tt.expErr)
		})
	}
}

// Ensure the send command reads the body from stdin.
func TestAppSendStdin(t *testing.T) {
	t.Parallel()

	ctx, cancel, h := newTestContext(t, 10*time.Second)
	defer cancel()

	srvApp, err := newTestApp(ctx)
	require.NoError(t, err)
	addr, errCh := startServer(ctx, t, srvApp, h)

	tapp, err := newTestApp(ctx)
	require.NoError(t, err)

	go func() {
		_, _ = io.WriteString(tapp.stdin, "from stdin")
		_ = tapp.stdin.(io.Closer).Close()
	}()

	err = tapp.Run("send", "--address", addr, "-X", "post", "/request-body-string-v2", "-")
	h(assert.NoError(t, err))
	assert.Equal(t, "200 OK\nok\n", tapp.stdout.String())

	cancel()
	<-errCh

	assert.Contains(t, srvApp.stderr.String(), `message_body="from stdin"`)
}
