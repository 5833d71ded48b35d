package server

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	actx "go.hackfix.me/reqbind/app/context"
	"go.hackfix.me/reqbind/crypto"
	"go.hackfix.me/reqbind/web/server/middleware"
	"go.hackfix.me/reqbind/web/server/types"
)

func TestIsTLSHandshake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		exp  bool
	}{
		{name: "ok/tls12", data: []byte{0x16, 0x03, 0x01}, exp: true},
		{name: "ok/tls13_record", data: []byte{0x16, 0x03, 0x03}, exp: true},
		{name: "ok/http", data: []byte("GET"), exp: false},
		{name: "ok/short", data: []byte{0x16}, exp: false},
		{name: "ok/empty", data: nil, exp: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.exp, isTLSHandshake(tt.data))
		})
	}
}

func TestSetupHandlers(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)
	appCtx := &actx.Context{
		Ctx:    context.Background(),
		Logger: logger,
		Stdout: io.Discard,
	}

	h, err := SetupHandlers(appCtx, logger, Options{
		ErrorLevel:    types.ErrorLevelMinimal,
		MaxBodySize:   4,
		DefaultLocale: "en",
	})
	require.NoError(t, err)

	t.Run("ok/request_id", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/log-test", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("ok/metrics", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "# TYPE reqbind_http_requests_total counter")
	})

	t.Run("err/body_limit", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/request-body-string-v4",
			strings.NewReader("too long"))
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("err/invalid_locale", func(t *testing.T) {
		t.Parallel()

		_, err := SetupHandlers(appCtx, logger, Options{DefaultLocale: "not a locale"})
		assert.ErrorContains(t, err, "failed parsing default locale")
	})
}

func TestServerListenAndServe(t *testing.T) {
	t.Parallel()

	appCtx := &actx.Context{
		Ctx:    context.Background(),
		Logger: slog.New(slog.DiscardHandler),
		Stdout: io.Discard,
	}

	srv, err := New(appCtx, Options{
		Address:       "127.0.0.1:0",
		MaxBodySize:   1024,
		DefaultLocale: "en",
		ReadTimeout:   5 * time.Second,
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.ErrorIs(t, <-done, http.ErrServerClosed)
}

func TestServerIdleConnection(t *testing.T) {
	t.Parallel()

	appCtx := &actx.Context{
		Ctx:    context.Background(),
		Logger: slog.New(slog.DiscardHandler),
		Stdout: io.Discard,
	}

	cert, err := crypto.NewSelfSignedCert([]string{"127.0.0.1"}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	pool, err := crypto.CertPool(cert)
	require.NoError(t, err)

	srv, err := New(appCtx, Options{
		MaxBodySize:       1024,
		DefaultLocale:     "en",
		ReadHeaderTimeout: time.Minute,
		TLSCert:           &cert,
	})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, srv.Shutdown(ctx))
		assert.ErrorIs(t, <-done, http.ErrServerClosed)
	})

	idle, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer idle.Close()

	client := &http.Client{
		Timeout: 2 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12},
		},
	}

	for _, scheme := range []string{"http", "https"} {
		resp, err := client.Get(scheme + "://" + addr + "/log-test")
		require.NoError(t, err, scheme)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())

		assert.Equal(t, http.StatusOK, resp.StatusCode, scheme)
		assert.Equal(t, "ok", string(body), scheme)
		assert.Equal(t, scheme == "https", resp.TLS != nil, scheme)
	}
}
