package cli

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"

	actx "go.hackfix.me/reqbind/app/context"
	"go.hackfix.me/reqbind/crypto"
	"go.hackfix.me/reqbind/web/client"
)

// Send sends a request to a running web server, and prints the response.
type Send struct {
	Path string `arg:"" help:"Request path, e.g. /headers."`
	Body string `arg:"" optional:"" help:"Request body. Use '-' to read it from stdin."`

	Address    string            `help:"Address of the web server. Defaults to the server.address configuration value."`
	Method     string            `short:"X" help:"HTTP method. Defaults to POST if a body is given, GET otherwise."`
	Header     map[string]string `short:"H" help:"Request header in key=value format. Can be repeated."`
	Cookie     map[string]string `help:"Request cookie in name=value format. Can be repeated."`
	CACertFile string            `help:"Path to a PEM bundle with the certificate to trust for https addresses."`
}

// Run the send command.
func (c *Send) Run(appCtx *actx.Context) error {
	var tlsCfg *tls.Config
	if c.CACertFile != "" {
		cert, err := loadTLSCert(appCtx.FS, c.CACertFile)
		if err != nil {
			return err
		}
		pool, err := crypto.CertPool(cert)
		if err != nil {
			return err
		}
		tlsCfg = crypto.DefaultTLSConfig()
		tlsCfg.RootCAs = pool
	}

	body := c.Body
	if body == "-" {
		data, err := io.ReadAll(appCtx.Stdin)
		if err != nil {
			return fmt.Errorf("failed reading body from stdin: %w", err)
		}
		body = string(data)
	}

	method := c.Method
	if method == "" {
		method = http.MethodGet
		if body != "" {
			method = http.MethodPost
		}
	}

	header := http.Header{}
	for k, v := range c.Header {
		header.Set(k, v)
	}

	cl := client.New(c.Address, tlsCfg, appCtx.Logger)
	resp, err := cl.Send(appCtx.Ctx, client.SendRequest{
		Method:  strings.ToUpper(method),
		Path:    c.Path,
		Header:  header,
		Cookies: c.Cookie,
		Body:    body,
	})
	if resp != nil {
		fmt.Fprintln(appCtx.Stdout, resp.Status)
		fmt.Fprint(appCtx.Stdout, resp.Body)
		if resp.Body != "" && !strings.HasSuffix(resp.Body, "\n") {
			fmt.Fprintln(appCtx.Stdout)
		}
	}

	//nolint:wrapcheck // The client returns structured errors.
	return err
}
