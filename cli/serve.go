package cli

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/reqbind/app/config"
	actx "go.hackfix.me/reqbind/app/context"
	"go.hackfix.me/reqbind/crypto"
	"go.hackfix.me/reqbind/web/server"
	stypes "go.hackfix.me/reqbind/web/server/types"
)

// Serve starts the web server.
type Serve struct {
	Address string `arg:"" optional:"" help:"[host]:port to listen on. Defaults to the server.address configuration value."`
	//nolint:lll // Long struct tags are unavoidable.
	ErrorLevel  string `help:"Detail level of error messages returned to clients. This doesn't affect response status codes. Valid values: none, minimal, full. \n none: hide all error messages; minimal: hide server error messages; full: keep error messages intact"`
	TLSCertFile string `help:"Path to a PEM bundle with a TLS certificate chain and private key. If set, the server accepts both HTTP and HTTPS connections."`
}

// Validate checks the flag values. It is called by Kong after parsing.
func (c *Serve) Validate() error {
	if c.ErrorLevel != "" && !slices.Contains(config.ErrorLevels, c.ErrorLevel) {
		return fmt.Errorf("invalid error level '%s'; valid values: %v", c.ErrorLevel, config.ErrorLevels)
	}
	return nil
}

// Run the serve command.
func (c *Serve) Run(appCtx *actx.Context) error {
	cfg := appCtx.Config.Server

	var tlsCert *tls.Certificate
	if c.TLSCertFile != "" {
		cert, err := loadTLSCert(appCtx.FS, c.TLSCertFile)
		if err != nil {
			return err
		}
		tlsCert = &cert
	}

	srv, err := server.New(appCtx, server.Options{
		Address:           c.Address,
		ErrorLevel:        stypes.ErrorLevel(c.ErrorLevel),
		MaxBodySize:       cfg.MaxBodySize.V,
		DefaultLocale:     cfg.DefaultLocale.V,
		SupportedLocales:  cfg.SupportedLocales,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout.V,
		ReadTimeout:       cfg.ReadTimeout.V,
		WriteTimeout:      cfg.WriteTimeout.V,
		TLSCert:           tlsCert,
	})
	if err != nil {
		return err
	}

	// Gracefully shutdown the server if a process signal is received, or the
	// main context is done.
	// See https://dev.to/mokiat/proper-http-shutdown-in-go-3fji
	srvDone := make(chan error, 1)
	go func() {
		srvErr := srv.ListenAndServe()
		appCtx.Logger.Debug("web server shutdown")
		srvDone <- srvErr
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case s := <-sigCh:
		appCtx.Logger.Debug("process received signal", "signal", s.String())
	case <-appCtx.Ctx.Done():
		appCtx.Logger.Debug("app context is done")
	case srvErr := <-srvDone:
		if srvErr != nil && !errors.Is(srvErr, http.ErrServerClosed) {
			return fmt.Errorf("web server error: %w", srvErr)
		}
		return nil
	}

	// The app context may already be canceled at this point, so the shutdown
	// deadline is derived from a detached context.
	shutdownCtx, cancel := context.WithTimeout(
		context.WithoutCancel(appCtx.Ctx), cfg.ShutdownTimeout.V)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed shutting down web server: %w", err)
	}

	return nil
}

func loadTLSCert(fs vfs.FileSystem, path string) (tls.Certificate, error) {
	data, err := vfs.ReadFile(fs, path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed reading TLS certificate file: %w", err)
	}

	cert, err := crypto.DecodeTLSCert(data)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed loading TLS certificate '%s': %w", path, err)
	}

	return cert, nil
}
