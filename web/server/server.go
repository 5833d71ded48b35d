package server

import (
	"crypto/tls"
	"log/slog"
	"net"
	"net/http"
	"time"

	actx "go.hackfix.me/reqbind/app/context"
	"go.hackfix.me/reqbind/crypto"
	"go.hackfix.me/reqbind/web/server/api"
	"go.hackfix.me/reqbind/web/server/handler"
	"go.hackfix.me/reqbind/web/server/middleware"
	"go.hackfix.me/reqbind/web/server/types"
)

// Options configures the web server.
type Options struct {
	Address           string
	ErrorLevel        types.ErrorLevel
	MaxBodySize       int64
	DefaultLocale     string
	SupportedLocales  []string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	// TLSCert enables TLS on the listener, in addition to plain HTTP.
	TLSCert *tls.Certificate
}

// Server is a wrapper around http.Server with some custom behavior.
type Server struct {
	*http.Server
	logger *slog.Logger
}

// New returns a new web Server instance configured with opts. If opts.TLSCert
// is provided, ListenAndServe accepts both HTTP and HTTPS connections on the
// same address.
func New(appCtx *actx.Context, opts Options) (*Server, error) {
	var tlsCfg *tls.Config
	if opts.TLSCert != nil {
		tlsCfg = crypto.DefaultTLSConfig()
		tlsCfg.Certificates = []tls.Certificate{*opts.TLSCert}
	}

	logger := appCtx.Logger.With("component", "web-server")
	h, err := SetupHandlers(appCtx, logger, opts)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		Server: &http.Server{
			Handler:           h,
			Addr:              opts.Address,
			ReadHeaderTimeout: opts.ReadHeaderTimeout,
			ReadTimeout:       opts.ReadTimeout,
			WriteTimeout:      opts.WriteTimeout,
			TLSConfig:         tlsCfg,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		logger: logger,
	}

	return srv, nil
}

// ListenAndServe starts either an HTTP or hybrid HTTP/HTTPS server. It stores
// the actual listen address, which is convenient when the address is
// dynamically determined by the system (e.g. ':0').
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		//nolint:wrapcheck // This is fine.
		return err
	}

	s.Addr = ln.Addr().String()

	return s.Serve(ln)
}

// Serve accepts connections on ln. If TLS is configured, each connection is
// served as either HTTP or HTTPS, and must send its first bytes within the
// read header timeout.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("started listener", "address", ln.Addr().String(), "tls", s.TLSConfig != nil)

	if s.TLSConfig != nil {
		ln = NewHybridListener(ln, s.TLSConfig, s.ReadHeaderTimeout, s.logger)
	}

	//nolint:wrapcheck // This is fine.
	return s.Server.Serve(ln)
}

// SetupHandlers configures the server HTTP handlers.
func SetupHandlers(appCtx *actx.Context, logger *slog.Logger, opts Options) (http.Handler, error) {
	locales, err := handler.NewLocaleResolver(opts.DefaultLocale, opts.SupportedLocales)
	if err != nil {
		return nil, err
	}

	apiHandler := api.SetupHandlers(appCtx, logger, api.Options{
		ErrorLevel: opts.ErrorLevel,
		Locales:    locales,
		Metrics:    middleware.NewMetrics(),
	})

	return middleware.Chain(
		middleware.RequestID(logger),
		middleware.Logger(logger),
		middleware.BodyLimit(opts.MaxBodySize),
		apiHandler,
	), nil
}

// Routes returns the API routes served by the server.
func Routes(appCtx *actx.Context, logger *slog.Logger) []api.Route {
	return api.New(appCtx, logger, api.Options{Metrics: middleware.NewMetrics()}).Routes()
}
