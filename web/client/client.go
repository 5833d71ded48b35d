package client

import (
	"crypto/tls"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.hackfix.me/reqbind/crypto"
)

// Client is a friendly interface over the reqbind HTTP API.
type Client struct {
	*http.Client
	baseURL   string
	userAgent string
	logger    *slog.Logger
}

// UserAgent is the User-Agent header value sent by the client, unless the
// request sets one.
const UserAgent = "reqbind-client"

// New returns a new client for the server at address. If address has no
// scheme, http is assumed. tlsConfig is used for https addresses, and
// defaults to [crypto.DefaultTLSConfig].
func New(address string, tlsConfig *tls.Config, logger *slog.Logger) *Client {
	if tlsConfig == nil {
		tlsConfig = crypto.DefaultTLSConfig()
	}

	return &Client{
		Client: &http.Client{
			Timeout: time.Minute,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: tlsConfig,
			},
		},
		baseURL:   baseURL(address),
		userAgent: UserAgent,
		logger:    logger.With("component", "web-client"),
	}
}

func baseURL(address string) string {
	if strings.HasPrefix(address, "http://") || strings.HasPrefix(address, "https://") {
		return address
	}
	return "http://" + address
}
