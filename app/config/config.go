package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"
	"golang.org/x/text/language"

	"go.hackfix.me/reqbind/xtime"
)

// ErrorLevels are the valid values of Server.ErrorLevel.
var ErrorLevels = []string{"none", "minimal", "full"}

// Config represents the application configuration, backed by a filesystem for
// persistence.
type Config struct {
	Server Server

	fs   vfs.FileSystem
	path string
}

// NewConfig creates a new Config instance with the specified filesystem
// and configuration file path.
func NewConfig(fs vfs.FileSystem, path string) *Config {
	return &Config{fs: fs, path: path}
}

// Load reads and parses the configuration file from the filesystem.
// If the file doesn't exist, it initializes with an empty configuration.
func (c *Config) Load() error {
	configJSON, err := vfs.ReadFile(c.fs, c.path)
	if err != nil && !vfs.IsErrNotExist(err) {
		return fmt.Errorf("failed reading configuration file: %w", err)
	}

	// Ensure that unmarshalling JSON doesn't fail if the file doesn't exist or is empty.
	if len(configJSON) == 0 {
		configJSON = []byte("{}")
	}

	if err = json.Unmarshal(configJSON, c); err != nil {
		return fmt.Errorf("failed parsing configuration file: %w", err)
	}

	return nil
}

// Path returns the filesystem path where the configuration is stored.
func (c *Config) Path() string {
	return c.path
}

// Save writes the current configuration to the filesystem as JSON.
func (c *Config) Save() error {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed creating configuration directory: %w", err)
	}
	configJSON, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed serializing configuration data: %w", err)
	}
	if err = vfs.WriteFile(c.fs, c.path, configJSON, 0o644); err != nil {
		return fmt.Errorf("failed writing configuration file: %w", err)
	}

	return nil
}

// Server defines configuration options specific to the HTTP server.
type Server struct {
	// Address is the network address in [host]:port format the server will listen on.
	Address sql.Null[string]
	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	ReadHeaderTimeout sql.Null[time.Duration]
	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	ReadTimeout sql.Null[time.Duration]
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout sql.Null[time.Duration]
	// ShutdownTimeout is the time in-flight requests are given to complete
	// once the server is asked to stop.
	ShutdownTimeout sql.Null[time.Duration]
	// MaxBodySize is the maximum size of request bodies in bytes.
	MaxBodySize sql.Null[int64]
	// ErrorLevel is the detail level of error messages returned to clients.
	// One of ErrorLevels.
	ErrorLevel sql.Null[string]
	// DefaultLocale is the locale used when a request doesn't specify one via
	// the Accept-Language header. It's a BCP 47 language tag.
	DefaultLocale sql.Null[string]
	// SupportedLocales restricts locale resolution to these BCP 47 tags. If
	// empty, the client's preferred locale is used as is.
	SupportedLocales []string
	// TLSCertFile is the path to a PEM bundle with the TLS certificate chain
	// and private key. If set, the server accepts TLS connections in addition
	// to plain HTTP.
	TLSCertFile sql.Null[string]
}

type cfgWrapper struct {
	Server srvCfgWrapper `json:"server"`
}
type srvCfgWrapper struct {
	Address           string   `json:"address,omitempty"`
	ReadHeaderTimeout string   `json:"read_header_timeout,omitempty"`
	ReadTimeout       string   `json:"read_timeout,omitempty"`
	WriteTimeout      string   `json:"write_timeout,omitempty"`
	ShutdownTimeout   string   `json:"shutdown_timeout,omitempty"`
	MaxBodySize       int64    `json:"max_body_size,omitempty"`
	ErrorLevel        string   `json:"error_level,omitempty"`
	DefaultLocale     string   `json:"default_locale,omitempty"`
	SupportedLocales  []string `json:"supported_locales,omitempty"`
	TLSCertFile       string   `json:"tls_cert_file,omitempty"`
}

// MarshalJSON implements custom JSON marshaling to convert sql.Null values
// to their underlying types, omitting invalid/null fields from the output.
func (c Config) MarshalJSON() ([]byte, error) {
	w := cfgWrapper{}
	s := c.Server

	if s.Address.Valid {
		w.Server.Address = s.Address.V
	}
	w.Server.ReadHeaderTimeout = formatDuration(s.ReadHeaderTimeout)
	w.Server.ReadTimeout = formatDuration(s.ReadTimeout)
	w.Server.WriteTimeout = formatDuration(s.WriteTimeout)
	w.Server.ShutdownTimeout = formatDuration(s.ShutdownTimeout)
	if s.MaxBodySize.Valid {
		w.Server.MaxBodySize = s.MaxBodySize.V
	}
	if s.ErrorLevel.Valid {
		w.Server.ErrorLevel = s.ErrorLevel.V
	}
	if s.DefaultLocale.Valid {
		w.Server.DefaultLocale = s.DefaultLocale.V
	}
	w.Server.SupportedLocales = s.SupportedLocales
	if s.TLSCertFile.Valid {
		w.Server.TLSCertFile = s.TLSCertFile.V
	}

	//nolint:wrapcheck // This is fine.
	return json.Marshal(w)
}

// UnmarshalJSON implements custom JSON unmarshaling to convert plain values
// into sql.Null types, parse duration strings into time.Duration values, and
// validate enumerated values and language tags.
func (c *Config) UnmarshalJSON(data []byte) error {
	var w cfgWrapper
	if err := json.Unmarshal(data, &w); err != nil {
		//nolint:wrapcheck // This is fine.
		return err
	}
	s := &c.Server

	if w.Server.Address != "" {
		s.Address = sql.Null[string]{V: w.Server.Address, Valid: true}
	}

	durations := []struct {
		name   string
		value  string
		target *sql.Null[time.Duration]
	}{
		{"read header timeout", w.Server.ReadHeaderTimeout, &s.ReadHeaderTimeout},
		{"read timeout", w.Server.ReadTimeout, &s.ReadTimeout},
		{"write timeout", w.Server.WriteTimeout, &s.WriteTimeout},
		{"shutdown timeout", w.Server.ShutdownTimeout, &s.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		dur, err := xtime.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("failed parsing server %s: %w", d.name, err)
		}
		if dur <= 0 {
			return fmt.Errorf("server %s must be positive", d.name)
		}
		*d.target = sql.Null[time.Duration]{V: dur, Valid: true}
	}

	if w.Server.MaxBodySize < 0 {
		return fmt.Errorf("invalid server max body size: %d", w.Server.MaxBodySize)
	}
	if w.Server.MaxBodySize > 0 {
		s.MaxBodySize = sql.Null[int64]{V: w.Server.MaxBodySize, Valid: true}
	}

	if w.Server.ErrorLevel != "" {
		if !slices.Contains(ErrorLevels, w.Server.ErrorLevel) {
			return fmt.Errorf("invalid server error level '%s'; valid values: %v",
				w.Server.ErrorLevel, ErrorLevels)
		}
		s.ErrorLevel = sql.Null[string]{V: w.Server.ErrorLevel, Valid: true}
	}

	if w.Server.DefaultLocale != "" {
		if _, err := language.Parse(w.Server.DefaultLocale); err != nil {
			return fmt.Errorf("failed parsing server default locale: %w", err)
		}
		s.DefaultLocale = sql.Null[string]{V: w.Server.DefaultLocale, Valid: true}
	}

	for _, loc := range w.Server.SupportedLocales {
		if _, err := language.Parse(loc); err != nil {
			return fmt.Errorf("failed parsing server supported locale '%s': %w", loc, err)
		}
	}
	s.SupportedLocales = w.Server.SupportedLocales

	if w.Server.TLSCertFile != "" {
		s.TLSCertFile = sql.Null[string]{V: w.Server.TLSCertFile, Valid: true}
	}

	return nil
}

// SetDefaults sets default configuration values if they weren't set already.
func (c *Config) SetDefaults() {
	s := &c.Server
	setDefault(&s.Address, ":8080")
	setDefault(&s.ReadHeaderTimeout, 10*time.Second)
	setDefault(&s.ReadTimeout, 30*time.Second)
	setDefault(&s.WriteTimeout, time.Minute)
	setDefault(&s.ShutdownTimeout, 10*time.Second)
	setDefault(&s.MaxBodySize, 1024*1024) // 1MiB
	setDefault(&s.ErrorLevel, "minimal")
	setDefault(&s.DefaultLocale, "en")
}

func setDefault[T any](v *sql.Null[T], def T) {
	if !v.Valid {
		*v = sql.Null[T]{V: def, Valid: true}
	}
}

func formatDuration(d sql.Null[time.Duration]) string {
	if !d.Valid {
		return ""
	}
	return xtime.FormatDuration(d.V, time.Millisecond)
}
