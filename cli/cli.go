package cli

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"go.hackfix.me/reqbind/app/config"
	actx "go.hackfix.me/reqbind/app/context"
	"go.hackfix.me/reqbind/xlog"
)

// CLI is the command line interface of reqbind.
type CLI struct {
	Serve  Serve  `kong:"cmd,help='Start the web server.'"`
	Routes Routes `kong:"cmd,help='List the routes served by the web server.'"`
	Send   Send   `kong:"cmd,help='Send a request to a running web server.'"`
	Cert   Cert   `kong:"cmd,help='Create a self-signed TLS certificate bundle.'"`

	Log struct {
		Level string `enum:"${logLevels}" default:"INFO" help:"Set the app logging level. Valid values: ${enum}"`
	} `embed:"" prefix:"log-"`
	// Configuration is managed independently from the CLI, so kong.ConfigFlag
	// isn't used.
	ConfigFile string           `kong:"default='${configFile}',help='Path to the reqbind configuration file.'"`
	Version    kong.VersionFlag `kong:"help='Output version and exit.'"`

	kong *kong.Kong
	kctx *kong.Context
}

// New initializes the command-line interface.
func New(appCtx *actx.Context, configFilePath, version string) (*CLI, error) {
	c := &CLI{}
	kparser, err := kong.New(c,
		kong.Name("reqbind"),
		kong.Description("Demonstrates binding HTTP request values to handlers."),
		kong.UsageOnError(),
		kong.DefaultEnvars("REQBIND"),
		kong.NamedMapper("expiration", &ExpirationMapper{timeNow: appCtx.TimeNow}),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			NoExpandSubcommands: true,
		}),
		kong.ValueFormatter(func(value *kong.Value) string {
			if value.Name == "expiration" {
				y, m, d := appCtx.TimeNow().Date()
				exampleExp := time.Date(y+1, m, d, 0, 0, 0, 0, appCtx.TimeNow().Location())
				value.Help = fmt.Sprintf(value.OrigHelp, exampleExp.Format(time.RFC3339))
			}
			return value.Help
		}),
		kong.Vars{
			"configFile": configFilePath,
			"logLevels":  strings.Join(xlog.LevelNames, ","),
			"version":    version,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed creating the Kong parser: %w", err)
	}

	c.kong = kparser

	return c, nil
}

// Execute starts the command execution. Parse must be called before this method.
func (c *CLI) Execute(appCtx *actx.Context) error {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	c.kong.Stdout = appCtx.Stdout
	c.kong.Stderr = appCtx.Stderr

	//nolint:wrapcheck // This is fine.
	return c.kctx.Run(appCtx)
}

// Parse the given command line arguments. This method must be called before
// Execute.
func (c *CLI) Parse(args []string) error {
	kctx, err := c.kong.Parse(args)
	if err != nil {
		return fmt.Errorf("failed parsing CLI arguments: %w", err)
	}
	c.kctx = kctx

	return nil
}

// Command returns the full path of the executed command.
func (c *CLI) Command() string {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	cmdPath := []string{}
	for _, p := range c.kctx.Path {
		if p.Command != nil {
			cmdPath = append(cmdPath, p.Command.Name)
		}
	}

	return strings.Join(cmdPath, " ")
}

// ApplyConfig applies configuration values to the CLI, but only if they weren't
// already set.
func (c *CLI) ApplyConfig(cfg *config.Config) {
	srv := cfg.Server
	if c.Serve.Address == "" && srv.Address.Valid {
		c.Serve.Address = srv.Address.V
	}
	if c.Serve.ErrorLevel == "" && srv.ErrorLevel.Valid {
		c.Serve.ErrorLevel = srv.ErrorLevel.V
	}
	if c.Serve.TLSCertFile == "" && srv.TLSCertFile.Valid {
		c.Serve.TLSCertFile = srv.TLSCertFile.V
	}
	if c.Send.Address == "" && srv.Address.Valid {
		c.Send.Address = dialAddress(srv.Address.V)
	}
}

// dialAddress converts a listen address into one a client can connect to,
// replacing an empty or unspecified host with localhost.
func dialAddress(listenAddr string) string {
	host, port, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return listenAddr
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}

	return net.JoinHostPort(host, port)
}
