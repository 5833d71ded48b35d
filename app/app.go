package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"

	"go.hackfix.me/reqbind/app/config"
	actx "go.hackfix.me/reqbind/app/context"
	"go.hackfix.me/reqbind/cli"
	"go.hackfix.me/reqbind/xlog"
)

// App is the application.
type App struct {
	name string
	ctx  *actx.Context
	cli  *cli.CLI
	// the logging level is set via the CLI, if the app was initialized with the
	// WithLogger option.
	logLevel *slog.LevelVar
}

// New initializes a new application. configFilePath is the default path of
// the configuration file, which can be overridden from the CLI.
func New(name, configFilePath string, opts ...Option) (*App, error) {
	version, err := actx.GetVersion()
	if err != nil {
		return nil, err
	}

	defaultCtx := &actx.Context{
		Ctx:     context.Background(),
		FS:      memoryfs.New(),
		Logger:  slog.Default(),
		TimeNow: time.Now,
		Version: version,
	}
	app := &App{name: name, ctx: defaultCtx}

	for _, opt := range opts {
		opt(app)
	}

	ver := fmt.Sprintf("%s %s", app.name, app.ctx.Version.String())
	app.cli, err = cli.New(app.ctx, configFilePath, ver)
	if err != nil {
		return nil, err
	}

	return app, nil
}

// Run initializes the application environment and starts execution of the
// application.
func (app *App) Run(args []string) error {
	if err := app.cli.Parse(args); err != nil {
		return err
	}

	lvl, err := xlog.ParseLevel(app.cli.Log.Level)
	if err != nil {
		return err
	}
	if app.logLevel != nil {
		app.logLevel.Set(lvl)
		slog.SetLogLoggerLevel(lvl)
	}

	if app.ctx.Config == nil {
		app.ctx.Config = config.NewConfig(app.ctx.FS, app.cli.ConfigFile)
		if err = app.ctx.Config.Load(); err != nil {
			return err
		}
	}
	app.ctx.Config.SetDefaults()
	app.cli.ApplyConfig(app.ctx.Config)

	app.ctx.Logger.Debug("running command", "command", app.cli.Command(),
		"config_file", app.ctx.Config.Path())

	return app.cli.Execute(app.ctx)
}
