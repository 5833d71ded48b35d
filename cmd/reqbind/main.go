package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"go.hackfix.me/reqbind/app"
	actx "go.hackfix.me/reqbind/app/context"
	aerrors "go.hackfix.me/reqbind/app/errors"
)

func main() {
	// REQBIND_* variables can also be set in a .env file in the working
	// directory. Variables already set in the environment take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		aerrors.Log(aerrors.NewWithCause("failed loading .env file", err))
		os.Exit(1)
	}

	configFilePath := filepath.Join(xdg.ConfigHome, "reqbind", "config.json")

	a, err := app.New("reqbind", configFilePath,
		app.WithEnv(osEnv{}),
		app.WithFDs(
			os.Stdin,
			colorable.NewColorable(os.Stdout),
			colorable.NewColorable(os.Stderr),
		),
		app.WithFS(osfs.New()),
		app.WithLogger(isatty.IsTerminal(os.Stderr.Fd())),
	)
	if err != nil {
		aerrors.Log(err)
		os.Exit(1)
	}
	if err = a.Run(os.Args[1:]); err != nil {
		aerrors.Log(err)
		os.Exit(1)
	}
}

type osEnv struct{}

var _ actx.Environment = &osEnv{}

func (e osEnv) Get(key string) string {
	return os.Getenv(key)
}

func (e osEnv) Set(key, val string) error {
	return os.Setenv(key, val)
}
