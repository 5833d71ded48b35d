package context

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/reqbind/app/config"
)

// Context contains common objects used by the application. It is passed around
// the application to avoid direct dependencies on external systems, and make
// testing easier.
type Context struct {
	Ctx     context.Context  // global context
	FS      vfs.FileSystem   // filesystem
	Env     Environment      // process environment
	Logger  *slog.Logger     // global logger
	Config  *config.Config   // loaded configuration, set after CLI parsing
	TimeNow func() time.Time // current time source

	// Standard streams
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Metadata
	Version *VersionInfo
}
