package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"

	actx "go.hackfix.me/reqbind/app/context"
	"go.hackfix.me/reqbind/crypto"
)

// Cert creates a self-signed TLS certificate bundle that can be used by the
// serve command.
type Cert struct {
	Path string   `arg:"" help:"Path of the PEM bundle to write."`
	Host []string `default:"localhost,127.0.0.1" help:"DNS name or IP address the certificate is valid for. Can be repeated."`
	//nolint:lll // Long struct tags are unavoidable.
	Expiration time.Time `default:"1y" type:"expiration" help:"Certificate expiration as a duration from now (e.g. 30d) or an RFC 3339 timestamp (e.g. %s)."`
	Force      bool      `help:"Overwrite the file if it exists."`
}

// Run the cert command.
func (c *Cert) Run(appCtx *actx.Context) error {
	if !c.Force {
		if exists, _ := vfs.Exists(appCtx.FS, c.Path); exists {
			return fmt.Errorf("file '%s' already exists", c.Path)
		}
	}

	cert, err := crypto.NewSelfSignedCert(c.Host, c.Expiration)
	if err != nil {
		return err
	}

	data, err := crypto.EncodeTLSCert(cert)
	if err != nil {
		return err
	}

	if err = appCtx.FS.MkdirAll(filepath.Dir(c.Path), 0o700); err != nil {
		return fmt.Errorf("failed creating directory: %w", err)
	}

	if err = vfs.WriteFile(appCtx.FS, c.Path, data, 0o600); err != nil {
		return fmt.Errorf("failed writing TLS certificate bundle: %w", err)
	}

	appCtx.Logger.Info("wrote TLS certificate bundle",
		"path", c.Path, "hosts", c.Host, "expiration", c.Expiration.Format(time.RFC3339))

	return nil
}
