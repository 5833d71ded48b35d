package api

import (
	"context"
	"fmt"
	"net/http"

	"go.hackfix.me/reqbind/web/server/types"
	"go.hackfix.me/reqbind/xlog"
)

// LogTest logs the same value at every level. Only messages at or above the
// configured level are written.
func (h *Handler) LogTest(ctx context.Context, _ *types.BaseRequest) (*types.TextResponse, error) {
	name := "Spring"
	log := h.log(ctx)

	_, _ = fmt.Fprintf(h.appCtx.Stdout, "name = %s\n", name)

	xlog.Trace(ctx, log, "trace log = "+name, "name", name)
	log.Debug("debug log = "+name, "name", name)
	log.Info("info log = "+name, "name", name)
	log.Warn("warn log = "+name, "name", name)
	log.Error("error log = "+name, "name", name)

	// The message is built even when DEBUG is disabled.
	log.Debug("String concat log=" + name)

	return types.NewTextResponse(http.StatusOK, "ok"), nil
}
