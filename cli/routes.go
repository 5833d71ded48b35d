package cli

import (
	"fmt"

	actx "go.hackfix.me/reqbind/app/context"
	"go.hackfix.me/reqbind/web/server"
)

// Routes lists the routes served by the web server.
type Routes struct{}

// Run the routes command.
func (c *Routes) Run(appCtx *actx.Context) error {
	routes := server.Routes(appCtx, appCtx.Logger)

	data := make([][]string, 0, len(routes))
	for _, r := range routes {
		method := r.Method
		if method == "" {
			method = "ANY"
		}
		data = append(data, []string{method, r.Path, r.Summary})
	}

	header := []string{"Method", "Path", "Summary"}
	if err := renderTable(header, data, appCtx.Stdout); err != nil {
		return fmt.Errorf("failed rendering routes table: %w", err)
	}

	return nil
}
