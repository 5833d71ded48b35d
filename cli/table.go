package cli

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// maxColumnWidth is the widest a table cell can be before it's truncated.
const maxColumnWidth = 60

// renderTable writes rows as a borderless, left-aligned table with a line
// under the header.
func renderTable(header []string, rows [][]string, w io.Writer) error {
	rendition := tw.Rendition{
		Borders: tw.BorderNone,
		Symbols: tw.NewSymbols(tw.StyleASCII),
		Settings: tw.Settings{
			Lines: tw.Lines{
				ShowHeaderLine: tw.On,
				ShowFooterLine: tw.Off,
				ShowTop:        tw.Off,
				ShowBottom:     tw.Off,
			},
			Separators: tw.Separators{
				ShowHeader:     tw.Off,
				ShowFooter:     tw.Off,
				BetweenRows:    tw.Off,
				BetweenColumns: tw.Off,
			},
		},
	}

	leftAligned := tw.CellAlignment{Global: tw.AlignLeft}
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewBlueprint(rendition)),
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{Alignment: leftAligned},
			Row: tw.CellConfig{
				Formatting:   tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:    leftAligned,
				ColMaxWidths: tw.CellWidth{Global: maxColumnWidth},
			},
		}),
	)

	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return err //nolint:wrapcheck // This is wrapped by the caller.
	}

	return table.Render() //nolint:wrapcheck // This is wrapped by the caller.
}
