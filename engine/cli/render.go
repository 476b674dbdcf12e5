package cli

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// table is a set of rows which render as a text table or as a YAML document.
type table interface {
	header() []string
	rows() [][]string
}

func render(w io.Writer, format string, t table, doc any) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}

		return enc.Close()
	case FormatText, "":
		tw := tablewriter.NewWriter(w)
		tw.SetAutoWrapText(false)
		tw.SetHeader(t.header())
		tw.SetBorders(tablewriter.Border{Left: false, Right: false, Top: true, Bottom: true})
		tw.AppendBulk(t.rows())
		tw.Render()

		return nil
	}

	return fmt.Errorf("unknown format %q", format)
}
