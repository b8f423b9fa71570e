// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/meerpipe/meerlaunch/internal/config"
	"github.com/meerpipe/meerlaunch/pkg/params"
)

// markdownWidth is the wrap width of rendered Markdown output.
const markdownWidth = 100

func newParamsCommand(app *App) *cobra.Command {
	var markdown, schema bool
	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "List the pipeline parameters",
		Long: `List every pipeline parameter with its type, default and description,
grouped by section. --schema prints the CUE schema that --params-file
content is validated against.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := params.Meerpipe()
			if schema {
				fmt.Fprint(app.stdout, cat.Schema())
				return nil
			}
			if !markdown {
				fmt.Fprint(app.stdout, renderParamsTable(cat))
				return nil
			}

			cfg, _, err := app.loadConfig(cmd.Context())
			if err != nil {
				return renderFailure(cmd, app.stderr, err, 1, app.verbose)
			}
			return renderParamsMarkdown(app.stdout, cat, cfg.UI.ColorScheme)
		},
	}
	paramsCmd.Flags().BoolVar(&markdown, "markdown", false, "render the parameter reference as Markdown")
	paramsCmd.Flags().BoolVar(&schema, "schema", false, "print the CUE schema for parameter files")
	paramsCmd.MarkFlagsMutuallyExclusive("markdown", "schema")
	return paramsCmd
}

// renderParamsTable renders one table per section.
func renderParamsTable(cat *params.Catalog) string {
	var sb strings.Builder
	for i, section := range cat.Sections() {
		if i > 0 {
			sb.WriteString("\n")
		}
		if section.Title != "" {
			sb.WriteString(TitleStyle.Render(section.Title))
			sb.WriteString("\n")
		}

		rows := make([][]string, 0, len(section.Params))
		for _, p := range section.Params {
			rows = append(rows, []string{"--" + p.Name, p.Type.String(), defaultLabel(p), p.Description})
		}
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(tableBorderStyle).
			Headers("FLAG", "TYPE", "DEFAULT", "DESCRIPTION").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return tableHeaderStyle
				}
				if col == 0 {
					return tableCellStyle.Foreground(ColorHighlight)
				}
				return tableCellStyle
			})
		sb.WriteString(t.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// paramsMarkdown is the parameter reference as a Markdown document.
func paramsMarkdown(cat *params.Catalog) string {
	var sb strings.Builder
	sb.WriteString("# nf-core/meerpipe parameters\n")
	for _, section := range cat.Sections() {
		title := section.Title
		if title == "" {
			title = "Other"
		}
		fmt.Fprintf(&sb, "\n## %s\n\n", title)
		sb.WriteString("| Parameter | Type | Default | Description |\n")
		sb.WriteString("|---|---|---|---|\n")
		for _, p := range section.Params {
			fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n",
				p.Name, p.Type, defaultLabel(p), strings.ReplaceAll(p.Description, "|", `\|`))
		}
	}
	return sb.String()
}

func renderParamsMarkdown(w io.Writer, cat *params.Catalog, scheme config.ColorScheme) error {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(markdownWidth)}
	if scheme == config.ColorSchemeAuto || scheme == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(string(scheme)))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return err
	}
	out, err := r.Render(paramsMarkdown(cat))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func defaultLabel(p params.Param) string {
	if !p.Default.IsSet() {
		return "-"
	}
	return p.Default.String()
}
