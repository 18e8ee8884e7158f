package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/zjrosen/recolor/internal/config"
	"github.com/zjrosen/recolor/internal/style"
)

const previewText = "The quick brown fox"

func newStylesCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List style tokens and the palette with previews",
		Long: `List every token accepted in a STYLE list, with its aliases and a preview,
followed by the palette used for capture groups without an explicit style.

Examples:
  recolor styles
  recolor styles --color never`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Validate(o.cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			palette, err := o.cfg.PaletteStyles()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return writeStyles(out, o.cfg.ColorProfile(out), palette)
		},
	}
}

func writeStyles(w io.Writer, profile termenv.Profile, palette style.Palette) error {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)
	heading := r.NewStyle().Bold(true)

	rows := [][]string{{heading.Render("TOKEN"), heading.Render("ALIASES"), heading.Render("KIND"), heading.Render("PREVIEW")}}
	for _, tok := range style.Tokens() {
		rows = append(rows, []string{
			tok.Name,
			strings.Join(tok.Aliases, ", "),
			tok.Kind.String(),
			tok.Apply(style.Style{}).Render(profile, previewText),
		})
	}
	rows = append(rows, []string{"#RRGGBB", "", "truecolor", style.MustParse("#ff8700").Render(profile, "#ff8700")})

	if err := writeTable(w, rows); err != nil {
		return err
	}

	rows = [][]string{{heading.Render("GROUP"), heading.Render("PREVIEW")}}
	for i := 1; i <= len(palette); i++ {
		rows = append(rows, []string{fmt.Sprintf("%d", i), palette.At(i).Render(profile, previewText)})
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return writeTable(w, rows)
}

// writeTable left-aligns columns by visible width; cells may carry escape
// sequences. The last column is not padded.
func writeTable(w io.Writer, rows [][]string) error {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], ansi.StringWidth(cell))
		}
	}

	var b strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			b.WriteString(cell)
			if i == len(row)-1 {
				break
			}
			b.WriteString(strings.Repeat(" ", widths[i]-ansi.StringWidth(cell)+2))
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
