// Package report prints the human readable summary of a knowledge base run.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/hashicorp-forge/notion-helper/pkg/kb"
)

// TopN is the number of authors and skill areas listed.
const TopN = 3

// Printer writes reports to a terminal.
type Printer struct {
	out       io.Writer
	useColors bool
}

// NewPrinter creates a Printer. Colors are only used when enabled and the
// terminal supports them.
func NewPrinter(out io.Writer, useColors bool) *Printer {
	return &Printer{
		out:       out,
		useColors: useColors && !color.NoColor,
	}
}

// Print writes the summary of r.
func (p *Printer) Print(r *kb.Result) error {
	split := r.SplitDate.Format(kb.DateLayout)
	summary := r.Summary()

	p.header(fmt.Sprintf("Knowledge base %q", r.DatabaseTitle))
	if day, ok := r.Dates.Max(); ok {
		p.printf("Most active day is %s with %d entries added\n", p.bold(day.Key), day.Count)
	} else {
		p.printf("No entries added since %s\n", split)
	}

	p.header("Most active authors")
	authorRows := make([][]string, 0, TopN)
	for _, e := range r.Authorship.Top(TopN) {
		authorRows = append(authorRows, []string{r.Authors.NameOf(e.Key), strconv.Itoa(e.Count)})
	}
	if err := p.table([]string{"Author", "Articles"}, authorRows); err != nil {
		return err
	}

	p.header("Most popular skill/areas")
	skillRows := make([][]string, 0, TopN)
	for _, e := range r.SkillAreas.Top(TopN) {
		skillRows = append(skillRows, []string{e.Key, strconv.Itoa(e.Count)})
	}
	if err := p.table([]string{"Skill/Area", "Articles"}, skillRows); err != nil {
		return err
	}

	p.header("Articles")
	p.printf("Number of articles (total): %d\n", summary.Total)
	p.printf("Articles after %s: %d\n", split, summary.Future)
	p.printf("Articles before %s: %d\n", split, summary.Past)
	p.printf("Delta: %d\n", summary.Delta)
	p.printf("Growth by: %s %%\n", p.bold(summary.GrowthString()))

	return nil
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *Printer) header(title string) {
	if p.useColors {
		color.New(color.FgWhite, color.Bold).Fprintf(p.out, "\n%s\n", title)
		color.New(color.FgWhite).Fprintf(p.out, "%s\n", strings.Repeat("─", len(title)))
		return
	}
	fmt.Fprintf(p.out, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
}

func (p *Printer) bold(text string) string {
	if p.useColors {
		return color.New(color.Bold).Sprint(text)
	}
	return text
}

func (p *Printer) table(header []string, rows [][]string) error {
	if len(rows) == 0 {
		p.printf("(none)\n")
		return nil
	}

	table := tablewriter.NewTable(p.out,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)

	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("error rendering table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("error rendering table: %w", err)
	}
	return nil
}
