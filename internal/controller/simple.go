package controller

import (
	"bytes"
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	m "cratecheck.dev/pkg/cratecheck/internal/model"
)

var headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)

// SimpleUI implements UI by printing plain lines to the command's output.
type SimpleUI struct {
	cmd    *cobra.Command
	styled bool
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command, styled bool) *SimpleUI {
	return &SimpleUI{cmd: cmd, styled: styled}
}

// DisplayVerdicts prints every finding on its own line.
func (s *SimpleUI) DisplayVerdicts(ctx context.Context, result m.Comparison, options ...DisplayOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := DisplayConfig{}
	for _, opt := range options {
		opt(&cfg)
	}

	for _, verdict := range result.Verdicts {
		s.printf("%s\n", verdict.Line())

		if cfg.diff && verdict.Kind == m.Incompatible {
			diff, err := shapeDiff(verdict.Old, verdict.New)
			if err != nil {
				return fmt.Errorf("diff %s: %w", verdict.Key(), err)
			}

			s.printf("%s", diff)
		}
	}

	return nil
}

func shapeDiff(oldDecl, newDecl m.Declaration) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldDecl.String() + "\n"),
		B:        difflib.SplitLines(newDecl.String() + "\n"),
		FromFile: "old",
		ToFile:   "new",
		Context:  2,
	}

	return difflib.GetUnifiedDiffString(diff)
}

// DisplaySummary renders a table of per-module counts with a totals footer.
func (s *SimpleUI) DisplaySummary(ctx context.Context, result m.Comparison) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	title := "Compatibility summary"
	if s.styled {
		title = headingStyle.Render(title)
	}

	s.printf("\n%s\n%s", title, renderSummaryTable(result))

	return nil
}

func renderSummaryTable(result m.Comparison) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Module", "Compatible", "Incompatible", "Missing"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoFormatHeaders(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER,
	})

	var incompatible, missing, absent int

	for _, stats := range result.Modules {
		if stats.Absent {
			absent++

			table.Append([]string{stats.Path.String(), "-", "-", "module"})

			continue
		}

		incompatible += stats.Incompatible
		missing += stats.Missing

		table.Append([]string{
			stats.Path.String(),
			fmt.Sprintf("%d", stats.Compatible),
			fmt.Sprintf("%d", stats.Incompatible),
			fmt.Sprintf("%d", stats.Missing),
		})
	}

	missingTotal := fmt.Sprintf("%d", missing)
	if absent > 0 {
		missingTotal += fmt.Sprintf(" (+%d %s)", absent, plural(absent, "module"))
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Modules %d", len(result.Modules)),
		fmt.Sprintf("%d", result.CompatibleCount()),
		fmt.Sprintf("%d", incompatible),
		missingTotal,
	})

	table.Render()

	return tableBuffer.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}

	return word + "s"
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
