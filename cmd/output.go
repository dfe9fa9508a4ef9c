package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"ledger-recon/core/reconcile"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Output formats of the CLI summaries.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// detectFormat returns the explicit format, or table for terminals and
// json for pipes.
func detectFormat(explicit string) (string, error) {
	switch f := strings.ToLower(explicit); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			return FormatTable, nil
		}
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", explicit)
	}
}

var printer = message.NewPrinter(language.English)

func count(n int64) string {
	return printer.Sprintf("%d", n)
}

// renderTable writes a table whose last column is right aligned.
func renderTable(w io.Writer, headers []string, rows [][]string) error {
	align := make([]tw.Align, len(headers))
	for i := range align {
		align[i] = tw.AlignLeft
	}
	align[len(align)-1] = tw.AlignRight

	config := tablewriter.Config{}
	config.Header.Alignment = tw.CellAlignment{PerColumn: align}
	config.Row.Alignment = tw.CellAlignment{PerColumn: align}
	table := tablewriter.NewTable(w, tablewriter.WithConfig(config))

	caser := cases.Title(language.English)
	head := make([]any, len(headers))
	for i, h := range headers {
		head[i] = caser.String(h)
	}
	table.Header(head...)

	for _, row := range rows {
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	return table.Render()
}

// runSummary is the CLI view of a finished run.
type runSummary struct {
	RunID         string                  `json:"run_id" yaml:"run_id"`
	Phase         reconcile.Phase         `json:"phase" yaml:"phase"`
	Rendered      bool                    `json:"rendered" yaml:"rendered"`
	Report        string                  `json:"report" yaml:"report"`
	Stats         reconcile.StatsSnapshot `json:"stats" yaml:"stats"`
	MatchRate     float64                 `json:"match_rate" yaml:"match_rate"`
	Forward       int                     `json:"forward_discrepancies" yaml:"forward_discrepancies"`
	Backward      int                     `json:"backward_discrepancies" yaml:"backward_discrepancies"`
	Breakdown     map[reconcile.Kind]int  `json:"breakdown" yaml:"breakdown"`
	RecordsPerSec float64                 `json:"records_per_second" yaml:"records_per_second"`
}

func newRunSummary(res *reconcile.Result, reportPath string) runSummary {
	s := runSummary{
		RunID:     res.RunID,
		Phase:     res.Phase,
		Rendered:  res.Rendered,
		Report:    reportPath,
		Stats:     res.Stats,
		MatchRate: res.Stats.MatchRate(),
		Breakdown: map[reconcile.Kind]int{},
	}
	if res.Report != nil {
		s.Forward = len(res.Report.Forward)
		s.Backward = len(res.Report.Backward)
		s.Breakdown = res.Report.CountByKind()
		s.RecordsPerSec = res.Report.RecordsPerSecond()
	}
	return s
}

func printRunSummary(w io.Writer, format string, s runSummary) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatYAML:
		out, err := yaml.Marshal(s)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	}

	rows := [][]string{
		{"run id", s.RunID},
		{"phase", string(s.Phase)},
		{"report", s.Report},
		{"rendered", fmt.Sprintf("%t", s.Rendered)},
		{"file records", count(s.Stats.TotalFileRecords)},
		{"ledger records", count(s.Stats.TotalLedgerRecords)},
		{"processed", count(s.Stats.Processed)},
		{"matched", count(s.Stats.Matched)},
		{"malformed", count(s.Stats.Malformed)},
		{"processing errors", count(s.Stats.ProcessingErrors)},
		{"match rate", fmt.Sprintf("%.2f%%", s.MatchRate)},
		{"records/second", printer.Sprintf("%.1f", s.RecordsPerSec)},
		{"forward discrepancies", count(int64(s.Forward))},
		{"backward discrepancies", count(int64(s.Backward))},
	}
	if err := renderTable(w, []string{"metric", "value"}, rows); err != nil {
		return err
	}
	return printBreakdown(w, s.Breakdown)
}

func printBreakdown(w io.Writer, breakdown map[reconcile.Kind]int) error {
	var rows [][]string
	for _, k := range reconcile.Kinds {
		if n := breakdown[k]; n > 0 {
			rows = append(rows, []string{string(k), count(int64(n))})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return renderTable(w, []string{"discrepancy", "count"}, rows)
}
