package report

import (
	"fmt"
	"time"

	"ledger-recon/core/reconcile"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the workbook.
const (
	SheetSummary  = "Summary"
	SheetForward  = "Forward Discrepancies"
	SheetBackward = "Backward Discrepancies"
	SheetDetails  = "Transaction Details"
)

func writeXLSX(path string, r *reconcile.Report, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	for _, name := range []string{SheetForward, SheetBackward, SheetDetails} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	summary := [][]string{{"Metric", "Value"}}
	for _, l := range Summarize(r, generatedAt) {
		summary = append(summary, []string{l.Label, l.Value})
	}
	if err := writeRows(f, SheetSummary, summary, bold); err != nil {
		return err
	}

	if err := writeRows(f, SheetForward, discrepancyRows(nil, "", r.Forward), bold); err != nil {
		return err
	}
	if err := writeRows(f, SheetBackward, discrepancyRows(nil, "", r.Backward), bold); err != nil {
		return err
	}

	details := discrepancyRows([]string{"Direction"}, DirectionForward, r.Forward)
	details = append(details, discrepancyRows(nil, DirectionBackward, r.Backward)[1:]...)
	if err := writeRows(f, SheetDetails, details, bold); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return f.SaveAs(path)
}

// discrepancyRows returns a header row followed by one row per discrepancy.
// A non-empty direction is prepended to each row under the prefix header.
func discrepancyRows(prefix []string, direction string, ds []reconcile.Discrepancy) [][]string {
	header := append(append([]string{}, prefix...), discrepancyHeader...)
	rows := make([][]string, 0, len(ds)+1)
	rows = append(rows, header)
	for _, d := range ds {
		row := discrepancyRow(d)
		if direction != "" {
			row = append([]string{direction}, row...)
		}
		rows = append(rows, row)
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]string, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	last, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 22)
}
