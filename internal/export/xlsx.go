package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	circlesSheet = "Circles"
)

// XLSX writes a workbook with a Summary sheet (inputs and results) and a
// Circles sheet listing every centre with its row index.
func XLSX(w io.Writer, s Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	in := s.Request.Inputs
	rows := [][]any{
		{"Name", s.title()},
		{"Diameter", in.Diameter},
		{"Clearance", in.Clearance},
		{"Width", in.Width},
		{"Height", in.Height},
		{"Unit", s.unit()},
		{},
	}
	for _, m := range Summarize(s) {
		rows = append(rows, []any{m.Label, m.Value})
	}
	if err := writeRows(f, summarySheet, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(circlesSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	rows = [][]any{{"#", "Row", "X", "Y"}}
	row, lastY := 0, 0.0
	for i, c := range s.Result.Circles {
		if i > 0 && c.Y != lastY {
			row++
		}
		lastY = c.Y
		rows = append(rows, []any{i + 1, row + 1, c.X, c.Y})
	}
	if err := writeRows(f, circlesSheet, rows); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
