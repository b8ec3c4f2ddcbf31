package workbook

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/okian/examboard/internal/domain/export"
)

const (
	sheetName     = "Sheet1"
	columnWidth   = 20
	timestampCode = "yyyy/mm/dd hh:mm:ss"
)

// WriteTable serialises an export view as a single-sheet workbook.
func WriteTable(w io.Writer, t export.Table) error {
	const op = "workbook.WriteTable"

	f, err := build(t)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SaveTable writes an export view to path.
func SaveTable(path string, t export.Table) error {
	const op = "workbook.SaveTable"

	f, err := build(t)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = f.Close() }()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func build(t export.Table) (*excelize.File, error) {
	f := excelize.NewFile()

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		_ = f.Close()
		return nil, err
	}

	code := timestampCode
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &code})
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, row := range t.Rows {
		values := make([]any, len(t.Columns))
		for j, c := range t.Columns {
			values[j] = row[c]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	if err := decorate(f, t, dateStyle); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func decorate(f *excelize.File, t export.Table, dateStyle int) error {
	if len(t.Columns) == 0 {
		return nil
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(t.Columns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", last+"1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "A", last, columnWidth); err != nil {
		return err
	}

	for j, c := range t.Columns {
		if c != export.ColTimestamp || len(t.Rows) == 0 {
			continue
		}
		col, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			return err
		}
		top := fmt.Sprintf("%s2", col)
		bottom := fmt.Sprintf("%s%d", col, len(t.Rows)+1)
		if err := f.SetCellStyle(sheetName, top, bottom, dateStyle); err != nil {
			return err
		}
	}

	rtl := true
	return f.SetSheetView(sheetName, 0, &excelize.ViewOptions{RightToLeft: &rtl})
}
