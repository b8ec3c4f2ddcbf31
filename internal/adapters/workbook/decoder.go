// Package workbook reads exam spreadsheets and writes export views as xlsx
// workbooks.
package workbook

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/okian/examboard/internal/domain/model"
)

// Decoder turns the first worksheet of an xlsx workbook into a model.Sheet.
type Decoder struct{}

// NewDecoder creates a decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode reads r completely. name is the display name reported on the sheet.
func (d *Decoder) Decode(ctx context.Context, name string, r io.Reader) (model.Sheet, error) {
	const op = "workbook.Decode"

	f, err := excelize.OpenReader(r)
	if err != nil {
		return model.Sheet{}, fmt.Errorf("%s: %s: %w: %v", op, name, ErrDecode, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return model.Sheet{}, fmt.Errorf("%s: %s: %w", op, name, ErrNoSheet)
	}
	first := sheets[0]

	raw, err := f.GetRows(first, excelize.Options{RawCellValue: true})
	if err != nil {
		return model.Sheet{}, fmt.Errorf("%s: %s: %w: %v", op, name, ErrDecode, err)
	}
	shown, err := f.GetRows(first)
	if err != nil {
		return model.Sheet{}, fmt.Errorf("%s: %s: %w: %v", op, name, ErrDecode, err)
	}

	styles := make(map[int]*excelize.Style)
	sheet := model.Sheet{Name: name, Rows: make([][]model.Cell, len(raw))}
	for r := range raw {
		if err := ctx.Err(); err != nil {
			return model.Sheet{}, err
		}
		width := len(raw[r])
		if r < len(shown) && len(shown[r]) > width {
			width = len(shown[r])
		}
		row := make([]model.Cell, width)
		for c := 0; c < width; c++ {
			row[c] = d.cell(f, first, r, c, at(raw, r, c), at(shown, r, c), styles)
		}
		sheet.Rows[r] = row
	}
	return sheet, nil
}

func (d *Decoder) cell(f *excelize.File, sheet string, r, c int, raw, shown string, styles map[int]*excelize.Style) model.Cell {
	out := model.Cell{Format: model.FormatGeneral, Display: shown}
	if raw == "" {
		return out
	}

	ref, err := excelize.CoordinatesToCellName(c+1, r+1)
	if err != nil {
		out.Value = raw
		return out
	}

	isDate := false
	if idx, err := f.GetCellStyle(sheet, ref); err == nil {
		style, ok := styles[idx]
		if !ok {
			style, _ = f.GetStyle(idx)
			styles[idx] = style
		}
		out.Format, isDate = formatOf(style)
	}

	typ, _ := f.GetCellType(sheet, ref)
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeBool, excelize.CellTypeError:
		out.Value = raw
		return out
	}

	num, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		out.Value = raw
		return out
	}
	if isDate || typ == excelize.CellTypeDate {
		if t, err := excelize.ExcelDateToTime(num, false); err == nil {
			out.Value = t.Round(time.Second)
			return out
		}
	}
	out.Value = num
	return out
}

func at(rows [][]string, r, c int) string {
	if r >= len(rows) || c >= len(rows[r]) {
		return ""
	}
	return rows[r][c]
}
