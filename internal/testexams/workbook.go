// Package testexams builds synthetic exam workbooks and drives the runs API
// with them.
package testexams

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/okian/examboard/internal/domain/model"
)

// FormatStyle selects how the maximum score is embedded in the score cell.
type FormatStyle int

const (
	// FormatSlash renders `0" / 40"`.
	FormatSlash FormatStyle = iota
	// FormatArabic renders `0" من 40"`.
	FormatArabic
	// FormatOutOf renders `0" out of 40"`.
	FormatOutOf
	// FormatGeneral leaves the cell unformatted so the maximum defaults to 100.
	FormatGeneral
)

const (
	sheetName       = "Form Responses 1"
	timestampFormat = "yyyy/mm/dd hh:mm:ss"
	filePermission  = 0o600
	dirPermission   = 0o750
)

// Entry is one submission row.
type Entry struct {
	Name      string
	Submitted time.Time
	Score     float64
}

// Exam describes one workbook.
type Exam struct {
	// Name is the file name including its suffix.
	Name     string
	MaxScore float64
	Style    FormatStyle
	// Headers overrides the default timestamp, name and score headers.
	Headers []string
	Entries []Entry
}

// NumFmt returns the custom number format of the score column, or "".
func (e Exam) NumFmt() string {
	limit := strconv.FormatFloat(e.MaxScore, 'f', -1, 64)
	switch e.Style {
	case FormatSlash:
		return `0" / ` + limit + `"`
	case FormatArabic:
		return `0" من ` + limit + `"`
	case FormatOutOf:
		return `0" out of ` + limit + `"`
	}
	return ""
}

// Build renders exam as xlsx bytes.
func Build(e Exam) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headers := e.Headers
	if len(headers) == 0 {
		headers = []string{model.DefaultTimestampLabel, model.DefaultNameLabel, model.DefaultScoreLabel}
	}
	head := make([]any, len(headers))
	for i, h := range headers {
		head[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &head); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, en := range e.Entries {
		row := []any{en.Submitted, en.Name, en.Score}
		if en.Submitted.IsZero() {
			row[0] = nil
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if len(e.Entries) > 0 {
		if err := styleColumns(f, e); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func styleColumns(f *excelize.File, e Exam) error {
	last := len(e.Entries) + 1

	tsCode := timestampFormat
	tsStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &tsCode})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A2", fmt.Sprintf("A%d", last), tsStyle); err != nil {
		return err
	}

	code := e.NumFmt()
	if code == "" {
		return nil
	}
	scoreStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &code})
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheetName, "C2", fmt.Sprintf("C%d", last), scoreStyle)
}

// WriteDir writes every exam into dir and returns the file paths.
func WriteDir(dir string, exams []Exam) ([]string, error) {
	if err := os.MkdirAll(dir, dirPermission); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	paths := make([]string, 0, len(exams))
	for _, e := range exams {
		data, err := Build(e)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name, err)
		}
		p := filepath.Join(dir, e.Name)
		if err := os.WriteFile(p, data, filePermission); err != nil {
			return nil, fmt.Errorf("write %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
