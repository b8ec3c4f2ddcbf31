// Package model contains domain models passed between layers.
package model

// FormatGeneral is the number format of cells without explicit formatting.
const FormatGeneral = "General"

// Cell is one decoded spreadsheet cell.
//
// Value holds a string, float64 or time.Time depending on what the decoder
// recognised; it is nil for empty cells. Format is the cell's number-format
// code and Display the text the spreadsheet application would render.
type Cell struct {
	Value   any
	Format  string
	Display string
}

// IsEmpty reports whether the cell carries no value.
func (c Cell) IsEmpty() bool {
	if c.Value == nil {
		return true
	}
	s, ok := c.Value.(string)
	return ok && s == ""
}

// Sheet is the first worksheet of a decoded spreadsheet. Rows[0] is the header row.
type Sheet struct {
	// Name is the display name of the source file, including its suffix.
	Name string
	Rows [][]Cell
}

// Header returns the header row, or nil for an empty sheet.
func (s Sheet) Header() []Cell {
	if len(s.Rows) == 0 {
		return nil
	}
	return s.Rows[0]
}

// Data returns all rows after the header.
func (s Sheet) Data() [][]Cell {
	if len(s.Rows) < 2 {
		return nil
	}
	return s.Rows[1:]
}
