package workbook

import "errors"

var (
	// ErrDecode is returned when a file is not a readable xlsx workbook.
	ErrDecode = errors.New("cannot decode workbook")
	// ErrNoSheet is returned for workbooks without worksheets.
	ErrNoSheet = errors.New("workbook has no worksheet")
)
