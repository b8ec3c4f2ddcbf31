package pipeline

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// Source is one spreadsheet to process.
type Source struct {
	// Name is the display name, usually the file's base name.
	Name string
	Open func() (io.ReadCloser, error)
}

// FileSource reads a spreadsheet from disk.
func FileSource(path string) Source {
	return Source{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) }, //nolint:gosec // operator supplied path
	}
}

// BytesSource serves an in-memory spreadsheet.
func BytesSource(name string, data []byte) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}
