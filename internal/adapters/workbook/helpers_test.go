package workbook_test

import (
	"bytes"
	"os"
)

func mustOpen(path string) *bytes.Reader {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	return bytes.NewReader(data)
}
