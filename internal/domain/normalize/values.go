package normalize

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/okian/examboard/internal/domain/model"
)

var (
	leadingNumber = regexp.MustCompile(`^\s*(-?\d+\.?\d*)`)
	examSuffixes  = []string{".xlsx", ".xlsm", ".xls"}

	// Layouts seen in Google Forms and Excel exports.
	timestampLayouts = []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006/01/02 15:04:05",
		"2006/01/02 3:04:05 PM",
		"1/2/2006 15:04:05",
		"1/2/2006 3:04:05 PM",
		"2006-01-02 15:04",
		"2006/01/02 15:04",
		"1/2/2006 15:04",
		"2006-01-02",
		"2006/01/02",
		"1/2/2006",
	}

	excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
)

// ExamLabel strips the spreadsheet suffix from a file's display name.
func ExamLabel(name string) string {
	base := filepath.Base(name)
	lower := strings.ToLower(base)
	for _, suf := range examSuffixes {
		if strings.HasSuffix(lower, suf) {
			return base[:len(base)-len(suf)]
		}
	}
	return base
}

// RawScore reads the numeric score of a cell. Text cells contribute their
// leading number; anything unparsable is 0.
func RawScore(c model.Cell) float64 {
	switch v := c.Value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		m := leadingNumber.FindStringSubmatch(v)
		if m == nil {
			return 0
		}
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Timestamp reads a submission time. The zero time means missing.
func Timestamp(c model.Cell) time.Time {
	switch v := c.Value.(type) {
	case time.Time:
		return v
	case float64:
		if v <= 0 {
			return time.Time{}
		}
		return excelEpoch.Add(time.Duration(v * float64(24*time.Hour))).Round(time.Millisecond)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
