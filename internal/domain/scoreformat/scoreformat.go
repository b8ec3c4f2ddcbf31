// Package scoreformat recovers the implicit maximum score of an exam cell from
// its number-format code or rendered text.
package scoreformat

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/examboard/internal/domain/model"
)

// DefaultMaxScore is used when no maximum can be recovered.
const DefaultMaxScore = 100

var formatPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/\s*"?\s*(\d+\.?\d*)`),
	regexp.MustCompile(`من\s*(\d+\.?\d*)`),
	regexp.MustCompile(`(?i)out of\s*(\d+\.?\d*)`),
}

var fractionPattern = regexp.MustCompile(`(\d+\.?\d*)\s*/\s*(\d+\.?\d*)`)

// FromFormat extracts the maximum from a number-format code such as `0" / 40"`.
// It returns false for empty or General formats and when no pattern yields a
// positive number.
func FromFormat(format string) (float64, bool) {
	if format == "" || strings.EqualFold(format, model.FormatGeneral) {
		return 0, false
	}
	for _, re := range formatPatterns {
		m := re.FindStringSubmatch(format)
		if m == nil {
			continue
		}
		if v, ok := positive(m[1]); ok {
			return v, true
		}
	}
	return 0, false
}

// FromDisplay extracts the second number of a rendered "15 / 40" string.
func FromDisplay(display string) (float64, bool) {
	m := fractionPattern.FindStringSubmatch(display)
	if m == nil {
		return 0, false
	}
	return positive(m[2])
}

// Extract tries the format code first, the display text through the same
// format patterns when no code is set, and finally the display text as a
// fraction.
func Extract(format, display string) (float64, bool) {
	primary := format
	if primary == "" {
		primary = display
	}
	if v, ok := FromFormat(primary); ok {
		return v, true
	}
	return FromDisplay(display)
}

// MaxScore is Extract with the DefaultMaxScore fallback applied.
func MaxScore(c model.Cell) float64 {
	if v, ok := Extract(c.Format, c.Display); ok {
		return v
	}
	return DefaultMaxScore
}

func positive(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
