package normalize

import (
	"fmt"
	"strings"

	"github.com/okian/examboard/internal/domain/model"
)

// Layout holds the resolved column indices of one sheet; -1 means absent.
type Layout struct {
	Timestamp int
	Name      int
	Score     int
}

// Complete reports whether both required columns were found.
func (l Layout) Complete() bool {
	return l.Name >= 0 && l.Score >= 0
}

// LocateColumns resolves every logical column against the header row.
func LocateColumns(header []model.Cell, cols model.Columns) Layout {
	labels := make([]string, len(header))
	for i, c := range header {
		labels[i] = cellText(c)
	}
	return Layout{
		Timestamp: MatchColumn(labels, cols.Timestamp),
		Name:      MatchColumn(labels, cols.Name),
		Score:     MatchColumn(labels, cols.Score),
	}
}

// MatchColumn returns the index of the first header containing the
// highest-ranked candidate, or -1. Matching is a case-sensitive substring test
// and empty candidates are skipped.
func MatchColumn(headers []string, candidates []string) int {
	for _, cand := range candidates {
		if cand == "" {
			continue
		}
		for i, h := range headers {
			if strings.Contains(h, cand) {
				return i
			}
		}
	}
	return -1
}

func cellAt(row []model.Cell, idx int) (model.Cell, bool) {
	if idx < 0 || idx >= len(row) {
		return model.Cell{}, false
	}
	return row[idx], true
}

func cellText(c model.Cell) string {
	switch v := c.Value.(type) {
	case nil:
		return strings.TrimSpace(c.Display)
	case string:
		return strings.TrimSpace(v)
	default:
		if c.Display != "" {
			return strings.TrimSpace(c.Display)
		}
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
