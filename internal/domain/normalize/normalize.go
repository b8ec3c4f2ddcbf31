// Package normalize converts one decoded exam sheet into ranked submissions.
package normalize

import (
	"fmt"
	"slices"
	"strings"

	"github.com/okian/examboard/internal/domain/model"
	"github.com/okian/examboard/internal/domain/scoreformat"
)

// Report is the outcome of normalizing one sheet.
type Report struct {
	Exam    string
	Records []model.Submission

	// Read counts data rows carrying a name, Filtered those dropped by the
	// name-part rule and Duplicates those merged away by per-exam dedup.
	Read       int
	Filtered   int
	Duplicates int

	Diagnostics model.Diagnostics
}

// Normalizer applies one run's settings to every sheet it is given.
type Normalizer struct {
	settings model.Settings
}

// New creates a normalizer for the given settings.
func New(settings model.Settings) *Normalizer {
	if settings.MinNameParts < 1 {
		settings.MinNameParts = 1
	}
	return &Normalizer{settings: settings}
}

// Normalize extracts, filters, deduplicates and speed-ranks the rows of sheet.
// A sheet without a name or score column yields a warning and no records.
func (n *Normalizer) Normalize(sheet model.Sheet) Report {
	rep := Report{Exam: ExamLabel(sheet.Name)}

	layout := LocateColumns(sheet.Header(), n.settings.Columns)
	if !layout.Complete() {
		rep.Diagnostics.Warn(sheet.Name, missingColumns(layout))
		return rep
	}

	var rows []model.Submission
	for i, row := range sheet.Data() {
		nameCell, _ := cellAt(row, layout.Name)
		name := cellText(nameCell)
		if name == "" {
			continue
		}
		rep.Read++
		if len(strings.Fields(name)) < n.settings.MinNameParts {
			rep.Filtered++
			continue
		}
		rows = append(rows, extract(rep.Exam, name, row, layout, i+1))
	}

	SortByTimestamp(rows)
	unique := DedupeByName(rows)
	rep.Duplicates = len(rows) - len(unique)
	SortByTimestamp(unique)
	AssignSpeed(unique)

	rep.Records = unique
	return rep
}

func extract(exam, name string, row []model.Cell, layout Layout, line int) model.Submission {
	rec := model.Submission{
		Participant: name,
		Exam:        exam,
		MaxScore:    scoreformat.DefaultMaxScore,
		Row:         line,
	}
	if c, ok := cellAt(row, layout.Timestamp); ok {
		rec.Timestamp = Timestamp(c)
	}
	if c, ok := cellAt(row, layout.Score); ok && !c.IsEmpty() {
		rec.RawScore = RawScore(c)
		rec.MaxScore = scoreformat.MaxScore(c)
	}
	rec.Percentage = rec.RawScore / rec.MaxScore * 100
	return rec
}

// SortByTimestamp orders records earliest first. Records without a timestamp
// sort after dated ones and ties keep source row order.
func SortByTimestamp(recs []model.Submission) {
	slices.SortStableFunc(recs, func(a, b model.Submission) int {
		switch {
		case a.HasTimestamp() && b.HasTimestamp():
			if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
				return c
			}
		case a.HasTimestamp():
			return -1
		case b.HasTimestamp():
			return 1
		}
		return a.Row - b.Row
	})
}

// DedupeByName keeps one record per participant: the higher percentage wins,
// an exact tie goes to the earlier timestamp when both are known and
// otherwise to the record seen first. Output order follows first appearance.
func DedupeByName(recs []model.Submission) []model.Submission {
	out := make([]model.Submission, 0, len(recs))
	index := make(map[string]int, len(recs))
	for _, rec := range recs {
		i, ok := index[rec.Participant]
		if !ok {
			index[rec.Participant] = len(out)
			out = append(out, rec)
			continue
		}
		cur := out[i]
		switch {
		case rec.Percentage > cur.Percentage:
			out[i] = rec
		case rec.Percentage == cur.Percentage &&
			rec.HasTimestamp() && cur.HasTimestamp() &&
			rec.Timestamp.Before(cur.Timestamp):
			out[i] = rec
		}
	}
	return out
}

// AssignSpeed sets SpeedRank and SpeedPercentile from the current order.
func AssignSpeed(recs []model.Submission) {
	n := len(recs)
	for i := range recs {
		recs[i].SpeedRank = i + 1
		if n > 1 {
			recs[i].SpeedPercentile = float64(n-i-1) / float64(n-1) * 100
		} else {
			recs[i].SpeedPercentile = 100
		}
	}
}

func missingColumns(l Layout) string {
	var missing []string
	if l.Name < 0 {
		missing = append(missing, "name")
	}
	if l.Score < 0 {
		missing = append(missing, "score")
	}
	return fmt.Sprintf("required column not found: %s", strings.Join(missing, ", "))
}
