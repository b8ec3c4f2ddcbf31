// Package export projects ranking results into named tabular views.
package export

import (
	"fmt"
	"slices"

	"github.com/montanaflynn/stats"

	"github.com/okian/examboard/internal/domain/model"
)

// View names a tabular projection.
type View string

const (
	ViewStudents View = "students"
	ViewTop      View = "top15"
	ViewFastest  View = "fastest"
	ViewAll      View = "all"
)

// Column headers of the exported sheets.
const (
	ColRank         = "الترتيب"
	ColName         = "الاسم الكامل"
	ColExamCount    = "عدد الامتحانات"
	ColAvgScore     = "متوسط النسبة"
	ColAvgSpeed     = "متوسط نسبة السرعة"
	ColAvgSpeedRank = "متوسط ترتيب السرعة"
	ColComposite    = "النقاط الكلية"
	ColSpeed        = "نسبة السرعة"

	ColTimestamp  = "طابع زمني"
	ColExam       = "امتحان"
	ColRawScore   = "درجة"
	ColMaxScore   = "درجة قصوى"
	ColPercentage = "نسبة"
	ColSpeedRank  = "ترتيب_السرعة"
	ColSpeedPct   = "نسبة_السرعة"
)

const (
	defaultTopN     = 15
	defaultFastestN = 10
	decimals        = 2
)

// Table is an ordered, serialisable view. Every row has a value for each
// entry of Columns.
type Table struct {
	View     View             `json:"view"`
	FileName string           `json:"file_name"`
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
}

// Option applies a configuration option to the Projector.
type Option func(*Projector)

// WithTopN sets the size of the top view.
func WithTopN(n int) Option {
	return func(p *Projector) {
		if n > 0 {
			p.topN = n
		}
	}
}

// WithFastestN sets the size of the fastest view.
func WithFastestN(n int) Option {
	return func(p *Projector) {
		if n > 0 {
			p.fastestN = n
		}
	}
}

// Projector builds views without mutating its inputs.
type Projector struct {
	topN     int
	fastestN int
}

// NewProjector creates a projector with configuration options.
func NewProjector(opts ...Option) *Projector {
	p := &Projector{topN: defaultTopN, fastestN: defaultFastestN}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Views lists every supported view in presentation order.
func Views() []View {
	return []View{ViewStudents, ViewTop, ViewFastest, ViewAll}
}

// ParseView validates a view name.
func ParseView(s string) (View, error) {
	v := View(s)
	if slices.Contains(Views(), v) {
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// FileName returns the download name of a view.
func FileName(v View) string {
	switch v {
	case ViewStudents:
		return "students_profile.xlsx"
	case ViewTop:
		return "top_15_students.xlsx"
	case ViewFastest:
		return "fastest_students.xlsx"
	case ViewAll:
		return "all_exam_data.xlsx"
	}
	return string(v) + ".xlsx"
}

// Project builds the requested view.
func (p *Projector) Project(v View, board []model.StudentProfile, recs []model.Submission) (Table, error) {
	switch v {
	case ViewStudents:
		return p.Students(board), nil
	case ViewTop:
		return p.Top(board), nil
	case ViewFastest:
		return p.Fastest(board), nil
	case ViewAll:
		return p.All(recs), nil
	}
	return Table{}, fmt.Errorf("%w: %q", ErrUnknownView, v)
}

// Students is the full profile of every qualifying student.
func (p *Projector) Students(board []model.StudentProfile) Table {
	t := Table{
		View:     ViewStudents,
		FileName: FileName(ViewStudents),
		Columns:  []string{ColName, ColExamCount, ColAvgScore, ColAvgSpeed, ColAvgSpeedRank, ColComposite},
		Rows:     make([]map[string]any, 0, len(board)),
	}
	for _, s := range board {
		t.Rows = append(t.Rows, profileRow(s))
	}
	return t
}

// Top is the first topN leaderboard entries with a rank column.
func (p *Projector) Top(board []model.StudentProfile) Table {
	head := board[:min(p.topN, len(board))]
	t := Table{
		View:     ViewTop,
		FileName: FileName(ViewTop),
		Columns:  []string{ColRank, ColName, ColExamCount, ColAvgScore, ColAvgSpeed, ColComposite},
		Rows:     make([]map[string]any, 0, len(head)),
	}
	for i, s := range head {
		row := profileRow(s)
		delete(row, ColAvgSpeedRank)
		row[ColRank] = i + 1
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Fastest re-sorts the leaderboard by average speed alone and keeps fastestN.
func (p *Projector) Fastest(board []model.StudentProfile) Table {
	sorted := slices.Clone(board)
	slices.SortStableFunc(sorted, func(a, b model.StudentProfile) int {
		switch {
		case a.AvgSpeed > b.AvgSpeed:
			return -1
		case a.AvgSpeed < b.AvgSpeed:
			return 1
		}
		return 0
	})
	sorted = sorted[:min(p.fastestN, len(sorted))]

	t := Table{
		View:     ViewFastest,
		FileName: FileName(ViewFastest),
		Columns:  []string{ColRank, ColName, ColSpeed, ColAvgScore, ColExamCount},
		Rows:     make([]map[string]any, 0, len(sorted)),
	}
	for i, s := range sorted {
		t.Rows = append(t.Rows, map[string]any{
			ColRank:      i + 1,
			ColName:      s.Name,
			ColSpeed:     round(s.AvgSpeed),
			ColAvgScore:  round(s.AvgScore),
			ColExamCount: s.ExamCount,
		})
	}
	return t
}

// All is the merged record set verbatim. A missing timestamp is nil.
func (p *Projector) All(recs []model.Submission) Table {
	t := Table{
		View:     ViewAll,
		FileName: FileName(ViewAll),
		Columns: []string{
			ColName, ColTimestamp, ColExam, ColRawScore, ColMaxScore,
			ColPercentage, ColSpeedRank, ColSpeedPct,
		},
		Rows: make([]map[string]any, 0, len(recs)),
	}
	for _, r := range recs {
		var ts any
		if r.HasTimestamp() {
			ts = r.Timestamp
		}
		t.Rows = append(t.Rows, map[string]any{
			ColName:       r.Participant,
			ColTimestamp:  ts,
			ColExam:       r.Exam,
			ColRawScore:   r.RawScore,
			ColMaxScore:   r.MaxScore,
			ColPercentage: r.Percentage,
			ColSpeedRank:  r.SpeedRank,
			ColSpeedPct:   r.SpeedPercentile,
		})
	}
	return t
}

func profileRow(s model.StudentProfile) map[string]any {
	return map[string]any{
		ColName:         s.Name,
		ColExamCount:    s.ExamCount,
		ColAvgScore:     round(s.AvgScore),
		ColAvgSpeed:     round(s.AvgSpeed),
		ColAvgSpeedRank: round(s.AvgSpeedRank),
		ColComposite:    round(s.CompositeScore),
	}
}

func round(v float64) float64 {
	r, err := stats.Round(v, decimals)
	if err != nil {
		return v
	}
	return r
}
