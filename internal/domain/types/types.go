// Package types contains wire types shared by the HTTP API and its clients.
package types

import "github.com/okian/examboard/internal/domain/model"

// Entry is one leaderboard row.
type Entry struct {
	Rank      int     `json:"rank"`
	Name      string  `json:"name"`
	ExamCount int     `json:"exam_count"`
	AvgScore  float64 `json:"avg_score"`
	AvgSpeed  float64 `json:"avg_speed"`
	Score     float64 `json:"score"`
}

// RunAccepted acknowledges a submitted run.
type RunAccepted struct {
	ID     string          `json:"id"`
	Status model.RunStatus `json:"status"`
	Files  []string        `json:"files"`
}

// RunStatus is the public view of a run.
type RunStatus struct {
	model.Run
	Summary *model.Summary   `json:"summary,omitempty"`
	Exams   []model.ExamStat `json:"exams,omitempty"`
}

// Entries ranks the first limit profiles; limit <= 0 returns all of them.
func Entries(board []model.StudentProfile, limit int) []Entry {
	n := len(board)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, n)
	for i := 0; i < n; i++ {
		p := board[i]
		out[i] = Entry{
			Rank:      i + 1,
			Name:      p.Name,
			ExamCount: p.ExamCount,
			AvgScore:  p.AvgScore,
			AvgSpeed:  p.AvgSpeed,
			Score:     p.CompositeScore,
		}
	}
	return out
}

// NewRunStatus builds the public view of r.
func NewRunStatus(r model.Run) RunStatus {
	st := RunStatus{Run: r}
	if r.Result != nil {
		sum := r.Result.Summary
		st.Summary = &sum
		st.Exams = r.Result.Exams
	}
	return st
}
