// Package scoring aggregates merged submissions into ranked student profiles.
package scoring

import (
	"slices"

	"github.com/montanaflynn/stats"

	"github.com/okian/examboard/internal/domain/model"
)

// Composite weights.
const (
	ParticipationWeight = 100
	SpeedWeight         = 0.1
	defaultMinExams     = 1
)

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithMinExams sets how many distinct exams a student needs to qualify.
func WithMinExams(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.minExams = n
		}
	}
}

// Ranker builds the leaderboard.
type Ranker struct {
	minExams int
}

// NewRanker creates a ranker with configuration options.
func NewRanker(opts ...Option) *Ranker {
	r := &Ranker{minExams: defaultMinExams}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MinExams returns the qualification threshold.
func (r *Ranker) MinExams() int {
	return r.minExams
}

// Rank groups, filters and sorts. Students with equal composite scores keep
// the order in which they first appear in recs.
func (r *Ranker) Rank(recs []model.Submission) []model.StudentProfile {
	all := Profiles(recs)
	out := make([]model.StudentProfile, 0, len(all))
	for _, p := range all {
		if p.ExamCount >= r.minExams {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b model.StudentProfile) int {
		switch {
		case a.CompositeScore > b.CompositeScore:
			return -1
		case a.CompositeScore < b.CompositeScore:
			return 1
		}
		return 0
	})
	return out
}

type group struct {
	name  string
	exams map[string]struct{}
	score stats.Float64Data
	speed stats.Float64Data
	rank  stats.Float64Data
}

// Profiles aggregates recs per participant in first-seen order without
// filtering or sorting.
func Profiles(recs []model.Submission) []model.StudentProfile {
	var groups []*group
	byName := make(map[string]*group)
	for _, rec := range recs {
		g, ok := byName[rec.Participant]
		if !ok {
			g = &group{name: rec.Participant, exams: make(map[string]struct{})}
			byName[rec.Participant] = g
			groups = append(groups, g)
		}
		g.exams[rec.Exam] = struct{}{}
		g.score = append(g.score, rec.Percentage)
		g.speed = append(g.speed, rec.SpeedPercentile)
		g.rank = append(g.rank, float64(rec.SpeedRank))
	}

	out := make([]model.StudentProfile, 0, len(groups))
	for _, g := range groups {
		p := model.StudentProfile{
			Name:         g.name,
			ExamCount:    len(g.exams),
			AvgScore:     mean(g.score),
			AvgSpeed:     mean(g.speed),
			AvgSpeedRank: mean(g.rank),
		}
		p.CompositeScore = Composite(p.ExamCount, p.AvgScore, p.AvgSpeed)
		out = append(out, p)
	}
	return out
}

// Composite ranks participation breadth above performance with speed as a
// minor bonus.
func Composite(examCount int, avgScore, avgSpeed float64) float64 {
	return float64(examCount)*ParticipationWeight + avgScore + avgSpeed*SpeedWeight
}

// Distribution counts students per exam count.
func Distribution(profiles []model.StudentProfile) map[int]int {
	dist := make(map[int]int)
	for _, p := range profiles {
		dist[p.ExamCount]++
	}
	return dist
}

func mean(data stats.Float64Data) float64 {
	m, err := stats.Mean(data)
	if err != nil {
		return 0
	}
	return m
}
