// Package dedupe merges submissions from several exams so that every
// (participant, exam) pair is represented at most once.
package dedupe

import (
	"sync"

	"github.com/okian/examboard/internal/domain/model"
)

type key struct {
	participant string
	exam        string
}

// Merger keeps the best submission per participant and exam.
type Merger struct {
	mu    sync.Mutex
	index map[key]int
	out   []model.Submission
	seen  int
}

// NewMerger creates an empty merger.
func NewMerger() *Merger {
	return &Merger{index: make(map[key]int)}
}

// Add offers records to the merger. A record replaces the current entry for
// its key when its percentage is strictly higher, or equal with a strictly
// smaller speed rank.
func (m *Merger) Add(recs ...model.Submission) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range recs {
		m.seen++
		k := key{participant: rec.Participant, exam: rec.Exam}
		i, ok := m.index[k]
		if !ok {
			m.index[k] = len(m.out)
			m.out = append(m.out, rec)
			continue
		}
		if Better(rec, m.out[i]) {
			m.out[i] = rec
		}
	}
}

// Records returns a copy of the merged records in first-insertion order.
func (m *Merger) Records() []model.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Submission(nil), m.out...)
}

// Removed returns how many offered records were merged away.
func (m *Merger) Removed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen - len(m.out)
}

// Size returns the number of distinct (participant, exam) pairs.
func (m *Merger) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.out)
}

// Better reports whether candidate should replace current.
func Better(candidate, current model.Submission) bool {
	if candidate.Percentage != current.Percentage {
		return candidate.Percentage > current.Percentage
	}
	return candidate.SpeedRank < current.SpeedRank
}

// Merge is a one-shot helper around Merger.
func Merge(recs []model.Submission) []model.Submission {
	m := NewMerger()
	m.Add(recs...)
	return m.Records()
}
