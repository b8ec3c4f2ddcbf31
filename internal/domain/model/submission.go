package model

import "time"

// Submission is one normalized exam submission.
//
// Percentage is RawScore/MaxScore*100. SpeedRank is the 1-based position of
// the submission inside its exam when ordered by timestamp, SpeedPercentile
// maps that position onto 0..100 where 100 is the fastest.
type Submission struct {
	Participant     string    `json:"participant"`
	Exam            string    `json:"exam"`
	Timestamp       time.Time `json:"timestamp"`
	RawScore        float64   `json:"raw_score"`
	MaxScore        float64   `json:"max_score"`
	Percentage      float64   `json:"percentage"`
	SpeedRank       int       `json:"speed_rank"`
	SpeedPercentile float64   `json:"speed_percentile"`

	// Row is the 1-based data row the submission was read from.
	Row int `json:"-"`
}

// HasTimestamp reports whether the submission time is known.
func (s Submission) HasTimestamp() bool {
	return !s.Timestamp.IsZero()
}

// StudentProfile aggregates one participant's merged submissions.
type StudentProfile struct {
	Name           string  `json:"name"`
	ExamCount      int     `json:"exam_count"`
	AvgScore       float64 `json:"avg_score"`
	AvgSpeed       float64 `json:"avg_speed"`
	AvgSpeedRank   float64 `json:"avg_speed_rank"`
	CompositeScore float64 `json:"composite_score"`
}
