package model

// Default header labels of the exam spreadsheets (Google Forms exports).
const (
	DefaultTimestampLabel = "طابع زمني"
	DefaultNameLabel      = "الاسم الكامل"
	DefaultScoreLabel     = "النتيجة"

	fallbackTimestampLabel = "طابع"
	fallbackNameLabel      = "الاسم"
)

// Columns lists, per logical column, the header label candidates in priority
// order. The first candidate found as a substring of any header wins.
type Columns struct {
	Timestamp []string `json:"timestamp"`
	Name      []string `json:"name"`
	Score     []string `json:"score"`
}

// Settings is the immutable configuration of one ranking run.
type Settings struct {
	Columns      Columns `json:"columns"`
	MinNameParts int     `json:"min_name_parts"`
	MinExams     int     `json:"min_exams"`
}

// DefaultColumns returns the stock label candidates.
func DefaultColumns() Columns {
	return Columns{
		Timestamp: []string{DefaultTimestampLabel, fallbackTimestampLabel},
		Name:      []string{DefaultNameLabel, fallbackNameLabel},
		Score:     []string{DefaultScoreLabel},
	}
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Columns:      DefaultColumns(),
		MinNameParts: 2,
		MinExams:     1,
	}
}

// WithThresholds returns a copy of s with positive overrides applied.
func (s Settings) WithThresholds(minNameParts, minExams int) Settings {
	out := s
	out.Columns = Columns{
		Timestamp: append([]string(nil), s.Columns.Timestamp...),
		Name:      append([]string(nil), s.Columns.Name...),
		Score:     append([]string(nil), s.Columns.Score...),
	}
	if minNameParts > 0 {
		out.MinNameParts = minNameParts
	}
	if minExams > 0 {
		out.MinExams = minExams
	}
	return out
}
