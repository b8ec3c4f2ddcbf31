package model

import "time"

// RunStatus is the lifecycle state of a ranking run.
type RunStatus string

const (
	RunQueued  RunStatus = "queued"
	RunRunning RunStatus = "running"
	RunDone    RunStatus = "done"
	RunFailed  RunStatus = "failed"
)

// ExamStat summarises one exam spreadsheet.
type ExamStat struct {
	Exam          string  `json:"exam"`
	Count         int     `json:"count"`
	AvgPercentage float64 `json:"avg_percentage"`
}

// Summary holds run-wide statistics.
type Summary struct {
	TotalStudents      int             `json:"total_students"`
	TotalExams         int             `json:"total_exams"`
	TotalRecords       int             `json:"total_records"`
	DuplicatesRemoved  int             `json:"duplicates_removed"`
	AvgExamsPerStudent float64         `json:"avg_exams_per_student"`
	AvgScore           float64         `json:"avg_score"`
	ExamDistribution   map[int]int     `json:"exam_distribution"`
	Winner             *StudentProfile `json:"winner,omitempty"`
}

// Result is everything a completed pipeline run produced.
type Result struct {
	Leaderboard []StudentProfile `json:"leaderboard"`
	Records     []Submission     `json:"records"`
	Exams       []ExamStat       `json:"exams"`
	Summary     Summary          `json:"summary"`
	Diagnostics Diagnostics      `json:"diagnostics"`
}

// Run tracks one submitted batch of spreadsheets.
type Run struct {
	ID          string      `json:"id"`
	Status      RunStatus   `json:"status"`
	Progress    float64     `json:"progress"`
	Stage       string      `json:"stage"`
	Files       []string    `json:"files"`
	Settings    Settings    `json:"settings"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	FinishedAt  time.Time   `json:"finished_at,omitzero"`
	Diagnostics Diagnostics `json:"diagnostics"`
	Result      *Result     `json:"-"`
}

// Finished reports whether the run reached a terminal state.
func (r Run) Finished() bool {
	return r.Status == RunDone || r.Status == RunFailed
}

// File is one uploaded spreadsheet.
type File struct {
	Name string
	Data []byte
}

// Job is a queued run: the uploaded files and the settings to apply to them.
type Job struct {
	RunID    string
	Settings Settings
	Files    []File
}

// FileNames returns the names of the job's files in upload order.
func (j Job) FileNames() []string {
	names := make([]string, len(j.Files))
	for i, f := range j.Files {
		names[i] = f.Name
	}
	return names
}
