package pipeline

import "context"

// Progress milestones.
const (
	PercentLoading   = 0
	PercentLoaded    = 40
	PercentDedupe    = 50
	PercentStats     = 65
	PercentRanking   = 80
	PercentCompleted = 100
)

// Progress receives coarse completion updates. Updates arrive one at a time
// with non-decreasing percentages.
type Progress interface {
	Update(ctx context.Context, percent float64, status string)
}

// ProgressFunc adapts a function to Progress.
type ProgressFunc func(ctx context.Context, percent float64, status string)

// Update implements Progress.
func (f ProgressFunc) Update(ctx context.Context, percent float64, status string) {
	f(ctx, percent, status)
}

type noProgress struct{}

func (noProgress) Update(context.Context, float64, string) {}
