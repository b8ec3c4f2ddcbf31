package pipeline

import "github.com/montanaflynn/stats"

func mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	m, err := stats.Mean(stats.Float64Data(data))
	if err != nil {
		return 0
	}
	return m
}
