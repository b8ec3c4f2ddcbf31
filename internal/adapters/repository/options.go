// Package repository stores ranking runs for the lifetime of the process.
package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMaxRuns bounds how many runs are retained. When the bound is reached the
// oldest finished run is evicted; n <= 0 keeps every run.
func WithMaxRuns(n int) Option {
	return func(s *MemoryStore) {
		s.maxRuns = n
	}
}
