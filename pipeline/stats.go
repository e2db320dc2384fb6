package pipeline

import "sync"

// Stats aggregates error counts and failed URLs across concurrent category
// pipelines.
type Stats struct {
	mu           sync.Mutex
	errorsByType map[string]int
	failedURLs   []string
}

// NewStats returns an empty aggregate.
func NewStats() *Stats {
	return &Stats{
		errorsByType: make(map[string]int),
	}
}

// RecordError counts one error by type, remembering the URL it hit.
func (s *Stats) RecordError(errorType, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorsByType[errorType]++
	if url != "" {
		s.failedURLs = append(s.failedURLs, url)
	}
}

// ErrorsByType returns a copy of the per-type error counts.
func (s *Stats) ErrorsByType() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.errorsByType))
	for k, v := range s.errorsByType {
		out[k] = v
	}
	return out
}

// FailedURLs returns a copy of the URLs that produced errors.
func (s *Stats) FailedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.failedURLs))
	copy(out, s.failedURLs)
	return out
}

// ErrorCount returns the total number of recorded errors.
func (s *Stats) ErrorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, v := range s.errorsByType {
		total += v
	}
	return total
}
