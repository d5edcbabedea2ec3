package api

import "sync"

// sequencer stamps calls with a per-key monotonic number so that callers
// can tell whether a completed call was superseded.
type sequencer struct {
	mu     sync.Mutex
	latest map[string]uint64
}

func newSequencer() *sequencer {
	return &sequencer{latest: make(map[string]uint64)}
}

// next issues the sequence number for a new call on key.
func (s *sequencer) next(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[key]++
	return s.latest[key]
}

// stale reports whether a newer call than seq was issued for key.
func (s *sequencer) stale(key string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[key] > seq
}
