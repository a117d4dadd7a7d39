package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/pageguard/pageguard/internal/model"
)

// validCounter reports whether name is a recognized moderation counter.
func validCounter(name string) bool {
	switch name {
	case model.CounterAnalyzed, model.CounterHarmful, model.CounterRephrased:
		return true
	}
	return false
}

// MemoryStats is an in-process statistics recorder for sessions that run
// without a database. Safe for concurrent use.
type MemoryStats struct {
	mu        sync.Mutex
	analyzed  int64
	harmful   int64
	rephrased int64
	lastReset time.Time
}

// NewMemoryStats creates an empty MemoryStats.
func NewMemoryStats() *MemoryStats {
	return &MemoryStats{lastReset: time.Now()}
}

// Increment adds one to the named counter. Unknown counter names are
// rejected.
func (m *MemoryStats) Increment(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch name {
	case model.CounterAnalyzed:
		m.analyzed++
	case model.CounterHarmful:
		m.harmful++
	case model.CounterRephrased:
		m.rephrased++
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCounter, name)
	}
	return nil
}

// Stats returns a snapshot of the counter totals.
func (m *MemoryStats) Stats() model.Statistics {
	m.mu.Lock()
	defer m.mu.Unlock()

	return model.Statistics{
		Analyzed:  m.analyzed,
		Harmful:   m.harmful,
		Rephrased: m.rephrased,
		LastReset: m.lastReset,
	}
}

// Reset zeroes every counter and records the reset time.
func (m *MemoryStats) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.analyzed, m.harmful, m.rephrased = 0, 0, 0
	m.lastReset = time.Now()
}
