package models

import (
	"time"

	"go.uber.org/atomic"
)

// Entry represents a single cached result.
type Entry struct {
	Key            string
	Value          any
	Weight         int64
	AccessCount    *atomic.Int64
	LastAccessTime *atomic.Time
	Expiration     time.Time
}

// NewEntry creates a new Entry. A zero expiration means the entry never expires.
func NewEntry(key string, value any, weight int64, expiration time.Time) *Entry {
	return &Entry{
		Key:            key,
		Value:          value,
		Weight:         weight,
		AccessCount:    atomic.NewInt64(1),
		LastAccessTime: atomic.NewTime(time.Now()),
		Expiration:     expiration,
	}
}

// IsExpired reports whether the entry has expired at time now. An entry is
// already absent at the instant its expiration is reached.
func (e *Entry) IsExpired(now time.Time) bool {
	return !e.Expiration.IsZero() && !now.Before(e.Expiration)
}

// IncrementAccess increments the access count and updates the last access time.
func (e *Entry) IncrementAccess() {
	e.AccessCount.Inc()
	e.LastAccessTime.Store(time.Now())
}
