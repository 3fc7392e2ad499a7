package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsExpiredBoundary(t *testing.T) {
	expiration := time.Unix(1000, 0)
	e := NewEntry("k", "v", 1, expiration)

	assert.False(t, e.IsExpired(expiration.Add(-time.Nanosecond)))
	assert.True(t, e.IsExpired(expiration), "an entry is absent at exactly its expiration time")
	assert.True(t, e.IsExpired(expiration.Add(time.Nanosecond)))
}

func TestIsExpiredZeroExpirationNever(t *testing.T) {
	e := NewEntry("k", "v", 1, time.Time{})
	assert.False(t, e.IsExpired(time.Now().Add(100*365*24*time.Hour)))
}
