package cinder

import (
	"gocinder.io/cinder/internal/cache/lru"
	"gocinder.io/cinder/internal/config"
)

var (
	// ErrInvalidCapacity is returned when a cache is constructed with a
	// non-positive capacity.
	ErrInvalidCapacity = config.ErrInvalidCapacity
	// ErrEntryTooHeavy is returned when a single entry's weight exceeds the
	// cache's total capacity.
	ErrEntryTooHeavy = lru.ErrEntryTooHeavy
	// ErrInvalidWeight is returned when an entry weight is not positive.
	ErrInvalidWeight = lru.ErrInvalidWeight
)
