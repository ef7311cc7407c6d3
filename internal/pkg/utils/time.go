package utils

import (
	"time"
)

// SystemClock is the production clock; tests inject fixed clocks instead.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
