package cache

import (
	"time"
)

// TimeUntilNextMidnightUTC returns the duration until the next UTC day
// starts. Daily metrics only change once per scheduled run, so cached reads
// stay valid until a new trading date can appear.
func TimeUntilNextMidnightUTC() time.Duration {
	now := time.Now().UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	return next.Sub(now)
}
