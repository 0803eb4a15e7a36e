package activity

import (
	"fmt"
	"time"
)

// Aggregator turns raw platform records into per-platform statistics.
// Every instant is converted into the reference timezone before any
// hour-of-day or day-of-week classification, so "after hours" means the
// same thing regardless of the source event's encoded offset.
type Aggregator struct {
	loc *time.Location
}

func NewAggregator(referenceTimezone string) (*Aggregator, error) {
	loc, err := time.LoadLocation(referenceTimezone)
	if err != nil {
		return nil, fmt.Errorf("loading reference timezone %q: %w", referenceTimezone, err)
	}
	return &Aggregator{loc: loc}, nil
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
