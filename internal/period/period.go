// Package period computes the two comparable 7-day windows every analysis
// run operates on.
package period

import (
	"time"

	"github.com/suportedesk/backend/internal/models"
)

// Compute derives the current and previous windows from a reference date.
// The anchor is the day before the reference so a partial day never enters
// the analysis: current ends at the anchor's end of day and spans 7 full
// days; previous ends one tick before current starts and spans the 7 days
// before that.
func Compute(ref time.Time) (current, previous models.Period) {
	anchor := ref.AddDate(0, 0, -1)

	current.End = endOfDay(anchor)
	current.Start = startOfDay(anchor.AddDate(0, 0, -6))

	previous.End = current.Start.Add(-time.Nanosecond)
	previous.Start = startOfDay(previous.End.AddDate(0, 0, -6))
	return current, previous
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
