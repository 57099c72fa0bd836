package engine

import (
	"time"

	"github.com/vytor/linguaflash/internal/models"
)

// RecordActivity updates the consecutive-day streak for activity at now.
// Days are UTC calendar days. A second action on the same day leaves the
// streak alone, an action on the following day extends it and a gap restarts
// it at 1. LastActiveAt never moves backwards.
func RecordActivity(p models.LearnerProfile, now time.Time) models.LearnerProfile {
	if p.LastActiveAt == nil {
		p.Streak = 1
	} else {
		today, last := calendarDay(now), calendarDay(*p.LastActiveAt)
		switch {
		case !today.After(last):
			// same day, or clock skew: nothing new to count
			if p.Streak == 0 {
				p.Streak = 1
			}
		case today.Equal(last.AddDate(0, 0, 1)):
			p.Streak++
		default:
			p.Streak = 1
		}
	}
	if p.LastActiveAt == nil || now.After(*p.LastActiveAt) {
		at := now
		p.LastActiveAt = &at
	}
	return p
}

func calendarDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
