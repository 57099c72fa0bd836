package challenge

import (
	"time"

	"github.com/vytor/linguaflash/internal/models"
)

// RecordProgress adds delta to the challenge counter, clamped at the required
// count, and completes the challenge in the same update once the count is
// reached. It reports whether this call completed the challenge.
//
// Completed challenges, challenges without criteria and non-positive deltas
// leave the challenge untouched.
func RecordProgress(ch models.DailyChallenge, delta int, now time.Time) (models.DailyChallenge, bool) {
	if ch.Completed || ch.Criteria == nil || delta <= 0 {
		return ch, false
	}

	crit := *ch.Criteria
	crit.CurrentCount += delta
	if crit.CurrentCount > crit.RequiredCount {
		crit.CurrentCount = crit.RequiredCount
	}
	ch.Criteria = &crit

	if crit.CurrentCount >= crit.RequiredCount {
		return markCompleted(ch, now), true
	}
	return ch, false
}

// Complete marks the challenge completed and fills a counted challenge up to
// its requirement. It reports false when the challenge already was.
func Complete(ch models.DailyChallenge, now time.Time) (models.DailyChallenge, bool) {
	if ch.Completed {
		return ch, false
	}
	if ch.Criteria != nil && ch.Criteria.CurrentCount < ch.Criteria.RequiredCount {
		crit := *ch.Criteria
		crit.CurrentCount = crit.RequiredCount
		ch.Criteria = &crit
	}
	return markCompleted(ch, now), true
}

func markCompleted(ch models.DailyChallenge, now time.Time) models.DailyChallenge {
	at := now
	ch.Completed = true
	ch.CompletedAt = &at
	return ch
}

// Open returns the challenges not yet completed, in input order.
func Open(challenges []models.DailyChallenge) []models.DailyChallenge {
	var open []models.DailyChallenge
	for _, ch := range challenges {
		if !ch.Completed {
			open = append(open, ch)
		}
	}
	return open
}

// CompletedCount counts completed challenges.
func CompletedCount(challenges []models.DailyChallenge) int {
	n := 0
	for _, ch := range challenges {
		if ch.Completed {
			n++
		}
	}
	return n
}

// Progress returns the completion fraction of a challenge: 0 or 1 for
// manual challenges, current/required otherwise.
func Progress(ch models.DailyChallenge) float64 {
	if ch.Completed {
		return 1
	}
	if ch.Criteria == nil || ch.Criteria.RequiredCount <= 0 {
		return 0
	}
	return float64(ch.Criteria.CurrentCount) / float64(ch.Criteria.RequiredCount)
}
