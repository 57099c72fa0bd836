package flashcard

import (
	"math"
	"sort"
	"time"

	"github.com/vytor/linguaflash/internal/models"
)

const (
	DefaultIntervalDays = 1.0
	DefaultEaseFactor   = 2.5
	MinEaseFactor       = 1.3
	MaxEaseFactor       = 3.0
	MinIntervalDays     = 1.0

	hardIntervalFactor = 0.5
	hardEasePenalty    = 0.2
	easyEaseBonus      = 0.15

	day = 24 * time.Hour
)

// Grade reschedules card after a recall graded easy, medium or hard.
// Unknown outcomes return the card unchanged; callers validate first.
func Grade(card models.ReviewCard, outcome models.Outcome, now time.Time) models.ReviewCard {
	if !outcome.Valid() {
		return card
	}

	interval := card.IntervalDays
	if interval <= 0 {
		interval = DefaultIntervalDays
	}
	ease := card.EaseFactor
	if ease <= 0 {
		ease = DefaultEaseFactor
	}

	switch outcome {
	case models.OutcomeHard:
		interval = math.Max(MinIntervalDays, interval*hardIntervalFactor)
		ease = math.Max(MinEaseFactor, ease-hardEasePenalty)
	case models.OutcomeMedium:
		interval = interval * ease
	case models.OutcomeEasy:
		interval = interval * ease
		ease = math.Min(MaxEaseFactor, ease+easyEaseBonus)
	}

	reviewed := now
	card.IntervalDays = math.Max(MinIntervalDays, interval)
	card.EaseFactor = clampEase(ease)
	card.LastReviewedAt = &reviewed
	card.ReviewCount++
	return card
}

func clampEase(ease float64) float64 {
	return math.Min(MaxEaseFactor, math.Max(MinEaseFactor, ease))
}

// Elapsed returns the time since the card was last reviewed. A clock running
// behind the review timestamp counts as no time elapsed.
func Elapsed(card models.ReviewCard, now time.Time) time.Duration {
	if card.LastReviewedAt == nil {
		return 0
	}
	d := now.Sub(*card.LastReviewedAt)
	if d < 0 {
		return 0
	}
	return d
}

func intervalOf(card models.ReviewCard) float64 {
	if card.IntervalDays < MinIntervalDays {
		return DefaultIntervalDays
	}
	return card.IntervalDays
}

// IsDue reports whether the card should be shown. Never-reviewed cards are
// always due; the comparison uses real elapsed time, not whole days.
func IsDue(card models.ReviewCard, now time.Time) bool {
	if card.LastReviewedAt == nil {
		return true
	}
	return Elapsed(card, now).Hours()/24.0 >= intervalOf(card)
}

// Overdue returns elapsed days minus the interval. Negative means not yet due.
// Never-reviewed cards are infinitely overdue.
func Overdue(card models.ReviewCard, now time.Time) float64 {
	if card.LastReviewedAt == nil {
		return math.Inf(1)
	}
	return float64(Elapsed(card, now))/float64(day) - intervalOf(card)
}

// DueQueue returns the due cards, most overdue first with ties broken by ID.
// The input slice is not modified.
func DueQueue(cards []models.ReviewCard, now time.Time) []models.ReviewCard {
	due := make([]models.ReviewCard, 0, len(cards))
	for _, c := range cards {
		if IsDue(c, now) {
			due = append(due, c)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		oi, oj := Overdue(due[i], now), Overdue(due[j], now)
		if oi != oj {
			return oi > oj
		}
		return due[i].ID < due[j].ID
	})
	return due
}

// NextReviewAt returns when the card becomes due, or nil when it already is
// due because it was never reviewed.
func NextReviewAt(card models.ReviewCard) *time.Time {
	if card.LastReviewedAt == nil {
		return nil
	}
	at := card.LastReviewedAt.Add(time.Duration(intervalOf(card) * float64(day)))
	return &at
}
