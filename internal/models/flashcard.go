package models

import "time"

// Outcome is the learner's self-graded recall of a card.
type Outcome string

const (
	OutcomeEasy   Outcome = "easy"
	OutcomeMedium Outcome = "medium"
	OutcomeHard   Outcome = "hard"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeEasy, OutcomeMedium, OutcomeHard:
		return true
	}
	return false
}

type Example struct {
	Original   string `json:"original" yaml:"original"`
	Translated string `json:"translated" yaml:"translated"`
}

// ReviewCard is a vocabulary flashcard. Word, Translation and Examples are
// payload for the presentation layer; scheduling only looks at the interval,
// ease and last review time.
type ReviewCard struct {
	ID             string     `json:"id"`
	Language       string     `json:"language"`
	Word           string     `json:"word"`
	Translation    string     `json:"translation"`
	Examples       []Example  `json:"examples,omitempty"`
	IntervalDays   float64    `json:"interval_days"`
	EaseFactor     float64    `json:"ease_factor"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	ReviewCount    int        `json:"review_count"`
}
