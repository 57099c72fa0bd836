package models

import "time"

type ChallengeType string

const (
	ChallengeSpeaking   ChallengeType = "speaking"
	ChallengeFlashcards ChallengeType = "flashcards"
	ChallengeLesson     ChallengeType = "lesson"
)

type ChallengeCriteria struct {
	Type          ChallengeType `json:"type"`
	RequiredCount int           `json:"required_count"`
	CurrentCount  int           `json:"current_count"`
}

// DailyChallenge without Criteria can only be completed manually.
type DailyChallenge struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	XPReward    int                `json:"xp_reward"`
	Completed   bool               `json:"completed"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
	Date        time.Time          `json:"date"`
	Criteria    *ChallengeCriteria `json:"criteria,omitempty"`
}
