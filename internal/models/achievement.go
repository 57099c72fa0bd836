package models

import "time"

// Metric names an aggregate learner statistic an achievement can watch.
type Metric string

const (
	MetricLessonsCompleted    Metric = "lessons_completed"
	MetricStreakDays          Metric = "streak_days"
	MetricFlashcardReviews    Metric = "flashcard_reviews"
	MetricXP                  Metric = "xp"
	MetricChallengesCompleted Metric = "challenges_completed"
)

// Criterion is satisfied once the metric reaches Threshold.
type Criterion struct {
	Metric    Metric `json:"metric" yaml:"metric"`
	Threshold int    `json:"threshold" yaml:"threshold"`
}

type Achievement struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Criterion   Criterion  `json:"criterion"`
	Earned      bool       `json:"earned"`
	EarnedDate  *time.Time `json:"earned_date,omitempty"`
}
