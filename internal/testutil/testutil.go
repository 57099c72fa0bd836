package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vytor/linguaflash/internal/db"
	"github.com/vytor/linguaflash/internal/models"
)

// NewTestDB opens a migrated in-memory SQLite database with foreign keys on.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.Open(":memory:")
	require.NoError(t, err)
	return d.DB
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// LearnerState returns a small but complete snapshot: a two-lesson track,
// two cards, a counted and a manual challenge, and two achievements.
func LearnerState(id string, now time.Time) models.LearnerState {
	now = now.UTC()
	return models.LearnerState{
		Profile: models.LearnerProfile{
			ID:          id,
			Name:        "Ana",
			Email:       "ana@example.com",
			Language:    "es",
			Proficiency: models.Beginner,
			CreatedAt:   now,
		},
		Lessons: []models.Lesson{
			{ID: "lesson-1", Title: "Basic Greetings", Language: "es", Position: 0, Level: models.Beginner, XPReward: 10, DurationMinutes: 5, Exercises: []models.Exercise{
				{ID: "ex-1", Type: models.ExerciseMultipleChoice, Question: `How do you say "Hello" in Spanish?`, Options: []string{"Hola", "Adiós"}, CorrectAnswer: "Hola"},
				{ID: "ex-2", Type: models.ExerciseTranslation, Question: `Translate "My name is John"`, CorrectAnswer: "Me llamo John"},
			}},
			{ID: "lesson-2", Title: "Numbers 1-10", Language: "es", Position: 1, Level: models.Beginner, XPReward: 15, DurationMinutes: 8, Locked: true},
		},
		Cards: []models.ReviewCard{
			{ID: "card-1", Language: "es", Word: "Hola", Translation: "Hello", Examples: []models.Example{{Original: "Hola a todos", Translated: "Hello everyone"}}, IntervalDays: 1, EaseFactor: 2.5},
			{ID: "card-2", Language: "es", Word: "Gracias", Translation: "Thank you", IntervalDays: 1, EaseFactor: 2.5},
		},
		Challenges: []models.DailyChallenge{
			{ID: "challenge-1", Title: "Greetings", XPReward: 20, Date: now.Truncate(24 * time.Hour), Criteria: &models.ChallengeCriteria{Type: models.ChallengeSpeaking, RequiredCount: 3}},
			{ID: "challenge-2", Title: "Free talk", XPReward: 10, Date: now.Truncate(24 * time.Hour)},
		},
		Achievements: []models.Achievement{
			{ID: "achievement-1", Title: "First Steps", Criterion: models.Criterion{Metric: models.MetricLessonsCompleted, Threshold: 1}},
			{ID: "achievement-2", Title: "On Fire", Criterion: models.Criterion{Metric: models.MetricStreakDays, Threshold: 3}},
		},
	}
}
