package achievement_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/linguaflash/internal/achievement"
	"github.com/vytor/linguaflash/internal/models"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func starterAchievements() []models.Achievement {
	return []models.Achievement{
		{ID: "first-steps", Criterion: models.Criterion{Metric: models.MetricLessonsCompleted, Threshold: 1}},
		{ID: "on-fire", Criterion: models.Criterion{Metric: models.MetricStreakDays, Threshold: 3}},
		{ID: "vocab-master", Criterion: models.Criterion{Metric: models.MetricFlashcardReviews, Threshold: 50}},
	}
}

func TestEvaluate_EarnsSatisfiedCriteria(t *testing.T) {
	stats := achievement.Stats{LessonsCompleted: 1, StreakDays: 2, FlashcardReviews: 50}

	updated, earned := achievement.Evaluate(stats, starterAchievements(), now)

	assert.Equal(t, []string{"first-steps", "vocab-master"}, earned)
	assert.True(t, updated[0].Earned)
	require.NotNil(t, updated[0].EarnedDate)
	assert.Equal(t, now, *updated[0].EarnedDate)
	assert.False(t, updated[1].Earned)
	assert.Nil(t, updated[1].EarnedDate)
	assert.True(t, updated[2].Earned)
}

func TestEvaluate_NeverOverwritesEarnedDate(t *testing.T) {
	first := now.Add(-72 * time.Hour)
	achievements := starterAchievements()
	achievements[0].Earned = true
	achievements[0].EarnedDate = &first

	updated, earned := achievement.Evaluate(achievement.Stats{LessonsCompleted: 9}, achievements, now)

	assert.Empty(t, earned)
	assert.Equal(t, first, *updated[0].EarnedDate)
}

func TestEvaluate_EarnedStaysEarnedWhenStatsDrop(t *testing.T) {
	achievements := starterAchievements()
	achievements, _ = achievement.Evaluate(achievement.Stats{StreakDays: 3}, achievements, now)
	require.True(t, achievements[1].Earned)

	updated, earned := achievement.Evaluate(achievement.Stats{StreakDays: 1}, achievements, now.Add(24*time.Hour))

	assert.Empty(t, earned)
	assert.True(t, updated[1].Earned)
}

func TestEvaluate_OrderIndependent(t *testing.T) {
	stats := achievement.Stats{LessonsCompleted: 2, StreakDays: 5, FlashcardReviews: 10}
	forward, _ := achievement.Evaluate(stats, starterAchievements(), now)

	reversed := starterAchievements()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	backward, _ := achievement.Evaluate(stats, reversed, now)

	byID := func(as []models.Achievement) map[string]bool {
		m := make(map[string]bool)
		for _, a := range as {
			m[a.ID] = a.Earned
		}
		return m
	}
	assert.Equal(t, byID(forward), byID(backward))
}

func TestEvaluate_UnknownMetricNeverMatches(t *testing.T) {
	achievements := []models.Achievement{{ID: "mystery", Criterion: models.Criterion{Metric: "friends", Threshold: 0}}}

	updated, earned := achievement.Evaluate(achievement.Stats{XP: 1000}, achievements, now)

	assert.Empty(t, earned)
	assert.False(t, updated[0].Earned)
}

func TestEvaluate_DoesNotMutateInput(t *testing.T) {
	achievements := starterAchievements()
	_, _ = achievement.Evaluate(achievement.Stats{LessonsCompleted: 1}, achievements, now)
	assert.False(t, achievements[0].Earned)
}

func TestStatsFor(t *testing.T) {
	state := models.LearnerState{
		Profile: models.LearnerProfile{XP: 120, Streak: 4},
		Lessons: []models.Lesson{{ID: "a", Completed: true}, {ID: "b"}},
		Cards:   []models.ReviewCard{{ID: "c1", ReviewCount: 3}, {ID: "c2", ReviewCount: 4}},
		Challenges: []models.DailyChallenge{
			{ID: "x", Completed: true},
			{ID: "y", Completed: true},
			{ID: "z"},
		},
	}

	assert.Equal(t, achievement.Stats{
		LessonsCompleted:    1,
		StreakDays:          4,
		FlashcardReviews:    7,
		XP:                  120,
		ChallengesCompleted: 2,
	}, achievement.StatsFor(state))
}

func TestEarned(t *testing.T) {
	achievements := starterAchievements()
	achievements[2].Earned = true

	earned := achievement.Earned(achievements)
	require.Len(t, earned, 1)
	assert.Equal(t, "vocab-master", earned[0].ID)
}
