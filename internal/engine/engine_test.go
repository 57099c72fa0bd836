package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/linguaflash/internal/engine"
	"github.com/vytor/linguaflash/internal/errors"
	"github.com/vytor/linguaflash/internal/models"
)

var start = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func newEngine() (*engine.Engine, *engine.FixedClock) {
	clock := &engine.FixedClock{T: start}
	return engine.New(engine.WithClock(clock)), clock
}

func learner() models.LearnerState {
	return models.LearnerState{
		Profile: models.LearnerProfile{ID: "user-1", Name: "Ana", Language: "es"},
		Lessons: []models.Lesson{
			{ID: "L0", Language: "es", Position: 0, XPReward: 10},
			{ID: "L1", Language: "es", Position: 1, XPReward: 15, Locked: true},
			{ID: "L2", Language: "es", Position: 2, XPReward: 20, Locked: true},
		},
		Cards: []models.ReviewCard{
			{ID: "card-1", Word: "Hola", Translation: "Hello", IntervalDays: 1, EaseFactor: 2.5},
			{ID: "card-2", Word: "Gracias", Translation: "Thank you"},
		},
		Challenges: []models.DailyChallenge{
			{ID: "speak-3", XPReward: 20, Criteria: &models.ChallengeCriteria{Type: models.ChallengeSpeaking, RequiredCount: 5, CurrentCount: 3}},
			{ID: "cards-2", XPReward: 25, Criteria: &models.ChallengeCriteria{Type: models.ChallengeFlashcards, RequiredCount: 2}},
			{ID: "lesson-1", XPReward: 5, Criteria: &models.ChallengeCriteria{Type: models.ChallengeLesson, RequiredCount: 1}},
			{ID: "manual", XPReward: 30},
		},
		Achievements: []models.Achievement{
			{ID: "first-steps", Criterion: models.Criterion{Metric: models.MetricLessonsCompleted, Threshold: 1}},
			{ID: "on-fire", Criterion: models.Criterion{Metric: models.MetricStreakDays, Threshold: 3}},
			{ID: "vocab", Criterion: models.Criterion{Metric: models.MetricFlashcardReviews, Threshold: 3}},
		},
	}
}

func challengeByID(t *testing.T, st models.LearnerState, id string) models.DailyChallenge {
	t.Helper()
	for _, ch := range st.Challenges {
		if ch.ID == id {
			return ch
		}
	}
	t.Fatalf("challenge %s not found", id)
	return models.DailyChallenge{}
}

func achievementByID(t *testing.T, st models.LearnerState, id string) models.Achievement {
	t.Helper()
	for _, a := range st.Achievements {
		if a.ID == id {
			return a
		}
	}
	t.Fatalf("achievement %s not found", id)
	return models.Achievement{}
}

func TestReviewCard_GradesAndCountsTowardChallenge(t *testing.T) {
	e, _ := newEngine()
	st := learner()

	res, err := e.ReviewCard(st, "card-1", models.OutcomeEasy)

	require.NoError(t, err)
	card := res.State.Cards[0]
	assert.InDelta(t, 2.5, card.IntervalDays, 1e-9)
	assert.InDelta(t, 2.65, card.EaseFactor, 1e-9)
	assert.Equal(t, start, *card.LastReviewedAt)
	assert.Equal(t, 1, challengeByID(t, res.State, "cards-2").Criteria.CurrentCount)
	assert.Equal(t, 1, res.State.Profile.Streak)
	assert.Nil(t, st.Cards[0].LastReviewedAt, "input snapshot should not be mutated")
}

func TestReviewCard_Hard(t *testing.T) {
	e, _ := newEngine()

	res, err := e.ReviewCard(learner(), "card-1", models.OutcomeHard)

	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.State.Cards[0].IntervalDays, 1e-9)
	assert.InDelta(t, 2.3, res.State.Cards[0].EaseFactor, 1e-9)
}

func TestReviewCard_InvalidOutcome(t *testing.T) {
	e, _ := newEngine()
	st := learner()

	res, err := e.ReviewCard(st, "card-1", models.Outcome("perfect"))

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeOutOfRange))
	assert.Equal(t, st, res.State)
}

func TestReviewCard_UnknownCard(t *testing.T) {
	e, _ := newEngine()
	st := learner()

	res, err := e.ReviewCard(st, "card-404", models.OutcomeEasy)

	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidTransition))
	assert.Equal(t, st, res.State)
	assert.Nil(t, res.State.Profile.LastActiveAt, "rejected actions should not count as activity")
}

func TestReviewCard_CompletesFlashcardChallengeOnce(t *testing.T) {
	e, _ := newEngine()
	st := learner()

	var awarded int
	for _, id := range []string{"card-1", "card-2", "card-1", "card-2"} {
		res, err := e.ReviewCard(st, id, models.OutcomeMedium)
		require.NoError(t, err)
		awarded += res.XPAwarded
		st = res.State
	}

	ch := challengeByID(t, st, "cards-2")
	assert.True(t, ch.Completed)
	assert.Equal(t, 2, ch.Criteria.CurrentCount)
	assert.Equal(t, 25, awarded)
	assert.Equal(t, 25, st.Profile.XP)
	assert.True(t, achievementByID(t, st, "vocab").Earned, "four reviews should earn the review achievement")
}

func TestCompleteLesson_Scenario(t *testing.T) {
	e, _ := newEngine()

	res, err := e.CompleteLesson(learner(), "L0")

	require.NoError(t, err)
	lessons := res.State.Lessons
	assert.Equal(t, models.LessonCompleted, lessons[0].State())
	assert.Equal(t, models.LessonUnlocked, lessons[1].State())
	assert.Equal(t, models.LessonLocked, lessons[2].State())
	assert.Equal(t, []string{"L1"}, res.Unlocked)

	// Lesson XP plus the one-lesson challenge reward.
	assert.Equal(t, 15, res.XPAwarded)
	assert.Equal(t, 15, res.State.Profile.XP)
	assert.True(t, challengeByID(t, res.State, "lesson-1").Completed)
	assert.Equal(t, []string{"lesson-1"}, res.CompletedChallenges)
	assert.Equal(t, []string{"first-steps"}, res.Earned)
	assert.Equal(t, start, *achievementByID(t, res.State, "first-steps").EarnedDate)

	again, err := e.CompleteLesson(res.State, "L0")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidTransition))
	assert.Equal(t, res.State, again.State)
	assert.Zero(t, again.XPAwarded)
}

func TestCompleteLesson_Locked(t *testing.T) {
	e, _ := newEngine()
	st := learner()

	res, err := e.CompleteLesson(st, "L2")

	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidTransition))
	assert.Equal(t, st, res.State)
}

func TestAdvanceChallenge_Scenario(t *testing.T) {
	e, _ := newEngine()

	res, err := e.AdvanceChallenge(learner(), "speak-3", 10)

	require.NoError(t, err)
	ch := challengeByID(t, res.State, "speak-3")
	assert.Equal(t, 5, ch.Criteria.CurrentCount)
	assert.True(t, ch.Completed)
	assert.Equal(t, 20, res.XPAwarded)
	assert.Equal(t, 20, res.State.Profile.XP)
}

func TestAdvanceChallenge_ExactlyOnceAward(t *testing.T) {
	e, _ := newEngine()
	st := learner()

	res, err := e.AdvanceChallenge(st, "speak-3", 2)
	require.NoError(t, err)
	st = res.State
	require.Equal(t, 20, st.Profile.XP)

	for i := 0; i < 3; i++ {
		res, err = e.AdvanceChallenge(st, "speak-3", 1)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidTransition))
		assert.Equal(t, st, res.State)
	}
	assert.Equal(t, 20, st.Profile.XP)
}

func TestAdvanceChallenge_Rejections(t *testing.T) {
	e, _ := newEngine()

	tests := []struct {
		name  string
		id    string
		delta int
		code  string
	}{
		{name: "negative delta", id: "speak-3", delta: -1, code: errors.ErrCodeOutOfRange},
		{name: "zero delta", id: "speak-3", delta: 0, code: errors.ErrCodeOutOfRange},
		{name: "unknown challenge", id: "nope", delta: 1, code: errors.ErrCodeInvalidTransition},
		{name: "manual challenge", id: "manual", delta: 1, code: errors.ErrCodeInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := learner()
			res, err := e.AdvanceChallenge(st, tt.id, tt.delta)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
			assert.Equal(t, st, res.State)
		})
	}
}

func TestAdvanceChallenge_MonotonicCount(t *testing.T) {
	e, _ := newEngine()
	st := learner()
	prev := challengeByID(t, st, "speak-3").Criteria.CurrentCount

	for _, delta := range []int{1, -4, 0, 3, 2} {
		res, _ := e.AdvanceChallenge(st, "speak-3", delta)
		st = res.State
		ch := challengeByID(t, st, "speak-3")
		assert.GreaterOrEqual(t, ch.Criteria.CurrentCount, prev)
		assert.LessOrEqual(t, ch.Criteria.CurrentCount, ch.Criteria.RequiredCount)
		prev = ch.Criteria.CurrentCount
	}
}

func TestCompleteChallengeManually(t *testing.T) {
	e, _ := newEngine()

	res, err := e.CompleteChallengeManually(learner(), "manual")

	require.NoError(t, err)
	assert.True(t, challengeByID(t, res.State, "manual").Completed)
	assert.Equal(t, 30, res.XPAwarded)

	again, err := e.CompleteChallengeManually(res.State, "manual")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidTransition))
	assert.Equal(t, 30, again.State.Profile.XP)

	_, err = e.CompleteChallengeManually(learner(), "ghost")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidTransition))
}

func TestCompleteChallengeManually_FillsCounter(t *testing.T) {
	e, _ := newEngine()
	st := learner()

	res, err := e.CompleteChallengeManually(st, "speak-3")

	require.NoError(t, err)
	ch := challengeByID(t, res.State, "speak-3")
	assert.True(t, ch.Completed)
	assert.Equal(t, 5, ch.Criteria.CurrentCount)
	assert.Equal(t, 5, ch.Criteria.RequiredCount)
	assert.Equal(t, 20, res.XPAwarded)
	assert.Equal(t, []string{"speak-3"}, res.CompletedChallenges)
	assert.Equal(t, 3, challengeByID(t, st, "speak-3").Criteria.CurrentCount)

	again, err := e.CompleteChallengeManually(res.State, "speak-3")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidTransition))
	assert.Equal(t, 20, again.State.Profile.XP)

	_, err = e.AdvanceChallenge(res.State, "speak-3", 1)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidTransition))
}

func TestStreakEarnsAchievementAcrossDays(t *testing.T) {
	e, clock := newEngine()
	st := learner()

	for day := 0; day < 3; day++ {
		res, err := e.ReviewCard(st, "card-2", models.OutcomeMedium)
		require.NoError(t, err)
		st = res.State
		clock.Advance(24 * time.Hour)
	}

	assert.Equal(t, 3, st.Profile.Streak)
	assert.True(t, achievementByID(t, st, "on-fire").Earned)
}

func TestSelectLanguage(t *testing.T) {
	e, _ := newEngine()
	st := learner()

	res, err := e.SelectLanguage(st, "fr", models.Intermediate)
	require.NoError(t, err)
	assert.Equal(t, "fr", res.State.Profile.Language)
	assert.Equal(t, models.Intermediate, res.State.Profile.Proficiency)
	assert.Equal(t, "es", st.Profile.Language)

	_, err = e.SelectLanguage(st, "fr", models.Proficiency("expert"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeOutOfRange))

	_, err = e.SelectLanguage(st, "", models.Beginner)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestReevaluate(t *testing.T) {
	e, _ := newEngine()
	st := learner()
	st.Lessons[0].Completed = true

	res := e.Reevaluate(st)

	assert.Equal(t, []string{"first-steps"}, res.Earned)
	assert.Nil(t, res.State.Profile.LastActiveAt, "re-evaluation is not learner activity")
}

func TestDueCards(t *testing.T) {
	e, clock := newEngine()
	st := learner()

	res, err := e.ReviewCard(st, "card-1", models.OutcomeEasy)
	require.NoError(t, err)

	due := e.DueCards(res.State, 0)
	require.Len(t, due, 1)
	assert.Equal(t, "card-2", due[0].ID)

	clock.Advance(60 * time.Hour)
	due = e.DueCards(res.State, 0)
	assert.Len(t, due, 2)

	assert.Len(t, e.DueCards(res.State, 1), 1)
}
