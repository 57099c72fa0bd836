package achievement

import (
	"time"

	"github.com/vytor/linguaflash/internal/challenge"
	"github.com/vytor/linguaflash/internal/models"
	"github.com/vytor/linguaflash/internal/progression"
)

// Stats are the aggregate learner statistics achievement criteria read.
type Stats struct {
	LessonsCompleted    int `json:"lessons_completed"`
	StreakDays          int `json:"streak_days"`
	FlashcardReviews    int `json:"flashcard_reviews"`
	XP                  int `json:"xp"`
	ChallengesCompleted int `json:"challenges_completed"`
}

// StatsFor derives Stats from a learner snapshot.
func StatsFor(state models.LearnerState) Stats {
	reviews := 0
	for _, c := range state.Cards {
		reviews += c.ReviewCount
	}
	return Stats{
		LessonsCompleted:    progression.CompletedCount(state.Lessons),
		StreakDays:          state.Profile.Streak,
		FlashcardReviews:    reviews,
		XP:                  state.Profile.XP,
		ChallengesCompleted: challenge.CompletedCount(state.Challenges),
	}
}

// Value returns the statistic a metric refers to. Unknown metrics report
// false.
func (s Stats) Value(m models.Metric) (int, bool) {
	switch m {
	case models.MetricLessonsCompleted:
		return s.LessonsCompleted, true
	case models.MetricStreakDays:
		return s.StreakDays, true
	case models.MetricFlashcardReviews:
		return s.FlashcardReviews, true
	case models.MetricXP:
		return s.XP, true
	case models.MetricChallengesCompleted:
		return s.ChallengesCompleted, true
	}
	return 0, false
}

// Satisfied reports whether c holds for s.
func Satisfied(c models.Criterion, s Stats) bool {
	v, ok := s.Value(c.Metric)
	return ok && v >= c.Threshold
}

// Evaluate earns every achievement whose criterion now holds, stamping
// EarnedDate with now. Achievements already earned are never touched. It
// returns a new slice and the IDs earned by this pass.
func Evaluate(stats Stats, achievements []models.Achievement, now time.Time) ([]models.Achievement, []string) {
	out := append([]models.Achievement(nil), achievements...)
	var earned []string
	for i, a := range out {
		if a.Earned || !Satisfied(a.Criterion, stats) {
			continue
		}
		at := now
		out[i].Earned = true
		out[i].EarnedDate = &at
		earned = append(earned, a.ID)
	}
	return out, earned
}

// Earned returns the achievements already earned, in input order.
func Earned(achievements []models.Achievement) []models.Achievement {
	var out []models.Achievement
	for _, a := range achievements {
		if a.Earned {
			out = append(out, a)
		}
	}
	return out
}
