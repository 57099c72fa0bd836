// Package engine applies learner actions to a LearnerState snapshot.
//
// Every entry point validates its input, then runs the review scheduler, the
// progression gate, the challenge tracker and the achievement evaluator in
// that order on a private copy of the snapshot. A rejected action returns the
// snapshot it was given, unchanged, together with an *errors.AppError.
//
// The engine holds no learner state between calls. Callers must not apply two
// actions to the same learner concurrently.
package engine

import (
	"time"

	"github.com/vytor/linguaflash/internal/achievement"
	"github.com/vytor/linguaflash/internal/challenge"
	"github.com/vytor/linguaflash/internal/errors"
	"github.com/vytor/linguaflash/internal/flashcard"
	"github.com/vytor/linguaflash/internal/models"
	"github.com/vytor/linguaflash/internal/progression"
)

// Result is the snapshot produced by an action and a summary of what changed.
type Result struct {
	State               models.LearnerState `json:"state"`
	XPAwarded           int                 `json:"xp_awarded"`
	Unlocked            []string            `json:"unlocked,omitempty"`
	CompletedChallenges []string            `json:"completed_challenges,omitempty"`
	Earned              []string            `json:"earned,omitempty"`
}

type Engine struct {
	clock Clock
}

type Option func(*Engine)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{clock: SystemClock{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

// ReviewCard grades a card and counts the review toward flashcard challenges.
func (e *Engine) ReviewCard(st models.LearnerState, cardID string, outcome models.Outcome) (Result, error) {
	if !outcome.Valid() {
		return Result{State: st}, errors.NewOutOfRangeError("outcome", outcome)
	}
	idx := findCard(st.Cards, cardID)
	if idx < 0 {
		return Result{State: st}, errors.NewInvalidTransitionError("card", cardID, "no such card")
	}

	a := e.begin(st)
	a.state.Cards[idx] = flashcard.Grade(a.state.Cards[idx], outcome, a.now)
	a.advanceOpen(models.ChallengeFlashcards, 1)
	return a.finish(), nil
}

// CompleteLesson completes an unlocked lesson, unlocks its successor, awards
// the lesson XP and counts the lesson toward lesson challenges.
func (e *Engine) CompleteLesson(st models.LearnerState, lessonID string) (Result, error) {
	lessons, tr, err := progression.Complete(st.Lessons, lessonID)
	if err != nil {
		return Result{State: st}, err
	}

	a := e.begin(st)
	a.state.Lessons = lessons
	if tr.Unlocked != "" {
		a.res.Unlocked = append(a.res.Unlocked, tr.Unlocked)
	}
	a.award(tr.XPReward)
	a.advanceOpen(models.ChallengeLesson, 1)
	return a.finish(), nil
}

// AdvanceChallenge adds delta to a counted challenge.
func (e *Engine) AdvanceChallenge(st models.LearnerState, challengeID string, delta int) (Result, error) {
	if delta <= 0 {
		return Result{State: st}, errors.NewOutOfRangeError("delta", delta)
	}
	idx := findChallenge(st.Challenges, challengeID)
	switch {
	case idx < 0:
		return Result{State: st}, errors.NewInvalidTransitionError("challenge", challengeID, "no such challenge")
	case st.Challenges[idx].Completed:
		return Result{State: st}, errors.NewInvalidTransitionError("challenge", challengeID, "challenge already completed")
	case st.Challenges[idx].Criteria == nil:
		return Result{State: st}, errors.NewInvalidTransitionError("challenge", challengeID, "challenge has no progress criteria")
	}

	a := e.begin(st)
	a.recordProgress(idx, delta)
	return a.finish(), nil
}

// CompleteChallengeManually completes a challenge regardless of its counter.
func (e *Engine) CompleteChallengeManually(st models.LearnerState, challengeID string) (Result, error) {
	idx := findChallenge(st.Challenges, challengeID)
	switch {
	case idx < 0:
		return Result{State: st}, errors.NewInvalidTransitionError("challenge", challengeID, "no such challenge")
	case st.Challenges[idx].Completed:
		return Result{State: st}, errors.NewInvalidTransitionError("challenge", challengeID, "challenge already completed")
	}

	a := e.begin(st)
	ch, completed := challenge.Complete(a.state.Challenges[idx], a.now)
	a.state.Challenges[idx] = ch
	if completed {
		a.res.CompletedChallenges = append(a.res.CompletedChallenges, ch.ID)
		a.award(ch.XPReward)
	}
	return a.finish(), nil
}

// SelectLanguage sets the learner's target language and proficiency tier.
// Whether the language is offered is the caller's concern.
func (e *Engine) SelectLanguage(st models.LearnerState, language string, level models.Proficiency) (Result, error) {
	if language == "" {
		return Result{State: st}, errors.NewValidationError("language", "must not be empty")
	}
	if !level.Valid() {
		return Result{State: st}, errors.NewOutOfRangeError("proficiency", level)
	}
	out := st.Clone()
	out.Profile.Language = language
	out.Profile.Proficiency = level
	return Result{State: out}, nil
}

// Reevaluate runs only the achievement evaluator, e.g. after new achievement
// definitions were added to a learner.
func (e *Engine) Reevaluate(st models.LearnerState) Result {
	a := &action{now: e.clock.Now(), state: st.Clone()}
	return a.finish()
}

// DueCards returns the review queue, most overdue first. A limit of zero or
// less returns every due card.
func (e *Engine) DueCards(st models.LearnerState, limit int) []models.ReviewCard {
	due := flashcard.DueQueue(st.Cards, e.clock.Now())
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due
}

// action is one entry point's working copy of the snapshot.
type action struct {
	now   time.Time
	state models.LearnerState
	res   Result
}

func (e *Engine) begin(st models.LearnerState) *action {
	a := &action{now: e.clock.Now(), state: st.Clone()}
	a.state.Profile = RecordActivity(a.state.Profile, a.now)
	return a
}

func (a *action) award(xp int) {
	if xp <= 0 {
		return
	}
	a.state.Profile.XP += xp
	a.res.XPAwarded += xp
}

func (a *action) recordProgress(idx, delta int) {
	ch, completed := challenge.RecordProgress(a.state.Challenges[idx], delta, a.now)
	a.state.Challenges[idx] = ch
	if completed {
		a.res.CompletedChallenges = append(a.res.CompletedChallenges, ch.ID)
		a.award(ch.XPReward)
	}
}

// advanceOpen counts one unit of activity toward every open challenge of type.
func (a *action) advanceOpen(typ models.ChallengeType, delta int) {
	for i, ch := range a.state.Challenges {
		if ch.Completed || ch.Criteria == nil || ch.Criteria.Type != typ {
			continue
		}
		a.recordProgress(i, delta)
	}
}

func (a *action) finish() Result {
	achievements, earned := achievement.Evaluate(achievement.StatsFor(a.state), a.state.Achievements, a.now)
	a.state.Achievements = achievements
	a.res.Earned = earned
	a.res.State = a.state
	return a.res
}

func findCard(cards []models.ReviewCard, id string) int {
	for i, c := range cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func findChallenge(challenges []models.DailyChallenge, id string) int {
	for i, ch := range challenges {
		if ch.ID == id {
			return i
		}
	}
	return -1
}
