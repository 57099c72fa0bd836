package services

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vytor/linguaflash/internal/achievement"
	"github.com/vytor/linguaflash/internal/challenge"
	"github.com/vytor/linguaflash/internal/curriculum"
	"github.com/vytor/linguaflash/internal/engine"
	"github.com/vytor/linguaflash/internal/errors"
	"github.com/vytor/linguaflash/internal/flashcard"
	"github.com/vytor/linguaflash/internal/logger"
	"github.com/vytor/linguaflash/internal/models"
	"github.com/vytor/linguaflash/internal/progression"
	"github.com/vytor/linguaflash/internal/repository"
	"github.com/vytor/linguaflash/internal/worker"
)

// CreateLearnerInput describes a new learner.
type CreateLearnerInput struct {
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Language    string             `json:"language"`
	Proficiency models.Proficiency `json:"proficiency"`
}

// ChallengeProgress is an open challenge with its completion fraction.
type ChallengeProgress struct {
	models.DailyChallenge
	Progress float64 `json:"progress"`
}

// Summary is the learner's home screen: progress on the current track,
// what to do next and what has been earned. NextReviewAt is when the
// earliest card that is not yet due becomes due.
type Summary struct {
	Profile        models.LearnerProfile `json:"profile"`
	NextLesson     *models.Lesson        `json:"next_lesson,omitempty"`
	CompletionRate float64               `json:"completion_rate"`
	DueCards       int                   `json:"due_cards"`
	NextReviewAt   *time.Time            `json:"next_review_at,omitempty"`
	OpenChallenges []ChallengeProgress   `json:"open_challenges"`
	Earned         []models.Achievement  `json:"earned"`
}

// LearnerService loads a learner, applies one engine action and persists
// the result. Actions on the same learner are serialized through the worker
// pool; a rejected action leaves the stored snapshot untouched.
type LearnerService interface {
	CreateLearner(ctx context.Context, in CreateLearnerInput) (*models.LearnerState, error)
	GetState(ctx context.Context, id string) (*models.LearnerState, error)
	ListLearners(ctx context.Context) ([]models.LearnerProfile, error)
	DeleteLearner(ctx context.Context, id string) error
	Languages(ctx context.Context) []curriculum.Language

	Summary(ctx context.Context, id string) (*Summary, error)
	DueCards(ctx context.Context, id string, limit int) ([]models.ReviewCard, error)
	NextLesson(ctx context.Context, id, track string) (*models.Lesson, error)

	ReviewCard(ctx context.Context, id, cardID string, outcome models.Outcome) (*engine.Result, error)
	CompleteLesson(ctx context.Context, id, lessonID string) (*engine.Result, error)
	AdvanceChallenge(ctx context.Context, id, challengeID string, delta int) (*engine.Result, error)
	CompleteChallenge(ctx context.Context, id, challengeID string) (*engine.Result, error)
	SelectLanguage(ctx context.Context, id, language string, level models.Proficiency) (*engine.Result, error)

	Reevaluate(ctx context.Context, id string) (*engine.Result, error)
	ReevaluateAll(ctx context.Context) (int, error)
}

type learnerService struct {
	repo        repository.LearnerRepository
	engine      *engine.Engine
	curriculum  *curriculum.Curriculum
	pool        *worker.Pool
	concurrency int
}

// NewLearnerService creates a new LearnerService. pool must be started.
// concurrency bounds how many learners ReevaluateAll works on at once.
func NewLearnerService(
	repo repository.LearnerRepository,
	eng *engine.Engine,
	cur *curriculum.Curriculum,
	pool *worker.Pool,
	concurrency int,
) LearnerService {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &learnerService{
		repo:        repo,
		engine:      eng,
		curriculum:  cur,
		pool:        pool,
		concurrency: concurrency,
	}
}

func (s *learnerService) CreateLearner(ctx context.Context, in CreateLearnerInput) (*models.LearnerState, error) {
	log := logger.FromContext(ctx)
	log.Debug("creating learner: name=%s, language=%s", in.Name, in.Language)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.NewValidationError("name", "cannot be empty")
	}
	if in.Language == "" {
		return nil, errors.NewValidationError("language", "cannot be empty")
	}
	if !in.Proficiency.Valid() {
		return nil, errors.NewOutOfRangeError("proficiency", in.Proficiency)
	}

	now := s.engine.Now()
	st, err := s.curriculum.Starter(in.Language, now)
	if err != nil {
		return nil, err
	}
	st.Profile = models.LearnerProfile{
		ID:          uuid.NewString(),
		Name:        name,
		Email:       strings.TrimSpace(in.Email),
		Language:    in.Language,
		Proficiency: in.Proficiency,
		CreatedAt:   now,
	}

	if err := s.repo.Create(ctx, st); err != nil {
		log.Error("failed to create learner: %v", err)
		return nil, errors.As(err)
	}
	log.Info("learner created: id=%s", st.Profile.ID)
	return &st, nil
}

func (s *learnerService) GetState(ctx context.Context, id string) (*models.LearnerState, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting learner state: id=%s", id)

	st, err := s.repo.Load(ctx, id)
	if err != nil {
		if !errors.IsCode(err, errors.ErrCodeNotFound) {
			log.Error("failed to load learner: %v", err)
		}
		return nil, errors.As(err)
	}
	return st, nil
}

func (s *learnerService) ListLearners(ctx context.Context) ([]models.LearnerProfile, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing learners")

	profiles, err := s.repo.List(ctx)
	if err != nil {
		log.Error("failed to list learners: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return profiles, nil
}

func (s *learnerService) DeleteLearner(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)
	log.Debug("deleting learner: id=%s", id)

	err := s.pool.Do(ctx, id, "delete_learner", func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return errors.As(err)
	}
	log.Info("learner deleted: id=%s", id)
	return nil
}

func (s *learnerService) Languages(ctx context.Context) []curriculum.Language {
	return append([]curriculum.Language(nil), s.curriculum.Languages...)
}

func (s *learnerService) Summary(ctx context.Context, id string) (*Summary, error) {
	st, err := s.GetState(ctx, id)
	if err != nil {
		return nil, err
	}

	var track []models.Lesson
	for _, l := range st.Lessons {
		if l.Language == st.Profile.Language {
			track = append(track, l)
		}
	}
	sum := &Summary{
		Profile:        st.Profile,
		CompletionRate: progression.CompletionRate(track),
		DueCards:       len(s.engine.DueCards(*st, 0)),
		NextReviewAt:   nextReview(st.Cards, s.engine.Now()),
		OpenChallenges: []ChallengeProgress{},
		Earned:         achievement.Earned(st.Achievements),
	}
	for _, ch := range challenge.Open(st.Challenges) {
		sum.OpenChallenges = append(sum.OpenChallenges, ChallengeProgress{DailyChallenge: ch, Progress: challenge.Progress(ch)})
	}
	if next, ok := progression.NextLesson(st.Lessons, st.Profile.Language); ok {
		sum.NextLesson = &next
	}
	return sum, nil
}

func nextReview(cards []models.ReviewCard, now time.Time) *time.Time {
	var next *time.Time
	for _, c := range cards {
		if flashcard.IsDue(c, now) {
			continue
		}
		if at := flashcard.NextReviewAt(c); at != nil && (next == nil || at.Before(*next)) {
			next = at
		}
	}
	return next
}

func (s *learnerService) DueCards(ctx context.Context, id string, limit int) ([]models.ReviewCard, error) {
	if limit < 0 {
		return nil, errors.NewOutOfRangeError("limit", limit)
	}
	st, err := s.GetState(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.engine.DueCards(*st, limit), nil
}

func (s *learnerService) NextLesson(ctx context.Context, id, track string) (*models.Lesson, error) {
	st, err := s.GetState(ctx, id)
	if err != nil {
		return nil, err
	}
	if track == "" {
		track = st.Profile.Language
	}
	l, ok := progression.NextLesson(st.Lessons, track)
	if !ok {
		return nil, errors.NewNotFoundError("next lesson in track", track)
	}
	return &l, nil
}

func (s *learnerService) ReviewCard(ctx context.Context, id, cardID string, outcome models.Outcome) (*engine.Result, error) {
	return s.apply(ctx, id, "review_card", func(st models.LearnerState) (engine.Result, error) {
		return s.engine.ReviewCard(st, cardID, outcome)
	})
}

func (s *learnerService) CompleteLesson(ctx context.Context, id, lessonID string) (*engine.Result, error) {
	return s.apply(ctx, id, "complete_lesson", func(st models.LearnerState) (engine.Result, error) {
		return s.engine.CompleteLesson(st, lessonID)
	})
}

func (s *learnerService) AdvanceChallenge(ctx context.Context, id, challengeID string, delta int) (*engine.Result, error) {
	return s.apply(ctx, id, "advance_challenge", func(st models.LearnerState) (engine.Result, error) {
		return s.engine.AdvanceChallenge(st, challengeID, delta)
	})
}

func (s *learnerService) CompleteChallenge(ctx context.Context, id, challengeID string) (*engine.Result, error) {
	return s.apply(ctx, id, "complete_challenge", func(st models.LearnerState) (engine.Result, error) {
		return s.engine.CompleteChallengeManually(st, challengeID)
	})
}

// SelectLanguage switches the learner's target language. A language the
// learner has never studied gets its starter lessons and cards appended.
func (s *learnerService) SelectLanguage(ctx context.Context, id, language string, level models.Proficiency) (*engine.Result, error) {
	if err := s.curriculum.Selectable(language); err != nil {
		return nil, err
	}
	return s.apply(ctx, id, "select_language", func(st models.LearnerState) (engine.Result, error) {
		res, err := s.engine.SelectLanguage(st, language, level)
		if err != nil {
			return res, err
		}
		if _, ok := progression.Tracks(res.State.Lessons)[language]; ok {
			return res, nil
		}
		starter, err := s.curriculum.Starter(language, s.engine.Now())
		if err != nil {
			return engine.Result{State: st}, err
		}
		res.State.Lessons = append(res.State.Lessons, starter.Lessons...)
		res.State.Cards = append(res.State.Cards, starter.Cards...)
		return res, nil
	})
}

func (s *learnerService) Reevaluate(ctx context.Context, id string) (*engine.Result, error) {
	log := logger.FromContext(ctx).WithField("learner_id", id)

	var out engine.Result
	err := s.pool.Do(ctx, id, "reevaluate", func(ctx context.Context) error {
		st, err := s.repo.Load(ctx, id)
		if err != nil {
			return err
		}
		out = s.engine.Reevaluate(*st)
		if len(out.Earned) == 0 {
			return nil
		}
		return s.repo.Save(ctx, out.State)
	})
	if err != nil {
		log.Error("re-evaluation failed: %v", err)
		return nil, errors.As(err)
	}
	if len(out.Earned) > 0 {
		log.Info("re-evaluation earned %d achievements", len(out.Earned))
	}
	return &out, nil
}

// ReevaluateAll re-runs the achievement evaluator for every learner and
// returns how many achievements were newly earned.
func (s *learnerService) ReevaluateAll(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	profiles, err := s.repo.List(ctx)
	if err != nil {
		log.Error("failed to list learners: %v", err)
		return 0, errors.NewInternalError(err)
	}
	log.Info("re-evaluating achievements for %d learners", len(profiles))

	var earned int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, p := range profiles {
		id := p.ID
		g.Go(func() error {
			res, err := s.Reevaluate(gctx, id)
			if err != nil {
				return err
			}
			atomic.AddInt64(&earned, int64(len(res.Earned)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(atomic.LoadInt64(&earned)), err
	}

	log.Info("re-evaluation finished: %d achievements earned", earned)
	return int(earned), nil
}

// apply runs one engine action inside the learner's shard: load, apply,
// save. Nothing is saved when the action is rejected.
func (s *learnerService) apply(
	ctx context.Context,
	id, action string,
	fn func(models.LearnerState) (engine.Result, error),
) (*engine.Result, error) {
	log := logger.FromContext(ctx).WithFields(map[string]any{"learner_id": id, "action": action})
	log.Debug("applying action")

	var out engine.Result
	err := s.pool.Do(ctx, id, action, func(ctx context.Context) error {
		st, err := s.repo.Load(ctx, id)
		if err != nil {
			return err
		}
		res, err := fn(*st)
		if err != nil {
			return err
		}
		if err := s.repo.Save(ctx, res.State); err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		appErr := errors.As(err)
		if appErr.Status >= 500 {
			log.Error("action failed: %v", err)
		} else {
			log.Debug("action rejected: %v", err)
		}
		return nil, appErr
	}

	log.Info("action applied: xp_awarded=%d, unlocked=%v, challenges=%v, earned=%v",
		out.XPAwarded, out.Unlocked, out.CompletedChallenges, out.Earned)
	return &out, nil
}
