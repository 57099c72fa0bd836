package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	apperrors "github.com/vytor/linguaflash/internal/errors"
	"github.com/vytor/linguaflash/internal/logger"
	"github.com/vytor/linguaflash/internal/models"
	"github.com/vytor/linguaflash/internal/repository"
)

var childTables = []string{"lessons", "review_cards", "daily_challenges", "achievements"}

type learnerRepository struct {
	db *sql.DB
}

// NewLearnerRepository creates a new LearnerRepository implementation
func NewLearnerRepository(db *sql.DB) repository.LearnerRepository {
	return &learnerRepository{db: db}
}

func (r *learnerRepository) Create(ctx context.Context, st models.LearnerState) error {
	log := logger.FromContext(ctx).WithPrefix("learner_repo")
	log.Debug("creating learner: id=%s", st.Profile.ID)

	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		p := st.Profile
		_, err := execBuilder(ctx, tx, sqlBuilder.Insert("learners").
			Columns("id", "name", "email", "xp", "streak", "language", "proficiency", "last_active_at", "created_at").
			Values(p.ID, p.Name, p.Email, p.XP, p.Streak, p.Language, string(p.Proficiency), nullTime(p.LastActiveAt), p.CreatedAt.UTC()))
		if err != nil {
			return err
		}
		return insertChildren(ctx, tx, st)
	})
	if isPrimaryKeyViolation(err) {
		log.Debug("learner already exists: id=%s", st.Profile.ID)
		return apperrors.NewInvalidTransitionError("learner", st.Profile.ID, "already exists")
	}
	if err != nil {
		log.Error("failed to create learner: %v", err)
		return err
	}
	log.Debug("learner created: id=%s", st.Profile.ID)
	return nil
}

func (r *learnerRepository) Save(ctx context.Context, st models.LearnerState) error {
	log := logger.FromContext(ctx).WithPrefix("learner_repo")
	log.Debug("saving learner: id=%s, xp=%d, streak=%d", st.Profile.ID, st.Profile.XP, st.Profile.Streak)

	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		p := st.Profile
		res, err := execBuilder(ctx, tx, sqlBuilder.Update("learners").SetMap(map[string]any{
			"name":           p.Name,
			"email":          p.Email,
			"xp":             p.XP,
			"streak":         p.Streak,
			"language":       p.Language,
			"proficiency":    string(p.Proficiency),
			"last_active_at": nullTime(p.LastActiveAt),
			"updated_at":     squirrel.Expr("CURRENT_TIMESTAMP"),
		}).Where(squirrel.Eq{"id": p.ID}))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return apperrors.NewNotFoundError("learner", p.ID)
		}

		for _, table := range childTables {
			if _, err := execBuilder(ctx, tx, sqlBuilder.Delete(table).Where(squirrel.Eq{"learner_id": p.ID})); err != nil {
				return err
			}
		}
		return insertChildren(ctx, tx, st)
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
			log.Debug("learner not found: id=%s", st.Profile.ID)
		} else {
			log.Error("failed to save learner: %v", err)
		}
		return err
	}
	return nil
}

func insertChildren(ctx context.Context, tx *sql.Tx, st models.LearnerState) error {
	id := st.Profile.ID

	if len(st.Lessons) > 0 {
		q := sqlBuilder.Insert("lessons").Columns(
			"learner_id", "id", "seq", "title", "description", "language", "position",
			"level", "xp_reward", "duration_minutes", "exercises", "completed", "locked",
		)
		for i, l := range st.Lessons {
			exercises := l.Exercises
			if exercises == nil {
				exercises = []models.Exercise{}
			}
			raw, err := encodeJSON(exercises)
			if err != nil {
				return err
			}
			q = q.Values(id, l.ID, i, l.Title, l.Description, l.Language, l.Position,
				string(l.Level), l.XPReward, l.DurationMinutes, raw, l.Completed, l.Locked)
		}
		if _, err := execBuilder(ctx, tx, q); err != nil {
			return err
		}
	}

	if len(st.Cards) > 0 {
		q := sqlBuilder.Insert("review_cards").Columns(
			"learner_id", "id", "seq", "language", "word", "translation", "examples",
			"interval_days", "ease_factor", "last_reviewed_at", "review_count",
		)
		for i, c := range st.Cards {
			examples := c.Examples
			if examples == nil {
				examples = []models.Example{}
			}
			raw, err := encodeJSON(examples)
			if err != nil {
				return err
			}
			q = q.Values(id, c.ID, i, c.Language, c.Word, c.Translation, raw,
				c.IntervalDays, c.EaseFactor, nullTime(c.LastReviewedAt), c.ReviewCount)
		}
		if _, err := execBuilder(ctx, tx, q); err != nil {
			return err
		}
	}

	if len(st.Challenges) > 0 {
		q := sqlBuilder.Insert("daily_challenges").Columns(
			"learner_id", "id", "seq", "title", "description", "xp_reward", "completed",
			"completed_at", "challenge_date", "criteria_type", "required_count", "current_count",
		)
		for i, ch := range st.Challenges {
			var typ, required, current any
			if ch.Criteria != nil {
				typ, required, current = string(ch.Criteria.Type), ch.Criteria.RequiredCount, ch.Criteria.CurrentCount
			}
			q = q.Values(id, ch.ID, i, ch.Title, ch.Description, ch.XPReward, ch.Completed,
				nullTime(ch.CompletedAt), ch.Date.UTC(), typ, required, current)
		}
		if _, err := execBuilder(ctx, tx, q); err != nil {
			return err
		}
	}

	if len(st.Achievements) > 0 {
		q := sqlBuilder.Insert("achievements").Columns(
			"learner_id", "id", "seq", "title", "description", "metric", "threshold", "earned", "earned_date",
		)
		for i, a := range st.Achievements {
			q = q.Values(id, a.ID, i, a.Title, a.Description, string(a.Criterion.Metric),
				a.Criterion.Threshold, a.Earned, nullTime(a.EarnedDate))
		}
		if _, err := execBuilder(ctx, tx, q); err != nil {
			return err
		}
	}
	return nil
}

func (r *learnerRepository) Load(ctx context.Context, id string) (*models.LearnerState, error) {
	log := logger.FromContext(ctx).WithPrefix("learner_repo")
	log.Debug("loading learner: id=%s", id)

	var st models.LearnerState
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		p, err := scanProfile(tx.QueryRowContext(ctx, `
SELECT id, name, email, xp, streak, language, proficiency, last_active_at, created_at
FROM learners
WHERE id = ?
`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewNotFoundError("learner", id)
		}
		if err != nil {
			return err
		}
		st.Profile = p

		if st.Lessons, err = loadLessons(ctx, tx, id); err != nil {
			return err
		}
		if st.Cards, err = loadCards(ctx, tx, id); err != nil {
			return err
		}
		if st.Challenges, err = loadChallenges(ctx, tx, id); err != nil {
			return err
		}
		st.Achievements, err = loadAchievements(ctx, tx, id)
		return err
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
			log.Debug("learner not found: id=%s", id)
		} else {
			log.Error("failed to load learner: %v", err)
		}
		return nil, err
	}
	log.Debug("learner loaded: lessons=%d, cards=%d, challenges=%d, achievements=%d",
		len(st.Lessons), len(st.Cards), len(st.Challenges), len(st.Achievements))
	return &st, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (models.LearnerProfile, error) {
	var (
		p           models.LearnerProfile
		proficiency string
		lastActive  sql.NullTime
		createdAt   time.Time
	)
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.XP, &p.Streak, &p.Language, &proficiency, &lastActive, &createdAt)
	if err != nil {
		return p, err
	}
	p.Proficiency = models.Proficiency(proficiency)
	p.LastActiveAt = timePtr(lastActive)
	p.CreatedAt = createdAt.UTC()
	return p, nil
}

func loadLessons(ctx context.Context, tx *sql.Tx, id string) ([]models.Lesson, error) {
	rows, err := tx.QueryContext(ctx, `
SELECT id, title, description, language, position, level, xp_reward, duration_minutes, exercises, completed, locked
FROM lessons
WHERE learner_id = ?
ORDER BY seq ASC
`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		var (
			l         models.Lesson
			level     string
			exercises string
		)
		if err := rows.Scan(&l.ID, &l.Title, &l.Description, &l.Language, &l.Position, &level,
			&l.XPReward, &l.DurationMinutes, &exercises, &l.Completed, &l.Locked); err != nil {
			return nil, err
		}
		l.Level = models.Proficiency(level)
		if err := json.Unmarshal([]byte(exercises), &l.Exercises); err != nil {
			return nil, err
		}
		if len(l.Exercises) == 0 {
			l.Exercises = nil
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

func loadCards(ctx context.Context, tx *sql.Tx, id string) ([]models.ReviewCard, error) {
	rows, err := tx.QueryContext(ctx, `
SELECT id, language, word, translation, examples, interval_days, ease_factor, last_reviewed_at, review_count
FROM review_cards
WHERE learner_id = ?
ORDER BY seq ASC
`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []models.ReviewCard
	for rows.Next() {
		var (
			c        models.ReviewCard
			examples string
			reviewed sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.Language, &c.Word, &c.Translation, &examples,
			&c.IntervalDays, &c.EaseFactor, &reviewed, &c.ReviewCount); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(examples), &c.Examples); err != nil {
			return nil, err
		}
		if len(c.Examples) == 0 {
			c.Examples = nil
		}
		c.LastReviewedAt = timePtr(reviewed)
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func loadChallenges(ctx context.Context, tx *sql.Tx, id string) ([]models.DailyChallenge, error) {
	rows, err := tx.QueryContext(ctx, `
SELECT id, title, description, xp_reward, completed, completed_at, challenge_date,
       criteria_type, required_count, current_count
FROM daily_challenges
WHERE learner_id = ?
ORDER BY seq ASC
`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var challenges []models.DailyChallenge
	for rows.Next() {
		var (
			ch                models.DailyChallenge
			completedAt       sql.NullTime
			date              time.Time
			typ               sql.NullString
			required, current sql.NullInt64
		)
		if err := rows.Scan(&ch.ID, &ch.Title, &ch.Description, &ch.XPReward, &ch.Completed,
			&completedAt, &date, &typ, &required, &current); err != nil {
			return nil, err
		}
		ch.CompletedAt = timePtr(completedAt)
		ch.Date = date.UTC()
		if typ.Valid {
			ch.Criteria = &models.ChallengeCriteria{
				Type:          models.ChallengeType(typ.String),
				RequiredCount: nullInt(required),
				CurrentCount:  nullInt(current),
			}
		}
		challenges = append(challenges, ch)
	}
	return challenges, rows.Err()
}

func loadAchievements(ctx context.Context, tx *sql.Tx, id string) ([]models.Achievement, error) {
	rows, err := tx.QueryContext(ctx, `
SELECT id, title, description, metric, threshold, earned, earned_date
FROM achievements
WHERE learner_id = ?
ORDER BY seq ASC
`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var achievements []models.Achievement
	for rows.Next() {
		var (
			a      models.Achievement
			metric string
			earned sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &metric, &a.Criterion.Threshold, &a.Earned, &earned); err != nil {
			return nil, err
		}
		a.Criterion.Metric = models.Metric(metric)
		a.EarnedDate = timePtr(earned)
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}

func (r *learnerRepository) List(ctx context.Context) ([]models.LearnerProfile, error) {
	log := logger.FromContext(ctx).WithPrefix("learner_repo")
	log.Debug("listing learners")

	query, args, err := sqlBuilder.Select(
		"id", "name", "email", "xp", "streak", "language", "proficiency", "last_active_at", "created_at",
	).From("learners").OrderBy("created_at ASC", "id ASC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list learners: %v", err)
		return nil, err
	}
	defer rows.Close()

	var profiles []models.LearnerProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			log.Error("failed to scan learner row: %v", err)
			return nil, err
		}
		profiles = append(profiles, p)
	}

	log.Debug("found %d learners", len(profiles))
	return profiles, rows.Err()
}

func (r *learnerRepository) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx).WithPrefix("learner_repo")
	log.Debug("deleting learner and related data: id=%s", id)

	res, err := r.db.ExecContext(ctx, `DELETE FROM learners WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete learner %s: %v", id, err)
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFoundError("learner", id)
	}
	return nil
}
