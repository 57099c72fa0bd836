// Package curriculum holds the content new learners start from: the language
// catalog and, per language, the lesson track, vocabulary cards and daily
// challenges, plus the achievements every learner can earn.
//
// A curriculum is plain YAML. The built-in one is embedded in the binary and
// can be replaced with a file at startup.
package curriculum

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vytor/linguaflash/internal/errors"
	"github.com/vytor/linguaflash/internal/flashcard"
	"github.com/vytor/linguaflash/internal/models"
	"github.com/vytor/linguaflash/internal/progression"
)

//go:embed starter.yaml
var starterYAML []byte

// Language is an entry in the catalog. ComingSoon languages are listed but
// cannot be selected.
type Language struct {
	ID         string `yaml:"id" json:"id"`
	Name       string `yaml:"name" json:"name"`
	Code       string `yaml:"code" json:"code"`
	ComingSoon bool   `yaml:"coming_soon" json:"coming_soon"`
}

type lessonDef struct {
	ID              string             `yaml:"id"`
	Title           string             `yaml:"title"`
	Description     string             `yaml:"description"`
	Level           models.Proficiency `yaml:"level"`
	XPReward        int                `yaml:"xp_reward"`
	DurationMinutes int                `yaml:"duration_minutes"`
	Exercises       []models.Exercise  `yaml:"exercises"`
}

type cardDef struct {
	ID          string           `yaml:"id"`
	Word        string           `yaml:"word"`
	Translation string           `yaml:"translation"`
	Examples    []models.Example `yaml:"examples"`
}

type criteriaDef struct {
	Type          models.ChallengeType `yaml:"type"`
	RequiredCount int                  `yaml:"required_count"`
}

type challengeDef struct {
	ID          string       `yaml:"id"`
	Title       string       `yaml:"title"`
	Description string       `yaml:"description"`
	XPReward    int          `yaml:"xp_reward"`
	Criteria    *criteriaDef `yaml:"criteria"`
}

type achievementDef struct {
	ID          string           `yaml:"id"`
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	Criterion   models.Criterion `yaml:"criterion"`
}

type track struct {
	Lessons    []lessonDef    `yaml:"lessons"`
	Cards      []cardDef      `yaml:"cards"`
	Challenges []challengeDef `yaml:"challenges"`
}

type Curriculum struct {
	Languages    []Language       `yaml:"languages"`
	Tracks       map[string]track `yaml:"tracks"`
	Achievements []achievementDef `yaml:"achievements"`
}

// Default returns the embedded curriculum.
func Default() (*Curriculum, error) {
	return Parse(starterYAML)
}

// LoadFile reads a curriculum from path. An empty path yields Default.
func LoadFile(path string) (*Curriculum, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open curriculum: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func Load(r io.Reader) (*Curriculum, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read curriculum: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML curriculum.
func Parse(data []byte) (*Curriculum, error) {
	var c Curriculum
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode curriculum: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks IDs are unique within their kind and that every enum and
// count is in range.
func (c *Curriculum) Validate() error {
	langs := map[string]bool{}
	for _, l := range c.Languages {
		if l.ID == "" {
			return fmt.Errorf("curriculum: language without id")
		}
		if langs[l.ID] {
			return fmt.Errorf("curriculum: duplicate language %q", l.ID)
		}
		langs[l.ID] = true
	}

	lessons, cards, challenges := map[string]bool{}, map[string]bool{}, map[string]bool{}
	exercises := map[string]bool{}
	for id, t := range c.Tracks {
		if !langs[id] {
			return fmt.Errorf("curriculum: track %q has no catalog entry", id)
		}
		for _, l := range t.Lessons {
			if l.ID == "" || lessons[l.ID] {
				return fmt.Errorf("curriculum: missing or duplicate lesson id %q", l.ID)
			}
			if !l.Level.Valid() {
				return fmt.Errorf("curriculum: lesson %s: unknown level %q", l.ID, l.Level)
			}
			if l.XPReward < 0 {
				return fmt.Errorf("curriculum: lesson %s: negative xp_reward", l.ID)
			}
			for _, ex := range l.Exercises {
				if ex.ID == "" || exercises[ex.ID] {
					return fmt.Errorf("curriculum: lesson %s: missing or duplicate exercise id %q", l.ID, ex.ID)
				}
				if !ex.Type.Valid() {
					return fmt.Errorf("curriculum: exercise %s: unknown type %q", ex.ID, ex.Type)
				}
				exercises[ex.ID] = true
			}
			lessons[l.ID] = true
		}
		for _, cd := range t.Cards {
			if cd.ID == "" || cards[cd.ID] {
				return fmt.Errorf("curriculum: missing or duplicate card id %q", cd.ID)
			}
			cards[cd.ID] = true
		}
		for _, ch := range t.Challenges {
			if ch.ID == "" || challenges[ch.ID] {
				return fmt.Errorf("curriculum: missing or duplicate challenge id %q", ch.ID)
			}
			if ch.XPReward < 0 {
				return fmt.Errorf("curriculum: challenge %s: negative xp_reward", ch.ID)
			}
			if ch.Criteria != nil {
				switch ch.Criteria.Type {
				case models.ChallengeSpeaking, models.ChallengeFlashcards, models.ChallengeLesson:
				default:
					return fmt.Errorf("curriculum: challenge %s: unknown criteria type %q", ch.ID, ch.Criteria.Type)
				}
				if ch.Criteria.RequiredCount < 1 {
					return fmt.Errorf("curriculum: challenge %s: required_count must be at least 1", ch.ID)
				}
			}
			challenges[ch.ID] = true
		}
	}

	achievements := map[string]bool{}
	for _, a := range c.Achievements {
		if a.ID == "" || achievements[a.ID] {
			return fmt.Errorf("curriculum: missing or duplicate achievement id %q", a.ID)
		}
		if _, ok := achievementMetrics[a.Criterion.Metric]; !ok {
			return fmt.Errorf("curriculum: achievement %s: unknown metric %q", a.ID, a.Criterion.Metric)
		}
		if a.Criterion.Threshold < 1 {
			return fmt.Errorf("curriculum: achievement %s: threshold must be at least 1", a.ID)
		}
		achievements[a.ID] = true
	}
	return nil
}

var achievementMetrics = map[models.Metric]struct{}{
	models.MetricLessonsCompleted:    {},
	models.MetricStreakDays:          {},
	models.MetricFlashcardReviews:    {},
	models.MetricXP:                  {},
	models.MetricChallengesCompleted: {},
}

// Language looks up a catalog entry.
func (c *Curriculum) Language(id string) (Language, bool) {
	for _, l := range c.Languages {
		if l.ID == id {
			return l, true
		}
	}
	return Language{}, false
}

// Selectable returns nil when id names a language learners can pick now.
func (c *Curriculum) Selectable(id string) error {
	l, ok := c.Language(id)
	if !ok {
		return errors.NewNotFoundError("language", id)
	}
	if l.ComingSoon {
		return errors.NewValidationError("language", fmt.Sprintf("%s is coming soon", l.Name))
	}
	if _, ok := c.Tracks[id]; !ok {
		return errors.NewValidationError("language", fmt.Sprintf("%s has no lessons yet", l.Name))
	}
	return nil
}

// Starter builds the content part of a new learner's state for language:
// the gated lesson track, fresh cards, today's challenges and every
// achievement unearned. The profile is left for the caller.
func (c *Curriculum) Starter(language string, now time.Time) (models.LearnerState, error) {
	if err := c.Selectable(language); err != nil {
		return models.LearnerState{}, err
	}
	t := c.Tracks[language]
	var st models.LearnerState

	lessons := make([]models.Lesson, 0, len(t.Lessons))
	for i, l := range t.Lessons {
		lessons = append(lessons, models.Lesson{
			ID:              l.ID,
			Title:           l.Title,
			Description:     l.Description,
			Language:        language,
			Position:        i,
			Level:           l.Level,
			XPReward:        l.XPReward,
			DurationMinutes: l.DurationMinutes,
			Exercises:       cloneExercises(l.Exercises),
		})
	}
	st.Lessons = progression.Initialize(lessons)

	st.Cards = make([]models.ReviewCard, 0, len(t.Cards))
	for _, cd := range t.Cards {
		st.Cards = append(st.Cards, models.ReviewCard{
			ID:           cd.ID,
			Language:     language,
			Word:         cd.Word,
			Translation:  cd.Translation,
			Examples:     append([]models.Example(nil), cd.Examples...),
			IntervalDays: flashcard.DefaultIntervalDays,
			EaseFactor:   flashcard.DefaultEaseFactor,
		})
	}

	day := now.UTC().Truncate(24 * time.Hour)
	st.Challenges = make([]models.DailyChallenge, 0, len(t.Challenges))
	for _, ch := range t.Challenges {
		dc := models.DailyChallenge{
			ID:          ch.ID,
			Title:       ch.Title,
			Description: ch.Description,
			XPReward:    ch.XPReward,
			Date:        day,
		}
		if ch.Criteria != nil {
			dc.Criteria = &models.ChallengeCriteria{Type: ch.Criteria.Type, RequiredCount: ch.Criteria.RequiredCount}
		}
		st.Challenges = append(st.Challenges, dc)
	}

	st.Achievements = make([]models.Achievement, 0, len(c.Achievements))
	for _, a := range c.Achievements {
		st.Achievements = append(st.Achievements, models.Achievement{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			Criterion:   a.Criterion,
		})
	}
	return st, nil
}

func cloneExercises(in []models.Exercise) []models.Exercise {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.Exercise, len(in))
	for i, ex := range in {
		ex.Options = append([]string(nil), ex.Options...)
		out[i] = ex
	}
	return out
}
