package models

type LessonState string

const (
	LessonLocked    LessonState = "locked"
	LessonUnlocked  LessonState = "unlocked"
	LessonCompleted LessonState = "completed"
)

type ExerciseType string

const (
	ExerciseMultipleChoice ExerciseType = "multiple_choice"
	ExerciseTranslation    ExerciseType = "translation"
	ExerciseListening      ExerciseType = "listening"
	ExerciseSpeaking       ExerciseType = "speaking"
)

func (t ExerciseType) Valid() bool {
	switch t {
	case ExerciseMultipleChoice, ExerciseTranslation, ExerciseListening, ExerciseSpeaking:
		return true
	}
	return false
}

// Exercise is lesson content for the presentation layer. The engine never
// inspects it.
type Exercise struct {
	ID            string       `json:"id" yaml:"id"`
	Type          ExerciseType `json:"type" yaml:"type"`
	Question      string       `json:"question" yaml:"question"`
	Options       []string     `json:"options,omitempty" yaml:"options"`
	CorrectAnswer string       `json:"correct_answer" yaml:"correct_answer"`
	AudioURL      string       `json:"audio_url,omitempty" yaml:"audio_url"`
	ImageURL      string       `json:"image_url,omitempty" yaml:"image_url"`
}

// Lesson belongs to the track of its Language and is ordered within it by
// Position.
type Lesson struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Language        string      `json:"language"`
	Position        int         `json:"position"`
	Level           Proficiency `json:"level"`
	XPReward        int         `json:"xp_reward"`
	DurationMinutes int         `json:"duration_minutes"`
	Exercises       []Exercise  `json:"exercises,omitempty"`
	Completed       bool        `json:"completed"`
	Locked          bool        `json:"locked"`
}

// State collapses the two flags into the gate's three states. A completed
// lesson reports completed even if the locked flag was left set.
func (l Lesson) State() LessonState {
	switch {
	case l.Completed:
		return LessonCompleted
	case l.Locked:
		return LessonLocked
	default:
		return LessonUnlocked
	}
}
