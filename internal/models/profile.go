package models

import "time"

type Proficiency string

const (
	Beginner     Proficiency = "beginner"
	Intermediate Proficiency = "intermediate"
	Advanced     Proficiency = "advanced"
)

// Valid reports whether p is a known tier. The empty tier is valid: the
// learner simply has not picked one yet.
func (p Proficiency) Valid() bool {
	switch p {
	case "", Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

type LearnerProfile struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	XP           int         `json:"xp"`
	Streak       int         `json:"streak"`
	Language     string      `json:"language,omitempty"`
	Proficiency  Proficiency `json:"proficiency,omitempty"`
	LastActiveAt *time.Time  `json:"last_active_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}
