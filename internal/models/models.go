package models

import "time"

// LearnerState is the full snapshot the engine reads and returns. The host
// loads it before an action and persists the returned value afterwards.
type LearnerState struct {
	Profile      LearnerProfile   `json:"profile"`
	Lessons      []Lesson         `json:"lessons"`
	Cards        []ReviewCard     `json:"cards"`
	Challenges   []DailyChallenge `json:"challenges"`
	Achievements []Achievement    `json:"achievements"`
}

// Clone returns a deep copy so the result shares no slices or pointers with s.
func (s LearnerState) Clone() LearnerState {
	out := LearnerState{Profile: s.Profile}
	out.Profile.LastActiveAt = cloneTime(s.Profile.LastActiveAt)

	if s.Lessons != nil {
		out.Lessons = make([]Lesson, len(s.Lessons))
		for i, l := range s.Lessons {
			l.Exercises = cloneExercises(l.Exercises)
			out.Lessons[i] = l
		}
	}
	if s.Cards != nil {
		out.Cards = make([]ReviewCard, len(s.Cards))
		for i, c := range s.Cards {
			c.LastReviewedAt = cloneTime(c.LastReviewedAt)
			if c.Examples != nil {
				c.Examples = append([]Example(nil), c.Examples...)
			}
			out.Cards[i] = c
		}
	}
	if s.Challenges != nil {
		out.Challenges = make([]DailyChallenge, len(s.Challenges))
		for i, ch := range s.Challenges {
			ch.CompletedAt = cloneTime(ch.CompletedAt)
			if ch.Criteria != nil {
				crit := *ch.Criteria
				ch.Criteria = &crit
			}
			out.Challenges[i] = ch
		}
	}
	if s.Achievements != nil {
		out.Achievements = make([]Achievement, len(s.Achievements))
		for i, a := range s.Achievements {
			a.EarnedDate = cloneTime(a.EarnedDate)
			out.Achievements[i] = a
		}
	}
	return out
}

func cloneExercises(in []Exercise) []Exercise {
	if in == nil {
		return nil
	}
	out := make([]Exercise, len(in))
	for i, ex := range in {
		if ex.Options != nil {
			ex.Options = append([]string(nil), ex.Options...)
		}
		out[i] = ex
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
