// Package progression gates lessons within a language track. Every lesson is
// locked, unlocked or completed; completing a lesson unlocks its immediate
// successor in the same track and nothing else.
package progression

import (
	"sort"

	"github.com/vytor/linguaflash/internal/errors"
	"github.com/vytor/linguaflash/internal/models"
)

// Transition describes what a successful Complete changed.
type Transition struct {
	Completed string
	Unlocked  string // empty when there was no locked successor
	XPReward  int
}

// Tracks groups lesson indexes by language, each group in track order.
func Tracks(lessons []models.Lesson) map[string][]int {
	tracks := make(map[string][]int)
	for i, l := range lessons {
		tracks[l.Language] = append(tracks[l.Language], i)
	}
	for _, idx := range tracks {
		sort.SliceStable(idx, func(a, b int) bool {
			la, lb := lessons[idx[a]], lessons[idx[b]]
			if la.Position != lb.Position {
				return la.Position < lb.Position
			}
			return la.ID < lb.ID
		})
	}
	return tracks
}

// Initialize returns a copy of lessons in the initial gate state: the first
// lesson of every track unlocked, every other lesson locked, none completed.
func Initialize(lessons []models.Lesson) []models.Lesson {
	out := append([]models.Lesson(nil), lessons...)
	for _, idx := range Tracks(out) {
		for pos, i := range idx {
			out[i].Completed = false
			out[i].Locked = pos > 0
		}
	}
	return out
}

// Complete moves lessonID from unlocked to completed and unlocks its
// successor. Completing a locked, completed or unknown lesson returns the
// input unchanged together with an INVALID_TRANSITION error.
func Complete(lessons []models.Lesson, lessonID string) ([]models.Lesson, Transition, error) {
	target := -1
	for i, l := range lessons {
		if l.ID == lessonID {
			target = i
			break
		}
	}
	if target < 0 {
		return lessons, Transition{}, errors.NewInvalidTransitionError("lesson", lessonID, "no such lesson")
	}

	switch lessons[target].State() {
	case models.LessonLocked:
		return lessons, Transition{}, errors.NewInvalidTransitionError("lesson", lessonID, "lesson is locked")
	case models.LessonCompleted:
		return lessons, Transition{}, errors.NewInvalidTransitionError("lesson", lessonID, "lesson already completed")
	}

	out := append([]models.Lesson(nil), lessons...)
	out[target].Completed = true
	tr := Transition{Completed: lessonID, XPReward: out[target].XPReward}

	if next := successor(out, target); next >= 0 && out[next].State() == models.LessonLocked {
		out[next].Locked = false
		tr.Unlocked = out[next].ID
	}
	return out, tr, nil
}

// successor returns the index of the lesson right after lessons[i] in its
// track, or -1 when it is the last one.
func successor(lessons []models.Lesson, i int) int {
	idx := Tracks(lessons)[lessons[i].Language]
	for pos, j := range idx {
		if j == i && pos+1 < len(idx) {
			return idx[pos+1]
		}
	}
	return -1
}

// NextLesson returns the first unlocked, not yet completed lesson of track.
func NextLesson(lessons []models.Lesson, track string) (models.Lesson, bool) {
	for _, i := range Tracks(lessons)[track] {
		if lessons[i].State() == models.LessonUnlocked {
			return lessons[i], true
		}
	}
	return models.Lesson{}, false
}

// CompletionRate is the fraction of lessons completed, 0 for no lessons.
func CompletionRate(lessons []models.Lesson) float64 {
	if len(lessons) == 0 {
		return 0
	}
	return float64(CompletedCount(lessons)) / float64(len(lessons))
}

// CompletedCount counts completed lessons across all tracks.
func CompletedCount(lessons []models.Lesson) int {
	n := 0
	for _, l := range lessons {
		if l.Completed {
			n++
		}
	}
	return n
}
