package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/linguaflash/internal/engine"
	"github.com/vytor/linguaflash/internal/logger"
	"github.com/vytor/linguaflash/internal/models"
	"github.com/vytor/linguaflash/internal/services"
)

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.Learners.Languages(r.Context()))
}

func (s *Server) handleListLearners(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.Learners.ListLearners(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	if profiles == nil {
		profiles = []models.LearnerProfile{}
	}
	writeJSON(w, r, http.StatusOK, profiles)
}

func (s *Server) handleCreateLearner(w http.ResponseWriter, r *http.Request) {
	var in services.CreateLearnerInput
	if err := decodeJSON(r, &in); err != nil {
		handleError(w, r, err)
		return
	}

	st, err := s.Learners.CreateLearner(r.Context(), in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("learner created: id=%s", st.Profile.ID)
	w.Header().Set("Location", "/learners/"+st.Profile.ID)
	writeJSON(w, r, http.StatusCreated, st)
}

func (s *Server) handleGetLearner(w http.ResponseWriter, r *http.Request) {
	st, err := s.Learners.GetState(r.Context(), learnerID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) handleDeleteLearner(w http.ResponseWriter, r *http.Request) {
	if err := s.Learners.DeleteLearner(r.Context(), learnerID(r)); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.Learners.Summary(r.Context(), learnerID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sum)
}

func (s *Server) handleDueCards(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		handleError(w, r, err)
		return
	}
	cards, err := s.Learners.DueCards(r.Context(), learnerID(r), limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if cards == nil {
		cards = []models.ReviewCard{}
	}
	writeJSON(w, r, http.StatusOK, cards)
}

func (s *Server) handleNextLesson(w http.ResponseWriter, r *http.Request) {
	lesson, err := s.Learners.NextLesson(r.Context(), learnerID(r), r.URL.Query().Get("track"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, lesson)
}

type selectLanguageRequest struct {
	Language    string             `json:"language"`
	Proficiency models.Proficiency `json:"proficiency"`
}

func (s *Server) handleSelectLanguage(w http.ResponseWriter, r *http.Request) {
	var req selectLanguageRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	s.writeResult(w, r)(s.Learners.SelectLanguage(r.Context(), learnerID(r), req.Language, req.Proficiency))
}

type reviewRequest struct {
	Outcome models.Outcome `json:"outcome"`
}

func (s *Server) handleReviewCard(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	s.writeResult(w, r)(s.Learners.ReviewCard(r.Context(), learnerID(r), chi.URLParam(r, "cardID"), req.Outcome))
}

func (s *Server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, r)(s.Learners.CompleteLesson(r.Context(), learnerID(r), chi.URLParam(r, "lessonID")))
}

type progressRequest struct {
	Delta int `json:"delta"`
}

func (s *Server) handleAdvanceChallenge(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	s.writeResult(w, r)(s.Learners.AdvanceChallenge(r.Context(), learnerID(r), chi.URLParam(r, "challengeID"), req.Delta))
}

func (s *Server) handleCompleteChallenge(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, r)(s.Learners.CompleteChallenge(r.Context(), learnerID(r), chi.URLParam(r, "challengeID")))
}

func (s *Server) handleReevaluate(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, r)(s.Learners.Reevaluate(r.Context(), learnerID(r)))
}

func (s *Server) handleReevaluateAll(w http.ResponseWriter, r *http.Request) {
	earned, err := s.Learners.ReevaluateAll(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int{"earned": earned})
}

// writeResult returns a sink for an action's (result, error) pair.
func (s *Server) writeResult(w http.ResponseWriter, r *http.Request) func(*engine.Result, error) {
	return func(res *engine.Result, err error) {
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, res)
	}
}
