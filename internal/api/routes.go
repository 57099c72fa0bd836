package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/languages", s.handleLanguages)

	r.Route("/learners", func(r chi.Router) {
		r.Get("/", s.handleListLearners)
		r.Post("/", s.handleCreateLearner)
		r.Post("/reevaluate", s.handleReevaluateAll)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetLearner)
			r.Delete("/", s.handleDeleteLearner)
			r.Get("/summary", s.handleSummary)
			r.Put("/language", s.handleSelectLanguage)
			r.Get("/due", s.handleDueCards)
			r.Get("/lessons/next", s.handleNextLesson)
			r.Post("/cards/{cardID}/review", s.handleReviewCard)
			r.Post("/lessons/{lessonID}/complete", s.handleCompleteLesson)
			r.Post("/challenges/{challengeID}/progress", s.handleAdvanceChallenge)
			r.Post("/challenges/{challengeID}/complete", s.handleCompleteChallenge)
			r.Post("/reevaluate", s.handleReevaluate)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, errNotFoundRoute(r))
	})
	return r
}
