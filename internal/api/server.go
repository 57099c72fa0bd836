package api

import (
	"context"

	"github.com/vytor/linguaflash/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	Learners services.LearnerService
	DB       Pinger
}

func NewServer(learners services.LearnerService, db Pinger) *Server {
	return &Server{Learners: learners, DB: db}
}
