package repository

import (
	"context"

	"github.com/vytor/linguaflash/internal/models"
)

// LearnerRepository persists whole learner snapshots. Save replaces every
// row belonging to the learner in one transaction, so a reader never sees
// half of an action applied.
type LearnerRepository interface {
	Create(ctx context.Context, state models.LearnerState) error
	// Load returns a NOT_FOUND *errors.AppError for unknown ids.
	Load(ctx context.Context, id string) (*models.LearnerState, error)
	Save(ctx context.Context, state models.LearnerState) error
	List(ctx context.Context) ([]models.LearnerProfile, error)
	Delete(ctx context.Context, id string) error
}
