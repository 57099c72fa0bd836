package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/linguaflash/internal/models"
)

// MockLearnerRepository is a mock implementation of repository.LearnerRepository
type MockLearnerRepository struct {
	mock.Mock
}

func (m *MockLearnerRepository) Create(ctx context.Context, state models.LearnerState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockLearnerRepository) Load(ctx context.Context, id string) (*models.LearnerState, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LearnerState), args.Error(1)
}

func (m *MockLearnerRepository) Save(ctx context.Context, state models.LearnerState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockLearnerRepository) List(ctx context.Context) ([]models.LearnerProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LearnerProfile), args.Error(1)
}

func (m *MockLearnerRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
