package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/linguaflash/internal/errors"
)

func TestInvalidTransitionError(t *testing.T) {
	err := errors.NewInvalidTransitionError("lesson", "lesson-2", "lesson is locked")

	assert.Equal(t, errors.ErrCodeInvalidTransition, err.Code)
	assert.Equal(t, 409, err.Status)
	assert.Equal(t, "INVALID_TRANSITION: lesson lesson-2: lesson is locked", err.Error())
}

func TestOutOfRangeError(t *testing.T) {
	err := errors.NewOutOfRangeError("delta", -3)

	assert.Equal(t, errors.ErrCodeOutOfRange, err.Code)
	assert.Equal(t, 400, err.Status)
	assert.Contains(t, err.Error(), "delta out of range: -3")
}

func TestIsCode_Wrapped(t *testing.T) {
	err := fmt.Errorf("review: %w", errors.NewNotFoundError("card", "card-9"))

	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	assert.False(t, errors.IsCode(err, errors.ErrCodeInternal))
	assert.False(t, errors.IsCode(stderrors.New("plain"), errors.ErrCodeNotFound))
}

func TestAs_WrapsUnknownErrors(t *testing.T) {
	cause := stderrors.New("disk full")
	appErr := errors.As(cause)

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrCodeInternal, appErr.Code)
	assert.Equal(t, 500, appErr.Status)
	assert.ErrorIs(t, appErr, cause)
}

func TestAs_KeepsAppError(t *testing.T) {
	orig := errors.NewBadRequestError("invalid JSON body")
	assert.Same(t, orig, errors.As(fmt.Errorf("decode: %w", orig)))
}
