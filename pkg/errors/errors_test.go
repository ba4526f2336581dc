package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrValidation, "Adresse email du bénéficiaire inconnue")

	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, "données invalides", ErrValidation.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	raw := fmt.Errorf("boom")
	appErr := FromError(raw)

	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.True(t, errors.Is(appErr, raw))
	assert.Nil(t, FromError(nil))
}

func TestFromErrorUnwrapsChain(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", ErrAlreadyProcessed)
	assert.Equal(t, http.StatusConflict, FromError(wrapped).Status)
}
