package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	assert.True(t, errors.Is(ErrUnknownNode, ErrInvalidRequest))
	assert.False(t, errors.Is(ErrInvalidRequest, ErrUnknownNode))

	err := fmt.Errorf("wrapped: %w", NewValidationError(ErrUnknownNode, "node", "out of range", 5))
	assert.ErrorIs(t, err, ErrUnknownNode)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, "UnknownNode", ErrorType(err))
	assert.Equal(t, "InvalidRequest", ErrorType(NewValidationError(ErrInvalidRequest, "request", "bad", nil)))
	assert.Equal(t, "InvalidConfiguration", ErrorType(ErrInvalidConfiguration))
	assert.Equal(t, "InternalError", ErrorType(errors.New("other")))
}

func TestValidateVector(t *testing.T) {
	assert.NoError(t, ValidateVector(ErrInvalidRequest, "request", ResourceVector{0, 1}, 2))

	err := ValidateVector(ErrInvalidRequest, "request", ResourceVector{0}, 2)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "request", verr.Field)

	err = ValidateVector(ErrInvalidConfiguration, "total", ResourceVector{1, -1}, 2)
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "total[1]", verr.Field)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestNewAPIError(t *testing.T) {
	apiErr := NewAPIError(http.StatusNotFound, NewValidationError(ErrUnknownNode, "node", "must be in [0, 3)", 5))

	assert.Equal(t, "UnknownNode", apiErr.Type)
	assert.Equal(t, http.StatusNotFound, apiErr.Code)
	assert.Equal(t, "must be in [0, 3)", apiErr.Message)
	assert.Equal(t, "node", apiErr.Details)
	assert.ErrorIs(t, apiErr, ErrUnknownNode)
	assert.Contains(t, apiErr.Error(), "UnknownNode")
}
