package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(fmt.Errorf("disk on fire"))
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Nil(t, FromError(nil))
}

func TestFromErrorKeepsTypedError(t *testing.T) {
	wrapped := fmt.Errorf("update: %w", Clone(ErrNotFound, "student not found"))
	appErr := FromError(wrapped)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	assert.Equal(t, "student not found", appErr.Message)
}

func TestIsMatchesByCode(t *testing.T) {
	err := Wrap(stdErrors.New("quota exceeded"), ErrStorage.Code, ErrStorage.Status, "save roster")
	assert.True(t, stdErrors.Is(err, ErrStorage))
	assert.False(t, stdErrors.Is(err, ErrConflict))
}

func TestWithDetailsDoesNotMutateOriginal(t *testing.T) {
	detailed := WithDetails(ErrConflict, map[string]interface{}{"reason": "SLOT_OVERLAP"})
	assert.Equal(t, "SLOT_OVERLAP", detailed.Details["reason"])
	assert.Nil(t, ErrConflict.Details)

	again := WithDetails(detailed, map[string]interface{}{"seat": 25})
	assert.Len(t, again.Details, 2)
	assert.Len(t, detailed.Details, 1)
}
