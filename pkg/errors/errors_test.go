package errors

import (
	"database/sql"
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrNotFound, "class not found"))
	appErr := FromError(wrapped)
	assert.Equal(t, ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "class not found", appErr.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.ErrorIs(t, appErr, sql.ErrConnDone)
	assert.Nil(t, FromError(nil))
}

func TestCloneMatchesTemplate(t *testing.T) {
	err := WithDetails(ErrScheduleConflict, "", []string{"t1 double booked"})
	assert.True(t, stdErrors.Is(err, ErrScheduleConflict))
	assert.False(t, stdErrors.Is(err, ErrConflict))
	assert.Equal(t, ErrScheduleConflict.Message, err.Message)
	assert.Equal(t, []string{"t1 double booked"}, err.Details)
}
