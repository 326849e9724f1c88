package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func TestTokenServiceIssueAndValidate(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	raw, expiresAt, err := svc.Issue("user-1", "school-1", models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "school-1", claims.SchoolID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestTokenServiceRejectsBadTokens(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	raw, _, err := NewTokenService("other", time.Hour).Issue("user-1", "school-1", models.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.ValidateToken(raw)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	unscoped, _, err := svc.Issue("user-1", "", models.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.ValidateToken(unscoped)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	expired := NewTokenService("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _, err := expired.Issue("user-1", "school-1", models.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.ValidateToken(old)
	assert.Error(t, err)
}
