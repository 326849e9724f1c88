package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func TestCacheRepositoryWithoutClientIsAlwaysEmpty(t *testing.T) {
	repo := NewCacheRepository(nil)
	ctx := context.Background()

	assert.NoError(t, repo.Set(ctx, "timetable:k", map[string]string{"a": "b"}, time.Minute))

	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "timetable:k", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Delete(ctx, "timetable:k"))
	assert.NoError(t, repo.DeleteByPattern(ctx, "timetable:*"))
	assert.NoError(t, repo.Close())
}
