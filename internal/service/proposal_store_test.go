package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

func sampleProposal(id string, created time.Time) TimetableProposal {
	return TimetableProposal{
		ID:       id,
		SchoolID: "school-1",
		ClassID:  "class-1",
		Entries: []timetable.Entry{
			{SubjectID: "math", TeacherID: "t1", Day: timetable.Monday, Start: timetable.MustParseClock("08:00"), End: timetable.MustParseClock("08:40")},
		},
		Conflicts: []timetable.Conflict{},
		Names:     timetable.Names{Teachers: map[string]string{"t1": "Ibu Sari"}, Subjects: map[string]string{"math": "Mathematics"}},
		CreatedAt: created,
	}
}

func TestMemoryProposalStoreExpires(t *testing.T) {
	store := NewMemoryProposalStore(time.Minute)
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sampleProposal("p1", now)))
	got, ok, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "class-1", got.ClassID)

	now = now.Add(2 * time.Minute)
	_, ok, err = store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, store.items)
}

func TestRedisProposalStoreRoundTrip(t *testing.T) {
	repo := newMemoryCacheRepo()
	store := NewRedisProposalStore(repo, 0)
	ctx := context.Background()
	assert.Equal(t, 30*time.Minute, store.TTL())

	created := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.Put(ctx, sampleProposal("p1", created)))
	assert.Contains(t, repo.items, proposalKey("p1"))

	got, ok, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleProposal("p1", created), got)

	require.NoError(t, store.Delete(ctx, "p1"))
	_, ok, err = store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)
}
