package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLSignerRoundTrip(t *testing.T) {
	signer := NewURLSigner("secret", time.Hour)
	raw, issued, err := signer.Sign("job-1", "school-1/class-1/job-1.csv")
	require.NoError(t, err)

	tok, err := signer.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "job-1", tok.JobID)
	assert.Equal(t, "school-1/class-1/job-1.csv", tok.Object)
	assert.True(t, issued.ExpiresAt.Equal(tok.ExpiresAt))
}

func TestURLSignerRejectsTamperingAndExpiry(t *testing.T) {
	signer := NewURLSigner("secret", time.Minute)
	raw, _, err := signer.Sign("job-1", "a/b.pdf")
	require.NoError(t, err)

	_, err = NewURLSigner("other", time.Minute).Verify(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = signer.Verify("garbage")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	tok, err := signer.Verify(raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, "job-1", tok.JobID)
}

func TestExportStorePutReadSweep(t *testing.T) {
	store, err := NewExportStore(t.TempDir())
	require.NoError(t, err)

	rel := ObjectName("school-1", "class-1", "job-1", "csv")
	assert.Equal(t, "school-1/class-1/job-1.csv", rel)

	_, err = store.Put(rel, []byte("Day,Subject\n"))
	require.NoError(t, err)

	payload, err := store.Read(rel)
	require.NoError(t, err)
	assert.Equal(t, "Day,Subject\n", string(payload))

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.Root(), "school-1", "class-1", "job-1.csv"), old, old))

	removed, err := store.Sweep(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{rel}, removed)

	require.NoError(t, store.Remove(rel))
}

func TestExportStoreRejectsEscapingPaths(t *testing.T) {
	store, err := NewExportStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put("../outside.csv", []byte("x"))
	assert.ErrorIs(t, err, ErrOutsideRoot)
	_, err = store.Read("/etc/passwd")
	assert.ErrorIs(t, err, ErrOutsideRoot)
}
