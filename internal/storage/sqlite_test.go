package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err, "Open(:memory:)")
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	require.NoError(t, err)
	v1, err := s1.AppliedMigrations()
	require.NoError(t, err)
	s1.Close()

	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()
	v2, err := s2.AppliedMigrations()
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.NotEmpty(t, v2)
}

func TestPendingContact_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	row := PendingContactRow{
		SessionID:    "sess-1",
		LastQuestion: "¿Qué hay de nuevo?",
		LastAnswer:   "Escríbenos tu email.",
		Waiting:      true,
		UpdatedAt:    now,
		ExpiresAt:    now.Add(time.Hour),
	}
	require.NoError(t, s.SavePendingContact(ctx, row))

	got, err := s.GetPendingContact(ctx, "sess-1", now)
	require.NoError(t, err)
	assert.Equal(t, row.LastQuestion, got.LastQuestion)
	assert.Equal(t, row.LastAnswer, got.LastAnswer)
	assert.True(t, got.Waiting)
	assert.True(t, got.ExpiresAt.Equal(row.ExpiresAt))
}

func TestPendingContact_Upsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.SavePendingContact(ctx, PendingContactRow{SessionID: "s", LastQuestion: "a", Waiting: true, UpdatedAt: now, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, s.SavePendingContact(ctx, PendingContactRow{SessionID: "s", LastQuestion: "b", Waiting: true, UpdatedAt: now, ExpiresAt: now.Add(time.Hour)}))

	got, err := s.GetPendingContact(ctx, "s", now)
	require.NoError(t, err)
	assert.Equal(t, "b", got.LastQuestion)
}

func TestPendingContact_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetPendingContact(context.Background(), "missing", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPendingContact_Expired(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.SavePendingContact(ctx, PendingContactRow{SessionID: "old", Waiting: true, UpdatedAt: now, ExpiresAt: now.Add(time.Minute)}))

	_, err := s.GetPendingContact(ctx, "old", now.Add(2*time.Minute))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPendingContact_Delete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.SavePendingContact(ctx, PendingContactRow{SessionID: "s", Waiting: true, UpdatedAt: now, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, s.DeletePendingContact(ctx, "s"))
	require.NoError(t, s.DeletePendingContact(ctx, "s"), "deleting twice is fine")

	_, err := s.GetPendingContact(ctx, "s", now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPurgeExpired(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 500, time.UTC)

	require.NoError(t, s.SavePendingContact(ctx, PendingContactRow{SessionID: "gone", UpdatedAt: now, ExpiresAt: now.Add(-time.Nanosecond)}))
	require.NoError(t, s.SavePendingContact(ctx, PendingContactRow{SessionID: "kept", UpdatedAt: now, ExpiresAt: now.Add(time.Second)}))

	n, err := s.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.GetPendingContact(ctx, "kept", now)
	assert.NoError(t, err)
}
