package session

import (
	"context"
	"errors"
	"time"

	"github.com/kalambet/relbot/internal/escalation"
	"github.com/kalambet/relbot/internal/storage"
)

// SQLiteBackend stores state in the local SQLite database so it survives
// restarts.
type SQLiteBackend struct {
	store *storage.Store
	now   func() time.Time
}

// NewSQLiteBackend wraps an open store.
func NewSQLiteBackend(store *storage.Store) *SQLiteBackend {
	return &SQLiteBackend{store: store, now: time.Now}
}

func (b *SQLiteBackend) Get(ctx context.Context, id string) (escalation.PendingContact, error) {
	row, err := b.store.GetPendingContact(ctx, id, b.now())
	if errors.Is(err, storage.ErrNotFound) {
		return escalation.PendingContact{}, ErrNotFound
	}
	if err != nil {
		return escalation.PendingContact{}, err
	}
	return escalation.PendingContact{
		LastQuestion: row.LastQuestion,
		LastAnswer:   row.LastAnswer,
		Waiting:      row.Waiting,
	}, nil
}

func (b *SQLiteBackend) Put(ctx context.Context, id string, p escalation.PendingContact, ttl time.Duration) error {
	now := b.now()
	return b.store.SavePendingContact(ctx, storage.PendingContactRow{
		SessionID:    id,
		LastQuestion: p.LastQuestion,
		LastAnswer:   p.LastAnswer,
		Waiting:      p.Waiting,
		UpdatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	})
}

func (b *SQLiteBackend) Delete(ctx context.Context, id string) error {
	return b.store.DeletePendingContact(ctx, id)
}

// Purge removes expired rows.
func (b *SQLiteBackend) Purge(ctx context.Context) (int64, error) {
	return b.store.PurgeExpired(ctx, b.now())
}
