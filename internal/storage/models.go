package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist or has expired.
var ErrNotFound = errors.New("not found")

// PendingContactRow is the stored escalation state of one session.
type PendingContactRow struct {
	SessionID    string
	LastQuestion string
	LastAnswer   string
	Waiting      bool
	UpdatedAt    time.Time
	ExpiresAt    time.Time
}
