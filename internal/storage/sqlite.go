package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding per-session state.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "relbot.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies embedded SQL migrations that haven't been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Pending contacts ---

// SavePendingContact inserts or replaces the row for row.SessionID.
func (s *Store) SavePendingContact(ctx context.Context, row PendingContactRow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_contacts (session_id, last_question, last_answer, waiting, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			last_question = excluded.last_question,
			last_answer = excluded.last_answer,
			waiting = excluded.waiting,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at`,
		row.SessionID, row.LastQuestion, row.LastAnswer, boolToInt(row.Waiting),
		row.UpdatedAt.UTC().Format(timeLayout), row.ExpiresAt.UTC().Format(timeLayout),
	)
	return err
}

// GetPendingContact returns the row for sessionID, or ErrNotFound if it is
// missing or expired as of now.
func (s *Store) GetPendingContact(ctx context.Context, sessionID string, now time.Time) (PendingContactRow, error) {
	var row PendingContactRow
	var waiting int
	var updatedAt, expiresAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, last_question, last_answer, waiting, updated_at, expires_at
		FROM pending_contacts WHERE session_id = ?`, sessionID,
	).Scan(&row.SessionID, &row.LastQuestion, &row.LastAnswer, &waiting, &updatedAt, &expiresAt)
	if err == sql.ErrNoRows {
		return PendingContactRow{}, ErrNotFound
	}
	if err != nil {
		return PendingContactRow{}, err
	}

	if row.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return PendingContactRow{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	if row.ExpiresAt, err = time.Parse(timeLayout, expiresAt); err != nil {
		return PendingContactRow{}, fmt.Errorf("parsing expires_at: %w", err)
	}
	if !row.ExpiresAt.After(now) {
		return PendingContactRow{}, ErrNotFound
	}
	row.Waiting = waiting != 0
	return row, nil
}

// DeletePendingContact removes the row for sessionID. Deleting a missing row
// is not an error.
func (s *Store) DeletePendingContact(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_contacts WHERE session_id = ?`, sessionID)
	return err
}

// PurgeExpired deletes rows that expired at or before now and returns how
// many were removed.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pending_contacts WHERE expires_at <= ?`, now.UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
