package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver

	"github.com/wadjakorntonsri/editor-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/editor-cms/pkg/ports"
)

// SQLiteRepository stores the editor's local state: onboarding tour flags.
// Everything editorial lives in the CMS.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS tutorial_flags (
		key TEXT PRIMARY KEY,
		completed_at TEXT NOT NULL
	);
	`
	_, err := db.Exec(query)
	return err
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Get returns nil when the tour was never completed.
func (r *SQLiteRepository) Get(ctx context.Context, key string) (*domain.TutorialState, error) {
	var completedAt string
	err := r.db.QueryRowContext(ctx, `SELECT completed_at FROM tutorial_flags WHERE key = ?`, key).Scan(&completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return stateFromRow(key, completedAt), nil
}

func (r *SQLiteRepository) MarkCompleted(ctx context.Context, key string, at time.Time) error {
	query := `INSERT INTO tutorial_flags (key, completed_at) VALUES (?, ?)
			  ON CONFLICT(key) DO UPDATE SET completed_at = excluded.completed_at`
	_, err := r.db.ExecContext(ctx, query, key, at.UTC().Format(time.RFC3339Nano))
	return err
}

func (r *SQLiteRepository) Reset(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tutorial_flags WHERE key = ?`, key)
	return err
}

func (r *SQLiteRepository) List(ctx context.Context) ([]domain.TutorialState, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, completed_at FROM tutorial_flags ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []domain.TutorialState
	for rows.Next() {
		var key, completedAt string
		if err := rows.Scan(&key, &completedAt); err != nil {
			return nil, err
		}
		states = append(states, *stateFromRow(key, completedAt))
	}
	return states, rows.Err()
}

func stateFromRow(key, completedAt string) *domain.TutorialState {
	st := &domain.TutorialState{
		Feature:   strings.TrimPrefix(key, domain.TutorialKeyPrefix),
		Completed: true,
	}
	if t, err := time.Parse(time.RFC3339Nano, completedAt); err == nil {
		st.CompletedAt = &t
	}
	return st
}

// Ensure interface compliance
var _ ports.TutorialRepository = (*SQLiteRepository)(nil)
