package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"reelforge/internal/config"
)

// ErrNotFound indicates the requested session does not exist.
var ErrNotFound = errors.New("session not found")

// Store manages export session persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the session history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.SessionDBPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Start inserts a new session in the preparing phase and returns it.
func (s *Store) Start(ctx context.Context, timelinePath string) (*Session, error) {
	id := uuid.NewString()
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO export_sessions (
            id, timeline_path, strategy, phase,
            progress_percent, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		timelinePath,
		"",
		PhasePreparing,
		0.0,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return s.GetByID(ctx, id)
}

// SetStrategy records the strategy chosen by analysis.
func (s *Store) SetStrategy(ctx context.Context, id, strategy string) error {
	return s.update(ctx, id, "strategy = ?", strategy)
}

// SetPhase transitions the session to a new lifecycle phase. Terminal phases
// also stamp the completion time.
func (s *Store) SetPhase(ctx context.Context, id string, phase Phase) error {
	if !phase.Valid() {
		return fmt.Errorf("invalid phase %q", phase)
	}
	if phase.Terminal() {
		timestamp := time.Now().UTC().Format(time.RFC3339Nano)
		return s.update(ctx, id, "phase = ?, completed_at = ?", string(phase), timestamp)
	}
	return s.update(ctx, id, "phase = ?", string(phase))
}

// UpdateProgress records encode progress. Percent is clamped to [0, 100].
func (s *Store) UpdateProgress(ctx context.Context, id string, percent float64, message string) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return s.update(ctx, id, "progress_percent = ?, progress_message = ?", percent, nullableString(message))
}

// Complete marks the session finished and records the output path.
func (s *Store) Complete(ctx context.Context, id, outputPath string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	return s.update(ctx, id,
		"phase = ?, progress_percent = 100, output_path = ?, completed_at = ?",
		string(PhaseCompleted), outputPath, timestamp)
}

// Fail marks the session failed with the given error message.
func (s *Store) Fail(ctx context.Context, id, message string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	return s.update(ctx, id,
		"phase = ?, error_message = ?, completed_at = ?",
		string(PhaseFailed), nullableString(message), timestamp)
}

// GetByID returns a single session.
func (s *Store) GetByID(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" FROM export_sessions WHERE id = ?", id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// List returns the most recent sessions, newest first. A non-positive limit
// returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]*Session, error) {
	// RFC3339Nano trims trailing zeros, so the raw strings do not sort
	// chronologically at sub-second resolution; rowid breaks the ties.
	query := selectColumns + " FROM export_sessions ORDER BY datetime(created_at) DESC, rowid DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *Store) update(ctx context.Context, id, assignments string, args ...any) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	query := "UPDATE export_sessions SET " + assignments + ", updated_at = ? WHERE id = ?"
	args = append(args, timestamp, id)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

const selectColumns = `SELECT
    id, timeline_path, strategy, phase,
    progress_percent, progress_message, output_path, error_message,
    created_at, updated_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		session         Session
		phase           string
		progressMessage sql.NullString
		outputPath      sql.NullString
		errorMessage    sql.NullString
		createdAt       string
		updatedAt       string
		completedAt     sql.NullString
	)
	err := row.Scan(
		&session.ID,
		&session.TimelinePath,
		&session.Strategy,
		&phase,
		&session.ProgressPercent,
		&progressMessage,
		&outputPath,
		&errorMessage,
		&createdAt,
		&updatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	session.Phase = Phase(phase)
	session.ProgressMessage = progressMessage.String
	session.OutputPath = outputPath.String
	session.ErrorMessage = errorMessage.String
	session.CreatedAt = parseTimestamp(createdAt)
	session.UpdatedAt = parseTimestamp(updatedAt)
	if completedAt.Valid {
		completed := parseTimestamp(completedAt.String)
		session.CompletedAt = &completed
	}
	return &session, nil
}

func parseTimestamp(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
