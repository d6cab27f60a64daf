// Package sqlite persists game records and session tokens in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"othello-live/internal/store"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const timeFormat = time.RFC3339Nano

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store provides a SQLite-backed store.Store.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &Store{sqlDB: sqlDB}
	if err := s.runMigrations(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (name TEXT PRIMARY KEY, applied_at TEXT NOT NULL)`); err != nil {
		return err
	}
	names, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		var applied int
		if err := s.sqlDB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, name).Scan(&applied); err != nil {
			return err
		}
		if applied > 0 {
			continue
		}
		body, err := migrationFS.ReadFile(name)
		if err != nil {
			return err
		}
		tx, err := s.sqlDB.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`,
			name, time.Now().UTC().Format(timeFormat)); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// PutGame inserts or replaces a game record.
func (s *Store) PutGame(ctx context.Context, rec store.GameRecord) error {
	if rec.ID == uuid.Nil {
		return fmt.Errorf("game id is required")
	}
	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO games (id, host, guest, pending, ended, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			host = excluded.host, guest = excluded.guest,
			pending = excluded.pending, ended = excluded.ended`,
		rec.ID.String(), rec.Host, rec.Guest, rec.Pending, rec.Ended,
		time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("put game: %w", err)
	}
	return nil
}

// PutSession maps token to userID.
func (s *Store) PutSession(ctx context.Context, token, userID string) error {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(userID) == "" {
		return fmt.Errorf("token and user id are required")
	}
	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET user_id = excluded.user_id`,
		token, userID, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

func (s *Store) FindGame(ctx context.Context, id uuid.UUID) (store.GameRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, host, guest, pending, ended FROM games WHERE id = ?`, id.String())
	rec, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.GameRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.GameRecord{}, fmt.Errorf("find game: %w", err)
	}
	return rec, nil
}

func (s *Store) DeleteGame(ctx context.Context, id uuid.UUID) error {
	return s.execOne(ctx, "delete game", `DELETE FROM games WHERE id = ?`, id.String())
}

func (s *Store) EndGame(ctx context.Context, id uuid.UUID) error {
	return s.execOne(ctx, "end game", `UPDATE games SET ended = 1 WHERE id = ?`, id.String())
}

func (s *Store) ListActiveGames(ctx context.Context) ([]store.GameRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, host, guest, pending, ended FROM games WHERE pending = 0 AND ended = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active games: %w", err)
	}
	defer rows.Close()

	var out []store.GameRecord
	for rows.Next() {
		rec, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("list active games: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active games: %w", err)
	}
	return out, nil
}

func (s *Store) LookupSession(ctx context.Context, token string) (string, error) {
	var userID string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT user_id FROM sessions WHERE token = ?`, token).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup session: %w", err)
	}
	return userID, nil
}

func (s *Store) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := s.sqlDB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(sc scanner) (store.GameRecord, error) {
	var (
		rec     store.GameRecord
		id      string
		pending bool
		ended   bool
	)
	if err := sc.Scan(&id, &rec.Host, &rec.Guest, &pending, &ended); err != nil {
		return store.GameRecord{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return store.GameRecord{}, fmt.Errorf("stored game id %q: %w", id, err)
	}
	rec.ID = parsed
	rec.Pending = pending
	rec.Ended = ended
	return rec, nil
}

var _ store.Store = (*Store)(nil)
