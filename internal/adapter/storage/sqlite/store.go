// Package sqlite archives terminal conversion jobs into a local database so
// the history command and the web shell can list past work.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"

	"github.com/calibancode/gifforge/internal/domain"
	"github.com/calibancode/gifforge/internal/port"
)

//go:embed migrations/*.sql
var migrations embed.FS

var hookOnce sync.Once

func registerHook() {
	hookOnce.Do(func() {
		sqlite.RegisterConnectionHook(func(conn sqlite.ExecQuerierContext, dsn string) error {
			pragmas := []string{
				"PRAGMA journal_mode = WAL",
				"PRAGMA busy_timeout = 5000",
				"PRAGMA synchronous = NORMAL",
			}
			for _, p := range pragmas {
				if _, err := conn.ExecContext(context.Background(), p, nil); err != nil {
					return fmt.Errorf("execute %s: %w", p, err)
				}
			}
			return nil
		})
	})
}

type Store struct {
	db *sql.DB
}

func NewStore(dataDir string) (*Store, error) {
	registerHook()

	dbPath := filepath.Join(dataDir, "gifforge.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection; WAL allows concurrent reads but only one writer.
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Save(record domain.HistoryRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO history (id, input, output, format, state, cause, frames, duration, created_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Input, record.Output, string(record.Format), string(record.State),
		record.Cause, record.Frames, record.Duration, record.CreatedAt, record.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}
	return nil
}

func (s *Store) Get(id string) (domain.HistoryRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, input, output, format, state, cause, frames, duration, created_at, finished_at
		FROM history WHERE id = ?`, id)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.HistoryRecord{}, domain.ErrNotFound
		}
		return domain.HistoryRecord{}, err
	}
	return record, nil
}

func (s *Store) List(limit int) ([]domain.HistoryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, input, output, format, state, cause, frames, duration, created_at, finished_at
		FROM history ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []domain.HistoryRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (domain.HistoryRecord, error) {
	var record domain.HistoryRecord
	var format, state string
	err := row.Scan(
		&record.ID, &record.Input, &record.Output, &format, &state,
		&record.Cause, &record.Frames, &record.Duration, &record.CreatedAt, &record.FinishedAt,
	)
	if err != nil {
		return domain.HistoryRecord{}, err
	}
	record.Format = domain.OutputFormat(format)
	record.State = domain.JobState(state)
	return record, nil
}

var _ port.HistoryStore = (*Store)(nil)
