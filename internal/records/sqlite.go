// internal/records/sqlite.go
//
// SQLite-backed record store.
// Responsibilities:
//   - Opening the database with safe defaults (WAL, busy timeout).
//   - Applying the embedded migrations from assets/sql (idempotent,
//     recorded in _migrations).
//   - Reading and upserting best times in the best_times table.

package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/minesweeper/assets"
)

// SQLite stores records in a best_times table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if missing) the database at dsn and migrates it.
func OpenSQLite(dsn string) (*SQLite, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

// openDB opens a SQLite database file with a busy timeout and WAL
// journaling, creating the parent directory for relative paths such as
// ./data/records.db.
func openDB(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: mkdir %s: %w", ErrStoreIO, dir, err)
		}
	}
	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStoreIO, dsn, err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: set pragmas: %w", ErrStoreIO, err)
	}
	return db, nil
}

// migrate applies each embedded migration once, in lexical order, inside
// its own transaction.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("%w: create _migrations: %w", ErrStoreIO, err)
	}
	names, err := assets.Migrations()
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	for _, name := range names {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, name).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", name).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: query _migrations: %w", ErrStoreIO, err)
		}
		text, err := assets.ReadMigration(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("%w: begin: %w", ErrStoreIO, err)
		}
		if _, err := tx.Exec(text); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: apply %s: %w", ErrStoreIO, name, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: record %s: %w", ErrStoreIO, name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%w: commit %s: %w", ErrStoreIO, name, err)
		}
		log.Info().Str("migration", name).Msg("applied")
	}
	return nil
}

// Best implements Store.
func (s *SQLite) Best(ctx context.Context, key string) (int, bool, error) {
	var secs int
	err := s.db.QueryRowContext(ctx,
		`SELECT seconds FROM best_times WHERE level_key=?`, key,
	).Scan(&secs)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: select %s: %w", ErrStoreIO, key, err)
	}
	return secs, true, nil
}

// Put implements Store. The upsert only ever lowers a stored time.
func (s *SQLite) Put(ctx context.Context, key string, seconds int) error {
	if seconds < 0 {
		return fmt.Errorf("record %s: negative time %d", key, seconds)
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO best_times (level_key, seconds, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT(level_key) DO UPDATE SET
            seconds = excluded.seconds,
            updated_at = excluded.updated_at
        WHERE excluded.seconds < best_times.seconds`,
		key, seconds, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %w", ErrStoreIO, key, err)
	}
	return nil
}

// All implements Store.
func (s *SQLite) All(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT level_key, seconds FROM best_times`)
	if err != nil {
		return nil, fmt.Errorf("%w: select all: %w", ErrStoreIO, err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			key  string
			secs int
		)
		if err := rows.Scan(&key, &secs); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", ErrStoreIO, err)
		}
		out[key] = secs
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %w", ErrStoreIO, err)
	}
	return out, nil
}
