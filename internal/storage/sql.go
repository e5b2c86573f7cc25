package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/msstter/Infinite-canvas/internal/domain"
)

// sqlStore is the shared implementation for SQLite, Postgres, and MySQL.
// Records live in a single items table keyed by id; the payload column holds
// the kind-specific JSON blob uninterpreted.
type sqlStore struct {
	db     *sql.DB
	driver string
}

func openSQL(driver, dsn string) (*sqlStore, error) {
	var db *sql.DB
	var err error
	switch driver {
	case DriverSQLite:
		db, err = sql.Open("sqlite", dsn+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
		if err == nil {
			// SQLite only supports one writer; a single connection prevents
			// SQLITE_BUSY under the fire-and-forget write pattern.
			db.SetMaxOpenConns(1)
		}
	case DriverPostgres:
		db, err = sql.Open("postgres", dsn)
	case DriverMySQL:
		db, err = sql.Open("mysql", dsn)
	default:
		return nil, fmt.Errorf("storage: unsupported sql driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver != DriverSQLite {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(10 * time.Minute)
	}

	s := &sqlStore{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *sqlStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS items (
		id VARCHAR(64) PRIMARY KEY,
		kind VARCHAR(32) NOT NULL,
		x DOUBLE PRECISION NOT NULL DEFAULT 0,
		y DOUBLE PRECISION NOT NULL DEFAULT 0,
		width DOUBLE PRECISION NOT NULL DEFAULT 0,
		height DOUBLE PRECISION NOT NULL DEFAULT 0,
		payload TEXT NOT NULL
	)`)
	return err
}

// rebind rewrites ? placeholders to $1..$n for Postgres.
func (s *sqlStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func (s *sqlStore) upsertQuery() string {
	const insert = `INSERT INTO items (id, kind, x, y, width, height, payload) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if s.driver == DriverMySQL {
		return insert + ` ON DUPLICATE KEY UPDATE
			kind = VALUES(kind), x = VALUES(x), y = VALUES(y),
			width = VALUES(width), height = VALUES(height), payload = VALUES(payload)`
	}
	return insert + ` ON CONFLICT (id) DO UPDATE SET
		kind = excluded.kind, x = excluded.x, y = excluded.y,
		width = excluded.width, height = excluded.height, payload = excluded.payload`
}

func (s *sqlStore) ListAll(ctx context.Context) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, x, y, width, height, payload FROM items ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var recs []domain.Record
	for rows.Next() {
		var rec domain.Record
		var kind, payload string
		if err := rows.Scan(&rec.ID, &kind, &rec.Box.X, &rec.Box.Y, &rec.Box.Width, &rec.Box.Height, &payload); err != nil {
			return nil, err
		}
		rec.Kind = domain.ItemKind(kind)
		rec.Payload = []byte(payload)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *sqlStore) Put(ctx context.Context, rec domain.Record) error {
	_, err := s.db.ExecContext(ctx, s.rebind(s.upsertQuery()),
		rec.ID, string(rec.Kind), rec.Box.X, rec.Box.Y, rec.Box.Width, rec.Box.Height, string(rec.Payload))
	if err != nil {
		return fmt.Errorf("put item %s: %w", rec.ID, err)
	}
	return nil
}

func (s *sqlStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM items WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	return nil
}

func (s *sqlStore) ClearAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM items`)
	if err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	return nil
}

// BulkReplace swaps the full record set inside one transaction, the same
// shape as a snapshot restore.
func (s *sqlStore) BulkReplace(ctx context.Context, recs []domain.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	insert := s.rebind(`INSERT INTO items (id, kind, x, y, width, height, payload) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for _, rec := range recs {
		if _, err := tx.ExecContext(ctx, insert,
			rec.ID, string(rec.Kind), rec.Box.X, rec.Box.Y, rec.Box.Width, rec.Box.Height, string(rec.Payload)); err != nil {
			return fmt.Errorf("insert item %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *sqlStore) Close() error {
	return s.db.Close()
}
