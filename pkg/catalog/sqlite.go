package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/shamank/infraproxy-sdk-go/pkg/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS listings (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT    NOT NULL UNIQUE,
	provider   TEXT    NOT NULL DEFAULT '',
	doc        TEXT    NOT NULL,
	created_at TEXT    NOT NULL DEFAULT '',
	updated_at TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_listings_provider ON listings(provider);
`

// SQLiteStore keeps listing documents as JSON rows in a single table.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if !strings.Contains(dsn, "?") {
			dsn += "?"
		} else {
			dsn += "&"
		}
		dsn += "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog/sqlite: open: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog/sqlite: ping: %w", err)
	}
	s, err := NewSQLiteStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	zap.L().Debug("Catalog store opened", zap.String("driver", "sqlite"), zap.String("path", path))
	return s, nil
}

// NewSQLiteStore wraps db and creates the schema.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("catalog/sqlite: migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Listing, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM listings WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog/sqlite: get listing: %w", err)
	}
	return decodeDoc(doc)
}

func (s *SQLiteStore) List(ctx context.Context) ([]*model.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM listings ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("catalog/sqlite: list listings: %w", err)
	}
	defer rows.Close()

	var out []*model.Listing
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("catalog/sqlite: scan listing: %w", err)
		}
		l, err := decodeDoc(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Put(ctx context.Context, l *model.Listing) error {
	if l == nil || l.ID == "" {
		return errors.New("catalog: listing id is required")
	}
	doc, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("catalog/sqlite: encode listing %s: %w", l.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO listings (id, provider, doc, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			provider = excluded.provider,
			doc = excluded.doc,
			updated_at = excluded.updated_at`,
		l.ID, l.Provider, string(doc), formatTime(l.CreatedAt), formatTime(l.UpdatedAt))
	if err != nil {
		return fmt.Errorf("catalog/sqlite: put listing %s: %w", l.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Close(context.Context) error { return s.db.Close() }

func decodeDoc(doc string) (*model.Listing, error) {
	var l model.Listing
	if err := json.Unmarshal([]byte(doc), &l); err != nil {
		return nil, fmt.Errorf("catalog/sqlite: decode listing: %w", err)
	}
	return &l, nil
}
