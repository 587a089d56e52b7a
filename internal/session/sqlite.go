package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/webstarter/authkit/internal/dbx"
	"github.com/webstarter/authkit/internal/session/migrations"
)

// Slot names inside the slots table. The session and the bearer token are
// persisted independently: the remote provider only needs the token.
const (
	slotSession = "auth_session"
	slotToken   = "auth_token"
)

// SQLiteStore persists the session in a local SQLite database, one value per
// named slot. It is the durable analogue of a browser's local storage.
type SQLiteStore struct {
	db  dbx.DBTX
	now func() time.Time
}

// NewSQLiteStore wraps an already-migrated database handle.
func NewSQLiteStore(db dbx.DBTX) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// WithClock replaces the store's clock and returns the store.
func (r *SQLiteStore) WithClock(now func() time.Time) *SQLiteStore {
	r.now = now
	return r
}

// Open opens (creating if needed) the SQLite database at dsn and runs the
// slot-table migrations.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return nil, fmt.Errorf("migrating session db: %w", err)
	}
	return db, nil
}

func (r *SQLiteStore) get(ctx context.Context, slot string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE name = ?`, slot).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slot[%s]: %w", slot, err)
	}
	return value, nil
}

func (r *SQLiteStore) set(ctx context.Context, slot string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO slots (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value
	`, slot, value)
	if err != nil {
		return fmt.Errorf("failed to set slot[%s]: %w", slot, err)
	}
	return nil
}

func (r *SQLiteStore) delete(ctx context.Context, slot string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM slots WHERE name = ?`, slot)
	if err != nil {
		return fmt.Errorf("failed to delete slot[%s]: %w", slot, err)
	}
	return nil
}

func (r *SQLiteStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}
	return r.set(ctx, slotSession, data)
}

func (r *SQLiteStore) Load(ctx context.Context) (*Session, error) {
	data, err := r.get(ctx, slotSession)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	s := &Session{}
	if err := json.Unmarshal(data, s); err != nil {
		// Unreadable slot contents are dropped rather than resurrected.
		if clearErr := r.Clear(ctx); clearErr != nil {
			return nil, clearErr
		}
		return nil, nil
	}

	if s.Expired(r.now()) {
		if err := r.Clear(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return s, nil
}

func (r *SQLiteStore) Clear(ctx context.Context) error {
	return r.delete(ctx, slotSession)
}

func (r *SQLiteStore) SaveToken(ctx context.Context, token string) error {
	return r.set(ctx, slotToken, []byte(token))
}

func (r *SQLiteStore) LoadToken(ctx context.Context) (string, error) {
	data, err := r.get(ctx, slotToken)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (r *SQLiteStore) ClearToken(ctx context.Context) error {
	return r.delete(ctx, slotToken)
}
