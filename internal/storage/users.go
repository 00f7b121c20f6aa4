package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dkeye/Consult/internal/domain"
	_ "modernc.org/sqlite"
)

// Users is the SQLite user directory consulted for the active-user check.
// Rows are written by the account service; this process only reads them,
// SetActive exists for seeding.
type Users struct {
	db *sql.DB
}

func Open(path string) (*Users, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         INTEGER PRIMARY KEY,
			is_active  INTEGER NOT NULL DEFAULT 1,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create users table: %w", err)
	}
	return &Users{db: db}, nil
}

// IsActive reports false for unknown users.
func (u *Users) IsActive(ctx context.Context, uid domain.UserID) (bool, error) {
	var active bool
	err := u.db.QueryRowContext(ctx, `SELECT is_active FROM users WHERE id = ?`, int64(uid)).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query user %d: %w", uid, err)
	}
	return active, nil
}

func (u *Users) SetActive(ctx context.Context, uid domain.UserID, active bool) error {
	_, err := u.db.ExecContext(ctx, `
		INSERT INTO users (id, is_active) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET is_active = excluded.is_active, updated_at = CURRENT_TIMESTAMP
	`, int64(uid), active)
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", uid, err)
	}
	return nil
}

func (u *Users) Close() error {
	return u.db.Close()
}
