package models

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// User is the single admin credential row.
type User struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s *Store) GetUser(ctx context.Context, username string) (*User, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT username, password_hash, created_at, updated_at FROM users WHERE username = ?`, username)
	var u User
	var created, updated string
	err := row.Scan(&u.Username, &u.PasswordHash, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u.CreatedAt, u.UpdatedAt, err = parseTimes(created, updated); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertUser stores username with passwordHash, replacing any previous hash.
func (s *Store) UpsertUser(ctx context.Context, username, passwordHash string) error {
	now := s.timestamp()
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET password_hash = excluded.password_hash, updated_at = excluded.updated_at`,
		username, passwordHash, now, now)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}
