package models

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"blog/internal/db"
)

// Store owns every persisted blog entity. All reads of articles go through
// the live_articles view so soft-deleted rows never leak into results.
type Store struct {
	DB            *sql.DB
	Now           func() time.Time
	SummaryLength int
}

func NewStore(database *sql.DB) *Store {
	return &Store{DB: database, Now: time.Now, SummaryLength: DefaultSummaryLength}
}

func (s *Store) timestamp() string {
	if s.Now == nil {
		return db.FormatTime(time.Now())
	}
	return db.FormatTime(s.Now())
}

// NewID returns prefix followed by 12 random hex characters.
func NewID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func exists(ctx context.Context, q queryer, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func parseTimes(created, updated string) (time.Time, time.Time, error) {
	c, err := db.ParseTime(created)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse created_at: %w", err)
	}
	u, err := db.ParseTime(updated)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return c, u, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
