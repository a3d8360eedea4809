package models

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/errgroup"
)

// taxonomy describes one of the two name tables (categories, tags). They
// share schema and rules: generated ids and unique names.
type taxonomy struct {
	table  string
	prefix string
	label  string
}

var (
	categoryTable = taxonomy{table: "categories", prefix: "cat-", label: "category"}
	tagTable      = taxonomy{table: "tags", prefix: "tag-", label: "tag"}
)

func validateName(name string) error {
	return validation.Errors{
		"name": validation.Validate(name,
			validation.Required.Error("name is required"),
			validation.RuneLength(1, 64).Error("name must be at most 64 characters"),
		),
	}.Filter()
}

func (s *Store) CreateCategory(ctx context.Context, name string) (string, error) {
	return s.createName(ctx, categoryTable, name)
}

func (s *Store) CreateTag(ctx context.Context, name string) (string, error) {
	return s.createName(ctx, tagTable, name)
}

func (s *Store) RenameCategory(ctx context.Context, id, name string) error {
	return s.rename(ctx, categoryTable, id, name)
}

func (s *Store) RenameTag(ctx context.Context, id, name string) error {
	return s.rename(ctx, tagTable, id, name)
}

func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	return listNames(ctx, s, categoryTable, func(id, name string, c, u time.Time) Category {
		return Category{ID: id, Name: name, CreatedAt: c, UpdatedAt: u}
	})
}

func (s *Store) ListTags(ctx context.Context) ([]Tag, error) {
	return listNames(ctx, s, tagTable, func(id, name string, c, u time.Time) Tag {
		return Tag{ID: id, Name: name, CreatedAt: c, UpdatedAt: u}
	})
}

func (s *Store) createName(ctx context.Context, t taxonomy, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	id := NewID(t.prefix)
	now := s.timestamp()
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO `+t.table+` (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`, id, name, now, now)
	if isUniqueViolation(err) {
		return "", fmt.Errorf("%s %q: %w", t.label, name, ErrDuplicateName)
	}
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", t.label, err)
	}
	return id, nil
}

func (s *Store) rename(ctx context.Context, t taxonomy, id, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	res, err := s.DB.ExecContext(ctx,
		`UPDATE `+t.table+` SET name = ?, updated_at = max(?, created_at) WHERE id = ?`, name, s.timestamp(), id)
	if isUniqueViolation(err) {
		return fmt.Errorf("%s %q: %w", t.label, name, ErrDuplicateName)
	}
	if err != nil {
		return fmt.Errorf("rename %s: %w", t.label, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename %s: %w", t.label, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", t.label, id, ErrNotFound)
	}
	return nil
}

func listNames[T any](ctx context.Context, s *Store, t taxonomy, build func(id, name string, c, u time.Time) T) ([]T, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, name, created_at, updated_at FROM `+t.table+` ORDER BY updated_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.table, err)
	}
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		var id, name, created, updated string
		if err := rows.Scan(&id, &name, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.label, err)
		}
		c, u, err := parseTimes(created, updated)
		if err != nil {
			return nil, err
		}
		out = append(out, build(id, name, c, u))
	}
	return out, rows.Err()
}

// Stats counts live articles, categories and tags.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	g, gctx := errgroup.WithContext(ctx)
	count := func(query string, dst *int) func() error {
		return func() error {
			if err := s.DB.QueryRowContext(gctx, query).Scan(dst); err != nil && err != sql.ErrNoRows {
				return fmt.Errorf("count: %w", err)
			}
			return nil
		}
	}
	g.Go(count(`SELECT COUNT(*) FROM live_articles`, &st.Articles))
	g.Go(count(`SELECT COUNT(*) FROM categories`, &st.Categories))
	g.Go(count(`SELECT COUNT(*) FROM tags`, &st.Tags))
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return st, nil
}
