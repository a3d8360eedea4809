package models

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func (a NewArticle) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Title,
			validation.Required.Error("title is required"),
			validation.RuneLength(1, 200).Error("title must be at most 200 characters"),
		),
		validation.Field(&a.TagIDs,
			validation.Each(validation.Required.Error("tag id must not be empty")),
		),
	)
}

func (u ArticleUpdate) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Title,
			validation.NilOrNotEmpty.Error("title is required"),
			validation.RuneLength(1, 200).Error("title must be at most 200 characters"),
		),
	)
}

// CreateArticle inserts the article and its tag associations in a single
// transaction and returns the generated id. It is not idempotent: every
// call yields a new article.
func (s *Store) CreateArticle(ctx context.Context, a NewArticle) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	id := NewID("art-")
	now := s.timestamp()
	summary := Summarize(a.Content, s.SummaryLength)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var category any
		if a.CategoryID != "" {
			if err := requireCategory(ctx, tx, a.CategoryID); err != nil {
				return err
			}
			category = a.CategoryID
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO articles (id, title, content, summary, category_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, a.Title, a.Content, summary, category, now, now)
		if err != nil {
			return fmt.Errorf("insert article: %w", err)
		}
		return insertArticleTags(ctx, tx, id, a.TagIDs)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateArticle applies the supplied fields only. A supplied tag list
// replaces the whole association set.
func (s *Store) UpdateArticle(ctx context.Context, id string, u ArticleUpdate) error {
	if err := u.Validate(); err != nil {
		return err
	}
	now := s.timestamp()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, `SELECT 1 FROM live_articles WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("lookup article: %w", err)
		}
		if !ok {
			return fmt.Errorf("article %q: %w", id, ErrNotFound)
		}

		sets := []string{"updated_at = max(?, created_at)"}
		args := []any{now}
		if u.Title != nil {
			sets = append(sets, "title = ?")
			args = append(args, *u.Title)
		}
		if u.Content != nil {
			sets = append(sets, "content = ?", "summary = ?")
			args = append(args, *u.Content, Summarize(*u.Content, s.SummaryLength))
		}
		if u.CategoryID != nil {
			var category any
			if *u.CategoryID != "" {
				if err := requireCategory(ctx, tx, *u.CategoryID); err != nil {
					return err
				}
				category = *u.CategoryID
			}
			sets = append(sets, "category_id = ?")
			args = append(args, category)
		}
		args = append(args, id)
		if _, err := tx.ExecContext(ctx, `UPDATE articles SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
			return fmt.Errorf("update article: %w", err)
		}

		if u.TagIDs != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM article_tags WHERE article_id = ?`, id); err != nil {
				return fmt.Errorf("clear article tags: %w", err)
			}
			return insertArticleTags(ctx, tx, id, *u.TagIDs)
		}
		return nil
	})
}

// DeleteArticle flags the article as deleted. Its row and tag associations
// are kept.
func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE articles SET is_deleted = 1, updated_at = max(?, created_at) WHERE id = ? AND is_deleted = 0`,
		s.timestamp(), id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("article %q: %w", id, ErrNotFound)
	}
	return nil
}

// GetArticle returns a live article with its full content body.
func (s *Store) GetArticle(ctx context.Context, id string) (*Article, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT a.id, a.title, a.content, a.summary, COALESCE(a.category_id, ''), COALESCE(c.name, ''), a.created_at, a.updated_at
		FROM live_articles a
		LEFT JOIN categories c ON c.id = a.category_id
		WHERE a.id = ?`, id)

	var a Article
	var created, updated string
	err := row.Scan(&a.ID, &a.Title, &a.Content, &a.Summary, &a.CategoryID, &a.Category, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("article %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	if a.CreatedAt, a.UpdatedAt, err = parseTimes(created, updated); err != nil {
		return nil, err
	}

	tags, err := s.tagsFor(ctx, s.DB, []string{id})
	if err != nil {
		return nil, err
	}
	a.TagIDs, a.Tags = tags[id].ids, tags[id].names
	if a.TagIDs == nil {
		a.TagIDs, a.Tags = []string{}, []string{}
	}
	return &a, nil
}

func requireCategory(ctx context.Context, tx *sql.Tx, id string) error {
	ok, err := exists(ctx, tx, `SELECT 1 FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("lookup category: %w", err)
	}
	if !ok {
		return fmt.Errorf("category %q: %w", id, ErrNotFound)
	}
	return nil
}

func insertArticleTags(ctx context.Context, tx *sql.Tx, articleID string, tagIDs []string) error {
	for _, tagID := range tagIDs {
		ok, err := exists(ctx, tx, `SELECT 1 FROM tags WHERE id = ?`, tagID)
		if err != nil {
			return fmt.Errorf("lookup tag: %w", err)
		}
		if !ok {
			return fmt.Errorf("tag %q: %w", tagID, ErrNotFound)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO article_tags (article_id, tag_id) VALUES (?, ?)`, articleID, tagID); err != nil {
			return fmt.Errorf("insert article tag: %w", err)
		}
	}
	return nil
}
