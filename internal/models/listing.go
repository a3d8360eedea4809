package models

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// listingFrom is shared by the page query and the count query. The inner
// join drops articles whose category is missing.
const listingFrom = ` FROM live_articles a JOIN categories c ON c.id = a.category_id`

// articleFilter holds the predicate set of a listing. Both the page query
// and the count query are built from the same value.
type articleFilter struct {
	conds []string
	args  []any
}

func newArticleFilter(q ArticleQuery) articleFilter {
	var f articleFilter
	if q.CategoryID != "" {
		f.conds = append(f.conds, "a.category_id = ?")
		f.args = append(f.args, q.CategoryID)
	}
	if q.TagID != "" {
		f.conds = append(f.conds, "EXISTS (SELECT 1 FROM article_tags at WHERE at.article_id = a.id AND at.tag_id = ?)")
		f.args = append(f.args, q.TagID)
	}
	return f
}

func (f articleFilter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

// ListArticles returns one page of live articles, newest update first,
// together with the number of articles matching the same filter. Content
// bodies are omitted; only summaries are returned.
func (s *Store) ListArticles(ctx context.Context, q ArticleQuery) (ArticlePage, error) {
	page := max(q.Page, 1)
	filter := newArticleFilter(q)

	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return ArticlePage{}, fmt.Errorf("begin listing: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*)`+listingFrom+filter.where(), filter.args...).Scan(&total); err != nil {
		return ArticlePage{}, fmt.Errorf("count articles: %w", err)
	}
	// Past the last page; also keeps the offset below from overflowing.
	if page > max(1, (total+PageSize-1)/PageSize) {
		return ArticlePage{Articles: []Article{}, TotalItems: total}, nil
	}

	args := append(append([]any{}, filter.args...), PageSize, (page-1)*PageSize)
	rows, err := tx.QueryContext(ctx, `
		SELECT a.id, a.title, a.summary, a.category_id, c.name, a.created_at, a.updated_at`+
		listingFrom+filter.where()+`
		ORDER BY a.updated_at DESC, a.seq DESC
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return ArticlePage{}, fmt.Errorf("list articles: %w", err)
	}
	articles := []Article{}
	for rows.Next() {
		var a Article
		var created, updated string
		if err := rows.Scan(&a.ID, &a.Title, &a.Summary, &a.CategoryID, &a.Category, &created, &updated); err != nil {
			rows.Close()
			return ArticlePage{}, fmt.Errorf("scan article: %w", err)
		}
		if a.CreatedAt, a.UpdatedAt, err = parseTimes(created, updated); err != nil {
			rows.Close()
			return ArticlePage{}, err
		}
		articles = append(articles, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return ArticlePage{}, fmt.Errorf("list articles: %w", err)
	}

	ids := make([]string, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
	}
	tags, err := s.tagsFor(ctx, tx, ids)
	if err != nil {
		return ArticlePage{}, err
	}
	for i := range articles {
		t := tags[articles[i].ID]
		articles[i].TagIDs, articles[i].Tags = t.ids, t.names
		if articles[i].TagIDs == nil {
			articles[i].TagIDs, articles[i].Tags = []string{}, []string{}
		}
	}

	return ArticlePage{Articles: articles, TotalItems: total}, nil
}

type articleTags struct {
	ids   []string
	names []string
}

type rowsQueryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// tagsFor fetches the tags of all given articles in one query and groups
// them per article, keeping association insertion order.
func (s *Store) tagsFor(ctx context.Context, q rowsQueryer, articleIDs []string) (map[string]articleTags, error) {
	out := make(map[string]articleTags, len(articleIDs))
	if len(articleIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(articleIDs))
	for i, id := range articleIDs {
		args[i] = id
	}
	rows, err := q.QueryContext(ctx, `
		SELECT at.article_id, at.tag_id, t.name
		FROM article_tags at
		JOIN tags t ON t.id = at.tag_id
		WHERE at.article_id IN (`+placeholders(len(args))+`)
		ORDER BY at.rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("query article tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var articleID, tagID, name string
		if err := rows.Scan(&articleID, &tagID, &name); err != nil {
			return nil, fmt.Errorf("scan article tag: %w", err)
		}
		t := out[articleID]
		t.ids = append(t.ids, tagID)
		t.names = append(t.names, name)
		out[articleID] = t
	}
	return out, rows.Err()
}
