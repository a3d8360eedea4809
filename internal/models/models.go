package models

import "time"

// PageSize is the number of articles per listing page.
const PageSize = 10

// DefaultSummaryLength bounds generated summaries, in runes.
const DefaultSummaryLength = 200

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Article is a fully resolved live article: category name and tag names
// are joined in, and TagIDs[i] names the same tag as Tags[i].
type Article struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content,omitempty"`
	Summary    string    `json:"summary"`
	CategoryID string    `json:"categoryId"`
	Category   string    `json:"category"`
	TagIDs     []string  `json:"tagsId"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NewArticle is the input of CreateArticle.
type NewArticle struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	CategoryID string   `json:"categoryId"`
	TagIDs     []string `json:"tagsId"`
}

// ArticleUpdate carries the fields to change; nil means "leave as is".
type ArticleUpdate struct {
	Title      *string   `json:"title"`
	Content    *string   `json:"content"`
	CategoryID *string   `json:"categoryId"`
	TagIDs     *[]string `json:"tags"`
}

// ArticleQuery selects a listing page. Empty filters are ignored.
type ArticleQuery struct {
	Page       int
	CategoryID string
	TagID      string
}

type ArticlePage struct {
	Articles   []Article `json:"articles"`
	TotalItems int       `json:"totalItems"`
}

// TotalPages is the number of pages needed to show TotalItems.
func (p ArticlePage) TotalPages() int {
	return (p.TotalItems + PageSize - 1) / PageSize
}

type Stats struct {
	Articles   int `json:"articles"`
	Categories int `json:"categories"`
	Tags       int `json:"tags"`
}
