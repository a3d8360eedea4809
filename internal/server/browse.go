package server

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"blog/internal/blob"
	"blog/internal/models"
)

const imageCSP = "default-src 'none'; style-src 'unsafe-inline'; sandbox"

type navItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Href  string `json:"href"`
}

// listing is the JSON shape of one page of articles.
type listing struct {
	Articles    []models.Article `json:"articles"`
	TotalItems  int              `json:"totalItems"`
	CurrentPage int              `json:"currentPage"`
	TotalPages  int              `json:"totalPages"`
}

func articleQuery(r *http.Request) models.ArticleQuery {
	q := r.URL.Query()
	return models.ArticleQuery{
		Page:       max(1, atoi(q.Get("page"))),
		CategoryID: q.Get("category"),
		TagID:      q.Get("tag"),
	}
}

func (s *Server) listArticles(r *http.Request) (listing, error) {
	q := articleQuery(r)
	page, err := s.Store.ListArticles(r.Context(), q)
	if err != nil {
		return listing{}, err
	}
	return listing{
		Articles:    page.Articles,
		TotalItems:  page.TotalItems,
		CurrentPage: q.Page,
		TotalPages:  page.TotalPages(),
	}, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := s.listArticles(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	categories, err := s.Store.ListCategories(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	q := articleQuery(r)
	data := map[string]any{
		"Page":       page,
		"Categories": categories,
		"Category":   q.CategoryID,
		"Tag":        q.TagID,
		"HasPrev":    page.CurrentPage > 1,
		"HasNext":    page.CurrentPage < page.TotalPages,
	}
	s.render(w, r, "index", data)
}

func (s *Server) handleArticlePage(w http.ResponseWriter, r *http.Request) {
	article, err := s.renderedArticle(r, r.PathValue("id"))
	if errors.Is(err, models.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	data := map[string]any{
		"Article": article,
		// Renderer output is sanitised HTML.
		"Body": template.HTML(article.Content),
	}
	s.render(w, r, "article", data)
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	page, err := s.listArticles(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	article, err := s.renderedArticle(r, r.PathValue("id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// renderedArticle loads an article for the read path, with its markdown
// content replaced by HTML.
func (s *Server) renderedArticle(r *http.Request, id string) (*models.Article, error) {
	article, err := s.Store.GetArticle(r.Context(), id)
	if err != nil {
		return nil, err
	}
	html, err := s.Renderer.Render(article.Content)
	if err != nil {
		return nil, err
	}
	article.Content = html
	return article, nil
}

func (s *Server) handleNavigation(w http.ResponseWriter, r *http.Request) {
	categories, err := s.Store.ListCategories(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	items := make([]navItem, len(categories))
	for i, c := range categories {
		items[i] = navItem{ID: c.ID, Title: c.Name, Href: "/?category=" + c.ID}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	b, err := s.Blobs.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, blob.ErrNotFound) {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", b.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(b.Data)))
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	// SVG uploads may carry script; never run it on this origin.
	w.Header().Set("Content-Security-Policy", imageCSP)
	w.Write(b.Data)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
