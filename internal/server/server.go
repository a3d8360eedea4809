package server

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"blog/internal/auth"
	"blog/internal/blob"
	"blog/internal/markdown"
	"blog/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options are the collaborators a Server delegates to.
type Options struct {
	Store    *models.Store
	Auth     *auth.Authenticator
	Renderer markdown.Renderer
	Blobs    *blob.Store

	// SecureCookies marks the session cookie Secure; set in production.
	SecureCookies  bool
	MaxUploadBytes int64
}

type Server struct {
	Options

	tmpl    map[string]*template.Template
	handler http.Handler
}

func New(opts Options) (*Server, error) {
	if opts.Renderer == nil {
		opts.Renderer = markdown.NewRenderer()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}

	funcs := template.FuncMap{
		"date": func(t time.Time) string { return t.Format("2006-01-02") },
		"add":  func(a, b int) int { return a + b },
	}
	templates := map[string]*template.Template{}
	pages, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		if page.Name() == "layout.html" {
			continue
		}
		t, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", path.Join("templates", page.Name()))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page.Name(), err)
		}
		templates[strings.TrimSuffix(page.Name(), ".html")] = t
	}

	s := &Server{Options: opts, tmpl: templates}
	s.handler = s.requestID(s.logRequests(s.instrument(s.routes())))
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /articles/{id}", s.handleArticlePage)
	mux.HandleFunc("GET /api/articles", s.handleListArticles)
	mux.HandleFunc("GET /api/articles/{id}", s.handleGetArticle)
	mux.HandleFunc("GET /api/navigation", s.handleNavigation)
	mux.HandleFunc("GET /api/images/{id}", s.handleImage)
	mux.HandleFunc("GET /api/imgs/{id}", s.handleImage)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /admin/login", s.handleLoginPage)
	mux.HandleFunc("POST /admin/api/login", s.handleLogin)
	mux.HandleFunc("POST /admin/api/logout", s.handleLogout)

	mux.HandleFunc("GET /admin", s.requireAdmin(s.handleDashboard))
	mux.HandleFunc("GET /admin/api/auth/verify", noStore(s.requireAdmin(s.handleVerify)))
	mux.HandleFunc("GET /admin/api/articles", s.requireAdmin(s.handleAdminListArticles))
	mux.HandleFunc("POST /admin/api/articles", s.requireAdmin(s.handleCreateArticle))
	mux.HandleFunc("POST /admin/api/articles/import", s.requireAdmin(s.handleImportArticle))
	mux.HandleFunc("GET /admin/api/articles/{id}", s.requireAdmin(s.handleAdminGetArticle))
	mux.HandleFunc("PUT /admin/api/articles/{id}", s.requireAdmin(s.handleUpdateArticle))
	mux.HandleFunc("DELETE /admin/api/articles/{id}", s.requireAdmin(s.handleDeleteArticle))
	mux.HandleFunc("GET /admin/api/articles/{id}/export", s.requireAdmin(s.handleExportArticle))
	mux.HandleFunc("GET /admin/api/categories", s.requireAdmin(s.handleListCategories))
	mux.HandleFunc("POST /admin/api/categories", s.requireAdmin(s.handleCategoryOp))
	mux.HandleFunc("GET /admin/api/tags", s.requireAdmin(s.handleListTags))
	mux.HandleFunc("POST /admin/api/tags", s.requireAdmin(s.handleTagOp))
	mux.HandleFunc("POST /admin/api/upload", s.requireAdmin(s.handleUpload))

	// Anything else under /admin still needs a session before it can 404.
	mux.HandleFunc("/admin/", s.requireAdmin(s.handleAdminNotFound))

	return mux
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	t, ok := s.tmpl[name]
	if !ok {
		s.serverError(w, r, fmt.Errorf("template %q not found", name))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		requestLogger(r).Error("render template", "template", name, "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.DB.PingContext(r.Context()); err != nil {
		s.serverError(w, r, fmt.Errorf("ping database: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAdminNotFound(w http.ResponseWriter, r *http.Request) {
	if isAPI(r) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	http.NotFound(w, r)
}

func noStore(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, max-age=0")
		next(w, r)
	}
}
