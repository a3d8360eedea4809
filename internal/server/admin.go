package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"blog/internal/auth"
	"blog/internal/metrics"
	"blog/internal/models"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (l loginRequest) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Username, validation.Required.Error("username is required")),
		validation.Field(&l.Password, validation.Required.Error("password is required")),
	)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	setSecurityHeaders(w)
	s.render(w, r, "login", map[string]any{})
}

// handleLogin accepts a JSON body from API clients and a plain form post
// from the login page. Form posts are answered with HTML.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	setSecurityHeaders(w)
	form := isFormPost(r)

	var req loginRequest
	if form {
		req = loginRequest{Username: r.PostFormValue("username"), Password: r.PostFormValue("password")}
	} else if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		if form {
			s.loginFailed(w, r, http.StatusBadRequest, err.Error())
			return
		}
		s.handleError(w, r, err)
		return
	}

	token, err := s.Auth.Login(r.Context(), req.Username, req.Password)
	var loginErr *auth.LoginError
	switch {
	case errors.As(err, &loginErr) && loginErr.Limited:
		metrics.ObserveLogin("limited")
		if form {
			s.loginFailed(w, r, http.StatusUnauthorized, loginErr.Error())
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error":            "too many login attempts",
			"remainingMinutes": loginErr.RemainingMinutes,
		})
	case errors.As(err, &loginErr):
		metrics.ObserveLogin("invalid")
		if form {
			s.loginFailed(w, r, http.StatusUnauthorized, loginErr.Error())
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error":     auth.ErrInvalidCredentials.Error(),
			"remaining": loginErr.Remaining,
		})
	case err != nil:
		metrics.ObserveLogin("error")
		s.serverError(w, r, err)
	default:
		metrics.ObserveLogin("success")
		requestLogger(r).Info("admin login", "username", req.Username)
		s.setSessionCookie(w, token)
		if form {
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"msg": "success"})
	}
}

func (s *Server) loginFailed(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	s.render(w, r, "login", map[string]any{"Error": msg})
}

func isFormPost(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/x-www-form-urlencoded"
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil && s.Auth.Rotator != nil {
		s.Auth.Rotator.Forget(cookie.Value)
	}
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"username":      currentUser(r),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Store.Stats(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	page, err := s.Store.ListArticles(r.Context(), models.ArticleQuery{Page: 1})
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, "admin", map[string]any{
		"User":   currentUser(r),
		"Stats":  stats,
		"Recent": page.Articles,
	})
}

func (s *Server) handleAdminListArticles(w http.ResponseWriter, r *http.Request) {
	page, err := s.listArticles(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleAdminGetArticle serves the edit path (raw markdown) by default and
// the read path (rendered HTML) when md=0.
func (s *Server) handleAdminGetArticle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var (
		article *models.Article
		err     error
	)
	if r.URL.Query().Get("md") == "0" {
		article, err = s.renderedArticle(r, id)
	} else {
		article, err = s.Store.GetArticle(r.Context(), id)
	}
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	var in models.NewArticle
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.createArticle(w, r, in, "create")
}

func (s *Server) createArticle(w http.ResponseWriter, r *http.Request, in models.NewArticle, op string) {
	id, err := s.Store.CreateArticle(r.Context(), in)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	metrics.ObserveArticleWrite(op)
	article, err := s.Store.GetArticle(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "id": id, "article": article})
}

func (s *Server) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var u models.ArticleUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.Store.UpdateArticle(r.Context(), id, u); err != nil {
		s.handleError(w, r, err)
		return
	}
	metrics.ObserveArticleWrite("update")
	article, err := s.Store.GetArticle(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "article": article})
}

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.DeleteArticle(r.Context(), r.PathValue("id")); err != nil {
		s.handleError(w, r, err)
		return
	}
	metrics.ObserveArticleWrite("delete")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleExportArticle(w http.ResponseWriter, r *http.Request) {
	article, err := s.Store.GetArticle(r.Context(), r.PathValue("id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	doc, err := models.MarshalFrontMatter(article)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+article.ID+`.md"`)
	w.Write(doc)
}

// handleImportArticle creates a new article from a front matter document.
// Any id or timestamps in the document are ignored.
func (s *Server) handleImportArticle(w http.ResponseWriter, r *http.Request) {
	doc, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.MaxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	fm, body, err := models.ParseFrontMatter(doc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.createArticle(w, r, fm.NewArticle(body), "import")
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	id, err := s.Blobs.Put(r.Context(), header.Filename, data)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": "/api/images/" + id})
}
