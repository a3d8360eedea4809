// Package blob stores uploaded images on disk and their metadata in the
// images table.
package blob

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"blog/internal/db"
	"blog/internal/models"
)

var ErrNotFound = errors.New("blob not found")

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// ContentType maps a stored extension to the type it is served with.
func ContentType(ext string) string {
	if ct, ok := contentTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

type Blob struct {
	ID          string
	Name        string
	Ext         string
	Size        int64
	ContentType string
	Data        []byte
}

type Store struct {
	Dir string
	DB  *sql.DB
	Now func() time.Time
}

func NewStore(dir string, database *sql.DB) *Store {
	return &Store{Dir: dir, DB: database, Now: time.Now}
}

// Put writes data under a new id and returns it. name is the client file
// name, kept for reference only.
func (s *Store) Put(ctx context.Context, name string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if strings.ContainsAny(ext, `/\`) {
		ext = ""
	}
	id := models.NewID("fil-")

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}
	path := s.path(id, ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO images (id, file_name, file_ext, file_size, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, filepath.Base(name), ext, len(data), db.FormatTime(s.Now()))
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("insert image: %w", err)
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Blob, error) {
	b := Blob{ID: id}
	err := s.DB.QueryRowContext(ctx, `SELECT file_name, file_ext, file_size FROM images WHERE id = ?`, id).
		Scan(&b.Name, &b.Ext, &b.Size)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	data, err := os.ReadFile(s.path(id, b.Ext))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	b.Data = data
	b.ContentType = ContentType(b.Ext)
	return &b, nil
}

func (s *Store) path(id, ext string) string {
	return filepath.Join(s.Dir, filepath.Base(id+ext))
}
