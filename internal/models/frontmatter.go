package models

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

const frontMatterDelim = "---"

var ErrNoFrontMatter = errors.New("document has no front matter")

// FrontMatter is the metadata header of an exported article document.
// Category and Tags hold ids so a document can be imported again.
type FrontMatter struct {
	ID        string   `yaml:"id,omitempty"`
	Title     string   `yaml:"title"`
	CreatedAt string   `yaml:"createdAt,omitempty"`
	UpdatedAt string   `yaml:"updatedAt,omitempty"`
	Category  string   `yaml:"category,omitempty"`
	Tags      []string `yaml:"tags,flow"`
	Summary   string   `yaml:"summary,omitempty"`
}

// MarshalFrontMatter renders a as a markdown document prefixed with its
// front matter block.
func MarshalFrontMatter(a *Article) ([]byte, error) {
	fm := FrontMatter{
		ID:        a.ID,
		Title:     a.Title,
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.UTC().Format(time.RFC3339),
		Category:  a.CategoryID,
		Tags:      a.TagIDs,
		Summary:   a.Summary,
	}
	if fm.Tags == nil {
		fm.Tags = []string{}
	}
	meta, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("marshal front matter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(frontMatterDelim + "\n")
	buf.Write(meta)
	buf.WriteString(frontMatterDelim + "\n\n")
	buf.WriteString(a.Content)
	return buf.Bytes(), nil
}

// ParseFrontMatter splits a document into its metadata and markdown body.
func ParseFrontMatter(doc []byte) (FrontMatter, string, error) {
	var fm FrontMatter
	doc = bytes.ReplaceAll(doc, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(doc, []byte(frontMatterDelim+"\n")) {
		return fm, "", ErrNoFrontMatter
	}
	rest := doc[len(frontMatterDelim)+1:]

	var meta []byte
	var body []byte
	switch {
	case bytes.HasPrefix(rest, []byte(frontMatterDelim+"\n")), bytes.Equal(rest, []byte(frontMatterDelim)):
		body = bytes.TrimPrefix(rest, []byte(frontMatterDelim))
	default:
		end := bytes.Index(rest, []byte("\n"+frontMatterDelim+"\n"))
		if end < 0 {
			if !bytes.HasSuffix(rest, []byte("\n"+frontMatterDelim)) {
				return fm, "", ErrNoFrontMatter
			}
			end = len(rest) - len(frontMatterDelim) - 1
		}
		meta = rest[:end+1]
		body = rest[min(end+len(frontMatterDelim)+2, len(rest)):]
	}

	if err := yaml.Unmarshal(meta, &fm); err != nil {
		return fm, "", fmt.Errorf("parse front matter: %w", err)
	}
	return fm, string(bytes.TrimLeft(body, "\n")), nil
}

// NewArticle converts imported metadata and body into a create request.
func (fm FrontMatter) NewArticle(body string) NewArticle {
	return NewArticle{
		Title:      fm.Title,
		Content:    body,
		CategoryID: fm.Category,
		TagIDs:     fm.Tags,
	}
}
