package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TaxonomyOp is one change to the category or tag list. The request body
// {"operation": "create"|"update", "data": {...}} decodes into exactly one
// of CreateOp or RenameOp.
type TaxonomyOp interface {
	apply(ctx context.Context, t taxonomyTarget) (map[string]any, error)
}

type CreateOp struct {
	Name string `json:"name"`
}

type RenameOp struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// taxonomyTarget binds the operations to either categories or tags.
type taxonomyTarget struct {
	create func(ctx context.Context, name string) (string, error)
	rename func(ctx context.Context, id, name string) error
}

func (op CreateOp) apply(ctx context.Context, t taxonomyTarget) (map[string]any, error) {
	id, err := t.create(ctx, op.Name)
	if err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "newId": id}, nil
}

func (op RenameOp) apply(ctx context.Context, t taxonomyTarget) (map[string]any, error) {
	if err := validation.Validate(op.ID, validation.Required.Error("id is required")); err != nil {
		return nil, validation.Errors{"id": err}
	}
	if err := t.rename(ctx, op.ID, op.Name); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

func decodeTaxonomyOp(data []byte) (TaxonomyOp, error) {
	var envelope struct {
		Operation string          `json:"operation"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Data) == 0 {
		return nil, fmt.Errorf("missing data")
	}
	switch envelope.Operation {
	case "create":
		var op CreateOp
		if err := json.Unmarshal(envelope.Data, &op); err != nil {
			return nil, err
		}
		return op, nil
	case "update":
		var op RenameOp
		if err := json.Unmarshal(envelope.Data, &op); err != nil {
			return nil, err
		}
		return op, nil
	default:
		return nil, fmt.Errorf("unknown operation %q", envelope.Operation)
	}
}

func (s *Server) handleCategoryOp(w http.ResponseWriter, r *http.Request) {
	s.applyTaxonomyOp(w, r, taxonomyTarget{create: s.Store.CreateCategory, rename: s.Store.RenameCategory})
}

func (s *Server) handleTagOp(w http.ResponseWriter, r *http.Request) {
	s.applyTaxonomyOp(w, r, taxonomyTarget{create: s.Store.CreateTag, rename: s.Store.RenameTag})
}

func (s *Server) applyTaxonomyOp(w http.ResponseWriter, r *http.Request, t taxonomyTarget) {
	var raw json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	op, err := decodeTaxonomyOp(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid operation: "+err.Error())
		return
	}
	resp, err := op.apply(r.Context(), t)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.Store.ListCategories(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.Store.ListTags(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}
