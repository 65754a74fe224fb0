// Package lifecycle owns signature requests from upload to completion.
package lifecycle

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/mcp-pdf-signer/internal/audit"
	"github.com/a3tai/mcp-pdf-signer/internal/documents"
	"github.com/a3tai/mcp-pdf-signer/internal/domain"
	"github.com/a3tai/mcp-pdf-signer/internal/errors"
	"github.com/a3tai/mcp-pdf-signer/internal/fields"
	"github.com/a3tai/mcp-pdf-signer/internal/pdf"
	"github.com/a3tai/mcp-pdf-signer/internal/repository"
)

// CreateInput is an uploaded document and its metadata
type CreateInput struct {
	Title     string
	CreatedBy string
	FileName  string
	File      []byte
}

// FieldInput is one region submitted by an administrator
type FieldInput struct {
	PageNumber int     `json:"pageNumber"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Label      string  `json:"label,omitempty"`
	FieldType  string  `json:"fieldType,omitempty"`
}

// Option configures a Manager
type Option func(*Manager)

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithTokenSource replaces the public token generator
func WithTokenSource(newToken func() (string, error)) Option {
	return func(m *Manager) {
		m.newToken = newToken
	}
}

// Manager implements the request state machine: draft, pending, completed
type Manager struct {
	repo      repository.Repository
	docs      *documents.Store
	validator *pdf.Validator
	trail     *audit.Trail
	now       func() time.Time
	newToken  func() (string, error)
}

// NewManager creates a lifecycle manager
func NewManager(
	repo repository.Repository,
	docs *documents.Store,
	validator *pdf.Validator,
	trail *audit.Trail,
	opts ...Option,
) *Manager {
	m := &Manager{
		repo:      repo,
		docs:      docs,
		validator: validator,
		trail:     trail,
		now:       func() time.Time { return time.Now().UTC() },
		newToken:  NewToken,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateRequest stores the uploaded PDF and persists a draft request
func (m *Manager) CreateRequest(ctx context.Context, in CreateInput) (*domain.SignatureRequest, error) {
	if len(in.File) == 0 {
		return nil, errors.Validation("a PDF file is required")
	}
	if err := m.validator.ValidateDocument(in.FileName, in.File); err != nil {
		return nil, errors.Validation("%v", err)
	}

	info, err := pdf.Inspect(in.File)
	if err != nil {
		return nil, errors.Validation("%v", err)
	}

	token, err := m.newToken()
	if err != nil {
		return nil, errors.Storage(err, "generate public token")
	}

	id := uuid.NewString()
	ref, err := m.docs.PutOriginal(ctx, id, in.File)
	if err != nil {
		return nil, errors.Storage(err, "store original document")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = strings.TrimSuffix(in.FileName, ".pdf")
	}

	now := m.now()
	req := &domain.SignatureRequest{
		ID:                  id,
		Title:               title,
		CreatedBy:           in.CreatedBy,
		PublicToken:         token,
		OriginalDocumentRef: ref,
		OriginalFileName:    in.FileName,
		PageCount:           info.PageCount,
		Status:              domain.StatusDraft,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := m.repo.CreateRequest(ctx, req); err != nil {
		if rmErr := m.docs.Remove(ctx, ref); rmErr != nil {
			log.Printf("create request %s: failed to remove original after insert error: %v", id, rmErr)
		}
		return nil, err
	}

	log.Printf("created request %s (%d pages) for %s", id, info.PageCount, in.CreatedBy)
	return req, nil
}

// SaveFields replaces the whole field set of a request. A non-empty set makes the
// request pending, an empty set returns it to draft.
func (m *Manager) SaveFields(ctx context.Context, requestID string, inputs []FieldInput) ([]domain.Field, error) {
	req, err := m.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status.IsTerminal() {
		return nil, errors.InvalidState("request %s is completed; its fields cannot change", requestID)
	}

	set := make([]domain.Field, 0, len(inputs))
	for i, in := range inputs {
		set = append(set, domain.Field{
			ID:         uuid.NewString(),
			RequestID:  requestID,
			PageNumber: in.PageNumber,
			X:          in.X,
			Y:          in.Y,
			Width:      in.Width,
			Height:     in.Height,
			Label:      strings.TrimSpace(in.Label),
			FieldType:  domain.ParseFieldType(in.FieldType),
			Position:   i,
		})
	}

	layout, err := m.layout(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := fields.Validate(layout, set); err != nil {
		return nil, err
	}

	if _, err := m.repo.ReplaceFields(ctx, requestID, set, m.now()); err != nil {
		return nil, err
	}

	log.Printf("saved %d fields on request %s", len(set), requestID)
	return set, nil
}

// layout reads the page boxes of the stored original. When the original cannot be
// inspected the page count captured at upload still bounds page numbers.
func (m *Manager) layout(ctx context.Context, req *domain.SignatureRequest) (fields.Layout, error) {
	data, err := m.docs.Get(ctx, req.OriginalDocumentRef)
	if err != nil {
		return fields.Layout{}, errors.Storage(err, "load original of %s", req.ID)
	}
	info, err := pdf.Inspect(data)
	if err != nil {
		log.Printf("request %s: page boxes unavailable, deferring bounds check: %v", req.ID, err)
		return fields.Layout{PageCount: req.PageCount}, nil
	}
	return info.Layout(), nil
}

// GetRequest returns a request by id
func (m *Manager) GetRequest(ctx context.Context, id string) (*domain.SignatureRequest, error) {
	return m.repo.GetRequest(ctx, id)
}

// GetRequestByToken returns a request by its public token
func (m *Manager) GetRequestByToken(ctx context.Context, token string) (*domain.SignatureRequest, error) {
	return m.repo.GetRequestByToken(ctx, token)
}

// ListRequests returns the requests created by createdBy, newest first
func (m *Manager) ListRequests(ctx context.Context, createdBy string) ([]domain.SignatureRequest, error) {
	return m.repo.ListRequests(ctx, createdBy)
}

// ListFields returns the field set of a request in save order
func (m *Manager) ListFields(ctx context.Context, requestID string) ([]domain.Field, error) {
	return m.repo.ListFields(ctx, requestID)
}

// DeleteRequest removes a request with its fields, records and stored documents.
// Rows go first in one transaction; blobs are then reclaimed best effort.
func (m *Manager) DeleteRequest(ctx context.Context, id string) error {
	req, err := m.repo.GetRequest(ctx, id)
	if err != nil {
		return err
	}
	records, err := m.trail.List(ctx, id)
	if err != nil {
		return err
	}

	keys := []string{req.OriginalDocumentRef, req.FinalDocumentRef}
	for _, rec := range records {
		keys = append(keys, rec.SignatureImageRef, rec.SignedDocumentRef)
	}

	if err := m.repo.DeleteRequest(ctx, id); err != nil {
		return err
	}

	if failures := m.docs.Purge(ctx, id, keys...); failures > 0 {
		log.Printf("deleted request %s with %d cleanup failures", id, failures)
		return nil
	}
	log.Printf("deleted request %s", id)
	return nil
}

// Submit performs the terminal transition and returns the record it finalised
func (m *Manager) Submit(ctx context.Context, token string) (*domain.SignatureRecord, error) {
	req, err := m.repo.GetRequestByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if req.Status.IsTerminal() {
		return nil, errors.InvalidState("request is already completed")
	}

	_, latest, err := m.repo.CompleteRequest(ctx, req.ID, m.now())
	if err != nil {
		return nil, err
	}

	log.Printf("completed request %s with record %s", req.ID, latest.ID)
	return latest, nil
}
