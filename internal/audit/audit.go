// Package audit is the append-only log of signing events.
package audit

import (
	"context"

	"github.com/a3tai/mcp-pdf-signer/internal/domain"
	"github.com/a3tai/mcp-pdf-signer/internal/errors"
	"github.com/a3tai/mcp-pdf-signer/internal/repository"
)

// Trail appends and reads signature records. There is no update or delete.
type Trail struct {
	repo repository.Repository
}

// NewTrail creates an audit trail over the repository
func NewTrail(repo repository.Repository) *Trail {
	return &Trail{repo: repo}
}

// Record appends rec. It fails with errors.ErrInvalidState when the request
// completed in the meantime.
func (t *Trail) Record(ctx context.Context, rec *domain.SignatureRecord) error {
	if rec == nil || rec.RequestID == "" {
		return errors.Validation("signature record has no request")
	}
	if rec.SignatureImageRef == "" || rec.SignedDocumentRef == "" {
		return errors.Validation("signature record is missing its artifacts")
	}
	return t.repo.AppendSignature(ctx, rec)
}

// List returns the records of a request, newest first
func (t *Trail) List(ctx context.Context, requestID string) ([]domain.SignatureRecord, error) {
	return t.repo.ListSignatures(ctx, requestID)
}

// Latest returns the most recent record of a request
func (t *Trail) Latest(ctx context.Context, requestID string) (*domain.SignatureRecord, error) {
	rec, err := t.repo.LatestSignature(ctx, requestID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NotFound("request %s has no signatures", requestID)
		}
		return nil, err
	}
	return rec, nil
}
