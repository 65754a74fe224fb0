// Package repository persists signature requests, fields and signature records.
package repository

import (
	"context"
	"time"

	"github.com/a3tai/mcp-pdf-signer/internal/domain"
)

// Repository is the relational store port used by the signing pipeline.
// Lookups of missing rows return errors.ErrNotFound; driver failures are
// errors.ErrStorage.
type Repository interface {
	CreateRequest(ctx context.Context, req *domain.SignatureRequest) error
	GetRequest(ctx context.Context, id string) (*domain.SignatureRequest, error)
	GetRequestByToken(ctx context.Context, token string) (*domain.SignatureRequest, error)
	ListRequests(ctx context.Context, createdBy string) ([]domain.SignatureRequest, error)

	// ReplaceFields atomically swaps the whole field set of an open request and
	// moves it between draft and pending. Completed requests are refused.
	ReplaceFields(ctx context.Context, requestID string, fields []domain.Field, now time.Time) (*domain.SignatureRequest, error)
	ListFields(ctx context.Context, requestID string) ([]domain.Field, error)

	// AppendSignature inserts a record unless the request has completed
	AppendSignature(ctx context.Context, rec *domain.SignatureRecord) error
	ListSignatures(ctx context.Context, requestID string) ([]domain.SignatureRecord, error)
	LatestSignature(ctx context.Context, requestID string) (*domain.SignatureRecord, error)

	// CompleteRequest performs the guarded transition to completed, finalising
	// the newest record. Exactly one caller wins; every other caller, and any
	// caller on a request with no records, gets errors.ErrInvalidState.
	CompleteRequest(ctx context.Context, requestID string, now time.Time) (*domain.SignatureRequest, *domain.SignatureRecord, error)

	// DeleteRequest removes the request with its fields and records
	DeleteRequest(ctx context.Context, id string) error
}
