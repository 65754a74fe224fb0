// Package service exposes the signing pipeline operations behind the identity gate.
package service

import (
	"context"
	"log"

	"github.com/a3tai/mcp-pdf-signer/internal/audit"
	"github.com/a3tai/mcp-pdf-signer/internal/auth"
	"github.com/a3tai/mcp-pdf-signer/internal/documents"
	"github.com/a3tai/mcp-pdf-signer/internal/domain"
	"github.com/a3tai/mcp-pdf-signer/internal/errors"
	"github.com/a3tai/mcp-pdf-signer/internal/gateway"
	"github.com/a3tai/mcp-pdf-signer/internal/lifecycle"
	"github.com/a3tai/mcp-pdf-signer/internal/signing"
)

type signerIPKey struct{}

// WithSignerIP returns a context carrying the caller's network address
func WithSignerIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, signerIPKey{}, ip)
}

// SignerIPFromContext returns the network address stored by WithSignerIP
func SignerIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(signerIPKey{}).(string)
	return ip
}

// Deps are the components a Service is assembled from
type Deps struct {
	Gate      *auth.Gate
	Manager   *lifecycle.Manager
	Gateway   *gateway.Gateway
	Engine    *signing.Engine
	Trail     *audit.Trail
	Documents *documents.Store
	ShareURL  func(token string) string
	Debug     bool
}

// Service implements the administrator and public operations
type Service struct {
	gate     *auth.Gate
	manager  *lifecycle.Manager
	gateway  *gateway.Gateway
	engine   *signing.Engine
	trail    *audit.Trail
	docs     *documents.Store
	shareURL func(string) string
	debug    bool
}

// New creates a service
func New(d Deps) *Service {
	share := d.ShareURL
	if share == nil {
		share = func(token string) string { return token }
	}
	return &Service{
		gate:     d.Gate,
		manager:  d.Manager,
		gateway:  d.Gateway,
		engine:   d.Engine,
		trail:    d.Trail,
		docs:     d.Documents,
		shareURL: share,
		debug:    d.Debug,
	}
}

// admin authenticates an administrator token and returns its subject
func (s *Service) admin(token string) (string, error) {
	subject, err := s.gate.Authenticate(token)
	if err != nil {
		if s.debug {
			log.Printf("admin gate: %v", err)
		}
		return "", err
	}
	return subject, nil
}

func (s *Service) requestResult(req *domain.SignatureRequest, set []domain.Field) *RequestResult {
	return &RequestResult{
		ID:        req.ID,
		Title:     req.Title,
		Status:    req.Status,
		PageCount: req.PageCount,
		ShareURL:  s.shareURL(req.PublicToken),
		CreatedBy: req.CreatedBy,
		Fields:    set,
	}
}

// CreateRequest uploads a document and opens a draft request for it
func (s *Service) CreateRequest(ctx context.Context, in CreateRequestInput) (*RequestResult, error) {
	subject, err := s.admin(in.AdminToken)
	if err != nil {
		return nil, err
	}
	req, err := s.manager.CreateRequest(ctx, lifecycle.CreateInput{
		Title:     in.Title,
		CreatedBy: subject,
		FileName:  in.FileName,
		File:      in.File,
	})
	if err != nil {
		return nil, err
	}
	return s.requestResult(req, nil), nil
}

// SaveFields replaces the field set of a request
func (s *Service) SaveFields(ctx context.Context, in SaveFieldsInput) (*SaveFieldsResult, error) {
	if _, err := s.admin(in.AdminToken); err != nil {
		return nil, err
	}
	set, err := s.manager.SaveFields(ctx, in.RequestID, in.Fields)
	if err != nil {
		return nil, err
	}
	return &SaveFieldsResult{RequestID: in.RequestID, Fields: set}, nil
}

// GetRequest returns the administrator view of a request with its fields
func (s *Service) GetRequest(ctx context.Context, adminToken, requestID string) (*RequestResult, error) {
	if _, err := s.admin(adminToken); err != nil {
		return nil, err
	}
	req, err := s.manager.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	set, err := s.manager.ListFields(ctx, requestID)
	if err != nil {
		return nil, err
	}
	res := s.requestResult(req, set)
	res.Request = req
	return res, nil
}

// ListRequests returns the caller's requests, or every request when all is set
func (s *Service) ListRequests(ctx context.Context, adminToken string, all bool) (*ListRequestsResult, error) {
	subject, err := s.admin(adminToken)
	if err != nil {
		return nil, err
	}
	owner := subject
	if all {
		owner = ""
	}
	reqs, err := s.manager.ListRequests(ctx, owner)
	if err != nil {
		return nil, err
	}

	out := &ListRequestsResult{Requests: make([]RequestResult, 0, len(reqs))}
	for i := range reqs {
		out.Requests = append(out.Requests, *s.requestResult(&reqs[i], nil))
	}
	out.Count = len(out.Requests)
	return out, nil
}

// GetRequestByToken returns the signer's view of a request
func (s *Service) GetRequestByToken(ctx context.Context, token string) (*gateway.PublicView, error) {
	return s.gateway.View(ctx, token)
}

// SubmitSignature signs the document. The signer's address is taken from ctx.
func (s *Service) SubmitSignature(ctx context.Context, in SubmitSignatureInput) (*SubmitSignatureResult, error) {
	rec, err := s.engine.Sign(ctx, signing.SignInput{
		Token:          in.Token,
		SignerName:     in.SignerName,
		SignerEmail:    in.SignerEmail,
		SignerIP:       SignerIPFromContext(ctx),
		SignatureImage: []byte(in.SignatureImage),
		FieldValues:    in.FieldValues,
	})
	if err != nil {
		return nil, err
	}
	url, err := s.docs.URL(ctx, rec.SignedDocumentRef)
	if err != nil {
		return nil, err
	}
	return &SubmitSignatureResult{RecordID: rec.ID, SignedDocumentURL: url}, nil
}

// FinalizeSubmission completes the request with its most recent signature
func (s *Service) FinalizeSubmission(ctx context.Context, token string) (*FinalizeResult, error) {
	req, err := s.gateway.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	rec, err := s.manager.Submit(ctx, req.PublicToken)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.ErrRequestNotFound
		}
		return nil, err
	}
	url, err := s.docs.URL(ctx, rec.SignedDocumentRef)
	if err != nil {
		return nil, err
	}
	return &FinalizeResult{Success: true, RecordID: rec.ID, SignedDocumentURL: url}, nil
}

// GetSignedDocumentURL returns the finalised document of a completed request, or
// the latest signed document before completion
func (s *Service) GetSignedDocumentURL(ctx context.Context, token string) (*SignedDocumentResult, error) {
	req, err := s.gateway.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	res := &SignedDocumentResult{Status: req.Status}

	ref := req.FinalDocumentRef
	if ref == "" {
		latest, err := s.trail.Latest(ctx, req.ID)
		if err != nil {
			if errors.IsNotFound(err) {
				return res, nil
			}
			return nil, err
		}
		ref = latest.SignedDocumentRef
	}

	url, err := s.docs.URL(ctx, ref)
	if err != nil {
		return nil, err
	}
	res.SignedDocumentURL = &url
	return res, nil
}

// ListSignatures returns the audit trail of a request
func (s *Service) ListSignatures(ctx context.Context, adminToken, requestID string) (*ListSignaturesResult, error) {
	if _, err := s.admin(adminToken); err != nil {
		return nil, err
	}
	if _, err := s.manager.GetRequest(ctx, requestID); err != nil {
		return nil, err
	}
	records, err := s.trail.List(ctx, requestID)
	if err != nil {
		return nil, err
	}

	out := &ListSignaturesResult{RequestID: requestID, Signatures: make([]SignatureRecordResult, 0, len(records))}
	for _, rec := range records {
		item := SignatureRecordResult{SignatureRecord: rec}
		if url, err := s.docs.URL(ctx, rec.SignedDocumentRef); err == nil {
			item.SignedDocumentURL = url
		}
		if url, err := s.docs.URL(ctx, rec.SignatureImageRef); err == nil {
			item.SignatureImageURL = url
		}
		out.Signatures = append(out.Signatures, item)
	}
	out.Count = len(out.Signatures)
	return out, nil
}

// DeleteRequest removes a request and everything it references
func (s *Service) DeleteRequest(ctx context.Context, adminToken, requestID string) (*DeleteResult, error) {
	if _, err := s.admin(adminToken); err != nil {
		return nil, err
	}
	if err := s.manager.DeleteRequest(ctx, requestID); err != nil {
		return nil, err
	}
	return &DeleteResult{Success: true, RequestID: requestID}, nil
}
