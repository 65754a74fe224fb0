package service

import (
	"github.com/a3tai/mcp-pdf-signer/internal/domain"
	"github.com/a3tai/mcp-pdf-signer/internal/lifecycle"
)

// CreateRequestInput represents an administrator upload
type CreateRequestInput struct {
	AdminToken string `json:"-"`
	Title      string `json:"title"`
	FileName   string `json:"file_name"`
	File       []byte `json:"-"`
}

// RequestResult is the administrator view of a request
type RequestResult struct {
	ID        string                   `json:"id"`
	Title     string                   `json:"title"`
	Status    domain.Status            `json:"status"`
	PageCount int                      `json:"page_count"`
	ShareURL  string                   `json:"share_url"`
	CreatedBy string                   `json:"created_by"`
	Fields    []domain.Field           `json:"fields,omitempty"`
	Request   *domain.SignatureRequest `json:"request,omitempty"`
}

// SaveFieldsInput represents a full replacement of a request's field set
type SaveFieldsInput struct {
	AdminToken string                 `json:"-"`
	RequestID  string                 `json:"request_id"`
	Fields     []lifecycle.FieldInput `json:"fields"`
}

// SaveFieldsResult contains the stored field set
type SaveFieldsResult struct {
	RequestID string         `json:"request_id"`
	Fields    []domain.Field `json:"fields"`
}

// ListRequestsResult contains an administrator's requests
type ListRequestsResult struct {
	Requests []RequestResult `json:"requests"`
	Count    int             `json:"count"`
}

// SubmitSignatureInput represents one signing attempt
type SubmitSignatureInput struct {
	Token          string            `json:"token"`
	SignerName     string            `json:"signer_name,omitempty"`
	SignerEmail    string            `json:"signer_email,omitempty"`
	SignatureImage string            `json:"signature_image"`
	FieldValues    map[string]string `json:"data_entry_values,omitempty"`
}

// SubmitSignatureResult contains the signed document of one attempt
type SubmitSignatureResult struct {
	RecordID          string `json:"record_id"`
	SignedDocumentURL string `json:"signed_document_url"`
}

// FinalizeResult is returned by the terminal transition
type FinalizeResult struct {
	Success           bool   `json:"success"`
	RecordID          string `json:"record_id"`
	SignedDocumentURL string `json:"signed_document_url"`
}

// SignedDocumentResult carries the current signed document, if any.
// SignedDocumentURL is null until something has been signed.
type SignedDocumentResult struct {
	SignedDocumentURL *string       `json:"signed_document_url"`
	Status            domain.Status `json:"status"`
}

// SignatureRecordResult is a signature record with resolved download URLs
type SignatureRecordResult struct {
	domain.SignatureRecord
	SignedDocumentURL string `json:"signedDocumentUrl,omitempty"`
	SignatureImageURL string `json:"signatureImageUrl,omitempty"`
}

// ListSignaturesResult contains the audit trail of a request, newest first
type ListSignaturesResult struct {
	RequestID  string                  `json:"request_id"`
	Signatures []SignatureRecordResult `json:"signatures"`
	Count      int                     `json:"count"`
}

// DeleteResult confirms a cascade deletion
type DeleteResult struct {
	Success   bool   `json:"success"`
	RequestID string `json:"request_id"`
}
