package domain

import "time"

// SignatureRecord is one append-only signing event
type SignatureRecord struct {
	ID                string            `json:"id"`
	RequestID         string            `json:"requestId"`
	SignerName        string            `json:"signerName,omitempty"`
	SignerEmail       string            `json:"signerEmail,omitempty"`
	SignerIP          string            `json:"signerIp,omitempty"`
	SignatureImageRef string            `json:"signatureImageRef"`
	FieldValues       map[string]string `json:"fieldValues,omitempty"`
	SignedDocumentRef string            `json:"signedDocumentRef"`
	CreatedAt         time.Time         `json:"createdAt"`
}
