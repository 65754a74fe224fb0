// Package domain holds the records the signing pipeline reads and writes.
package domain

import "time"

// Status is the lifecycle state of a signature request
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// IsTerminal reports whether no further transition is allowed
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

// SignatureRequest is a document shared with one external signer
type SignatureRequest struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	CreatedBy           string    `json:"createdBy"`
	PublicToken         string    `json:"publicToken"`
	OriginalDocumentRef string    `json:"originalDocumentRef"`
	OriginalFileName    string    `json:"originalFileName"`
	PageCount           int       `json:"pageCount"`
	Status              Status    `json:"status"`
	FinalDocumentRef    string    `json:"finalDocumentRef,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// StatusForFieldCount returns the open status implied by the size of the field set.
// A non-empty set makes the request shareable.
func StatusForFieldCount(n int) Status {
	if n > 0 {
		return StatusPending
	}
	return StatusDraft
}
