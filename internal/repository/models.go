package repository

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/a3tai/mcp-pdf-signer/internal/domain"
)

type requestRow struct {
	ID                  string `gorm:"primaryKey;size:36"`
	Title               string `gorm:"not null"`
	CreatedBy           string `gorm:"size:255;index;not null"`
	PublicToken         string `gorm:"size:64;uniqueIndex;not null"`
	OriginalDocumentRef string `gorm:"not null"`
	OriginalFileName    string
	PageCount           int
	Status              string `gorm:"size:16;index;not null"`
	FinalDocumentRef    string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (requestRow) TableName() string {
	return "signature_requests"
}

type fieldRow struct {
	ID         string `gorm:"primaryKey;size:36"`
	RequestID  string `gorm:"size:36;index;not null"`
	Position   int    `gorm:"not null"`
	PageNumber int    `gorm:"not null"`
	X          float64
	Y          float64
	Width      float64
	Height     float64
	Label      string
	FieldType  string `gorm:"size:16;not null"`
}

func (fieldRow) TableName() string {
	return "signature_fields"
}

type signatureRow struct {
	ID                string `gorm:"primaryKey;size:36"`
	RequestID         string `gorm:"size:36;index;not null"`
	SignerName        string
	SignerEmail       string
	SignerIP          string `gorm:"size:64"`
	SignatureImageRef string `gorm:"not null"`
	FieldValues       datatypes.JSON
	SignedDocumentRef string    `gorm:"not null"`
	CreatedAt         time.Time `gorm:"index"`
}

func (signatureRow) TableName() string {
	return "signature_records"
}

func toRequestRow(r *domain.SignatureRequest) *requestRow {
	return &requestRow{
		ID:                  r.ID,
		Title:               r.Title,
		CreatedBy:           r.CreatedBy,
		PublicToken:         r.PublicToken,
		OriginalDocumentRef: r.OriginalDocumentRef,
		OriginalFileName:    r.OriginalFileName,
		PageCount:           r.PageCount,
		Status:              string(r.Status),
		FinalDocumentRef:    r.FinalDocumentRef,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func (row *requestRow) toDomain() *domain.SignatureRequest {
	return &domain.SignatureRequest{
		ID:                  row.ID,
		Title:               row.Title,
		CreatedBy:           row.CreatedBy,
		PublicToken:         row.PublicToken,
		OriginalDocumentRef: row.OriginalDocumentRef,
		OriginalFileName:    row.OriginalFileName,
		PageCount:           row.PageCount,
		Status:              domain.Status(row.Status),
		FinalDocumentRef:    row.FinalDocumentRef,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
}

func toFieldRow(f domain.Field) fieldRow {
	return fieldRow{
		ID:         f.ID,
		RequestID:  f.RequestID,
		Position:   f.Position,
		PageNumber: f.PageNumber,
		X:          f.X,
		Y:          f.Y,
		Width:      f.Width,
		Height:     f.Height,
		Label:      f.Label,
		FieldType:  string(f.FieldType),
	}
}

func (row fieldRow) toDomain() domain.Field {
	return domain.Field{
		ID:         row.ID,
		RequestID:  row.RequestID,
		Position:   row.Position,
		PageNumber: row.PageNumber,
		X:          row.X,
		Y:          row.Y,
		Width:      row.Width,
		Height:     row.Height,
		Label:      row.Label,
		FieldType:  domain.ParseFieldType(row.FieldType),
	}
}

func toSignatureRow(r *domain.SignatureRecord) (*signatureRow, error) {
	var values datatypes.JSON
	if len(r.FieldValues) > 0 {
		raw, err := json.Marshal(r.FieldValues)
		if err != nil {
			return nil, err
		}
		values = datatypes.JSON(raw)
	}
	return &signatureRow{
		ID:                r.ID,
		RequestID:         r.RequestID,
		SignerName:        r.SignerName,
		SignerEmail:       r.SignerEmail,
		SignerIP:          r.SignerIP,
		SignatureImageRef: r.SignatureImageRef,
		FieldValues:       values,
		SignedDocumentRef: r.SignedDocumentRef,
		CreatedAt:         r.CreatedAt,
	}, nil
}

func (row *signatureRow) toDomain() (*domain.SignatureRecord, error) {
	rec := &domain.SignatureRecord{
		ID:                row.ID,
		RequestID:         row.RequestID,
		SignerName:        row.SignerName,
		SignerEmail:       row.SignerEmail,
		SignerIP:          row.SignerIP,
		SignatureImageRef: row.SignatureImageRef,
		SignedDocumentRef: row.SignedDocumentRef,
		CreatedAt:         row.CreatedAt,
	}
	if len(row.FieldValues) > 0 {
		if err := json.Unmarshal(row.FieldValues, &rec.FieldValues); err != nil {
			return nil, err
		}
	}
	return rec, nil
}
