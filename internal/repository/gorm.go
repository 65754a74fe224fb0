package repository

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/a3tai/mcp-pdf-signer/internal/domain"
	"github.com/a3tai/mcp-pdf-signer/internal/errors"
)

// GormRepository implements Repository with gorm
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a repository over an open, migrated database
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate creates or updates the tables used by the repository
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&requestRow{}, &fieldRow{}, &signatureRow{})
}

// CreateRequest implements Repository
func (r *GormRepository) CreateRequest(ctx context.Context, req *domain.SignatureRequest) error {
	if err := r.db.WithContext(ctx).Create(toRequestRow(req)).Error; err != nil {
		return errors.Storage(err, "create request %s", req.ID)
	}
	return nil
}

// GetRequest implements Repository
func (r *GormRepository) GetRequest(ctx context.Context, id string) (*domain.SignatureRequest, error) {
	var row requestRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err, "request %s", id)
	}
	return row.toDomain(), nil
}

// GetRequestByToken implements Repository
func (r *GormRepository) GetRequestByToken(ctx context.Context, token string) (*domain.SignatureRequest, error) {
	var row requestRow
	if err := r.db.WithContext(ctx).Where("public_token = ?", token).First(&row).Error; err != nil {
		return nil, translate(err, "request for token")
	}
	return row.toDomain(), nil
}

// ListRequests implements Repository. An empty createdBy lists every request.
func (r *GormRepository) ListRequests(ctx context.Context, createdBy string) ([]domain.SignatureRequest, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if createdBy != "" {
		q = q.Where("created_by = ?", createdBy)
	}

	var rows []requestRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, errors.Storage(err, "list requests")
	}

	out := make([]domain.SignatureRequest, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].toDomain())
	}
	return out, nil
}

// ReplaceFields implements Repository
func (r *GormRepository) ReplaceFields(
	ctx context.Context, requestID string, fields []domain.Field, now time.Time,
) (*domain.SignatureRequest, error) {
	var updated *domain.SignatureRequest

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockRequest(tx, requestID)
		if err != nil {
			return err
		}
		if domain.Status(row.Status).IsTerminal() {
			return errors.InvalidState("fields of a completed request cannot change")
		}

		if err := tx.Where("request_id = ?", requestID).Delete(&fieldRow{}).Error; err != nil {
			return errors.Storage(err, "delete fields of %s", requestID)
		}

		if len(fields) > 0 {
			rows := make([]fieldRow, 0, len(fields))
			for _, f := range fields {
				rows = append(rows, toFieldRow(f))
			}
			if err := tx.Create(&rows).Error; err != nil {
				return errors.Storage(err, "insert fields of %s", requestID)
			}
		}

		status := domain.StatusForFieldCount(len(fields))
		res := tx.Model(&requestRow{}).
			Where("id = ? AND status <> ?", requestID, string(domain.StatusCompleted)).
			Updates(map[string]any{"status": string(status), "updated_at": now})
		if res.Error != nil {
			return errors.Storage(res.Error, "update status of %s", requestID)
		}
		if res.RowsAffected == 0 {
			return errors.InvalidState("fields of a completed request cannot change")
		}

		row.Status = string(status)
		row.UpdatedAt = now
		updated = row.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListFields implements Repository
func (r *GormRepository) ListFields(ctx context.Context, requestID string) ([]domain.Field, error) {
	var rows []fieldRow
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Storage(err, "list fields of %s", requestID)
	}

	out := make([]domain.Field, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// AppendSignature implements Repository
func (r *GormRepository) AppendSignature(ctx context.Context, rec *domain.SignatureRecord) error {
	row, err := toSignatureRow(rec)
	if err != nil {
		return errors.Validation("field values cannot be encoded: %v", err)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := lockRequest(tx, rec.RequestID)
		if err != nil {
			return err
		}
		if domain.Status(req.Status).IsTerminal() {
			return errors.InvalidState("request is already completed")
		}
		if err := tx.Create(row).Error; err != nil {
			return errors.Storage(err, "insert signature record %s", rec.ID)
		}
		return nil
	})
}

// ListSignatures implements Repository. Records are ordered newest first.
func (r *GormRepository) ListSignatures(ctx context.Context, requestID string) ([]domain.SignatureRecord, error) {
	var rows []signatureRow
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Storage(err, "list signatures of %s", requestID)
	}

	out := make([]domain.SignatureRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toDomain()
		if err != nil {
			return nil, errors.Storage(err, "decode signature record %s", rows[i].ID)
		}
		out = append(out, *rec)
	}
	return out, nil
}

// LatestSignature implements Repository
func (r *GormRepository) LatestSignature(ctx context.Context, requestID string) (*domain.SignatureRecord, error) {
	var row signatureRow
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at DESC").Order("id DESC").
		First(&row).Error
	if err != nil {
		return nil, translate(err, "signature records of %s", requestID)
	}
	rec, err := row.toDomain()
	if err != nil {
		return nil, errors.Storage(err, "decode signature record %s", row.ID)
	}
	return rec, nil
}

// CompleteRequest implements Repository. The newest record is chosen under
// the same row lock that AppendSignature takes, so no record can land between
// the choice and the transition.
func (r *GormRepository) CompleteRequest(
	ctx context.Context, requestID string, now time.Time,
) (*domain.SignatureRequest, *domain.SignatureRecord, error) {
	var (
		completed *domain.SignatureRequest
		latest    *domain.SignatureRecord
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockRequest(tx, requestID)
		if err != nil {
			return err
		}
		if domain.Status(row.Status).IsTerminal() {
			return errors.InvalidState("request is already completed")
		}

		var sig signatureRow
		err = tx.Where("request_id = ?", requestID).
			Order("created_at DESC").Order("id DESC").
			First(&sig).Error
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.InvalidState("nothing has been signed yet")
			}
			return errors.Storage(err, "latest signature of %s", requestID)
		}
		latest, err = sig.toDomain()
		if err != nil {
			return errors.Storage(err, "decode signature record %s", sig.ID)
		}

		res := tx.Model(&requestRow{}).
			Where("id = ? AND status <> ?", requestID, string(domain.StatusCompleted)).
			Updates(map[string]any{
				"status":             string(domain.StatusCompleted),
				"final_document_ref": latest.SignedDocumentRef,
				"updated_at":         now,
			})
		if res.Error != nil {
			return errors.Storage(res.Error, "complete request %s", requestID)
		}
		if res.RowsAffected == 0 {
			return errors.InvalidState("request is already completed")
		}

		row.Status = string(domain.StatusCompleted)
		row.FinalDocumentRef = latest.SignedDocumentRef
		row.UpdatedAt = now
		completed = row.toDomain()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return completed, latest, nil
}

// DeleteRequest implements Repository
func (r *GormRepository) DeleteRequest(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("request_id = ?", id).Delete(&signatureRow{}).Error; err != nil {
			return errors.Storage(err, "delete signature records of %s", id)
		}
		if err := tx.Where("request_id = ?", id).Delete(&fieldRow{}).Error; err != nil {
			return errors.Storage(err, "delete fields of %s", id)
		}
		res := tx.Where("id = ?", id).Delete(&requestRow{})
		if res.Error != nil {
			return errors.Storage(res.Error, "delete request %s", id)
		}
		if res.RowsAffected == 0 {
			return errors.NotFound("request %s does not exist", id)
		}
		return nil
	})
}

// lockRequest loads a request row for update inside a transaction
func lockRequest(tx *gorm.DB, id string) (*requestRow, error) {
	var row requestRow
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&row).Error
	if err != nil {
		return nil, translate(err, "request %s", id)
	}
	return &row, nil
}

// translate maps gorm errors onto the error taxonomy
func translate(err error, format string, args ...any) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound(format+" does not exist", args...)
	}
	return errors.Storage(err, format, args...)
}

var _ Repository = (*GormRepository)(nil)
