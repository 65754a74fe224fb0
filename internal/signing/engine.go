// Package signing burns signer input into the original PDF and records the result.
package signing

import (
	"bytes"
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
	"github.com/a3tai/mcp-pdf-signer/internal/gateway"
	"github.com/a3tai/mcp-pdf-signer/internal/pdf"
)

// FieldLister returns the field set of a request in save order
type FieldLister interface {
	ListFields(ctx context.Context, requestID string) ([]domain.Field, error)
}

// SignInput is one signing attempt by a token holder
type SignInput struct {
	Token          string
	SignerName     string
	SignerEmail    string
	SignerIP       string
	SignatureImage []byte
	FieldValues    map[string]string
}

// Option configures an Engine
type Option func(*Engine)

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithMaxSignatureWidth bounds the pixel width of stamped signatures
func WithMaxSignatureWidth(px int) Option {
	return func(e *Engine) {
		if px > 0 {
			e.maxWidth = px
		}
	}
}

// Engine produces signed documents. It keeps no state between calls.
type Engine struct {
	gateway  *gateway.Gateway
	fields   FieldLister
	docs     *documents.Store
	trail    *audit.Trail
	stamper  *pdf.Stamper
	maxWidth int
	now      func() time.Time
}

// NewEngine creates a signing engine
func NewEngine(gw *gateway.Gateway, lister FieldLister, docs *documents.Store, trail *audit.Trail, opts ...Option) *Engine {
	e := &Engine{
		gateway:  gw,
		fields:   lister,
		docs:     docs,
		trail:    trail,
		stamper:  pdf.NewStamper(),
		maxWidth: pdf.DefaultMaxSignatureWidth,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sign stamps the signature and data entry values into a new copy of the original
// and appends a record pointing at it. Calling Sign again before submission
// produces another record; the newest one is what gets finalised.
func (e *Engine) Sign(ctx context.Context, in SignInput) (*domain.SignatureRecord, error) {
	req, err := e.gateway.Resolve(ctx, in.Token)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(in.SignatureImage)) == 0 {
		return nil, errors.Validation("a signature image is required")
	}
	if req.Status.IsTerminal() {
		return nil, errors.InvalidState("request is already completed")
	}

	set, err := e.fields.ListFields(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	values, err := bindValues(set, in.FieldValues)
	if err != nil {
		return nil, err
	}

	raster, err := pdf.DecodeSignature(in.SignatureImage, e.maxWidth)
	if err != nil {
		return nil, errors.Validation("%v", err)
	}

	original, err := e.docs.Get(ctx, req.OriginalDocumentRef)
	if err != nil {
		return nil, errors.Storage(err, "load original of %s", req.ID)
	}

	signed, err := e.render(original, set, raster, values)
	if err != nil {
		return nil, err
	}

	rec := &domain.SignatureRecord{
		ID:          uuid.NewString(),
		RequestID:   req.ID,
		SignerName:  strings.TrimSpace(in.SignerName),
		SignerEmail: strings.TrimSpace(in.SignerEmail),
		SignerIP:    in.SignerIP,
		CreatedAt:   e.now(),
	}
	if len(values) > 0 {
		rec.FieldValues = values
	}

	if err := e.persist(ctx, rec, signed, raster); err != nil {
		return nil, err
	}

	log.Printf("signed request %s as record %s (%d fields)", req.ID, rec.ID, len(set))
	return rec, nil
}

// bindValues checks that every supplied value targets a data entry field of the
// request and returns the non-blank ones.
func bindValues(set []domain.Field, supplied map[string]string) (map[string]string, error) {
	byID := make(map[string]domain.Field, len(set))
	for _, f := range set {
		byID[f.ID] = f
	}

	values := make(map[string]string, len(supplied))
	for id, v := range supplied {
		f, ok := byID[id]
		if !ok {
			return nil, errors.Validation("field %s does not belong to this request", id)
		}
		if f.FieldType != domain.FieldTypeDataEntry {
			return nil, errors.Validation("field %s is a signature field and takes no value", id)
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if err := pdf.CheckText(v); err != nil {
			return nil, errors.Validation("field %s: %v", id, err)
		}
		values[id] = v
	}
	return values, nil
}

// render composites every field onto its page
func (e *Engine) render(original []byte, set []domain.Field, raster *pdf.Raster, values map[string]string) ([]byte, error) {
	if len(set) == 0 {
		out := make([]byte, len(original))
		copy(out, original)
		return out, nil
	}

	info, err := pdf.Inspect(original)
	if err != nil {
		return nil, errors.Storage(err, "inspect original document")
	}
	if err := fields.Validate(info.Layout(), set); err != nil {
		return nil, err
	}

	overlays := make([]pdf.Overlay, 0, len(set))
	for _, f := range set {
		o := pdf.Overlay{Page: f.PageNumber, Region: fields.RegionOf(f)}
		switch f.FieldType {
		case domain.FieldTypeDataEntry:
			text, ok := values[f.ID]
			if !ok {
				continue
			}
			o.Kind = pdf.OverlayText
			o.Text = text
		default:
			o.Kind = pdf.OverlayImage
			o.Image = raster
		}
		overlays = append(overlays, o)
	}

	out, err := e.stamper.Apply(original, info.Pages, overlays)
	if err != nil {
		return nil, errors.Storage(err, "render signed document")
	}
	return out, nil
}

// persist writes the signed PDF, then the raw signature, then the record. Blobs
// written by this call are removed again when a later step fails.
func (e *Engine) persist(ctx context.Context, rec *domain.SignatureRecord, signed []byte, raster *pdf.Raster) error {
	var written []string
	rollback := func() {
		if err := e.docs.Remove(ctx, written...); err != nil {
			log.Printf("sign %s: failed to remove partial artifacts: %v", rec.ID, err)
		}
	}

	signedKey, err := e.docs.PutSigned(ctx, rec.RequestID, rec.ID, signed)
	if err != nil {
		return errors.Storage(err, "store signed document")
	}
	written = append(written, signedKey)

	imageKey, err := e.docs.PutSignatureImage(ctx, rec.RequestID, rec.ID,
		pdf.Extension(raster.Format), pdf.ContentType(raster.Format), raster.Original)
	if err != nil {
		rollback()
		return errors.Storage(err, "store signature image")
	}
	written = append(written, imageKey)

	rec.SignedDocumentRef = signedKey
	rec.SignatureImageRef = imageKey
	if err := e.trail.Record(ctx, rec); err != nil {
		rollback()
		if errors.IsInvalidState(err) {
			return err
		}
		return errors.Storage(err, "append signature record")
	}
	return nil
}
