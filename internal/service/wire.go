package service

import (
	"context"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/a3tai/mcp-pdf-signer/internal/audit"
	"github.com/a3tai/mcp-pdf-signer/internal/auth"
	"github.com/a3tai/mcp-pdf-signer/internal/config"
	"github.com/a3tai/mcp-pdf-signer/internal/documents"
	"github.com/a3tai/mcp-pdf-signer/internal/gateway"
	"github.com/a3tai/mcp-pdf-signer/internal/lifecycle"
	"github.com/a3tai/mcp-pdf-signer/internal/pdf"
	"github.com/a3tai/mcp-pdf-signer/internal/repository"
	"github.com/a3tai/mcp-pdf-signer/internal/signing"
	"github.com/a3tai/mcp-pdf-signer/internal/storage"
	"github.com/a3tai/mcp-pdf-signer/internal/storage/local"
	"github.com/a3tai/mcp-pdf-signer/internal/storage/s3"
)

// Assemble wires a Service over an open database and blob store
func Assemble(cfg *config.Config, db *gorm.DB, blobs storage.Store) *Service {
	repo := repository.NewGormRepository(db)
	docs := documents.New(blobs)
	trail := audit.NewTrail(repo)

	manager := lifecycle.NewManager(repo, docs, pdf.NewValidator(cfg.MaxFileSize), trail)
	gw := gateway.New(manager)
	engine := signing.NewEngine(gw, manager, docs, trail,
		signing.WithMaxSignatureWidth(cfg.SignatureMaxWidth))

	return New(Deps{
		Gate:      auth.NewGate(cfg.AdminSecret),
		Manager:   manager,
		Gateway:   gw,
		Engine:    engine,
		Trail:     trail,
		Documents: docs,
		ShareURL:  cfg.ShareURL,
		Debug:     cfg.IsDebug(),
	})
}

// Runtime is an assembled Service together with the stores it owns
type Runtime struct {
	Service *Service
	Blobs   storage.Store
	db      *gorm.DB
}

// FileHandler serves signed documents and captured signatures when the blob
// store is local, and returns nil otherwise. Originals are never served.
func (r *Runtime) FileHandler() http.Handler {
	if store, ok := r.Blobs.(*local.Store); ok {
		return store.Handler(documents.Downloadable)
	}
	return nil
}

// Close releases the database connection
func (r *Runtime) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Build opens the configured stores and returns a ready Runtime
func Build(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	blobs, err := OpenBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	db, err := repository.Open(cfg.DBDriver, cfg.DBDSN, cfg.IsDebug())
	if err != nil {
		return nil, err
	}

	return &Runtime{
		Service: Assemble(cfg, db, blobs),
		Blobs:   blobs,
		db:      db,
	}, nil
}

// OpenBlobStore creates the configured storage backend
func OpenBlobStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage {
	case config.StorageLocal:
		base := ""
		if cfg.BaseURL != "" {
			base = cfg.BaseURL + "/files"
		}
		store, err := local.New(cfg.DataDirectory, base)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StorageS3:
		store, err := s3.New(ctx, s3.Options{
			Bucket:     cfg.S3Bucket,
			Region:     cfg.S3Region,
			Endpoint:   cfg.S3Endpoint,
			PresignTTL: cfg.PresignTTL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage)
	}
}
