// Package documents stores the original, signature and signed artifacts of a
// signature request under predictable keys.
package documents

import (
	"context"
	"log"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/a3tai/mcp-pdf-signer/internal/errors"
	"github.com/a3tai/mcp-pdf-signer/internal/storage"
)

const (
	contentTypePDF = "application/pdf"
	namespace      = "requests/"
)

// RequestPrefix is the key prefix holding every artifact of a request
func RequestPrefix(requestID string) string {
	return namespace + requestID + "/"
}

// OriginalKey is the key of a request's uploaded PDF
func OriginalKey(requestID string) string {
	return RequestPrefix(requestID) + "original.pdf"
}

// SignatureImageKey is the key of the raster captured for a signature record
func SignatureImageKey(requestID, recordID, ext string) string {
	if ext == "" {
		ext = "png"
	}
	return RequestPrefix(requestID) + "signatures/" + recordID + "." + ext
}

// SignedKey is the key of the PDF produced for a signature record
func SignedKey(requestID, recordID string) string {
	return RequestPrefix(requestID) + "signed/" + recordID + ".pdf"
}

// Downloadable reports whether key may be served by URL alone. Only artifacts
// named by a random record id qualify, so the URL acts as the credential.
// Originals are addressed by request id, which signers can see, and are refused.
func Downloadable(key string) bool {
	parts := strings.Split(key, "/")
	if len(parts) != 4 || parts[0]+"/" != namespace || parts[1] == "" {
		return false
	}
	ext := path.Ext(parts[3])
	recordID := strings.TrimSuffix(parts[3], ext)
	if _, err := uuid.Parse(recordID); err != nil || len(recordID) != 36 {
		return false
	}
	switch parts[2] {
	case "signed":
		return ext == ".pdf"
	case "signatures":
		return ext != ""
	default:
		return false
	}
}

// Store is the document facade over a blob store. It holds no state of its own.
type Store struct {
	blobs storage.Store
}

// New creates a document store
func New(blobs storage.Store) *Store {
	return &Store{blobs: blobs}
}

// PutOriginal stores the uploaded PDF and returns its key
func (s *Store) PutOriginal(ctx context.Context, requestID string, data []byte) (string, error) {
	key := OriginalKey(requestID)
	if err := s.blobs.Put(ctx, key, data, contentTypePDF); err != nil {
		return "", err
	}
	return key, nil
}

// PutSignatureImage stores a captured signature raster and returns its key
func (s *Store) PutSignatureImage(ctx context.Context, requestID, recordID, ext, contentType string, data []byte) (string, error) {
	key := SignatureImageKey(requestID, recordID, ext)
	if err := s.blobs.Put(ctx, key, data, contentType); err != nil {
		return "", err
	}
	return key, nil
}

// PutSigned stores a signed PDF and returns its key
func (s *Store) PutSigned(ctx context.Context, requestID, recordID string, data []byte) (string, error) {
	key := SignedKey(requestID, recordID)
	if err := s.blobs.Put(ctx, key, data, contentTypePDF); err != nil {
		return "", err
	}
	return key, nil
}

// Get reads a stored artifact
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.NotFound("document reference is empty")
	}
	return s.blobs.Get(ctx, key)
}

// URL returns the download location of a stored artifact
func (s *Store) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", errors.NotFound("document reference is empty")
	}
	return s.blobs.URL(ctx, key)
}

// Remove deletes the given keys, stopping at the first failure
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.blobs.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Purge removes every artifact of a request. It is best effort: failures are
// logged and the remaining deletions still run. The number of failures is returned.
func (s *Store) Purge(ctx context.Context, requestID string, keys ...string) int {
	failures := 0
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.blobs.Delete(ctx, key); err != nil && !errors.IsNotFound(err) {
			log.Printf("cleanup: failed to delete %s: %v", key, err)
			failures++
		}
	}
	if err := s.blobs.DeletePrefix(ctx, RequestPrefix(requestID)); err != nil && !errors.IsNotFound(err) {
		log.Printf("cleanup: failed to delete prefix %s: %v", RequestPrefix(requestID), err)
		failures++
	}
	return failures
}
