// Package storage defines the blob store port the document adapter is built on.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Store is a key addressed blob store
type Store interface {
	// Put writes data under key, replacing any existing object
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Get reads the object under key. A missing key is an errors.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes the object under key. A missing key is not an error.
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every object whose key starts with prefix
	DeletePrefix(ctx context.Context, prefix string) error
	// URL returns a location the object can be downloaded from
	URL(ctx context.Context, key string) (string, error)
}

// CleanKey validates a slash separated key and returns its canonical form.
// Absolute keys and keys escaping the namespace are rejected.
func CleanKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key cannot be empty")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", fmt.Errorf("key must be relative: %s", key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("key is outside the store namespace: %s", key)
	}
	return cleaned, nil
}
