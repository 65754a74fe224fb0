// Package local implements storage.Store on a filesystem through afero.
package local

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/a3tai/mcp-pdf-signer/internal/errors"
	"github.com/a3tai/mcp-pdf-signer/internal/storage"
)

const (
	DefaultDirPerm  = 0o750
	DefaultFilePerm = 0o640
)

// Store keeps blobs as files below a root directory
type Store struct {
	fs      afero.Fs
	root    string
	baseURL string
}

// New creates a store rooted at dir on the OS filesystem. When baseURL is set,
// URLs are baseURL joined with the key; otherwise they are file:// URLs.
func New(dir, baseURL string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}
	if err := os.MkdirAll(abs, DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("cannot create storage directory %s: %w", abs, err)
	}
	return NewWithFs(afero.NewBasePathFs(afero.NewOsFs(), abs), abs, baseURL), nil
}

// NewWithFs creates a store over an existing filesystem. root is only used to
// build file:// URLs.
func NewWithFs(fsys afero.Fs, root, baseURL string) *Store {
	return &Store{
		fs:      fsys,
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// NewMemory creates an in-memory store
func NewMemory(baseURL string) *Store {
	return NewWithFs(afero.NewMemMapFs(), "/", baseURL)
}

// Put implements storage.Store
func (s *Store) Put(_ context.Context, key string, data []byte, _ string) error {
	name, err := storage.CleanKey(key)
	if err != nil {
		return errors.Validation("%v", err)
	}
	if err := s.fs.MkdirAll(path.Dir(name), DefaultDirPerm); err != nil {
		return errors.Storage(err, "create directory for %s", name)
	}

	// Write to a sibling temp file and rename so readers never see a partial blob.
	tmp := name + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, DefaultFilePerm); err != nil {
		return errors.Storage(err, "write %s", name)
	}
	if err := s.fs.Rename(tmp, name); err != nil {
		_ = s.fs.Remove(tmp)
		return errors.Storage(err, "commit %s", name)
	}
	return nil
}

// Get implements storage.Store
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	name, err := storage.CleanKey(key)
	if err != nil {
		return nil, errors.Validation("%v", err)
	}
	data, err := afero.ReadFile(s.fs, name)
	if err != nil {
		if isNotExist(err) {
			return nil, errors.NotFound("object %s does not exist", name)
		}
		return nil, errors.Storage(err, "read %s", name)
	}
	return data, nil
}

// Delete implements storage.Store
func (s *Store) Delete(_ context.Context, key string) error {
	name, err := storage.CleanKey(key)
	if err != nil {
		return errors.Validation("%v", err)
	}
	if err := s.fs.Remove(name); err != nil && !isNotExist(err) {
		return errors.Storage(err, "delete %s", name)
	}
	return nil
}

// DeletePrefix implements storage.Store
func (s *Store) DeletePrefix(_ context.Context, prefix string) error {
	name, err := storage.CleanKey(prefix)
	if err != nil {
		return errors.Validation("%v", err)
	}

	info, err := s.fs.Stat(name)
	if err != nil {
		if isNotExist(err) {
			return s.deleteMatching(name)
		}
		return errors.Storage(err, "stat %s", name)
	}
	if info.IsDir() {
		if err := s.fs.RemoveAll(name); err != nil {
			return errors.Storage(err, "delete prefix %s", name)
		}
		return nil
	}
	return s.deleteMatching(name)
}

// deleteMatching removes files in the prefix's parent whose names share the prefix
func (s *Store) deleteMatching(prefix string) error {
	dir, base := path.Split(prefix)
	if dir == "" {
		dir = "."
	}
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if isNotExist(err) {
			return nil
		}
		return errors.Storage(err, "list %s", dir)
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), base) {
			continue
		}
		if err := s.fs.RemoveAll(path.Join(dir, e.Name())); err != nil {
			return errors.Storage(err, "delete %s", e.Name())
		}
	}
	return nil
}

// URL implements storage.Store
func (s *Store) URL(_ context.Context, key string) (string, error) {
	name, err := storage.CleanKey(key)
	if err != nil {
		return "", errors.Validation("%v", err)
	}
	if s.baseURL != "" {
		return s.baseURL + "/" + name, nil
	}
	return "file://" + filepath.ToSlash(filepath.Join(s.root, filepath.FromSlash(name))), nil
}

// Handler serves stored objects over HTTP, addressed by key relative to the
// mount point. Keys rejected by allow are reported as missing. Directories are
// never listed.
func (s *Store) Handler(allow func(key string) bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		name, err := storage.CleanKey(strings.TrimPrefix(r.URL.Path, "/"))
		if err != nil || (allow != nil && !allow(name)) {
			http.NotFound(w, r)
			return
		}

		f, err := s.fs.Open(name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, path.Base(name), info.ModTime(), f)
	})
}

// Root returns the directory URLs are built from
func (s *Store) Root() string {
	return s.root
}

func isNotExist(err error) bool {
	return os.IsNotExist(err) || stderrors.Is(err, fs.ErrNotExist)
}

var _ storage.Store = (*Store)(nil)
