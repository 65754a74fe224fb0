package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-signer/internal/audit"
	"github.com/a3tai/mcp-pdf-signer/internal/documents"
	"github.com/a3tai/mcp-pdf-signer/internal/domain"
	"github.com/a3tai/mcp-pdf-signer/internal/errors"
	"github.com/a3tai/mcp-pdf-signer/internal/pdf"
	"github.com/a3tai/mcp-pdf-signer/internal/repository"
	"github.com/a3tai/mcp-pdf-signer/internal/storage/local"
	"github.com/a3tai/mcp-pdf-signer/internal/testutil"
)

type fixture struct {
	manager *Manager
	repo    repository.Repository
	trail   *audit.Trail
	fs      afero.Fs
	blobs   *local.Store
	docs    *documents.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repository.OpenMemory(uuid.NewString())
	require.NoError(t, err)

	repo := repository.NewGormRepository(db)
	memfs := afero.NewMemMapFs()
	blobs := local.NewWithFs(memfs, "/", "")
	docs := documents.New(blobs)
	trail := audit.NewTrail(repo)

	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}

	return &fixture{
		manager: NewManager(repo, docs, pdf.NewValidator(10*1024*1024), trail, WithClock(now)),
		repo:    repo,
		trail:   trail,
		fs:      memfs,
		blobs:   blobs,
		docs:    docs,
	}
}

func (f *fixture) create(t *testing.T, pages int) *domain.SignatureRequest {
	t.Helper()
	req, err := f.manager.CreateRequest(context.Background(), CreateInput{
		Title:     "Intake Form",
		CreatedBy: "admin-1",
		FileName:  "intake.pdf",
		File:      testutil.BlankPDF(pages),
	})
	require.NoError(t, err)
	return req
}

// sign appends a record as the signing engine would
func (f *fixture) sign(t *testing.T, req *domain.SignatureRequest) *domain.SignatureRecord {
	t.Helper()
	ctx := context.Background()
	id := uuid.NewString()
	signed, err := f.docs.PutSigned(ctx, req.ID, id, testutil.BlankPDF(1))
	require.NoError(t, err)
	image, err := f.docs.PutSignatureImage(ctx, req.ID, id, "png", "image/png", testutil.SignaturePNG(10, 5))
	require.NoError(t, err)

	rec := &domain.SignatureRecord{
		ID:                id,
		RequestID:         req.ID,
		SignatureImageRef: image,
		SignedDocumentRef: signed,
		CreatedAt:         time.Now().UTC(),
	}
	require.NoError(t, f.trail.Record(ctx, rec))
	return rec
}

func signatureBox(page int) FieldInput {
	return FieldInput{PageNumber: page, X: 72, Y: 100, Width: 200, Height: 60, Label: "Sign here", FieldType: "signature"}
}

func TestManager_CreateRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.create(t, 2)
	assert.Equal(t, domain.StatusDraft, req.Status)
	assert.Equal(t, "Intake Form", req.Title)
	assert.Equal(t, "admin-1", req.CreatedBy)
	assert.Equal(t, 2, req.PageCount)
	assert.Equal(t, documents.OriginalKey(req.ID), req.OriginalDocumentRef)
	assert.Len(t, req.PublicToken, 43)

	stored, err := f.blobs.Get(ctx, req.OriginalDocumentRef)
	require.NoError(t, err)
	assert.Equal(t, testutil.BlankPDF(2), stored)

	got, err := f.manager.GetRequestByToken(ctx, req.PublicToken)
	require.NoError(t, err)
	assert.Equal(t, req.ID, got.ID)
}

func TestManager_CreateRequestTokensAreUnique(t *testing.T) {
	f := newFixture(t)
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		req := f.create(t, 1)
		assert.False(t, seen[req.PublicToken])
		seen[req.PublicToken] = true
	}
}

func TestManager_CreateRequestValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"no file", CreateInput{Title: "x", FileName: "a.pdf"}},
		{"not a pdf", CreateInput{Title: "x", FileName: "a.pdf", File: []byte("hello world")}},
		{"wrong extension", CreateInput{Title: "x", FileName: "a.docx", File: testutil.BlankPDF(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.manager.CreateRequest(context.Background(), tt.in)
			assert.True(t, errors.IsValidation(err), "got %v", err)
		})
	}

	all, err := f.manager.ListRequests(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestManager_CreateRequestTitleDefaultsToFileName(t *testing.T) {
	f := newFixture(t)
	req, err := f.manager.CreateRequest(context.Background(), CreateInput{
		FileName: "lease.pdf",
		File:     testutil.BlankPDF(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "lease", req.Title)
}

func TestManager_CreateRequestRemovesOriginalWhenInsertFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.manager.newToken = func() (string, error) { return "fixed-token", nil }
	first, err := f.manager.CreateRequest(ctx, CreateInput{Title: "a", FileName: "a.pdf", File: testutil.BlankPDF(1)})
	require.NoError(t, err)

	// the unique token index rejects the second row
	_, err = f.manager.CreateRequest(ctx, CreateInput{Title: "b", FileName: "b.pdf", File: testutil.BlankPDF(1)})
	require.Error(t, err)
	assert.True(t, errors.IsStorage(err))

	all, err := f.manager.ListRequests(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, first.ID, all[0].ID)

	var files []string
	err = afero.Walk(f.fs, "requests", func(p string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			files = append(files, filepath.ToSlash(p))
		}
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{documents.OriginalKey(first.ID)}, files)
}

func TestManager_SaveFieldsTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t, 2)

	saved, err := f.manager.SaveFields(ctx, req.ID, []FieldInput{
		signatureBox(2),
		{PageNumber: 1, X: 72, Y: 300, Width: 200, Height: 20, Label: "Name", FieldType: "data_entry"},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, domain.FieldTypeSignature, saved[0].FieldType)
	assert.Equal(t, domain.FieldTypeDataEntry, saved[1].FieldType)
	assert.NotEqual(t, saved[0].ID, saved[1].ID)

	got, err := f.manager.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)

	listed, err := f.manager.ListFields(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, saved[0].ID, listed[0].ID)
	assert.Equal(t, "Name", listed[1].Label)

	_, err = f.manager.SaveFields(ctx, req.ID, nil)
	require.NoError(t, err)
	got, err = f.manager.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, got.Status)
}

func TestManager_SaveFieldsUnknownTypeIsSignature(t *testing.T) {
	f := newFixture(t)
	req := f.create(t, 1)

	in := signatureBox(1)
	in.FieldType = "checkbox"
	saved, err := f.manager.SaveFields(context.Background(), req.ID, []FieldInput{in})
	require.NoError(t, err)
	assert.Equal(t, domain.FieldTypeSignature, saved[0].FieldType)
}

func TestManager_SaveFieldsValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t, 1)

	_, err := f.manager.SaveFields(ctx, req.ID, []FieldInput{signatureBox(1)})
	require.NoError(t, err)

	tests := []struct {
		name  string
		field FieldInput
	}{
		{"page beyond document", signatureBox(2)},
		{"page zero", signatureBox(0)},
		{"zero width", FieldInput{PageNumber: 1, X: 10, Y: 10, Width: 0, Height: 10}},
		{"past the right edge", FieldInput{PageNumber: 1, X: 500, Y: 10, Width: 200, Height: 10}},
		{"past the bottom edge", FieldInput{PageNumber: 1, X: 10, Y: 780, Width: 20, Height: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.manager.SaveFields(ctx, req.ID, []FieldInput{signatureBox(1), tt.field})
			assert.True(t, errors.IsValidation(err), "got %v", err)
		})
	}

	// a rejected save leaves the previous set in place
	listed, err := f.manager.ListFields(ctx, req.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestManager_SaveFieldsUnknownRequest(t *testing.T) {
	f := newFixture(t)
	_, err := f.manager.SaveFields(context.Background(), uuid.NewString(), []FieldInput{signatureBox(1)})
	assert.True(t, errors.IsNotFound(err))
}

func TestManager_Submit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t, 1)
	_, err := f.manager.SaveFields(ctx, req.ID, []FieldInput{signatureBox(1)})
	require.NoError(t, err)

	_, err = f.manager.Submit(ctx, req.PublicToken)
	assert.True(t, errors.IsInvalidState(err), "nothing signed yet")

	f.sign(t, req)
	latest := f.sign(t, req)

	rec, err := f.manager.Submit(ctx, req.PublicToken)
	require.NoError(t, err)
	assert.Equal(t, latest.ID, rec.ID)

	got, err := f.manager.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, latest.SignedDocumentRef, got.FinalDocumentRef)

	_, err = f.manager.Submit(ctx, req.PublicToken)
	assert.True(t, errors.IsInvalidState(err))

	_, err = f.manager.SaveFields(ctx, req.ID, []FieldInput{signatureBox(1)})
	assert.True(t, errors.IsInvalidState(err))

	_, err = f.manager.Submit(ctx, "no-such-token")
	assert.True(t, errors.IsNotFound(err))
}

func TestManager_SubmitConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t, 1)
	f.sign(t, req)

	const callers = 6
	results := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.manager.Submit(ctx, req.PublicToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, errors.IsInvalidState(err), "got %v", err)
	}
	assert.Equal(t, 1, wins)
}

func TestManager_DeleteRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t, 1)
	keep := f.create(t, 1)
	_, err := f.manager.SaveFields(ctx, req.ID, []FieldInput{signatureBox(1)})
	require.NoError(t, err)
	rec := f.sign(t, req)

	// a blob that has already gone must not abort the cascade
	require.NoError(t, f.blobs.Delete(ctx, rec.SignatureImageRef))

	require.NoError(t, f.manager.DeleteRequest(ctx, req.ID))

	_, err = f.manager.GetRequest(ctx, req.ID)
	assert.True(t, errors.IsNotFound(err))
	_, err = f.manager.GetRequestByToken(ctx, req.PublicToken)
	assert.True(t, errors.IsNotFound(err))

	for _, key := range []string{req.OriginalDocumentRef, rec.SignedDocumentRef} {
		_, err := f.blobs.Get(ctx, key)
		assert.True(t, errors.IsNotFound(err), key)
	}
	records, err := f.trail.List(ctx, req.ID)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = f.blobs.Get(ctx, keep.OriginalDocumentRef)
	assert.NoError(t, err)

	assert.True(t, errors.IsNotFound(f.manager.DeleteRequest(ctx, req.ID)))
}

func TestManager_ListRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.manager.CreateRequest(ctx, CreateInput{
			Title:     fmt.Sprintf("doc %d", i),
			CreatedBy: []string{"alice", "bob", "alice"}[i],
			FileName:  "doc.pdf",
			File:      testutil.BlankPDF(1),
		})
		require.NoError(t, err)
	}

	mine, err := f.manager.ListRequests(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "doc 2", mine[0].Title)
}

func TestNewToken(t *testing.T) {
	a, err := NewToken()
	require.NoError(t, err)
	b, err := NewToken()
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
}
