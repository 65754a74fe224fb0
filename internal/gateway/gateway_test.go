package gateway

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-signer/internal/domain"
	"github.com/a3tai/mcp-pdf-signer/internal/errors"
)

type fakeRequests struct {
	byToken map[string]*domain.SignatureRequest
	fields  map[string][]domain.Field
	err     error
}

func (f *fakeRequests) GetRequestByToken(_ context.Context, token string) (*domain.SignatureRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	req, ok := f.byToken[token]
	if !ok {
		return nil, errors.NotFound("request for token %q does not exist", token)
	}
	return req, nil
}

func (f *fakeRequests) ListFields(_ context.Context, requestID string) ([]domain.Field, error) {
	return f.fields[requestID], nil
}

func newFake() *fakeRequests {
	now := time.Now()
	return &fakeRequests{
		byToken: map[string]*domain.SignatureRequest{
			"good": {
				ID:                  "req-1",
				Title:               "Intake Form",
				CreatedBy:           "admin@example.com",
				PublicToken:         "good",
				OriginalDocumentRef: "requests/req-1/original.pdf",
				PageCount:           2,
				Status:              domain.StatusPending,
				CreatedAt:           now,
				UpdatedAt:           now,
			},
		},
		fields: map[string][]domain.Field{
			"req-1": {
				{ID: "f1", RequestID: "req-1", PageNumber: 2, X: 1, Y: 2, Width: 3, Height: 4, FieldType: domain.FieldTypeSignature},
				{ID: "f2", RequestID: "req-1", PageNumber: 1, X: 5, Y: 6, Width: 7, Height: 8, Label: "Name", FieldType: domain.FieldTypeDataEntry},
			},
		},
	}
}

func TestGateway_ResolveUniformNotFound(t *testing.T) {
	g := New(newFake())
	ctx := context.Background()

	var messages []string
	for _, token := range []string{"", "   ", "unknown", "good-but-not-quite"} {
		_, err := g.Resolve(ctx, token)
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrNotFound))
		assert.Same(t, errors.ErrRequestNotFound, err)
		messages = append(messages, err.Error())
	}
	for _, m := range messages[1:] {
		assert.Equal(t, messages[0], m)
	}
}

func TestGateway_ResolveStorageFailure(t *testing.T) {
	fake := newFake()
	fake.err = errors.Storage(stderrors.New("connection refused"), "lookup")
	_, err := New(fake).Resolve(context.Background(), "good")
	assert.True(t, errors.IsStorage(err))
}

func TestGateway_View(t *testing.T) {
	g := New(newFake())

	view, err := g.View(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "req-1", view.ID)
	assert.Equal(t, "Intake Form", view.Title)
	assert.Equal(t, 2, view.Pages)
	require.Len(t, view.Fields, 2)
	assert.Equal(t, "f1", view.Fields[0].ID)
	assert.Equal(t, domain.FieldTypeDataEntry, view.Fields[1].FieldType)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	for _, leaked := range []string{"admin@example.com", "createdBy", "original.pdf", "createdAt", "requestId"} {
		assert.NotContains(t, string(raw), leaked)
	}
}
