// Package gateway is the only path from an unauthenticated token holder to a request.
package gateway

import (
	"context"
	"strings"

	"github.com/a3tai/mcp-pdf-signer/internal/domain"
	"github.com/a3tai/mcp-pdf-signer/internal/errors"
)

// Requests is the part of the lifecycle manager the gateway reads through
type Requests interface {
	GetRequestByToken(ctx context.Context, token string) (*domain.SignatureRequest, error)
	ListFields(ctx context.Context, requestID string) ([]domain.Field, error)
}

// PublicField is a field as shown to a signer
type PublicField struct {
	ID         string           `json:"id"`
	PageNumber int              `json:"pageNumber"`
	X          float64          `json:"x"`
	Y          float64          `json:"y"`
	Width      float64          `json:"width"`
	Height     float64          `json:"height"`
	Label      string           `json:"label,omitempty"`
	FieldType  domain.FieldType `json:"fieldType"`
}

// PublicView is what a token holder may see of a request
type PublicView struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Pages  int           `json:"pages"`
	Status domain.Status `json:"status"`
	Fields []PublicField `json:"fields"`
}

// Gateway resolves public tokens
type Gateway struct {
	requests Requests
}

// New creates a gateway
func New(requests Requests) *Gateway {
	return &Gateway{requests: requests}
}

// Resolve maps a token to its request. Every "no such request" outcome yields the
// same errors.ErrRequestNotFound so callers cannot probe for tokens.
func (g *Gateway) Resolve(ctx context.Context, token string) (*domain.SignatureRequest, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.ErrRequestNotFound
	}
	req, err := g.requests.GetRequestByToken(ctx, token)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.ErrRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

// View resolves a token and returns the signer's view of the request
func (g *Gateway) View(ctx context.Context, token string) (*PublicView, error) {
	req, err := g.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	set, err := g.requests.ListFields(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	view := &PublicView{
		ID:     req.ID,
		Title:  req.Title,
		Pages:  req.PageCount,
		Status: req.Status,
		Fields: make([]PublicField, 0, len(set)),
	}
	for _, f := range set {
		view.Fields = append(view.Fields, PublicField{
			ID:         f.ID,
			PageNumber: f.PageNumber,
			X:          f.X,
			Y:          f.Y,
			Width:      f.Width,
			Height:     f.Height,
			Label:      f.Label,
			FieldType:  f.FieldType,
		})
	}
	return view, nil
}
