package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-pdf-signer/internal/config"
	"github.com/a3tai/mcp-pdf-signer/internal/descriptions"
	"github.com/a3tai/mcp-pdf-signer/internal/lifecycle"
	"github.com/a3tai/mcp-pdf-signer/internal/service"
)

const shutdownTimeout = 5 * time.Second

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *service.Service
	files     http.Handler
	mcpServer *server.MCPServer
}

// Option configures a Server
type Option func(*Server)

// WithFileHandler serves stored documents under /files/ in server mode
func WithFileHandler(h http.Handler) Option {
	return func(s *Server) {
		s.files = h
	}
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, svc *service.Service, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if svc == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:    cfg,
		service:   svc,
		mcpServer: mcpServer,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	adminToken := mcp.WithString("admin_token",
		mcp.Required(),
		mcp.Description("Administrator bearer token"),
	)
	requestID := mcp.WithString("request_id",
		mcp.Required(),
		mcp.Description("Signature request id"),
	)
	publicToken := mcp.WithString("token",
		mcp.Required(),
		mcp.Description("Public token from the share link"),
	)

	// Administrator tools
	s.mcpServer.AddTool(mcp.NewTool(
		"signature_request_create",
		mcp.WithDescription(descriptions.RequestCreateDescription),
		adminToken,
		mcp.WithString("file_base64",
			mcp.Required(),
			mcp.Description("PDF bytes, base64 encoded (a data URL is accepted)"),
		),
		mcp.WithString("file_name",
			mcp.Required(),
			mcp.Description("Original file name, must end in .pdf"),
		),
		mcp.WithString("title",
			mcp.Description("Request title (defaults to the file name)"),
		),
	), s.handleRequestCreate)

	s.mcpServer.AddTool(mcp.NewTool(
		"signature_fields_save",
		mcp.WithDescription(descriptions.FieldsSaveDescription),
		adminToken,
		requestID,
		mcp.WithArray("fields",
			mcp.Required(),
			mcp.Description("Complete field set: objects with pageNumber, x, y, width, height, label, fieldType"),
			mcp.Items(map[string]any{"type": "object"}),
		),
	), s.handleFieldsSave)

	s.mcpServer.AddTool(mcp.NewTool(
		"signature_request_get",
		mcp.WithDescription(descriptions.RequestGetDescription),
		adminToken,
		requestID,
	), s.handleRequestGet)

	s.mcpServer.AddTool(mcp.NewTool(
		"signature_request_list",
		mcp.WithDescription(descriptions.RequestListDescription),
		adminToken,
		mcp.WithBoolean("all",
			mcp.Description("Include requests created by other administrators"),
		),
	), s.handleRequestList)

	s.mcpServer.AddTool(mcp.NewTool(
		"signature_list",
		mcp.WithDescription(descriptions.SignatureListDescription),
		adminToken,
		requestID,
	), s.handleSignatureList)

	s.mcpServer.AddTool(mcp.NewTool(
		"signature_request_delete",
		mcp.WithDescription(descriptions.RequestDeleteDescription),
		adminToken,
		requestID,
	), s.handleRequestDelete)

	// Signer tools
	s.mcpServer.AddTool(mcp.NewTool(
		"signing_view",
		mcp.WithDescription(descriptions.SigningViewDescription),
		publicToken,
	), s.handleSigningView)

	s.mcpServer.AddTool(mcp.NewTool(
		"signing_sign",
		mcp.WithDescription(descriptions.SigningSignDescription),
		publicToken,
		mcp.WithString("signature_image",
			mcp.Required(),
			mcp.Description("Signature image as a data URL or base64"),
		),
		mcp.WithString("signer_name",
			mcp.Description("Signer's name"),
		),
		mcp.WithString("signer_email",
			mcp.Description("Signer's email address"),
		),
		mcp.WithObject("data_entry_values",
			mcp.Description("Map of data_entry field id to text"),
		),
	), s.handleSigningSign)

	s.mcpServer.AddTool(mcp.NewTool(
		"signing_finalize",
		mcp.WithDescription(descriptions.SigningFinalizeDescription),
		publicToken,
	), s.handleSigningFinalize)

	s.mcpServer.AddTool(mcp.NewTool(
		"signing_document_url",
		mcp.WithDescription(descriptions.SigningDocumentURLDescription),
		publicToken,
	), s.handleSigningDocumentURL)
}

// Handler functions
func (s *Server) handleRequestCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	admin, err := request.RequireString("admin_token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	encoded, err := request.RequireString("file_base64")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fileName, err := request.RequireString("file_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	file, err := decodeFile(encoded)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.CreateRequest(ctx, service.CreateRequestInput{
		AdminToken: admin,
		Title:      request.GetString("title", ""),
		FileName:   fileName,
		File:       file,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleFieldsSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	admin, err := request.RequireString("admin_token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	requestID, err := request.RequireString("request_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var set []lifecycle.FieldInput
	if err := decodeArgument(request.GetArguments(), "fields", &set); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.SaveFields(ctx, service.SaveFieldsInput{
		AdminToken: admin,
		RequestID:  requestID,
		Fields:     set,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleRequestGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	admin, err := request.RequireString("admin_token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	requestID, err := request.RequireString("request_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.GetRequest(ctx, admin, requestID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleRequestList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	admin, err := request.RequireString("admin_token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.ListRequests(ctx, admin, request.GetBool("all", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleSignatureList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	admin, err := request.RequireString("admin_token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	requestID, err := request.RequireString("request_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.ListSignatures(ctx, admin, requestID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleRequestDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	admin, err := request.RequireString("admin_token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	requestID, err := request.RequireString("request_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.DeleteRequest(ctx, admin, requestID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleSigningView(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := request.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.GetRequestByToken(ctx, token)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleSigningSign(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := request.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	// an empty image is rejected by the signing engine with a validation error
	image := request.GetString("signature_image", "")

	var values map[string]string
	if err := decodeArgument(request.GetArguments(), "data_entry_values", &values); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.SubmitSignature(ctx, service.SubmitSignatureInput{
		Token:          token,
		SignerName:     request.GetString("signer_name", ""),
		SignerEmail:    request.GetString("signer_email", ""),
		SignatureImage: image,
		FieldValues:    values,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleSigningFinalize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := request.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.FinalizeSubmission(ctx, token)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleSigningDocumentURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := request.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.GetSignedDocumentURL(ctx, token)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

// jsonResult renders v as an indented JSON text result
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// decodeArgument decodes a structured argument into target. Clients may send the
// value as JSON or as a string holding JSON. A missing argument leaves target untouched.
func decodeArgument(args map[string]any, key string, target any) error {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil
	}

	var data []byte
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		data = []byte(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		data = encoded
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	return nil
}

// decodeFile decodes base64 file content, with or without a data URL prefix
func decodeFile(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		if comma := strings.IndexByte(encoded, ','); comma >= 0 {
			encoded = encoded[comma+1:]
		}
	}
	if encoded == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("file_base64 is not valid base64: %w", err)
	}
	return data, nil
}

// clientAddress returns the caller's network address. The first
// X-Forwarded-For hop is used only when trustProxy is set.
func clientAddress(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// signerContext injects the caller's address for signature records
func (s *Server) signerContext(ctx context.Context, r *http.Request) context.Context {
	return service.WithSignerIP(ctx, clientAddress(r, s.config.TrustProxy))
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting PDF signing MCP server in stdio mode")
		log.Printf("Storage: %s, database: %s", s.config.Storage, s.config.DBDriver)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// handler builds the HTTP routes used in server mode
func (s *Server) handler(sse http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/sse", sse)
	mux.Handle("/message", sse)
	if s.files != nil {
		mux.Handle("/files/", http.StripPrefix("/files", s.files))
	}
	return mux
}

// runServerMode serves MCP over SSE until ctx is cancelled
func (s *Server) runServerMode(ctx context.Context) error {
	baseURL := s.config.BaseURL
	if baseURL == "" {
		baseURL = "http://" + s.config.Address()
	}

	httpServer := &http.Server{
		Addr:              s.config.Address(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	sse := server.NewSSEServer(s.mcpServer,
		server.WithBaseURL(baseURL),
		server.WithSSEContextFunc(s.signerContext),
		server.WithHTTPServer(httpServer),
	)
	httpServer.Handler = s.handler(sse)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting PDF signing MCP server on %s (SSE endpoint %s/sse)", s.config.Address(), baseURL)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sse.Shutdown(shutdownCtx); err != nil {
			_ = httpServer.Close()
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve http: %w", err)
	}
}
