package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/mcp-pdf-signer/internal/config"
	"github.com/a3tai/mcp-pdf-signer/internal/repository"
	"github.com/a3tai/mcp-pdf-signer/internal/service"
	"github.com/a3tai/mcp-pdf-signer/internal/storage/local"
)

func newServerModeServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	db, err := repository.OpenMemory(uuid.NewString())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeServer
	cfg.Host = "127.0.0.1"
	cfg.Port = 0

	srv, err := NewServer(cfg, service.Assemble(cfg, db, local.NewMemory("")), opts...)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv
}

func TestServer_RunServerModeStopsOnCancel(t *testing.T) {
	srv := newServerModeServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}

func TestServer_RunServerModeListenError(t *testing.T) {
	srv := newServerModeServer(t)
	srv.config.Host = "256.256.256.256"

	err := srv.Run(context.Background())
	if err == nil {
		t.Fatal("expected listen error for an invalid host")
	}
}

func TestServer_HandlerRoutes(t *testing.T) {
	files := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("file:" + r.URL.Path))
	})
	sse := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("sse:" + r.URL.Path))
	})

	tests := []struct {
		name   string
		opts   []Option
		path   string
		status int
		body   string
	}{
		{name: "sse endpoint", path: "/sse", status: http.StatusOK, body: "sse:/sse"},
		{name: "message endpoint", path: "/message", status: http.StatusOK, body: "sse:/message"},
		{name: "files mounted", opts: []Option{WithFileHandler(files)}, path: "/files/requests/r1/original.pdf", status: http.StatusOK, body: "file:/requests/r1/original.pdf"},
		{name: "files not mounted", path: "/files/requests/r1/original.pdf", status: http.StatusNotFound},
		{name: "unknown path", path: "/admin", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServerModeServer(t, tt.opts...)
			rec := httptest.NewRecorder()
			srv.handler(sse).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("expected body %q, got %q", tt.body, rec.Body.String())
			}
		})
	}
}
