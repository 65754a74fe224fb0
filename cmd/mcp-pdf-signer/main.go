package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/mcp-pdf-signer/internal/config"
	"github.com/a3tai/mcp-pdf-signer/internal/mcp"
	"github.com/a3tai/mcp-pdf-signer/internal/service"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging configures logging based on the server mode
func setupLogging(cfg *config.Config) {
	if cfg.IsStdioMode() {
		// In stdio mode, keep stdout free for the MCP protocol
		log.SetOutput(os.Stderr)
		if !cfg.IsDebug() {
			log.SetOutput(io.Discard)
		}
	} else {
		// In server mode, use normal stdout logging with more detail
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

// isVersionArg reports whether args request version output
func isVersionArg(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// applyBuildVersion overrides the configured version with the one set at build time
func applyBuildVersion(cfg *config.Config, buildVersion string) {
	if buildVersion != "dev" {
		cfg.Version = buildVersion
	}
}

// setup builds the signing runtime and the MCP server on top of it. The
// runtime is closed again when the server cannot be created.
func setup(ctx context.Context, cfg *config.Config) (*mcp.Server, *service.Runtime, error) {
	rt, err := service.Build(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	var opts []mcp.Option
	if files := rt.FileHandler(); files != nil {
		opts = append(opts, mcp.WithFileHandler(files))
	}

	server, err := mcp.NewServer(cfg, rt.Service, opts...)
	if err != nil {
		_ = rt.Close()
		return nil, nil, fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server, rt, nil
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server) error {
	// Set up signal handling for graceful shutdown
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signalCh)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		log.Printf("Received signal: %s", sig)
		log.Println("Initiating graceful shutdown...")
		cancel()

		if err := <-serverErrCh; err != nil {
			return fmt.Errorf("server shutdown with error: %w", err)
		}

	case err := <-serverErrCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Println("Server stopped successfully")
	return nil
}

// runStdioMode handles stdio mode execution. The parent process controls the
// lifecycle; the server returns when stdin is closed.
func runStdioMode(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx)
}

func main() {
	if isVersionArg(os.Args[1:]) {
		printVersion(os.Stdout)
		return
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)
	applyBuildVersion(cfg, version)

	if cfg.IsDebug() && cfg.IsServerMode() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, rt, err := setup(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize signing service: %v", err)
	}

	if cfg.IsServerMode() {
		err = runServerMode(ctx, cancel, server)
	} else {
		err = runStdioMode(ctx, server)
	}

	if closeErr := rt.Close(); closeErr != nil {
		log.Printf("Failed to close database: %v", closeErr)
	}
	if err != nil {
		// stdio mode only logs in debug to avoid protocol interference
		log.Printf("%v", err)
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCP PDF Signer\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
