package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/a3tai/mcp-pdf-signer/internal/config"
)

// restoreLogger puts the standard logger back once a test has reconfigured it
func restoreLogger(t *testing.T) {
	t.Helper()
	out, flags := log.Writer(), log.Flags()
	t.Cleanup(func() {
		log.SetOutput(out)
		log.SetFlags(flags)
	})
}

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	tests := []struct {
		name      string
		version   string
		buildTime string
		gitCommit string
	}{
		{"release build", "1.2.3", "2026-03-01_10:30:00", "abc123"},
		{"defaults", "dev", "unknown", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, buildTime, gitCommit = tt.version, tt.buildTime, tt.gitCommit

			var buf bytes.Buffer
			printVersion(&buf)

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			want := []string{
				"MCP PDF Signer",
				"Version: " + tt.version,
				"Build Time: " + tt.buildTime,
				"Git Commit: " + tt.gitCommit,
				"Built with: " + runtime.Version(),
			}
			if len(lines) != len(want) {
				t.Fatalf("printVersion() printed %d lines, want %d:\n%s", len(lines), len(want), buf.String())
			}
			for i := range want {
				if lines[i] != want[i] {
					t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
				}
			}
		})
	}
}

func TestSetupLogging(t *testing.T) {
	tests := []struct {
		name      string
		mode      string
		logLevel  string
		wantOut   io.Writer
		wantFlags int
	}{
		{"stdio is silent", config.ModeStdio, "info", io.Discard, log.LstdFlags},
		{"stdio debug writes stderr", config.ModeStdio, "debug", os.Stderr, log.LstdFlags},
		{"server adds file positions", config.ModeServer, "info", nil, log.LstdFlags | log.Lshortfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restoreLogger(t)
			sentinel := &bytes.Buffer{}
			log.SetOutput(sentinel)
			log.SetFlags(log.LstdFlags)

			cfg := config.DefaultConfig()
			cfg.Mode = tt.mode
			cfg.LogLevel = tt.logLevel
			setupLogging(cfg)

			want := tt.wantOut
			if want == nil {
				// server mode leaves the destination alone
				want = sentinel
			}
			if got := log.Writer(); got != want {
				t.Errorf("log output = %T, want %T", got, want)
			}
			if got := log.Flags(); got != tt.wantFlags {
				t.Errorf("log flags = %d, want %d", got, tt.wantFlags)
			}
		})
	}
}

func TestSetupLogging_StdioKeepsStdoutClean(t *testing.T) {
	restoreLogger(t)

	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeStdio
	cfg.LogLevel = "debug"
	setupLogging(cfg)

	if log.Writer() == os.Stdout {
		t.Error("stdio mode must never log to stdout")
	}
}

func TestIsVersionArg(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"no args", nil, false},
		{"long flag", []string{"--version"}, true},
		{"single dash", []string{"-version"}, true},
		{"short flag", []string{"-v"}, true},
		{"after other flags", []string{"--mode", "server", "-v"}, true},
		{"other flags only", []string{"--mode", "stdio", "--port", "9090"}, false},
		{"value that looks similar", []string{"--log-level", "verbose"}, false},
		{"prefix is not enough", []string{"--versions"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isVersionArg(tt.args); got != tt.want {
				t.Errorf("isVersionArg(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestApplyBuildVersion(t *testing.T) {
	tests := []struct {
		name         string
		buildVersion string
		want         string
	}{
		{"dev build keeps configured version", "dev", "0.9.0"},
		{"release build overrides", "1.2.3", "1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Version = "0.9.0"
			applyBuildVersion(cfg, tt.buildVersion)
			if cfg.Version != tt.want {
				t.Errorf("cfg.Version = %q, want %q", cfg.Version, tt.want)
			}
		})
	}
}

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataDirectory = dir
	cfg.DBDriver = config.DriverSQLite
	cfg.DBDSN = filepath.Join(dir, "signer.db")
	return cfg
}

func TestSetup(t *testing.T) {
	cfg := localConfig(t)

	server, rt, err := setup(context.Background(), cfg)
	if err != nil {
		t.Fatalf("setup() error = %v", err)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}()

	if server == nil {
		t.Fatal("setup() returned a nil server")
	}
	if rt.Service == nil {
		t.Error("runtime has no service")
	}
	if _, err := os.Stat(cfg.DBDSN); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestSetup_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "unknown storage backend",
			mutate:  func(c *config.Config) { c.Storage = "ftp" },
			wantErr: "unsupported storage backend: ftp",
		},
		{
			name:    "unknown database driver",
			mutate:  func(c *config.Config) { c.DBDriver = "mysql" },
			wantErr: "unsupported database driver: mysql",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := localConfig(t)
			tt.mutate(cfg)

			server, rt, err := setup(context.Background(), cfg)
			if err == nil {
				_ = rt.Close()
				t.Fatal("setup() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("setup() error = %q, want it to contain %q", err, tt.wantErr)
			}
			if server != nil || rt != nil {
				t.Error("setup() returned values alongside an error")
			}
		})
	}
}
