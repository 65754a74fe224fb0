package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Blob storage backends
	StorageLocal = "local"
	StorageS3    = "s3"

	// Database drivers
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// Default values
	DefaultPort              = 8080
	DefaultHost              = "127.0.0.1"
	DefaultLogLevel          = "info"
	DefaultMaxFileSize       = 25 * 1024 * 1024 // 25MB
	DefaultDataDirectory     = "data"
	DefaultDatabaseName      = "signer.db"
	DefaultPresignTTL        = 15 * time.Minute
	DefaultSignatureMaxWidth = 1200

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "PDF_SIGN"
)

// Config holds all configuration for the PDF signing server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Honour X-Forwarded-For for signer addresses; only safe behind a proxy
	// that overwrites the header
	TrustProxy bool

	// Public base URL used for share links and local document URLs
	BaseURL string

	// Blob storage configuration
	Storage       string // "local" or "s3"
	DataDirectory string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	PresignTTL    time.Duration

	// Database configuration
	DBDriver string
	DBDSN    string

	// Signing configuration
	AdminSecret       string
	MaxFileSize       int64 // Maximum PDF file size in bytes
	SignatureMaxWidth int

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:              ModeStdio, // Default to stdio mode for MCP compatibility
		Host:              DefaultHost,
		Port:              DefaultPort,
		Storage:           StorageLocal,
		DataDirectory:     DefaultDataDirectory,
		PresignTTL:        DefaultPresignTTL,
		DBDriver:          DriverSQLite,
		MaxFileSize:       DefaultMaxFileSize,
		SignatureMaxWidth: DefaultSignatureMaxWidth,
		Version:           "1.0.0",
		ServerName:        "mcp-pdf-signer",
		LogLevel:          DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.DataDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.DataDirectory); err == nil {
			cfg.DataDirectory = expandedPath
		}
	}
	if cfg.DBDriver == DriverSQLite && cfg.DBDSN == "" {
		cfg.DBDSN = filepath.Join(cfg.DataDirectory, DefaultDatabaseName)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix; PDF_SIGN_DB_DSN maps to db-dsn
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("base-url", cfg.BaseURL)
	viper.SetDefault("storage", cfg.Storage)
	viper.SetDefault("dir", cfg.DataDirectory)
	viper.SetDefault("s3-bucket", cfg.S3Bucket)
	viper.SetDefault("s3-region", cfg.S3Region)
	viper.SetDefault("s3-endpoint", cfg.S3Endpoint)
	viper.SetDefault("presign-ttl", cfg.PresignTTL)
	viper.SetDefault("db-driver", cfg.DBDriver)
	viper.SetDefault("db-dsn", cfg.DBDSN)
	viper.SetDefault("admin-secret", cfg.AdminSecret)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("signature-max-width", cfg.SignatureMaxWidth)
	viper.SetDefault("trust-proxy", cfg.TrustProxy)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP/SSE server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("base-url", cfg.BaseURL, "Public base URL for share links and document downloads")
	pflag.String("storage", cfg.Storage, "Document storage backend: 'local' or 's3'")
	pflag.String("dir", cfg.DataDirectory, "Data directory for local documents and the SQLite database")
	pflag.String("s3-bucket", cfg.S3Bucket, "S3 bucket holding documents (s3 storage only)")
	pflag.String("s3-region", cfg.S3Region, "S3 region (s3 storage only)")
	pflag.String("s3-endpoint", cfg.S3Endpoint, "Custom endpoint for S3 compatible stores")
	pflag.Duration("presign-ttl", cfg.PresignTTL, "Lifetime of presigned document URLs")
	pflag.String("db-driver", cfg.DBDriver, "Database driver: 'sqlite' or 'postgres'")
	pflag.String("db-dsn", cfg.DBDSN, "Database connection string (defaults to <dir>/signer.db for sqlite)")
	pflag.String("admin-secret", cfg.AdminSecret, "HMAC secret used to verify administrator tokens")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.Int("signature-max-width", cfg.SignatureMaxWidth, "Maximum pixel width of stamped signatures")
	pflag.Bool("trust-proxy", cfg.TrustProxy, "Take signer addresses from X-Forwarded-For (server mode behind a proxy only)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "host", "port", "base-url", "storage", "dir",
		"s3-bucket", "s3-region", "s3-endpoint", "presign-ttl",
		"db-driver", "db-dsn", "admin-secret",
		"loglevel", "maxfilesize", "signature-max-width", "trust-proxy",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP PDF Signer - A Model Context Protocol server for PDF signature requests\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --admin-secret=changeme                         "+
			"# stdio mode, ./data storage (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --base-url=https://sign.example.com # SSE server\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --storage=s3 --s3-bucket=docs --db-driver=postgres "+
			"--db-dsn=postgres://...\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  PDF_SIGN_MODE          Server mode\n")
		fmt.Fprintf(os.Stderr, "  PDF_SIGN_HOST          Server host\n")
		fmt.Fprintf(os.Stderr, "  PDF_SIGN_PORT          Server port\n")
		fmt.Fprintf(os.Stderr, "  PDF_SIGN_BASE_URL      Public base URL\n")
		fmt.Fprintf(os.Stderr, "  PDF_SIGN_STORAGE       Storage backend\n")
		fmt.Fprintf(os.Stderr, "  PDF_SIGN_DIR           Data directory\n")
		fmt.Fprintf(os.Stderr, "  PDF_SIGN_S3_BUCKET     S3 bucket\n")
		fmt.Fprintf(os.Stderr, "  PDF_SIGN_DB_DRIVER     Database driver\n")
		fmt.Fprintf(os.Stderr, "  PDF_SIGN_DB_DSN        Database connection string\n")
		fmt.Fprintf(os.Stderr, "  PDF_SIGN_ADMIN_SECRET  Administrator token secret\n")
		fmt.Fprintf(os.Stderr, "  PDF_SIGN_LOGLEVEL      Log level\n")
		fmt.Fprintf(os.Stderr, "  PDF_SIGN_MAXFILESIZE   Maximum file size\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.BaseURL = strings.TrimSuffix(viper.GetString("base-url"), "/")
	cfg.Storage = viper.GetString("storage")
	cfg.DataDirectory = viper.GetString("dir")
	cfg.S3Bucket = viper.GetString("s3-bucket")
	cfg.S3Region = viper.GetString("s3-region")
	cfg.S3Endpoint = viper.GetString("s3-endpoint")
	cfg.PresignTTL = viper.GetDuration("presign-ttl")
	cfg.DBDriver = viper.GetString("db-driver")
	cfg.DBDSN = viper.GetString("db-dsn")
	cfg.AdminSecret = viper.GetString("admin-secret")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.SignatureMaxWidth = viper.GetInt("signature-max-width")
	cfg.TrustProxy = viper.GetBool("trust-proxy")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	switch c.Storage {
	case StorageLocal:
		if err := c.ensureDataDirectory(); err != nil {
			return err
		}
	case StorageS3:
		if c.S3Bucket == "" {
			return errors.New("s3 storage requires a bucket")
		}
		if c.PresignTTL <= 0 {
			return errors.New("presign TTL must be positive")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (must be one of: local, s3)", c.Storage)
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DBDSN == "" {
			return errors.New("sqlite database path cannot be empty")
		}
		if err := c.ensureDataDirectory(); err != nil {
			return err
		}
	case DriverPostgres:
		if c.DBDSN == "" {
			return errors.New("postgres requires a connection string")
		}
	default:
		return fmt.Errorf("invalid database driver: %s (must be one of: sqlite, postgres)", c.DBDriver)
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.SignatureMaxWidth <= 0 {
		return errors.New("signature max width must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// ensureDataDirectory creates the data directory when it is missing
func (c *Config) ensureDataDirectory() error {
	if c.DataDirectory == "" {
		return errors.New("data directory cannot be empty")
	}
	if _, err := os.Stat(c.DataDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.DataDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create data directory %s: %w", c.DataDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access data directory %s: %w", c.DataDirectory, err)
	}
	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// ShareURL returns the link a signer opens for token
func (c *Config) ShareURL(token string) string {
	if c.BaseURL == "" {
		return token
	}
	return c.BaseURL + "/sign/" + token
}

// String returns a string representation of the configuration. Secrets are omitted.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, Storage: %s, DataDirectory: %s, DBDriver: %s, "+
		"LogLevel: %s, MaxFileSize: %d, AdminGate: %t}",
		c.Mode, c.Host, c.Port, c.Storage, c.DataDirectory, c.DBDriver,
		c.LogLevel, c.MaxFileSize, c.AdminSecret != "")
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
