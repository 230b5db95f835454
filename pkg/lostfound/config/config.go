package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tendant/lost-and-found/pkg/lostfound/assetname"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// defaults mirrors the env-default tags below.
func defaults() ServerConfig {
	return ServerConfig{
		Port:          "5555",
		Environment:   "development",
		DatabaseURL:   "memory",
		DatabaseName:  "lostfound",
		StorageURL:    "file://./files",
		MaxUploadSize: assetname.DefaultMaxSize,
		CacheTTL:      30 * time.Second,
		AutoMigrate:   true,
		S3: S3Config{
			Region: "us-east-1",
		},
	}
}

// ServerConfig represents server configuration for the lost-and-found service
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"5555"`
	Environment string `env:"ENVIRONMENT" env-default:"development"` // development, production, testing

	// Item store: "memory", "mongodb://...", "postgres://..."
	DatabaseURL  string `env:"DATABASE_URL" env-default:"memory"`
	DatabaseName string `env:"DATABASE_NAME" env-default:"lostfound"` // MongoDB database
	AutoMigrate  bool   `env:"AUTO_MIGRATE" env-default:"true"`       // Postgres schema / Mongo indexes

	// Asset store: "memory://", "file:///path", "s3://bucket/prefix"
	StorageURL    string `env:"STORAGE_URL" env-default:"file://./files"`
	MaxUploadSize int64  `env:"MAX_UPLOAD_SIZE" env-default:"5242880"`

	// Optional Redis list cache, e.g. "redis://localhost:6379/0"
	CacheURL string        `env:"CACHE_URL"`
	CacheTTL time.Duration `env:"CACHE_TTL" env-default:"30s"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:","`

	S3 S3Config
}

// S3Config holds credentials and endpoint overrides for s3:// storage
type S3Config struct {
	Region                 string `env:"AWS_REGION" env-default:"us-east-1"`
	AccessKeyID            string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey        string `env:"AWS_SECRET_ACCESS_KEY"`
	Endpoint               string `env:"AWS_S3_ENDPOINT"`
	UsePathStyle           bool   `env:"AWS_S3_USE_PATH_STYLE"`
	CreateBucketIfNotExist bool   `env:"AWS_S3_CREATE_BUCKET"`
}

// IsProduction reports whether internal error detail must be hidden from clients.
func (c *ServerConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.MaxUploadSize <= 0 {
		return errors.New("max_upload_size must be positive")
	}

	db, err := c.Database()
	if err != nil {
		return err
	}
	if db.Kind == DatabaseMongo && c.DatabaseName == "" {
		return errors.New("database_name is required when using mongodb")
	}

	if _, err := c.Storage(); err != nil {
		return err
	}

	if c.CacheURL != "" && c.CacheTTL <= 0 {
		return errors.New("cache_ttl must be positive when cache_url is set")
	}

	return nil
}

// Database kinds
const (
	DatabaseMemory   = "memory"
	DatabaseMongo    = "mongodb"
	DatabasePostgres = "postgres"
)

// DatabaseTarget is a parsed DATABASE_URL.
type DatabaseTarget struct {
	Kind string
	URL  string
}

// Database parses DatabaseURL by scheme.
func (c *ServerConfig) Database() (DatabaseTarget, error) {
	raw := strings.TrimSpace(c.DatabaseURL)
	if raw == "" || raw == "memory" || raw == "memory://" {
		return DatabaseTarget{Kind: DatabaseMemory}, nil
	}

	switch {
	case strings.HasPrefix(raw, "mongodb://"), strings.HasPrefix(raw, "mongodb+srv://"):
		return DatabaseTarget{Kind: DatabaseMongo, URL: raw}, nil
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return DatabaseTarget{Kind: DatabasePostgres, URL: raw}, nil
	}

	return DatabaseTarget{}, fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory', 'mongodb://...' or 'postgres://...')", redact(raw))
}

// Storage kinds
const (
	StorageMemory = "memory"
	StorageFS     = "fs"
	StorageS3     = "s3"
)

// StorageTarget is a parsed STORAGE_URL.
type StorageTarget struct {
	Kind   string
	Path   string // fs base directory
	Bucket string // s3 bucket
	Prefix string // s3 key prefix
	Region string // s3 region override from ?region=
	// Endpoint overrides the S3 endpoint from ?endpoint=
	Endpoint string
}

// Storage parses StorageURL by scheme.
func (c *ServerConfig) Storage() (StorageTarget, error) {
	raw := strings.TrimSpace(c.StorageURL)
	if raw == "" || raw == "memory" || raw == "memory://" {
		return StorageTarget{Kind: StorageMemory}, nil
	}

	switch {
	case strings.HasPrefix(raw, "file://"):
		path := strings.TrimPrefix(raw, "file://")
		if path == "" {
			return StorageTarget{}, errors.New("filesystem path cannot be empty in STORAGE_URL")
		}
		return StorageTarget{Kind: StorageFS, Path: path}, nil

	case strings.HasPrefix(raw, "s3://"):
		u, err := url.Parse(raw)
		if err != nil {
			return StorageTarget{}, fmt.Errorf("invalid STORAGE_URL: %w", err)
		}
		if u.Host == "" {
			return StorageTarget{}, errors.New("S3 bucket name cannot be empty in STORAGE_URL")
		}
		prefix := strings.TrimPrefix(u.Path, "/")
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		q := u.Query()
		return StorageTarget{
			Kind:     StorageS3,
			Bucket:   u.Host,
			Prefix:   prefix,
			Region:   q.Get("region"),
			Endpoint: q.Get("endpoint"),
		}, nil
	}

	return StorageTarget{}, fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", raw)
}

// redact hides the password of a connection string in error messages.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
