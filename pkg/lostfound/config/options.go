package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// WithEnv reads the environment into the config using cleanenv struct tags.
// Unset variables take their env-default, so apply it before other options.
//
//	PORT                  - Server port (default: "5555")
//	ENVIRONMENT           - development, production, testing
//	DATABASE_URL          - "memory", "mongodb://...", "postgres://..."
//	DATABASE_NAME         - MongoDB database name (default: "lostfound")
//	STORAGE_URL           - "memory://", "file://./files", "s3://bucket/prefix?region=..."
//	MAX_UPLOAD_SIZE       - Image size limit in bytes (default: 5 MiB)
//	CACHE_URL             - Optional "redis://..." list cache
//	CACHE_TTL             - Cache entry lifetime (default: 30s)
//	CORS_ALLOWED_ORIGINS  - Comma separated origins (default: any)
//	AWS_*                 - S3 credentials and endpoint
func WithEnv() Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return nil
	}
}

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabaseURL selects the item store
func WithDatabaseURL(url string) Option {
	return func(c *ServerConfig) error {
		c.DatabaseURL = url
		return nil
	}
}

// WithStorageURL selects the asset store
func WithStorageURL(url string) Option {
	return func(c *ServerConfig) error {
		c.StorageURL = url
		return nil
	}
}

// WithCache enables the Redis list cache
func WithCache(url string, ttl time.Duration) Option {
	return func(c *ServerConfig) error {
		if url == "" {
			return fmt.Errorf("cache url cannot be empty")
		}
		c.CacheURL = url
		if ttl > 0 {
			c.CacheTTL = ttl
		}
		return nil
	}
}

// WithMaxUploadSize sets the image size limit in bytes
func WithMaxUploadSize(limit int64) Option {
	return func(c *ServerConfig) error {
		if limit <= 0 {
			return fmt.Errorf("max upload size must be positive, got: %d", limit)
		}
		c.MaxUploadSize = limit
		return nil
	}
}

// WithCORSOrigins restricts the origins allowed by CORS
func WithCORSOrigins(origins ...string) Option {
	return func(c *ServerConfig) error {
		c.CORSAllowedOrigins = origins
		return nil
	}
}
