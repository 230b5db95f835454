package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tendant/lost-and-found/pkg/lostfound"
	"github.com/tendant/lost-and-found/pkg/lostfound/cache"
	"github.com/tendant/lost-and-found/pkg/lostfound/repo/memory"
	repomongo "github.com/tendant/lost-and-found/pkg/lostfound/repo/mongo"
	repopg "github.com/tendant/lost-and-found/pkg/lostfound/repo/postgres"
	fsstorage "github.com/tendant/lost-and-found/pkg/lostfound/storage/fs"
	memorystorage "github.com/tendant/lost-and-found/pkg/lostfound/storage/memory"
	s3storage "github.com/tendant/lost-and-found/pkg/lostfound/storage/s3"
)

// App is the assembled service with everything it owns.
type App struct {
	Config     *ServerConfig
	Service    lostfound.Service
	Repository lostfound.Repository
	Assets     lostfound.AssetStore

	closers []func(context.Context) error
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Build connects the configured backends and creates the service. A store
// that cannot be reached is an error; nothing runs degraded.
func (c *ServerConfig) Build(ctx context.Context) (*App, error) {
	app := &App{Config: c}

	repo, err := c.buildRepository(ctx, app)
	if err != nil {
		_ = app.Close(ctx)
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	if c.CacheURL != "" {
		repo, err = c.wrapCache(ctx, app, repo)
		if err != nil {
			_ = app.Close(ctx)
			return nil, fmt.Errorf("failed to build cache: %w", err)
		}
	}
	app.Repository = repo

	assets, err := c.buildAssetStore(ctx)
	if err != nil {
		_ = app.Close(ctx)
		return nil, fmt.Errorf("failed to build asset store: %w", err)
	}
	app.Assets = assets

	svc, err := lostfound.New(
		lostfound.WithRepository(repo),
		lostfound.WithAssetStore(assets),
	)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	app.Service = svc

	return app, nil
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context, app *App) (lostfound.Repository, error) {
	target, err := c.Database()
	if err != nil {
		return nil, err
	}

	switch target.Kind {
	case DatabaseMemory:
		slog.Warn("Using in-memory item store; data is lost on restart")
		return memory.New(), nil

	case DatabaseMongo:
		repo, err := repomongo.Connect(ctx, target.URL, c.DatabaseName)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, repo.Close)
		if c.AutoMigrate {
			if err := repo.EnsureIndexes(ctx); err != nil {
				return nil, fmt.Errorf("failed to create indexes: %w", err)
			}
		}
		slog.Info("Connected to MongoDB", "database", c.DatabaseName)
		return repo, nil

	case DatabasePostgres:
		pool, err := pgxpool.New(ctx, target.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		repo := repopg.NewWithPool(pool)
		app.closers = append(app.closers, repo.Close)
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		if c.AutoMigrate {
			if err := repo.Migrate(ctx); err != nil {
				return nil, fmt.Errorf("failed to migrate schema: %w", err)
			}
		}
		slog.Info("Connected to Postgres")
		return repo, nil
	}

	return nil, fmt.Errorf("unsupported database type: %s", target.Kind)
}

func (c *ServerConfig) wrapCache(ctx context.Context, app *App, repo lostfound.Repository) (lostfound.Repository, error) {
	opts, err := redis.ParseURL(c.CacheURL)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_URL: %w", err)
	}
	client := redis.NewClient(opts)
	app.closers = append(app.closers, func(context.Context) error { return client.Close() })

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	slog.Info("Item list cache enabled", "addr", opts.Addr, "ttl", c.CacheTTL)
	return cache.New(client, repo, cache.Config{TTL: c.CacheTTL}), nil
}

// buildAssetStore creates an AssetStore based on the configuration
func (c *ServerConfig) buildAssetStore(ctx context.Context) (lostfound.AssetStore, error) {
	target, err := c.Storage()
	if err != nil {
		return nil, err
	}

	switch target.Kind {
	case StorageMemory:
		return memorystorage.New().WithMaxSize(c.MaxUploadSize), nil

	case StorageFS:
		slog.Info("Serving images from directory", "dir", target.Path)
		return fsstorage.New(fsstorage.Config{
			BaseDir: target.Path,
			MaxSize: c.MaxUploadSize,
		})

	case StorageS3:
		region := c.S3.Region
		if target.Region != "" {
			region = target.Region
		}
		endpoint := c.S3.Endpoint
		if target.Endpoint != "" {
			endpoint = target.Endpoint
		}
		return s3storage.New(ctx, s3storage.Config{
			Region:                 region,
			Bucket:                 target.Bucket,
			Prefix:                 target.Prefix,
			AccessKeyID:            c.S3.AccessKeyID,
			SecretAccessKey:        c.S3.SecretAccessKey,
			Endpoint:               endpoint,
			UsePathStyle:           c.S3.UsePathStyle,
			MaxSize:                c.MaxUploadSize,
			CreateBucketIfNotExist: c.S3.CreateBucketIfNotExist,
		})
	}

	return nil, fmt.Errorf("unsupported storage type: %s", target.Kind)
}
