// Package bootstrap assembles the process-wide dependencies shared by the
// server and the command-line tools.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"pubhub/internal/cache"
	"pubhub/internal/config"
	"pubhub/internal/database"
	"pubhub/internal/featureflags"
	"pubhub/internal/observability"
	"pubhub/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// Runtime holds the connections a process needs.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	Blobs *storage.LocalStore
	Flags *featureflags.Manager

	shutdownTracing func(context.Context) error
}

// Options control runtime initialization behavior.
type Options struct {
	// ServiceName labels traces; it defaults to "pubhub-api".
	ServiceName string
	// SkipRedis leaves Redis unconfigured, for tools that never cache.
	SkipRedis bool
}

// InitRuntime connects to the database and Redis, prepares blob storage and
// installs the tracer. Redis is optional: when it is unreachable Redis is nil.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = "pubhub-api"
	}
	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampler,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing setup failed: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	blobs, err := storage.NewLocalStore(cfg.StorageDir, cfg.MediaBaseURL)
	if err != nil {
		return nil, fmt.Errorf("blob storage setup failed: %w", err)
	}

	rt := &Runtime{
		DB:              db,
		Blobs:           blobs,
		Flags:           featureflags.NewManager(cfg.FeatureFlags),
		shutdownTracing: shutdownTracing,
	}
	if !opts.SkipRedis {
		rt.Redis = cache.InitRedis(cfg.RedisURL)
	}
	return rt, nil
}

// Close releases every connection held by rt.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.shutdownTracing != nil {
		if err := rt.shutdownTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if rt.DB != nil {
		if sqlDB, err := rt.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("database close: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}
