package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/matzehuels/prereqgraph/pkg/cache"
	perrors "github.com/matzehuels/prereqgraph/pkg/errors"
	"github.com/matzehuels/prereqgraph/pkg/source"
	"github.com/matzehuels/prereqgraph/pkg/source/local"
	"github.com/matzehuels/prereqgraph/pkg/source/mongo"
	"github.com/matzehuels/prereqgraph/pkg/source/postgres"
)

// Open connects to the configured source.
func (c SourceConfig) Open(ctx context.Context) (source.Source, error) {
	switch c.Kind {
	case SourceLocal:
		return local.New(c.Dir)
	case SourcePostgres:
		return postgres.New(ctx, c.DatabaseURL)
	case SourceMongo:
		return mongo.New(ctx, c.MongoURI, c.MongoDatabase)
	default:
		return nil, perrors.New(perrors.ErrCodeInvalidInput, "invalid source kind: %q", c.Kind)
	}
}

// Open connects to the configured cache backend. An unusable file cache
// directory degrades to no caching, as the cache is never required for
// correctness.
func (c CacheConfig) Open(ctx context.Context) (cache.Cache, error) {
	switch c.Backend {
	case CacheNone:
		return cache.NewNullCache(), nil
	case CacheRedis:
		return cache.NewRedisCache(ctx, c.RedisURL)
	case CacheFile, "":
		dir := c.Dir
		if dir == "" {
			d, err := CacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return fc, nil
	default:
		return nil, perrors.New(perrors.ErrCodeInvalidInput, "invalid cache backend: %q", c.Backend)
	}
}

// Keyer returns the cache keyer, scoped by Prefix when set.
func (c CacheConfig) Keyer() cache.Keyer {
	if c.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.Prefix)
}

// CacheDir returns the cache directory using the XDG standard
// (~/.cache/prereqgraph/).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
