package cache

import (
	"context"
	"fmt"

	"github.com/matzehuels/icebergviz/pkg/config"
)

// Open creates the backend named by cfg.Backend. An empty file cache
// directory uses DefaultDir.
func Open(ctx context.Context, cfg config.Cache) (Cache, error) {
	switch cfg.Backend {
	case config.CacheFile, "":
		dir := cfg.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, fmt.Errorf("cache dir: %w", err)
			}
			dir = d
		}
		return NewFileCache(dir)
	case config.CacheRedis:
		return NewRedisCache(ctx, cfg.RedisAddr)
	case config.CacheMongo:
		return NewMongoCache(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.CacheNone:
		return NewNullCache(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
}
