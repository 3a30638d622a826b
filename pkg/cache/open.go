package cache

import (
	"context"
	"fmt"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendNone   = "none"
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Backend       string
	Dir           string // file
	MemorySize    int    // memory
	RedisURL      string // redis
	Prefix        string // redis key prefix
	MongoURI      string // mongo
	MongoDatabase string // mongo
}

// Open creates the backend named by cfg.Backend. An empty backend means file.
func Open(ctx context.Context, cfg Config) (Cache, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendNone:
		return NewNullCache(), nil
	case "", BackendFile:
		dir := cfg.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		return NewFileCache(dir)
	case BackendMemory:
		return NewMemoryCache(cfg.MemorySize)
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis cache: url is required")
		}
		return NewRedisCache(ctx, cfg.RedisURL, cfg.Prefix)
	case BackendMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("mongo cache: uri is required")
		}
		db := cfg.MongoDatabase
		if db == "" {
			db = "stacklineage"
		}
		return NewMongoCache(ctx, cfg.MongoURI, db)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
