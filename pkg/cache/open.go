package cache

import (
	"context"
	"strings"

	"github.com/beepf/topoconsole/pkg/errors"
)

// Backend names accepted by Open.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Backends lists the accepted backend names.
var Backends = []string{BackendNone, BackendFile, BackendRedis, BackendMongo}

// Options selects and configures a cache backend.
type Options struct {
	Backend string

	// file
	Dir string

	// redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// mongo
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// Prefix namespaces keys in shared backends.
	Prefix string
}

// Open returns the cache named by opts.Backend. An empty backend means
// file, and an empty Dir means DefaultDir.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch strings.ToLower(opts.Backend) {
	case BackendNone, "null", "off":
		return NewNullCache(), nil
	case "", BackendFile:
		dir := opts.Dir
		if dir == "" {
			dir = DefaultDir()
		}
		return orNil(NewFileCache(dir))
	case BackendRedis:
		if opts.RedisAddr == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "redis cache requires an address")
		}
		return orNil(NewRedisCache(ctx, RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Prefix:   opts.Prefix,
		}))
	case BackendMongo:
		if opts.MongoURI == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "mongo cache requires a URI")
		}
		return orNil(NewMongoCache(ctx, MongoOptions{
			URI:        opts.MongoURI,
			Database:   opts.MongoDatabase,
			Collection: opts.MongoCollection,
		}))
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q (want one of %s)",
			opts.Backend, strings.Join(Backends, ", "))
	}
}

// orNil keeps a failed constructor from returning a non-nil interface
// holding a nil pointer.
func orNil[C Cache](c C, err error) (Cache, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}
