// Package cache stores fetched topologies, computed layouts and rendered
// artifacts between runs.
//
// # Backends
//
//   - [NullCache]: never stores (--no-cache)
//   - [FileCache]: JSON files under the user cache directory (CLI default)
//   - [RedisCache]: shared cache for several console servers
//   - [MongoCache]: shared cache with a TTL index
//
// [Open] picks one from configuration.
//
// # Keys
//
// A [Keyer] derives one key per pipeline stage. Layout keys hash the graph
// together with mode, size and seed, so identical inputs reuse positions
// across runs and servers:
//
//	key := keyer.LayoutKey(cache.Hash(graphJSON), cache.LayoutKeyOpts{Mode: "force", Width: 800, Height: 500, Seed: 42})
package cache
