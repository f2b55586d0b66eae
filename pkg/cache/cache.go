package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache stores opaque byte values under string keys.
//
// A miss is (nil, false, nil); errors are reserved for backend failures.
// A ttl of zero means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry they hold.
// It returns the number of entries removed.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// Default TTLs per pipeline stage. The last-known topology is kept for a
// week so offline renders keep working; layouts and artifacts are derived
// data and expire sooner.
const (
	TTLTopology = 7 * 24 * time.Hour
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// =============================================================================
// Null Cache
// =============================================================================

// NullCache never stores anything. It backs --no-cache runs and tests.
type NullCache struct{}

// NewNullCache returns a cache that always misses.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }

// =============================================================================
// JSON helpers
// =============================================================================

// GetJSON reads key and decodes it into v. Undecodable entries count as a
// miss and are deleted.
func GetJSON(ctx context.Context, c Cache, key string, v any) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		_ = c.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	return c.Set(ctx, key, data, ttl)
}

// =============================================================================
// Keys
// =============================================================================

// Keyer derives cache keys for each pipeline stage.
type Keyer interface {
	// TopologyKey names a fetched topology, keyed by its source (backend
	// URL or input file).
	TopologyKey(source string) string
	// LayoutKey names computed positions for a graph.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	// ArtifactKey names a rendered output.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the inputs that change computed positions.
type LayoutKeyOpts struct {
	Mode   string  `json:"mode"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Seed   uint64  `json:"seed"`
}

// ArtifactKeyOpts are the inputs that change rendered bytes.
type ArtifactKeyOpts struct {
	Format      string `json:"format"`
	Legend      bool   `json:"legend,omitempty"`
	Interactive bool   `json:"interactive,omitempty"`
	Detailed    bool   `json:"detailed,omitempty"`
	Title       string `json:"title,omitempty"`
}

// DefaultKeyer produces "stage:sha256" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// Key stage prefixes written by DefaultKeyer.
const (
	StageTopology = "topology"
	StageLayout   = "layout"
	StageArtifact = "artifact"
)

var stages = []string{StageTopology, StageLayout, StageArtifact}

func (DefaultKeyer) TopologyKey(source string) string {
	return hashKey(StageTopology, source)
}

func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey(StageLayout, graphHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey(StageArtifact, layoutHash, opts)
}

func hashKey(stage string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return stage + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
