package pipeline

import (
	"context"
	"path/filepath"

	"github.com/beepf/topoconsole/pkg/errors"
	"github.com/beepf/topoconsole/pkg/topology"
)

// Source supplies a topology. [client.Client] is the backend source.
type Source interface {
	// Name identifies the source in cache keys and logs.
	Name() string
	GetTopology(ctx context.Context) (topology.Topology, error)
}

// FileSource reads a topology JSON document from disk, in the same shape
// the backend returns.
type FileSource struct {
	Path string
}

// Name implements Source.
func (s FileSource) Name() string {
	if abs, err := filepath.Abs(s.Path); err == nil {
		return "file:" + abs
	}
	return "file:" + s.Path
}

// GetTopology implements Source.
func (s FileSource) GetTopology(ctx context.Context) (topology.Topology, error) {
	if err := errors.ValidatePath(s.Path); err != nil {
		return topology.Topology{}, err
	}
	t, err := topology.ReadFile(s.Path)
	if err != nil {
		return topology.Topology{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read topology")
	}
	return t, nil
}

// StaticSource serves a fixed topology.
type StaticSource struct {
	Label    string
	Topology topology.Topology
}

// Name implements Source.
func (s StaticSource) Name() string {
	if s.Label == "" {
		return "static"
	}
	return s.Label
}

// GetTopology implements Source.
func (s StaticSource) GetTopology(context.Context) (topology.Topology, error) {
	return s.Topology.Normalized(), nil
}
