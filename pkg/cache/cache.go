// Package cache stores rendered artifacts between CLI runs.
//
// Rendering a diagram is deterministic in its inputs, so artifacts are
// keyed by a hash of the diagram definition plus the render options.
// The file cache backs repeated renders of unchanged diagrams; the null
// cache disables caching entirely.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with optional expiration.
type Cache interface {
	// Get retrieves a value. The boolean reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases any backing resources.
	Close() error
}

// ArtifactKeyOpts captures every render option that affects output bytes.
// Two renders with equal diagram hashes and equal opts produce identical
// artifacts.
type ArtifactKeyOpts struct {
	Format       string
	Width        float64
	MaxAutoscale float64
	CornerRadius float64
	NodeWidth    float64
	NodeHeight   float64
	FontSize     float64
	EdgeFontSize float64
	Pad          float64
	Title        string
}

// Keyer generates cache keys for rendered artifacts.
type Keyer interface {
	ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the diagram hash together with the options.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", diagramHash, opts)
}
