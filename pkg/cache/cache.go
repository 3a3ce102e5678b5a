// Package cache stores rendered artifacts keyed by document content.
//
// Rendering a large group through Graphviz is the slowest step of the
// render command and the API. The [Runner] in package pipeline keys each
// artifact by the hash of the document bytes plus the render options, so an
// unchanged document renders once.
//
// [FileCache] persists entries under a directory for the CLI; [NullCache]
// disables caching.
//
// [Runner]: github.com/matzehuels/nodeio/pkg/pipeline.Runner
package cache

import (
	"context"
	"time"
)

// TTLArtifact is how long a rendered artifact stays valid.
const TTLArtifact = 7 * 24 * time.Hour

// Cache is a byte store with expiring entries.
type Cache interface {
	// Get returns the entry for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Removing a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// ArtifactKeyOpts are the render options that change an artifact.
type ArtifactKeyOpts struct {
	Group    string `json:"group"`
	Format   string `json:"format"`
	Detailed bool   `json:"detailed"`
}

// ArtifactKey returns the key of a rendered artifact of the document whose
// content hashes to docHash.
func ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", docHash, opts)
}
