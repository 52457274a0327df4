// Package cache memoizes solver verdicts keyed by canonical input text.
//
// A Store never returns errors. Anything that goes wrong underneath is
// logged and the operation degrades: a failed lookup is a miss, a failed
// insert leaves the result uncached, a failed debug record is dropped.
package cache

import (
	"context"

	"fpstab/internal/result"
)

// Store is the result cache seen by the pipeline.
type Store interface {
	// Lookup returns the cached result for the canonical input cmdin.
	Lookup(ctx context.Context, cmdin string) (result.StabilizerResult[string], bool)
	// Insert caches r under r.CmdIn. An existing row for the same input wins.
	Insert(ctx context.Context, r result.StabilizerResult[string])
	// RecordDebugInfo appends provenance for the cached row of cmdin.
	RecordDebugInfo(ctx context.Context, dbg result.DbgInfo, cmdin string)
}
