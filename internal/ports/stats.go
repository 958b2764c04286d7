package ports

import (
	"context"

	domainstats "github.com/pantrykit/pantry-ui-api/internal/domain/stats"
)

// StatsSource fetches one complete statistics snapshot from upstream.
// A non-nil error means the fetch failed as a whole; partial snapshots are
// never returned.
type StatsSource interface {
	Fetch(ctx context.Context) (domainstats.Snapshot, error)
}
