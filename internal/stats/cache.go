// Package stats provides the live statistics cache: one upstream poll loop
// multicast to any number of observers.
package stats

import (
	"context"
	"log/slog"
	"sync"
	"time"

	domainstats "github.com/pantrykit/pantry-ui-api/internal/domain/stats"
	errclass "github.com/pantrykit/pantry-ui-api/internal/observability/errors"
	"github.com/pantrykit/pantry-ui-api/internal/observability/statsd"
	"github.com/pantrykit/pantry-ui-api/internal/ports"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshInterval is used when the configured interval is not positive.
const DefaultRefreshInterval = 30 * time.Second

// SnapshotSink receives each refreshed snapshot, e.g. to persist the latest
// value in Redis for plain request/response reads. Sink failures are logged
// and never interrupt the refresh cycle.
type SnapshotSink interface {
	Store(ctx context.Context, snap domainstats.Snapshot) error
}

// CacheOptions bundles dependencies for NewCache.
type CacheOptions struct {
	Source   ports.StatsSource
	Interval time.Duration
	Sink     SnapshotSink // optional
	Metrics  statsd.Sink  // optional
	Logger   *slog.Logger // optional
}

// Cache polls the stats source on a fixed period and multicasts the latest
// snapshot to all subscribers.
//
// The poll loop is reference-counted: it starts when the first subscriber
// attaches and is torn down when the last one detaches, so resource use is
// bounded by observed demand. All concurrently attached subscribers observe
// the same snapshot at the same logical time; none can force an
// out-of-cycle fetch. A failed fetch emits the zero snapshot rather than an
// error, so dependent consumers never crash or hang on a transient upstream
// failure.
type Cache struct {
	source   ports.StatsSource
	interval time.Duration
	sink     SnapshotSink
	metrics  statsd.Sink
	log      *slog.Logger

	// fetches collapses concurrent refresh attempts into one upstream call.
	fetches singleflight.Group

	mu         sync.Mutex
	latest     domainstats.Snapshot
	hasLatest  bool
	subs       map[uint64]chan domainstats.Snapshot
	nextID     uint64
	cancelLoop context.CancelFunc
	loopDone   chan struct{}
}

// NewCache creates a Cache. The poll loop does not start until the first
// subscriber attaches.
func NewCache(opts CacheOptions) *Cache {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		source:   opts.Source,
		interval: interval,
		sink:     opts.Sink,
		metrics:  opts.Metrics,
		log:      logger,
		subs:     make(map[uint64]chan domainstats.Snapshot),
	}
}

// Latest returns the most recently refreshed snapshot and whether one
// exists yet. It never triggers a fetch.
func (c *Cache) Latest() (domainstats.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest, c.hasLatest
}

// Subscribe attaches an observer. The returned channel yields the latest
// cached snapshot immediately when one exists, then every future refresh,
// and closes when ctx is cancelled. Historical snapshots are never
// replayed. Subscribers are conflated to the newest value: a consumer that
// falls behind skips straight to the latest snapshot rather than reading a
// stale backlog.
func (c *Cache) Subscribe(ctx context.Context) <-chan domainstats.Snapshot {
	ch := make(chan domainstats.Snapshot, 1)

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	if c.hasLatest {
		ch <- c.latest
	}
	if len(c.subs) == 1 {
		c.startLoopLocked()
	}
	count := len(c.subs)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.Gauge("stats.subscribers", float64(count), nil)
	}

	go func() {
		<-ctx.Done()
		c.unsubscribe(id)
	}()

	return ch
}

// startLoopLocked launches the poll loop. Caller holds c.mu.
func (c *Cache) startLoopLocked() {
	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancelLoop = cancel
	c.loopDone = done
	go c.run(loopCtx, done)
}

// unsubscribe detaches one observer and tears down the loop when it was the
// last one. Detaching never affects other subscriptions.
func (c *Cache) unsubscribe(id uint64) {
	c.mu.Lock()
	ch, ok := c.subs[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.subs, id)
	var cancel context.CancelFunc
	var done chan struct{}
	if len(c.subs) == 0 {
		cancel = c.cancelLoop
		done = c.loopDone
		c.cancelLoop = nil
		c.loopDone = nil
	}
	count := len(c.subs)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.Gauge("stats.subscribers", float64(count), nil)
	}

	close(ch)
	if cancel != nil {
		cancel()
		<-done
	}
}

// run executes one immediate refresh, then refreshes on the fixed period
// until the loop context is cancelled.
func (c *Cache) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	c.refresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refresh(ctx)
		}
	}
}

// refresh performs one upstream fetch and publishes the result. Concurrent
// activations (e.g. a loop restart racing a shutdown) share the in-flight
// fetch via singleflight rather than issuing redundant calls.
func (c *Cache) refresh(ctx context.Context) {
	start := time.Now()
	v, err, _ := c.fetches.Do("refresh", func() (any, error) {
		return c.source.Fetch(ctx)
	})
	if c.metrics != nil {
		c.metrics.Timing("stats.refresh", time.Since(start), nil)
	}

	snap, ok := v.(domainstats.Snapshot)
	if err != nil || !ok {
		if err != nil && ctx.Err() == nil {
			c.log.Warn("stats fetch failed, emitting fallback snapshot", "error", err)
			if c.metrics != nil {
				c.metrics.Count("stats.refresh_failure", 1, map[string]string{
					"error_type": errclass.Classify(err),
				})
			}
		}
		snap = domainstats.ZeroSnapshot()
	}

	if c.sink != nil && err == nil {
		if sinkErr := c.sink.Store(ctx, snap); sinkErr != nil && ctx.Err() == nil {
			c.log.Warn("persisting stats snapshot failed", "error", sinkErr)
		}
	}

	c.publish(snap)
}

// publish replaces the cached snapshot and fans it out to all subscribers.
func (c *Cache) publish(snap domainstats.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest = snap
	c.hasLatest = true
	for _, ch := range c.subs {
		// Conflate: drop the unread previous value so the channel always
		// holds the newest snapshot.
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
