package stats

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainstats "github.com/pantrykit/pantry-ui-api/internal/domain/stats"
	"github.com/pantrykit/pantry-ui-api/internal/mocks"
)

// countingSource returns a fixed snapshot and counts upstream fetches.
type countingSource struct {
	snap    domainstats.Snapshot
	err     error
	fetches atomic.Int64
}

func (s *countingSource) Fetch(context.Context) (domainstats.Snapshot, error) {
	s.fetches.Add(1)
	if s.err != nil {
		return domainstats.Snapshot{}, s.err
	}
	return s.snap, nil
}

// recordingSink captures snapshots persisted by the cache.
type recordingSink struct {
	mu    sync.Mutex
	snaps []domainstats.Snapshot
}

func (s *recordingSink) Store(_ context.Context, snap domainstats.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
	return nil
}

func (s *recordingSink) stored() []domainstats.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domainstats.Snapshot(nil), s.snaps...)
}

func testSnapshot() domainstats.Snapshot {
	return domainstats.Snapshot{
		RecipeCount:    12,
		InventoryCount: 48,
		UserCount:      7,
		CuisineCount:   5,
		InventoryValue: 1234.50,
	}
}

// recvSnap reads one snapshot with a timeout.
func recvSnap(t *testing.T, ch <-chan domainstats.Snapshot) domainstats.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "snapshot channel closed unexpectedly")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return domainstats.Snapshot{}
	}
}

func TestSubscribeStartsLoopAndDeliversFirstSnapshot(t *testing.T) {
	source := &countingSource{snap: testSnapshot()}
	// Long interval so only the immediate fetch runs during the test.
	cache := NewCache(CacheOptions{Source: source, Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := cache.Subscribe(ctx)
	assert.Equal(t, testSnapshot(), recvSnap(t, ch))
	assert.Equal(t, int64(1), source.fetches.Load())

	latest, ok := cache.Latest()
	require.True(t, ok)
	assert.Equal(t, testSnapshot(), latest)
}

func TestLateSubscriberGetsOnlyLatestWithoutFetch(t *testing.T) {
	source := &countingSource{snap: testSnapshot()}
	cache := NewCache(CacheOptions{Source: source, Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := cache.Subscribe(ctx)
	recvSnap(t, first)

	second := cache.Subscribe(ctx)
	assert.Equal(t, testSnapshot(), recvSnap(t, second))

	// Attaching the second observer triggered no upstream call.
	assert.Equal(t, int64(1), source.fetches.Load())
}

func TestFetchFailureEmitsZeroSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockStatsSource(ctrl)
	source.EXPECT().
		Fetch(gomock.Any()).
		Return(domainstats.Snapshot{}, errors.New("upstream unavailable")).
		AnyTimes()

	cache := NewCache(CacheOptions{Source: source, Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := cache.Subscribe(ctx)
	assert.Equal(t, domainstats.ZeroSnapshot(), recvSnap(t, ch))
}

func TestSinkReceivesOnlySuccessfulSnapshots(t *testing.T) {
	sink := &recordingSink{}
	source := &countingSource{snap: testSnapshot()}
	cache := NewCache(CacheOptions{Source: source, Interval: time.Hour, Sink: sink})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recvSnap(t, cache.Subscribe(ctx))

	require.Eventually(t, func() bool {
		return len(sink.stored()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, testSnapshot(), sink.stored()[0])
}

func TestSinkSkippedOnFailure(t *testing.T) {
	sink := &recordingSink{}
	source := &countingSource{err: errors.New("boom")}
	cache := NewCache(CacheOptions{Source: source, Interval: time.Hour, Sink: sink})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recvSnap(t, cache.Subscribe(ctx))
	assert.Empty(t, sink.stored())
}

func TestLastUnsubscribeStopsPolling(t *testing.T) {
	source := &countingSource{snap: testSnapshot()}
	cache := NewCache(CacheOptions{Source: source, Interval: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	ch := cache.Subscribe(ctx)
	recvSnap(t, ch)

	cancel()

	// Wait for the subscription channel to close, which happens after the
	// loop has fully stopped.
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)

	settled := source.fetches.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, source.fetches.Load())
}

func TestResubscribeRestartsLoop(t *testing.T) {
	source := &countingSource{snap: testSnapshot()}
	cache := NewCache(CacheOptions{Source: source, Interval: time.Hour})

	ctx1, cancel1 := context.WithCancel(context.Background())
	ch1 := cache.Subscribe(ctx1)
	recvSnap(t, ch1)
	cancel1()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch1:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()

	ch2 := cache.Subscribe(ctx2)
	recvSnap(t, ch2)

	// Only a running loop fetches, so a second fetch proves the restart.
	// It lands asynchronously after the replayed cached value, possibly
	// conflating with it, so poll the counter rather than the channel.
	require.Eventually(t, func() bool {
		return source.fetches.Load() == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestPeriodicRefreshReachesSubscriber(t *testing.T) {
	source := &countingSource{snap: testSnapshot()}
	cache := NewCache(CacheOptions{Source: source, Interval: 15 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := cache.Subscribe(ctx)
	recvSnap(t, ch)

	// A later refresh produces another delivery.
	recvSnap(t, ch)
	assert.GreaterOrEqual(t, source.fetches.Load(), int64(2))
}
