package traffic

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bussin-buses/trafficwatch/pkg/datastore"
	da "github.com/bussin-buses/trafficwatch/pkg/datastructure"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type blockingFeed struct {
	fetchCalls int32
	started    chan struct{}
	release    chan struct{}
}

func (f *blockingFeed) FetchCameras(ctx context.Context) ([]da.Camera, error) {
	if atomic.AddInt32(&f.fetchCalls, 1) == 1 {
		close(f.started)
		<-f.release
	}
	return []da.Camera{{ID: "1001", Lat: 1.3, Lng: 103.9}}, nil
}

func (f *blockingFeed) DownloadImages(ctx context.Context, cameras []da.Camera) int {
	return len(cameras)
}

type noopBatch struct{}

func (noopBatch) AnalyzeBatch(ctx context.Context) error { return nil }

func TestRunCycleOverlapGuard(t *testing.T) {
	store := datastore.NewCongestionStore(filepath.Join(t.TempDir(), "congestion.json"), zap.NewNop())
	feed := &blockingFeed{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	scheduler := NewScheduler(feed, store, noopBatch{}, time.Hour, zap.NewNop())

	done := make(chan struct{})
	go func() {
		scheduler.RunCycle(context.Background())
		close(done)
	}()

	<-feed.started
	require.True(t, scheduler.IsRunning())

	// tick fires while the first cycle is still in flight: dropped, not queued
	scheduler.RunCycle(context.Background())
	require.Equal(t, int32(1), atomic.LoadInt32(&feed.fetchCalls))

	close(feed.release)
	<-done
	require.False(t, scheduler.IsRunning())

	// with the guard released, the next cycle runs again
	scheduler.RunCycle(context.Background())
	require.Equal(t, int32(2), atomic.LoadInt32(&feed.fetchCalls))
}

type failingFeed struct{ calls int32 }

func (f *failingFeed) FetchCameras(ctx context.Context) ([]da.Camera, error) {
	atomic.AddInt32(&f.calls, 1)
	return nil, context.DeadlineExceeded
}

func (f *failingFeed) DownloadImages(ctx context.Context, cameras []da.Camera) int { return 0 }

func TestRunCycleReleasesGuardAfterFailure(t *testing.T) {
	store := datastore.NewCongestionStore(filepath.Join(t.TempDir(), "congestion.json"), zap.NewNop())
	feed := &failingFeed{}
	scheduler := NewScheduler(feed, store, noopBatch{}, time.Hour, zap.NewNop())

	scheduler.RunCycle(context.Background())
	require.False(t, scheduler.IsRunning())

	scheduler.RunCycle(context.Background())
	require.Equal(t, int32(2), atomic.LoadInt32(&feed.calls))
}
