package traffic

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bussin-buses/trafficwatch/pkg/datastore"
	da "github.com/bussin-buses/trafficwatch/pkg/datastructure"
	"github.com/bussin-buses/trafficwatch/pkg/metrics"
	"go.uber.org/zap"
)

const DefaultUpdateInterval = 3 * time.Minute

// CameraFeed is the camera-feed boundary the scheduler drives each cycle.
type CameraFeed interface {
	FetchCameras(ctx context.Context) ([]da.Camera, error)
	DownloadImages(ctx context.Context, cameras []da.Camera) int
}

// BatchAnalyzer runs one bounded-concurrency analysis pass over the
// downloaded images.
type BatchAnalyzer interface {
	AnalyzeBatch(ctx context.Context) error
}

// Scheduler triggers fetch-and-analyze cycles on a fixed interval. A single
// guard flag suppresses overlap: if a cycle is still running when the next
// tick fires, the tick is a logged no-op rather than a queued cycle.
type Scheduler struct {
	feed       CameraFeed
	congestion *datastore.CongestionStore
	analysis   BatchAnalyzer
	interval   time.Duration
	running    atomic.Bool
	log        *zap.Logger
}

func NewScheduler(feed CameraFeed, congestion *datastore.CongestionStore,
	analysis BatchAnalyzer, interval time.Duration, log *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultUpdateInterval
	}
	return &Scheduler{
		feed:       feed,
		congestion: congestion,
		analysis:   analysis,
		interval:   interval,
		log:        log,
	}
}

// Start runs an immediate first cycle and then one per tick until the
// context is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("update scheduler stopping", zap.Error(ctx.Err()))
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle executes one fetch → sync → download → analyze pass. The guard
// flag is released in a deferred store so a panicking or failing cycle can
// never lock out future ticks.
func (s *Scheduler) RunCycle(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		metrics.UpdateCyclesSkipped.Inc()
		s.log.Warn("previous update cycle still running, skipping this tick")
		return
	}
	defer s.running.Store(false)

	s.log.Info("running traffic update cycle")

	cameras, err := s.feed.FetchCameras(ctx)
	if err != nil {
		s.log.Error("fetching traffic cameras", zap.Error(err))
		return
	}
	if len(cameras) == 0 {
		s.log.Info("no cameras in feed, skipping image downloads")
		return
	}

	if err := s.congestion.SyncCameras(cameras); err != nil {
		s.log.Error("syncing camera set", zap.Error(err))
		return
	}

	downloaded := s.feed.DownloadImages(ctx, cameras)
	if downloaded == 0 {
		s.log.Warn("no camera images downloaded, skipping analysis")
		return
	}

	if err := s.analysis.AnalyzeBatch(ctx); err != nil {
		s.log.Error("analyzing image batch", zap.Error(err))
		return
	}

	metrics.UpdateCycles.Inc()
	s.log.Info("traffic update cycle completed", zap.Int("cameras", len(cameras)))
}

// IsRunning reports whether a cycle is currently in flight.
func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}
