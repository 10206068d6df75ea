package traffic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bussin-buses/trafficwatch/pkg/datastore"
	da "github.com/bussin-buses/trafficwatch/pkg/datastructure"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAnalyzer struct {
	mu          sync.Mutex
	inFlight    int
	maxInFlight int
	analyzed    []string

	highCameras map[string]bool
	failCameras map[string]bool
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, imagePath string) (da.AnalysisResult, error) {
	cameraID := strings.TrimSuffix(filepath.Base(imagePath), ".jpg")

	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	f.mu.Lock()
	f.inFlight--
	f.analyzed = append(f.analyzed, cameraID)
	f.mu.Unlock()

	if f.failCameras[cameraID] {
		return da.AnalysisResult{}, errors.New("detector crashed")
	}
	level := da.CongestionLow
	if f.highCameras[cameraID] {
		level = da.CongestionHigh
	}
	return da.AnalysisResult{Vehicle: 5, RoadArea: 0.5, VehicleArea: 0.1, CongestionLevel: level}, nil
}

type fakeDispatcher struct {
	mu       sync.Mutex
	notified []string
}

func (f *fakeDispatcher) NotifyCongestion(ctx context.Context, camera da.CameraObservation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, camera.ID)
}

func TestAnalyzeBatch(t *testing.T) {
	imagesDir := t.TempDir()
	store := datastore.NewCongestionStore(filepath.Join(t.TempDir(), "congestion.json"), zap.NewNop())

	var cameras []da.Camera
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("10%02d", i)
		cameras = append(cameras, da.Camera{ID: id, Lat: 1.3, Lng: 103.9})
		require.NoError(t, os.WriteFile(filepath.Join(imagesDir, id+".jpg"), []byte("jpeg"), 0o644))
	}
	require.NoError(t, store.SyncCameras(cameras))

	analyzer := &fakeAnalyzer{
		highCameras: map[string]bool{"1003": true},
		failCameras: map[string]bool{"1005": true, "1006": true, "1007": true},
	}
	dispatcher := &fakeDispatcher{}
	service := NewAnalysisService(analyzer, store, dispatcher, imagesDir, 2, zap.NewNop())

	require.NoError(t, service.AnalyzeBatch(context.Background()))

	// every image is attempted once, never more than two at a time
	require.Len(t, analyzer.analyzed, 10)
	require.LessOrEqual(t, analyzer.maxInFlight, 2)

	// only the high camera reached the dispatcher
	require.Equal(t, []string{"1003"}, dispatcher.notified)

	high, ok := store.Find("1003")
	require.True(t, ok)
	level, recorded := high.LatestLevel()
	require.True(t, recorded)
	require.Equal(t, da.CongestionHigh, level)

	// failed analyses leave no sample behind
	failed, ok := store.Find("1005")
	require.True(t, ok)
	require.Empty(t, failed.Timestamps)

	low, ok := store.Find("1000")
	require.True(t, ok)
	level, recorded = low.LatestLevel()
	require.True(t, recorded)
	require.Equal(t, da.CongestionLow, level)
}

func TestAnalyzeBatchMissingDirectory(t *testing.T) {
	store := datastore.NewCongestionStore(filepath.Join(t.TempDir(), "congestion.json"), zap.NewNop())
	service := NewAnalysisService(&fakeAnalyzer{}, store, nil,
		filepath.Join(t.TempDir(), "does-not-exist"), 2, zap.NewNop())

	require.NoError(t, service.AnalyzeBatch(context.Background()))
}

func TestDefaultAnalysisConcurrency(t *testing.T) {
	if got := DefaultAnalysisConcurrency(); got < 1 {
		t.Errorf("DefaultAnalysisConcurrency = %d, want at least 1", got)
	}
}
