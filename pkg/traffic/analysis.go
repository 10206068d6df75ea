package traffic

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bussin-buses/trafficwatch/pkg/cv"
	"github.com/bussin-buses/trafficwatch/pkg/datastore"
	da "github.com/bussin-buses/trafficwatch/pkg/datastructure"
	"github.com/bussin-buses/trafficwatch/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CongestionNotifier receives every camera whose latest analysis came back
// high, synchronously from the analysis worker that produced it.
type CongestionNotifier interface {
	NotifyCongestion(ctx context.Context, camera da.CameraObservation)
}

// DefaultAnalysisConcurrency is the worker-pool ceiling: half the available
// cores, at least one. Each worker spends most of its time blocked on the
// external detector process.
func DefaultAnalysisConcurrency() int {
	n := (runtime.NumCPU() + 1) / 2
	if n < 1 {
		n = 1
	}
	return n
}

// AnalysisService runs the vehicle detector over a batch of downloaded
// camera images with bounded parallelism and feeds results into the
// congestion store and, for high congestion, the notification dispatcher.
type AnalysisService struct {
	analyzer    cv.Analyzer
	congestion  *datastore.CongestionStore
	dispatcher  CongestionNotifier
	imagesDir   string
	maxInFlight int
	log         *zap.Logger
}

func NewAnalysisService(analyzer cv.Analyzer, congestion *datastore.CongestionStore,
	dispatcher CongestionNotifier, imagesDir string, maxInFlight int, log *zap.Logger) *AnalysisService {
	if maxInFlight <= 0 {
		maxInFlight = DefaultAnalysisConcurrency()
	}
	return &AnalysisService{
		analyzer:    analyzer,
		congestion:  congestion,
		dispatcher:  dispatcher,
		imagesDir:   imagesDir,
		maxInFlight: maxInFlight,
		log:         log,
	}
}

// AnalyzeBatch analyzes every .jpg in the images directory. At most
// maxInFlight analyses run at once; as soon as any one finishes the next
// image is started, so the pool stays saturated under uneven task times.
// A failed image is logged and skipped, never aborting the batch.
func (s *AnalysisService) AnalyzeBatch(ctx context.Context) error {
	entries, err := os.ReadDir(s.imagesDir)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Info("no images directory yet, skipping analysis")
			return nil
		}
		return err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".jpg") {
			files = append(files, entry.Name())
		}
	}
	if len(files) == 0 {
		s.log.Info("no images found for analysis")
		return nil
	}

	g := new(errgroup.Group)
	g.SetLimit(s.maxInFlight)
	for _, file := range files {
		file := file
		g.Go(func() error {
			s.analyzeImage(ctx, filepath.Join(s.imagesDir, file))
			return nil
		})
	}
	_ = g.Wait()

	s.log.Info("traffic analysis completed", zap.Int("images", len(files)))
	return nil
}

func (s *AnalysisService) analyzeImage(ctx context.Context, imagePath string) {
	cameraID := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))

	result, err := s.analyzer.Analyze(ctx, imagePath)
	if err != nil {
		metrics.AnalysisFailures.Inc()
		s.log.Error("analyzing camera image",
			zap.String("camera_id", cameraID), zap.String("image", imagePath), zap.Error(err))
		return
	}

	s.log.Info("camera image processed",
		zap.String("camera_id", cameraID),
		zap.Int("vehicles", result.Vehicle),
		zap.String("congestion_level", string(result.CongestionLevel)))
	metrics.ImagesAnalyzed.WithLabelValues(string(result.CongestionLevel)).Inc()

	s.congestion.RecordObservation(cameraID, result.CongestionLevel)

	if result.CongestionLevel == da.CongestionHigh && s.dispatcher != nil {
		if camera, ok := s.congestion.Find(cameraID); ok {
			s.dispatcher.NotifyCongestion(ctx, camera)
		}
	}
}
