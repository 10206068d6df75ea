package usecases

import (
	"github.com/bussin-buses/trafficwatch/pkg/datastore"
	da "github.com/bussin-buses/trafficwatch/pkg/datastructure"
	"go.uber.org/zap"
)

// CongestionService exposes the camera congestion snapshot.
type CongestionService struct {
	log        *zap.Logger
	congestion *datastore.CongestionStore
}

func NewCongestionService(log *zap.Logger, congestion *datastore.CongestionStore) *CongestionService {
	return &CongestionService{log: log, congestion: congestion}
}

// Snapshot returns every tracked camera with its congestion history.
func (cs *CongestionService) Snapshot() []da.CameraObservation {
	return cs.congestion.Load()
}

// Congested returns only the cameras whose latest sample is high.
func (cs *CongestionService) Congested() []da.CameraObservation {
	return cs.congestion.HighCongestion()
}
