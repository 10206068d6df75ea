package datastore

import (
	"sync"

	da "github.com/bussin-buses/trafficwatch/pkg/datastructure"
	"github.com/bussin-buses/trafficwatch/pkg/util"
	"go.uber.org/zap"
)

// CongestionStore owns the per-camera congestion history document. All
// mutations happen under one mutex: the document is read-modify-write as a
// whole, so concurrent writers (a late worker from a previous cycle, an
// inbound request mid-cycle) would otherwise silently drop updates.
type CongestionStore struct {
	mu   sync.Mutex
	path string
	log  *zap.Logger
}

func NewCongestionStore(path string, log *zap.Logger) *CongestionStore {
	return &CongestionStore{path: path, log: log}
}

func (s *CongestionStore) Load() []da.CameraObservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return loadCollection[da.CameraObservation](s.path, s.log)
}

func (s *CongestionStore) Save(observations []da.CameraObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveCollection(s.path, observations)
}

func (s *CongestionStore) Find(cameraID string) (da.CameraObservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, obs := range loadCollection[da.CameraObservation](s.path, s.log) {
		if obs.ID == cameraID {
			return obs, true
		}
	}
	return da.CameraObservation{}, false
}

// RecordObservation appends a timestamped congestion sample to the camera's
// history, evicting the oldest sample beyond the cap. An unknown camera id
// drops the observation with a diagnostic only: the camera set is refreshed
// every cycle and will converge.
func (s *CongestionStore) RecordObservation(cameraID string, level da.CongestionLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	observations := loadCollection[da.CameraObservation](s.path, s.log)
	idx := -1
	for i := range observations {
		if observations[i].ID == cameraID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.log.Warn("observation for unknown camera dropped", zap.String("camera_id", cameraID))
		return
	}

	observations[idx].Timestamps = append(observations[idx].Timestamps, da.CongestionSample{
		CongestionLevel: level,
		Timestamp:       util.SGTime(),
	})
	if n := len(observations[idx].Timestamps); n > da.MaxCongestionHistory {
		observations[idx].Timestamps = observations[idx].Timestamps[n-da.MaxCongestionHistory:]
	}

	if err := saveCollection(s.path, observations); err != nil {
		s.log.Error("saving congestion data", zap.Error(err))
	}
}

// SyncCameras replaces the camera set with a fresh feed fetch while
// preserving each camera's recorded history by id.
func (s *CongestionStore) SyncCameras(cameras []da.Camera) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := loadCollection[da.CameraObservation](s.path, s.log)
	history := make(map[string][]da.CongestionSample, len(existing))
	for _, obs := range existing {
		history[obs.ID] = obs.Timestamps
	}

	updated := make([]da.CameraObservation, 0, len(cameras))
	for _, cam := range cameras {
		obs := da.CameraObservation{
			ID:         cam.ID,
			Image:      cam.ImageURL,
			Lat:        cam.Lat,
			Lng:        cam.Lng,
			Timestamps: []da.CongestionSample{},
		}
		if prev, ok := history[cam.ID]; ok && prev != nil {
			obs.Timestamps = prev
		}
		updated = append(updated, obs)
	}

	return saveCollection(s.path, updated)
}

// HighCongestion returns the cameras whose most recent sample is high.
func (s *CongestionStore) HighCongestion() []da.CameraObservation {
	s.mu.Lock()
	defer s.mu.Unlock()

	var congested []da.CameraObservation
	for _, obs := range loadCollection[da.CameraObservation](s.path, s.log) {
		if level, ok := obs.LatestLevel(); ok && level == da.CongestionHigh {
			congested = append(congested, obs)
		}
	}
	return congested
}
