package datastore

import (
	"sync"

	da "github.com/bussin-buses/trafficwatch/pkg/datastructure"
	"github.com/bussin-buses/trafficwatch/pkg/util"
	"go.uber.org/zap"
)

// DriverStore owns the active driver session document. One session per
// driver id; starting a journey replaces any previous session for that id.
type DriverStore struct {
	mu   sync.Mutex
	path string
	log  *zap.Logger
}

func NewDriverStore(path string, log *zap.Logger) *DriverStore {
	return &DriverStore{path: path, log: log}
}

func (s *DriverStore) Load() []da.ActiveDriverSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return loadCollection[da.ActiveDriverSession](s.path, s.log)
}

func (s *DriverStore) Save(sessions []da.ActiveDriverSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveCollection(s.path, sessions)
}

func (s *DriverStore) Find(driverID string) (da.ActiveDriverSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range loadCollection[da.ActiveDriverSession](s.path, s.log) {
		if session.DriverID == driverID {
			return session, true
		}
	}
	return da.ActiveDriverSession{}, false
}

// Upsert removes any session with the same driver id and appends the new
// one.
func (s *DriverStore) Upsert(session da.ActiveDriverSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := loadCollection[da.ActiveDriverSession](s.path, s.log)
	kept := sessions[:0]
	for _, existing := range sessions {
		if existing.DriverID != session.DriverID {
			kept = append(kept, existing)
		}
	}
	kept = append(kept, session)
	return saveCollection(s.path, kept)
}

func (s *DriverStore) Remove(driverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := loadCollection[da.ActiveDriverSession](s.path, s.log)
	kept := sessions[:0]
	for _, session := range sessions {
		if session.DriverID != driverID {
			kept = append(kept, session)
		}
	}
	return saveCollection(s.path, kept)
}

// UpdateLocation refreshes the driver's current location in place.
func (s *DriverStore) UpdateLocation(driverID string, lat, lng float64) (da.ActiveDriverSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := loadCollection[da.ActiveDriverSession](s.path, s.log)
	for i := range sessions {
		if sessions[i].DriverID == driverID {
			sessions[i].CurrentLocation = []float64{lat, lng}
			if err := saveCollection(s.path, sessions); err != nil {
				return da.ActiveDriverSession{}, err
			}
			return sessions[i], nil
		}
	}
	return da.ActiveDriverSession{}, util.WrapErrorf(nil, util.ErrNotFound,
		"driver %s not found in active sessions", driverID)
}

// UpdateRoute replaces the driver's route polyline after a reroute.
func (s *DriverStore) UpdateRoute(driverID string, encodedPolyline string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := loadCollection[da.ActiveDriverSession](s.path, s.log)
	for i := range sessions {
		if sessions[i].DriverID == driverID {
			sessions[i].Polyline = encodedPolyline
			return saveCollection(s.path, sessions)
		}
	}
	return util.WrapErrorf(nil, util.ErrNotFound,
		"driver %s not found in active sessions", driverID)
}
