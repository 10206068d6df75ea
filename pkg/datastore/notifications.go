package datastore

import (
	"sync"

	da "github.com/bussin-buses/trafficwatch/pkg/datastructure"
	"go.uber.org/zap"
)

// NotificationStore owns the reroute notification document. Deduplication
// is existence-based: a new record for a (driver, camera) pair is only
// inserted once no unseen record for that pair remains.
type NotificationStore struct {
	mu   sync.Mutex
	path string
	log  *zap.Logger
}

func NewNotificationStore(path string, log *zap.Logger) *NotificationStore {
	return &NotificationStore{path: path, log: log}
}

func (s *NotificationStore) Load() []da.NotificationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return loadCollection[da.NotificationRecord](s.path, s.log)
}

func (s *NotificationStore) Save(records []da.NotificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveCollection(s.path, records)
}

// Ensure inserts the record unless an open (unseen) one already exists for
// the same (driver, camera) pair. Reports whether a record was inserted.
func (s *NotificationStore) Ensure(record da.NotificationRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := loadCollection[da.NotificationRecord](s.path, s.log)
	for _, existing := range records {
		if existing.DriverID == record.DriverID && existing.CameraID == record.CameraID && !existing.Seen {
			return false, nil
		}
	}

	records = append(records, record)
	if err := saveCollection(s.path, records); err != nil {
		return false, err
	}
	return true, nil
}

func (s *NotificationStore) ListForDriver(driverID string) []da.NotificationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []da.NotificationRecord
	for _, record := range loadCollection[da.NotificationRecord](s.path, s.log) {
		if record.DriverID == driverID {
			result = append(result, record)
		}
	}
	return result
}

// MarkSeen closes the open notification for the pair, re-enabling future
// notifications for the same camera.
func (s *NotificationStore) MarkSeen(driverID, cameraID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := loadCollection[da.NotificationRecord](s.path, s.log)
	marked := false
	for i := range records {
		if records[i].DriverID == driverID && records[i].CameraID == cameraID && !records[i].Seen {
			records[i].Seen = true
			marked = true
		}
	}
	if !marked {
		return false, nil
	}
	return true, saveCollection(s.path, records)
}

// RemoveForDriver deletes every notification for the driver. Called in bulk
// when a journey stops.
func (s *NotificationStore) RemoveForDriver(driverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := loadCollection[da.NotificationRecord](s.path, s.log)
	kept := records[:0]
	for _, record := range records {
		if record.DriverID != driverID {
			kept = append(kept, record)
		}
	}
	return saveCollection(s.path, kept)
}
