package usecases

import (
	"context"

	"github.com/bussin-buses/trafficwatch/pkg/datastore"
	da "github.com/bussin-buses/trafficwatch/pkg/datastructure"
	"github.com/bussin-buses/trafficwatch/pkg/util"
	"go.uber.org/zap"
)

// NotificationService fronts the notification store for the API and pushes
// freshly inserted records out to connected drivers.
type NotificationService struct {
	log    *zap.Logger
	store  *datastore.NotificationStore
	pusher NotificationPusher
}

func NewNotificationService(log *zap.Logger, store *datastore.NotificationStore,
	pusher NotificationPusher) *NotificationService {
	return &NotificationService{log: log, store: store, pusher: pusher}
}

// NotifyDriver records the notification unless an open one already exists
// for the (driver, camera) pair, and pushes it when newly inserted.
// Reports whether a record was inserted.
func (ns *NotificationService) NotifyDriver(ctx context.Context, record da.NotificationRecord) (bool, error) {
	if record.Timestamp == "" {
		record.Timestamp = util.SGTime()
	}

	inserted, err := ns.store.Ensure(record)
	if err != nil {
		return false, util.WrapErrorf(err, util.ErrInternalServerError, "recording notification")
	}
	if !inserted {
		return false, nil
	}

	if ns.pusher != nil {
		if err := ns.pusher.Notify(ctx, record); err != nil {
			ns.log.Warn("pushing notification",
				zap.String("driver_id", record.DriverID), zap.Error(err))
		}
	}
	return true, nil
}

func (ns *NotificationService) ListForDriver(driverID string) []da.NotificationRecord {
	return ns.store.ListForDriver(driverID)
}

// MarkSeen acknowledges the open notification for the pair so the driver
// can be notified again about the same camera later.
func (ns *NotificationService) MarkSeen(driverID, cameraID string) error {
	marked, err := ns.store.MarkSeen(driverID, cameraID)
	if err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "marking notification seen")
	}
	if !marked {
		return util.WrapErrorf(nil, util.ErrNotFound,
			"no open notification for driver %s and camera %s", driverID, cameraID)
	}
	return nil
}
