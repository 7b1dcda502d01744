package service

import (
	"context"

	"github.com/spec-kit/repairshop-service/internal/domain"
	"github.com/spec-kit/repairshop-service/internal/repository"
)

// deviceStatusForTicketStatus is the fixed mapping from a ticket's status
// to the device's physical status. A ticket status with no entry leaves
// the device untouched.
var deviceStatusForTicketStatus = map[domain.TicketStatus]domain.DeviceStatus{
	domain.TicketStatusOpen:          domain.DeviceStatusReceived,
	domain.TicketStatusDiagnosed:     domain.DeviceStatusDiagnosed,
	domain.TicketStatusInProgress:    domain.DeviceStatusRepairing,
	domain.TicketStatusAwaitingParts: domain.DeviceStatusRepairing,
	domain.TicketStatusCompleted:     domain.DeviceStatusRepaired,
	domain.TicketStatusCancelled:     domain.DeviceStatusReceived,
	domain.TicketStatusUnrepairable:  domain.DeviceStatusCompleted,
}

// DeviceSync keeps a device's physical status aligned with the latest
// status of the ticket that manages it.
type DeviceSync struct {
	devices repository.DeviceRepository
}

// NewDeviceSync creates the synchronizer.
func NewDeviceSync(devices repository.DeviceRepository) *DeviceSync {
	return &DeviceSync{devices: devices}
}

// Sync writes the mapped device status if it differs from the device's
// current one. The device is fetched fresh by id; previously loaded
// snapshots are never trusted across a mutation.
func (d *DeviceSync) Sync(ctx context.Context, deviceID string, newTicketStatus domain.TicketStatus) error {
	mapped, ok := deviceStatusForTicketStatus[newTicketStatus]
	if !ok {
		return nil
	}
	device, err := d.devices.GetByID(ctx, deviceID)
	if err != nil {
		return err
	}
	if device.PhysicalStatus == mapped {
		return nil
	}
	return d.devices.UpdateStatus(ctx, device.ID, mapped)
}
