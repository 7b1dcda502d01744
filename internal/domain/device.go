package domain

import "time"

// DeviceStatus enumerates the coarse physical state of a device in the shop.
type DeviceStatus string

const (
	DeviceStatusReceived  DeviceStatus = "RECEIVED"
	DeviceStatusDiagnosed DeviceStatus = "DIAGNOSED"
	DeviceStatusRepairing DeviceStatus = "REPAIRING"
	DeviceStatusRepaired  DeviceStatus = "REPAIRED"
	DeviceStatusCompleted DeviceStatus = "COMPLETED"
	DeviceStatusReturned  DeviceStatus = "RETURNED"
)

// Device is the physical item under repair, referenced by tickets.
type Device struct {
	ID             string
	CustomerID     *string
	Brand          string
	Model          string
	SerialNumber   string
	PhysicalStatus DeviceStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
