package service

import (
	"context"
	"testing"

	"github.com/spec-kit/repairshop-service/internal/domain"
)

func TestSyncAppliesMappedStatus(t *testing.T) {
	cases := []struct {
		ticket domain.TicketStatus
		device domain.DeviceStatus
	}{
		{domain.TicketStatusOpen, domain.DeviceStatusReceived},
		{domain.TicketStatusDiagnosed, domain.DeviceStatusDiagnosed},
		{domain.TicketStatusInProgress, domain.DeviceStatusRepairing},
		{domain.TicketStatusAwaitingParts, domain.DeviceStatusRepairing},
		{domain.TicketStatusCompleted, domain.DeviceStatusRepaired},
		{domain.TicketStatusCancelled, domain.DeviceStatusReceived},
		{domain.TicketStatusUnrepairable, domain.DeviceStatusCompleted},
	}
	for _, tc := range cases {
		t.Run(string(tc.ticket), func(t *testing.T) {
			repo := newFakeDeviceRepo()
			repo.put(domain.Device{ID: "dev-1", PhysicalStatus: domain.DeviceStatusReturned})
			sync := NewDeviceSync(repo)

			if err := sync.Sync(context.Background(), "dev-1", tc.ticket); err != nil {
				t.Fatalf("Sync failed: %v", err)
			}
			if got := repo.status("dev-1"); got != tc.device {
				t.Fatalf("got %s, want %s", got, tc.device)
			}
		})
	}
}

func TestSyncSkipsEqualStatus(t *testing.T) {
	repo := newFakeDeviceRepo()
	repo.put(domain.Device{ID: "dev-1", PhysicalStatus: domain.DeviceStatusRepairing})
	sync := NewDeviceSync(repo)

	if err := sync.Sync(context.Background(), "dev-1", domain.TicketStatusInProgress); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if len(repo.writes) != 0 {
		t.Fatalf("expected no write for equal status, got %v", repo.writes)
	}
}

func TestSyncUnknownDevicePropagatesError(t *testing.T) {
	sync := NewDeviceSync(newFakeDeviceRepo())

	if err := sync.Sync(context.Background(), "missing", domain.TicketStatusInProgress); err == nil {
		t.Fatal("expected error for unknown device")
	}
}
