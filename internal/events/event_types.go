package events

import (
	"time"

	"github.com/spec-kit/repairshop-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "repair_ticket_created"
	EventTicketUpdated       EventType = "repair_ticket_updated"
	EventTicketStatusChanged EventType = "repair_ticket_status_changed"
	EventTicketAssigned      EventType = "repair_ticket_assigned"
	EventTicketDeleted       EventType = "repair_ticket_deleted"
	EventTicketRestored      EventType = "repair_ticket_restored"
	EventTicketEffectFailed  EventType = "repair_ticket_effect_failed"
)

// Event represents a domain event emitted by the lifecycle engine.
type Event struct {
	ID        string       `json:"id"`
	Type      EventType    `json:"type"`
	TicketID  string       `json:"ticket_id"`
	Actor     domain.Actor `json:"actor"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   interface{}  `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Number       string                `json:"number"`
	DeviceID     string                `json:"device_id"`
	BranchID     string                `json:"branch_id"`
	TechnicianID *string               `json:"technician_id,omitempty"`
	Priority     domain.TicketPriority `json:"priority"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Reason    string              `json:"reason,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	OldTechnicianID *string `json:"old_technician_id,omitempty"`
	TechnicianID    *string `json:"technician_id,omitempty"`
	Reason          string  `json:"reason,omitempty"`
}

// EffectFailedPayload reports a best-effort side effect that failed after
// the core write committed.
type EffectFailedPayload struct {
	Effect string `json:"effect"`
	Reason string `json:"reason"`
}
