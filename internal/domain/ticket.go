package domain

import "time"

// TicketStatus enumerates lifecycle states for repair tickets.
type TicketStatus string

const (
	TicketStatusOpen          TicketStatus = "OPEN"
	TicketStatusDiagnosed     TicketStatus = "DIAGNOSED"
	TicketStatusInProgress    TicketStatus = "IN_PROGRESS"
	TicketStatusAwaitingParts TicketStatus = "AWAITING_PARTS"
	TicketStatusCompleted     TicketStatus = "COMPLETED"
	TicketStatusCancelled     TicketStatus = "CANCELLED"
	TicketStatusUnrepairable  TicketStatus = "UNREPAIRABLE"
)

// TicketStatuses lists every known status.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusDiagnosed,
	TicketStatusInProgress,
	TicketStatusAwaitingParts,
	TicketStatusCompleted,
	TicketStatusCancelled,
	TicketStatusUnrepairable,
}

// Valid reports whether the status belongs to the enumerated set.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// Terminal reports whether open work logs must be force-closed on entry.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusCompleted || s == TicketStatusCancelled
}

// CompletedClass reports whether entering this status stamps completed_at.
func (s TicketStatus) CompletedClass() bool {
	return s == TicketStatusCompleted
}

// TicketPriority enumerates repair urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Valid reports whether the priority belongs to the enumerated set.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Ticket is the aggregate for one repair job.
type Ticket struct {
	ID               string
	Number           string
	DeviceID         string
	BranchID         string
	TechnicianID     *string
	Status           TicketStatus
	Priority         TicketPriority
	ErrorDescription string
	EstimatedCost    *float64
	ActualCost       *float64
	InternalNotes    string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      *time.Time
	DeletedAt        *time.Time
}

// Deleted reports whether the ticket is soft-deleted.
func (t *Ticket) Deleted() bool {
	return t.DeletedAt != nil
}
