package dto

import (
	"time"

	"github.com/spec-kit/repairshop-service/internal/domain"
)

// CreateTicketRequest payload. Any client-supplied ticket number is
// ignored; numbers are generated server-side.
type CreateTicketRequest struct {
	DeviceID         string                `json:"device_id"`
	BranchID         string                `json:"branch_id"`
	TechnicianID     *string               `json:"technician_id"`
	Priority         domain.TicketPriority `json:"priority"`
	ErrorDescription string                `json:"error_description"`
	EstimatedCost    *float64              `json:"estimated_cost"`
	InternalNotes    string                `json:"internal_notes"`
}

// UpdateTicketRequest payload; absent fields stay unchanged. The
// technician field is tri-state: omitted = unchanged, null = unassign,
// value = reassign.
type UpdateTicketRequest struct {
	Status           *domain.TicketStatus   `json:"status"`
	Priority         *domain.TicketPriority `json:"priority"`
	ErrorDescription *string                `json:"error_description"`
	EstimatedCost    *float64               `json:"estimated_cost"`
	ActualCost       *float64               `json:"actual_cost"`
	InternalNotes    *string                `json:"internal_notes"`
	TechnicianID     *string                `json:"technician_id"`
	TechnicianSet    bool                   `json:"-"`
	CompletedAt      *time.Time             `json:"completed_at"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
	Reason string              `json:"reason"`
}

// AssignTicketRequest payload; a null technician_id unassigns.
type AssignTicketRequest struct {
	TechnicianID *string `json:"technician_id"`
	Reason       string  `json:"reason"`
}

// TicketResponse provides full ticket info.
type TicketResponse struct {
	ID               string                `json:"id"`
	Number           string                `json:"number"`
	DeviceID         string                `json:"device_id"`
	BranchID         string                `json:"branch_id"`
	TechnicianID     *string               `json:"technician_id"`
	Status           domain.TicketStatus   `json:"status"`
	Priority         domain.TicketPriority `json:"priority"`
	ErrorDescription string                `json:"error_description"`
	EstimatedCost    *float64              `json:"estimated_cost"`
	ActualCost       *float64              `json:"actual_cost"`
	InternalNotes    string                `json:"internal_notes"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	CompletedAt      *time.Time            `json:"completed_at"`
	DeletedAt        *time.Time            `json:"deleted_at,omitempty"`
}

// StatusHistoryResponse is one ledger row.
type StatusHistoryResponse struct {
	ID        string              `json:"id"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Reason    string              `json:"reason"`
	ChangedBy string              `json:"changed_by"`
	CreatedAt time.Time           `json:"created_at"`
}

// WorkLogResponse is one technician work interval.
type WorkLogResponse struct {
	ID           string     `json:"id"`
	TechnicianID string     `json:"technician_id"`
	Description  string     `json:"description"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at"`
}
