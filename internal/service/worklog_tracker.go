package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/repairshop-service/internal/domain"
	"github.com/spec-kit/repairshop-service/internal/repository"
)

const assignedWorkDescription = "assigned - work started"

// WorkLogTracker automates technician time tracking around assignment and
// closure events so timers never need manual starts/stops for the normal
// workflow. Every method is a best-effort side effect from the engine's
// point of view.
type WorkLogTracker struct {
	logs repository.WorkLogRepository
}

// NewWorkLogTracker creates the tracker.
func NewWorkLogTracker(logs repository.WorkLogRepository) *WorkLogTracker {
	return &WorkLogTracker{logs: logs}
}

// StartOnAssignment opens a work log for the pair unless one is already
// open; a repeated assignment is a no-op.
func (t *WorkLogTracker) StartOnAssignment(ctx context.Context, ticketID, technicianID string) error {
	_, err := t.logs.FindOpen(ctx, ticketID, technicianID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	entry := &domain.WorkLogEntry{
		TicketID:     ticketID,
		TechnicianID: technicianID,
		Description:  assignedWorkDescription,
		StartedAt:    time.Now(),
	}
	return t.logs.Create(ctx, entry)
}

// CloseOnReassignment ends the open entry for the outgoing technician and
// annotates it with the transfer reason. A missing open entry is not an
// error; reassignment can happen with no prior log.
func (t *WorkLogTracker) CloseOnReassignment(ctx context.Context, ticketID, oldTechnicianID, transferReason string) error {
	entry, err := t.logs.FindOpen(ctx, ticketID, oldTechnicianID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	desc := entry.Description
	if transferReason != "" {
		desc += "; transferred: " + transferReason
	}
	return t.logs.Close(ctx, entry.ID, time.Now(), domain.TruncateWorkLogDescription(desc))
}

// CloseAllOnTerminalStatus ends every open entry for the ticket, whoever
// owns it. A completed or cancelled ticket may still carry open logs from
// earlier assignments.
func (t *WorkLogTracker) CloseAllOnTerminalStatus(ctx context.Context, ticketID string, status domain.TicketStatus) error {
	open, err := t.logs.ListOpenByTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	now := time.Now()
	var firstErr error
	for _, entry := range open {
		desc := domain.TruncateWorkLogDescription(entry.Description + "; closed: ticket " + string(status))
		if err := t.logs.Close(ctx, entry.ID, now, desc); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// LogsForTicket returns every interval recorded for the ticket.
func (t *WorkLogTracker) LogsForTicket(ctx context.Context, ticketID string) ([]domain.WorkLogEntry, error) {
	return t.logs.ListByTicket(ctx, ticketID)
}
