package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/repairshop-service/internal/audit"
	"github.com/spec-kit/repairshop-service/internal/domain"
	"github.com/spec-kit/repairshop-service/internal/events"
	"github.com/spec-kit/repairshop-service/internal/observability"
	"github.com/spec-kit/repairshop-service/internal/repository"
	apperrors "github.com/spec-kit/repairshop-service/pkg/util"
)

const ticketTable = "tickets"

// LifecycleService owns ticket status transitions and their cross-entity
// side effects: the status-history ledger, device physical status, and
// technician work logs. Mutations commit the core write first; every side
// effect afterwards is best-effort and a failure there never unwinds the
// write. All mutating operations serialize per ticket id.
type LifecycleService struct {
	tickets    repository.TicketRepository
	history    repository.StatusHistoryRepository
	worklogs   *WorkLogTracker
	deviceSync *DeviceSync
	auditor    audit.Recorder
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics

	defaultBranchID string
	locks           *keyedMutex
}

// LifecycleDependencies bundles collaborators for the engine.
type LifecycleDependencies struct {
	TicketRepo      repository.TicketRepository
	HistoryRepo     repository.StatusHistoryRepository
	WorkLogs        *WorkLogTracker
	DeviceSync      *DeviceSync
	Audit           audit.Recorder
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
	Metrics         *observability.Metrics
	DefaultBranchID string
}

// NewLifecycleService constructs the engine.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		tickets:         deps.TicketRepo,
		history:         deps.HistoryRepo,
		worklogs:        deps.WorkLogs,
		deviceSync:      deps.DeviceSync,
		auditor:         deps.Audit,
		dispatcher:      deps.Dispatcher,
		logger:          logger,
		metrics:         deps.Metrics,
		defaultBranchID: deps.DefaultBranchID,
		locks:           newKeyedMutex(),
	}
}

// TicketCreateInput describes ticket creation payload. The ticket number
// is always generated here; caller-supplied numbers are ignored.
type TicketCreateInput struct {
	DeviceID         string
	BranchID         string
	TechnicianID     *string
	Priority         domain.TicketPriority
	ErrorDescription string
	EstimatedCost    *float64
	InternalNotes    string
}

// TicketUpdateInput carries optional field updates; nil means unchanged.
// UpdateTechnician distinguishes "leave technician alone" from
// "set technician to TechnicianID (possibly nil)".
type TicketUpdateInput struct {
	Status           *domain.TicketStatus
	Priority         *domain.TicketPriority
	ErrorDescription *string
	EstimatedCost    *float64
	ActualCost       *float64
	InternalNotes    *string
	TechnicianID     *string
	UpdateTechnician bool
	CompletedAt      *time.Time
}

// Create persists a new ticket in the initial OPEN status, audits the
// creation, and opens a work log when the payload already names a
// technician.
func (s *LifecycleService) Create(ctx context.Context, input TicketCreateInput, actor domain.Actor, origin string) (*domain.Ticket, error) {
	if strings.TrimSpace(input.DeviceID) == "" {
		return nil, apperrors.NewValidationError("device_id required", nil)
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}

	branchID := input.BranchID
	if branchID == "" {
		branchID = s.defaultBranchID
	}

	ticket := &domain.Ticket{
		Number:           generateTicketNumber(),
		DeviceID:         input.DeviceID,
		BranchID:         branchID,
		TechnicianID:     input.TechnicianID,
		Status:           domain.TicketStatusOpen,
		Priority:         input.Priority,
		ErrorDescription: strings.TrimSpace(input.ErrorDescription),
		EstimatedCost:    input.EstimatedCost,
		InternalNotes:    strings.TrimSpace(input.InternalNotes),
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.emitAudit(ctx, actor, "create", nil, ticketSnapshot(ticket), origin)

	if ticket.TechnicianID != nil {
		s.runEffect(ctx, ticket.ID, actor, "worklog_open", func() error {
			return s.worklogs.StartOnAssignment(ctx, ticket.ID, *ticket.TechnicianID)
		})
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketCreatedPayload{
			Number:       ticket.Number,
			DeviceID:     ticket.DeviceID,
			BranchID:     ticket.BranchID,
			TechnicianID: ticket.TechnicianID,
			Priority:     ticket.Priority,
		},
	})
	return ticket, nil
}

// Get fetches a ticket; soft-deleted tickets are hidden unless asked for.
func (s *LifecycleService) Get(ctx context.Context, id string, includeDeleted bool) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id, includeDeleted)
	if err != nil {
		return nil, s.mapTicketError(err, id)
	}
	return ticket, nil
}

// Update applies field changes. A status moving to COMPLETED stamps
// completed_at unless the caller supplied one; a technician change closes
// the outgoing technician's open work log and opens one for the incoming
// technician. A full before/after snapshot is audited.
func (s *LifecycleService) Update(ctx context.Context, id string, input TicketUpdateInput, actor domain.Actor, origin string) (*domain.Ticket, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": *input.Status})
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	ticket, err := s.tickets.GetByID(ctx, id, false)
	if err != nil {
		return nil, s.mapTicketError(err, id)
	}
	before := ticketSnapshot(ticket)

	oldTechnician := ticket.TechnicianID
	technicianChanged := input.UpdateTechnician && !sameRef(oldTechnician, input.TechnicianID)

	if technicianChanged && oldTechnician != nil {
		s.runEffect(ctx, ticket.ID, actor, "worklog_close", func() error {
			return s.worklogs.CloseOnReassignment(ctx, ticket.ID, *oldTechnician, "transferred (update)")
		})
	}

	if input.Status != nil {
		ticket.Status = *input.Status
	}
	if input.Priority != nil {
		ticket.Priority = *input.Priority
	}
	if input.ErrorDescription != nil {
		ticket.ErrorDescription = strings.TrimSpace(*input.ErrorDescription)
	}
	if input.EstimatedCost != nil {
		ticket.EstimatedCost = input.EstimatedCost
	}
	if input.ActualCost != nil {
		ticket.ActualCost = input.ActualCost
	}
	if input.InternalNotes != nil {
		ticket.InternalNotes = strings.TrimSpace(*input.InternalNotes)
	}
	if input.UpdateTechnician {
		ticket.TechnicianID = input.TechnicianID
	}
	if input.CompletedAt != nil {
		ticket.CompletedAt = input.CompletedAt
	} else if input.Status != nil && input.Status.CompletedClass() && ticket.CompletedAt == nil {
		now := time.Now()
		ticket.CompletedAt = &now
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, s.mapTicketError(err, id)
	}

	s.emitAudit(ctx, actor, "update", before, ticketSnapshot(ticket), origin)

	if technicianChanged && ticket.TechnicianID != nil {
		s.runEffect(ctx, ticket.ID, actor, "worklog_open", func() error {
			return s.worklogs.StartOnAssignment(ctx, ticket.ID, *ticket.TechnicianID)
		})
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		Actor:    actor,
	})
	return ticket, nil
}

// Delete soft-deletes the ticket and audits the pre-delete snapshot.
// Work logs and device status are deliberately left alone; deletion is a
// clerical action, not a workflow event.
func (s *LifecycleService) Delete(ctx context.Context, id string, actor domain.Actor, origin string) (bool, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	ticket, err := s.tickets.GetByID(ctx, id, false)
	if err != nil {
		return false, s.mapTicketError(err, id)
	}

	deleted, err := s.tickets.SoftDelete(ctx, id)
	if err != nil {
		return false, apperrors.MapError(err)
	}
	if !deleted {
		return false, nil
	}

	s.emitAudit(ctx, actor, "delete", ticketSnapshot(ticket), nil, origin)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		Actor:    actor,
	})
	return true, nil
}

// Restore clears the soft-delete flag.
func (s *LifecycleService) Restore(ctx context.Context, id string, actor domain.Actor, origin string) (bool, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	ticket, err := s.tickets.GetByID(ctx, id, true)
	if err != nil {
		return false, s.mapTicketError(err, id)
	}

	restored, err := s.tickets.Restore(ctx, id)
	if err != nil {
		return false, apperrors.MapError(err)
	}
	if !restored {
		return false, nil
	}

	before := ticketSnapshot(ticket)
	ticket.DeletedAt = nil
	s.emitAudit(ctx, actor, "restore", before, ticketSnapshot(ticket), origin)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketRestored,
		TicketID: ticket.ID,
		Actor:    actor,
	})
	return true, nil
}

// ChangeStatus moves the ticket to newStatus and applies the fixed
// side-effect sequence: persist, audit, history append, device sync, and
// work-log closure when the status is terminal. Requesting the current
// status is a no-op that returns the ticket unchanged and triggers
// nothing.
func (s *LifecycleService) ChangeStatus(ctx context.Context, id string, newStatus domain.TicketStatus, reason string, actor domain.Actor, origin string) (*domain.Ticket, error) {
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	ticket, err := s.tickets.GetByID(ctx, id, false)
	if err != nil {
		return nil, s.mapTicketError(err, id)
	}
	if ticket.Status == newStatus {
		return ticket, nil
	}

	before := ticketSnapshot(ticket)
	oldStatus := ticket.Status
	ticket.Status = newStatus
	if newStatus.CompletedClass() && ticket.CompletedAt == nil {
		now := time.Now()
		ticket.CompletedAt = &now
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, s.mapTicketError(err, id)
	}

	action := "change_status_" + strings.ToLower(string(newStatus))
	s.emitAudit(ctx, actor, action, before, ticketSnapshot(ticket), origin)

	s.runEffect(ctx, ticket.ID, actor, "history_append", func() error {
		return s.history.Append(ctx, &domain.StatusHistoryEntry{
			TicketID:  ticket.ID,
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Reason:    reason,
			ChangedBy: actor.Label(),
		})
	})

	s.runEffect(ctx, ticket.ID, actor, "device_sync", func() error {
		return s.deviceSync.Sync(ctx, ticket.DeviceID, newStatus)
	})

	if newStatus.Terminal() {
		s.runEffect(ctx, ticket.ID, actor, "worklog_close_all", func() error {
			return s.worklogs.CloseAllOnTerminalStatus(ctx, ticket.ID, newStatus)
		})
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Reason:    reason,
		},
	})
	return ticket, nil
}

// Assign moves the ticket to technicianID (nil unassigns). An outgoing
// technician's open work log is closed with the transfer reason; the
// incoming technician gets a fresh open log. Assigning the same
// technician twice opens no duplicate log.
func (s *LifecycleService) Assign(ctx context.Context, id string, technicianID *string, reason string, actor domain.Actor, origin string) (*domain.Ticket, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	ticket, err := s.tickets.GetByID(ctx, id, false)
	if err != nil {
		return nil, s.mapTicketError(err, id)
	}

	before := ticketSnapshot(ticket)
	oldTechnician := ticket.TechnicianID
	changed := !sameRef(oldTechnician, technicianID)

	if changed && oldTechnician != nil {
		s.runEffect(ctx, ticket.ID, actor, "worklog_close", func() error {
			return s.worklogs.CloseOnReassignment(ctx, ticket.ID, *oldTechnician, reason)
		})
	}

	ticket.TechnicianID = technicianID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, s.mapTicketError(err, id)
	}

	s.emitAudit(ctx, actor, "assign", before, ticketSnapshot(ticket), origin)

	if technicianID != nil {
		s.runEffect(ctx, ticket.ID, actor, "worklog_open", func() error {
			return s.worklogs.StartOnAssignment(ctx, ticket.ID, *technicianID)
		})
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketAssignedPayload{
			OldTechnicianID: oldTechnician,
			TechnicianID:    technicianID,
			Reason:          reason,
		},
	})
	return ticket, nil
}

// List returns tickets matching the filter.
func (s *LifecycleService) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// Search returns tickets matching a free-text term.
func (s *LifecycleService) Search(ctx context.Context, term string, limit, offset int) ([]domain.Ticket, error) {
	tickets, err := s.tickets.Search(ctx, term, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// StatusHistory returns the ticket's transition ledger, oldest first.
func (s *LifecycleService) StatusHistory(ctx context.Context, id string, limit int) ([]domain.StatusHistoryEntry, error) {
	entries, err := s.history.ListByTicket(ctx, id, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// WorkLogs returns every work interval recorded for the ticket.
func (s *LifecycleService) WorkLogs(ctx context.Context, id string) ([]domain.WorkLogEntry, error) {
	entries, err := s.worklogs.LogsForTicket(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *LifecycleService) mapTicketError(err error, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return apperrors.MapError(err)
}

// runEffect executes one best-effort side effect after the core write.
// Failures are logged, counted, and reported as an event; they never
// propagate to the caller.
func (s *LifecycleService) runEffect(ctx context.Context, ticketID string, actor domain.Actor, effect string, fn func() error) {
	err := fn()
	if err == nil {
		return
	}
	s.logger.Warn("side effect failed",
		zap.String("ticket_id", ticketID),
		zap.String("effect", effect),
		zap.Error(err),
	)
	s.metrics.RecordEffectFailure(effect)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketEffectFailed,
		TicketID: ticketID,
		Actor:    actor,
		Payload: events.EffectFailedPayload{
			Effect: effect,
			Reason: err.Error(),
		},
	})
}

func (s *LifecycleService) emitAudit(ctx context.Context, actor domain.Actor, action string, before, after map[string]any, origin string) {
	if s.auditor == nil {
		return
	}
	record := audit.Record{
		Actor:  actor.Label(),
		Action: action,
		Table:  ticketTable,
		Old:    before,
		New:    after,
		Origin: origin,
	}
	if err := s.auditor.Record(ctx, record); err != nil {
		s.logger.Warn("audit record failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *LifecycleService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generateTicketNumber() string {
	return "RT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func sameRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func ticketSnapshot(t *domain.Ticket) map[string]any {
	snapshot := map[string]any{
		"id":                t.ID,
		"number":            t.Number,
		"device_id":         t.DeviceID,
		"branch_id":         t.BranchID,
		"technician_id":     t.TechnicianID,
		"status":            t.Status,
		"priority":          t.Priority,
		"error_description": t.ErrorDescription,
		"estimated_cost":    t.EstimatedCost,
		"actual_cost":       t.ActualCost,
		"internal_notes":    t.InternalNotes,
		"completed_at":      t.CompletedAt,
		"deleted_at":        t.DeletedAt,
	}
	return snapshot
}
