package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/repairshop-service/internal/audit"
	"github.com/spec-kit/repairshop-service/internal/domain"
	"github.com/spec-kit/repairshop-service/internal/repository"
)

// map-backed stand-ins for the pgx repositories, used by the engine tests.

type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("tck-%d", r.seq)
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok || stored.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string, includeDeleted bool) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if stored.DeletedAt != nil && !includeDeleted {
		return nil, pgx.ErrNoRows
	}
	copied := stored
	return &copied, nil
}

func (r *fakeTicketRepo) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.tickets {
		if stored.Number == number && stored.DeletedAt == nil {
			copied := stored
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) SoftDelete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok || stored.DeletedAt != nil {
		return false, nil
	}
	now := time.Now()
	stored.DeletedAt = &now
	r.tickets[id] = stored
	return true, nil
}

func (r *fakeTicketRepo) Restore(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok || stored.DeletedAt == nil {
		return false, nil
	}
	stored.DeletedAt = nil
	r.tickets[id] = stored
	return true, nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, stored := range r.tickets {
		if stored.DeletedAt != nil && !filter.IncludeDeleted {
			continue
		}
		if filter.TechnicianID != nil && (stored.TechnicianID == nil || *stored.TechnicianID != *filter.TechnicianID) {
			continue
		}
		if filter.BranchID != nil && stored.BranchID != *filter.BranchID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, stored.Status) {
			continue
		}
		result = append(result, stored)
	}
	return result, nil
}

func (r *fakeTicketRepo) Search(_ context.Context, term string, _, _ int) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	needle := strings.ToLower(term)
	var result []domain.Ticket
	for _, stored := range r.tickets {
		if stored.DeletedAt != nil {
			continue
		}
		if strings.Contains(strings.ToLower(stored.Number), needle) ||
			strings.Contains(strings.ToLower(stored.ErrorDescription), needle) {
			result = append(result, stored)
		}
	}
	return result, nil
}

func containsStatus(set []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, candidate := range set {
		if candidate == status {
			return true
		}
	}
	return false
}

type fakeDeviceRepo struct {
	mu      sync.Mutex
	devices map[string]domain.Device
	writes  []domain.DeviceStatus
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{devices: make(map[string]domain.Device)}
}

func (r *fakeDeviceRepo) put(device domain.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[device.ID] = device
}

func (r *fakeDeviceRepo) GetByID(_ context.Context, id string) (*domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.devices[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := stored
	return &copied, nil
}

func (r *fakeDeviceRepo) UpdateStatus(_ context.Context, id string, status domain.DeviceStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.devices[id]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.PhysicalStatus = status
	r.devices[id] = stored
	r.writes = append(r.writes, status)
	return nil
}

func (r *fakeDeviceRepo) status(id string) domain.DeviceStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.devices[id].PhysicalStatus
}

type fakeHistoryRepo struct {
	mu         sync.Mutex
	seq        int
	entries    []domain.StatusHistoryEntry
	failAppend error
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{}
}

func (r *fakeHistoryRepo) Append(_ context.Context, entry *domain.StatusHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAppend != nil {
		return r.failAppend
	}
	r.seq++
	entry.ID = fmt.Sprintf("hist-%d", r.seq)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string, limit int) ([]domain.StatusHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.StatusHistoryEntry
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

type fakeWorkLogRepo struct {
	mu         sync.Mutex
	seq        int
	entries    []domain.WorkLogEntry
	failCreate error
}

func newFakeWorkLogRepo() *fakeWorkLogRepo {
	return &fakeWorkLogRepo{}
}

func (r *fakeWorkLogRepo) Create(_ context.Context, entry *domain.WorkLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	r.seq++
	entry.ID = fmt.Sprintf("wl-%d", r.seq)
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeWorkLogRepo) FindOpen(_ context.Context, ticketID, technicianID string) (*domain.WorkLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		entry := r.entries[i]
		if entry.TicketID == ticketID && entry.TechnicianID == technicianID && entry.EndedAt == nil {
			copied := entry
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeWorkLogRepo) ListOpenByTicket(_ context.Context, ticketID string) ([]domain.WorkLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.WorkLogEntry
	for _, entry := range r.entries {
		if entry.TicketID == ticketID && entry.EndedAt == nil {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *fakeWorkLogRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.WorkLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.WorkLogEntry
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *fakeWorkLogRepo) Close(_ context.Context, id string, endedAt time.Time, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].ID == id && r.entries[i].EndedAt == nil {
			ended := endedAt
			r.entries[i].EndedAt = &ended
			r.entries[i].Description = description
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeWorkLogRepo) openFor(ticketID, technicianID string) []domain.WorkLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.WorkLogEntry
	for _, entry := range r.entries {
		if entry.TicketID == ticketID && entry.TechnicianID == technicianID && entry.EndedAt == nil {
			result = append(result, entry)
		}
	}
	return result
}

type recordingRecorder struct {
	mu      sync.Mutex
	records []audit.Record
}

func (r *recordingRecorder) Record(_ context.Context, record audit.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *recordingRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.records))
	for _, record := range r.records {
		out = append(out, record.Action)
	}
	return out
}

var errStoreDown = errors.New("store unavailable")
