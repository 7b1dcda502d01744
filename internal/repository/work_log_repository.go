package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/repairshop-service/internal/domain"
)

// WorkLogRepository persists technician time-tracking intervals.
type WorkLogRepository interface {
	Create(ctx context.Context, entry *domain.WorkLogEntry) error
	// FindOpen returns the open entry for the pair, or pgx.ErrNoRows.
	FindOpen(ctx context.Context, ticketID, technicianID string) (*domain.WorkLogEntry, error)
	ListOpenByTicket(ctx context.Context, ticketID string) ([]domain.WorkLogEntry, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.WorkLogEntry, error)
	Close(ctx context.Context, id string, endedAt time.Time, description string) error
}

type workLogRepository struct {
	pool *pgxpool.Pool
}

// NewWorkLogRepository builds repository.
func NewWorkLogRepository(pool *pgxpool.Pool) WorkLogRepository {
	return &workLogRepository{pool: pool}
}

func (r *workLogRepository) Create(ctx context.Context, entry *domain.WorkLogEntry) error {
	const query = `
        INSERT INTO work_logs (ticket_id, technician_id, description, started_at, ended_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.TechnicianID,
		entry.Description,
		entry.StartedAt,
		entry.EndedAt,
	).Scan(&entry.ID)
}

func (r *workLogRepository) FindOpen(ctx context.Context, ticketID, technicianID string) (*domain.WorkLogEntry, error) {
	const query = `
        SELECT id, ticket_id, technician_id, description, started_at, ended_at
        FROM work_logs WHERE ticket_id=$1 AND technician_id=$2 AND ended_at IS NULL
        ORDER BY started_at DESC LIMIT 1`
	var entry domain.WorkLogEntry
	if err := r.pool.QueryRow(ctx, query, ticketID, technicianID).Scan(
		&entry.ID,
		&entry.TicketID,
		&entry.TechnicianID,
		&entry.Description,
		&entry.StartedAt,
		&entry.EndedAt,
	); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *workLogRepository) ListOpenByTicket(ctx context.Context, ticketID string) ([]domain.WorkLogEntry, error) {
	const query = `
        SELECT id, ticket_id, technician_id, description, started_at, ended_at
        FROM work_logs WHERE ticket_id=$1 AND ended_at IS NULL ORDER BY started_at ASC`
	return r.list(ctx, query, ticketID)
}

func (r *workLogRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.WorkLogEntry, error) {
	const query = `
        SELECT id, ticket_id, technician_id, description, started_at, ended_at
        FROM work_logs WHERE ticket_id=$1 ORDER BY started_at ASC`
	return r.list(ctx, query, ticketID)
}

func (r *workLogRepository) list(ctx context.Context, query, ticketID string) ([]domain.WorkLogEntry, error) {
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkLogEntry
	for rows.Next() {
		var entry domain.WorkLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.TechnicianID,
			&entry.Description,
			&entry.StartedAt,
			&entry.EndedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *workLogRepository) Close(ctx context.Context, id string, endedAt time.Time, description string) error {
	const query = `UPDATE work_logs SET ended_at=$1, description=$2 WHERE id=$3 AND ended_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, endedAt, description, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
