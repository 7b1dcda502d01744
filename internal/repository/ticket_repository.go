package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/repairshop-service/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	Statuses        []domain.TicketStatus
	TechnicianID    *string
	BranchID        *string
	IncludeDeleted  bool
	ExcludeReturned bool
	OnlyReturned    bool
	Limit           int
	Offset          int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string, includeDeleted bool) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	SoftDelete(ctx context.Context, id string) (bool, error)
	Restore(ctx context.Context, id string) (bool, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Search(ctx context.Context, term string, limit, offset int) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, number, device_id, branch_id, technician_id, status, priority,
               error_description, estimated_cost, actual_cost, internal_notes,
               created_at, updated_at, completed_at, deleted_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (number, device_id, branch_id, technician_id, status, priority,
                             error_description, estimated_cost, actual_cost, internal_notes, completed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Number,
		ticket.DeviceID,
		ticket.BranchID,
		ticket.TechnicianID,
		ticket.Status,
		ticket.Priority,
		ticket.ErrorDescription,
		ticket.EstimatedCost,
		ticket.ActualCost,
		ticket.InternalNotes,
		ticket.CompletedAt,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET branch_id=$1, technician_id=$2, status=$3, priority=$4,
            error_description=$5, estimated_cost=$6, actual_cost=$7, internal_notes=$8,
            completed_at=$9, updated_at=NOW()
        WHERE id=$10 AND deleted_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.BranchID,
		ticket.TechnicianID,
		ticket.Status,
		ticket.Priority,
		ticket.ErrorDescription,
		ticket.EstimatedCost,
		ticket.ActualCost,
		ticket.InternalNotes,
		ticket.CompletedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string, includeDeleted bool) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE number=$1 AND deleted_at IS NULL`, ticketColumns)
	return r.fetchSingle(ctx, query, number)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, arg), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) SoftDelete(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE tickets SET deleted_at=NOW(), updated_at=NOW() WHERE id=$1 AND deleted_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketRepository) Restore(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE tickets SET deleted_at=NULL, updated_at=NOW() WHERE id=$1 AND deleted_at IS NOT NULL`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets t`, prefixColumns("t"))
	clauses := []string{"1=1"}
	args := []any{}

	if !filter.IncludeDeleted {
		clauses = append(clauses, "t.deleted_at IS NULL")
	}
	if filter.TechnicianID != nil {
		args = append(args, *filter.TechnicianID)
		clauses = append(clauses, fmt.Sprintf("t.technician_id=$%d", len(args)))
	}
	if filter.BranchID != nil {
		args = append(args, *filter.BranchID)
		clauses = append(clauses, fmt.Sprintf("t.branch_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ExcludeReturned || filter.OnlyReturned {
		base += ` JOIN devices d ON d.id = t.device_id`
		args = append(args, domain.DeviceStatusReturned)
		op := "<>"
		if filter.OnlyReturned {
			op = "="
		}
		clauses = append(clauses, fmt.Sprintf("d.physical_status %s $%d", op, len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Search(ctx context.Context, term string, limit, offset int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	search := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	query := fmt.Sprintf(`
        SELECT %s FROM tickets
        WHERE deleted_at IS NULL
          AND (LOWER(number) LIKE $1 OR LOWER(error_description) LIKE $1 OR LOWER(internal_notes) LIKE $1)
        ORDER BY updated_at DESC LIMIT %d OFFSET %d`, ticketColumns, limit, offset)
	rows, err := r.pool.Query(ctx, query, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func prefixColumns(alias string) string {
	cols := strings.Split(ticketColumns, ",")
	for i := range cols {
		cols[i] = alias + "." + strings.TrimSpace(cols[i])
	}
	return strings.Join(cols, ", ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.Number,
		&ticket.DeviceID,
		&ticket.BranchID,
		&ticket.TechnicianID,
		&ticket.Status,
		&ticket.Priority,
		&ticket.ErrorDescription,
		&ticket.EstimatedCost,
		&ticket.ActualCost,
		&ticket.InternalNotes,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.CompletedAt,
		&ticket.DeletedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
