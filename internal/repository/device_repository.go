package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/repairshop-service/internal/domain"
)

// DeviceRepository exposes the device rows the synchronizer writes.
type DeviceRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Device, error)
	UpdateStatus(ctx context.Context, id string, status domain.DeviceStatus) error
}

type deviceRepository struct {
	pool *pgxpool.Pool
}

// NewDeviceRepository builds repository.
func NewDeviceRepository(pool *pgxpool.Pool) DeviceRepository {
	return &deviceRepository{pool: pool}
}

func (r *deviceRepository) GetByID(ctx context.Context, id string) (*domain.Device, error) {
	const query = `
        SELECT id, customer_id, brand, model, serial_number, physical_status, created_at, updated_at
        FROM devices WHERE id=$1`
	var device domain.Device
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&device.ID,
		&device.CustomerID,
		&device.Brand,
		&device.Model,
		&device.SerialNumber,
		&device.PhysicalStatus,
		&device.CreatedAt,
		&device.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *deviceRepository) UpdateStatus(ctx context.Context, id string, status domain.DeviceStatus) error {
	const query = `UPDATE devices SET physical_status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
