package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// DeviceFilter captures console listing parameters for devices.
type DeviceFilter struct {
	ClientID   *int64
	Online     *bool
	Type       *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// DeviceRepository encapsulates device persistence.
type DeviceRepository interface {
	Create(ctx context.Context, device *domain.Device) error
	Update(ctx context.Context, device *domain.Device) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Device, error)
	GetByMAC(ctx context.Context, mac string) (*domain.Device, error)
	ListByClient(ctx context.Context, clientID int64) ([]domain.Device, error)
	List(ctx context.Context, filter DeviceFilter) ([]domain.Device, error)
}

type deviceRepository struct {
	pool *pgxpool.Pool
}

// NewDeviceRepository instantiates repository.
func NewDeviceRepository(pool *pgxpool.Pool) DeviceRepository {
	return &deviceRepository{pool: pool}
}

func (r *deviceRepository) Create(ctx context.Context, device *domain.Device) error {
	const query = `
        INSERT INTO devices (client_id, name, type, mac_address, location, online)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		device.ClientID,
		device.Name,
		device.Type,
		device.MACAddress,
		device.Location,
		device.Online,
	).Scan(&device.ID, &device.CreatedAt, &device.UpdatedAt)
}

func (r *deviceRepository) Update(ctx context.Context, device *domain.Device) error {
	const query = `
        UPDATE devices SET client_id=$1, name=$2, type=$3, mac_address=$4, location=$5, online=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		device.ClientID,
		device.Name,
		device.Type,
		device.MACAddress,
		device.Location,
		device.Online,
		device.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a device along with its protocols and their timelines.
func (r *deviceRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM devices WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *deviceRepository) GetByID(ctx context.Context, id int64) (*domain.Device, error) {
	const query = `
        SELECT id, client_id, name, type, mac_address, location, online, created_at, updated_at
        FROM devices WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *deviceRepository) GetByMAC(ctx context.Context, mac string) (*domain.Device, error) {
	const query = `
        SELECT id, client_id, name, type, mac_address, location, online, created_at, updated_at
        FROM devices WHERE mac_address=$1`
	return r.fetchSingle(ctx, query, mac)
}

func (r *deviceRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Device, error) {
	var device domain.Device
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&device.ID,
		&device.ClientID,
		&device.Name,
		&device.Type,
		&device.MACAddress,
		&device.Location,
		&device.Online,
		&device.CreatedAt,
		&device.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *deviceRepository) ListByClient(ctx context.Context, clientID int64) ([]domain.Device, error) {
	return r.List(ctx, DeviceFilter{ClientID: &clientID, Limit: 1000})
}

func (r *deviceRepository) List(ctx context.Context, filter DeviceFilter) ([]domain.Device, error) {
	base := `SELECT d.id, d.client_id, d.name, d.type, d.mac_address, d.location, d.online, d.created_at, d.updated_at
             FROM devices d JOIN clients c ON c.id = d.client_id`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("d.client_id=$%d", len(args)))
	}
	if filter.Online != nil {
		args = append(args, *filter.Online)
		clauses = append(clauses, fmt.Sprintf("d.online=$%d", len(args)))
	}
	if filter.Type != nil && strings.TrimSpace(*filter.Type) != "" {
		args = append(args, strings.TrimSpace(*filter.Type))
		clauses = append(clauses, fmt.Sprintf("d.type=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(d.name) LIKE %s OR LOWER(c.name) LIKE %s OR LOWER(d.mac_address) LIKE %s)", placeholder, placeholder, placeholder))
	}

	// Default console order: owning client first, then device name.
	query := fmt.Sprintf(`%s WHERE %s ORDER BY c.name ASC, d.name ASC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), normalizeLimit(filter.Limit), normalizeOffset(filter.Offset))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDevices(rows)
}

func scanDevices(rows pgx.Rows) ([]domain.Device, error) {
	var result []domain.Device
	for rows.Next() {
		var device domain.Device
		if err := rows.Scan(
			&device.ID,
			&device.ClientID,
			&device.Name,
			&device.Type,
			&device.MACAddress,
			&device.Location,
			&device.Online,
			&device.CreatedAt,
			&device.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, device)
	}
	return result, rows.Err()
}
