package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// ProtocolFilter captures console listing parameters for protocols.
type ProtocolFilter struct {
	DeviceID   *int64
	ClientID   *int64
	Statuses   []domain.ProtocolStatus
	SearchTerm *string
	Limit      int
	Offset     int
}

// ProtocolRepository encapsulates protocol persistence.
type ProtocolRepository interface {
	Create(ctx context.Context, protocol *domain.Protocol) error
	// CreateWithFirstUpdate persists the protocol and its initial timeline
	// entry in one transaction; on failure neither row is retained.
	CreateWithFirstUpdate(ctx context.Context, protocol *domain.Protocol, update *domain.ProtocolUpdate) error
	Update(ctx context.Context, protocol *domain.Protocol) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Protocol, error)
	List(ctx context.Context, filter ProtocolFilter) ([]domain.Protocol, error)
}

type protocolRepository struct {
	pool *pgxpool.Pool
}

// NewProtocolRepository instantiates repository.
func NewProtocolRepository(pool *pgxpool.Pool) ProtocolRepository {
	return &protocolRepository{pool: pool}
}

const protocolInsertQuery = `
        INSERT INTO protocols (device_id, client_id, buic, mqtt_topic, example_payload, description, status, technician_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`

func (r *protocolRepository) Create(ctx context.Context, protocol *domain.Protocol) error {
	return r.pool.QueryRow(ctx, protocolInsertQuery,
		protocol.DeviceID,
		protocol.ClientID,
		protocol.BUIC,
		protocol.MQTTTopic,
		protocol.ExamplePayload,
		protocol.Description,
		protocol.Status,
		protocol.TechnicianID,
	).Scan(&protocol.ID, &protocol.CreatedAt, &protocol.UpdatedAt)
}

func (r *protocolRepository) CreateWithFirstUpdate(ctx context.Context, protocol *domain.Protocol, update *domain.ProtocolUpdate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := tx.QueryRow(ctx, protocolInsertQuery,
		protocol.DeviceID,
		protocol.ClientID,
		protocol.BUIC,
		protocol.MQTTTopic,
		protocol.ExamplePayload,
		protocol.Description,
		protocol.Status,
		protocol.TechnicianID,
	).Scan(&protocol.ID, &protocol.CreatedAt, &protocol.UpdatedAt); err != nil {
		return err
	}

	update.ProtocolID = protocol.ID
	if err := tx.QueryRow(ctx, protocolUpdateInsertQuery,
		update.ProtocolID,
		update.Body,
		update.AuthorID,
	).Scan(&update.ID, &update.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *protocolRepository) Update(ctx context.Context, protocol *domain.Protocol) error {
	const query = `
        UPDATE protocols SET device_id=$1, client_id=$2, buic=$3, mqtt_topic=$4, example_payload=$5,
            description=$6, status=$7, technician_id=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		protocol.DeviceID,
		protocol.ClientID,
		protocol.BUIC,
		protocol.MQTTTopic,
		protocol.ExamplePayload,
		protocol.Description,
		protocol.Status,
		protocol.TechnicianID,
		protocol.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a protocol and, by cascade, its timeline.
func (r *protocolRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM protocols WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *protocolRepository) GetByID(ctx context.Context, id int64) (*domain.Protocol, error) {
	const query = `
        SELECT id, device_id, client_id, buic, mqtt_topic, example_payload, description, status, technician_id, created_at, updated_at
        FROM protocols WHERE id=$1`
	var protocol domain.Protocol
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&protocol.ID,
		&protocol.DeviceID,
		&protocol.ClientID,
		&protocol.BUIC,
		&protocol.MQTTTopic,
		&protocol.ExamplePayload,
		&protocol.Description,
		&protocol.Status,
		&protocol.TechnicianID,
		&protocol.CreatedAt,
		&protocol.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &protocol, nil
}

func (r *protocolRepository) List(ctx context.Context, filter ProtocolFilter) ([]domain.Protocol, error) {
	base := `SELECT id, device_id, client_id, buic, mqtt_topic, example_payload, description, status, technician_id, created_at, updated_at
             FROM protocols`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.DeviceID != nil {
		args = append(args, *filter.DeviceID)
		clauses = append(clauses, fmt.Sprintf("device_id=$%d", len(args)))
	}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("client_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(description) LIKE %s OR LOWER(COALESCE(mqtt_topic, '')) LIKE %s OR LOWER(COALESCE(buic, '')) LIKE %s)", placeholder, placeholder, placeholder))
	}

	// Newest protocols first.
	query := fmt.Sprintf(`%s WHERE %s ORDER BY id DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), normalizeLimit(filter.Limit), normalizeOffset(filter.Offset))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProtocols(rows)
}

func scanProtocols(rows pgx.Rows) ([]domain.Protocol, error) {
	var result []domain.Protocol
	for rows.Next() {
		var protocol domain.Protocol
		if err := rows.Scan(
			&protocol.ID,
			&protocol.DeviceID,
			&protocol.ClientID,
			&protocol.BUIC,
			&protocol.MQTTTopic,
			&protocol.ExamplePayload,
			&protocol.Description,
			&protocol.Status,
			&protocol.TechnicianID,
			&protocol.CreatedAt,
			&protocol.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, protocol)
	}
	return result, rows.Err()
}
