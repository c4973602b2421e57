package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

const protocolUpdateInsertQuery = `
        INSERT INTO protocol_updates (protocol_id, body, author_id)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`

// ProtocolUpdateRepository manages the append-only protocol timeline.
// There are no update or delete operations; entries are immutable.
type ProtocolUpdateRepository interface {
	Create(ctx context.Context, update *domain.ProtocolUpdate) error
	ListByProtocol(ctx context.Context, protocolID int64) ([]domain.ProtocolUpdate, error)
}

type protocolUpdateRepository struct {
	pool *pgxpool.Pool
}

// NewProtocolUpdateRepository builds repository.
func NewProtocolUpdateRepository(pool *pgxpool.Pool) ProtocolUpdateRepository {
	return &protocolUpdateRepository{pool: pool}
}

func (r *protocolUpdateRepository) Create(ctx context.Context, update *domain.ProtocolUpdate) error {
	return r.pool.QueryRow(ctx, protocolUpdateInsertQuery,
		update.ProtocolID,
		update.Body,
		update.AuthorID,
	).Scan(&update.ID, &update.CreatedAt)
}

// ListByProtocol returns the timeline oldest first. The id tiebreak keeps
// entries written in the same instant stably ordered.
func (r *protocolUpdateRepository) ListByProtocol(ctx context.Context, protocolID int64) ([]domain.ProtocolUpdate, error) {
	const query = `
        SELECT id, protocol_id, body, author_id, created_at
        FROM protocol_updates WHERE protocol_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, protocolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ProtocolUpdate
	for rows.Next() {
		var update domain.ProtocolUpdate
		if err := rows.Scan(
			&update.ID,
			&update.ProtocolID,
			&update.Body,
			&update.AuthorID,
			&update.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, update)
	}
	return result, rows.Err()
}
