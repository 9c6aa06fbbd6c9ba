package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cornjacket/returns-service/internal/services/returns"
)

// ReturnsRepo implements returns.Repository using PostgreSQL.
// IDs come from a BIGSERIAL sequence, so a deleted ID is never handed out again.
type ReturnsRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewReturnsRepo creates a new ReturnsRepo.
func NewReturnsRepo(pool *pgxpool.Pool, logger *slog.Logger) *ReturnsRepo {
	return &ReturnsRepo{
		pool:   pool,
		logger: logger.With("repository", "returns"),
	}
}

const returnColumns = `id, order_id, reason, status`

func scanReturn(row pgx.Row) (*returns.Return, error) {
	var ret returns.Return
	if err := row.Scan(&ret.ID, &ret.OrderID, &ret.Reason, &ret.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, returns.ErrNotFound
		}
		return nil, err
	}
	return &ret, nil
}

// Create inserts a new return and returns the stored row.
func (r *ReturnsRepo) Create(ctx context.Context, ret returns.Return) (*returns.Return, error) {
	query := `
		INSERT INTO returns (order_id, reason, status)
		VALUES ($1, $2, $3)
		RETURNING ` + returnColumns

	stored, err := scanReturn(r.pool.QueryRow(ctx, query, ret.OrderID, ret.Reason, ret.Status))
	if err != nil {
		return nil, fmt.Errorf("failed to insert return: %w", err)
	}

	r.logger.Debug("return inserted", "return_id", stored.ID, "order_id", stored.OrderID)
	return stored, nil
}

// List returns all returns ordered by ID.
func (r *ReturnsRepo) List(ctx context.Context) ([]returns.Return, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+returnColumns+` FROM returns ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list returns: %w", err)
	}
	defer rows.Close()

	list := []returns.Return{}
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan return: %w", err)
		}
		list = append(list, *ret)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate returns: %w", err)
	}

	return list, nil
}

// Get returns a single return, or returns.ErrNotFound.
func (r *ReturnsRepo) Get(ctx context.Context, id int64) (*returns.Return, error) {
	ret, err := scanReturn(r.pool.QueryRow(ctx, `SELECT `+returnColumns+` FROM returns WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, returns.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get return: %w", err)
	}
	return ret, nil
}

// UpdateStatus overwrites the status of a return in a single statement.
func (r *ReturnsRepo) UpdateStatus(ctx context.Context, id int64, status returns.Status) (*returns.Return, error) {
	query := `
		UPDATE returns
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + returnColumns

	ret, err := scanReturn(r.pool.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, returns.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update return status: %w", err)
	}
	return ret, nil
}

// Delete hard-deletes a return.
func (r *ReturnsRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM returns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete return: %w", err)
	}
	if result.RowsAffected() == 0 {
		return returns.ErrNotFound
	}
	return nil
}
