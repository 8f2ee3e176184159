package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/quoteflow/cadence-api/internal/model"
	"github.com/quoteflow/cadence-api/internal/repository"
	apperrors "github.com/quoteflow/cadence-api/pkg/errors"
)

type organizationRepository struct {
	BaseRepository
}

func NewOrganizationRepository(base BaseRepository) repository.OrganizationRepository {
	return &organizationRepository{base}
}

func (r *organizationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	query := `SELECT * FROM organizations WHERE id = $1`

	var org model.Organization
	if err := r.db.GetContext(ctx, &org, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("organization", err)
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

// ReserveStorage is a single conditional update: the quota comparison and the
// increment happen in one statement, so concurrent reservations cannot
// overshoot the limit. Returns false when the reservation does not fit.
func (r *organizationRepository) ReserveStorage(ctx context.Context, id uuid.UUID, size int64) (bool, error) {
	query := `
		UPDATE organizations
		SET storage_used_bytes = storage_used_bytes + $1, updated_at = NOW()
		WHERE id = $2
		AND storage_used_bytes + $1 <= storage_limit_bytes
	`
	res, err := r.db.ExecContext(ctx, query, size, id)
	if err != nil {
		return false, fmt.Errorf("failed to reserve storage: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ReleaseStorage never drops the counter below zero even if called twice.
func (r *organizationRepository) ReleaseStorage(ctx context.Context, id uuid.UUID, size int64) error {
	query := `
		UPDATE organizations
		SET storage_used_bytes = GREATEST(storage_used_bytes - $1, 0), updated_at = NOW()
		WHERE id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, size, id); err != nil {
		return fmt.Errorf("failed to release storage: %w", err)
	}
	return nil
}

func (r *organizationRepository) IncrementQuotesUsed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE organizations
		SET quotes_used = quotes_used + 1, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to increment quote usage: %w", err)
	}
	return nil
}
