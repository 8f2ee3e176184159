package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quoteflow/cadence-api/internal/model"
	"github.com/quoteflow/cadence-api/internal/repository"
)

type suppressionRepository struct {
	BaseRepository
}

func NewSuppressionRepository(base BaseRepository) repository.SuppressionRepository {
	return &suppressionRepository{base}
}

func (r *suppressionRepository) Exists(ctx context.Context, orgID uuid.UUID, email string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM suppressions
			WHERE organization_id = $1 AND email = $2
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, orgID, strings.ToLower(email)); err != nil {
		return false, fmt.Errorf("failed to check suppression: %w", err)
	}
	return exists, nil
}

func (r *suppressionRepository) Create(ctx context.Context, s *model.Suppression) error {
	query := `
		INSERT INTO suppressions (id, organization_id, email, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (organization_id, email) DO NOTHING
	`
	s.ID = uuid.New()
	s.Email = strings.ToLower(s.Email)
	s.CreatedAt = time.Now()
	s.UpdatedAt = time.Now()

	if _, err := r.db.ExecContext(ctx, query, s.ID, s.OrganizationID, s.Email, s.Reason, s.CreatedAt, s.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create suppression: %w", err)
	}
	return nil
}

func (r *suppressionRepository) Delete(ctx context.Context, orgID uuid.UUID, email string) error {
	query := `DELETE FROM suppressions WHERE organization_id = $1 AND email = $2`
	if _, err := r.db.ExecContext(ctx, query, orgID, strings.ToLower(email)); err != nil {
		return fmt.Errorf("failed to delete suppression: %w", err)
	}
	return nil
}

func (r *suppressionRepository) List(ctx context.Context, orgID uuid.UUID) ([]*model.Suppression, error) {
	query := `SELECT * FROM suppressions WHERE organization_id = $1 ORDER BY created_at DESC`

	var suppressions []*model.Suppression
	if err := r.db.SelectContext(ctx, &suppressions, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to list suppressions: %w", err)
	}
	return suppressions, nil
}
