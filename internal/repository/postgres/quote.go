package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quoteflow/cadence-api/internal/model"
	"github.com/quoteflow/cadence-api/internal/repository"
	apperrors "github.com/quoteflow/cadence-api/pkg/errors"
)

type quoteRepository struct {
	BaseRepository
}

func NewQuoteRepository(base BaseRepository) repository.QuoteRepository {
	return &quoteRepository{base}
}

func (r *quoteRepository) Get(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	query := `SELECT * FROM quotes WHERE id = $1`

	var quote model.Quote
	if err := r.db.GetContext(ctx, &quote, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("quote", err)
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return &quote, nil
}

func (r *quoteRepository) AdvanceStage(ctx context.Context, id uuid.UUID, stage model.CadenceStage, at time.Time) error {
	query := `
		UPDATE quotes
		SET cadence_stage = $1, last_activity_at = $2, updated_at = $2
		WHERE id = $3
	`
	res, err := r.db.ExecContext(ctx, query, stage, at, id)
	if err != nil {
		return fmt.Errorf("failed to advance quote stage: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("quote %s not found", id)
	}
	return nil
}
