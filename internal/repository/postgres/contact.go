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

type contactRepository struct {
	BaseRepository
}

func NewContactRepository(base BaseRepository) repository.ContactRepository {
	return &contactRepository{base}
}

func (r *contactRepository) Get(ctx context.Context, id uuid.UUID) (*model.Contact, error) {
	query := `SELECT * FROM contacts WHERE id = $1`

	var contact model.Contact
	if err := r.db.GetContext(ctx, &contact, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("contact", err)
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return &contact, nil
}
