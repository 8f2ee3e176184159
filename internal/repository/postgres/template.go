package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/quoteflow/cadence-api/internal/model"
	"github.com/quoteflow/cadence-api/internal/repository"
)

type templateRepository struct {
	BaseRepository
}

func NewTemplateRepository(base BaseRepository) repository.TemplateRepository {
	return &templateRepository{base}
}

// GetActiveByCode returns nil without error when no active template exists;
// the processor turns that into a skipped event with a fallback task.
func (r *templateRepository) GetActiveByCode(ctx context.Context, orgID uuid.UUID, code string) (*model.MessageTemplate, error) {
	query := `
		SELECT * FROM message_templates
		WHERE organization_id = $1 AND code = $2 AND active = TRUE
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var tmpl model.MessageTemplate
	if err := r.db.GetContext(ctx, &tmpl, query, orgID, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get template %s: %w", code, err)
	}
	return &tmpl, nil
}
