package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quoteflow/cadence-api/internal/model"
	"github.com/quoteflow/cadence-api/internal/repository"
)

type sendLogRepository struct {
	BaseRepository
}

func NewSendLogRepository(base BaseRepository) repository.SendLogRepository {
	return &sendLogRepository{base}
}

func (r *sendLogRepository) Create(ctx context.Context, entry *model.SendLog) error {
	query := `
		INSERT INTO send_log (
			id, organization_id, quote_id, event_id, recipient,
			provider, message_id, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	entry.ID = uuid.New()
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.OrganizationID,
		entry.QuoteID,
		entry.EventID,
		entry.Recipient,
		entry.Provider,
		entry.MessageID,
		entry.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create send log entry: %w", err)
	}
	return nil
}

func (r *sendLogRepository) LastSentAt(ctx context.Context, quoteID uuid.UUID) (*time.Time, error) {
	query := `
		SELECT sent_at FROM send_log
		WHERE quote_id = $1
		ORDER BY sent_at DESC
		LIMIT 1
	`
	var sentAt time.Time
	if err := r.db.GetContext(ctx, &sentAt, query, quoteID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last send time: %w", err)
	}
	return &sentAt, nil
}
