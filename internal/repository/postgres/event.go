package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/quoteflow/cadence-api/internal/model"
	"github.com/quoteflow/cadence-api/internal/repository"
	apperrors "github.com/quoteflow/cadence-api/pkg/errors"
)

type eventRepository struct {
	BaseRepository
}

func NewEventRepository(base BaseRepository) repository.EventRepository {
	return &eventRepository{base}
}

func (r *eventRepository) Create(ctx context.Context, event *model.CadenceEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	query := `
		INSERT INTO cadence_events (
			id, organization_id, quote_id, kind, scheduled_for,
			status, priority, defer_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	event.ID = uuid.New()
	event.Status = model.EventStatusScheduled
	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()
	if event.Priority == "" {
		event.Priority = model.EventPriorityLow
	}

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.OrganizationID,
		event.QuoteID,
		event.Kind,
		event.ScheduledFor,
		event.Status,
		event.Priority,
		event.DeferCount,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create cadence event: %w", err)
	}
	return nil
}

func (r *eventRepository) Get(ctx context.Context, id uuid.UUID) (*model.CadenceEvent, error) {
	query := `SELECT * FROM cadence_events WHERE id = $1`

	var event model.CadenceEvent
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("cadence event", err)
		}
		return nil, fmt.Errorf("failed to get cadence event: %w", err)
	}
	return &event, nil
}

func (r *eventRepository) ListByQuote(ctx context.Context, quoteID uuid.UUID) ([]*model.CadenceEvent, error) {
	query := `
		SELECT * FROM cadence_events
		WHERE quote_id = $1
		ORDER BY scheduled_for ASC
	`
	var events []*model.CadenceEvent
	if err := r.db.SelectContext(ctx, &events, query, quoteID); err != nil {
		return nil, fmt.Errorf("failed to list cadence events: %w", err)
	}
	return events, nil
}

// ClaimDue selects due scheduled events with FOR UPDATE SKIP LOCKED, then
// flips the whole batch to claimed in one bulk update. Both statements run in
// a single transaction: two concurrent workers can never both receive the same
// event, and an abort claims nothing.
func (r *eventRepository) ClaimDue(ctx context.Context, workerID string, now time.Time, limit int) ([]*model.CadenceEvent, error) {
	selectQuery := `
		SELECT * FROM cadence_events
		WHERE status = $1
		AND scheduled_for <= $2
		AND claimed_at IS NULL
		ORDER BY CASE priority WHEN 'high' THEN 0 ELSE 1 END,
			scheduled_for ASC,
			created_at ASC
		LIMIT $3
		FOR UPDATE SKIP LOCKED
	`
	claimQuery := `
		UPDATE cadence_events
		SET status = $1, claimed_by = $2, claimed_at = $3, updated_at = $3
		WHERE id = ANY($4)
	`

	var events []*model.CadenceEvent
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.SelectContext(ctx, &events, selectQuery, model.EventStatusScheduled, now, limit); err != nil {
			return fmt.Errorf("failed to select due events: %w", err)
		}
		if len(events) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(events))
		for i, evt := range events {
			ids[i] = evt.ID
		}

		res, err := tx.ExecContext(ctx, claimQuery, model.EventStatusClaimed, workerID, now, pq.Array(ids))
		if err != nil {
			return fmt.Errorf("failed to claim events: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if int(affected) != len(events) {
			return fmt.Errorf("claimed %d of %d selected events", affected, len(events))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	claimedAt := now
	for _, evt := range events {
		evt.Status = model.EventStatusClaimed
		evt.ClaimedBy = &workerID
		evt.ClaimedAt = &claimedAt
	}
	return events, nil
}

// MarkTerminal is conditional on the row still being claimed. A zero rows
// result means another pass already finished the event, which the caller
// treats as already-applied rather than an error during crash recovery.
func (r *eventRepository) MarkTerminal(ctx context.Context, id uuid.UUID, status model.EventStatus, reason, errMsg *string) error {
	if !model.CanTransition(model.EventStatusClaimed, status) {
		return &model.ErrIllegalTransition{From: model.EventStatusClaimed, To: status}
	}
	if !status.Terminal() {
		return &model.ErrIllegalTransition{From: model.EventStatusClaimed, To: status}
	}

	query := `
		UPDATE cadence_events
		SET status = $1,
			skip_reason = $2,
			error_message = $3,
			processed_at = NOW(),
			updated_at = NOW()
		WHERE id = $4 AND status = $5
	`
	res, err := r.db.ExecContext(ctx, query, status, reason, errMsg, id, model.EventStatusClaimed)
	if err != nil {
		return fmt.Errorf("failed to mark event %s %s: %w", id, status, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("event %s is not claimed", id)
	}
	return nil
}

func (r *eventRepository) Defer(ctx context.Context, id uuid.UUID, nextAt time.Time) error {
	query := `
		UPDATE cadence_events
		SET status = $1,
			scheduled_for = $2,
			claimed_by = NULL,
			claimed_at = NULL,
			defer_count = defer_count + 1,
			updated_at = NOW()
		WHERE id = $3 AND status = $4
	`
	res, err := r.db.ExecContext(ctx, query, model.EventStatusScheduled, nextAt, id, model.EventStatusClaimed)
	if err != nil {
		return fmt.Errorf("failed to defer event %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("event %s is not claimed", id)
	}
	return nil
}

func (r *eventRepository) SweepStaleClaims(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE cadence_events
		SET status = $1,
			claimed_by = NULL,
			claimed_at = NULL,
			updated_at = NOW()
		WHERE status = $2 AND claimed_at < $3
	`
	res, err := r.db.ExecContext(ctx, query, model.EventStatusScheduled, model.EventStatusClaimed, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale claims: %w", err)
	}
	return res.RowsAffected()
}
