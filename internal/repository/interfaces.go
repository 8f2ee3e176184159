package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/quoteflow/cadence-api/internal/model"
)

// All repository interfaces in one file
type (
	// EventRepository owns the cadence_events table. Claiming and status
	// updates are the only writers; rows are never deleted.
	EventRepository interface {
		Create(ctx context.Context, event *model.CadenceEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.CadenceEvent, error)
		ListByQuote(ctx context.Context, quoteID uuid.UUID) ([]*model.CadenceEvent, error)

		// ClaimDue atomically selects due, unclaimed events and flips them to
		// claimed for the given worker, all inside one transaction. Ordering is
		// priority descending, then scheduled_for ascending, then insertion
		// order. A transaction abort claims nothing.
		ClaimDue(ctx context.Context, workerID string, now time.Time, limit int) ([]*model.CadenceEvent, error)

		// MarkTerminal moves a claimed event to a terminal status. The update
		// is conditional on the row still being claimed, so a crash-and-retry
		// cannot double-apply an outcome.
		MarkTerminal(ctx context.Context, id uuid.UUID, status model.EventStatus, reason, errMsg *string) error

		// Defer resets a claimed event to scheduled with claim fields cleared
		// and scheduled_for moved to nextAt, so it re-enters the claim pool.
		Defer(ctx context.Context, id uuid.UUID, nextAt time.Time) error

		// SweepStaleClaims reverts events claimed before the cutoff back to
		// scheduled. Guards against crashed workers holding claims forever.
		SweepStaleClaims(ctx context.Context, cutoff time.Time) (int64, error)
	}

	QuoteRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Quote, error)

		// AdvanceStage sets the cadence stage and touches last_activity_at.
		// The stage is a pure function of event kind, so re-applying the same
		// advancement is idempotent.
		AdvanceStage(ctx context.Context, id uuid.UUID, stage model.CadenceStage, at time.Time) error
	}

	ContactRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Contact, error)
	}

	TaskRepository interface {
		Create(ctx context.Context, task *model.Task) error
		Get(ctx context.Context, id uuid.UUID) (*model.Task, error)
		List(ctx context.Context, filters *model.TaskFilters) ([]*model.Task, error)
		Complete(ctx context.Context, id uuid.UUID, at time.Time) error
	}

	// OrganizationRepository reads tenant policy snapshots and owns the atomic
	// counter updates used by the entitlement gate.
	OrganizationRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Organization, error)

		// ReserveStorage conditionally adds size to the usage counter in a
		// single statement; returns false when the quota would be exceeded.
		ReserveStorage(ctx context.Context, id uuid.UUID, size int64) (bool, error)

		// ReleaseStorage is the compensating rollback for a reservation whose
		// subsequent write failed.
		ReleaseStorage(ctx context.Context, id uuid.UUID, size int64) error

		IncrementQuotesUsed(ctx context.Context, id uuid.UUID) error
	}

	SuppressionRepository interface {
		Exists(ctx context.Context, orgID uuid.UUID, email string) (bool, error)
		Create(ctx context.Context, s *model.Suppression) error
		Delete(ctx context.Context, orgID uuid.UUID, email string) error
		List(ctx context.Context, orgID uuid.UUID) ([]*model.Suppression, error)
	}

	TemplateRepository interface {
		GetActiveByCode(ctx context.Context, orgID uuid.UUID, code string) (*model.MessageTemplate, error)
	}

	SendLogRepository interface {
		Create(ctx context.Context, entry *model.SendLog) error

		// LastSentAt returns the most recent successful send for the quote,
		// or nil when nothing has been sent yet. Feeds the cooldown check.
		LastSentAt(ctx context.Context, quoteID uuid.UUID) (*time.Time, error)
	}
)
