package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventKind identifies one step of the follow-up cadence. The set is closed:
// the stage and template mappings in the cadence service switch exhaustively
// over it, so a new kind cannot be added without updating every mapping site.
type EventKind string

const (
	EventKindEmailDay1  EventKind = "email_day1"
	EventKindEmailDay3  EventKind = "email_day3"
	EventKindCallDay7   EventKind = "call_day7"
	EventKindEmailDay14 EventKind = "email_day14"
)

// IsEmail reports whether the kind is delivered over the email transport.
// Call kinds are human-executed and always produce a task instead.
func (k EventKind) IsEmail() bool {
	return k != EventKindCallDay7
}

func (k EventKind) Valid() bool {
	switch k {
	case EventKindEmailDay1, EventKindEmailDay3, EventKindCallDay7, EventKindEmailDay14:
		return true
	}
	return false
}

type EventStatus string

const (
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusClaimed   EventStatus = "claimed"
	EventStatusSent      EventStatus = "sent"
	EventStatusCompleted EventStatus = "completed"
	EventStatusFailed    EventStatus = "failed"
	EventStatusSkipped   EventStatus = "skipped"
	EventStatusCancelled EventStatus = "cancelled"
)

// Terminal reports whether the status ends the event's lifecycle.
func (s EventStatus) Terminal() bool {
	switch s {
	case EventStatusSent, EventStatusCompleted, EventStatusFailed, EventStatusSkipped, EventStatusCancelled:
		return true
	}
	return false
}

// eventTransitions is the authoritative transition table. A deferral is not a
// distinct stored status: it moves a claimed event back to scheduled with the
// claim fields cleared, so the event re-enters the claim pool.
var eventTransitions = map[EventStatus][]EventStatus{
	EventStatusScheduled: {EventStatusClaimed, EventStatusCancelled},
	EventStatusClaimed: {
		EventStatusScheduled, // deferral or stale-claim sweep
		EventStatusSent,
		EventStatusCompleted,
		EventStatusFailed,
		EventStatusSkipped,
		EventStatusCancelled,
	},
}

// CanTransition reports whether moving an event from one status to another is
// legal. Terminal statuses have no outgoing transitions.
func CanTransition(from, to EventStatus) bool {
	for _, next := range eventTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ErrIllegalTransition is returned by repositories when a status update would
// violate the transition table.
type ErrIllegalTransition struct {
	From EventStatus
	To   EventStatus
}

func (e *ErrIllegalTransition) Error() string {
	return fmt.Sprintf("illegal event transition %s -> %s", e.From, e.To)
}

type EventPriority string

const (
	EventPriorityHigh EventPriority = "high"
	EventPriorityLow  EventPriority = "low"
)

// Skip reasons recorded on skipped/cancelled events.
const (
	SkipReasonNoEmail       = "no_email"
	SkipReasonNotEntitled   = "not_entitled"
	SkipReasonSuppressed    = "suppressed"
	SkipReasonNoSMTP        = "no_smtp"
	SkipReasonNoTemplate    = "no_template"
	SkipReasonDeferralLimit = "deferral_limit"
	CancelReasonStatus      = "status_changed"
)

// CadenceEvent is one unit of scheduled follow-up work tied to a quote. Rows
// are never deleted; terminal rows double as the audit trail of the cadence.
type CadenceEvent struct {
	Base
	OrganizationID uuid.UUID     `db:"organization_id" json:"organization_id"`
	QuoteID        uuid.UUID     `db:"quote_id" json:"quote_id"`
	Kind           EventKind     `db:"kind" json:"kind"`
	ScheduledFor   time.Time     `db:"scheduled_for" json:"scheduled_for"`
	Status         EventStatus   `db:"status" json:"status"`
	Priority       EventPriority `db:"priority" json:"priority"`
	ClaimedBy      *string       `db:"claimed_by" json:"claimed_by,omitempty"`
	ClaimedAt      *time.Time    `db:"claimed_at" json:"claimed_at,omitempty"`
	ProcessedAt    *time.Time    `db:"processed_at" json:"processed_at,omitempty"`
	DeferCount     int           `db:"defer_count" json:"defer_count"`
	SkipReason     *string       `db:"skip_reason" json:"skip_reason,omitempty"`
	ErrorMessage   *string       `db:"error_message" json:"error_message,omitempty"`
}

// BatchResult aggregates the outcome counters of one worker tick. The batch
// call returns it instead of erroring on per-event failures.
type BatchResult struct {
	WorkerID     string `json:"worker_id"`
	Claimed      int    `json:"claimed"`
	Processed    int    `json:"processed"`
	Sent         int    `json:"sent"`
	Completed    int    `json:"completed"`
	Failed       int    `json:"failed"`
	Skipped      int    `json:"skipped"`
	Deferred     int    `json:"deferred"`
	Cancelled    int    `json:"cancelled"`
	TasksCreated int    `json:"tasks_created"`
	Swept        int    `json:"swept"`
}

// EventNotification is published to the message broker after each terminal
// outcome so downstream consumers (dashboards, activity feeds) can react.
type EventNotification struct {
	EventID        uuid.UUID   `json:"event_id"`
	OrganizationID uuid.UUID   `json:"organization_id"`
	QuoteID        uuid.UUID   `json:"quote_id"`
	Kind           EventKind   `json:"kind"`
	Status         EventStatus `json:"status"`
	Reason         string      `json:"reason,omitempty"`
	WorkerID       string      `json:"worker_id"`
	OccurredAt     time.Time   `json:"occurred_at"`
}
