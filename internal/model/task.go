package model

import (
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeCall       TaskType = "call"
	TaskTypeManualSend TaskType = "manual_send"
)

type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusDone    TaskStatus = "done"
)

type TaskPriority string

const (
	TaskPriorityHigh TaskPriority = "high"
	TaskPriorityLow  TaskPriority = "low"
)

// Task is a human-actionable follow-up created by the cadence processor,
// either as the mandatory output of a call step or as a fallback when an
// automated email step cannot complete. Completion happens through the API.
type Task struct {
	Base
	OrganizationID uuid.UUID    `db:"organization_id" json:"organization_id"`
	QuoteID        uuid.UUID    `db:"quote_id" json:"quote_id"`
	EventID        *uuid.UUID   `db:"event_id" json:"event_id,omitempty"`
	Type           TaskType     `db:"type" json:"type"`
	Title          string       `db:"title" json:"title"`
	Description    string       `db:"description" json:"description"`
	DueAt          time.Time    `db:"due_at" json:"due_at"`
	Priority       TaskPriority `db:"priority" json:"priority"`
	Status         TaskStatus   `db:"status" json:"status"`
	CompletedAt    *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
}

type TaskFilters struct {
	OrganizationID uuid.UUID
	QuoteID        uuid.UUID
	Status         TaskStatus
	Type           TaskType
}
