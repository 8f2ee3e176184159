package model

import (
	"time"

	"github.com/google/uuid"
)

// Suppression is a per-organization opt-out record keyed by lowercased email.
// Its existence blocks all automated sends to that address.
type Suppression struct {
	Base
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	Email          string    `db:"email" json:"email"`
	Reason         string    `db:"reason" json:"reason"`
}

// SendLog records one successful automated send. The cooldown check reads the
// most recent entry per quote.
type SendLog struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	QuoteID        uuid.UUID `db:"quote_id" json:"quote_id"`
	EventID        uuid.UUID `db:"event_id" json:"event_id"`
	Recipient      string    `db:"recipient" json:"recipient"`
	Provider       string    `db:"provider" json:"provider"`
	MessageID      *string   `db:"message_id" json:"message_id,omitempty"`
	SentAt         time.Time `db:"sent_at" json:"sent_at"`
}
