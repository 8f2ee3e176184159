package model

import (
	"time"

	"github.com/google/uuid"
)

type QuoteStatus string

const (
	QuoteStatusDraft       QuoteStatus = "draft"
	QuoteStatusSent        QuoteStatus = "sent"
	QuoteStatusNegotiation QuoteStatus = "negotiation"
	QuoteStatusWon         QuoteStatus = "won"
	QuoteStatusLost        QuoteStatus = "lost"
)

// CadenceStage marks how far the follow-up cadence has progressed for a quote.
// It is written exclusively by the cadence processor.
type CadenceStage string

const (
	CadenceStageNone      CadenceStage = "none"
	CadenceStageReminded1 CadenceStage = "reminded_1"
	CadenceStageReminded2 CadenceStage = "reminded_2"
	CadenceStageCalled    CadenceStage = "called"
	CadenceStageFinal     CadenceStage = "final_notice"
)

// Quote is owned by the quote-management surface; the cadence engine only
// reads Status and writes CadenceStage/LastActivityAt.
type Quote struct {
	Base
	OrganizationID uuid.UUID    `db:"organization_id" json:"organization_id"`
	ContactID      uuid.UUID    `db:"contact_id" json:"contact_id"`
	Reference      string       `db:"reference" json:"reference"`
	Title          string       `db:"title" json:"title"`
	ValueCents     int64        `db:"value_cents" json:"value_cents"`
	Currency       string       `db:"currency" json:"currency"`
	Status         QuoteStatus  `db:"status" json:"status"`
	CadenceStage   CadenceStage `db:"cadence_stage" json:"cadence_stage"`
	SentAt         *time.Time   `db:"sent_at" json:"sent_at,omitempty"`
	LastActivityAt *time.Time   `db:"last_activity_at" json:"last_activity_at,omitempty"`
}
