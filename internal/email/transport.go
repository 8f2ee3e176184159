package email

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/quoteflow/cadence-api/internal/model"
)

// Providers reported in send outcomes.
const (
	ProviderTenantSMTP = "tenant_smtp"
	ProviderSharedSMTP = "shared_smtp"
)

// Message is a rendered email ready for delivery.
type Message struct {
	OrganizationID uuid.UUID
	QuoteID        uuid.UUID
	EventID        uuid.UUID
	TemplateID     uuid.UUID
	Recipient      string
	Subject        string
	Body           string
}

// Outcome is the result of a delivery attempt. Deferred and Suppressed are
// first-class outcomes distinct from failure: a deferral re-enters the claim
// pool, a suppression terminates the step without a fallback task.
type Outcome struct {
	Success       bool
	Provider      string
	MessageID     *string
	Deferred      bool
	DeferredUntil time.Time
	DeferReason   string
	Suppressed    bool
	Error         string
}

// Transport attempts delivery via the tenant's configured channel or the
// shared fallback channel.
type Transport interface {
	Send(ctx context.Context, org *model.Organization, msg *Message) (*Outcome, error)

	// CanSend reports whether any channel (tenant or shared) is available for
	// the organization. False routes the step onto the fallback task path.
	CanSend(org *model.Organization) bool
}
