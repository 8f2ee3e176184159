package email

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/quoteflow/cadence-api/internal/model"
	"github.com/quoteflow/cadence-api/internal/repository"
	"github.com/quoteflow/cadence-api/internal/service/schedule"
	"github.com/quoteflow/cadence-api/pkg/logger"
	"github.com/quoteflow/cadence-api/pkg/security"
)

// SharedSMTPConfig is the platform-level fallback channel used by tenants
// without their own SMTP settings.
type SharedSMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// Configured reports whether the shared channel is usable.
func (c SharedSMTPConfig) Configured() bool {
	return c.Host != "" && c.From != ""
}

type dialSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPTransport delivers cadence emails over SMTP. Before dialing it applies
// the organization's send window and the per-quote cooldown, reporting a
// deferral instead of sending when either gate is closed.
type SMTPTransport struct {
	shared       SharedSMTPConfig
	suppressions repository.SuppressionRepository
	sendLog      repository.SendLogRepository
	encryptor    security.Encryptor
	logger       *logger.Logger
	now          func() time.Time

	// dial is swapped out in tests to avoid network I/O.
	dial func(host string, port int, user, pass string) dialSender
}

func NewSMTPTransport(
	shared SharedSMTPConfig,
	suppressions repository.SuppressionRepository,
	sendLog repository.SendLogRepository,
	encryptor security.Encryptor,
	logger *logger.Logger,
) *SMTPTransport {
	return &SMTPTransport{
		shared:       shared,
		suppressions: suppressions,
		sendLog:      sendLog,
		encryptor:    encryptor,
		logger:       logger,
		now:          time.Now,
		dial: func(host string, port int, user, pass string) dialSender {
			return gomail.NewDialer(host, port, user, pass)
		},
	}
}

func (t *SMTPTransport) CanSend(org *model.Organization) bool {
	return org.HasOwnSMTP() || t.shared.Configured()
}

func (t *SMTPTransport) Send(ctx context.Context, org *model.Organization, msg *Message) (*Outcome, error) {
	now := t.now()

	// Suppression re-checked at the transport boundary; an opt-out recorded
	// between claim and send must still block delivery.
	suppressed, err := t.suppressions.Exists(ctx, org.ID, msg.Recipient)
	if err != nil {
		return nil, fmt.Errorf("failed to check suppression: %w", err)
	}
	if suppressed {
		return &Outcome{Suppressed: true}, nil
	}

	window := schedule.Window{
		Timezone: org.Timezone,
		Start:    org.SendWindowStart,
		End:      org.SendWindowEnd,
	}
	within, err := window.IsWithin(now)
	if err != nil {
		return nil, fmt.Errorf("invalid send window for organization %s: %w", org.ID, err)
	}
	if !within {
		next, err := window.NextEligible(now)
		if err != nil {
			return nil, err
		}
		return &Outcome{Deferred: true, DeferredUntil: next, DeferReason: "outside_window"}, nil
	}

	lastSent, err := t.sendLog.LastSentAt(ctx, msg.QuoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to read send log: %w", err)
	}
	if !schedule.HasCooldownElapsed(lastSent, schedule.CooldownHours, now) {
		next := lastSent.Add(schedule.CooldownHours * time.Hour)
		return &Outcome{Deferred: true, DeferredUntil: next, DeferReason: "cooldown"}, nil
	}

	provider, outcome := t.deliver(org, msg)
	if !outcome.Success {
		return outcome, nil
	}

	entry := &model.SendLog{
		OrganizationID: org.ID,
		QuoteID:        msg.QuoteID,
		EventID:        msg.EventID,
		Recipient:      msg.Recipient,
		Provider:       provider,
		MessageID:      outcome.MessageID,
		SentAt:         now,
	}
	if err := t.sendLog.Create(ctx, entry); err != nil {
		// The mail is out; a logging failure must not fail the event.
		t.logger.Error(err, "failed to record send log entry", "event_id", msg.EventID.String())
	}
	return outcome, nil
}

func (t *SMTPTransport) deliver(org *model.Organization, msg *Message) (string, *Outcome) {
	if org.HasOwnSMTP() {
		outcome := t.deliverVia(tenantChannel(org, t.encryptor), ProviderTenantSMTP, msg)
		if outcome.Success {
			return ProviderTenantSMTP, outcome
		}
		// Tenant channel failed; fall through to the shared channel so a
		// misconfigured tenant SMTP does not strand the cadence.
		t.logger.Warn("tenant SMTP failed, falling back to shared channel",
			"organization_id", org.ID.String(), "error", outcome.Error)
	}
	if !t.shared.Configured() {
		return ProviderTenantSMTP, &Outcome{
			Provider: ProviderTenantSMTP,
			Error:    "no SMTP channel available",
		}
	}
	outcome := t.deliverVia(channelConfig{
		host: t.shared.Host, port: t.shared.Port,
		user: t.shared.User, pass: t.shared.Pass, from: t.shared.From,
	}, ProviderSharedSMTP, msg)
	return ProviderSharedSMTP, outcome
}

type channelConfig struct {
	host string
	port int
	user string
	pass string
	from string
	err  error
}

func tenantChannel(org *model.Organization, enc security.Encryptor) channelConfig {
	ch := channelConfig{
		host: *org.SMTPHost,
		port: 587,
		from: *org.SMTPFrom,
	}
	if org.SMTPPort != nil {
		ch.port = *org.SMTPPort
	}
	if org.SMTPUser != nil {
		ch.user = *org.SMTPUser
	}
	if len(org.SMTPPasswordEnc) > 0 {
		plain, err := enc.Decrypt(org.SMTPPasswordEnc)
		if err != nil {
			ch.err = fmt.Errorf("failed to decrypt SMTP password: %w", err)
			return ch
		}
		ch.pass = string(plain)
	}
	return ch
}

func (t *SMTPTransport) deliverVia(ch channelConfig, provider string, msg *Message) *Outcome {
	if ch.err != nil {
		return &Outcome{Provider: provider, Error: ch.err.Error()}
	}

	m := gomail.NewMessage()
	m.SetHeader("From", ch.from)
	m.SetHeader("To", msg.Recipient)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.Body)

	if err := t.dial(ch.host, ch.port, ch.user, ch.pass).DialAndSend(m); err != nil {
		return &Outcome{Provider: provider, Error: err.Error()}
	}

	messageID := fmt.Sprintf("<%d.%s@%s>", t.now().UnixNano(), msg.EventID.String(), ch.host)
	return &Outcome{Success: true, Provider: provider, MessageID: &messageID}
}
