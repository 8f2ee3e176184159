package cadence

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quoteflow/cadence-api/internal/email"
	"github.com/quoteflow/cadence-api/internal/model"
	"github.com/quoteflow/cadence-api/internal/repository"
	"github.com/quoteflow/cadence-api/internal/service/entitlement"
	"github.com/quoteflow/cadence-api/internal/service/suppression"
	"github.com/quoteflow/cadence-api/internal/service/template"
	"github.com/quoteflow/cadence-api/pkg/logger"
	"github.com/quoteflow/cadence-api/pkg/messaging"
	"github.com/quoteflow/cadence-api/pkg/metrics"
)

// Config bounds one worker tick.
type Config struct {
	BatchSize    int
	ClaimSLA     time.Duration
	MaxDeferrals int
}

// DefaultConfig matches a conservative single-worker deployment.
func DefaultConfig() Config {
	return Config{
		BatchSize:    50,
		ClaimSLA:     15 * time.Minute,
		MaxDeferrals: 20,
	}
}

// Service runs the cadence state machine: it claims due events, gates each
// through relevance, suppression, entitlement and transport checks, and
// writes exactly one terminal outcome (or a deferral) per claimed event.
type Service struct {
	events       repository.EventRepository
	quotes       repository.QuoteRepository
	contacts     repository.ContactRepository
	tasks        repository.TaskRepository
	orgs         repository.OrganizationRepository
	templates    repository.TemplateRepository
	suppressions *suppression.Service
	entitlements *entitlement.Service
	transport    email.Transport
	broker       Broker
	logger       *logger.Logger
	metrics      *metrics.Metrics
	config       Config
	now          func() time.Time
}

func NewService(
	events repository.EventRepository,
	quotes repository.QuoteRepository,
	contacts repository.ContactRepository,
	tasks repository.TaskRepository,
	orgs repository.OrganizationRepository,
	templates repository.TemplateRepository,
	suppressions *suppression.Service,
	entitlements *entitlement.Service,
	transport email.Transport,
	broker Broker,
	logger *logger.Logger,
	metrics *metrics.Metrics,
	config Config,
) *Service {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if config.ClaimSLA <= 0 {
		config.ClaimSLA = DefaultConfig().ClaimSLA
	}
	if config.MaxDeferrals <= 0 {
		config.MaxDeferrals = DefaultConfig().MaxDeferrals
	}
	return &Service{
		events:       events,
		quotes:       quotes,
		contacts:     contacts,
		tasks:        tasks,
		orgs:         orgs,
		templates:    templates,
		suppressions: suppressions,
		entitlements: entitlements,
		transport:    transport,
		broker:       broker,
		logger:       logger,
		metrics:      metrics,
		config:       config,
		now:          time.Now,
	}
}

// Broker is the subset of the messaging broker the processor needs.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// ProcessDueEvents is one worker tick: sweep stale claims, claim a batch,
// process each claimed event sequentially. Per-event failures are recorded on
// the event and never abort the batch; only a claim-phase failure returns an
// error (the whole tick is retried on the next scheduler invocation).
func (s *Service) ProcessDueEvents(ctx context.Context, workerID string) (*model.BatchResult, error) {
	batchTimer := prometheus.NewTimer(s.metrics.BatchDuration)
	defer batchTimer.ObserveDuration()

	now := s.now()
	result := &model.BatchResult{WorkerID: workerID}

	swept, err := s.events.SweepStaleClaims(ctx, now.Add(-s.config.ClaimSLA))
	if err != nil {
		// A failed sweep only delays stale-claim recovery, it never blocks
		// this tick's claim.
		s.logger.Error(err, "failed to sweep stale claims", "worker_id", workerID)
	}
	result.Swept = int(swept)
	if swept > 0 {
		s.metrics.EventsSwept.Add(float64(swept))
		s.logger.Info("reset stale claims", "count", swept, "worker_id", workerID)
	}

	claimTimer := prometheus.NewTimer(s.metrics.ClaimLatency)
	events, err := s.events.ClaimDue(ctx, workerID, now, s.config.BatchSize)
	claimTimer.ObserveDuration()
	if err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("claim_due", "error").Inc()
		return nil, fmt.Errorf("failed to claim due events: %w", err)
	}
	s.metrics.DatabaseOperations.WithLabelValues("claim_due", "success").Inc()
	result.Claimed = len(events)
	s.metrics.EventsClaimed.Add(float64(len(events)))

	for _, evt := range events {
		procTimer := prometheus.NewTimer(s.metrics.ProcessLatency)
		outcome := s.processEventSafe(ctx, evt, workerID)
		procTimer.ObserveDuration()

		result.Processed++
		s.metrics.EventsProcessed.WithLabelValues(string(outcome.status)).Inc()
		switch outcome.status {
		case model.EventStatusSent:
			result.Sent++
		case model.EventStatusCompleted:
			result.Completed++
		case model.EventStatusFailed:
			result.Failed++
		case model.EventStatusSkipped:
			result.Skipped++
		case model.EventStatusCancelled:
			result.Cancelled++
		case model.EventStatusScheduled:
			result.Deferred++
		}
		if outcome.taskCreated {
			result.TasksCreated++
		}
	}

	s.logger.Info("processed cadence batch",
		"worker_id", workerID,
		"claimed", result.Claimed,
		"sent", result.Sent,
		"failed", result.Failed,
		"skipped", result.Skipped,
		"deferred", result.Deferred,
		"tasks_created", result.TasksCreated,
	)
	return result, nil
}

// eventOutcome reports what one event resolved to. A deferral shows up as
// EventStatusScheduled because that is what the row goes back to.
type eventOutcome struct {
	status      model.EventStatus
	reason      string
	taskCreated bool
}

// processEventSafe is the per-event error boundary: a panic inside the state
// machine marks the event failed with the panic text and lets the batch
// continue.
func (s *Service) processEventSafe(ctx context.Context, evt *model.CadenceEvent, workerID string) (outcome eventOutcome) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("panic: %v", r)
			s.logger.Error(fmt.Errorf("%s", msg), "panic while processing event", "event_id", evt.ID.String())
			s.markFailed(ctx, evt, msg, workerID)
			outcome = eventOutcome{status: model.EventStatusFailed, reason: msg}
		}
	}()
	return s.processEvent(ctx, evt, workerID)
}

func (s *Service) processEvent(ctx context.Context, evt *model.CadenceEvent, workerID string) eventOutcome {
	quote, err := s.quotes.Get(ctx, evt.QuoteID)
	if err != nil {
		s.markFailed(ctx, evt, fmt.Sprintf("failed to load quote: %v", err), workerID)
		return eventOutcome{status: model.EventStatusFailed}
	}

	// Relevance: a quote that moved on (won, lost, back to draft) no longer
	// wants follow-up. No stage advance, no task, no further side effects.
	if quote.Status != model.QuoteStatusSent {
		reason := model.CancelReasonStatus
		if err := s.events.MarkTerminal(ctx, evt.ID, model.EventStatusCancelled, &reason, nil); err != nil {
			s.logger.Error(err, "failed to cancel event", "event_id", evt.ID.String())
		}
		s.publish(ctx, evt, model.EventStatusCancelled, reason, workerID)
		return eventOutcome{status: model.EventStatusCancelled, reason: reason}
	}

	if !evt.Kind.IsEmail() {
		return s.processCallEvent(ctx, evt, quote, workerID)
	}
	return s.processEmailEvent(ctx, evt, quote, workerID)
}

// processCallEvent always produces a call task; call steps are definitionally
// human-executed and never touch the transport.
func (s *Service) processCallEvent(ctx context.Context, evt *model.CadenceEvent, quote *model.Quote, workerID string) eventOutcome {
	task := &model.Task{
		OrganizationID: evt.OrganizationID,
		QuoteID:        quote.ID,
		EventID:        &evt.ID,
		Type:           model.TaskTypeCall,
		Title:          taskTitle(evt.Kind, quote.Reference),
		Description:    fmt.Sprintf("Call the contact about quote %s (%s).", quote.Reference, quote.Title),
		DueAt:          s.now(),
		Priority:       taskPriority(evt.Priority),
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		s.markFailed(ctx, evt, fmt.Sprintf("failed to create call task: %v", err), workerID)
		return eventOutcome{status: model.EventStatusFailed}
	}
	s.metrics.TasksCreated.WithLabelValues(string(model.TaskTypeCall)).Inc()

	if err := s.events.MarkTerminal(ctx, evt.ID, model.EventStatusCompleted, nil, nil); err != nil {
		s.logger.Error(err, "failed to complete call event", "event_id", evt.ID.String())
		return eventOutcome{status: model.EventStatusFailed, taskCreated: true}
	}
	s.advanceStage(ctx, evt, quote)
	s.publish(ctx, evt, model.EventStatusCompleted, "", workerID)
	return eventOutcome{status: model.EventStatusCompleted, taskCreated: true}
}

func (s *Service) processEmailEvent(ctx context.Context, evt *model.CadenceEvent, quote *model.Quote, workerID string) eventOutcome {
	contact, err := s.contacts.Get(ctx, quote.ContactID)
	if err != nil {
		s.markFailed(ctx, evt, fmt.Sprintf("failed to load contact: %v", err), workerID)
		return eventOutcome{status: model.EventStatusFailed}
	}

	if contact.Email == nil || *contact.Email == "" {
		return s.skipWithFallback(ctx, evt, quote, model.SkipReasonNoEmail,
			"Contact has no email address; follow up manually.", workerID)
	}

	suppressed, err := s.suppressions.IsSuppressed(ctx, evt.OrganizationID, *contact.Email)
	if err != nil {
		s.markFailed(ctx, evt, fmt.Sprintf("failed to check suppression: %v", err), workerID)
		return eventOutcome{status: model.EventStatusFailed}
	}
	if suppressed {
		// Suppression is intentional, not an error: no fallback task, but the
		// cadence stage still advances past this step.
		return s.skipSilently(ctx, evt, quote, model.SkipReasonSuppressed, workerID)
	}

	// Policy snapshot read per event, not cached across the batch, so an
	// entitlement change takes effect on the next event.
	org, err := s.orgs.Get(ctx, evt.OrganizationID)
	if err != nil {
		s.markFailed(ctx, evt, fmt.Sprintf("failed to load organization: %v", err), workerID)
		return eventOutcome{status: model.EventStatusFailed}
	}

	if decision := s.entitlements.Evaluate(org, model.ActionSendEmail); !decision.Allowed {
		return s.skipWithFallback(ctx, evt, quote, model.SkipReasonNotEntitled,
			fmt.Sprintf("Automated sending unavailable (%s); send manually.", decision.Message), workerID)
	}

	if !s.transport.CanSend(org) {
		return s.skipWithFallback(ctx, evt, quote, model.SkipReasonNoSMTP,
			"No email channel configured; send manually.", workerID)
	}

	tmpl, err := s.templates.GetActiveByCode(ctx, evt.OrganizationID, TemplateCode(evt.Kind))
	if err != nil {
		s.markFailed(ctx, evt, fmt.Sprintf("failed to load template: %v", err), workerID)
		return eventOutcome{status: model.EventStatusFailed}
	}
	if tmpl == nil {
		return s.skipWithFallback(ctx, evt, quote, model.SkipReasonNoTemplate,
			"No active message template for this step; send manually.", workerID)
	}

	subject, body := template.Render(tmpl, template.RenderData{
		ContactName:    contact.Name,
		ContactCompany: contact.Company,
		QuoteTitle:     quote.Title,
		QuoteReference: quote.Reference,
		QuoteValue:     template.FormatValue(quote.ValueCents, quote.Currency),
	})

	outcome, err := s.transport.Send(ctx, org, &email.Message{
		OrganizationID: evt.OrganizationID,
		QuoteID:        quote.ID,
		EventID:        evt.ID,
		TemplateID:     tmpl.ID,
		Recipient:      *contact.Email,
		Subject:        subject,
		Body:           body,
	})
	if err != nil {
		s.markFailed(ctx, evt, fmt.Sprintf("transport error: %v", err), workerID)
		return eventOutcome{status: model.EventStatusFailed}
	}

	switch {
	case outcome.Suppressed:
		return s.skipSilently(ctx, evt, quote, model.SkipReasonSuppressed, workerID)

	case outcome.Deferred:
		return s.deferEvent(ctx, evt, quote, outcome, workerID)

	case !outcome.Success:
		// Operational failure: the event fails AND a high-priority manual
		// task is created. The stage does not advance — the step did not
		// happen from the buyer's perspective.
		s.markFailed(ctx, evt, outcome.Error, workerID)
		created := s.createFallbackTask(ctx, evt, quote,
			fmt.Sprintf("Automated email failed (%s); send manually.", outcome.Error),
			model.TaskPriorityHigh)
		return eventOutcome{status: model.EventStatusFailed, taskCreated: created}

	default:
		if err := s.events.MarkTerminal(ctx, evt.ID, model.EventStatusSent, nil, nil); err != nil {
			s.logger.Error(err, "failed to mark event sent", "event_id", evt.ID.String())
			return eventOutcome{status: model.EventStatusFailed}
		}
		s.advanceStage(ctx, evt, quote)
		s.publish(ctx, evt, model.EventStatusSent, "", workerID)
		return eventOutcome{status: model.EventStatusSent}
	}
}

// deferEvent puts the event back in the claim pool, unless it has hit the
// deferral cap, in which case it escalates to a skipped step with a fallback
// task so it cannot retry silently forever.
func (s *Service) deferEvent(ctx context.Context, evt *model.CadenceEvent, quote *model.Quote, outcome *email.Outcome, workerID string) eventOutcome {
	if evt.DeferCount+1 >= s.config.MaxDeferrals {
		return s.skipWithFallback(ctx, evt, quote, model.SkipReasonDeferralLimit,
			"Automated send kept deferring; follow up manually.", workerID)
	}

	nextAt := outcome.DeferredUntil
	if nextAt.IsZero() {
		nextAt = s.now().Add(1 * time.Hour)
	}
	if err := s.events.Defer(ctx, evt.ID, nextAt); err != nil {
		s.logger.Error(err, "failed to defer event", "event_id", evt.ID.String())
		s.markFailed(ctx, evt, fmt.Sprintf("failed to defer: %v", err), workerID)
		return eventOutcome{status: model.EventStatusFailed}
	}
	s.logger.Debug("deferred event",
		"event_id", evt.ID.String(),
		"reason", outcome.DeferReason,
		"next_at", nextAt,
	)
	return eventOutcome{status: model.EventStatusScheduled, reason: outcome.DeferReason}
}

// skipWithFallback marks the event skipped for the given reason, creates a
// fallback task inheriting the event's priority, and advances the stage.
func (s *Service) skipWithFallback(ctx context.Context, evt *model.CadenceEvent, quote *model.Quote, reason, description string, workerID string) eventOutcome {
	if err := s.events.MarkTerminal(ctx, evt.ID, model.EventStatusSkipped, &reason, nil); err != nil {
		s.logger.Error(err, "failed to skip event", "event_id", evt.ID.String())
		return eventOutcome{status: model.EventStatusFailed}
	}
	created := s.createFallbackTask(ctx, evt, quote, description, taskPriority(evt.Priority))
	s.advanceStage(ctx, evt, quote)
	s.publish(ctx, evt, model.EventStatusSkipped, reason, workerID)
	return eventOutcome{status: model.EventStatusSkipped, reason: reason, taskCreated: created}
}

// skipSilently handles suppression: skipped, no task, stage still advances.
func (s *Service) skipSilently(ctx context.Context, evt *model.CadenceEvent, quote *model.Quote, reason, workerID string) eventOutcome {
	if err := s.events.MarkTerminal(ctx, evt.ID, model.EventStatusSkipped, &reason, nil); err != nil {
		s.logger.Error(err, "failed to skip event", "event_id", evt.ID.String())
		return eventOutcome{status: model.EventStatusFailed}
	}
	s.advanceStage(ctx, evt, quote)
	s.publish(ctx, evt, model.EventStatusSkipped, reason, workerID)
	return eventOutcome{status: model.EventStatusSkipped, reason: reason}
}

func (s *Service) createFallbackTask(ctx context.Context, evt *model.CadenceEvent, quote *model.Quote, description string, priority model.TaskPriority) bool {
	task := &model.Task{
		OrganizationID: evt.OrganizationID,
		QuoteID:        quote.ID,
		EventID:        &evt.ID,
		Type:           model.TaskTypeManualSend,
		Title:          taskTitle(evt.Kind, quote.Reference),
		Description:    description,
		DueAt:          s.now(),
		Priority:       priority,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		s.logger.Error(err, "failed to create fallback task",
			"event_id", evt.ID.String(), "quote_id", quote.ID.String())
		return false
	}
	s.metrics.TasksCreated.WithLabelValues(string(model.TaskTypeManualSend)).Inc()
	return true
}

func (s *Service) advanceStage(ctx context.Context, evt *model.CadenceEvent, quote *model.Quote) {
	if err := s.quotes.AdvanceStage(ctx, quote.ID, NextStage(evt.Kind), s.now()); err != nil {
		s.logger.Error(err, "failed to advance quote stage",
			"quote_id", quote.ID.String(), "event_id", evt.ID.String())
	}
}

func (s *Service) markFailed(ctx context.Context, evt *model.CadenceEvent, errMsg, workerID string) {
	if err := s.events.MarkTerminal(ctx, evt.ID, model.EventStatusFailed, nil, &errMsg); err != nil {
		s.logger.Error(err, "failed to mark event failed", "event_id", evt.ID.String())
		return
	}
	s.publish(ctx, evt, model.EventStatusFailed, errMsg, workerID)
}

// publish pushes a notification for downstream consumers. Best effort: a
// broker outage never changes an event's outcome.
func (s *Service) publish(ctx context.Context, evt *model.CadenceEvent, status model.EventStatus, reason, workerID string) {
	if s.broker == nil {
		return
	}
	notification := model.EventNotification{
		EventID:        evt.ID,
		OrganizationID: evt.OrganizationID,
		QuoteID:        evt.QuoteID,
		Kind:           evt.Kind,
		Status:         status,
		Reason:         reason,
		WorkerID:       workerID,
		OccurredAt:     s.now(),
	}
	if err := s.broker.Publish(ctx, messaging.ChannelCadenceEvents, notification); err != nil {
		s.metrics.BrokerPublishes.WithLabelValues("error").Inc()
		s.logger.Error(err, "failed to publish event notification", "event_id", evt.ID.String())
		return
	}
	s.metrics.BrokerPublishes.WithLabelValues("success").Inc()
}

func taskPriority(p model.EventPriority) model.TaskPriority {
	if p == model.EventPriorityHigh {
		return model.TaskPriorityHigh
	}
	return model.TaskPriorityLow
}
