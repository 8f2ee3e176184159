package entitlement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quoteflow/cadence-api/internal/model"
	"github.com/quoteflow/cadence-api/internal/repository"
)

// Storage limits applied before the quota check.
const (
	MaxAttachmentBytes = 25 << 20 // 25 MiB per file
)

var allowedAttachmentTypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"image/png":  true,
	"image/jpeg": true,
}

// Service derives allow/deny decisions from an organization's subscription
// state and usage counters. Evaluate is side-effect free; ReserveStorage is
// the one mutating path and comes with a compensating rollback.
type Service struct {
	orgRepo repository.OrganizationRepository
	now     func() time.Time
}

func NewService(orgRepo repository.OrganizationRepository) *Service {
	return &Service{
		orgRepo: orgRepo,
		now:     time.Now,
	}
}

// Evaluate decides whether the organization may perform the action right now.
// Subscription-status blockers take precedence over quota checks.
func (s *Service) Evaluate(org *model.Organization, action model.Action) model.Decision {
	now := s.now()
	tier := org.CurrentTier(now)

	switch action {
	case model.ActionSendEmail, model.ActionCaptureBCC:
		if tier == model.TierFree {
			return model.Deny(
				model.DenyReasonFreeTier,
				"automated sending requires an active trial or subscription",
				model.RemediationStartSubscription,
			)
		}
		if org.SubscriptionStatus == model.SubscriptionPastDue {
			return model.Deny(
				model.DenyReasonPastDue,
				"your subscription payment is past due",
				model.RemediationUpdatePayment,
			)
		}
		return model.Allow()

	case model.ActionMarkQuoteSent:
		if d := s.subscriptionBlocker(org); !d.Allowed {
			return d
		}
		limit := s.effectiveQuoteLimit(org, tier)
		if limit > 0 && org.QuotesUsed >= limit {
			return model.Deny(
				model.DenyReasonQuotaExceeded,
				fmt.Sprintf("monthly quote limit of %d reached", limit),
				s.quotaRemediation(tier),
			)
		}
		return model.Allow()

	default:
		return model.Allow()
	}
}

// EvaluateStorage runs the three ordered storage checks: size ceiling, type
// whitelist, remaining quota. Short-circuits on the first failure. The quota
// check here is advisory; the authoritative reservation is ReserveStorage.
func (s *Service) EvaluateStorage(org *model.Organization, size int64, contentType string) model.Decision {
	tier := org.CurrentTier(s.now())
	if tier == model.TierFree {
		return model.Deny(
			model.DenyReasonStorageBlocked,
			"attachment capture requires an active trial or subscription",
			model.RemediationStartSubscription,
		)
	}
	if size > MaxAttachmentBytes {
		return model.Deny(
			model.DenyReasonFileTooLarge,
			fmt.Sprintf("file exceeds the %d MB limit", MaxAttachmentBytes>>20),
			"",
		)
	}
	if !allowedAttachmentTypes[normalizeContentType(contentType)] {
		return model.Deny(
			model.DenyReasonFileType,
			fmt.Sprintf("file type %q is not allowed", contentType),
			"",
		)
	}
	if org.StorageUsedBytes+size > org.StorageLimitBytes {
		return model.Deny(
			model.DenyReasonStorageQuota,
			"storage quota exceeded",
			model.RemediationUpgrade,
		)
	}
	return model.Allow()
}

// Reservation is a rollback handle for a storage reservation.
type Reservation struct {
	orgID uuid.UUID
	size  int64
	repo  repository.OrganizationRepository
}

// Release returns the reserved bytes. Safe to call after a failed write.
func (r *Reservation) Release(ctx context.Context) error {
	return r.repo.ReleaseStorage(ctx, r.orgID, r.size)
}

// ReserveStorage atomically claims size bytes against the organization's
// storage quota. Concurrent reservations see exact, race-free enforcement
// because the compare and the increment are a single statement.
func (s *Service) ReserveStorage(ctx context.Context, orgID uuid.UUID, size int64) (*Reservation, model.Decision, error) {
	ok, err := s.orgRepo.ReserveStorage(ctx, orgID, size)
	if err != nil {
		return nil, model.Decision{}, fmt.Errorf("failed to reserve storage: %w", err)
	}
	if !ok {
		return nil, model.Deny(
			model.DenyReasonStorageQuota,
			"storage quota exceeded",
			model.RemediationUpgrade,
		), nil
	}
	return &Reservation{orgID: orgID, size: size, repo: s.orgRepo}, model.Allow(), nil
}

func (s *Service) subscriptionBlocker(org *model.Organization) model.Decision {
	switch org.SubscriptionStatus {
	case model.SubscriptionPastDue:
		return model.Deny(
			model.DenyReasonPastDue,
			"your subscription payment is past due",
			model.RemediationUpdatePayment,
		)
	case model.SubscriptionCancelled:
		return model.Deny(
			model.DenyReasonCancelled,
			"your subscription has been cancelled",
			model.RemediationReactivate,
		)
	}
	return model.Allow()
}

func (s *Service) effectiveQuoteLimit(org *model.Organization, tier model.Tier) int {
	if org.QuoteLimit > 0 {
		return org.QuoteLimit
	}
	switch tier {
	case model.TierFree:
		return 5
	case model.TierTrial:
		return 50
	default:
		return 0 // unlimited
	}
}

func (s *Service) quotaRemediation(tier model.Tier) model.Remediation {
	if tier == model.TierPaid {
		return model.RemediationUpgrade
	}
	return model.RemediationStartSubscription
}

func normalizeContentType(ct string) string {
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
