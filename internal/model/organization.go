package model

import (
	"time"
)

type SubscriptionStatus string

const (
	SubscriptionNone      SubscriptionStatus = "none"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionTrialing  SubscriptionStatus = "trialing"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Tier is derived from subscription state, never stored.
type Tier string

const (
	TierTrial Tier = "trial"
	TierFree  Tier = "free"
	TierPaid  Tier = "paid"
)

// Organization is the tenant. The cadence engine reads it as a policy
// snapshot: timezone and send window for scheduling, subscription and counters
// for entitlement decisions, SMTP settings for the transport.
type Organization struct {
	Base
	Name               string             `db:"name" json:"name"`
	Timezone           string             `db:"timezone" json:"timezone"`
	SendWindowStart    string             `db:"send_window_start" json:"send_window_start"` // "HH:MM"
	SendWindowEnd      string             `db:"send_window_end" json:"send_window_end"`     // "HH:MM"
	SubscriptionStatus SubscriptionStatus `db:"subscription_status" json:"subscription_status"`
	TrialEndsAt        *time.Time         `db:"trial_ends_at" json:"trial_ends_at,omitempty"`
	QuotesUsed         int                `db:"quotes_used" json:"quotes_used"`
	QuoteLimit         int                `db:"quote_limit" json:"quote_limit"`
	StorageUsedBytes   int64              `db:"storage_used_bytes" json:"storage_used_bytes"`
	StorageLimitBytes  int64              `db:"storage_limit_bytes" json:"storage_limit_bytes"`
	SMTPHost           *string            `db:"smtp_host" json:"smtp_host,omitempty"`
	SMTPPort           *int               `db:"smtp_port" json:"smtp_port,omitempty"`
	SMTPUser           *string            `db:"smtp_user" json:"smtp_user,omitempty"`
	SMTPPasswordEnc    []byte             `db:"smtp_password_enc" json:"-"`
	SMTPFrom           *string            `db:"smtp_from" json:"smtp_from,omitempty"`
}

// HasOwnSMTP reports whether the tenant configured a dedicated SMTP channel.
func (o *Organization) HasOwnSMTP() bool {
	return o.SMTPHost != nil && *o.SMTPHost != "" && o.SMTPFrom != nil && *o.SMTPFrom != ""
}

// CurrentTier derives the entitlement tier at the given instant. An expired
// trial degrades to free rather than blocking outright.
func (o *Organization) CurrentTier(now time.Time) Tier {
	switch o.SubscriptionStatus {
	case SubscriptionActive, SubscriptionPastDue:
		return TierPaid
	case SubscriptionTrialing:
		if o.TrialEndsAt != nil && o.TrialEndsAt.After(now) {
			return TierTrial
		}
		return TierFree
	default:
		if o.TrialEndsAt != nil && o.TrialEndsAt.After(now) {
			return TierTrial
		}
		return TierFree
	}
}
