package model

// Action is an operation gated by the entitlement engine.
type Action string

const (
	ActionSendEmail     Action = "send_email"
	ActionMarkQuoteSent Action = "mark_quote_sent"
	ActionCaptureBCC    Action = "capture_bcc"
	ActionStoreFile     Action = "store_file"
)

// DenyReason is a machine-readable cause attached to a denied decision.
type DenyReason string

const (
	DenyReasonFreeTier       DenyReason = "FREE_TIER"
	DenyReasonQuotaExceeded  DenyReason = "QUOTA_EXCEEDED"
	DenyReasonPastDue        DenyReason = "PAST_DUE"
	DenyReasonCancelled      DenyReason = "CANCELLED"
	DenyReasonFileTooLarge   DenyReason = "FILE_TOO_LARGE"
	DenyReasonFileType       DenyReason = "FILE_TYPE_NOT_ALLOWED"
	DenyReasonStorageQuota   DenyReason = "STORAGE_QUOTA_EXCEEDED"
	DenyReasonStorageBlocked DenyReason = "STORAGE_BLOCKED"
)

// Remediation tags the suggested next step for a denied action.
type Remediation string

const (
	RemediationUpgrade           Remediation = "upgrade"
	RemediationStartSubscription Remediation = "start_subscription"
	RemediationUpdatePayment     Remediation = "update_payment"
	RemediationReactivate        Remediation = "reactivate"
)

// Decision is the structured result of an entitlement evaluation. Denials are
// values, not errors: the caller decides how to surface them.
type Decision struct {
	Allowed     bool        `json:"allowed"`
	Reason      DenyReason  `json:"reason,omitempty"`
	Message     string      `json:"message,omitempty"`
	Remediation Remediation `json:"remediation,omitempty"`
}

// Allow is the zero-friction allowed decision.
func Allow() Decision { return Decision{Allowed: true} }

// Deny builds a structured denial.
func Deny(reason DenyReason, message string, remediation Remediation) Decision {
	return Decision{Reason: reason, Message: message, Remediation: remediation}
}
