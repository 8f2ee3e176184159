package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from EventStatus
		to   EventStatus
		want bool
	}{
		{"scheduled to claimed", EventStatusScheduled, EventStatusClaimed, true},
		{"scheduled to cancelled", EventStatusScheduled, EventStatusCancelled, true},
		{"scheduled to sent", EventStatusScheduled, EventStatusSent, false},
		{"claimed to sent", EventStatusClaimed, EventStatusSent, true},
		{"claimed to completed", EventStatusClaimed, EventStatusCompleted, true},
		{"claimed to failed", EventStatusClaimed, EventStatusFailed, true},
		{"claimed to skipped", EventStatusClaimed, EventStatusSkipped, true},
		{"claimed to cancelled", EventStatusClaimed, EventStatusCancelled, true},
		{"claimed back to scheduled", EventStatusClaimed, EventStatusScheduled, true},
		{"sent is terminal", EventStatusSent, EventStatusScheduled, false},
		{"skipped is terminal", EventStatusSkipped, EventStatusClaimed, false},
		{"cancelled is terminal", EventStatusCancelled, EventStatusScheduled, false},
		{"failed is terminal", EventStatusFailed, EventStatusScheduled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestEventStatusTerminal(t *testing.T) {
	assert.False(t, EventStatusScheduled.Terminal())
	assert.False(t, EventStatusClaimed.Terminal())
	assert.True(t, EventStatusSent.Terminal())
	assert.True(t, EventStatusCompleted.Terminal())
	assert.True(t, EventStatusFailed.Terminal())
	assert.True(t, EventStatusSkipped.Terminal())
	assert.True(t, EventStatusCancelled.Terminal())
}

func TestTerminalStatusesHaveNoOutgoingTransitions(t *testing.T) {
	all := []EventStatus{
		EventStatusScheduled, EventStatusClaimed, EventStatusSent,
		EventStatusCompleted, EventStatusFailed, EventStatusSkipped, EventStatusCancelled,
	}
	for _, from := range all {
		if !from.Terminal() {
			continue
		}
		for _, to := range all {
			assert.False(t, CanTransition(from, to), "%s -> %s should be illegal", from, to)
		}
	}
}

func TestEventKind(t *testing.T) {
	assert.True(t, EventKindEmailDay1.IsEmail())
	assert.True(t, EventKindEmailDay3.IsEmail())
	assert.True(t, EventKindEmailDay14.IsEmail())
	assert.False(t, EventKindCallDay7.IsEmail())

	assert.True(t, EventKindEmailDay1.Valid())
	assert.True(t, EventKindCallDay7.Valid())
	assert.False(t, EventKind("email_day30").Valid())
}
