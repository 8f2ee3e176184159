package cadence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quoteflow/cadence-api/internal/model"
)

func TestNextStage(t *testing.T) {
	assert.Equal(t, model.CadenceStageReminded1, NextStage(model.EventKindEmailDay1))
	assert.Equal(t, model.CadenceStageReminded2, NextStage(model.EventKindEmailDay3))
	assert.Equal(t, model.CadenceStageCalled, NextStage(model.EventKindCallDay7))
	assert.Equal(t, model.CadenceStageFinal, NextStage(model.EventKindEmailDay14))

	assert.Panics(t, func() { NextStage(model.EventKind("email_day30")) })
}

func TestTemplateCode(t *testing.T) {
	assert.Equal(t, "reminder_early", TemplateCode(model.EventKindEmailDay1))
	assert.Equal(t, "reminder_mid", TemplateCode(model.EventKindEmailDay3))
	assert.Equal(t, "reminder_final", TemplateCode(model.EventKindEmailDay14))

	assert.Panics(t, func() { TemplateCode(model.EventKindCallDay7) })
}

func TestTaskTitle(t *testing.T) {
	assert.Equal(t, "Call about quote Q-1", taskTitle(model.EventKindCallDay7, "Q-1"))
	assert.Equal(t, "Follow up on quote Q-1", taskTitle(model.EventKindEmailDay1, "Q-1"))
}
