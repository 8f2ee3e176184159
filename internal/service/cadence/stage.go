package cadence

import (
	"fmt"

	"github.com/quoteflow/cadence-api/internal/model"
)

// NextStage maps an event kind to the cadence stage the quote moves to once
// that step reaches a terminal outcome (except cancelled and failed). The
// switch is total over the kind enum; advancing is idempotent because the
// stage is a pure function of the kind, not a counter.
func NextStage(kind model.EventKind) model.CadenceStage {
	switch kind {
	case model.EventKindEmailDay1:
		return model.CadenceStageReminded1
	case model.EventKindEmailDay3:
		return model.CadenceStageReminded2
	case model.EventKindCallDay7:
		return model.CadenceStageCalled
	case model.EventKindEmailDay14:
		return model.CadenceStageFinal
	default:
		panic(fmt.Sprintf("unknown event kind %q", kind))
	}
}

// TemplateCode maps an email event kind to the message template code looked
// up per organization. Total over the email kinds.
func TemplateCode(kind model.EventKind) string {
	switch kind {
	case model.EventKindEmailDay1:
		return "reminder_early"
	case model.EventKindEmailDay3:
		return "reminder_mid"
	case model.EventKindEmailDay14:
		return "reminder_final"
	default:
		panic(fmt.Sprintf("event kind %q has no template", kind))
	}
}

// taskTitle builds the human-facing title for a fallback or call task.
func taskTitle(kind model.EventKind, quoteRef string) string {
	if kind == model.EventKindCallDay7 {
		return fmt.Sprintf("Call about quote %s", quoteRef)
	}
	return fmt.Sprintf("Follow up on quote %s", quoteRef)
}
