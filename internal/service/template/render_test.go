package template

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quoteflow/cadence-api/internal/model"
)

func TestRender(t *testing.T) {
	tmpl := &model.MessageTemplate{
		Subject: "Quote {{quote_reference}} for {{contact_company}}",
		Body:    "Hi {{contact_name}},\n\n{{quote_title}} is still open at {{quote_value}}.",
	}

	subject, body := Render(tmpl, RenderData{
		ContactName:    "Dana",
		ContactCompany: "Acme GmbH",
		QuoteTitle:     "Website redesign",
		QuoteReference: "Q-2026-042",
		QuoteValue:     "EUR 12,500.00",
	})

	assert.Equal(t, "Quote Q-2026-042 for Acme GmbH", subject)
	assert.Equal(t, "Hi Dana,\n\nWebsite redesign is still open at EUR 12,500.00.", body)
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	tmpl := &model.MessageTemplate{
		Subject: "{{quot_reference}}", // typo stays visible
		Body:    "{{contact_name}} {{unknown}}",
	}
	subject, body := Render(tmpl, RenderData{ContactName: "Dana"})
	assert.Equal(t, "{{quot_reference}}", subject)
	assert.Equal(t, "Dana {{unknown}}", body)
}

func TestRenderEmptyValues(t *testing.T) {
	tmpl := &model.MessageTemplate{Subject: "For {{contact_company}}", Body: ""}
	subject, body := Render(tmpl, RenderData{})
	assert.Equal(t, "For ", subject)
	assert.Empty(t, body)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		cents    int64
		currency string
		want     string
	}{
		{0, "USD", "USD 0.00"},
		{5, "USD", "USD 0.05"},
		{1250000, "EUR", "EUR 12,500.00"},
		{99999999, "GBP", "GBP 999,999.99"},
		{123456789001, "USD", "USD 1,234,567,890.01"},
		{-1050, "EUR", "EUR -10.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.cents, tt.currency))
	}
}
