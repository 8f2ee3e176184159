package template

import (
	"fmt"
	"strings"

	"github.com/quoteflow/cadence-api/internal/model"
)

// RenderData carries the placeholder values available to cadence templates.
type RenderData struct {
	ContactName    string
	ContactCompany string
	QuoteTitle     string
	QuoteReference string
	QuoteValue     string
}

// Render substitutes {{placeholder}} tokens in the template's subject and
// body. Unknown placeholders are left untouched so a typo is visible in the
// sent mail rather than silently dropped.
func Render(tmpl *model.MessageTemplate, data RenderData) (subject, body string) {
	replacer := strings.NewReplacer(
		"{{contact_name}}", data.ContactName,
		"{{contact_company}}", data.ContactCompany,
		"{{quote_title}}", data.QuoteTitle,
		"{{quote_reference}}", data.QuoteReference,
		"{{quote_value}}", data.QuoteValue,
	)
	return replacer.Replace(tmpl.Subject), replacer.Replace(tmpl.Body)
}

// FormatValue renders a quote's monetary value for templates, e.g. "EUR 1,250.00".
func FormatValue(cents int64, currency string) string {
	whole := cents / 100
	frac := cents % 100
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("%s %s.%02d", currency, groupThousands(whole), frac)
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
