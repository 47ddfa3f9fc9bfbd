// Package policy masks personal data before calls leave process memory.
package policy

import (
	"regexp"

	"github.com/ent0n29/callcoach/internal/conversation"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	ibanPattern  = regexp.MustCompile(`\b[A-Z]{2}\d{2}(?: ?[A-Z0-9]{4}){3,7}(?: ?[A-Z0-9]{1,3})?\b`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\-(). ]{7,}[0-9]`)
	cardPattern  = regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)
)

// RedactPII masks common high-risk PII patterns.
func RedactPII(input string) (redacted string, changed bool) {
	out := input

	next := emailPattern.ReplaceAllString(out, "[REDACTED_EMAIL]")
	changed = changed || next != out
	out = next

	next = ibanPattern.ReplaceAllString(out, "[REDACTED_IBAN]")
	changed = changed || next != out
	out = next

	// Run card redaction before phone to avoid card numbers being classified as phone.
	next = cardPattern.ReplaceAllString(out, "[REDACTED_CARD]")
	changed = changed || next != out
	out = next

	next = phonePattern.ReplaceAllString(out, "[REDACTED_PHONE]")
	changed = changed || next != out
	out = next

	return out, changed
}

// RedactMessages returns a copy of msgs with PII masked in every content.
func RedactMessages(msgs []conversation.Message) ([]conversation.Message, bool) {
	out := make([]conversation.Message, len(msgs))
	changed := false
	for i, m := range msgs {
		content, c := RedactPII(m.Content)
		m.Content = content
		out[i] = m
		changed = changed || c
	}
	return out, changed
}

// RedactInsights masks PII in insight texts and descriptions.
func RedactInsights(recs []conversation.InsightRecord) ([]conversation.InsightRecord, bool) {
	out := make([]conversation.InsightRecord, len(recs))
	changed := false
	for i, r := range recs {
		var c1, c2, c3 bool
		r.Title, c1 = RedactPII(r.Title)
		r.Description, c2 = RedactPII(r.Description)
		r.Text, c3 = RedactPII(r.Text)
		out[i] = r
		changed = changed || c1 || c2 || c3
	}
	return out, changed
}
