// Package redact produces PII-safe teaser snippets from free-text lead notes.
//
// This is a heuristic, best-effort filter, not a PII guarantee. It catches the
// common shapes (phones, emails, name introductions, street addresses); it is
// deliberately not exhaustive.
package redact

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxSnippetLen = 160

	PhoneToken   = "[PHONE]"
	EmailToken   = "[EMAIL]"
	NameToken    = "[NAME]"
	AddressToken = "[ADDRESS]"
)

var (
	// 555-0100, (512) 555 0100, 512.555.0100, +1 512 555 0100, 5550100
	phoneRe = regexp.MustCompile(`(\+?1[\s.-]?)?(\(?\d{3}\)?[\s.-]?)?\d{3}[\s.-]?\d{4}`)

	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// "my name is Jane Doe", "I'm Jane", "I am Jane" - keep the lead-in phrase.
	nameIntroRe = regexp.MustCompile(`(?i)\b(my name is|i'm|i am|this is)\s+([A-Z][a-z]+(\s+[A-Z][a-z]+)?)`)

	// "123 Oak Street", "4501 W Guadalupe Blvd"
	addressRe = regexp.MustCompile(`(?i)\b\d{1,5}\s+([A-Za-z]+\s+){1,3}(st|street|ave|avenue|blvd|boulevard|rd|road|dr|drive|ln|lane|ct|court|way|pl|place|cir|circle|pkwy|parkway)\b\.?`)
)

// Snippet redacts freeText and truncates the result to MaxSnippetLen. It is
// pure: same input, same output, no I/O. Applied exactly once at lead
// creation; the result is the only note text ever transmitted before payment.
func Snippet(freeText string) string {
	out := emailRe.ReplaceAllString(freeText, EmailToken)
	out = phoneRe.ReplaceAllString(out, PhoneToken)
	out = addressRe.ReplaceAllString(out, AddressToken)
	out = nameIntroRe.ReplaceAllString(out, "$1 "+NameToken)

	out = strings.TrimSpace(out)
	if len(out) > MaxSnippetLen {
		// Cut on a rune boundary so multibyte notes stay valid UTF-8.
		cut := MaxSnippetLen
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = strings.TrimSpace(out[:cut])
	}
	return out
}
