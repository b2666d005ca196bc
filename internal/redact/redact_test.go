package redact

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSnippetMasksPhoneAndEmail(t *testing.T) {
	in := "Please call me at 555-0100 or email jane.doe@example.com about the booking"

	out := Snippet(in)

	assert.Contains(t, out, PhoneToken)
	assert.Contains(t, out, EmailToken)
	assert.NotContains(t, out, "555-0100")
	assert.NotContains(t, out, "jane.doe@example.com")
	assert.NotContains(t, out, "@")
}

func TestSnippetMasksPhoneVariants(t *testing.T) {
	cases := []string{
		"(512) 555-0100",
		"512.555.0100",
		"+1 512 555 0100",
		"5125550100",
	}
	for _, c := range cases {
		out := Snippet("reach me at " + c + " thanks")
		assert.Contains(t, out, PhoneToken, "input %q", c)
		assert.NotContains(t, out, "0100", "input %q", c)
	}
}

func TestSnippetMasksNameIntroduction(t *testing.T) {
	out := Snippet("Hi, my name is Jane Doe and my shoulder hurts")

	assert.Contains(t, out, "my name is "+NameToken)
	assert.NotContains(t, out, "Jane")
	assert.Contains(t, out, "shoulder hurts")
}

func TestSnippetMasksStreetAddress(t *testing.T) {
	out := Snippet("I live at 123 Oak Street, parking is easy")

	assert.Contains(t, out, AddressToken)
	assert.NotContains(t, out, "Oak Street")
	assert.Contains(t, out, "parking is easy")
}

func TestSnippetIsPureAndDeterministic(t *testing.T) {
	in := "call 555-0100, I'm Jane, at 44 Elm Ave"
	assert.Equal(t, Snippet(in), Snippet(in))
}

func TestSnippetTruncates(t *testing.T) {
	in := strings.Repeat("sore back and neck, ", 20)

	out := Snippet(in)

	assert.LessOrEqual(t, len(out), MaxSnippetLen)
	assert.Equal(t, out, strings.TrimSpace(out))
}

func TestSnippetTruncatesOnRuneBoundary(t *testing.T) {
	in := "massage thérapeutique préférée " + strings.Repeat("é", 150)

	out := Snippet(in)

	assert.LessOrEqual(t, len(out), MaxSnippetLen)
	assert.True(t, utf8.ValidString(out))
}

func TestSnippetLeavesPlainTextAlone(t *testing.T) {
	in := "Looking for a deep tissue massage, weekday evenings preferred"
	assert.Equal(t, in, Snippet(in))
}
