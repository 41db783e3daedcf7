package email

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHost = "example.com"

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestPipeline_Valid(t *testing.T) {
	p := NewPipeline(testHost)

	req, err := p.Run(decode(t, `{
		"to": ["a@example.com", "b@example.org"],
		"subject": "  Hello <b>team</b>  ",
		"body": "<p>Report &amp; notes</p>",
		"attachments": ["https://Example.com/uploads/stream-api/2026/10/07_09.05.03_AbC123_My_Report.PDF"]
	}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"a@example.com", "b@example.org"}, req.To)
	assert.Equal(t, "Hello team", req.Subject)
	assert.Equal(t, "Report &amp; notes", req.Body)
	assert.Equal(t, "Report & notes", ComposeBody(req.Body, nil))
	assert.Equal(t, []string{"https://Example.com/uploads/stream-api/2026/10/07_09.05.03_AbC123_My_Report.PDF"}, req.Attachments)
}

func TestPipeline_Missing(t *testing.T) {
	p := NewPipeline(testHost)

	_, err := p.Run(decode(t, `{"subject": "s", "body": null}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"to", "body"}, verr.Missing)
	assert.Equal(t, "MISSING_PARAMS", verr.Code())
	assert.Equal(t, "Missing parameter(s): to, body", verr.Error())

	_, err = p.Run(nil)
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Missing, 3)
}

func TestPipeline_InvalidRecipients(t *testing.T) {
	p := NewPipeline(testHost)

	cases := map[string]string{
		"not array":     `"a@example.com"`,
		"empty":         `[]`,
		"one bad":       `["a@example.com", "not-an-email"]`,
		"non string":    `["a@example.com", 42]`,
		"missing local": `["@example.com"]`,
	}

	for name, to := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := p.Run(decode(t, `{"to": `+to+`, "subject": "s", "body": "b"}`))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "INVALID_PARAMS", verr.Code())
			assert.Contains(t, verr.Details(), "to")
		})
	}
}

func TestPipeline_InvalidStrings(t *testing.T) {
	p := NewPipeline(testHost)

	_, err := p.Run(decode(t, `{"to": ["a@example.com"], "subject": "   ", "body": 5}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Param 'subject' - is not a string or empty.", verr.Invalid["subject"])
	assert.Equal(t, "Param 'body' - is not a string or empty.", verr.Invalid["body"])
	assert.Equal(t, "Invalid parameter(s): body, subject", verr.Error())
}

func TestPipeline_InvalidAttachments(t *testing.T) {
	p := NewPipeline(testHost)

	cases := map[string]string{
		"empty list":       `[]`,
		"not a list":       `"https://example.com/uploads/stream-api/a.pdf"`,
		"foreign host":     `["https://evil.com/uploads/stream-api/2026/10/a.pdf"]`,
		"subdomain host":   `["https://cdn.example.com/uploads/stream-api/2026/10/a.pdf"]`,
		"missing segment":  `["https://example.com/uploads/2026/10/a.pdf"]`,
		"segment as part":  `["https://example.com/uploads/stream-api-old/a.pdf"]`,
		"relative":         `["/uploads/stream-api/2026/10/a.pdf"]`,
		"non canonical":    `["https://example.com/uploads/stream-api/a b.pdf"]`,
		"javascript":       `["javascript:alert(1)"]`,
		"non string entry": `[1]`,
	}

	for name, attachments := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := p.Run(decode(t, `{"to": ["a@example.com"], "subject": "s", "body": "b", "attachments": `+attachments+`}`))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Details(), "attachments")
		})
	}
}

func TestPipeline_NullAttachmentsAreAbsent(t *testing.T) {
	p := NewPipeline(testHost)

	req, err := p.Run(decode(t, `{"to": ["a@example.com"], "subject": "s", "body": "b", "attachments": null}`))
	require.NoError(t, err)
	assert.Nil(t, req.Attachments)
}

func TestPipeline_BodyDecodedOnce(t *testing.T) {
	p := NewPipeline(testHost)

	cases := map[string]string{
		"&amp;lt;b&amp;gt;x":   "&lt;b&gt;x",
		"&lt;b&gt;x&lt;/b&gt;": "<b>x</b>",
		"<b>x</b> &amp; y":     "x & y",
		"Tom's \"quote\"":      "Tom's \"quote\"",
	}

	for body, want := range cases {
		req, err := p.Run(map[string]any{"to": []any{"a@example.com"}, "subject": "s", "body": body})
		require.NoError(t, err, body)
		assert.Equal(t, want, ComposeBody(req.Body, nil), body)
	}
}

func TestSanitizeTextField(t *testing.T) {
	cases := map[string]string{
		"plain":                          "plain",
		"  padded  ":                     "padded",
		"line\nbreak\ttab":               "line break tab",
		"<script>alert(1)</script>hello": "hello",
		"<b>bold</b> &amp; more":         "bold & more",
		"50%25 off %3Cb%3E":              "50 off b",
	}

	for in, want := range cases {
		assert.Equal(t, want, sanitizeTextField(in), in)
	}
}
