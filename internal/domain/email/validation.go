package email

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"streamapi/internal/domain/upload"
	"streamapi/internal/pkg/validator"
)

// fieldRule is one step of the request pipeline. validate returns a
// non-empty reason when the value is rejected; sanitize runs only on
// values that passed.
type fieldRule struct {
	name     string
	required bool
	validate func(key string, value any) string
	sanitize func(value any) any
}

// Pipeline validates and sanitizes a decoded send-email payload.
type Pipeline struct {
	rules []fieldRule
}

// NewPipeline builds the send-email rules. Attachments must point at files
// served from siteHost under the upload directory.
func NewPipeline(siteHost string) *Pipeline {
	siteHost = strings.ToLower(siteHost)
	return &Pipeline{rules: []fieldRule{
		{name: "to", required: true, validate: validateEmailArray, sanitize: toStringSlice},
		{name: "subject", required: true, validate: validateString, sanitize: sanitizeString},
		{name: "body", required: true, validate: validateString, sanitize: sanitizeBody},
		{name: "attachments", validate: validateURLAttachments(siteHost), sanitize: sanitizeURLArray},
	}}
}

// Run checks every rule against payload. A JSON null counts as absent.
func (p *Pipeline) Run(payload map[string]any) (Request, error) {
	var missing []string
	for _, r := range p.rules {
		if r.required && payload[r.name] == nil {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return Request{}, &ValidationError{Missing: missing}
	}

	invalid := make(map[string]string)
	clean := make(map[string]any, len(p.rules))
	for _, r := range p.rules {
		value := payload[r.name]
		if value == nil {
			continue
		}
		if reason := r.validate(r.name, value); reason != "" {
			invalid[r.name] = reason
			continue
		}
		if r.sanitize != nil {
			value = r.sanitize(value)
		}
		clean[r.name] = value
	}
	if len(invalid) > 0 {
		return Request{}, &ValidationError{Invalid: invalid}
	}

	req := Request{
		To:      clean["to"].([]string),
		Subject: clean["subject"].(string),
		Body:    clean["body"].(string),
	}
	if v, ok := clean["attachments"].([]string); ok {
		req.Attachments = v
	}
	return req, nil
}

func validateEmailArray(key string, value any) string {
	list, ok := value.([]any)
	if !ok || len(list) == 0 {
		return fmt.Sprintf("Param '%s' - is not an array or empty.", key)
	}
	for _, item := range list {
		s, ok := item.(string)
		if !ok || !validator.IsEmail(s) {
			return fmt.Sprintf("Invalid email '%v'", item)
		}
	}
	return ""
}

func validateString(key string, value any) string {
	s, ok := value.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return fmt.Sprintf("Param '%s' - is not a string or empty.", key)
	}
	return ""
}

func validateURLAttachments(siteHost string) func(string, any) string {
	return func(key string, value any) string {
		list, ok := value.([]any)
		if !ok || len(list) == 0 {
			return fmt.Sprintf("Param '%s' - is not an array or empty.", key)
		}
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return fmt.Sprintf("Invalid URL of attachment: '%v'", item)
			}
			lower := strings.ToLower(s)
			u, ok := canonicalURL(lower)
			if !ok {
				return fmt.Sprintf("Invalid URL of attachment: '%s'", lower)
			}
			if u.Hostname() == "" || u.Hostname() != siteHost || !slices.Contains(strings.Split(u.Path, "/"), upload.DirName) {
				return fmt.Sprintf("Unknown path to attachment: '%s'", lower)
			}
		}
		return ""
	}
}

// canonicalURL parses s and accepts it only when it is an absolute http(s)
// URL that serializes back to exactly s.
func canonicalURL(s string) (*url.URL, bool) {
	if !validator.IsHTTPURL(s) {
		return nil, false
	}
	u, err := url.Parse(s)
	if err != nil || u.String() != s {
		return nil, false
	}
	return u, true
}

func toStringSlice(value any) any {
	list, _ := value.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func sanitizeURLArray(value any) any {
	list, _ := value.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, _ := item.(string)
		u, err := url.Parse(strings.TrimSpace(s))
		if err != nil {
			continue
		}
		out = append(out, u.String())
	}
	return out
}

func sanitizeString(value any) any {
	s, _ := value.(string)
	return sanitizeTextField(s)
}

func sanitizeBody(value any) any {
	s, _ := value.(string)
	return sanitizeMarkupField(s)
}

var (
	textPolicy     = bluemonday.StrictPolicy()
	percentOctets  = regexp.MustCompile(`%[a-fA-F0-9]{2}`)
	textWhitespace = regexp.MustCompile(`[\r\n\t ]+`)
)

// sanitizeTextField turns s into single-line plain text: markup is stripped
// and the entities the tag stripper produced are restored.
func sanitizeTextField(s string) string {
	return collapseText(html.UnescapeString(textPolicy.Sanitize(s)))
}

// sanitizeMarkupField strips markup but leaves the text entity-encoded.
// The body is decoded exactly once, in ComposeBody.
func sanitizeMarkupField(s string) string {
	return collapseText(textPolicy.Sanitize(s))
}

// collapseText removes percent-encoded octets and collapses whitespace runs.
func collapseText(s string) string {
	for percentOctets.MatchString(s) {
		s = percentOctets.ReplaceAllString(s, "")
	}
	s = textWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
