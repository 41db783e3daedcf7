package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("user@example.com"))
	assert.True(t, IsEmail("first.last+tag@sub.example.org"))

	for _, s := range []string{"", "plain", "@example.com", "user@", "user@@example.com", "user example@example.com"} {
		assert.False(t, IsEmail(s), s)
	}
}

func TestIsHTTPURL(t *testing.T) {
	assert.True(t, IsHTTPURL("https://example.com/uploads/stream-api/2026/10/a.pdf"))
	assert.False(t, IsHTTPURL("ftp://example.com/a.pdf"))
	assert.False(t, IsHTTPURL("/relative/path"))
	assert.False(t, IsHTTPURL(""))
}

func TestValidate(t *testing.T) {
	type payload struct {
		To []string `validate:"required,min=1,dive,email"`
	}

	assert.Nil(t, Validate(payload{To: []string{"a@example.com"}}))
	assert.Equal(t, map[string]string{"To": "required"}, Validate(payload{}))
}
