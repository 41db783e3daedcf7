package email

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidRequest = errors.New("invalid email request")
	ErrNotSent        = errors.New("email was not sent")
)

// ValidationError lists the parameters that were missing or failed their
// validator. Missing parameters are reported before invalid ones.
type ValidationError struct {
	Missing []string
	Invalid map[string]string
}

func (e *ValidationError) Code() string {
	if len(e.Missing) > 0 {
		return "MISSING_PARAMS"
	}
	return "INVALID_PARAMS"
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return "Missing parameter(s): " + strings.Join(e.Missing, ", ")
	}
	keys := make([]string, 0, len(e.Invalid))
	for k := range e.Invalid {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "Invalid parameter(s): " + strings.Join(keys, ", ")
}

// Details returns the per-field reasons for invalid parameters.
func (e *ValidationError) Details() map[string]string {
	if len(e.Missing) > 0 {
		return nil
	}
	return e.Invalid
}
