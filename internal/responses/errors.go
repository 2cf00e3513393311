package responses

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrResponseExists indicates the video token already has a response.
	ErrResponseExists = errors.New("response already exists for this token")
	// ErrTargetNotFound indicates the profile or token target is unknown.
	ErrTargetNotFound = errors.New("response target not found")
)

// ValidationError carries field-level detail for malformed submissions. It is
// never persisted and never retried.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid submission"
	}

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	return fmt.Sprintf("invalid submission: %s", strings.Join(names, ", "))
}

// IsValidation reports whether err is a field-validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
