package settings

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMalformedPayload is returned when the request body cannot be decoded
// at all. Resubmitting the same payload will not help.
var ErrMalformedPayload = errors.New("request body is not a well-formed JSON object")

// ErrMissingGuildID is returned when Apply is called without a guild ID.
var ErrMissingGuildID = errors.New("guild ID must not be empty")

// ValidationError reports every field constraint the payload violated.
// Validation is exhaustive, so Details covers all failing fields at once.
type ValidationError struct {
	Details map[string][]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Details))
	for field := range e.Details {
		fields = append(fields, field)
	}

	sort.Strings(fields)

	return fmt.Sprintf("validation failed for fields: %s", strings.Join(fields, ", "))
}

// PersistenceError wraps a store-level failure. The transaction rolled back
// in its entirety, so retrying the identical call is safe.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist guild configuration: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
