package integration

import (
	"fmt"
	"strings"
)

// ValidationError marks malformed input. Surfaced before any remote call,
// never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// NotFoundError marks a missing CRM entity: the poll form for an answer
// event, or one or more named educational programs. Missing enumerates every
// absent program name so callers get the complete picture in one failure.
type NotFoundError struct {
	Entity  string
	Key     string
	Missing []string
}

func (e *NotFoundError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s not found: %s", e.Entity, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.Key)
}
