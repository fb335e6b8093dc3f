package schema

import (
	"fmt"
	"sort"
	"strings"
)

// ParseError reports a submission that could not be normalized. Details maps
// field paths (e.g. "items[2].position.latitude") to human-readable reasons,
// mirroring the per-field error envelope of the submission APIs.
type ParseError struct {
	Details map[string]string
}

func newParseError(field, reason string) *ParseError {
	return &ParseError{Details: map[string]string{field: reason}}
}

func (e *ParseError) Error() string {
	if len(e.Details) == 0 {
		return "parse error"
	}
	fields := make([]string, 0, len(e.Details))
	for f := range e.Details {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.Details[f]))
	}
	return "parse error: " + strings.Join(parts, "; ")
}
