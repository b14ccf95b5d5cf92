package dto

import (
	"fmt"
	"strings"
	"time"

	apperrors "pomotrack/internal/platform/errors"
)

var dueLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// ParseDue reads a user-typed due date. Dates without a zone are local time.
func ParseDue(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: due date is required", apperrors.ErrInvalidInput)
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), nil
	}
	for _, layout := range dueLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: due date %q (want YYYY-MM-DD or YYYY-MM-DD HH:MM)", apperrors.ErrInvalidInput, raw)
}
