package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoMatch       = errors.New("no catalog match")
	ErrLowConfidence = errors.New("low confidence match")
	ErrDuplicate     = errors.New("catalog id already claimed")
	ErrUpstream      = errors.New("catalog request failed")
	ErrLocalIO       = errors.New("local filesystem error")
	ErrPersistence   = errors.New("persistence failure")
	ErrAuth          = errors.New("catalog authentication failed")
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrUpstream
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err must abort the whole scan. Only authentication
// and persistence failures qualify; everything else is contained to one show.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAuth) || errors.Is(err, ErrPersistence)
}

// IsSkip reports whether err is an expected skip outcome rather than a
// failure: no match, an unresolved low-confidence match, or a second folder
// resolving to a catalog id already reconciled this run.
func IsSkip(err error) bool {
	return errors.Is(err, ErrNoMatch) || errors.Is(err, ErrLowConfidence) || errors.Is(err, ErrDuplicate)
}

// Reason returns a short user-facing label for a per-show outcome.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoMatch):
		return "no catalog match found"
	case errors.Is(err, ErrLowConfidence):
		return "low confidence match not confirmed"
	case errors.Is(err, ErrDuplicate):
		return "duplicate of another folder"
	case errors.Is(err, ErrAuth):
		return "catalog authentication failed"
	case errors.Is(err, ErrUpstream):
		return "catalog request failed"
	case errors.Is(err, ErrLocalIO):
		return "could not read show folder"
	case errors.Is(err, ErrPersistence):
		return "could not save state"
	default:
		return "unexpected error"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
