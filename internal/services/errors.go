package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSourceNotFound = errors.New("source not found")
	ErrChannelLayout  = errors.New("unsupported channel layout")
	ErrInvalidTags    = errors.New("invalid tags")
	ErrBitDepth       = errors.New("bit depth mismatch")
	ErrEncode         = errors.New("encode failure")
	ErrRemote         = errors.New("remote error")
	ErrCache          = errors.New("cache i/o error")
)

// Scope describes how far an error propagates through the run.
type Scope int

const (
	// ScopeRelease aborts the current release; the run continues with the
	// next candidate.
	ScopeRelease Scope = iota
	// ScopeFormat aborts only the current format job; remaining formats for
	// the release are still attempted.
	ScopeFormat
	// ScopeRun is reported to the operator but never aborts anything.
	ScopeRun
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrRemote
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Disposition maps an error to the scope at which the run controller should
// contain it.
func Disposition(err error) Scope {
	switch {
	case errors.Is(err, ErrEncode):
		return ScopeFormat
	case errors.Is(err, ErrCache):
		return ScopeRun
	default:
		return ScopeRelease
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
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
