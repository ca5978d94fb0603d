package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation = errors.New("validation error")
	ErrExtraction = errors.New("extraction error")
	ErrCapacity   = errors.New("capacity error")
	ErrNotFound   = errors.New("not found")
	ErrRender     = errors.New("render error")
	ErrEncode     = errors.New("encode error")
	ErrTimeout    = errors.New("timeout")
	ErrCancelled  = errors.New("cancelled")

	// ErrExternalTool marks failures launching or supervising a subprocess
	// before it can be attributed to encoding itself.
	ErrExternalTool = errors.New("external tool error")
)

// Taxonomy codes persisted in job records and returned by the API.
const (
	CodeValidation = "validation"
	CodeExtraction = "extraction"
	CodeCapacity   = "capacity"
	CodeNotFound   = "not_found"
	CodeRender     = "render"
	CodeEncode     = "encode"
	CodeTimeout    = "timeout"
	CodeCancelled  = "cancelled"
	CodeInternal   = "internal"
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Code maps an error chain to its taxonomy code. Context deadline errors
// classify as timeout even when no marker was attached.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrExtraction):
		return CodeExtraction
	case errors.Is(err, ErrCapacity):
		return CodeCapacity
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrRender):
		return CodeRender
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return CodeCancelled
	case errors.Is(err, ErrEncode):
		return CodeEncode
	default:
		return CodeInternal
	}
}

// IsCancellation reports whether an error represents a user-requested abort
// rather than a failure.
func IsCancellation(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
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
