// Package apperr defines the error kinds surfaced by the quoting core.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a core error so callers can decide how to present it.
type Kind int

const (
	// KindValidation marks malformed input that slipped past the form layer.
	KindValidation Kind = iota
	// KindConfigMismatch marks an enumerated input with no configuration entry.
	KindConfigMismatch
	// KindInvariant marks a logic or configuration bug detected mid-computation.
	KindInvariant
	// KindCapacity marks a request exceeding a hard cap, e.g. too many materials.
	KindCapacity
	// KindNotFound marks a missing record within the caller's scope.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConfigMismatch:
		return "configuration_mismatch"
	case KindInvariant:
		return "invariant_violation"
	case KindCapacity:
		return "capacity_violation"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Retryable reports whether the presentation layer should say "try again later"
// rather than show the message as validation feedback.
func (k Kind) Retryable() bool {
	return k == KindConfigMismatch || k == KindInvariant
}

// Error is a classified error with a stable machine code.
type Error struct {
	Kind    Kind   `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Error codes
const (
	CodeMissingConfigEntry = "MISSING_CONFIG_ENTRY"
	CodeInvalidConfig      = "INVALID_CONFIG"
	CodeRangeInverted      = "RANGE_INVERTED"
	CodeNegativeWeights    = "NEGATIVE_WEIGHTS"
	CodeNonFinite          = "NON_FINITE_VALUE"
	CodeOutOfRange         = "OUT_OF_RANGE"
	CodeRequired           = "REQUIRED"
	CodeTooManyMaterials   = "TOO_MANY_MATERIALS"
	CodeDuplicateMaterial  = "DUPLICATE_MATERIAL"
	CodeUnknownMaterial    = "UNKNOWN_MATERIAL"
	CodePackageNotFound    = "PACKAGE_NOT_FOUND"
	CodeQuoteNotFound      = "QUOTE_NOT_FOUND"
)

// New builds a classified error.
func New(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// MissingConfig reports an enumeration value absent from a configuration table.
func MissingConfig(table, value string) *Error {
	return &Error{
		Kind:    KindConfigMismatch,
		Code:    CodeMissingConfigEntry,
		Message: fmt.Sprintf("no %s entry for %q", table, value),
		Field:   table,
	}
}

// Invalid reports a field-level validation failure.
func Invalid(field, code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...), Field: field}
}

// Invariant reports a violated computation invariant.
func Invariant(code, format string, args ...any) *Error {
	return New(KindInvariant, code, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
