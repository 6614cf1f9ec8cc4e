// Package xerr defines the error domain type shared across addresskit's
// components.
package xerr

import (
	"errors"
	"strings"
)

// Error is the addresskit error domain type.
//
// Errors coming from addresskit components should be inspectable as
// ([errors.As]) an *Error at some point in the error chain.
//
// Components should create an Error at the system boundary (network read,
// disk write, row decode) and intermediate layers should not wrap in another
// Error except to add additional [Kind] information — prefer [fmt.Errorf]
// with a "%w" verb for everything else.
type Error struct {
	Inner   error
	Kind    Kind
	Message string
	Op      string
}

var (
	_ error                       = (*Error)(nil)
	_ interface{ Is(error) bool } = (*Error)(nil)
	_ interface{ Unwrap() error } = (*Error)(nil)
)

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(" ")
	}
	b.WriteString("[")
	switch e.Kind {
	case ErrTransient, ErrCorruption, ErrMapping, ErrStructural, ErrConfig, ErrInternal:
		b.WriteString(string(e.Kind))
	default:
		b.WriteString("???")
	}
	b.WriteString("]: ")
	if e.Message != "" {
		b.WriteString(e.Message)
	}
	if e.Message != "" && e.Inner != nil {
		b.WriteString(": ")
	}
	if e.Op == "" && e.Message == "" {
		b.Reset()
	}
	if e.Inner != nil {
		b.WriteString(e.Inner.Error())
	}
	return b.String()
}

// Is enables [errors.Is], comparing error kind.
func (e *Error) Is(kind error) bool {
	switch kind {
	case ErrRetryable:
		return errors.Is(e, ErrTransient) || errors.Is(e, ErrCorruption)
	default:
	}
	return errors.Is(e.Kind, kind)
}

// Unwrap enables [errors.Unwrap].
func (e *Error) Unwrap() error {
	return e.Inner
}

// Kind represents classes of errors to be checked against, following the
// taxonomy in spec §7.
//
// If an error is unsure which kind to use, ErrInternal should be used.
type Kind string

// Defined error kinds.
var (
	// ErrTransient covers network resets, timeouts, and retryable HTTP
	// statuses. Recovered locally via bounded/unbounded retry with backoff.
	ErrTransient = Kind("transient")
	// ErrCorruption covers data-overflow, size-mismatch, and HTTP 416.
	// Recovered by deleting partial state and restarting, bounded by a
	// restart counter.
	ErrCorruption = Kind("corruption")
	// ErrMapping covers an unknown authority code or unparseable row. Logged;
	// the row is accepted with undefined/fallback values. Never fatal.
	ErrMapping = Kind("mapping")
	// ErrStructural covers mla > 4 lines or an unrecognized geocode
	// attribute. Fatal for that row; the caller logs and continues.
	ErrStructural = Kind("structural")
	// ErrConfig covers an invalid configuration value, e.g. an empty
	// GNAF_DIR. An unknown region code in COVERED_STATES is not an error: it
	// degrades the filter to all regions.
	ErrConfig = Kind("config")
	// ErrInternal is a non-specific internal error.
	ErrInternal = Kind("internal")

	// ErrRetryable is only used for an [Is] comparison: true for any error
	// marked transient or corruption.
	ErrRetryable = Kind("retryable")
)

// Error implements error.
func (k Kind) Error() string {
	return string(k)
}

// New constructs an *Error.
func New(op string, kind Kind, msg string, inner error) *Error {
	return &Error{Op: op, Kind: kind, Message: msg, Inner: inner}
}
