// Package corefault defines the typed error taxonomy the core uses to
// signal invariant violations, precision failures, and guard breaches
// (see spec §7). Every error the core returns can be distinguished by kind,
// not just by message text.
package corefault

import (
	"errors"
	"fmt"
)

// Kind distinguishes the taxonomy of core failures.
type Kind int

const (
	// InvalidInput covers bad currencies, negative money, out-of-range
	// tolerance, min > max, scale out of [0,50], non-numeric decimals,
	// empty signature segments, empty fee-policy fingerprints, currency
	// mismatches, and division by zero.
	InvalidInput Kind = iota
	// PrecisionViolation signals arithmetic that cannot meet the requested
	// scale without corrupting the value.
	PrecisionViolation
	// GuardLimitExceeded signals a breached SearchGuard when strict mode
	// is configured. Carries the final guard report.
	GuardLimitExceeded
	// InfeasiblePath signals a path that cannot be materialized (a leg
	// outside its order's bounds, or a path not ending at the target). The
	// orchestrator treats it as a rejected candidate rather than a failure.
	InfeasiblePath
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case PrecisionViolation:
		return "PrecisionViolation"
	case GuardLimitExceeded:
		return "GuardLimitExceeded"
	case InfeasiblePath:
		return "InfeasiblePath"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by every core package for
// invariant violations. Value, when non-nil, carries the offending input
// so callers can include it in diagnostics. Report, when non-nil, carries
// a *guard.Report for GuardLimitExceeded faults.
type Error struct {
	Kind    Kind
	Message string
	Value   any
	Report  any
}

func (e *Error) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: %s (value=%v)", e.Kind, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithValue attaches the offending value for diagnostics and returns e.
func (e *Error) WithValue(v any) *Error {
	e.Value = v
	return e
}

// WithReport attaches a guard report (used for GuardLimitExceeded) and
// returns e.
func (e *Error) WithReport(r any) *Error {
	e.Report = r
	return e
}

// Invalid is a convenience constructor for the common InvalidInput case.
func Invalid(format string, args ...any) *Error {
	return New(InvalidInput, fmt.Sprintf(format, args...))
}

// Is reports whether err is a *Error of the given kind, unwrapping as
// needed via errors.As.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
