package automation

import (
	"errors"
	"fmt"
)

// Failure kinds
const (
	KindSessionInit     = "session_init"
	KindCredentials     = "credentials"
	KindElementNotFound = "element_not_found"
	KindNavigation      = "navigation"
	KindSubmission      = "submission"
	KindRecovery        = "recovery"
	KindDebugCapture    = "debug_capture"
	KindTeardown        = "teardown"
)

// Severity tiers, in escalation order.
type Severity int

const (
	// SeverityAdvisory failures are logged as warnings and never retried.
	SeverityAdvisory Severity = iota
	// SeverityRecoverable failures end the current iteration, trigger
	// recovery and leave the campaign running.
	SeverityRecoverable
	// SeverityFatal failures terminate the campaign.
	SeverityFatal
)

// Handling table: kind -> severity. Kinds missing here (and plain
// errors) are treated as recoverable so a surprise inside one iteration
// can never kill the whole run.
var severityByKind = map[string]Severity{
	KindSessionInit:     SeverityFatal,
	KindCredentials:     SeverityRecoverable,
	KindElementNotFound: SeverityRecoverable,
	KindNavigation:      SeverityRecoverable,
	KindSubmission:      SeverityRecoverable,
	KindRecovery:        SeverityAdvisory,
	KindDebugCapture:    SeverityAdvisory,
	KindTeardown:        SeverityAdvisory,
}

// Error tags a browser automation failure with its kind and the
// operation that produced it.
type Error struct {
	Kind string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the failure kind, or "" for untagged errors.
func KindOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// SeverityOf classifies an error per the handling table.
func SeverityOf(err error) Severity {
	var ae *Error
	if errors.As(err, &ae) {
		if sev, ok := severityByKind[ae.Kind]; ok {
			return sev
		}
	}
	return SeverityRecoverable
}

// IsWorkflowError reports whether an error belongs to the recoverable
// workflow tier, as opposed to an untagged unexpected failure.
func IsWorkflowError(err error) bool {
	var ae *Error
	if !errors.As(err, &ae) {
		return false
	}
	return severityByKind[ae.Kind] == SeverityRecoverable
}
