package automation

import (
	"errors"
	"fmt"
	"testing"
)

func TestSeverityOf(t *testing.T) {
	tests := []struct {
		kind string
		want Severity
	}{
		{KindSessionInit, SeverityFatal},
		{KindCredentials, SeverityRecoverable},
		{KindElementNotFound, SeverityRecoverable},
		{KindNavigation, SeverityRecoverable},
		{KindSubmission, SeverityRecoverable},
		{KindRecovery, SeverityAdvisory},
		{KindDebugCapture, SeverityAdvisory},
		{KindTeardown, SeverityAdvisory},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			err := newError(tt.kind, "op", errors.New("boom"))
			if got := SeverityOf(err); got != tt.want {
				t.Errorf("SeverityOf(%s) = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestSeverityOfUntagged(t *testing.T) {
	if got := SeverityOf(errors.New("surprise")); got != SeverityRecoverable {
		t.Errorf("SeverityOf(plain error) = %v, want SeverityRecoverable", got)
	}
}

func TestIsWorkflowError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"credentials", newError(KindCredentials, "login", errors.New("missing")), true},
		{"element not found", newError(KindElementNotFound, "locate", errors.New("nope")), true},
		{"navigation", newError(KindNavigation, "navigate", errors.New("nope")), true},
		{"submission", newError(KindSubmission, "submit", errors.New("nope")), true},
		{"session init", newError(KindSessionInit, "launch", errors.New("nope")), false},
		{"teardown", newError(KindTeardown, "close", errors.New("nope")), false},
		{"untagged", errors.New("surprise"), false},
		{"wrapped workflow", fmt.Errorf("outer: %w", newError(KindSubmission, "submit", errors.New("nope"))), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWorkflowError(tt.err); got != tt.want {
				t.Errorf("IsWorkflowError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	nested := newError(KindSubmission, "submit content", newError(KindElementNotFound, "locate", errors.New("gone")))
	if got := KindOf(nested); got != KindSubmission {
		t.Errorf("KindOf(nested) = %q, want outer kind %q", got, KindSubmission)
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}
}

func TestErrorMessage(t *testing.T) {
	err := newError(KindNavigation, "navigate to groups", errors.New("timeout"))
	if got, want := err.Error(), "navigate to groups: timeout"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, err.Err) {
		t.Error("Unwrap chain broken")
	}
}
