package campaign

import "testing"

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{StateIdle, StateLoading, true},
		{StateLoading, StateInitializing, true},
		{StateInitializing, StateRunning, true},
		{StateRunning, StateCompleted, true},

		// Failure and stop paths
		{StateLoading, StateFailed, true},
		{StateInitializing, StateFailed, true},
		{StateRunning, StateStopped, true},

		// Running never fails outright
		{StateRunning, StateFailed, false},

		// No skipping phases
		{StateIdle, StateInitializing, false},
		{StateIdle, StateRunning, false},
		{StateLoading, StateRunning, false},
		{StateInitializing, StateCompleted, false},

		// Terminal states are final
		{StateStopped, StateRunning, false},
		{StateCompleted, StateIdle, false},
		{StateFailed, StateLoading, false},
		{StateFailed, StateIdle, false},

		// Unknown states
		{"nonexistent", StateLoading, false},
		{StateIdle, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestAllStatesHaveTransitionEntry(t *testing.T) {
	allStates := []string{
		StateIdle, StateLoading, StateInitializing, StateRunning,
		StateStopped, StateCompleted, StateFailed,
	}

	for _, state := range allStates {
		if _, ok := ValidWorkerTransitions[state]; !ok {
			t.Errorf("state %q missing from ValidWorkerTransitions map", state)
		}
	}
}

func TestTerminalStatesHaveNoTransitions(t *testing.T) {
	terminal := []string{StateStopped, StateCompleted, StateFailed}
	for _, state := range terminal {
		if !IsTerminal(state) {
			t.Errorf("IsTerminal(%q) = false, want true", state)
		}
		transitions := ValidWorkerTransitions[state]
		if len(transitions) != 0 {
			t.Errorf("terminal state %q should have no transitions, got %v", state, transitions)
		}
	}
}

func TestNonTerminalStates(t *testing.T) {
	for _, state := range []string{StateIdle, StateLoading, StateInitializing, StateRunning} {
		if IsTerminal(state) {
			t.Errorf("IsTerminal(%q) = true, want false", state)
		}
	}
}
