package campaign

// Worker states
const (
	StateIdle         = "idle"
	StateLoading      = "loading"
	StateInitializing = "initializing"
	StateRunning      = "running"
	StateStopped      = "stopped"
	StateCompleted    = "completed"
	StateFailed       = "failed"
)

// Valid state transitions: from -> []to. Failed is reachable only from
// the loading and initializing phases; workflow errors inside the run
// loop never end the campaign.
var ValidWorkerTransitions = map[string][]string{
	StateIdle:         {StateLoading},
	StateLoading:      {StateInitializing, StateFailed},
	StateInitializing: {StateRunning, StateFailed},
	StateRunning:      {StateStopped, StateCompleted},
	StateStopped:      {},
	StateCompleted:    {},
	StateFailed:       {},
}

func IsValidTransition(from, to string) bool {
	allowed, ok := ValidWorkerTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a state ends the worker's lifetime.
func IsTerminal(state string) bool {
	switch state {
	case StateStopped, StateCompleted, StateFailed:
		return true
	}
	return false
}
