package harness

import "fmt"

// State is a point in the lifecycle of a single scenario run.
type State int

const (
	StateStart State = iota
	StateSessionOpen
	StateBrowserLaunched
	StateContextOpen
	StatePageOpen
	StateNavigated
	StateReady
	StateInteract
	StateAssert
	StateDone
	StateTeardown
)

var stateNames = [...]string{
	StateStart:           "START",
	StateSessionOpen:     "SESSION_OPEN",
	StateBrowserLaunched: "BROWSER_LAUNCHED",
	StateContextOpen:     "CONTEXT_OPEN",
	StatePageOpen:        "PAGE_OPEN",
	StateNavigated:       "NAVIGATED",
	StateReady:           "READY",
	StateInteract:        "INTERACT",
	StateAssert:          "ASSERT",
	StateDone:            "DONE",
	StateTeardown:        "TEARDOWN",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText renders the state by name in reports.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name produced by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown lifecycle state %q", string(text))
}
