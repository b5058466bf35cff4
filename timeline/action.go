package timeline

import (
	"fmt"
	"strings"
)

// Action is what an animation step does to its node.
type Action int

const (
	// Expand reveals the node's children.
	Expand Action = iota
	// Collapse hides the node's children.
	Collapse
	// Highlight draws attention to the node without changing expansion.
	Highlight
	// Focus scrolls the node into view without changing expansion.
	Focus
)

var actionNames = [...]string{
	Expand:    "expand",
	Collapse:  "collapse",
	Highlight: "highlight",
	Focus:     "focus",
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionNames[a]
}

// ParseAction converts a lowercase action name to an Action
func ParseAction(s string) (Action, error) {
	for i, name := range actionNames {
		if strings.EqualFold(s, name) {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action: %q", s)
}

// MarshalText encodes the action by name
func (a Action) MarshalText() ([]byte, error) {
	if a < 0 || int(a) >= len(actionNames) {
		return nil, fmt.Errorf("invalid action: %d", int(a))
	}
	return []byte(actionNames[a]), nil
}

// UnmarshalText decodes an action name
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
