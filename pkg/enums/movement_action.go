package enums

import (
	"fmt"
	"strings"
)

// MovementAction maps to the action column of movement_records.
type MovementAction string

const (
	MovementActionBorrow MovementAction = "borrow"
	MovementActionReturn MovementAction = "return"
)

var validMovementActions = []MovementAction{
	MovementActionBorrow,
	MovementActionReturn,
}

func (a MovementAction) String() string {
	return string(a)
}

// IsValid reports whether the value matches the canonical movement action enum.
func (a MovementAction) IsValid() bool {
	for _, candidate := range validMovementActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// Sign returns +1 for borrows and -1 for returns, the weight used by net holding sums.
func (a MovementAction) Sign() int {
	if a == MovementActionReturn {
		return -1
	}
	return 1
}

// ParseMovementAction converts raw input into MovementAction, ignoring case and padding.
func ParseMovementAction(value string) (MovementAction, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validMovementActions {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement action %q", value)
}
