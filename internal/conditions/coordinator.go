// internal/conditions/coordinator.go
package conditions

import (
	"fmt"

	"github.com/DEFRA/forms-designer-sub008/internal/types"
)

// Coordinator joins an item to its predecessor in a list.
// The empty Coordinator means "none" and is only legal at position 0.
type Coordinator string

const (
	CoordinatorNone Coordinator = ""
	CoordinatorAnd  Coordinator = "and"
	CoordinatorOr   Coordinator = "or"
)

// ParseCoordinator converts persisted or user input to a Coordinator.
// Empty input yields CoordinatorNone.
func ParseCoordinator(s string) (Coordinator, error) {
	switch Coordinator(s) {
	case CoordinatorNone, CoordinatorAnd, CoordinatorOr:
		return Coordinator(s), nil
	default:
		return CoordinatorNone, fmt.Errorf("%w: %q", types.ErrInvalidCoordinator, s)
	}
}

// IsNone reports whether no coordinator is set.
func (c Coordinator) IsNone() bool {
	return c == CoordinatorNone
}

// prefix renders the coordinator as it precedes an item: "" or "and ".
func (c Coordinator) prefix() string {
	if c.IsNone() {
		return ""
	}
	return string(c) + " "
}
