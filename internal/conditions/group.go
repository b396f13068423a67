// internal/conditions/group.go
package conditions

import (
	"fmt"

	"github.com/DEFRA/forms-designer-sub008/internal/types"
)

// ConditionGroup is a parenthesised sub-list usable as a single list item.
type ConditionGroup struct {
	items       []Item
	coordinator Coordinator
}

// NewConditionGroup validates and builds a group from at least two items.
// The first child's coordinator is cleared; later children must carry one.
func NewConditionGroup(items []Item, coordinator Coordinator) (ConditionGroup, error) {
	if len(items) < 2 {
		return ConditionGroup{}, fmt.Errorf("%w: got %d", types.ErrInvalidGroup, len(items))
	}
	if _, err := ParseCoordinator(string(coordinator)); err != nil {
		return ConditionGroup{}, err
	}
	children, err := normaliseList(items)
	if err != nil {
		return ConditionGroup{}, err
	}
	return ConditionGroup{items: children, coordinator: coordinator}, nil
}

func (g ConditionGroup) Coordinator() Coordinator { return g.coordinator }
func (g ConditionGroup) IsGroup() bool            { return true }
func (g ConditionGroup) isItem()                  {}

// Len returns the number of direct children.
func (g ConditionGroup) Len() int { return len(g.items) }

// GroupedConditions returns deep copies of the children.
func (g ConditionGroup) GroupedConditions() []Item { return cloneItems(g.items) }

// AsFirstCondition returns a copy without a coordinator.
func (g ConditionGroup) AsFirstCondition() ConditionGroup {
	return ConditionGroup{items: cloneItems(g.items)}
}

// WithCoordinator returns a copy joined by coord.
func (g ConditionGroup) WithCoordinator(coord Coordinator) (ConditionGroup, error) {
	if _, err := ParseCoordinator(string(coord)); err != nil {
		return ConditionGroup{}, err
	}
	return ConditionGroup{items: cloneItems(g.items), coordinator: coord}, nil
}

// ConditionString renders "(<child> <coord> <child> ...)".
func (g ConditionGroup) ConditionString() string {
	return "(" + presentList(g.items) + ")"
}

// ConditionExpression renders "(<fragment> <coord> <fragment> ...)".
func (g ConditionGroup) ConditionExpression() (string, error) {
	inner, err := expressionList(g.items)
	if err != nil {
		return "", err
	}
	return "(" + inner + ")", nil
}

// Clone returns a deep copy.
func (g ConditionGroup) Clone() ConditionGroup {
	return ConditionGroup{items: cloneItems(g.items), coordinator: g.coordinator}
}

// GroupRange describes a contiguous, inclusive index range of a flat list.
// A range covers at least two items.
type GroupRange struct {
	first int
	last  int
}

// NewGroupRange fails with ErrInvalidGroupRange unless 0 <= first < last.
func NewGroupRange(first, last int) (GroupRange, error) {
	r := GroupRange{first: first, last: last}
	if err := r.validate(); err != nil {
		return GroupRange{}, err
	}
	return r, nil
}

func (r GroupRange) First() int { return r.first }
func (r GroupRange) Last() int  { return r.last }

// Len returns the number of items the range covers.
func (r GroupRange) Len() int { return r.last - r.first + 1 }

// Contains reports whether index lies inside the range.
func (r GroupRange) Contains(index int) bool {
	return index >= r.first && index <= r.last
}

// StartsWith reports whether index is the first index of the range.
func (r GroupRange) StartsWith(index int) bool {
	return index == r.first
}

// ApplyTo returns deep copies of items[first..last]. The caller checks bounds.
func (r GroupRange) ApplyTo(items []Item) []Item {
	return cloneItems(items[r.first : r.last+1])
}

func (r GroupRange) validate() error {
	if r.first < 0 || r.first >= r.last {
		return fmt.Errorf("%w: first=%d last=%d", types.ErrInvalidGroupRange, r.first, r.last)
	}
	return nil
}

// groupOf wraps children into a group carrying the first child's coordinator.
func groupOf(children []Item) ConditionGroup {
	coord := children[0].Coordinator()
	children[0] = asFirst(children[0])
	return ConditionGroup{items: children, coordinator: coord}
}
