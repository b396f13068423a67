// internal/conditions/render.go
package conditions

import (
	"fmt"
	"strings"

	"github.com/DEFRA/forms-designer-sub008/internal/types"
)

/*
 * Recursion over the Item union.
 *
 * Every helper here is an exhaustive type switch over Condition,
 * ConditionRef and ConditionGroup. Pointer forms are accepted at the API
 * boundary (checkItem) and stored as values from then on.
 *
 * Rendering applies AND precedence: when a list mixes "and" and "or", each
 * run of and-joined items renders as an implicit group, so
 * [A, or B, and C] renders as "A or (B and C)". Implicit groups exist only
 * in the rendered output; the authored list is left as is.
 */

// checkItem normalises item to a value variant and validates it.
func checkItem(item Item) (Item, error) {
	switch it := item.(type) {
	case Condition:
		if !it.field.valid() || it.operator == "" || it.value == nil {
			return nil, fmt.Errorf("%w: condition is not initialised", types.ErrMalformedItem)
		}
		return it.Clone(), nil
	case ConditionRef:
		if it.conditionName == "" || it.conditionDisplayName == "" {
			return nil, fmt.Errorf("%w: condition reference is not initialised", types.ErrMalformedItem)
		}
		return it, nil
	case ConditionGroup:
		if len(it.items) < 2 {
			return nil, fmt.Errorf("%w: got %d", types.ErrInvalidGroup, len(it.items))
		}
		return it.Clone(), nil
	case *Condition:
		if it != nil {
			return checkItem(*it)
		}
	case *ConditionRef:
		if it != nil {
			return checkItem(*it)
		}
	case *ConditionGroup:
		if it != nil {
			return checkItem(*it)
		}
	}
	return nil, fmt.Errorf("%w: %T", types.ErrMalformedItem, item)
}

// normaliseList validates and copies items, clearing the first coordinator
// and rejecting later items without one.
func normaliseList(items []Item) ([]Item, error) {
	out := make([]Item, 0, len(items))
	for i, item := range items {
		it, err := checkItem(item)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			it = asFirst(it)
		} else if it.Coordinator().IsNone() {
			return nil, fmt.Errorf("%w: item %d", types.ErrMissingCoordinator, i)
		}
		out = append(out, it)
	}
	return out, nil
}

// checkCoordinators verifies the first-item rule in items and every nested group.
func checkCoordinators(items []Item) error {
	for i, item := range items {
		c := item.Coordinator()
		if i == 0 && !c.IsNone() {
			return fmt.Errorf("%w: first item has coordinator %q", types.ErrCoordinatorInvariant, c)
		}
		if i > 0 && c.IsNone() {
			return fmt.Errorf("%w: item %d has no coordinator", types.ErrCoordinatorInvariant, i)
		}
		if g, ok := item.(ConditionGroup); ok {
			if err := checkCoordinators(g.items); err != nil {
				return err
			}
		}
	}
	return nil
}

func cloneItem(item Item) Item {
	switch it := item.(type) {
	case Condition:
		return it.Clone()
	case ConditionRef:
		return it.Clone()
	case ConditionGroup:
		return it.Clone()
	default:
		panic(fmt.Sprintf("conditions: unexpected item type %T", item))
	}
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = cloneItem(it)
	}
	return out
}

func asFirst(item Item) Item {
	switch it := item.(type) {
	case Condition:
		return it.AsFirstCondition()
	case ConditionRef:
		return it.AsFirstCondition()
	case ConditionGroup:
		return it.AsFirstCondition()
	default:
		panic(fmt.Sprintf("conditions: unexpected item type %T", item))
	}
}

// withCoordinator returns a copy of item joined by c. c is already valid.
func withCoordinator(item Item, c Coordinator) Item {
	switch it := item.(type) {
	case Condition:
		it = it.Clone()
		it.coordinator = c
		return it
	case ConditionRef:
		it.coordinator = c
		return it
	case ConditionGroup:
		return ConditionGroup{items: cloneItems(it.items), coordinator: c}
	default:
		panic(fmt.Sprintf("conditions: unexpected item type %T", item))
	}
}

func conditionString(item Item) string {
	switch it := item.(type) {
	case Condition:
		return it.ConditionString()
	case ConditionRef:
		return it.ConditionString()
	case ConditionGroup:
		return it.ConditionString()
	default:
		panic(fmt.Sprintf("conditions: unexpected item type %T", item))
	}
}

func conditionExpression(item Item) (string, error) {
	switch it := item.(type) {
	case Condition:
		return it.ConditionExpression()
	case ConditionRef:
		return it.ConditionExpression()
	case ConditionGroup:
		return it.ConditionExpression()
	default:
		panic(fmt.Sprintf("conditions: unexpected item type %T", item))
	}
}

// presentList joins items' presentation strings with their coordinators.
func presentList(items []Item) string {
	grouped := autoGroup(items)
	parts := make([]string, len(grouped))
	for i, it := range grouped {
		parts[i] = it.Coordinator().prefix() + conditionString(it)
	}
	return strings.Join(parts, " ")
}

// expressionList joins items' expression fragments with their coordinators.
func expressionList(items []Item) (string, error) {
	grouped := autoGroup(items)
	parts := make([]string, len(grouped))
	for i, it := range grouped {
		fragment, err := conditionExpression(it)
		if err != nil {
			return "", fmt.Errorf("item %d: %w", i, err)
		}
		parts[i] = it.Coordinator().prefix() + fragment
	}
	return strings.Join(parts, " "), nil
}

// autoGroupRanges finds the runs of and-joined items in a list that mixes
// "and" and "or". Each run ends just before an "or"; the run after the last
// "or" extends to the end of the list.
func autoGroupRanges(items []Item) []GroupRange {
	var orPositions []int
	hasAnd := false
	for i, it := range items {
		switch it.Coordinator() {
		case CoordinatorOr:
			orPositions = append(orPositions, i)
		case CoordinatorAnd:
			hasAnd = true
		}
	}
	if !hasAnd || len(orPositions) == 0 {
		return nil
	}

	var ranges []GroupRange
	start := 0
	for n, pos := range orPositions {
		if start < pos-1 {
			ranges = append(ranges, GroupRange{first: start, last: pos - 1})
		}
		lastOr := n == len(orPositions)-1
		if lastOr && len(items)-1 > pos {
			ranges = append(ranges, GroupRange{first: pos, last: len(items) - 1})
		}
		start = pos
	}
	return ranges
}

// autoGroup returns items with implicit groups applied. Lists without
// mixed coordinators are returned unchanged (not copied).
func autoGroup(items []Item) []Item {
	ranges := autoGroupRanges(items)
	if len(ranges) == 0 {
		return items
	}
	out := make([]Item, 0, len(items))
	for i, it := range items {
		r, ok := rangeContaining(ranges, i)
		if !ok {
			out = append(out, it)
			continue
		}
		if r.StartsWith(i) {
			out = append(out, groupOf(r.ApplyTo(items)))
		}
	}
	return out
}

func rangeContaining(ranges []GroupRange, index int) (GroupRange, bool) {
	for _, r := range ranges {
		if r.Contains(index) {
			return r, true
		}
	}
	return GroupRange{}, false
}
