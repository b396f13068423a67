// internal/conditions/model.go
package conditions

import (
	"fmt"

	"github.com/DEFRA/forms-designer-sub008/internal/types"
)

/*
 * Aggregate conditions model.
 *
 * ConditionsModel owns the ordered top-level list. It is a value: every
 * edit returns a new model and leaves the receiver untouched, and no slice
 * is shared between the two. Callers may therefore cache a model's
 * rendered strings and keep old models as snapshots.
 *
 * Edit workflow (all edits):
 *   1. Validate arguments (index bounds, range, item shape)
 *   2. Build the new list from deep copies, repairing position 0
 *   3. Verify the coordinator invariant over the whole tree (finish)
 *
 * Step 3 is a post-condition check, not a repair: a violation means a bug
 * in step 2 and is reported as ErrCoordinatorInvariant.
 */

// ConditionsModel is the top-level condition list of one named condition.
// The zero value is an empty, unnamed model.
type ConditionsModel struct {
	name  string
	items []Item
}

// NewConditionsModel builds a model from items in order. The first item's
// coordinator is cleared; later items must carry one.
func NewConditionsModel(name string, items ...Item) (ConditionsModel, error) {
	list, err := normaliseList(items)
	if err != nil {
		return ConditionsModel{}, err
	}
	return finish(name, list)
}

// finish runs the post-condition check and builds the model.
func finish(name string, items []Item) (ConditionsModel, error) {
	if err := checkCoordinators(items); err != nil {
		return ConditionsModel{}, err
	}
	if len(items) == 0 {
		items = nil
	}
	return ConditionsModel{name: name, items: items}, nil
}

func (m ConditionsModel) Name() string { return m.name }

// WithName returns a copy named name.
func (m ConditionsModel) WithName(name string) ConditionsModel {
	return ConditionsModel{name: name, items: cloneItems(m.items)}
}

// Items returns deep copies of the top-level items as authored.
func (m ConditionsModel) Items() []Item { return cloneItems(m.items) }

// Item returns a deep copy of the item at index.
func (m ConditionsModel) Item(index int) (Item, error) {
	if err := m.checkIndex(index); err != nil {
		return nil, err
	}
	return cloneItem(m.items[index]), nil
}

func (m ConditionsModel) Len() int            { return len(m.items) }
func (m ConditionsModel) HasConditions() bool { return len(m.items) > 0 }
func (m ConditionsModel) LastIndex() int      { return len(m.items) - 1 }

// AutoGrouped returns the top-level items as rendered, with implicit
// and-groups applied where the list mixes "and" and "or".
func (m ConditionsModel) AutoGrouped() []Item {
	return cloneItems(autoGroup(m.items))
}

// Clone returns a deep copy.
func (m ConditionsModel) Clone() ConditionsModel {
	return ConditionsModel{name: m.name, items: cloneItems(m.items)}
}

// AddCondition appends item. Appended to an empty model, the item loses its
// coordinator whatever was supplied; otherwise it must carry one.
func (m ConditionsModel) AddCondition(item Item) (ConditionsModel, error) {
	it, err := checkItem(item)
	if err != nil {
		return ConditionsModel{}, err
	}
	if len(m.items) == 0 {
		it = asFirst(it)
	} else if it.Coordinator().IsNone() {
		return ConditionsModel{}, fmt.Errorf("%w: item %d", types.ErrMissingCoordinator, len(m.items))
	}
	items := append(cloneItems(m.items), it)
	return finish(m.name, items)
}

// RemoveCondition removes the item at index. Removing the first item clears
// the coordinator of the item that takes its place.
func (m ConditionsModel) RemoveCondition(index int) (ConditionsModel, error) {
	if err := m.checkIndex(index); err != nil {
		return ConditionsModel{}, err
	}
	items := make([]Item, 0, len(m.items)-1)
	for i, it := range m.items {
		if i != index {
			items = append(items, cloneItem(it))
		}
	}
	if index == 0 && len(items) > 0 {
		items[0] = asFirst(items[0])
	}
	return finish(m.name, items)
}

// ReplaceCondition replaces the item at index. At position 0 the new item
// loses its coordinator; elsewhere an item without one inherits the
// coordinator of the item it replaces.
func (m ConditionsModel) ReplaceCondition(index int, item Item) (ConditionsModel, error) {
	if err := m.checkIndex(index); err != nil {
		return ConditionsModel{}, err
	}
	it, err := checkItem(item)
	if err != nil {
		return ConditionsModel{}, err
	}
	if index == 0 {
		it = asFirst(it)
	} else if it.Coordinator().IsNone() {
		it = withCoordinator(it, m.items[index].Coordinator())
	}
	items := cloneItems(m.items)
	items[index] = it
	return finish(m.name, items)
}

// SetCoordinator changes the coordinator of the item at index.
// Position 0 accepts only CoordinatorNone; later positions require and/or.
func (m ConditionsModel) SetCoordinator(index int, c Coordinator) (ConditionsModel, error) {
	if err := m.checkIndex(index); err != nil {
		return ConditionsModel{}, err
	}
	if _, err := ParseCoordinator(string(c)); err != nil {
		return ConditionsModel{}, err
	}
	if index == 0 && !c.IsNone() {
		return ConditionsModel{}, fmt.Errorf("%w: first item cannot have coordinator %q", types.ErrInvalidCoordinator, c)
	}
	if index > 0 && c.IsNone() {
		return ConditionsModel{}, fmt.Errorf("%w: item %d", types.ErrMissingCoordinator, index)
	}
	items := cloneItems(m.items)
	items[index] = withCoordinator(items[index], c)
	return finish(m.name, items)
}

// MoveEarlier swaps the item at index with its predecessor. Coordinators
// travel with their items, except across position 0: the item moving to
// the front hands its coordinator to the item it displaces.
// Moving the first item earlier returns an unchanged copy.
func (m ConditionsModel) MoveEarlier(index int) (ConditionsModel, error) {
	if err := m.checkIndex(index); err != nil {
		return ConditionsModel{}, err
	}
	items := cloneItems(m.items)
	if index == 0 {
		return finish(m.name, items)
	}
	items[index-1], items[index] = items[index], items[index-1]
	if index == 1 {
		items[1] = withCoordinator(items[1], items[0].Coordinator())
		items[0] = asFirst(items[0])
	}
	return finish(m.name, items)
}

// MoveLater swaps the item at index with its successor.
// Moving the last item later returns an unchanged copy.
func (m ConditionsModel) MoveLater(index int) (ConditionsModel, error) {
	if err := m.checkIndex(index); err != nil {
		return ConditionsModel{}, err
	}
	if index == len(m.items)-1 {
		return m.Clone(), nil
	}
	return m.MoveEarlier(index + 1)
}

// GroupConditions replaces the items covered by r with one group. The first
// grouped item's coordinator moves to the group. The list shrinks by
// r.Len()-1 items.
func (m ConditionsModel) GroupConditions(r GroupRange) (ConditionsModel, error) {
	if err := r.validate(); err != nil {
		return ConditionsModel{}, err
	}
	if r.last >= len(m.items) {
		return ConditionsModel{}, fmt.Errorf("%w: last=%d with %d items", types.ErrGroupOutOfBounds, r.last, len(m.items))
	}

	items := make([]Item, 0, len(m.items)-r.Len()+1)
	items = append(items, cloneItems(m.items[:r.first])...)
	items = append(items, groupOf(r.ApplyTo(m.items)))
	items = append(items, cloneItems(m.items[r.last+1:])...)
	return finish(m.name, items)
}

// UngroupConditions splices the children of the group at index back into
// the list. The first child takes the group's coordinator.
func (m ConditionsModel) UngroupConditions(index int) (ConditionsModel, error) {
	if err := m.checkIndex(index); err != nil {
		return ConditionsModel{}, err
	}
	group, ok := m.items[index].(ConditionGroup)
	if !ok {
		return ConditionsModel{}, fmt.Errorf("%w: index %d", types.ErrNotAGroup, index)
	}

	children := cloneItems(group.items)
	children[0] = withCoordinator(children[0], group.coordinator)

	items := make([]Item, 0, len(m.items)+len(children)-1)
	items = append(items, cloneItems(m.items[:index])...)
	items = append(items, children...)
	items = append(items, cloneItems(m.items[index+1:])...)
	return finish(m.name, items)
}

// RenameReference rewrites every reference to oldName, at any depth, to
// point at newName with display label newDisplay.
func (m ConditionsModel) RenameReference(oldName, newName, newDisplay string) (ConditionsModel, error) {
	if _, err := NewConditionRef(newName, newDisplay, CoordinatorNone); err != nil {
		return ConditionsModel{}, err
	}
	return finish(m.name, renameRefs(m.items, oldName, newName, newDisplay))
}

func renameRefs(items []Item, oldName, newName, newDisplay string) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, item := range items {
		switch it := item.(type) {
		case ConditionRef:
			if it.conditionName == oldName {
				it.conditionName = newName
				it.conditionDisplayName = newDisplay
			}
			out[i] = it
		case ConditionGroup:
			out[i] = ConditionGroup{
				items:       renameRefs(it.items, oldName, newName, newDisplay),
				coordinator: it.coordinator,
			}
		default:
			out[i] = cloneItem(item)
		}
	}
	return out
}

// References returns the names of referenced conditions, depth first,
// without duplicates.
func (m ConditionsModel) References() []string {
	var names []string
	seen := make(map[string]bool)
	walkItems(m.items, func(item Item) {
		if ref, ok := item.(ConditionRef); ok && !seen[ref.conditionName] {
			seen[ref.conditionName] = true
			names = append(names, ref.conditionName)
		}
	})
	return names
}

// Fields returns the descriptors of fields examined by predicates, depth
// first, without duplicate names.
func (m ConditionsModel) Fields() []FieldDescriptor {
	var fields []FieldDescriptor
	seen := make(map[string]bool)
	walkItems(m.items, func(item Item) {
		if c, ok := item.(Condition); ok && !seen[c.field.name] {
			seen[c.field.name] = true
			fields = append(fields, c.field)
		}
	})
	return fields
}

func walkItems(items []Item, visit func(Item)) {
	for _, item := range items {
		visit(item)
		if g, ok := item.(ConditionGroup); ok {
			walkItems(g.items, visit)
		}
	}
}

// PresentationString renders the whole tree as one sentence.
func (m ConditionsModel) PresentationString() string {
	return presentList(m.items)
}

// Expression compiles the whole tree into one boolean expression.
// Fails when a predicate's operator or value is not accepted by the
// operator table.
func (m ConditionsModel) Expression() (string, error) {
	return expressionList(m.items)
}

func (m ConditionsModel) checkIndex(index int) error {
	if index < 0 || index >= len(m.items) {
		return fmt.Errorf("%w: %d with %d items", types.ErrIndexOutOfRange, index, len(m.items))
	}
	return nil
}
