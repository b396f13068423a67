// internal/conditions/item.go
package conditions

import (
	"fmt"

	"github.com/DEFRA/forms-designer-sub008/internal/types"
)

/*
 * List items: the recursive union Item = Condition | ConditionRef | ConditionGroup.
 *
 * Item is sealed; rendering, cloning and coordinator edits are type switches
 * over the three variants (see render.go) rather than per-type overrides.
 * All variants are immutable values: the With and As methods return copies.
 *
 * Coordinator discipline: an item at position 0 of its list has no
 * coordinator, every later item has one. Constructors accept any valid
 * coordinator; the list owner (ConditionGroup, ConditionsModel) repairs
 * position 0 and rejects later items without one.
 */

// Item is one entry of a condition list.
type Item interface {
	// Coordinator returns the joiner to the previous item, or CoordinatorNone.
	Coordinator() Coordinator
	// IsGroup reports whether the item is a ConditionGroup.
	IsGroup() bool

	isItem()
}

// Condition is an atomic field/operator/value predicate.
type Condition struct {
	field       FieldDescriptor
	operator    OperatorName
	value       Value
	coordinator Coordinator
}

// NewCondition validates and builds a predicate.
// Fails with ErrInvalidField for a descriptor not built by NewFieldDescriptor,
// ErrUnsupportedOperator for an empty operator, ErrUnregisteredValue for a
// nil or zero value, and ErrInvalidCoordinator for an unknown coordinator.
// Operator legality for the field kind is checked when rendering.
func NewCondition(field FieldDescriptor, operator OperatorName, value Value, coordinator Coordinator) (Condition, error) {
	if !field.valid() {
		return Condition{}, fmt.Errorf("%w: field descriptor is not initialised", types.ErrInvalidField)
	}
	if operator == "" {
		return Condition{}, fmt.Errorf("%w: operator is required", types.ErrUnsupportedOperator)
	}
	v, err := checkValue(value)
	if err != nil {
		return Condition{}, err
	}
	if _, err := ParseCoordinator(string(coordinator)); err != nil {
		return Condition{}, err
	}
	return Condition{field: field, operator: operator, value: v, coordinator: coordinator}, nil
}

func (c Condition) Field() FieldDescriptor   { return c.field }
func (c Condition) Operator() OperatorName   { return c.operator }
func (c Condition) Value() Value             { return c.value.Clone() }
func (c Condition) Coordinator() Coordinator { return c.coordinator }
func (c Condition) IsGroup() bool            { return false }
func (c Condition) isItem()                  {}

// GroupedConditions returns the condition itself as a one-item list.
func (c Condition) GroupedConditions() []Item { return []Item{c.Clone()} }

// AsFirstCondition returns a copy without a coordinator.
func (c Condition) AsFirstCondition() Condition {
	c.value = c.value.Clone()
	c.coordinator = CoordinatorNone
	return c
}

// WithCoordinator returns a copy joined by coord.
func (c Condition) WithCoordinator(coord Coordinator) (Condition, error) {
	if _, err := ParseCoordinator(string(coord)); err != nil {
		return Condition{}, err
	}
	c.value = c.value.Clone()
	c.coordinator = coord
	return c, nil
}

// ConditionString renders "'<field display>' <operator> '<value>'".
func (c Condition) ConditionString() string {
	return "'" + c.field.display + "' " + string(c.operator) + " '" + c.value.PresentationString() + "'"
}

// ConditionExpression renders the predicate through the operator table.
func (c Condition) ConditionExpression() (string, error) {
	return Expression(c.field.kind, c.field.name, c.operator, c.value)
}

// Clone returns a deep copy.
func (c Condition) Clone() Condition {
	c.value = c.value.Clone()
	return c
}

// ConditionRef is a predicate naming a condition defined elsewhere.
// The model never dereferences it; the evaluator resolves the name.
type ConditionRef struct {
	conditionName        string
	conditionDisplayName string
	coordinator          Coordinator
}

// NewConditionRef validates and builds a reference.
// Fails with ErrInvalidReference when a name is missing or the condition
// name cannot appear verbatim in an expression.
func NewConditionRef(conditionName, conditionDisplayName string, coordinator Coordinator) (ConditionRef, error) {
	if conditionName == "" {
		return ConditionRef{}, fmt.Errorf("%w: condition name is required", types.ErrInvalidReference)
	}
	if !isExpressionName(conditionName) {
		return ConditionRef{}, fmt.Errorf("%w: condition name %q is not a valid identifier", types.ErrInvalidReference, conditionName)
	}
	if conditionDisplayName == "" {
		return ConditionRef{}, fmt.Errorf("%w: condition display name is required", types.ErrInvalidReference)
	}
	if _, err := ParseCoordinator(string(coordinator)); err != nil {
		return ConditionRef{}, err
	}
	return ConditionRef{
		conditionName:        conditionName,
		conditionDisplayName: conditionDisplayName,
		coordinator:          coordinator,
	}, nil
}

func (r ConditionRef) ConditionName() string        { return r.conditionName }
func (r ConditionRef) ConditionDisplayName() string { return r.conditionDisplayName }
func (r ConditionRef) Coordinator() Coordinator     { return r.coordinator }
func (r ConditionRef) IsGroup() bool                { return false }
func (r ConditionRef) isItem()                      {}

// GroupedConditions returns the reference itself as a one-item list.
func (r ConditionRef) GroupedConditions() []Item { return []Item{r} }

// AsFirstCondition returns a copy without a coordinator.
func (r ConditionRef) AsFirstCondition() ConditionRef {
	r.coordinator = CoordinatorNone
	return r
}

// WithCoordinator returns a copy joined by coord.
func (r ConditionRef) WithCoordinator(coord Coordinator) (ConditionRef, error) {
	if _, err := ParseCoordinator(string(coord)); err != nil {
		return ConditionRef{}, err
	}
	r.coordinator = coord
	return r, nil
}

// ConditionString renders the quoted display name.
func (r ConditionRef) ConditionString() string {
	return "'" + r.conditionDisplayName + "'"
}

// ConditionExpression renders the referenced condition's name verbatim.
func (r ConditionRef) ConditionExpression() (string, error) {
	return r.conditionName, nil
}

// Clone returns a copy. ConditionRef holds only strings.
func (r ConditionRef) Clone() ConditionRef {
	return r
}
