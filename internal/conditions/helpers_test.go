package conditions

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// modelCmpOpts compares models and items structurally, including unexported state.
var modelCmpOpts = []cmp.Option{
	cmp.AllowUnexported(
		ConditionsModel{},
		Condition{},
		ConditionRef{},
		ConditionGroup{},
		FieldDescriptor{},
		ExactValue{},
		RelativeTimeValue{},
	),
	cmpopts.EquateEmpty(),
}

func mustField(t *testing.T, name string, kind FieldKind, display string) FieldDescriptor {
	t.Helper()
	f, err := NewFieldDescriptor(name, kind, display)
	if err != nil {
		t.Fatalf("NewFieldDescriptor(%q) error = %v", name, err)
	}
	return f
}

func mustExact(t *testing.T, raw, display string) ExactValue {
	t.Helper()
	v, err := NewExactValue(raw, display)
	if err != nil {
		t.Fatalf("NewExactValue(%q) error = %v", raw, err)
	}
	return v
}

func mustRelative(t *testing.T, period int, unit TimeUnit, dir Direction) RelativeTimeValue {
	t.Helper()
	v, err := NewRelativeTimeValue(period, unit, dir)
	if err != nil {
		t.Fatalf("NewRelativeTimeValue() error = %v", err)
	}
	return v
}

func mustCondition(t *testing.T, field FieldDescriptor, op OperatorName, v Value, c Coordinator) Condition {
	t.Helper()
	cond, err := NewCondition(field, op, v, c)
	if err != nil {
		t.Fatalf("NewCondition() error = %v", err)
	}
	return cond
}

func mustRef(t *testing.T, name, display string, c Coordinator) ConditionRef {
	t.Helper()
	ref, err := NewConditionRef(name, display, c)
	if err != nil {
		t.Fatalf("NewConditionRef() error = %v", err)
	}
	return ref
}

func mustModel(t *testing.T, items ...Item) ConditionsModel {
	t.Helper()
	m, err := NewConditionsModel("test", items...)
	if err != nil {
		t.Fatalf("NewConditionsModel() error = %v", err)
	}
	return m
}

// nameIs returns the predicate "name is '<raw>'" on a text field.
func nameIs(t *testing.T, raw string, c Coordinator) Condition {
	t.Helper()
	return mustCondition(t, mustField(t, "name", FieldKindTextField, "Name"), OpIs, mustExact(t, raw, ""), c)
}

// ageAtLeast returns the predicate "age is at least <n>" on a number field.
func ageAtLeast(t *testing.T, n string, c Coordinator) Condition {
	t.Helper()
	return mustCondition(t, mustField(t, "age", FieldKindNumberField, "Age"), OpIsAtLeast, mustExact(t, n, ""), c)
}

// coordinatorsValid reports whether every list in the tree obeys the
// first-item rule, using only the exported API.
func coordinatorsValid(items []Item) bool {
	for i, it := range items {
		if (i == 0) != it.Coordinator().IsNone() {
			return false
		}
		if g, ok := it.(ConditionGroup); ok && !coordinatorsValid(g.GroupedConditions()) {
			return false
		}
	}
	return true
}
