package conditions

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/DEFRA/forms-designer-sub008/internal/types"
)

func TestModel_AddRelativeDateCondition(t *testing.T) {
	age := mustField(t, "age", FieldKindDatePartsField, "Age")
	cond := mustCondition(t, age, OpIsAtLeast, mustRelative(t, 18, TimeUnitYears, DirectionPast), CoordinatorAnd)

	m, err := ConditionsModel{}.AddCondition(cond)
	if err != nil {
		t.Fatalf("AddCondition() error = %v", err)
	}

	if got, want := m.PresentationString(), "'Age' is at least '18 years in the past'"; got != want {
		t.Errorf("PresentationString() = %q, want %q", got, want)
	}
	if got, _ := m.Expression(); got != "age <= dateForComparison(-18, 'years')" {
		t.Errorf("Expression() = %q", got)
	}
	first, _ := m.Item(0)
	if !first.Coordinator().IsNone() {
		t.Errorf("first item coordinator = %q, want none", first.Coordinator())
	}
}

func TestModel_GroupTwoPredicates(t *testing.T) {
	m := mustModel(t, nameIs(t, "Bob", CoordinatorNone), ageAtLeast(t, "18", CoordinatorAnd))

	r, err := NewGroupRange(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	grouped, err := m.GroupConditions(r)
	if err != nil {
		t.Fatalf("GroupConditions() error = %v", err)
	}

	if grouped.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", grouped.Len())
	}
	item, _ := grouped.Item(0)
	if !item.IsGroup() || !item.Coordinator().IsNone() {
		t.Errorf("Item(0) = %+v, want an uncoordinated group", item)
	}
	if got, _ := grouped.Expression(); got != "(name == 'Bob' and age >= 18)" {
		t.Errorf("Expression() = %q, want %q", got, "(name == 'Bob' and age >= 18)")
	}
	if got := grouped.PresentationString(); got != "('Name' is 'Bob' and 'Age' is at least '18')" {
		t.Errorf("PresentationString() = %q", got)
	}

	// Receiver unchanged.
	if m.Len() != 2 {
		t.Errorf("receiver Len() = %d, want 2", m.Len())
	}
}

func TestModel_RemoveFirstClearsCoordinator(t *testing.T) {
	m := mustModel(t,
		nameIs(t, "A", CoordinatorNone),
		nameIs(t, "B", CoordinatorOr),
		nameIs(t, "C", CoordinatorAnd),
	)

	got, err := m.RemoveCondition(0)
	if err != nil {
		t.Fatalf("RemoveCondition() error = %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", got.Len())
	}
	first, _ := got.Item(0)
	if !first.Coordinator().IsNone() {
		t.Errorf("new first coordinator = %q, want none", first.Coordinator())
	}
	second, _ := got.Item(1)
	if second.Coordinator() != CoordinatorAnd {
		t.Errorf("second coordinator = %q, want and", second.Coordinator())
	}
	if got.PresentationString() != "'Name' is 'B' and 'Name' is 'C'" {
		t.Errorf("PresentationString() = %q", got.PresentationString())
	}
}

func TestModel_RemoveLastLeavesEmpty(t *testing.T) {
	m := mustModel(t, nameIs(t, "A", CoordinatorNone))
	got, err := m.RemoveCondition(0)
	if err != nil {
		t.Fatal(err)
	}
	if got.HasConditions() || got.LastIndex() != -1 {
		t.Errorf("HasConditions() = %v, LastIndex() = %d", got.HasConditions(), got.LastIndex())
	}
	if got.PresentationString() != "" {
		t.Errorf("PresentationString() = %q, want empty", got.PresentationString())
	}
	if expr, err := got.Expression(); err != nil || expr != "" {
		t.Errorf("Expression() = %q, %v, want empty", expr, err)
	}
}

func TestModel_AddCondition(t *testing.T) {
	m := mustModel(t, nameIs(t, "A", CoordinatorNone))

	if _, err := m.AddCondition(nameIs(t, "B", CoordinatorNone)); !errors.Is(err, types.ErrMissingCoordinator) {
		t.Errorf("AddCondition(no coordinator) error = %v, want ErrMissingCoordinator", err)
	}
	if _, err := m.AddCondition(nil); !errors.Is(err, types.ErrMalformedItem) {
		t.Errorf("AddCondition(nil) error = %v, want ErrMalformedItem", err)
	}
	if _, err := m.AddCondition(Condition{}); !errors.Is(err, types.ErrMalformedItem) {
		t.Errorf("AddCondition(zero) error = %v, want ErrMalformedItem", err)
	}

	ref := mustRef(t, "isAdult", "Is an adult", CoordinatorOr)
	got, err := m.AddCondition(&ref)
	if err != nil {
		t.Fatalf("AddCondition(&ref) error = %v", err)
	}
	if got.PresentationString() != "'Name' is 'A' or 'Is an adult'" {
		t.Errorf("PresentationString() = %q", got.PresentationString())
	}
	if expr, _ := got.Expression(); expr != "name == 'A' or isAdult" {
		t.Errorf("Expression() = %q", expr)
	}
}

func TestModel_GroupConditionsErrors(t *testing.T) {
	m := mustModel(t,
		nameIs(t, "A", CoordinatorNone),
		nameIs(t, "B", CoordinatorOr),
	)

	r, _ := NewGroupRange(1, 2)
	if _, err := m.GroupConditions(r); !errors.Is(err, types.ErrGroupOutOfBounds) {
		t.Errorf("GroupConditions(1..2) error = %v, want ErrGroupOutOfBounds", err)
	}
	if _, err := m.GroupConditions(GroupRange{}); !errors.Is(err, types.ErrInvalidGroupRange) {
		t.Errorf("GroupConditions(zero range) error = %v, want ErrInvalidGroupRange", err)
	}
}

func TestModel_GroupMiddle(t *testing.T) {
	m := mustModel(t,
		nameIs(t, "A", CoordinatorNone),
		nameIs(t, "B", CoordinatorOr),
		nameIs(t, "C", CoordinatorAnd),
		nameIs(t, "D", CoordinatorAnd),
	)
	r, _ := NewGroupRange(1, 2)
	got, err := m.GroupConditions(r)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", got.Len())
	}
	g, _ := got.Item(1)
	if g.Coordinator() != CoordinatorOr {
		t.Errorf("group coordinator = %q, want or", g.Coordinator())
	}
	children := g.(ConditionGroup).GroupedConditions()
	if !children[0].Coordinator().IsNone() || children[1].Coordinator() != CoordinatorAnd {
		t.Errorf("children coordinators = %q, %q", children[0].Coordinator(), children[1].Coordinator())
	}
}

func TestModel_UngroupRestores(t *testing.T) {
	m := mustModel(t,
		nameIs(t, "A", CoordinatorNone),
		nameIs(t, "B", CoordinatorOr),
		nameIs(t, "C", CoordinatorAnd),
	)
	r, _ := NewGroupRange(1, 2)
	grouped, err := m.GroupConditions(r)
	if err != nil {
		t.Fatal(err)
	}
	restored, err := grouped.UngroupConditions(1)
	if err != nil {
		t.Fatalf("UngroupConditions() error = %v", err)
	}
	if diff := cmp.Diff(m, restored, modelCmpOpts...); diff != "" {
		t.Errorf("UngroupConditions() mismatch (-want +got):\n%s", diff)
	}

	if _, err := m.UngroupConditions(0); !errors.Is(err, types.ErrNotAGroup) {
		t.Errorf("UngroupConditions(predicate) error = %v, want ErrNotAGroup", err)
	}
	if _, err := m.UngroupConditions(7); !errors.Is(err, types.ErrIndexOutOfRange) {
		t.Errorf("UngroupConditions(7) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestModel_ReplaceCondition(t *testing.T) {
	m := mustModel(t,
		nameIs(t, "A", CoordinatorNone),
		nameIs(t, "B", CoordinatorOr),
	)

	got, err := m.ReplaceCondition(1, nameIs(t, "Z", CoordinatorNone))
	if err != nil {
		t.Fatalf("ReplaceCondition() error = %v", err)
	}
	if got.PresentationString() != "'Name' is 'A' or 'Name' is 'Z'" {
		t.Errorf("PresentationString() = %q", got.PresentationString())
	}

	got, err = m.ReplaceCondition(0, nameIs(t, "Y", CoordinatorAnd))
	if err != nil {
		t.Fatalf("ReplaceCondition(0) error = %v", err)
	}
	first, _ := got.Item(0)
	if !first.Coordinator().IsNone() {
		t.Errorf("first coordinator = %q, want none", first.Coordinator())
	}

	if _, err := m.ReplaceCondition(2, nameIs(t, "X", CoordinatorAnd)); !errors.Is(err, types.ErrIndexOutOfRange) {
		t.Errorf("ReplaceCondition(2) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestModel_SetCoordinator(t *testing.T) {
	m := mustModel(t,
		nameIs(t, "A", CoordinatorNone),
		nameIs(t, "B", CoordinatorOr),
	)

	got, err := m.SetCoordinator(1, CoordinatorAnd)
	if err != nil {
		t.Fatalf("SetCoordinator() error = %v", err)
	}
	if got.PresentationString() != "'Name' is 'A' and 'Name' is 'B'" {
		t.Errorf("PresentationString() = %q", got.PresentationString())
	}

	if _, err := m.SetCoordinator(0, CoordinatorAnd); !errors.Is(err, types.ErrInvalidCoordinator) {
		t.Errorf("SetCoordinator(0, and) error = %v, want ErrInvalidCoordinator", err)
	}
	if _, err := m.SetCoordinator(1, CoordinatorNone); !errors.Is(err, types.ErrMissingCoordinator) {
		t.Errorf("SetCoordinator(1, none) error = %v, want ErrMissingCoordinator", err)
	}
	if _, err := m.SetCoordinator(1, "xor"); !errors.Is(err, types.ErrInvalidCoordinator) {
		t.Errorf("SetCoordinator(1, xor) error = %v, want ErrInvalidCoordinator", err)
	}
}

func TestModel_Move(t *testing.T) {
	m := mustModel(t,
		nameIs(t, "A", CoordinatorNone),
		nameIs(t, "B", CoordinatorOr),
		nameIs(t, "C", CoordinatorAnd),
	)

	tests := []struct {
		name string
		move func(ConditionsModel) (ConditionsModel, error)
		want string
	}{
		{
			name: "second to front swaps coordinators",
			move: func(m ConditionsModel) (ConditionsModel, error) { return m.MoveEarlier(1) },
			want: "'Name' is 'B' or 'Name' is 'A' and 'Name' is 'C'",
		},
		{
			name: "last earlier keeps coordinators with items",
			move: func(m ConditionsModel) (ConditionsModel, error) { return m.MoveEarlier(2) },
			want: "'Name' is 'A' and 'Name' is 'C' or 'Name' is 'B'",
		},
		{
			name: "first later",
			move: func(m ConditionsModel) (ConditionsModel, error) { return m.MoveLater(0) },
			want: "'Name' is 'B' or 'Name' is 'A' and 'Name' is 'C'",
		},
		{
			name: "first earlier is a no-op",
			move: func(m ConditionsModel) (ConditionsModel, error) { return m.MoveEarlier(0) },
			want: m.PresentationString(),
		},
		{
			name: "last later is a no-op",
			move: func(m ConditionsModel) (ConditionsModel, error) { return m.MoveLater(2) },
			want: m.PresentationString(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.move(m)
			if err != nil {
				t.Fatalf("move error = %v", err)
			}
			if !coordinatorsValid(got.Items()) {
				t.Errorf("coordinator rule broken: %+v", got.Items())
			}
			if got.Len() != m.Len() {
				t.Errorf("Len() = %d, want %d", got.Len(), m.Len())
			}
			// Compare the authored order without implicit grouping.
			var parts []string
			for _, it := range got.Items() {
				parts = append(parts, it.Coordinator().prefix()+conditionString(it))
			}
			if joined := strings.Join(parts, " "); joined != tt.want {
				t.Errorf("items = %q, want %q", joined, tt.want)
			}
		})
	}
}

func TestModel_AutoGrouping(t *testing.T) {
	a := func(c Coordinator) Condition { return nameIs(t, "A", c) }
	b := func(c Coordinator) Condition { return nameIs(t, "B", c) }
	c := func(co Coordinator) Condition { return nameIs(t, "C", co) }
	d := func(co Coordinator) Condition { return nameIs(t, "D", co) }
	e := func(co Coordinator) Condition { return nameIs(t, "E", co) }

	tests := []struct {
		name  string
		items []Item
		want  string
	}{
		{
			name:  "all and",
			items: []Item{a(""), b("and"), c("and")},
			want:  "name == 'A' and name == 'B' and name == 'C'",
		},
		{
			name:  "all or",
			items: []Item{a(""), b("or"), c("or")},
			want:  "name == 'A' or name == 'B' or name == 'C'",
		},
		{
			name:  "and binds tighter on the right",
			items: []Item{a(""), b("or"), c("and")},
			want:  "name == 'A' or (name == 'B' and name == 'C')",
		},
		{
			name:  "and binds tighter on the left",
			items: []Item{a(""), b("and"), c("or")},
			want:  "(name == 'A' and name == 'B') or name == 'C'",
		},
		{
			name:  "two and runs",
			items: []Item{a(""), b("and"), c("or"), d("and"), e("or")},
			want:  "(name == 'A' and name == 'B') or (name == 'C' and name == 'D') or name == 'E'",
		},
		{
			name:  "trailing run after several ors",
			items: []Item{a(""), b("or"), c("or"), d("and")},
			want:  "name == 'A' or name == 'B' or (name == 'C' and name == 'D')",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustModel(t, tt.items...)
			got, err := m.Expression()
			if err != nil {
				t.Fatalf("Expression() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Expression() = %q, want %q", got, tt.want)
			}
			// Authored list is untouched by rendering.
			if m.Len() != len(tt.items) {
				t.Errorf("Len() = %d, want %d", m.Len(), len(tt.items))
			}
			if !coordinatorsValid(m.AutoGrouped()) {
				t.Errorf("AutoGrouped() breaks the coordinator rule")
			}
		})
	}
}

func TestModel_RenameReference(t *testing.T) {
	inner, err := NewConditionGroup([]Item{
		mustRef(t, "isAdult", "Is an adult", CoordinatorNone),
		nameIs(t, "A", CoordinatorOr),
	}, CoordinatorAnd)
	if err != nil {
		t.Fatal(err)
	}
	m := mustModel(t, mustRef(t, "isAdult", "Is an adult", CoordinatorNone), inner)

	got, err := m.RenameReference("isAdult", "isGrownUp", "Is grown up")
	if err != nil {
		t.Fatalf("RenameReference() error = %v", err)
	}
	if want := []string{"isGrownUp"}; !reflect.DeepEqual(got.References(), want) {
		t.Errorf("References() = %v, want %v", got.References(), want)
	}
	if want := []string{"isAdult"}; !reflect.DeepEqual(m.References(), want) {
		t.Errorf("receiver References() = %v, want %v", m.References(), want)
	}
	if expr, _ := got.Expression(); expr != "isGrownUp and (isGrownUp or name == 'A')" {
		t.Errorf("Expression() = %q", expr)
	}

	if _, err := m.RenameReference("isAdult", "is grown up", "X"); !errors.Is(err, types.ErrInvalidReference) {
		t.Errorf("RenameReference(bad name) error = %v, want ErrInvalidReference", err)
	}
}

func TestModel_Fields(t *testing.T) {
	inner, err := NewConditionGroup([]Item{
		ageAtLeast(t, "18", CoordinatorNone),
		nameIs(t, "B", CoordinatorOr),
	}, CoordinatorAnd)
	if err != nil {
		t.Fatal(err)
	}
	m := mustModel(t, nameIs(t, "A", CoordinatorNone), inner)

	var names []string
	for _, f := range m.Fields() {
		names = append(names, f.Name())
	}
	if want := []string{"name", "age"}; !reflect.DeepEqual(names, want) {
		t.Errorf("Fields() names = %v, want %v", names, want)
	}
}

func TestModel_Immutability(t *testing.T) {
	m := mustModel(t, nameIs(t, "A", CoordinatorNone), nameIs(t, "B", CoordinatorOr))
	snapshot := m.Clone()

	edits := []func(ConditionsModel) (ConditionsModel, error){
		func(m ConditionsModel) (ConditionsModel, error) { return m.AddCondition(nameIs(t, "C", CoordinatorAnd)) },
		func(m ConditionsModel) (ConditionsModel, error) { return m.RemoveCondition(0) },
		func(m ConditionsModel) (ConditionsModel, error) { return m.SetCoordinator(1, CoordinatorAnd) },
		func(m ConditionsModel) (ConditionsModel, error) { return m.MoveEarlier(1) },
		func(m ConditionsModel) (ConditionsModel, error) {
			r, _ := NewGroupRange(0, 1)
			return m.GroupConditions(r)
		},
	}
	for i, edit := range edits {
		if _, err := edit(m); err != nil {
			t.Fatalf("edit %d error = %v", i, err)
		}
		if diff := cmp.Diff(snapshot, m, modelCmpOpts...); diff != "" {
			t.Errorf("edit %d mutated receiver (-want +got):\n%s", i, diff)
		}
	}

	items := m.Items()
	items[0] = nameIs(t, "Z", CoordinatorNone)
	if diff := cmp.Diff(snapshot, m, modelCmpOpts...); diff != "" {
		t.Errorf("Items() aliases model state (-want +got):\n%s", diff)
	}
}

func TestModel_WithName(t *testing.T) {
	m := mustModel(t, nameIs(t, "A", CoordinatorNone))
	renamed := m.WithName("other")
	if renamed.Name() != "other" || m.Name() != "test" {
		t.Errorf("WithName() = %q, receiver = %q", renamed.Name(), m.Name())
	}
}

func TestModel_ExpressionErrorNamesItem(t *testing.T) {
	bad := mustCondition(t, mustField(t, "n", FieldKindNumberField, "N"), OpIs, mustExact(t, "lots", ""), CoordinatorAnd)
	m := mustModel(t, nameIs(t, "A", CoordinatorNone), bad)
	if _, err := m.Expression(); !errors.Is(err, types.ErrInvalidValue) {
		t.Errorf("Expression() error = %v, want ErrInvalidValue", err)
	}
}
