package conditions

import (
	"errors"
	"testing"

	"github.com/DEFRA/forms-designer-sub008/internal/types"
)

func TestNewGroupRange(t *testing.T) {
	tests := []struct {
		first, last int
		wantErr     bool
	}{
		{first: 0, last: 1},
		{first: 5, last: 6},
		{first: 2, last: 9},
		{first: 5, last: 5, wantErr: true},
		{first: 6, last: 5, wantErr: true},
		{first: -1, last: 2, wantErr: true},
	}

	for _, tt := range tests {
		r, err := NewGroupRange(tt.first, tt.last)
		if tt.wantErr {
			if !errors.Is(err, types.ErrInvalidGroupRange) {
				t.Errorf("NewGroupRange(%d, %d) error = %v, want ErrInvalidGroupRange", tt.first, tt.last, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("NewGroupRange(%d, %d) error = %v, want nil", tt.first, tt.last, err)
			continue
		}
		if r.First() != tt.first || r.Last() != tt.last || r.Len() != tt.last-tt.first+1 {
			t.Errorf("NewGroupRange(%d, %d) = %+v", tt.first, tt.last, r)
		}
	}
}

func TestGroupRange_Membership(t *testing.T) {
	r, err := NewGroupRange(2, 4)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []bool{false, false, true, true, true, false} {
		if got := r.Contains(i); got != want {
			t.Errorf("Contains(%d) = %v, want %v", i, got, want)
		}
	}
	if !r.StartsWith(2) || r.StartsWith(3) {
		t.Errorf("StartsWith() wrong for range %+v", r)
	}
}

func TestGroupRange_ApplyToCopies(t *testing.T) {
	items := []Item{
		nameIs(t, "A", CoordinatorNone),
		nameIs(t, "B", CoordinatorAnd),
		nameIs(t, "C", CoordinatorOr),
	}
	r, _ := NewGroupRange(1, 2)
	got := r.ApplyTo(items)
	if len(got) != 2 {
		t.Fatalf("len(ApplyTo()) = %d, want 2", len(got))
	}
	got[0] = nameIs(t, "Z", CoordinatorAnd)
	if items[1].(Condition).value.(ExactValue).raw != "B" {
		t.Errorf("ApplyTo() result aliases the input")
	}
}

func TestNewConditionGroup(t *testing.T) {
	a := nameIs(t, "A", CoordinatorOr)
	b := nameIs(t, "B", CoordinatorAnd)

	g, err := NewConditionGroup([]Item{a, b}, CoordinatorOr)
	if err != nil {
		t.Fatalf("NewConditionGroup() error = %v", err)
	}
	children := g.GroupedConditions()
	if !children[0].Coordinator().IsNone() {
		t.Errorf("first child coordinator = %q, want none", children[0].Coordinator())
	}
	if g.Coordinator() != CoordinatorOr || g.Len() != 2 || !g.IsGroup() {
		t.Errorf("group = %+v", g)
	}

	if got, want := g.ConditionString(), "('Name' is 'A' and 'Name' is 'B')"; got != want {
		t.Errorf("ConditionString() = %q, want %q", got, want)
	}
	if got, _ := g.ConditionExpression(); got != "(name == 'A' and name == 'B')" {
		t.Errorf("ConditionExpression() = %q", got)
	}

	if _, err := NewConditionGroup([]Item{a}, CoordinatorNone); !errors.Is(err, types.ErrInvalidGroup) {
		t.Errorf("NewConditionGroup(1 item) error = %v, want ErrInvalidGroup", err)
	}
	if _, err := NewConditionGroup([]Item{a, b.AsFirstCondition()}, CoordinatorNone); !errors.Is(err, types.ErrMissingCoordinator) {
		t.Errorf("NewConditionGroup(missing coordinator) error = %v, want ErrMissingCoordinator", err)
	}
	if _, err := NewConditionGroup([]Item{a, nil}, CoordinatorNone); !errors.Is(err, types.ErrMalformedItem) {
		t.Errorf("NewConditionGroup(nil item) error = %v, want ErrMalformedItem", err)
	}
}

func TestConditionGroup_Nested(t *testing.T) {
	inner, err := NewConditionGroup([]Item{
		nameIs(t, "A", CoordinatorNone),
		nameIs(t, "B", CoordinatorOr),
	}, CoordinatorAnd)
	if err != nil {
		t.Fatal(err)
	}
	outer, err := NewConditionGroup([]Item{
		ageAtLeast(t, "18", CoordinatorNone),
		inner,
	}, CoordinatorNone)
	if err != nil {
		t.Fatal(err)
	}

	want := "('Age' is at least '18' and ('Name' is 'A' or 'Name' is 'B'))"
	if got := outer.ConditionString(); got != want {
		t.Errorf("ConditionString() = %q, want %q", got, want)
	}
	wantExpr := "(age >= 18 and (name == 'A' or name == 'B'))"
	if got, _ := outer.ConditionExpression(); got != wantExpr {
		t.Errorf("ConditionExpression() = %q, want %q", got, wantExpr)
	}
}
