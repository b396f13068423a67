package conditions

import (
	"errors"
	"testing"

	"github.com/DEFRA/forms-designer-sub008/internal/types"
)

func TestNewFieldDescriptor(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		kind    FieldKind
		display string
		wantErr error
	}{
		{name: "text field", field: "firstName", kind: FieldKindTextField, display: "First name"},
		{name: "dotted name", field: "applicant.dob", kind: FieldKindDatePartsField, display: "Date of birth"},
		{name: "checkboxes", field: "pets", kind: FieldKindCheckboxesField, display: "Pets"},
		{name: "empty name", field: "", kind: FieldKindTextField, display: "X", wantErr: types.ErrInvalidField},
		{name: "name with space", field: "first name", kind: FieldKindTextField, display: "X", wantErr: types.ErrInvalidField},
		{name: "reserved name", field: "and", kind: FieldKindTextField, display: "X", wantErr: types.ErrInvalidField},
		{name: "empty display", field: "x", kind: FieldKindTextField, display: "", wantErr: types.ErrInvalidField},
		{name: "content kind html", field: "intro", kind: FieldKindHTML, display: "Intro", wantErr: types.ErrInvalidField},
		{name: "content kind inset text", field: "note", kind: FieldKindInsetText, display: "Note", wantErr: types.ErrInvalidField},
		{name: "file upload", field: "doc", kind: FieldKindFileUploadField, display: "Doc", wantErr: types.ErrInvalidField},
		{name: "unknown kind", field: "x", kind: FieldKind("Slider"), display: "X", wantErr: types.ErrInvalidField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFieldDescriptor(tt.field, tt.kind, tt.display)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NewFieldDescriptor() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewFieldDescriptor() error = %v, want nil", err)
			}
			if f.Name() != tt.field || f.Kind() != tt.kind || f.Display() != tt.display {
				t.Errorf("NewFieldDescriptor() = %+v, want {%s %s %s}", f, tt.field, tt.kind, tt.display)
			}
			if f.Clone() != f {
				t.Errorf("Clone() = %+v, want %+v", f.Clone(), f)
			}
		})
	}
}

func TestFieldKind_ContentNeverConditionable(t *testing.T) {
	for _, k := range allFieldKinds {
		if k.IsContent() && k.IsConditionable() {
			t.Errorf("%s is content-only but conditionable", k)
		}
	}
}

func TestConditionableFieldKinds(t *testing.T) {
	kinds := ConditionableFieldKinds()
	if len(kinds) != len(operatorTable) {
		t.Fatalf("len(ConditionableFieldKinds()) = %d, want %d", len(kinds), len(operatorTable))
	}
	for _, k := range kinds {
		if len(OperatorNames(k)) == 0 {
			t.Errorf("OperatorNames(%s) is empty", k)
		}
	}
}

func TestParseFieldKind(t *testing.T) {
	k, err := ParseFieldKind("YesNoField")
	if err != nil || k != FieldKindYesNoField {
		t.Errorf("ParseFieldKind(YesNoField) = %v, %v, want YesNoField, nil", k, err)
	}
	if _, err := ParseFieldKind("yesno"); !errors.Is(err, types.ErrInvalidField) {
		t.Errorf("ParseFieldKind(yesno) error = %v, want ErrInvalidField", err)
	}
}

func TestParseCoordinator(t *testing.T) {
	for _, s := range []string{"", "and", "or"} {
		if _, err := ParseCoordinator(s); err != nil {
			t.Errorf("ParseCoordinator(%q) error = %v, want nil", s, err)
		}
	}
	for _, s := range []string{"AND", "xor", " and"} {
		if _, err := ParseCoordinator(s); !errors.Is(err, types.ErrInvalidCoordinator) {
			t.Errorf("ParseCoordinator(%q) error = %v, want ErrInvalidCoordinator", s, err)
		}
	}
}
