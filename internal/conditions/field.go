// internal/conditions/field.go
package conditions

import (
	"fmt"

	"github.com/DEFRA/forms-designer-sub008/internal/types"
)

/*
 * Field kinds and field descriptors.
 *
 * FieldKind enumerates the form component kinds a form definition can hold.
 * Only a subset is conditionable: content kinds render text and collect
 * nothing, and file/address kinds collect values with no comparison the
 * operator table can express.
 *
 * FieldDescriptor is the value a predicate carries to identify the field it
 * examines. It is validated on construction and never mutated.
 */

// FieldKind identifies the component type of a form field.
type FieldKind string

const (
	FieldKindTextField            FieldKind = "TextField"
	FieldKindMultilineTextField   FieldKind = "MultilineTextField"
	FieldKindEmailAddressField    FieldKind = "EmailAddressField"
	FieldKindTelephoneNumberField FieldKind = "TelephoneNumberField"
	FieldKindNumberField          FieldKind = "NumberField"
	FieldKindYesNoField           FieldKind = "YesNoField"
	FieldKindDatePartsField       FieldKind = "DatePartsField"
	FieldKindSelectField          FieldKind = "SelectField"
	FieldKindRadiosField          FieldKind = "RadiosField"
	FieldKindAutocompleteField    FieldKind = "AutocompleteField"
	FieldKindCheckboxesField      FieldKind = "CheckboxesField"
	FieldKindFileUploadField      FieldKind = "FileUploadField"
	FieldKindUkAddressField       FieldKind = "UkAddressField"

	// Content-only kinds.
	FieldKindHTML      FieldKind = "Html"
	FieldKindInsetText FieldKind = "InsetText"
	FieldKindDetails   FieldKind = "Details"
	FieldKindList      FieldKind = "List"
	FieldKindMarkdown  FieldKind = "Markdown"
)

// allFieldKinds lists every known kind in declaration order.
var allFieldKinds = []FieldKind{
	FieldKindTextField,
	FieldKindMultilineTextField,
	FieldKindEmailAddressField,
	FieldKindTelephoneNumberField,
	FieldKindNumberField,
	FieldKindYesNoField,
	FieldKindDatePartsField,
	FieldKindSelectField,
	FieldKindRadiosField,
	FieldKindAutocompleteField,
	FieldKindCheckboxesField,
	FieldKindFileUploadField,
	FieldKindUkAddressField,
	FieldKindHTML,
	FieldKindInsetText,
	FieldKindDetails,
	FieldKindList,
	FieldKindMarkdown,
}

// ParseFieldKind converts a persisted kind name to a FieldKind.
// Unknown names fail with ErrInvalidField.
func ParseFieldKind(s string) (FieldKind, error) {
	for _, k := range allFieldKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown field type %q", types.ErrInvalidField, s)
}

// IsContent reports whether the kind only displays content.
func (k FieldKind) IsContent() bool {
	switch k {
	case FieldKindHTML, FieldKindInsetText, FieldKindDetails, FieldKindList, FieldKindMarkdown:
		return true
	default:
		return false
	}
}

// IsConditionable reports whether predicates may examine fields of this kind.
// A kind is conditionable exactly when the operator table has entries for it.
func (k FieldKind) IsConditionable() bool {
	_, ok := operatorTable[k]
	return ok
}

// ConditionableFieldKinds returns the kinds that support conditions.
func ConditionableFieldKinds() []FieldKind {
	var kinds []FieldKind
	for _, k := range allFieldKinds {
		if k.IsConditionable() {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// FieldDescriptor identifies the form field a predicate examines.
type FieldDescriptor struct {
	name    string
	kind    FieldKind
	display string
}

// NewFieldDescriptor validates and builds a descriptor.
// Fails with ErrInvalidField for an empty or non-identifier name, an empty
// display, or a kind that does not support conditions (including
// content-only kinds). The name is embedded verbatim in expressions.
func NewFieldDescriptor(name string, kind FieldKind, display string) (FieldDescriptor, error) {
	if name == "" {
		return FieldDescriptor{}, fmt.Errorf("%w: name is required", types.ErrInvalidField)
	}
	if !isExpressionName(name) {
		return FieldDescriptor{}, fmt.Errorf("%w: name %q is not a valid identifier", types.ErrInvalidField, name)
	}
	if !kind.IsConditionable() {
		return FieldDescriptor{}, fmt.Errorf("%w: field type %q does not support conditions", types.ErrInvalidField, kind)
	}
	if display == "" {
		return FieldDescriptor{}, fmt.Errorf("%w: display is required", types.ErrInvalidField)
	}
	return FieldDescriptor{name: name, kind: kind, display: display}, nil
}

func (f FieldDescriptor) Name() string    { return f.name }
func (f FieldDescriptor) Kind() FieldKind { return f.kind }
func (f FieldDescriptor) Display() string { return f.display }

// Clone returns an independent copy. FieldDescriptor holds only strings, so
// the copy is the value itself; Clone exists for symmetry with the items.
func (f FieldDescriptor) Clone() FieldDescriptor {
	return f
}

// valid reports whether f was produced by NewFieldDescriptor.
func (f FieldDescriptor) valid() bool {
	return f.name != "" && f.display != "" && f.kind.IsConditionable()
}
