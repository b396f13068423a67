package types

import "errors"

// Sentinel errors for conditions model operations.
// Callers wrap these with context via fmt.Errorf("%w: ...") and test with errors.Is.
var (
	// ErrInvalidCoordinator indicates a coordinator outside {and, or}.
	ErrInvalidCoordinator = errors.New("invalid coordinator")

	// ErrInvalidField indicates a malformed field descriptor or a field kind
	// that does not support conditions.
	ErrInvalidField = errors.New("invalid condition field")

	// ErrInvalidValue indicates a value unusable for the requested comparison.
	ErrInvalidValue = errors.New("invalid condition value")

	// ErrUnknownValueType indicates a value payload with an unrecognised type tag.
	ErrUnknownValueType = errors.New("unknown condition value type")

	// ErrUnregisteredValue indicates a value that was not produced by its
	// variant's constructor (zero value or nil).
	ErrUnregisteredValue = errors.New("value type is not registered")

	// ErrInvalidGroupRange indicates first >= last or a negative bound.
	ErrInvalidGroupRange = errors.New("invalid group range")

	// ErrGroupOutOfBounds indicates a group range beyond the end of the list.
	ErrGroupOutOfBounds = errors.New("group range out of bounds")

	// ErrInvalidGroup indicates a group with fewer than two children.
	ErrInvalidGroup = errors.New("group must contain at least two items")

	// ErrNotAGroup indicates an ungroup request for a non-group item.
	ErrNotAGroup = errors.New("item is not a group")

	// ErrIndexOutOfRange indicates a list position outside the list.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrMissingCoordinator indicates a non-first item without a coordinator.
	ErrMissingCoordinator = errors.New("coordinator required for non-first item")

	// ErrCoordinatorInvariant indicates a list whose first item has a
	// coordinator or whose later items lack one. Never expected after a
	// successful edit; reported rather than repaired silently.
	ErrCoordinatorInvariant = errors.New("coordinator invariant violated")

	// ErrUnsupportedOperator indicates an operator not legal for a field kind.
	ErrUnsupportedOperator = errors.New("operator not supported for field type")

	// ErrInvalidReference indicates a condition reference without names.
	ErrInvalidReference = errors.New("invalid condition reference")

	// ErrMalformedItem indicates a persisted list item matching no known shape.
	ErrMalformedItem = errors.New("malformed condition item")

	// ErrMalformedExpression indicates a compiled expression the evaluator
	// grammar rejects.
	ErrMalformedExpression = errors.New("malformed condition expression")
)

// Storage and registry errors.
var (
	// ErrConditionNotFound indicates no stored condition has the given name.
	ErrConditionNotFound = errors.New("condition not found")

	// ErrDuplicateConditionName indicates a stored condition already uses the name.
	ErrDuplicateConditionName = errors.New("condition name already in use")

	// ErrFieldNotRegistered indicates a field missing from the form registry,
	// or registered with a different kind.
	ErrFieldNotRegistered = errors.New("field not registered")

	// ErrUnknownConditionRef indicates a reference to a condition that is not stored.
	ErrUnknownConditionRef = errors.New("reference to unknown condition")

	// ErrConditionInUse indicates a delete of a condition other stored
	// conditions still reference.
	ErrConditionInUse = errors.New("condition is referenced by other conditions")
)
