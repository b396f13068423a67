// Package types provides identifiers and sentinel errors shared across the
// conditions core, the store and the service layer.
//
// Zero-dependency design: errors.go uses only the standard library so the
// core can be embedded without pulling storage or transport deps. ID
// utilities in ids.go import uuid and are only used by the store.
package types

// ConditionID represents a UUIDv7 identifier of a stored named condition.
// String alias enables type safety while keeping JSON string serialization.
type ConditionID string

// Limits enforced when decoding persisted condition trees.
const (
	// MaxNestingDepth bounds group nesting on decode. Editors produce at most
	// two levels; the bound keeps hostile imports from exhausting the stack.
	MaxNestingDepth = 32

	// MaxNameLength limits stored condition names.
	MaxNameLength = 128
)
