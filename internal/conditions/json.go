// internal/conditions/json.go
package conditions

import (
	"encoding/json"
	"fmt"

	"github.com/DEFRA/forms-designer-sub008/internal/types"
)

/*
 * JSON codec.
 *
 * Persisted shape (embedded in the form definition document):
 *
 *	{"name": "...", "conditions": [item, ...]}
 *
 * Items are told apart by shape, not by a tag:
 *   - group:     {"conditions": [...], "coordinator": "and"}
 *   - reference: {"conditionName": "...", "conditionDisplayName": "...", "coordinator": "or"}
 *   - predicate: {"field": {...}, "operator": "...", "value": {...}, "coordinator": "and"}
 *
 * Values carry a "type" tag and are decoded by ValueFromJSON. Decoding goes
 * through the validating constructors, so anything FromJSON returns obeys
 * the same invariants as a model built in code.
 */

type fieldJSON struct {
	Name    string    `json:"name"`
	Type    FieldKind `json:"type"`
	Display string    `json:"display"`
}

type conditionJSON struct {
	Field       fieldJSON       `json:"field"`
	Operator    OperatorName    `json:"operator"`
	Value       json.RawMessage `json:"value"`
	Coordinator Coordinator     `json:"coordinator,omitempty"`
}

type conditionRefJSON struct {
	ConditionName        string      `json:"conditionName"`
	ConditionDisplayName string      `json:"conditionDisplayName"`
	Coordinator          Coordinator `json:"coordinator,omitempty"`
}

type conditionGroupJSON struct {
	Conditions  []json.RawMessage `json:"conditions"`
	Coordinator Coordinator       `json:"coordinator,omitempty"`
}

type modelJSON struct {
	Name       string            `json:"name"`
	Conditions []json.RawMessage `json:"conditions"`
}

// MarshalJSON writes {"name","type","display"}.
func (f FieldDescriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(fieldJSON{Name: f.name, Type: f.kind, Display: f.display})
}

// UnmarshalJSON decodes and validates a descriptor.
func (f *FieldDescriptor) UnmarshalJSON(data []byte) error {
	var raw fieldJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidField, err)
	}
	fd, err := NewFieldDescriptor(raw.Name, raw.Type, raw.Display)
	if err != nil {
		return err
	}
	*f = fd
	return nil
}

func (c Condition) MarshalJSON() ([]byte, error) {
	value, err := json.Marshal(c.value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(conditionJSON{
		Field:       fieldJSON{Name: c.field.name, Type: c.field.kind, Display: c.field.display},
		Operator:    c.operator,
		Value:       value,
		Coordinator: c.coordinator,
	})
}

func (r ConditionRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(conditionRefJSON{
		ConditionName:        r.conditionName,
		ConditionDisplayName: r.conditionDisplayName,
		Coordinator:          r.coordinator,
	})
}

func (g ConditionGroup) MarshalJSON() ([]byte, error) {
	children, err := marshalItems(g.items)
	if err != nil {
		return nil, err
	}
	return json.Marshal(conditionGroupJSON{Conditions: children, Coordinator: g.coordinator})
}

// MarshalJSON writes {"name","conditions"}. An empty model writes an empty
// conditions array, never null.
func (m ConditionsModel) MarshalJSON() ([]byte, error) {
	children, err := marshalItems(m.items)
	if err != nil {
		return nil, err
	}
	return json.Marshal(modelJSON{Name: m.name, Conditions: children})
}

// UnmarshalJSON decodes data with FromJSON.
func (m *ConditionsModel) UnmarshalJSON(data []byte) error {
	model, err := FromJSON(data)
	if err != nil {
		return err
	}
	*m = model
	return nil
}

func marshalItems(items []Item) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

// FromJSON rebuilds a model, reconstructing the concrete variant of every
// item at every depth.
func FromJSON(data []byte) (ConditionsModel, error) {
	var raw modelJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return ConditionsModel{}, fmt.Errorf("%w: %v", types.ErrMalformedItem, err)
	}
	items, err := decodeItems(raw.Conditions, 0)
	if err != nil {
		return ConditionsModel{}, err
	}
	return NewConditionsModel(raw.Name, items...)
}

// ItemFromJSON rebuilds a single list item from its persisted shape.
func ItemFromJSON(data []byte) (Item, error) {
	return decodeItem(data, 0)
}

func decodeItems(raw []json.RawMessage, depth int) ([]Item, error) {
	items := make([]Item, 0, len(raw))
	for i, data := range raw {
		item, err := decodeItem(data, depth)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func decodeItem(data []byte, depth int) (Item, error) {
	if depth > types.MaxNestingDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", types.ErrMalformedItem, types.MaxNestingDepth)
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedItem, err)
	}

	switch {
	case keys["conditions"] != nil:
		var raw conditionGroupJSON
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrMalformedItem, err)
		}
		children, err := decodeItems(raw.Conditions, depth+1)
		if err != nil {
			return nil, err
		}
		return NewConditionGroup(children, raw.Coordinator)

	case keys["conditionName"] != nil:
		var raw conditionRefJSON
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrMalformedItem, err)
		}
		return NewConditionRef(raw.ConditionName, raw.ConditionDisplayName, raw.Coordinator)

	case keys["field"] != nil:
		var raw conditionJSON
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrMalformedItem, err)
		}
		field, err := NewFieldDescriptor(raw.Field.Name, raw.Field.Type, raw.Field.Display)
		if err != nil {
			return nil, err
		}
		value, err := ValueFromJSON(raw.Value)
		if err != nil {
			return nil, err
		}
		return NewCondition(field, raw.Operator, value, raw.Coordinator)

	default:
		return nil, fmt.Errorf("%w: expected a condition, reference or group", types.ErrMalformedItem)
	}
}
