// internal/conditions/value.go
package conditions

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/DEFRA/forms-designer-sub008/internal/types"
)

/*
 * Condition values.
 *
 * Value is a closed sum type: the interface is sealed by unexported methods,
 * so ExactValue and RelativeTimeValue are the only variants. Each variant
 * carries a type tag written into its JSON form so ValueFromJSON can rebuild
 * the right variant without external type hints.
 *
 * A variant is usable only when built by its constructor. Zero values (for
 * example a bare ExactValue{} literal from another package) are unregistered
 * and rejected wherever a Value is accepted.
 *
 * Variants:
 *   - ExactValue: literal comparison value with optional display label
 *   - RelativeTimeValue: "N units in the past/future", used for age checks
 */

// ValueType is the discriminator tag persisted with every value.
type ValueType string

const (
	ValueTypeExact        ValueType = "Value"
	ValueTypeRelativeDate ValueType = "RelativeDate"
)

// Value is the right-hand operand of a predicate.
type Value interface {
	// Type returns the discriminator tag.
	Type() ValueType
	// PresentationString renders the value for people, e.g. "18 years in the past".
	PresentationString() string
	// Expression renders the fragment embedded in compiled expressions.
	Expression() string
	// Clone returns a type-preserving deep copy.
	Clone() Value

	registered() bool
}

// ExactValue is a literal comparison value.
type ExactValue struct {
	raw     string
	display string
}

// NewExactValue builds a literal value. display may be empty, in which case
// the raw value is presented.
func NewExactValue(raw, display string) (ExactValue, error) {
	if raw == "" {
		return ExactValue{}, fmt.Errorf("%w: value is required", types.ErrInvalidValue)
	}
	return ExactValue{raw: raw, display: display}, nil
}

func (v ExactValue) Type() ValueType { return ValueTypeExact }
func (v ExactValue) Raw() string     { return v.raw }
func (v ExactValue) Display() string { return v.display }

func (v ExactValue) PresentationString() string {
	if v.display != "" {
		return v.display
	}
	return v.raw
}

func (v ExactValue) Expression() string { return v.raw }

func (v ExactValue) Clone() Value { return v }

func (v ExactValue) registered() bool { return v.raw != "" }

// MarshalJSON writes {"type":"Value","value":...,"display":...}.
func (v ExactValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(exactValueJSON{Type: ValueTypeExact, Value: v.raw, Display: v.display})
}

type exactValueJSON struct {
	Type    ValueType `json:"type"`
	Value   string    `json:"value"`
	Display string    `json:"display,omitempty"`
}

// Direction says whether a relative time lies before or after now.
type Direction string

const (
	DirectionFuture Direction = "future"
	DirectionPast   Direction = "past"
)

// ParseDirection validates a persisted direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionFuture, DirectionPast:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("%w: unknown direction %q", types.ErrInvalidValue, s)
	}
}

func (d Direction) presentation() string {
	if d == DirectionPast {
		return "in the past"
	}
	return "in the future"
}

// TimeUnit is the unit of a relative time offset.
type TimeUnit string

const (
	TimeUnitDays   TimeUnit = "days"
	TimeUnitMonths TimeUnit = "months"
	TimeUnitYears  TimeUnit = "years"
)

// DateUnits is the unit vocabulary offered for relative date operators.
var DateUnits = []TimeUnit{TimeUnitDays, TimeUnitMonths, TimeUnitYears}

// ParseTimeUnit validates a persisted unit against DateUnits.
func ParseTimeUnit(s string) (TimeUnit, error) {
	for _, u := range DateUnits {
		if string(u) == s {
			return u, nil
		}
	}
	return "", fmt.Errorf("%w: unknown time unit %q", types.ErrInvalidValue, s)
}

// RelativeTimeValue is an offset from the evaluation date.
type RelativeTimeValue struct {
	period    int
	unit      TimeUnit
	direction Direction
}

// NewRelativeTimeValue builds an offset of period units in direction.
// period must be non-negative; the direction carries the sign.
func NewRelativeTimeValue(period int, unit TimeUnit, direction Direction) (RelativeTimeValue, error) {
	if period < 0 {
		return RelativeTimeValue{}, fmt.Errorf("%w: period must not be negative, got %d", types.ErrInvalidValue, period)
	}
	if _, err := ParseTimeUnit(string(unit)); err != nil {
		return RelativeTimeValue{}, err
	}
	if _, err := ParseDirection(string(direction)); err != nil {
		return RelativeTimeValue{}, err
	}
	return RelativeTimeValue{period: period, unit: unit, direction: direction}, nil
}

func (v RelativeTimeValue) Type() ValueType      { return ValueTypeRelativeDate }
func (v RelativeTimeValue) Period() int          { return v.period }
func (v RelativeTimeValue) Unit() TimeUnit       { return v.unit }
func (v RelativeTimeValue) Direction() Direction { return v.direction }

func (v RelativeTimeValue) PresentationString() string {
	return fmt.Sprintf("%d %s %s", v.period, v.unit, v.direction.presentation())
}

// Expression renders dateForComparison(<signed period>, '<unit>').
// Past offsets are negative.
func (v RelativeTimeValue) Expression() string {
	period := v.period
	if v.direction == DirectionPast {
		period = -period
	}
	return "dateForComparison(" + strconv.Itoa(period) + ", '" + string(v.unit) + "')"
}

func (v RelativeTimeValue) Clone() Value { return v }

func (v RelativeTimeValue) registered() bool {
	return v.unit != "" && v.direction != ""
}

// MarshalJSON writes {"type":"RelativeDate","period":..,"unit":..,"direction":..}.
func (v RelativeTimeValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(relativeTimeValueJSON{
		Type:      ValueTypeRelativeDate,
		Period:    v.period,
		Unit:      v.unit,
		Direction: v.direction,
	})
}

type relativeTimeValueJSON struct {
	Type      ValueType `json:"type"`
	Period    int       `json:"period"`
	Unit      TimeUnit  `json:"unit"`
	Direction Direction `json:"direction"`
}

// ValueFromJSON rebuilds a Value from its tagged JSON form.
// Fails with ErrUnknownValueType for a missing or unrecognised tag.
func ValueFromJSON(data []byte) (Value, error) {
	var head struct {
		Type ValueType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidValue, err)
	}

	switch head.Type {
	case ValueTypeExact:
		var raw exactValueJSON
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrInvalidValue, err)
		}
		return NewExactValue(raw.Value, raw.Display)
	case ValueTypeRelativeDate:
		var raw relativeTimeValueJSON
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrInvalidValue, err)
		}
		return NewRelativeTimeValue(raw.Period, raw.Unit, raw.Direction)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownValueType, head.Type)
	}
}

// checkValue normalises v to a registered variant held by value.
// Pointer variants are dereferenced; nil and zero values are rejected.
func checkValue(v Value) (Value, error) {
	switch x := v.(type) {
	case ExactValue:
		if x.registered() {
			return x, nil
		}
	case RelativeTimeValue:
		if x.registered() {
			return x, nil
		}
	case *ExactValue:
		if x != nil && x.registered() {
			return *x, nil
		}
	case *RelativeTimeValue:
		if x != nil && x.registered() {
			return *x, nil
		}
	}
	return nil, fmt.Errorf("%w: %T", types.ErrUnregisteredValue, v)
}
