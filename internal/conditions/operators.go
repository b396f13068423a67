// internal/conditions/operators.go
package conditions

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/DEFRA/forms-designer-sub008/internal/types"
)

/*
 * Operator table.
 *
 * Single source of truth for which comparisons exist. Keyed by field kind,
 * each entry is an ordered list of operator definitions; the order is the
 * order the editor offers them in. A definition renders the expression
 * fragment for (field name, value).
 *
 * Fragment grammar (consumed by the external evaluator, expr-lang syntax):
 *   - equality:        name == 'raw' | name != 'raw'
 *   - text contains:   name contains 'raw' | not (name contains 'raw')
 *   - length:          length(name) > n | < n | == n
 *   - numeric compare: name >= n | <= n | < n | > n
 *   - absolute date:   name < 'YYYY-MM-DD' | > | == | !=
 *   - relative date:   name <= dateForComparison(-18, 'years')
 *   - checkboxes:      'raw' in name | not ('raw' in name)
 *
 * Strings are single-quoted with backslash escapes. Numbers and yes/no
 * values are unquoted and must parse, otherwise the fragment could not be
 * well-formed.
 *
 * Relative date operators pick the comparison from the value's direction:
 * "is at least 18 years in the past" means the date lies on or before the
 * date 18 years ago, while "is at least 3 days in the future" means on or
 * after the date 3 days ahead.
 */

// OperatorName is the operator text shown to authors and persisted.
type OperatorName string

const (
	OpIs             OperatorName = "is"
	OpIsNot          OperatorName = "is not"
	OpContains       OperatorName = "contains"
	OpDoesNotContain OperatorName = "does not contain"
	OpIsLongerThan   OperatorName = "is longer than"
	OpIsShorterThan  OperatorName = "is shorter than"
	OpHasLength      OperatorName = "has length"
	OpIsAtLeast      OperatorName = "is at least"
	OpIsAtMost       OperatorName = "is at most"
	OpIsLessThan     OperatorName = "is less than"
	OpIsMoreThan     OperatorName = "is more than"
	OpIsBefore       OperatorName = "is before"
	OpIsAfter        OperatorName = "is after"
)

// fragmentFunc renders an expression fragment for a field of the given kind.
type fragmentFunc func(kind FieldKind, name string, v Value) (string, error)

type operatorDef struct {
	name     OperatorName
	relative bool // operand is a RelativeTimeValue using DateUnits
	fragment fragmentFunc
}

var textOperators = []operatorDef{
	{name: OpIs, fragment: inline("==")},
	{name: OpIsNot, fragment: inline("!=")},
	{name: OpContains, fragment: inline("contains")},
	{name: OpDoesNotContain, fragment: not(inline("contains"))},
	{name: OpIsLongerThan, fragment: lengthIs(">")},
	{name: OpIsShorterThan, fragment: lengthIs("<")},
	{name: OpHasLength, fragment: lengthIs("==")},
}

var equalityOperators = []operatorDef{
	{name: OpIs, fragment: inline("==")},
	{name: OpIsNot, fragment: inline("!=")},
}

var operatorTable = map[FieldKind][]operatorDef{
	FieldKindTextField:            textOperators,
	FieldKindMultilineTextField:   textOperators,
	FieldKindEmailAddressField:    textOperators,
	FieldKindTelephoneNumberField: textOperators,
	FieldKindNumberField: {
		{name: OpIs, fragment: inline("==")},
		{name: OpIsNot, fragment: inline("!=")},
		{name: OpIsAtLeast, fragment: inline(">=")},
		{name: OpIsAtMost, fragment: inline("<=")},
		{name: OpIsLessThan, fragment: inline("<")},
		{name: OpIsMoreThan, fragment: inline(">")},
	},
	FieldKindDatePartsField: {
		{name: OpIs, fragment: absoluteDate("==")},
		{name: OpIsNot, fragment: absoluteDate("!=")},
		{name: OpIsBefore, fragment: absoluteDate("<")},
		{name: OpIsAfter, fragment: absoluteDate(">")},
		{name: OpIsAtLeast, relative: true, fragment: relativeDate("<=", ">=")},
		{name: OpIsAtMost, relative: true, fragment: relativeDate(">=", "<=")},
		{name: OpIsLessThan, relative: true, fragment: relativeDate(">", "<")},
		{name: OpIsMoreThan, relative: true, fragment: relativeDate("<", ">")},
	},
	FieldKindYesNoField:        equalityOperators,
	FieldKindSelectField:       equalityOperators,
	FieldKindRadiosField:       equalityOperators,
	FieldKindAutocompleteField: equalityOperators,
	FieldKindCheckboxesField: {
		{name: OpContains, fragment: reverseInline("in")},
		{name: OpDoesNotContain, fragment: not(reverseInline("in"))},
	},
}

// OperatorNames returns the operators legal for kind, in editor order.
// Returns nil for kinds that do not support conditions.
func OperatorNames(kind FieldKind) []OperatorName {
	defs := operatorTable[kind]
	if len(defs) == 0 {
		return nil
	}
	names := make([]OperatorName, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.name)
	}
	return names
}

// IsOperatorSupported reports whether op is legal for kind.
func IsOperatorSupported(kind FieldKind, op OperatorName) bool {
	_, ok := lookupOperator(kind, op)
	return ok
}

// IsRelativeOperator reports whether op on kind takes a RelativeTimeValue.
func IsRelativeOperator(kind FieldKind, op OperatorName) bool {
	def, ok := lookupOperator(kind, op)
	return ok && def.relative
}

// OperatorUnits returns the unit vocabulary for a relative date operator,
// or nil when the operator takes an absolute value.
func OperatorUnits(kind FieldKind, op OperatorName) []TimeUnit {
	if !IsRelativeOperator(kind, op) {
		return nil
	}
	units := make([]TimeUnit, len(DateUnits))
	copy(units, DateUnits)
	return units
}

// Expression renders the fragment for field name of kind compared by op to v.
// Fails with ErrUnsupportedOperator when op is not legal for kind, and with
// ErrInvalidValue when v cannot be used with op.
func Expression(kind FieldKind, name string, op OperatorName, v Value) (string, error) {
	def, ok := lookupOperator(kind, op)
	if !ok {
		return "", fmt.Errorf("%w: %q for %s", types.ErrUnsupportedOperator, op, kind)
	}
	v, err := checkValue(v)
	if err != nil {
		return "", err
	}
	return def.fragment(kind, name, v)
}

func lookupOperator(kind FieldKind, op OperatorName) (operatorDef, bool) {
	for _, d := range operatorTable[kind] {
		if d.name == op {
			return d, true
		}
	}
	return operatorDef{}, false
}

// inline renders "name <op> <value>".
func inline(op string) fragmentFunc {
	return func(kind FieldKind, name string, v Value) (string, error) {
		value, err := formatValue(kind, v)
		if err != nil {
			return "", err
		}
		return name + " " + op + " " + value, nil
	}
}

// reverseInline renders "<value> <op> name".
func reverseInline(op string) fragmentFunc {
	return func(kind FieldKind, name string, v Value) (string, error) {
		value, err := formatValue(kind, v)
		if err != nil {
			return "", err
		}
		return value + " " + op + " " + name, nil
	}
}

// not negates another fragment.
func not(inner fragmentFunc) fragmentFunc {
	return func(kind FieldKind, name string, v Value) (string, error) {
		fragment, err := inner(kind, name, v)
		if err != nil {
			return "", err
		}
		return "not (" + fragment + ")", nil
	}
}

// lengthIs renders "length(name) <op> n" for a non-negative integer n.
func lengthIs(op string) fragmentFunc {
	return func(kind FieldKind, name string, v Value) (string, error) {
		exact, err := exactOperand(v)
		if err != nil {
			return "", err
		}
		n, err := strconv.Atoi(strings.TrimSpace(exact.raw))
		if err != nil || n < 0 {
			return "", fmt.Errorf("%w: length must be a non-negative integer, got %q", types.ErrInvalidValue, exact.raw)
		}
		return "length(" + name + ") " + op + " " + strconv.Itoa(n), nil
	}
}

// absoluteDate renders "name <op> 'YYYY-MM-DD'".
func absoluteDate(op string) fragmentFunc {
	return func(kind FieldKind, name string, v Value) (string, error) {
		exact, err := exactOperand(v)
		if err != nil {
			return "", err
		}
		raw := strings.TrimSpace(exact.raw)
		if _, err := time.Parse(time.DateOnly, raw); err != nil {
			return "", fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", types.ErrInvalidValue, exact.raw)
		}
		return name + " " + op + " " + quote(raw), nil
	}
}

// relativeDate renders "name <op> dateForComparison(...)", choosing pastOp
// or futureOp from the value's direction.
func relativeDate(pastOp, futureOp string) fragmentFunc {
	return func(kind FieldKind, name string, v Value) (string, error) {
		rel, ok := v.(RelativeTimeValue)
		if !ok {
			return "", fmt.Errorf("%w: relative date operator requires a %s value, got %s", types.ErrInvalidValue, ValueTypeRelativeDate, v.Type())
		}
		op := futureOp
		if rel.direction == DirectionPast {
			op = pastOp
		}
		return name + " " + op + " " + rel.Expression(), nil
	}
}

// formatValue renders an exact operand for kind: numbers and booleans bare,
// everything else quoted.
func formatValue(kind FieldKind, v Value) (string, error) {
	exact, err := exactOperand(v)
	if err != nil {
		return "", err
	}
	raw := exact.Expression()

	switch kind {
	case FieldKindNumberField:
		return formatNumber(raw)
	case FieldKindYesNoField:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return "", fmt.Errorf("%w: %q is not true or false", types.ErrInvalidValue, raw)
		}
		return strconv.FormatBool(b), nil
	default:
		return quote(raw), nil
	}
}

// decimalLiteral matches number literals the evaluator parses verbatim.
var decimalLiteral = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// formatNumber keeps the author's literal so the expression compares
// against exactly the number the presentation shows. Integers must fit in
// int64 and decimals must be finite.
func formatNumber(raw string) (string, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "+")
	switch {
	case strings.HasPrefix(s, "."):
		s = "0" + s
	case strings.HasPrefix(s, "-."):
		s = "-0" + s[1:]
	}
	s = strings.TrimSuffix(s, ".")
	if !decimalLiteral.MatchString(s) {
		return "", fmt.Errorf("%w: %q is not a number", types.ErrInvalidValue, raw)
	}

	if !strings.ContainsAny(s, ".eE") {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return "", fmt.Errorf("%w: %q is out of range", types.ErrInvalidValue, raw)
		}
		return strconv.FormatInt(n, 10), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: %q is out of range", types.ErrInvalidValue, raw)
	}
	return s, nil
}

func exactOperand(v Value) (ExactValue, error) {
	exact, ok := v.(ExactValue)
	if !ok {
		return ExactValue{}, fmt.Errorf("%w: operator requires a %s value, got %s", types.ErrInvalidValue, ValueTypeExact, v.Type())
	}
	return exact, nil
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

// quote renders s as a single-quoted string literal.
func quote(s string) string {
	return "'" + quoteReplacer.Replace(s) + "'"
}
