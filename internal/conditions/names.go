package conditions

import (
	"regexp"
	"strings"
	"time"

	"github.com/expr-lang/expr/builtin"
)

// identifierPath matches names usable verbatim in compiled expressions:
// identifiers optionally joined by dots (member access).
var identifierPath = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// reservedWords cannot start a field or condition name: evaluator keywords,
// the evaluator's builtin functions and the helpers in HelperEnv. Any of
// them would resolve to something other than the field's value.
var reservedWords = func() map[string]bool {
	words := map[string]bool{
		"and": true, "or": true, "not": true, "in": true, "contains": true,
		"matches": true, "startsWith": true, "endsWith": true,
		"true": true, "false": true, "nil": true, "let": true,
		"if": true, "else": true, "$env": true,
	}
	for _, name := range builtin.Names {
		words[name] = true
	}
	for name := range HelperEnv(time.Time{}) {
		words[name] = true
	}
	return words
}()

func isExpressionName(s string) bool {
	if !identifierPath.MatchString(s) {
		return false
	}
	root, _, _ := strings.Cut(s, ".")
	return !reservedWords[root]
}
