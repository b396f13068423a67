package conditions

import (
	"fmt"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/DEFRA/forms-designer-sub008/internal/types"
)

// DefaultCacheSize bounds the programs a Checker built by NewChecker keeps.
const DefaultCacheSize = 1024

// Checker verifies that compiled expressions are accepted by the evaluator's
// grammar (expr-lang) and yield a boolean. Field names are left unbound; the
// helper functions expressions call are declared with their real
// signatures. Compiled programs are cached by expression text, oldest
// evicted first once the cache is full, and the cache is safe for
// concurrent use.
type Checker struct {
	cache map[string]*vm.Program
	order []string
	limit int
	mu    sync.RWMutex
}

// NewChecker creates a checker caching up to DefaultCacheSize programs.
func NewChecker() *Checker {
	return NewCheckerWithCacheSize(DefaultCacheSize)
}

// NewCheckerWithCacheSize creates a checker caching up to limit programs.
// A limit below one disables caching.
func NewCheckerWithCacheSize(limit int) *Checker {
	return &Checker{cache: make(map[string]*vm.Program), limit: limit}
}

// HelperEnv returns the functions compiled expressions may call, evaluated
// relative to now. Callers that run expressions merge their field values
// into the returned map.
func HelperEnv(now time.Time) map[string]any {
	return map[string]any{
		"length": func(s string) int { return len([]rune(s)) },
		"dateForComparison": func(period int, unit string) string {
			switch TimeUnit(unit) {
			case TimeUnitDays:
				return now.AddDate(0, 0, period).Format(time.DateOnly)
			case TimeUnitMonths:
				return now.AddDate(0, period, 0).Format(time.DateOnly)
			default:
				return now.AddDate(period, 0, 0).Format(time.DateOnly)
			}
		},
	}
}

// Check returns ErrMalformedExpression when expression does not compile to
// a boolean program. The empty expression (a model without conditions) is
// accepted and not cached.
func (c *Checker) Check(expression string) error {
	_, err := c.compile(expression)
	return err
}

// CheckModel compiles m and checks the resulting expression.
func (c *Checker) CheckModel(m ConditionsModel) (string, error) {
	expression, err := m.Expression()
	if err != nil {
		return "", err
	}
	if err := c.Check(expression); err != nil {
		return "", err
	}
	return expression, nil
}

// Program returns the cached compiled program for expression, compiling it
// on first use. Returns nil for the empty expression.
func (c *Checker) Program(expression string) (*vm.Program, error) {
	return c.compile(expression)
}

func (c *Checker) compile(expression string) (*vm.Program, error) {
	if expression == "" {
		return nil, nil
	}

	c.mu.RLock()
	if prog, ok := c.cache[expression]; ok {
		c.mu.RUnlock()
		return prog, nil
	}
	c.mu.RUnlock()

	prog, err := expr.Compile(expression,
		expr.Env(HelperEnv(time.Time{})),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedExpression, err)
	}

	c.store(expression, prog)
	return prog, nil
}

func (c *Checker) store(expression string, prog *vm.Program) {
	if c.limit < 1 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.cache[expression]; ok {
		return
	}
	for len(c.order) >= c.limit {
		delete(c.cache, c.order[0])
		c.order = c.order[1:]
	}
	c.cache[expression] = prog
	c.order = append(c.order, expression)
}

// ClearCache drops every cached program.
func (c *Checker) ClearCache() {
	c.mu.Lock()
	c.cache = make(map[string]*vm.Program)
	c.order = nil
	c.mu.Unlock()
}

// CacheSize returns the number of cached programs.
func (c *Checker) CacheSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
