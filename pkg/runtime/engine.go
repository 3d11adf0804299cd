package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/lemonberrylabs/dollop/pkg/lang"
	"github.com/lemonberrylabs/dollop/pkg/types"
)

// DefaultMaxSteps is the default step budget for a single run. Every
// expression node visited counts as one step.
const DefaultMaxSteps = 100_000

// Engine evaluates statement trees against an environment. Evaluation is
// single-threaded and synchronous; the engine's only concurrency concern is
// that Cancel and StepCount may be called from other goroutines while a run
// is in flight.
type Engine struct {
	env      *Environment
	maxSteps int

	mu        sync.Mutex
	stepCount int
	cancelled bool
}

// NewEngine creates an engine bound to an environment. A maxSteps of zero
// or below applies DefaultMaxSteps.
func NewEngine(env *Environment, maxSteps int) *Engine {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Engine{env: env, maxSteps: maxSteps}
}

// Run evaluates statements in order and returns the final statement's
// value. An empty statement list is an error.
func (e *Engine) Run(ctx context.Context, stmts []lang.Expr) (types.Value, error) {
	if len(stmts) == 0 {
		return types.Value{}, fmt.Errorf("no statements to evaluate")
	}
	var last types.Value
	for _, stmt := range stmts {
		v, err := e.Eval(ctx, stmt)
		if err != nil {
			return types.Value{}, err
		}
		last = v
	}
	return last, nil
}

// Eval evaluates a single statement tree to a value.
func (e *Engine) Eval(ctx context.Context, expr lang.Expr) (types.Value, error) {
	if err := e.step(ctx); err != nil {
		return types.Value{}, err
	}

	switch node := expr.(type) {
	case *lang.NumberLit:
		return types.NewNumber(node.Value), nil

	case *lang.StringLit:
		return types.NewString(node.Value), nil

	case *lang.Symbol:
		v, ok := e.env.Lookup(node.Name)
		if !ok {
			return types.Value{}, types.NewUnboundNameError(node.Name, node.Line, node.Col, e.suggest(node.Name))
		}
		return v, nil

	case *lang.Call:
		head, err := e.Eval(ctx, node.Head)
		if err != nil {
			return types.Value{}, err
		}
		if !head.IsFunction() {
			line, col := node.Head.Pos()
			return types.Value{}, types.NewNotCallableError(describeValue(head), line, col)
		}

		args := make([]types.Value, len(node.Args))
		for i, argExpr := range node.Args {
			arg, err := e.Eval(ctx, argExpr)
			if err != nil {
				return types.Value{}, err
			}
			args[i] = arg
		}

		// Whatever the native returns, value or error, passes through
		// untouched.
		return head.AsFunction()(args)
	}

	return types.Value{}, fmt.Errorf("unknown expression node %T", expr)
}

// step enforces cancellation and the step budget. Called once per visited
// node.
func (e *Engine) step(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	e.mu.Lock()
	if e.cancelled {
		e.mu.Unlock()
		return fmt.Errorf("evaluation cancelled")
	}
	e.stepCount++
	if e.stepCount > e.maxSteps {
		e.mu.Unlock()
		return types.NewResourceLimitError(
			fmt.Sprintf("evaluation exceeded maximum step limit of %d", e.maxSteps))
	}
	e.mu.Unlock()
	return nil
}

// Cancel stops the run at the next step boundary.
func (e *Engine) Cancel() {
	e.mu.Lock()
	e.cancelled = true
	e.mu.Unlock()
}

// StepCount returns the number of steps consumed so far.
func (e *Engine) StepCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stepCount
}

// suggest returns a did-you-mean hint for an unbound name, or "" when the
// environment holds nothing close.
func (e *Engine) suggest(name string) string {
	matches := fuzzy.Find(name, e.env.Names())
	if len(matches) == 0 {
		return ""
	}
	return fmt.Sprintf("did you mean '%s'?", matches[0].Str)
}

// describeValue renders a value with its type for error messages.
func describeValue(v types.Value) string {
	switch v.Type() {
	case types.TypeString:
		return fmt.Sprintf("string %q", v.AsString())
	case types.TypeNumber:
		return fmt.Sprintf("number %s", v.String())
	default:
		return v.String()
	}
}
