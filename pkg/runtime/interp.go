package runtime

import (
	"context"
	"io"
	"os"

	"github.com/lemonberrylabs/dollop/pkg/lang"
	"github.com/lemonberrylabs/dollop/pkg/stdlib"
	"github.com/lemonberrylabs/dollop/pkg/types"
)

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithOutput directs print output to w. The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) {
		in.out = w
	}
}

// WithMaxSteps sets the per-run step budget. Zero or below applies
// DefaultMaxSteps.
func WithMaxSteps(n int) Option {
	return func(in *Interpreter) {
		in.maxSteps = n
	}
}

// WithoutStdlib starts runs from an empty environment instead of the
// default registry. Combined with no registrations this is the tightest
// sandbox: scripts can evaluate literals and nothing else.
func WithoutStdlib() Option {
	return func(in *Interpreter) {
		in.noStdlib = true
	}
}

// Interpreter is the embedding surface. A host registers native functions
// and value bindings up front, then runs scripts against exactly those
// bindings. The capability boundary is entirely a function of what the host
// registers: no filesystem, network, or clock access exists unless a
// registered native provides it.
//
// Each run evaluates in a fresh environment seeded from the standard
// library (unless disabled) plus the host's bindings; nothing a script does
// can outlive its run. Register and Bind are not safe to call concurrently
// with Run.
type Interpreter struct {
	out      io.Writer
	maxSteps int
	noStdlib bool
	bindings map[string]types.Value
}

// New creates an interpreter. With no options, runs see the default
// standard library with print bound to os.Stdout.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		out:      os.Stdout,
		maxSteps: DefaultMaxSteps,
		bindings: make(map[string]types.Value),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Register binds a native function under the given name, overriding any
// standard library entry with the same name.
func (in *Interpreter) Register(name string, fn types.NativeFunc) {
	in.bindings[name] = types.NewFunction(name, fn)
}

// Bind binds an arbitrary value under the given name.
func (in *Interpreter) Bind(name string, v types.Value) {
	in.bindings[name] = v
}

// Run executes a script and returns the final statement's value.
func (in *Interpreter) Run(source string) (types.Value, error) {
	return in.RunContext(context.Background(), source)
}

// RunContext executes a script, honoring context cancellation at every
// evaluation step. Lex and parse errors surface before anything evaluates;
// a script with no statements cannot produce a value and is rejected.
func (in *Interpreter) RunContext(ctx context.Context, source string) (types.Value, error) {
	stmts, err := lang.ParseSource(source)
	if err != nil {
		return types.Value{}, err
	}
	if len(stmts) == 0 {
		return types.Value{}, &types.ParseError{
			Kind:    types.KindEmptyExpression,
			Message: "script contains no statements",
		}
	}

	engine := NewEngine(in.seedEnvironment(), in.maxSteps)
	return engine.Run(ctx, stmts)
}

// seedEnvironment builds the fresh environment for one run.
func (in *Interpreter) seedEnvironment() *Environment {
	env := NewEnvironment()
	if !in.noStdlib {
		reg := stdlib.NewRegistry()
		reg.RegisterPrint(in.out)
		reg.Seed(env)
	}
	for name, v := range in.bindings {
		env.Define(name, v)
	}
	return env
}
