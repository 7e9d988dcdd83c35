// Package eval reifies discretized statements against a real host library.
// The host is abstracted behind small interfaces so tests run against an
// in-memory library and production runs can target a WASM build.
package eval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rix0rrr/cdk-reflect/core"
	"github.com/rix0rrr/cdk-reflect/stmt"
)

// Callable is a resolved host-library member: a constructor or static
// method (Call), a container of further members (Member), or a readable
// static property (Value).
type Callable interface {
	Call(args []any) (any, error)
	Member(name string) (Callable, error)
	Value() (any, error)
}

// Host exposes the library under evaluation.
type Host interface {
	// Root returns the host-provided root object that ScopeValue stands
	// for. Called at most once per Evaluator.
	Root(ctx context.Context) (any, error)
	// Module returns the top-level module of the given name; member-by-
	// member FQN resolution starts there.
	Module(name string) (Callable, error)
}

// resolveCacheSize bounds the per-evaluator FQN resolution cache.
const resolveCacheSize = 512

// Evaluator interprets statements against a Host. Instances are not safe
// for concurrent use and hold per-run variable bindings.
type Evaluator struct {
	host     Host
	vars     map[string]any
	cache    *lru.Cache[string, Callable]
	root     any
	rootInit bool
	log      *slog.Logger
}

// New creates an evaluator for host.
func New(host Host) *Evaluator {
	cache, err := lru.New[string, Callable](resolveCacheSize)
	if err != nil {
		// Only fails for non-positive sizes.
		panic(fmt.Sprintf("create resolve cache: %v", err))
	}
	return &Evaluator{
		host:  host,
		vars:  make(map[string]any),
		cache: cache,
		log:   slog.Default(),
	}
}

// Run evaluates statements in order and returns the artifact of the final
// expression. Host failures come back wrapped in *core.EvalError.
func (e *Evaluator) Run(ctx context.Context, stmts []stmt.Statement) (any, error) {
	var artifact any
	for _, s := range stmts {
		switch st := s.(type) {
		case *stmt.Assignment:
			if _, exists := e.vars[st.Name]; exists {
				return nil, fmt.Errorf("variable %q bound twice", st.Name)
			}
			v, err := e.evalValue(ctx, st.Value)
			if err != nil {
				return nil, err
			}
			e.vars[st.Name] = v
		case *stmt.ExpressionStmt:
			v, err := e.evalValue(ctx, st.Value)
			if err != nil {
				return nil, err
			}
			artifact = v
		default:
			return nil, fmt.Errorf("unknown statement %T", s)
		}
	}
	return artifact, nil
}

func (e *Evaluator) evalValue(ctx context.Context, v core.Value) (any, error) {
	switch n := v.(type) {
	case *core.PrimitiveValue:
		switch n.Type {
		case core.PrimitiveString:
			return n.Str, nil
		case core.PrimitiveNumber:
			return n.Num, nil
		case core.PrimitiveBoolean:
			return n.Bool, nil
		case core.PrimitiveDate:
			return n.Date, nil
		}
		return nil, fmt.Errorf("unknown primitive type %q", n.Type)

	case *core.ScopeValue:
		if !e.rootInit {
			root, err := e.host.Root(ctx)
			if err != nil {
				return nil, &core.EvalError{Cause: err}
			}
			e.root, e.rootInit = root, true
		}
		return e.root, nil

	case *core.ArrayValue:
		out := make([]any, len(n.Elements))
		for i, el := range n.Elements {
			v, err := e.evalValue(ctx, el)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case *core.MapLiteral:
		return e.evalEntries(ctx, n.Entries)

	case *core.StructLiteral:
		return e.evalEntries(ctx, n.Entries)

	case *core.ClassInstantiation:
		callable, err := e.resolve(n.FQN)
		if err != nil {
			return nil, err
		}
		args, err := e.evalArgs(ctx, n.Arguments)
		if err != nil {
			return nil, err
		}
		out, err := callable.Call(args)
		if err != nil {
			return nil, &core.EvalError{Path: "new " + n.FQN, Cause: err}
		}
		return out, nil

	case *core.StaticMethodCall:
		callable, err := e.resolve(n.FQN + "." + n.StaticMethod)
		if err != nil {
			return nil, err
		}
		args, err := e.evalArgs(ctx, n.Arguments)
		if err != nil {
			return nil, err
		}
		out, err := callable.Call(args)
		if err != nil {
			return nil, &core.EvalError{Path: n.FQN + "." + n.StaticMethod, Cause: err}
		}
		return out, nil

	case *core.StaticPropertyAccess:
		callable, err := e.resolve(n.FQN + "." + n.StaticProperty)
		if err != nil {
			return nil, err
		}
		out, err := callable.Value()
		if err != nil {
			return nil, &core.EvalError{Path: n.FQN + "." + n.StaticProperty, Cause: err}
		}
		return out, nil

	case *core.Variable:
		v, ok := e.vars[n.Name]
		if !ok {
			return nil, fmt.Errorf("unknown variable %q", n.Name)
		}
		return v, nil

	case *core.NoValue:
		return nil, core.ErrNoValueAtEval
	}
	return nil, fmt.Errorf("unknown value %T", v)
}

// evalArgs evaluates an argument list with trailing NoValues trimmed: they
// stand for omitted optional arguments. A NoValue before a real argument is
// a generator bug and surfaces as ErrNoValueAtEval from evalValue.
func (e *Evaluator) evalArgs(ctx context.Context, args []core.Value) ([]any, error) {
	n := len(args)
	for n > 0 {
		if _, ok := args[n-1].(*core.NoValue); !ok {
			break
		}
		n--
	}
	out := make([]any, n)
	for i := 0; i < n; i++ {
		v, err := e.evalValue(ctx, args[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *Evaluator) evalEntries(ctx context.Context, entries *core.Entries) (map[string]any, error) {
	out := make(map[string]any, entries.Len())
	for _, k := range entries.Keys() {
		ev, _ := entries.Get(k)
		v, err := e.evalValue(ctx, ev)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// resolve walks an FQN member by member from its top-level module.
// Resolutions are memoized per evaluator.
func (e *Evaluator) resolve(fqn string) (Callable, error) {
	if c, ok := e.cache.Get(fqn); ok {
		return c, nil
	}
	parts := strings.Split(fqn, ".")
	c, err := e.host.Module(parts[0])
	if err != nil {
		return nil, &core.EvalError{Path: fqn, Cause: err}
	}
	for _, part := range parts[1:] {
		c, err = c.Member(part)
		if err != nil {
			return nil, &core.EvalError{Path: fqn, Cause: err}
		}
	}
	e.cache.Add(fqn, c)
	return c, nil
}
