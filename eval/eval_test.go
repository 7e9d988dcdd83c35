package eval_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rix0rrr/cdk-reflect/core"
	"github.com/rix0rrr/cdk-reflect/eval"
	"github.com/rix0rrr/cdk-reflect/eval/memhost"
	"github.com/rix0rrr/cdk-reflect/stmt"
)

func stackHost() *memhost.Host {
	h := memhost.New(nil)
	h.AddCallable("m.Stack", func(args []any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("want 2 args, got %d", len(args))
		}
		return map[string]any{"type": "m.Stack", "id": args[1]}, nil
	})
	h.AddCallable("m.Stack.of", func(args []any) (any, error) {
		return map[string]any{"type": "m.Stack", "id": args[0]}, nil
	})
	h.AddValue("m.E.A", "A")
	return h
}

func TestRunEvaluatesInstantiation(t *testing.T) {
	e := eval.New(stackHost())
	stmts := []stmt.Statement{
		&stmt.ExpressionStmt{Value: &core.ClassInstantiation{
			FQN:            "m.Stack",
			ParameterNames: []string{"scope", "id"},
			Arguments:      []core.Value{&core.ScopeValue{}, core.String("MyStack")},
		}},
	}
	artifact, err := e.Run(context.Background(), stmts)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "m.Stack", "id": "MyStack"}, artifact)
}

func TestRunBindsAndReadsVariables(t *testing.T) {
	e := eval.New(stackHost())
	stmts := []stmt.Statement{
		&stmt.Assignment{Name: "stack1", Value: &core.StaticMethodCall{
			FQN: "m.Stack", StaticMethod: "of", TargetFQN: "m.Stack",
			ParameterNames: []string{"id"},
			Arguments:      []core.Value{core.String("x")},
		}},
		&stmt.ExpressionStmt{Value: &core.Variable{Name: "stack1"}},
	}
	artifact, err := e.Run(context.Background(), stmts)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "m.Stack", "id": "x"}, artifact)
}

func TestRunRejectsDoubleBind(t *testing.T) {
	e := eval.New(stackHost())
	stmts := []stmt.Statement{
		&stmt.Assignment{Name: "x", Value: core.Number(1)},
		&stmt.Assignment{Name: "x", Value: core.Number(2)},
	}
	_, err := e.Run(context.Background(), stmts)
	assert.ErrorContains(t, err, "bound twice")
}

func TestRunUnknownVariable(t *testing.T) {
	e := eval.New(stackHost())
	_, err := e.Run(context.Background(), []stmt.Statement{
		&stmt.ExpressionStmt{Value: &core.Variable{Name: "nope"}},
	})
	assert.ErrorContains(t, err, "unknown variable")
}

func TestRunStaticPropertyAccess(t *testing.T) {
	e := eval.New(stackHost())
	artifact, err := e.Run(context.Background(), []stmt.Statement{
		&stmt.ExpressionStmt{Value: &core.StaticPropertyAccess{
			FQN: "m.E", StaticProperty: "A", TargetFQN: "m.E",
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "A", artifact)
}

func TestRunContainersAndPrimitives(t *testing.T) {
	e := eval.New(stackHost())
	v := &core.StructLiteral{
		FQN: "m.Props",
		Entries: core.NewEntries().
			Set("name", core.String("n")).
			Set("count", core.Number(2)).
			Set("flags", &core.ArrayValue{Elements: []core.Value{core.Boolean(true)}}).
			Set("extra", &core.MapLiteral{Entries: core.NewEntries().Set("k", core.Number(1))}),
	}
	artifact, err := e.Run(context.Background(), []stmt.Statement{&stmt.ExpressionStmt{Value: v}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":  "n",
		"count": 2.0,
		"flags": []any{true},
		"extra": map[string]any{"k": 1.0},
	}, artifact)
}

func TestRunTrimsTrailingNoValues(t *testing.T) {
	h := memhost.New(nil)
	var got int
	h.AddCallable("m.Fn", func(args []any) (any, error) {
		got = len(args)
		return "ok", nil
	})
	e := eval.New(h)
	_, err := e.Run(context.Background(), []stmt.Statement{
		&stmt.ExpressionStmt{Value: &core.ClassInstantiation{
			FQN:            "m.Fn",
			ParameterNames: []string{"a", "b", "c"},
			Arguments:      []core.Value{core.String("x"), &core.NoValue{}, &core.NoValue{}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestRunRejectsInteriorNoValue(t *testing.T) {
	e := eval.New(stackHost())
	_, err := e.Run(context.Background(), []stmt.Statement{
		&stmt.ExpressionStmt{Value: &core.ClassInstantiation{
			FQN:            "m.Stack",
			ParameterNames: []string{"scope", "id"},
			Arguments:      []core.Value{&core.NoValue{}, core.String("x")},
		}},
	})
	assert.ErrorIs(t, err, core.ErrNoValueAtEval)
}

func TestRunWrapsHostFailures(t *testing.T) {
	h := memhost.New(nil)
	h.AddCallable("m.Bad", func(args []any) (any, error) {
		return nil, fmt.Errorf("library says no")
	})
	e := eval.New(h)
	_, err := e.Run(context.Background(), []stmt.Statement{
		&stmt.ExpressionStmt{Value: &core.ClassInstantiation{FQN: "m.Bad"}},
	})
	var evalErr *core.EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.ErrorContains(t, err, "library says no")
}

func TestRunScopeInitializedOnce(t *testing.T) {
	inits := 0
	h := memhost.New(func(context.Context) (any, error) {
		inits++
		return "root", nil
	})
	e := eval.New(h)
	v := &core.ArrayValue{Elements: []core.Value{&core.ScopeValue{}, &core.ScopeValue{}}}
	artifact, err := e.Run(context.Background(), []stmt.Statement{&stmt.ExpressionStmt{Value: v}})
	require.NoError(t, err)
	assert.Equal(t, []any{"root", "root"}, artifact)
	assert.Equal(t, 1, inits)
}

func TestEvaluatorEquivalenceForEqualValues(t *testing.T) {
	v1 := &core.ClassInstantiation{
		FQN:            "m.Stack",
		ParameterNames: []string{"scope", "id"},
		Arguments:      []core.Value{&core.ScopeValue{}, core.String("same")},
		DistPtr:        core.DistPtr{DistID: "a", SourceIndex: 0},
	}
	v2 := &core.ClassInstantiation{
		FQN:            "m.Stack",
		ParameterNames: []string{"scope", "id"},
		Arguments:      []core.Value{&core.ScopeValue{}, core.String("same")},
		DistPtr:        core.DistPtr{DistID: "b", SourceIndex: 3},
	}
	require.True(t, core.Equal(v1, v2))

	a1, err := eval.New(stackHost()).Run(context.Background(), stmt.Discretize(v1))
	require.NoError(t, err)
	a2, err := eval.New(stackHost()).Run(context.Background(), stmt.Discretize(v2))
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
}
