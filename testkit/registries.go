// Package testkit provides synthetic type registries and host fixtures for
// exercising extraction, generation, mutation and evaluation without a real
// library build.
package testkit

import (
	"context"
	"fmt"

	"github.com/rix0rrr/cdk-reflect/eval/memhost"
	"github.com/rix0rrr/cdk-reflect/typereg"
)

func mustRegistry(types ...*typereg.Type) *typereg.Registry {
	reg := typereg.NewRegistry()
	if err := reg.Add(&typereg.Assembly{Name: "test", Types: types}); err != nil {
		panic(err)
	}
	return reg
}

func stringRef() typereg.TypeRef { return typereg.TypeRef{Primitive: "string"} }
func numberRef() typereg.TypeRef { return typereg.TypeRef{Primitive: "number"} }

// StackRegistry models the construct shape: m.Stack(scope m.IConstruct,
// id string), with m.App and m.Stack both implementing m.IConstruct.
func StackRegistry() *typereg.Registry {
	return mustRegistry(
		&typereg.Type{FQN: "m.IConstruct", Kind: typereg.KindInterface},
		&typereg.Type{
			FQN: "m.App", Kind: typereg.KindClass,
			Interfaces:  []string{"m.IConstruct"},
			Initializer: &typereg.Callable{},
		},
		&typereg.Type{
			FQN: "m.Stack", Kind: typereg.KindClass,
			Interfaces: []string{"m.IConstruct"},
			Initializer: &typereg.Callable{Params: []typereg.Param{
				{Name: "scope", Type: typereg.TypeRef{FQN: "m.IConstruct"}},
				{Name: "id", Type: stringRef()},
			}},
		},
	)
}

// StructRegistry models a value object with a required and an optional
// field: m.Props { name: string, count?: number }.
func StructRegistry() *typereg.Registry {
	return mustRegistry(
		&typereg.Type{
			FQN: "m.Props", Kind: typereg.KindInterface, DataType: true,
			Fields: []typereg.Field{
				{Name: "name", Type: stringRef()},
				{Name: "count", Type: numberRef(), Optional: true},
			},
		},
	)
}

// EnumRegistry models an enum m.E { A, B }.
func EnumRegistry() *typereg.Registry {
	return mustRegistry(
		&typereg.Type{FQN: "m.E", Kind: typereg.KindEnum, Members: []string{"A", "B"}},
	)
}

// CyclicRegistry models mutually recursive constructors a.A(b: a.B) and
// a.B(a: a.A), with a static property escape hatch on a.B.
func CyclicRegistry() *typereg.Registry {
	return mustRegistry(
		&typereg.Type{
			FQN: "a.A", Kind: typereg.KindClass,
			Initializer: &typereg.Callable{Params: []typereg.Param{
				{Name: "b", Type: typereg.TypeRef{FQN: "a.B"}},
			}},
		},
		&typereg.Type{
			FQN: "a.B", Kind: typereg.KindClass,
			Initializer: &typereg.Callable{Params: []typereg.Param{
				{Name: "a", Type: typereg.TypeRef{FQN: "a.A"}},
			}},
			Properties: []typereg.Property{
				{Name: "DEFAULT", Static: true, Immutable: true, Type: typereg.TypeRef{FQN: "a.B"}},
			},
		},
	)
}

// OptionalSelfRegistry models a struct whose only field optionally
// references itself: a.Node { self?: a.Node }.
func OptionalSelfRegistry() *typereg.Registry {
	return mustRegistry(
		&typereg.Type{
			FQN: "a.Node", Kind: typereg.KindInterface, DataType: true,
			Fields: []typereg.Field{
				{Name: "self", Type: typereg.TypeRef{FQN: "a.Node"}, Optional: true},
			},
		},
	)
}

// NestedRegistry models outer/inner nesting for discretization: n.Outer
// takes an n.Inner.
func NestedRegistry() *typereg.Registry {
	return mustRegistry(
		&typereg.Type{FQN: "n.Inner", Kind: typereg.KindClass, Initializer: &typereg.Callable{}},
		&typereg.Type{
			FQN: "n.Outer", Kind: typereg.KindClass,
			Initializer: &typereg.Callable{Params: []typereg.Param{
				{Name: "inner", Type: typereg.TypeRef{FQN: "n.Inner"}},
			}},
		},
	)
}

// StackHost is an in-memory library implementing the StackRegistry and
// EnumRegistry surfaces. Constructed objects are maps carrying their type
// and arguments, which makes artifacts easy to assert on.
func StackHost() *memhost.Host {
	h := memhost.New(func(context.Context) (any, error) {
		return map[string]any{"type": "m.App"}, nil
	})
	h.AddCallable("m.App", func(args []any) (any, error) {
		return map[string]any{"type": "m.App"}, nil
	})
	h.AddCallable("m.Stack", func(args []any) (any, error) {
		if len(args) < 2 {
			return nil, fmt.Errorf("m.Stack requires scope and id")
		}
		id, ok := args[1].(string)
		if !ok || id == "" {
			return nil, fmt.Errorf("m.Stack id must be a non-empty string")
		}
		return map[string]any{"type": "m.Stack", "id": id}, nil
	})
	h.AddCallable("n.Inner", func(args []any) (any, error) {
		return map[string]any{"type": "n.Inner"}, nil
	})
	h.AddCallable("n.Outer", func(args []any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("n.Outer requires inner")
		}
		return map[string]any{"type": "n.Outer", "inner": args[0]}, nil
	})
	h.AddValue("m.E.A", "A")
	h.AddValue("m.E.B", "B")
	return h
}
