// Package gen produces the smallest syntactically valid value for a target
// FQN. Recursion through the (cyclic) type graph is broken per traversal by
// blacklisting the DistPtrs currently on the construction stack.
package gen

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rix0rrr/cdk-reflect/core"
	"github.com/rix0rrr/cdk-reflect/custom"
	"github.com/rix0rrr/cdk-reflect/model"
	"github.com/rix0rrr/cdk-reflect/pkg/rng"
)

// Options configures a Generator.
type Options struct {
	Customs *custom.Registry
	Log     *slog.Logger
}

// Generator builds minimal values from a distribution model. It holds the
// caller's Rand; every draw advances the shared deterministic stream.
type Generator struct {
	model   *model.Registry
	rand    *rng.Rand
	customs *custom.Registry
	log     *slog.Logger
}

// New creates a generator. Zero-value options fall back to the built-in
// custom registry and the default logger.
func New(m *model.Registry, r *rng.Rand, opts Options) *Generator {
	customs := opts.Customs
	if customs == nil {
		customs = custom.NewRegistry()
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	return &Generator{model: m, rand: r, customs: customs, log: log}
}

// Minimal produces a smallest valid value of fqn.
func (g *Generator) Minimal(fqn string) (core.Value, error) {
	ref, err := g.model.RecordDistribution([]model.ValueSource{model.FqnRef{FQN: fqn}})
	if err != nil {
		return nil, err
	}
	return g.MinimalValue(ref, core.Zipper{})
}

// MinimalValue builds a minimal value from the distribution under ref. The
// recursion-breaker set is scoped to this call.
func (g *Generator) MinimalValue(ref model.DistRef, z core.Zipper) (core.Value, error) {
	return g.minimalValue(ref, z, make(map[core.DistPtr]bool))
}

// FromSource builds a minimal value from one specific resolved alternative,
// carrying ptr. The mutator uses it to construct sibling candidates.
func (g *Generator) FromSource(src model.Source, ptr core.DistPtr, z core.Zipper) (core.Value, error) {
	busy := map[core.DistPtr]bool{ptr: true}
	return g.fromSource(src, ptr, z, busy)
}

// minimalValue tries every resolved alternative in order and returns the
// first success. Alternatives already on the construction stack are skipped;
// if every alternative recurses or fails, the caller gets "no options left"
// and tries its own next alternative.
func (g *Generator) minimalValue(ref model.DistRef, z core.Zipper, busy map[core.DistPtr]bool) (core.Value, error) {
	resolved, err := g.model.Resolve(ref)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for i, src := range resolved {
		ptr := core.DistPtr{DistID: string(ref), SourceIndex: i}
		if busy[ptr] {
			lastErr = core.ErrRecursionBroken
			continue
		}
		busy[ptr] = true
		v, err := g.fromSource(src, ptr, z, busy)
		delete(busy, ptr)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no options left in distribution %s (last: %v): %w", ref, lastErr, core.ErrNoSources)
}

func (g *Generator) fromSource(src model.Source, ptr core.DistPtr, z core.Zipper, busy map[core.DistPtr]bool) (core.Value, error) {
	switch s := src.(type) {
	case model.CtorSource:
		node := &core.ClassInstantiation{FQN: s.FQN, ParameterNames: paramNames(s.Parameters), DistPtr: ptr}
		args, err := g.buildArgs(s.Parameters, z, busy, func(i int) core.Loc {
			return core.ClassArgLoc{Parent: node, Index: i}
		})
		if err != nil {
			return nil, fmt.Errorf("new %s: %w", s.FQN, err)
		}
		node.Arguments = args
		return node, nil

	case model.StaticMethodSource:
		node := &core.StaticMethodCall{
			FQN: s.FQN, StaticMethod: s.Method, TargetFQN: s.TargetFQN,
			ParameterNames: paramNames(s.Parameters), DistPtr: ptr,
		}
		args, err := g.buildArgs(s.Parameters, z, busy, func(i int) core.Loc {
			return core.StaticArgLoc{Parent: node, Index: i}
		})
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.FQN, s.Method, err)
		}
		node.Arguments = args
		return node, nil

	case model.StaticPropertySource:
		return &core.StaticPropertyAccess{
			FQN: s.FQN, StaticProperty: s.Property, TargetFQN: s.TargetFQN, DistPtr: ptr,
		}, nil

	case model.ValueObjectSource:
		node := &core.StructLiteral{FQN: s.FQN, Entries: core.NewEntries(), DistPtr: ptr}
		for _, f := range s.Fields {
			v, err := g.minimalValue(f.Dist, z.Descend(core.StructFieldLoc{Parent: node, Field: f.Name}), busy)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", s.FQN, f.Name, err)
			}
			if _, absent := v.(*core.NoValue); absent {
				continue
			}
			node.Entries = node.Entries.Set(f.Name, v)
		}
		return node, nil

	case model.ArraySource:
		// A single-element array: many libraries reject empty lists.
		node := &core.ArrayValue{DistPtr: ptr}
		elem, err := g.minimalValue(s.Elem, z.Descend(core.ArrayElemLoc{Parent: node, Index: 0}), busy)
		if err != nil {
			return nil, err
		}
		node.Elements = []core.Value{elem}
		return node, nil

	case model.MapSource:
		return &core.MapLiteral{Entries: core.NewEntries(), DistPtr: ptr}, nil

	case model.PrimitiveSource:
		return g.minimalPrimitive(s.Name, ptr)

	case model.NoValueSource:
		return &core.NoValue{DistPtr: ptr}, nil

	case model.ConstantSource:
		return core.WithDistPtr(s.Value, ptr), nil

	case model.CustomSource:
		d, err := g.customs.Lookup(s.Name)
		if err != nil {
			return nil, err
		}
		return d.MinimalValue(ptr, z)
	}
	return nil, fmt.Errorf("unresolved source %T in distribution %s", src, ptr.DistID)
}

// buildArgs generates arguments in order. The first NoValue stops further
// generation; the remaining positions get NoValue placeholders retaining
// their own DistPtrs so the mutator can switch them later.
func (g *Generator) buildArgs(params []model.ParameterSource, z core.Zipper, busy map[core.DistPtr]bool, mkLoc func(i int) core.Loc) ([]core.Value, error) {
	args := make([]core.Value, 0, len(params))
	stopped := false
	for i, p := range params {
		if stopped {
			args = append(args, &core.NoValue{DistPtr: g.noValuePtr(p.Dist)})
			continue
		}
		v, err := g.minimalValue(p.Dist, z.Descend(mkLoc(i)), busy)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", p.Name, err)
		}
		if _, isNo := v.(*core.NoValue); isNo {
			stopped = true
		}
		args = append(args, v)
	}
	return args, nil
}

func (g *Generator) noValuePtr(ref model.DistRef) core.DistPtr {
	resolved, err := g.model.Resolve(ref)
	if err == nil {
		for i, src := range resolved {
			if _, ok := src.(model.NoValueSource); ok {
				return core.DistPtr{DistID: string(ref), SourceIndex: i}
			}
		}
	}
	return core.DistPtr{DistID: string(ref)}
}

func (g *Generator) minimalPrimitive(name string, ptr core.DistPtr) (core.Value, error) {
	switch name {
	case "string":
		v := core.String(g.rand.String(1, 10))
		v.DistPtr = ptr
		return v, nil
	case "number":
		v := core.Number(float64(g.rand.Range(1, 10)))
		v.DistPtr = ptr
		return v, nil
	case "boolean":
		v := core.Boolean(false)
		v.DistPtr = ptr
		return v, nil
	case "date":
		v := core.Date(time.Unix(0, 0).UTC())
		v.DistPtr = ptr
		return v, nil
	case "json", "any":
		return &core.MapLiteral{Entries: core.NewEntries(), DistPtr: ptr}, nil
	}
	return nil, fmt.Errorf("unknown primitive type %q", name)
}

func paramNames(params []model.ParameterSource) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}
