// Package mutate enumerates candidate single-point edits of a value and
// reservoir-samples k of them. Proposals are sampled over an on-the-fly
// enumeration, never materialized, which keeps memory O(k) and the sampling
// unbiased across deeply nested values.
package mutate

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/rix0rrr/cdk-reflect/core"
	"github.com/rix0rrr/cdk-reflect/custom"
	"github.com/rix0rrr/cdk-reflect/gen"
	"github.com/rix0rrr/cdk-reflect/model"
	"github.com/rix0rrr/cdk-reflect/pkg/rng"
)

// Options configures a Mutator.
type Options struct {
	// Variants is the reservoir size k: the maximum number of edited trees
	// returned by Mutate.
	Variants int
	Customs  *custom.Registry
	Log      *slog.Logger
}

// Mutator produces up to k single-point variants of a value. An instance is
// single-use: the reservoir state would bias a second run.
type Mutator struct {
	model   *model.Registry
	rand    *rng.Rand
	gen     *gen.Generator
	customs *custom.Registry
	log     *slog.Logger
	res     *reservoir
	used    bool
}

// New creates a mutator sharing the caller's Rand with its internal
// generator.
func New(m *model.Registry, r *rng.Rand, opts Options) *Mutator {
	customs := opts.Customs
	if customs == nil {
		customs = custom.NewRegistry()
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	variants := opts.Variants
	if variants <= 0 {
		variants = 1
	}
	return &Mutator{
		model:   m,
		rand:    r,
		gen:     gen.New(m, r, gen.Options{Customs: customs, Log: log}),
		customs: customs,
		log:     log,
		res:     newReservoir(r, variants),
	}
}

// Mutate returns up to k edited variants of v, drawn uniformly from the
// stream of candidate single-point edits.
func (m *Mutator) Mutate(v core.Value) ([]core.Value, error) {
	if m.used {
		return nil, fmt.Errorf("mutator is single-use; create a new instance per call")
	}
	m.used = true
	m.mutateValue(v, core.Zipper{})
	m.log.Debug("mutation enumeration done", "proposals", m.res.count(), "kept", len(m.res.values()))
	return m.res.values(), nil
}

func (m *Mutator) proposeSet(z core.Zipper, v core.Value) {
	m.res.offer(z.Set(v))
}

func (m *Mutator) proposeDelete(z core.Zipper) {
	root, err := z.Delete()
	if err != nil {
		return
	}
	m.res.offer(root)
}

// didPropose snapshots the proposal counter around block to decide whether
// a structural recursion branch produced anything.
func (m *Mutator) didPropose(block func()) bool {
	before := m.res.count()
	block()
	return m.res.count() > before
}

// mutateValue visits one node: first the "switch alternative" proposals for
// every sibling source of the node's DistPtr, then the structural mutations
// of the currently-chosen source.
func (m *Mutator) mutateValue(v core.Value, z core.Zipper) {
	var cur model.Source
	if ptr, ok := core.Ptr(v); ok && ptr.DistID != "" {
		resolved, err := m.model.Resolve(model.DistRef(ptr.DistID))
		if err == nil {
			for j, src := range resolved {
				if j == ptr.SourceIndex {
					continue
				}
				sib, err := m.gen.FromSource(src, core.DistPtr{DistID: ptr.DistID, SourceIndex: j}, z)
				if err != nil {
					continue
				}
				m.proposeSet(z, sib)
			}
			if ptr.SourceIndex >= 0 && ptr.SourceIndex < len(resolved) {
				cur = resolved[ptr.SourceIndex]
			}
		}
	}

	if cs, ok := cur.(model.CustomSource); ok {
		d, err := m.customs.Lookup(cs.Name)
		if err != nil {
			m.log.Warn("custom distribution missing during mutation", "name", cs.Name)
			return
		}
		d.Mutate(v, z, func(nv core.Value) { m.proposeSet(z, nv) })
		return
	}

	switch n := v.(type) {
	case *core.ArrayValue:
		m.mutateArray(n, cur, z)
	case *core.MapLiteral:
		m.mutateMap(n, cur, z)
	case *core.ClassInstantiation:
		if src, ok := cur.(model.CtorSource); ok {
			m.mutateArgs(n.Arguments, src.Parameters, z, func(i int) core.Loc {
				return core.ClassArgLoc{Parent: n, Index: i}
			})
		}
	case *core.StaticMethodCall:
		if src, ok := cur.(model.StaticMethodSource); ok {
			m.mutateArgs(n.Arguments, src.Parameters, z, func(i int) core.Loc {
				return core.StaticArgLoc{Parent: n, Index: i}
			})
		}
	case *core.StructLiteral:
		for _, key := range n.Entries.Keys() {
			val, _ := n.Entries.Get(key)
			m.mutateValue(val, z.Descend(core.StructFieldLoc{Parent: n, Field: key}))
		}
	case *core.PrimitiveValue:
		m.mutatePrimitive(n, z)
	case *core.NoValue, *core.StaticPropertyAccess, *core.ScopeValue, *core.Variable:
		// Nothing structural. Variables have no DistPtr and are excluded
		// from sibling-switching as well.
	}
}

func (m *Mutator) mutateArray(n *core.ArrayValue, cur model.Source, z core.Zipper) {
	if src, ok := cur.(model.ArraySource); ok {
		appendLoc := z.Descend(core.ArrayElemLoc{Parent: n, Index: len(n.Elements)})
		if el, err := m.gen.MinimalValue(src.Elem, appendLoc); err == nil {
			m.proposeSet(appendLoc, el)
		}
	}
	if len(n.Elements) > 0 {
		i := m.rand.Intn(len(n.Elements))
		elemLoc := z.Descend(core.ArrayElemLoc{Parent: n, Index: i})
		m.proposeDelete(elemLoc)
		m.mutateValue(n.Elements[i], elemLoc)
	}
}

func (m *Mutator) mutateMap(n *core.MapLiteral, cur model.Source, z core.Zipper) {
	if src, ok := cur.(model.MapSource); ok {
		key := m.rand.String(1, 10)
		entryLoc := z.Descend(core.MapEntryLoc{Parent: n, Key: key})
		if el, err := m.gen.MinimalValue(src.Elem, entryLoc); err == nil {
			m.proposeSet(entryLoc, el)
		}
	}
	if n.Entries.Len() > 0 {
		keys := n.Entries.Keys()
		key := keys[m.rand.Intn(len(keys))]
		entryLoc := z.Descend(core.MapEntryLoc{Parent: n, Key: key})
		m.proposeDelete(entryLoc)
		val, _ := n.Entries.Get(key)
		m.mutateValue(val, entryLoc)
	}
}

// mutateArgs proposes appending a missing argument, or recurses into the
// first argument (in coprime-stride random order) that proposes an edit.
func (m *Mutator) mutateArgs(args []core.Value, params []model.ParameterSource, z core.Zipper, mkLoc func(i int) core.Loc) {
	if len(args) < len(params) {
		appendLoc := z.Descend(mkLoc(len(args)))
		if v, err := m.gen.MinimalValue(params[len(args)].Dist, appendLoc); err == nil {
			m.proposeSet(appendLoc, v)
		}
		return
	}
	for _, i := range m.rand.StridePerm(len(args)) {
		arg, loc := args[i], z.Descend(mkLoc(i))
		if m.didPropose(func() { m.mutateValue(arg, loc) }) {
			return
		}
	}
}

// mutatePrimitive proposes exactly one replacement drawn from the per-type
// mutation family.
func (m *Mutator) mutatePrimitive(n *core.PrimitiveValue, z core.Zipper) {
	switch n.Type {
	case core.PrimitiveBoolean:
		next := core.Boolean(!n.Bool)
		next.DistPtr = n.DistPtr
		m.proposeSet(z, next)

	case core.PrimitiveNumber:
		k := float64(m.rand.Range(1, 5))
		var out float64
		switch m.rand.Intn(4) {
		case 0:
			out = n.Num + k
		case 1:
			out = n.Num - k
		case 2:
			out = n.Num * k
		default:
			out = math.Round(n.Num / k)
		}
		next := core.Number(out)
		next.DistPtr = n.DistPtr
		m.proposeSet(z, next)

	case core.PrimitiveString:
		next := core.String(m.mutateString(n.Str))
		next.DistPtr = n.DistPtr
		m.proposeSet(z, next)

	case core.PrimitiveDate:
		// No mutation family for dates.
	}
}

func (m *Mutator) mutateString(s string) string {
	ops := 3
	if len(s) == 0 {
		ops = 2 // nothing to slice out
	}
	switch m.rand.Intn(ops) {
	case 0:
		return s + m.rand.String(1, 4)
	case 1:
		return m.rand.String(1, 4) + s
	default:
		i := m.rand.Intn(len(s))
		j := i + 1 + m.rand.Intn(len(s)-i)
		return s[:i] + s[j:]
	}
}
