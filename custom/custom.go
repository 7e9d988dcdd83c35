// Package custom hosts named value-source plug-ins for values the generic
// distribution rules cannot derive: opaque roots, correlated identifiers
// that must be fresh per candidate, and domain-shaped constants.
package custom

import (
	"fmt"

	"github.com/rix0rrr/cdk-reflect/core"
)

// Proposer receives a candidate replacement for the value currently under
// mutation. The mutator turns it into a full edited tree.
type Proposer func(v core.Value)

// Distribution is a named plug-in producing and mutating values.
type Distribution interface {
	Name() string
	// MinimalValue builds the smallest value of this distribution. The
	// zipper gives position context; ptr must be carried on the result.
	MinimalValue(ptr core.DistPtr, z core.Zipper) (core.Value, error)
	// Mutate proposes replacements for v.
	Mutate(v core.Value, z core.Zipper, propose Proposer)
}

// Registry maps plug-in names to distributions.
type Registry struct {
	dists map[string]Distribution
}

// NewRegistry returns a registry pre-populated with the built-in plug-ins.
func NewRegistry() *Registry {
	r := &Registry{dists: make(map[string]Distribution)}
	r.Register(&scopeDist{})
	r.Register(&constructIDDist{})
	r.Register(&arnDist{})
	return r
}

// Register adds or replaces a plug-in under its name.
func (r *Registry) Register(d Distribution) {
	r.dists[d.Name()] = d
}

// Lookup returns the plug-in registered under name.
func (r *Registry) Lookup(name string) (Distribution, error) {
	d, ok := r.dists[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, core.ErrUnknownCustom)
	}
	return d, nil
}

// scopeDist produces the opaque host-provided root object.
type scopeDist struct{}

func (*scopeDist) Name() string { return "scope" }

func (*scopeDist) MinimalValue(ptr core.DistPtr, _ core.Zipper) (core.Value, error) {
	return &core.ScopeValue{DistPtr: ptr}, nil
}

func (*scopeDist) Mutate(core.Value, core.Zipper, Proposer) {
	// There is exactly one scope; nothing to propose.
}

// constructIDDist hands out construct identifiers that are fresh per call,
// so sibling candidates never collide on an id inside the same parent.
type constructIDDist struct {
	counter int
}

func (*constructIDDist) Name() string { return "construct-id" }

func (d *constructIDDist) MinimalValue(ptr core.DistPtr, _ core.Zipper) (core.Value, error) {
	v := core.String(d.fresh())
	v.DistPtr = ptr
	return v, nil
}

func (d *constructIDDist) Mutate(v core.Value, _ core.Zipper, propose Proposer) {
	ptr, _ := core.Ptr(v)
	next := core.String(d.fresh())
	next.DistPtr = ptr
	propose(next)
}

func (d *constructIDDist) fresh() string {
	d.counter++
	return fmt.Sprintf("MyConstruct%d", d.counter)
}

// arnDist produces syntactically valid ARN strings. Parameters whose names
// hint at ARNs reject random fillers in practice, so a recognizable shape
// beats a random string.
type arnDist struct{}

const defaultArn = "arn:aws:service:us-east-1:111122223333:resource/Default"

var arnVariants = []string{
	"arn:aws:service:eu-west-1:111122223333:resource/Default",
	"arn:aws:service:us-east-1:444455556666:resource/Default",
	"arn:aws:service:us-east-1:111122223333:resource/Other",
}

func (*arnDist) Name() string { return "arn" }

func (*arnDist) MinimalValue(ptr core.DistPtr, _ core.Zipper) (core.Value, error) {
	v := core.String(defaultArn)
	v.DistPtr = ptr
	return v, nil
}

func (*arnDist) Mutate(v core.Value, _ core.Zipper, propose Proposer) {
	ptr, _ := core.Ptr(v)
	cur, _ := v.(*core.PrimitiveValue)
	for _, alt := range arnVariants {
		if cur != nil && cur.Str == alt {
			continue
		}
		next := core.String(alt)
		next.DistPtr = ptr
		propose(next)
	}
}
