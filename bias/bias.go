// Package bias hosts the policy hook that rewrites freshly extracted fqn
// sources given their position context. Policies are pure: they may record
// new distributions in the registry but never mutate existing ones.
package bias

import (
	"strings"

	"github.com/rix0rrr/cdk-reflect/model"
)

// Biaser rewrites an FqnSource after extraction. Returning the input
// unchanged is the common case.
type Biaser interface {
	Bias(src model.FqnSource, reg *model.Registry) (model.FqnSource, error)
}

// Chain applies biasers in order, feeding each the previous output.
type Chain []Biaser

func (c Chain) Bias(src model.FqnSource, reg *model.Registry) (model.FqnSource, error) {
	var err error
	for _, b := range c {
		src, err = b.Bias(src, reg)
		if err != nil {
			return nil, err
		}
	}
	return src, nil
}

// None is the identity biaser.
type None struct{}

func (None) Bias(src model.FqnSource, _ *model.Registry) (model.FqnSource, error) {
	return src, nil
}

// Default returns the out-of-the-box policy chain.
func Default() Biaser {
	return Chain{NewConstructShape(nil), NameHints{}}
}

// ConstructShape recognizes the construct constructor shape: a first
// parameter named "scope" typed by a construct-scope interface, and a second
// string parameter named "id". Both get custom sources so generated trees
// anchor to the host root with collision-free identifiers.
type ConstructShape struct {
	scopeInterfaces map[string]bool
}

// NewConstructShape builds the policy. With a nil set, any interface FQN
// ending in ".IConstruct" or ".Construct" counts as a scope type.
func NewConstructShape(scopeInterfaces []string) *ConstructShape {
	if scopeInterfaces == nil {
		return &ConstructShape{}
	}
	set := make(map[string]bool, len(scopeInterfaces))
	for _, fqn := range scopeInterfaces {
		set[fqn] = true
	}
	return &ConstructShape{scopeInterfaces: set}
}

func (c *ConstructShape) Bias(src model.FqnSource, reg *model.Registry) (model.FqnSource, error) {
	ctor, ok := src.(model.CtorSource)
	if !ok || len(ctor.Parameters) == 0 {
		return src, nil
	}
	first := ctor.Parameters[0]
	if first.Name != "scope" || !c.distHasScopeType(first.Dist, reg) {
		return src, nil
	}

	params := make([]model.ParameterSource, len(ctor.Parameters))
	copy(params, ctor.Parameters)

	scopeRef, err := reg.RecordDistribution([]model.ValueSource{model.CustomSource{Name: "scope"}})
	if err != nil {
		return nil, err
	}
	params[0].Dist = scopeRef

	if len(params) > 1 && params[1].Name == "id" && distHasStringPrimitive(params[1].Dist, reg) {
		idRef, err := reg.RecordDistribution([]model.ValueSource{model.CustomSource{Name: "construct-id"}})
		if err != nil {
			return nil, err
		}
		params[1].Dist = idRef
	}

	ctor.Parameters = params
	return ctor, nil
}

func (c *ConstructShape) distHasScopeType(ref model.DistRef, reg *model.Registry) bool {
	sources, err := reg.LookupDist(ref)
	if err != nil {
		return false
	}
	for _, s := range sources {
		fr, ok := s.(model.FqnRef)
		if !ok {
			continue
		}
		if c.scopeInterfaces != nil {
			if c.scopeInterfaces[fr.FQN] {
				return true
			}
			continue
		}
		if strings.HasSuffix(fr.FQN, ".IConstruct") || strings.HasSuffix(fr.FQN, ".Construct") {
			return true
		}
	}
	return false
}

// NameHints rewrites string parameters whose names carry semantic hints.
// Currently: any parameter whose lowercased name contains "arn" gets the
// constant-string "arn" custom source.
type NameHints struct{}

func (NameHints) Bias(src model.FqnSource, reg *model.Registry) (model.FqnSource, error) {
	switch s := src.(type) {
	case model.CtorSource:
		params, err := rewriteArnParams(s.Parameters, reg)
		if err != nil {
			return nil, err
		}
		s.Parameters = params
		return s, nil
	case model.StaticMethodSource:
		params, err := rewriteArnParams(s.Parameters, reg)
		if err != nil {
			return nil, err
		}
		s.Parameters = params
		return s, nil
	}
	return src, nil
}

func rewriteArnParams(params []model.ParameterSource, reg *model.Registry) ([]model.ParameterSource, error) {
	out := make([]model.ParameterSource, len(params))
	copy(out, params)
	for i, p := range out {
		if !strings.Contains(strings.ToLower(p.Name), "arn") {
			continue
		}
		if !distHasStringPrimitive(p.Dist, reg) {
			continue
		}
		sources := []model.ValueSource{model.CustomSource{Name: "arn"}}
		if distHasNoValue(p.Dist, reg) {
			sources = append([]model.ValueSource{model.NoValueSource{}}, sources...)
		}
		ref, err := reg.RecordDistribution(sources)
		if err != nil {
			return nil, err
		}
		out[i].Dist = ref
	}
	return out, nil
}

func distHasStringPrimitive(ref model.DistRef, reg *model.Registry) bool {
	sources, err := reg.LookupDist(ref)
	if err != nil {
		return false
	}
	for _, s := range sources {
		if p, ok := s.(model.PrimitiveSource); ok && p.Name == "string" {
			return true
		}
	}
	return false
}

func distHasNoValue(ref model.DistRef, reg *model.Registry) bool {
	sources, err := reg.LookupDist(ref)
	if err != nil {
		return false
	}
	for _, s := range sources {
		if _, ok := s.(model.NoValueSource); ok {
			return true
		}
	}
	return false
}
