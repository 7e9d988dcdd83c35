// Package extract converts a normalized type registry into the distribution
// model: every class constructor, static factory, static property, enum
// member and data interface becomes a value source for the types it can
// produce.
package extract

import (
	"log/slog"

	"github.com/rix0rrr/cdk-reflect/bias"
	"github.com/rix0rrr/cdk-reflect/model"
	"github.com/rix0rrr/cdk-reflect/typereg"
)

// Extractor walks a type registry and emits a distribution model.
type Extractor struct {
	biaser bias.Biaser
	log    *slog.Logger
}

// New creates an extractor with the given biaser. A nil biaser means no
// rewriting.
func New(biaser bias.Biaser, log *slog.Logger) *Extractor {
	if biaser == nil {
		biaser = bias.None{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{biaser: biaser, log: log}
}

// ExtractDistributions converts types into a distribution model using the
// default biaser policies.
func ExtractDistributions(types *typereg.Registry) (*model.Registry, error) {
	return New(bias.Default(), nil).Extract(types)
}

// Extract builds the distribution model. Iteration follows the registry's
// registration order, so equal inputs yield equal models.
func (e *Extractor) Extract(types *typereg.Registry) (*model.Registry, error) {
	out := model.NewRegistry()
	for _, fqn := range types.FQNs() {
		t, _ := types.Lookup(fqn)
		var err error
		switch t.Kind {
		case typereg.KindClass:
			err = e.extractClass(types, t, out)
		case typereg.KindEnum:
			e.extractEnum(t, out)
		case typereg.KindInterface:
			if t.DataType {
				err = e.extractStruct(types, t, out)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *Extractor) extractClass(types *typereg.Registry, t *typereg.Type, out *model.Registry) error {
	if !t.Abstract && t.Initializer != nil && !t.Initializer.Protected {
		params, err := e.paramSources(t.Initializer.Params, out)
		if err != nil {
			return err
		}
		src, err := e.biaser.Bias(model.CtorSource{FQN: t.FQN, Parameters: params}, out)
		if err != nil {
			return err
		}
		// A class is a source for itself and for every supertype.
		out.AddFqnSource(t.FQN, src)
		for _, super := range types.Supertypes(t.FQN) {
			out.AddFqnSource(super, src)
		}
	}

	for _, m := range t.Methods {
		if !m.Static || m.Returns == nil || m.Returns.FQN == "" {
			continue
		}
		params, err := e.paramSources(m.Params, out)
		if err != nil {
			return err
		}
		src, err := e.biaser.Bias(model.StaticMethodSource{
			FQN: t.FQN, Method: m.Name, TargetFQN: m.Returns.FQN, Parameters: params,
		}, out)
		if err != nil {
			return err
		}
		// Static factories register for the declared return type and, when
		// that type is a class, its class ancestors. Interfaces of the
		// return type deliberately get nothing.
		out.AddFqnSource(m.Returns.FQN, src)
		if ret, ok := types.Lookup(m.Returns.FQN); ok && ret.Kind == typereg.KindClass {
			for _, anc := range types.Ancestors(m.Returns.FQN) {
				out.AddFqnSource(anc, src)
			}
		}
	}

	for _, p := range t.Properties {
		if !p.Static || !p.Immutable || p.Type.FQN == "" {
			continue
		}
		src, err := e.biaser.Bias(model.StaticPropertySource{
			FQN: t.FQN, Property: p.Name, TargetFQN: p.Type.FQN,
		}, out)
		if err != nil {
			return err
		}
		out.AddFqnSource(p.Type.FQN, src)
	}
	return nil
}

func (e *Extractor) extractEnum(t *typereg.Type, out *model.Registry) {
	for _, member := range t.Members {
		out.AddFqnSource(t.FQN, model.StaticPropertySource{
			FQN: t.FQN, Property: member, TargetFQN: t.FQN,
		})
	}
}

// extractStruct emits a ValueObjectSource for a data interface. An
// unrepresentable required field culls the whole struct; unrepresentable
// optional fields are dropped individually.
func (e *Extractor) extractStruct(types *typereg.Registry, t *typereg.Type, out *model.Registry) error {
	fields := make([]model.FieldSource, 0, len(t.Fields))
	for _, f := range t.Fields {
		if !types.Representable(f.Type) {
			if !f.Optional {
				e.log.Warn("culling struct: required field not representable",
					"struct", t.FQN, "field", f.Name)
				return nil
			}
			e.log.Warn("dropping optional field: not representable",
				"struct", t.FQN, "field", f.Name)
			continue
		}
		ref, err := e.distFor(f.Type, f.Optional, out)
		if err != nil {
			return err
		}
		fields = append(fields, model.FieldSource{Name: f.Name, Dist: ref})
	}
	src, err := e.biaser.Bias(model.ValueObjectSource{FQN: t.FQN, Fields: fields}, out)
	if err != nil {
		return err
	}
	out.AddFqnSource(t.FQN, src)
	for _, super := range types.Supertypes(t.FQN) {
		out.AddFqnSource(super, src)
	}
	return nil
}

func (e *Extractor) paramSources(params []typereg.Param, out *model.Registry) ([]model.ParameterSource, error) {
	result := make([]model.ParameterSource, len(params))
	for i, p := range params {
		ref, err := e.distFor(p.Type, p.Optional, out)
		if err != nil {
			return nil, err
		}
		result[i] = model.ParameterSource{Name: p.Name, Dist: ref}
	}
	return result, nil
}

// distFor records the value distribution for a type reference. Optional
// positions get the NoValue alternative first, so minimal generation picks
// absence before recursing.
func (e *Extractor) distFor(tr typereg.TypeRef, optional bool, out *model.Registry) (model.DistRef, error) {
	sources, err := e.typeRefSources(tr, out)
	if err != nil {
		return "", err
	}
	if optional {
		sources = append([]model.ValueSource{model.NoValueSource{}}, sources...)
	}
	return out.RecordDistribution(sources)
}

func (e *Extractor) typeRefSources(tr typereg.TypeRef, out *model.Registry) ([]model.ValueSource, error) {
	switch {
	case tr.Primitive != "":
		return []model.ValueSource{model.PrimitiveSource{Name: tr.Primitive}}, nil
	case tr.FQN != "":
		return []model.ValueSource{model.FqnRef{FQN: tr.FQN}}, nil
	case tr.ArrayOf != nil:
		elem, err := e.distFor(*tr.ArrayOf, false, out)
		if err != nil {
			return nil, err
		}
		return []model.ValueSource{model.ArraySource{Elem: elem}}, nil
	case tr.MapOf != nil:
		elem, err := e.distFor(*tr.MapOf, false, out)
		if err != nil {
			return nil, err
		}
		return []model.ValueSource{model.MapSource{Elem: elem}}, nil
	case len(tr.UnionOf) > 0:
		var sources []model.ValueSource
		for _, branch := range tr.UnionOf {
			sub, err := e.typeRefSources(*branch, out)
			if err != nil {
				return nil, err
			}
			sources = append(sources, sub...)
		}
		return sources, nil
	}
	// An empty type reference produces nothing; resolution reports it.
	return nil, nil
}
