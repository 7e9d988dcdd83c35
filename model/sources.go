// Package model holds the distribution model: the universe of expressions
// that can produce each type, stored as a content-addressed table of value
// distributions plus an FQN-indexed source map.
package model

import (
	"encoding/json"
	"fmt"

	"github.com/rix0rrr/cdk-reflect/core"
)

// DistRef is a stable content-address into the distribution table.
type DistRef string

// Source is anything that can appear in a resolved distribution: every
// ValueSource except FqnRef, and every FqnSource splatted in by resolution.
type Source interface {
	isSource()
}

// ValueSource is one alternative inside a ValueDistribution.
type ValueSource interface {
	Source
	isValueSource()
}

// FqnRef defers to all registered sources of an FQN. It is inlined away by
// Registry.Resolve and never appears in resolved distributions.
type FqnRef struct {
	FQN string
}

// PrimitiveSource produces a primitive of the named type: string, number,
// boolean, date, json or any.
type PrimitiveSource struct {
	Name string
}

// NoValueSource produces explicit absence; present in distributions of
// optional parameters and fields.
type NoValueSource struct{}

// ArraySource produces an array whose elements draw from Elem.
type ArraySource struct {
	Elem DistRef
}

// MapSource produces a string-keyed map whose values draw from Elem.
type MapSource struct {
	Elem DistRef
}

// ConstantSource produces a fixed value.
type ConstantSource struct {
	Value core.Value
}

// CustomSource delegates to a named custom distribution plug-in.
type CustomSource struct {
	Name string
}

func (FqnRef) isSource()          {}
func (FqnRef) isValueSource()     {}
func (PrimitiveSource) isSource() {}

func (PrimitiveSource) isValueSource() {}
func (NoValueSource) isSource()        {}
func (NoValueSource) isValueSource()   {}
func (ArraySource) isSource()          {}
func (ArraySource) isValueSource()     {}
func (MapSource) isSource()            {}
func (MapSource) isValueSource()       {}
func (ConstantSource) isSource()       {}
func (ConstantSource) isValueSource()  {}
func (CustomSource) isSource()         {}
func (CustomSource) isValueSource()    {}

// ParameterSource names a constructor or method parameter and the
// distribution its values draw from.
type ParameterSource struct {
	Name string
	Dist DistRef
}

// FieldSource names a struct field and its distribution. Field order is the
// declaration order.
type FieldSource struct {
	Name string
	Dist DistRef
}

// FqnSource is one way to obtain a value of a specific FQN.
type FqnSource interface {
	Source
	isFqnSource()
	// SourceFQN is the declaring type of the source, for diagnostics. It is
	// not necessarily the FQN the source is registered under: sources are
	// also registered for supertypes and return types.
	SourceFQN() string
}

// CtorSource instantiates a concrete class.
type CtorSource struct {
	FQN        string
	Parameters []ParameterSource
}

// StaticMethodSource calls a static factory method on FQN returning
// TargetFQN.
type StaticMethodSource struct {
	FQN        string
	Method     string
	TargetFQN  string
	Parameters []ParameterSource
}

// StaticPropertySource reads a static readonly property (or enum member).
type StaticPropertySource struct {
	FQN       string
	Property  string
	TargetFQN string
}

// ValueObjectSource builds a struct literal field by field.
type ValueObjectSource struct {
	FQN    string
	Fields []FieldSource
}

func (CtorSource) isSource()                   {}
func (CtorSource) isFqnSource()                {}
func (s CtorSource) SourceFQN() string         { return s.FQN }
func (StaticMethodSource) isSource()           {}
func (StaticMethodSource) isFqnSource()        {}
func (s StaticMethodSource) SourceFQN() string { return s.FQN }
func (StaticPropertySource) isSource()         {}
func (StaticPropertySource) isFqnSource()      {}

func (s StaticPropertySource) SourceFQN() string { return s.FQN }
func (ValueObjectSource) isSource()              {}
func (ValueObjectSource) isFqnSource()           {}
func (s ValueObjectSource) SourceFQN() string    { return s.FQN }

type jsonSource struct {
	Kind       string            `json:"kind"`
	FQN        string            `json:"fqn,omitempty"`
	Name       string            `json:"name,omitempty"`
	Elem       DistRef           `json:"elem,omitempty"`
	Value      json.RawMessage   `json:"value,omitempty"`
	Method     string            `json:"method,omitempty"`
	Property   string            `json:"property,omitempty"`
	TargetFQN  string            `json:"targetFqn,omitempty"`
	Parameters []jsonParam       `json:"parameters,omitempty"`
	Fields     []jsonParam       `json:"fields,omitempty"`
}

type jsonParam struct {
	Name string  `json:"name"`
	Dist DistRef `json:"dist"`
}

func marshalValueSource(s ValueSource) (*jsonSource, error) {
	switch src := s.(type) {
	case FqnRef:
		return &jsonSource{Kind: "fqn", FQN: src.FQN}, nil
	case PrimitiveSource:
		return &jsonSource{Kind: "primitive", Name: src.Name}, nil
	case NoValueSource:
		return &jsonSource{Kind: "no-value"}, nil
	case ArraySource:
		return &jsonSource{Kind: "array", Elem: src.Elem}, nil
	case MapSource:
		return &jsonSource{Kind: "map", Elem: src.Elem}, nil
	case ConstantSource:
		raw, err := core.MarshalValue(src.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal constant source: %w", err)
		}
		return &jsonSource{Kind: "constant", Value: raw}, nil
	case CustomSource:
		return &jsonSource{Kind: "custom", Name: src.Name}, nil
	}
	return nil, fmt.Errorf("unknown value source %T", s)
}

func unmarshalValueSource(js *jsonSource) (ValueSource, error) {
	switch js.Kind {
	case "fqn":
		return FqnRef{FQN: js.FQN}, nil
	case "primitive":
		return PrimitiveSource{Name: js.Name}, nil
	case "no-value":
		return NoValueSource{}, nil
	case "array":
		return ArraySource{Elem: js.Elem}, nil
	case "map":
		return MapSource{Elem: js.Elem}, nil
	case "constant":
		v, err := core.UnmarshalValue(js.Value)
		if err != nil {
			return nil, fmt.Errorf("unmarshal constant source: %w", err)
		}
		return ConstantSource{Value: v}, nil
	case "custom":
		return CustomSource{Name: js.Name}, nil
	}
	return nil, fmt.Errorf("unknown value source kind %q", js.Kind)
}

func marshalFqnSource(s FqnSource) (*jsonSource, error) {
	switch src := s.(type) {
	case CtorSource:
		return &jsonSource{Kind: "ctor", FQN: src.FQN, Parameters: paramsToJSON(src.Parameters)}, nil
	case StaticMethodSource:
		return &jsonSource{
			Kind: "static-method", FQN: src.FQN, Method: src.Method,
			TargetFQN: src.TargetFQN, Parameters: paramsToJSON(src.Parameters),
		}, nil
	case StaticPropertySource:
		return &jsonSource{Kind: "static-property", FQN: src.FQN, Property: src.Property, TargetFQN: src.TargetFQN}, nil
	case ValueObjectSource:
		fields := make([]jsonParam, len(src.Fields))
		for i, f := range src.Fields {
			fields[i] = jsonParam{Name: f.Name, Dist: f.Dist}
		}
		return &jsonSource{Kind: "value-object", FQN: src.FQN, Fields: fields}, nil
	}
	return nil, fmt.Errorf("unknown fqn source %T", s)
}

func unmarshalFqnSource(js *jsonSource) (FqnSource, error) {
	switch js.Kind {
	case "ctor":
		return CtorSource{FQN: js.FQN, Parameters: paramsFromJSON(js.Parameters)}, nil
	case "static-method":
		return StaticMethodSource{
			FQN: js.FQN, Method: js.Method, TargetFQN: js.TargetFQN,
			Parameters: paramsFromJSON(js.Parameters),
		}, nil
	case "static-property":
		return StaticPropertySource{FQN: js.FQN, Property: js.Property, TargetFQN: js.TargetFQN}, nil
	case "value-object":
		fields := make([]FieldSource, len(js.Fields))
		for i, f := range js.Fields {
			fields[i] = FieldSource{Name: f.Name, Dist: f.Dist}
		}
		return ValueObjectSource{FQN: js.FQN, Fields: fields}, nil
	}
	return nil, fmt.Errorf("unknown fqn source kind %q", js.Kind)
}

func paramsToJSON(ps []ParameterSource) []jsonParam {
	out := make([]jsonParam, len(ps))
	for i, p := range ps {
		out[i] = jsonParam{Name: p.Name, Dist: p.Dist}
	}
	return out
}

func paramsFromJSON(js []jsonParam) []ParameterSource {
	out := make([]ParameterSource, len(js))
	for i, p := range js {
		out[i] = ParameterSource{Name: p.Name, Dist: p.Dist}
	}
	return out
}
