package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// hashWidth is the number of hex characters kept from a sha256 digest when
// content-addressing values and distributions.
const hashWidth = 12

type jsonValue struct {
	Kind           Kind           `json:"kind"`
	DistPtr        *DistPtr       `json:"distPtr,omitempty"`
	FQN            string         `json:"fqn,omitempty"`
	StaticMethod   string         `json:"staticMethod,omitempty"`
	StaticProperty string         `json:"staticProperty,omitempty"`
	TargetFQN      string         `json:"targetFqn,omitempty"`
	ParameterNames []string       `json:"parameterNames,omitempty"`
	Arguments      []*jsonValue   `json:"arguments,omitempty"`
	Entries        []jsonEntry    `json:"entries,omitempty"`
	Elements       []*jsonValue   `json:"elements,omitempty"`
	Primitive      *jsonPrimitive `json:"primitive,omitempty"`
	Name           string         `json:"name,omitempty"`
}

type jsonEntry struct {
	Key   string     `json:"key"`
	Value *jsonValue `json:"value"`
}

type jsonPrimitive struct {
	Type    PrimitiveType `json:"type"`
	String  string        `json:"string,omitempty"`
	Number  float64       `json:"number,omitempty"`
	Boolean bool          `json:"boolean,omitempty"`
	Date    string        `json:"date,omitempty"`
}

// MarshalValue serializes v with every variant tag and DistPtr preserved.
func MarshalValue(v Value) ([]byte, error) {
	return json.Marshal(toJSON(v))
}

// MarshalValueIndent is MarshalValue with indentation for files meant to be
// read by people.
func MarshalValueIndent(v Value) ([]byte, error) {
	return json.MarshalIndent(toJSON(v), "", "  ")
}

// UnmarshalValue is the inverse of MarshalValue.
func UnmarshalValue(data []byte) (Value, error) {
	var jv jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	return fromJSON(&jv)
}

// HashValue returns the truncated hex sha256 of the canonical JSON form of
// v. The JSON form includes DistPtrs, so values that are Equal but carry
// different DistPtrs hash differently.
func HashValue(v Value) string {
	data, err := MarshalValue(v)
	if err != nil {
		// Marshalling the IR cannot fail for well-formed trees.
		panic(fmt.Sprintf("hash value: %v", err))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:hashWidth]
}

func toJSON(v Value) *jsonValue {
	if v == nil {
		return nil
	}
	out := &jsonValue{Kind: v.Kind()}
	if ptr, ok := Ptr(v); ok {
		p := ptr
		out.DistPtr = &p
	}
	switch n := v.(type) {
	case *ClassInstantiation:
		out.FQN = n.FQN
		out.ParameterNames = n.ParameterNames
		out.Arguments = valuesToJSON(n.Arguments)
	case *StaticMethodCall:
		out.FQN = n.FQN
		out.StaticMethod = n.StaticMethod
		out.TargetFQN = n.TargetFQN
		out.ParameterNames = n.ParameterNames
		out.Arguments = valuesToJSON(n.Arguments)
	case *StaticPropertyAccess:
		out.FQN = n.FQN
		out.StaticProperty = n.StaticProperty
		out.TargetFQN = n.TargetFQN
	case *StructLiteral:
		out.FQN = n.FQN
		out.Entries = entriesToJSON(n.Entries)
	case *MapLiteral:
		out.Entries = entriesToJSON(n.Entries)
	case *ArrayValue:
		out.Elements = valuesToJSON(n.Elements)
		if out.Elements == nil {
			out.Elements = []*jsonValue{}
		}
	case *PrimitiveValue:
		p := &jsonPrimitive{Type: n.Type}
		switch n.Type {
		case PrimitiveString:
			p.String = n.Str
		case PrimitiveNumber:
			p.Number = n.Num
		case PrimitiveBoolean:
			p.Boolean = n.Bool
		case PrimitiveDate:
			p.Date = n.Date.UTC().Format(time.RFC3339Nano)
		}
		out.Primitive = p
	case *NoValue, *ScopeValue:
		// tag and distPtr only
	case *Variable:
		out.Name = n.Name
	}
	return out
}

func valuesToJSON(vs []Value) []*jsonValue {
	if vs == nil {
		return nil
	}
	out := make([]*jsonValue, len(vs))
	for i, v := range vs {
		out[i] = toJSON(v)
	}
	return out
}

func entriesToJSON(e *Entries) []jsonEntry {
	out := make([]jsonEntry, 0, e.Len())
	for _, k := range e.Keys() {
		v, _ := e.Get(k)
		out = append(out, jsonEntry{Key: k, Value: toJSON(v)})
	}
	return out
}

func fromJSON(jv *jsonValue) (Value, error) {
	ptr := DistPtr{}
	if jv.DistPtr != nil {
		ptr = *jv.DistPtr
	}
	switch jv.Kind {
	case KindClassInstantiation:
		args, err := valuesFromJSON(jv.Arguments)
		if err != nil {
			return nil, err
		}
		return &ClassInstantiation{FQN: jv.FQN, ParameterNames: jv.ParameterNames, Arguments: args, DistPtr: ptr}, nil
	case KindStaticMethodCall:
		args, err := valuesFromJSON(jv.Arguments)
		if err != nil {
			return nil, err
		}
		return &StaticMethodCall{
			FQN: jv.FQN, StaticMethod: jv.StaticMethod, TargetFQN: jv.TargetFQN,
			ParameterNames: jv.ParameterNames, Arguments: args, DistPtr: ptr,
		}, nil
	case KindStaticPropertyAccess:
		return &StaticPropertyAccess{FQN: jv.FQN, StaticProperty: jv.StaticProperty, TargetFQN: jv.TargetFQN, DistPtr: ptr}, nil
	case KindStructLiteral:
		entries, err := entriesFromJSON(jv.Entries)
		if err != nil {
			return nil, err
		}
		return &StructLiteral{FQN: jv.FQN, Entries: entries, DistPtr: ptr}, nil
	case KindMapLiteral:
		entries, err := entriesFromJSON(jv.Entries)
		if err != nil {
			return nil, err
		}
		return &MapLiteral{Entries: entries, DistPtr: ptr}, nil
	case KindArray:
		elems, err := valuesFromJSON(jv.Elements)
		if err != nil {
			return nil, err
		}
		if elems == nil {
			elems = []Value{}
		}
		return &ArrayValue{Elements: elems, DistPtr: ptr}, nil
	case KindPrimitive:
		if jv.Primitive == nil {
			return nil, fmt.Errorf("primitive value without payload")
		}
		p := &PrimitiveValue{Type: jv.Primitive.Type, DistPtr: ptr}
		switch jv.Primitive.Type {
		case PrimitiveString:
			p.Str = jv.Primitive.String
		case PrimitiveNumber:
			p.Num = jv.Primitive.Number
		case PrimitiveBoolean:
			p.Bool = jv.Primitive.Boolean
		case PrimitiveDate:
			t, err := time.Parse(time.RFC3339Nano, jv.Primitive.Date)
			if err != nil {
				return nil, fmt.Errorf("parse date primitive: %w", err)
			}
			p.Date = t
		default:
			return nil, fmt.Errorf("unknown primitive type %q", jv.Primitive.Type)
		}
		return p, nil
	case KindNoValue:
		return &NoValue{DistPtr: ptr}, nil
	case KindScope:
		return &ScopeValue{DistPtr: ptr}, nil
	case KindVariable:
		return &Variable{Name: jv.Name}, nil
	}
	return nil, fmt.Errorf("unknown value kind %q", jv.Kind)
}

func valuesFromJSON(jvs []*jsonValue) ([]Value, error) {
	if jvs == nil {
		return nil, nil
	}
	out := make([]Value, len(jvs))
	for i, jv := range jvs {
		v, err := fromJSON(jv)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func entriesFromJSON(jes []jsonEntry) (*Entries, error) {
	out := NewEntries()
	for _, je := range jes {
		v, err := fromJSON(je.Value)
		if err != nil {
			return nil, err
		}
		out = out.Set(je.Key, v)
	}
	return out, nil
}
