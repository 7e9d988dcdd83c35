// Package typereg holds the normalized type registry the extractor consumes:
// classes with constructors and static members, data interfaces, enums, and
// the type references between them. Loading from assembly formats happens
// elsewhere; this package models, loads (from YAML or JSON registry files)
// and merges already-normalized data.
package typereg

import (
	"fmt"
	"strings"
)

// TypeKind discriminates registry entries.
type TypeKind string

const (
	KindClass     TypeKind = "class"
	KindEnum      TypeKind = "enum"
	KindInterface TypeKind = "interface"
)

// TypeRef references a type in a parameter, field, property or return
// position. Exactly one of the branches is set.
type TypeRef struct {
	Primitive string     `json:"primitive,omitempty" yaml:"primitive,omitempty"` // string|number|boolean|date|json|any
	FQN       string     `json:"fqn,omitempty" yaml:"fqn,omitempty"`
	ArrayOf   *TypeRef   `json:"arrayOf,omitempty" yaml:"arrayOf,omitempty"`
	MapOf     *TypeRef   `json:"mapOf,omitempty" yaml:"mapOf,omitempty"`
	UnionOf   []*TypeRef `json:"unionOf,omitempty" yaml:"unionOf,omitempty"`
}

// Param is a constructor or method parameter.
type Param struct {
	Name     string  `json:"name" yaml:"name"`
	Type     TypeRef `json:"type" yaml:"type"`
	Optional bool    `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// Callable is a constructor signature.
type Callable struct {
	Protected bool    `json:"protected,omitempty" yaml:"protected,omitempty"`
	Params    []Param `json:"params,omitempty" yaml:"params,omitempty"`
}

// Method is a member method; only static methods with a declared return
// type contribute value sources.
type Method struct {
	Name    string   `json:"name" yaml:"name"`
	Static  bool     `json:"static,omitempty" yaml:"static,omitempty"`
	Returns *TypeRef `json:"returns,omitempty" yaml:"returns,omitempty"`
	Params  []Param  `json:"params,omitempty" yaml:"params,omitempty"`
}

// Property is a member property; only static immutable properties
// contribute value sources.
type Property struct {
	Name      string  `json:"name" yaml:"name"`
	Static    bool    `json:"static,omitempty" yaml:"static,omitempty"`
	Immutable bool    `json:"immutable,omitempty" yaml:"immutable,omitempty"`
	Type      TypeRef `json:"type" yaml:"type"`
}

// Field is a data-interface (struct) field in declaration order.
type Field struct {
	Name     string  `json:"name" yaml:"name"`
	Type     TypeRef `json:"type" yaml:"type"`
	Optional bool    `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// Type is a single registry entry.
type Type struct {
	FQN        string     `json:"fqn" yaml:"fqn"`
	Kind       TypeKind   `json:"kind" yaml:"kind"`
	Abstract   bool       `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Base       string     `json:"base,omitempty" yaml:"base,omitempty"`
	Interfaces []string   `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	Initializer *Callable `json:"initializer,omitempty" yaml:"initializer,omitempty"`
	Methods    []Method   `json:"methods,omitempty" yaml:"methods,omitempty"`
	Properties []Property `json:"properties,omitempty" yaml:"properties,omitempty"`
	Members    []string   `json:"members,omitempty" yaml:"members,omitempty"`    // enum members
	DataType   bool       `json:"dataType,omitempty" yaml:"dataType,omitempty"` // data interface (struct)
	Fields     []Field    `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// SimpleName returns the last FQN segment.
func (t *Type) SimpleName() string {
	idx := strings.LastIndex(t.FQN, ".")
	return t.FQN[idx+1:]
}

// Assembly is one normalized registry file.
type Assembly struct {
	Name  string  `json:"name" yaml:"name"`
	Types []*Type `json:"types" yaml:"types"`
}

// Registry is a merged set of assemblies indexed by FQN.
type Registry struct {
	types map[string]*Type
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*Type)}
}

// Add merges an assembly. Duplicate FQNs across assemblies are an error.
func (r *Registry) Add(asm *Assembly) error {
	for _, t := range asm.Types {
		if t.FQN == "" {
			return fmt.Errorf("assembly %s: type without fqn", asm.Name)
		}
		if _, exists := r.types[t.FQN]; exists {
			return fmt.Errorf("assembly %s: duplicate type %s", asm.Name, t.FQN)
		}
		r.types[t.FQN] = t
		r.order = append(r.order, t.FQN)
	}
	return nil
}

// Lookup returns the type registered under fqn.
func (r *Registry) Lookup(fqn string) (*Type, bool) {
	t, ok := r.types[fqn]
	return t, ok
}

// FQNs returns every registered FQN in registration order.
func (r *Registry) FQNs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Ancestors returns the base-class chain of fqn, nearest first. Unknown
// bases terminate the chain.
func (r *Registry) Ancestors(fqn string) []string {
	var out []string
	seen := map[string]bool{fqn: true}
	t, ok := r.types[fqn]
	for ok && t.Base != "" && !seen[t.Base] {
		out = append(out, t.Base)
		seen[t.Base] = true
		t, ok = r.types[t.Base]
	}
	return out
}

// Supertypes returns every ancestor class and every transitively implemented
// or extended interface of fqn, deduplicated, nearest first.
func (r *Registry) Supertypes(fqn string) []string {
	var out []string
	seen := map[string]bool{fqn: true}
	var visit func(fqn string)
	visit = func(fqn string) {
		t, ok := r.types[fqn]
		if !ok {
			return
		}
		if t.Base != "" && !seen[t.Base] {
			seen[t.Base] = true
			out = append(out, t.Base)
			visit(t.Base)
		}
		for _, iface := range t.Interfaces {
			if !seen[iface] {
				seen[iface] = true
				out = append(out, iface)
				visit(iface)
			}
		}
	}
	visit(fqn)
	return out
}

// Representable reports whether a value of tr can in principle be produced
// from this registry: known primitives, registered FQNs, arrays and maps of
// representable types, and unions with at least one representable branch.
func (r *Registry) Representable(tr TypeRef) bool {
	switch {
	case tr.Primitive != "":
		switch tr.Primitive {
		case "string", "number", "boolean", "date", "json", "any":
			return true
		}
		return false
	case tr.FQN != "":
		_, ok := r.types[tr.FQN]
		return ok
	case tr.ArrayOf != nil:
		return r.Representable(*tr.ArrayOf)
	case tr.MapOf != nil:
		return r.Representable(*tr.MapOf)
	case len(tr.UnionOf) > 0:
		for _, branch := range tr.UnionOf {
			if r.Representable(*branch) {
				return true
			}
		}
		return false
	}
	return false
}
