package core

import (
	"fmt"
	"strings"
)

// Loc is a single zipper frame: a reference to a compound parent node plus a
// locator within it. Frames rebuild the parent when the focused child is
// replaced or removed.
type Loc interface {
	// Replace returns a copy of the parent with the located slot set to
	// child. An index equal to the current length appends.
	Replace(child Value) Value
	// Remove returns a copy of the parent without the located slot. Arrays
	// and argument lists re-index; structs and maps drop the entry.
	Remove() Value
	// String renders the locator for diagnostics.
	String() string
}

// Zipper is a stack of frames from the root (first) down to the focus
// (last). The empty zipper focuses the root itself.
type Zipper []Loc

// Descend returns a new zipper one frame deeper. The receiver is not
// mutated.
func (z Zipper) Descend(loc Loc) Zipper {
	out := make(Zipper, len(z)+1)
	copy(out, z)
	out[len(z)] = loc
	return out
}

// Set rebuilds the tree along the focus path with v at the focus and returns
// the new root. The input tree is untouched.
func (z Zipper) Set(v Value) Value {
	for i := len(z) - 1; i >= 0; i-- {
		v = z[i].Replace(v)
	}
	return v
}

// Delete removes the focused slot and returns the new root. Deleting at the
// root (empty zipper) is an error.
func (z Zipper) Delete() (Value, error) {
	if len(z) == 0 {
		return nil, fmt.Errorf("cannot delete the root value")
	}
	v := z[len(z)-1].Remove()
	for i := len(z) - 2; i >= 0; i-- {
		v = z[i].Replace(v)
	}
	return v, nil
}

// Path renders the focus path, e.g. ".args[1].props.name".
func (z Zipper) Path() string {
	if len(z) == 0 {
		return "."
	}
	parts := make([]string, len(z))
	for i, loc := range z {
		parts[i] = loc.String()
	}
	return strings.Join(parts, "")
}

// ClassArgLoc focuses argument Index of a ClassInstantiation.
type ClassArgLoc struct {
	Parent *ClassInstantiation
	Index  int
}

func (l ClassArgLoc) Replace(child Value) Value {
	c := *l.Parent
	c.Arguments = replaceAt(l.Parent.Arguments, l.Index, child)
	return &c
}

func (l ClassArgLoc) Remove() Value {
	c := *l.Parent
	c.Arguments = removeAt(l.Parent.Arguments, l.Index)
	return &c
}

func (l ClassArgLoc) String() string { return fmt.Sprintf(".args[%d]", l.Index) }

// StaticArgLoc focuses argument Index of a StaticMethodCall.
type StaticArgLoc struct {
	Parent *StaticMethodCall
	Index  int
}

func (l StaticArgLoc) Replace(child Value) Value {
	c := *l.Parent
	c.Arguments = replaceAt(l.Parent.Arguments, l.Index, child)
	return &c
}

func (l StaticArgLoc) Remove() Value {
	c := *l.Parent
	c.Arguments = removeAt(l.Parent.Arguments, l.Index)
	return &c
}

func (l StaticArgLoc) String() string { return fmt.Sprintf(".args[%d]", l.Index) }

// StructFieldLoc focuses the named field of a StructLiteral.
type StructFieldLoc struct {
	Parent *StructLiteral
	Field  string
}

func (l StructFieldLoc) Replace(child Value) Value {
	c := *l.Parent
	c.Entries = l.Parent.Entries.Set(l.Field, child)
	return &c
}

func (l StructFieldLoc) Remove() Value {
	c := *l.Parent
	c.Entries = l.Parent.Entries.Delete(l.Field)
	return &c
}

func (l StructFieldLoc) String() string { return "." + l.Field }

// MapEntryLoc focuses the entry under Key of a MapLiteral.
type MapEntryLoc struct {
	Parent *MapLiteral
	Key    string
}

func (l MapEntryLoc) Replace(child Value) Value {
	c := *l.Parent
	c.Entries = l.Parent.Entries.Set(l.Key, child)
	return &c
}

func (l MapEntryLoc) Remove() Value {
	c := *l.Parent
	c.Entries = l.Parent.Entries.Delete(l.Key)
	return &c
}

func (l MapEntryLoc) String() string { return fmt.Sprintf("[%q]", l.Key) }

// ArrayElemLoc focuses element Index of an ArrayValue.
type ArrayElemLoc struct {
	Parent *ArrayValue
	Index  int
}

func (l ArrayElemLoc) Replace(child Value) Value {
	c := *l.Parent
	c.Elements = replaceAt(l.Parent.Elements, l.Index, child)
	return &c
}

func (l ArrayElemLoc) Remove() Value {
	c := *l.Parent
	c.Elements = removeAt(l.Parent.Elements, l.Index)
	return &c
}

func (l ArrayElemLoc) String() string { return fmt.Sprintf("[%d]", l.Index) }

func replaceAt(xs []Value, i int, v Value) []Value {
	out := make([]Value, len(xs), len(xs)+1)
	copy(out, xs)
	if i == len(out) {
		return append(out, v)
	}
	out[i] = v
	return out
}

func removeAt(xs []Value, i int) []Value {
	out := make([]Value, 0, len(xs)-1)
	out = append(out, xs[:i]...)
	return append(out, xs[i+1:]...)
}
