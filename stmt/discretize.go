// Package stmt turns a nested expression into a flat sequence of
// statements: nested instantiations and static calls are extracted to named
// bindings, everything else stays inline.
package stmt

import (
	"fmt"
	"strings"

	"github.com/rix0rrr/cdk-reflect/core"
)

// Statement is either an Assignment or an ExpressionStmt.
type Statement interface {
	stmt()
}

// Assignment binds the result of Value to Name. Names bind exactly once.
type Assignment struct {
	Name  string
	Value core.Value
}

func (*Assignment) stmt() {}

// ExpressionStmt evaluates Value for its artifact.
type ExpressionStmt struct {
	Value core.Value
}

func (*ExpressionStmt) stmt() {}

// Discretize flattens v into assignments followed by a final expression.
// Nested ClassInstantiations and StaticMethodCalls become bindings named
// after their type with a disambiguating counter; the top-level node stays
// inline. A terminal value that is itself a variable collapses its defining
// assignment back into the trailing expression.
func Discretize(v core.Value) []Statement {
	d := &discretizer{counts: make(map[string]int)}
	top := d.rebuild(v, true)
	if vr, ok := top.(*core.Variable); ok && len(d.out) > 0 {
		if last, ok := d.out[len(d.out)-1].(*Assignment); ok && last.Name == vr.Name {
			d.out = d.out[:len(d.out)-1]
			top = last.Value
		}
	}
	return append(d.out, &ExpressionStmt{Value: top})
}

// Print renders statements one per line.
func Print(stmts []Statement) string {
	var b strings.Builder
	for i, s := range stmts {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch st := s.(type) {
		case *Assignment:
			b.WriteString(st.Name)
			b.WriteString(" = ")
			b.WriteString(core.Print(st.Value))
		case *ExpressionStmt:
			b.WriteString(core.Print(st.Value))
		}
	}
	return b.String()
}

type discretizer struct {
	out    []Statement
	counts map[string]int
}

func (d *discretizer) rebuild(v core.Value, topLevel bool) core.Value {
	switch n := v.(type) {
	case *core.ClassInstantiation:
		c := *n
		c.Arguments = d.rebuildAll(n.Arguments)
		if topLevel {
			return &c
		}
		return d.extract(n.FQN, &c)

	case *core.StaticMethodCall:
		c := *n
		c.Arguments = d.rebuildAll(n.Arguments)
		if topLevel {
			return &c
		}
		// The binding names the value the call produces.
		fqn := n.TargetFQN
		if fqn == "" {
			fqn = n.FQN
		}
		return d.extract(fqn, &c)

	case *core.StructLiteral:
		c := *n
		c.Entries = d.rebuildEntries(n.Entries)
		return &c

	case *core.MapLiteral:
		c := *n
		c.Entries = d.rebuildEntries(n.Entries)
		return &c

	case *core.ArrayValue:
		c := *n
		c.Elements = d.rebuildAll(n.Elements)
		return &c
	}
	return v
}

func (d *discretizer) extract(fqn string, v core.Value) core.Value {
	name := d.freshName(fqn)
	d.out = append(d.out, &Assignment{Name: name, Value: v})
	return &core.Variable{Name: name}
}

func (d *discretizer) rebuildAll(vs []core.Value) []core.Value {
	out := make([]core.Value, len(vs))
	for i, v := range vs {
		out[i] = d.rebuild(v, false)
	}
	return out
}

func (d *discretizer) rebuildEntries(e *core.Entries) *core.Entries {
	out := core.NewEntries()
	for _, k := range e.Keys() {
		v, _ := e.Get(k)
		out = out.Set(k, d.rebuild(v, false))
	}
	return out
}

func (d *discretizer) freshName(fqn string) string {
	base := lcFirst(simpleName(fqn))
	d.counts[base]++
	return fmt.Sprintf("%s%d", base, d.counts[base])
}

func simpleName(fqn string) string {
	idx := strings.LastIndex(fqn, ".")
	return fqn[idx+1:]
}

func lcFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
