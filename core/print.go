package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Print renders v as a single-line pseudo-code expression. The rendering is
// stable for equal values and is the basis of content hashing display names.
func Print(v Value) string {
	var b strings.Builder
	printValue(&b, v)
	return b.String()
}

func printValue(b *strings.Builder, v Value) {
	switch n := v.(type) {
	case *ClassInstantiation:
		b.WriteString("new ")
		b.WriteString(n.FQN)
		printArgs(b, n.Arguments)
	case *StaticMethodCall:
		b.WriteString(n.FQN)
		b.WriteByte('.')
		b.WriteString(n.StaticMethod)
		printArgs(b, n.Arguments)
	case *StaticPropertyAccess:
		b.WriteString(n.FQN)
		b.WriteByte('.')
		b.WriteString(n.StaticProperty)
	case *StructLiteral:
		b.WriteString(n.FQN)
		printEntries(b, n.Entries)
	case *MapLiteral:
		printEntries(b, n.Entries)
	case *ArrayValue:
		b.WriteByte('[')
		for i, el := range n.Elements {
			if i > 0 {
				b.WriteString(", ")
			}
			printValue(b, el)
		}
		b.WriteByte(']')
	case *PrimitiveValue:
		switch n.Type {
		case PrimitiveString:
			b.WriteString(strconv.Quote(n.Str))
		case PrimitiveNumber:
			b.WriteString(strconv.FormatFloat(n.Num, 'g', -1, 64))
		case PrimitiveBoolean:
			b.WriteString(strconv.FormatBool(n.Bool))
		case PrimitiveDate:
			b.WriteString(n.Date.UTC().Format(time.RFC3339))
		}
	case *NoValue:
		b.WriteString("<nothing>")
	case *ScopeValue:
		b.WriteString("<scope>")
	case *Variable:
		b.WriteString(n.Name)
	default:
		fmt.Fprintf(b, "<unknown %T>", v)
	}
}

func printArgs(b *strings.Builder, args []Value) {
	// Trailing no-values are elided from the rendering; they stand for
	// omitted optional arguments.
	n := len(args)
	for n > 0 {
		if _, ok := args[n-1].(*NoValue); !ok {
			break
		}
		n--
	}
	b.WriteByte('(')
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		printValue(b, args[i])
	}
	b.WriteByte(')')
}

func printEntries(b *strings.Builder, e *Entries) {
	b.WriteByte('{')
	for i, k := range e.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		v, _ := e.Get(k)
		printValue(b, v)
	}
	b.WriteByte('}')
}
