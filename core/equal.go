package core

// Equal reports structural equality of two values. DistPtrs are ignored: two
// equal expressions may have been produced by different alternatives.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case *ClassInstantiation:
		y := b.(*ClassInstantiation)
		return x.FQN == y.FQN &&
			stringsEqual(x.ParameterNames, y.ParameterNames) &&
			valuesEqual(x.Arguments, y.Arguments)
	case *StaticMethodCall:
		y := b.(*StaticMethodCall)
		return x.FQN == y.FQN && x.StaticMethod == y.StaticMethod &&
			x.TargetFQN == y.TargetFQN &&
			stringsEqual(x.ParameterNames, y.ParameterNames) &&
			valuesEqual(x.Arguments, y.Arguments)
	case *StaticPropertyAccess:
		y := b.(*StaticPropertyAccess)
		return x.FQN == y.FQN && x.StaticProperty == y.StaticProperty && x.TargetFQN == y.TargetFQN
	case *StructLiteral:
		y := b.(*StructLiteral)
		return x.FQN == y.FQN && entriesEqual(x.Entries, y.Entries)
	case *MapLiteral:
		y := b.(*MapLiteral)
		return entriesEqual(x.Entries, y.Entries)
	case *ArrayValue:
		y := b.(*ArrayValue)
		return valuesEqual(x.Elements, y.Elements)
	case *PrimitiveValue:
		y := b.(*PrimitiveValue)
		if x.Type != y.Type {
			return false
		}
		switch x.Type {
		case PrimitiveString:
			return x.Str == y.Str
		case PrimitiveNumber:
			return x.Num == y.Num
		case PrimitiveBoolean:
			return x.Bool == y.Bool
		case PrimitiveDate:
			return x.Date.Equal(y.Date)
		}
		return false
	case *NoValue:
		return true
	case *ScopeValue:
		return true
	case *Variable:
		return x.Name == b.(*Variable).Name
	}
	return false
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func valuesEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func entriesEqual(a, b *Entries) bool {
	if a.Len() != b.Len() {
		return false
	}
	ak, bk := a.Keys(), b.Keys()
	for i := range ak {
		if ak[i] != bk[i] {
			return false
		}
		av, _ := a.Get(ak[i])
		bv, _ := b.Get(bk[i])
		if !Equal(av, bv) {
			return false
		}
	}
	return true
}
