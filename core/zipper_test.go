package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipperFixture() (*ClassInstantiation, *StructLiteral) {
	props := &StructLiteral{
		FQN:     "m.Props",
		Entries: NewEntries().Set("name", String("hello")),
	}
	root := &ClassInstantiation{
		FQN:            "m.Stack",
		ParameterNames: []string{"scope", "props"},
		Arguments:      []Value{&ScopeValue{}, props},
	}
	return root, props
}

func TestZipperSetReadsBack(t *testing.T) {
	root, props := zipperFixture()

	z := Zipper{}.
		Descend(ClassArgLoc{Parent: root, Index: 1}).
		Descend(StructFieldLoc{Parent: props, Field: "name"})

	newRoot := z.Set(String("world"))

	got := newRoot.(*ClassInstantiation).Arguments[1].(*StructLiteral)
	v, ok := got.Entries.Get("name")
	require.True(t, ok)
	assert.True(t, Equal(String("world"), v))
}

func TestZipperSetDoesNotMutateInput(t *testing.T) {
	root, props := zipperFixture()
	before := Print(root)

	z := Zipper{}.
		Descend(ClassArgLoc{Parent: root, Index: 1}).
		Descend(StructFieldLoc{Parent: props, Field: "name"})
	_ = z.Set(String("world"))
	_, err := z.Delete()
	require.NoError(t, err)

	assert.Equal(t, before, Print(root))
}

func TestZipperDeleteStructEntry(t *testing.T) {
	root, props := zipperFixture()

	z := Zipper{}.
		Descend(ClassArgLoc{Parent: root, Index: 1}).
		Descend(StructFieldLoc{Parent: props, Field: "name"})
	newRoot, err := z.Delete()
	require.NoError(t, err)

	got := newRoot.(*ClassInstantiation).Arguments[1].(*StructLiteral)
	assert.Equal(t, 0, got.Entries.Len())
}

func TestZipperDeleteThenSetEqualsSetForStructs(t *testing.T) {
	_, props := zipperFixture()

	z := Zipper{}.Descend(StructFieldLoc{Parent: props, Field: "name"})

	viaSet := z.Set(String("x"))

	deleted, err := z.Delete()
	require.NoError(t, err)
	z2 := Zipper{}.Descend(StructFieldLoc{Parent: deleted.(*StructLiteral), Field: "name"})
	viaDeleteSet := z2.Set(String("x"))

	assert.True(t, Equal(viaSet, viaDeleteSet))
}

func TestZipperArrayDeleteReindexes(t *testing.T) {
	arr := &ArrayValue{Elements: []Value{Number(1), Number(2), Number(3)}}

	z := Zipper{}.Descend(ArrayElemLoc{Parent: arr, Index: 1})
	newRoot, err := z.Delete()
	require.NoError(t, err)

	got := newRoot.(*ArrayValue)
	require.Len(t, got.Elements, 2)
	assert.True(t, Equal(Number(1), got.Elements[0]))
	assert.True(t, Equal(Number(3), got.Elements[1]))
}

func TestZipperArrayDeleteThenSetAtTailRestores(t *testing.T) {
	arr := &ArrayValue{Elements: []Value{Number(1), Number(2), Number(3)}}

	z := Zipper{}.Descend(ArrayElemLoc{Parent: arr, Index: 2})
	shorter, err := z.Delete()
	require.NoError(t, err)

	z2 := Zipper{}.Descend(ArrayElemLoc{Parent: shorter.(*ArrayValue), Index: 2})
	restored := z2.Set(Number(3))
	assert.True(t, Equal(arr, restored))
}

func TestZipperAppendViaTailIndex(t *testing.T) {
	arr := &ArrayValue{Elements: []Value{Number(1)}}
	z := Zipper{}.Descend(ArrayElemLoc{Parent: arr, Index: 1})
	newRoot := z.Set(Number(2))
	assert.Equal(t, "[1, 2]", Print(newRoot))
}

func TestZipperDeleteAtRootFails(t *testing.T) {
	_, err := Zipper{}.Delete()
	assert.Error(t, err)
}

func TestZipperMapEntry(t *testing.T) {
	m := &MapLiteral{Entries: NewEntries().Set("a", Number(1))}

	z := Zipper{}.Descend(MapEntryLoc{Parent: m, Key: "b"})
	withB := z.Set(Number(2)).(*MapLiteral)
	assert.Equal(t, []string{"a", "b"}, withB.Entries.Keys())

	z2 := Zipper{}.Descend(MapEntryLoc{Parent: withB, Key: "a"})
	withoutA, err := z2.Delete()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, withoutA.(*MapLiteral).Entries.Keys())
}

func TestZipperPath(t *testing.T) {
	root, props := zipperFixture()
	z := Zipper{}.
		Descend(ClassArgLoc{Parent: root, Index: 1}).
		Descend(StructFieldLoc{Parent: props, Field: "name"})
	assert.Equal(t, ".args[1].name", z.Path())
	assert.Equal(t, ".", Zipper{}.Path())
}
