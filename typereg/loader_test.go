package typereg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
name: sample
types:
  - fqn: m.IConstruct
    kind: interface
  - fqn: m.App
    kind: class
    interfaces: [m.IConstruct]
    initializer: {}
  - fqn: m.Stack
    kind: class
    interfaces: [m.IConstruct]
    initializer:
      params:
        - name: scope
          type: {fqn: m.IConstruct}
        - name: id
          type: {primitive: string}
        - name: props
          type: {fqn: m.Props}
          optional: true
  - fqn: m.Props
    kind: interface
    dataType: true
    fields:
      - name: name
        type: {primitive: string}
      - name: tags
        type:
          arrayOf: {primitive: string}
        optional: true
  - fqn: m.E
    kind: enum
    members: [A, B]
`

func TestParseAssemblyYAML(t *testing.T) {
	asm, err := ParseAssembly([]byte(sampleYAML), ".yaml")
	require.NoError(t, err)
	assert.Equal(t, "sample", asm.Name)
	require.Len(t, asm.Types, 5)

	stack := asm.Types[2]
	assert.Equal(t, "m.Stack", stack.FQN)
	assert.Equal(t, KindClass, stack.Kind)
	require.NotNil(t, stack.Initializer)
	require.Len(t, stack.Initializer.Params, 3)
	assert.True(t, stack.Initializer.Params[2].Optional)
	assert.Equal(t, "m.Props", stack.Initializer.Params[2].Type.FQN)

	props := asm.Types[3]
	assert.True(t, props.DataType)
	require.NotNil(t, props.Fields[1].Type.ArrayOf)
	assert.Equal(t, "string", props.Fields[1].Type.ArrayOf.Primitive)
}

func TestLoaderMergesFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	reg, err := NewLoader(path).Load()
	require.NoError(t, err)

	stack, ok := reg.Lookup("m.Stack")
	require.True(t, ok)
	assert.Equal(t, "Stack", stack.SimpleName())
	assert.Len(t, reg.FQNs(), 5)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add(&Assembly{Name: "a", Types: []*Type{{FQN: "m.X", Kind: KindClass}}}))
	err := reg.Add(&Assembly{Name: "b", Types: []*Type{{FQN: "m.X", Kind: KindClass}}})
	assert.Error(t, err)
}

func TestSupertypesTransitive(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add(&Assembly{Name: "a", Types: []*Type{
		{FQN: "m.IBase", Kind: KindInterface},
		{FQN: "m.IChild", Kind: KindInterface, Interfaces: []string{"m.IBase"}},
		{FQN: "m.Base", Kind: KindClass, Interfaces: []string{"m.IChild"}},
		{FQN: "m.Derived", Kind: KindClass, Base: "m.Base"},
	}}))

	supers := reg.Supertypes("m.Derived")
	assert.ElementsMatch(t, []string{"m.Base", "m.IChild", "m.IBase"}, supers)
	assert.Equal(t, []string{"m.Base"}, reg.Ancestors("m.Derived"))
}

func TestRepresentable(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add(&Assembly{Name: "a", Types: []*Type{
		{FQN: "m.X", Kind: KindClass},
	}}))

	assert.True(t, reg.Representable(TypeRef{Primitive: "string"}))
	assert.True(t, reg.Representable(TypeRef{FQN: "m.X"}))
	assert.False(t, reg.Representable(TypeRef{FQN: "m.Missing"}))
	assert.True(t, reg.Representable(TypeRef{ArrayOf: &TypeRef{FQN: "m.X"}}))
	assert.False(t, reg.Representable(TypeRef{MapOf: &TypeRef{FQN: "m.Missing"}}))
	assert.True(t, reg.Representable(TypeRef{UnionOf: []*TypeRef{
		{FQN: "m.Missing"}, {Primitive: "number"},
	}}))
	assert.False(t, reg.Representable(TypeRef{Primitive: "complex"}))
	assert.False(t, reg.Representable(TypeRef{}))
}
