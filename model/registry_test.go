package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rix0rrr/cdk-reflect/core"
)

func TestRecordDistributionIsIdempotent(t *testing.T) {
	r := NewRegistry()

	ref1, err := r.RecordDistribution([]ValueSource{NoValueSource{}, PrimitiveSource{Name: "string"}})
	require.NoError(t, err)
	ref2, err := r.RecordDistribution([]ValueSource{NoValueSource{}, PrimitiveSource{Name: "string"}})
	require.NoError(t, err)
	assert.Equal(t, ref1, ref2)

	other, err := r.RecordDistribution([]ValueSource{PrimitiveSource{Name: "number"}})
	require.NoError(t, err)
	assert.NotEqual(t, ref1, other)
}

func TestRecordDistributionDistinguishesOrder(t *testing.T) {
	r := NewRegistry()
	ab, err := r.RecordDistribution([]ValueSource{PrimitiveSource{Name: "string"}, NoValueSource{}})
	require.NoError(t, err)
	ba, err := r.RecordDistribution([]ValueSource{NoValueSource{}, PrimitiveSource{Name: "string"}})
	require.NoError(t, err)
	assert.NotEqual(t, ab, ba)
}

func TestLookupDistUnknownRef(t *testing.T) {
	r := NewRegistry()
	_, err := r.LookupDist("deadbeef0000")
	assert.ErrorIs(t, err, core.ErrNoSources)
}

func TestLookupFqnUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.LookupFqn("m.Missing")
	assert.ErrorIs(t, err, core.ErrModelNotFound)
}

func TestResolveSplatsFqnRefs(t *testing.T) {
	r := NewRegistry()
	ctor := CtorSource{FQN: "m.App"}
	prop := StaticPropertySource{FQN: "m.App", Property: "DEFAULT", TargetFQN: "m.App"}
	r.AddFqnSource("m.App", ctor)
	r.AddFqnSource("m.App", prop)

	ref, err := r.RecordDistribution([]ValueSource{NoValueSource{}, FqnRef{FQN: "m.App"}})
	require.NoError(t, err)

	resolved, err := r.Resolve(ref)
	require.NoError(t, err)
	require.Len(t, resolved, 3)
	assert.Equal(t, NoValueSource{}, resolved[0])
	assert.Equal(t, ctor, resolved[1])
	assert.Equal(t, prop, resolved[2])
}

func TestResolveUnknownFqnFails(t *testing.T) {
	r := NewRegistry()
	ref, err := r.RecordDistribution([]ValueSource{FqnRef{FQN: "m.Missing"}})
	require.NoError(t, err)
	_, err = r.Resolve(ref)
	assert.ErrorIs(t, err, core.ErrModelNotFound)
}

func TestResolveEmptyDistributionFails(t *testing.T) {
	r := NewRegistry()
	ref, err := r.RecordDistribution([]ValueSource{})
	require.NoError(t, err)
	_, err = r.Resolve(ref)
	assert.ErrorIs(t, err, core.ErrNoSources)
}

func TestModelJSONRoundTrip(t *testing.T) {
	r := NewRegistry()
	strRef, err := r.RecordDistribution([]ValueSource{PrimitiveSource{Name: "string"}})
	require.NoError(t, err)
	elemRef, err := r.RecordDistribution([]ValueSource{FqnRef{FQN: "m.Item"}})
	require.NoError(t, err)
	_, err = r.RecordDistribution([]ValueSource{
		NoValueSource{},
		ArraySource{Elem: elemRef},
		MapSource{Elem: strRef},
		ConstantSource{Value: core.String("fixed")},
		CustomSource{Name: "scope"},
	})
	require.NoError(t, err)

	r.AddFqnSource("m.Stack", CtorSource{FQN: "m.Stack", Parameters: []ParameterSource{
		{Name: "id", Dist: strRef},
	}})
	r.AddFqnSource("m.Item", StaticMethodSource{
		FQN: "m.Item", Method: "of", TargetFQN: "m.Item",
		Parameters: []ParameterSource{{Name: "name", Dist: strRef}},
	})
	r.AddFqnSource("m.Props", ValueObjectSource{FQN: "m.Props", Fields: []FieldSource{
		{Name: "name", Dist: strRef},
	}})

	data, err := json.Marshal(r)
	require.NoError(t, err)

	got := NewRegistry()
	require.NoError(t, json.Unmarshal(data, got))

	assert.ElementsMatch(t, r.FQNs(), got.FQNs())
	for _, fqn := range r.FQNs() {
		want, err := r.LookupFqn(fqn)
		require.NoError(t, err)
		have, err := got.LookupFqn(fqn)
		require.NoError(t, err)
		assert.Len(t, have, len(want))
	}

	// Restored models keep content addressing: re-recording an existing
	// distribution yields the same ref instead of a collision.
	again, err := got.RecordDistribution([]ValueSource{PrimitiveSource{Name: "string"}})
	require.NoError(t, err)
	assert.Equal(t, strRef, again)
}
