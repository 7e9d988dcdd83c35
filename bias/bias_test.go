package bias

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rix0rrr/cdk-reflect/model"
)

func ctorFixture(t *testing.T) (model.CtorSource, *model.Registry) {
	t.Helper()
	reg := model.NewRegistry()
	scopeRef, err := reg.RecordDistribution([]model.ValueSource{model.FqnRef{FQN: "m.IConstruct"}})
	require.NoError(t, err)
	strRef, err := reg.RecordDistribution([]model.ValueSource{model.PrimitiveSource{Name: "string"}})
	require.NoError(t, err)
	return model.CtorSource{FQN: "m.Stack", Parameters: []model.ParameterSource{
		{Name: "scope", Dist: scopeRef},
		{Name: "id", Dist: strRef},
	}}, reg
}

func TestConstructShapeRewritesScopeAndID(t *testing.T) {
	ctor, reg := ctorFixture(t)

	biased, err := NewConstructShape(nil).Bias(ctor, reg)
	require.NoError(t, err)
	got := biased.(model.CtorSource)

	scopeDist, err := reg.LookupDist(got.Parameters[0].Dist)
	require.NoError(t, err)
	assert.Equal(t, []model.ValueSource{model.CustomSource{Name: "scope"}}, scopeDist)

	idDist, err := reg.LookupDist(got.Parameters[1].Dist)
	require.NoError(t, err)
	assert.Equal(t, []model.ValueSource{model.CustomSource{Name: "construct-id"}}, idDist)

	// The input source is untouched.
	origScope, err := reg.LookupDist(ctor.Parameters[0].Dist)
	require.NoError(t, err)
	assert.Equal(t, []model.ValueSource{model.FqnRef{FQN: "m.IConstruct"}}, origScope)
}

func TestConstructShapeHonorsExplicitInterfaceSet(t *testing.T) {
	ctor, reg := ctorFixture(t)

	// The fixture's interface is not in the configured set: no rewrite.
	biased, err := NewConstructShape([]string{"other.IScope"}).Bias(ctor, reg)
	require.NoError(t, err)
	assert.Equal(t, ctor, biased)

	biased, err = NewConstructShape([]string{"m.IConstruct"}).Bias(ctor, reg)
	require.NoError(t, err)
	assert.NotEqual(t, ctor, biased)
}

func TestConstructShapeIgnoresOtherShapes(t *testing.T) {
	reg := model.NewRegistry()
	strRef, err := reg.RecordDistribution([]model.ValueSource{model.PrimitiveSource{Name: "string"}})
	require.NoError(t, err)

	// First parameter is not named scope.
	ctor := model.CtorSource{FQN: "m.Thing", Parameters: []model.ParameterSource{
		{Name: "name", Dist: strRef},
	}}
	biased, err := NewConstructShape(nil).Bias(ctor, reg)
	require.NoError(t, err)
	assert.Equal(t, model.FqnSource(ctor), biased)

	// Non-ctor sources pass through.
	prop := model.StaticPropertySource{FQN: "m.E", Property: "A", TargetFQN: "m.E"}
	biased, err = NewConstructShape(nil).Bias(prop, reg)
	require.NoError(t, err)
	assert.Equal(t, model.FqnSource(prop), biased)
}

func TestNameHintsRewritesArnParams(t *testing.T) {
	reg := model.NewRegistry()
	strRef, err := reg.RecordDistribution([]model.ValueSource{model.PrimitiveSource{Name: "string"}})
	require.NoError(t, err)
	optStrRef, err := reg.RecordDistribution([]model.ValueSource{
		model.NoValueSource{}, model.PrimitiveSource{Name: "string"},
	})
	require.NoError(t, err)
	numRef, err := reg.RecordDistribution([]model.ValueSource{model.PrimitiveSource{Name: "number"}})
	require.NoError(t, err)

	src := model.StaticMethodSource{
		FQN: "m.Fn", Method: "fromFunctionArn", TargetFQN: "m.Fn",
		Parameters: []model.ParameterSource{
			{Name: "functionArn", Dist: strRef},
			{Name: "roleArn", Dist: optStrRef},
			{Name: "arnCount", Dist: numRef},
			{Name: "name", Dist: strRef},
		},
	}
	biased, err := (NameHints{}).Bias(src, reg)
	require.NoError(t, err)
	got := biased.(model.StaticMethodSource)

	dist, err := reg.LookupDist(got.Parameters[0].Dist)
	require.NoError(t, err)
	assert.Equal(t, []model.ValueSource{model.CustomSource{Name: "arn"}}, dist)

	// Optionality is preserved.
	dist, err = reg.LookupDist(got.Parameters[1].Dist)
	require.NoError(t, err)
	assert.Equal(t, []model.ValueSource{model.NoValueSource{}, model.CustomSource{Name: "arn"}}, dist)

	// Non-string and unhinted parameters are untouched.
	assert.Equal(t, numRef, got.Parameters[2].Dist)
	assert.Equal(t, strRef, got.Parameters[3].Dist)
}

func TestChainAppliesInOrder(t *testing.T) {
	ctor, reg := ctorFixture(t)
	biased, err := Default().Bias(ctor, reg)
	require.NoError(t, err)
	got := biased.(model.CtorSource)
	dist, err := reg.LookupDist(got.Parameters[0].Dist)
	require.NoError(t, err)
	assert.Equal(t, []model.ValueSource{model.CustomSource{Name: "scope"}}, dist)
}
