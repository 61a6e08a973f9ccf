package response

import (
	"testing"

	"taxsim/domain/core"
	"taxsim/domain/microdata"
	"taxsim/domain/policy"
	"taxsim/internal/scenario"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calculatorPair(t *testing.T, reform policy.Reform) (*scenario.Calculator, *scenario.Calculator) {
	t.Helper()
	units := []*microdata.FilingUnit{
		{RecordID: core.RecordID(1), Weight: 100, Wages: 40e3},
		{RecordID: core.RecordID(2), Weight: 100, Wages: 120e3, CapGains: 25e3},
		{RecordID: core.RecordID(3), Weight: 100, Wages: 350e3, CapGains: 80e3},
	}
	base := scenario.CurrentLawParams()
	reformed, err := base.ApplyReform(reform, 2021)
	require.NoError(t, err)

	calc1 := scenario.NewCalculator(units, base, 2021)
	calc2 := scenario.NewCalculator(units, reformed, 2021)
	calc1.CalcAll()
	calc2.CalcAll()
	return calc1, calc2
}

func TestResponse_ZeroElasticitiesIsStatic(t *testing.T) {
	calc1, calc2 := calculatorPair(t, policy.Reform{"II_rt3": {2021: 0.40}})

	dv1, dv2, err := Response(calc1, calc2, policy.Assumptions{})
	require.NoError(t, err)

	dv2static, err := calc2.ResultsDataset()
	require.NoError(t, err)
	assert.Equal(t, dv2static.Combined, dv2.Combined)
	assert.Equal(t, dv1.Len(), dv2.Len())
}

func TestResponse_SubstitutionShrinksTaxBase(t *testing.T) {
	reform := policy.Reform{
		"II_rt2": {2021: 0.32},
		"II_rt3": {2021: 0.42},
		"II_rt4": {2021: 0.47},
	}
	calc1, calc2 := calculatorPair(t, reform)

	behavior := policy.Assumptions{2021: {"BE_sub": 0.25}}
	dv1, dv2, err := Response(calc1, calc2, behavior)
	require.NoError(t, err)

	dv2static, err := calc2.ResultsDataset()
	require.NoError(t, err)

	// Higher marginal rates with a positive substitution elasticity shrink
	// earnings, so the responded reform collects less than the static reform.
	sumStatic, sumResp := 0.0, 0.0
	for i := 0; i < dv2.Len(); i++ {
		sumStatic += dv2static.Combined[i]
		sumResp += dv2.Combined[i]
	}
	assert.Less(t, sumResp, sumStatic)

	// Baseline results are unchanged by the response.
	dv1check, err := calc1.ResultsDataset()
	require.NoError(t, err)
	assert.Equal(t, dv1check.Combined, dv1.Combined)
}

func TestResponse_CapitalGainsRealization(t *testing.T) {
	calc1, calc2 := calculatorPair(t, policy.Reform{"CG_rt": {2021: 0.25}})

	behavior := policy.Assumptions{2021: {"BE_cg": -3.0}}
	_, dv2, err := Response(calc1, calc2, behavior)
	require.NoError(t, err)

	dv2static, err := calc2.ResultsDataset()
	require.NoError(t, err)

	// A higher capital-gains rate with a negative semi-elasticity suppresses
	// realizations: responded expanded income falls below the static reform
	// for units holding gains.
	assert.Less(t, dv2.ExpandedIncome[1], dv2static.ExpandedIncome[1])
	assert.Less(t, dv2.ExpandedIncome[2], dv2static.ExpandedIncome[2])
	// The no-gains unit is untouched by the realization response.
	assert.InDelta(t, dv2static.ExpandedIncome[0], dv2.ExpandedIncome[0], 1e-9)
}

func TestResponse_InvalidBehaviorPropagates(t *testing.T) {
	calc1, calc2 := calculatorPair(t, policy.Reform{})

	_, _, err := Response(calc1, calc2, policy.Assumptions{2021: {"BE_sub": -1.0}})
	require.Error(t, err)

	var schemaErr *policy.SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestResponse_InputCalculatorsNotMutated(t *testing.T) {
	reform := policy.Reform{"II_rt4": {2021: 0.45}}
	calc1, calc2 := calculatorPair(t, reform)

	before := make([]float64, calc2.Len())
	for i, u := range calc2.Records() {
		before[i] = u.Wages
	}

	behavior := policy.Assumptions{2021: {"BE_sub": 0.5, "BE_inc": -0.05}}
	_, _, err := Response(calc1, calc2, behavior)
	require.NoError(t, err)

	for i, u := range calc2.Records() {
		assert.Equal(t, before[i], u.Wages, "unit %d", i)
	}
}
