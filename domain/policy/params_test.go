package policy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamDictForYear_Defaults(t *testing.T) {
	resolved, err := ParamDictForYear(2021, Assumptions{}, ParamInfo)
	require.NoError(t, err)

	assert.Equal(t, 0.0, resolved["BE_sub"])
	assert.Equal(t, 0.0, resolved["BE_inc"])
	assert.Equal(t, 0.0, resolved["BE_cg"])
}

func TestParamDictForYear_CarryForward(t *testing.T) {
	behavior := Assumptions{
		2020: {"BE_sub": 0.25},
		2023: {"BE_sub": 0.4, "BE_inc": -0.1},
	}

	tests := []struct {
		name    string
		year    int
		wantSub float64
		wantInc float64
	}{
		{name: "before any override", year: 2019, wantSub: 0.0, wantInc: 0.0},
		{name: "first override year", year: 2020, wantSub: 0.25, wantInc: 0.0},
		{name: "between overrides", year: 2022, wantSub: 0.25, wantInc: 0.0},
		{name: "second override year", year: 2023, wantSub: 0.4, wantInc: -0.1},
		{name: "after all overrides", year: 2030, wantSub: 0.4, wantInc: -0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := ParamDictForYear(tt.year, behavior, ParamInfo)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSub, resolved["BE_sub"])
			assert.Equal(t, tt.wantInc, resolved["BE_inc"])
		})
	}
}

func TestParamDictForYear_Violations(t *testing.T) {
	tests := []struct {
		name     string
		behavior Assumptions
		wantSub  string
	}{
		{
			name:     "unknown parameter",
			behavior: Assumptions{2021: {"BE_xyz": 1.0}},
			wantSub:  "unknown behavioral-response parameter BE_xyz",
		},
		{
			name:     "BE_sub below minimum",
			behavior: Assumptions{2021: {"BE_sub": -0.5}},
			wantSub:  "below minimum",
		},
		{
			name:     "BE_inc above maximum",
			behavior: Assumptions{2021: {"BE_inc": 0.3}},
			wantSub:  "above maximum",
		},
		{
			name:     "BE_cg above maximum",
			behavior: Assumptions{2021: {"BE_cg": 0.1}},
			wantSub:  "above maximum",
		},
		{
			name:     "NaN value",
			behavior: Assumptions{2021: {"BE_sub": math.NaN()}},
			wantSub:  "not a number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParamDictForYear(2021, tt.behavior, ParamInfo)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantSub)

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, 2021, schemaErr.Year)
		})
	}
}

func TestParamDictForYear_FutureViolationIgnored(t *testing.T) {
	// An invalid override in a later year must not poison earlier years.
	behavior := Assumptions{
		2021: {"BE_sub": 0.25},
		2025: {"BE_sub": -1.0},
	}

	resolved, err := ParamDictForYear(2022, behavior, ParamInfo)
	require.NoError(t, err)
	assert.Equal(t, 0.25, resolved["BE_sub"])

	_, err = ParamDictForYear(2025, behavior, ParamInfo)
	require.Error(t, err)
}
