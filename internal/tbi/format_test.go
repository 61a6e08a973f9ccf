package tbi

import (
	"encoding/json"
	"testing"

	"taxsim/domain/tables"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendYearToColumns(t *testing.T) {
	tbl := tables.NewTable([]string{"a", "b"}, []string{"count", "tot_change"})
	appendYearToColumns(tbl, 2024)
	assert.Equal(t, []string{"count_2024", "tot_change_2024"}, tbl.Columns)
}

func TestYearQualifiedRows(t *testing.T) {
	got := yearQualifiedRows([]string{"0-10n", "ALL"}, 2022)
	assert.Equal(t, []string{"0-10n_2022", "ALL_2022"}, got)
}

func TestBuildDict_UnknownTableIsInternalError(t *testing.T) {
	sres := tables.ResultSet{
		tables.ID("dist_surprise"): tables.NewTable(tables.AggRowNames, tables.AggColumnLabels),
	}
	_, err := buildDict(sres, 2021)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dist_surprise")
}

func TestBuildDict_AggregateRowsBecomeScalars(t *testing.T) {
	agg := tables.NewTable(tables.AggRowNames, tables.AggColumnLabels)
	agg.Values[0][0] = 1.5
	agg.Values[1][0] = 2.5
	agg.Values[2][0] = 4.0
	sres := tables.ResultSet{tables.AggrBase: agg}

	dict, err := buildDict(sres, 2021)
	require.NoError(t, err)
	require.Contains(t, dict.Aggregates, tables.AggrBase)
	assert.Equal(t, map[string]float64{
		"ind_tax_2021":      1.5,
		"payroll_tax_2021":  2.5,
		"combined_tax_2021": 4.0,
	}, dict.Aggregates[tables.AggrBase])
	assert.Empty(t, dict.Tables)
}

func TestDictResultSet_MarshalJSONMergesFamilies(t *testing.T) {
	dict := &DictResultSet{
		Year: 2021,
		Aggregates: map[tables.ID]map[string]float64{
			tables.AggrDiff: {"combined_tax_2021": 12.5},
		},
		Tables: map[tables.ID]tables.NestedTable{
			tables.DiffXdec: {"ALL_2021": {"tot_change": 12.5}},
		},
	}

	raw, err := json.Marshal(dict)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "aggr_d")
	assert.Contains(t, decoded, "diff_xdec")
	assert.Len(t, decoded, 2)

	var aggr map[string]float64
	require.NoError(t, json.Unmarshal(decoded["aggr_d"], &aggr))
	assert.Equal(t, 12.5, aggr["combined_tax_2021"])
}
