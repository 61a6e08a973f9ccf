// Package tables defines the summary-table model shared by the summary
// builders, the disclosure pipeline, and the output formatters.
package tables

import "fmt"

// ID names one summary table in a result set.
type ID string

const (
	AggrDiff   ID = "aggr_d"
	AggrBase   ID = "aggr_1"
	AggrReform ID = "aggr_2"

	DistBaseXbin   ID = "dist1_xbin"
	DistReformXbin ID = "dist2_xbin"
	DiffXbin       ID = "diff_xbin"

	DistBaseXdec   ID = "dist1_xdec"
	DistReformXdec ID = "dist2_xdec"
	DiffXdec       ID = "diff_xdec"
)

// Shape says how a table's columns are interpreted.
type Shape int

const (
	ShapeAggregate Shape = iota
	ShapeDistribution
	ShapeDifference
)

// RowFamily says which base row-label list a table uses.
type RowFamily int

const (
	RowsAggregate RowFamily = iota
	RowsBin
	RowsDecile
)

// Kind carries a table's structural metadata. Every table ID maps to a Kind,
// so classification never depends on naming conventions.
type Kind struct {
	Shape Shape
	Rows  RowFamily
}

var kinds = map[ID]Kind{
	AggrDiff:       {ShapeAggregate, RowsAggregate},
	AggrBase:       {ShapeAggregate, RowsAggregate},
	AggrReform:     {ShapeAggregate, RowsAggregate},
	DistBaseXbin:   {ShapeDistribution, RowsBin},
	DistReformXbin: {ShapeDistribution, RowsBin},
	DiffXbin:       {ShapeDifference, RowsBin},
	DistBaseXdec:   {ShapeDistribution, RowsDecile},
	DistReformXdec: {ShapeDistribution, RowsDecile},
	DiffXdec:       {ShapeDifference, RowsDecile},
}

// KindOf returns the structural metadata for a table ID.
func KindOf(id ID) (Kind, bool) {
	k, ok := kinds[id]
	return k, ok
}

// AggRowNames is the fixed row ordering of aggregate tables.
var AggRowNames = []string{"ind_tax", "payroll_tax", "combined_tax"}

// DecileRowNames label the weighted expanded-income deciles plus the
// all-units total row.
var DecileRowNames = []string{
	"0-10n", "10-20", "20-30", "30-40", "40-50",
	"50-60", "60-70", "70-80", "80-90", "90-100",
	"ALL",
}

// BinRowNames label the fixed expanded-income bins plus the all-units
// total row.
var BinRowNames = []string{
	"<$0K", "$0-10K", "$10-20K", "$20-30K", "$30-40K", "$40-50K",
	"$50-75K", "$75-100K", "$100-200K", "$200-500K", "$500-1000K", ">$1000K",
	"ALL",
}

// BinEdges are the upper expanded-income boundaries of BinRowNames (the
// final bin is unbounded above).
var BinEdges = []float64{
	0, 10e3, 20e3, 30e3, 40e3, 50e3, 75e3, 100e3, 200e3, 500e3, 1000e3,
}

// DistColumnLabels are the statistic columns of distribution tables.
var DistColumnLabels = []string{
	"count", "expanded_income", "income_tax", "payroll_tax",
	"combined_tax", "aftertax_income",
}

// DiffColumnLabels are the statistic columns of difference tables.
var DiffColumnLabels = []string{
	"count", "tax_cut_count", "tax_inc_count", "tot_change",
	"mean_change", "share_of_change", "pct_aftertax_change",
}

// AggColumnLabels is the single statistic column of aggregate tables.
var AggColumnLabels = []string{"tax_total"}

// Table is one rendered summary table: labeled rows by statistic columns.
type Table struct {
	RowNames []string
	Columns  []string
	Values   [][]float64 // row-major, len(Values) == len(RowNames)
}

// NewTable allocates a zeroed table with the given labels.
func NewTable(rowNames, columns []string) *Table {
	values := make([][]float64, len(rowNames))
	for i := range values {
		values[i] = make([]float64, len(columns))
	}
	return &Table{
		RowNames: append([]string(nil), rowNames...),
		Columns:  append([]string(nil), columns...),
		Values:   values,
	}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := NewTable(t.RowNames, t.Columns)
	for i := range t.Values {
		copy(out.Values[i], t.Values[i])
	}
	return out
}

// ResultSet maps table IDs to rendered tables for a single simulated year.
type ResultSet map[ID]*Table

// ColumnType declares the expected value type of one statistic column.
type ColumnType int

// ColFloat is the only column type the summary builders emit.
const ColFloat ColumnType = iota

// FloatColumnTypes returns n float column-type declarations.
func FloatColumnTypes(n int) []ColumnType {
	return make([]ColumnType, n)
}

// NestedTable is a JSON-safe rendering of a table: row name to column name
// to value.
type NestedTable map[string]map[string]float64

// CreateDictTable renders a table into a nested row/column mapping using the
// supplied row names. When colTypes is non-nil its length must match the
// column count and every column must be float.
func CreateDictTable(t *Table, rowNames []string, colTypes []ColumnType) (NestedTable, error) {
	if len(rowNames) != len(t.RowNames) {
		return nil, fmt.Errorf("create_dict_table: %d row names for %d rows",
			len(rowNames), len(t.RowNames))
	}
	if colTypes != nil {
		if len(colTypes) != len(t.Columns) {
			return nil, fmt.Errorf("create_dict_table: %d column types for %d columns",
				len(colTypes), len(t.Columns))
		}
		for i, ct := range colTypes {
			if ct != ColFloat {
				return nil, fmt.Errorf("create_dict_table: column %d has unsupported type", i)
			}
		}
	}

	out := make(NestedTable, len(rowNames))
	for i, row := range rowNames {
		cols := make(map[string]float64, len(t.Columns))
		for j, col := range t.Columns {
			cols[col] = t.Values[i][j]
		}
		out[row] = cols
	}
	return out, nil
}
