// Package summary converts baseline/reform dataset pairs into aggregate and
// distributional summary tables.
package summary

import (
	"sort"

	"taxsim/domain/microdata"
	"taxsim/domain/tables"

	"gonum.org/v1/gonum/stat"
)

// Aggregate accumulates the three aggregate tables: baseline totals,
// reform totals, and their difference, each with rows
// ind_tax / payroll_tax / combined_tax.
func Aggregate(acc tables.ResultSet, dv1, dv2 *microdata.Dataset) tables.ResultSet {
	i1, p1, c1 := weightedTaxTotals(dv1)
	i2, p2, c2 := weightedTaxTotals(dv2)

	acc[tables.AggrBase] = aggregateTable(i1, p1, c1)
	acc[tables.AggrReform] = aggregateTable(i2, p2, c2)
	acc[tables.AggrDiff] = aggregateTable(i2-i1, p2-p1, c2-c1)
	return acc
}

// DistXdec accumulates baseline and reform distribution tables grouped by
// weighted expanded-income deciles of the baseline dataset.
func DistXdec(acc tables.ResultSet, dv1, dv2 *microdata.Dataset) tables.ResultSet {
	groups := decileAssignment(dv1)
	acc[tables.DistBaseXdec] = distributionTable(dv1, groups, tables.DecileRowNames)
	acc[tables.DistReformXdec] = distributionTable(dv2, groups, tables.DecileRowNames)
	return acc
}

// DiffXdec accumulates the decile difference table (reform minus baseline).
func DiffXdec(acc tables.ResultSet, dv1, dv2 *microdata.Dataset) tables.ResultSet {
	groups := decileAssignment(dv1)
	acc[tables.DiffXdec] = differenceTable(dv1, dv2, groups, tables.DecileRowNames)
	return acc
}

// DistXbin accumulates baseline and reform distribution tables grouped by
// the fixed expanded-income bins.
func DistXbin(acc tables.ResultSet, dv1, dv2 *microdata.Dataset) tables.ResultSet {
	groups := binAssignment(dv1)
	acc[tables.DistBaseXbin] = distributionTable(dv1, groups, tables.BinRowNames)
	acc[tables.DistReformXbin] = distributionTable(dv2, groups, tables.BinRowNames)
	return acc
}

// DiffXbin accumulates the bin difference table (reform minus baseline).
func DiffXbin(acc tables.ResultSet, dv1, dv2 *microdata.Dataset) tables.ResultSet {
	groups := binAssignment(dv1)
	acc[tables.DiffXbin] = differenceTable(dv1, dv2, groups, tables.BinRowNames)
	return acc
}

func weightedTaxTotals(ds *microdata.Dataset) (itax, ptax, combined float64) {
	for i := 0; i < ds.Len(); i++ {
		w := ds.Weight[i]
		itax += w * ds.IncomeTax[i]
		ptax += w * ds.PayrollTax[i]
		combined += w * ds.Combined[i]
	}
	return itax, ptax, combined
}

func aggregateTable(itax, ptax, combined float64) *tables.Table {
	t := tables.NewTable(tables.AggRowNames, tables.AggColumnLabels)
	t.Values[0][0] = itax
	t.Values[1][0] = ptax
	t.Values[2][0] = combined
	return t
}

// decileAssignment buckets units into weighted expanded-income deciles of
// the baseline dataset. Boundaries come from the weighted empirical
// quantiles, so each decile holds one tenth of the population weight.
func decileAssignment(ds *microdata.Dataset) []int {
	n := ds.Len()

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return ds.ExpandedIncome[order[a]] < ds.ExpandedIncome[order[b]]
	})

	income := make([]float64, n)
	weights := make([]float64, n)
	for k, idx := range order {
		income[k] = ds.ExpandedIncome[idx]
		weights[k] = ds.Weight[idx]
	}

	cuts := make([]float64, 9)
	for d := 1; d <= 9; d++ {
		cuts[d-1] = stat.Quantile(float64(d)/10.0, stat.Empirical, income, weights)
	}

	groups := make([]int, n)
	for i := 0; i < n; i++ {
		groups[i] = sort.SearchFloat64s(cuts, ds.ExpandedIncome[i])
	}
	return groups
}

// binAssignment buckets units into the fixed expanded-income bins.
// Edges are upper-exclusive: an income of exactly $10K lands in $10-20K.
func binAssignment(ds *microdata.Dataset) []int {
	n := ds.Len()
	groups := make([]int, n)
	for i := 0; i < n; i++ {
		v := ds.ExpandedIncome[i]
		groups[i] = sort.Search(len(tables.BinEdges), func(j int) bool {
			return tables.BinEdges[j] > v
		})
	}
	return groups
}

// distributionTable sums the weighted outcome columns per group, with a
// trailing ALL row.
func distributionTable(ds *microdata.Dataset, groups []int, rowNames []string) *tables.Table {
	t := tables.NewTable(rowNames, tables.DistColumnLabels)
	all := len(rowNames) - 1
	for i := 0; i < ds.Len(); i++ {
		w := ds.Weight[i]
		row := []float64{
			w,
			w * ds.ExpandedIncome[i],
			w * ds.IncomeTax[i],
			w * ds.PayrollTax[i],
			w * ds.Combined[i],
			w * ds.AftertaxIncome[i],
		}
		for j, v := range row {
			t.Values[groups[i]][j] += v
			t.Values[all][j] += v
		}
	}
	return t
}

// differenceTable summarizes reform-minus-baseline combined-tax changes per
// group, with a trailing ALL row.
func differenceTable(dv1, dv2 *microdata.Dataset, groups []int, rowNames []string) *tables.Table {
	t := tables.NewTable(rowNames, tables.DiffColumnLabels)
	all := len(rowNames) - 1

	const (
		colCount = iota
		colTaxCut
		colTaxInc
		colTotChange
		colMeanChange
		colShare
		colPctAftertax
	)

	aftertax1 := make([]float64, len(rowNames))
	for i := 0; i < dv1.Len(); i++ {
		w := dv1.Weight[i]
		change := dv2.Combined[i] - dv1.Combined[i]
		g := groups[i]
		for _, r := range []int{g, all} {
			t.Values[r][colCount] += w
			if change < 0 {
				t.Values[r][colTaxCut] += w
			} else if change > 0 {
				t.Values[r][colTaxInc] += w
			}
			t.Values[r][colTotChange] += w * change
			aftertax1[r] += w * dv1.AftertaxIncome[i]
		}
	}

	total := t.Values[all][colTotChange]
	for r := range t.Values {
		if t.Values[r][colCount] > 0 {
			t.Values[r][colMeanChange] = t.Values[r][colTotChange] / t.Values[r][colCount]
		}
		if total != 0 {
			t.Values[r][colShare] = t.Values[r][colTotChange] / total
		}
		if aftertax1[r] != 0 {
			// A positive tax change lowers aftertax income.
			t.Values[r][colPctAftertax] = -100 * t.Values[r][colTotChange] / aftertax1[r]
		}
	}
	return t
}
