package tbi

import (
	"encoding/json"
	"fmt"

	"taxsim/domain/tables"
	"taxsim/internal/errors"
)

// appendYearToColumns suffixes every column label with "_<year>" so tables
// from different simulated years merge without collision.
func appendYearToColumns(t *tables.Table, year int) {
	for i, col := range t.Columns {
		t.Columns[i] = fmt.Sprintf("%s_%d", col, year)
	}
}

// yearQualifiedRows suffixes every row label with "_<year>".
func yearQualifiedRows(base []string, year int) []string {
	out := make([]string, len(base))
	for i, name := range base {
		out[i] = fmt.Sprintf("%s_%d", name, year)
	}
	return out
}

// DictResultSet is the JSON-safe nested rendering of one year's summary
// tables: every row label is year-qualified, distribution and difference
// tables map row to column to value, and aggregate tables collapse each
// row to a scalar.
type DictResultSet struct {
	Year       int
	Aggregates map[tables.ID]map[string]float64
	Tables     map[tables.ID]tables.NestedTable
}

// MarshalJSON merges both table families into one table-name-keyed object.
func (d *DictResultSet) MarshalJSON() ([]byte, error) {
	merged := make(map[tables.ID]interface{}, len(d.Aggregates)+len(d.Tables))
	for id, rows := range d.Aggregates {
		merged[id] = rows
	}
	for id, rows := range d.Tables {
		merged[id] = rows
	}
	return json.Marshal(merged)
}

// buildDict renders a result set into shape B. Row-name lists are built once
// per row family; distribution and difference tables carry their fixed
// all-float column-type lists.
func buildDict(sres tables.ResultSet, year int) (*DictResultSet, error) {
	rowsByFamily := map[tables.RowFamily][]string{
		tables.RowsAggregate: yearQualifiedRows(tables.AggRowNames, year),
		tables.RowsBin:       yearQualifiedRows(tables.BinRowNames, year),
		tables.RowsDecile:    yearQualifiedRows(tables.DecileRowNames, year),
	}
	distColTypes := tables.FloatColumnTypes(len(tables.DistColumnLabels))
	diffColTypes := tables.FloatColumnTypes(len(tables.DiffColumnLabels))

	dict := &DictResultSet{
		Year:       year,
		Aggregates: make(map[tables.ID]map[string]float64),
		Tables:     make(map[tables.ID]tables.NestedTable),
	}

	for id, t := range sres {
		kind, ok := tables.KindOf(id)
		if !ok {
			return nil, errors.InternalError(fmt.Sprintf("result set holds unknown table %q", id))
		}
		rowNames := rowsByFamily[kind.Rows]

		switch kind.Shape {
		case tables.ShapeAggregate:
			nested, err := tables.CreateDictTable(t, rowNames, nil)
			if err != nil {
				return nil, errors.Wrapf(err, "rendering table %s", id)
			}
			scalars := make(map[string]float64, len(nested))
			for row, cols := range nested {
				if len(cols) != 1 {
					return nil, errors.InternalError(fmt.Sprintf(
						"aggregate table %s row %s is not a singleton", id, row))
				}
				for _, v := range cols {
					scalars[row] = v
				}
			}
			dict.Aggregates[id] = scalars

		case tables.ShapeDistribution:
			nested, err := tables.CreateDictTable(t, rowNames, distColTypes)
			if err != nil {
				return nil, errors.Wrapf(err, "rendering table %s", id)
			}
			dict.Tables[id] = nested

		case tables.ShapeDifference:
			nested, err := tables.CreateDictTable(t, rowNames, diffColTypes)
			if err != nil {
				return nil, errors.Wrapf(err, "rendering table %s", id)
			}
			dict.Tables[id] = nested
		}
	}

	return dict, nil
}
