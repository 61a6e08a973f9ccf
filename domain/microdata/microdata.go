// Package microdata holds the filing-unit record model and the
// column-oriented result datasets extracted from calculator runs.
package microdata

import (
	"fmt"

	"taxsim/domain/core"
)

// PopulationSource identifies where filing-unit records come from.
type PopulationSource string

const (
	// SourceAdministrative is the full administrative tax-return file.
	// Results computed against it are disclosure-sensitive.
	SourceAdministrative PopulationSource = "administrative"
	// SourceSurvey is the public survey-based file.
	SourceSurvey PopulationSource = "survey"
)

// FilingUnit is one row of simulated taxpayer data.
type FilingUnit struct {
	RecordID   core.RecordID `db:"record_id"`
	Weight     float64       `db:"weight"`
	Wages      float64       `db:"wages"`
	SelfEmp    float64       `db:"self_emp"`
	CapGains   float64       `db:"cap_gains"`
	OtherInc   float64       `db:"other_inc"`
	Deductions float64       `db:"deductions"`
}

// Earnings returns the payroll-taxable labor income of the unit.
func (u *FilingUnit) Earnings() float64 {
	return u.Wages + u.SelfEmp
}

// MarketIncome returns total pre-tax income.
func (u *FilingUnit) MarketIncome() float64 {
	return u.Wages + u.SelfEmp + u.CapGains + u.OtherInc
}

// Dataset is a row-per-filing-unit table of numeric outcome columns.
// All columns have equal length; a baseline/reform pair shares row identity
// and row count.
type Dataset struct {
	Weight         []float64
	ExpandedIncome []float64
	IncomeTax      []float64
	PayrollTax     []float64
	Combined       []float64
	AftertaxIncome []float64
}

// NewDataset allocates a dataset with n rows.
func NewDataset(n int) *Dataset {
	return &Dataset{
		Weight:         make([]float64, n),
		ExpandedIncome: make([]float64, n),
		IncomeTax:      make([]float64, n),
		PayrollTax:     make([]float64, n),
		Combined:       make([]float64, n),
		AftertaxIncome: make([]float64, n),
	}
}

// Len returns the number of filing-unit rows.
func (d *Dataset) Len() int {
	return len(d.Weight)
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	out := NewDataset(d.Len())
	copy(out.Weight, d.Weight)
	copy(out.ExpandedIncome, d.ExpandedIncome)
	copy(out.IncomeTax, d.IncomeTax)
	copy(out.PayrollTax, d.PayrollTax)
	copy(out.Combined, d.Combined)
	copy(out.AftertaxIncome, d.AftertaxIncome)
	return out
}

// Validate checks the equal-column-length invariant.
func (d *Dataset) Validate() error {
	n := len(d.Weight)
	cols := map[string]int{
		"expanded_income": len(d.ExpandedIncome),
		"income_tax":      len(d.IncomeTax),
		"payroll_tax":     len(d.PayrollTax),
		"combined":        len(d.Combined),
		"aftertax_income": len(d.AftertaxIncome),
	}
	for name, l := range cols {
		if l != n {
			return fmt.Errorf("dataset column %s has %d rows, weight has %d", name, l, n)
		}
	}
	return nil
}
