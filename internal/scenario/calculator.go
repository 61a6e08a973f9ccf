package scenario

import (
	"math"

	"taxsim/domain/microdata"
	"taxsim/domain/policy"

	"taxsim/internal/errors"
)

// Params holds the tax-law parameters one calculator runs under. Every field
// is reform-overridable through the policy area of UserMods.
type Params struct {
	Rates        [4]float64 // ordinary-income bracket rates
	Brackets     [3]float64 // upper taxable-income bounds of the first three brackets
	StdDeduction float64
	CGRate       float64 // preferential long-term capital-gains rate
	PayrollRate  float64
	PayrollCap   float64 // earnings above the cap escape payroll tax
	WageGrowth   float64 // annual indexing factor applied when advancing years
}

// CurrentLawParams returns the baseline parameters for the population data
// year; Advance indexes dollar amounts forward from there.
func CurrentLawParams() Params {
	return Params{
		Rates:        [4]float64{0.10, 0.22, 0.32, 0.37},
		Brackets:     [3]float64{20e3, 90e3, 400e3},
		StdDeduction: 13e3,
		CGRate:       0.15,
		PayrollRate:  0.153,
		PayrollCap:   160e3,
		WageGrowth:   0.025,
	}
}

// Indexed scales the dollar-denominated parameters forward by the wage
// growth factor for the given number of years.
func (p Params) Indexed(years int) Params {
	if years <= 0 {
		return p
	}
	factor := math.Pow(1+p.WageGrowth, float64(years))
	for i := range p.Brackets {
		p.Brackets[i] *= factor
	}
	p.StdDeduction *= factor
	p.PayrollCap *= factor
	return p
}

// reform parameter names accepted in the policy area of UserMods.
const (
	ParamRate1        = "II_rt1"
	ParamRate2        = "II_rt2"
	ParamRate3        = "II_rt3"
	ParamRate4        = "II_rt4"
	ParamBracket1     = "II_brk1"
	ParamBracket2     = "II_brk2"
	ParamBracket3     = "II_brk3"
	ParamStdDeduction = "STD"
	ParamCGRate       = "CG_rt"
	ParamPayrollRate  = "FICA_rt"
	ParamPayrollCap   = "FICA_cap"
)

// ApplyReform overlays year-resolved reform values onto the parameters.
// Unknown parameter names are scenario-construction failures.
func (p Params) ApplyReform(reform policy.Reform, year int) (Params, error) {
	set := map[string]*float64{
		ParamRate1:        &p.Rates[0],
		ParamRate2:        &p.Rates[1],
		ParamRate3:        &p.Rates[2],
		ParamRate4:        &p.Rates[3],
		ParamBracket1:     &p.Brackets[0],
		ParamBracket2:     &p.Brackets[1],
		ParamBracket3:     &p.Brackets[2],
		ParamStdDeduction: &p.StdDeduction,
		ParamCGRate:       &p.CGRate,
		ParamPayrollRate:  &p.PayrollRate,
		ParamPayrollCap:   &p.PayrollCap,
	}

	for name := range reform {
		target, known := set[name]
		if !known {
			return p, errors.InvalidInput("unknown policy parameter " + name)
		}
		if value, ok := reform.ValueForYear(name, year); ok {
			*target = value
		}
	}
	return p, nil
}

// Calculator is one fully parameterized tax-computation run (baseline or
// reform) for a target year. It owns a private copy of the filing-unit
// records so that reform-side quantity adjustments never leak into the
// baseline.
type Calculator struct {
	year    int
	params  Params
	records []*microdata.FilingUnit

	incomeTax  []float64
	payrollTax []float64
	computed   bool
}

// NewCalculator clones the units and binds them to the given law.
func NewCalculator(units []*microdata.FilingUnit, params Params, year int) *Calculator {
	records := make([]*microdata.FilingUnit, len(units))
	for i, u := range units {
		cp := *u
		records[i] = &cp
	}
	return &Calculator{year: year, params: params, records: records}
}

// Year returns the calendar year the calculator is positioned at.
func (c *Calculator) Year() int { return c.year }

// Params returns the tax-law parameters in force.
func (c *Calculator) Params() Params { return c.params }

// Len returns the number of filing units.
func (c *Calculator) Len() int { return len(c.records) }

// Records exposes the calculator's private record copies. Callers that need
// to perturb quantities must go through WithAdjustedRecords instead.
func (c *Calculator) Records() []*microdata.FilingUnit { return c.records }

// Advance indexes the record incomes from the data year up to the target
// year and invalidates any computed results. Parameter indexing happens
// before reform overlay, via Params.Indexed.
func (c *Calculator) Advance(fromYear int) {
	years := c.year - fromYear
	if years <= 0 {
		return
	}
	factor := math.Pow(1+c.params.WageGrowth, float64(years))
	for _, u := range c.records {
		u.Wages *= factor
		u.SelfEmp *= factor
		u.CapGains *= factor
		u.OtherInc *= factor
		u.Deductions *= factor
	}
	c.computed = false
}

// CalcAll computes income and payroll tax for every filing unit.
func (c *Calculator) CalcAll() {
	n := len(c.records)
	c.incomeTax = make([]float64, n)
	c.payrollTax = make([]float64, n)
	for i, u := range c.records {
		ordinary, gains := c.taxableIncome(u)
		c.incomeTax[i] = c.ordinaryTax(ordinary) + c.params.CGRate*gains
		c.payrollTax[i] = c.params.PayrollRate * math.Min(u.Earnings(), c.params.PayrollCap)
	}
	c.computed = true
}

// taxableIncome splits a unit's income into ordinary taxable income and
// taxable long-term gains. The standard deduction offsets ordinary income
// first; any remainder offsets gains.
func (c *Calculator) taxableIncome(u *microdata.FilingUnit) (ordinary, gains float64) {
	deduction := math.Max(c.params.StdDeduction, u.Deductions)
	ordinary = u.Wages + u.SelfEmp + u.OtherInc - deduction
	gains = math.Max(u.CapGains, 0)
	if ordinary < 0 {
		gains = math.Max(gains+ordinary, 0)
		ordinary = 0
	}
	return ordinary, gains
}

// ordinaryTax applies the four-bracket schedule to ordinary taxable income.
func (c *Calculator) ordinaryTax(taxable float64) float64 {
	if taxable <= 0 {
		return 0
	}
	rates := c.params.Rates
	brk := c.params.Brackets
	tax := 0.0
	prev := 0.0
	for i := 0; i < 3; i++ {
		if taxable <= brk[i] {
			return tax + rates[i]*(taxable-prev)
		}
		tax += rates[i] * (brk[i] - prev)
		prev = brk[i]
	}
	return tax + rates[3]*(taxable-prev)
}

// MarginalCombinedRate returns the combined income-plus-payroll marginal
// rate on an additional dollar of wages for unit i.
func (c *Calculator) MarginalCombinedRate(i int) float64 {
	u := c.records[i]
	ordinary, _ := c.taxableIncome(u)
	rate := c.params.Rates[3]
	for j := 0; j < 3; j++ {
		if ordinary <= c.params.Brackets[j] {
			rate = c.params.Rates[j]
			break
		}
	}
	if u.Earnings() < c.params.PayrollCap {
		rate += c.params.PayrollRate
	}
	return rate
}

// ResultsDataset extracts the per-unit outcome columns. CalcAll must have
// run first.
func (c *Calculator) ResultsDataset() (*microdata.Dataset, error) {
	if !c.computed {
		return nil, errors.InternalError("calculator results requested before CalcAll")
	}
	n := len(c.records)
	ds := microdata.NewDataset(n)
	for i, u := range c.records {
		income := u.MarketIncome()
		combined := c.incomeTax[i] + c.payrollTax[i]
		ds.Weight[i] = u.Weight
		ds.ExpandedIncome[i] = income
		ds.IncomeTax[i] = c.incomeTax[i]
		ds.PayrollTax[i] = c.payrollTax[i]
		ds.Combined[i] = combined
		ds.AftertaxIncome[i] = income - combined
	}
	return ds, nil
}

// WithAdjustedRecords returns a new calculator over per-unit adjusted copies
// of the records, under the same law and year. The receiver's records are
// untouched.
func (c *Calculator) WithAdjustedRecords(adjust func(i int, u *microdata.FilingUnit)) *Calculator {
	out := NewCalculator(c.records, c.params, c.year)
	for i, u := range out.records {
		adjust(i, u)
	}
	return out
}
