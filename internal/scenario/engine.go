// Package scenario builds and advances the baseline and reform calculators
// for a target simulation year.
package scenario

import (
	"context"
	"fmt"

	"taxsim/domain/microdata"
	"taxsim/domain/policy"
	"taxsim/internal/errors"
	"taxsim/ports"
)

// Year-range constants for the two population sources.
const (
	AdministrativeDataYear = 2011
	SurveyDataYear         = 2014
	LastBudgetYear         = 2034
)

// SourceFor maps the population flag onto a population source.
func SourceFor(fullPopulation bool) microdata.PopulationSource {
	if fullPopulation {
		return microdata.SourceAdministrative
	}
	return microdata.SourceSurvey
}

// DataYear returns the first calendar year the source's records represent.
func DataYear(source microdata.PopulationSource) int {
	if source == microdata.SourceAdministrative {
		return AdministrativeDataYear
	}
	return SurveyDataYear
}

// CheckYears validates the (yearN, startYear, population-source) triple.
// The simulated year startYear+yearN must fall inside the source's
// data-start to last-budget-year window.
func CheckYears(yearN, startYear int, fullPopulation bool) error {
	if yearN < 0 {
		return errors.YearRange(fmt.Sprintf("year_n=%d is negative", yearN))
	}
	source := SourceFor(fullPopulation)
	dataYear := DataYear(source)
	if startYear < dataYear {
		return errors.YearRange(fmt.Sprintf(
			"start_year=%d is before %s data year %d", startYear, source, dataYear))
	}
	simYear := startYear + yearN
	if simYear > LastBudgetYear {
		return errors.YearRange(fmt.Sprintf(
			"start_year=%d plus year_n=%d is beyond last budget year %d",
			startYear, yearN, LastBudgetYear))
	}
	return nil
}

// Engine loads populations and constructs calculator pairs.
type Engine struct {
	repo ports.PopulationRepository
}

// NewEngine creates a scenario engine over a population repository.
func NewEngine(repo ports.PopulationRepository) *Engine {
	return &Engine{repo: repo}
}

// Calculators builds the baseline and reform calculators for year
// startYear+yearN, both advanced to that year with taxes computed.
// The reform calculator runs under userMods' policy-area overrides.
func (e *Engine) Calculators(ctx context.Context, yearN, startYear int,
	fullPopulation, fullSample bool, userMods policy.UserMods) (*Calculator, *Calculator, error) {

	if err := CheckYears(yearN, startYear, fullPopulation); err != nil {
		return nil, nil, err
	}

	source := SourceFor(fullPopulation)
	units, err := e.repo.Load(ctx, source, fullSample)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "loading %s population", source)
	}
	if len(units) == 0 {
		return nil, nil, errors.DatabaseError(fmt.Sprintf("%s population is empty", source))
	}

	simYear := startYear + yearN
	dataYear := DataYear(source)
	baseParams := CurrentLawParams().Indexed(simYear - dataYear)
	reformParams, err := baseParams.ApplyReform(userMods.Policy(), simYear)
	if err != nil {
		return nil, nil, err
	}

	calc1 := NewCalculator(units, baseParams, simYear)
	calc2 := NewCalculator(units, reformParams, simYear)
	calc1.Advance(dataYear)
	calc2.Advance(dataYear)
	calc1.CalcAll()
	calc2.CalcAll()
	return calc1, calc2, nil
}
