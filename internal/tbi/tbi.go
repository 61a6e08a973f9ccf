// Package tbi orchestrates single-year partial-equilibrium simulations:
// baseline vs reform with a behavioral response, disclosure-avoidance
// fuzzing, and year-qualified summary tables.
package tbi

import (
	"context"
	"fmt"
	"log"

	"taxsim/domain/microdata"
	"taxsim/domain/policy"
	"taxsim/domain/tables"
	"taxsim/internal/errors"
	"taxsim/internal/fuzz"
	"taxsim/internal/response"
	"taxsim/internal/scenario"
	"taxsim/internal/summary"
	"taxsim/ports"

	"golang.org/x/sync/errgroup"
)

// AssumptionErrors pre-flights a multi-year behavioral-assumption set: every
// year in [startYear, startYear+numYears) is resolved against the parameter
// schema and each violation contributes one message. The returned text is
// empty when all years resolve cleanly. A nil behavior is a contract
// violation, not a recoverable validation failure.
func AssumptionErrors(behavior policy.Assumptions, startYear, numYears int) (string, error) {
	if behavior == nil {
		return "", errors.ContractViolation("behavior must be a mapping")
	}
	errText := ""
	for iyr := 0; iyr < numYears; iyr++ {
		cyear := startYear + iyr
		if _, err := policy.ParamDictForYear(cyear, behavior, policy.ParamInfo); err != nil {
			errText += fmt.Sprintf("ERROR in year=%d: %v ", cyear, err)
		}
	}
	return errText, nil
}

// Model drives per-year scenario computation and summary construction.
type Model struct {
	engine *scenario.Engine
}

// NewModel creates a simulation model over a population repository.
func NewModel(repo ports.PopulationRepository) *Model {
	return &Model{engine: scenario.NewEngine(repo)}
}

// RunResult holds one simulated year's summary tables in exactly one of the
// two output shapes.
type RunResult struct {
	Year   int
	Tables tables.ResultSet // shape A: year-suffixed columns, native tables
	Dict   *DictResultSet   // shape B: JSON-safe nested mappings
}

// RunNthYear implements the partial-equilibrium simulation for year
// startYear+yearN.
//
// Fuzzing is enabled exactly when the run uses the full administrative
// population: it is a disclosure-avoidance control, not a behavioral one.
// When enabled, a reform-specific seed drives a locally-owned generator that
// is consumed strictly in aggregate, bin, decile order; re-running with the
// same modifications reproduces bit-identical fuzzed tables.
func (m *Model) RunNthYear(ctx context.Context, yearN, startYear int,
	useFullPopulation, useFullSample bool,
	userMods policy.UserMods, behavior policy.Assumptions,
	returnDict bool) (*RunResult, error) {

	if userMods == nil {
		return nil, errors.ContractViolation("user_mods must be a mapping")
	}
	if behavior == nil {
		return nil, errors.ContractViolation("behavior must be a mapping")
	}

	if err := scenario.CheckYears(yearN, startYear, useFullPopulation); err != nil {
		return nil, err
	}

	dv1, dv2, err := m.rawResults(ctx, yearN, startYear,
		useFullPopulation, useFullSample, userMods, behavior)
	if err != nil {
		return nil, err
	}

	sres := make(tables.ResultSet)
	fuzzing := useFullPopulation
	if fuzzing {
		seed := fuzz.ReformSeed(userMods)
		log.Printf("[Model] fuzzing_seed=%d", seed)
		rng := fuzz.NewRand(seed)
		affected := fuzz.AffectedMask(dv1, dv2, fuzz.AffectedTolerance)

		// Each granularity's fuzzed pair is scoped to its block so at most
		// one pair is live at a time.
		{
			agg1, agg2 := fuzz.Fuzzed(rng, dv1, dv2, affected, fuzz.GranAggregate)
			sres = summary.Aggregate(sres, agg1, agg2)
		}
		{
			bin1, bin2 := fuzz.Fuzzed(rng, dv1, dv2, affected, fuzz.GranBin)
			sres = summary.DistXbin(sres, bin1, bin2)
			sres = summary.DiffXbin(sres, bin1, bin2)
		}
		{
			dec1, dec2 := fuzz.Fuzzed(rng, dv1, dv2, affected, fuzz.GranDecile)
			sres = summary.DistXdec(sres, dec1, dec2)
			sres = summary.DiffXdec(sres, dec1, dec2)
		}
	} else {
		sres = summary.Aggregate(sres, dv1, dv2)
		sres = summary.DistXbin(sres, dv1, dv2)
		sres = summary.DiffXbin(sres, dv1, dv2)
		sres = summary.DistXdec(sres, dv1, dv2)
		sres = summary.DiffXdec(sres, dv1, dv2)
	}

	year := startYear + yearN
	if !returnDict {
		for _, t := range sres {
			appendYearToColumns(t, year)
		}
		return &RunResult{Year: year, Tables: sres}, nil
	}

	dict, err := buildDict(sres, year)
	if err != nil {
		return nil, err
	}
	return &RunResult{Year: year, Dict: dict}, nil
}

// rawResults obtains the unfuzzed dataset pair. The calculators carry full
// record copies; scoping them here guarantees they are unreachable once the
// raw results are extracted.
func (m *Model) rawResults(ctx context.Context, yearN, startYear int,
	useFullPopulation, useFullSample bool,
	userMods policy.UserMods, behavior policy.Assumptions) (dv1, dv2 *microdata.Dataset, err error) {

	calc1, calc2, err := m.engine.Calculators(ctx, yearN, startYear,
		useFullPopulation, useFullSample, userMods)
	if err != nil {
		return nil, nil, err
	}
	dv1, dv2, err = response.Response(calc1, calc2, behavior)
	if err != nil {
		return nil, nil, err
	}
	if err := dv1.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "baseline dataset invalid")
	}
	if err := dv2.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "reform dataset invalid")
	}
	return dv1, dv2, nil
}

// RunYears runs years 0..numYears-1 concurrently in dict shape. Each run
// owns its generator, so concurrent runs never share pseudo-random state,
// and year-qualified labels keep the merged results collision-free.
func (m *Model) RunYears(ctx context.Context, numYears, startYear int,
	useFullPopulation, useFullSample bool,
	userMods policy.UserMods, behavior policy.Assumptions) ([]*RunResult, error) {

	results := make([]*RunResult, numYears)
	g, gctx := errgroup.WithContext(ctx)
	for yearN := 0; yearN < numYears; yearN++ {
		g.Go(func() error {
			res, err := m.RunNthYear(gctx, yearN, startYear,
				useFullPopulation, useFullSample, userMods, behavior, true)
			if err != nil {
				return fmt.Errorf("year_n=%d: %w", yearN, err)
			}
			results[yearN] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
