// Package response applies elasticity-based behavioral responses to a
// reform calculator and extracts the baseline and reform result datasets.
package response

import (
	"math"

	"taxsim/domain/microdata"
	"taxsim/domain/policy"
	"taxsim/internal/errors"
	"taxsim/internal/scenario"
)

// Response converts the reform's tax changes into quantity responses using
// the year-resolved elasticities in behavior, recomputes the reform taxes,
// and returns the baseline and reform-with-response datasets. Neither input
// calculator's records are mutated.
func Response(calc1, calc2 *scenario.Calculator, behavior policy.Assumptions) (*microdata.Dataset, *microdata.Dataset, error) {
	params, err := policy.ParamDictForYear(calc1.Year(), behavior, policy.ParamInfo)
	if err != nil {
		return nil, nil, &errors.AppError{
			Code:    errors.CodeSchemaViolation,
			Message: "behavioral assumptions rejected",
			Cause:   err,
		}
	}
	beSub := params["BE_sub"]
	beInc := params["BE_inc"]
	beCG := params["BE_cg"]

	dv1, err := calc1.ResultsDataset()
	if err != nil {
		return nil, nil, err
	}

	// Static case: no behavioral response assumed.
	if beSub == 0 && beInc == 0 && beCG == 0 {
		dv2, err := calc2.ResultsDataset()
		if err != nil {
			return nil, nil, err
		}
		return dv1, dv2, nil
	}

	dv2static, err := calc2.ResultsDataset()
	if err != nil {
		return nil, nil, err
	}

	cgRateDelta := calc2.Params().CGRate - calc1.Params().CGRate
	calcResp := calc2.WithAdjustedRecords(func(i int, u *microdata.FilingUnit) {
		// Substitution effect: proportional change in the net-of-tax rate
		// on an extra dollar of earnings scales taxable labor income.
		mtr1 := calc1.MarginalCombinedRate(i)
		mtr2 := calc2.MarginalCombinedRate(i)
		if mtr1 < 1 && mtr2 < 1 {
			pch := (1-mtr2)/(1-mtr1) - 1
			u.Wages += beSub * pch * u.Wages
		}

		// Income effect: a reform that lowers aftertax income pushes labor
		// supply the other way (BE_inc is non-positive).
		dAftertax := dv2static.AftertaxIncome[i] - dv1.AftertaxIncome[i]
		u.Wages += beInc * dAftertax

		// Capital-gains realization response to the rate change.
		if u.CapGains > 0 && cgRateDelta != 0 {
			u.CapGains *= math.Exp(beCG * cgRateDelta)
		}
	})
	calcResp.CalcAll()

	dv2, err := calcResp.ResultsDataset()
	if err != nil {
		return nil, nil, err
	}
	return dv1, dv2, nil
}
