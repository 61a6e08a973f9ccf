// Package fuzz implements the disclosure-avoidance pipeline: a reform-specific
// deterministic seed, the affected-unit mask, and the perturbation kernel
// applied to result datasets before summary tables are built.
package fuzz

import (
	"math"
	"math/rand"

	"taxsim/domain/core"
	"taxsim/domain/microdata"
	"taxsim/domain/policy"
)

// Granularity tags which output family a fuzzed pair is being prepared for.
type Granularity string

const (
	GranAggregate Granularity = "aggr"
	GranBin       Granularity = "xbin"
	GranDecile    Granularity = "xdec"
)

// AffectedTolerance is the absolute combined-outcome difference beyond which
// a filing unit counts as affected by the reform. No relative component:
// outcome magnitudes span orders of magnitude, so a relative test would flag
// small and large units inconsistently.
const AffectedTolerance = 0.01

// selectFraction is the share of unaffected units whose detail is masked per
// granularity pass.
const selectFraction = 0.05

// placementJitter bounds the relative perturbation of a masked unit's
// placement income.
const placementJitter = 0.005

// ReformSeed derives a deterministic, reform-specific generator seed from the
// content of the user modifications. The same reform always yields the same
// seed; different reforms yield different seeds with high probability.
func ReformSeed(userMods policy.UserMods) int64 {
	return core.NewHash(userMods.Canonical()).Seed31()
}

// NewRand constructs the locally-owned generator for one simulation run.
// The generator is seeded exactly once and then consumed sequentially across
// the aggregate, bin, and decile granularities; that ordering is part of the
// reproducibility contract.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// AffectedMask marks the filing units whose combined outcomes under baseline
// and reform differ by more than atol in absolute terms.
func AffectedMask(dv1, dv2 *microdata.Dataset, atol float64) []bool {
	n := dv1.Len()
	mask := make([]bool, n)
	for i := 0; i < n; i++ {
		mask[i] = math.Abs(dv1.Combined[i]-dv2.Combined[i]) > atol
	}
	return mask
}

// Fuzzed returns perturbed copies of the dataset pair for one granularity.
//
// For unaffected units picked by the generator, the reform outcome columns
// are overwritten with the baseline values, erasing any sub-tolerance
// residue that could distinguish the unit. For the bin and decile
// granularities the picked units' placement income is additionally jittered,
// identically in both copies, so bucket membership no longer identifies a
// unit while every baseline/reform difference the summary builders aggregate
// is preserved.
//
// The generator draws exactly one selection value per unit plus one jitter
// value per picked unaffected unit, in row order, so repeated runs from the
// same seed and call order reproduce bit-identical outputs.
func Fuzzed(rng *rand.Rand, dv1, dv2 *microdata.Dataset, affected []bool, gran Granularity) (*microdata.Dataset, *microdata.Dataset) {
	f1 := dv1.Clone()
	f2 := dv2.Clone()
	n := f1.Len()
	for i := 0; i < n; i++ {
		pick := rng.Float64() < selectFraction
		if affected[i] || !pick {
			continue
		}
		f2.IncomeTax[i] = f1.IncomeTax[i]
		f2.PayrollTax[i] = f1.PayrollTax[i]
		f2.Combined[i] = f1.Combined[i]
		f2.AftertaxIncome[i] = f1.ExpandedIncome[i] - f1.Combined[i]
		if gran == GranBin || gran == GranDecile {
			jitter := 1 + placementJitter*(2*rng.Float64()-1)
			f1.ExpandedIncome[i] *= jitter
			f2.ExpandedIncome[i] = f1.ExpandedIncome[i]
		}
	}
	return f1, f2
}
