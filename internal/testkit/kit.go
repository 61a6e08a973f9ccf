// Package testkit provides synthetic populations and an in-memory
// population repository for tests and offline runs.
package testkit

import (
	"context"
	"log"

	"taxsim/domain/microdata"
	"taxsim/ports"
)

// InMemoryPopulationRepository serves generated filing units for both
// population sources. The subsample is deterministic: every 20th record,
// so repeated runs see the same reduced population.
type InMemoryPopulationRepository struct {
	units map[microdata.PopulationSource][]*microdata.FilingUnit
}

// NewInMemoryPopulationRepository creates an empty repository.
func NewInMemoryPopulationRepository() *InMemoryPopulationRepository {
	return &InMemoryPopulationRepository{
		units: make(map[microdata.PopulationSource][]*microdata.FilingUnit),
	}
}

// Put installs a population for a source.
func (r *InMemoryPopulationRepository) Put(source microdata.PopulationSource, units []*microdata.FilingUnit) {
	r.units[source] = units
}

// Load implements ports.PopulationRepository.
func (r *InMemoryPopulationRepository) Load(_ context.Context, source microdata.PopulationSource, fullSample bool) ([]*microdata.FilingUnit, error) {
	all := r.units[source]
	if fullSample {
		return all, nil
	}
	sub := make([]*microdata.FilingUnit, 0, len(all)/20+1)
	for i := 0; i < len(all); i += 20 {
		sub = append(sub, all[i])
	}
	return sub, nil
}

// Count implements ports.PopulationRepository.
func (r *InMemoryPopulationRepository) Count(_ context.Context, source microdata.PopulationSource) (int, error) {
	return len(r.units[source]), nil
}

var _ ports.PopulationRepository = (*InMemoryPopulationRepository)(nil)

// NewSyntheticRepository generates a population from config and installs it
// for both sources, logging its diagnostic summary.
func NewSyntheticRepository(config PopulationConfig) *InMemoryPopulationRepository {
	gen := NewPopulationGenerator(config)
	units := gen.Generate()

	if summary, err := Summarize(units); err == nil {
		log.Printf("[TestKit] synthetic population: %d units, weight %.0f, median income %.0f, p90 %.0f",
			summary.Units, summary.TotalWeight, summary.MedianIncome, summary.P90Income)
	}

	repo := NewInMemoryPopulationRepository()
	repo.Put(microdata.SourceAdministrative, units)
	repo.Put(microdata.SourceSurvey, units)
	return repo
}
