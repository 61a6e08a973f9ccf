// Package ports defines the interfaces between the simulation engine and
// its infrastructure adapters.
package ports

import (
	"context"

	"taxsim/domain/microdata"
	"taxsim/domain/tables"
)

// PopulationRepository loads filing-unit records for a population source.
// fullSample=false asks for the repository's deterministic subsample, so
// repeated runs see the same reduced population.
type PopulationRepository interface {
	Load(ctx context.Context, source microdata.PopulationSource, fullSample bool) ([]*microdata.FilingUnit, error)
	Count(ctx context.Context, source microdata.PopulationSource) (int, error)
}

// ResultExporter writes a rendered result set somewhere durable.
type ResultExporter interface {
	Export(path string, year int, results tables.ResultSet) error
}
