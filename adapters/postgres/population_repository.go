package postgres

import (
	"context"
	"fmt"

	"taxsim/domain/microdata"
	"taxsim/ports"

	"github.com/jmoiron/sqlx"
)

// populationRepository implements ports.PopulationRepository over the
// filing_units table.
type populationRepository struct {
	db *sqlx.DB
}

// NewPopulationRepository creates a new population repository.
func NewPopulationRepository(db *sqlx.DB) ports.PopulationRepository {
	return &populationRepository{db: db}
}

// Load retrieves the filing units for a population source. The subsample is
// deterministic: record IDs divisible by 20, so repeated runs see the same
// reduced population.
func (r *populationRepository) Load(ctx context.Context, source microdata.PopulationSource, fullSample bool) ([]*microdata.FilingUnit, error) {
	query := `SELECT
		record_id,
		weight,
		COALESCE(wages, 0) as wages,
		COALESCE(self_emp, 0) as self_emp,
		COALESCE(cap_gains, 0) as cap_gains,
		COALESCE(other_inc, 0) as other_inc,
		COALESCE(deductions, 0) as deductions
	FROM filing_units WHERE source = $1`
	if !fullSample {
		query += ` AND record_id % 20 = 0`
	}
	query += ` ORDER BY record_id`

	rows, err := r.db.QueryxContext(ctx, query, string(source))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s filing units: %w", source, err)
	}
	defer rows.Close()

	var units []*microdata.FilingUnit
	for rows.Next() {
		var u microdata.FilingUnit
		if err := rows.StructScan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan filing unit: %w", err)
		}
		units = append(units, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading filing units: %w", err)
	}

	return units, nil
}

// Count returns the number of filing units stored for a source.
func (r *populationRepository) Count(ctx context.Context, source microdata.PopulationSource) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM filing_units WHERE source = $1`, string(source))
	if err != nil {
		return 0, fmt.Errorf("failed to count %s filing units: %w", source, err)
	}
	return count, nil
}
