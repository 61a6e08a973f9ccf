package policy

// Assumptions maps calendar year to behavioral-response parameter overrides
// for that year. Values carry forward: an override in year y applies to every
// later year until a newer override replaces it.
type Assumptions map[int]map[string]float64
