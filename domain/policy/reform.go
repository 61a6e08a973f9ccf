package policy

import (
	"fmt"
	"sort"
	"strings"
)

// Reform maps a policy parameter name to year-indexed override values.
// An override in year y applies from y forward until a newer override.
type Reform map[string]map[int]float64

// UserMods groups reform modification sets by area. The "policy" area holds
// the tax-law parameter overrides consumed by the scenario engine; other
// areas ride along opaquely (they still shape the disclosure seed).
type UserMods map[string]Reform

// PolicyArea is the UserMods key the scenario engine reads.
const PolicyArea = "policy"

// Policy returns the tax-law reform, which may be empty.
func (m UserMods) Policy() Reform {
	return m[PolicyArea]
}

// Canonical renders the modifications into a stable byte sequence: areas,
// parameters, and years are each emitted in sorted order so that two UserMods
// with equal content always serialize identically regardless of map order.
func (m UserMods) Canonical() []byte {
	var data strings.Builder

	areas := make([]string, 0, len(m))
	for area := range m {
		areas = append(areas, area)
	}
	sort.Strings(areas)

	for _, area := range areas {
		data.WriteString(area)
		data.WriteString("{")
		reform := m[area]
		params := make([]string, 0, len(reform))
		for p := range reform {
			params = append(params, p)
		}
		sort.Strings(params)
		for _, p := range params {
			data.WriteString(p)
			years := make([]int, 0, len(reform[p]))
			for y := range reform[p] {
				years = append(years, y)
			}
			sort.Ints(years)
			for _, y := range years {
				fmt.Fprintf(&data, ":%d=%v", y, reform[p][y])
			}
		}
		data.WriteString("}")
	}

	return []byte(data.String())
}

// ValueForYear resolves a parameter to its most recent override at or before
// year; ok is false when the reform never touches the parameter by then.
func (r Reform) ValueForYear(param string, year int) (float64, bool) {
	overrides, present := r[param]
	if !present {
		return 0, false
	}
	best := 0
	found := false
	for y := range overrides {
		if y <= year && (!found || y > best) {
			best = y
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return overrides[best], true
}
