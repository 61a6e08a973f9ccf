package policy

import (
	"fmt"
	"math"
	"sort"
)

// ParamSpec describes one behavioral-response elasticity: its legal range
// and the value assumed when no year overrides it.
type ParamSpec struct {
	Name    string
	Desc    string
	Min     float64
	Max     float64
	Default float64
}

// ParamInfo is the schema for behavioral-response assumptions.
//
// BE_sub is the substitution elasticity of taxable income (non-negative),
// BE_inc the income effect (non-positive), BE_cg the semi-elasticity of
// long-term capital gains (non-positive).
var ParamInfo = map[string]ParamSpec{
	"BE_sub": {
		Name:    "BE_sub",
		Desc:    "substitution elasticity of taxable income",
		Min:     0.0,
		Max:     math.Inf(1),
		Default: 0.0,
	},
	"BE_inc": {
		Name:    "BE_inc",
		Desc:    "income effect on taxable income",
		Min:     math.Inf(-1),
		Max:     0.0,
		Default: 0.0,
	},
	"BE_cg": {
		Name:    "BE_cg",
		Desc:    "semi-elasticity of long-term capital gains",
		Min:     math.Inf(-1),
		Max:     0.0,
		Default: 0.0,
	},
}

// SchemaError reports a behavioral-assumption value that violates ParamInfo.
type SchemaError struct {
	Year    int
	Param   string
	Message string
}

func (e *SchemaError) Error() string {
	return e.Message
}

func schemaErrorf(year int, param, format string, args ...interface{}) *SchemaError {
	return &SchemaError{
		Year:    year,
		Param:   param,
		Message: fmt.Sprintf(format, args...),
	}
}

// ParamDictForYear resolves behavior into a concrete parameter dictionary
// for one calendar year. Every parameter in info gets a value: its default,
// or the most recent override at or before year. Overrides are validated as
// they are applied; the first violation stops the resolution.
func ParamDictForYear(year int, behavior Assumptions, info map[string]ParamSpec) (map[string]float64, error) {
	resolved := make(map[string]float64, len(info))
	for name, spec := range info {
		resolved[name] = spec.Default
	}

	years := make([]int, 0, len(behavior))
	for y := range behavior {
		years = append(years, y)
	}
	sort.Ints(years)

	for _, y := range years {
		if y > year {
			break
		}
		params := behavior[y]
		names := make([]string, 0, len(params))
		for name := range params {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			value := params[name]
			spec, known := info[name]
			if !known {
				return nil, schemaErrorf(y, name,
					"unknown behavioral-response parameter %s specified in year %d", name, y)
			}
			if math.IsNaN(value) {
				return nil, schemaErrorf(y, name,
					"%s value for year %d is not a number", name, y)
			}
			if value < spec.Min {
				return nil, schemaErrorf(y, name,
					"%s value %g for year %d is below minimum %g", name, value, y, spec.Min)
			}
			if value > spec.Max {
				return nil, schemaErrorf(y, name,
					"%s value %g for year %d is above maximum %g", name, value, y, spec.Max)
			}
			resolved[name] = value
		}
	}

	return resolved, nil
}
