// Package biomarker enforces physiological plausibility on extracted lab
// values. A reading is checked here exactly once, before it is ever stored
// in a session slot.
package biomarker

import (
	"fmt"
	"strings"
)

// Severity levels for a validated reading.
const (
	SeverityNone       = ""
	SeverityCritical   = "critical"
	SeverityImpossible = "impossible"
)

// Result of validating one reading.
type Result struct {
	Valid    bool   `json:"valid"`
	Severity string `json:"severity,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Reading is a lab value with its unit and validation outcome.
type Reading struct {
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	Validation Result  `json:"validation"`
}

// bounds holds the physiological envelope for one biomarker in one unit.
// Outside [AbsMin, AbsMax] a value is impossible; inside the absolute
// envelope but outside [CritLow, CritHigh] it is accepted and flagged.
type bounds struct {
	AbsMin, AbsMax   float64
	CritLow, CritHigh float64
}

// unitRanges maps biomarker -> unit -> bounds. The unit string selects the
// active range before any bound check; creatinine in µmol/L is two orders of
// magnitude larger than in mg/dL, so a shared range would be meaningless.
var unitRanges = map[string]map[string]bounds{
	"creatinine": {
		"mg/dL":  {0.01, 30.0, 0.3, 10.0},
		"µmol/L": {1, 2655, 27, 884},
	},
	"albumin": {
		"g/dL": {0.5, 7.0, 2.0, 5.5},
		"g/L":  {5, 70, 20, 55},
	},
	"hemoglobin": {
		"g/dL": {1, 25, 7, 18},
		"g/L":  {10, 250, 70, 180},
	},
	"hba1c": {
		"%":        {2, 25, 3.5, 14},
		"mmol/mol": {1, 200, 15, 130},
	},
	"glucose": {
		"mg/dL":  {10, 1500, 54, 400},
		"mmol/L": {0.5, 83, 3.0, 22},
	},
	"egfr": {
		"mL/min/1.73m²": {1, 200, 15, 150},
	},
	"potassium": {
		"mEq/L": {0.5, 12, 3.0, 6.0},
	},
	"sodium": {
		"mEq/L": {80, 200, 125, 155},
	},
	"phosphorus": {
		"mg/dL": {0.1, 20, 2.0, 7.0},
	},
	"phenylalanine": {
		"mg/dL":  {0.1, 100, 1, 20},
		"µmol/L": {5, 6000, 60, 1200},
	},
	"leucine": {
		"µmol/L": {5, 5000, 50, 700},
	},
	"ketone_level": {
		"mmol/L": {0.01, 25, 0.1, 6},
	},
}

// canonicalUnit is used when the caller supplies no unit or an unrecognized
// one: the first listed unit is the one the intake questions ask in.
var canonicalUnit = map[string]string{
	"creatinine":    "mg/dL",
	"albumin":       "g/dL",
	"hemoglobin":    "g/dL",
	"hba1c":         "%",
	"glucose":       "mg/dL",
	"egfr":          "mL/min/1.73m²",
	"potassium":     "mEq/L",
	"sodium":        "mEq/L",
	"phosphorus":    "mg/dL",
	"phenylalanine": "mg/dL",
	"leucine":       "µmol/L",
	"ketone_level":  "mmol/L",
}

// unitAliases normalizes common spellings before range selection.
var unitAliases = map[string]string{
	"umol/l":          "µmol/L",
	"µmol/l":          "µmol/L",
	"mcmol/l":         "µmol/L",
	"mg/dl":           "mg/dL",
	"g/dl":            "g/dL",
	"g/l":             "g/L",
	"mmol/l":          "mmol/L",
	"mmol/mol":        "mmol/mol",
	"meq/l":           "mEq/L",
	"ml/min/1.73m2":   "mL/min/1.73m²",
	"ml/min/1.73m²":   "mL/min/1.73m²",
	"ml/min":          "mL/min/1.73m²",
	"%":               "%",
	"percent":         "%",
}

// Validate classifies a numeric reading as impossible, critical, or valid.
// Unknown biomarker names pass through unvalidated: no range is defined for
// them, and rejecting would block legitimate condition-specific labs.
func Validate(name string, value float64, unit string) Result {
	if value <= 0 {
		return Result{
			Valid:    false,
			Severity: SeverityImpossible,
			Message:  fmt.Sprintf("%s of %g is not physiologically possible", name, value),
		}
	}

	key := strings.ToLower(strings.TrimSpace(name))
	perUnit, ok := unitRanges[key]
	if !ok {
		return Result{Valid: true}
	}

	b, ok := perUnit[normalizeUnit(key, unit)]
	if !ok {
		b = perUnit[canonicalUnit[key]]
	}

	if value < b.AbsMin || value > b.AbsMax {
		return Result{
			Valid:    false,
			Severity: SeverityImpossible,
			Message:  fmt.Sprintf("%s %g %s is outside the physiologically possible range [%g, %g]", name, value, unit, b.AbsMin, b.AbsMax),
		}
	}

	if value < b.CritLow || value > b.CritHigh {
		return Result{
			Valid:    true,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("%s %g %s is outside the expected range [%g, %g]; please verify with a clinician", name, value, unit, b.CritLow, b.CritHigh),
		}
	}

	return Result{Valid: true}
}

// NewReading validates and packages a value in one step.
func NewReading(name string, value float64, unit string) Reading {
	if unit == "" {
		unit = canonicalUnit[strings.ToLower(strings.TrimSpace(name))]
	}
	return Reading{Value: value, Unit: unit, Validation: Validate(name, value, unit)}
}

// Known reports whether a range table exists for the biomarker.
func Known(name string) bool {
	_, ok := unitRanges[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

func normalizeUnit(biomarker, unit string) string {
	u := strings.TrimSpace(unit)
	if u == "" {
		return canonicalUnit[biomarker]
	}
	if alias, ok := unitAliases[strings.ToLower(u)]; ok {
		return alias
	}
	return u
}
