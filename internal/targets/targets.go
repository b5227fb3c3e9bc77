// Package targets derives daily nutrient targets from the collected
// profile. Values are age-based defaults, adjusted per condition; they are
// deliberately simple and conservative.
package targets

import (
	"fmt"
	"math"
	"strings"

	"github.com/asrat/dietbuddy-intake/internal/gatekeeper"
	"github.com/asrat/dietbuddy-intake/internal/models"
	"github.com/asrat/dietbuddy-intake/internal/schema"
)

// Compute builds nutrient targets for a profile. An absent age is treated
// as adult; absent anthropometry falls back to sex and age group defaults.
func Compute(p *schema.Profile) models.NutrientTargets {
	adult := p.Age == nil || *p.Age >= 18
	sex := strings.ToLower(p.Sex)

	weight := 0.0
	switch {
	case p.WeightKg != nil:
		weight = *p.WeightKg
	case sex == "female":
		weight = 60
	case adult:
		weight = 70
	default:
		weight = 30
	}

	energy := 2000.0
	protein := math.Max(45, math.Round(0.8*weight))
	if !adult {
		energy = 1400
		protein = math.Max(30, math.Round(1.0*weight))
	}

	t := models.NutrientTargets{
		EnergyKcal: energy,
		Macros:     map[string]float64{"protein_g": protein},
		Micros:     microDefaults(adult),
	}
	applyConditionAdjustments(&t, p.Diagnosis, adult)
	return t
}

// microDefaults covers the four micronutrients the food composition tables
// report per 100 g.
func microDefaults(adult bool) map[string]float64 {
	if adult {
		return map[string]float64{
			"calcium":   1000,
			"iron":      8,
			"zinc":      11,
			"vitamin_c": 75,
		}
	}
	return map[string]float64{
		"calcium":   700,
		"iron":      10,
		"zinc":      5,
		"vitamin_c": 45,
	}
}

func applyConditionAdjustments(t *models.NutrientTargets, diagnosis string, adult bool) {
	cond, ok := gatekeeper.NormalizeCondition(diagnosis)
	if !ok {
		return
	}
	switch cond {
	case gatekeeper.CondCKD:
		// Moderate protein reduces nitrogenous waste.
		t.Macros["protein_g"] = math.Round(t.Macros["protein_g"] * 0.75)
	case gatekeeper.CondCF:
		// CF needs 110-200% of standard energy intake.
		t.EnergyKcal = math.Round(t.EnergyKcal * 1.3)
	case gatekeeper.CondPreterm:
		if !adult {
			t.Macros["protein_g"] = math.Round(t.Macros["protein_g"] * 1.2)
			t.Micros["iron"] = 2 // mg/kg territory is handled by the clinician
		}
	case gatekeeper.CondEpilepsy:
		// Ketogenic therapy shifts energy to fat; protein held at the floor.
		t.Macros["fat_ratio"] = 4
	}
}

// BMI returns body-mass index from weight and height, or 0 when either is
// missing.
func BMI(p *schema.Profile) float64 {
	if p.WeightKg == nil || p.HeightCm == nil || *p.HeightCm <= 0 {
		return 0
	}
	m := *p.HeightCm / 100
	return math.Round(*p.WeightKg/(m*m)*10) / 10
}

// GrowthNote describes the appropriate growth screen for the profile.
// Children under two are assessed by weight-for-length, not BMI.
func GrowthNote(p *schema.Profile) string {
	if p.Age != nil && *p.Age < 2 {
		if cond, ok := gatekeeper.NormalizeCondition(p.Diagnosis); ok && cond == gatekeeper.CondPreterm {
			return "Growth: use corrected age and preterm growth charts; weight-for-length rather than BMI."
		}
		return "Growth: assess by weight-for-length percentile rather than BMI at this age."
	}
	bmi := BMI(p)
	if bmi == 0 {
		return ""
	}
	hint := "within the typical range"
	switch {
	case bmi < 18.5:
		hint = "below the typical range; consider energy-dense foods"
	case bmi >= 30:
		hint = "in the obese range; weight management may be part of therapy"
	case bmi >= 25:
		hint = "above the typical range"
	}
	return fmt.Sprintf("BMI %.1f, %s.", bmi, hint)
}

// MedicationTimingNotes returns dietary timing guidance for medications that
// interact with meals.
func MedicationTimingNotes(meds []string) []string {
	var notes []string
	has := func(subs ...string) bool {
		for _, m := range meds {
			ml := strings.ToLower(m)
			for _, s := range subs {
				if strings.Contains(ml, s) {
					return true
				}
			}
		}
		return false
	}
	if has("levodopa", "l-dopa") {
		notes = append(notes, "Separate levodopa from high-protein meals by 1-2 hours; consider taking 30-60 min before meals.")
	}
	if has("levothyroxine", "thyroxine") {
		notes = append(notes, "Take levothyroxine on an empty stomach; avoid calcium/iron supplements within 4 hours.")
	}
	if has("ferrous") || hasExact(meds, "iron") {
		notes = append(notes, "Take iron with vitamin C; avoid tea/coffee and calcium around dosing time.")
	}
	return notes
}

func hasExact(meds []string, name string) bool {
	for _, m := range meds {
		if strings.EqualFold(strings.TrimSpace(m), name) {
			return true
		}
	}
	return false
}

// Rationale produces the per-nutrient explanation lines shown with a
// therapy summary.
func Rationale(diagnosis string, t models.NutrientTargets) []string {
	lines := []string{
		"Energy (kcal): meets basal and activity needs; chronic deficits impair immune and skin barrier function.",
	}
	if t.Macros["protein_g"] > 0 {
		lines = append(lines, "Protein: supports tissue repair and lean mass; needs scale with body weight.")
	}
	if t.Micros["vitamin_c"] > 0 {
		lines = append(lines, "Vitamin C: collagen synthesis and antioxidant defense.")
	}
	if t.Micros["iron"] > 0 {
		lines = append(lines, "Iron: oxygen transport; deficiency presents as fatigue and impaired cognition.")
	}
	if t.Micros["calcium"] > 0 {
		lines = append(lines, "Calcium: bone mineralization and neuromuscular function.")
	}
	if cond, ok := gatekeeper.NormalizeCondition(diagnosis); ok && cond == gatekeeper.CondCKD {
		lines = append(lines, "Mineral balance: adjust electrolytes by stage; moderate protein reduces nitrogenous waste.")
	}
	return lines
}
