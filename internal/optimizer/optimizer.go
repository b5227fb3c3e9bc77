// Package optimizer turns nutrient targets into concrete food portions. The
// primary path is a linear program minimizing total absolute deviation from
// every target; a greedy energy-only allocation covers solver failure.
package optimizer

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/asrat/dietbuddy-intake/internal/models"
)

const (
	noteOptimized   = "Optimization succeeded"
	noteFallback    = "Optimization failed, fallback to greedy allocation."
	noteNoFoods     = "No foods available after applying allergy filter."
	groupMinPortion = 50.0
)

// FilterAllergies removes any food whose name contains a declared allergen
// substring. Placeholder entries like "none" are ignored.
func FilterAllergies(foods []models.Food, allergies []string) []models.Food {
	var active []string
	for _, a := range allergies {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" || a == "none" || a == "no" || a == "nil" || a == "n/a" {
			continue
		}
		active = append(active, a)
	}
	if len(active) == 0 {
		return foods
	}
	var kept []models.Food
	for _, f := range foods {
		name := strings.ToLower(f.Name)
		excluded := false
		for _, a := range active {
			if strings.Contains(name, a) {
				excluded = true
				break
			}
		}
		if !excluded {
			kept = append(kept, f)
		}
	}
	return kept
}

// Optimize allocates portions to meet the targets, excluding allergens
// first. Solver failure is not an error; the plan carries a fallback note.
func Optimize(foods []models.Food, targets models.NutrientTargets, allergies []string) *models.DietPlan {
	foods = FilterAllergies(foods, allergies)
	if len(foods) == 0 {
		return &models.DietPlan{Rations: []models.Ration{}, Note: noteNoFoods}
	}

	portions, err := solve(foods, targets)
	if err != nil {
		return &models.DietPlan{Rations: greedy(foods, targets), Note: noteFallback}
	}

	var rations []models.Ration
	for i, f := range foods {
		if portions[i] > 1e-6 {
			rations = append(rations, ration(f, portions[i]))
		}
	}
	return &models.DietPlan{Rations: rations, Note: noteOptimized}
}

// solve sets up the standard-form LP: min c.x subject to Ax = b, x >= 0.
// Variables are food portions in grams, then a (dev_pos, dev_neg) pair per
// nutrient target, then one surplus variable per food group constraint.
func solve(foods []models.Food, targets models.NutrientTargets) ([]float64, error) {
	type row struct {
		coefs  []float64 // per-food nutrient content per gram
		target float64
	}
	rows := []row{
		{coefs: nutrientCoefs(foods, func(f models.Food) float64 { return f.Energy }), target: targets.EnergyKcal},
		{coefs: nutrientCoefs(foods, func(f models.Food) float64 { return f.Protein }), target: targets.Macros["protein_g"]},
	}
	for _, name := range sortedKeys(targets.Micros) {
		n := name
		rows = append(rows, row{
			coefs:  nutrientCoefs(foods, func(f models.Food) float64 { return f.Micros[n] }),
			target: targets.Micros[n],
		})
	}

	groups := foodGroups(foods)
	nFoods := len(foods)
	nVars := nFoods + 2*len(rows) + len(groups)
	nRows := len(rows) + len(groups)

	c := make([]float64, nVars)
	for i := 0; i < 2*len(rows); i++ {
		c[nFoods+i] = 1 // minimize deviation only
	}

	a := mat.NewDense(nRows, nVars, nil)
	b := make([]float64, nRows)
	for r, rw := range rows {
		for i, coef := range rw.coefs {
			a.Set(r, i, coef)
		}
		a.Set(r, nFoods+2*r, -1)  // dev_pos
		a.Set(r, nFoods+2*r+1, 1) // dev_neg
		b[r] = rw.target
	}
	for g, group := range groups {
		r := len(rows) + g
		for _, i := range group {
			a.Set(r, i, 1)
		}
		a.Set(r, nFoods+2*len(rows)+g, -1) // surplus
		b[r] = groupMinPortion
	}

	_, x, err := lp.Simplex(c, a, b, 1e-8, nil)
	if err != nil {
		return nil, err
	}
	return x[:nFoods], nil
}

func nutrientCoefs(foods []models.Food, get func(models.Food) float64) []float64 {
	coefs := make([]float64, len(foods))
	for i, f := range foods {
		coefs[i] = get(f) / 100
	}
	return coefs
}

// foodGroups collects indexes per declared group; ungrouped foods carry no
// minimum-portion constraint.
func foodGroups(foods []models.Food) [][]int {
	byName := make(map[string][]int)
	for i, f := range foods {
		if f.Group != "" {
			byName[f.Group] = append(byName[f.Group], i)
		}
	}
	var groups [][]int
	for _, name := range sortedKeys(byName) {
		groups = append(groups, byName[name])
	}
	return groups
}

// greedy walks foods in input order filling the energy budget only. It makes
// no attempt to balance protein or micros.
func greedy(foods []models.Food, targets models.NutrientTargets) []models.Ration {
	rations := []models.Ration{}
	remaining := targets.EnergyKcal
	for _, f := range foods {
		if remaining <= 0 {
			break
		}
		portion := math.Min(100, remaining/math.Max(f.Energy, 1)*100)
		remaining -= f.Energy * portion / 100
		rations = append(rations, ration(f, portion))
	}
	return rations
}

func ration(f models.Food, portion float64) models.Ration {
	micros := make(map[string]float64, len(f.Micros))
	for k, v := range f.Micros {
		micros[k] = round1(v * portion / 100)
	}
	return models.Ration{
		Food:     f.Name,
		PortionG: round1(portion),
		Energy:   round1(f.Energy * portion / 100),
		Protein:  round1(f.Protein * portion / 100),
		Micros:   micros,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
