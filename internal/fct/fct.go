// Package fct converts food composition table rows into the optimizer's
// food shape. Tables come from retrieval metadata and vary in schema, so
// the converter is tolerant about key names and units.
package fct

import (
	"strconv"
	"strings"

	"github.com/asrat/dietbuddy-intake/internal/models"
)

// Row is one food composition table record as retrieved; keys differ per
// source table.
type Row map[string]any

func pick(r Row, keys ...string) (any, bool) {
	for _, k := range keys {
		v, ok := r[k]
		if !ok {
			continue
		}
		switch s := v.(type) {
		case nil:
			continue
		case string:
			t := strings.TrimSpace(s)
			if t == "" || t == "-" || strings.EqualFold(t, "NA") || strings.EqualFold(t, "N/A") {
				continue
			}
		}
		return v, true
	}
	return nil, false
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// RowToFood normalizes one table row. The second return is false when the
// row has no usable name or no nutrient content at all.
func RowToFood(r Row) (models.Food, bool) {
	nameVal, ok := pick(r, "food", "food_name", "name", "item", "english_name", "local_name")
	if !ok {
		return models.Food{}, false
	}
	name := strings.ToLower(strings.TrimSpace(toString(nameVal)))
	if name == "" {
		return models.Food{}, false
	}

	var energy float64
	if v, ok := pick(r, "energy_kcal", "kcal", "energy"); ok {
		energy = toFloat(v)
	} else if v, ok := pick(r, "energy_kj", "kJ", "energy_kJ"); ok {
		energy = toFloat(v) / 4.184
	}

	var protein float64
	if v, ok := pick(r, "protein_g", "protein", "prot"); ok {
		protein = toFloat(v)
	}

	micros := map[string]float64{
		"calcium":   pickFloat(r, "calcium_mg", "calcium", "ca"),
		"iron":      pickFloat(r, "iron_mg", "iron", "fe"),
		"zinc":      pickFloat(r, "zinc_mg", "zinc", "zn"),
		"vitamin_c": pickFloat(r, "vitamin_c_mg", "vitamin_c", "ascorbic_acid", "vitc", "vit_c"),
	}

	f := models.Food{Name: name, Energy: energy, Protein: protein, Micros: micros}
	if v, ok := pick(r, "group", "food_group"); ok {
		f.Group = strings.ToLower(toString(v))
	}
	if f.Energy <= 0 && f.Protein <= 0 && !anyPositive(micros) {
		return models.Food{}, false
	}
	return f, true
}

// Convert normalizes a batch of rows, dropping unusable ones.
func Convert(rows []Row) []models.Food {
	var foods []models.Food
	for _, r := range rows {
		if f, ok := RowToFood(r); ok {
			foods = append(foods, f)
		}
	}
	return foods
}

func pickFloat(r Row, keys ...string) float64 {
	if v, ok := pick(r, keys...); ok {
		return toFloat(v)
	}
	return 0
}

func anyPositive(m map[string]float64) bool {
	for _, v := range m {
		if v > 0 {
			return true
		}
	}
	return false
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return ""
}

// Staples is the fallback food catalog used when no composition table is
// retrievable for the user's country. Values are kcal and grams per 100 g,
// micros in mg per 100 g. Names follow West African table conventions.
func Staples() []models.Food {
	return []models.Food{
		{Name: "rice, white, cooked", Energy: 130, Protein: 2.7, Group: "staple", Micros: map[string]float64{"calcium": 10, "iron": 0.2, "zinc": 0.5, "vitamin_c": 0}},
		{Name: "maize porridge", Energy: 112, Protein: 3.1, Group: "staple", Micros: map[string]float64{"calcium": 7, "iron": 0.6, "zinc": 0.9, "vitamin_c": 0}},
		{Name: "yam, boiled", Energy: 116, Protein: 1.5, Group: "staple", Micros: map[string]float64{"calcium": 14, "iron": 0.5, "zinc": 0.2, "vitamin_c": 12}},
		{Name: "cassava (garri)", Energy: 160, Protein: 1.4, Group: "staple", Micros: map[string]float64{"calcium": 16, "iron": 0.3, "zinc": 0.3, "vitamin_c": 20}},
		{Name: "plantain, boiled", Energy: 122, Protein: 1.3, Group: "staple", Micros: map[string]float64{"calcium": 3, "iron": 0.6, "zinc": 0.1, "vitamin_c": 18}},
		{Name: "cowpea (beans), cooked", Energy: 116, Protein: 7.7, Micros: map[string]float64{"calcium": 24, "iron": 2.5, "zinc": 1.3, "vitamin_c": 0}},
		{Name: "groundnut paste", Energy: 588, Protein: 25.1, Micros: map[string]float64{"calcium": 49, "iron": 1.9, "zinc": 3.3, "vitamin_c": 0}},
		{Name: "mackerel, grilled", Energy: 205, Protein: 19.0, Micros: map[string]float64{"calcium": 12, "iron": 1.6, "zinc": 0.6, "vitamin_c": 0}},
		{Name: "egg, boiled", Energy: 155, Protein: 12.6, Micros: map[string]float64{"calcium": 50, "iron": 1.2, "zinc": 1.1, "vitamin_c": 0}},
		{Name: "milk, whole", Energy: 61, Protein: 3.2, Micros: map[string]float64{"calcium": 113, "iron": 0, "zinc": 0.4, "vitamin_c": 0}},
		{Name: "spinach (efo), cooked", Energy: 23, Protein: 3.0, Micros: map[string]float64{"calcium": 136, "iron": 3.6, "zinc": 0.8, "vitamin_c": 10}},
		{Name: "orange", Energy: 47, Protein: 0.9, Micros: map[string]float64{"calcium": 40, "iron": 0.1, "zinc": 0.1, "vitamin_c": 53}},
	}
}
