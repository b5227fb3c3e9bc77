package fct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowToFoodKeyVariants(t *testing.T) {
	f, ok := RowToFood(Row{
		"food_name": "Brown Rice",
		"kcal":      "362",
		"protein_g": 7.5,
		"iron_mg":   "1.8",
	})
	require.True(t, ok)
	assert.Equal(t, "brown rice", f.Name)
	assert.Equal(t, 362.0, f.Energy)
	assert.Equal(t, 7.5, f.Protein)
	assert.Equal(t, 1.8, f.Micros["iron"])
	assert.Equal(t, 0.0, f.Micros["zinc"])
}

func TestRowToFoodKilojouleFallback(t *testing.T) {
	f, ok := RowToFood(Row{"food": "millet", "energy_kj": 1582.0})
	require.True(t, ok)
	assert.InDelta(t, 378.1, f.Energy, 0.1)
}

func TestRowToFoodSkipsPlaceholders(t *testing.T) {
	f, ok := RowToFood(Row{"food": "ugu", "energy": "N/A", "energy_kj": "-", "vitamin_c": 11})
	require.True(t, ok)
	assert.Equal(t, 0.0, f.Energy)
	assert.Equal(t, 11.0, f.Micros["vitamin_c"])
}

func TestRowToFoodRejectsEmptyRows(t *testing.T) {
	_, ok := RowToFood(Row{"energy": 100})
	assert.False(t, ok, "no name")

	_, ok = RowToFood(Row{"food": "water", "energy": 0})
	assert.False(t, ok, "no nutrient content")
}

func TestConvertDropsUnusable(t *testing.T) {
	foods := Convert([]Row{
		{"food": "rice", "energy": 130, "protein": 2.7},
		{"item": "", "energy": 100},
		{"food": "beans", "energy": "116", "protein": "7.7"},
	})
	require.Len(t, foods, 2)
	assert.Equal(t, "rice", foods[0].Name)
	assert.Equal(t, 116.0, foods[1].Energy)
}

func TestStaplesCatalog(t *testing.T) {
	staples := Staples()
	require.NotEmpty(t, staples)
	groups := 0
	for _, f := range staples {
		assert.True(t, f.Energy > 0 || f.Protein > 0, f.Name)
		if f.Group == "staple" {
			groups++
		}
	}
	assert.GreaterOrEqual(t, groups, 3)
}
