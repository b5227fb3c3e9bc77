package optimizer

import (
	"fmt"

	"github.com/asrat/dietbuddy-intake/internal/models"
)

var mealOrder = []string{"breakfast", "lunch", "dinner"}

// MealPlan distributes an optimized plan's rations round-robin over three
// meals and accumulates a shopping list.
type MealPlan struct {
	Meals      map[string][]models.Ration `json:"meals"`
	Shopping   map[string]float64         `json:"shopping_list"`
	TotalGrams float64                    `json:"total_grams"`
	Note       string                     `json:"note,omitempty"`
}

// SplitMeals distributes an already-optimized plan's rations into meals.
// The plan is solved once by the caller; no re-optimization happens here.
func SplitMeals(plan *models.DietPlan) *MealPlan {
	mp := &MealPlan{
		Meals:    map[string][]models.Ration{"breakfast": {}, "lunch": {}, "dinner": {}},
		Shopping: map[string]float64{},
		Note:     plan.Note,
	}
	for i, r := range plan.Rations {
		key := mealOrder[i%len(mealOrder)]
		mp.Meals[key] = append(mp.Meals[key], r)
		mp.Shopping[r.Food] += r.PortionG
		mp.TotalGrams += r.PortionG
	}
	return mp
}

// WeeklyPlan repeats the single-day meal split over seven labeled days.
func WeeklyPlan(mp *MealPlan) []models.DayPlan {
	week := make([]models.DayPlan, 7)
	for i := range week {
		week[i] = models.DayPlan{Day: fmt.Sprintf("Day %d", i+1), Meals: mp.Meals}
	}
	return week
}
