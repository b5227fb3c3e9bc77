package orchestrator

import (
	"fmt"
	"strings"

	"github.com/asrat/dietbuddy-intake/internal/models"
	"github.com/asrat/dietbuddy-intake/internal/prompts"
	"github.com/asrat/dietbuddy-intake/internal/schema"
)

// safetyCheck is the hard gate run immediately before any final answer
// leaves the orchestrator. A violation is fatal for the turn: the answer is
// replaced wholesale, never patched.
func safetyCheck(answer string, intent string, p *schema.Profile, out *models.TherapyOutput, mealPlanConsent bool) error {
	if !strings.Contains(answer, prompts.Disclaimer) {
		return fmt.Errorf("answer missing educational disclaimer")
	}
	if intent == "therapy" && p.Medications == nil {
		return fmt.Errorf("therapy answer without recorded medications")
	}
	if out != nil {
		if err := checkPlanAllergens(out, p.ActiveAllergies()); err != nil {
			return err
		}
		if (out.Plan != nil || len(out.Meals) > 0) && !mealPlanConsent {
			return fmt.Errorf("meal plan present without recorded consent")
		}
	}
	return nil
}

// checkPlanAllergens verifies no allocated food carries a declared allergen
// substring. The optimizer filters before solving; this re-checks the
// composed output.
func checkPlanAllergens(out *models.TherapyOutput, allergies []string) error {
	check := func(food string) error {
		name := strings.ToLower(food)
		for _, a := range allergies {
			a = strings.ToLower(strings.TrimSpace(a))
			if a != "" && strings.Contains(name, a) {
				return fmt.Errorf("plan contains declared allergen %q in %q", a, food)
			}
		}
		return nil
	}
	if out.Plan != nil {
		for _, r := range out.Plan.Rations {
			if err := check(r.Food); err != nil {
				return err
			}
		}
	}
	for _, rations := range out.Meals {
		for _, r := range rations {
			if err := check(r.Food); err != nil {
				return err
			}
		}
	}
	return nil
}
