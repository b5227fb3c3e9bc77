package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asrat/dietbuddy-intake/internal/models"
	"github.com/asrat/dietbuddy-intake/internal/prompts"
	"github.com/asrat/dietbuddy-intake/internal/schema"
)

func TestSafetyCheckRequiresDisclaimer(t *testing.T) {
	p := schema.NewProfile()
	err := safetyCheck("eat more vegetables", "general", p, nil, false)
	require.Error(t, err)

	err = safetyCheck("eat more vegetables\n\n"+prompts.Disclaimer, "general", p, nil, false)
	assert.NoError(t, err)
}

func TestSafetyCheckTherapyNeedsMedications(t *testing.T) {
	p := schema.NewProfile()
	answer := "plan text\n\n" + prompts.Disclaimer

	err := safetyCheck(answer, "therapy", p, nil, false)
	require.Error(t, err)

	require.NoError(t, p.Set("therapy", "medications", []string{}))
	assert.NoError(t, safetyCheck(answer, "therapy", p, nil, false))
}

func TestSafetyCheckRejectsAllergenInPlan(t *testing.T) {
	p := schema.NewProfile()
	require.NoError(t, p.Set("therapy", "medications", []string{"insulin"}))
	require.NoError(t, p.Set("therapy", "allergies", []string{"Peanut"}))

	out := &models.TherapyOutput{
		Plan: &models.DietPlan{Rations: []models.Ration{{Food: "Peanut butter", PortionG: 50}}},
	}
	answer := "plan text\n\n" + prompts.Disclaimer
	err := safetyCheck(answer, "therapy", p, out, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allergen")

	// Allergen named in prose but absent from the plan is fine.
	out.Plan.Rations[0].Food = "Brown rice"
	assert.NoError(t, safetyCheck(answer+" avoid peanuts entirely", "therapy", p, out, true))
}

func TestSafetyCheckRejectsPlanWithoutConsent(t *testing.T) {
	p := schema.NewProfile()
	require.NoError(t, p.Set("therapy", "medications", []string{"insulin"}))

	out := &models.TherapyOutput{
		Plan: &models.DietPlan{Rations: []models.Ration{{Food: "Brown rice", PortionG: 100}}},
	}
	answer := "plan text\n\n" + prompts.Disclaimer
	err := safetyCheck(answer, "therapy", p, out, false)
	require.Error(t, err)
	assert.NoError(t, safetyCheck(answer, "therapy", p, out, true))
}
