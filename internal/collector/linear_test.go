package collector

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asrat/dietbuddy-intake/internal/biomarker"
)

func slots(steps []Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Slot
	}
	return out
}

// Pins the diagnosis-to-question-block routing, including the ordering that
// keeps phenylketonuria out of the ketogenic block.
func TestBiomarkerBlockPerDiagnosis(t *testing.T) {
	cases := []struct {
		diagnosis string
		want      []string
	}{
		{"type 1 diabetes", []string{"hba1c", "glucose"}},
		{"CKD stage 3", []string{"creatinine", "egfr", "potassium", "phosphorus"}},
		{"PKU", []string{"phenylalanine", "tyrosine", "albumin"}},
		{"phenylketonuria on ketogenic diet", []string{"phenylalanine", "tyrosine", "albumin"}},
		{"MSUD", []string{"leucine", "isoleucine", "valine", "albumin"}},
		{"galactosemia", []string{"galactose_1_phosphate", "galt_activity", "albumin"}},
		{"epilepsy", []string{"aed_level", "ketone_level", "seizure_frequency"}},
		{"cystic fibrosis", []string{"fev1", "pancreatic_status", "vitamin_d", "vitamin_a"}},
		{"preterm infant", []string{"gestational_age", "corrected_age", "feeding_method", "hemoglobin"}},
		{"peanut allergy", []string{"allergen_type", "ige_level", "reaction_severity"}},
		{"Crohn's disease", []string{"crp", "esr", "fecal_calprotectin", "albumin"}},
		{"GERD", []string{"symptom_frequency"}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, slots(biomarkerSteps(c.diagnosis)), c.diagnosis)
	}
}

func TestNewLinearSkipsSeededSlots(t *testing.T) {
	l := NewLinear("type 1 diabetes", map[string]any{
		"age":       float64(12),
		"weight_kg": float64(40),
	})
	got := slots(l.Steps)
	assert.NotContains(t, got, "age")
	assert.NotContains(t, got, "weight_kg")
	assert.NotContains(t, got, "diagnosis")
	assert.Equal(t, []string{"height_cm", "medications", "hba1c", "glucose", "allergies", "country"}, got)

	// Seed values appear in the collected map from the start.
	assert.Equal(t, float64(12), l.Data["age"])
}

func TestLinearProgressFormat(t *testing.T) {
	l := NewLinear("type 1 diabetes", nil)
	turn := l.Start()
	assert.Equal(t, "(1/8)", turn.Progress)
	assert.Equal(t, "age", turn.Slot)

	turn = l.ProcessAnswer("12")
	assert.Equal(t, "(2/8)", turn.Progress)
	assert.Equal(t, "weight_kg", turn.Slot)
}

func TestLinearFullWalkthrough(t *testing.T) {
	l := NewLinear("type 1 diabetes", nil)
	l.Start()

	answers := []string{"12", "40", "150", "insulin", "7.8", "unknown", "peanuts", "Nigeria"}
	var turn Turn
	for _, a := range answers {
		turn = l.ProcessAnswer(a)
	}
	require.True(t, turn.Done)

	data := turn.Collected
	assert.Equal(t, 12.0, data["age"])
	assert.Equal(t, []string{"insulin"}, data["medications"])
	assert.Equal(t, []string{"peanuts"}, data["allergies"])
	assert.Equal(t, "Nigeria", data["country"])

	hba1c, ok := data["hba1c"].(biomarker.Reading)
	require.True(t, ok)
	assert.Equal(t, 7.8, hba1c.Value)

	// "unknown" for the optional glucose step leaves the slot unset.
	_, ok = data["glucose"]
	assert.False(t, ok)
}

func TestLinearRetryOnInvalidAnswer(t *testing.T) {
	l := NewLinear("type 1 diabetes", nil)
	l.Start()

	turn := l.ProcessAnswer("soon")
	assert.True(t, turn.Retry)
	assert.Equal(t, "age", turn.Slot)
	assert.NotEmpty(t, turn.Message)

	// Pointer did not advance.
	turn = l.ProcessAnswer("12")
	assert.Equal(t, "weight_kg", turn.Slot)
}

func TestLinearRejectsImpossibleBiomarker(t *testing.T) {
	l := NewLinear("CKD", nil)
	l.Start()
	for _, a := range []string{"60", "80", "175", "lisinopril"} {
		l.ProcessAnswer(a)
	}

	turn := l.ProcessAnswer("99")
	assert.True(t, turn.Retry)
	assert.Equal(t, "creatinine", turn.Slot)
	_, stored := l.Data["creatinine"]
	assert.False(t, stored)

	turn = l.ProcessAnswer("2.1")
	assert.Equal(t, "egfr", turn.Slot)
}

func TestLinearRoundTripsThroughJSON(t *testing.T) {
	l := NewLinear("type 1 diabetes", nil)
	l.Start()
	l.ProcessAnswer("12")

	raw, err := json.Marshal(l)
	require.NoError(t, err)

	var restored Linear
	require.NoError(t, json.Unmarshal(raw, &restored))
	assert.Equal(t, l.Index, restored.Index)
	assert.Equal(t, slots(l.Steps), slots(restored.Steps))
}
