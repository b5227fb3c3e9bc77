package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asrat/dietbuddy-intake/internal/biomarker"
)

func TestFirstMissingFollowsAskPriority(t *testing.T) {
	p := NewProfile()

	spec := FirstMissing("therapy", p)
	require.NotNil(t, spec)
	assert.Equal(t, "diagnosis", spec.Name)

	require.NoError(t, p.Set("therapy", "diagnosis", "ckd"))
	spec = FirstMissing("therapy", p)
	require.NotNil(t, spec)
	assert.Equal(t, "age", spec.Name)

	require.NoError(t, p.Set("therapy", "age", 40.0))
	require.NoError(t, p.Set("therapy", "sex", "male"))
	require.NoError(t, p.Set("therapy", "weight_kg", 80.0))
	require.NoError(t, p.Set("therapy", "height_cm", 180.0))
	spec = FirstMissing("therapy", p)
	require.NotNil(t, spec)
	assert.Equal(t, "medications", spec.Name)

	require.NoError(t, p.Set("therapy", "medications", []string{"sevelamer"}))
	spec = FirstMissing("therapy", p)
	require.NotNil(t, spec)
	assert.Equal(t, "biomarkers", spec.Name)

	require.NoError(t, p.SetBiomarker("creatinine", biomarker.NewReading("creatinine", 2.4, "mg/dL")))
	assert.Nil(t, FirstMissing("therapy", p))
}

func TestFirstMissingSkipsOptionalSlots(t *testing.T) {
	p := NewProfile()
	require.NoError(t, p.Set("recommendation", "age", 25.0))
	assert.Nil(t, FirstMissing("recommendation", p))
}

func TestGeneralIntentHasNoSlots(t *testing.T) {
	assert.Nil(t, FirstMissing("general", NewProfile()))
	assert.Nil(t, FirstMissing("unknown-intent", NewProfile()))
}

func TestProgressCountsRequiredOnly(t *testing.T) {
	p := NewProfile()
	require.NoError(t, p.Set("therapy", "diagnosis", "ckd"))
	assert.Equal(t, " (2/7 required)", Progress("therapy", p))

	assert.Equal(t, "", Progress("general", p))
}

func TestSetRejectsOutOfRangeValues(t *testing.T) {
	p := NewProfile()
	assert.Error(t, p.Set("therapy", "age", 300.0))
	assert.Error(t, p.Set("therapy", "weight_kg", 2.0))
	assert.Error(t, p.Set("therapy", "sex", "yes"))
	assert.Error(t, p.Set("therapy", "diagnosis", "   "))
	assert.Error(t, p.Set("therapy", "no_such_slot", "x"))
}

func TestSetBiomarkerRejectsImpossible(t *testing.T) {
	p := NewProfile()
	err := p.SetBiomarker("hba1c", biomarker.NewReading("hba1c", 90, "%"))
	assert.Error(t, err)
	assert.Empty(t, p.Biomarkers)

	require.NoError(t, p.SetBiomarker("hba1c", biomarker.NewReading("hba1c", 7.8, "%")))
	assert.True(t, p.Has("biomarkers"))
}

func TestHasTreatsEmptyAnswersAsPresent(t *testing.T) {
	p := NewProfile()
	assert.False(t, p.Has("medications"))
	require.NoError(t, p.Set("therapy", "medications", []string{}))
	assert.True(t, p.Has("medications"))

	require.NoError(t, p.Set("therapy", "allergies", []string{"none"}))
	assert.True(t, p.Has("allergies"))
	assert.Empty(t, p.ActiveAllergies())
}

func TestActiveAllergiesStripsPlaceholders(t *testing.T) {
	p := NewProfile()
	require.NoError(t, p.Set("therapy", "allergies", []string{"Peanut", "none", "N/A", "milk"}))
	assert.ElementsMatch(t, []string{"peanut", "milk"}, p.ActiveAllergies())
}

func TestCloneIsIndependent(t *testing.T) {
	p := NewProfile()
	require.NoError(t, p.Set("therapy", "medications", []string{"insulin"}))
	require.NoError(t, p.SetBiomarker("hba1c", biomarker.NewReading("hba1c", 7.0, "%")))

	c := p.Clone()
	c.Medications[0] = "changed"
	require.NoError(t, c.SetBiomarker("glucose", biomarker.NewReading("glucose", 100, "mg/dL")))

	assert.Equal(t, "insulin", p.Medications[0])
	assert.NotContains(t, p.Biomarkers, "glucose")
}
