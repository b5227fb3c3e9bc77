package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asrat/dietbuddy-intake/internal/schema"
)

func spec(t *testing.T, intent, slot string) *schema.SlotSpec {
	t.Helper()
	s := schema.Lookup(intent, slot)
	require.NotNil(t, s)
	return s
}

func TestParseSlotNumberBounds(t *testing.T) {
	age := spec(t, "therapy", "age")

	r := ParseSlot("I am 34 years old", age)
	assert.Equal(t, StatusSuccess, r.Status)
	assert.Equal(t, 34.0, r.Value)

	r = ParseSlot("150", age)
	assert.Equal(t, StatusFailed, r.Status)
	assert.Contains(t, r.Message, "between")

	r = ParseSlot("soon", age)
	assert.Equal(t, StatusFailed, r.Status)
}

func TestParseSlotWeightHeightBounds(t *testing.T) {
	r := ParseSlot("5", spec(t, "therapy", "weight_kg"))
	assert.Equal(t, StatusFailed, r.Status)

	r = ParseSlot("72.5 kg", spec(t, "therapy", "weight_kg"))
	assert.Equal(t, StatusSuccess, r.Status)
	assert.Equal(t, 72.5, r.Value)

	r = ParseSlot("300", spec(t, "therapy", "height_cm"))
	assert.Equal(t, StatusFailed, r.Status)
}

func TestParseSlotRejectionPhrases(t *testing.T) {
	age := spec(t, "therapy", "age")
	assert.Equal(t, StatusSkipRequested, ParseSlot("skip", age).Status)
	assert.Equal(t, StatusNotAvailable, ParseSlot("I don't have that", age).Status)
	assert.Equal(t, StatusNotAvailable, ParseSlot("no", age).Status)
}

func TestParseSlotMedicationList(t *testing.T) {
	meds := spec(t, "therapy", "medications")

	r := ParseSlot("insulin, metformin / lisinopril", meds)
	require.Equal(t, StatusSuccess, r.Status)
	assert.Equal(t, []string{"insulin", "metformin", "lisinopril"}, r.Value)

	r = ParseSlot("none", meds)
	require.Equal(t, StatusSuccess, r.Status)
	assert.Empty(t, r.Value)

	// Bare affirmation needs the actual list.
	r = ParseSlot("yes", meds)
	assert.Equal(t, StatusNeedDetails, r.Status)
}

func TestParseSlotAllergiesNoneIsTerminal(t *testing.T) {
	allergies := spec(t, "therapy", "allergies")
	r := ParseSlot("none", allergies)
	require.Equal(t, StatusSuccess, r.Status)
	assert.Equal(t, []string{"none"}, r.Value)
}

func TestParseSlotEnum(t *testing.T) {
	sex := spec(t, "therapy", "sex")
	r := ParseSlot("female", sex)
	assert.Equal(t, StatusSuccess, r.Status)
	assert.Equal(t, "female", r.Value)

	r = ParseSlot("purple", sex)
	assert.Equal(t, StatusFailed, r.Status)
}

func TestDefaults(t *testing.T) {
	for slot, want := range map[string]any{
		"age": 30.0, "weight_kg": 70.0, "height_cm": 170.0,
		"sex": "unknown", "country": "Nigeria",
	} {
		got, ok := Default(slot)
		require.True(t, ok, slot)
		assert.Equal(t, want, got, slot)
	}
	_, ok := Default("medications")
	assert.False(t, ok)
}

func TestRefusal(t *testing.T) {
	for _, s := range []string{"none", "No", "skip", "n/a", "I don't have that", "not sure"} {
		assert.True(t, Refusal(s), s)
	}
	for _, s := range []string{"hba1c 7.8%", "insulin", "one"} {
		assert.False(t, Refusal(s), s)
	}
}

func TestCritical(t *testing.T) {
	assert.True(t, Critical("therapy", "medications"))
	assert.True(t, Critical("therapy", "biomarkers"))
	assert.False(t, Critical("therapy", "age"))
	assert.False(t, Critical("recommendation", "medications"))
}
