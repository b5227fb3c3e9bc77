package targets

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/asrat/dietbuddy-intake/internal/schema"
)

func profileWith(age, weight, height float64, sex, diagnosis string) *schema.Profile {
	p := schema.NewProfile()
	p.Diagnosis = diagnosis
	p.Sex = sex
	if age >= 0 {
		p.Age = &age
	}
	if weight > 0 {
		p.WeightKg = &weight
	}
	if height > 0 {
		p.HeightCm = &height
	}
	return p
}

func TestComputeAdultDefaults(t *testing.T) {
	got := Compute(profileWith(34, 70, 175, "male", ""))
	assert.Equal(t, 2000.0, got.EnergyKcal)
	assert.Equal(t, 56.0, got.Macros["protein_g"]) // 0.8 g/kg
	assert.Equal(t, 1000.0, got.Micros["calcium"])
}

func TestComputeProteinFloor(t *testing.T) {
	got := Compute(profileWith(30, 50, 160, "female", ""))
	assert.Equal(t, 45.0, got.Macros["protein_g"]) // 0.8*50=40, floored
}

func TestComputePediatric(t *testing.T) {
	got := Compute(profileWith(10, 32, 140, "male", ""))
	assert.Equal(t, 1400.0, got.EnergyKcal)
	assert.Equal(t, 32.0, got.Macros["protein_g"]) // 1.0 g/kg
	assert.Equal(t, 700.0, got.Micros["calcium"])
}

func TestComputeUnknownAgeIsAdult(t *testing.T) {
	got := Compute(profileWith(-1, 0, 0, "female", ""))
	assert.Equal(t, 2000.0, got.EnergyKcal)
	assert.Equal(t, 48.0, got.Macros["protein_g"]) // default female weight 60
}

func TestComputeConditionAdjustments(t *testing.T) {
	ckd := Compute(profileWith(50, 80, 170, "male", "CKD stage 3"))
	assert.Equal(t, 48.0, ckd.Macros["protein_g"]) // 64 * 0.75

	cf := Compute(profileWith(8, 25, 125, "male", "cystic fibrosis"))
	assert.Equal(t, 1820.0, cf.EnergyKcal) // 1400 * 1.3

	keto := Compute(profileWith(6, 20, 110, "female", "epilepsy"))
	assert.Equal(t, 4.0, keto.Macros["fat_ratio"])
}

func TestBMI(t *testing.T) {
	assert.Equal(t, 22.9, BMI(profileWith(34, 70, 175, "male", "")))
	assert.Equal(t, 0.0, BMI(schema.NewProfile()))
}

func TestGrowthNote(t *testing.T) {
	assert.Contains(t, GrowthNote(profileWith(1, 9, 74, "male", "")), "weight-for-length")
	assert.Contains(t, GrowthNote(profileWith(0.5, 5, 60, "female", "preterm infant")), "corrected age")
	assert.Contains(t, GrowthNote(profileWith(34, 70, 175, "male", "")), "BMI 22.9")
	assert.Contains(t, GrowthNote(profileWith(40, 50, 175, "female", "")), "energy-dense")
	assert.Equal(t, "", GrowthNote(schema.NewProfile()))
}

func TestMedicationTimingNotes(t *testing.T) {
	notes := MedicationTimingNotes([]string{"Levodopa", "levothyroxine", "ferrous sulfate"})
	assert.Len(t, notes, 3)

	assert.Empty(t, MedicationTimingNotes([]string{"insulin"}))

	notes = MedicationTimingNotes([]string{"iron"})
	assert.Len(t, notes, 1)
}

func TestRationaleIncludesRenalLine(t *testing.T) {
	tg := Compute(profileWith(50, 80, 170, "male", "chronic kidney disease"))
	lines := Rationale("chronic kidney disease", tg)
	assert.Contains(t, lines[len(lines)-1], "Mineral balance")
}
