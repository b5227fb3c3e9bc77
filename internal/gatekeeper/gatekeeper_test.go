package gatekeeper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asrat/dietbuddy-intake/internal/biomarker"
	"github.com/asrat/dietbuddy-intake/internal/classifier"
	"github.com/asrat/dietbuddy-intake/internal/schema"
)

func therapyRecord(conf float64) *classifier.Record {
	return &classifier.Record{Label: classifier.LabelTherapy, Confidence: conf, Diagnosis: "type 1 diabetes"}
}

func fullProfile(t *testing.T) *schema.Profile {
	t.Helper()
	p := schema.NewProfile()
	require.NoError(t, p.Set("therapy", "diagnosis", "type 1 diabetes"))
	require.NoError(t, p.Set("therapy", "age", 12.0))
	require.NoError(t, p.Set("therapy", "weight_kg", 40.0))
	require.NoError(t, p.Set("therapy", "medications", []string{"insulin"}))
	require.NoError(t, p.SetBiomarker("hba1c", biomarker.NewReading("hba1c", 7.8, "%")))
	return p
}

func TestDecideConfidenceFloors(t *testing.T) {
	cfg := DefaultConfig()
	p := schema.NewProfile()

	d := Decide(&classifier.Record{Label: classifier.LabelGeneral, Confidence: 0.40}, p, "hello", false, cfg)
	assert.Equal(t, Downgrade, d.Outcome)
	assert.Equal(t, ReasonLowConfidenceGeneral, d.Reason)

	d = Decide(therapyRecord(0.70), p, "diet for my diabetes medication", false, cfg)
	assert.Equal(t, Downgrade, d.Outcome)
	assert.Equal(t, ReasonLowConfidenceTherapy, d.Reason)
}

func TestDecideNonTherapyAllowed(t *testing.T) {
	d := Decide(&classifier.Record{Label: classifier.LabelRecommendation, Confidence: 0.84},
		schema.NewProfile(), "iron rich foods for a toddler", false, DefaultConfig())
	assert.Equal(t, Allow, d.Outcome)
}

func TestDecideLacksClinicalIndicators(t *testing.T) {
	d := Decide(&classifier.Record{Label: classifier.LabelTherapy, Confidence: 0.90},
		schema.NewProfile(), "what should I eat today", false, DefaultConfig())
	assert.Equal(t, Downgrade, d.Outcome)
	assert.Equal(t, ReasonLacksClinicalIndicators, d.Reason)
}

func TestDecideUnsupportedCondition(t *testing.T) {
	rec := &classifier.Record{Label: classifier.LabelTherapy, Confidence: 0.93, Diagnosis: "gout"}
	d := Decide(rec, schema.NewProfile(), "diet therapy for my gout condition", true, DefaultConfig())
	assert.Equal(t, Downgrade, d.Outcome)
	assert.Equal(t, ReasonUnsupportedCondition, d.Reason)
}

func TestDecideCompleteProfileAllows(t *testing.T) {
	d := Decide(therapyRecord(0.93), fullProfile(t),
		"meal plan for my type 1 diabetes, on insulin, hba1c 7.8", true, DefaultConfig())
	assert.Equal(t, Allow, d.Outcome)
	assert.Empty(t, d.Missing)
	assert.Empty(t, d.AskFirst)
}

func TestDecideMissingDataGrid(t *testing.T) {
	query := "I need a meal plan for my type 1 diabetes"
	cfg := DefaultConfig()

	// Everything missing, explicit plan request: onboarding.
	d := Decide(therapyRecord(0.93), schema.NewProfile(), query, true, cfg)
	assert.Equal(t, Onboard, d.Outcome)
	assert.Equal(t, 4, d.MissingCount)

	// Everything missing, no explicit request: downgrade.
	d = Decide(therapyRecord(0.93), schema.NewProfile(), query, false, cfg)
	assert.Equal(t, Downgrade, d.Outcome)
	assert.Equal(t, ReasonMissingCriticalData, d.Reason)

	// Medications known from the query itself, three gaps left.
	rec := therapyRecord(0.93)
	rec.Medications = []string{"insulin"}
	d = Decide(rec, schema.NewProfile(), query, true, cfg)
	assert.Equal(t, Onboard, d.Outcome)
	assert.Equal(t, 3, d.MissingCount)
	assert.NotContains(t, d.Missing, "medications")
}

func TestDecideSingleGapAllowsWithAskFirst(t *testing.T) {
	p := fullProfile(t)
	p.Biomarkers = nil
	d := Decide(therapyRecord(0.93), p,
		"meal plan for my type 1 diabetes, I take insulin", true, DefaultConfig())
	assert.Equal(t, Allow, d.Outcome)
	assert.Equal(t, "biomarkers", d.AskFirst)
	assert.Equal(t, 1, d.MissingCount)
}

func TestExplicitTherapyRequest(t *testing.T) {
	assert.True(t, ExplicitTherapyRequest("please calculate my requirements"))
	assert.True(t, ExplicitTherapyRequest("I want a personalized meal plan"))
	assert.False(t, ExplicitTherapyRequest("is rice healthy?"))
}

func TestNormalizeCondition(t *testing.T) {
	cases := []struct {
		in   string
		want Condition
	}{
		{"preterm infant born at 32 weeks", CondPreterm},
		{"Type 1 Diabetes", CondType1Diab},
		{"severe peanut allergy", CondFoodAllergy},
		{"cystic fibrosis", CondCF},
		{"PKU", CondIEM},
		{"galactosemia", CondIEM},
		{"epilepsy on ketogenic diet", CondEpilepsy},
		{"CKD stage 3", CondCKD},
		{"Crohn's disease", CondGI},
	}
	for _, c := range cases {
		got, ok := NormalizeCondition(c.in)
		require.True(t, ok, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	_, ok := NormalizeCondition("hypertension")
	assert.False(t, ok)
}

func TestNormalizeConditionMetabolicBeatsKetogenic(t *testing.T) {
	// Both keyword families appear; the metabolic rule must win.
	got, ok := NormalizeCondition("ketogenic considerations for phenylketonuria")
	require.True(t, ok)
	assert.Equal(t, CondIEM, got)
}

func TestIEMAndGIVariants(t *testing.T) {
	assert.Equal(t, "pku", IEMVariant("classic PKU"))
	assert.Equal(t, "msud", IEMVariant("maple syrup urine disease"))
	assert.Equal(t, "galactosemia", IEMVariant("galactosemia type 1"))
	assert.Equal(t, "", IEMVariant("type 1 diabetes"))
	assert.Equal(t, "gerd", GIVariant("GERD"))
	assert.Equal(t, "ibd", GIVariant("ulcerative colitis"))
}
