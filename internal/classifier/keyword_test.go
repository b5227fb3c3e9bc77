package classifier

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classify(t *testing.T, text string) *Record {
	t.Helper()
	rec := NewAdapter(NewKeywordClassifier()).Classify(context.Background(), text)
	require.NotNil(t, rec)
	return rec
}

func TestClassifyLabels(t *testing.T) {
	tests := []struct {
		text  string
		label string
	}{
		{"I need a diet therapy plan for type 1 diabetes", LabelTherapy},
		{"what should i eat for breakfast", LabelRecommendation},
		{"rice versus maize porridge", LabelComparison},
		{"hello, how are you", LabelGeneral},
		{"nutrition advice for my toddler", LabelRecommendation},
	}
	for _, tt := range tests {
		rec := classify(t, tt.text)
		assert.Equal(t, tt.label, rec.Label, tt.text)
	}
}

func TestTherapyWithDiagnosisIsHighConfidence(t *testing.T) {
	with := classify(t, "diet therapy for ckd")
	without := classify(t, "i want diet therapy")
	assert.Greater(t, with.Confidence, without.Confidence)
	assert.GreaterOrEqual(t, with.Confidence, 0.9)
}

func TestClassifyExtractsEntities(t *testing.T) {
	rec := classify(t, "meal plan for type 1 diabetes, on insulin and metformin, hba1c 7.8 %, I live in Kenya")

	assert.Equal(t, "type 1 diabetes", rec.Diagnosis)
	assert.ElementsMatch(t, []string{"insulin", "metformin"}, rec.Medications)
	assert.Equal(t, "Kenya", rec.Country)

	require.Contains(t, rec.Biomarkers, "hba1c")
	assert.InDelta(t, 7.8, rec.Biomarkers["hba1c"].Value, 0.001)
	assert.Equal(t, "%", rec.Biomarkers["hba1c"].Unit)
}

func TestClassifyFlagsHighRisk(t *testing.T) {
	assert.True(t, classify(t, "diet for my pregnant wife with diabetes").HighRisk)
	assert.True(t, classify(t, "nutrition while on dialysis").HighRisk)
	assert.False(t, classify(t, "diet for type 1 diabetes").HighRisk)
}

func TestClassifyDropsImpossibleReadings(t *testing.T) {
	rec := classify(t, "lab report says creatinine 99 mg/dl")
	assert.NotContains(t, rec.Biomarkers, "creatinine")
}

type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, string) (*Record, error) {
	return nil, fmt.Errorf("backend down")
}

func TestAdapterFallsBackToSafeDefault(t *testing.T) {
	rec := NewAdapter(failingClassifier{}).Classify(context.Background(), "anything")
	require.NotNil(t, rec)
	assert.Equal(t, LabelGeneral, rec.Label)
	assert.Equal(t, 0.0, rec.Confidence)
	assert.NotNil(t, rec.Medications)
	assert.NotNil(t, rec.Biomarkers)
}
