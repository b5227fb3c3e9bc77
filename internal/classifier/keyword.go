package classifier

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/asrat/dietbuddy-intake/internal/biomarker"
)

// KeywordClassifier is the deterministic rule-based implementation used when
// no ML classifier service is wired in. Same text always yields the same
// label and confidence.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

var therapyTerms = []string{
	"therapy", "treatment plan", "therapeutic", "meal plan", "diet plan",
	"personalized", "nutrition therapy", "diet therapy",
}

var recommendationTerms = []string{
	"recommend", "should i eat", "what to eat", "good foods", "diet for",
	"nutrition advice", "guidelines",
}

var comparisonTerms = []string{
	" vs ", "versus", "compare", "better than", "difference between",
}

var highRiskTerms = []string{
	"pregnant", "pregnancy", "breastfeeding", "lactating",
	"dialysis", "hemodialysis", "cancer", "tumor", "chemotherapy",
	"heart failure", "cirrhosis", "malnutrition",
	"diabetic ketoacidosis", "hypoglycemia", "hyperkalemia",
	"hypernatremia", "hypocalcemia", "renal failure",
}

// diagnosisTerms are matched against the raw query; the first hit wins and
// becomes the recorded diagnosis phrase (the gatekeeper normalizes it to a
// canonical condition later).
var diagnosisTerms = []string{
	"type 1 diabetes", "t1d", "diabetes",
	"chronic kidney disease", "ckd", "kidney disease", "renal disease",
	"phenylketonuria", "pku", "maple syrup urine disease", "msud", "galactosemia",
	"epilepsy", "ketogenic therapy", "seizure disorder",
	"cystic fibrosis",
	"preterm", "premature infant",
	"food allergy", "anaphylaxis",
	"crohn", "ulcerative colitis", "ibd", "gerd", "reflux",
}

var knownMedications = []string{
	"insulin", "metformin", "lisinopril", "levodopa", "levothyroxine",
	"furosemide", "sevelamer", "calcitriol", "creon", "pancrelipase",
	"valproate", "valproic acid", "carbamazepine", "lamotrigine",
	"epinephrine", "prednisone", "mesalamine", "omeprazole", "sapropterin",
	"erythropoietin", "iron", "ferrous sulfate",
}

var biomarkerValueRe = regexp.MustCompile(
	`(?i)\b(egfr|hba1c|creatinine|glucose|potassium|sodium|albumin|hemoglobin|phosphorus|phenylalanine|leucine)\s*[:=]?\s*(\d+(?:\.\d+)?)\s*(mg/dl|µmol/l|umol/l|g/dl|g/l|mmol/l|meq/l|%)?`)

var countryTerms = map[string]string{
	"nigeria": "Nigeria", "nigerian": "Nigeria",
	"kenya": "Kenya", "kenyan": "Kenya",
	"ghana": "Ghana", "ghanaian": "Ghana",
	"uganda": "Uganda", "ugandan": "Uganda",
	"tanzania": "Tanzania", "tanzanian": "Tanzania",
	"south africa": "South Africa", "south african": "South Africa",
	"canada": "Canada", "canadian": "Canada",
	"india": "India", "indian": "India",
	"malawi": "Malawi", "malawian": "Malawi",
	"zimbabwe": "Zimbabwe", "zimbabwean": "Zimbabwe",
}

// Classify implements Classifier. It never returns an error; the signature
// keeps it swappable with a remote classifier client.
func (c *KeywordClassifier) Classify(_ context.Context, text string) (*Record, error) {
	q := strings.ToLower(text)

	rec := &Record{
		Medications: extractMedications(q),
		Biomarkers:  extractBiomarkers(q),
		Country:     extractCountry(q),
		Diagnosis:   extractDiagnosis(q),
		HighRisk:    containsAny(q, highRiskTerms),
	}

	switch {
	case containsAny(q, comparisonTerms):
		rec.Label = LabelComparison
		rec.Confidence = 0.86
	case containsAny(q, therapyTerms) && rec.Diagnosis != "":
		rec.Label = LabelTherapy
		rec.Confidence = 0.93
	case containsAny(q, therapyTerms):
		rec.Label = LabelTherapy
		rec.Confidence = 0.72
	case rec.Diagnosis != "" || containsAny(q, recommendationTerms):
		rec.Label = LabelRecommendation
		rec.Confidence = 0.84
	default:
		rec.Label = LabelGeneral
		rec.Confidence = 0.65
	}

	// Therapy and recommendation always need follow-up collection; a
	// comparison only when the query names no preparation state.
	switch rec.Label {
	case LabelTherapy, LabelRecommendation:
		rec.NeedsFollowup = true
	case LabelComparison:
		rec.NeedsFollowup = !containsAny(q, []string{"raw", "boiled", "fermented", "soaked", "dry"})
	}

	return rec, nil
}

func extractDiagnosis(q string) string {
	for _, term := range diagnosisTerms {
		if strings.Contains(q, term) {
			return term
		}
	}
	return ""
}

func extractMedications(q string) []string {
	meds := []string{}
	for _, m := range knownMedications {
		if strings.Contains(q, m) {
			meds = append(meds, m)
		}
	}
	return meds
}

func extractBiomarkers(q string) map[string]biomarker.Reading {
	out := map[string]biomarker.Reading{}
	for _, m := range biomarkerValueRe.FindAllStringSubmatch(q, -1) {
		name := strings.ToLower(m[1])
		value := parseFloat(m[2])
		unit := m[3]
		r := biomarker.NewReading(name, value, unit)
		if !r.Validation.Valid {
			// Impossible values never reach a slot; the orchestrator
			// re-asks instead.
			continue
		}
		out[name] = r
	}
	return out
}

func extractCountry(q string) string {
	for term, country := range countryTerms {
		if strings.Contains(q, term) {
			return country
		}
	}
	return ""
}

func containsAny(q string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
