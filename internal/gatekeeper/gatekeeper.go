// Package gatekeeper decides whether enough safety-critical data exists to
// produce a personalized therapy answer. The decision is deterministic: the
// same classification, profile, and query always yield the same outcome.
package gatekeeper

import (
	"strings"

	"github.com/asrat/dietbuddy-intake/internal/classifier"
	"github.com/asrat/dietbuddy-intake/internal/schema"
)

// Outcome of a gatekeeper evaluation.
type Outcome int

const (
	Allow Outcome = iota
	Downgrade
	Onboard
)

// Downgrade reasons.
const (
	ReasonLowConfidenceGeneral   = "low_confidence_general"
	ReasonLowConfidenceTherapy   = "low_confidence_therapy"
	ReasonLacksClinicalIndicators = "lacks_clinical_indicators"
	ReasonMissingCriticalData    = "missing_critical_data"
	ReasonUnsupportedCondition   = "unsupported_condition"
)

// Decision is the full evaluation result. AskFirst is set when exactly one
// critical slot is missing: the orchestrator must collect it before any
// therapy output, even though the outcome is Allow.
type Decision struct {
	Outcome      Outcome
	Reason       string
	Missing      []string
	MissingCount int
	AskFirst     string
}

// Config carries the tunable policy knobs.
type Config struct {
	GeneralConfidenceFloor float64
	TherapyConfidenceFloor float64
	// EscalateCritical makes a stored critical-severity biomarker trigger
	// the high-risk branch instead of being record-only.
	EscalateCritical bool
}

// DefaultConfig matches the observed production thresholds.
func DefaultConfig() Config {
	return Config{
		GeneralConfidenceFloor: 0.60,
		TherapyConfidenceFloor: 0.78,
		EscalateCritical:       false,
	}
}

// clinicalIndicators is the fixed keyword set a therapy query must touch at
// least once; a "therapy" label on a query with none of these is treated as
// classifier overreach.
var clinicalIndicators = []string{
	"diagnos", "condition", "patient", "medication", "medicine", "drug",
	"lab", "biomarker", "clinic", "doctor", "hospital",
	"hba1c", "creatinine", "egfr", "glucose", "albumin", "hemoglobin",
	"diabet", "kidney", "renal", "ckd", "epilep", "seizure", "ketogenic",
	"pku", "phenylketonuria", "msud", "galactosemia", "metabolic",
	"cystic fibrosis", "preterm", "premature", "allerg", "crohn",
	"colitis", "ibd", "gerd", "reflux",
}

// explicitTherapyTerms detect that the user asked for a personalized plan in
// so many words, which switches a data-poor denial from a silent downgrade
// to the three-option onboarding flow.
var explicitTherapyTerms = []string{
	"therapy", "treatment plan", "meal plan", "diet plan", "personalized",
	"specific plan", "calculate", "requirements", "need diet", "need meal",
	"nutrition therapy",
}

// ExplicitTherapyRequest reports whether the raw query asks for a
// personalized plan in so many words.
func ExplicitTherapyRequest(query string) bool {
	q := strings.ToLower(query)
	for _, t := range explicitTherapyTerms {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}

// Decide evaluates the ordered decision table against a classification, the
// merged session profile, and the raw query text.
func Decide(rec *classifier.Record, p *schema.Profile, rawQuery string, explicit bool, cfg Config) Decision {
	if rec.Confidence < cfg.GeneralConfidenceFloor {
		return Decision{Outcome: Downgrade, Reason: ReasonLowConfidenceGeneral}
	}
	if rec.Label != classifier.LabelTherapy {
		return Decision{Outcome: Allow}
	}
	if rec.Confidence < cfg.TherapyConfidenceFloor {
		return Decision{Outcome: Downgrade, Reason: ReasonLowConfidenceTherapy}
	}
	// A diagnosis already on record counts as a clinical indicator; the
	// keyword check covers first-contact queries only.
	diagnosis := p.Diagnosis
	if diagnosis == "" {
		diagnosis = rec.Diagnosis
	}
	if diagnosis == "" && !hasClinicalIndicator(rawQuery) {
		return Decision{Outcome: Downgrade, Reason: ReasonLacksClinicalIndicators}
	}

	// Therapy is restricted to the supported condition categories; an
	// unsupported diagnosis can never be allowed, however complete the data.
	if diagnosis != "" {
		if _, ok := NormalizeCondition(diagnosis); !ok {
			return Decision{Outcome: Downgrade, Reason: ReasonUnsupportedCondition}
		}
	}

	missing := missingCritical(rec, p)
	d := Decision{Missing: missing, MissingCount: len(missing)}
	switch {
	case len(missing) == 0:
		d.Outcome = Allow
	case len(missing) >= 2 && explicit:
		d.Outcome = Onboard
	case len(missing) >= 2:
		d.Outcome = Downgrade
		d.Reason = ReasonMissingCriticalData
	default: // exactly one missing: allow, but collect it first
		d.Outcome = Allow
		d.AskFirst = missing[0]
	}
	return d
}

// missingCritical counts the four safety-critical gaps: medications,
// biomarkers, age, weight. The classification record and the accumulated
// profile both satisfy a gap.
func missingCritical(rec *classifier.Record, p *schema.Profile) []string {
	var missing []string
	if len(rec.Medications) == 0 && len(p.Medications) == 0 {
		missing = append(missing, "medications")
	}
	if len(rec.Biomarkers) == 0 && len(p.Biomarkers) == 0 {
		missing = append(missing, "biomarkers")
	}
	if p.Age == nil {
		missing = append(missing, "age")
	}
	if p.WeightKg == nil {
		missing = append(missing, "weight_kg")
	}
	return missing
}

func hasClinicalIndicator(query string) bool {
	q := strings.ToLower(query)
	for _, t := range clinicalIndicators {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}
