package collector

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/asrat/dietbuddy-intake/internal/biomarker"
	"github.com/asrat/dietbuddy-intake/internal/gatekeeper"
)

// Step parsers.
const (
	ParseString         = "string"
	ParseNumber         = "number"
	ParseMedicationList = "medication_list"
	ParseAllergyList    = "allergy_list"
	ParseBiomarker      = "biomarker"
)

// Step is one question in the linear intake sequence.
type Step struct {
	Slot     string `json:"slot"`
	Question string `json:"question"`
	Hint     string `json:"hint"`
	Required bool   `json:"required"`
	Parser   string `json:"parser"`
	Unit     string `json:"unit,omitempty"`
}

// Turn is what one linear-collector interaction produces. Exactly one of
// Done or Question/Retry content is meaningful.
type Turn struct {
	Done      bool
	Question  string
	Hint      string
	Slot      string
	Progress  string
	Retry     bool
	Message   string
	Collected map[string]any
}

// Linear walks a fixed ordered question sequence built once at construction
// from the diagnosis. Fields are exported so session stores can round-trip
// the collector through JSON.
type Linear struct {
	Diagnosis string         `json:"diagnosis"`
	Steps     []Step         `json:"steps"`
	Index     int            `json:"index"`
	Data      map[string]any `json:"data"`
}

// NewLinear builds the step sequence for a diagnosis. Steps whose slot is
// already present in seed are dropped up front; seed values are carried into
// the collected data.
func NewLinear(diagnosis string, seed map[string]any) *Linear {
	l := &Linear{Diagnosis: diagnosis, Data: make(map[string]any)}
	for k, v := range seed {
		l.Data[k] = v
	}
	for _, s := range buildSteps(diagnosis) {
		if _, ok := seed[s.Slot]; ok {
			continue
		}
		l.Steps = append(l.Steps, s)
	}
	return l
}

func buildSteps(diagnosis string) []Step {
	var steps []Step
	if strings.TrimSpace(diagnosis) == "" {
		steps = append(steps, Step{Slot: "diagnosis", Question: "What is the patient's diagnosis or medical condition?", Hint: "e.g., Type 1 Diabetes, CKD, Epilepsy", Required: true, Parser: ParseString})
	}
	steps = append(steps,
		Step{Slot: "age", Question: "What is the patient's age in years?", Hint: "Enter age (0-18 for pediatric)", Required: true, Parser: ParseNumber},
		Step{Slot: "weight_kg", Question: "What is the patient's weight in kilograms?", Hint: "Enter weight in kg", Required: true, Parser: ParseNumber},
		Step{Slot: "height_cm", Question: "What is the patient's height in centimeters?", Hint: "Enter height in cm", Required: true, Parser: ParseNumber},
		Step{Slot: "medications", Question: "What medications is the patient currently taking?", Hint: "List medications separated by commas, or type 'none'", Required: true, Parser: ParseMedicationList},
	)
	steps = append(steps, biomarkerSteps(diagnosis)...)
	steps = append(steps,
		Step{Slot: "allergies", Question: "Does the patient have any food allergies?", Hint: "List allergies separated by commas, or type 'none'", Required: false, Parser: ParseAllergyList},
		Step{Slot: "country", Question: "Which country are you in? (for food availability)", Hint: "e.g., Nigeria, Kenya, Canada, USA", Required: false, Parser: ParseString},
	)
	return steps
}

// biomarkerSteps selects the condition-specific lab questions. Dispatch goes
// through the shared condition normalizer, which resolves the metabolic
// disorders before the ketogenic keywords.
func biomarkerSteps(diagnosis string) []Step {
	cond, ok := gatekeeper.NormalizeCondition(diagnosis)
	if !ok {
		return nil
	}
	switch cond {
	case gatekeeper.CondType1Diab:
		return []Step{
			{Slot: "hba1c", Question: "What is the patient's HbA1c level?", Hint: "Enter HbA1c value (e.g., 7.5) or 'unknown'", Parser: ParseBiomarker, Unit: "%"},
			{Slot: "glucose", Question: "What is the patient's fasting glucose level?", Hint: "Enter glucose in mg/dL (e.g., 120) or 'unknown'", Parser: ParseBiomarker, Unit: "mg/dL"},
		}
	case gatekeeper.CondCKD:
		return []Step{
			{Slot: "creatinine", Question: "What is the patient's serum creatinine level?", Hint: "Enter creatinine in mg/dL or 'unknown'", Parser: ParseBiomarker, Unit: "mg/dL"},
			{Slot: "egfr", Question: "What is the patient's eGFR?", Hint: "Enter eGFR in mL/min/1.73m² or 'unknown'", Parser: ParseBiomarker, Unit: "mL/min/1.73m²"},
			{Slot: "potassium", Question: "What is the patient's potassium level?", Hint: "Enter K+ in mEq/L or 'unknown'", Parser: ParseBiomarker, Unit: "mEq/L"},
			{Slot: "phosphorus", Question: "What is the patient's phosphorus level?", Hint: "Enter phosphorus in mg/dL or 'unknown'", Parser: ParseBiomarker, Unit: "mg/dL"},
		}
	case gatekeeper.CondIEM:
		var steps []Step
		switch gatekeeper.IEMVariant(diagnosis) {
		case "pku":
			steps = append(steps,
				Step{Slot: "phenylalanine", Question: "What is the patient's blood phenylalanine level?", Hint: "Enter phenylalanine in mg/dL or 'unknown'", Parser: ParseBiomarker, Unit: "mg/dL"},
				Step{Slot: "tyrosine", Question: "What is the patient's blood tyrosine level?", Hint: "Enter tyrosine in mg/dL or 'unknown'", Parser: ParseBiomarker, Unit: "mg/dL"},
			)
		case "msud":
			steps = append(steps,
				Step{Slot: "leucine", Question: "What is the patient's blood leucine level?", Hint: "Enter leucine in µmol/L or 'unknown'", Parser: ParseBiomarker, Unit: "µmol/L"},
				Step{Slot: "isoleucine", Question: "What is the patient's blood isoleucine level?", Hint: "Enter isoleucine in µmol/L or 'unknown'", Parser: ParseBiomarker, Unit: "µmol/L"},
				Step{Slot: "valine", Question: "What is the patient's blood valine level?", Hint: "Enter valine in µmol/L or 'unknown'", Parser: ParseBiomarker, Unit: "µmol/L"},
			)
		case "galactosemia":
			steps = append(steps,
				Step{Slot: "galactose_1_phosphate", Question: "What is the patient's galactose-1-phosphate level?", Hint: "Enter galactose-1-phosphate in mg/dL or 'unknown'", Parser: ParseBiomarker, Unit: "mg/dL"},
				Step{Slot: "galt_activity", Question: "What is the patient's GALT enzyme activity?", Hint: "Enter GALT activity percentage or 'unknown'", Parser: ParseBiomarker, Unit: "%"},
			)
		}
		return append(steps,
			Step{Slot: "albumin", Question: "What is the patient's albumin level?", Hint: "Enter albumin in g/dL or 'unknown'", Parser: ParseBiomarker, Unit: "g/dL"},
		)
	case gatekeeper.CondEpilepsy:
		return []Step{
			{Slot: "aed_level", Question: "What are the patient's anti-epileptic drug levels (if known)?", Hint: "Enter drug levels or 'unknown'", Parser: ParseBiomarker},
			{Slot: "ketone_level", Question: "What is the patient's blood ketone level (if on ketogenic diet)?", Hint: "Enter ketone level in mmol/L or 'unknown'", Parser: ParseBiomarker, Unit: "mmol/L"},
			{Slot: "seizure_frequency", Question: "How many seizures per month does the patient experience?", Hint: "Enter average number per month or 'unknown'", Parser: ParseBiomarker, Unit: "per month"},
		}
	case gatekeeper.CondCF:
		return []Step{
			{Slot: "fev1", Question: "What is the patient's FEV1 (lung function)?", Hint: "Enter FEV1 percentage (e.g., 75) or 'unknown'", Parser: ParseBiomarker, Unit: "%"},
			{Slot: "pancreatic_status", Question: "Is the patient pancreatic insufficient? (yes/no/unknown)", Hint: "Type 'yes', 'no', or 'unknown'", Parser: ParseString},
			{Slot: "vitamin_d", Question: "What is the patient's vitamin D level?", Hint: "Enter vitamin D in ng/mL or 'unknown'", Parser: ParseBiomarker, Unit: "ng/mL"},
			{Slot: "vitamin_a", Question: "What is the patient's vitamin A level?", Hint: "Enter vitamin A in µg/dL or 'unknown'", Parser: ParseBiomarker, Unit: "µg/dL"},
		}
	case gatekeeper.CondPreterm:
		return []Step{
			{Slot: "gestational_age", Question: "What was the baby's gestational age at birth?", Hint: "Enter weeks (e.g., 32) or 'unknown'", Parser: ParseBiomarker, Unit: "weeks"},
			{Slot: "corrected_age", Question: "What is the baby's corrected age?", Hint: "Enter corrected age in weeks or 'unknown'", Parser: ParseBiomarker, Unit: "weeks"},
			{Slot: "feeding_method", Question: "What is the current feeding method?", Hint: "e.g., breast milk, formula, mixed, or 'unknown'", Parser: ParseString},
			{Slot: "hemoglobin", Question: "What is the baby's hemoglobin level?", Hint: "Enter hemoglobin in g/dL or 'unknown'", Parser: ParseBiomarker, Unit: "g/dL"},
		}
	case gatekeeper.CondFoodAllergy:
		return []Step{
			{Slot: "allergen_type", Question: "What foods is the patient allergic to?", Hint: "List specific allergens (e.g., peanuts, milk, eggs)", Parser: ParseString},
			{Slot: "ige_level", Question: "What is the patient's total IgE level (if known)?", Hint: "Enter IgE in IU/mL or 'unknown'", Parser: ParseBiomarker, Unit: "IU/mL"},
			{Slot: "reaction_severity", Question: "What is the severity of reactions? (mild/moderate/severe)", Hint: "Type 'mild', 'moderate', 'severe', or 'unknown'", Parser: ParseString},
		}
	case gatekeeper.CondGI:
		var steps []Step
		if gatekeeper.GIVariant(diagnosis) == "ibd" {
			steps = append(steps,
				Step{Slot: "crp", Question: "What is the patient's C-reactive protein (CRP) level?", Hint: "Enter CRP in mg/L or 'unknown'", Parser: ParseBiomarker, Unit: "mg/L"},
				Step{Slot: "esr", Question: "What is the patient's ESR (sedimentation rate)?", Hint: "Enter ESR in mm/hr or 'unknown'", Parser: ParseBiomarker, Unit: "mm/hr"},
				Step{Slot: "fecal_calprotectin", Question: "What is the patient's fecal calprotectin level?", Hint: "Enter calprotectin in µg/g or 'unknown'", Parser: ParseBiomarker, Unit: "µg/g"},
				Step{Slot: "albumin", Question: "What is the patient's albumin level?", Hint: "Enter albumin in g/dL or 'unknown'", Parser: ParseBiomarker, Unit: "g/dL"},
			)
		}
		if gatekeeper.GIVariant(diagnosis) == "gerd" {
			steps = append(steps,
				Step{Slot: "symptom_frequency", Question: "How many times per week does the patient experience reflux symptoms?", Hint: "Enter frequency per week or 'unknown'", Parser: ParseBiomarker, Unit: "per week"},
			)
		}
		return steps
	}
	return nil
}

// Complete reports whether every step has been answered.
func (l *Linear) Complete() bool {
	return l.Index >= len(l.Steps)
}

// Collected returns a copy of everything gathered so far.
func (l *Linear) Collected() map[string]any {
	out := make(map[string]any, len(l.Data))
	for k, v := range l.Data {
		out[k] = v
	}
	return out
}

// Start returns the first question.
func (l *Linear) Start() Turn {
	return l.question()
}

func (l *Linear) question() Turn {
	if l.Complete() {
		return Turn{Done: true, Collected: l.Collected()}
	}
	s := l.Steps[l.Index]
	return Turn{
		Question: s.Question,
		Hint:     s.Hint,
		Slot:     s.Slot,
		Progress: fmt.Sprintf("(%d/%d)", l.Index+1, len(l.Steps)),
	}
}

// ProcessAnswer parses the reply against the current step. A valid answer
// advances the pointer and returns the next question, or the completion
// signal with the full collected map. An invalid answer re-asks the same
// step with Retry set.
func (l *Linear) ProcessAnswer(answer string) Turn {
	if l.Complete() {
		return Turn{Done: true, Collected: l.Collected()}
	}
	s := l.Steps[l.Index]
	value, err := l.parse(answer, s)
	if err != nil {
		t := l.question()
		t.Retry = true
		t.Message = err.Error()
		return t
	}
	if value != nil {
		l.Data[s.Slot] = value
	}
	l.Index++
	return l.question()
}

func (l *Linear) parse(answer string, s Step) (any, error) {
	text := strings.TrimSpace(answer)
	lower := strings.ToLower(text)

	// Optional steps accept a skip token; the slot is simply left unset.
	skipToken := lower == "unknown" || lower == "skip" || lower == "n/a" || lower == "na"
	if !s.Required && skipToken {
		return nil, nil
	}

	switch s.Parser {
	case ParseString:
		if len(text) < 2 {
			return nil, fmt.Errorf("Please provide a valid answer (at least 2 characters)")
		}
		return text, nil
	case ParseNumber:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			m := numberRe.FindString(text)
			if m == "" {
				return nil, fmt.Errorf("Please enter a valid number for %s", s.Slot)
			}
			v, _ = strconv.ParseFloat(m, 64)
		}
		if v <= 0 {
			return nil, fmt.Errorf("Please enter a positive number")
		}
		return v, nil
	case ParseMedicationList:
		if isNonePhrase(lower) {
			return []string{}, nil
		}
		var meds []string
		for _, m := range listSplitRe.Split(text, -1) {
			if m = strings.TrimSpace(m); m != "" {
				meds = append(meds, m)
			}
		}
		if len(meds) == 0 {
			return nil, fmt.Errorf("Please list medications separated by commas, or type 'none'")
		}
		return meds, nil
	case ParseAllergyList:
		if isNonePhrase(lower) || skipToken {
			return []string{"none"}, nil
		}
		var allergies []string
		for _, a := range strings.Split(text, ",") {
			if a = strings.TrimSpace(a); a != "" {
				allergies = append(allergies, a)
			}
		}
		return allergies, nil
	case ParseBiomarker:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("Please enter a numeric value or 'unknown'")
		}
		r := biomarker.NewReading(s.Slot, v, s.Unit)
		if !r.Validation.Valid {
			return nil, fmt.Errorf("%s", r.Validation.Message)
		}
		return r, nil
	}
	return nil, fmt.Errorf("Invalid input")
}
