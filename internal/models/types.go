package models

// NATS request from the backend gateway
type ChatRequest struct {
	SessionID string `json:"session_id"`
	UserText  string `json:"user_text"`
}

// ChatResponse is the structured per-turn reply to the backend.
// Template tells the UI which rendering path applies ("followup",
// "onboarding", the answered intent name, or "safety_failure").
type ChatResponse struct {
	SessionID           string          `json:"session_id"`
	Template            string          `json:"template"`
	Answer              string          `json:"answer"`
	Status              string          `json:"status"`
	Warnings            []string        `json:"warnings,omitempty"`
	ComposerPlaceholder string          `json:"composer_placeholder,omitempty"`
	Progress            string          `json:"progress,omitempty"`
	TherapyOutput       *TherapyOutput  `json:"therapy_output,omitempty"`
	ErrorCode           *string         `json:"error_code,omitempty"`
	ErrorMessage        *string         `json:"error_message,omitempty"`
}

// TherapyOutput carries the computed targets and (on consent) the meal plan.
type TherapyOutput struct {
	Targets     NutrientTargets     `json:"nutrient_targets"`
	Allergies   []string            `json:"allergies,omitempty"`
	Plan        *DietPlan           `json:"optimized_plan,omitempty"`
	Meals       map[string][]Ration `json:"meals,omitempty"`
	Week        []DayPlan           `json:"weekly_plan,omitempty"`
	Shopping    map[string]float64  `json:"shopping_list,omitempty"`
	TotalGrams  float64             `json:"total_grams,omitempty"`
	TimingNotes []string            `json:"timing_notes,omitempty"`
	GrowthNote  string              `json:"growth_note,omitempty"`
	Summary     string              `json:"summary,omitempty"`
}

// Food is one food-composition row, per 100 g edible portion.
type Food struct {
	Name    string             `json:"food"`
	Energy  float64            `json:"energy"`  // kcal per 100 g
	Protein float64            `json:"protein"` // g per 100 g
	Micros  map[string]float64 `json:"micros"`  // nutrient -> amount per 100 g
	Group   string             `json:"group,omitempty"`
}

// NutrientTargets is the daily allocation goal handed to the optimizer.
type NutrientTargets struct {
	EnergyKcal float64            `json:"energy_kcal"`
	Macros     map[string]float64 `json:"macros"`
	Micros     map[string]float64 `json:"micros"`
}

// Ration is one allocated food portion in a diet plan.
type Ration struct {
	Food     string             `json:"food"`
	PortionG float64            `json:"portion_g"`
	Energy   float64            `json:"energy"`
	Protein  float64            `json:"protein"`
	Micros   map[string]float64 `json:"micros"`
}

// DayPlan labels one day of a weekly meal plan.
type DayPlan struct {
	Day   string              `json:"day"`
	Meals map[string][]Ration `json:"meals"`
}

// DietPlan is produced fresh per optimization call and never mutated.
type DietPlan struct {
	Rations []Ration `json:"diet_plan"`
	Note    string   `json:"note"`
}

// Status constants
const (
	StatusOK            = "OK"
	StatusFollowup      = "FOLLOWUP"
	StatusOnboarding    = "ONBOARDING"
	StatusSafetyFailure = "SAFETY_FAILURE"
	StatusError         = "ERROR"
)

// Warning codes attached to responses
const (
	WarnMissingData          = "missing_data"
	WarnHighRisk             = "high_risk"
	WarnUsingDefaults        = "using_defaults"
	WarnFCTUnavailable       = "fct_unavailable"
	WarnMedicationValidation = "medication_validation"
	WarnParsingFailed        = "parsing_failed"
	WarnValueValidation      = "value_validation"
	WarnOptimizerFallback    = "optimization_fallback"
	WarnSafetyFailure        = "safety_failure"
	WarnSlotRejected         = "slot_rejected"
	WarnTherapyOnboarding    = "therapy_onboarding"
)

// Error codes
const (
	ErrorParseError = "PARSE_ERROR"
	ErrorLLMFailed  = "LLM_API_FAILED"
	ErrorInternal   = "INTERNAL_ERROR"
)
