// Package schema declares, per intent, which facts the conversation must
// collect before an answer may be generated, and validates every slot
// mutation against those declarations.
package schema

import (
	"fmt"
	"strings"
)

// Slot value types.
const (
	TypeString = "string"
	TypeEnum   = "enum"
	TypeNumber = "number"
	TypeList   = "list"
	TypeDict   = "dict"
	TypeBool   = "bool"
)

// SlotSpec describes one named fact: its type, whether the intent requires
// it, and the bounds a numeric answer must satisfy. Specs are immutable.
type SlotSpec struct {
	Name     string
	Type     string
	Required bool
	Enum     []string
	Min      float64
	Max      float64
	Hint     string
	Question string
}

// Schemas maps intent -> ordered slot specs. The order here is the asking
// priority: diagnosis first (it routes everything else), then demographics,
// then the safety-critical clinical lists, then locality.
var Schemas = map[string][]SlotSpec{
	"therapy": {
		{Name: "diagnosis", Type: TypeString, Required: true, Hint: "e.g., Type 1 Diabetes, CKD, Epilepsy", Question: "What is the patient's diagnosis or medical condition?"},
		{Name: "age", Type: TypeNumber, Required: true, Min: 0, Max: 120, Hint: "Age in years", Question: "What is the patient's age in years?"},
		{Name: "sex", Type: TypeEnum, Required: true, Enum: []string{"male", "female", "other", "unknown"}, Hint: "male or female", Question: "What is the patient's sex?"},
		{Name: "weight_kg", Type: TypeNumber, Required: true, Min: 10, Max: 400, Hint: "Weight in kg", Question: "What is the patient's weight in kilograms?"},
		{Name: "height_cm", Type: TypeNumber, Required: true, Min: 50, Max: 250, Hint: "Height in cm", Question: "What is the patient's height in centimeters?"},
		{Name: "medications", Type: TypeList, Required: true, Hint: "Separate with commas, or type 'none'", Question: "What medications is the patient currently taking?"},
		{Name: "allergies", Type: TypeList, Required: false, Hint: "Separate with commas, or type 'none'", Question: "Does the patient have any food allergies?"},
		{Name: "biomarkers", Type: TypeDict, Required: true, Hint: "e.g., HbA1c 8.5, creatinine 2.0", Question: "Do you have recent lab results (e.g., HbA1c, creatinine, eGFR)?"},
		{Name: "country", Type: TypeString, Required: false, Hint: "e.g., Nigeria, Kenya, Canada", Question: "Which country are you in? (for food availability)"},
	},
	"recommendation": {
		{Name: "age", Type: TypeNumber, Required: true, Min: 0, Max: 120, Hint: "Age in years", Question: "What is your age in years?"},
		{Name: "sex", Type: TypeEnum, Required: false, Enum: []string{"male", "female", "other", "unknown"}, Hint: "male or female", Question: "What is your sex?"},
		{Name: "weight_kg", Type: TypeNumber, Required: false, Min: 10, Max: 400, Hint: "Weight in kg", Question: "What is your weight in kilograms?"},
		{Name: "height_cm", Type: TypeNumber, Required: false, Min: 50, Max: 250, Hint: "Height in cm", Question: "What is your height in centimeters?"},
		{Name: "diagnosis", Type: TypeString, Required: false, Hint: "Medical condition, if any", Question: "Do you have a diagnosed medical condition?"},
		{Name: "allergies", Type: TypeList, Required: false, Hint: "Separate with commas, or type 'none'", Question: "Do you have any food allergies?"},
		{Name: "country", Type: TypeString, Required: false, Hint: "e.g., Nigeria, Kenya, Canada", Question: "Which country are you in? (for food availability)"},
	},
	"comparison": {
		{Name: "food_a", Type: TypeString, Required: true, Hint: "First food", Question: "Which is the first food to compare?"},
		{Name: "food_b", Type: TypeString, Required: true, Hint: "Second food", Question: "Which is the second food to compare?"},
		{Name: "country", Type: TypeString, Required: false, Hint: "e.g., Nigeria, Kenya, Canada", Question: "Which country's food table should I use?"},
	},
	"general": {},
}

// askPriority fixes the order in which missing required slots are asked,
// independent of schema declaration order.
var askPriority = []string{
	"diagnosis", "age", "sex", "weight_kg", "height_cm",
	"medications", "allergies", "biomarkers", "country", "food_a", "food_b",
}

// Lookup returns the spec for a slot under an intent, or nil.
func Lookup(intent, slot string) *SlotSpec {
	for i := range Schemas[intent] {
		if Schemas[intent][i].Name == slot {
			return &Schemas[intent][i]
		}
	}
	return nil
}

// FirstMissing scans the intent's schema in asking priority and returns the
// first required slot the profile does not yet hold, or nil when the intent
// is fully satisfied.
func FirstMissing(intent string, p *Profile) *SlotSpec {
	specs := Schemas[intent]
	if len(specs) == 0 {
		return nil
	}
	byName := make(map[string]*SlotSpec, len(specs))
	for i := range specs {
		byName[specs[i].Name] = &specs[i]
	}
	for _, name := range askPriority {
		spec, ok := byName[name]
		if !ok || !spec.Required {
			continue
		}
		if !p.Has(name) {
			return spec
		}
	}
	return nil
}

// Progress renders the "(i/N required)" indicator for the next question
// under the given intent, counting required slots only.
func Progress(intent string, p *Profile) string {
	specs := Schemas[intent]
	total, done := 0, 0
	for i := range specs {
		if !specs[i].Required {
			continue
		}
		total++
		if p.Has(specs[i].Name) {
			done++
		}
	}
	if total == 0 || done >= total {
		return ""
	}
	return fmt.Sprintf(" (%d/%d required)", done+1, total)
}

// CheckNumber validates a numeric answer against the slot's bounds.
func (s *SlotSpec) CheckNumber(v float64) error {
	if s.Type != TypeNumber {
		return nil
	}
	if v < s.Min || v > s.Max {
		return fmt.Errorf("%s must be between %g and %g", s.Name, s.Min, s.Max)
	}
	return nil
}

// CheckEnum validates an enum answer; matching is case-insensitive.
func (s *SlotSpec) CheckEnum(v string) error {
	if s.Type != TypeEnum || len(s.Enum) == 0 {
		return nil
	}
	for _, e := range s.Enum {
		if strings.EqualFold(e, v) {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of: %s", s.Name, strings.Join(s.Enum, ", "))
}
