package schema

import (
	"fmt"
	"strings"

	"github.com/asrat/dietbuddy-intake/internal/biomarker"
)

// Profile is the accumulated, typed slot record for one session. Values are
// only written through Set, which is the single mutation boundary where the
// SlotSpec table is enforced; nothing downstream re-validates.
type Profile struct {
	Diagnosis   string
	Age         *float64
	Sex         string
	WeightKg    *float64
	HeightCm    *float64
	Medications []string
	Allergies   []string
	Biomarkers  map[string]biomarker.Reading
	Country     string
	FoodA       string
	FoodB       string
}

// NewProfile returns an empty profile.
func NewProfile() *Profile {
	return &Profile{Biomarkers: make(map[string]biomarker.Reading)}
}

// Has reports whether a slot holds a usable value. An explicit empty
// medications list and the literal ["none"] allergies answer both count as
// present: the user answered, the answer was "nothing".
func (p *Profile) Has(slot string) bool {
	switch slot {
	case "diagnosis":
		return p.Diagnosis != ""
	case "age":
		return p.Age != nil
	case "sex":
		return p.Sex != ""
	case "weight_kg":
		return p.WeightKg != nil
	case "height_cm":
		return p.HeightCm != nil
	case "medications":
		return p.Medications != nil
	case "allergies":
		return p.Allergies != nil
	case "biomarkers":
		return len(p.Biomarkers) > 0
	case "country":
		return p.Country != ""
	case "food_a":
		return p.FoodA != ""
	case "food_b":
		return p.FoodB != ""
	}
	return false
}

// Set writes one slot value, validating it against the intent's SlotSpec.
// Biomarker readings are not set here; use SetBiomarker, which carries the
// unit and the validation result.
func (p *Profile) Set(intent, slot string, value any) error {
	spec := Lookup(intent, slot)
	switch slot {
	case "diagnosis", "country", "food_a", "food_b":
		s, ok := value.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return fmt.Errorf("slot %s requires a non-empty string", slot)
		}
		s = strings.TrimSpace(s)
		switch slot {
		case "diagnosis":
			p.Diagnosis = s
		case "country":
			p.Country = s
		case "food_a":
			p.FoodA = s
		case "food_b":
			p.FoodB = s
		}
	case "sex":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("slot sex requires a string")
		}
		s = strings.ToLower(strings.TrimSpace(s))
		if spec != nil {
			if err := spec.CheckEnum(s); err != nil {
				return err
			}
		}
		p.Sex = s
	case "age", "weight_kg", "height_cm":
		f, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("slot %s requires a number", slot)
		}
		if spec != nil {
			if err := spec.CheckNumber(f); err != nil {
				return err
			}
		}
		v := f
		switch slot {
		case "age":
			p.Age = &v
		case "weight_kg":
			p.WeightKg = &v
		case "height_cm":
			p.HeightCm = &v
		}
	case "medications", "allergies":
		list, ok := value.([]string)
		if !ok {
			return fmt.Errorf("slot %s requires a list", slot)
		}
		cleaned := make([]string, 0, len(list))
		for _, item := range list {
			if s := strings.TrimSpace(item); s != "" {
				cleaned = append(cleaned, s)
			}
		}
		if slot == "medications" {
			p.Medications = cleaned
		} else {
			p.Allergies = cleaned
		}
	default:
		return fmt.Errorf("unknown slot %q", slot)
	}
	return nil
}

// SetBiomarker stores a validated reading. Impossible readings are rejected
// here so they never reach the profile.
func (p *Profile) SetBiomarker(name string, r biomarker.Reading) error {
	if !r.Validation.Valid {
		return fmt.Errorf("rejected %s: %s", name, r.Validation.Message)
	}
	if p.Biomarkers == nil {
		p.Biomarkers = make(map[string]biomarker.Reading)
	}
	p.Biomarkers[strings.ToLower(name)] = r
	return nil
}

// ActiveAllergies returns declared allergens with placeholder answers
// ("none" and friends) stripped.
func (p *Profile) ActiveAllergies() []string {
	var out []string
	for _, a := range p.Allergies {
		low := strings.ToLower(strings.TrimSpace(a))
		switch low {
		case "", "none", "no", "nil", "n/a", "no allergies", "no allergy":
			continue
		}
		out = append(out, low)
	}
	return out
}

// Clone returns a deep copy; collector seeding must not alias live state.
func (p *Profile) Clone() *Profile {
	c := *p
	if p.Medications != nil {
		c.Medications = append([]string(nil), p.Medications...)
	}
	if p.Allergies != nil {
		c.Allergies = append([]string(nil), p.Allergies...)
	}
	c.Biomarkers = make(map[string]biomarker.Reading, len(p.Biomarkers))
	for k, v := range p.Biomarkers {
		c.Biomarkers[k] = v
	}
	return &c
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
