package gatekeeper

import "strings"

// Condition is one of the supported therapy condition categories.
type Condition string

const (
	CondPreterm     Condition = "preterm"
	CondType1Diab   Condition = "type1_diabetes"
	CondFoodAllergy Condition = "food_allergy"
	CondCF          Condition = "cystic_fibrosis"
	CondIEM         Condition = "inborn_error_metabolism"
	CondEpilepsy    Condition = "epilepsy_ketogenic"
	CondCKD         Condition = "chronic_kidney_disease"
	CondGI          Condition = "gastrointestinal"
)

// conditionRules map free-text diagnoses onto the supported categories. The
// list is order-sensitive: the metabolic-disorder terms must be matched
// before the ketogenic ones, because "ketogenic diet for PKU" style queries
// contain both families of keywords.
var conditionRules = []struct {
	cond  Condition
	terms []string
}{
	{CondIEM, []string{
		"pku", "phenylketonuria", "msud", "maple syrup urine",
		"galactosemia", "inborn error", "metabolic disorder",
		"amino acid disorder",
	}},
	{CondPreterm, []string{"preterm", "premature", "neonat", "low birth weight", "nicu"}},
	{CondType1Diab, []string{"type 1 diabetes", "type-1 diabetes", "t1d", "type i diabetes", "juvenile diabetes", "insulin-dependent"}},
	{CondCF, []string{"cystic fibrosis", "cf "}},
	{CondEpilepsy, []string{"epilep", "seizure", "ketogenic", "keto diet therapy"}},
	{CondCKD, []string{"chronic kidney", "ckd", "renal failure", "kidney disease", "renal disease", "dialysis", "nephro"}},
	{CondGI, []string{"crohn", "ulcerative colitis", "ibd", "inflammatory bowel", "gerd", "reflux", "celiac", "coeliac", "short bowel"}},
	{CondFoodAllergy, []string{"food allerg", "allerg", "anaphyla", "cow's milk protein", "cmpa"}},
}

// NormalizeCondition resolves a free-text diagnosis to a supported category.
// The second return is false when the diagnosis fits none of them.
func NormalizeCondition(diagnosis string) (Condition, bool) {
	d := " " + strings.ToLower(strings.TrimSpace(diagnosis)) + " "
	for _, rule := range conditionRules {
		for _, t := range rule.terms {
			if strings.Contains(d, t) {
				return rule.cond, true
			}
		}
	}
	return "", false
}

// IEMVariant distinguishes the metabolic sub-conditions that carry their own
// biomarker intake blocks. Empty when the text names no specific variant.
func IEMVariant(diagnosis string) string {
	d := strings.ToLower(diagnosis)
	switch {
	case strings.Contains(d, "pku") || strings.Contains(d, "phenylketonuria"):
		return "pku"
	case strings.Contains(d, "msud") || strings.Contains(d, "maple syrup"):
		return "msud"
	case strings.Contains(d, "galactosemia"):
		return "galactosemia"
	}
	return ""
}

// GIVariant distinguishes the gastrointestinal sub-conditions.
func GIVariant(diagnosis string) string {
	d := strings.ToLower(diagnosis)
	switch {
	case strings.Contains(d, "gerd") || strings.Contains(d, "reflux"):
		return "gerd"
	case strings.Contains(d, "crohn") || strings.Contains(d, "colitis") || strings.Contains(d, "ibd") || strings.Contains(d, "inflammatory bowel"):
		return "ibd"
	}
	return ""
}
