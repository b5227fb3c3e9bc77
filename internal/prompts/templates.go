package prompts

import (
	"fmt"
	"strings"

	"github.com/asrat/dietbuddy-intake/internal/medval"
	"github.com/asrat/dietbuddy-intake/internal/models"
)

// Disclaimer must appear verbatim in every final answer; the pre-send
// safety gate rejects answers without it.
const Disclaimer = "For educational purposes only. Not medical advice. Consult a healthcare provider."

// SafetyFailureMessage replaces any answer that fails the pre-send check.
const SafetyFailureMessage = "I could not safely complete that answer. Please rephrase your question or try again.\n\n" + Disclaimer

// FallbackMessage covers unclassifiable input.
const FallbackMessage = "I didn't understand your request clearly. Could you tell me a bit more about the nutrition question you have?"

// OnboardingMessage presents the three data-collection options when a
// therapy request arrives without enough clinical data.
const OnboardingMessage = `To build a personalized nutrition therapy plan I need some clinical information first. How would you like to proceed?

1. **Upload** recent lab results or a clinical summary
2. **Step by step** - I ask one question at a time
3. **General info** - get general nutrition guidance without a personalized plan

Reply with 1, 2, or 3 (or "upload", "step by step", "general info").`

// DowngradeNotice explains why a therapy request is being answered
// generically.
func DowngradeNotice(reason string) string {
	switch reason {
	case "missing_critical_data":
		return "I don't have enough clinical data (medications, lab values, age, weight) for a personalized therapy plan, so here is general guidance instead."
	case "unsupported_condition":
		return "That condition is outside the therapy protocols I support, so here is general nutrition guidance instead."
	case "lacks_clinical_indicators":
		return "Your question doesn't reference clinical details, so here is general nutrition guidance."
	default:
		return "Here is general nutrition guidance."
	}
}

// GracefulDegradeOffer is shown when a safety-critical slot is refused
// under a therapy intent.
const GracefulDegradeOffer = `That information is needed for a safe personalized plan. You can:

- reply **general** to switch to general nutrition guidance, or
- reply **later** and resupply the data when you have it.`

// SkipOffer is shown after repeated failed answers for one slot.
func SkipOffer(slot string) string {
	return fmt.Sprintf("We've tried a few times on %s. Reply 'skip' to move on without it, or try answering once more.", strings.ReplaceAll(slot, "_", " "))
}

// MedicationConfirmation asks a yes/no about corrected spellings.
func MedicationConfirmation(suggestions []medval.Suggestion) string {
	var b strings.Builder
	b.WriteString("I matched your medications against a drug database:\n")
	for _, s := range suggestions {
		if s.Suggested != "" {
			fmt.Fprintf(&b, "- %q looks like **%s**", s.Original, s.Suggested)
			if len(s.Alternatives) > 0 {
				fmt.Fprintf(&b, " (or: %s)", strings.Join(s.Alternatives, ", "))
			}
			b.WriteString("\n")
		} else if s.Error != "" {
			fmt.Fprintf(&b, "- %q: %s\n", s.Original, s.Error)
		}
	}
	b.WriteString("\nShall I use the corrected spellings? (yes/no)")
	return b.String()
}

// MealPlanConsent asks before generating a concrete plan.
const MealPlanConsent = "I can generate a concrete meal plan from these targets. Would you like a 1-day or 7-day plan? (reply '1 day', '7 days', or 'no')"

// TherapySummary renders the nutrient targets and plan as user-facing text.
func TherapySummary(profile string, out *models.TherapyOutput, rationale []string) string {
	var b strings.Builder
	b.WriteString("## Nutrition Therapy Summary\n\n")
	if profile != "" {
		fmt.Fprintf(&b, "**Profile:** %s\n", profile)
	}
	fmt.Fprintf(&b, "**Energy target:** %.0f kcal/day\n", out.Targets.EnergyKcal)
	if p := out.Targets.Macros["protein_g"]; p > 0 {
		fmt.Fprintf(&b, "**Protein:** %.0f g/day\n", p)
	}
	for _, name := range []string{"calcium", "iron", "zinc", "vitamin_c"} {
		if v := out.Targets.Micros[name]; v > 0 {
			fmt.Fprintf(&b, "**%s:** %.0f mg/day\n", titleCase(name), v)
		}
	}
	if out.Plan != nil && len(out.Plan.Rations) > 0 {
		b.WriteString("\n### Portion plan\n")
		for _, r := range out.Plan.Rations {
			fmt.Fprintf(&b, "- %s: %.0f g (%.0f kcal, %.1f g protein)\n", r.Food, r.PortionG, r.Energy, r.Protein)
		}
		if out.Plan.Note != "" {
			fmt.Fprintf(&b, "\n_%s_\n", out.Plan.Note)
		}
	}
	if len(out.Week) > 0 {
		b.WriteString("\n### 7-day plan\n")
		for _, d := range out.Week {
			fmt.Fprintf(&b, "- **%s**: %s\n", d.Day, dayMeals(d.Meals))
		}
	}
	if out.GrowthNote != "" {
		fmt.Fprintf(&b, "\n%s\n", out.GrowthNote)
	}
	if len(out.TimingNotes) > 0 {
		b.WriteString("\n### Medication timing\n")
		for _, n := range out.TimingNotes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}
	if len(rationale) > 0 {
		b.WriteString("\n### Why these targets\n")
		for _, r := range rationale {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	b.WriteString("\n" + Disclaimer)
	return b.String()
}

func dayMeals(meals map[string][]models.Ration) string {
	var parts []string
	for _, m := range []string{"breakfast", "lunch", "dinner"} {
		var foods []string
		for _, r := range meals[m] {
			foods = append(foods, r.Food)
		}
		if len(foods) > 0 {
			parts = append(parts, m+": "+strings.Join(foods, ", "))
		}
	}
	if len(parts) == 0 {
		return "as above"
	}
	return strings.Join(parts, "; ")
}

func titleCase(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// AnswerPrompt assembles the generative prompt for a gated answer.
func AnswerPrompt(intent, query, history, profileSummary string) string {
	return fmt.Sprintf(`You are a clinical nutrition assistant. Answer the user's %s question using established dietetic guidance.

Known profile:
%s

Conversation so far:
%s

Question: %s

Answer concisely. Do not prescribe medication changes. End with this exact line:
%s`, intent, profileSummary, history, query, Disclaimer)
}
