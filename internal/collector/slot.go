// Package collector parses free-text answers to intake questions. The slot
// parser handles one outstanding question at a time; the linear collector
// walks a fixed question sequence for full therapy onboarding.
package collector

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/asrat/dietbuddy-intake/internal/schema"
)

// Parse statuses.
type Status string

const (
	StatusSuccess       Status = "success"
	StatusNeedDetails   Status = "need_details"
	StatusNotAvailable  Status = "not_available"
	StatusSkipRequested Status = "skip_requested"
	StatusFailed        Status = "failed"
)

// MaxRetries is how many failed parses are tolerated per slot before the
// orchestrator offers an explicit skip instead of re-asking.
const MaxRetries = 3

// Result of parsing one answer for one slot.
type Result struct {
	Status  Status
	Value   any
	Message string
}

var numberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

var listSplitRe = regexp.MustCompile(`\s*[,/+]\s*|\s+and\s+`)

// notAvailablePhrases signal the user does not have the data at all.
var notAvailablePhrases = []string{
	"don't have", "dont have", "do not have", "not available", "no idea",
	"don't know", "dont know", "do not know", "not sure",
}

// Refusal reports whether the answer declines to provide the data at all:
// an explicit skip, a not-available phrase, or a bare none-word.
func Refusal(answer string) bool {
	lower := strings.ToLower(strings.TrimSpace(answer))
	switch lower {
	case "skip", "no", "none", "nil", "n/a", "na":
		return true
	}
	for _, p := range notAvailablePhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// ParseSlot interprets an answer for the given slot spec.
func ParseSlot(answer string, spec *schema.SlotSpec) Result {
	text := strings.TrimSpace(answer)
	lower := strings.ToLower(text)

	if lower == "skip" {
		return Result{Status: StatusSkipRequested}
	}
	for _, p := range notAvailablePhrases {
		if strings.Contains(lower, p) {
			return Result{Status: StatusNotAvailable}
		}
	}

	isList := spec.Type == schema.TypeList
	if isList {
		return parseList(text, lower, spec)
	}

	switch lower {
	case "no", "none", "nil", "n/a", "na":
		return Result{Status: StatusNotAvailable}
	}

	switch spec.Type {
	case schema.TypeNumber:
		return parseNumber(text, spec)
	case schema.TypeEnum:
		for _, e := range spec.Enum {
			if lower == e {
				return Result{Status: StatusSuccess, Value: e}
			}
		}
		return Result{
			Status:  StatusFailed,
			Message: fmt.Sprintf("Please answer with one of: %s.", strings.Join(spec.Enum, ", ")),
		}
	case schema.TypeBool:
		switch lower {
		case "yes", "y", "yeah", "yep", "true", "ok", "sure":
			return Result{Status: StatusSuccess, Value: true}
		case "false":
			return Result{Status: StatusSuccess, Value: false}
		}
		return Result{Status: StatusFailed, Message: "Please answer yes or no."}
	default:
		if len(text) < 2 {
			return Result{Status: StatusFailed, Message: "Please provide a valid answer (at least 2 characters)."}
		}
		return Result{Status: StatusSuccess, Value: text}
	}
}

func parseNumber(text string, spec *schema.SlotSpec) Result {
	m := numberRe.FindString(text)
	if m == "" {
		return Result{Status: StatusFailed, Message: fmt.Sprintf("Please enter a number for %s.", spec.Name)}
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return Result{Status: StatusFailed, Message: fmt.Sprintf("Please enter a number for %s.", spec.Name)}
	}
	if err := spec.CheckNumber(v); err != nil {
		return Result{Status: StatusFailed, Message: err.Error() + "."}
	}
	return Result{Status: StatusSuccess, Value: v}
}

func parseList(text, lower string, spec *schema.SlotSpec) Result {
	// A bare affirmation confirms the slot exists but gives no content.
	switch lower {
	case "yes", "y", "yeah", "yep", "sure", "ok":
		return Result{Status: StatusNeedDetails, Message: fmt.Sprintf("Please list the %s, separated by commas.", spec.Name)}
	}

	if isNonePhrase(lower) {
		if spec.Name == "allergies" {
			// "none" is a valid terminal answer for allergies, not a refusal.
			return Result{Status: StatusSuccess, Value: []string{"none"}}
		}
		return Result{Status: StatusSuccess, Value: []string{}}
	}

	// Strip leading filler before splitting.
	for _, filler := range []string{"yes,", "yes.", "yeah,", "yeah.", "yep,", "yep."} {
		text = strings.TrimSpace(strings.TrimPrefix(text, filler))
	}

	var items []string
	for _, part := range listSplitRe.Split(text, -1) {
		if p := strings.TrimSpace(part); p != "" {
			items = append(items, p)
		}
	}
	if len(items) == 0 {
		return Result{Status: StatusFailed, Message: fmt.Sprintf("Please list %s separated by commas, or type 'none'.", spec.Name)}
	}
	return Result{Status: StatusSuccess, Value: items}
}

func isNonePhrase(lower string) bool {
	switch lower {
	case "none", "no", "nil", "n/a", "na", "nka", "nkda", "nothing":
		return true
	}
	return false
}

// Default returns the documented fallback value for a non-critical slot.
func Default(slot string) (any, bool) {
	switch slot {
	case "age":
		return 30.0, true
	case "weight_kg":
		return 70.0, true
	case "height_cm":
		return 170.0, true
	case "sex":
		return "unknown", true
	case "country":
		return "Nigeria", true
	}
	return nil, false
}

// Critical reports whether refusing the slot under the given intent must
// trigger graceful degradation instead of a default.
func Critical(intent, slot string) bool {
	if intent != "therapy" {
		return false
	}
	return slot == "medications" || slot == "biomarkers"
}
