// Package medval checks medication spellings against the National Library
// of Medicine's RxNorm service. Validation is best-effort: any network or
// API failure keeps the user's original spelling.
package medval

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const rxnormEndpoint = "https://rxnav.nlm.nih.gov/REST/approximateTerm.json"

// Suggestion describes one medication whose spelling could not be taken
// as-is.
type Suggestion struct {
	Original     string   `json:"original"`
	Suggested    string   `json:"suggested,omitempty"`
	Confidence   float64  `json:"confidence"`
	Alternatives []string `json:"alternatives,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Validator normalizes a medication list.
type Validator interface {
	ValidateList(ctx context.Context, medications []string) (corrected []string, suggestions []Suggestion)
}

// Disabled passes medications through untouched.
type Disabled struct{}

func (Disabled) ValidateList(_ context.Context, medications []string) ([]string, []Suggestion) {
	return medications, nil
}

// RxNorm is the live validator with an in-memory result cache.
type RxNorm struct {
	endpoint   string
	confidence float64
	client     *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	corrected  string
	suggestion *Suggestion
}

// NewRxNorm creates a validator. confidence is the minimum approximate-match
// score (0..1) required to adopt a corrected spelling.
func NewRxNorm(timeout time.Duration, confidence float64) *RxNorm {
	return &RxNorm{
		endpoint:   rxnormEndpoint,
		confidence: confidence,
		client:     &http.Client{Timeout: timeout},
		cache:      make(map[string]cacheEntry),
	}
}

// WithBaseURL points the validator at a different RxNav deployment.
func (r *RxNorm) WithBaseURL(base string) *RxNorm {
	if base != "" {
		r.endpoint = strings.TrimRight(base, "/") + "/approximateTerm.json"
	}
	return r
}

type approximateResponse struct {
	ApproximateGroup struct {
		Candidate []struct {
			Name  string `json:"name"`
			Score string `json:"score"`
		} `json:"candidate"`
	} `json:"approximateGroup"`
}

// ValidateList checks each medication. Placeholders are dropped; lookups
// that fail keep the original spelling.
func (r *RxNorm) ValidateList(ctx context.Context, medications []string) ([]string, []Suggestion) {
	var corrected []string
	var suggestions []Suggestion

	for _, med := range medications {
		key := strings.ToLower(strings.TrimSpace(med))
		if key == "" || key == "none" || key == "nil" || key == "no" {
			continue
		}

		r.mu.Lock()
		cached, hit := r.cache[key]
		r.mu.Unlock()
		if hit {
			corrected = append(corrected, cached.corrected)
			if cached.suggestion != nil {
				suggestions = append(suggestions, *cached.suggestion)
			}
			continue
		}

		name, sug := r.lookup(ctx, med)
		corrected = append(corrected, name)
		if sug != nil {
			suggestions = append(suggestions, *sug)
		}
		// Only confident results are cached; transient failures retry next turn.
		if sug == nil || sug.Suggested != "" {
			r.mu.Lock()
			r.cache[key] = cacheEntry{corrected: name, suggestion: sug}
			r.mu.Unlock()
		}
	}
	return corrected, suggestions
}

func (r *RxNorm) lookup(ctx context.Context, med string) (string, *Suggestion) {
	q := url.Values{"term": {med}, "maxEntries": {"3"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return med, nil
	}
	resp, err := r.client.Do(req)
	if err != nil {
		log.Printf("⚠️ RxNorm lookup failed for %q: %v", med, err)
		return med, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("⚠️ RxNorm returned status %d for %q", resp.StatusCode, med)
		return med, nil
	}

	var parsed approximateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		log.Printf("⚠️ RxNorm response parse failed for %q: %v", med, err)
		return med, nil
	}

	candidates := parsed.ApproximateGroup.Candidate
	if len(candidates) == 0 {
		return med, &Suggestion{
			Original: med,
			Error:    "Medication not found in database. Please verify spelling.",
		}
	}

	best := candidates[0]
	score, _ := strconv.ParseFloat(best.Score, 64)
	confidence := score / 100

	if confidence < r.confidence {
		return med, &Suggestion{
			Original:   med,
			Confidence: confidence,
			Error:      fmt.Sprintf("Low confidence match (%.0f%%). Please verify spelling.", confidence*100),
		}
	}

	if strings.EqualFold(med, best.Name) {
		return best.Name, nil
	}

	var alternatives []string
	for _, c := range candidates[1:] {
		if c.Name != "" && len(alternatives) < 2 {
			alternatives = append(alternatives, c.Name)
		}
	}
	return best.Name, &Suggestion{
		Original:     med,
		Suggested:    best.Name,
		Confidence:   confidence,
		Alternatives: alternatives,
	}
}
