// Package classifier defines the classification contract the orchestrator
// consumes, plus an adapter guaranteeing the contract's no-failure rule.
package classifier

import (
	"context"
	"log"

	"github.com/asrat/dietbuddy-intake/internal/biomarker"
)

// Intent labels.
const (
	LabelComparison     = "comparison"
	LabelRecommendation = "recommendation"
	LabelTherapy        = "therapy"
	LabelGeneral        = "general"
)

// Record is the normalized classification of one raw user message. It is
// produced once per message and never mutated afterward.
type Record struct {
	Label         string                        `json:"label"`
	Confidence    float64                       `json:"confidence"`
	Diagnosis     string                        `json:"diagnosis,omitempty"`
	Medications   []string                      `json:"medications"`
	Biomarkers    map[string]biomarker.Reading  `json:"biomarkers"`
	HighRisk      bool                          `json:"high_risk"`
	NeedsFollowup bool                          `json:"needs_followup"`
	Country       string                        `json:"country,omitempty"`
}

// Classifier produces a Record from raw text.
type Classifier interface {
	Classify(ctx context.Context, text string) (*Record, error)
}

// Adapter wraps any Classifier and enforces the boundary contract: the
// orchestrator must never see a classification failure. Errors and nil
// results are mapped to the safe default {general, 0.0}.
type Adapter struct {
	inner Classifier
}

func NewAdapter(inner Classifier) *Adapter {
	return &Adapter{inner: inner}
}

// Classify never returns an error.
func (a *Adapter) Classify(ctx context.Context, text string) *Record {
	rec, err := a.inner.Classify(ctx, text)
	if err != nil || rec == nil {
		if err != nil {
			log.Printf("classification failed, using safe default: %v", err)
		}
		return safeDefault()
	}
	if rec.Medications == nil {
		rec.Medications = []string{}
	}
	if rec.Biomarkers == nil {
		rec.Biomarkers = map[string]biomarker.Reading{}
	}
	if rec.Confidence < 0 {
		rec.Confidence = 0
	}
	if rec.Confidence > 1 {
		rec.Confidence = 1
	}
	return rec
}

func safeDefault() *Record {
	return &Record{
		Label:       LabelGeneral,
		Confidence:  0.0,
		Medications: []string{},
		Biomarkers:  map[string]biomarker.Reading{},
	}
}
