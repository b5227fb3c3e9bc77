// Package retrieval is the boundary to the document/knowledge index. The
// index is an external collaborator; when it is absent the caller degrades
// to built-in reference data with a warning, never a crash.
package retrieval

import (
	"context"

	"github.com/asrat/dietbuddy-intake/internal/fct"
)

// Retriever fetches food composition rows relevant to a query.
type Retriever interface {
	FoodRows(ctx context.Context, query, country string, k int) ([]fct.Row, error)
}

// Static serves a fixed row set, mainly for tests and offline runs.
type Static struct {
	Rows []fct.Row
}

func (s *Static) FoodRows(_ context.Context, _, _ string, k int) ([]fct.Row, error) {
	if k > 0 && k < len(s.Rows) {
		return s.Rows[:k], nil
	}
	return s.Rows, nil
}

// Unavailable always reports no index. Deployments without a vector index
// use it so the orchestrator takes the built-in staple path.
type Unavailable struct{}

func (Unavailable) FoodRows(context.Context, string, string, int) ([]fct.Row, error) {
	return nil, nil
}
