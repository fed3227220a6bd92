// Package store persists evaluation history. The two core functions
// (estimation and decision) are store-free; history is a convenience for
// callers that want to review past decisions.
package store

import (
	"context"

	"github.com/sells-group/warranty-cli/internal/model"
)

// EvaluationFilter specifies criteria for listing evaluations.
type EvaluationFilter struct {
	Verdict model.Verdict `json:"verdict,omitempty"`
	Product string        `json:"product,omitempty"`
	Limit   int           `json:"limit,omitempty"`
	Offset  int           `json:"offset,omitempty"`
}

// Store defines the persistence interface for evaluation history.
type Store interface {
	SaveEvaluation(ctx context.Context, eval model.Evaluation) (*model.Evaluation, error)
	GetEvaluation(ctx context.Context, id string) (*model.Evaluation, error)
	ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]model.Evaluation, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
