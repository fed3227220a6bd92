// Package advisor ties the risk estimator and the decision engine together
// into complete warranty evaluations.
package advisor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/warranty-cli/internal/decision"
	"github.com/sells-group/warranty-cli/internal/model"
	"github.com/sells-group/warranty-cli/internal/risk"
	"github.com/sells-group/warranty-cli/internal/store"
)

// Advisor produces evaluations from product inputs. The store is optional:
// when present, completed evaluations are recorded as history.
type Advisor struct {
	estimator *risk.Estimator
	store     store.Store
}

// New creates an Advisor. store may be nil to disable history.
func New(estimator *risk.Estimator, st store.Store) *Advisor {
	return &Advisor{estimator: estimator, store: st}
}

// EstimateRisk returns a risk estimate for the named product along with
// where it came from. When no credential is configured the simulated
// placeholder is substituted, so callers always receive a usable estimate.
func (a *Advisor) EstimateRisk(ctx context.Context, productName string) (*model.RiskEstimate, model.EstimateSource, error) {
	est, err := a.estimator.Estimate(ctx, productName)
	if err != nil {
		return nil, "", err
	}
	if est == nil {
		return risk.SimulatedEstimate(), model.EstimateSourceSimulated, nil
	}
	if *est == *risk.FallbackEstimate() {
		return est, model.EstimateSourceFallback, nil
	}
	return est, model.EstimateSourceAI, nil
}

// Evaluate runs the decision engine over the given inputs and probability
// and assembles the session record. estimate and estimateSource describe
// how the probability was obtained and may be nil/empty for manual input.
// History write failures are logged, not propagated: the evaluation itself
// never fails.
func (a *Advisor) Evaluate(ctx context.Context, inputs model.ProductInputs, probability int, estimate *model.RiskEstimate, estimateSource model.EstimateSource) model.Evaluation {
	assessment := decision.Evaluate(inputs.Cost, float64(probability), inputs.WarrantyCost)
	assessment.HabitRule = decision.HabitRule(inputs.Name, assessment.ExpectedLoss, inputs.WarrantyCost)

	eval := model.Evaluation{
		Inputs:         inputs,
		Probability:    probability,
		Estimate:       estimate,
		EstimateSource: estimateSource,
		Assessment:     assessment,
		CreatedAt:      time.Now().UTC(),
	}

	if a.store != nil {
		saved, err := a.store.SaveEvaluation(ctx, eval)
		if err != nil {
			zap.L().Warn("advisor: failed to record evaluation", zap.Error(err))
		} else {
			eval = *saved
		}
	}

	zap.L().Info("advisor: evaluation complete",
		zap.String("product", inputs.Name),
		zap.Int("probability", probability),
		zap.Float64("expected_loss", assessment.ExpectedLoss),
		zap.Float64("net_cost", assessment.NetCost),
		zap.String("verdict", string(assessment.Verdict)),
	)
	return eval
}

// EstimateAndEvaluate estimates the failure probability for the product and
// immediately evaluates the warranty with it. This is the one-shot path used
// by the CLI.
func (a *Advisor) EstimateAndEvaluate(ctx context.Context, inputs model.ProductInputs) (model.Evaluation, error) {
	est, src, err := a.EstimateRisk(ctx, inputs.Name)
	if err != nil {
		return model.Evaluation{}, err
	}
	return a.Evaluate(ctx, inputs, est.Probability, est, src), nil
}
