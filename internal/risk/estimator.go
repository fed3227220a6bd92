// Package risk produces structured failure-risk estimates for retail
// products, either by querying a text-generation service or by degrading to
// fixed defaults when the service is unavailable or fails.
package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/warranty-cli/internal/model"
)

// TextGenerator is the injectable capability backing the estimator: it takes
// a prompt and returns free-form text. Production wires a Claude-backed
// implementation; tests use canned strings.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// HorizonYears is the fixed time horizon the failure probability is
// estimated over.
const HorizonYears = 3

const promptTemplate = `You are an actuarial database.
Task: Estimate the probability of failure or need for repair for a '%s' within 3 years.
Based on consumer reliability reports (Consumer Reports, Wirecutter, etc).

Return ONLY a JSON string with no markdown formatting. Use this exact format:
{
    "probability": <integer between 0 and 100>,
    "reason": "<short 10-word explanation of common failure points>",
    "source": "<name of a likely data source>"
}`

// FallbackEstimate is the fixed conservative estimate substituted when the
// estimation service errors or returns unparsable text.
func FallbackEstimate() *model.RiskEstimate {
	return &model.RiskEstimate{
		Probability: 5,
		Reason:      "AI Failed, using average",
		Source:      "Estimation",
	}
}

// SimulatedEstimate is the placeholder estimate callers substitute when no
// credential is configured and the estimator returns no result.
func SimulatedEstimate() *model.RiskEstimate {
	return &model.RiskEstimate{
		Probability: 12,
		Reason:      "Simulated Estimate (Add API Key for real data)",
		Source:      "Simulation",
	}
}

// Estimator queries a TextGenerator for per-product failure probabilities.
// It performs no caching and no retries: every call re-queries the service.
type Estimator struct {
	gen TextGenerator
}

// NewEstimator creates an Estimator. A nil generator is valid and models the
// missing-credential state: Estimate then returns no result without any
// network call.
func NewEstimator(gen TextGenerator) *Estimator {
	return &Estimator{gen: gen}
}

// Estimate returns a structured risk estimate for the named product over the
// fixed horizon.
//
// A nil, nil return means no estimate is available (no generator configured)
// and the caller is responsible for substituting a default. Service and
// parse failures are never propagated: they degrade to FallbackEstimate with
// the error detail logged. The only error return is a precondition
// violation (empty product name).
func (e *Estimator) Estimate(ctx context.Context, productName string) (*model.RiskEstimate, error) {
	if strings.TrimSpace(productName) == "" {
		return nil, eris.New("risk: product name is required")
	}
	if e.gen == nil {
		return nil, nil
	}

	log := zap.L().With(zap.String("product", productName))

	raw, err := e.gen.Generate(ctx, Prompt(productName))
	if err != nil {
		log.Warn("risk: estimation service failed, using fallback", zap.Error(err))
		return FallbackEstimate(), nil
	}

	var est model.RiskEstimate
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &est); err != nil {
		log.Warn("risk: unparsable estimation response, using fallback",
			zap.Error(err),
			zap.Int("response_len", len(raw)),
		)
		return FallbackEstimate(), nil
	}

	if est.Probability < 0 || est.Probability > 100 {
		log.Warn("risk: probability out of range, clamping", zap.Int("probability", est.Probability))
		est.Probability = clamp(est.Probability, 0, 100)
	}

	log.Info("risk: estimate received",
		zap.Int("probability", est.Probability),
		zap.String("source", est.Source),
	)
	return &est, nil
}

// Prompt returns the instruction sent to the estimation service for the
// named product. Exported for testing.
func Prompt(productName string) string {
	return fmt.Sprintf(promptTemplate, productName)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
