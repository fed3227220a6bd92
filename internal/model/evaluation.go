package model

import "time"

// Verdict is the categorical recommendation derived from comparing the
// warranty price to the expected loss.
type Verdict string

const (
	VerdictBuy    Verdict = "buy"
	VerdictSkip   Verdict = "skip"
	VerdictTossUp Verdict = "toss_up"
)

// EstimateSource describes where a risk estimate came from.
type EstimateSource string

const (
	EstimateSourceAI        EstimateSource = "ai"        // parsed from the estimation service
	EstimateSourceFallback  EstimateSource = "fallback"  // service failed, fixed conservative default
	EstimateSourceSimulated EstimateSource = "simulated" // no credential configured
	EstimateSourceManual    EstimateSource = "manual"    // caller-supplied probability
)

// RiskEstimate is a structured failure-risk estimate for a product over the
// estimation horizon. Probability is a percentage in [0,100].
type RiskEstimate struct {
	Probability int    `json:"probability"`
	Reason      string `json:"reason"`
	Source      string `json:"source"`
}

// ProductInputs holds the caller-supplied facts about the purchase under
// consideration. The core never mutates it.
type ProductInputs struct {
	Name          string  `json:"name"`
	Cost          float64 `json:"cost"`
	WarrantyCost  float64 `json:"warranty_cost"`
	WarrantyYears int     `json:"warranty_years"`
}

// Assessment is the output of the decision engine: the expected-value
// comparison plus the verdict it justifies. Stateless and recomputed on
// every input change.
type Assessment struct {
	ExpectedLoss float64 `json:"expected_loss"`
	NetCost      float64 `json:"net_cost"`
	Verdict      Verdict `json:"verdict"`
	HabitRule    string  `json:"habit_rule,omitempty"`
}

// Evaluation is the explicit session record for a single warranty decision:
// inputs, the risk estimate that informed it, and the resulting assessment.
// It replaces reactive UI widget state with a serializable object the
// presentation layer reads and writes.
type Evaluation struct {
	ID             string         `json:"id"`
	Inputs         ProductInputs  `json:"inputs"`
	Probability    int            `json:"probability"`
	Estimate       *RiskEstimate  `json:"estimate,omitempty"`
	EstimateSource EstimateSource `json:"estimate_source,omitempty"`
	Assessment     Assessment     `json:"assessment"`
	CreatedAt      time.Time      `json:"created_at"`
}
