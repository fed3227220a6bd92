// Package decision implements the expected-value comparison that turns a
// purchase price, a failure probability, and a warranty quote into a
// categorical recommendation.
package decision

import (
	"fmt"

	"github.com/sells-group/warranty-cli/internal/model"
)

// tossUpFraction is the slice of the item cost under which an overpriced
// warranty is still considered a toss-up rather than a clear skip.
const tossUpFraction = 0.05

// Evaluate computes the expected loss and net premium for a purchase and
// selects a verdict. It is pure and total: identical inputs always yield an
// identical result, and no input combination produces an error. Inputs are
// deliberately not validated; negative or out-of-range values flow through
// the arithmetic unchanged.
//
// Verdict selection, first match wins:
//  1. expected_loss > warranty_cost  -> buy
//  2. net_cost < item_cost * 0.05    -> toss_up
//  3. otherwise                      -> skip
func Evaluate(itemCost, probabilityPercent, warrantyCost float64) model.Assessment {
	expectedLoss := itemCost * (probabilityPercent / 100)
	netCost := warrantyCost - expectedLoss

	var verdict model.Verdict
	switch {
	case expectedLoss > warrantyCost:
		verdict = model.VerdictBuy
	case netCost < itemCost*tossUpFraction:
		verdict = model.VerdictTossUp
	default:
		verdict = model.VerdictSkip
	}

	return model.Assessment{
		ExpectedLoss: expectedLoss,
		NetCost:      netCost,
		Verdict:      verdict,
	}
}

// HabitRule returns an advisory rule of thumb for the product class when the
// expected loss is below the warranty price, and an empty string otherwise.
// It is informational only and plays no part in verdict selection.
func HabitRule(productName string, expectedLoss, warrantyCost float64) string {
	if expectedLoss >= warrantyCost {
		return ""
	}
	return fmt.Sprintf(
		"I do not buy warranties for %ss unless the warranty price is under $%.0f.",
		productName, expectedLoss,
	)
}

// Explain returns a one-line human-readable justification for a verdict,
// mirroring the numbers the assessment was derived from.
func Explain(a model.Assessment) string {
	switch a.Verdict {
	case model.VerdictBuy:
		return fmt.Sprintf("the expected risk ($%.2f) exceeds the warranty price ($%.2f)", a.ExpectedLoss, a.ExpectedLoss+a.NetCost)
	case model.VerdictTossUp:
		return "the warranty is only slightly overpriced relative to the item cost"
	default:
		return fmt.Sprintf("the warranty is mathematically overpriced by $%.2f", a.NetCost)
	}
}
