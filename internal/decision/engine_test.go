package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/warranty-cli/internal/model"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		itemCost         float64
		probability      float64
		warrantyCost     float64
		wantExpectedLoss float64
		wantNetCost      float64
		wantVerdict      model.Verdict
	}{
		{
			name:     "risk below price but above toss-up band",
			itemCost: 350, probability: 12, warrantyCost: 60,
			// 42 < 60, net 18 >= 350*0.05 = 17.5
			wantExpectedLoss: 42.00, wantNetCost: 18.00,
			wantVerdict: model.VerdictSkip,
		},
		{
			name:     "risk exceeds warranty price",
			itemCost: 350, probability: 20, warrantyCost: 60,
			wantExpectedLoss: 70.00, wantNetCost: -10.00,
			wantVerdict: model.VerdictBuy,
		},
		{
			name:     "slightly overpriced is a toss-up",
			itemCost: 350, probability: 17, warrantyCost: 60,
			// net 0.5 < 17.5
			wantExpectedLoss: 59.5, wantNetCost: 0.5,
			wantVerdict: model.VerdictTossUp,
		},
		{
			name:     "buy threshold is strict",
			itemCost: 100, probability: 50, warrantyCost: 50,
			// expected loss equals price: not a buy, net 0 < 5
			wantExpectedLoss: 50, wantNetCost: 0,
			wantVerdict: model.VerdictTossUp,
		},
		{
			name:     "zero probability",
			itemCost: 350, probability: 0, warrantyCost: 60,
			wantExpectedLoss: 0, wantNetCost: 60,
			wantVerdict: model.VerdictSkip,
		},
		{
			name:     "certain failure",
			itemCost: 350, probability: 100, warrantyCost: 60,
			wantExpectedLoss: 350, wantNetCost: -290,
			wantVerdict: model.VerdictBuy,
		},
		{
			name:     "free item skips worthless warranty",
			itemCost: 0, probability: 50, warrantyCost: 10,
			// net 10 >= 0*0.05
			wantExpectedLoss: 0, wantNetCost: 10,
			wantVerdict: model.VerdictSkip,
		},
		{
			name:     "negative inputs flow through unvalidated",
			itemCost: -100, probability: 10, warrantyCost: 5,
			// expected -10, net 15; -10 < 5 so not buy; 15 < -100*0.05 = -5 is false
			wantExpectedLoss: -10, wantNetCost: 15,
			wantVerdict: model.VerdictSkip,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Evaluate(tt.itemCost, tt.probability, tt.warrantyCost)
			assert.InDelta(t, tt.wantExpectedLoss, got.ExpectedLoss, 0.0001)
			assert.InDelta(t, tt.wantNetCost, got.NetCost, 0.0001)
			assert.Equal(t, tt.wantVerdict, got.Verdict)
		})
	}
}

func TestEvaluate_Monotonicity(t *testing.T) {
	t.Parallel()

	// Expected loss is non-decreasing in probability for a fixed cost.
	prev := -1.0
	for p := 0.0; p <= 100; p += 5 {
		got := Evaluate(350, p, 60)
		assert.GreaterOrEqual(t, got.ExpectedLoss, prev)
		prev = got.ExpectedLoss
	}

	// And non-decreasing in cost for a fixed probability.
	prev = -1.0
	for cost := 0.0; cost <= 2000; cost += 100 {
		got := Evaluate(cost, 12, 60)
		assert.GreaterOrEqual(t, got.ExpectedLoss, prev)
		prev = got.ExpectedLoss
	}
}

func TestHabitRule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		product      string
		expectedLoss float64
		warrantyCost float64
		want         string
	}{
		{
			name:    "rule emitted when risk is below price",
			product: "Sony WH-1000XM5 Headphones", expectedLoss: 42, warrantyCost: 60,
			want: "I do not buy warranties for Sony WH-1000XM5 Headphoness unless the warranty price is under $42.",
		},
		{
			name:    "no rule when risk exceeds price",
			product: "toaster", expectedLoss: 70, warrantyCost: 60,
			want: "",
		},
		{
			name:    "no rule at exact equality",
			product: "toaster", expectedLoss: 60, warrantyCost: 60,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, HabitRule(tt.product, tt.expectedLoss, tt.warrantyCost))
		})
	}
}

func TestExplain(t *testing.T) {
	t.Parallel()

	buy := Evaluate(350, 20, 60)
	assert.Contains(t, Explain(buy), "exceeds the warranty price")

	skip := Evaluate(350, 12, 60)
	assert.Contains(t, Explain(skip), "overpriced by $18.00")

	tossUp := Evaluate(350, 17, 60)
	assert.Contains(t, Explain(tossUp), "slightly overpriced")
}
