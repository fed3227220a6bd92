package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/warranty-cli/internal/model"
)

var (
	assessName        string
	assessCost        float64
	assessWarranty    float64
	assessYears       int
	assessProbability int
	assessJSON        bool
	assessNoStore     bool
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Evaluate whether an extended warranty is worth buying",
	Long: `Evaluates an extended warranty offer for a single product.

Without --probability the failure probability is estimated via the
configured Claude model; with no API key a simulated placeholder is used.

Examples:
  warranty-cli assess --name "Sony WH-1000XM5 Headphones" --cost 350 --warranty-cost 60 --years 2
  warranty-cli assess --name "toaster" --cost 40 --warranty-cost 15 --probability 5`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.Estimator.TimeoutSecs)*time.Second)
		defer cancel()

		env, err := initEnv(ctx, !assessNoStore)
		if err != nil {
			return err
		}
		defer env.Close()

		inputs := model.ProductInputs{
			Name:          assessName,
			Cost:          assessCost,
			WarrantyCost:  assessWarranty,
			WarrantyYears: assessYears,
		}

		var eval model.Evaluation
		if cmd.Flags().Changed("probability") {
			eval = env.Advisor.Evaluate(ctx, inputs, assessProbability, nil, model.EstimateSourceManual)
		} else {
			eval, err = env.Advisor.EstimateAndEvaluate(ctx, inputs)
			if err != nil {
				return err
			}
		}

		if assessJSON {
			return json.NewEncoder(os.Stdout).Encode(eval)
		}
		printEvaluation(eval)
		return nil
	},
}

func init() {
	assessCmd.Flags().StringVar(&assessName, "name", "", "product name (required)")
	assessCmd.Flags().Float64Var(&assessCost, "cost", 0, "item cost in dollars (required)")
	assessCmd.Flags().Float64Var(&assessWarranty, "warranty-cost", 0, "warranty price in dollars (required)")
	assessCmd.Flags().IntVar(&assessYears, "years", 2, "warranty length in years")
	assessCmd.Flags().IntVar(&assessProbability, "probability", 0, "failure probability percent, skips the estimator")
	assessCmd.Flags().BoolVar(&assessJSON, "json", false, "emit the evaluation as JSON")
	assessCmd.Flags().BoolVar(&assessNoStore, "no-store", false, "do not record the evaluation in history")
	_ = assessCmd.MarkFlagRequired("name")
	_ = assessCmd.MarkFlagRequired("cost")
	_ = assessCmd.MarkFlagRequired("warranty-cost")
	rootCmd.AddCommand(assessCmd)
}

// printEvaluation renders a human-readable evaluation summary.
func printEvaluation(eval model.Evaluation) {
	p := message.NewPrinter(language.English)

	p.Printf("Product:             %s\n", eval.Inputs.Name)
	p.Printf("Item cost:           $%.2f\n", eval.Inputs.Cost)
	if eval.Inputs.WarrantyYears > 0 {
		p.Printf("Warranty cost:       $%.2f (%d years)\n", eval.Inputs.WarrantyCost, eval.Inputs.WarrantyYears)
	} else {
		p.Printf("Warranty cost:       $%.2f\n", eval.Inputs.WarrantyCost)
	}
	p.Printf("Failure probability: %d%%", eval.Probability)
	if eval.Estimate != nil && eval.Estimate.Reason != "" {
		p.Printf(" - %s (Source: %s)", eval.Estimate.Reason, eval.Estimate.Source)
	}
	p.Println()
	p.Printf("Expected loss:       $%.2f\n", eval.Assessment.ExpectedLoss)
	p.Printf("Net premium:         $%.2f\n", eval.Assessment.NetCost)
	p.Printf("Verdict:             %s\n", verdictLabel(eval.Assessment.Verdict))
	if eval.Assessment.HabitRule != "" {
		p.Printf("\nHabit rule: %s\n", eval.Assessment.HabitRule)
	}
}

func verdictLabel(v model.Verdict) string {
	switch v {
	case model.VerdictBuy:
		return "BUY THE WARRANTY"
	case model.VerdictTossUp:
		return "TOSS UP"
	default:
		return "SKIP IT"
	}
}
