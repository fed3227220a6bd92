package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/warranty-cli/internal/model"
)

var estimateName string

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Fetch a failure-risk estimate for a product",
	Long: `Queries the configured Claude model for the probability that the
product fails or needs repair within 3 years. With no API key configured a
simulated placeholder estimate is returned instead.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.Estimator.TimeoutSecs)*time.Second)
		defer cancel()

		env, err := initEnv(ctx, false)
		if err != nil {
			return err
		}
		defer env.Close()

		est, src, err := env.Advisor.EstimateRisk(ctx, estimateName)
		if err != nil {
			return err
		}

		out := struct {
			Estimate *model.RiskEstimate  `json:"estimate"`
			Source   model.EstimateSource `json:"source"`
		}{Estimate: est, Source: src}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	estimateCmd.Flags().StringVar(&estimateName, "name", "", "product name (required)")
	_ = estimateCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(estimateCmd)
}
