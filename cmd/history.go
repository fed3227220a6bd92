package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/warranty-cli/internal/model"
	"github.com/sells-group/warranty-cli/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded warranty evaluations",
	Long:  "Commands for listing, viewing, and summarizing past evaluations.",
}

// -- history list --

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded evaluations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		verdict, _ := cmd.Flags().GetString("verdict")
		product, _ := cmd.Flags().GetString("product")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		filter := store.EvaluationFilter{
			Verdict: model.Verdict(verdict),
			Product: product,
			Limit:   limit,
			Offset:  offset,
		}

		evals, err := st.ListEvaluations(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "history list")
		}

		if len(evals) == 0 {
			fmt.Fprintln(os.Stderr, "No evaluations found.")
			return nil
		}

		formatEvaluationsList(os.Stdout, evals)
		return nil
	},
}

// -- history show --

var historyShowCmd = &cobra.Command{
	Use:   "show <evaluation-id>",
	Short: "Show full details of an evaluation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		eval, err := st.GetEvaluation(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "history show")
		}
		if eval == nil {
			return eris.Errorf("evaluation %s not found", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(eval)
	},
}

// -- history stats --

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate verdict statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		evals, err := st.ListEvaluations(ctx, store.EvaluationFilter{Limit: 10000})
		if err != nil {
			return eris.Wrap(err, "history stats")
		}

		stats := computeEvaluationStats(evals)
		formatEvaluationStats(os.Stdout, stats)
		return nil
	},
}

func init() {
	historyListCmd.Flags().String("verdict", "", "filter by verdict (buy, skip, toss_up)")
	historyListCmd.Flags().String("product", "", "filter by exact product name")
	historyListCmd.Flags().Int("limit", 50, "max number of evaluations to display")
	historyListCmd.Flags().Int("offset", 0, "number of evaluations to skip")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyStatsCmd)
	rootCmd.AddCommand(historyCmd)
}

// evaluationStats holds aggregate statistics computed from stored evaluations.
type evaluationStats struct {
	Total          int
	Buy            int
	Skip           int
	TossUp         int
	TotalWarranty  float64
	TotalExpected  float64
	SkippedPremium float64
}

func computeEvaluationStats(evals []model.Evaluation) evaluationStats {
	var s evaluationStats
	s.Total = len(evals)

	for _, e := range evals {
		s.TotalWarranty += e.Inputs.WarrantyCost
		s.TotalExpected += e.Assessment.ExpectedLoss
		switch e.Assessment.Verdict {
		case model.VerdictBuy:
			s.Buy++
		case model.VerdictTossUp:
			s.TossUp++
		default:
			s.Skip++
			s.SkippedPremium += e.Inputs.WarrantyCost
		}
	}
	return s
}

// formatEvaluationsList writes a tabular list of evaluations to w.
func formatEvaluationsList(out io.Writer, evals []model.Evaluation) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPRODUCT\tCOST\tWARRANTY\tPROB\tEXP_LOSS\tVERDICT\tCREATED")

	for _, e := range evals {
		_, _ = fmt.Fprintf(w, "%s\t%s\t$%.2f\t$%.2f\t%d%%\t$%.2f\t%s\t%s\n",
			shortID(e.ID),
			truncate(e.Inputs.Name, 32),
			e.Inputs.Cost,
			e.Inputs.WarrantyCost,
			e.Probability,
			e.Assessment.ExpectedLoss,
			e.Assessment.Verdict,
			e.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// formatEvaluationStats writes aggregate statistics to w.
func formatEvaluationStats(out io.Writer, s evaluationStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total evaluations:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Buy:\t%d\n", s.Buy)
	_, _ = fmt.Fprintf(w, "Skip:\t%d\n", s.Skip)
	_, _ = fmt.Fprintf(w, "Toss-up:\t%d\n", s.TossUp)
	_, _ = fmt.Fprintf(w, "Warranty premiums quoted:\t$%.2f\n", s.TotalWarranty)
	_, _ = fmt.Fprintf(w, "Expected losses:\t$%.2f\n", s.TotalExpected)
	_, _ = fmt.Fprintf(w, "Premiums avoided by skipping:\t$%.2f\n", s.SkippedPremium)
	_ = w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
