package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/warranty-cli/internal/model"
)

var (
	batchCSV         string
	batchLimit       int
	batchConcurrency int
	batchOutput      string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Evaluate warranty offers for products listed in a CSV",
	Long: `Reads products from a CSV with columns name, cost, warranty_cost and
optional warranty_years and probability, evaluates each offer, and writes the
evaluations as JSON.

Rows without a probability column are estimated via the configured model,
throttled by estimator.rate_per_min.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		products, err := parseProductsCSV(batchCSV)
		if err != nil {
			return err
		}
		zap.L().Info("parsed csv", zap.Int("products", len(products)))

		if batchLimit > 0 && len(products) > batchLimit {
			products = products[:batchLimit]
		}

		env, err := initEnv(ctx, true)
		if err != nil {
			return err
		}
		defer env.Close()

		limiter := newEstimateLimiter(cfg.Estimator.RatePerMin)

		evals, err := processBatch(ctx, products, batchConcurrency, func(ctx context.Context, item batchItem) (model.Evaluation, error) {
			if item.Probability != nil {
				return env.Advisor.Evaluate(ctx, item.Inputs, *item.Probability, nil, model.EstimateSourceManual), nil
			}
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return model.Evaluation{}, eris.Wrap(err, "batch: rate limit wait")
				}
			}
			return env.Advisor.EstimateAndEvaluate(ctx, item.Inputs)
		})
		if err != nil {
			return err
		}

		return writeEvaluations(evals, batchOutput)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchCSV, "csv", "", "path to the products CSV (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of rows to process (0 = all)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "number of concurrent evaluations")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write results to this file instead of stdout")
	_ = batchCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(batchCmd)
}

// batchItem is one CSV row: the product inputs plus an optional fixed
// probability that skips the estimator.
type batchItem struct {
	Inputs      model.ProductInputs
	Probability *int
}

// parseProductsCSV reads the batch input CSV. Header names are matched
// case-insensitively; rows with an empty name are skipped.
func parseProductsCSV(csvPath string) ([]batchItem, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, eris.Wrap(err, "batch: open csv")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "batch: read csv")
	}
	if len(records) < 2 {
		return nil, eris.New("batch: csv has no data rows")
	}

	header := records[0]
	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[strings.ToLower(strings.TrimSpace(col))] = i
	}

	for _, col := range []string{"name", "cost", "warranty_cost"} {
		if _, ok := colIdx[col]; !ok {
			return nil, eris.Errorf("batch: missing required column %q", col)
		}
	}

	var items []batchItem
	for _, row := range records[1:] {
		name := getCol(row, colIdx, "name")
		if name == "" {
			continue
		}

		item := batchItem{
			Inputs: model.ProductInputs{
				Name:         name,
				Cost:         parseFloatCol(row, colIdx, "cost"),
				WarrantyCost: parseFloatCol(row, colIdx, "warranty_cost"),
			},
		}
		if years := getCol(row, colIdx, "warranty_years"); years != "" {
			if n, err := strconv.Atoi(years); err == nil {
				item.Inputs.WarrantyYears = n
			}
		}
		if prob := getCol(row, colIdx, "probability"); prob != "" {
			if n, err := strconv.Atoi(prob); err == nil {
				item.Probability = &n
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func getCol(row []string, colIdx map[string]int, name string) string {
	idx, ok := colIdx[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseFloatCol(row []string, colIdx map[string]int, name string) float64 {
	v, err := strconv.ParseFloat(getCol(row, colIdx, name), 64)
	if err != nil {
		return 0
	}
	return v
}

// newEstimateLimiter returns a limiter for outbound estimation calls, or nil
// when limiting is disabled.
func newEstimateLimiter(perMin int) *rate.Limiter {
	if perMin <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(float64(perMin)/60.0), perMin)
}

// evaluateFunc is the callback signature for evaluating one batch item.
type evaluateFunc func(ctx context.Context, item batchItem) (model.Evaluation, error)

// processBatch evaluates items concurrently. Individual failures are logged
// and skipped rather than aborting the batch.
func processBatch(ctx context.Context, items []batchItem, concurrency int, evaluate evaluateFunc) ([]model.Evaluation, error) {
	if len(items) == 0 {
		zap.L().Info("no products to evaluate")
		return nil, nil
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("products", len(items)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	var evals []model.Evaluation
	var succeeded, failed atomic.Int64

	for _, item := range items {
		g.Go(func() error {
			log := zap.L().With(zap.String("product", item.Inputs.Name))

			eval, err := evaluate(gctx, item)
			if err != nil {
				failed.Add(1)
				log.Error("evaluation failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			log.Info("evaluation complete", zap.String("verdict", string(eval.Assessment.Verdict)))

			mu.Lock()
			evals = append(evals, eval)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return evals, nil
}

// writeEvaluations writes evaluations as indented JSON to a file or stdout.
func writeEvaluations(evals []model.Evaluation, output string) error {
	out := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return eris.Wrap(err, "batch: create output file")
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(evals), "batch: write results")
}
