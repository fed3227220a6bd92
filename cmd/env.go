package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/warranty-cli/internal/advisor"
	"github.com/sells-group/warranty-cli/internal/risk"
	"github.com/sells-group/warranty-cli/internal/store"
	"github.com/sells-group/warranty-cli/pkg/anthropic"
)

// appEnv bundles the wired components a command needs.
type appEnv struct {
	Advisor *advisor.Advisor
	Store   store.Store // nil when history is disabled
}

// Close releases held resources.
func (e *appEnv) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

// newEstimator builds the risk estimator from config. With no API key
// configured the generator stays nil and the estimator reports no result,
// which callers handle with the simulated default.
func newEstimator() *risk.Estimator {
	var gen risk.TextGenerator
	if cfg.Anthropic.Key != "" {
		client := anthropic.NewClient(cfg.Anthropic.Key)
		gen = risk.NewClaudeGenerator(client, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
	} else {
		zap.L().Debug("no anthropic key configured, estimates will be simulated")
	}
	return risk.NewEstimator(gen)
}

// initEnv wires the advisor, optionally with the history store.
func initEnv(ctx context.Context, withStore bool) (*appEnv, error) {
	var st store.Store
	if withStore {
		s, err := openStore(ctx)
		if err != nil {
			return nil, err
		}
		st = s
	}
	return &appEnv{
		Advisor: advisor.New(newEstimator(), st),
		Store:   st,
	}, nil
}

// openStore opens and migrates the configured history backend.
func openStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.Path)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
