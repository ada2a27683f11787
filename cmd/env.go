package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/icp-engine/internal/icp"
	"github.com/sells-group/icp-engine/internal/llm"
	"github.com/sells-group/icp-engine/internal/memo"
	"github.com/sells-group/icp-engine/internal/qualify"
	"github.com/sells-group/icp-engine/internal/scraper"
	"github.com/sells-group/icp-engine/internal/store"
	anthropicpkg "github.com/sells-group/icp-engine/pkg/anthropic"
)

// pipelineEnv holds the initialized store and pipeline components used by
// the serve/analyze/qualify commands.
type pipelineEnv struct {
	Store     store.Store
	Cache     *memo.Cache
	Scraper   *scraper.Scraper
	Generator *icp.Generator
	Qualifier *qualify.Qualifier
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "icp.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEnv sets up the store, runs migrations, and builds the scraper,
// generator, and qualifier. Callers should defer env.Close().
func initEnv(ctx context.Context) (*pipelineEnv, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (ICP_ANTHROPIC_KEY)")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	completer := llm.New(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic)
	cache := memo.New(cfg.Cache.TTL())

	return &pipelineEnv{
		Store:     st,
		Cache:     cache,
		Scraper:   scraper.New(cache, completer, cfg.Scraper),
		Generator: icp.NewGenerator(completer),
		Qualifier: qualify.NewQualifier(completer),
	}, nil
}
