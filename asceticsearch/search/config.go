package search

import (
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/config"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/customquery"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/diagnostics"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/logger"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/model"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/rewriter"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/session"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/tokenrow"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/tunable"
)

// NewSearcherFromConfig wires a searcher with the tunable store, the custom
// query cache and the event log diagnostics over one pool. opts are applied
// after the configured components.
func NewSearcherFromConfig(pool session.SessionPool, m model.Model, cfg config.SearchConfig, l logger.Logger, opts ...Option) (*Searcher, error) {
	if l == nil {
		l = logger.NewNoopLogger()
	}
	store, err := tunable.NewStore(pool, tunable.WithLogger(l))
	if err != nil {
		return nil, err
	}
	queries := customquery.NewCache(pool,
		customquery.WithWaitTime(cfg.CustomQueryWaitTime),
		customquery.WithLogger(l))
	diag := diagnostics.NewLogger(store, diagnostics.NewSQLSink(pool), l,
		diagnostics.WithTimeout(cfg.DiagnosticsTimeout))
	schemaVersion := cfg.SchemaVersion

	configured := []Option{
		WithLogger(l),
		WithTunables(store),
		WithCustomQueries(queries),
		WithDiagnostics(diag),
		WithDefaults(cfg.DefaultMaxItemCount, cfg.DefaultIncludeCount),
		WithCommandTimeout(cfg.CommandTimeout),
		WithTokenRows(tokenrow.Generator{
			CodeMaxLength:       cfg.CodeMaxLength,
			TruncatedCodeLength: cfg.TruncatedCodeLength,
		}),
		WithSchemaVersion(rewriter.SchemaVersionFunc(func() int { return schemaVersion })),
	}
	s, err := NewSearcher(pool, m, append(configured, opts...)...)
	if err != nil {
		store.Close()
		return nil, err
	}
	s.ownedTunables = store
	return s, nil
}
