package search

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/customquery"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/diagnostics"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/logger"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/model"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/option"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/rewriter"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/searchopts"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/session"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/signals"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/simplifier"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/sqlgen"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/tokenrow"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/tunable"
)

type Option func(*Searcher)

func WithLogger(l logger.Logger) Option {
	return func(s *Searcher) {
		s.logger = l
	}
}

func WithTunables(store *tunable.Store) Option {
	return func(s *Searcher) {
		s.tunables = store
	}
}

func WithCustomQueries(cache *customquery.Cache) Option {
	return func(s *Searcher) {
		s.customQueries = cache
	}
}

func WithDiagnostics(d *diagnostics.Logger) Option {
	return func(s *Searcher) {
		s.diagnostics = d
	}
}

func WithParameterDefinitionResolver(resolver rewriter.ParameterDefinitionResolver) Option {
	return func(s *Searcher) {
		s.pipelineOpts = append(s.pipelineOpts, rewriter.WithParameterDefinitionResolver(resolver))
	}
}

func WithSchemaVersion(provider rewriter.SchemaVersionProvider) Option {
	return func(s *Searcher) {
		s.pipelineOpts = append(s.pipelineOpts, rewriter.WithSchemaVersion(provider))
	}
}

func WithTokenRows(g tokenrow.Generator) Option {
	return func(s *Searcher) {
		s.tokenRows = &g
	}
}

// WithDefaults replaces the page sizes used when a request leaves them unset.
func WithDefaults(maxItemCount, includeCount int) Option {
	return func(s *Searcher) {
		s.defaultMaxItemCount = maxItemCount
		s.defaultIncludeCount = includeCount
	}
}

// WithCommandTimeout sets the execution timeout reported for requests that
// carry none.
func WithCommandTimeout(d time.Duration) Option {
	return func(s *Searcher) {
		s.commandTimeout = d
	}
}

func WithCorrelationIDs(next func() string) Option {
	return func(s *Searcher) {
		s.newID = next
	}
}

// Searcher compiles search options into T-SQL, runs it and pages the result.
type Searcher struct {
	pool          session.SessionPool
	model         model.Model
	pipeline      *rewriter.Pipeline
	pipelineOpts  []rewriter.PipelineOption
	generator     *sqlgen.Generator
	tokenRows     *tokenrow.Generator
	simplifier    *simplifier.Simplifier
	tunables      *tunable.Store
	customQueries *customquery.Cache
	diagnostics   *diagnostics.Logger
	onQueryEnded  *signals.SignalImp[QueryEndedEvent]
	logger        logger.Logger
	newID         func() string

	defaultMaxItemCount int
	defaultIncludeCount int
	commandTimeout      time.Duration
	ownedTunables       *tunable.Store
}

func NewSearcher(pool session.SessionPool, m model.Model, opts ...Option) (*Searcher, error) {
	s := &Searcher{
		pool:                pool,
		model:               m,
		onQueryEnded:        signals.NewSignal[QueryEndedEvent](),
		logger:              logger.NewNoopLogger(),
		newID:               uuid.NewString,
		defaultMaxItemCount: searchopts.DefaultMaxItemCount,
		defaultIncludeCount: searchopts.DefaultIncludeCount,
	}
	for i := range opts {
		opts[i](s)
	}
	if s.tunables == nil {
		store, err := tunable.NewStore(pool, tunable.WithLogger(s.logger))
		if err != nil {
			return nil, err
		}
		s.tunables = store
		s.ownedTunables = store
	}
	s.pipeline = rewriter.NewPipeline(m, append(s.pipelineOpts, rewriter.WithLogger(s.logger))...)
	generatorOpts := []sqlgen.GeneratorOption{sqlgen.WithLogger(s.logger)}
	if s.tokenRows != nil {
		generatorOpts = append(generatorOpts, sqlgen.WithTokenRows(*s.tokenRows))
	}
	s.generator = sqlgen.NewGenerator(m, generatorOpts...)
	s.simplifier = simplifier.NewSimplifier(s.logger)
	return s, nil
}

// Close drains pending diagnostics and releases the tunable cache when the
// searcher created it.
func (s *Searcher) Close() {
	if s.diagnostics != nil {
		s.diagnostics.Wait()
	}
	if s.ownedTunables != nil {
		s.ownedTunables.Close()
	}
}

// OnQueryEnded fires after every executed query, successful or not.
func (s *Searcher) OnQueryEnded() signals.Signal[QueryEndedEvent] {
	return s.onQueryEnded
}

func (s *Searcher) Search(ctx context.Context, opts searchopts.Options) (*Result, error) {
	id := s.newID()
	ctx = logger.ContextWithCorrelationID(ctx, id)
	opts = s.withDefaults(ctx, opts)

	var (
		result *Result
		err    error
	)
	switch {
	case opts.CountOnly:
		result, err = s.count(ctx, opts)
	case opts.IncludesContinuationToken != nil:
		result, err = s.searchIncludes(ctx, opts)
	default:
		result, err = s.searchMatches(ctx, opts)
	}
	if err != nil {
		queryErrorCounter.WithLabelValues(mode(opts)).Inc()
		s.logger.DebugWithContext(ctx, "search failed", zap.Error(err))
		return nil, err
	}
	result.CorrelationID = id
	return result, nil
}

func (s *Searcher) withDefaults(ctx context.Context, opts searchopts.Options) searchopts.Options {
	if opts.MaxItemCount <= 0 {
		opts.MaxItemCount = s.defaultMaxItemCount
	}
	if opts.IncludeCount <= 0 {
		opts.IncludeCount = s.defaultIncludeCount
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = s.commandTimeout
	}
	opts = opts.WithDefaults()
	if !opts.ReuseQueryPlans && s.tunables.WellKnown(tunable.ReuseQueryPlansEnabled).IsEnabled(ctx) {
		opts.ReuseQueryPlans = true
	}
	// A continuation without a sort value under a value sort resumes the
	// rows that lack the value.
	if opts.HasValueSort() && opts.ContinuationToken != nil && opts.ContinuationToken.SortValue.IsNothing() {
		opts.SortQuerySecondPhase = true
	}
	return opts
}

func (s *Searcher) count(ctx context.Context, opts searchopts.Options) (*Result, error) {
	q, err := s.compile(ctx, opts)
	if err != nil {
		return nil, err
	}
	total, err := s.executeCount(ctx, q)
	if err != nil {
		return nil, err
	}
	return &Result{TotalCount: option.Some(total)}, nil
}

func mode(opts searchopts.Options) string {
	switch {
	case opts.CountOnly:
		return "count"
	case opts.IncludesContinuationToken != nil:
		return "includes"
	default:
		return "match"
	}
}

var ErrNoDatabase = errors.New("no database configured")
