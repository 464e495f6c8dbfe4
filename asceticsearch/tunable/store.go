package tunable

import (
	"github.com/Masterminds/squirrel"
	"github.com/Yiling-J/theine-go"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/logger"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/session"
)

const DefaultTable = "dbo.Parameters"

type StoreOption func(*Store)

// WithPlaceholderFormat sets the bind style of the parameter query;
// SQL Server takes squirrel.AtP, sqlite squirrel.Question.
func WithPlaceholderFormat(format squirrel.PlaceholderFormat) StoreOption {
	return func(s *Store) {
		s.placeholder = format
	}
}

func WithTable(table string) StoreOption {
	return func(s *Store) {
		s.table = table
	}
}

func WithLogger(l logger.Logger) StoreOption {
	return func(s *Store) {
		s.logger = l
	}
}

// Store hands out one Parameter per name and caches their values.
type Store struct {
	pool        session.SessionPool
	cache       *theine.Cache[string, float64]
	registry    *xsync.MapOf[string, *Parameter]
	placeholder squirrel.PlaceholderFormat
	table       string
	logger      logger.Logger
}

// NewStore builds a store reading through pool, which may be nil when no
// database is available.
func NewStore(pool session.SessionPool, opts ...StoreOption) (*Store, error) {
	cache, err := theine.NewBuilder[string, float64](1024).Build()
	if err != nil {
		return nil, errors.Wrap(err, "unable to build tunable cache")
	}
	s := &Store{
		pool:        pool,
		cache:       cache,
		registry:    xsync.NewMapOf[string, *Parameter](),
		placeholder: squirrel.AtP,
		table:       DefaultTable,
		logger:      logger.NewNoopLogger(),
	}
	for i := range opts {
		opts[i](s)
	}
	return s, nil
}

// Parameter returns the parameter registered under name, creating it with
// defaultValue on first use. Later defaults for the same name are ignored.
func (s *Store) Parameter(name string, defaultValue float64) *Parameter {
	p, _ := s.registry.LoadOrCompute(name, func() *Parameter {
		return &Parameter{name: name, defaultValue: defaultValue, store: s}
	})
	return p
}

// WellKnown returns a parameter with its built-in default.
func (s *Store) WellKnown(name string) *Parameter {
	return s.Parameter(name, Defaults[name])
}

// ResetAll drops every cached value.
func (s *Store) ResetAll() {
	s.registry.Range(func(_ string, p *Parameter) bool {
		p.Reset()
		return true
	})
}

func (s *Store) Close() {
	s.cache.Close()
}
