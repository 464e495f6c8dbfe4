package tunable

import (
	"context"
	"sync/atomic"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/session"
)

const (
	LongRunningQueryThreshold = "Search.LongRunningQueryDetails.Threshold"
	LongRunningQueryEnabled   = "Search.LongRunningQueryDetails.IsEnabled"
	ReuseQueryPlansEnabled    = "Search.ReuseQueryPlans.IsEnabled"
	CustomQueriesEnabled      = "Search.CustomQueries.IsEnabled"
)

// Defaults of the well-known parameters.
var Defaults = map[string]float64{
	LongRunningQueryThreshold: 5000,
	LongRunningQueryEnabled:   1,
	ReuseQueryPlansEnabled:    0,
	CustomQueriesEnabled:      1,
}

var ErrNoDatabase = errors.New("no database configured")

// Parameter is a number read from dbo.Parameters once and kept until Reset.
// A failed read caches the default.
type Parameter struct {
	name         string
	defaultValue float64
	store        *Store
	failed       atomic.Bool
}

func (p *Parameter) Name() string {
	return p.name
}

func (p *Parameter) Default() float64 {
	return p.defaultValue
}

func (p *Parameter) Value(ctx context.Context) float64 {
	if v, ok := p.store.cache.Get(p.name); ok {
		return v
	}
	v, err := p.fetch(ctx)
	if err != nil {
		p.store.logger.WarnWithContext(ctx, "tunable parameter read failed, using default",
			zap.String("name", p.name), zap.Float64("default", p.defaultValue), zap.Error(err))
		p.failed.Store(true)
		v = p.defaultValue
	} else {
		p.failed.Store(false)
	}
	p.store.cache.Set(p.name, v, 1)
	return v
}

func (p *Parameter) IsEnabled(ctx context.Context) bool {
	return p.Value(ctx) == 1
}

// Reset drops the cached value; the next read goes to the database again.
func (p *Parameter) Reset() {
	p.store.cache.Delete(p.name)
}

func (p *Parameter) LastFetchFailed() bool {
	return p.failed.Load()
}

func (p *Parameter) fetch(ctx context.Context) (float64, error) {
	if p.store.pool == nil {
		return 0, ErrNoDatabase
	}
	query, args, err := sq.Select("Number").
		From(p.store.table).
		Where(sq.Eq{"Id": p.name}).
		PlaceholderFormat(p.store.placeholder).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "unable to build parameter query")
	}
	var value float64
	err = p.store.pool.Session(ctx, func(s session.Session) error {
		conn, err := session.Connection(s)
		if err != nil {
			return err
		}
		return conn.QueryRow(query, args...).Scan(&value)
	})
	if err != nil {
		return 0, errors.Wrapf(err, "unable to read parameter %s", p.name)
	}
	return value, nil
}
