package sqldb

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/logger"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/session"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/signals"
)

type SessionPool struct {
	db               *sql.DB
	dbStatsCollector prometheus.Collector
	registerer       prometheus.Registerer
	onSessionStarted signals.Signal[session.SessionScopeStartedEvent]
	onSessionEnded   signals.Signal[session.SessionScopeEndedEvent]
	onQueryEnded     signals.Signal[session.QueryEndedEvent]
}

func NewSessionPool(db *sql.DB) *SessionPool {
	return &SessionPool{
		db:               db,
		onSessionStarted: signals.NewSignal[session.SessionScopeStartedEvent](),
		onSessionEnded:   signals.NewSignal[session.SessionScopeEndedEvent](),
		onQueryEnded:     signals.NewSignal[session.QueryEndedEvent](),
	}
}

func (p *SessionPool) DB() *sql.DB {
	return p.db
}

func (p *SessionPool) OnSessionStarted() signals.Signal[session.SessionScopeStartedEvent] {
	return p.onSessionStarted
}

func (p *SessionPool) OnSessionEnded() signals.Signal[session.SessionScopeEndedEvent] {
	return p.onSessionEnded
}

// OnQueryEnded fires after every statement run through a session of the pool.
func (p *SessionPool) OnQueryEnded() signals.Signal[session.QueryEndedEvent] {
	return p.onQueryEnded
}

func (p *SessionPool) Session(ctx context.Context, callback session.SessionPoolCallback) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sess := NewSession(ctx, p.db)
	sess.onQueryEnded = p.onQueryEnded

	if err := p.onSessionStarted.Notify(session.SessionScopeStartedEvent{Session: sess}); err != nil {
		return err
	}

	err := callback(sess)

	if endedErr := p.onSessionEnded.Notify(session.SessionScopeEndedEvent{Session: sess}); err == nil {
		err = endedErr
	}

	return err
}

// Close unregisters the stats collector and closes the database.
func (p *SessionPool) Close() error {
	if p.dbStatsCollector != nil && p.registerer != nil {
		p.registerer.Unregister(p.dbStatsCollector)
	}
	return p.db.Close()
}

type Config struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
	// Registerer receives the connection pool collector; nil disables it.
	Registerer prometheus.Registerer
	Logger     logger.Logger
}

// OpenMssql opens a SQL Server pool and waits until the server answers a ping.
func OpenMssql(uri string, cfg Config) (*SessionPool, error) {
	db, err := sql.Open("sqlserver", uri)
	if err != nil {
		return nil, errors.Wrap(err, "open mssql connection")
	}
	pool, err := NewSessionPoolWithDB(db, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return pool, nil
}

func NewSessionPoolWithDB(db *sql.DB, cfg Config) (*SessionPool, error) {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoopLogger()
	}
	if cfg.MaxOpenConns != 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns != 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime != 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime != 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = time.Minute
	if cfg.PingTimeout != 0 {
		policy.MaxElapsedTime = cfg.PingTimeout
	}
	attempt := 1
	err := backoff.Retry(func() error {
		err := db.PingContext(context.Background())
		if err != nil {
			cfg.Logger.Info("waiting for database", zap.Int("attempt", attempt))
			attempt++
			return err
		}
		return nil
	}, policy)
	if err != nil {
		return nil, errors.Wrap(err, "ping database")
	}

	pool := NewSessionPool(db)
	if cfg.Registerer != nil {
		collector := collectors.NewDBStatsCollector(db, "asceticsearch")
		if err := cfg.Registerer.Register(collector); err != nil {
			return nil, errors.Wrap(err, "initialize metrics")
		}
		pool.dbStatsCollector = collector
		pool.registerer = cfg.Registerer
	}
	return pool, nil
}
