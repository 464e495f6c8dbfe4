package diagnostics

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/logger"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/sqlgen"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/sqlparams"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/tunable"
)

const (
	ProcessName    = "Search"
	DefaultTimeout = 30 * time.Second
)

// Event describes one executed search query.
type Event struct {
	Text          string
	Params        *sqlparams.Manager
	Procedure     string
	Duration      time.Duration
	CorrelationID string
}

type Option func(*Logger)

func WithTimeout(d time.Duration) Option {
	return func(l *Logger) {
		l.timeout = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		l.now = now
	}
}

// Logger records slow queries in the background. Callers never wait for it
// and never see its failures.
type Logger struct {
	tunables *tunable.Store
	sink     Sink
	logger   logger.Logger
	timeout  time.Duration
	now      func() time.Time
	wg       conc.WaitGroup
}

func NewLogger(tunables *tunable.Store, sink Sink, l logger.Logger, opts ...Option) *Logger {
	if l == nil {
		l = logger.NewNoopLogger()
	}
	d := &Logger{
		tunables: tunables,
		sink:     sink,
		logger:   l,
		timeout:  DefaultTimeout,
		now:      time.Now,
	}
	for i := range opts {
		opts[i](d)
	}
	return d
}

// Observe hands the event to a background goroutine and returns at once.
// The goroutine outlives ctx cancellation but is bounded by its own timeout.
func (l *Logger) Observe(ctx context.Context, event Event) {
	bg := context.WithoutCancel(ctx)
	l.wg.Go(func() {
		recovered := panics.Try(func() {
			ctx, cancel := context.WithTimeout(bg, l.timeout)
			defer cancel()
			l.observe(ctx, event)
		})
		if recovered != nil {
			l.logger.ErrorWithContext(bg, "panic recovered",
				zap.Any("error", recovered.Value),
				zap.String("function", "diagnostics.Logger.Observe"))
		}
	})
}

// Wait blocks until every pending Observe has finished.
func (l *Logger) Wait() {
	l.wg.Wait()
}

func (l *Logger) observe(ctx context.Context, event Event) {
	if !l.tunables.WellKnown(tunable.LongRunningQueryEnabled).IsEnabled(ctx) {
		return
	}
	threshold := l.tunables.WellKnown(tunable.LongRunningQueryThreshold).Value(ctx)
	ms := event.Duration.Milliseconds()
	if float64(ms) < threshold {
		return
	}

	text := sqlgen.StripForLogging(event.Text)
	if event.Params != nil {
		text = sqlgen.FormatForLogging(text, event.Params)
	}
	l.logger.WarnWithContext(ctx, "long running search query",
		zap.Int64("milliseconds", ms),
		zap.String("procedure", event.Procedure),
		zap.String("query", text))

	if l.sink == nil {
		return
	}
	entry := Entry{
		ID:            ulid.Make().String(),
		Process:       ProcessName,
		Status:        "Warn",
		Milliseconds:  ms,
		CorrelationID: event.CorrelationID,
		Text:          text,
		Date:          l.now(),
	}
	if err := l.sink.Write(ctx, entry); err != nil {
		l.logger.WarnWithContext(ctx, "event log write failed", zap.Error(err))
	}
}
