package diagnostics

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/session"
)

const DefaultEventLogTable = "dbo.EventLog"

// Entry is one row of the event log.
type Entry struct {
	ID            string
	Process       string
	Status        string
	Milliseconds  int64
	CorrelationID string
	Text          string
	Date          time.Time
}

type Sink interface {
	Write(context.Context, Entry) error
}

type SinkFunc func(context.Context, Entry) error

func (f SinkFunc) Write(ctx context.Context, e Entry) error {
	return f(ctx, e)
}

type SQLSinkOption func(*SQLSink)

func WithTable(table string) SQLSinkOption {
	return func(s *SQLSink) {
		s.table = table
	}
}

func WithPlaceholderFormat(format sq.PlaceholderFormat) SQLSinkOption {
	return func(s *SQLSink) {
		s.placeholder = format
	}
}

// SQLSink appends entries to the EventLog table.
type SQLSink struct {
	pool        session.SessionPool
	table       string
	placeholder sq.PlaceholderFormat
}

func NewSQLSink(pool session.SessionPool, opts ...SQLSinkOption) *SQLSink {
	s := &SQLSink{
		pool:        pool,
		table:       DefaultEventLogTable,
		placeholder: sq.AtP,
	}
	for i := range opts {
		opts[i](s)
	}
	return s
}

func (s *SQLSink) Write(ctx context.Context, e Entry) error {
	query, args, err := sq.Insert(s.table).
		Columns("Id", "Process", "Status", "Milliseconds", "CorrelationId", "EventText", "EventDate").
		Values(e.ID, e.Process, e.Status, e.Milliseconds, e.CorrelationID, e.Text, e.Date.UTC()).
		PlaceholderFormat(s.placeholder).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "unable to build event log insert")
	}
	return s.pool.Session(ctx, func(sess session.Session) error {
		conn, err := session.Connection(sess)
		if err != nil {
			return err
		}
		_, err = conn.Exec(query, args...)
		return errors.Wrap(err, "unable to write event log entry")
	})
}
