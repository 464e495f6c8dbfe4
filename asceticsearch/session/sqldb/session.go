package sqldb

import (
	"context"
	"database/sql"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/session"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/signals"
)

// Session is a database/sql session bound to the context of the pool call.
type Session struct {
	ctx          context.Context
	db           *sql.DB
	exec         executor
	onQueryEnded signals.Signal[session.QueryEndedEvent]
}

func NewSession(ctx context.Context, db *sql.DB) *Session {
	return &Session{
		ctx:  ctx,
		db:   db,
		exec: db,
	}
}

func (s *Session) Context() context.Context {
	return s.ctx
}

func (s *Session) Connection() session.DbConnection {
	return &connection{session: s}
}

func (s *Session) Atomic(callback session.SessionCallback) error {
	// TODO: savepoints, see https://github.com/golang/go/issues/7898
	if s.db == nil {
		return errors.New("savePoint is not currently supported")
	}
	tx, err := s.db.BeginTx(s.ctx, nil)
	if err != nil {
		return errors.Wrap(err, "unable to start transaction")
	}
	atomicSession := &Session{
		ctx:          s.ctx,
		exec:         tx,
		onQueryEnded: s.onQueryEnded,
	}
	err = callback(atomicSession)
	if err != nil {
		if txErr := tx.Rollback(); txErr != nil {
			return multierror.Append(err, txErr)
		}
		return err
	}
	if txErr := tx.Commit(); txErr != nil {
		return errors.Wrap(txErr, "failed to commit tx")
	}
	return nil
}

// executor is implemented by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type connection struct {
	session *Session
}

func (c *connection) Exec(query string, args ...any) (session.Result, error) {
	start := time.Now()
	res, err := c.session.exec.ExecContext(c.session.ctx, query, args...)
	if notifyErr := c.queryEnded(query, args, start, err); err == nil {
		err = notifyErr
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *connection) Query(query string, args ...any) (session.Rows, error) {
	start := time.Now()
	rows, err := c.session.exec.QueryContext(c.session.ctx, query, args...)
	if notifyErr := c.queryEnded(query, args, start, err); err == nil && notifyErr != nil {
		_ = rows.Close()
		err = notifyErr
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// QueryRow notifies before the row is scanned; only the query error is reported.
func (c *connection) QueryRow(query string, args ...any) session.Row {
	start := time.Now()
	row := c.session.exec.QueryRowContext(c.session.ctx, query, args...)
	_ = c.queryEnded(query, args, start, row.Err())
	return row
}

func (c *connection) queryEnded(query string, args []any, start time.Time, err error) error {
	if c.session.onQueryEnded == nil {
		return nil
	}
	return c.session.onQueryEnded.Notify(session.QueryEndedEvent{
		Query:        query,
		Params:       args,
		Sender:       c,
		Session:      c.session,
		ResponseTime: time.Since(start),
		Err:          err,
	})
}
