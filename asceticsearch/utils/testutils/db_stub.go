package testutils

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/session"
)

func NewDbSessionStub(rows ...*RowsStub) *DbSessionStub {
	stub := &DbSessionStub{}
	if len(rows) > 0 {
		stub.Rows = rows[0]
		stub.queue = rows[1:]
	}
	stub.conn = &connectionStub{session: stub}
	return stub
}

// DbSessionStub records every statement. Queries return Rows first and then
// the queued results in order; an exhausted queue yields empty rows.
type DbSessionStub struct {
	mu           sync.Mutex
	Rows         *RowsStub
	queue        []*RowsStub
	served       bool
	QueryErr     error
	ExecErr      error
	ActualQuery  string
	ActualParams []any
	Queries      []string
	Params       [][]any
	conn         *connectionStub
}

func (s *DbSessionStub) Context() context.Context {
	return context.Background()
}

func (s *DbSessionStub) Atomic(callback session.SessionCallback) error {
	return callback(s)
}

func (s *DbSessionStub) Connection() session.DbConnection {
	return s.conn
}

func (s *DbSessionStub) record(query string, args []any) {
	s.ActualQuery = query
	s.ActualParams = args
	s.Queries = append(s.Queries, query)
	s.Params = append(s.Params, args)
}

func (s *DbSessionStub) next() *RowsStub {
	if !s.served {
		s.served = true
		if s.Rows != nil {
			return s.Rows
		}
	}
	if len(s.queue) == 0 {
		return NewRowsStub()
	}
	r := s.queue[0]
	s.queue = s.queue[1:]
	return r
}

type connectionStub struct {
	session *DbSessionStub
}

func (c *connectionStub) Exec(query string, args ...any) (session.Result, error) {
	c.session.mu.Lock()
	defer c.session.mu.Unlock()
	c.session.record(query, args)
	if c.session.ExecErr != nil {
		return nil, c.session.ExecErr
	}
	return resultStub{rowsAffected: 1}, nil
}

func (c *connectionStub) Query(query string, args ...any) (session.Rows, error) {
	c.session.mu.Lock()
	defer c.session.mu.Unlock()
	c.session.record(query, args)
	if c.session.QueryErr != nil {
		return nil, c.session.QueryErr
	}
	return c.session.next(), nil
}

func (c *connectionStub) QueryRow(query string, args ...any) session.Row {
	c.session.mu.Lock()
	defer c.session.mu.Unlock()
	c.session.record(query, args)
	if c.session.QueryErr != nil {
		return &RowStub{err: c.session.QueryErr}
	}
	return &RowStub{rows: c.session.next()}
}

type resultStub struct {
	rowsAffected int64
}

func (r resultStub) LastInsertId() (int64, error) {
	return 0, nil
}

func (r resultStub) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}

// SessionPoolStub hands the same stub session to every callback.
type SessionPoolStub struct {
	mu    sync.Mutex
	Stub  *DbSessionStub
	Err   error
	Calls int
}

func NewSessionPoolStub(s *DbSessionStub) *SessionPoolStub {
	return &SessionPoolStub{Stub: s}
}

func (p *SessionPoolStub) Session(ctx context.Context, callback session.SessionPoolCallback) error {
	p.mu.Lock()
	p.Calls++
	err := p.Err
	p.mu.Unlock()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return callback(p.Stub)
}

func (p *SessionPoolStub) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Calls
}

func NewRowsStub(rows ...[]any) *RowsStub {
	return &RowsStub{
		rows:   rows,
		idx:    -1,
		FailAt: -1,
	}
}

// RowsStub replays fixed rows. Setting ScanErr with FailAt makes the scan of
// that row index fail.
type RowsStub struct {
	rows    [][]any
	idx     int
	Closed  bool
	ScanErr error
	FailAt  int
	IterErr error
}

func (r *RowsStub) Close() error {
	r.Closed = true
	return nil
}

func (r *RowsStub) Err() error {
	return r.IterErr
}

func (r *RowsStub) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *RowsStub) Scan(dest ...any) error {
	if r.idx < 0 || r.idx >= len(r.rows) {
		return errors.New("no current row")
	}
	if r.ScanErr != nil && r.idx == r.FailAt {
		return r.ScanErr
	}

	row := r.rows[r.idx]
	for i, val := range row {
		if i >= len(dest) {
			break
		}

		switch d := dest[i].(type) {
		case *int:
			*d = int(toInt64(val))
		case *int64:
			*d = toInt64(val)
		case *int32:
			*d = int32(toInt64(val))
		case *int16:
			*d = int16(toInt64(val))
		case *string:
			*d = val.(string)
		case *bool:
			*d = val.(bool)
		case *[]byte:
			*d = val.([]byte)
		case *float64:
			*d = toFloat64(val)
		case *any:
			*d = val
		case sql.Scanner:
			if err := d.Scan(val); err != nil {
				return err
			}
		default:
			return errors.New("unsupported scan type")
		}
	}
	return nil
}

func toInt64(val any) int64 {
	switch v := val.(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case int32:
		return int64(v)
	case int16:
		return int64(v)
	default:
		panic("cannot convert to int64")
	}
}

func toFloat64(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		panic("cannot convert to float64")
	}
}

type RowStub struct {
	rows *RowsStub
	err  error
}

func (r *RowStub) Err() error {
	return r.err
}

func (r *RowStub) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if !r.rows.Next() {
		return sql.ErrNoRows
	}
	return r.rows.Scan(dest...)
}
