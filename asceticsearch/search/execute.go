package search

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/diagnostics"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/logger"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/option"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/searchopts"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/session"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/sqlgen"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/sqlparams"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/tunable"
)

type compiled struct {
	*sqlgen.Query
	mode string
}

func (s *Searcher) compile(ctx context.Context, opts searchopts.Options) (*compiled, error) {
	root, err := s.pipeline.Build(opts)
	if err != nil {
		return nil, err
	}
	q, err := s.generator.Generate(root, opts)
	if err != nil {
		return nil, err
	}
	q.Text = s.simplifier.Simplify(q.Text, q.Params)
	if opts.ReuseQueryPlans {
		q.Text = sqlparams.AppendHash(q.Text, q.Params.Hash())
	}
	s.logger.DebugWithContext(ctx, "search query compiled", zap.Stringer("root", root))
	return &compiled{Query: q, mode: mode(opts)}, nil
}

// statement returns the text to execute: a call of the precompiled
// procedure when one is registered for the query hash, else the query.
func (s *Searcher) statement(ctx context.Context, q *compiled) (string, string) {
	if s.customQueries == nil || !s.tunables.WellKnown(tunable.CustomQueriesEnabled).IsEnabled(ctx) {
		return q.Text, ""
	}
	name, ok := s.customQueries.Lookup(ctx, sqlparams.QueryHash(q.Text))
	if !ok {
		return q.Text, ""
	}
	customQueryHitCounter.Inc()
	return ProcedureCall(name, q.Params), name
}

// ProcedureCall builds an EXEC statement passing every parameter by name.
func ProcedureCall(name string, params *sqlparams.Manager) string {
	var b strings.Builder
	b.WriteString("EXEC dbo.[")
	b.WriteString(strings.ReplaceAll(name, "]", "]]"))
	b.WriteString("]")
	for i, p := range params.Parameters() {
		if i == 0 {
			b.WriteString(" ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(p.Placeholder())
		b.WriteString(" = ")
		b.WriteString(p.Placeholder())
	}
	return b.String()
}

func (s *Searcher) execute(ctx context.Context, q *compiled) ([]Resource, error) {
	var resources []Resource
	err := s.run(ctx, q, func(conn session.DbConnection, stmt string) (int, error) {
		rows, err := conn.Query(stmt, q.Params.NamedArgs()...)
		if err != nil {
			return 0, err
		}
		defer rows.Close()
		for rows.Next() {
			r, err := s.scan(rows, q.HasSortValue)
			if err != nil {
				return len(resources), err
			}
			resources = append(resources, r)
		}
		return len(resources), rows.Err()
	})
	return resources, err
}

func (s *Searcher) executeCount(ctx context.Context, q *compiled) (int64, error) {
	var total int64
	err := s.run(ctx, q, func(conn session.DbConnection, stmt string) (int, error) {
		if err := conn.QueryRow(stmt, q.Params.NamedArgs()...).Scan(&total); err != nil {
			return 0, err
		}
		return 1, nil
	})
	return total, err
}

type runner func(conn session.DbConnection, stmt string) (int, error)

func (s *Searcher) run(ctx context.Context, q *compiled, fn runner) error {
	if s.pool == nil {
		return ErrNoDatabase
	}
	stmt, procedure := s.statement(ctx, q)
	started := time.Now()
	var n int
	err := s.pool.Session(ctx, func(sess session.Session) error {
		conn, err := session.Connection(sess)
		if err != nil {
			return err
		}
		n, err = fn(conn, stmt)
		return err
	})
	elapsed := time.Since(started)
	queryDurationHistogram.WithLabelValues(q.mode, strconv.FormatBool(procedure != "")).
		Observe(float64(elapsed.Milliseconds()))

	event := QueryEndedEvent{
		CorrelationID: logger.CorrelationIDFromContext(ctx),
		Procedure:     procedure,
		Duration:      elapsed,
		Rows:          n,
		Err:           err,
	}
	if notifyErr := s.onQueryEnded.Notify(event); notifyErr != nil {
		s.logger.WarnWithContext(ctx, "query ended observer failed", zap.Error(notifyErr))
	}
	if s.diagnostics != nil {
		s.diagnostics.Observe(ctx, diagnostics.Event{
			Text:          q.Text,
			Params:        q.Params,
			Procedure:     procedure,
			Duration:      elapsed,
			CorrelationID: event.CorrelationID,
		})
	}
	if err != nil {
		return errors.Wrap(err, "search query failed")
	}
	return nil
}

func (s *Searcher) scan(rows session.Rows, hasSortValue bool) (Resource, error) {
	var (
		r             Resource
		requestMethod sql.NullString
		sortValue     any
	)
	dest := []any{
		&r.ResourceTypeId, &r.ResourceId, &r.Version, &r.IsDeleted,
		&r.ResourceSurrogateId, &requestMethod, &r.IsMatch, &r.RawResource,
	}
	if hasSortValue {
		dest = append(dest, &sortValue)
	}
	if err := rows.Scan(dest...); err != nil {
		return Resource{}, errors.Wrap(err, "unable to read search result row")
	}
	if requestMethod.Valid {
		r.RequestMethod = option.Some(requestMethod.String)
	}
	r.SortValue = SortValueString(sortValue)
	if name, ok := s.model.ResourceTypeName(r.ResourceTypeId); ok {
		r.ResourceType = name
	}
	return r, nil
}

// SortValueString renders a sort column value the way continuation tokens
// carry it.
func SortValueString(v any) option.Option[string] {
	switch x := v.(type) {
	case nil:
		return option.Nothing[string]()
	case string:
		return option.Some(x)
	case []byte:
		return option.Some(string(x))
	case time.Time:
		return option.Some(x.UTC().Format("2006-01-02T15:04:05.0000000Z"))
	case float64:
		return option.Some(strconv.FormatFloat(x, 'f', -1, 64))
	case int64:
		return option.Some(strconv.FormatInt(x, 10))
	default:
		return option.Some(fmt.Sprint(x))
	}
}
