package customquery

import (
	"context"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/logger"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/session"
)

const (
	Prefix          = "CustomQuery_"
	DefaultWaitTime = 10 * time.Second
)

var (
	ErrNoDatabase       = errors.New("no database configured")
	ErrMalformedSuffix  = errors.New("malformed custom query suffix")
	hashSuffixPattern   = regexp.MustCompile(`^[0-9A-Fa-f]{1,64}$`)
	procedureNameFilter = strings.TrimSuffix(Prefix, "_") + "[_]%"
)

type Option func(*Cache)

// WithWaitTime bounds how often the directory is re-read.
func WithWaitTime(d time.Duration) Option {
	return func(c *Cache) {
		c.waitTime = d
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

func WithPlaceholderFormat(format sq.PlaceholderFormat) Option {
	return func(c *Cache) {
		c.placeholder = format
	}
}

// WithClock replaces time.Now for the refresh gate.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

type directory = xsync.MapOf[string, string]

// Cache maps a query hash to the stored procedure precompiled for it.
type Cache struct {
	pool        session.SessionPool
	dir         atomic.Pointer[directory]
	gate        *rate.Limiter
	group       singleflight.Group
	waitTime    time.Duration
	placeholder sq.PlaceholderFormat
	now         func() time.Time
	logger      logger.Logger
}

func NewCache(pool session.SessionPool, opts ...Option) *Cache {
	c := &Cache{
		pool:        pool,
		waitTime:    DefaultWaitTime,
		placeholder: sq.AtP,
		now:         time.Now,
		logger:      logger.NewNoopLogger(),
	}
	for i := range opts {
		opts[i](c)
	}
	c.gate = rate.NewLimiter(rate.Every(c.waitTime), 1)
	c.dir.Store(xsync.NewMapOf[string, string]())
	return c
}

// Lookup returns the procedure name for hash. The directory is re-read at
// most once per wait window; within it, lookups never touch the database.
func (c *Cache) Lookup(ctx context.Context, hash string) (string, bool) {
	if c.gate.AllowN(c.now(), 1) {
		if err := c.Refresh(ctx); err != nil {
			c.logger.WarnWithContext(ctx, "custom query directory refresh failed", zap.Error(err))
		}
	}
	return c.dir.Load().Load(strings.ToUpper(hash))
}

// Refresh re-reads the directory regardless of the wait window. A failed
// read keeps the previous directory.
func (c *Cache) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("refresh", func() (any, error) {
		return nil, c.refresh(ctx)
	})
	return err
}

// Entries returns a snapshot of the directory keyed by hash.
func (c *Cache) Entries() map[string]string {
	entries := make(map[string]string)
	c.dir.Load().Range(func(hash, name string) bool {
		entries[hash] = name
		return true
	})
	return entries
}

func (c *Cache) refresh(ctx context.Context) error {
	if c.pool == nil {
		return ErrNoDatabase
	}
	query, args, err := sq.Select("name").
		From("sys.objects").
		Where(sq.Eq{"type": "P"}).
		Where(sq.Like{"name": procedureNameFilter}).
		PlaceholderFormat(c.placeholder).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "unable to build custom query directory query")
	}

	next := xsync.NewMapOf[string, string]()
	var skipped error
	err = c.pool.Session(ctx, func(s session.Session) error {
		conn, err := session.Connection(s)
		if err != nil {
			return err
		}
		rows, err := conn.Query(query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				skipped = multierror.Append(skipped, err)
				continue
			}
			hash, err := ParseName(name)
			if err != nil {
				skipped = multierror.Append(skipped, err)
				continue
			}
			next.Store(hash, name)
		}
		// Rows read before an iteration failure still form the directory.
		if err := rows.Err(); err != nil {
			skipped = multierror.Append(skipped, err)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "unable to read custom query directory")
	}
	if skipped != nil {
		c.logger.WarnWithContext(ctx, "custom query directory rows skipped", zap.Error(skipped))
	}
	c.dir.Store(next)
	c.logger.DebugWithContext(ctx, "custom query directory refreshed", zap.Int("size", next.Size()))
	return nil
}

// ParseName extracts the upper-cased hash suffix from a procedure name.
func ParseName(name string) (string, error) {
	if len(name) < len(Prefix) || !strings.EqualFold(name[:len(Prefix)], Prefix) {
		return "", errors.Wrapf(ErrMalformedSuffix, "%q", name)
	}
	suffix := name[len(Prefix):]
	if !hashSuffixPattern.MatchString(suffix) {
		return "", errors.Wrapf(ErrMalformedSuffix, "%q", name)
	}
	return strings.ToUpper(suffix), nil
}

// ProcedureName is the routine name a precompiled query for hash must carry.
func ProcedureName(hash string) string {
	return Prefix + strings.ToUpper(hash)
}
