package search

import (
	"cmp"
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/option"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/searchopts"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/token"
)

// page is the outcome of one sort phase.
type page struct {
	matches      []Resource
	included     []Resource
	next         *token.ContinuationToken
	includesNext *token.IncludesContinuationToken
	truncated    bool
}

func (s *Searcher) searchMatches(ctx context.Context, opts searchopts.Options) (*Result, error) {
	first, err := s.page(ctx, opts)
	if err != nil {
		return nil, err
	}
	if !opts.HasValueSort() || opts.SortQuerySecondPhase || first.next != nil {
		return first.result(), nil
	}

	// The rows with a sort value are exhausted; the rest of the page comes
	// from the rows without one.
	remaining := opts.MaxItemCount - len(first.matches)
	if remaining == 0 {
		first.next = &token.ContinuationToken{}
		return first.result(), nil
	}
	second := opts
	second.SortQuerySecondPhase = true
	second.ContinuationToken = nil
	second.MaxItemCount = remaining
	rest, err := s.page(ctx, second)
	if err != nil {
		return nil, err
	}
	return merge(first, rest), nil
}

func (s *Searcher) page(ctx context.Context, opts searchopts.Options) (*page, error) {
	q, err := s.compile(ctx, opts)
	if err != nil {
		return nil, err
	}
	rows, err := s.execute(ctx, q)
	if err != nil {
		return nil, err
	}
	p := &page{}
	seen := make(map[key]struct{})
	for _, r := range rows {
		if r.IsMatch {
			seen[r.key()] = struct{}{}
			p.matches = append(p.matches, r)
		}
	}
	if q.HasSortValue {
		orderTies(p.matches)
	}
	if q.HasIncludes && !q.HasSortValue {
		// The final select orders includes after matches, not the matches
		// by page order.
		desc := opts.SortsByLastUpdatedDescending()
		slices.SortStableFunc(p.matches, func(a, b Resource) int {
			c := compareKeys(a.key(), b.key())
			if desc {
				return -c
			}
			return c
		})
	}
	if len(p.matches) > opts.MaxItemCount {
		p.matches = p.matches[:opts.MaxItemCount]
		p.next = nextToken(opts, p.matches[len(p.matches)-1], q.HasSortValue)
	}

	for _, r := range rows {
		if r.IsMatch {
			continue
		}
		if _, ok := seen[r.key()]; ok {
			continue
		}
		seen[r.key()] = struct{}{}
		p.included = append(p.included, r)
	}
	sortByKey(p.included)
	if len(p.included) > opts.IncludeCount {
		p.included = p.included[:opts.IncludeCount]
		p.truncated = true
		p.includesNext = includesToken(p.matches, p.included[len(p.included)-1], opts)
		includesTruncatedCounter.Inc()
		if p.includesNext == nil {
			s.logger.InfoWithContext(ctx, "included resources truncated without a continuation token",
				zap.Int("includeCount", opts.IncludeCount))
		}
	}
	return p, nil
}

func (p *page) result() *Result {
	return &Result{
		Resources:                 slices.Concat(p.matches, p.included),
		ContinuationToken:         p.next,
		IncludesContinuationToken: p.includesNext,
		IncludesTruncated:         p.truncated,
	}
}

// merge joins the first sort phase with the second. Includes tokens of the
// phases nest so both can be resumed.
func merge(first, second *page) *Result {
	result := &Result{
		Resources:         slices.Concat(first.matches, second.matches),
		ContinuationToken: second.next,
		IncludesTruncated: first.truncated || second.truncated,
	}
	seen := make(map[key]struct{})
	for _, r := range result.Resources {
		seen[r.key()] = struct{}{}
	}
	for _, r := range slices.Concat(first.included, second.included) {
		if _, ok := seen[r.key()]; ok {
			continue
		}
		seen[r.key()] = struct{}{}
		result.Resources = append(result.Resources, r)
	}

	switch {
	case first.includesNext != nil:
		tok := *first.includesNext
		if second.includesNext != nil {
			tok.SortQuerySecondPhase = option.Some(false)
			tok.SecondPhaseContinuationToken = second.includesNext
		}
		result.IncludesContinuationToken = &tok
	case second.includesNext != nil:
		result.IncludesContinuationToken = second.includesNext
	}
	return result
}

// searchIncludes pages the included resources of an earlier match page.
// Once a token is exhausted the nested second phase token takes over.
func (s *Searcher) searchIncludes(ctx context.Context, opts searchopts.Options) (*Result, error) {
	result := &Result{}
	budget := opts.IncludeCount
	seen := make(map[key]struct{})
	for tok := opts.IncludesContinuationToken; tok != nil; tok = tok.SecondPhaseContinuationToken {
		if budget == 0 {
			result.IncludesContinuationToken = tok
			break
		}
		o := opts
		o.IncludesContinuationToken = tok
		o.ContinuationToken = nil
		o.SortQuerySecondPhase = tok.SortQuerySecondPhase.UnwrapOr(false)
		o.IncludeCount = budget
		q, err := s.compile(ctx, o)
		if err != nil {
			return nil, err
		}
		rows, err := s.execute(ctx, q)
		if err != nil {
			return nil, err
		}
		var includes []Resource
		for _, r := range rows {
			if r.IsMatch {
				continue
			}
			if _, ok := seen[r.key()]; ok {
				continue
			}
			seen[r.key()] = struct{}{}
			includes = append(includes, r)
		}
		sortByKey(includes)
		if len(includes) > budget {
			includes = includes[:budget]
			last := includes[len(includes)-1]
			next := *tok
			next.IncludeResourceTypeId = option.Some(last.ResourceTypeId)
			next.IncludeResourceSurrogateId = option.Some(last.ResourceSurrogateId)
			result.Resources = append(result.Resources, includes...)
			result.IncludesContinuationToken = &next
			result.IncludesTruncated = true
			includesTruncatedCounter.Inc()
			break
		}
		result.Resources = append(result.Resources, includes...)
		budget -= len(includes)
	}
	return result, nil
}

// nextToken resumes after the last returned match. The type id is only
// needed when several resource types share the page.
func nextToken(opts searchopts.Options, last Resource, hasSortValue bool) *token.ContinuationToken {
	t := &token.ContinuationToken{ResourceSurrogateId: last.ResourceSurrogateId}
	if len(opts.ResourceTypes) != 1 {
		t.ResourceTypeId = option.Some(last.ResourceTypeId)
	}
	if hasSortValue {
		t.SortValue = last.SortValue
	}
	return t
}

// includesToken is only issued when all matches share one resource type,
// since the token names a single type with a surrogate id range.
func includesToken(matches []Resource, last Resource, opts searchopts.Options) *token.IncludesContinuationToken {
	if len(matches) == 0 {
		return nil
	}
	typeID := matches[0].ResourceTypeId
	lo, hi := matches[0].ResourceSurrogateId, matches[0].ResourceSurrogateId
	for _, m := range matches[1:] {
		if m.ResourceTypeId != typeID {
			return nil
		}
		lo = min(lo, m.ResourceSurrogateId)
		hi = max(hi, m.ResourceSurrogateId)
	}
	t := &token.IncludesContinuationToken{
		MatchResourceTypeId:         typeID,
		MatchResourceSurrogateIdMin: lo,
		MatchResourceSurrogateIdMax: hi,
		IncludeResourceTypeId:       option.Some(last.ResourceTypeId),
		IncludeResourceSurrogateId:  option.Some(last.ResourceSurrogateId),
	}
	if opts.SortQuerySecondPhase {
		t.SortQuerySecondPhase = option.Some(true)
	}
	return t
}

func compareKeys(a, b key) int {
	if c := cmp.Compare(a.typeID, b.typeID); c != 0 {
		return c
	}
	return cmp.Compare(a.sid, b.sid)
}

func sortByKey(resources []Resource) {
	slices.SortStableFunc(resources, func(a, b Resource) int {
		return compareKeys(a.key(), b.key())
	})
}

// orderTies sorts runs of equal sort values by surrogate id, the order the
// continuation condition resumes in.
func orderTies(matches []Resource) {
	for start := 0; start < len(matches); {
		end := start + 1
		for end < len(matches) && matches[end].SortValue == matches[start].SortValue {
			end++
		}
		slices.SortStableFunc(matches[start:end], func(a, b Resource) int {
			if c := cmp.Compare(a.ResourceSurrogateId, b.ResourceSurrogateId); c != 0 {
				return c
			}
			return cmp.Compare(a.ResourceTypeId, b.ResourceTypeId)
		})
		start = end
	}
}
