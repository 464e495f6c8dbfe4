package searchopts

import (
	"time"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/expression"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/model"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/token"
)

type ResourceVersionType uint8

const (
	VersionLatest ResourceVersionType = 1 << iota
	VersionHistory
	VersionSoftDeleted
)

// Has reports whether every flag in other is set.
func (t ResourceVersionType) Has(other ResourceVersionType) bool {
	return t&other == other
}

const (
	DefaultMaxItemCount = 10
	DefaultIncludeCount = 1000
)

type SortParameter struct {
	Param     model.SearchParameter
	Ascending bool
}

// Options is what the outer layers hand to a search.
type Options struct {
	Expression expression.Visitable
	// ResourceTypes scopes the search; empty means a system-wide search.
	ResourceTypes        []string
	ResourceVersionTypes ResourceVersionType
	MaxItemCount         int
	IncludeCount         int
	Sort                 []SortParameter
	ContinuationToken    *token.ContinuationToken
	// IncludesContinuationToken requests only the next page of included resources.
	IncludesContinuationToken *token.IncludesContinuationToken
	SortQuerySecondPhase      bool
	CountOnly                 bool
	ReuseQueryPlans           bool
	CommandTimeout            time.Duration
}

// WithDefaults returns a copy with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.ResourceVersionTypes == 0 {
		o.ResourceVersionTypes = VersionLatest
	}
	if o.MaxItemCount <= 0 {
		o.MaxItemCount = DefaultMaxItemCount
	}
	if o.IncludeCount <= 0 {
		o.IncludeCount = DefaultIncludeCount
	}
	return o
}

// PrimarySort returns the first sort parameter, the only one honored.
func (o Options) PrimarySort() (SortParameter, bool) {
	if len(o.Sort) == 0 {
		return SortParameter{}, false
	}
	return o.Sort[0], true
}

// SortsByLastUpdatedDescending reports a _lastUpdated descending order,
// which reverses surrogate id paging.
func (o Options) SortsByLastUpdatedDescending() bool {
	s, ok := o.PrimarySort()
	return ok && s.Param.URL == model.LastUpdatedParameterURL && !s.Ascending
}

// HasValueSort reports a sort that needs a sort stage.
func (o Options) HasValueSort() bool {
	s, ok := o.PrimarySort()
	if !ok || o.CountOnly {
		return false
	}
	switch s.Param.Type {
	case model.TypeString, model.TypeDate, model.TypeNumber:
		return true
	default:
		return false
	}
}
