package search

import (
	"time"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/option"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/token"
)

// Resource is one row of a search result.
type Resource struct {
	ResourceTypeId      int16
	ResourceType        string
	ResourceId          string
	Version             int32
	IsDeleted           bool
	ResourceSurrogateId int64
	RequestMethod       option.Option[string]
	IsMatch             bool
	RawResource         []byte
	SortValue           option.Option[string]
}

type key struct {
	typeID int16
	sid    int64
}

func (r Resource) key() key {
	return key{r.ResourceTypeId, r.ResourceSurrogateId}
}

type Result struct {
	// Resources holds the matches followed by the included resources.
	Resources                 []Resource
	ContinuationToken         *token.ContinuationToken
	IncludesContinuationToken *token.IncludesContinuationToken
	// IncludesTruncated is set when included resources were cut at the
	// include count, even if no includes token could be issued.
	IncludesTruncated bool
	TotalCount        option.Option[int64]
	CorrelationID     string
}

func (r *Result) Matches() []Resource {
	var matches []Resource
	for _, res := range r.Resources {
		if res.IsMatch {
			matches = append(matches, res)
		}
	}
	return matches
}

func (r *Result) Includes() []Resource {
	var includes []Resource
	for _, res := range r.Resources {
		if !res.IsMatch {
			includes = append(includes, res)
		}
	}
	return includes
}

// QueryEndedEvent is published after every database round trip of a search.
type QueryEndedEvent struct {
	CorrelationID string
	Procedure     string
	Duration      time.Duration
	Rows          int
	Err           error
}
