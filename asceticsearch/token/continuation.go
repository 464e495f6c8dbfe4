package token

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/option"
)

var (
	ErrNilTokens         = errors.New("token elements are nil")
	ErrInvalidTokenCount = errors.New("invalid number of token elements")
	ErrInvalidElement    = errors.New("invalid token element")
)

// ContinuationToken resumes a primary result page after the last returned row.
type ContinuationToken struct {
	ResourceSurrogateId int64
	ResourceTypeId      option.Option[int16]
	SortValue           option.Option[string]
}

// NewContinuationToken reads [sid], [type, sid] or [sort, type, sid].
// Only the surrogate id is mandatory; other unreadable elements become absent.
func NewContinuationToken(elements []any) (*ContinuationToken, error) {
	if elements == nil {
		return nil, ErrNilTokens
	}
	n := len(elements)
	if n < 1 || n > 3 {
		return nil, errors.Wrapf(ErrInvalidTokenCount, "continuation token has %d elements", n)
	}
	sid, ok := toSurrogateID(elements[n-1])
	if !ok {
		return nil, errors.Wrapf(ErrInvalidElement, "resource surrogate id %v", elements[n-1])
	}
	t := &ContinuationToken{ResourceSurrogateId: sid}
	if n >= 2 {
		if typeID, ok := toInt16(elements[n-2]); ok {
			t.ResourceTypeId = option.Some(typeID)
		}
	}
	if n == 3 {
		if sortValue, ok := toSortValue(elements[0]); ok {
			t.SortValue = option.Some(sortValue)
		}
	}
	return t, nil
}

// FromString decodes a token; any malformed input yields nil.
func FromString(s string) *ContinuationToken {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if legacyToken.MatchString(s) {
		sid, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil
		}
		return &ContinuationToken{ResourceSurrogateId: sid}
	}
	elements, ok := decodeArray(s)
	if !ok {
		return nil
	}
	t, err := NewContinuationToken(elements)
	if err != nil {
		return nil
	}
	return t
}

func (t ContinuationToken) Elements() []any {
	switch {
	case t.SortValue.IsSome():
		return []any{t.SortValue.Unwrap(), t.ResourceTypeId.Any(), t.ResourceSurrogateId}
	case t.ResourceTypeId.IsSome():
		return []any{t.ResourceTypeId.Unwrap(), t.ResourceSurrogateId}
	default:
		return []any{t.ResourceSurrogateId}
	}
}

func (t ContinuationToken) ToJSON() string {
	return encodeArray(t.Elements())
}

func (t ContinuationToken) String() string {
	return t.ToJSON()
}
