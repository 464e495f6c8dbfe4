package token

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/option"
)

// IncludesContinuationToken pages the included resources of one match page.
// Matches are identified by their type and surrogate id range.
type IncludesContinuationToken struct {
	MatchResourceTypeId         int16
	MatchResourceSurrogateIdMin int64
	MatchResourceSurrogateIdMax int64
	IncludeResourceTypeId       option.Option[int16]
	IncludeResourceSurrogateId  option.Option[int64]
	SortQuerySecondPhase        option.Option[bool]
	// SecondPhaseContinuationToken carries the includes position of the
	// second sort phase.
	SecondPhaseContinuationToken *IncludesContinuationToken
}

// NewIncludesContinuationToken validates strictly: a wrong element count or an
// unreadable match element is an error.
func NewIncludesContinuationToken(elements []any) (*IncludesContinuationToken, error) {
	if elements == nil {
		return nil, ErrNilTokens
	}
	switch n := len(elements); n {
	case 3, 5, 6, 7:
	default:
		return nil, errors.Wrapf(ErrInvalidTokenCount, "includes continuation token has %d elements", n)
	}

	typeID, ok := toInt16(elements[0])
	if !ok {
		return nil, errors.Wrapf(ErrInvalidElement, "match resource type id %v", elements[0])
	}
	lo, ok := toInt64(elements[1])
	if !ok {
		return nil, errors.Wrapf(ErrInvalidElement, "match resource surrogate id %v", elements[1])
	}
	hi, ok := toInt64(elements[2])
	if !ok {
		return nil, errors.Wrapf(ErrInvalidElement, "match resource surrogate id %v", elements[2])
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	t := &IncludesContinuationToken{
		MatchResourceTypeId:         typeID,
		MatchResourceSurrogateIdMin: lo,
		MatchResourceSurrogateIdMax: hi,
	}

	if len(elements) >= 5 {
		if includeType, ok := toInt16(elements[3]); ok {
			if includeSid, ok := toInt64(elements[4]); ok {
				t.IncludeResourceTypeId = option.Some(includeType)
				t.IncludeResourceSurrogateId = option.Some(includeSid)
			}
		}
	}
	if len(elements) >= 6 {
		if secondPhase, ok := elements[5].(bool); ok {
			t.SortQuerySecondPhase = option.Some(secondPhase)
		}
	}
	if len(elements) == 7 {
		switch nested := elements[6].(type) {
		case *IncludesContinuationToken:
			if nested != nil {
				t.SecondPhaseContinuationToken = IncludesFromString(nested.ToJSON())
			}
		case IncludesContinuationToken:
			t.SecondPhaseContinuationToken = IncludesFromString(nested.ToJSON())
		case string:
			t.SecondPhaseContinuationToken = IncludesFromString(nested)
		}
	}
	return t, nil
}

// IncludesFromString decodes a token; any malformed input yields nil.
func IncludesFromString(s string) *IncludesContinuationToken {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	elements, ok := decodeArray(s)
	if !ok {
		return nil
	}
	t, err := NewIncludesContinuationToken(elements)
	if err != nil {
		return nil
	}
	return t
}

// HasIncludePosition reports whether included rows resume after a known row.
func (t IncludesContinuationToken) HasIncludePosition() bool {
	return t.IncludeResourceTypeId.IsSome() && t.IncludeResourceSurrogateId.IsSome()
}

func (t IncludesContinuationToken) Elements() []any {
	elements := []any{t.MatchResourceTypeId, t.MatchResourceSurrogateIdMin, t.MatchResourceSurrogateIdMax}
	nested := t.SecondPhaseContinuationToken != nil
	if !t.HasIncludePosition() && t.SortQuerySecondPhase.IsNothing() && !nested {
		return elements
	}
	if t.HasIncludePosition() {
		elements = append(elements, t.IncludeResourceTypeId.Unwrap(), t.IncludeResourceSurrogateId.Unwrap())
	} else {
		elements = append(elements, nil, nil)
	}
	if t.SortQuerySecondPhase.IsNothing() && !nested {
		return elements
	}
	elements = append(elements, t.SortQuerySecondPhase.Any())
	if nested {
		elements = append(elements, t.SecondPhaseContinuationToken.ToJSON())
	}
	return elements
}

func (t IncludesContinuationToken) ToJSON() string {
	return encodeArray(t.Elements())
}

func (t IncludesContinuationToken) String() string {
	return t.ToJSON()
}
