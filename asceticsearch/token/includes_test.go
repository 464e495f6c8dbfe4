package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/option"
)

func TestIncludesToken_ElementCount(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		_, err := NewIncludesContinuationToken(nil)
		assert.ErrorIs(t, err, ErrNilTokens)
	})

	for _, n := range []int{0, 1, 2, 4, 8} {
		elements := make([]any, n)
		for i := range elements {
			elements[i] = 1
		}
		_, err := NewIncludesContinuationToken(elements)
		assert.ErrorIs(t, err, ErrInvalidTokenCount, "length %d", n)
	}

	valid := map[int][]any{
		3: {1, 10, 20},
		5: {1, 10, 20, 2, 30},
		6: {1, 10, 20, 2, 30, true},
		7: {1, 10, 20, 2, 30, true, "[4,1,2]"},
	}
	for n, elements := range valid {
		tok, err := NewIncludesContinuationToken(elements)
		require.NoError(t, err, "length %d", n)
		assert.Equal(t, int16(1), tok.MatchResourceTypeId)
	}
}

func TestIncludesToken_MandatoryElements(t *testing.T) {
	_, err := NewIncludesContinuationToken([]any{"Patient", 1, 2})
	assert.ErrorIs(t, err, ErrInvalidElement)

	_, err = NewIncludesContinuationToken([]any{70000, 1, 2})
	assert.ErrorIs(t, err, ErrInvalidElement)

	_, err = NewIncludesContinuationToken([]any{1, "low", 2})
	assert.ErrorIs(t, err, ErrInvalidElement)
}

func TestIncludesToken_BoundsNormalized(t *testing.T) {
	tok, err := NewIncludesContinuationToken([]any{1, 50, 10})
	require.NoError(t, err)
	assert.Equal(t, int64(10), tok.MatchResourceSurrogateIdMin)
	assert.Equal(t, int64(50), tok.MatchResourceSurrogateIdMax)

	tok, err = NewIncludesContinuationToken([]any{1, 7, 7})
	require.NoError(t, err)
	assert.Equal(t, int64(7), tok.MatchResourceSurrogateIdMin)
	assert.Equal(t, int64(7), tok.MatchResourceSurrogateIdMax)
}

func TestIncludesToken_IncludePair(t *testing.T) {
	t.Run("both present", func(t *testing.T) {
		tok, err := NewIncludesContinuationToken([]any{1, 10, 20, 3, 99})
		require.NoError(t, err)
		assert.Equal(t, option.Some(int16(3)), tok.IncludeResourceTypeId)
		assert.Equal(t, option.Some(int64(99)), tok.IncludeResourceSurrogateId)
		assert.True(t, tok.HasIncludePosition())
	})

	t.Run("missing type leaves both absent", func(t *testing.T) {
		tok, err := NewIncludesContinuationToken([]any{1, 10, 20, nil, 99})
		require.NoError(t, err)
		assert.True(t, tok.IncludeResourceTypeId.IsNothing())
		assert.True(t, tok.IncludeResourceSurrogateId.IsNothing())
	})

	t.Run("unparsable type leaves both absent", func(t *testing.T) {
		tok, err := NewIncludesContinuationToken([]any{1, 10, 20, "x", 99})
		require.NoError(t, err)
		assert.False(t, tok.HasIncludePosition())
	})
}

func TestIncludesToken_NestedInstance(t *testing.T) {
	inner := &IncludesContinuationToken{MatchResourceTypeId: 4, MatchResourceSurrogateIdMin: 1, MatchResourceSurrogateIdMax: 2}
	tok, err := NewIncludesContinuationToken([]any{1, 10, 20, nil, nil, true, inner})
	require.NoError(t, err)
	require.NotNil(t, tok.SecondPhaseContinuationToken)
	assert.Equal(t, *inner, *tok.SecondPhaseContinuationToken)
	assert.NotSame(t, inner, tok.SecondPhaseContinuationToken)
	assert.Equal(t, option.Some(true), tok.SortQuerySecondPhase)
}

func TestIncludesToken_ToJSON(t *testing.T) {
	assert.Equal(t, `[1,10,20]`, IncludesContinuationToken{
		MatchResourceTypeId:         1,
		MatchResourceSurrogateIdMin: 10,
		MatchResourceSurrogateIdMax: 20,
	}.ToJSON())

	assert.Equal(t, `[1,10,20,null,null,false]`, IncludesContinuationToken{
		MatchResourceTypeId:         1,
		MatchResourceSurrogateIdMin: 10,
		MatchResourceSurrogateIdMax: 20,
		SortQuerySecondPhase:        option.Some(false),
	}.ToJSON())

	assert.Equal(t, `[1,10,20,null,null,null,"[2,3,4]"]`, IncludesContinuationToken{
		MatchResourceTypeId:         1,
		MatchResourceSurrogateIdMin: 10,
		MatchResourceSurrogateIdMax: 20,
		SecondPhaseContinuationToken: &IncludesContinuationToken{
			MatchResourceTypeId:         2,
			MatchResourceSurrogateIdMin: 3,
			MatchResourceSurrogateIdMax: 4,
		},
	}.ToJSON())
}

func TestIncludesToken_NestedRoundTrip(t *testing.T) {
	level3 := &IncludesContinuationToken{
		MatchResourceTypeId:         3,
		MatchResourceSurrogateIdMin: 300,
		MatchResourceSurrogateIdMax: 399,
		IncludeResourceTypeId:       option.Some(int16(33)),
		IncludeResourceSurrogateId:  option.Some(int64(3333)),
	}
	level2 := &IncludesContinuationToken{
		MatchResourceTypeId:          2,
		MatchResourceSurrogateIdMin:  200,
		MatchResourceSurrogateIdMax:  299,
		SortQuerySecondPhase:         option.Some(true),
		SecondPhaseContinuationToken: level3,
	}
	level1 := IncludesContinuationToken{
		MatchResourceTypeId:          1,
		MatchResourceSurrogateIdMin:  100,
		MatchResourceSurrogateIdMax:  199,
		IncludeResourceTypeId:        option.Some(int16(11)),
		IncludeResourceSurrogateId:   option.Some(int64(1111)),
		SortQuerySecondPhase:         option.Some(false),
		SecondPhaseContinuationToken: level2,
	}

	parsed := IncludesFromString(level1.ToJSON())
	require.NotNil(t, parsed)
	assert.Equal(t, level1, *parsed)
	require.NotNil(t, parsed.SecondPhaseContinuationToken)
	require.NotNil(t, parsed.SecondPhaseContinuationToken.SecondPhaseContinuationToken)
	assert.Equal(t, *level3, *parsed.SecondPhaseContinuationToken.SecondPhaseContinuationToken)
}

func TestIncludesFromString_Permissive(t *testing.T) {
	for _, s := range []string{"", "  ", "[1,2]", "not json", `["a",1,2]`, "5"} {
		assert.Nil(t, IncludesFromString(s), s)
	}
}
