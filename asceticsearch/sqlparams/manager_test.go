package sqlparams

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Add(t *testing.T) {
	m := NewManager()
	assert.Equal(t, "@p0", m.Add(int16(4), true))
	assert.Equal(t, "@p1", m.Add("abc", false))
	assert.Equal(t, 2, m.Len())

	v, ok := m.Value("@p1")
	require.True(t, ok)
	assert.Equal(t, "abc", v)
	v, ok = m.Value("p0")
	require.True(t, ok)
	assert.Equal(t, int16(4), v)
	_, ok = m.Value("@p9")
	assert.False(t, ok)

	assert.Equal(t, []any{sql.Named("p0", int16(4)), sql.Named("p1", "abc")}, m.NamedArgs())
}

func TestManager_HashIgnoresExcludedParameters(t *testing.T) {
	a := NewManager()
	a.Add(int64(1), true)
	a.Add([]int64{1, 2, 3}, false)
	a.Add("x", true)

	b := NewManager()
	b.Add(int64(1), true)
	b.Add("x", true)

	assert.Equal(t, a.Hash(), b.Hash())
	assert.Len(t, a.Hash(), 16)
}

func TestManager_HashIsDeterministic(t *testing.T) {
	build := func(values ...any) string {
		m := NewManager()
		for _, v := range values {
			m.Add(v, true)
		}
		return m.Hash()
	}
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.Equal(t, build(int64(1), "a", ts, true, 2.5), build(int64(1), "a", ts, true, 2.5))
	assert.NotEqual(t, build(int64(1), "a"), build("a", int64(1)))
	assert.NotEqual(t, build(int64(1)), build("1"))
	assert.NotEqual(t, build("ab", "c"), build("a", "bc"))
}

func TestQueryHash(t *testing.T) {
	text := "SELECT * FROM dbo.Resource WHERE ResourceTypeId = @p0"

	t.Run("stable", func(t *testing.T) {
		assert.Equal(t, QueryHash(text), QueryHash(text))
	})

	t.Run("single character differences", func(t *testing.T) {
		assert.NotEqual(t, QueryHash(text), QueryHash(text+" "))
		assert.NotEqual(t, QueryHash(text), QueryHash("SELECT  * FROM dbo.Resource WHERE ResourceTypeId = @p0"))
		assert.NotEqual(t, QueryHash(text), QueryHash("SELECT * FROM dbo.Resource WHERE ResourceTypeId = @p1"))
	})

	t.Run("empty", func(t *testing.T) {
		h := QueryHash("")
		assert.Len(t, h, 16)
		assert.NotEmpty(t, h)
	})

	t.Run("ignores appended parameter hash", func(t *testing.T) {
		tagged := AppendHash(text, "0123456789ABCDEF")
		assert.Contains(t, tagged, "/* HASH 0123456789ABCDEF */")
		assert.Equal(t, QueryHash(text), QueryHash(tagged))
		assert.Equal(t, QueryHash(text), QueryHash(AppendHash(tagged, "FEDCBA9876543210")))
	})
}
