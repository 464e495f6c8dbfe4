package sqlgen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/sqlparams"
)

func TestStripForLogging(t *testing.T) {
	text := "SET STATISTICS IO ON\nDECLARE @p0 int = 5\n\n;WITH\ncte0 AS\n(\n    SELECT 1  \n)\n\n\nSELECT 2\nOPTION (RECOMPILE)\n-- execution timeout = 30 sec\n/* HASH 00FF */\n"
	assert.Equal(t, "WITH\ncte0 AS\n(\n    SELECT 1\n)\n\nSELECT 2\nOPTION (RECOMPILE)", StripForLogging(text))
}

func TestStripForLoggingIsIdempotent(t *testing.T) {
	text := ";WITH\ncte0 AS\n(\n    SELECT 1\n)\nSELECT 2"
	once := StripForLogging(text)
	assert.Equal(t, once, StripForLogging(once))
}

func TestFormatForLogging(t *testing.T) {
	params := sqlparams.NewManager()
	params.Add(int16(103), true)
	params.Add("O'Brien", false)
	params.Add(int64(9), false)
	params.Add(true, false)
	params.Add(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), false)

	expected := "DECLARE @p0 smallint = 103\n" +
		"DECLARE @p1 nvarchar(7) = N'O''Brien'\n" +
		"DECLARE @p2 bigint = 9\n" +
		"DECLARE @p3 bit = 1\n" +
		"DECLARE @p4 datetime2(7) = '2024-01-02T03:04:05.0000000'\n" +
		"\n" +
		"SELECT 1"
	assert.Equal(t, expected, FormatForLogging("SELECT 1", params))
	assert.Equal(t, "SELECT 1", FormatForLogging("SELECT 1", sqlparams.NewManager()))
	assert.Equal(t, "SELECT 1", StripForLogging(FormatForLogging("SELECT 1", params)))
}
