package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/sqlparams"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config-dir", t.TempDir()}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenDecode(t *testing.T) {
	out, err := run(t, "", "token", "decode", `["1980-01-02",103,42]`)

	require.NoError(t, err)
	assert.JSONEq(t, `{"resourceSurrogateId":42,"resourceTypeId":103,"sortValue":"1980-01-02"}`, out)
}

func TestTokenDecodeRejectsGarbage(t *testing.T) {
	_, err := run(t, "", "token", "decode", "not a token")

	require.ErrorContains(t, err, "not a continuation token")
}

func TestTokenEncode(t *testing.T) {
	out, err := run(t, "", "token", "encode", "--sid", "42", "--type", "96")

	require.NoError(t, err)
	assert.Equal(t, "[96,42]\n", out)
}

func TestIncludesTokenDecodeNested(t *testing.T) {
	nested := `[96,12,12,null,null,true]`
	raw := `[96,10,11,103,30,false,` + strconvQuote(nested) + `]`

	out, err := run(t, "", "includes-token", "decode", raw)

	require.NoError(t, err)
	assert.JSONEq(t, `{
		"matchResourceTypeId": 96,
		"matchResourceSurrogateIdMin": 10,
		"matchResourceSurrogateIdMax": 11,
		"includeResourceTypeId": 103,
		"includeResourceSurrogateId": 30,
		"sortQuerySecondPhase": false,
		"secondPhaseContinuationToken": {
			"matchResourceTypeId": 96,
			"matchResourceSurrogateIdMin": 12,
			"matchResourceSurrogateIdMax": 12,
			"sortQuerySecondPhase": true
		}
	}`, out)
}

func strconvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func TestHashFromStdin(t *testing.T) {
	query := "SELECT 1\n/* HASH 0011 */"

	out, err := run(t, query, "hash")

	require.NoError(t, err)
	hash := sqlparams.QueryHash("SELECT 1")
	assert.Equal(t, hash+"\tCustomQuery_"+hash+"\n", out)
}

func TestStripFromFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "query.sql")
	require.NoError(t, os.WriteFile(file, []byte("DECLARE @p0 int = 1\n\n;WITH cte0 AS (SELECT 1)\nOPTION (RECOMPILE)\n"), 0o600))

	out, err := run(t, "", "strip", file)

	require.NoError(t, err)
	assert.Equal(t, "WITH cte0 AS (SELECT 1)\nOPTION (RECOMPILE)\n", out)
}

func TestDatabaseCommandsNeedURI(t *testing.T) {
	t.Setenv("ASCETIC_SEARCH_DATABASE_URI", "")

	_, err := run(t, "", "parameter", "get", "Search.ReuseQueryPlans.IsEnabled")
	require.ErrorContains(t, err, "database uri is required")

	_, err = run(t, "", "custom-queries")
	require.ErrorContains(t, err, "database uri is required")
}
