package sqlgen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/expression"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/model"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/sqlparams"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/tokenrow"
)

func render(t *testing.T, n expression.Visitable, opts ...TsqlVisitorOption) (string, *sqlparams.Manager) {
	t.Helper()
	params := sqlparams.NewManager()
	sql, err := Render(n, params, newTestModel(), tokenrow.NewGenerator(), opts...)
	require.NoError(t, err)
	return sql, params
}

func TestTsqlVisitorPrecedence(t *testing.T) {
	cases := []struct {
		name string
		expr expression.Visitable
		sql  string
	}{
		{
			name: "comparison",
			expr: expression.Equal(expression.FieldCode, "abc"),
			sql:  "Code = @p0",
		},
		{
			name: "or inside and",
			expr: expression.And(
				expression.Equal(expression.FieldCode, "a"),
				expression.Or(
					expression.Equal(expression.FieldCode, "b"),
					expression.Equal(expression.FieldCode, "c"),
				),
			),
			sql: "Code = @p0 AND (Code = @p1 OR Code = @p2)",
		},
		{
			name: "and inside or",
			expr: expression.Or(
				expression.And(
					expression.GreaterThan(expression.FieldSingleValue, 1),
					expression.LessThanOrEqual(expression.FieldSingleValue, 5),
				),
				expression.Equal(expression.FieldSingleValue, 9),
			),
			sql: "(SingleValue > @p0 AND SingleValue <= @p1 OR SingleValue = @p2)",
		},
		{
			name: "negation",
			expr: expression.Not(expression.Equal(expression.FieldCode, "a")),
			sql:  "NOT (Code = @p0)",
		},
		{
			name: "null",
			expr: expression.Equal(expression.FieldCodeOverflow, nil),
			sql:  "CodeOverflow IS NULL",
		},
		{
			name: "empty or",
			expr: expression.Or(),
			sql:  "1 = 0",
		},
		{
			name: "empty and",
			expr: expression.And(),
			sql:  "1 = 1",
		},
		{
			name: "empty in",
			expr: expression.In(expression.FieldCode),
			sql:  "1 = 0",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sql, _ := render(t, c.expr)
			assert.Equal(t, c.sql, sql)
		})
	}
}

func TestTsqlVisitorColumnPrefix(t *testing.T) {
	sql, _ := render(t, expression.Equal(expression.FieldResourceId, "p1"), ColumnPrefix("r."))
	assert.Equal(t, "r.ResourceId = @p0", sql)
}

func TestTsqlVisitorStringOperators(t *testing.T) {
	cases := map[expression.StringOperator]string{
		expression.StringEquals:     "a_b",
		expression.StringStartsWith: "a[_]b%",
		expression.StringEndsWith:   "%a[_]b",
		expression.StringContains:   "%a[_]b%",
	}
	for op, bound := range cases {
		t.Run(op.String(), func(t *testing.T) {
			sql, params := render(t, expression.String(expression.FieldText, op, "a_b", false))
			assert.NotContains(t, sql, "COLLATE")
			value, ok := params.Value("@p0")
			require.True(t, ok)
			assert.Equal(t, bound, value)
		})
	}

	sql, _ := render(t, expression.String(expression.FieldText, expression.StringStartsWith, "smi", true))
	assert.Equal(t, "Text COLLATE Latin1_General_100_CI_AI_SC LIKE @p0", sql)
}

func TestTsqlVisitorResolvesIdentifiers(t *testing.T) {
	sql, params := render(t, expression.And(
		expression.Equal(expression.FieldSystemId, "http://loinc.org"),
		expression.Equal(expression.FieldResourceTypeId, "Patient"),
	))
	assert.Equal(t, "SystemId = @p0 AND ResourceTypeId = @p1", sql)
	system, _ := params.Value("@p0")
	assert.Equal(t, int32(5), system)
	typeID, _ := params.Value("@p1")
	assert.Equal(t, int16(103), typeID)
}

func TestTsqlVisitorUnknownSystemMatchesNothing(t *testing.T) {
	sql, params := render(t, expression.Equal(expression.FieldSystemId, "urn:unknown"))
	assert.Equal(t, "1 = 0", sql)
	assert.Equal(t, 0, params.Len())
}

func TestTsqlVisitorUnknownResourceType(t *testing.T) {
	_, err := Render(expression.Equal(expression.FieldResourceTypeId, "Nope"),
		sqlparams.NewManager(), newTestModel(), tokenrow.NewGenerator())
	require.Error(t, err)
	assert.True(t, IsCompilationError(err))
}

func TestTsqlVisitorLastUpdatedBoundsBecomeSurrogateIds(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	sql, params := render(t, expression.GreaterThanOrEqual(expression.FieldResourceSurrogateId, ts))
	assert.Equal(t, "ResourceSurrogateId >= @p0", sql)
	value, _ := params.Value("@p0")
	assert.Equal(t, model.SurrogateIDFromTime(ts), value)
}

func TestTsqlVisitorSplitsLongCodes(t *testing.T) {
	code := ""
	for i := 0; i < 300; i++ {
		code += "x"
	}
	sql, params := render(t, expression.Equal(expression.FieldCode, code))
	assert.Equal(t, "Code = @p0 AND CodeOverflow = @p1", sql)
	head, _ := params.Value("@p0")
	assert.Len(t, head, 128)
}

func TestTsqlVisitorInHashesSingleValuesOnly(t *testing.T) {
	_, single := render(t, expression.In(expression.FieldResourceTypeId, "Patient"))
	_, many := render(t, expression.In(expression.FieldResourceTypeId, "Patient", "Observation"))
	assert.True(t, single.Parameters()[0].IncludeInHash)
	for _, p := range many.Parameters() {
		assert.False(t, p.IncludeInHash)
	}
}

func TestTsqlVisitorSearchParameterDisjunction(t *testing.T) {
	sql, _ := render(t, expression.Or(
		expression.SearchParameter(codeParam, expression.Equal(expression.FieldCode, "a")),
		expression.SearchParameter(statusParam, expression.Equal(expression.FieldCode, "final")),
	))
	assert.Equal(t, "((SearchParamId = @p0 AND Code = @p1) OR (SearchParamId = @p2 AND Code = @p3))", sql)
}

func TestTsqlVisitorRejectsStageNodes(t *testing.T) {
	_, err := Render(expression.Sort(nameParam, true, false),
		sqlparams.NewManager(), newTestModel(), tokenrow.NewGenerator())
	assert.True(t, IsCompilationError(err))
}
