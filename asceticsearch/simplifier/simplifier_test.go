package simplifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/expression"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/logger"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/model"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/searchopts"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/sqlgen"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/sqlparams"
)

func TestRemoveRedundantParametersDropsDistinct(t *testing.T) {
	text := "SELECT DISTINCT TOP (@p0) r.ResourceId\nFROM dbo.Resource r"
	params := sqlparams.NewManager()
	params.Add(11, false)
	assert.Equal(t, "SELECT TOP (@p0) r.ResourceId\nFROM dbo.Resource r", RemoveRedundantParameters(text, params))

	withCte := "SELECT DISTINCT TOP (@p0) r.ResourceId\nFROM dbo.Resource r\nJOIN cte0 ON r.ResourceSurrogateId = cte0.Sid1"
	assert.Equal(t, withCte, RemoveRedundantParameters(withCte, params))
}

func rangeQuery() (string, *sqlparams.Manager) {
	params := sqlparams.NewManager()
	params.Add(4, false)
	params.Add(int64(5), false)
	params.Add(int64(11), false)
	params.Add(13, false)
	text := "SELECT DISTINCT r.ResourceId\nFROM dbo.Resource r\n" +
		"WHERE r.ResourceSurrogateId >= @p0\n" +
		"  AND r.ResourceSurrogateId >= @p1\n" +
		"  AND r.ResourceSurrogateId < @p2\n" +
		"  AND r.ResourceSurrogateId < @p3"
	return text, params
}

func TestRemoveRedundantParametersRanges(t *testing.T) {
	text, params := rangeQuery()
	expected := "SELECT r.ResourceId\nFROM dbo.Resource r\n" +
		"WHERE 1 = 1\n" +
		"  AND r.ResourceSurrogateId >= @p1\n" +
		"  AND r.ResourceSurrogateId < @p2\n" +
		"  AND 1 = 1"
	assert.Equal(t, expected, RemoveRedundantParameters(text, params))
}

func TestRemoveRedundantParametersNeedsNumbers(t *testing.T) {
	_, numbers := rangeQuery()
	text, _ := rangeQuery()
	params := sqlparams.NewManager()
	for i, p := range numbers.Parameters() {
		if i == 2 {
			params.Add("11", false)
			continue
		}
		params.Add(p.Value, false)
	}
	assert.Equal(t, text, RemoveRedundantParameters(text, params))
}

func TestRemoveRedundantParametersSkipsDisjunctions(t *testing.T) {
	text, params := rangeQuery()
	text += " OR r.IsDeleted = 1"
	assert.Equal(t, text, RemoveRedundantParameters(text, params))
}

func TestRemoveRedundantParametersTies(t *testing.T) {
	params := sqlparams.NewManager()
	params.Add(5, false)
	params.Add(5, false)
	params.Add(5, false)
	text := "WHERE Id >= @p0 AND Id > @p1 AND Id >= @p2"
	assert.Equal(t, "WHERE 1 = 1 AND Id > @p1 AND 1 = 1", RemoveRedundantParameters(text, params))
}

func TestRemoveRedundantParametersSeparatesColumns(t *testing.T) {
	params := sqlparams.NewManager()
	params.Add(1, false)
	params.Add(2, false)
	text := "WHERE A > @p0 AND B > @p1"
	assert.Equal(t, text, RemoveRedundantParameters(text, params))
}

var (
	subjectParam = model.SearchParameter{
		ID: 22, Code: "subject", URL: "urn:subject", Type: model.TypeReference,
		TargetResourceTypes: []string{"Patient"},
	}
	generalPractitionerParam = model.SearchParameter{
		ID: 26, Code: "general-practitioner", URL: "urn:gp", Type: model.TypeReference,
		TargetResourceTypes: []string{"Practitioner"},
	}
	codeParam = model.SearchParameter{ID: 21, Code: "code", URL: "urn:code", Type: model.TypeToken}
)

func iterateQuery(t *testing.T) *sqlgen.Query {
	m := model.NewStaticModel().
		AddResourceType("Observation", 96).
		AddResourceType("Patient", 103).
		AddResourceType("Practitioner", 104)
	root := expression.NewRoot([]expression.Stage{
		expression.NewStage(expression.StageNormal, expression.SearchParameter(codeParam, expression.Equal(expression.FieldCode, "a"))),
		expression.NewStage(expression.StageInclude,
			expression.Include(subjectParam, "Observation", []string{"Patient"}, false, false, false)),
		expression.NewStage(expression.StageInclude,
			expression.Include(generalPractitionerParam, "Patient", []string{"Practitioner"}, false, true, false)),
	}, nil)
	q, err := sqlgen.NewGenerator(m).Generate(root, searchopts.Options{ResourceTypes: []string{"Observation"}})
	require.NoError(t, err)
	return q
}

func TestCombineIterativeIncludes(t *testing.T) {
	q := iterateQuery(t)
	require.Contains(t, q.Text, ",cte4 AS")

	combined := CombineIterativeIncludes(q.Text, q.Params)
	assert.NotContains(t, combined, ",cte3 AS")
	assert.NotContains(t, combined, "cte3")
	assert.Contains(t, combined, "EXISTS (SELECT 1 FROM cte1 WHERE refSource.ResourceTypeId = T1 AND refSource.ResourceSurrogateId = Sid1"+
		" UNION ALL SELECT 1 FROM cte2 WHERE refSource.ResourceTypeId = T1 AND refSource.ResourceSurrogateId = Sid1)")
	assert.Equal(t, 1, strings.Count(combined, "SELECT T1, Sid1, IsMatch FROM cte4"))
	assert.Equal(t, 2, strings.Count(combined, "UNION ALL\n"))
	// first include reads a different parameter and survives
	assert.Contains(t, combined, ",cte2 AS")
	assert.Equal(t, combined, CombineIterativeIncludes(combined, q.Params))
}

func TestCombineIterativeIncludesLeavesDistinctIncludes(t *testing.T) {
	m := model.NewStaticModel().
		AddResourceType("Observation", 96).
		AddResourceType("Patient", 103)
	root := expression.NewRoot([]expression.Stage{
		expression.NewStage(expression.StageNormal, expression.SearchParameter(codeParam, expression.Equal(expression.FieldCode, "a"))),
		expression.NewStage(expression.StageInclude,
			expression.Include(subjectParam, "Observation", []string{"Patient"}, false, false, false)),
	}, nil)
	q, err := sqlgen.NewGenerator(m).Generate(root, searchopts.Options{ResourceTypes: []string{"Observation"}})
	require.NoError(t, err)
	assert.Equal(t, q.Text, CombineIterativeIncludes(q.Text, q.Params))
}

func TestCombineIterativeIncludesRefusesSelfReference(t *testing.T) {
	text := strings.Join([]string{
		";WITH",
		"cte0 AS",
		"(",
		"    SELECT 1 AS T1, 1 AS Sid1, 1 AS IsMatch",
		")",
		",cte1 AS",
		"(",
		"    SELECT DISTINCT TOP (10) refTarget.ResourceTypeId AS T1, 0 AS IsMatch",
		"    WHERE EXISTS (SELECT * FROM cte0 WHERE refSource.ResourceTypeId = T1)",
		")",
		",cte2 AS",
		"(",
		"    SELECT DISTINCT TOP (10) refTarget.ResourceTypeId AS T1, 0 AS IsMatch",
		"    WHERE EXISTS (SELECT * FROM cte1 WHERE refSource.ResourceTypeId = T1)",
		")",
		"SELECT * FROM cte2",
	}, "\n")
	assert.Equal(t, text, CombineIterativeIncludes(text, sqlparams.NewManager()))
}

func TestSimplifyLogsDiff(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := NewSimplifier(&logger.ZapLogger{Logger: zap.New(core)})
	q := iterateQuery(t)

	simplified := s.Simplify(q.Text, q.Params)
	assert.NotEqual(t, q.Text, simplified)
	entries := logs.FilterMessage("search query simplified").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["diff"], "UNION ALL SELECT 1 FROM cte2")

	unchanged := "SELECT 1"
	assert.Equal(t, unchanged, s.Simplify(unchanged, sqlparams.NewManager()))
	assert.Len(t, logs.FilterMessage("search query simplified").All(), 1)
}
