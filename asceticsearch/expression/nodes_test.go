package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/model"
)

var code = model.SearchParameter{ID: 1, Code: "code", Type: model.TypeToken}

func TestFormat(t *testing.T) {
	t.Run("nested logic", func(t *testing.T) {
		n := And(
			Equal(FieldCode, "abc"),
			Not(Or(GreaterThan(FieldSingleValue, 4), LessThanOrEqual(FieldSingleValue, 1))),
		)
		assert.Equal(t, "AND(Code = abc, NOT(OR(SingleValue > 4, SingleValue <= 1)))", Format(n))
	})

	t.Run("search parameter", func(t *testing.T) {
		n := SearchParameter(code, String(FieldText, StringStartsWith, "ab", true))
		assert.Equal(t, `Param(code, Text StartsWith/ci "ab")`, Format(n))
	})

	t.Run("empty or", func(t *testing.T) {
		assert.Equal(t, "OR()", Format(Or()))
	})

	t.Run("nil", func(t *testing.T) {
		assert.Equal(t, "<nil>", Format(nil))
	})
}

func TestNodesAreImmutable(t *testing.T) {
	values := []any{1, 2}
	n := In(FieldResourceTypeId, values...)
	got := n.Values()
	got[0] = 99
	assert.Equal(t, []any{1, 2}, n.Values())

	and := And(Equal(FieldCode, "a"))
	ops := and.Operands()
	ops[0] = Equal(FieldCode, "b")
	assert.Equal(t, "AND(Code = a)", Format(and))
}

func TestIncludeResourceTypes(t *testing.T) {
	ref := model.SearchParameter{ID: 9, Code: "subject", Type: model.TypeReference}

	forward := Include(ref, "Observation", []string{"Patient", "Group"}, false, false, false)
	assert.Equal(t, []string{"Patient", "Group"}, forward.ProducedResourceTypes())
	assert.Equal(t, []string{"Observation"}, forward.ConsumedResourceTypes())

	reversed := Include(ref, "Observation", []string{"Patient"}, true, false, false)
	assert.Equal(t, []string{"Observation"}, reversed.ProducedResourceTypes())
	assert.Equal(t, []string{"Patient"}, reversed.ConsumedResourceTypes())
}

func TestStageWithers(t *testing.T) {
	s := NewStage(StageChain, Equal(FieldCode, "x"))
	s2 := s.WithChainLevel(2).WithPartitionHint([]int16{4, 5})

	assert.Equal(t, 0, s.ChainLevel())
	assert.Empty(t, s.PartitionHint())
	assert.Equal(t, 2, s2.ChainLevel())
	assert.Equal(t, []int16{4, 5}, s2.PartitionHint())
	assert.Equal(t, "Chain(Code = x)", s2.String())
	assert.Equal(t, "All", AllStage().String())
}

func TestRoot(t *testing.T) {
	r := NewRoot(
		[]Stage{NewStage(StageNormal, SearchParameter(code, Equal(FieldCode, "a")))},
		[]Visitable{Equal(FieldResourceId, "123")},
	)
	assert.True(t, r.HasStage(StageNormal))
	assert.False(t, r.HasStage(StageInclude))
	assert.Equal(t, "Root(Normal(Param(code, Code = a)), Resource(ResourceId = 123))", r.String())

	r2 := r.WithStages(append(r.Stages(), AllStage()))
	assert.Len(t, r.Stages(), 1)
	assert.Len(t, r2.Stages(), 2)
}
