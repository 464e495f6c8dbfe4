package rewriter

import (
	"sort"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/expression"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/model"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/searchopts"
)

// MinPartitionEliminationSchemaVersion is the first schema partitioning the
// search parameter tables by resource type.
const MinPartitionEliminationSchemaVersion = 44

// PartitionElimination hints each stage with the resource types its
// parameter can index, so that system-wide searches touch fewer partitions.
// Predicates are left untouched.
type PartitionElimination struct {
	model         model.Model
	schemaVersion SchemaVersionProvider
	minVersion    int
}

func NewPartitionElimination(m model.Model, schemaVersion SchemaVersionProvider) *PartitionElimination {
	return &PartitionElimination{
		model:         m,
		schemaVersion: schemaVersion,
		minVersion:    MinPartitionEliminationSchemaVersion,
	}
}

func (r *PartitionElimination) Rewrite(root expression.Root, opts searchopts.Options) (expression.Root, error) {
	if r.schemaVersion == nil || r.schemaVersion.SchemaVersion() < r.minVersion || len(opts.ResourceTypes) > 0 {
		return root, nil
	}
	stages := root.Stages()
	union := map[int16]struct{}{}
	bounded := true
	for i, stage := range stages {
		if !filters(stage) {
			continue
		}
		hint := r.hint(stage)
		if len(hint) == 0 {
			bounded = false
			continue
		}
		stages[i] = stage.WithPartitionHint(hint)
		for _, id := range hint {
			union[id] = struct{}{}
		}
	}
	root = root.WithStages(stages)
	if !bounded || len(union) == 0 {
		return root, nil
	}
	ids := make([]int16, 0, len(union))
	for id := range union {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return root.WithPartitionHint(ids), nil
}

// filters reports stages that restrict the root resource type. Negated
// stages keep rows of any type.
func filters(stage expression.Stage) bool {
	if isAnti(stage) {
		return false
	}
	switch stage.Kind() {
	case expression.StageNormal, expression.StageCompartment, expression.StageSort:
		return stage.ChainLevel() == 0
	case expression.StageChain:
		return stage.ChainLevel() == 1
	default:
		return false
	}
}

func (r *PartitionElimination) hint(stage expression.Stage) []int16 {
	var names []string
	switch p := stage.Predicate().(type) {
	case expression.SearchParameterNode:
		names = p.Parameter().BaseResourceTypes
	case expression.MissingNode:
		names = p.Parameter().BaseResourceTypes
	case expression.SortNode:
		names = p.Parameter().BaseResourceTypes
	case expression.ChainedNode:
		names = p.SourceResourceTypes()
		if p.Reversed() {
			names = p.TargetResourceTypes()
		}
	case expression.MultiaryNode:
		seen := map[string]bool{}
		for _, operand := range p.Operands() {
			sp, ok := operand.(expression.SearchParameterNode)
			if !ok || len(sp.Parameter().BaseResourceTypes) == 0 {
				return nil
			}
			for _, name := range sp.Parameter().BaseResourceTypes {
				if !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
			}
		}
	}
	return model.ResourceTypeIDs(r.model, names)
}
