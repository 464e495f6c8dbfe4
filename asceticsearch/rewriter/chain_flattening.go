package rewriter

import (
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/expression"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/searchopts"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/sqlgen"
)

// ChainFlattening turns a nested chained predicate into link stages
// (levels 1..n) followed by a terminal stage at level n holding the
// innermost predicate.
type ChainFlattening struct{}

func (ChainFlattening) Rewrite(root expression.Root, _ searchopts.Options) (expression.Root, error) {
	if !root.HasStage(expression.StageChain) {
		return root, nil
	}
	var stages []expression.Stage
	for _, stage := range root.Stages() {
		if stage.Kind() != expression.StageChain || stage.ChainLevel() > 0 {
			stages = append(stages, stage)
			continue
		}
		flattened, err := flattenChain(stage)
		if err != nil {
			return expression.Root{}, err
		}
		stages = append(stages, flattened...)
	}
	return root.WithStages(stages), nil
}

func flattenChain(stage expression.Stage) ([]expression.Stage, error) {
	var stages []expression.Stage
	var current expression.Visitable = stage.Predicate()
	level := 0
	for {
		chained, ok := current.(expression.ChainedNode)
		if !ok {
			break
		}
		level++
		stages = append(stages, expression.NewStage(expression.StageChain, chained.WithInner(nil)).
			WithChainLevel(level).
			WithPartitionHint(stage.PartitionHint()))
		current = chained.Inner()
	}
	if level == 0 {
		return nil, sqlgen.NewCompilationError("chain stage without a chained predicate: %s", stage)
	}
	if and, ok := current.(expression.MultiaryNode); ok && and.Operator() == expression.OperatorAnd && len(and.Operands()) == 1 {
		current = and.Operands()[0]
	}
	switch p := current.(type) {
	case nil:
		return nil, sqlgen.NewCompilationError("chained search without a target predicate: %s", stage)
	case expression.MultiaryNode:
		if p.Operator() == expression.OperatorAnd {
			return nil, sqlgen.NewCompilationError("a chained search can only end in one parameter: %s", stage)
		}
	}
	return append(stages, expression.NewStage(expression.StageNormal, current).WithChainLevel(level)), nil
}
