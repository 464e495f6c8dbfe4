package rewriter

import (
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/expression"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/searchopts"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/sqlgen"
)

// BuildRoot splits the top-level conjunction of the search expression into
// stages. Compartment stages come first, then search parameter stages, then
// chains, then includes. Predicates on dbo.Resource columns are applied by
// the final select instead of a stage.
func BuildRoot(opts searchopts.Options) (expression.Root, error) {
	b := &rootBuilder{}
	if opts.Expression != nil {
		if err := b.add(opts.Expression); err != nil {
			return expression.Root{}, err
		}
	}
	var stages []expression.Stage
	stages = append(stages, b.compartments...)
	stages = append(stages, b.normals...)
	stages = append(stages, b.chains...)
	if len(stages) > 0 && isAnti(stages[0]) {
		stages = append([]expression.Stage{expression.AllStage()}, stages...)
	}
	if len(b.includes) > 0 && len(stages) == 0 {
		stages = append(stages, expression.AllStage())
	}
	stages = append(stages, b.includes...)
	return expression.NewRoot(stages, b.resourcePredicates), nil
}

type rootBuilder struct {
	compartments       []expression.Stage
	normals            []expression.Stage
	chains             []expression.Stage
	includes           []expression.Stage
	resourcePredicates []expression.Visitable
}

func (b *rootBuilder) add(n expression.Visitable) error {
	switch node := n.(type) {
	case expression.MultiaryNode:
		if node.Operator() == expression.OperatorAnd {
			for _, operand := range node.Operands() {
				if err := b.add(operand); err != nil {
					return err
				}
			}
			return nil
		}
		return b.addDisjunction(node)
	case expression.CompartmentNode, expression.SmartCompartmentNode:
		b.compartments = append(b.compartments, expression.NewStage(expression.StageCompartment, node))
	case expression.ChainedNode:
		b.chains = append(b.chains, expression.NewStage(expression.StageChain, node))
	case expression.IncludeNode:
		b.includes = append(b.includes, expression.NewStage(expression.StageInclude, node))
	case expression.SearchParameterNode:
		if node.Parameter().IsResourceColumn() {
			if node.Predicate() != nil {
				b.resourcePredicates = append(b.resourcePredicates, node.Predicate())
			}
			return nil
		}
		b.normals = append(b.normals, expression.NewStage(expression.StageNormal, node))
	case expression.MissingNode:
		if node.Parameter().IsResourceColumn() {
			return sqlgen.NewCompilationError("%s is never missing", node.Parameter().Code)
		}
		b.normals = append(b.normals, expression.NewStage(expression.StageNormal, node))
	case expression.NotNode:
		sp, ok := node.Operand().(expression.SearchParameterNode)
		switch {
		case !ok:
			b.resourcePredicates = append(b.resourcePredicates, node)
		case sp.Parameter().IsResourceColumn():
			b.resourcePredicates = append(b.resourcePredicates, expression.Not(sp.Predicate()))
		default:
			b.normals = append(b.normals, expression.NewStage(expression.StageNormal, node))
		}
	case expression.SortNode:
		return sqlgen.NewCompilationError("sorting is requested through options, not %s", expression.Format(node))
	default:
		b.resourcePredicates = append(b.resourcePredicates, n)
	}
	return nil
}

// addDisjunction keeps an Or in one stage, which is only possible when every
// disjunct reads the same table.
func (b *rootBuilder) addDisjunction(or expression.MultiaryNode) error {
	operands := or.Operands()
	if len(operands) == 0 {
		b.normals = append(b.normals, expression.NewStage(expression.StageNormal, or))
		return nil
	}
	table := ""
	onResource := true
	for _, operand := range operands {
		sp, ok := operand.(expression.SearchParameterNode)
		if !ok || sp.Parameter().IsResourceColumn() {
			continue
		}
		onResource = false
		if table != "" && sp.Parameter().Table() != table {
			return sqlgen.NewCompilationError("a disjunction cannot span %s and %s", table, sp.Parameter().Table())
		}
		table = sp.Parameter().Table()
	}
	if onResource {
		predicates := make([]expression.Visitable, 0, len(operands))
		for _, operand := range operands {
			if sp, ok := operand.(expression.SearchParameterNode); ok {
				operand = sp.Predicate()
			}
			if operand != nil {
				predicates = append(predicates, operand)
			}
		}
		b.resourcePredicates = append(b.resourcePredicates, expression.Or(predicates...))
		return nil
	}
	for _, operand := range operands {
		if sp, ok := operand.(expression.SearchParameterNode); !ok || sp.Parameter().IsResourceColumn() {
			return sqlgen.NewCompilationError("a disjunction cannot mix %s with search parameters", expression.Format(operand))
		}
	}
	b.normals = append(b.normals, expression.NewStage(expression.StageNormal, or))
	return nil
}

// isAnti reports stages compiled as NOT EXISTS over the stage before them.
func isAnti(stage expression.Stage) bool {
	switch p := stage.Predicate().(type) {
	case expression.MissingNode:
		return p.IsMissing()
	case expression.NotNode:
		return true
	case expression.SortNode:
		return p.Missing()
	default:
		return false
	}
}
