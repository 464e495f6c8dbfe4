package rewriter

import (
	"go.uber.org/zap"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/expression"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/logger"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/model"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/searchopts"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/sqlgen"
)

// SmartCompartment expands compartments scoped by a launch context. Only
// compartment parameters the live registry knows are used.
type SmartCompartment struct {
	compartment *Compartment
	resolver    ParameterDefinitionResolver
	logger      logger.Logger
}

func NewSmartCompartment(compartment *Compartment, resolver ParameterDefinitionResolver, l logger.Logger) *SmartCompartment {
	if l == nil {
		l = logger.NewNoopLogger()
	}
	return &SmartCompartment{
		compartment: compartment,
		resolver:    resolver,
		logger:      l,
	}
}

func (r *SmartCompartment) Rewrite(root expression.Root, opts searchopts.Options) (expression.Root, error) {
	if !root.HasStage(expression.StageCompartment) {
		return root, nil
	}
	stages := root.Stages()
	for i, stage := range stages {
		node, ok := stage.Predicate().(expression.SmartCompartmentNode)
		if !ok {
			continue
		}
		if r.resolver == nil || !r.resolver.IsCompartmentType(node.CompartmentType()) {
			return expression.Root{}, sqlgen.NewCompilationError("unknown compartment type %q", node.CompartmentType())
		}
		stages[i] = stage.WithPredicate(r.compartment.expand(node.CompartmentNode, opts, r.resolve))
	}
	return root.WithStages(stages), nil
}

func (r *SmartCompartment) resolve(p model.SearchParameter) (model.SearchParameter, bool) {
	resolved, ok := r.resolver.SearchParameterByURL(p.URL)
	if !ok {
		r.logger.Warn("compartment parameter is not defined, skipping", zap.String("url", p.URL))
	}
	return resolved, ok
}
