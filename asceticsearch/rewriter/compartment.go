package rewriter

import (
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/expression"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/model"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/searchopts"
)

// Compartment expands a compartment stage into a disjunction over the
// reference parameters linking member resource types to the compartment
// owner. A compartment without members matches nothing.
type Compartment struct {
	model model.Model
}

func NewCompartment(m model.Model) *Compartment {
	return &Compartment{model: m}
}

func (r *Compartment) Rewrite(root expression.Root, opts searchopts.Options) (expression.Root, error) {
	if !root.HasStage(expression.StageCompartment) {
		return root, nil
	}
	stages := root.Stages()
	for i, stage := range stages {
		if stage.Kind() != expression.StageCompartment {
			continue
		}
		if node, ok := stage.Predicate().(expression.CompartmentNode); ok {
			stages[i] = stage.WithPredicate(r.expand(node, opts, nil))
		}
	}
	return root.WithStages(stages), nil
}

// expand builds the disjunction; accept, when set, vets each parameter and
// may substitute it.
func (r *Compartment) expand(node expression.CompartmentNode, opts searchopts.Options, accept func(model.SearchParameter) (model.SearchParameter, bool)) expression.MultiaryNode {
	types := node.ResourceTypes()
	if len(types) == 0 {
		types = opts.ResourceTypes
	}
	if len(types) == 0 {
		types = r.model.CompartmentResourceTypes(node.CompartmentType())
	}

	// one disjunct per parameter, covering every member type it links
	var params []model.SearchParameter
	members := map[int16][]any{}
	for _, rt := range types {
		for _, p := range r.model.CompartmentParameters(node.CompartmentType(), rt) {
			if accept != nil {
				var ok bool
				if p, ok = accept(p); !ok {
					continue
				}
			}
			if _, seen := members[p.ID]; !seen {
				params = append(params, p)
			}
			members[p.ID] = append(members[p.ID], rt)
		}
	}

	disjuncts := make([]expression.Visitable, 0, len(params))
	for _, p := range params {
		var typeFilter expression.Visitable = expression.In(expression.FieldResourceTypeId, members[p.ID]...)
		if len(members[p.ID]) == 1 {
			typeFilter = expression.Equal(expression.FieldResourceTypeId, members[p.ID][0])
		}
		disjuncts = append(disjuncts, expression.SearchParameter(p, expression.And(
			typeFilter,
			expression.Equal(expression.FieldReferenceResourceTypeId, node.CompartmentType()),
			expression.Equal(expression.FieldReferenceResourceId, node.CompartmentId()),
		)))
	}
	return expression.Or(disjuncts...)
}
