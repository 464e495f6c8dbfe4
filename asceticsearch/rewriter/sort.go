package rewriter

import (
	"go.uber.org/zap"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/expression"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/logger"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/model"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/searchopts"
)

// Sort adds an ordering stage for the first sort parameter. In the second
// phase of a two-phase sort the stage keeps the rows that lack a value.
type Sort struct {
	logger logger.Logger
}

func NewSort(l logger.Logger) *Sort {
	if l == nil {
		l = logger.NewNoopLogger()
	}
	return &Sort{logger: l}
}

func (r *Sort) Rewrite(root expression.Root, opts searchopts.Options) (expression.Root, error) {
	if opts.CountOnly || root.HasStage(expression.StageSort) {
		return root, nil
	}
	sort, ok := opts.PrimarySort()
	if !ok || sort.Param.URL == model.LastUpdatedParameterURL {
		return root, nil
	}
	if !opts.HasValueSort() {
		r.logger.Debug("sort parameter ignored", zap.String("param", sort.Param.Code), zap.String("type", string(sort.Param.Type)))
		return root, nil
	}

	stage := expression.NewStage(expression.StageSort, expression.Sort(sort.Param, sort.Ascending, opts.SortQuerySecondPhase))
	var stages []expression.Stage
	inserted := false
	for _, s := range root.Stages() {
		if !inserted && s.Kind() == expression.StageInclude {
			stages = append(stages, r.preceded(stages, stage, opts)...)
			inserted = true
		}
		stages = append(stages, s)
	}
	if !inserted {
		stages = append(stages, r.preceded(stages, stage, opts)...)
	}
	return root.WithStages(stages), nil
}

// preceded returns the sort stage, led by an All stage when the second phase
// has nothing to subtract from.
func (r *Sort) preceded(before []expression.Stage, stage expression.Stage, opts searchopts.Options) []expression.Stage {
	for _, s := range before {
		if s.Kind() != expression.StageInclude {
			return []expression.Stage{stage}
		}
	}
	if opts.SortQuerySecondPhase {
		return []expression.Stage{expression.AllStage(), stage}
	}
	return []expression.Stage{stage}
}
