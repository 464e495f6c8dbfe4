package simplifier

import (
	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/logger"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/sqlparams"
)

type Simplifier struct {
	logger logger.Logger
}

func NewSimplifier(l logger.Logger) *Simplifier {
	if l == nil {
		l = logger.NewNoopLogger()
	}
	return &Simplifier{logger: l}
}

// Simplify runs every text-level pass over a generated query.
func (s *Simplifier) Simplify(text string, params *sqlparams.Manager) string {
	simplified := CombineIterativeIncludes(RemoveRedundantParameters(text, params), params)
	if simplified != text {
		s.logger.Debug("search query simplified", zap.String("diff", Diff(text, simplified)))
	}
	return simplified
}

// Diff renders the line-level changes between two query texts.
func Diff(before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)
	return dmp.DiffPrettyText(diffs)
}
