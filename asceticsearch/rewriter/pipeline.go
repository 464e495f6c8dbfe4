package rewriter

import (
	"go.uber.org/zap"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/expression"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/logger"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/model"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/searchopts"
)

type PipelineOption func(*pipelineConfig)

type pipelineConfig struct {
	resolver      ParameterDefinitionResolver
	schemaVersion SchemaVersionProvider
	logger        logger.Logger
}

func WithParameterDefinitionResolver(resolver ParameterDefinitionResolver) PipelineOption {
	return func(c *pipelineConfig) {
		c.resolver = resolver
	}
}

func WithSchemaVersion(provider SchemaVersionProvider) PipelineOption {
	return func(c *pipelineConfig) {
		c.schemaVersion = provider
	}
}

func WithLogger(l logger.Logger) PipelineOption {
	return func(c *pipelineConfig) {
		c.logger = l
	}
}

type namedRewriter struct {
	name string
	Rewriter
}

// Pipeline runs the rewriters in their fixed order: chain flattening, sort,
// compartment, smart compartment, partition elimination.
type Pipeline struct {
	rewriters []namedRewriter
	logger    logger.Logger
}

func NewPipeline(m model.Model, opts ...PipelineOption) *Pipeline {
	c := &pipelineConfig{logger: logger.NewNoopLogger()}
	for i := range opts {
		opts[i](c)
	}
	compartment := NewCompartment(m)
	return &Pipeline{
		logger: c.logger,
		rewriters: []namedRewriter{
			{"chain-flattening", ChainFlattening{}},
			{"sort", NewSort(c.logger)},
			{"compartment", compartment},
			{"smart-compartment", NewSmartCompartment(compartment, c.resolver, c.logger)},
			{"partition-elimination", NewPartitionElimination(m, c.schemaVersion)},
		},
	}
}

func (p *Pipeline) Rewrite(root expression.Root, opts searchopts.Options) (expression.Root, error) {
	for _, r := range p.rewriters {
		rewritten, err := r.Rewrite(root, opts)
		if err != nil {
			p.logger.Debug("search expression rejected", zap.String("rewriter", r.name), zap.Error(err))
			return expression.Root{}, err
		}
		root = rewritten
	}
	p.logger.Debug("search expression rewritten", zap.Stringer("root", root))
	return root, nil
}

// Build combines BuildRoot with the pipeline.
func (p *Pipeline) Build(opts searchopts.Options) (expression.Root, error) {
	root, err := BuildRoot(opts)
	if err != nil {
		return expression.Root{}, err
	}
	return p.Rewrite(root, opts)
}
