package rewriter

import (
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/expression"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/model"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/searchopts"
)

// Rewriter turns a root into an equivalent root the generator can compile.
type Rewriter interface {
	Rewrite(root expression.Root, opts searchopts.Options) (expression.Root, error)
}

type RewriterFunc func(root expression.Root, opts searchopts.Options) (expression.Root, error)

func (f RewriterFunc) Rewrite(root expression.Root, opts searchopts.Options) (expression.Root, error) {
	return f(root, opts)
}

// ParameterDefinitionResolver is the live search parameter registry, which may
// lag behind the compartment metadata.
type ParameterDefinitionResolver interface {
	IsCompartmentType(compartmentType string) bool
	SearchParameterByURL(url string) (model.SearchParameter, bool)
}

// SchemaVersionProvider reports the deployed database schema version.
type SchemaVersionProvider interface {
	SchemaVersion() int
}

type SchemaVersionFunc func() int

func (f SchemaVersionFunc) SchemaVersion() int {
	return f()
}
