package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/expression"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/logger"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/model"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/searchopts"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/sqlparams"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/tokenrow"
)

// ResourceColumns is the column list of every row a search returns.
const ResourceColumns = "r.ResourceTypeId, r.ResourceId, r.Version, r.IsDeleted, r.ResourceSurrogateId, r.RequestMethod"

type GeneratorOption func(*Generator)

func WithTokenRows(tokenRows tokenrow.Generator) GeneratorOption {
	return func(g *Generator) {
		g.tokenRows = tokenRows
	}
}

func WithLogger(l logger.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = l
	}
}

// Generator compiles a rewritten expression root into T-SQL, one common
// table expression per stage.
type Generator struct {
	model     model.Model
	tokenRows tokenrow.Generator
	logger    logger.Logger
}

func NewGenerator(m model.Model, opts ...GeneratorOption) *Generator {
	g := &Generator{
		model:     m,
		tokenRows: tokenrow.NewGenerator(),
		logger:    logger.NewNoopLogger(),
	}
	for i := range opts {
		opts[i](g)
	}
	return g
}

type Query struct {
	Text   string
	Params *sqlparams.Manager
	// HasSortValue reports a trailing SortValue column in the result rows.
	HasSortValue bool
	HasIncludes  bool
	CountOnly    bool
	// IncludesOnly queries return only included resources after a position.
	IncludesOnly bool
}

func (g *Generator) Generate(root expression.Root, opts searchopts.Options) (*Query, error) {
	opts = opts.WithDefaults()
	c := &compilation{
		g:      g,
		opts:   opts,
		root:   root,
		params: sqlparams.NewManager(),
	}
	scope, err := c.resolveTypes(opts.ResourceTypes)
	if err != nil {
		return nil, err
	}
	c.scope = scope
	if err := c.compile(); err != nil {
		return nil, err
	}
	q := &Query{
		Text:         c.w.String(),
		Params:       c.params,
		HasSortValue: c.sortValue && !opts.CountOnly,
		HasIncludes:  c.hasIncludes,
		CountOnly:    opts.CountOnly,
		IncludesOnly: opts.IncludesContinuationToken != nil,
	}
	g.logger.Debug("search query generated", zap.Int("stages", len(root.Stages())), zap.Int("params", c.params.Len()))
	return q, nil
}

type cte struct {
	name       string
	sortValue  bool
	otherTypes []string
}

type compilation struct {
	g      *Generator
	opts   searchopts.Options
	root   expression.Root
	params *sqlparams.Manager
	w      indentedWriter
	scope  []int16

	ctes        int
	match       *cte
	link        *cte
	sortValue   bool
	hasIncludes bool
}

func (c *compilation) compile() error {
	var includes []expression.Stage
	for _, stage := range c.root.Stages() {
		switch stage.Kind() {
		case expression.StageInclude:
			if !c.opts.CountOnly {
				includes = append(includes, stage)
			}
			continue
		case expression.StageSort:
			if c.opts.CountOnly {
				continue
			}
		}
		if err := c.stage(stage); err != nil {
			return err
		}
	}
	if c.opts.IncludesContinuationToken != nil && len(includes) == 0 {
		return NewCompilationError("an includes continuation needs include parameters")
	}

	switch {
	case c.opts.CountOnly:
		if err := c.countSelect(); err != nil {
			return err
		}
	case len(includes) > 0:
		if c.match == nil {
			return NewCompilationError("include parameters need a match stage")
		}
		c.hasIncludes = true
		if err := c.includeSelect(includes); err != nil {
			return err
		}
	default:
		if err := c.matchSelect(); err != nil {
			return err
		}
	}
	c.trailer()
	return nil
}

func (c *compilation) beginCte(target *cte) {
	if c.ctes == 0 {
		c.w.Line(";WITH")
		c.w.Line(target.name, " AS")
	} else {
		c.w.Line(",", target.name, " AS")
	}
	c.w.Line("(")
	c.w.Indent()
}

func (c *compilation) endCte() {
	c.w.Dedent()
	c.w.Line(")")
	c.ctes++
}

func (c *compilation) newCte() *cte {
	return &cte{name: "cte" + strconv.Itoa(c.ctes)}
}

func (c *compilation) stage(stage expression.Stage) error {
	switch stage.Kind() {
	case expression.StageAll:
		return c.allStage(stage)
	case expression.StageChain:
		return c.chainLinkStage(stage)
	case expression.StageSort:
		return c.sortStage(stage)
	case expression.StageNormal, expression.StageCompartment:
		if stage.ChainLevel() > 0 {
			return c.chainTerminalStage(stage)
		}
		return c.normalStage(stage)
	default:
		return NewCompilationError("unsupported stage kind %s", stage.Kind())
	}
}

func (c *compilation) render(n expression.Visitable, opts ...TsqlVisitorOption) (string, error) {
	return Render(n, c.params, c.g.model, c.g.tokenRows, opts...)
}

func (c *compilation) existsIn(source *cte, typeColumn, sidColumn string) string {
	if source == nil {
		return ""
	}
	return fmt.Sprintf("EXISTS (SELECT * FROM %s WHERE T1 = %s AND Sid1 = %s)", source.name, typeColumn, sidColumn)
}

// target describes what a table-backed stage reads.
type target struct {
	table      string
	conditions []string
	anti       bool
}

func (c *compilation) stageTarget(stage expression.Stage) (target, error) {
	switch p := stage.Predicate().(type) {
	case expression.SearchParameterNode:
		return c.parameterTarget(p)
	case expression.MultiaryNode:
		if p.Operator() == expression.OperatorAnd {
			return target{}, NewCompilationError("a stage predicate cannot be a conjunction: %s", expression.Format(p))
		}
		operands := p.Operands()
		if len(operands) == 0 {
			table := model.ResourceTable
			if stage.Kind() == expression.StageCompartment {
				table = model.ReferenceTable
			}
			return target{table: table, conditions: []string{"1 = 0"}}, nil
		}
		table := ""
		for _, operand := range operands {
			sp, ok := operand.(expression.SearchParameterNode)
			if !ok || sp.Parameter().IsResourceColumn() {
				return target{}, NewCompilationError("unsupported disjunct %s", expression.Format(operand))
			}
			if table != "" && sp.Parameter().Table() != table {
				return target{}, NewCompilationError("a disjunction cannot span %s and %s", table, sp.Parameter().Table())
			}
			table = sp.Parameter().Table()
		}
		cond, err := c.render(p)
		if err != nil {
			return target{}, err
		}
		return target{table: table, conditions: []string{cond}}, nil
	case expression.MissingNode:
		cond := "SearchParamId = " + c.params.Add(p.Parameter().ID, true)
		return target{table: p.Parameter().Table(), conditions: []string{cond}, anti: p.IsMissing()}, nil
	case expression.NotNode:
		sp, ok := p.Operand().(expression.SearchParameterNode)
		if !ok || sp.Parameter().IsResourceColumn() {
			return target{}, NewCompilationError("unsupported negation %s", expression.Format(p))
		}
		t, err := c.parameterTarget(sp)
		t.anti = true
		return t, err
	case nil:
		return target{}, NewCompilationError("%s stage without a predicate", stage.Kind())
	default:
		return target{}, NewCompilationError("unsupported stage predicate %s", expression.Format(p))
	}
}

func (c *compilation) parameterTarget(p expression.SearchParameterNode) (target, error) {
	param := p.Parameter()
	if param.IsResourceColumn() {
		t := target{table: model.ResourceTable}
		if vf := VersionFilter(c.opts.ResourceVersionTypes, ""); vf != "" {
			t.conditions = append(t.conditions, vf)
		}
		if p.Predicate() != nil {
			cond, err := c.render(p.Predicate())
			if err != nil {
				return target{}, err
			}
			t.conditions = append(t.conditions, cond)
		}
		return t, nil
	}
	t := target{
		table:      param.Table(),
		conditions: []string{"SearchParamId = " + c.params.Add(param.ID, true)},
	}
	if p.Predicate() != nil {
		cond, err := c.render(p.Predicate())
		if err != nil {
			return target{}, err
		}
		t.conditions = append(t.conditions, cond)
	}
	return t, nil
}

func (c *compilation) normalStage(stage expression.Stage) error {
	t, err := c.stageTarget(stage)
	if err != nil {
		return err
	}
	if t.anti {
		return c.antiStage(t)
	}
	out := c.newCte()
	c.beginCte(out)
	c.w.Line("SELECT ResourceTypeId AS T1, ResourceSurrogateId AS Sid1")
	c.w.Line("FROM ", t.table)
	conditions := append(t.conditions,
		c.typeFilter("ResourceTypeId", stage.PartitionHint()),
		c.existsIn(c.match, "ResourceTypeId", "ResourceSurrogateId"),
	)
	c.w.Where(conditions...)
	c.endCte()
	c.match = out
	return nil
}

// antiStage keeps the rows of the previous stage lacking a matching index row.
func (c *compilation) antiStage(t target) error {
	if c.match == nil {
		return NewCompilationError("a negated stage needs a preceding stage")
	}
	out := c.newCte()
	c.beginCte(out)
	c.w.Line("SELECT T1, Sid1")
	c.w.Line("FROM ", c.match.name)
	inner := append(t.conditions, "ResourceTypeId = T1", "ResourceSurrogateId = Sid1")
	c.w.Where(fmt.Sprintf("NOT EXISTS (SELECT * FROM %s WHERE %s)", t.table, strings.Join(inner, " AND ")))
	c.endCte()
	c.match = out
	return nil
}

func (c *compilation) allStage(stage expression.Stage) error {
	out := c.newCte()
	c.beginCte(out)
	c.w.Line("SELECT ResourceTypeId AS T1, ResourceSurrogateId AS Sid1")
	c.w.Line("FROM ", model.ResourceTable)
	c.w.Where(
		VersionFilter(c.opts.ResourceVersionTypes, ""),
		c.typeFilter("ResourceTypeId", stage.PartitionHint()),
		c.existsIn(c.match, "ResourceTypeId", "ResourceSurrogateId"),
	)
	c.endCte()
	c.match = out
	return nil
}

func (c *compilation) chainLinkStage(stage expression.Stage) error {
	chained, ok := stage.Predicate().(expression.ChainedNode)
	if !ok {
		return NewCompilationError("chain stage needs a chained predicate, got %s", expression.Format(stage.Predicate()))
	}
	current, other := "refSource", "refTarget"
	otherTypes := chained.TargetResourceTypes()
	if chained.Reversed() {
		current, other = other, current
		otherTypes = chained.SourceResourceTypes()
	}
	sources, err := c.resolveTypes(chained.SourceResourceTypes())
	if err != nil {
		return err
	}
	targets, err := c.resolveTypes(chained.TargetResourceTypes())
	if err != nil {
		return err
	}

	out := c.newCte()
	c.beginCte(out)
	if stage.ChainLevel() > 1 && c.link != nil {
		c.w.Line(fmt.Sprintf("SELECT %s.T1 AS T1, %s.Sid1 AS Sid1, %s.ResourceTypeId AS T2, %s.ResourceSurrogateId AS Sid2",
			c.link.name, c.link.name, other, other))
	} else {
		c.w.Line(fmt.Sprintf("SELECT %s.ResourceTypeId AS T1, %s.ResourceSurrogateId AS Sid1, %s.ResourceTypeId AS T2, %s.ResourceSurrogateId AS Sid2",
			current, current, other, other))
	}
	c.w.Line("FROM ", model.ReferenceTable, " refSource")
	c.w.Line("JOIN ", model.ResourceTable, " refTarget ON refSource.ReferenceResourceTypeId = refTarget.ResourceTypeId AND refSource.ReferenceResourceId = refTarget.ResourceId")
	conditions := []string{
		"refSource.SearchParamId = " + c.params.Add(chained.ReferenceParameter().ID, true),
		"refTarget.IsHistory = 0",
		c.inList("refSource.ResourceTypeId", sources),
		c.inList("refSource.ReferenceResourceTypeId", targets),
	}
	if stage.ChainLevel() > 1 && c.link != nil {
		c.w.Line(fmt.Sprintf("JOIN %s ON %s.ResourceTypeId = %s.T2 AND %s.ResourceSurrogateId = %s.Sid2",
			c.link.name, current, c.link.name, current, c.link.name))
	} else {
		conditions = append(conditions,
			c.typeFilter(current+".ResourceTypeId", stage.PartitionHint()),
			c.existsIn(c.match, current+".ResourceTypeId", current+".ResourceSurrogateId"),
		)
	}
	c.w.Where(conditions...)
	c.endCte()
	out.otherTypes = otherTypes
	c.link = out
	return nil
}

func (c *compilation) chainTerminalStage(stage expression.Stage) error {
	if c.link == nil {
		return NewCompilationError("chain terminal at level %d without a link", stage.ChainLevel())
	}
	t, err := c.stageTarget(stage)
	if err != nil {
		return err
	}
	if t.anti {
		return NewCompilationError("a chained search cannot end in a negation")
	}
	types, err := c.resolveTypes(c.link.otherTypes)
	if err != nil {
		return err
	}
	link := c.link.name
	out := c.newCte()
	c.beginCte(out)
	c.w.Line(fmt.Sprintf("SELECT %s.T1 AS T1, %s.Sid1 AS Sid1", link, link))
	c.w.Line("FROM ", t.table)
	c.w.Line(fmt.Sprintf("JOIN %s ON ResourceTypeId = %s.T2 AND ResourceSurrogateId = %s.Sid2", link, link, link))
	c.w.Where(append(t.conditions, c.inList("ResourceTypeId", types))...)
	c.endCte()
	c.match = out
	c.link = nil
	return nil
}

func (c *compilation) sortStage(stage expression.Stage) error {
	sortNode, ok := stage.Predicate().(expression.SortNode)
	if !ok {
		return NewCompilationError("sort stage needs a sort predicate, got %s", expression.Format(stage.Predicate()))
	}
	param := sortNode.Parameter()
	if sortNode.Missing() {
		return c.antiStage(target{
			table:      param.Table(),
			conditions: []string{"SearchParamId = " + c.params.Add(param.ID, true)},
		})
	}
	column, err := SortColumn(param, sortNode.Ascending())
	if err != nil {
		return err
	}
	aggregate := "MIN"
	if !sortNode.Ascending() {
		aggregate = "MAX"
	}
	out := c.newCte()
	out.sortValue = true
	c.beginCte(out)
	c.w.Line(fmt.Sprintf("SELECT ResourceTypeId AS T1, ResourceSurrogateId AS Sid1, %s(%s) AS SortValue", aggregate, column))
	c.w.Line("FROM ", param.Table())
	c.w.Where(
		"SearchParamId = "+c.params.Add(param.ID, true),
		c.typeFilter("ResourceTypeId", stage.PartitionHint()),
		c.existsIn(c.match, "ResourceTypeId", "ResourceSurrogateId"),
	)
	c.w.Line("GROUP BY ResourceTypeId, ResourceSurrogateId")
	c.endCte()
	c.match = out
	c.sortValue = true
	return nil
}

// SortColumn picks the index column ordered on for a sort parameter.
func SortColumn(param model.SearchParameter, ascending bool) (string, error) {
	switch param.Type {
	case model.TypeString:
		return string(expression.FieldText), nil
	case model.TypeNumber:
		return string(expression.FieldSingleValue), nil
	case model.TypeDate:
		if ascending {
			return string(expression.FieldStartDateTime), nil
		}
		return string(expression.FieldEndDateTime), nil
	default:
		return "", NewCompilationError("cannot sort by %s parameter %s", param.Type, param.Code)
	}
}

func (c *compilation) typeFilter(column string, hint []int16) string {
	if len(c.scope) > 0 {
		return c.inList(column, c.scope)
	}
	return c.inList(column, hint)
}

func (c *compilation) inList(column string, ids []int16) string {
	if len(ids) == 0 {
		return ""
	}
	placeholders := make([]string, 0, len(ids))
	for _, id := range ids {
		placeholders = append(placeholders, c.params.Add(id, true))
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", "))
}

func (c *compilation) resolveTypes(names []string) ([]int16, error) {
	ids := make([]int16, 0, len(names))
	for _, name := range names {
		id, ok := c.g.model.ResourceTypeID(name)
		if !ok {
			return nil, NewCompilationError("unknown resource type %q", name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *compilation) trailer() {
	if !c.opts.ReuseQueryPlans {
		c.w.Line("OPTION (RECOMPILE)")
	}
	if c.opts.CommandTimeout > 0 {
		c.w.Line(fmt.Sprintf("-- execution timeout = %d sec", int(c.opts.CommandTimeout.Seconds())))
	}
}
