package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/expression"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/model"
)

// ordering names the columns a page is ordered and resumed by. typeColumn is
// empty when a single resource type is searched.
type ordering struct {
	sortColumn string
	sortDesc   bool
	typeColumn string
	sidColumn  string
	sidDesc    bool
}

func (c *compilation) orderingFor(matchAlias string, aliases bool) ordering {
	o := ordering{
		typeColumn: "r.ResourceTypeId",
		sidColumn:  "r.ResourceSurrogateId",
		sidDesc:    c.opts.SortsByLastUpdatedDescending(),
	}
	if aliases {
		o.typeColumn, o.sidColumn = "T1", "Sid1"
	}
	if len(c.opts.ResourceTypes) == 1 {
		o.typeColumn = ""
	}
	if c.sortValue {
		sort, _ := c.opts.PrimarySort()
		o.sortColumn = matchAlias + ".SortValue"
		if aliases {
			o.sortColumn = "SortValue"
		}
		o.sortDesc = !sort.Ascending
		o.typeColumn = ""
		o.sidDesc = false
	}
	return o
}

func direction(desc bool) string {
	if desc {
		return "DESC"
	}
	return "ASC"
}

func comparison(desc bool) string {
	if desc {
		return "<"
	}
	return ">"
}

func (o ordering) orderBy() string {
	var items []string
	if o.sortColumn != "" {
		items = append(items, o.sortColumn+" "+direction(o.sortDesc))
	}
	if o.typeColumn != "" {
		items = append(items, o.typeColumn+" "+direction(o.sidDesc))
	}
	items = append(items, o.sidColumn+" "+direction(o.sidDesc))
	return "ORDER BY " + strings.Join(items, ", ")
}

// continuation resumes after the primary continuation token. The columns
// are always the real ones since it lands in a WHERE clause.
func (c *compilation) continuation(matchAlias string) string {
	tok := c.opts.ContinuationToken
	if tok == nil {
		return ""
	}
	o := c.orderingFor(matchAlias, false)
	sid := c.params.Add(tok.ResourceSurrogateId, false)
	if o.sortColumn != "" {
		if tok.SortValue.IsNothing() {
			return fmt.Sprintf("%s > %s", o.sidColumn, sid)
		}
		value := c.params.Add(tok.SortValue.Unwrap(), false)
		return fmt.Sprintf("(%s %s %s OR (%s = %s AND %s > %s))",
			o.sortColumn, comparison(o.sortDesc), value, o.sortColumn, value, o.sidColumn, sid)
	}
	cmp := comparison(o.sidDesc)
	if o.typeColumn != "" && tok.ResourceTypeId.IsSome() {
		typeID := c.params.Add(tok.ResourceTypeId.Unwrap(), false)
		return fmt.Sprintf("(%s %s %s OR (%s = %s AND %s %s %s))",
			o.typeColumn, cmp, typeID, o.typeColumn, typeID, o.sidColumn, cmp, sid)
	}
	return fmt.Sprintf("%s %s %s", o.sidColumn, cmp, sid)
}

// resourceConditions filter the final dbo.Resource rows.
func (c *compilation) resourceConditions() ([]string, error) {
	conditions := []string{VersionFilter(c.opts.ResourceVersionTypes, "r.")}
	for _, p := range c.root.ResourcePredicates() {
		cond, err := c.render(p, ColumnPrefix("r."))
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}
	conditions = append(conditions, c.typeFilter("r.ResourceTypeId", c.root.PartitionHint()))
	return conditions, nil
}

func (c *compilation) joinMatch(alias string) {
	c.w.Line(fmt.Sprintf("JOIN %s ON r.ResourceTypeId = %s.T1 AND r.ResourceSurrogateId = %s.Sid1", alias, alias, alias))
}

func (c *compilation) countSelect() error {
	c.w.Line("SELECT COUNT_BIG(DISTINCT r.ResourceSurrogateId)")
	c.w.Line("FROM ", model.ResourceTable, " r")
	if c.match != nil {
		c.joinMatch(c.match.name)
	}
	conditions, err := c.resourceConditions()
	if err != nil {
		return err
	}
	c.w.Where(conditions...)
	return nil
}

func (c *compilation) top() string {
	return c.params.Add(c.opts.MaxItemCount+1, false)
}

func (c *compilation) matchSelect() error {
	columns := ResourceColumns + ", CAST(1 AS bit) AS IsMatch, r.RawResource"
	alias := ""
	if c.match != nil {
		alias = c.match.name
		if c.sortValue {
			columns += ", " + alias + ".SortValue"
		}
	}
	c.w.Line("SELECT DISTINCT TOP (", c.top(), ") ", columns)
	c.w.Line("FROM ", model.ResourceTable, " r")
	if c.match != nil {
		c.joinMatch(alias)
	}
	conditions, err := c.resourceConditions()
	if err != nil {
		return err
	}
	c.w.Where(append(conditions, c.continuation(alias))...)
	c.w.Line(c.orderingFor(alias, false).orderBy())
	return nil
}

func (c *compilation) includeSelect(includes []expression.Stage) error {
	page := c.newCte()
	page.sortValue = c.sortValue
	if err := c.matchPage(page); err != nil {
		return err
	}

	type produced struct {
		cte   *cte
		types []string
	}
	var previous []produced
	var members []*cte
	for _, stage := range includes {
		include, ok := stage.Predicate().(expression.IncludeNode)
		if !ok {
			return NewCompilationError("include stage needs an include predicate, got %s", expression.Format(stage.Predicate()))
		}
		sources := []*cte{page}
		if include.Iterate() {
			consumed := include.ConsumedResourceTypes()
			for _, p := range previous {
				if overlaps(p.types, consumed) {
					sources = append(sources, p.cte)
				}
			}
		}
		for _, source := range sources {
			out, err := c.includeCte(include, source)
			if err != nil {
				return err
			}
			members = append(members, out)
			previous = append(previous, produced{cte: out, types: include.ProducedResourceTypes()})
		}
	}

	union := c.newCte()
	c.beginCte(union)
	for i, member := range append([]*cte{page}, members...) {
		if i > 0 {
			c.w.Line("UNION ALL")
		}
		switch {
		case !c.sortValue:
			c.w.Line("SELECT T1, Sid1, IsMatch FROM ", member.name)
		case member.sortValue:
			c.w.Line("SELECT T1, Sid1, IsMatch, SortValue FROM ", member.name)
		default:
			c.w.Line("SELECT T1, Sid1, IsMatch, NULL AS SortValue FROM ", member.name)
		}
	}
	c.endCte()

	columns := ResourceColumns + ", CAST(" + union.name + ".IsMatch AS bit) AS IsMatch, r.RawResource"
	if c.sortValue {
		columns += ", " + union.name + ".SortValue"
	}
	if tok := c.opts.IncludesContinuationToken; tok != nil {
		top := c.params.Add(c.opts.IncludeCount+1, false)
		c.w.Line("SELECT DISTINCT TOP (", top, ") ", columns)
		c.w.Line("FROM ", model.ResourceTable, " r")
		c.joinMatch(union.name)
		conditions := []string{
			union.name + ".IsMatch = 0",
			fmt.Sprintf("NOT EXISTS (SELECT * FROM %s WHERE %s.T1 = r.ResourceTypeId AND %s.Sid1 = r.ResourceSurrogateId)", page.name, page.name, page.name),
		}
		if tok.HasIncludePosition() {
			typeID := c.params.Add(tok.IncludeResourceTypeId.Unwrap(), false)
			sid := c.params.Add(tok.IncludeResourceSurrogateId.Unwrap(), false)
			conditions = append(conditions, fmt.Sprintf("(r.ResourceTypeId > %s OR (r.ResourceTypeId = %s AND r.ResourceSurrogateId > %s))", typeID, typeID, sid))
		}
		c.w.Where(conditions...)
		c.w.Line("ORDER BY r.ResourceTypeId ASC, r.ResourceSurrogateId ASC")
		return nil
	}

	c.w.Line("SELECT DISTINCT ", columns)
	c.w.Line("FROM ", model.ResourceTable, " r")
	c.joinMatch(union.name)
	// Matches keep the page order so the last one is the continuation point.
	if c.sortValue {
		sort, _ := c.opts.PrimarySort()
		c.w.Line("ORDER BY IsMatch DESC, ", union.name, ".SortValue ", direction(!sort.Ascending),
			", r.ResourceSurrogateId ASC, r.ResourceTypeId ASC")
		return nil
	}
	c.w.Line("ORDER BY IsMatch DESC, r.ResourceTypeId ASC, r.ResourceSurrogateId ASC")
	return nil
}

// matchPage limits the match set to one page before includes are resolved.
func (c *compilation) matchPage(page *cte) error {
	source := c.match.name
	c.beginCte(page)
	if tok := c.opts.IncludesContinuationToken; tok != nil {
		c.w.Line(fmt.Sprintf("SELECT DISTINCT %s.T1 AS T1, %s.Sid1 AS Sid1, 1 AS IsMatch", source, source))
		c.w.Line("FROM ", source)
		c.w.Where(
			fmt.Sprintf("%s.T1 = %s", source, c.params.Add(tok.MatchResourceTypeId, false)),
			fmt.Sprintf("%s.Sid1 >= %s", source, c.params.Add(tok.MatchResourceSurrogateIdMin, false)),
			fmt.Sprintf("%s.Sid1 <= %s", source, c.params.Add(tok.MatchResourceSurrogateIdMax, false)),
		)
		c.endCte()
		page.sortValue = false
		return nil
	}
	columns := fmt.Sprintf("%s.T1 AS T1, %s.Sid1 AS Sid1, 1 AS IsMatch", source, source)
	if c.sortValue {
		columns += fmt.Sprintf(", %s.SortValue AS SortValue", source)
	}
	c.w.Line("SELECT DISTINCT TOP (", c.top(), ") ", columns)
	c.w.Line("FROM ", source)
	c.w.Line(fmt.Sprintf("JOIN %s r ON r.ResourceTypeId = %s.T1 AND r.ResourceSurrogateId = %s.Sid1", model.ResourceTable, source, source))
	conditions, err := c.resourceConditions()
	if err != nil {
		return err
	}
	c.w.Where(append(conditions, c.continuation(source))...)
	c.w.Line(c.orderingFor(source, true).orderBy())
	c.endCte()
	return nil
}

func (c *compilation) includeCte(include expression.IncludeNode, source *cte) (*cte, error) {
	out, in := "refTarget", "refSource"
	if include.Reversed() {
		out, in = in, out
	}
	sourceType, err := c.resolveTypes([]string{include.SourceResourceType()})
	if err != nil {
		return nil, err
	}
	targets, err := c.resolveTypes(include.TargetResourceTypes())
	if err != nil {
		return nil, err
	}
	paging := c.opts.IncludesContinuationToken == nil

	included := c.newCte()
	c.beginCte(included)
	top := ""
	if paging {
		top = "TOP (" + strconv.Itoa(c.opts.IncludeCount+1) + ") "
	}
	c.w.Line(fmt.Sprintf("SELECT DISTINCT %s%s.ResourceTypeId AS T1, %s.ResourceSurrogateId AS Sid1, 0 AS IsMatch", top, out, out))
	c.w.Line("FROM ", model.ReferenceTable, " refSource")
	c.w.Line("JOIN ", model.ResourceTable, " refTarget ON refSource.ReferenceResourceTypeId = refTarget.ResourceTypeId AND refSource.ReferenceResourceId = refTarget.ResourceId")
	searchParam := ""
	if !include.Wildcard() {
		searchParam = "refSource.SearchParamId = " + c.params.Add(include.ReferenceParameter().ID, true)
	}
	c.w.Where(
		searchParam,
		"refTarget.IsHistory = 0",
		"refTarget.IsDeleted = 0",
		c.inList("refSource.ResourceTypeId", sourceType),
		c.inList("refSource.ReferenceResourceTypeId", targets),
		fmt.Sprintf("EXISTS (SELECT * FROM %s WHERE %s.ResourceTypeId = T1 AND %s.ResourceSurrogateId = Sid1)", source.name, in, in),
	)
	if paging {
		c.w.Line("ORDER BY T1, Sid1")
	}
	c.endCte()
	return included, nil
}

func overlaps(produced, consumed []string) bool {
	if len(produced) == 0 || len(consumed) == 0 {
		return true
	}
	for _, p := range produced {
		for _, q := range consumed {
			if p == q {
				return true
			}
		}
	}
	return false
}
