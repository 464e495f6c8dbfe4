package expression

import (
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/model"
)

type Visitable interface {
	Accept(Visitor) error
}

type Visitor interface {
	VisitBinary(BinaryNode) error
	VisitString(StringNode) error
	VisitIn(InNode) error
	VisitMultiary(MultiaryNode) error
	VisitNot(NotNode) error
	VisitMissing(MissingNode) error
	VisitSearchParameter(SearchParameterNode) error
	VisitChained(ChainedNode) error
	VisitInclude(IncludeNode) error
	VisitSort(SortNode) error
	VisitCompartment(CompartmentNode) error
	VisitSmartCompartment(SmartCompartmentNode) error
}

func Binary(field Field, operator BinaryOperator, value any) BinaryNode {
	return BinaryNode{
		field:    field,
		operator: operator,
		value:    value,
	}
}

func Equal(field Field, value any) BinaryNode {
	return Binary(field, OperatorEqual, value)
}

func GreaterThan(field Field, value any) BinaryNode {
	return Binary(field, OperatorGreaterThan, value)
}

func GreaterThanOrEqual(field Field, value any) BinaryNode {
	return Binary(field, OperatorGreaterThanOrEqual, value)
}

func LessThan(field Field, value any) BinaryNode {
	return Binary(field, OperatorLessThan, value)
}

func LessThanOrEqual(field Field, value any) BinaryNode {
	return Binary(field, OperatorLessThanOrEqual, value)
}

type BinaryNode struct {
	field    Field
	operator BinaryOperator
	value    any
}

func (n BinaryNode) Field() Field {
	return n.field
}
func (n BinaryNode) Operator() BinaryOperator {
	return n.operator
}
func (n BinaryNode) Value() any {
	return n.value
}
func (n BinaryNode) Accept(v Visitor) error {
	return v.VisitBinary(n)
}

func String(field Field, operator StringOperator, value string, ignoreCase bool) StringNode {
	return StringNode{
		field:      field,
		operator:   operator,
		value:      value,
		ignoreCase: ignoreCase,
	}
}

type StringNode struct {
	field      Field
	operator   StringOperator
	value      string
	ignoreCase bool
}

func (n StringNode) Field() Field {
	return n.field
}
func (n StringNode) Operator() StringOperator {
	return n.operator
}
func (n StringNode) Value() string {
	return n.value
}
func (n StringNode) IgnoreCase() bool {
	return n.ignoreCase
}
func (n StringNode) Accept(v Visitor) error {
	return v.VisitString(n)
}

func In(field Field, values ...any) InNode {
	return InNode{
		field:  field,
		values: values,
	}
}

type InNode struct {
	field  Field
	values []any
}

func (n InNode) Field() Field {
	return n.field
}
func (n InNode) Values() []any {
	return append([]any(nil), n.values...)
}
func (n InNode) Accept(v Visitor) error {
	return v.VisitIn(n)
}

// And and Or keep their operands flat; Or() with no operands is false.
func And(operands ...Visitable) MultiaryNode {
	return Multiary(OperatorAnd, operands...)
}

func Or(operands ...Visitable) MultiaryNode {
	return Multiary(OperatorOr, operands...)
}

func Multiary(operator MultiaryOperator, operands ...Visitable) MultiaryNode {
	return MultiaryNode{
		operator: operator,
		operands: operands,
	}
}

type MultiaryNode struct {
	operator MultiaryOperator
	operands []Visitable
}

func (n MultiaryNode) Operator() MultiaryOperator {
	return n.operator
}
func (n MultiaryNode) Operands() []Visitable {
	return append([]Visitable(nil), n.operands...)
}
func (n MultiaryNode) Accept(v Visitor) error {
	return v.VisitMultiary(n)
}

func Not(operand Visitable) NotNode {
	return NotNode{
		operand: operand,
	}
}

type NotNode struct {
	operand Visitable
}

func (n NotNode) Operand() Visitable {
	return n.operand
}
func (n NotNode) Accept(v Visitor) error {
	return v.VisitNot(n)
}

// Missing matches resources with (isMissing) or without any index row
// for the parameter.
func Missing(param model.SearchParameter, isMissing bool) MissingNode {
	return MissingNode{
		param:     param,
		isMissing: isMissing,
	}
}

type MissingNode struct {
	param     model.SearchParameter
	isMissing bool
}

func (n MissingNode) Parameter() model.SearchParameter {
	return n.param
}
func (n MissingNode) IsMissing() bool {
	return n.isMissing
}
func (n MissingNode) Accept(v Visitor) error {
	return v.VisitMissing(n)
}

func SearchParameter(param model.SearchParameter, predicate Visitable) SearchParameterNode {
	return SearchParameterNode{
		param:     param,
		predicate: predicate,
	}
}

type SearchParameterNode struct {
	param     model.SearchParameter
	predicate Visitable
}

func (n SearchParameterNode) Parameter() model.SearchParameter {
	return n.param
}
func (n SearchParameterNode) Predicate() Visitable {
	return n.predicate
}
func (n SearchParameterNode) WithPredicate(predicate Visitable) SearchParameterNode {
	n.predicate = predicate
	return n
}
func (n SearchParameterNode) Accept(v Visitor) error {
	return v.VisitSearchParameter(n)
}

// Chained filters sourceTypes by a property of the targetTypes they reference.
// A reversed chain filters targets by the sources referencing them.
func Chained(referenceParam model.SearchParameter, sourceTypes, targetTypes []string, reversed bool, inner Visitable) ChainedNode {
	return ChainedNode{
		referenceParam: referenceParam,
		sourceTypes:    sourceTypes,
		targetTypes:    targetTypes,
		reversed:       reversed,
		inner:          inner,
	}
}

type ChainedNode struct {
	referenceParam model.SearchParameter
	sourceTypes    []string
	targetTypes    []string
	reversed       bool
	inner          Visitable
}

func (n ChainedNode) ReferenceParameter() model.SearchParameter {
	return n.referenceParam
}
func (n ChainedNode) SourceResourceTypes() []string {
	return append([]string(nil), n.sourceTypes...)
}
func (n ChainedNode) TargetResourceTypes() []string {
	return append([]string(nil), n.targetTypes...)
}
func (n ChainedNode) Reversed() bool {
	return n.reversed
}
func (n ChainedNode) Inner() Visitable {
	return n.inner
}
func (n ChainedNode) WithInner(inner Visitable) ChainedNode {
	n.inner = inner
	return n
}
func (n ChainedNode) Accept(v Visitor) error {
	return v.VisitChained(n)
}

// Include pulls in resources referenced by (or, reversed, referencing) the
// matches. Wildcard includes follow every reference parameter.
func Include(referenceParam model.SearchParameter, sourceType string, targetTypes []string, reversed, iterate, wildcard bool) IncludeNode {
	return IncludeNode{
		referenceParam: referenceParam,
		sourceType:     sourceType,
		targetTypes:    targetTypes,
		reversed:       reversed,
		iterate:        iterate,
		wildcard:       wildcard,
	}
}

type IncludeNode struct {
	referenceParam model.SearchParameter
	sourceType     string
	targetTypes    []string
	reversed       bool
	iterate        bool
	wildcard       bool
}

func (n IncludeNode) ReferenceParameter() model.SearchParameter {
	return n.referenceParam
}
func (n IncludeNode) SourceResourceType() string {
	return n.sourceType
}
func (n IncludeNode) TargetResourceTypes() []string {
	return append([]string(nil), n.targetTypes...)
}
func (n IncludeNode) Reversed() bool {
	return n.reversed
}
func (n IncludeNode) Iterate() bool {
	return n.iterate
}
func (n IncludeNode) Wildcard() bool {
	return n.wildcard
}

// ProducedResourceTypes are the types an include adds to the result.
func (n IncludeNode) ProducedResourceTypes() []string {
	if n.reversed {
		return []string{n.sourceType}
	}
	return n.TargetResourceTypes()
}

// ConsumedResourceTypes are the types an include reads from.
func (n IncludeNode) ConsumedResourceTypes() []string {
	if n.reversed {
		return n.TargetResourceTypes()
	}
	return []string{n.sourceType}
}
func (n IncludeNode) Accept(v Visitor) error {
	return v.VisitInclude(n)
}

func Sort(param model.SearchParameter, ascending, missing bool) SortNode {
	return SortNode{
		param:     param,
		ascending: ascending,
		missing:   missing,
	}
}

// SortNode with missing set selects the rows lacking a sort value.
type SortNode struct {
	param     model.SearchParameter
	ascending bool
	missing   bool
}

func (n SortNode) Parameter() model.SearchParameter {
	return n.param
}
func (n SortNode) Ascending() bool {
	return n.ascending
}
func (n SortNode) Missing() bool {
	return n.missing
}
func (n SortNode) Accept(v Visitor) error {
	return v.VisitSort(n)
}

func Compartment(compartmentType, compartmentId string, resourceTypes ...string) CompartmentNode {
	return CompartmentNode{
		compartmentType: compartmentType,
		compartmentId:   compartmentId,
		resourceTypes:   resourceTypes,
	}
}

type CompartmentNode struct {
	compartmentType string
	compartmentId   string
	resourceTypes   []string
}

func (n CompartmentNode) CompartmentType() string {
	return n.compartmentType
}
func (n CompartmentNode) CompartmentId() string {
	return n.compartmentId
}

// ResourceTypes narrows the member types; empty means every member type.
func (n CompartmentNode) ResourceTypes() []string {
	return append([]string(nil), n.resourceTypes...)
}
func (n CompartmentNode) Accept(v Visitor) error {
	return v.VisitCompartment(n)
}

func SmartCompartment(compartmentType, compartmentId string, resourceTypes ...string) SmartCompartmentNode {
	return SmartCompartmentNode{
		CompartmentNode: Compartment(compartmentType, compartmentId, resourceTypes...),
	}
}

// SmartCompartmentNode is a compartment scoped by a launch context.
type SmartCompartmentNode struct {
	CompartmentNode
}

func (n SmartCompartmentNode) Accept(v Visitor) error {
	return v.VisitSmartCompartment(n)
}
