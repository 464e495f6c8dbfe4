package sqlgen

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/expression"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/model"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/sqlparams"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/tokenrow"
)

const caseInsensitiveCollation = "Latin1_General_100_CI_AI_SC"

const (
	precedenceOr         = 40
	precedenceAnd        = 50
	precedenceNot        = 60
	precedenceComparison = 80
)

var errUnknownSystem = errors.New("unknown system")

type TsqlVisitorOption func(*TsqlVisitor)

// ColumnPrefix qualifies every column, e.g. "r." or "refSource.".
func ColumnPrefix(prefix string) TsqlVisitorOption {
	return func(v *TsqlVisitor) {
		v.prefix = prefix
	}
}

func OuterPrecedence(precedence int) TsqlVisitorOption {
	return func(v *TsqlVisitor) {
		v.precedence = precedence
	}
}

// TsqlVisitor renders a predicate tree as T-SQL, binding every literal
// through the parameter manager.
type TsqlVisitor struct {
	sql        string
	params     *sqlparams.Manager
	model      model.Model
	tokenRows  tokenrow.Generator
	prefix     string
	precedence int
}

var _ expression.Visitor = (*TsqlVisitor)(nil)

func NewTsqlVisitor(params *sqlparams.Manager, m model.Model, tokenRows tokenrow.Generator, opts ...TsqlVisitorOption) *TsqlVisitor {
	v := &TsqlVisitor{
		params:    params,
		model:     m,
		tokenRows: tokenRows,
	}
	for i := range opts {
		opts[i](v)
	}
	return v
}

func (v *TsqlVisitor) Result() string {
	return v.sql
}

func (v *TsqlVisitor) visit(precedence int, callable func() error) error {
	outerPrecedence := v.precedence
	v.precedence = precedence
	if precedence < outerPrecedence {
		v.sql += "("
	}
	err := callable()
	if err != nil {
		return err
	}
	if precedence < outerPrecedence {
		v.sql += ")"
	}
	v.precedence = outerPrecedence
	return nil
}

func (v *TsqlVisitor) column(field expression.Field) string {
	return v.prefix + string(field)
}

func (v *TsqlVisitor) VisitBinary(n expression.BinaryNode) error {
	if code, ok := n.Value().(string); ok && n.Field() == expression.FieldCode && n.Operator() == expression.OperatorEqual {
		if _, overflow := v.tokenRows.SplitCode(code); overflow.IsSome() {
			return v.tokenRows.CodeEquals(code).Accept(v)
		}
	}
	return v.visit(precedenceComparison, func() error {
		if n.Value() == nil {
			switch n.Operator() {
			case expression.OperatorEqual:
				v.sql += v.column(n.Field()) + " IS NULL"
				return nil
			case expression.OperatorNotEqual:
				v.sql += v.column(n.Field()) + " IS NOT NULL"
				return nil
			}
		}
		placeholder, err := v.bind(n.Field(), n.Value())
		if errors.Is(err, errUnknownSystem) {
			v.sql += "1 = 0"
			return nil
		}
		if err != nil {
			return err
		}
		v.sql += fmt.Sprintf("%s %s %s", v.column(n.Field()), n.Operator().Symbol(), placeholder)
		return nil
	})
}

func (v *TsqlVisitor) VisitString(n expression.StringNode) error {
	return v.visit(precedenceComparison, func() error {
		col := v.column(n.Field())
		if n.IgnoreCase() {
			col += " COLLATE " + caseInsensitiveCollation
		}
		var op, value string
		switch n.Operator() {
		case expression.StringEquals:
			op, value = "=", n.Value()
		case expression.StringStartsWith:
			op, value = "LIKE", EscapeLike(n.Value())+"%"
		case expression.StringEndsWith:
			op, value = "LIKE", "%"+EscapeLike(n.Value())
		case expression.StringContains:
			op, value = "LIKE", "%"+EscapeLike(n.Value())+"%"
		default:
			return NewCompilationError("unsupported string operator %s", n.Operator())
		}
		v.sql += fmt.Sprintf("%s %s %s", col, op, v.params.Add(value, false))
		return nil
	})
}

func (v *TsqlVisitor) VisitIn(n expression.InNode) error {
	return v.visit(precedenceComparison, func() error {
		values := n.Values()
		if len(values) == 0 {
			v.sql += "1 = 0"
			return nil
		}
		placeholders := make([]string, 0, len(values))
		for _, value := range values {
			converted, hashed, err := v.convert(n.Field(), value)
			if errors.Is(err, errUnknownSystem) {
				continue
			}
			if err != nil {
				return err
			}
			// literal lists stay out of the hash however they are typed
			placeholders = append(placeholders, v.params.Add(converted, hashed && len(values) == 1))
		}
		if len(placeholders) == 0 {
			v.sql += "1 = 0"
			return nil
		}
		v.sql += fmt.Sprintf("%s IN (%s)", v.column(n.Field()), strings.Join(placeholders, ", "))
		return nil
	})
}

func (v *TsqlVisitor) VisitMultiary(n expression.MultiaryNode) error {
	operands := n.Operands()
	if len(operands) == 0 {
		return v.visit(precedenceComparison, func() error {
			if n.Operator() == expression.OperatorOr {
				v.sql += "1 = 0"
			} else {
				v.sql += "1 = 1"
			}
			return nil
		})
	}
	if len(operands) == 1 {
		return operands[0].Accept(v)
	}
	precedence, separator := precedenceAnd, " AND "
	if n.Operator() == expression.OperatorOr {
		precedence, separator = precedenceOr, " OR "
	}
	return v.visit(precedence, func() error {
		for i, operand := range operands {
			if i > 0 {
				v.sql += separator
			}
			if err := operand.Accept(v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (v *TsqlVisitor) VisitNot(n expression.NotNode) error {
	return v.visit(precedenceNot, func() error {
		v.sql += "NOT "
		outer := v.precedence
		v.precedence = precedenceComparison + 1
		err := n.Operand().Accept(v)
		v.precedence = outer
		return err
	})
}

// VisitSearchParameter renders one disjunct of a multi-parameter stage.
func (v *TsqlVisitor) VisitSearchParameter(n expression.SearchParameterNode) error {
	wrap := v.precedence > 0
	if wrap {
		v.sql += "("
	}
	outer := v.precedence
	v.precedence = precedenceAnd
	v.sql += v.prefix + "SearchParamId = " + v.params.Add(n.Parameter().ID, true)
	if n.Predicate() != nil {
		v.sql += " AND "
		if err := n.Predicate().Accept(v); err != nil {
			return err
		}
	}
	v.precedence = outer
	if wrap {
		v.sql += ")"
	}
	return nil
}

func (v *TsqlVisitor) VisitMissing(n expression.MissingNode) error {
	return v.unsupported(n)
}

func (v *TsqlVisitor) VisitChained(n expression.ChainedNode) error {
	return v.unsupported(n)
}

func (v *TsqlVisitor) VisitInclude(n expression.IncludeNode) error {
	return v.unsupported(n)
}

func (v *TsqlVisitor) VisitSort(n expression.SortNode) error {
	return v.unsupported(n)
}

func (v *TsqlVisitor) VisitCompartment(n expression.CompartmentNode) error {
	return v.unsupported(n)
}

func (v *TsqlVisitor) VisitSmartCompartment(n expression.SmartCompartmentNode) error {
	return v.unsupported(n)
}

func (v *TsqlVisitor) unsupported(n expression.Visitable) error {
	return NewCompilationError("%s cannot appear inside a predicate", expression.Format(n))
}

func (v *TsqlVisitor) bind(field expression.Field, value any) (string, error) {
	converted, hashed, err := v.convert(field, value)
	if err != nil {
		return "", err
	}
	return v.params.Add(converted, hashed), nil
}

// convert maps names to ids and reports whether the value shapes the plan.
func (v *TsqlVisitor) convert(field expression.Field, value any) (any, bool, error) {
	switch field {
	case expression.FieldResourceTypeId, expression.FieldReferenceResourceTypeId:
		if name, ok := value.(string); ok {
			id, ok := v.model.ResourceTypeID(name)
			if !ok {
				return nil, false, NewCompilationError("unknown resource type %q", name)
			}
			return id, true, nil
		}
		return value, true, nil
	case expression.FieldSystemId:
		if system, ok := value.(string); ok {
			id, ok := v.model.SystemID(system)
			if !ok {
				return nil, false, errUnknownSystem
			}
			return id, true, nil
		}
		return value, true, nil
	case expression.FieldResourceSurrogateId:
		if t, ok := value.(time.Time); ok {
			return model.SurrogateIDFromTime(t), false, nil
		}
		return value, false, nil
	default:
		return value, false, nil
	}
}

// EscapeLike protects LIKE wildcards in a literal.
func EscapeLike(s string) string {
	r := strings.NewReplacer("[", "[[]", "%", "[%]", "_", "[_]")
	return r.Replace(s)
}

// Render compiles a predicate as a condition joinable with AND.
func Render(n expression.Visitable, params *sqlparams.Manager, m model.Model, tokenRows tokenrow.Generator, opts ...TsqlVisitorOption) (string, error) {
	opts = append([]TsqlVisitorOption{OuterPrecedence(precedenceAnd)}, opts...)
	v := NewTsqlVisitor(params, m, tokenRows, opts...)
	if err := n.Accept(v); err != nil {
		return "", err
	}
	return v.Result(), nil
}
