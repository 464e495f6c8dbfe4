package expression

import (
	"fmt"
	"strings"
)

// Format renders a node for logs and test diffs.
func Format(n Visitable) string {
	if n == nil {
		return "<nil>"
	}
	v := &formatVisitor{}
	if err := n.Accept(v); err != nil {
		return "<" + err.Error() + ">"
	}
	return v.b.String()
}

type formatVisitor struct {
	b strings.Builder
}

var _ Visitor = (*formatVisitor)(nil)

func (v *formatVisitor) visit(n Visitable) error {
	if n == nil {
		v.b.WriteString("<nil>")
		return nil
	}
	return n.Accept(v)
}

func (v *formatVisitor) VisitBinary(n BinaryNode) error {
	fmt.Fprintf(&v.b, "%s %s %v", n.field, n.operator.Symbol(), n.value)
	return nil
}

func (v *formatVisitor) VisitString(n StringNode) error {
	ci := ""
	if n.ignoreCase {
		ci = "/ci"
	}
	fmt.Fprintf(&v.b, "%s %s%s %q", n.field, n.operator, ci, n.value)
	return nil
}

func (v *formatVisitor) VisitIn(n InNode) error {
	fmt.Fprintf(&v.b, "%s IN %v", n.field, n.values)
	return nil
}

func (v *formatVisitor) VisitMultiary(n MultiaryNode) error {
	v.b.WriteString(n.operator.String())
	v.b.WriteString("(")
	for i, operand := range n.operands {
		if i > 0 {
			v.b.WriteString(", ")
		}
		if err := v.visit(operand); err != nil {
			return err
		}
	}
	v.b.WriteString(")")
	return nil
}

func (v *formatVisitor) VisitNot(n NotNode) error {
	v.b.WriteString("NOT(")
	if err := v.visit(n.operand); err != nil {
		return err
	}
	v.b.WriteString(")")
	return nil
}

func (v *formatVisitor) VisitMissing(n MissingNode) error {
	fmt.Fprintf(&v.b, "Missing(%s, %t)", n.param.Code, n.isMissing)
	return nil
}

func (v *formatVisitor) VisitSearchParameter(n SearchParameterNode) error {
	fmt.Fprintf(&v.b, "Param(%s, ", n.param.Code)
	if err := v.visit(n.predicate); err != nil {
		return err
	}
	v.b.WriteString(")")
	return nil
}

func (v *formatVisitor) VisitChained(n ChainedNode) error {
	kind := "Chain"
	if n.reversed {
		kind = "RevChain"
	}
	fmt.Fprintf(&v.b, "%s(%s, %v->%v", kind, n.referenceParam.Code, n.sourceTypes, n.targetTypes)
	if n.inner != nil {
		v.b.WriteString(", ")
		if err := v.visit(n.inner); err != nil {
			return err
		}
	}
	v.b.WriteString(")")
	return nil
}

func (v *formatVisitor) VisitInclude(n IncludeNode) error {
	kind := "Include"
	if n.reversed {
		kind = "RevInclude"
	}
	if n.iterate {
		kind += ":iterate"
	}
	param := n.referenceParam.Code
	if n.wildcard {
		param = "*"
	}
	fmt.Fprintf(&v.b, "%s(%s:%s, %v)", kind, n.sourceType, param, n.targetTypes)
	return nil
}

func (v *formatVisitor) VisitSort(n SortNode) error {
	dir := "desc"
	if n.ascending {
		dir = "asc"
	}
	if n.missing {
		dir += ", missing"
	}
	fmt.Fprintf(&v.b, "Sort(%s %s)", n.param.Code, dir)
	return nil
}

func (v *formatVisitor) VisitCompartment(n CompartmentNode) error {
	fmt.Fprintf(&v.b, "Compartment(%s/%s)", n.compartmentType, n.compartmentId)
	return nil
}

func (v *formatVisitor) VisitSmartCompartment(n SmartCompartmentNode) error {
	fmt.Fprintf(&v.b, "SmartCompartment(%s/%s)", n.compartmentType, n.compartmentId)
	return nil
}
