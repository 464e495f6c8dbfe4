package expression

type Field string

const (
	FieldResourceTypeId          Field = "ResourceTypeId"
	FieldResourceId              Field = "ResourceId"
	FieldResourceSurrogateId     Field = "ResourceSurrogateId"
	FieldCode                    Field = "Code"
	FieldCodeOverflow            Field = "CodeOverflow"
	FieldSystemId                Field = "SystemId"
	FieldText                    Field = "Text"
	FieldSingleValue             Field = "SingleValue"
	FieldLowValue                Field = "LowValue"
	FieldHighValue               Field = "HighValue"
	FieldStartDateTime           Field = "StartDateTime"
	FieldEndDateTime             Field = "EndDateTime"
	FieldReferenceResourceTypeId Field = "ReferenceResourceTypeId"
	FieldReferenceResourceId     Field = "ReferenceResourceId"
	FieldUri                     Field = "Uri"
)

type BinaryOperator int

const (
	OperatorEqual BinaryOperator = iota
	OperatorNotEqual
	OperatorGreaterThan
	OperatorGreaterThanOrEqual
	OperatorLessThan
	OperatorLessThanOrEqual
)

func (o BinaryOperator) Symbol() string {
	switch o {
	case OperatorEqual:
		return "="
	case OperatorNotEqual:
		return "<>"
	case OperatorGreaterThan:
		return ">"
	case OperatorGreaterThanOrEqual:
		return ">="
	case OperatorLessThan:
		return "<"
	case OperatorLessThanOrEqual:
		return "<="
	default:
		return "?"
	}
}

func (o BinaryOperator) String() string {
	return o.Symbol()
}

type StringOperator int

const (
	StringEquals StringOperator = iota
	StringStartsWith
	StringEndsWith
	StringContains
)

func (o StringOperator) String() string {
	switch o {
	case StringEquals:
		return "Equals"
	case StringStartsWith:
		return "StartsWith"
	case StringEndsWith:
		return "EndsWith"
	case StringContains:
		return "Contains"
	default:
		return "Unknown"
	}
}

type MultiaryOperator int

const (
	OperatorAnd MultiaryOperator = iota
	OperatorOr
)

func (o MultiaryOperator) String() string {
	if o == OperatorOr {
		return "OR"
	}
	return "AND"
}
