package tokenrow

import (
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/expression"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/option"
)

const (
	DefaultCodeMaxLength       = 256
	DefaultTruncatedCodeLength = 128
)

// System identifies a code system either by resolved id or by raw uri.
type System struct {
	SystemId    option.Option[int32]
	SystemValue option.Option[string]
}

// NewSystem keeps the raw value only when no id is known.
func NewSystem(id option.Option[int32], value option.Option[string]) System {
	if id.IsSome() {
		return System{SystemId: id}
	}
	return System{SystemValue: value}
}

type Row struct {
	System       System
	Code         string
	CodeOverflow option.Option[string]
}

// Generator fans a token out into index rows. Widths count runes.
type Generator struct {
	// CodeMaxLength is the width of the Code column; longer codes spill
	// into CodeOverflow.
	CodeMaxLength int
	// TruncatedCodeLength is the prefix width of the secondary row used by
	// narrow index scans.
	TruncatedCodeLength int
}

func NewGenerator() Generator {
	return Generator{
		CodeMaxLength:       DefaultCodeMaxLength,
		TruncatedCodeLength: DefaultTruncatedCodeLength,
	}
}

// Generate returns the full row, followed by a truncated-prefix row when the
// code is wider than TruncatedCodeLength.
func (g Generator) Generate(system System, code string) []Row {
	system = NewSystem(system.SystemId, system.SystemValue)
	runes := []rune(code)

	first := Row{System: system, Code: code}
	if len(runes) > g.CodeMaxLength {
		first.Code = string(runes[:g.CodeMaxLength])
		first.CodeOverflow = option.Some(string(runes[g.CodeMaxLength:]))
	}
	rows := []Row{first}

	if len(runes) > g.TruncatedCodeLength {
		rows = append(rows, Row{
			System: system,
			Code:   string(runes[:g.TruncatedCodeLength]),
		})
	}
	return rows
}

// SplitCode divides a search value the way Generate stores it.
func (g Generator) SplitCode(code string) (string, option.Option[string]) {
	runes := []rune(code)
	if len(runes) <= g.CodeMaxLength {
		return code, option.Nothing[string]()
	}
	return string(runes[:g.CodeMaxLength]), option.Some(string(runes[g.CodeMaxLength:]))
}

// CodeEquals matches a token code, comparing the overflow column for codes
// that do not fit the Code column.
func (g Generator) CodeEquals(code string) expression.Visitable {
	head, overflow := g.SplitCode(code)
	if overflow.IsNothing() {
		return expression.Equal(expression.FieldCode, code)
	}
	return expression.And(
		expression.Equal(expression.FieldCode, head),
		expression.Equal(expression.FieldCodeOverflow, overflow.Unwrap()),
	)
}
