package simplifier

import (
	"math"
	"math/big"
	"regexp"
	"sort"
	"strings"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/sqlparams"
)

const tautology = "1 = 1"

var (
	rangeComparison = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_.]*)\s*(>=|<=|>|<)\s*(@p\d+)`)
	orKeyword       = regexp.MustCompile(`(?i)\bOR\b`)
)

type comparison struct {
	start, end int
	column     string
	operator   string
	value      *big.Float
}

func (c comparison) lower() bool {
	return c.operator == ">" || c.operator == ">="
}

// tighter reports whether c excludes at least what other excludes.
func (c comparison) tighter(other comparison) bool {
	cmp := c.value.Cmp(other.value)
	if c.lower() {
		return cmp > 0 || (cmp == 0 && (c.operator == ">" || other.operator == ">="))
	}
	return cmp < 0 || (cmp == 0 && (c.operator == "<" || other.operator == "<="))
}

// RemoveRedundantParameters rewrites range comparisons dominated by a
// tighter bound on the same column to 1 = 1 and drops DISTINCT. Only the
// single-table query shape is touched: any CTE, any OR or any non-numeric
// bound leaves the text unchanged.
func RemoveRedundantParameters(text string, params *sqlparams.Manager) string {
	if strings.Contains(text, "cte") || orKeyword.MatchString(text) {
		return text
	}
	var comparisons []comparison
	for _, m := range rangeComparison.FindAllStringSubmatchIndex(text, -1) {
		if params == nil {
			return text
		}
		value, ok := params.Value(text[m[6]:m[7]])
		if !ok {
			return text
		}
		number, ok := numeric(value)
		if !ok {
			return text
		}
		comparisons = append(comparisons, comparison{
			start:    m[0],
			end:      m[1],
			column:   text[m[2]:m[3]],
			operator: text[m[4]:m[5]],
			value:    number,
		})
	}

	type bound struct {
		column string
		lower  bool
	}
	best := map[bound]int{}
	for i, c := range comparisons {
		key := bound{c.column, c.lower()}
		j, ok := best[key]
		if !ok || (c.tighter(comparisons[j]) && !comparisons[j].tighter(c)) {
			best[key] = i
		}
	}
	var dominated []comparison
	for i, c := range comparisons {
		if best[bound{c.column, c.lower()}] != i {
			dominated = append(dominated, c)
		}
	}
	sort.Slice(dominated, func(i, j int) bool { return dominated[i].start > dominated[j].start })
	for _, c := range dominated {
		text = text[:c.start] + tautology + text[c.end:]
	}
	return strings.Replace(text, "SELECT DISTINCT ", "SELECT ", 1)
}

func numeric(value any) (*big.Float, bool) {
	f := new(big.Float).SetPrec(128)
	switch v := value.(type) {
	case int:
		return f.SetInt64(int64(v)), true
	case int16:
		return f.SetInt64(int64(v)), true
	case int32:
		return f.SetInt64(int64(v)), true
	case int64:
		return f.SetInt64(v), true
	case float64:
		if math.IsNaN(v) {
			return nil, false
		}
		return f.SetFloat64(v), true
	default:
		return nil, false
	}
}
