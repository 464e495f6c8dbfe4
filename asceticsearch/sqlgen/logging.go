package sqlgen

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/sqlparams"
)

// StripForLogging reduces a query to the statement that matters for
// comparison: DECLARE and SET STATISTICS lines, the timeout comment and the
// hash comment are dropped and blank lines collapsed.
func StripForLogging(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "SET STATISTICS"),
			strings.HasPrefix(trimmed, "DECLARE "),
			strings.HasPrefix(trimmed, "-- execution timeout"),
			strings.HasPrefix(trimmed, "/* HASH"):
			continue
		case trimmed == "":
			if blank || len(kept) == 0 {
				continue
			}
			blank = true
		default:
			blank = false
		}
		kept = append(kept, strings.TrimRight(line, " \t"))
	}
	out := strings.TrimSpace(strings.Join(kept, "\n"))
	if strings.HasPrefix(out, ";WITH") {
		out = out[1:]
	}
	return out
}

// FormatForLogging prefixes the query with DECLARE lines so it can be pasted
// into a SQL console as is.
func FormatForLogging(text string, params *sqlparams.Manager) string {
	var b strings.Builder
	if params != nil {
		for _, p := range params.Parameters() {
			typ, literal := declaration(p.Value)
			fmt.Fprintf(&b, "DECLARE %s %s = %s\n", p.Placeholder(), typ, literal)
		}
	}
	if b.Len() > 0 {
		b.WriteByte('\n')
	}
	b.WriteString(text)
	return b.String()
}

func declaration(value any) (string, string) {
	switch v := value.(type) {
	case nil:
		return "sql_variant", "NULL"
	case bool:
		if v {
			return "bit", "1"
		}
		return "bit", "0"
	case int16:
		return "smallint", strconv.FormatInt(int64(v), 10)
	case int32:
		return "int", strconv.FormatInt(int64(v), 10)
	case int:
		return "int", strconv.Itoa(v)
	case int64:
		return "bigint", strconv.FormatInt(v, 10)
	case float64:
		return "decimal(36,18)", strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return "datetime2(7)", "'" + v.UTC().Format("2006-01-02T15:04:05.0000000") + "'"
	case string:
		size := len([]rune(v))
		if size == 0 {
			size = 1
		}
		typ := "nvarchar(" + strconv.Itoa(size) + ")"
		if size > 4000 {
			typ = "nvarchar(max)"
		}
		return typ, "N'" + strings.ReplaceAll(v, "'", "''") + "'"
	default:
		s := fmt.Sprint(v)
		return "nvarchar(max)", "N'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
}
