package token

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// unsupported stands for a JSON object or array found where a scalar belongs.
type unsupported struct {
	raw string
}

var legacyToken = regexp.MustCompile(`^\d+$`)

// decodeArray parses a positional JSON array into Go scalars.
func decodeArray(s string) ([]any, bool) {
	if !gjson.Valid(s) {
		return nil, false
	}
	parsed := gjson.Parse(s)
	if !parsed.IsArray() {
		return nil, false
	}
	elements := parsed.Array()
	values := make([]any, 0, len(elements))
	for _, e := range elements {
		values = append(values, fromJSON(e))
	}
	return values, true
}

func fromJSON(r gjson.Result) any {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		return json.Number(r.Raw)
	case gjson.String:
		return r.Str
	default:
		return unsupported{raw: r.Raw}
	}
}

func encodeArray(values []any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(values); err != nil {
		// only scalars and strings are ever encoded
		panic(err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return uintToInt64(uint64(n))
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return uintToInt64(n)
	case float32:
		return floatToInt64(float64(n))
	case float64:
		return floatToInt64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return floatToInt64(f)
		}
		return 0, false
	default:
		return 0, false
	}
}

func toInt16(v any) (int16, bool) {
	i, ok := toInt64(v)
	if !ok || i < math.MinInt16 || i > math.MaxInt16 {
		return 0, false
	}
	return int16(i), true
}

// toSurrogateID also takes decimal strings, which older links carried.
func toSurrogateID(v any) (int64, bool) {
	if s, ok := v.(string); ok {
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return i, err == nil
	}
	return toInt64(v)
}

func uintToInt64(n uint64) (int64, bool) {
	if n > math.MaxInt64 {
		return 0, false
	}
	return int64(n), true
}

func floatToInt64(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func toSortValue(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	case bool:
		return strconv.FormatBool(s), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return numberString(s), true
	default:
		return "", false
	}
}

func numberString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
