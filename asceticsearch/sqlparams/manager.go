package sqlparams

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

type Parameter struct {
	Name          string
	Value         any
	IncludeInHash bool
}

// Placeholder is the name as it appears in query text.
func (p Parameter) Placeholder() string {
	return "@" + p.Name
}

// Manager binds query parameters and digests the hash-relevant ones.
// Large literal sets are added outside the hash so they do not fragment
// the plan cache.
type Manager struct {
	params []Parameter
	byName map[string]int
	digest *xxhash.Digest
}

func NewManager() *Manager {
	return &Manager{
		byName: map[string]int{},
		digest: xxhash.New(),
	}
}

// Add binds value and returns its placeholder.
func (m *Manager) Add(value any, includeInHash bool) string {
	name := "p" + strconv.Itoa(len(m.params))
	m.byName[name] = len(m.params)
	m.params = append(m.params, Parameter{Name: name, Value: value, IncludeInHash: includeInHash})
	if includeInHash {
		writeValue(m.digest, value)
	}
	return "@" + name
}

// Value looks a parameter up by placeholder ("@p3") or name ("p3").
func (m *Manager) Value(placeholder string) (any, bool) {
	name := placeholder
	if len(name) > 0 && name[0] == '@' {
		name = name[1:]
	}
	i, ok := m.byName[name]
	if !ok {
		return nil, false
	}
	return m.params[i].Value, true
}

func (m *Manager) Len() int {
	return len(m.params)
}

func (m *Manager) Parameters() []Parameter {
	return append([]Parameter(nil), m.params...)
}

func (m *Manager) NamedArgs() []any {
	args := make([]any, 0, len(m.params))
	for _, p := range m.params {
		args = append(args, sql.Named(p.Name, p.Value))
	}
	return args
}

// Hash is the hex digest of the hash-relevant values added so far.
func (m *Manager) Hash() string {
	return fmt.Sprintf("%016X", m.digest.Sum64())
}

type digestWriter interface {
	Write([]byte) (int, error)
	WriteString(string) (int, error)
}

func writeValue(d digestWriter, value any) {
	var buf [9]byte
	writeInt := func(tag byte, v uint64) {
		buf[0] = tag
		binary.BigEndian.PutUint64(buf[1:], v)
		_, _ = d.Write(buf[:])
	}
	writeString := func(tag byte, s string) {
		writeInt(tag, uint64(len(s)))
		_, _ = d.WriteString(s)
	}

	switch v := value.(type) {
	case nil:
		_, _ = d.Write([]byte{'n'})
	case bool:
		if v {
			writeInt('b', 1)
		} else {
			writeInt('b', 0)
		}
	case int:
		writeInt('i', uint64(v))
	case int16:
		writeInt('i', uint64(v))
	case int32:
		writeInt('i', uint64(v))
	case int64:
		writeInt('i', uint64(v))
	case float64:
		writeInt('f', math.Float64bits(v))
	case string:
		writeString('s', v)
	case []byte:
		writeString('y', string(v))
	case time.Time:
		writeString('t', v.UTC().Format(time.RFC3339Nano))
	default:
		writeString('v', fmt.Sprintf("%T:%v", v, v))
	}
}
