package protocol

import "fmt"

// StringTable maps small integer ids to strings for one decoding session.
// Ids are assigned by the sender; the viewer only accepts definitions in
// first-seen order and resolves bare ids afterwards. A new session (e.g.
// switching to a different test case's stream) starts with a fresh table.
type StringTable struct {
	byID map[int]string
}

// NewStringTable creates an empty string table.
func NewStringTable() *StringTable {
	return &StringTable{byID: make(map[int]string, 64)}
}

// Define registers or overwrites the mapping for id.
func (t *StringTable) Define(id int, value string) {
	t.byID[id] = value
}

// Resolve decodes a potentially interned value: a [id, "name"] pair registers
// the mapping and returns the name, a bare integer id is looked up, a plain
// string passes through. An id with no prior definition resolves to a
// "<unknown:id>" placeholder rather than an error, so a late-joining viewer
// or an out-of-order message degrades one field's display instead of
// crashing the pipeline.
func (t *StringTable) Resolve(value any) string {
	if value == nil {
		return ""
	}
	if id, ok := asInt(value); ok {
		if s, defined := t.byID[id]; defined {
			return s
		}
		return fmt.Sprintf("<unknown:%d>", id)
	}
	switch v := value.(type) {
	case string:
		return v
	case []any:
		if len(v) == 2 {
			if id, ok := asInt(v[0]); ok {
				if s, ok := v[1].(string); ok {
					t.byID[id] = s
					return s
				}
			}
		}
	}
	return fmt.Sprintf("%v", value)
}

// Len returns the number of defined ids.
func (t *StringTable) Len() int {
	return len(t.byID)
}

// Reset clears all definitions. Ids are only meaningful within one table
// instance, so a new decoding session must start from an empty table.
func (t *StringTable) Reset() {
	t.byID = make(map[int]string, 64)
}

// asInt normalizes the integer types MessagePack decoding can produce.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n == float64(int64(n)) {
			return int(n), true
		}
	}
	return 0, false
}
