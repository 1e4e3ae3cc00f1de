package raw

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Entry is one name/value pair of a Metadata list.
type Entry struct {
	Key   string
	Value string
}

// Metadata is an ordered name/value list. Lookups by Get are
// case-insensitive and return the first match; FindFromEnd is exact and
// returns the last one. The zero value is empty and ready to use.
type Metadata struct {
	entries []Entry
}

// Set replaces the value of an existing key in place, or appends.
func (m *Metadata) Set(key, value string) {
	for i := range m.entries {
		if strings.EqualFold(m.entries[i].Key, key) {
			m.entries[i].Value = value
			return
		}
	}
	m.entries = append(m.entries, Entry{key, value})
}

// Append adds an entry without looking for an existing one.
func (m *Metadata) Append(key, value string) {
	m.entries = append(m.entries, Entry{key, value})
}

// Get returns the value of the first entry named key.
func (m *Metadata) Get(key string) (string, bool) {
	for _, e := range m.entries {
		if strings.EqualFold(e.Key, key) {
			return e.Value, true
		}
	}
	return "", false
}

// Value is Get without the presence flag.
func (m *Metadata) Value(key string) string {
	v, _ := m.Get(key)
	return v
}

// ValueDef returns the value of key or def when it is absent.
func (m *Metadata) ValueDef(key, def string) string {
	if v, ok := m.Get(key); ok {
		return v
	}
	return def
}

// FindFromEnd returns the value of the last entry whose key is exactly key.
func (m *Metadata) FindFromEnd(key string) (string, bool) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].Key == key {
			return m.entries[i].Value, true
		}
	}
	return "", false
}

func (m *Metadata) Len() int { return len(m.entries) }

// Entries returns the underlying list; callers must not modify it.
func (m *Metadata) Entries() []Entry { return m.entries }

func (m *Metadata) Keys() []string {
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

func (m *Metadata) Clone() Metadata {
	return Metadata{entries: append([]Entry(nil), m.entries...)}
}

func (m *Metadata) Reset() { m.entries = nil }

// Map flattens the list; later duplicates win.
func (m *Metadata) Map() map[string]string {
	out := make(map[string]string, len(m.entries))
	for _, e := range m.entries {
		out[e.Key] = e.Value
	}
	return out
}

// Each calls fn for every entry in order until fn returns false.
func (m *Metadata) Each(fn func(key, value string) bool) {
	for _, e := range m.entries {
		if !fn(e.Key, e.Value) {
			return
		}
	}
}

// MarshalJSON encodes the list as an object with keys in list order.
func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
