package writer

import (
	"strings"
)

// Options is a list of KEY=VALUE creation options. Keys compare
// case-insensitively and the first occurrence wins; TRE=, FILE_TRE= and
// DES= may be repeated.
type Options []string

// splitOption returns the key and value of a KEY=VALUE or KEY:VALUE
// entry.
func splitOption(s string) (key, value string, ok bool) {
	i := strings.IndexAny(s, "=:")
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// Lookup returns the value of the first entry named key.
func (o Options) Lookup(key string) (string, bool) {
	for _, s := range o {
		k, v, ok := splitOption(s)
		if ok && strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// Has reports whether key is set.
func (o Options) Has(key string) bool {
	_, ok := o.Lookup(key)
	return ok
}

// Get returns the value of key, or def when it is not set.
func (o Options) Get(key, def string) string {
	if v, ok := o.Lookup(key); ok {
		return v
	}
	return def
}

// Bool reports whether key is set to anything but NO, FALSE, OFF or 0.
func (o Options) Bool(key string) bool {
	v, ok := o.Lookup(key)
	if !ok {
		return false
	}
	switch strings.ToUpper(v) {
	case "NO", "FALSE", "OFF", "0":
		return false
	}
	return true
}

// Count returns the number of entries named key.
func (o Options) Count(key string) int {
	n := 0
	for _, s := range o {
		if k, _, ok := splitOption(s); ok && strings.EqualFold(k, key) {
			n++
		}
	}
	return n
}

// With returns a copy of o with key set to value, replacing the first
// existing entry.
func (o Options) With(key, value string) Options {
	out := make(Options, len(o), len(o)+1)
	copy(out, o)
	for i, s := range out {
		if k, _, ok := splitOption(s); ok && strings.EqualFold(k, key) {
			out[i] = key + "=" + value
			return out
		}
	}
	return append(out, key+"="+value)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// unescapeBackslash resolves \n, \0 and \<c> sequences.
func unescapeBackslash(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		i++
		if i == len(s) {
			break
		}
		switch s[i] {
		case 'n':
			out = append(out, '\n')
		case '0':
			out = append(out, 0)
		default:
			out = append(out, s[i])
		}
	}
	return out
}
