// Package scanner reads the fixed-width ASCII fields NITF headers are
// made of.
package scanner

import (
	"errors"

	"golang.org/x/text/encoding/charmap"
)

// ErrShortBuffer is returned when a field extends past the buffer.
var ErrShortBuffer = errors.New("field extends past end of buffer")

// Setter receives extracted name/value pairs.
type Setter interface {
	Set(key, value string)
}

// Field returns buf[start:start+length] as a string, clamped to buf.
func Field(buf []byte, start, length int) string {
	if start < 0 || length <= 0 || start >= len(buf) {
		return ""
	}
	end := start + length
	if end > len(buf) {
		end = len(buf)
	}
	return string(buf[start:end])
}

// Extract trims trailing spaces from a Latin-1 field, recodes it to UTF-8
// and stores it under key. Zero or negative lengths are ignored.
func Extract(md Setter, buf []byte, start, length int, key string) {
	if length <= 0 {
		return
	}
	md.Set(key, Latin1ToUTF8(TrimRight(field(buf, start, length))))
}

// ExtractUTF8 is Extract for fields that are already UTF-8.
func ExtractUTF8(md Setter, buf []byte, start, length int, key string) {
	if length <= 0 {
		return
	}
	md.Set(key, string(TrimRight(field(buf, start, length))))
}

func field(buf []byte, start, length int) []byte {
	if start < 0 || start >= len(buf) {
		return nil
	}
	end := start + length
	if end > len(buf) {
		end = len(buf)
	}
	return buf[start:end]
}

// TrimRight drops trailing ASCII spaces only.
func TrimRight(b []byte) []byte {
	n := len(b)
	for n > 0 && b[n-1] == ' ' {
		n--
	}
	return b[:n]
}

// Latin1ToUTF8 decodes ISO-8859-1 bytes.
func Latin1ToUTF8(b []byte) string {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// UTF8ToLatin1 encodes s as ISO-8859-1; runes outside the charset
// become '?'.
func UTF8ToLatin1(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := charmap.ISO8859_1.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}
