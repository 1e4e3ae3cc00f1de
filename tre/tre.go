// Package tre scans packed TRE blocks: back-to-back records made of a
// 6 byte tag, a 5 digit length and the payload.
package tre

import (
	"errors"
	"fmt"

	"github.com/wudi/nitfkit/observability"
	"github.com/wudi/nitfkit/scanner"
)

const (
	TagSize    = 6
	LengthSize = 5
	// PrefixSize is the framing in front of every payload.
	PrefixSize = TagSize + LengthSize
	// MaxLength is the largest payload a 5 digit length can declare.
	MaxLength = 99999
)

// rpfimgTag is written by some producers with a length larger than the
// block; it is clamped to the remaining bytes.
const rpfimgTag = "RPFIMG"

var (
	ErrInvalidSize = errors.New("invalid TRE size")
	ErrTruncated   = errors.New("TRE exceeds block")
)

// Record is one TRE of a block.
type Record struct {
	Tag     string
	Offset  int
	Payload []byte
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

// tagEqual compares at most 6 bytes case-insensitively; a tag shorter
// than 6 only matches when the record tag has a NUL at that position.
func tagEqual(rec []byte, tag string) bool {
	for i := 0; i < TagSize; i++ {
		var a, b byte
		if i < len(rec) {
			a = rec[i]
		}
		if i < len(tag) {
			b = tag[i]
		}
		if lower(a) != lower(b) {
			return false
		}
		if a == 0 {
			return true
		}
	}
	return true
}

// walk calls fn for each record until it returns false.
func walk(block []byte, log observability.Logger, fn func(Record) bool) error {
	off := 0
	for len(block)-off >= PrefixSize {
		rec := block[off:]
		size := scanner.Atoi(scanner.Field(rec, TagSize, LengthSize))
		tag := scanner.Field(rec, 0, TagSize)
		if size < 0 {
			return fmt.Errorf("%w: %d for TRE %s", ErrInvalidSize, size, tag)
		}
		remaining := len(rec) - PrefixSize
		if remaining < size {
			if len(tag) == TagSize && tagEqual([]byte(tag), rpfimgTag) {
				observability.OrNop(log).Debug("adjusting RPFIMG TRE size to the remaining size",
					observability.Int("declared", size), observability.Int("remaining", remaining))
				size = remaining
			} else {
				return fmt.Errorf("%w: cannot read %s TRE, remaining %d, expected %d", ErrTruncated, tag, remaining, size)
			}
		}
		if !fn(Record{Tag: tag, Offset: off, Payload: rec[PrefixSize : PrefixSize+size]}) {
			return nil
		}
		off += PrefixSize + size
	}
	return nil
}

// Find returns the payload of the first TRE named tag, nil when absent.
func Find(block []byte, tag string, log observability.Logger) ([]byte, error) {
	return FindByIndex(block, tag, 0, log)
}

// FindByIndex returns the payload of occurrence index (0 based) of tag.
func FindByIndex(block []byte, tag string, index int, log observability.Logger) ([]byte, error) {
	var found []byte
	err := walk(block, log, func(r Record) bool {
		if !tagEqual([]byte(r.Tag), tag) {
			return true
		}
		if index <= 0 {
			found = r.Payload
			return false
		}
		index--
		return true
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Records lists every TRE of block.
func Records(block []byte, log observability.Logger) ([]Record, error) {
	var out []Record
	err := walk(block, log, func(r Record) bool {
		out = append(out, r)
		return true
	})
	return out, err
}

// Encode frames payload as a TRE record.
func Encode(tag string, payload []byte) ([]byte, error) {
	if len(payload) > MaxLength {
		return nil, fmt.Errorf("%w: %s payload of %d bytes", ErrInvalidSize, tag, len(payload))
	}
	out := make([]byte, 0, PrefixSize+len(payload))
	out = fmt.Appendf(out, "%-6s%05d", truncate(tag, TagSize), len(payload))
	return append(out, payload...), nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
