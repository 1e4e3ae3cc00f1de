package writer

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/wudi/nitfkit/tre"
)

// overflowIndicator is the IXSOFL/XHDLOFL field written before the
// first TRE of a block.
const overflowIndicator = "000"

// writeTRE appends one TRE to the extension block whose length pair
// (UDIDL/IXSHDL or UDHDL/XHDL) starts at udidl. off is the running
// subheader length and is advanced past the written bytes.
func (w *fieldWriter) writeTRE(udidl uint64, off *int, maxLen int, name string, data []byte) error {
	old := w.readInt(udidl+5, 5)
	if old == 0 {
		old = len(overflowIndicator)
		w.place(udidl+10, overflowIndicator)
		*off += len(overflowIndicator)
	}
	if old+tre.PrefixSize+len(data) > maxLen {
		return fmt.Errorf("%w: TRE %s of %d bytes does not fit the extension block", ErrTooBig, name, len(data))
	}
	rec, err := tre.Encode(name, data)
	if err != nil {
		return err
	}
	w.placef(udidl+5, "%05d", old+len(rec))
	w.placeBytes(udidl+10+uint64(old), rec)
	*off += len(rec)
	return w.err
}

// writeTREsFromOptions writes every option starting with prefix
// ("TRE=" or "FILE_TRE=") as NAME=contents, or HEX/NAME=hexdigits.
// Contents are backslash-unescaped.
func (w *fieldWriter) writeTREsFromOptions(udidl uint64, off *int, maxLen int, prefix string) error {
	ignoreBLOCKA := w.opts.Has("BLOCKA_BLOCK_COUNT")
	reserve := w.opts.Has("RESERVE_SPACE_FOR_TRE_OVERFLOW")

	for _, o := range w.opts {
		if !hasPrefixFold(o, prefix) {
			continue
		}
		rest := o[len(prefix):]
		if ignoreBLOCKA && hasPrefixFold(rest, "BLOCKA=") {
			continue
		}
		isHex := hasPrefixFold(rest, "HEX/")
		if isHex {
			rest = rest[4:]
		}
		eq := strings.IndexByte(rest, '=')
		if eq < 0 {
			return fmt.Errorf("%w: could not parse %s", ErrInvalidOption, rest)
		}
		name := rest[:min(eq, tre.TagSize)]
		contents := unescapeBackslash(rest[eq+1:])
		if isHex {
			if len(contents)%2 != 0 {
				return fmt.Errorf("%w: could not parse %s: invalid hex data", ErrInvalidOption, rest)
			}
			decoded, err := hex.DecodeString(string(contents))
			if err != nil {
				return fmt.Errorf("%w: could not parse %s: %v", ErrInvalidOption, rest, err)
			}
			contents = decoded
		}
		if err := w.writeTRE(udidl, off, maxLen, name, contents); err != nil {
			return err
		}
	}

	if reserve && w.readInt(udidl+5, 5) == 0 {
		w.placef(udidl+5, "%05d", len(overflowIndicator))
		w.place(udidl+10, overflowIndicator)
		*off += len(overflowIndicator)
	}
	return w.err
}

type blockaField struct {
	name        string
	start, size int
}

var blockaFields = []blockaField{
	{"BLOCK_INSTANCE", 0, 2},
	{"N_GRAY", 2, 5},
	{"L_LINES", 7, 5},
	{"LAYOVER_ANGLE", 12, 3},
	{"SHADOW_ANGLE", 15, 3},
	{"BLANKS", 18, 16},
	{"FRLC_LOC", 34, 21},
	{"LRLC_LOC", 55, 21},
	{"LRFC_LOC", 76, 21},
	{"FRFC_LOC", 97, 21},
}

const blockaSize = 123

// writeBLOCKA writes one BLOCKA TRE per block from the
// BLOCKA_<FIELD>_<NN> options, values right aligned.
func (w *fieldWriter) writeBLOCKA(udidl uint64, off *int, maxLen int) error {
	count := w.optInt("BLOCKA_BLOCK_COUNT", "0")
	for block := 1; block <= count; block++ {
		buf := make([]byte, blockaSize)
		for _, f := range blockaFields {
			key := fmt.Sprintf("BLOCKA_%s_%02d", f.name, block)
			v := w.opts.Get(key, "")
			if len(v) > f.size {
				return fmt.Errorf("%w: too much data for %s: got %d bytes, max allowed is %d",
					ErrInvalidOption, key, len(v), f.size)
			}
			field := buf[f.start : f.start+f.size]
			for i := range field {
				field[i] = ' '
			}
			copy(field[f.size-len(v):], v)
		}
		copy(buf[118:], "010.0")
		if err := w.writeTRE(udidl, off, maxLen, "BLOCKA", buf); err != nil {
			return err
		}
	}
	return nil
}
