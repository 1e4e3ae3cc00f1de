// Package xref walks the segment directory of an NITF file header and
// resolves streaming file headers.
package xref

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wudi/nitfkit/ir/raw"
	"github.com/wudi/nitfkit/observability"
	"github.com/wudi/nitfkit/scanner"
)

// ErrDirectory reports a segment directory that does not fit the header
// or holds negative lengths.
var ErrDirectory = errors.New("invalid segment directory")

// brokenDESHeaderSize is declared by DMAAC A.TOC files whose DES
// subheaders really are 209 bytes long.
const (
	brokenDESHeaderSize = 207
	fixedDESHeaderSize  = 209
)

// Directory is the result of walking all segment tables.
type Directory struct {
	Segments []*raw.Segment
	// End is the header offset just past the RE table.
	End int
	// NextData is the file offset following the last segment.
	NextData uint64
}

// Walk reads the six segment tables of hdr starting at offset start, the
// position of NUMI. Segment data is laid out from len(hdr) onwards.
func Walk(hdr []byte, start int, log observability.Logger) (*Directory, error) {
	d := &Directory{End: start, NextData: uint64(len(hdr))}
	for _, t := range raw.SegmentTypes {
		segs, end, err := CollectSegments(hdr, d.End, t, &d.NextData, log)
		if err != nil {
			return nil, err
		}
		d.Segments = append(d.Segments, segs...)
		d.End = end
	}
	return d, nil
}

// CollectSegments reads the table of segment type t at hdr[offset:] and
// returns its descriptors with the offset following the table. next is
// the running data offset; it is advanced past every segment.
func CollectSegments(hdr []byte, offset int, t raw.SegmentType, next *uint64, log observability.Logger) ([]*raw.Segment, int, error) {
	log = observability.OrNop(log)
	if len(hdr) < offset+3 {
		return nil, -1, fmt.Errorf("%w: not enough bytes to read %s segment count", ErrDirectory, t.Code())
	}
	count := scanner.Atoi(scanner.Field(hdr, offset, 3))
	if count <= 0 {
		return nil, offset + 3, nil
	}

	hw, dw := t.HeaderLenWidth(), t.DataLenWidth()
	entry := hw + dw
	if len(hdr) < offset+3+count*entry {
		return nil, -1, fmt.Errorf("%w: not enough bytes to read %s segment info", ErrDirectory, t.Code())
	}

	segs := make([]*raw.Segment, 0, count)
	for i := 0; i < count; i++ {
		pos := offset + 3 + i*entry
		seg := raw.NewSegment(t)
		seg.DirectoryOffset = pos

		hs := scanner.Field(hdr, pos, hw)
		if strings.Contains(hs, "-") {
			return nil, -1, fmt.Errorf("%w: invalid segment header size %q", ErrDirectory, hs)
		}
		seg.HeaderSize = uint64(scanner.Atoi(hs))
		if t == raw.SegmentDataExtension && seg.HeaderSize == brokenDESHeaderSize {
			log.Debug("correcting DES header size",
				observability.Int("declared", brokenDESHeaderSize),
				observability.Int("actual", fixedDESHeaderSize))
			seg.HeaderSize = fixedDESHeaderSize
		}

		ds := scanner.Field(hdr, pos+hw, dw)
		if strings.Contains(ds, "-") {
			return nil, -1, fmt.Errorf("%w: invalid segment size %q", ErrDirectory, ds)
		}
		seg.DataSize = scanner.ScanUint(ds)

		seg.HeaderStart = *next
		seg.DataStart = *next + seg.HeaderSize
		*next += seg.HeaderSize + seg.DataSize
		segs = append(segs, seg)
	}
	return segs, offset + 3 + count*entry, nil
}
