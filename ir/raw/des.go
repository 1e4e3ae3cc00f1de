package raw

import (
	"fmt"
	"strings"

	"github.com/wudi/nitfkit/scanner"
	"github.com/wudi/nitfkit/security"
)

// OverflowDESID names the DES type carrying TRE overflow from headers.
const OverflowDESID = "TRE_OVERFLOW"

// DES is the parsed subheader of a DE segment. Metadata keys carry no
// NITF_ prefix (DESID, DESVER, DESCLAS, ..., DESSHL).
type DES struct {
	Segment  *Segment
	Metadata Metadata

	// Header is the complete subheader.
	Header []byte

	ID       string
	Version  int
	Overflow string
	Item     int

	// UserSubheaderOffset is the position of the DESSHF bytes in Header,
	// 200 or 209 for TRE_OVERFLOW segments.
	UserSubheaderOffset int
	UserSubheader       []byte
}

func (*DES) Close() error { return nil }

// DESAccess parses the subheader of DE segment i. The result is cached on
// the segment.
func (f *File) DESAccess(i int) (*DES, error) {
	seg, err := f.segment(i, SegmentDataExtension)
	if err != nil {
		return nil, err
	}
	if d, ok := seg.Access.(*DES); ok {
		return d, nil
	}
	hdr, err := f.ReadAt(seg.HeaderStart, int(seg.HeaderSize))
	if err != nil {
		return nil, fmt.Errorf("DES segment %d: %w", i, err)
	}
	d, err := ParseDESSubheader(hdr, f.Version)
	if err != nil {
		return nil, fmt.Errorf("DES segment %d: %w", i, err)
	}
	d.Segment = seg
	seg.Access = d
	return d, nil
}

func isOverflow(id string, v20 bool) bool {
	if v20 {
		return id == "Registered Extensions" || id == "Controlled Extensions"
	}
	return id == OverflowDESID
}

// ParseDESSubheader decodes a data extension subheader.
func ParseDESSubheader(hdr []byte, version string) (*DES, error) {
	if len(hdr) < 2 || !strings.EqualFold(string(hdr[:2]), "DE") {
		return nil, fmt.Errorf("not a DES subheader")
	}
	d := &DES{Header: hdr}
	md := &d.Metadata
	c := scanner.NewCursor(hdr, 2)
	v20 := security.Is20(version)

	d.ID = c.Extract(md, 25, "DESID")
	d.Version = c.Int(2)
	md.Set("DESVER", fmt.Sprintf("%02d", d.Version))
	extractSecurity(c, md, version, "DES")
	if isOverflow(d.ID, v20) {
		d.Overflow = c.Extract(md, 6, "DESOFLW")
		d.Item = c.Int(3)
		md.Set("DESITEM", fmt.Sprintf("%03d", d.Item))
	}
	shl := c.Int(4)
	if err := c.Err(); err != nil {
		return nil, err
	}
	md.Set("DESSHL", fmt.Sprintf("%04d", shl))
	d.UserSubheaderOffset = c.Pos()
	if shl > 0 {
		d.UserSubheader = c.Bytes(shl)
		if err := c.Err(); err != nil {
			return nil, fmt.Errorf("user subheader: %w", err)
		}
	}
	return d, nil
}
