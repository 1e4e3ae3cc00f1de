package raw

import (
	"fmt"
	"strings"

	"github.com/wudi/nitfkit/scanner"
	"github.com/wudi/nitfkit/security"
)

// Text is the parsed subheader of a TX segment.
type Text struct {
	Segment  *Segment
	Metadata Metadata

	ID     string
	ALVL   int
	Format string
	TRE    []byte
}

func (*Text) Close() error { return nil }

// TextAccess parses the subheader of TX segment i.
func (f *File) TextAccess(i int) (*Text, error) {
	seg, err := f.segment(i, SegmentText)
	if err != nil {
		return nil, err
	}
	if t, ok := seg.Access.(*Text); ok {
		return t, nil
	}
	hdr, err := f.ReadAt(seg.HeaderStart, int(seg.HeaderSize))
	if err != nil {
		return nil, fmt.Errorf("text segment %d: %w", i, err)
	}
	t, err := ParseTextSubheader(hdr, f.Version)
	if err != nil {
		return nil, fmt.Errorf("text segment %d: %w", i, err)
	}
	t.Segment = seg
	seg.Access = t
	return t, nil
}

// ParseTextSubheader decodes a text subheader.
func ParseTextSubheader(hdr []byte, version string) (*Text, error) {
	if len(hdr) < 2 || !strings.EqualFold(string(hdr[:2]), "TE") {
		return nil, fmt.Errorf("not a text subheader")
	}
	t := &Text{}
	md := &t.Metadata
	c := scanner.NewCursor(hdr, 2)
	if security.Is20(version) {
		t.ID = c.Extract(md, 10, "NITF_TEXTID")
	} else {
		t.ID = c.Extract(md, 7, "NITF_TEXTID")
		t.ALVL = c.Int(3)
		md.Set("NITF_TXTALVL", fmt.Sprint(t.ALVL))
	}
	c.Extract(md, 14, "NITF_TXTDT")
	c.Extract(md, 80, "NITF_TXTITL")
	extractSecurity(c, md, version, "NITF_TS")
	c.Extract(md, 1, "NITF_ENCRYP")
	t.Format = c.Extract(md, 3, "NITF_TXTFMT")
	if err := c.Err(); err != nil {
		return nil, err
	}
	if c.Remaining() >= 5 {
		if n := c.Int(5); n > 3 {
			c.Skip(3)
			t.TRE = c.Bytes(n - 3)
		}
		if err := c.Err(); err != nil {
			return nil, fmt.Errorf("extension data: %w", err)
		}
	}
	return t, nil
}
