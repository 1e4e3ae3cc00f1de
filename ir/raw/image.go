package raw

import (
	"fmt"
	"strings"

	"github.com/wudi/nitfkit/scanner"
	"github.com/wudi/nitfkit/security"
)

// Band is one band entry of an image subheader.
type Band struct {
	IREPBAND string
	ISUBCAT  string
	IFC      string
	IMFLT    string
	// LUTs holds NLUTS lookup tables of NELUT entries each.
	LUTs [][]byte
}

// Image is the parsed subheader of an IM segment.
type Image struct {
	Segment  *Segment
	Metadata Metadata

	Rows   int
	Cols   int
	PVType string
	IREP   string
	ICAT   string
	ABPP   int
	PJUST  string
	ICORDS string
	IGEOLO string

	Comments []string

	IC     string
	COMRAT string
	Bands  []Band

	ISYNC int
	IMODE string
	NBPR  int
	NBPC  int
	NPPBH int
	NPPBV int
	NBPP  int

	IDLVL int
	IALVL int
	ILOC  Location
	IMAG  string

	UDID []byte

	// TRE is the IXSHD block without its overflow indicator.
	TRE []byte
	// IXSHDLOffset is the position of IXSHDL within the subheader, -1 when
	// the subheader ends before it.
	IXSHDLOffset int
}

func (*Image) Close() error { return nil }

// ImageAccess parses the subheader of IM segment i. The result is cached
// on the segment.
func (f *File) ImageAccess(i int) (*Image, error) {
	seg, err := f.segment(i, SegmentImage)
	if err != nil {
		return nil, err
	}
	if img, ok := seg.Access.(*Image); ok {
		return img, nil
	}
	hdr, err := f.ReadAt(seg.HeaderStart, int(seg.HeaderSize))
	if err != nil {
		return nil, fmt.Errorf("image segment %d: %w", i, err)
	}
	img, err := ParseImageSubheader(hdr, f.Version)
	if err != nil {
		return nil, fmt.Errorf("image segment %d: %w", i, err)
	}
	img.Segment = seg
	seg.Access = img
	return img, nil
}

// ParseImageSubheader decodes an image subheader of the given version.
func ParseImageSubheader(hdr []byte, version string) (*Image, error) {
	if len(hdr) < 2 || !strings.EqualFold(string(hdr[:2]), "IM") {
		return nil, fmt.Errorf("not an image subheader")
	}
	img := &Image{IXSHDLOffset: -1}
	md := &img.Metadata
	c := scanner.NewCursor(hdr, 2)
	v20 := security.Is20(version)

	c.Extract(md, 10, "NITF_IID1")
	c.Extract(md, 14, "NITF_IDATIM")
	c.Extract(md, 17, "NITF_TGTID")
	if v20 {
		c.Extract(md, 80, "NITF_ITITLE")
	} else {
		c.Extract(md, 80, "NITF_IID2")
	}
	extractSecurity(c, md, version, "NITF_IS")
	c.Extract(md, 1, "NITF_ENCRYP")
	c.Extract(md, 42, "NITF_ISORCE")
	img.Rows = c.Int(8)
	img.Cols = c.Int(8)
	md.Set("NITF_NROWS", fmt.Sprint(img.Rows))
	md.Set("NITF_NCOLS", fmt.Sprint(img.Cols))
	img.PVType = c.Extract(md, 3, "NITF_PVTYPE")
	img.IREP = c.Extract(md, 8, "NITF_IREP")
	img.ICAT = c.Extract(md, 8, "NITF_ICAT")
	img.ABPP = c.Int(2)
	md.Set("NITF_ABPP", fmt.Sprint(img.ABPP))
	img.PJUST = c.Extract(md, 1, "NITF_PJUST")
	img.ICORDS = c.Next(1)
	if img.ICORDS != " " && img.ICORDS != "N" && c.Err() == nil {
		md.Set("NITF_ICORDS", img.ICORDS)
		img.IGEOLO = c.Extract(md, 60, "NITF_IGEOLO")
	}

	nicom := c.Int(1)
	var comments strings.Builder
	for j := 0; j < nicom; j++ {
		b := c.Bytes(80)
		if b == nil {
			break
		}
		s := scanner.Latin1ToUTF8(b)
		img.Comments = append(img.Comments, strings.TrimRight(s, " "))
		comments.WriteString(s)
	}
	if nicom > 0 {
		md.Set("NITF_IMAGE_COMMENTS", strings.TrimRight(comments.String(), " "))
	}

	img.IC = c.Extract(md, 2, "NITF_IC")
	if img.IC != "NC" && img.IC != "NM" {
		img.COMRAT = c.Extract(md, 4, "NITF_COMRAT")
	}

	nbands := c.Int(1)
	if nbands == 0 {
		nbands = c.Int(5)
	}
	for b := 0; b < nbands && c.Err() == nil; b++ {
		band := Band{
			IREPBAND: strings.TrimRight(c.Next(2), " "),
			ISUBCAT:  strings.TrimRight(c.Next(6), " "),
			IFC:      c.Next(1),
			IMFLT:    c.Next(3),
		}
		nluts := c.Int(1)
		if nluts > 0 {
			nelut := c.Int(5)
			for l := 0; l < nluts; l++ {
				lut := c.Bytes(nelut)
				if lut == nil {
					break
				}
				band.LUTs = append(band.LUTs, lut)
			}
		}
		img.Bands = append(img.Bands, band)
	}
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("band table: %w", err)
	}

	img.ISYNC = c.Int(1)
	img.IMODE = c.Extract(md, 1, "NITF_IMODE")
	img.NBPR = c.Int(4)
	img.NBPC = c.Int(4)
	img.NPPBH = c.Int(4)
	img.NPPBV = c.Int(4)
	img.NBPP = c.Int(2)
	img.IDLVL = c.Int(3)
	img.IALVL = c.Int(3)
	img.ILOC = Location{Row: c.Int(5), Col: c.Int(5)}
	img.IMAG = c.Extract(md, 4, "NITF_IMAG")
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("blocking fields: %w", err)
	}
	md.Set("NITF_IDLVL", fmt.Sprint(img.IDLVL))
	md.Set("NITF_IALVL", fmt.Sprint(img.IALVL))
	md.Set("NITF_ILOC_ROW", fmt.Sprint(img.ILOC.Row))
	md.Set("NITF_ILOC_COLUMN", fmt.Sprint(img.ILOC.Col))

	if c.Remaining() >= 5 {
		udidl := c.Int(5)
		if udidl > 3 {
			c.Skip(3)
			img.UDID = c.Bytes(udidl - 3)
		}
	}
	if c.Remaining() >= 5 {
		img.IXSHDLOffset = c.Pos()
		ixshdl := c.Int(5)
		if ixshdl > 3 {
			c.Skip(3)
			img.TRE = c.Bytes(ixshdl - 3)
		}
	}
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("extension data: %w", err)
	}
	return img, nil
}

// extractSecurity reads a security block at the cursor, adding the
// downgrade event field of 2.0 blocks when present.
func extractSecurity(c *scanner.Cursor, md *Metadata, version, prefix string) {
	for _, fld := range security.Layout(version) {
		c.Extract(md, fld.Width, fld.Key(prefix))
	}
	if security.Is20(version) && md.Value(prefix+"DWNG") == security.DowngradeMarker {
		c.Extract(md, security.DowngradeEventSize, prefix+"DEVT")
	}
}
