package raw

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestMetadataSetOverwritesInPlace(t *testing.T) {
	var md Metadata
	md.Set("A", "1")
	md.Set("B", "2")
	md.Set("a", "3")
	if md.Len() != 2 {
		t.Fatalf("len = %d, want 2", md.Len())
	}
	if got := md.Keys(); got[0] != "A" || got[1] != "B" {
		t.Fatalf("keys = %v", got)
	}
	if v := md.Value("A"); v != "3" {
		t.Fatalf("A = %q, want 3", v)
	}
}

func TestMetadataFindFromEnd(t *testing.T) {
	var md Metadata
	md.Append("X", "first")
	md.Append("X", "second")
	md.Append("x", "lower")
	if v, _ := md.Get("X"); v != "first" {
		t.Fatalf("Get = %q", v)
	}
	if v, _ := md.FindFromEnd("X"); v != "second" {
		t.Fatalf("FindFromEnd = %q", v)
	}
	if _, ok := md.FindFromEnd("Y"); ok {
		t.Fatalf("unexpected match")
	}
	c := md.Clone()
	c.Set("X", "changed")
	if md.Value("X") != "first" {
		t.Fatalf("clone shares storage")
	}
}

func TestSegmentTypes(t *testing.T) {
	widths := map[string][2]int{
		"IM": {6, 10}, "GR": {4, 6}, "LA": {4, 3},
		"TX": {4, 5}, "DE": {4, 9}, "RE": {4, 7},
	}
	for _, st := range SegmentTypes {
		w := widths[st.Code()]
		if st.HeaderLenWidth() != w[0] || st.DataLenWidth() != w[1] {
			t.Errorf("%s widths = %d,%d", st.Code(), st.HeaderLenWidth(), st.DataLenWidth())
		}
		got, err := ParseSegmentType(strings.ToLower(st.Code()))
		if err != nil || got != st {
			t.Errorf("ParseSegmentType(%s) = %v, %v", st.Code(), got, err)
		}
	}
	if got, _ := ParseSegmentType("SY"); got != SegmentGraphic {
		t.Errorf("SY = %v", got)
	}
	if _, err := ParseSegmentType("ZZ"); err == nil {
		t.Errorf("expected error for ZZ")
	}
}

type fieldBuf struct{ bytes.Buffer }

func (b *fieldBuf) put(width int, v string) {
	fmt.Fprintf(b, "%-*s", width, v)
}

func imageSubheader(ixshd string) []byte {
	var b fieldBuf
	b.put(2, "IM")
	b.put(10, "Missing")
	b.put(14, "20261019120000")
	b.put(17, "")
	b.put(80, "title")
	b.put(167, "U")
	b.put(1, "0")
	b.put(42, "source")
	b.put(8, "00000100")
	b.put(8, "00000200")
	b.put(3, "INT")
	b.put(8, "MONO")
	b.put(8, "VIS")
	b.put(2, "08")
	b.put(1, "R")
	b.put(1, "G")
	b.put(60, "325959N0845959W325959N0845959W325959N0845959W325959N0845959W")
	b.put(1, "1")
	b.put(80, "comment")
	b.put(2, "NC")
	b.put(1, "1")
	b.put(2, "M")
	b.put(6, "")
	b.put(1, "N")
	b.put(3, "")
	b.put(1, "0")
	b.put(1, "0")
	b.put(1, "B")
	b.put(4, "0001")
	b.put(4, "0001")
	b.put(4, "0200")
	b.put(4, "0100")
	b.put(2, "08")
	b.put(3, "002")
	b.put(3, "001")
	b.put(10, "0001000020")
	b.put(4, "1.0")
	b.put(5, "00000")
	if ixshd == "" {
		b.put(5, "00000")
	} else {
		fmt.Fprintf(&b, "%05d000%s", len(ixshd)+3, ixshd)
	}
	return b.Bytes()
}

func TestParseImageSubheader(t *testing.T) {
	img, err := ParseImageSubheader(imageSubheader("BLOCKA00003abc"), "NITF02.10")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if img.Rows != 100 || img.Cols != 200 {
		t.Fatalf("size = %dx%d", img.Rows, img.Cols)
	}
	if img.IDLVL != 2 || img.IALVL != 1 || img.ILOC != (Location{10, 20}) {
		t.Fatalf("placement = %d %d %+v", img.IDLVL, img.IALVL, img.ILOC)
	}
	if len(img.Bands) != 1 || img.Bands[0].IREPBAND != "M" {
		t.Fatalf("bands = %+v", img.Bands)
	}
	if img.IGEOLO == "" || img.Metadata.Value("NITF_ICORDS") != "G" {
		t.Fatalf("missing IGEOLO")
	}
	if got := string(img.TRE); got != "BLOCKA00003abc" {
		t.Fatalf("TRE = %q", got)
	}
	if img.Metadata.Value("NITF_ISCLAS") != "U" || img.Metadata.Value("NITF_IID2") != "title" {
		t.Fatalf("metadata = %v", img.Metadata.Map())
	}
	if img.Comments[0] != "comment" {
		t.Fatalf("comments = %q", img.Comments)
	}
}

func TestParseImageSubheaderTruncated(t *testing.T) {
	hdr := imageSubheader("")
	if _, err := ParseImageSubheader(hdr[:300], "NITF02.10"); err == nil {
		t.Fatalf("expected error")
	}
}

func desSubheader(id, user string) []byte {
	var b fieldBuf
	b.put(2, "DE")
	b.put(25, id)
	b.put(2, "01")
	b.put(167, "U")
	if id == OverflowDESID {
		b.put(6, "UDHD")
		b.put(3, "000")
	}
	fmt.Fprintf(&b, "%04d%s", len(user), user)
	return b.Bytes()
}

func TestParseDESSubheader(t *testing.T) {
	d, err := ParseDESSubheader(desSubheader("TEST DES", "001002003"), "NITF02.10")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.ID != "TEST DES" || d.UserSubheaderOffset != 200 || string(d.UserSubheader) != "001002003" {
		t.Fatalf("des = %+v", d)
	}
	if d.Metadata.Value("DESSHL") != "0009" || d.Metadata.Value("DESCLAS") != "U" {
		t.Fatalf("metadata = %v", d.Metadata.Map())
	}

	d, err = ParseDESSubheader(desSubheader(OverflowDESID, ""), "NITF02.10")
	if err != nil {
		t.Fatalf("parse overflow: %v", err)
	}
	if d.UserSubheaderOffset != 209 || d.Overflow != "UDHD" {
		t.Fatalf("overflow des = %+v", d)
	}
}

func TestParseTextSubheader(t *testing.T) {
	var b fieldBuf
	b.put(2, "TE")
	b.put(7, "T1")
	b.put(3, "000")
	b.put(14, "")
	b.put(80, "notes")
	b.put(167, "U")
	b.put(1, "0")
	b.put(3, "STA")
	b.put(5, "00000")
	if b.Len() != 282 {
		t.Fatalf("fixture length %d", b.Len())
	}
	txt, err := ParseTextSubheader(b.Bytes(), "NITF02.10")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if txt.ID != "T1" || txt.Format != "STA" || txt.Metadata.Value("NITF_TXTITL") != "notes" {
		t.Fatalf("text = %+v", txt)
	}
}

type closeCounter struct{ n int }

func (c *closeCounter) Close() error { c.n++; return nil }

func TestFileCloseReleasesAccessors(t *testing.T) {
	hdr := imageSubheader("")
	stream := bytes.NewReader(hdr)
	closer := &closeCounter{}
	f := &File{Stream: stream, Version: "NITF02.10"}
	f.SetCloser(closer)
	seg := NewSegment(SegmentImage)
	seg.HeaderSize = uint64(len(hdr))
	seg.DataStart = seg.HeaderSize
	f.Segments = append(f.Segments, seg, NewSegment(SegmentGraphic))

	if _, err := f.ImageAccess(0); err != nil {
		t.Fatalf("image access: %v", err)
	}
	if seg.Access == nil {
		t.Fatalf("accessor not cached")
	}
	if _, err := f.ImageAccess(1); err == nil {
		t.Fatalf("graphic accepted as image")
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if seg.Access != nil || closer.n != 1 {
		t.Fatalf("close did not release resources")
	}
}

func TestReadAtMost(t *testing.T) {
	f := &File{Stream: bytes.NewReader([]byte("abcdef"))}
	got, err := f.ReadAtMost(4, 10)
	if err != nil || string(got) != "ef" {
		t.Fatalf("ReadAtMost = %q, %v", got, err)
	}
	if _, err := f.ReadAt(4, 10); err == nil {
		t.Fatalf("expected short read error")
	}
}

func TestSegmentDataPastEndOfFile(t *testing.T) {
	tests := []struct {
		typ   SegmentType
		start uint64
		size  uint64
	}{
		{SegmentImage, 10, 9_999_999_999},
		{SegmentDataExtension, 10, 999_999_999},
		{SegmentText, 10, 99_999},
		{SegmentText, 65, 0},
		{SegmentText, 1 << 63, 1 << 63},
	}
	for _, tt := range tests {
		f := &File{Stream: bytes.NewReader(make([]byte, 64)), Size: 64}
		seg := NewSegment(tt.typ)
		seg.DataStart, seg.DataSize = tt.start, tt.size
		f.Segments = []*Segment{seg}
		if _, err := f.SegmentData(0); !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("%s %d+%d: err = %v", tt.typ.Code(), tt.start, tt.size, err)
		}
	}

	f := &File{Stream: bytes.NewReader([]byte("abcdef"))}
	if _, err := f.ReadAt(2, -1); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("negative length: err = %v", err)
	}
	if got, err := f.ReadAtMost(6, 1<<40); err != nil || len(got) != 0 {
		t.Errorf("ReadAtMost at end = %q, %v", got, err)
	}
}

func TestMetadataJSONKeepsOrder(t *testing.T) {
	var md Metadata
	md.Set("Z", "1")
	md.Set("A", `q"uote`)
	data, err := json.Marshal(md)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != `{"Z":"1","A":"q\"uote"}` {
		t.Fatalf("json = %s", got)
	}
	var empty Metadata
	if data, _ := json.Marshal(&empty); string(data) != "{}" {
		t.Fatalf("empty json = %s", data)
	}
}
