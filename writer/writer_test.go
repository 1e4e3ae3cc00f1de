package writer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wudi/nitfkit/ir/raw"
	"github.com/wudi/nitfkit/parser"
	"github.com/wudi/nitfkit/tre"
)

// memFile is an in-memory io.ReadWriteSeeker. Writes past the end fill
// the gap with zero bytes.
type memFile struct {
	buf []byte
	pos int64
}

func (m *memFile) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		m.buf = append(m.buf, make([]byte, end-int64(len(m.buf)))...)
	}
	copy(m.buf[m.pos:], p)
	m.pos = end
	return len(p), nil
}

func (m *memFile) Seek(off int64, whence int) (int64, error) {
	switch whence {
	case io.SeekCurrent:
		off += m.pos
	case io.SeekEnd:
		off += int64(len(m.buf))
	}
	if off < 0 {
		return 0, errors.New("negative offset")
	}
	m.pos = off
	return off, nil
}

func (m *memFile) field(off, n int) string { return string(m.buf[off : off+n]) }

var gray = ImageSpec{Pixels: 20, Lines: 10, Bands: 1, BitsPerSample: 8, PVType: "INT"}

func mustCreate(t *testing.T, mf *memFile, img ImageSpec, opts Options) *Result {
	t.Helper()
	res, err := Create(context.Background(), mf, img, opts, Config{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return res
}

func mustParse(t *testing.T, mf *memFile) *raw.File {
	t.Helper()
	f, err := parser.NewFileParser(parser.Config{}).Parse(context.Background(), mf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestCreateRoundTrip(t *testing.T) {
	mf := &memFile{}
	res := mustCreate(t, mf, gray, Options{
		"FTITLE=Round trip",
		"IID1=ABC",
		"TRE=TESTRE=hello",
		"FILE_TRE=FTRE01=abc",
	})
	if res.Index != 0 || res.ImageCount != 1 || res.CLevel != 3 {
		t.Fatalf("result = %+v", res)
	}
	if res.Length != uint64(len(mf.buf)) {
		t.Fatalf("length %d, file has %d bytes", res.Length, len(mf.buf))
	}
	if got := mf.field(flOffset, 12); got != fmt.Sprintf("%012d", len(mf.buf)) {
		t.Fatalf("FL = %q", got)
	}
	if got := mf.field(clevelOffset, 2); got != "03" {
		t.Fatalf("CLEVEL = %q", got)
	}
	if mf.buf[len(mf.buf)-1] != 0 {
		t.Fatalf("image data not materialised")
	}

	f := mustParse(t, mf)
	if f.Version != "NITF02.10" {
		t.Fatalf("version = %q", f.Version)
	}
	if v, _ := f.Metadata.Get("NITF_FTITLE"); v != "Round trip" {
		t.Fatalf("FTITLE = %q", v)
	}
	if v, _ := f.Metadata.Get("NITF_OSTAID"); v != defaultStationID {
		t.Fatalf("OSTAID = %q", v)
	}
	if payload, err := tre.Find(f.TRE, "FTRE01", nil); err != nil || string(payload) != "abc" {
		t.Fatalf("file TRE = %q, %v", payload, err)
	}
	if len(f.Segments) != 1 {
		t.Fatalf("segments = %d", len(f.Segments))
	}
	seg := f.Segments[0]
	if seg.DataSize != 200 || seg.DataStart != res.ImageOffset {
		t.Fatalf("segment = %+v, result %+v", seg, res)
	}

	img, err := f.ImageAccess(0)
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	if img.Rows != 10 || img.Cols != 20 || img.IC != "NC" || img.IREP != "MONO" || img.PVType != "INT" {
		t.Fatalf("image = %+v", img)
	}
	if img.NBPR != 1 || img.NBPC != 1 || img.NPPBH != 20 || img.NPPBV != 10 || img.NBPP != 8 {
		t.Fatalf("blocking = %d %d %d %d", img.NBPR, img.NBPC, img.NPPBH, img.NPPBV)
	}
	if img.IDLVL != 1 || img.IALVL != 0 || img.ILOC.Row != 0 || img.ILOC.Col != 0 {
		t.Fatalf("display = %d %d %+v", img.IDLVL, img.IALVL, img.ILOC)
	}
	if payload, _ := tre.Find(img.TRE, "TESTRE", nil); string(payload) != "hello" {
		t.Fatalf("image TRE = %q", payload)
	}
	if v, _ := img.Metadata.Get("NITF_IID1"); v != "ABC" {
		t.Fatalf("IID1 = %q", v)
	}
	if string(mf.buf[res.ICOffset:res.ICOffset+2]) != "NC" {
		t.Fatalf("IC offset %d points at %q", res.ICOffset, mf.buf[res.ICOffset:res.ICOffset+2])
	}
}

func TestCreateVersion(t *testing.T) {
	for _, tc := range []struct{ fhdr, want string }{
		{"NSIF01.00", "NSIF01.00"},
		{"NITF02.00", "NITF02.10"},
	} {
		mf := &memFile{}
		mustCreate(t, mf, gray, Options{"FHDR=" + tc.fhdr})
		if got := mf.field(0, 9); got != tc.want {
			t.Errorf("FHDR=%s wrote %q", tc.fhdr, got)
		}
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		img  ImageSpec
		opts Options
		want error
	}{
		{"no bands", ImageSpec{Pixels: 1, Lines: 1, BitsPerSample: 8}, nil, ErrInvalidOption},
		{"NUMT", gray, Options{"NUMT=1000"}, ErrInvalidOption},
		{"NUMS", gray, Options{"NUMS=-1"}, ErrInvalidOption},
		{"NUMI", gray, Options{"NUMI=1000"}, ErrInvalidOption},
		{"NUMI append", gray, Options{"NUMI=2", "APPEND_SUBDATASET=YES"}, ErrInvalidOption},
		{"multi compressed", gray, Options{"NUMI=2", "IC=C3", "WRITE_ALL_IMAGES=YES"}, ErrInvalidOption},
		{"blocks", ImageSpec{Pixels: 100000, Lines: 10, Bands: 1, BitsPerSample: 8}, Options{"IC=C3", "BLOCKXSIZE=5"}, ErrInvalidOption},
		{"image size", ImageSpec{Pixels: 100000, Lines: 100000, Bands: 3, BitsPerSample: 16}, nil, ErrTooBig},
		{"tre size", gray, Options{"TRE=BIG=" + strings.Repeat("x", 99990)}, ErrTooBig},
		{"tre syntax", gray, Options{"TRE=NOEQUALS"}, ErrInvalidOption},
		{"odd hex", gray, Options{"TRE=HEX/ODD=414"}, ErrInvalidOption},
		{"non-hex digits", gray, Options{"TRE=HEX/BADHEX=41ZZ"}, ErrInvalidOption},
		{"blocka overflow", gray, Options{"BLOCKA_BLOCK_COUNT=1", "BLOCKA_BLANKS_01=" + strings.Repeat("b", 17)}, ErrInvalidOption},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Create(context.Background(), &memFile{}, tc.img, tc.opts, Config{})
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestBlocking(t *testing.T) {
	tests := []struct {
		name                     string
		pixels, lines            int
		opts                     Options
		nbpr, nbpc, nppbh, nppbv int
		size                     uint64
	}{
		{"small", 1000, 1000, nil, 1, 1, 1000, 1000, 1000000},
		{"invalid block", 1000, 1000, Options{"BLOCKXSIZE=0"}, 4, 4, 256, 256, 4 * 4 * 256 * 256},
		{"NPPBH wins", 1000, 1000, Options{"BLOCKXSIZE=10", "NPPBH=500", "NPPBV=500"}, 2, 2, 500, 500, 1000000},
		{"wide and tall", 10000, 9000, nil, 1, 1, 0, 0, 90000000},
		{"wide", 10000, 100, Options{"BLOCKYSIZE=64"}, 1, 2, 0, 64, 10000 * 2 * 64},
		{"tall", 100, 10000, Options{"BLOCKXSIZE=64"}, 2, 1, 64, 0, 10000 * 2 * 64},
		{"compressed", 1000, 1000, Options{"IC=C3"}, 1, 1, 1000, 1000, 0},
	}
	cfg := Config{}.withDefaults()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := newPlan(ImageSpec{Pixels: tc.pixels, Lines: tc.lines, Bands: 1, BitsPerSample: 8}, tc.opts, cfg)
			if err != nil {
				t.Fatal(err)
			}
			if p.nbpr != tc.nbpr || p.nbpc != tc.nbpc || p.nppbh != tc.nppbh || p.nppbv != tc.nppbv || p.imageSize != tc.size {
				t.Fatalf("got %d x %d blocks of %d x %d, size %d", p.nbpr, p.nbpc, p.nppbh, p.nppbv, p.imageSize)
			}
		})
	}
}

func TestComplexityLevel(t *testing.T) {
	tests := []struct {
		p    ComplexityParams
		base int
		want int
	}{
		{ComplexityParams{Bands: 1, Images: 1, Pixels: 100, Lines: 100}, 3, 3},
		{ComplexityParams{Bands: 10}, 3, 5},
		{ComplexityParams{Images: 21}, 3, 5},
		{ComplexityParams{FileLength: 52428800}, 3, 5},
		{ComplexityParams{Pixels: 8193}, 3, 6},
		{ComplexityParams{DESCount: 11}, 3, 6},
		{ComplexityParams{Lines: 65537}, 3, 7},
		{ComplexityParams{FileLength: 2147483648}, 3, 7},
		{ComplexityParams{Bands: 1}, 6, 6},
		{ComplexityParams{Bands: 10}, 9, 9},
	}
	for _, tc := range tests {
		if got := ComplexityLevel(tc.p, tc.base); got != tc.want {
			t.Errorf("ComplexityLevel(%+v, %d) = %d, want %d", tc.p, tc.base, got, tc.want)
		}
	}
}

func TestCreateCLEVELOverride(t *testing.T) {
	mf := &memFile{}
	res := mustCreate(t, mf, ImageSpec{Pixels: 4000, Lines: 10, Bands: 1, BitsPerSample: 8, PVType: "INT"}, nil)
	if res.CLevel != 5 || mf.field(clevelOffset, 2) != "05" {
		t.Fatalf("computed CLEVEL %d / %q", res.CLevel, mf.field(clevelOffset, 2))
	}
	mf = &memFile{}
	res = mustCreate(t, mf, gray, Options{"CLEVEL=09"})
	if res.CLevel != 9 || mf.field(clevelOffset, 2) != "09" {
		t.Fatalf("override CLEVEL %d / %q", res.CLevel, mf.field(clevelOffset, 2))
	}
}

func TestCreateTREOptions(t *testing.T) {
	mf := &memFile{}
	mustCreate(t, mf, gray, Options{
		"TRE=HEX/HEXTRE=41420043",
		`TRE=ESCTRE=a\nb\\c`,
		"TRE=LONGNAME1=x",
	})
	img, err := mustParse(t, mf).ImageAccess(0)
	if err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct{ tag, want string }{
		{"HEXTRE", "AB\x00C"},
		{"ESCTRE", "a\nb\\c"},
		{"LONGNA", "x"},
	} {
		payload, err := tre.Find(img.TRE, tc.tag, nil)
		if err != nil || string(payload) != tc.want {
			t.Errorf("%s = %q, %v", tc.tag, payload, err)
		}
	}
}

func TestCreateReserveTREOverflow(t *testing.T) {
	plain := &memFile{}
	mustCreate(t, plain, gray, nil)
	reserved := &memFile{}
	mustCreate(t, reserved, gray, Options{"RESERVE_SPACE_FOR_TRE_OVERFLOW=YES"})

	a := mustParse(t, plain).Segments[0].HeaderSize
	f := mustParse(t, reserved)
	b := f.Segments[0].HeaderSize
	if b != a+3 {
		t.Fatalf("header sizes %d and %d", a, b)
	}
	hdr, err := f.SegmentHeader(0)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(hdr[len(hdr)-8:]); got != "00003000" {
		t.Fatalf("IXSHDL/IXSOFL = %q", got)
	}
}

func TestCreateBLOCKA(t *testing.T) {
	mf := &memFile{}
	mustCreate(t, mf, gray, Options{
		"BLOCKA_BLOCK_COUNT=2",
		"BLOCKA_N_GRAY_01=12",
		"BLOCKA_FRLC_LOC_02=+12.345678+123.456789",
		"TRE=BLOCKA=ignored",
	})
	img, err := mustParse(t, mf).ImageAccess(0)
	if err != nil {
		t.Fatal(err)
	}
	first, _ := tre.Find(img.TRE, "BLOCKA", nil)
	second, _ := tre.FindByIndex(img.TRE, "BLOCKA", 1, nil)
	if third, _ := tre.FindByIndex(img.TRE, "BLOCKA", 2, nil); third != nil {
		t.Fatalf("BLOCKA option was not ignored")
	}
	if len(first) != blockaSize || len(second) != blockaSize {
		t.Fatalf("sizes %d %d", len(first), len(second))
	}
	if got := string(first[2:7]); got != "   12" {
		t.Fatalf("N_GRAY = %q", got)
	}
	if got := string(second[34:55]); got != "+12.345678+123.456789" {
		t.Fatalf("FRLC_LOC = %q", got)
	}
	if got := string(first[118:]); got != "010.0" {
		t.Fatalf("trailer = %q", got)
	}
}

func TestCreateBands(t *testing.T) {
	mf := &memFile{}
	mustCreate(t, mf, ImageSpec{Pixels: 8, Lines: 8, Bands: 3, BitsPerSample: 8, PVType: "INT"},
		Options{"IREP=RGB", "ISUBCAT=ONE,SEVENCHR,3"})
	img, err := mustParse(t, mf).ImageAccess(0)
	if err != nil {
		t.Fatal(err)
	}
	want := []struct{ irepband, isubcat string }{{"R", "ONE"}, {"G", "SEVENC"}, {"B", "3"}}
	for i, w := range want {
		if img.Bands[i].IREPBAND != w.irepband || img.Bands[i].ISUBCAT != w.isubcat {
			t.Errorf("band %d = %+v", i, img.Bands[i])
		}
	}

	mf = &memFile{}
	mustCreate(t, mf, ImageSpec{Pixels: 8, Lines: 8, Bands: 2, BitsPerSample: 8, PVType: "INT"},
		Options{"IREPBAND=AAA,B", "ISUBCAT=ONLYONE"})
	img, _ = mustParse(t, mf).ImageAccess(0)
	if img.Bands[0].IREPBAND != "AA" || img.Bands[1].IREPBAND != "B" || img.Bands[0].ISUBCAT != "" {
		t.Fatalf("bands = %+v", img.Bands)
	}
}

func TestCreateLUT(t *testing.T) {
	mf := &memFile{}
	mustCreate(t, mf, ImageSpec{Pixels: 8, Lines: 8, Bands: 1, BitsPerSample: 8, PVType: "INT"},
		Options{"IREP=RGB/LUT", "LUT_SIZE=4"})
	img, err := mustParse(t, mf).ImageAccess(0)
	if err != nil {
		t.Fatal(err)
	}
	b := img.Bands[0]
	if b.IREPBAND != "LU" || len(b.LUTs) != 3 {
		t.Fatalf("band = %+v", b)
	}
	for _, lut := range b.LUTs {
		if !bytes.Equal(lut, []byte{0, 1, 2, 3}) {
			t.Fatalf("lut = %v", lut)
		}
	}
}

func TestCreateManyBands(t *testing.T) {
	mf := &memFile{}
	res := mustCreate(t, mf, ImageSpec{Pixels: 4, Lines: 4, Bands: 12, BitsPerSample: 8, PVType: "INT"}, nil)
	img, err := mustParse(t, mf).ImageAccess(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(img.Bands) != 12 || res.CLevel != 5 {
		t.Fatalf("bands %d, CLEVEL %d", len(img.Bands), res.CLevel)
	}
}

func TestCreateCommentsAndGeo(t *testing.T) {
	comment := strings.Repeat("x", 100)
	igeolo := strings.Repeat("0", 60)
	mf := &memFile{}
	mustCreate(t, mf, gray, Options{"ICOM=" + comment, "ICORDS=G", "IGEOLO=" + igeolo})
	img, err := mustParse(t, mf).ImageAccess(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(img.Comments) != 2 || img.Comments[0] != comment[:80] || img.Comments[1] != comment[80:] {
		t.Fatalf("comments = %q", img.Comments)
	}
	if img.ICORDS != "G" || img.IGEOLO != igeolo {
		t.Fatalf("ICORDS %q IGEOLO %q", img.ICORDS, img.IGEOLO)
	}
	if img.IC != "NC" {
		t.Fatalf("IC = %q", img.IC)
	}
}

func TestCreateNoImages(t *testing.T) {
	mf := &memFile{}
	res := mustCreate(t, mf, gray, Options{"NUMI=0"})
	if res.Index != -1 || res.Length != uint64(len(mf.buf)) {
		t.Fatalf("result = %+v, file %d bytes", res, len(mf.buf))
	}
	if f := mustParse(t, mf); len(f.Segments) != 0 {
		t.Fatalf("segments = %d", len(f.Segments))
	}
}

func TestAppendSubdataset(t *testing.T) {
	mf := &memFile{}
	first := mustCreate(t, mf, gray, Options{"NUMI=2", "CLEVEL=05"})
	if first.ImageCount != 2 {
		t.Fatalf("image count = %d", first.ImageCount)
	}

	res := mustCreate(t, mf, gray, Options{"APPEND_SUBDATASET=YES", "IID1=SECOND"})
	if res.Index != 1 || res.ImageCount != 2 || res.CLevel != 5 {
		t.Fatalf("append result = %+v", res)
	}
	if res.Length != uint64(len(mf.buf)) || res.ImageOffset != res.Length-200 {
		t.Fatalf("append result = %+v, file %d bytes", res, len(mf.buf))
	}

	f := mustParse(t, mf)
	if len(f.Segments) != 2 || f.Segments[1].HeaderSize == 0 || f.Segments[1].DataSize != 200 {
		t.Fatalf("segments = %+v %+v", f.Segments[0], f.Segments[1])
	}
	img, err := f.ImageAccess(1)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := img.Metadata.Get("NITF_IID1"); v != "SECOND" {
		t.Fatalf("IID1 = %q", v)
	}

	_, err = Create(context.Background(), mf, gray, Options{"APPEND_SUBDATASET=YES"}, Config{})
	if !errors.Is(err, ErrNoFreeImageSegment) {
		t.Fatalf("err = %v", err)
	}
}

func TestAppendTextAndDES(t *testing.T) {
	mf := &memFile{}
	mustCreate(t, mf, gray, Options{"NUMT=1", "NUMDES=2"})
	ctx := context.Background()

	ti, err := AppendText(ctx, mf, TextSpec{ID: "TXT1", Title: "notes", Data: []byte("hello text")}, Config{})
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	di, err := AppendDES(ctx, mf, DESSpec{ID: "TEST DES", UserSubheader: []byte("020100005"), Data: []byte("001002")}, Config{})
	if err != nil {
		t.Fatalf("des: %v", err)
	}
	oi, err := AppendDES(ctx, mf, DESSpec{ID: raw.OverflowDESID, Overflow: "UDHD", Item: 1, Data: []byte("XYZ")}, Config{})
	if err != nil {
		t.Fatalf("overflow des: %v", err)
	}
	if _, err := AppendDES(ctx, mf, DESSpec{ID: "EXTRA"}, Config{}); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("third DES err = %v", err)
	}
	if got := mf.field(flOffset, 12); got != fmt.Sprintf("%012d", len(mf.buf)) {
		t.Fatalf("FL = %q for %d bytes", got, len(mf.buf))
	}

	f := mustParse(t, mf)
	txt, err := f.TextAccess(ti)
	if err != nil {
		t.Fatal(err)
	}
	if txt.ID != "TXT1" || txt.Format != "STA" {
		t.Fatalf("text = %+v", txt)
	}
	if data, _ := f.SegmentData(ti); string(data) != "hello text" {
		t.Fatalf("text data = %q", data)
	}

	des, err := f.DESAccess(di)
	if err != nil {
		t.Fatal(err)
	}
	if des.ID != "TEST DES" || string(des.UserSubheader) != "020100005" || des.Version != 1 {
		t.Fatalf("des = %+v", des)
	}
	if data, _ := f.SegmentData(di); string(data) != "001002" {
		t.Fatalf("des data = %q", data)
	}
	over, err := f.DESAccess(oi)
	if err != nil {
		t.Fatal(err)
	}
	if over.Overflow != "UDHD" || over.Item != 1 || over.UserSubheaderOffset != 209 {
		t.Fatalf("overflow = %+v", over)
	}
}

func TestAppendOutOfOrder(t *testing.T) {
	mf := &memFile{}
	mustCreate(t, mf, gray, Options{"NUMT=1", "NUMDES=1"})
	ctx := context.Background()
	if _, err := AppendDES(ctx, mf, DESSpec{ID: "FIRST"}, Config{}); err != nil {
		t.Fatal(err)
	}
	if _, err := AppendText(ctx, mf, TextSpec{ID: "LATE"}, Config{}); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("err = %v", err)
	}
}

func TestCreateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.ntf")
	res, err := CreateFile(context.Background(), path, gray, Options{"FTITLE=on disk"}, Config{})
	if err != nil {
		t.Fatal(err)
	}
	st, err := os.Stat(path)
	if err != nil || uint64(st.Size()) != res.Length {
		t.Fatalf("stat = %v, %v", st, err)
	}
	f, err := parser.Open(context.Background(), path, parser.Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if v, _ := f.Metadata.Get("NITF_FTITLE"); v != "on disk" {
		t.Fatalf("FTITLE = %q", v)
	}

	bad := filepath.Join(dir, "bad.ntf")
	if _, err := CreateFile(context.Background(), bad, ImageSpec{}, nil, Config{}); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("err = %v", err)
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Fatalf("invalid options still created the file")
	}
}

func TestOptions(t *testing.T) {
	o := Options{"ic=C3", "TRE=A=1", "TRE=B=2", "FLAG=off", "ON=yes"}
	if v := o.Get("IC", "NC"); v != "C3" {
		t.Fatalf("IC = %q", v)
	}
	if o.Count("TRE") != 2 || o.Bool("FLAG") || !o.Bool("ON") || o.Bool("MISSING") {
		t.Fatalf("count/bool mismatch")
	}
	o2 := o.With("IC", "NC")
	if o.Get("IC", "") != "C3" || o2.Get("IC", "") != "NC" || len(o2) != len(o) {
		t.Fatalf("With modified the receiver or appended")
	}
	if got := string(unescapeBackslash(`a\nb\0c\\d\`)); got != "a\nb\x00c\\d" {
		t.Fatalf("unescape = %q", got)
	}
}
