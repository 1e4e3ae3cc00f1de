package writer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/wudi/nitfkit/ir/raw"
	"github.com/wudi/nitfkit/observability"
	"github.com/wudi/nitfkit/parser"
	"github.com/wudi/nitfkit/scanner"
	"github.com/wudi/nitfkit/security"
)

// File header and image subheader positions of the NITF 2.1 layout.
const (
	clevelOffset        = 9
	fileSecurityOffset  = 119
	flOffset            = 342
	hlOffset            = 354
	numiOffset          = 360
	imageDirOffset      = 363
	imageDirEntry       = 16
	imageSecurityOffset = 123

	maxBands         = 99999
	maxCount         = 999
	maxBlocks        = 9999
	maxLUTSize       = 99999
	milStdBlockLimit = 8192
	defaultBlockSize = 256
	defaultLUTSize   = 256

	defaultStationID = "NITFKIT"
	defaultDateTime  = "20021216151629"
)

// plan holds the validated creation parameters.
type plan struct {
	img     ImageSpec
	version string
	ic      string
	irep    string

	numi, nums, numt, numdes int
	appendMode, writeAll     bool

	nppbh, nppbv int
	nbpr, nbpc   int
	imageSize    uint64
	index        int
}

func (p *plan) uncompressed() bool { return strings.EqualFold(p.ic, "NC") }

func newPlan(img ImageSpec, opts Options, cfg Config) (*plan, error) {
	log := cfg.Logger
	if img.Bands <= 0 || img.Bands > maxBands {
		return nil, fmt.Errorf("%w: invalid band number: %d", ErrInvalidOption, img.Bands)
	}
	if img.Pixels < 0 || img.Lines < 0 {
		return nil, fmt.Errorf("%w: invalid raster size %dx%d", ErrInvalidOption, img.Pixels, img.Lines)
	}
	p := &plan{
		img:  img,
		ic:   opts.Get("IC", "NC"),
		irep: opts.Get("IREP", "MONO"),
		numi: 1,
	}

	if v, ok := opts.Lookup("NUMT"); ok {
		p.numt = scanner.Atoi(v)
		if p.numt < 0 || p.numt > maxCount {
			return nil, fmt.Errorf("%w: invalid NUMT value: %s", ErrInvalidOption, v)
		}
	}

	p.appendMode = opts.Bool("APPEND_SUBDATASET")
	p.writeAll = opts.Bool("WRITE_ALL_IMAGES")
	if v, ok := opts.Lookup("NUMI"); ok {
		if p.appendMode {
			return nil, fmt.Errorf("%w: NUMI not supported with APPEND_SUBDATASET", ErrInvalidOption)
		}
		p.numi = scanner.Atoi(v)
		if p.numi == 0 {
			p.index = -1
		} else if p.numi < 0 || p.numi > maxCount {
			return nil, fmt.Errorf("%w: invalid NUMI value: %s", ErrInvalidOption, v)
		}
		if p.numi != 1 && !p.uncompressed() && p.writeAll {
			return nil, fmt.Errorf("%w: unable to create file with multiple images and compression at the same time", ErrInvalidOption)
		}
	} else if p.appendMode && p.writeAll {
		log.Warn("WRITE_ALL_IMAGES=YES only supported for first image")
	}

	if v, ok := opts.Lookup("NUMS"); ok {
		p.nums = scanner.Atoi(v)
		if p.nums < 0 || p.nums > maxCount {
			return nil, fmt.Errorf("%w: invalid NUMS value: %s", ErrInvalidOption, v)
		}
	}
	if v, ok := opts.Lookup("NUMDES"); ok {
		p.numdes = scanner.Atoi(v)
	} else {
		p.numdes = opts.Count("DES")
	}

	if err := p.blocking(opts); err != nil {
		return nil, err
	}
	if p.uncompressed() {
		if p.imageSize >= cfg.Limits.MaxImageSize {
			return nil, fmt.Errorf("%w: too big image size: %d", ErrTooBig, p.imageSize)
		}
		if p.imageSize*uint64(p.numi) >= cfg.Limits.MaxFileSize {
			return nil, fmt.Errorf("%w: too big file size: %d", ErrTooBig, p.imageSize*uint64(p.numi))
		}
	}

	p.version = opts.Get("FHDR", "NITF02.10")
	if !strings.EqualFold(p.version, "NITF02.10") && !strings.EqualFold(p.version, "NSIF01.00") {
		log.Warn("FHDR not supported, switching to NITF02.10", observability.String("fhdr", p.version))
		p.version = "NITF02.10"
	}
	return p, nil
}

func ceilDiv(a, b int) int {
	return a/b + min(a%b, 1)
}

// blocking resolves the block layout and the raw image size. NC and C8
// images wider or taller than 8192 use a single block in that direction
// (MIL-STD-2500C 5.4.2.2-d) unless the caller asked for a blocking.
func (p *plan) blocking(opts Options) error {
	px, ln := p.img.Pixels, p.img.Lines
	bh, bv := px, ln
	for _, k := range []string{"BLOCKXSIZE", "NPPBH"} {
		if v, ok := opts.Lookup(k); ok {
			bh = scanner.Atoi(v)
		}
	}
	for _, k := range []string{"BLOCKYSIZE", "NPPBV"} {
		if v, ok := opts.Lookup(k); ok {
			bv = scanner.Atoi(v)
		}
	}

	milStd := strings.EqualFold(p.ic, "NC") || strings.EqualFold(p.ic, "C8")
	sample := uint64(p.img.BitsPerSample/8) * uint64(p.img.Bands)
	switch {
	case milStd && (px > milStdBlockLimit || ln > milStdBlockLimit) && bh == px && bv == ln:
		p.nbpr, p.nbpc = 1, 1
		bh, bv = 0, 0
		p.imageSize = sample * uint64(px) * uint64(ln)
	case milStd && px > milStdBlockLimit && bh == px:
		if bv <= 0 {
			bv = defaultBlockSize
		}
		p.nbpr, bh = 1, 0
		p.nbpc = ceilDiv(ln, bv)
		p.imageSize = sample * uint64(px) * uint64(p.nbpc) * uint64(bv)
	case milStd && ln > milStdBlockLimit && bv == ln:
		if bh <= 0 {
			bh = defaultBlockSize
		}
		p.nbpc, bv = 1, 0
		p.nbpr = ceilDiv(px, bh)
		p.imageSize = sample * uint64(ln) * uint64(p.nbpr) * uint64(bh)
	default:
		if bh <= 0 || bv <= 0 || bh > maxBlocks || bv > maxBlocks {
			bh, bv = defaultBlockSize, defaultBlockSize
		}
		p.nbpr = ceilDiv(px, bh)
		p.nbpc = ceilDiv(ln, bv)
		p.imageSize = sample * uint64(p.nbpr) * uint64(p.nbpc) * uint64(bh) * uint64(bv)
	}
	if p.nbpr > maxBlocks || p.nbpc > maxBlocks {
		return fmt.Errorf("%w: too many blocks: %d x %d", ErrInvalidOption, p.nbpr, p.nbpc)
	}
	if !p.uncompressed() {
		p.imageSize = 0
	}
	p.nppbh, p.nppbv = bh, bv
	return nil
}

// Create writes a new uncompressed (or placeholder compressed) NITF file
// to rws, which should be empty. With APPEND_SUBDATASET=YES it instead
// fills the first unwritten image slot of the existing file in rws.
func Create(ctx context.Context, rws io.ReadWriteSeeker, img ImageSpec, opts Options, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	p, err := newPlan(img, opts, cfg)
	if err != nil {
		return nil, err
	}
	return create(ctx, rws, p, opts, cfg)
}

// CreateFile is Create on the file at path. Options are validated before
// the file is touched.
func CreateFile(ctx context.Context, path string, img ImageSpec, opts Options, cfg Config) (_ *Result, err error) {
	cfg = cfg.withDefaults()
	p, err := newPlan(img, opts, cfg)
	if err != nil {
		return nil, err
	}
	flag := os.O_RDWR | os.O_CREATE | os.O_TRUNC
	if p.appendMode {
		flag = os.O_RDWR
	}
	fp, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("unable to create file %s: %w", path, err)
	}
	defer func() {
		if cerr := fp.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	res, err := create(ctx, fp, p, opts, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

func create(ctx context.Context, rws io.ReadWriteSeeker, p *plan, opts Options, cfg Config) (_ *Result, err error) {
	_, span := cfg.Tracer.StartSpan(ctx, observability.SpanCreate)
	defer span.Finish()
	defer func() {
		if err != nil {
			span.SetError(err)
		}
	}()
	started := time.Now()

	w := &fieldWriter{rws: rws, opts: opts, log: cfg.Logger}
	res := &Result{Index: p.index, ImageCount: p.numi}
	first, last := 0, p.numi
	clevel := 3

	var cur uint64
	if p.appendMode {
		idx, count, err := findFreeImage(ctx, rws, cfg)
		if err != nil {
			return nil, err
		}
		res.Index, res.ImageCount = idx, count
		first, last = idx, idx+1
		clevel = w.readInt(clevelOffset, 2)
		end, err := rws.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, err
		}
		cur = uint64(end)
	} else {
		if _, err := rws.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		hl, err := w.writeFileHeader(p, cfg.Limits)
		if err != nil {
			return nil, err
		}
		cur = uint64(hl)
	}

	wroteData := false
	for i := first; i < last; i++ {
		size, icOffset, err := w.writeImageSubheader(cur, p, cfg.Limits)
		if err != nil {
			return nil, err
		}
		dir := uint64(imageDirOffset + i*imageDirEntry)
		w.placef(dir, "%06d", size)
		if p.uncompressed() {
			w.placef(dir+6, "%010d", p.imageSize)
		}
		if i == first {
			res.ICOffset = icOffset
			res.ImageOffset = cur + uint64(size)
		}
		cur += uint64(size) + p.imageSize
		wroteData = wroteData || p.imageSize > 0
		if !p.writeAll {
			break
		}
	}

	// Materialise the raw image data.
	if p.uncompressed() && wroteData {
		w.writeAt(cur-1, []byte{0})
	}

	clevel = ComplexityLevel(ComplexityParams{
		Bands:       p.img.Bands,
		Images:      last,
		Pixels:      p.img.Pixels,
		Lines:       p.img.Lines,
		BlockWidth:  p.nppbh,
		BlockHeight: p.nppbv,
		FileLength:  cur,
		DESCount:    p.numdes,
	}, clevel)
	w.option(2, clevelOffset, "CLEVEL", fmt.Sprintf("%02d", clevel))
	res.CLevel = scanner.Atoi(opts.Get("CLEVEL", fmt.Sprint(clevel)))

	if p.uncompressed() && cur >= cfg.Limits.MaxFileSize {
		return nil, fmt.Errorf("%w: too big file: %d", ErrTooBig, cur)
	}
	w.placef(flOffset, "%012d", cur)
	if w.err != nil {
		return nil, w.err
	}
	res.Length = cur

	span.SetTag(observability.MetricFileLength, cur)
	span.SetTag(observability.MetricCreateTime, time.Since(started))
	cfg.Logger.Debug("created NITF file",
		observability.Int("index", res.Index),
		observability.Int("clevel", res.CLevel),
		observability.Uint64("length", cur))
	return res, nil
}

func (w *fieldWriter) securityBlock(base uint64, prefix string) {
	for _, f := range security.Block21 {
		w.option(f.Width, base+uint64(f.Offset), f.Key(prefix), f.Default)
	}
}

// writeFileHeader writes the file header with placeholder directory
// entries and returns its length.
func (w *fieldWriter) writeFileHeader(p *plan, lim security.Limits) (int, error) {
	w.place(0, p.version)
	w.option(2, clevelOffset, "CLEVEL", "03")
	w.place(11, "BF01")
	w.option(10, 15, "OSTAID", defaultStationID)
	w.option(14, 25, "FDT", defaultDateTime)
	w.option(80, 39, "FTITLE", "")
	w.securityBlock(fileSecurityOffset, "FS")
	w.option(5, 286, "FSCOP", "00000")
	w.option(5, 291, "FSCPYS", "00000")
	w.place(296, "0")
	w.placeBytes(297, []byte{0, 0, 0}) // FBKGC
	w.option(24, 300, "ONAME", "")
	w.option(18, 324, "OPHONE", "")
	w.place(flOffset, "????????????")
	w.place(hlOffset, "??????")
	w.placef(numiOffset, "%03d", p.numi)

	hl := imageDirOffset
	for i := 0; i < p.numi; i++ {
		w.place(uint64(hl), "??????")
		w.place(uint64(hl+6), "??????????")
		hl += imageDirEntry
	}
	w.placef(uint64(hl), "%03d", p.nums)
	hl += 3
	for i := 0; i < p.nums; i++ {
		w.place(uint64(hl), "????")
		w.place(uint64(hl+4), "??????")
		hl += 10
	}
	w.place(uint64(hl), "000") // NUMX
	w.placef(uint64(hl+3), "%03d", p.numt)
	// Text entries stay blank until AppendText fills them.
	hl += 6 + (4+5)*p.numt
	w.placef(uint64(hl), "%03d", p.numdes)
	hl += 3
	for i := 0; i < p.numdes; i++ {
		w.place(uint64(hl), "????")
		w.place(uint64(hl+4), "?????????")
		hl += 13
	}
	w.place(uint64(hl), "000") // NUMRES
	hl += 3
	w.place(uint64(hl), "00000") // UDHDL
	hl += 5
	w.place(uint64(hl), "00000") // XHDL
	hl += 5

	if w.opts.Has("FILE_TRE") {
		if err := w.writeTREsFromOptions(uint64(hl-10), &hl, lim.MaxTRELength, "FILE_TRE="); err != nil {
			return 0, err
		}
	}
	if hl > lim.MaxHeaderLength {
		return 0, fmt.Errorf("%w: too big file header length: %d", ErrTooBig, hl)
	}
	w.placef(hlOffset, "%06d", hl)
	return hl, w.err
}

// bandTokens splits a comma separated per-band option. A list whose
// length differs from the band count is ignored; tokens are cut to width.
func (w *fieldWriter) bandTokens(key string, bands, width int) []string {
	v, ok := w.opts.Lookup(key)
	if !ok {
		return nil
	}
	var tokens []string
	for _, t := range strings.Split(v, ",") {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) != bands {
		return nil
	}
	for i, t := range tokens {
		if len(t) > width {
			tokens[i] = t[:width]
			w.log.Warn("truncating band option", observability.String("option", key),
				observability.Int("band", i+1), observability.String("value", tokens[i]))
		}
	}
	return tokens
}

func bandRepresentation(irep string, band int) string {
	pick := func(names ...string) string {
		if band < len(names) {
			return names[band]
		}
		return "M"
	}
	switch {
	case strings.EqualFold(irep, "RGB/LUT"):
		return "LU"
	case strings.EqualFold(irep, "RGB"):
		return pick("R", "G", "B")
	case hasPrefixFold(irep, "YCbCr"):
		return pick("Y", "Cb", "Cr")
	}
	return "M"
}

// writeImageSubheader writes an image subheader at cur and returns its
// length and the file offset of its IC field.
func (w *fieldWriter) writeImageSubheader(cur uint64, p *plan, lim security.Limits) (int, uint64, error) {
	o := w.opts
	img := p.img
	irepband := w.bandTokens("IREPBAND", img.Bands, 2)
	isubcat := w.bandTokens("ISUBCAT", img.Bands, 6)

	w.place(cur, "IM")
	w.option(10, cur+2, "IID1", "Missing")
	w.option(14, cur+12, "IDATIM", defaultDateTime)
	w.option(17, cur+26, "TGTID", "")
	w.option(80, cur+43, "IID2", "")
	w.securityBlock(cur+imageSecurityOffset, "IS")
	w.place(cur+290, "0") // ENCRYP
	w.option(42, cur+291, "ISORCE", "Unknown")
	w.placef(cur+333, "%08d", img.Lines)
	w.placef(cur+341, "%08d", img.Pixels)
	w.place(cur+349, img.PVType)
	w.place(cur+352, p.irep)
	w.option(8, cur+360, "ICAT", "VIS")
	abpp := img.BitsPerSample
	if v, ok := o.Lookup("ABPP"); ok {
		abpp = scanner.Atoi(v)
	}
	w.placef(cur+368, "%02d", abpp)
	w.option(1, cur+370, "PJUST", "R")
	w.option(1, cur+371, "ICORDS", " ")

	off := 372
	if icords := o.Get("ICORDS", " "); icords != "" && icords[0] != ' ' {
		w.option(60, cur+uint64(off), "IGEOLO", "")
		off += 60
	}

	if icom, ok := o.Lookup("ICOM"); ok {
		text := scanner.UTF8ToLatin1(icom)
		n := (79 + len(text)) / 80
		if n > 9 {
			w.log.Warn("ICOM will be truncated")
			n = 9
		}
		w.placef(cur+uint64(off), "%01d", n)
		w.write(text[:min(n*80, len(text))])
		off += n * 80
	} else {
		w.place(cur+uint64(off), "0")
	}

	icOffset := cur + uint64(off) + 1
	w.option(2, icOffset, "IC", "NC")
	if !strings.HasPrefix(p.ic, "N") {
		w.option(4, cur+uint64(off)+3, "COMRAT", "    ")
		off += 4
	}

	if img.Bands <= 9 {
		w.placef(cur+uint64(off)+3, "%d", img.Bands)
	} else {
		w.place(cur+uint64(off)+3, "0")
		w.placef(cur+uint64(off)+4, "%05d", img.Bands)
		off += 5
	}
	off += 4

	for b := 0; b < img.Bands; b++ {
		base := cur + uint64(off)
		if irepband != nil {
			w.place(base, irepband[b])
		} else {
			w.place(base, bandRepresentation(p.irep, b))
		}
		if isubcat != nil {
			w.place(base+2, isubcat[b])
		}
		w.place(base+8, "N") // IFC

		if !strings.EqualFold(p.irep, "RGB/LUT") {
			w.place(base+12, "0")
			off += 13
			continue
		}
		n := defaultLUTSize
		if v, ok := o.Lookup("LUT_SIZE"); ok {
			n = scanner.Atoi(v)
		}
		if n < 0 || n > maxLUTSize {
			w.log.Warn("invalid LUT size, defaulting to 256", observability.Int("size", n))
			n = defaultLUTSize
		}
		w.place(base+12, "3")
		w.placef(base+13, "%05d", n)
		lut := make([]byte, 3*n)
		for c := 0; c < n; c++ {
			lut[c], lut[c+n], lut[c+2*n] = byte(c), byte(c), byte(c)
		}
		w.placeBytes(base+18, lut)
		off += 18 + 3*n
	}

	base := cur + uint64(off)
	w.place(base, "0") // ISYNC
	imode := "B"
	if img.Bands >= 3 && (strings.EqualFold(p.ic, "C3") || strings.EqualFold(p.ic, "M3")) {
		imode = "P"
	}
	w.place(base+1, imode)
	w.placef(base+2, "%04d", p.nbpr)
	w.placef(base+6, "%04d", p.nbpc)
	w.placef(base+10, "%04d", p.nppbh)
	w.placef(base+14, "%04d", p.nppbv)
	w.placef(base+18, "%02d", img.BitsPerSample)
	w.placef(base+20, "%03d", w.optInt("IDLVL", "1"))
	w.placef(base+23, "%03d", w.optInt("IALVL", "0"))
	w.placef(base+26, "%05d", w.optInt("ILOCROW", "0"))
	w.placef(base+31, "%05d", w.optInt("ILOCCOL", "0"))
	w.place(base+36, "1.0 ")
	w.place(base+40, "00000") // UDIDL
	w.place(base+45, "00000") // IXSHDL
	udidl := base + 40
	off += 50

	if o.Has("BLOCKA_BLOCK_COUNT") {
		if err := w.writeBLOCKA(udidl, &off, lim.MaxTRELength); err != nil {
			return 0, 0, err
		}
	}
	if o.Has("TRE") || o.Has("RESERVE_SPACE_FOR_TRE_OVERFLOW") {
		if err := w.writeTREsFromOptions(udidl, &off, lim.MaxTRELength, "TRE="); err != nil {
			return 0, 0, err
		}
	}
	if off > lim.MaxHeaderLength {
		return 0, 0, fmt.Errorf("%w: too big image header length: %d", ErrTooBig, off)
	}
	return off, icOffset, w.err
}

// findFreeImage parses the file in rws and returns the first image slot
// whose subheader was never written, with the number of image segments.
func findFreeImage(ctx context.Context, rws io.ReadWriteSeeker, cfg Config) (index, count int, err error) {
	f, err := parser.NewFileParser(parser.Config{
		Limits: cfg.Limits,
		Logger: cfg.Logger,
		Tracer: cfg.Tracer,
	}).Parse(ctx, rws)
	if err != nil {
		return -1, 0, fmt.Errorf("append subdataset: %w", err)
	}
	f.Detach()
	defer f.Close()

	index = -1
	for i, seg := range f.Segments {
		if seg.Type != raw.SegmentImage {
			continue
		}
		count++
		if seg.HeaderSize == 0 && index < 0 {
			index = i
		}
	}
	if index < 0 {
		return -1, count, ErrNoFreeImageSegment
	}
	return index, count, nil
}
