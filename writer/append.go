package writer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"

	"github.com/wudi/nitfkit/ir/raw"
	"github.com/wudi/nitfkit/observability"
	"github.com/wudi/nitfkit/parser"
	"github.com/wudi/nitfkit/scanner"
	"github.com/wudi/nitfkit/security"
)

const flWidth = 12

// DESSpec describes a data extension segment for AppendDES.
type DESSpec struct {
	ID string
	// Version defaults to 1.
	Version  int
	Overflow string
	Item     int

	UserSubheader []byte
	Data          []byte

	// Options override security fields by name (DESCLAS, DESCODE, ...).
	Options Options
}

// TextSpec describes a text segment for AppendText.
type TextSpec struct {
	ID       string
	ALVL     int
	DateTime string
	Title    string
	// Format defaults to STA.
	Format string
	Data   []byte

	// Options override security fields by name (TSCLAS, TSCODE, ...).
	Options Options
}

type subheader struct {
	bytes.Buffer
}

// field writes v recoded to Latin-1, cut or space padded to width.
func (s *subheader) field(width int, v string) {
	b := scanner.UTF8ToLatin1(v)
	if len(b) > width {
		b = b[:width]
	}
	s.Write(b)
	s.Write(bytes.Repeat([]byte{' '}, width-len(b)))
}

func (s *subheader) security(opts Options, prefix string) {
	for _, f := range security.Block21 {
		s.field(f.Width, opts.Get(f.Key(prefix), f.Default))
	}
}

func desSubheader(d DESSpec) []byte {
	var s subheader
	s.WriteString("DE")
	s.field(25, d.ID)
	version := d.Version
	if version == 0 {
		version = 1
	}
	fmt.Fprintf(&s, "%02d", version)
	s.security(d.Options, "DES")
	if d.ID == raw.OverflowDESID {
		s.field(6, d.Overflow)
		fmt.Fprintf(&s, "%03d", d.Item)
	}
	fmt.Fprintf(&s, "%04d", len(d.UserSubheader))
	s.Write(d.UserSubheader)
	return s.Bytes()
}

func textSubheader(t TextSpec) []byte {
	var s subheader
	s.WriteString("TE")
	s.field(7, t.ID)
	fmt.Fprintf(&s, "%03d", t.ALVL)
	dt := t.DateTime
	if dt == "" {
		dt = defaultDateTime
	}
	s.field(14, dt)
	s.field(80, t.Title)
	s.security(t.Options, "TS")
	s.WriteString("0") // ENCRYP
	format := t.Format
	if format == "" {
		format = "STA"
	}
	s.field(3, format)
	s.WriteString("00000") // TXSHDL
	return s.Bytes()
}

// AppendDES writes d into the first unwritten DE slot reserved by
// NUMDES and returns its segment index.
func AppendDES(ctx context.Context, rws io.ReadWriteSeeker, d DESSpec, cfg Config) (int, error) {
	if d.Version < 0 || d.Version > 99 {
		return -1, fmt.Errorf("%w: invalid DESVER %d", ErrInvalidOption, d.Version)
	}
	return appendSegment(ctx, rws, raw.SegmentDataExtension, desSubheader(d), d.Data, cfg)
}

// AppendText writes t into the first unwritten TX slot reserved by NUMT
// and returns its segment index.
func AppendText(ctx context.Context, rws io.ReadWriteSeeker, t TextSpec, cfg Config) (int, error) {
	if t.ALVL < 0 || t.ALVL > 999 {
		return -1, fmt.Errorf("%w: invalid TXTALVL %d", ErrInvalidOption, t.ALVL)
	}
	return appendSegment(ctx, rws, raw.SegmentText, textSubheader(t), t.Data, cfg)
}

// appendSegment stores hdr and data at the end of the file and patches
// the directory entry of the first free slot of type t and FL. Segments
// must be appended in directory order.
func appendSegment(ctx context.Context, rws io.ReadWriteSeeker, t raw.SegmentType, hdr, data []byte, cfg Config) (int, error) {
	cfg = cfg.withDefaults()
	f, err := parser.NewFileParser(parser.Config{
		Limits: cfg.Limits,
		Logger: cfg.Logger,
		Tracer: cfg.Tracer,
	}).Parse(ctx, rws)
	if err != nil {
		return -1, fmt.Errorf("append %s: %w", t.Code(), err)
	}
	f.Detach()
	defer f.Close()

	if security.Is20(f.Version) {
		return -1, fmt.Errorf("%w: cannot append %s segments to %s files", ErrInvalidOption, t.Code(), f.Version)
	}

	index := -1
	for i, seg := range f.Segments {
		if seg.Type == t && seg.HeaderSize == 0 && seg.DataSize == 0 {
			index = i
			break
		}
	}
	if index < 0 {
		return -1, fmt.Errorf("%w: no free %s slot", ErrInvalidOption, t.Code())
	}
	for _, seg := range f.Segments[index+1:] {
		if seg.HeaderSize != 0 || seg.DataSize != 0 {
			return -1, fmt.Errorf("%w: a %s segment follows the free %s slot", ErrInvalidOption, seg.Type.Code(), t.Code())
		}
	}

	hw, dw := t.HeaderLenWidth(), t.DataLenWidth()
	if float64(len(hdr)) >= math.Pow10(hw) || float64(len(data)) >= math.Pow10(dw) {
		return -1, fmt.Errorf("%w: %s subheader of %d bytes with %d data bytes", ErrTooBig, t.Code(), len(hdr), len(data))
	}

	slot := f.Segments[index]
	end, err := rws.Seek(0, io.SeekEnd)
	if err != nil {
		return -1, err
	}
	if uint64(end) != slot.HeaderStart {
		return -1, fmt.Errorf("%w: file ends at %d but %s slot %d starts at %d",
			ErrInvalidOption, end, t.Code(), index, slot.HeaderStart)
	}
	length := uint64(end) + uint64(len(hdr)+len(data))
	if length >= cfg.Limits.MaxFileSize {
		return -1, fmt.Errorf("%w: too big file: %d", ErrTooBig, length)
	}

	w := &fieldWriter{rws: rws, log: cfg.Logger}
	w.writeAt(uint64(end), hdr)
	w.write(data)
	dir := uint64(slot.DirectoryOffset)
	w.placef(dir, "%0*d", hw, len(hdr))
	w.placef(dir+uint64(hw), "%0*d", dw, len(data))
	w.placef(uint64(f.HeaderLengthOffset-flWidth), "%012d", length)
	if w.err != nil {
		return -1, w.err
	}
	cfg.Logger.Debug("appended segment",
		observability.String("type", t.Code()),
		observability.Int("index", index),
		observability.Int64("length", int64(length)))
	return index, nil
}
