// Package parser opens NITF files: it validates the file header, extracts
// its metadata, resolves streaming headers and walks the segment
// directory.
package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/wudi/nitfkit/ir/raw"
	"github.com/wudi/nitfkit/observability"
	"github.com/wudi/nitfkit/scanner"
	"github.com/wudi/nitfkit/security"
	"github.com/wudi/nitfkit/xref"
)

var (
	// ErrNotNITF is returned when the file does not start with NITF or NSIF.
	ErrNotNITF = errors.New("not an NITF file")
	// ErrCorruptHeader covers header lengths and extension fields that are
	// inconsistent with the file.
	ErrCorruptHeader = errors.New("corrupt NITF header")
)

// Config controls file opening.
type Config struct {
	Limits   security.Limits
	Logger   observability.Logger
	Tracer   observability.Tracer
	SpecPath string
}

// FileParser builds a raw.File from a stream.
type FileParser struct {
	cfg Config
}

func NewFileParser(cfg Config) *FileParser {
	cfg.Limits = cfg.Limits.OrDefault()
	cfg.Logger = observability.OrNop(cfg.Logger)
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NopTracer()
	}
	return &FileParser{cfg: cfg}
}

// Open opens path and parses it. The returned file owns the descriptor.
func Open(ctx context.Context, path string, cfg Config) (*raw.File, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	f, err := NewFileParser(cfg).Parse(ctx, fp)
	if err != nil {
		fp.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.SetCloser(fp)
	return f, nil
}

func readAt(rs io.ReadSeeker, off int64, n int) ([]byte, error) {
	if _, err := rs.Seek(off, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(rs, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Parse reads the file header from rs. The stream is not closed; on
// failure every resource acquired for the file is released.
func (p *FileParser) Parse(ctx context.Context, rs io.ReadSeeker) (_ *raw.File, err error) {
	_, span := p.cfg.Tracer.StartSpan(ctx, observability.SpanOpen)
	defer span.Finish()
	started := time.Now()
	log := p.cfg.Logger

	magic, err := readAt(rs, 0, 9)
	if err != nil || !(strings.EqualFold(string(magic[:4]), "NITF") || strings.EqualFold(string(magic[:4]), "NSIF")) {
		span.SetError(ErrNotNITF)
		return nil, ErrNotNITF
	}

	fsdwng, err := readAt(rs, fsdwngOffset, 6)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read FSDWNG: %v", ErrCorruptHeader, err)
	}
	hlOffset := headerLengthOffset(string(magic), string(fsdwng))
	digits, err := readAt(rs, int64(hlOffset), headerLengthWidth)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read header length: %v", ErrCorruptHeader, err)
	}
	hl := scanner.Atoi(string(digits))

	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek end: %w", err)
	}
	if hl < hlOffset || int64(hl) > size || hl > p.cfg.Limits.MaxHeaderLength {
		return nil, fmt.Errorf("%w: header length %d", ErrCorruptHeader, hl)
	}
	hdr, err := readAt(rs, 0, hl)
	if err != nil {
		return nil, fmt.Errorf("read %d header bytes: %w", hl, err)
	}

	f := &raw.File{
		Stream:             rs,
		Size:               size,
		Header:             hdr,
		HeaderLengthOffset: hlOffset,
		SpecPath:           p.cfg.SpecPath,
		Logger:             log,
	}
	defer func() {
		if err != nil {
			span.SetError(err)
			f.Close()
		}
	}()

	triedStreaming := false
	for {
		f.Version = scanner.Field(f.Header, 0, 9)
		fl, known := extractHeader(&f.Metadata, f.Header, f.Version)
		if !known || triedStreaming || fl != xref.UnknownFileLength {
			break
		}
		triedStreaming = true
		repl, err := xref.ResolveStreamingHeader(rs, hl, log)
		if err != nil {
			return nil, err
		}
		if repl == nil {
			break
		}
		f.Metadata.Reset()
		f.Header = repl
	}

	dir, err := xref.Walk(f.Header, hlOffset+headerLengthWidth, log)
	if err != nil {
		return nil, err
	}
	if len(dir.Segments) > p.cfg.Limits.MaxSegments*len(raw.SegmentTypes) {
		return nil, fmt.Errorf("%w: %d segments", ErrCorruptHeader, len(dir.Segments))
	}
	f.Segments = dir.Segments

	if err := readExtensions(f, dir.End); err != nil {
		return nil, err
	}

	span.SetTag(observability.MetricSegmentCount, len(f.Segments))
	span.SetTag(observability.MetricTREBytes, len(f.TRE))
	span.SetTag(observability.MetricOpenTime, time.Since(started))
	log.Debug("opened NITF file",
		observability.String("version", f.Version),
		observability.Int("segments", len(f.Segments)),
		observability.Int("tre_bytes", len(f.TRE)))
	return f, nil
}

// readExtensions copies the UDHD and XHD TRE bytes following the segment
// tables into f.TRE.
func readExtensions(f *raw.File, off int) error {
	hdr := f.Header
	hl := len(hdr)
	if hl < off+5 {
		return fmt.Errorf("%w: header too small", ErrCorruptHeader)
	}
	udhdl := scanner.Atoi(scanner.Field(hdr, off, 5))
	if udhdl < 0 {
		return fmt.Errorf("%w: invalid TRE size %d", ErrCorruptHeader, udhdl)
	}
	off += 5
	if udhdl >= 3 {
		off += 3 // UDHOFL
	}
	if n := udhdl - 3; n > 0 {
		if hl < off+n {
			return fmt.Errorf("%w: header too small for %d TRE bytes", ErrCorruptHeader, n)
		}
		f.TRE = append([]byte(nil), hdr[off:off+n]...)
		off += n
	}

	if hl > off+8 {
		xhdl := scanner.Atoi(scanner.Field(hdr, off, 5))
		if xhdl < 0 {
			return fmt.Errorf("%w: invalid XHDL value %d", ErrCorruptHeader, xhdl)
		}
		off += 5
		if n := xhdl - 3; n > 0 {
			off += 3 // XHDLOFL
			if hl < off+n {
				return fmt.Errorf("%w: header too small for %d extended header bytes", ErrCorruptHeader, n)
			}
			f.TRE = append(f.TRE, hdr[off:off+n]...)
		}
	}
	return nil
}
