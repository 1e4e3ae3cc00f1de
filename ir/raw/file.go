// Package raw holds the undecoded view of an NITF file: the file header
// bytes, its metadata, the header TRE block and the segment directory.
package raw

import (
	"errors"
	"fmt"
	"io"

	"github.com/wudi/nitfkit/observability"
	"github.com/wudi/nitfkit/schema"
)

// ErrSegmentIndex is returned by accessors for an out of range index or a
// segment of the wrong type.
var ErrSegmentIndex = errors.New("invalid segment index")

// File is an open NITF file handle.
type File struct {
	Stream io.ReadSeeker
	closer io.Closer

	// Size is the stream length at open time.
	Size int64

	// Header holds the HL bytes of the file header.
	Header []byte

	// HeaderLengthOffset is 354, or 394 for NITF 1.x and downgrade headers.
	HeaderLengthOffset int

	Version  string
	Metadata Metadata

	// TRE is the UDHD block followed by the XHD block.
	TRE []byte

	Segments []*Segment

	SpecPath string
	Logger   observability.Logger

	spec    *schema.Spec
	specErr error
	loaded  bool
}

// SetCloser registers c to be closed with the file.
func (f *File) SetCloser(c io.Closer) { f.closer = c }

// Log returns the file logger, never nil.
func (f *File) Log() observability.Logger { return observability.OrNop(f.Logger) }

// Spec returns the TRE/DES schema, loading it on first use.
func (f *File) Spec() (*schema.Spec, error) {
	if !f.loaded {
		f.spec, f.specErr = schema.Locate(f.SpecPath, f.Log())
		f.loaded = true
	}
	return f.spec, f.specErr
}

// SetSpec installs an already loaded schema.
func (f *File) SetSpec(s *schema.Spec) {
	f.spec, f.specErr, f.loaded = s, nil, true
}

// Close releases every segment accessor, the schema and the stream when
// it is owned by the file.
func (f *File) Close() error {
	var errs []error
	for _, seg := range f.Segments {
		if seg.Access == nil {
			continue
		}
		switch seg.Type {
		case SegmentImage, SegmentDataExtension, SegmentText:
			if err := seg.Access.Close(); err != nil {
				errs = append(errs, err)
			}
		case SegmentGraphic, SegmentLabel, SegmentReservedExtension:
		}
		seg.Access = nil
	}
	f.spec, f.specErr, f.loaded = nil, nil, false
	if f.closer != nil {
		if err := f.closer.Close(); err != nil {
			errs = append(errs, err)
		}
		f.closer = nil
	}
	return errors.Join(errs...)
}

// Detach forgets the owned stream so that Close leaves it open.
func (f *File) Detach() io.ReadSeeker {
	f.closer = nil
	return f.Stream
}

// length returns the stream size, measured on first use when the file was
// not built by the parser.
func (f *File) length() (uint64, error) {
	if f.Size > 0 {
		return uint64(f.Size), nil
	}
	end, err := f.Stream.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("seek end: %w", err)
	}
	f.Size = end
	return uint64(end), nil
}

// ReadAt reads exactly n bytes at off. A range past the end of the file
// fails with io.ErrUnexpectedEOF before anything is allocated.
func (f *File) ReadAt(off uint64, n int) ([]byte, error) {
	size, err := f.length()
	if err != nil {
		return nil, err
	}
	if n < 0 || off > size || uint64(n) > size-off {
		return nil, fmt.Errorf("read %d bytes at %d past end of file (%d bytes): %w", n, off, size, io.ErrUnexpectedEOF)
	}
	buf := make([]byte, n)
	if _, err := f.Stream.Seek(int64(off), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %d: %w", off, err)
	}
	if _, err := io.ReadFull(f.Stream, buf); err != nil {
		return nil, fmt.Errorf("read %d bytes at %d: %w", n, off, err)
	}
	return buf, nil
}

// ReadAtMost reads up to n bytes at off and returns what was available.
func (f *File) ReadAtMost(off uint64, n int) ([]byte, error) {
	size, err := f.length()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("read %d bytes at %d: %w", n, off, io.ErrUnexpectedEOF)
	}
	if off >= size {
		return nil, nil
	}
	n = int(min(uint64(n), size-off))
	buf := make([]byte, n)
	if _, err := f.Stream.Seek(int64(off), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %d: %w", off, err)
	}
	got, err := io.ReadFull(f.Stream, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:got], nil
}

// SegmentHeader reads the subheader bytes of segment i.
func (f *File) SegmentHeader(i int) ([]byte, error) {
	if i < 0 || i >= len(f.Segments) {
		return nil, ErrSegmentIndex
	}
	seg := f.Segments[i]
	return f.ReadAt(seg.HeaderStart, int(seg.HeaderSize))
}

// SegmentData reads the data bytes of segment i.
func (f *File) SegmentData(i int) ([]byte, error) {
	if i < 0 || i >= len(f.Segments) {
		return nil, ErrSegmentIndex
	}
	seg := f.Segments[i]
	return f.ReadAt(seg.DataStart, int(seg.DataSize))
}

// Count returns the number of segments of type t.
func (f *File) Count(t SegmentType) int {
	n := 0
	for _, s := range f.Segments {
		if s.Type == t {
			n++
		}
	}
	return n
}

func (f *File) segment(i int, t SegmentType) (*Segment, error) {
	if i < 0 || i >= len(f.Segments) || f.Segments[i].Type != t {
		return nil, fmt.Errorf("%w: %d is not a %s segment", ErrSegmentIndex, i, t.Code())
	}
	return f.Segments[i], nil
}
