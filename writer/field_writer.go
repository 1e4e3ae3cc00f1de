package writer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/wudi/nitfkit/observability"
	"github.com/wudi/nitfkit/scanner"
)

// fieldWriter places fixed-width fields at absolute offsets. The first
// I/O error is kept and turns every later call into a no-op.
type fieldWriter struct {
	rws  io.ReadWriteSeeker
	opts Options
	log  observability.Logger
	err  error
}

// gotoOffset positions the stream at off, padding with spaces when off
// lies past the end of the file.
func (w *fieldWriter) gotoOffset(off uint64) {
	if w.err != nil {
		return
	}
	cur, err := w.rws.Seek(0, io.SeekCurrent)
	if err != nil {
		w.err = err
		return
	}
	if off <= uint64(cur) {
		if off < uint64(cur) {
			_, w.err = w.rws.Seek(int64(off), io.SeekStart)
		}
		return
	}
	end, err := w.rws.Seek(0, io.SeekEnd)
	if err != nil {
		w.err = err
		return
	}
	if off > uint64(end) {
		_, w.err = w.rws.Write(bytes.Repeat([]byte{' '}, int(off-uint64(end))))
		return
	}
	_, w.err = w.rws.Seek(int64(off), io.SeekStart)
}

func (w *fieldWriter) write(b []byte) {
	if w.err != nil || len(b) == 0 {
		return
	}
	if _, err := w.rws.Write(b); err != nil {
		w.err = err
	}
}

func (w *fieldWriter) placeBytes(off uint64, b []byte) {
	w.gotoOffset(off)
	w.write(b)
}

// writeAt writes b at off without padding; a gap left past the end of
// the file is filled by the stream.
func (w *fieldWriter) writeAt(off uint64, b []byte) {
	if w.err != nil {
		return
	}
	if _, err := w.rws.Seek(int64(off), io.SeekStart); err != nil {
		w.err = err
		return
	}
	w.write(b)
}

func (w *fieldWriter) place(off uint64, text string) {
	w.placeBytes(off, []byte(text))
}

func (w *fieldWriter) placef(off uint64, format string, args ...any) {
	w.place(off, fmt.Sprintf(format, args...))
}

func (w *fieldWriter) putByte(off uint64, b byte) {
	w.placeBytes(off, []byte{b})
}

// option writes the value of creation option name, or def, recoded to
// Latin-1 and cut to width.
func (w *fieldWriter) option(width int, off uint64, name, def string) {
	v := scanner.UTF8ToLatin1(w.opts.Get(name, def))
	if len(v) > width {
		v = v[:width]
	}
	w.placeBytes(off, v)
}

func (w *fieldWriter) readAt(off uint64, n int) []byte {
	if w.err != nil {
		return nil
	}
	if _, err := w.rws.Seek(int64(off), io.SeekStart); err != nil {
		w.err = err
		return nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(w.rws, buf); err != nil {
		w.err = fmt.Errorf("read %d bytes at %d: %w", n, off, err)
		return nil
	}
	return buf
}

func (w *fieldWriter) readInt(off uint64, n int) int {
	return scanner.Atoi(string(w.readAt(off, n)))
}

func (w *fieldWriter) optInt(key, def string) int {
	return scanner.Atoi(w.opts.Get(key, def))
}
