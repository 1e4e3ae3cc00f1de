package xref

import (
	"bytes"
	"fmt"
	"io"

	"github.com/wudi/nitfkit/observability"
	"github.com/wudi/nitfkit/scanner"
)

// UnknownFileLength is the FL value of files written as a stream.
const UnknownFileLength = "999999999999"

// Streaming header delimiters. DELIM2 precedes the 7 digit SFHL2 in the
// last 11 bytes of the file; DELIM1 follows SFHL1 in front of the copy.
var (
	Delim1 = []byte{0x0A, 0x6E, 0x1D, 0x97}
	Delim2 = []byte{0x0E, 0xCA, 0x14, 0xBF}
)

const streamingTagSize = 11

// ResolveStreamingHeader looks for a streaming file header at the end of
// rs. It returns the header copy when one of exactly headerLen bytes is
// found, nil when there is none. Seek errors and a failed read of the
// copy are returned.
func ResolveStreamingHeader(rs io.ReadSeeker, headerLen int, log observability.Logger) ([]byte, error) {
	log = observability.OrNop(log)
	log.Debug("total file length unknown, looking for a streaming file header")

	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek end: %w", err)
	}
	if size < streamingTagSize {
		return nil, nil
	}
	if _, err := rs.Seek(size-streamingTagSize, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek trailer: %w", err)
	}
	tail := make([]byte, streamingTagSize)
	if _, err := io.ReadFull(rs, tail); err != nil || !bytes.Equal(tail[:4], Delim2) {
		return nil, nil
	}
	sfhl2 := scanner.Atoi(string(tail[4:]))
	if sfhl2 <= 0 || size <= int64(2*streamingTagSize+sfhl2) {
		return nil, nil
	}

	if _, err := rs.Seek(size-int64(2*streamingTagSize+sfhl2), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek streaming header: %w", err)
	}
	lead := make([]byte, streamingTagSize)
	if _, err := io.ReadFull(rs, lead); err != nil {
		return nil, nil
	}
	if !bytes.Equal(lead[7:], Delim1) || !bytes.Equal(lead[:7], tail[4:]) {
		return nil, nil
	}
	if sfhl2 != headerLen {
		log.Debug("streaming header length mismatch",
			observability.Int("sfhl2", sfhl2), observability.Int("hl", headerLen))
		return nil, nil
	}

	hdr := make([]byte, sfhl2)
	if _, err := io.ReadFull(rs, hdr); err != nil {
		return nil, fmt.Errorf("read streaming header: %w", err)
	}
	return hdr, nil
}
