// Package writer creates NITF 2.1 / NSIF 1.0 files: it lays out the file
// header and image subheaders from creation options, embeds TREs and
// back-patches lengths and the complexity level.
package writer

import (
	"errors"

	"github.com/wudi/nitfkit/observability"
	"github.com/wudi/nitfkit/security"
)

var (
	// ErrTooBig is returned when a header, TRE, image or file exceeds
	// the size its length field can express.
	ErrTooBig = errors.New("size limit exceeded")
	// ErrNoFreeImageSegment is returned by APPEND_SUBDATASET when every
	// image slot of the file is already written.
	ErrNoFreeImageSegment = errors.New("did not find free image segment")
	// ErrInvalidOption reports a creation option that cannot be honoured.
	ErrInvalidOption = errors.New("invalid creation option")
)

// Config controls file creation.
type Config struct {
	Limits security.Limits
	Logger observability.Logger
	Tracer observability.Tracer
}

func (c Config) withDefaults() Config {
	c.Limits = c.Limits.OrDefault()
	c.Logger = observability.OrNop(c.Logger)
	if c.Tracer == nil {
		c.Tracer = observability.NopTracer()
	}
	return c
}

// ImageSpec describes the raster of the image segments to create.
type ImageSpec struct {
	Pixels        int
	Lines         int
	Bands         int
	BitsPerSample int
	// PVType is INT, B, SI, R or C.
	PVType string
}

// Result locates what Create wrote.
type Result struct {
	// Index is the segment index of the written image, -1 when NUMI=0.
	Index      int
	ImageCount int
	// ImageOffset is the file offset of the first written image data.
	ImageOffset uint64
	// ICOffset is the file offset of the IC field of that image.
	ICOffset uint64
	Length   uint64
	CLevel   int
}
