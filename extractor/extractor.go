package extractor

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/wudi/nitfkit/ir/decoded"
	"github.com/wudi/nitfkit/ir/raw"
	"github.com/wudi/nitfkit/observability"
	"github.com/wudi/nitfkit/schema"
	"github.com/wudi/nitfkit/tre"
)

// Extractor exposes helper routines for pulling structured data out of a
// parsed NITF file.
type Extractor struct {
	file *raw.File
	dec  *decoded.Decoder
	spec *schema.Spec
	log  observability.Logger
}

// New creates an extractor for f. A nil decoder uses lenient defaults.
func New(f *raw.File, dec *decoded.Decoder) (*Extractor, error) {
	if f == nil {
		return nil, errors.New("parsed file is required")
	}
	spec, err := f.Spec()
	if err != nil {
		return nil, fmt.Errorf("load TRE schema: %w", err)
	}
	if dec == nil {
		dec = decoded.NewDecoder(decoded.Config{Logger: f.Logger})
	}
	return &Extractor{file: f, dec: dec, spec: spec, log: f.Log()}, nil
}

// File returns the underlying file.
func (e *Extractor) File() *raw.File { return e.file }

// GenericMetadata appends to md the fields of the TREs of the file header
// and, when img is not nil, of the image subheader. With an empty name
// every TRE whose definition carries an md_prefix is read; otherwise only
// the TRE called name.
func (e *Extractor) GenericMetadata(md *raw.Metadata, img *raw.Image, name string) error {
	var errs []error
	for _, rec := range e.spec.TREs {
		if name == "" && !rec.HasMDPrefix {
			continue
		}
		if name != "" && rec.Name != name {
			continue
		}
		blocks := [][]byte{e.file.TRE}
		if img != nil {
			blocks = append(blocks, img.TRE)
		}
		for _, block := range blocks {
			payload, err := tre.Find(block, rec.Name, e.log)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if payload == nil {
				continue
			}
			if err := e.dec.ReadTRE(md, rec, payload); err != nil {
				errs = append(errs, fmt.Errorf("TRE %s: %w", rec.Name, err))
			}
		}
		if name != "" {
			break
		}
	}
	return errors.Join(errs...)
}

// ExtractMetadata returns the file header metadata followed by the
// generic TRE metadata of the file header. When path names an RPF frame
// file, NITF_SERIES_ABBREVIATION and NITF_SERIES_NAME are added.
func (e *Extractor) ExtractMetadata(path string) (raw.Metadata, error) {
	md := e.file.Metadata.Clone()
	err := e.GenericMetadata(&md, nil, "")
	if path != "" {
		if s, ok := SeriesInfo(filepath.Base(path)); ok {
			if s.Abbreviation != "" {
				md.Set("NITF_SERIES_ABBREVIATION", s.Abbreviation)
			}
			if s.Name != "" {
				md.Set("NITF_SERIES_NAME", s.Name)
			}
		}
	}
	return md, err
}

// FileMetadata is a shortcut for New followed by ExtractMetadata.
func FileMetadata(f *raw.File, dec *decoded.Decoder, path string) (raw.Metadata, error) {
	e, err := New(f, dec)
	if err != nil {
		return raw.Metadata{}, err
	}
	return e.ExtractMetadata(path)
}
