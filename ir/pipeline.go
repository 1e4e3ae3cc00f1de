package ir

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wudi/nitfkit/coords"
	"github.com/wudi/nitfkit/extractor"
	"github.com/wudi/nitfkit/ir/decoded"
	"github.com/wudi/nitfkit/ir/raw"
	"github.com/wudi/nitfkit/observability"
	"github.com/wudi/nitfkit/parser"
	"github.com/wudi/nitfkit/recovery"
	"github.com/wudi/nitfkit/security"
)

// Document is a parsed file together with everything extracted from it.
type Document struct {
	File *raw.File
	Path string

	Metadata raw.Metadata
	Images   []extractor.ImageInfo
	TREs     []extractor.TREInfo
	DES      []extractor.DESInfo
	Texts    []extractor.TextSegment

	// Reconciled reports whether every attached segment got a CCS location.
	Reconciled bool
}

// Close releases the underlying file.
func (d *Document) Close() error {
	if d == nil || d.File == nil {
		return nil
	}
	return d.File.Close()
}

// Pipeline runs parse -> attachments -> extraction.
type Pipeline struct {
	limits   security.Limits
	recovery recovery.Strategy
	logger   observability.Logger
	tracer   observability.Tracer
	specPath string
	treName  string
}

// NewDefault constructs a pipeline with lenient decoding and no logging.
func NewDefault() *Pipeline {
	return &Pipeline{limits: security.DefaultLimits()}
}

// WithLogger sets the logger passed to the parser and decoder.
func (p *Pipeline) WithLogger(l observability.Logger) *Pipeline {
	p.logger = l
	return p
}

// WithTracer sets the tracer used while parsing.
func (p *Pipeline) WithTracer(t observability.Tracer) *Pipeline {
	p.tracer = t
	return p
}

// WithRecovery sets the strategy applied to TRE and DES decoding problems.
func (p *Pipeline) WithRecovery(s recovery.Strategy) *Pipeline {
	p.recovery = s
	return p
}

// WithLimits overrides the parser size limits.
func (p *Pipeline) WithLimits(l security.Limits) *Pipeline {
	p.limits = l
	return p
}

// WithSpecPath loads TRE/DES definitions from path instead of the
// default locations.
func (p *Pipeline) WithSpecPath(path string) *Pipeline {
	p.specPath = path
	return p
}

// WithTRE restricts TRE decoding to one tag.
func (p *Pipeline) WithTRE(name string) *Pipeline {
	p.treName = name
	return p
}

// Open parses the file at path.
func (p *Pipeline) Open(ctx context.Context, path string) (*Document, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	doc, err := p.parse(ctx, fp, path)
	if err != nil {
		fp.Close()
		return nil, err
	}
	doc.File.SetCloser(fp)
	return doc, nil
}

// Parse orchestrates header parsing, attachment reconciliation and
// TRE/DES/text extraction. Decoding problems that the recovery strategy
// refuses are returned as errors; the document is closed in that case.
func (p *Pipeline) Parse(ctx context.Context, rs io.ReadSeeker) (*Document, error) {
	return p.parse(ctx, rs, "")
}

// parse runs the pipeline; path, when set, selects the RPF series keys.
func (p *Pipeline) parse(ctx context.Context, rs io.ReadSeeker, path string) (_ *Document, err error) {
	f, err := parser.NewFileParser(parser.Config{
		Limits:   p.limits,
		Logger:   p.logger,
		Tracer:   p.tracer,
		SpecPath: p.specPath,
	}).Parse(ctx, rs)
	if err != nil {
		return nil, fmt.Errorf("header parsing failed: %w", err)
	}
	doc := &Document{File: f, Path: path}
	defer func() {
		if err != nil {
			f.Close()
		}
	}()

	ok, err := coords.ReconcileFile(f)
	if err != nil {
		return nil, fmt.Errorf("attachment collection failed: %w", err)
	}
	doc.Reconciled = ok

	ext, err := p.extractor(f)
	if err != nil {
		return nil, err
	}
	if doc.Metadata, err = ext.ExtractMetadata(path); err != nil {
		return nil, fmt.Errorf("TRE metadata: %w", err)
	}
	if doc.Images, err = ext.ExtractImages(); err != nil {
		return nil, fmt.Errorf("image segments: %w", err)
	}
	if doc.TREs, err = ext.ExtractTREs(p.treName); err != nil {
		return nil, fmt.Errorf("TREs: %w", err)
	}
	if doc.DES, err = ext.ExtractDES(); err != nil {
		return nil, fmt.Errorf("data extension segments: %w", err)
	}
	if doc.Texts, err = ext.ExtractText(); err != nil {
		return nil, fmt.Errorf("text segments: %w", err)
	}
	return doc, nil
}

func (p *Pipeline) extractor(f *raw.File) (*extractor.Extractor, error) {
	dec := decoded.NewDecoder(decoded.Config{Recovery: p.recovery, Logger: p.logger})
	return extractor.New(f, dec)
}

