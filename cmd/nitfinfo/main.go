package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"

	"github.com/wudi/nitfkit/ir"
	"github.com/wudi/nitfkit/observability"
	"github.com/wudi/nitfkit/recovery"
	"github.com/wudi/nitfkit/report"
)

type options struct {
	path     string
	jsonOut  bool
	htmlOut  string
	treName  string
	specPath string
	validate bool
	report   report.Options
	verbose  bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "nitfinfo: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "nitfinfo: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: nitfinfo [flags] <file.ntf>\n")
		flag.PrintDefaults()
	}
	flag.BoolVar(&opts.jsonOut, "json", false, "Emit JSON sections instead of Markdown")
	flag.StringVar(&opts.htmlOut, "html", "", "Also write an HTML report to this path")
	flag.StringVar(&opts.treName, "tre", "", "Only decode TREs with this tag")
	flag.StringVar(&opts.specPath, "spec", "", "TRE/DES definition file (default: NITF_SPEC_FILE, GDAL_DATA, embedded)")
	flag.BoolVar(&opts.validate, "validate", false, "Treat TRE/DES decoding problems as errors")
	flag.BoolVar(&opts.report.Digests, "digest", false, "Add a BLAKE2b-256 digest of every segment")
	flag.BoolVar(&opts.report.TRETrees, "trees", false, "Include decoded TRE/DES XML trees")
	flag.BoolVar(&opts.verbose, "v", false, "Debug logging")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return options{}, errors.New("missing NITF path")
	}
	opts.path = flag.Arg(0)
	return opts, nil
}

func run(opts options, out io.Writer) error {
	level := charmlog.WarnLevel
	if opts.verbose {
		level = charmlog.DebugLevel
	}
	logger := observability.NewCharmLogger(os.Stderr, level)

	lenient := recovery.NewLenientStrategy()
	var strategy recovery.Strategy = lenient
	if opts.validate {
		strategy = recovery.NewStrictStrategy()
	}

	pipe := ir.NewDefault().
		WithLogger(logger).
		WithRecovery(strategy).
		WithSpecPath(opts.specPath).
		WithTRE(opts.treName)
	doc, err := pipe.Open(context.Background(), opts.path)
	if err != nil {
		return err
	}
	defer doc.Close()

	if err := lenient.Err(); err != nil {
		logger.Warn("decoding problems", observability.Int("count", len(lenient.Errors)))
		for _, e := range lenient.Errors {
			logger.Debug("problem", observability.Error("err", e))
		}
	}

	if opts.jsonOut {
		if err := emitJSON(out, doc, opts); err != nil {
			return err
		}
	}

	md, err := report.Markdown(doc, opts.report)
	if err != nil {
		return err
	}
	if !opts.jsonOut {
		if _, err := io.WriteString(out, md); err != nil {
			return err
		}
	}
	if opts.htmlOut != "" {
		f, err := os.Create(opts.htmlOut)
		if err != nil {
			return fmt.Errorf("create html report: %w", err)
		}
		if err := report.HTML(f, md, opts.path); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

type segmentSummary struct {
	Type        string `json:"type"`
	HeaderStart uint64 `json:"headerStart"`
	HeaderSize  uint64 `json:"headerSize"`
	DataStart   uint64 `json:"dataStart"`
	DataSize    uint64 `json:"dataSize"`
	DLVL        int    `json:"dlvl"`
	ALVL        int    `json:"alvl"`
	Loc         [2]int `json:"loc"`
	CCS         [2]int `json:"ccs"`
	Digest      string `json:"blake2b,omitempty"`
}

type treSummary struct {
	Tag     string `json:"tag"`
	Segment int    `json:"segment"`
	Size    int    `json:"size"`
	Invalid bool   `json:"invalid,omitempty"`
	XML     string `json:"xml,omitempty"`
}

func emitJSON(out io.Writer, doc *ir.Document, opts options) error {
	if err := emitSection(out, "metadata", doc.Metadata); err != nil {
		return err
	}

	segs := make([]segmentSummary, 0, len(doc.File.Segments))
	for i, s := range doc.File.Segments {
		sum := segmentSummary{
			Type:        s.Type.Code(),
			HeaderStart: s.HeaderStart,
			HeaderSize:  s.HeaderSize,
			DataStart:   s.DataStart,
			DataSize:    s.DataSize,
			DLVL:        s.DLVL,
			ALVL:        s.ALVL,
			Loc:         [2]int{s.Loc.Row, s.Loc.Col},
			CCS:         [2]int{s.CCS.Row, s.CCS.Col},
		}
		if opts.report.Digests {
			d, err := report.SegmentDigest(doc.File, i)
			if err != nil {
				return err
			}
			sum.Digest = d
		}
		segs = append(segs, sum)
	}
	if err := emitSection(out, "segments", segs); err != nil {
		return err
	}

	tres := make([]treSummary, 0, len(doc.TREs))
	for _, t := range doc.TREs {
		ts := treSummary{Tag: t.Tag, Segment: t.Segment, Size: t.Size, Invalid: t.Invalid}
		if opts.report.TRETrees && t.Tree != nil {
			if x, err := t.Tree.XML(); err == nil {
				ts.XML = x
			}
		}
		tres = append(tres, ts)
	}
	if err := emitSection(out, "tres", tres); err != nil {
		return err
	}
	if err := emitSection(out, "images", doc.Images); err != nil {
		return err
	}
	return emitSection(out, "texts", doc.Texts)
}

func emitSection(out io.Writer, name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	_, err = fmt.Fprintf(out, "== %s ==\n%s\n\n", name, data)
	return err
}
