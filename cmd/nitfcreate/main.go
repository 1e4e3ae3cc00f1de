package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"

	"github.com/wudi/nitfkit/observability"
	"github.com/wudi/nitfkit/writer"
)

// optionList collects repeated -co flags.
type optionList writer.Options

func (l *optionList) String() string { return strings.Join(*l, ",") }

func (l *optionList) Set(v string) error {
	if !strings.ContainsAny(v, "=:") {
		return fmt.Errorf("creation option %q is not KEY=VALUE", v)
	}
	*l = append(*l, v)
	return nil
}

type options struct {
	out     string
	from    string
	width   int
	height  int
	bands   int
	bits    int
	pvtype  string
	co      optionList
	verbose bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "nitfcreate: %v\n", err)
		os.Exit(2)
	}
	logger := observability.NewCharmLogger(os.Stderr, charmlog.WarnLevel)
	if opts.verbose {
		logger = observability.NewCharmLogger(os.Stderr, charmlog.DebugLevel)
	}
	res, err := run(context.Background(), opts, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nitfcreate: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s: %d bytes, %d image segment(s), CLEVEL %02d\n", opts.out, res.Length, res.ImageCount, res.CLevel)
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: nitfcreate [flags] <out.ntf>\n")
		flag.PrintDefaults()
	}
	flag.StringVar(&opts.from, "from", "", "Fill the image with pixels from a PNG, JPEG, TIFF or BMP file")
	flag.IntVar(&opts.width, "width", 0, "Columns (default: width of -from, else 1)")
	flag.IntVar(&opts.height, "height", 0, "Rows (default: height of -from, else 1)")
	flag.IntVar(&opts.bands, "bands", 1, "Number of bands")
	flag.IntVar(&opts.bits, "bits", 8, "Bits per sample")
	flag.StringVar(&opts.pvtype, "pvtype", "INT", "Pixel value type: INT, B, SI, R or C")
	flag.Var(&opts.co, "co", "Creation option KEY=VALUE, may be repeated")
	flag.BoolVar(&opts.verbose, "v", false, "Debug logging")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return options{}, errors.New("missing output path")
	}
	opts.out = flag.Arg(0)
	return opts, nil
}

func run(ctx context.Context, opts options, logger observability.Logger) (*writer.Result, error) {
	co := writer.Options(opts.co)
	var src image.Image
	if opts.from != "" {
		var err error
		if src, err = loadImage(opts.from); err != nil {
			return nil, err
		}
		size := src.Bounds().Size()
		if opts.width == 0 {
			opts.width = size.X
		}
		if opts.height == 0 {
			opts.height = size.Y
		}
		if opts.bits != 8 {
			return nil, fmt.Errorf("-from needs 8 bit samples, got %d", opts.bits)
		}
		if opts.bands == 3 && !co.Has("IREP") {
			co = co.With("IREP", "RGB")
		}
		logger.Debug("loaded source image",
			observability.String("path", opts.from),
			observability.Int("width", size.X),
			observability.Int("height", size.Y))
	}
	if opts.width == 0 {
		opts.width = 1
	}
	if opts.height == 0 {
		opts.height = 1
	}

	img := writer.ImageSpec{
		Pixels:        opts.width,
		Lines:         opts.height,
		Bands:         opts.bands,
		BitsPerSample: opts.bits,
		PVType:        opts.pvtype,
	}
	res, err := writer.CreateFile(ctx, opts.out, img, co, writer.Config{Logger: logger})
	if err != nil {
		return nil, err
	}
	if src == nil {
		return res, nil
	}
	if err := fillImage(ctx, opts.out, res.Index, src, logger); err != nil {
		return nil, err
	}
	return res, nil
}
