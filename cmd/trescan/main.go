package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"

	"github.com/wudi/nitfkit/ir/raw"
	"github.com/wudi/nitfkit/observability"
	"github.com/wudi/nitfkit/parser"
	"github.com/wudi/nitfkit/tre"
)

func main() {
	dump := flag.Bool("x", false, "hex dump TRE payloads")
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Println("usage: trescan [-x] <file.ntf>")
		os.Exit(1)
	}
	logger := observability.NewCharmLogger(os.Stderr, charmlog.WarnLevel)
	f, err := parser.Open(context.Background(), flag.Arg(0), parser.Config{Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "trescan: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	scan(os.Stdout, f, logger, *dump)
}

// scan lists the TREs of the file header and of every image subheader.
func scan(w io.Writer, f *raw.File, logger observability.Logger, dump bool) {
	block(w, "file", f.TRE, logger, dump)
	for i, seg := range f.Segments {
		if seg.Type != raw.SegmentImage {
			continue
		}
		img, err := f.ImageAccess(i)
		if err != nil {
			fmt.Fprintf(w, "ERR image %d: %v\n", i, err)
			continue
		}
		block(w, fmt.Sprintf("image %d", i), img.TRE, logger, dump)
	}
}

func block(w io.Writer, where string, data []byte, logger observability.Logger, dump bool) {
	recs, err := tre.Records(data, logger)
	for _, r := range recs {
		fmt.Fprintf(w, "%s@%d %-6s %5d\n", where, r.Offset, r.Tag, len(r.Payload))
		if dump {
			fmt.Fprint(w, hex.Dump(r.Payload))
		}
	}
	if err != nil {
		fmt.Fprintf(w, "ERR %s: %v\n", where, err)
	}
}
