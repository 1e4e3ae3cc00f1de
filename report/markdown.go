// Package report renders a parsed NITF document as Markdown or HTML.
package report

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/wudi/nitfkit/extractor"
	"github.com/wudi/nitfkit/ir"
	"github.com/wudi/nitfkit/ir/raw"
)

// Options selects optional report sections.
type Options struct {
	// Digests adds a BLAKE2b-256 digest of every segment's data.
	Digests bool
	// TRETrees includes the decoded XML tree of each TRE and DES.
	TRETrees bool
}

// Markdown renders doc as a Markdown document.
func Markdown(doc *ir.Document, opts Options) (string, error) {
	var b strings.Builder
	title := doc.Path
	if title == "" {
		title = "NITF file"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	b.WriteString("## File header\n\n")
	fmt.Fprintf(&b, "Version **%s**, header length %d, %d TRE bytes.\n\n", doc.File.Version, len(doc.File.Header), len(doc.File.TRE))
	metadataTable(&b, &doc.Metadata)

	if err := segmentTable(&b, doc, opts); err != nil {
		return "", err
	}
	for _, img := range doc.Images {
		imageSection(&b, img)
	}
	treSection(&b, doc.TREs, opts)
	desSection(&b, doc.DES, opts)
	for _, t := range doc.Texts {
		fmt.Fprintf(&b, "## Text segment %d: %s\n\n", t.Index, cell(t.ID))
		fmt.Fprintf(&b, "Format %s.\n\n```\n%s\n```\n\n", cell(t.Format), strings.TrimRight(t.Content, "\n"))
	}
	return b.String(), nil
}

// cell escapes s for use in a table cell or heading.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func metadataTable(b *strings.Builder, md *raw.Metadata) {
	if md.Len() == 0 {
		return
	}
	b.WriteString("| Key | Value |\n|---|---|\n")
	md.Each(func(k, v string) bool {
		fmt.Fprintf(b, "| %s | %s |\n", cell(k), cell(v))
		return true
	})
	b.WriteString("\n")
}

func location(l raw.Location) string {
	if !l.Known() {
		return "?"
	}
	return fmt.Sprintf("%d,%d", l.Row, l.Col)
}

func segmentTable(b *strings.Builder, doc *ir.Document, opts Options) error {
	if len(doc.File.Segments) == 0 {
		return nil
	}
	b.WriteString("## Segments\n\n")
	b.WriteString("| # | Type | Header start | Header size | Data size | DLVL | ALVL | LOC | CCS |")
	if opts.Digests {
		b.WriteString(" BLAKE2b-256 |")
	}
	b.WriteString("\n|---|---|---|---|---|---|---|---|---|")
	if opts.Digests {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for i, s := range doc.File.Segments {
		fmt.Fprintf(b, "| %d | %s | %d | %d | %d | %d | %d | %s | %s |",
			i, s.Type.Code(), s.HeaderStart, s.HeaderSize, s.DataSize, s.DLVL, s.ALVL, location(s.Loc), location(s.CCS))
		if opts.Digests {
			sum, err := SegmentDigest(doc.File, i)
			if err != nil {
				return err
			}
			fmt.Fprintf(b, " `%s` |", sum)
		}
		b.WriteString("\n")
	}
	if !doc.Reconciled {
		b.WriteString("\nSome attached segments could not be placed in the common coordinate system.\n")
	}
	b.WriteString("\n")
	return nil
}

// SegmentDigest returns the hex BLAKE2b-256 digest of segment i's data.
func SegmentDigest(f *raw.File, i int) (string, error) {
	if i < 0 || i >= len(f.Segments) {
		return "", raw.ErrSegmentIndex
	}
	seg := f.Segments[i]
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := f.Stream.Seek(int64(seg.DataStart), io.SeekStart); err != nil {
		return "", fmt.Errorf("segment %d: %w", i, err)
	}
	if _, err := io.CopyN(h, f.Stream, int64(seg.DataSize)); err != nil {
		return "", fmt.Errorf("segment %d: %w", i, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func imageSection(b *strings.Builder, img extractor.ImageInfo) {
	fmt.Fprintf(b, "## Image segment %d: %s\n\n", img.Index, cell(img.ID))
	fmt.Fprintf(b, "%d x %d pixels, %d band(s), %s %d bits, IREP %s, ICAT %s, IC %s, IMODE %s, %d x %d blocks.\n\n",
		img.Cols, img.Rows, img.Bands, img.PVType, img.ABPP, img.IREP, img.ICAT, img.IC, img.IMODE, img.Blocks[0], img.Blocks[1])
	for _, c := range img.Comments {
		if c != "" {
			fmt.Fprintf(b, "> %s\n", cell(c))
		}
	}
	if len(img.Comments) > 0 {
		b.WriteString("\n")
	}
	if fp := img.Footprint; fp != nil {
		x, y := "Longitude", "Latitude"
		if !fp.Geographic() {
			x, y = "Easting", "Northing"
			fmt.Fprintf(b, "UTM zone %d%c.\n\n", fp.Zone, fp.ICORDS)
		}
		fmt.Fprintf(b, "| Corner | %s | %s |\n|---|---|---|\n", x, y)
		for i, name := range []string{"Upper left", "Upper right", "Lower right", "Lower left"} {
			fmt.Fprintf(b, "| %s | %.6f | %.6f |\n", name, fp.Corners[i].X, fp.Corners[i].Y)
		}
		b.WriteString("\n")
	}
	if _, ok := img.Metadata.Get("NITF_RPC00B_LINE_SCALE"); ok {
		rpcSection(b, &img.Metadata)
	}
}

// rpcSection shows the rational polynomial camera model of an RPC00B TRE.
func rpcSection(b *strings.Builder, md *raw.Metadata) {
	v := func(k string) string { return strings.TrimSpace(md.Value("NITF_RPC00B_" + k)) }
	b.WriteString("### Rational polynomial coefficients\n\n")
	fmt.Fprintf(b, "$$r = \\frac{N_r(P,L,H)}{D_r(P,L,H)} \\cdot %s + %s$$\n\n", v("LINE_SCALE"), v("LINE_OFF"))
	fmt.Fprintf(b, "$$c = \\frac{N_c(P,L,H)}{D_c(P,L,H)} \\cdot %s + %s$$\n\n", v("SAMP_SCALE"), v("SAMP_OFF"))
	b.WriteString("| Term | Offset | Scale |\n|---|---|---|\n")
	for _, k := range []string{"LAT", "LONG", "HEIGHT"} {
		fmt.Fprintf(b, "| %s | %s | %s |\n", k, v(k+"_OFF"), v(k+"_SCALE"))
	}
	b.WriteString("\n")
}

func treSection(b *strings.Builder, tres []extractor.TREInfo, opts Options) {
	if len(tres) == 0 {
		return
	}
	b.WriteString("## TREs\n\n| Tag | Location | Size | Schema |\n|---|---|---|---|\n")
	for _, t := range tres {
		where := "file header"
		if t.Segment >= 0 {
			where = fmt.Sprintf("segment %d", t.Segment)
		}
		status := "unknown"
		switch {
		case t.Tree != nil && t.Invalid:
			status = "invalid"
		case t.Tree != nil:
			status = "ok"
		}
		fmt.Fprintf(b, "| %s | %s | %d | %s |\n", cell(t.Tag), where, t.Size, status)
	}
	b.WriteString("\n")
	if !opts.TRETrees {
		return
	}
	for _, t := range tres {
		if t.Tree == nil {
			continue
		}
		if x, err := t.Tree.XML(); err == nil {
			fmt.Fprintf(b, "```xml\n%s\n```\n\n", x)
		}
	}
}

func desSection(b *strings.Builder, des []extractor.DESInfo, opts Options) {
	for _, d := range des {
		fmt.Fprintf(b, "## Data extension segment %d: %s\n\n", d.Index, cell(d.ID))
		fmt.Fprintf(b, "Version %d, %d data bytes.\n\n", d.Version, d.Size)
		if d.XML != nil {
			fmt.Fprintf(b, "XML content with root element `%s`", d.XML.Root)
			if d.XML.Err != nil {
				fmt.Fprintf(b, " (not well formed: %s)", cell(d.XML.Err.Error()))
			}
			b.WriteString(".\n\n")
		}
		metadataTable(b, &d.Metadata)
		if opts.TRETrees && d.Tree != nil {
			if x, err := d.Tree.XML(); err == nil {
				fmt.Fprintf(b, "```xml\n%s\n```\n\n", x)
			}
		}
	}
}
