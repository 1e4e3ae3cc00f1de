package report

import (
	"bytes"
	"context"
	"encoding/hex"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/net/html"

	"github.com/wudi/nitfkit/ir"
	"github.com/wudi/nitfkit/writer"
)

const igeolo = "323000N1170000W323000N1163000W320000N1163000W320000N1170000W"

func fixture(t *testing.T, opts writer.Options) *ir.Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.ntf")
	img := writer.ImageSpec{Pixels: 3, Lines: 2, Bands: 1, BitsPerSample: 8, PVType: "INT"}
	if _, err := writer.CreateFile(context.Background(), path, img, opts, writer.Config{}); err != nil {
		t.Fatalf("create: %v", err)
	}
	doc, err := ir.NewDefault().Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { doc.Close() })
	return doc
}

func TestMarkdown(t *testing.T) {
	doc := fixture(t, writer.Options{
		"FTITLE=a|b", "IID1=SCENE", "ICOM=first comment",
		"ICORDS=G", "IGEOLO=" + igeolo,
		"TRE=ABCDEF=xyz",
	})
	out, err := Markdown(doc, Options{Digests: true})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"## File header",
		`| NITF_FTITLE | a\|b |`,
		"| 0 | IM |",
		"## Image segment 0: SCENE",
		"3 x 2 pixels, 1 band(s)",
		"> first comment",
		"| Upper left | -117.000000 | 32.500000 |",
		"| ABCDEF | segment 0 | 3 | unknown |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in\n%s", want, out)
		}
	}

	data, err := doc.File.SegmentData(0)
	if err != nil {
		t.Fatal(err)
	}
	sum := blake2b.Sum256(data)
	if digest, err := SegmentDigest(doc.File, 0); err != nil || !strings.Contains(out, digest) {
		t.Errorf("digest %q (%v) not in report", digest, err)
	} else if digest != hex.EncodeToString(sum[:]) {
		t.Errorf("digest = %s", digest)
	}
	if _, err := SegmentDigest(doc.File, 5); err == nil {
		t.Errorf("expected index error")
	}
}

func TestHTML(t *testing.T) {
	doc := fixture(t, writer.Options{"IID1=<b>"})
	md, err := Markdown(doc, Options{})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := HTML(&buf, md, "report & co"); err != nil {
		t.Fatal(err)
	}
	page := buf.String()
	if !strings.HasPrefix(page, "<!DOCTYPE html>") || !strings.Contains(page, "<title>report &amp; co</title>") {
		t.Fatalf("page = %s", page)
	}

	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}
	var tables, headings int
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "table":
				tables++
			case "h2":
				headings++
			case "b":
				t.Errorf("raw markup from a header field leaked into the page")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	if tables < 2 || headings < 3 {
		t.Fatalf("tables = %d, headings = %d\n%s", tables, headings, page)
	}
}

func TestHTMLMath(t *testing.T) {
	var buf bytes.Buffer
	if err := HTML(&buf, "$$r = \\frac{a}{b}$$\n", "math"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<math") {
		t.Fatalf("no MathML in %s", buf.String())
	}
}
