package ir

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wudi/nitfkit/ir/decoded"
	"github.com/wudi/nitfkit/recovery"
	"github.com/wudi/nitfkit/writer"
)

func createFixture(t *testing.T, name string, opts writer.Options) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	img := writer.ImageSpec{Pixels: 6, Lines: 3, Bands: 1, BitsPerSample: 8, PVType: "INT"}
	if _, err := writer.CreateFile(context.Background(), path, img, opts, writer.Config{}); err != nil {
		t.Fatalf("create: %v", err)
	}
	return path
}

func use00a(angle string) string {
	return angle + "010.0" + strings.Repeat(" ", 99)
}

func TestPipelineOpen(t *testing.T) {
	path := createFixture(t, "0001.TP1", writer.Options{
		"TRE=USE00A=" + use00a("045"),
		"ILOCROW=3", "ILOCCOL=4",
		"FTITLE=pipeline",
	})
	doc, err := NewDefault().Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer doc.Close()

	if doc.Path != path || !doc.Reconciled {
		t.Fatalf("document = %+v", doc)
	}
	if v := doc.Metadata.Value("NITF_FTITLE"); v != "pipeline" {
		t.Errorf("FTITLE = %q", v)
	}
	if v := doc.Metadata.Value("NITF_SERIES_ABBREVIATION"); v != "TPC" {
		t.Errorf("series = %q", v)
	}
	if len(doc.Images) != 1 || doc.Images[0].CCS.Row != 3 || doc.Images[0].CCS.Col != 4 {
		t.Fatalf("images = %+v", doc.Images)
	}
	if len(doc.TREs) != 1 || doc.TREs[0].Tag != "USE00A" || doc.TREs[0].Tree == nil {
		t.Fatalf("TREs = %+v", doc.TREs)
	}
	if len(doc.DES) != 0 || len(doc.Texts) != 0 {
		t.Fatalf("unexpected segments: %+v %+v", doc.DES, doc.Texts)
	}
}

func TestPipelineStrictRecovery(t *testing.T) {
	path := createFixture(t, "bad.ntf", writer.Options{"TRE=USE00A=" + use00a("400")})

	lenient := recovery.NewLenientStrategy()
	doc, err := NewDefault().WithRecovery(lenient).Open(context.Background(), path)
	if err != nil {
		t.Fatalf("lenient open: %v", err)
	}
	if w := doc.TREs[0].Tree.Find("warning"); len(w) != 1 || !strings.Contains(w[0].Text, "Maximum value constraint of 359") {
		t.Errorf("warnings = %+v", w)
	}
	if !errors.Is(lenient.Err(), decoded.ErrConstraint) {
		t.Errorf("lenient errors = %v", lenient.Err())
	}
	doc.Close()

	_, err = NewDefault().WithRecovery(recovery.NewStrictStrategy()).Open(context.Background(), path)
	if !errors.Is(err, decoded.ErrConstraint) {
		t.Fatalf("strict err = %v", err)
	}
}

func TestPipelineTRESelection(t *testing.T) {
	path := createFixture(t, "sel.ntf", writer.Options{
		"TRE=USE00A=" + use00a("010"),
		"TRE=ABCDEF=payload",
	})
	doc, err := NewDefault().WithTRE("ABCDEF").Open(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	defer doc.Close()
	if len(doc.TREs) != 1 || doc.TREs[0].Tag != "ABCDEF" || doc.TREs[0].Tree != nil {
		t.Fatalf("TREs = %+v", doc.TREs)
	}
}

func TestPipelineRejectsNonNITF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.bin")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 512)), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewDefault().Open(context.Background(), path); err == nil {
		t.Fatalf("expected error")
	}
}
