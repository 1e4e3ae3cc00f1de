package tre

import (
	"bytes"
	"errors"
	"testing"
)

func block(recs ...string) []byte {
	var b bytes.Buffer
	for _, r := range recs {
		b.WriteString(r)
	}
	return b.Bytes()
}

func TestFindByIndex(t *testing.T) {
	blk := block("AAAAAA00001a", "BBBBBB00002bb", "AAAAAA00001c", "aaaaaa00001d")
	tests := []struct {
		tag   string
		index int
		want  string
	}{
		{"AAAAAA", 0, "a"},
		{"AAAAAA", 1, "c"},
		{"AAAAAA", 2, "d"},
		{"AAAAAA", 3, ""},
		{"BBBBBB", 0, "bb"},
		{"CCCCCC", 0, ""},
	}
	for _, tt := range tests {
		got, err := FindByIndex(blk, tt.tag, tt.index, nil)
		if err != nil {
			t.Fatalf("%s[%d]: %v", tt.tag, tt.index, err)
		}
		if string(got) != tt.want {
			t.Errorf("%s[%d] = %q, want %q", tt.tag, tt.index, got, tt.want)
		}
		if tt.want == "" && got != nil {
			t.Errorf("%s[%d] should be nil", tt.tag, tt.index)
		}
	}
	first, _ := Find(blk, "AAAAAA", nil)
	byIndex, _ := FindByIndex(blk, "AAAAAA", 0, nil)
	if !bytes.Equal(first, byIndex) {
		t.Fatalf("Find differs from FindByIndex(0)")
	}
}

func TestFindShortTag(t *testing.T) {
	blk := block("ABC   00001x")
	got, err := Find(blk, "ABC", nil)
	if err != nil || got != nil {
		t.Fatalf("short tag matched a space padded record: %q %v", got, err)
	}
	got, _ = Find(block("ABC\x00\x00\x0000001y"), "ABC", nil)
	if string(got) != "y" {
		t.Fatalf("NUL padded record = %q", got)
	}
}

func TestFindErrors(t *testing.T) {
	if _, err := Find(block("AAAAAA-0001x"), "ZZZZZZ", nil); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("negative size: %v", err)
	}
	if _, err := Find(block("AAAAAA00010x"), "ZZZZZZ", nil); !errors.Is(err, ErrTruncated) {
		t.Fatalf("overrun: %v", err)
	}
}

func TestFindClampsRPFIMG(t *testing.T) {
	got, err := Find(block("RPFIMG00100short"), "RPFIMG", nil)
	if err != nil {
		t.Fatalf("RPFIMG: %v", err)
	}
	if string(got) != "short" {
		t.Fatalf("payload = %q", got)
	}
}

func TestRecordsAndEncode(t *testing.T) {
	a, err := Encode("BLOCKA", []byte("123"))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Encode("XY", []byte(""))
	if string(b) != "XY    00000" {
		t.Fatalf("Encode = %q", b)
	}
	recs, err := Records(append(a, b...), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].Tag != "BLOCKA" || string(recs[0].Payload) != "123" || recs[1].Offset != 14 {
		t.Fatalf("records = %+v", recs)
	}
	if _, err := Encode("BIG", make([]byte, MaxLength+1)); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("oversized payload: %v", err)
	}
}
