package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const testDoc = `<root>
  <tres>
    <tre name="TSTA" length="10" md_prefix="T_">
      <field name="A" length="2" type="integer" minval="0" maxval="50"/>
      <field length="3"/>
      <loop counter="A" md_prefix="G%02d_" name="GRP">
        <field name="B" length_var="A"/>
        <unknown/>
      </loop>
      <if cond="A=01"><field name="C" length="1"/></if>
      <if_remaining_bytes><field name="D" longname="Dee" length="1"/></if_remaining_bytes>
    </tre>
    <tre name="TSTA" length="99"/>
    <tre><field name="X" length="1"/></tre>
  </tres>
  <des_list>
    <des name="MYDES">
      <subheader_fields length="4"><field name="S" length="4"/></subheader_fields>
    </des>
  </des_list>
</root>`

func TestParseCompilesNodes(t *testing.T) {
	s, err := ParseString(testDoc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rec := s.TRE("TSTA")
	if rec == nil {
		t.Fatal("TSTA not found")
	}
	if rec.Length != 10 || rec.MinLength != -1 || !rec.HasMDPrefix || rec.MDPrefix != "T_" {
		t.Fatalf("unexpected record attributes: %+v", rec)
	}
	if len(s.TREs) != 2 {
		t.Fatalf("expected 2 named TREs, got %d", len(s.TREs))
	}
	if len(rec.Children) != 5 {
		t.Fatalf("expected 5 children, got %d", len(rec.Children))
	}
	f, ok := rec.Children[0].(*Field)
	if !ok || f.Name != "A" || f.Length != 2 || f.Type != "integer" || f.MaxVal != "50" {
		t.Fatalf("unexpected first field: %#v", rec.Children[0])
	}
	anon := rec.Children[1].(*Field)
	if anon.HasName || anon.Type != "string" {
		t.Fatalf("anonymous field should have no name and default type: %+v", anon)
	}
	loop := rec.Children[2].(*Loop)
	if loop.Counter != "A" || loop.MDPrefix != "G%02d_" || len(loop.Children) != 1 {
		t.Fatalf("unexpected loop: %+v", loop)
	}
	if lv := loop.Children[0].(*Field); lv.Length != -1 || lv.LengthVar != "A" {
		t.Fatalf("unexpected length_var field: %+v", lv)
	}
	if cond := rec.Children[3].(*If); !cond.HasCond || cond.Cond != "A=01" {
		t.Fatalf("unexpected if: %+v", cond)
	}
	if _, ok := rec.Children[4].(*IfRemainingBytes); !ok {
		t.Fatalf("expected if_remaining_bytes")
	}

	d := s.DES("MYDES")
	if d == nil || d.Subheader == nil || d.Data != nil || d.Subheader.Length != 4 {
		t.Fatalf("unexpected DES: %+v", d)
	}
	if s.TRE("NOPE") != nil || s.DES("NOPE") != nil {
		t.Fatal("unknown names must return nil")
	}
}

func TestParseRejectsWrongRoot(t *testing.T) {
	if _, err := ParseString(`<tres/>`); !errors.Is(err, ErrNoRoot) {
		t.Fatalf("expected ErrNoRoot, got %v", err)
	}
	if _, err := ParseString(`<root>`); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestEmbeddedSpec(t *testing.T) {
	s, err := Embedded()
	if err != nil {
		t.Fatalf("embedded: %v", err)
	}
	for _, name := range []string{"BLOCKA", "USE00A", "STDIDC", "RPC00B", "CSEPHA", "ENGRDA"} {
		if s.TRE(name) == nil {
			t.Errorf("embedded schema lacks %s", name)
		}
	}
	if s.DES("XML_DATA_CONTENT") == nil || s.DES("TEST DES") == nil {
		t.Error("embedded schema lacks DES definitions")
	}
	if s.TRE("USE00A").Length != 107 || s.TRE("RPC00B").Length != 1041 {
		t.Error("unexpected embedded lengths")
	}
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(testDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvSpecFile, "")
	t.Setenv(EnvDataDir, dir)
	s, err := Locate("", nil)
	if err != nil {
		t.Fatalf("locate via data dir: %v", err)
	}
	if s.TRE("TSTA") == nil {
		t.Fatal("expected schema from data dir")
	}

	t.Setenv(EnvDataDir, "")
	s, err = Locate("", nil)
	if err != nil || s.TRE("USE00A") == nil {
		t.Fatalf("expected embedded fallback, err=%v", err)
	}

	if _, err := Locate(filepath.Join(dir, "missing.xml"), nil); err == nil {
		t.Fatal("explicit missing path must fail")
	}
}
