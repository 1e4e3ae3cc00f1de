// Package schema loads the XML description of TRE and DES layouts
// (nitf_spec.xml) and compiles it into typed nodes.
package schema

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wudi/nitfkit/scanner"
)

// ErrNoRoot is returned when the document has no <root> element.
var ErrNoRoot = errors.New("schema: missing <root> element")

// Node is one compiled layout instruction.
type Node interface {
	node()
}

// Field reads Length (or LengthVar) bytes. Name is optional: a nameless
// field only advances the cursor.
type Field struct {
	Name      string
	HasName   bool
	LongName  string
	Length    int // -1 when absent
	LengthVar string
	Type      string
	MinVal    string
	MaxVal    string
}

// Loop repeats Children a number of times given by Counter, Iterations
// or Formula, in that order of precedence.
type Loop struct {
	Name          string
	Counter       string
	Iterations    string
	HasIterations bool
	Formula       string
	MDPrefix      string
	HasMDPrefix   bool
	Children      []Node
}

// If runs Children when Cond holds.
type If struct {
	Cond     string
	HasCond  bool
	Children []Node
}

// IfRemainingBytes runs Children while unread bytes are left.
type IfRemainingBytes struct {
	Children []Node
}

func (*Field) node()            {}
func (*Loop) node()             {}
func (*If) node()               {}
func (*IfRemainingBytes) node() {}

// Record is a <tre>, <subheader_fields> or <data_fields> element.
type Record struct {
	Name        string
	Length      int // -1 when absent
	MinLength   int
	MaxLength   int
	MDPrefix    string
	HasMDPrefix bool
	Location    string
	Children    []Node
}

// DES describes a data extension segment.
type DES struct {
	Name      string
	Subheader *Record
	Data      *Record
}

// Spec is a compiled nitf_spec.xml document.
type Spec struct {
	TREs []*Record
	DESs []*DES

	tres map[string]*Record
	des  map[string]*DES
}

// TRE returns the first definition named name, or nil.
func (s *Spec) TRE(name string) *Record {
	if s == nil {
		return nil
	}
	return s.tres[name]
}

// DES returns the first DES definition named name, or nil.
func (s *Spec) DES(name string) *DES {
	if s == nil {
		return nil
	}
	return s.des[name]
}

// element is the generic decoding target for the schema document.
type element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []element  `xml:",any"`
}

func (e *element) attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (e *element) child(name string) *element {
	for i := range e.Children {
		if e.Children[i].XMLName.Local == name {
			return &e.Children[i]
		}
	}
	return nil
}

// Parse decodes and compiles a schema document.
func Parse(r io.Reader) (*Spec, error) {
	var root element
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	if root.XMLName.Local != "root" {
		return nil, ErrNoRoot
	}
	s := &Spec{tres: map[string]*Record{}, des: map[string]*DES{}}
	if tres := root.child("tres"); tres != nil {
		for i := range tres.Children {
			el := &tres.Children[i]
			if el.XMLName.Local != "tre" {
				continue
			}
			rec := compileRecord(el)
			if _, ok := el.attr("name"); !ok {
				continue
			}
			s.TREs = append(s.TREs, rec)
			if _, dup := s.tres[rec.Name]; !dup {
				s.tres[rec.Name] = rec
			}
		}
	}
	if list := root.child("des_list"); list != nil {
		for i := range list.Children {
			el := &list.Children[i]
			if el.XMLName.Local != "des" {
				continue
			}
			name, ok := el.attr("name")
			if !ok {
				continue
			}
			d := &DES{Name: name}
			if sub := el.child("subheader_fields"); sub != nil {
				d.Subheader = compileRecord(sub)
				d.Subheader.Name = name
			}
			if data := el.child("data_fields"); data != nil {
				d.Data = compileRecord(data)
				d.Data.Name = name
			}
			s.DESs = append(s.DESs, d)
			if _, dup := s.des[name]; !dup {
				s.des[name] = d
			}
		}
	}
	return s, nil
}

// ParseString is Parse over an in-memory document.
func ParseString(doc string) (*Spec, error) {
	return Parse(strings.NewReader(doc))
}

// Load reads a schema file from disk.
func Load(path string) (*Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func intAttr(e *element, name string) int {
	v, ok := e.attr(name)
	if !ok {
		return -1
	}
	return scanner.Atoi(v)
}

func compileRecord(e *element) *Record {
	rec := &Record{
		Length:    intAttr(e, "length"),
		MinLength: intAttr(e, "minlength"),
		MaxLength: intAttr(e, "maxlength"),
	}
	rec.Name, _ = e.attr("name")
	rec.MDPrefix, rec.HasMDPrefix = e.attr("md_prefix")
	rec.Location, _ = e.attr("location")
	rec.Children = compileChildren(e)
	return rec
}

func compileChildren(e *element) []Node {
	var nodes []Node
	for i := range e.Children {
		c := &e.Children[i]
		switch c.XMLName.Local {
		case "field":
			f := &Field{Length: intAttr(c, "length")}
			f.Name, f.HasName = c.attr("name")
			f.LongName, _ = c.attr("longname")
			f.LengthVar, _ = c.attr("length_var")
			if t, ok := c.attr("type"); ok {
				f.Type = t
			} else {
				f.Type = "string"
			}
			f.MinVal, _ = c.attr("minval")
			f.MaxVal, _ = c.attr("maxval")
			nodes = append(nodes, f)
		case "loop":
			l := &Loop{Children: compileChildren(c)}
			l.Name, _ = c.attr("name")
			l.Counter, _ = c.attr("counter")
			l.Iterations, l.HasIterations = c.attr("iterations")
			l.Formula, _ = c.attr("formula")
			l.MDPrefix, l.HasMDPrefix = c.attr("md_prefix")
			nodes = append(nodes, l)
		case "if":
			n := &If{Children: compileChildren(c)}
			n.Cond, n.HasCond = c.attr("cond")
			nodes = append(nodes, n)
		case "if_remaining_bytes":
			nodes = append(nodes, &IfRemainingBytes{Children: compileChildren(c)})
		}
	}
	return nodes
}
