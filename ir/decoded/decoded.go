// Package decoded expands TRE and DES payloads into metadata and typed
// trees, driven by the layouts of a schema.Spec.
package decoded

import (
	"encoding/xml"
	"errors"
	"fmt"

	"github.com/wudi/nitfkit/observability"
	"github.com/wudi/nitfkit/recovery"
)

var (
	// ErrSchema reports a layout the interpreter cannot follow.
	ErrSchema = errors.New("invalid layout construct")
	// ErrNotEnoughBytes is returned when a field runs past the payload.
	ErrNotEnoughBytes = errors.New("not enough bytes")
	// ErrConstraint reports a minval/maxval violation.
	ErrConstraint = errors.New("value constraint not met")
	// ErrRecordSize reports a payload whose size contradicts its layout.
	ErrRecordSize = errors.New("wrong record size")
)

// Config controls decoding. Problems are passed to Recovery: ActionFail
// marks them as errors, any other action as warnings.
type Config struct {
	Recovery recovery.Strategy
	Logger   observability.Logger
}

// Decoder interprets schema layouts. It is not safe for concurrent use
// when Recovery accumulates state.
type Decoder struct {
	recovery recovery.Strategy
	log      observability.Logger
}

func NewDecoder(cfg Config) *Decoder {
	return &Decoder{
		recovery: recovery.OrLenient(cfg.Recovery),
		log:      observability.OrNop(cfg.Logger),
	}
}

// Node is an element of a decoded tree: tre, field, repeated, group,
// user_defined_fields, data_fields, des, error or warning.
type Node struct {
	Kind     string
	Attrs    []xml.Attr
	Text     string
	Children []*Node
}

func newNode(kind string, attrs ...string) *Node {
	n := &Node{Kind: kind}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Local: attrs[i]}, Value: attrs[i+1]})
	}
	return n
}

// Attr returns the value of attribute name.
func (n *Node) Attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n *Node) appendChild(c *Node) *Node {
	n.Children = append(n.Children, c)
	return c
}

func (n *Node) addText(kind, text string) {
	n.appendChild(&Node{Kind: kind, Text: text})
}

// Find returns the descendants of kind in document order.
func (n *Node) Find(kind string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == kind {
			out = append(out, c)
		}
		out = append(out, c.Find(kind)...)
	}
	return out
}

// Field returns the value of the first field named name.
func (n *Node) Field(name string) (string, bool) {
	for _, f := range n.Find("field") {
		if f.Attr("name") == name {
			return f.Attr("value"), true
		}
	}
	return "", false
}

func (n *Node) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: n.Kind}, Attr: n.Attrs}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if n.Text != "" {
		if err := e.EncodeToken(xml.CharData(n.Text)); err != nil {
			return err
		}
	}
	for _, c := range n.Children {
		if err := e.Encode(c); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// XML renders the tree with indentation.
func (n *Node) XML() (string, error) {
	b, err := xml.MarshalIndent(n, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", n.Kind, err)
	}
	return string(b), nil
}
