package report

import (
	"bytes"
	"fmt"
	"io"

	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTML converts a Markdown report into a standalone HTML page. Tables use
// the GFM syntax and $$...$$ blocks are rendered as MathML.
func HTML(w io.Writer, markdown, title string) error {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			treeblood.MathML(),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	page, err := wrapPage(body.Bytes(), title)
	if err != nil {
		return err
	}
	return html.Render(w, page)
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

// wrapPage places the rendered fragment into an html/head/body skeleton.
func wrapPage(fragment []byte, title string) (*html.Node, error) {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	head := element(atom.Head)
	body := element(atom.Body)
	doc.AppendChild(root)
	root.AppendChild(head)
	root.AppendChild(body)

	head.AppendChild(element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	t := element(atom.Title)
	t.AppendChild(&html.Node{Type: html.TextNode, Data: title})
	head.AppendChild(t)

	nodes, err := html.ParseFragment(bytes.NewReader(fragment), body)
	if err != nil {
		return nil, fmt.Errorf("parse rendered report: %w", err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return doc, nil
}
