package extractor

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/wudi/nitfkit/ir/decoded"
	"github.com/wudi/nitfkit/ir/raw"
)

// xmlDataContentID is the DESID of segments carrying an XML document.
const xmlDataContentID = "XML_DATA_CONTENT"

// DESInfo is a data extension segment and its decoded fields.
type DESInfo struct {
	Index    int
	ID       string
	Version  int
	Size     uint64
	Metadata raw.Metadata
	// Tree is nil when the schema has no definition for ID.
	Tree    *decoded.Node
	Invalid bool
	// XML is set for XML_DATA_CONTENT segments.
	XML *XMLContent
}

// XMLContent describes the payload of an XML_DATA_CONTENT segment.
type XMLContent struct {
	Root     string
	Encoding string
	// Err is the first syntax error, nil for a well formed document.
	Err error
}

// ExtractDES returns every data extension segment of the file.
func (e *Extractor) ExtractDES() ([]DESInfo, error) {
	var out []DESInfo
	for i, seg := range e.file.Segments {
		if seg.Type != raw.SegmentDataExtension {
			continue
		}
		des, err := e.file.DESAccess(i)
		if err != nil {
			return out, err
		}
		tree, invalid, err := e.dec.CreateXMLDES(e.file, i)
		if err != nil {
			return out, err
		}
		info := DESInfo{
			Index:    i,
			ID:       des.ID,
			Version:  des.Version,
			Size:     seg.DataSize,
			Metadata: des.Metadata.Clone(),
			Tree:     tree,
			Invalid:  invalid,
		}
		if strings.EqualFold(strings.TrimSpace(des.ID), xmlDataContentID) {
			data, err := e.file.SegmentData(i)
			if err != nil {
				return out, err
			}
			info.XML = InspectXML(data)
		}
		out = append(out, info)
	}
	return out, nil
}

// InspectXML reads an XML document through its declared encoding and
// reports its root element.
func InspectXML(data []byte) *XMLContent {
	out := &XMLContent{Encoding: "UTF-8"}
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			if out.Root == "" {
				out.Err = errors.New("no root element")
			}
			return out
		}
		if err != nil {
			out.Err = err
			return out
		}
		switch t := tok.(type) {
		case xml.ProcInst:
			if t.Target == "xml" {
				if enc := procInstAttr(string(t.Inst), "encoding"); enc != "" {
					out.Encoding = enc
				}
			}
		case xml.StartElement:
			if out.Root == "" {
				out.Root = t.Name.Local
			}
		}
	}
}

func procInstAttr(inst, name string) string {
	i := strings.Index(inst, name+"=")
	if i < 0 {
		return ""
	}
	v := inst[i+len(name)+1:]
	if v == "" || (v[0] != '"' && v[0] != '\'') {
		return ""
	}
	end := strings.IndexByte(v[1:], v[0])
	if end < 0 {
		return ""
	}
	return v[1 : end+1]
}
