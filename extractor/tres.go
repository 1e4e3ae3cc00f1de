package extractor

import (
	"strings"

	"github.com/wudi/nitfkit/ir/decoded"
	"github.com/wudi/nitfkit/ir/raw"
	"github.com/wudi/nitfkit/tre"
)

// TREInfo is one TRE of the file header or of an image subheader.
type TREInfo struct {
	// Segment is -1 for the file header.
	Segment int
	Tag     string
	Size    int
	// Tree is nil when the schema has no definition for Tag.
	Tree *decoded.Node
	// Invalid reports a size or decoding problem found while building Tree.
	Invalid bool
}

// ExtractTREs decodes every TRE of the file header and of the image
// subheaders. When only is not empty, other tags are skipped.
func (e *Extractor) ExtractTREs(only string) ([]TREInfo, error) {
	out, err := e.blockTREs(-1, e.file.TRE, only, nil)
	if err != nil {
		return out, err
	}
	for i, seg := range e.file.Segments {
		if seg.Type != raw.SegmentImage {
			continue
		}
		img, err := e.file.ImageAccess(i)
		if err != nil {
			return out, err
		}
		if out, err = e.blockTREs(i, img.TRE, only, out); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (e *Extractor) blockTREs(segment int, block []byte, only string, out []TREInfo) ([]TREInfo, error) {
	recs, err := tre.Records(block, e.log)
	if err != nil {
		return out, err
	}
	for _, r := range recs {
		tag := strings.TrimRight(r.Tag, " ")
		if only != "" && !strings.EqualFold(tag, only) {
			continue
		}
		tree, invalid, err := e.dec.CreateXMLTre(e.file, tag, r.Payload)
		if err != nil {
			return out, err
		}
		out = append(out, TREInfo{
			Segment: segment,
			Tag:     tag,
			Size:    len(r.Payload),
			Tree:    tree,
			Invalid: invalid,
		})
	}
	return out, nil
}
