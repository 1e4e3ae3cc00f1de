package extractor

import (
	"github.com/wudi/nitfkit/ir/raw"
	"github.com/wudi/nitfkit/scanner"
)

// TextSegment is a text segment with its content recoded to UTF-8.
type TextSegment struct {
	Index   int
	ID      string
	Format  string
	Content string
}

// ExtractText returns every text segment of the file.
func (e *Extractor) ExtractText() ([]TextSegment, error) {
	var out []TextSegment
	for i, seg := range e.file.Segments {
		if seg.Type != raw.SegmentText {
			continue
		}
		txt, err := e.file.TextAccess(i)
		if err != nil {
			return out, err
		}
		data, err := e.file.SegmentData(i)
		if err != nil {
			return out, err
		}
		out = append(out, TextSegment{
			Index:   i,
			ID:      txt.ID,
			Format:  txt.Format,
			Content: scanner.Latin1ToUTF8(data),
		})
	}
	return out, nil
}
