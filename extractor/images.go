package extractor

import (
	"github.com/wudi/nitfkit/geo"
	"github.com/wudi/nitfkit/ir/raw"
	"github.com/wudi/nitfkit/observability"
)

// ImageInfo summarises an image segment.
type ImageInfo struct {
	Index    int
	ID       string
	Rows     int
	Cols     int
	Bands    int
	PVType   string
	IREP     string
	ICAT     string
	ABPP     int
	IC       string
	IMODE    string
	Blocks   [2]int
	Comments []string

	DLVL int
	ALVL int
	Loc  raw.Location
	CCS  raw.Location

	// Footprint is nil when ICORDS is blank or IGEOLO is unreadable.
	Footprint *geo.Footprint
	Metadata  raw.Metadata
}

// ExtractImages returns the subheader summary of every image segment.
func (e *Extractor) ExtractImages() ([]ImageInfo, error) {
	var out []ImageInfo
	for i, seg := range e.file.Segments {
		if seg.Type != raw.SegmentImage {
			continue
		}
		img, err := e.file.ImageAccess(i)
		if err != nil {
			return out, err
		}
		info := ImageInfo{
			Index:    i,
			ID:       img.Metadata.Value("NITF_IID1"),
			Rows:     img.Rows,
			Cols:     img.Cols,
			Bands:    len(img.Bands),
			PVType:   img.PVType,
			IREP:     img.IREP,
			ICAT:     img.ICAT,
			ABPP:     img.ABPP,
			IC:       img.IC,
			IMODE:    img.IMODE,
			Blocks:   [2]int{img.NBPR, img.NBPC},
			Comments: img.Comments,
			DLVL:     img.IDLVL,
			ALVL:     img.IALVL,
			Loc:      img.ILOC,
			CCS:      seg.CCS,
			Metadata: img.Metadata.Clone(),
		}
		fp, err := geo.ParseIGEOLO(img.ICORDS, img.IGEOLO)
		if err != nil {
			e.log.Warn("ignoring image corners", observability.Int("segment", i), observability.Error("error", err))
		}
		info.Footprint = fp
		if err := e.GenericMetadata(&info.Metadata, img, ""); err != nil {
			e.log.Warn("image TRE metadata", observability.Int("segment", i), observability.Error("error", err))
		}
		out = append(out, info)
	}
	return out, nil
}
