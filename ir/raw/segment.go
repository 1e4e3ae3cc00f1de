package raw

import (
	"fmt"
	"strings"
)

// SegmentType is the closed set of NITF segment kinds.
type SegmentType int

const (
	SegmentImage SegmentType = iota
	SegmentGraphic
	SegmentLabel
	SegmentText
	SegmentDataExtension
	SegmentReservedExtension
)

// SegmentTypes lists the segment kinds in file header order.
var SegmentTypes = []SegmentType{
	SegmentImage,
	SegmentGraphic,
	SegmentLabel,
	SegmentText,
	SegmentDataExtension,
	SegmentReservedExtension,
}

var segmentInfo = [...]struct {
	code              string
	headerLen, dataLen int
}{
	SegmentImage:             {"IM", 6, 10},
	SegmentGraphic:           {"GR", 4, 6},
	SegmentLabel:             {"LA", 4, 3},
	SegmentText:              {"TX", 4, 5},
	SegmentDataExtension:     {"DE", 4, 9},
	SegmentReservedExtension: {"RE", 4, 7},
}

// Code returns the two letter code used in file headers.
func (t SegmentType) Code() string {
	if t < 0 || int(t) >= len(segmentInfo) {
		return "??"
	}
	return segmentInfo[t].code
}

func (t SegmentType) String() string { return t.Code() }

// HeaderLenWidth is the width of the subheader length field in the
// file header directory.
func (t SegmentType) HeaderLenWidth() int { return segmentInfo[t].headerLen }

// DataLenWidth is the width of the data length field.
func (t SegmentType) DataLenWidth() int { return segmentInfo[t].dataLen }

// ParseSegmentType maps a code to a type. "SY" (NITF 2.0 symbols) is a
// graphic segment.
func ParseSegmentType(code string) (SegmentType, error) {
	if strings.EqualFold(code, "SY") {
		return SegmentGraphic, nil
	}
	for _, t := range SegmentTypes {
		if strings.EqualFold(code, t.Code()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown segment type %q", code)
}

// Unknown marks an unresolved location.
const Unknown = -1

// Location is a row/column pair in pixels.
type Location struct {
	Row int
	Col int
}

// UnknownLocation is the initial value of segment locations.
var UnknownLocation = Location{Unknown, Unknown}

func (l Location) Known() bool { return l.Row != Unknown }

// Add returns l offset by o.
func (l Location) Add(o Location) Location {
	return Location{l.Row + o.Row, l.Col + o.Col}
}

// Accessor is a type-specific view of a segment created on demand.
type Accessor interface {
	Close() error
}

// Segment describes one entry of the file header directory.
type Segment struct {
	Type        SegmentType
	HeaderStart uint64
	HeaderSize  uint64
	DataStart   uint64
	DataSize    uint64

	// DirectoryOffset is the position of this segment's length pair in
	// the file header.
	DirectoryOffset int

	Access Accessor

	DLVL int
	ALVL int
	Loc  Location
	CCS  Location
}

// NewSegment returns a segment with unknown display data.
func NewSegment(t SegmentType) *Segment {
	return &Segment{
		Type: t,
		DLVL: Unknown,
		ALVL: Unknown,
		Loc:  UnknownLocation,
		CCS:  UnknownLocation,
	}
}

// End returns the offset just past the segment data.
func (s *Segment) End() uint64 { return s.DataStart + s.DataSize }
