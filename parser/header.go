package parser

import (
	"fmt"
	"strings"

	"github.com/wudi/nitfkit/ir/raw"
	"github.com/wudi/nitfkit/scanner"
	"github.com/wudi/nitfkit/security"
)

const (
	// HeaderLengthOffset is the position of HL in NITF 2.x headers.
	HeaderLengthOffset = 354
	// LegacyHeaderLengthOffset applies to NITF 1.x and to headers with a
	// downgrade event.
	LegacyHeaderLengthOffset = 394

	fsdwngOffset      = 280
	securityOffset    = 119
	flOffset          = 342
	flWidth           = 12
	headerLengthWidth = 6
)

type headerField struct {
	name   string
	offset int
	width  int
}

var leadFields = []headerField{
	{"FHDR", 0, 9},
	{"CLEVEL", 9, 2},
	{"STYPE", 11, 4},
	{"OSTAID", 15, 10},
	{"FDT", 25, 14},
	{"FTITLE", 39, 80},
}

// tail fields of the 2.1 header, FBKGC being handled separately.
var tail21 = []headerField{
	{"FSCOP", 286, 5},
	{"FSCPYS", 291, 5},
	{"ENCRYP", 296, 1},
}

var owner21 = []headerField{
	{"ONAME", 300, 24},
	{"OPHONE", 324, 18},
}

// tail20 offsets are shifted by 40 when FSDEVT is present.
var tail20 = []headerField{
	{"FSCOP", 286, 5},
	{"FSCPYS", 291, 5},
	{"ENCRYP", 296, 1},
	{"ONAME", 297, 27},
	{"OPHONE", 324, 18},
}

func extractFields(md *raw.Metadata, hdr []byte, fields []headerField, shift int) {
	for _, f := range fields {
		scanner.Extract(md, hdr, f.offset+shift, f.width, "NITF_"+f.name)
	}
}

func extractSecurity(md *raw.Metadata, hdr []byte, block []security.Field) {
	for _, f := range block {
		scanner.Extract(md, hdr, securityOffset+f.Offset, f.Width, f.Key("NITF_FS"))
	}
}

// headerLengthOffset returns where HL lives given the first 9 header
// bytes and FSDWNG.
func headerLengthOffset(version, fsdwng string) int {
	if len(version) >= 7 && strings.EqualFold(version[:7], "NITF01.") {
		return LegacyHeaderLengthOffset
	}
	if len(fsdwng) >= 6 && strings.EqualFold(fsdwng[:6], security.DowngradeMarker) {
		return LegacyHeaderLengthOffset
	}
	return HeaderLengthOffset
}

// extractHeader fills md from hdr according to version. It returns the
// FL field, or false for versions without a known layout.
func extractHeader(md *raw.Metadata, hdr []byte, version string) (string, bool) {
	switch {
	case strings.EqualFold(version, "NITF02.10"), strings.EqualFold(version, "NSIF01.00"):
		extractFields(md, hdr, leadFields, 0)
		extractSecurity(md, hdr, security.Block21)
		extractFields(md, hdr, tail21, 0)
		if len(hdr) >= 300 {
			fbkgc := fmt.Sprintf("%3d,%3d,%3d", hdr[297], hdr[298], hdr[299])
			scanner.Extract(md, []byte(fbkgc), 0, 11, "NITF_FBKGC")
		}
		extractFields(md, hdr, owner21, 0)
		return scanner.Field(hdr, flOffset, flWidth), true

	case strings.EqualFold(version, "NITF02.00"):
		extractFields(md, hdr, leadFields, 0)
		extractSecurity(md, hdr, security.Block20)
		coff := 0
		if len(hdr) >= fsdwngOffset+6 && strings.EqualFold(string(hdr[fsdwngOffset:fsdwngOffset+6]), security.DowngradeMarker) {
			scanner.Extract(md, hdr, fsdwngOffset+6, security.DowngradeEventSize, "NITF_FSDEVT")
			coff = security.DowngradeEventSize
		}
		extractFields(md, hdr, tail20, coff)
		return scanner.Field(hdr, flOffset+coff, flWidth), true
	}
	return "", false
}
