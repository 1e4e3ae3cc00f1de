// Package security holds the NITF segment security block layouts and the
// size limits enforced while parsing and writing.
package security

import "strings"

// Field is one fixed-width member of a segment security block. The
// segment prefix ("FS", "IS", "DES", "TS", "SS") is prepended to Name.
type Field struct {
	Name    string
	Offset  int
	Width   int
	Default string
}

// Key returns the field name for a segment prefix, e.g. "IS"+"CLAS".
func (f Field) Key(prefix string) string { return prefix + f.Name }

// BlockSize is the size of a security block without the downgrade event.
const BlockSize = 167

// DowngradeEventSize is the FSDEVT/ISDEVT extension of NITF 2.0 blocks.
const DowngradeEventSize = 40

// Block21 is the NITF 2.1 / NSIF 1.0 security block.
var Block21 = []Field{
	{"CLAS", 0, 1, "U"},
	{"CLSY", 1, 2, ""},
	{"CODE", 3, 11, ""},
	{"CTLH", 14, 2, ""},
	{"REL", 16, 20, ""},
	{"DCTP", 36, 2, ""},
	{"DCDT", 38, 8, ""},
	{"DCXM", 46, 4, ""},
	{"DG", 50, 1, ""},
	{"DGDT", 51, 8, ""},
	{"CLTX", 59, 43, ""},
	{"CATP", 102, 1, ""},
	{"CAUT", 103, 40, ""},
	{"CRSN", 143, 1, ""},
	{"SRDT", 144, 8, ""},
	{"CTLN", 152, 15, ""},
}

// Block20 is the NITF 2.0 security block. DWNG is followed by a 40 byte
// DEVT field when it holds the "999998" marker.
var Block20 = []Field{
	{"CLAS", 0, 1, "U"},
	{"CODE", 1, 40, ""},
	{"CTLH", 41, 40, ""},
	{"REL", 81, 40, ""},
	{"CAUT", 121, 20, ""},
	{"CTLN", 141, 20, ""},
	{"DWNG", 161, 6, ""},
}

// DowngradeMarker flags the presence of a downgrade event field.
const DowngradeMarker = "999998"

// Is20 reports whether version uses the NITF 2.0 layouts.
func Is20(version string) bool {
	return strings.EqualFold(version, "NITF02.00")
}

// Layout returns the security block for version.
func Layout(version string) []Field {
	if Is20(version) {
		return Block20
	}
	return Block21
}

// Size returns the length of the security block starting at buf[start:].
func Size(version string, buf []byte, start int) int {
	if !Is20(version) {
		return BlockSize
	}
	dwng := start + 161
	if dwng+6 <= len(buf) && strings.HasPrefix(string(buf[dwng:dwng+6]), DowngradeMarker) {
		return BlockSize + DowngradeEventSize
	}
	return BlockSize
}
