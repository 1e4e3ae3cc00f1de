package security

// Limits defines size boundaries for parsing and producing NITF files.
// The defaults follow the widths of the NITF length fields.
type Limits struct {
	// Maximum uncompressed image segment size in bytes. Default: 10^10.
	MaxImageSize uint64

	// Maximum total file size in bytes. Default: 999999999999 (FL width).
	MaxFileSize uint64

	// Maximum file or image subheader length. Default: 999999 (HL width).
	MaxHeaderLength int

	// Maximum length of a TRE payload and of a TRE area. Default: 99999.
	MaxTRELength int

	// Maximum number of segments of one type. Default: 999.
	MaxSegments int
}

// DefaultLimits returns a Limits struct with the NITF field maxima.
func DefaultLimits() Limits {
	return Limits{
		MaxImageSize:    10_000_000_000,
		MaxFileSize:     999_999_999_999,
		MaxHeaderLength: 999_999,
		MaxTRELength:    99_999,
		MaxSegments:     999,
	}
}

// OrDefault fills zero fields with their defaults.
func (l Limits) OrDefault() Limits {
	d := DefaultLimits()
	if l.MaxImageSize == 0 {
		l.MaxImageSize = d.MaxImageSize
	}
	if l.MaxFileSize == 0 {
		l.MaxFileSize = d.MaxFileSize
	}
	if l.MaxHeaderLength == 0 {
		l.MaxHeaderLength = d.MaxHeaderLength
	}
	if l.MaxTRELength == 0 {
		l.MaxTRELength = d.MaxTRELength
	}
	if l.MaxSegments == 0 {
		l.MaxSegments = d.MaxSegments
	}
	return l
}
