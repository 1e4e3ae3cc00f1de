// Package geo decodes the image corner coordinates (IGEOLO) of NITF
// image subheaders.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// WGS84 ellipsoid axes in metres.
const (
	wgs84A = 6378137.0
	wgs84B = 6356752.3142
)

// ErrIGEOLO is returned for corner strings that cannot be decoded.
var ErrIGEOLO = errors.New("invalid IGEOLO")

// GeocentricToGeodeticLatitude converts a geocentric latitude in degrees
// to a geodetic latitude on the WGS84 ellipsoid.
func GeocentricToGeodeticLatitude(lat float64) float64 {
	rad := lat * math.Pi / 180
	rad = math.Atan((wgs84A * wgs84A) / (wgs84B * wgs84B) * math.Tan(rad))
	return rad * 180 / math.Pi
}

// Corner is a longitude/latitude pair in degrees, or an easting/northing
// pair in metres for UTM footprints.
type Corner struct {
	X float64
	Y float64
}

// Footprint holds the four image corners in IGEOLO order: upper left,
// upper right, lower right, lower left (first row/col, first row/last
// col, last row/last col, last row/first col).
type Footprint struct {
	ICORDS  byte
	Zone    int
	Corners [4]Corner
}

// Geographic reports whether the corners are longitude/latitude.
func (f *Footprint) Geographic() bool {
	switch f.ICORDS {
	case 'G', 'C', 'D':
		return true
	}
	return false
}

// Bounds returns the min/max X and Y over the corners.
func (f *Footprint) Bounds() (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, c := range f.Corners {
		minX, maxX = math.Min(minX, c.X), math.Max(maxX, c.X)
		minY, maxY = math.Min(minY, c.Y), math.Max(maxY, c.Y)
	}
	return
}

const cornerWidth = 15

// ParseIGEOLO decodes the 60 byte IGEOLO field according to ICORDS:
//
//	G  ddmmssXdddmmssY geodetic degrees/minutes/seconds
//	C  same layout, geocentric latitude
//	D  ±dd.ddd±ddd.ddd decimal degrees
//	N  zzeeeeeennnnnnn UTM, northern hemisphere
//	S  zzeeeeeennnnnnn UTM, southern hemisphere
//
// UTM corners are returned as read, without reprojection. A blank ICORDS
// means the image carries no corners and yields a nil footprint.
func ParseIGEOLO(icords, igeolo string) (*Footprint, error) {
	icords = strings.TrimSpace(icords)
	if icords == "" {
		return nil, nil
	}
	if len(igeolo) < 4*cornerWidth {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrIGEOLO, len(igeolo), 4*cornerWidth)
	}

	fp := &Footprint{ICORDS: strings.ToUpper(icords)[0]}
	for i := range fp.Corners {
		s := igeolo[i*cornerWidth : (i+1)*cornerWidth]
		var (
			c   Corner
			err error
		)
		switch fp.ICORDS {
		case 'G', 'C':
			c, err = parseDMS(s)
			if err == nil && fp.ICORDS == 'C' {
				c.Y = GeocentricToGeodeticLatitude(c.Y)
			}
		case 'D':
			c, err = parseDecimal(s)
		case 'N', 'S':
			var zone int
			zone, c, err = parseUTM(s)
			if err == nil {
				if i > 0 && zone != fp.Zone {
					err = fmt.Errorf("zone %d differs from %d", zone, fp.Zone)
				}
				fp.Zone = zone
			}
		default:
			return nil, fmt.Errorf("%w: unsupported ICORDS %q", ErrIGEOLO, icords)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: corner %d %q: %v", ErrIGEOLO, i+1, s, err)
		}
		fp.Corners[i] = c
	}
	return fp, nil
}

func parseDMS(s string) (Corner, error) {
	lat, err := dms(s[0:2], s[2:4], s[4:6], s[6], 'N', 'S', 90)
	if err != nil {
		return Corner{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := dms(s[7:10], s[10:12], s[12:14], s[14], 'E', 'W', 180)
	if err != nil {
		return Corner{}, fmt.Errorf("longitude: %w", err)
	}
	return Corner{X: lon, Y: lat}, nil
}

func dms(d, m, s string, hemi, pos, neg byte, limit float64) (float64, error) {
	var parts [3]float64
	for i, p := range []string{d, m, s} {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, err
		}
		parts[i] = v
	}
	v := parts[0] + parts[1]/60 + parts[2]/3600
	switch hemi {
	case pos, pos + 'a' - 'A':
	case neg, neg + 'a' - 'A':
		v = -v
	default:
		return 0, fmt.Errorf("hemisphere %q", hemi)
	}
	if math.Abs(v) > limit {
		return 0, fmt.Errorf("%g out of range", v)
	}
	return v, nil
}

func parseDecimal(s string) (Corner, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(s[0:7]), 64)
	if err != nil {
		return Corner{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(s[7:15]), 64)
	if err != nil {
		return Corner{}, fmt.Errorf("longitude: %w", err)
	}
	if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return Corner{}, fmt.Errorf("%g,%g out of range", lat, lon)
	}
	return Corner{X: lon, Y: lat}, nil
}

func parseUTM(s string) (int, Corner, error) {
	zone, err := strconv.Atoi(strings.TrimSpace(s[0:2]))
	if err != nil {
		return 0, Corner{}, fmt.Errorf("zone: %w", err)
	}
	if zone < 1 || zone > 60 {
		return 0, Corner{}, fmt.Errorf("zone %d out of range", zone)
	}
	e, err := strconv.ParseFloat(strings.TrimSpace(s[2:8]), 64)
	if err != nil {
		return 0, Corner{}, fmt.Errorf("easting: %w", err)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s[8:15]), 64)
	if err != nil {
		return 0, Corner{}, fmt.Errorf("northing: %w", err)
	}
	return zone, Corner{X: e, Y: n}, nil
}
