// Package geometry carries vector shapes between sources and sinks as
// well-known-binary values, so no component depends on a particular
// library's in-memory representation.
package geometry

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/wkb"
	"github.com/go-spatial/geom/encoding/wkt"
)

// Geometry is a single vector shape encoded as well-known-binary.
type Geometry []byte

// ErrDecode is returned when a well-known-binary value cannot be decoded.
var ErrDecode = errors.New("malformed well-known-binary geometry")

// Family is the wkb geometry type of a shape.
type Family uint32

const (
	Unknown Family = iota
	Point
	LineString
	Polygon
	MultiPoint
	MultiLineString
	MultiPolygon
	GeometryCollection
)

func (f Family) String() string {
	switch f {
	case Point:
		return "POINT"
	case LineString:
		return "LINESTRING"
	case Polygon:
		return "POLYGON"
	case MultiPoint:
		return "MULTIPOINT"
	case MultiLineString:
		return "MULTILINESTRING"
	case MultiPolygon:
		return "MULTIPOLYGON"
	case GeometryCollection:
		return "GEOMETRYCOLLECTION"
	default:
		return "UNKNOWN"
	}
}

// Kin reports whether two families belong to the same point/line/polygon
// family, single or multi part.
func (f Family) Kin(other Family) bool {
	return f.base() != Unknown && f.base() == other.base()
}

func (f Family) base() Family {
	switch f {
	case MultiPoint:
		return Point
	case MultiLineString:
		return LineString
	case MultiPolygon:
		return Polygon
	case Point, LineString, Polygon:
		return f
	default:
		return Unknown
	}
}

// FamilyOf reads the geometry type from the wkb header without decoding
// any coordinates. Z/M variants map onto their two-dimensional family.
func FamilyOf(g Geometry) (Family, error) {
	if len(g) < 5 {
		return Unknown, fmt.Errorf("%w: %d bytes", ErrDecode, len(g))
	}
	var t uint32
	switch g[0] {
	case 0:
		t = binary.BigEndian.Uint32(g[1:5])
	case 1:
		t = binary.LittleEndian.Uint32(g[1:5])
	default:
		return Unknown, fmt.Errorf("%w: byte order marker %#x", ErrDecode, g[0])
	}
	t &= 0x0fff // strip EWKB flag bits
	t %= 1000   // strip ISO Z/M offsets
	if t < uint32(Point) || t > uint32(GeometryCollection) {
		return Unknown, fmt.Errorf("%w: geometry type %d", ErrDecode, t)
	}
	return Family(t), nil
}

// Decode parses the wkb value into a geom.Geometry.
func Decode(g Geometry) (geom.Geometry, error) {
	gg, err := wkb.DecodeBytes(g)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return gg, nil
}

// Encode serializes a geom.Geometry as well-known-binary.
func Encode(gg geom.Geometry) (Geometry, error) {
	bs, err := wkb.EncodeBytes(gg)
	if err != nil {
		return nil, err
	}
	return Geometry(bs), nil
}

// FromWKT parses a well-known-text literal.
func FromWKT(s string) (Geometry, error) {
	gg, err := wkt.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return Encode(gg)
}

// WKT renders the geometry as a well-known-text literal, the form spatial
// predicates embed into queries.
func (g Geometry) WKT() (string, error) {
	gg, err := Decode(g)
	if err != nil {
		return "", err
	}
	return wkt.EncodeString(gg)
}

// Extent returns the envelope of the geometry.
func (g Geometry) Extent() (*geom.Extent, error) {
	gg, err := Decode(g)
	if err != nil {
		return nil, err
	}
	return geom.NewExtentFromGeometry(gg)
}
