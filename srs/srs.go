// Package srs names spatial reference systems by EPSG identifier and
// resolves the coordinate transform, if any, a geometry needs before it
// crosses a coordinate-system boundary.
package srs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/geomstream/vecio/geometry"
)

// SRS is an EPSG identifier naming a coordinate reference system.
// The zero value means the reference system is unknown or unresolvable.
type SRS int

// Unknown is the absent/unresolvable spatial reference system.
const Unknown SRS = 0

// Known reports whether the identifier names an actual reference system.
func (s SRS) Known() bool {
	return s > 0
}

func (s SRS) String() string {
	if !s.Known() {
		return "unknown"
	}
	return fmt.Sprintf("EPSG:%d", int(s))
}

// ErrUnsupported is returned when an identifier is not resolvable by the
// underlying coordinate reference system database.
var ErrUnsupported = errors.New("unsupported spatial reference system")

// ParseAuthority parses an authority:code pair ("EPSG:28992") or an OGC CRS
// URI ("http://www.opengis.net/def/crs/EPSG/0/28992") into an SRS.
// Authorities other than EPSG are not supported.
func ParseAuthority(s string) (SRS, error) {
	authority, code := "", ""
	switch {
	case strings.Contains(s, "://"):
		parts := strings.Split(s, "/")
		if len(parts) < 3 {
			return Unknown, fmt.Errorf("%w: %q", ErrUnsupported, s)
		}
		authority, code = parts[len(parts)-3], parts[len(parts)-1]
	case strings.Contains(s, ":"):
		parts := strings.Split(s, ":")
		authority, code = parts[0], parts[len(parts)-1]
	default:
		code = s
		authority = "EPSG"
	}
	if !strings.EqualFold(authority, "EPSG") {
		return Unknown, fmt.Errorf("%w: authority %q", ErrUnsupported, authority)
	}
	id, err := strconv.Atoi(code)
	if err != nil || id <= 0 {
		return Unknown, fmt.Errorf("%w: code %q", ErrUnsupported, code)
	}
	return SRS(id), nil
}

// TransformFunc converts one geometry's coordinates between two reference
// systems. It never mutates its input; each call produces a new value.
type TransformFunc func(geometry.Geometry) (geometry.Geometry, error)

// Identity returns the input unchanged.
func Identity(g geometry.Geometry) (geometry.Geometry, error) {
	return g, nil
}

// Service constructs coordinate transforms between two reference systems.
// It is the boundary to the actual CRS database; Transform fails with an
// error wrapping ErrUnsupported when either identifier is not resolvable.
type Service interface {
	Transform(src, dst SRS) (TransformFunc, error)
}
