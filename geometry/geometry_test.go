package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamilyOf(t *testing.T) {
	tests := []struct {
		name string
		wkt  string
		want Family
	}{
		{"point", "POINT(1 2)", Point},
		{"linestring", "LINESTRING(0 0,1 1)", LineString},
		{"polygon", "POLYGON((0 0,1 0,1 1,0 0))", Polygon},
		{"multipoint", "MULTIPOINT(1 2,3 4)", MultiPoint},
		{"multilinestring", "MULTILINESTRING((0 0,1 1),(2 2,3 3))", MultiLineString},
		{"multipolygon", "MULTIPOLYGON(((0 0,1 0,1 1,0 0)))", MultiPolygon},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := FromWKT(tt.wkt)
			require.NoError(t, err)
			got, err := FamilyOf(g)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFamilyOfMalformed(t *testing.T) {
	tests := []struct {
		name string
		g    Geometry
	}{
		{"nil", nil},
		{"truncated header", Geometry{1, 1, 0}},
		{"bad byte order", Geometry{9, 1, 0, 0, 0}},
		{"bad type", Geometry{1, 99, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FamilyOf(tt.g)
			require.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestFamilyKin(t *testing.T) {
	tests := []struct {
		name string
		a, b Family
		want bool
	}{
		{"same singular", Point, Point, true},
		{"singular and multi", Polygon, MultiPolygon, true},
		{"multi and singular", MultiLineString, LineString, true},
		{"different base", Point, Polygon, false},
		{"collection never kin", GeometryCollection, GeometryCollection, false},
		{"unknown never kin", Unknown, Unknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Kin(tt.b))
		})
	}
}

func TestWKTRoundTrip(t *testing.T) {
	g, err := FromWKT("POINT(5 6)")
	require.NoError(t, err)
	s, err := g.WKT()
	require.NoError(t, err)
	back, err := FromWKT(s)
	require.NoError(t, err)
	assert.Equal(t, g, back)
}

func TestExtent(t *testing.T) {
	g, err := FromWKT("LINESTRING(0 0,2 4)")
	require.NoError(t, err)
	e, err := g.Extent()
	require.NoError(t, err)
	assert.Equal(t, 0.0, e.MinX())
	assert.Equal(t, 0.0, e.MinY())
	assert.Equal(t, 2.0, e.MaxX())
	assert.Equal(t, 4.0, e.MaxY())
}
