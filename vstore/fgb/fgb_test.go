package fgb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geomstream/vecio/geometry"
	"github.com/geomstream/vecio/srs"
	"github.com/geomstream/vecio/vstore"
)

func mustWKT(t *testing.T, s string) geometry.Geometry {
	t.Helper()
	g, err := geometry.FromWKT(s)
	require.NoError(t, err)
	return g
}

func writeFixture(t *testing.T, path, layer string, srid srs.SRS, geoms ...geometry.Geometry) {
	t.Helper()
	ds, err := Driver{}.Create(path)
	require.NoError(t, err)
	l, err := ds.CreateLayer(layer, srid, geometry.Point)
	require.NoError(t, err)
	for _, g := range geoms {
		require.NoError(t, l.CreateFeature(g))
	}
	require.NoError(t, ds.Close())
}

func TestDriverRegistered(t *testing.T) {
	d, err := vstore.DriverByName("FlatGeobuf")
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestOpenForWrite(t *testing.T) {
	_, err := Driver{}.Open(filepath.Join(t.TempDir(), "any.fgb"), true)
	require.ErrorIs(t, err, vstore.ErrReadOnly)
}

func TestOpenMissing(t *testing.T) {
	_, err := Driver{}.Open(filepath.Join(t.TempDir(), "missing.fgb"), false)
	require.ErrorIs(t, err, vstore.ErrDatasetNotFound)
}

func TestCreateExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taken.fgb")
	writeFixture(t, path, "pts", srs.Unknown, mustWKT(t, "POINT(0 0)"))

	_, err := Driver{}.Create(path)
	require.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pts.fgb")
	p0, p1 := mustWKT(t, "POINT(1 1)"), mustWKT(t, "POINT(2 2)")
	writeFixture(t, path, "pts", srs.SRS(4326), p0, p1)

	ds, err := Driver{}.Open(path, false)
	require.NoError(t, err)
	defer ds.Close()

	layers, err := ds.Layers()
	require.NoError(t, err)
	require.Len(t, layers, 1, "FlatGeobuf datasets hold a single layer")
	layer := layers[0]
	assert.Equal(t, "pts", layer.Name())
	assert.Equal(t, srs.SRS(4326), layer.SRS())

	got, err := geometry.Collect(layer.Features())
	require.NoError(t, err)
	assert.ElementsMatch(t, []geometry.Geometry{p0, p1}, got)
}

func TestSpatialFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter.fgb")
	inside, outside := mustWKT(t, "POINT(1 1)"), mustWKT(t, "POINT(100 100)")
	writeFixture(t, path, "pts", srs.SRS(4326), inside, outside)

	ds, err := Driver{}.Open(path, false)
	require.NoError(t, err)
	defer ds.Close()
	layer, err := ds.LayerByIndex(0)
	require.NoError(t, err)
	require.NoError(t, layer.SetSpatialFilter(mustWKT(t, "POLYGON((0 0,2 0,2 2,0 0))")))

	got, err := geometry.Collect(layer.Features())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, inside, got[0])
}

func TestUnaddressableFeatures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.fgb")
	writeFixture(t, path, "pts", srs.Unknown, mustWKT(t, "POINT(0 0)"))

	ds, err := Driver{}.Open(path, false)
	require.NoError(t, err)
	defer ds.Close()
	layer, err := ds.LayerByIndex(0)
	require.NoError(t, err)

	_, err = layer.Feature(1)
	require.ErrorIs(t, err, vstore.ErrFilterUnsupported)
	require.ErrorIs(t, layer.SetAttributeFilter("a = 1"), vstore.ErrFilterUnsupported)
	require.ErrorIs(t, layer.CreateFeature(mustWKT(t, "POINT(0 0)")), vstore.ErrReadOnly)

	_, err = ds.Layer("other")
	require.ErrorIs(t, err, vstore.ErrLayerNotFound)
}
