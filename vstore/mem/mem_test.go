package mem

import (
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

func TestDriverRegistered(t *testing.T) {
	d, err := vstore.DriverByName("Memory")
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestOpenMissing(t *testing.T) {
	_, err := Driver{}.Open("mem-test-missing", false)
	require.ErrorIs(t, err, vstore.ErrDatasetNotFound)
}

func TestCreateWriteReadBack(t *testing.T) {
	const path = "mem-test-roundtrip"
	t.Cleanup(func() { _ = Driver{}.DeleteDataset(path) })

	ds, err := Driver{}.Create(path)
	require.NoError(t, err)
	layer, err := ds.CreateLayer("parcels", srs.SRS(28992), geometry.Polygon)
	require.NoError(t, err)
	p1 := mustWKT(t, "POLYGON((0 0,1 0,1 1,0 0))")
	p2 := mustWKT(t, "POLYGON((5 5,6 5,6 6,5 5))")
	require.NoError(t, layer.CreateFeature(p1))
	require.NoError(t, layer.CreateFeature(p2))
	require.NoError(t, ds.Close())

	ds, err = Driver{}.Open(path, false)
	require.NoError(t, err)
	defer ds.Close()
	layer, err = ds.Layer("parcels")
	require.NoError(t, err)
	assert.Equal(t, "parcels", layer.Name())
	assert.Equal(t, srs.SRS(28992), layer.SRS())

	got, err := geometry.Collect(layer.Features())
	require.NoError(t, err)
	assert.Equal(t, []geometry.Geometry{p1, p2}, got)
}

func TestCreateExisting(t *testing.T) {
	const path = "mem-test-create-existing"
	t.Cleanup(func() { _ = Driver{}.DeleteDataset(path) })

	ds, err := Driver{}.Create(path)
	require.NoError(t, err)
	require.NoError(t, ds.Close())

	_, err = Driver{}.Create(path)
	require.Error(t, err)
}

func TestClosedHandle(t *testing.T) {
	const path = "mem-test-closed"
	t.Cleanup(func() { _ = Driver{}.DeleteDataset(path) })

	ds, err := Driver{}.Create(path)
	require.NoError(t, err)
	layer, err := ds.CreateLayer("pts", srs.Unknown, geometry.Point)
	require.NoError(t, err)
	require.NoError(t, ds.Close())

	_, err = ds.Layers()
	require.Error(t, err)
	_, err = ds.Layer("pts")
	require.Error(t, err)
	_, err = ds.LayerByIndex(0)
	require.Error(t, err)
	_, err = ds.CreateLayer("more", srs.Unknown, geometry.Point)
	require.Error(t, err)

	// layer views die with their handle
	require.Error(t, layer.CreateFeature(mustWKT(t, "POINT(0 0)")))
	_, err = layer.Feature(0)
	require.Error(t, err)
	_, err = geometry.Collect(layer.Features())
	require.Error(t, err)
}

func TestReadOnlyHandle(t *testing.T) {
	const path = "mem-test-readonly"
	t.Cleanup(func() { _ = Driver{}.DeleteDataset(path) })

	ds, err := Driver{}.Create(path)
	require.NoError(t, err)
	_, err = ds.CreateLayer("l", srs.Unknown, geometry.Point)
	require.NoError(t, err)
	require.NoError(t, ds.Close())

	ds, err = Driver{}.Open(path, false)
	require.NoError(t, err)
	defer ds.Close()
	layer, err := ds.LayerByIndex(0)
	require.NoError(t, err)
	err = layer.CreateFeature(mustWKT(t, "POINT(0 0)"))
	require.ErrorIs(t, err, vstore.ErrReadOnly)
	_, err = ds.CreateLayer("another", srs.Unknown, geometry.Point)
	require.ErrorIs(t, err, vstore.ErrReadOnly)
}

func TestSpatialFilterScopedToHandle(t *testing.T) {
	const path = "mem-test-filter"
	t.Cleanup(func() { _ = Driver{}.DeleteDataset(path) })

	ds, err := Driver{}.Create(path)
	require.NoError(t, err)
	layer, err := ds.CreateLayer("pts", srs.Unknown, geometry.Point)
	require.NoError(t, err)
	require.NoError(t, layer.CreateFeature(mustWKT(t, "POINT(1 1)")))
	require.NoError(t, layer.CreateFeature(mustWKT(t, "POINT(10 10)")))

	filtered, err := ds.Layer("pts")
	require.NoError(t, err)
	require.NoError(t, filtered.SetSpatialFilter(mustWKT(t, "POLYGON((0 0,2 0,2 2,0 0))")))
	got, err := geometry.Collect(filtered.Features())
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// a fresh layer view carries no filter
	unfiltered, err := ds.Layer("pts")
	require.NoError(t, err)
	got, err = geometry.Collect(unfiltered.Features())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFeatureByID(t *testing.T) {
	const path = "mem-test-fid"
	t.Cleanup(func() { _ = Driver{}.DeleteDataset(path) })

	ds, err := Driver{}.Create(path)
	require.NoError(t, err)
	layer, err := ds.CreateLayer("pts", srs.Unknown, geometry.Point)
	require.NoError(t, err)
	p0 := mustWKT(t, "POINT(0 0)")
	p1 := mustWKT(t, "POINT(1 1)")
	require.NoError(t, layer.CreateFeature(p0))
	require.NoError(t, layer.CreateFeature(p1))

	got, err := layer.Feature(1)
	require.NoError(t, err)
	assert.Equal(t, p1, got)
	_, err = layer.Feature(5)
	require.Error(t, err)
}

func TestAttributeFilterUnsupported(t *testing.T) {
	const path = "mem-test-attr"
	t.Cleanup(func() { _ = Driver{}.DeleteDataset(path) })

	ds, err := Driver{}.Create(path)
	require.NoError(t, err)
	layer, err := ds.CreateLayer("pts", srs.Unknown, geometry.Point)
	require.NoError(t, err)
	err = layer.SetAttributeFilter("name = 'x'")
	require.ErrorIs(t, err, vstore.ErrFilterUnsupported)
}
