// Package vstore defines the file-backed vector store boundary: drivers
// discovered by name, datasets with strictly scoped handles, and layers
// that stream features as well-known-binary geometry.
package vstore

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/geomstream/vecio/geometry"
	"github.com/geomstream/vecio/srs"
)

var (
	// ErrDriverUnavailable is returned when no driver is registered under
	// the requested name.
	ErrDriverUnavailable = errors.New("vector driver not available")
	// ErrDatasetNotFound is returned when the dataset path does not exist
	// or cannot be opened.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrLayerNotFound is returned when a layer name or index does not
	// resolve within a dataset.
	ErrLayerNotFound = errors.New("layer not found")
	// ErrReadOnly is returned when a driver cannot open a dataset for
	// writing.
	ErrReadOnly = errors.New("dataset not writable by driver")
	// ErrFilterUnsupported is returned when a driver cannot express the
	// requested filter in its addressing model.
	ErrFilterUnsupported = errors.New("filter not supported by driver")
)

// Driver opens, creates and deletes datasets of one file format.
type Driver interface {
	// Open opens an existing dataset. Opening a missing path fails with
	// ErrDatasetNotFound; asking a read-only format for write access fails
	// with ErrReadOnly.
	Open(path string, readWrite bool) (Dataset, error)
	// Create makes a fresh dataset at path, which must not exist.
	Create(path string) (Dataset, error)
	// DeleteDataset removes the dataset at path. A missing path is not an
	// error.
	DeleteDataset(path string) error
}

// Dataset is an open dataset handle. It owns its layers: a layer handle must
// not be used after the dataset is closed, and the dataset must be closed
// before the pipeline step completes.
type Dataset interface {
	Layers() ([]Layer, error)
	Layer(name string) (Layer, error)
	LayerByIndex(i int) (Layer, error)
	CreateLayer(name string, srid srs.SRS, family geometry.Family) (Layer, error)
	Close() error
}

// Layer is a named collection of homogeneous features.
type Layer interface {
	Name() string
	// SRS is the layer's native reference system, srs.Unknown when absent
	// or unresolvable.
	SRS() srs.SRS
	// SetSpatialFilter restricts Features to those intersecting the aoi.
	// The aoi must already be in the layer's reference system.
	SetSpatialFilter(aoi geometry.Geometry) error
	// SetAttributeFilter restricts Features with a predicate in the
	// driver's native filter syntax, passed through verbatim.
	SetAttributeFilter(expr string) error
	// Feature fetches a single feature's geometry by identifier, bypassing
	// any scan.
	Feature(fid int64) (geometry.Geometry, error)
	// Features streams the layer's geometries with the installed filters
	// applied. The stream is lazy and single-pass.
	Features() geometry.Seq
	// CreateFeature appends the geometry as a new feature.
	CreateFeature(g geometry.Geometry) error
}

var (
	driversMu sync.RWMutex
	drivers   = orderedmap.New[string, Driver]()
)

// Register makes a driver available under the given name. It is meant to be
// called from driver package init functions; registering a duplicate name
// panics.
func Register(name string, d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, ok := drivers.Get(name); ok {
		panic(fmt.Sprintf("vstore: driver %q registered twice", name))
	}
	drivers.Set(name, d)
}

// DriverByName returns the driver registered under name, or an error
// listing what is available.
func DriverByName(name string) (Driver, error) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	if d, ok := drivers.Get(name); ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %q (registered: %s)", ErrDriverUnavailable, name, strings.Join(namesLocked(), ", "))
}

// Names lists the registered driver names in registration order.
func Names() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, drivers.Len())
	for pair := drivers.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// EnvelopeIntersects reports whether the envelopes of two geometries
// overlap. Spatial filters evaluate on envelopes; a rigorous topology
// predicate is the stores' business, not ours.
func EnvelopeIntersects(a, b geometry.Geometry) (bool, error) {
	ea, err := a.Extent()
	if err != nil {
		return false, err
	}
	eb, err := b.Extent()
	if err != nil {
		return false, err
	}
	_, intersects := ea.Intersect(eb)
	return intersects, nil
}
