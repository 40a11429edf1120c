// Package mem provides the "Memory" vector store driver. Datasets live in a
// process-wide table keyed by path, which makes it both the in-memory
// source/sink of the pipeline and the store the orchestration tests run
// against.
package mem

import (
	"fmt"
	"sync"

	"github.com/geomstream/vecio/geometry"
	"github.com/geomstream/vecio/srs"
	"github.com/geomstream/vecio/vstore"
)

func init() {
	vstore.Register("Memory", Driver{})
}

var (
	mu       sync.Mutex
	datasets = map[string]*dataset{}
)

// Driver implements vstore.Driver backed by process memory.
type Driver struct{}

func (Driver) Open(path string, readWrite bool) (vstore.Dataset, error) {
	mu.Lock()
	defer mu.Unlock()
	ds, ok := datasets[path]
	if !ok {
		return nil, fmt.Errorf("%w: %q", vstore.ErrDatasetNotFound, path)
	}
	return &handle{ds: ds, readWrite: readWrite}, nil
}

func (Driver) Create(path string) (vstore.Dataset, error) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := datasets[path]; ok {
		return nil, fmt.Errorf("dataset %q already exists", path)
	}
	ds := &dataset{path: path}
	datasets[path] = ds
	return &handle{ds: ds, readWrite: true}, nil
}

func (Driver) DeleteDataset(path string) error {
	mu.Lock()
	defer mu.Unlock()
	delete(datasets, path)
	return nil
}

type dataset struct {
	mu     sync.Mutex
	path   string
	layers []*layerData
}

type layerData struct {
	name   string
	srid   srs.SRS
	family geometry.Family
	geoms  []geometry.Geometry
}

// handle is one open view on a dataset. Filter state lives on the layer
// views it hands out, scoped to this handle.
type handle struct {
	ds        *dataset
	readWrite bool
	closed    bool
}

func (h *handle) check() error {
	if h.closed {
		return fmt.Errorf("dataset %q handle is closed", h.ds.path)
	}
	return nil
}

func (h *handle) Layers() ([]vstore.Layer, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	h.ds.mu.Lock()
	defer h.ds.mu.Unlock()
	layers := make([]vstore.Layer, len(h.ds.layers))
	for i, ld := range h.ds.layers {
		layers[i] = &layer{h: h, data: ld}
	}
	return layers, nil
}

func (h *handle) Layer(name string) (vstore.Layer, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	h.ds.mu.Lock()
	defer h.ds.mu.Unlock()
	for _, ld := range h.ds.layers {
		if ld.name == name {
			return &layer{h: h, data: ld}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q in %q", vstore.ErrLayerNotFound, name, h.ds.path)
}

func (h *handle) LayerByIndex(i int) (vstore.Layer, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	h.ds.mu.Lock()
	defer h.ds.mu.Unlock()
	if i < 0 || i >= len(h.ds.layers) {
		return nil, fmt.Errorf("%w: index %d in %q", vstore.ErrLayerNotFound, i, h.ds.path)
	}
	return &layer{h: h, data: h.ds.layers[i]}, nil
}

func (h *handle) CreateLayer(name string, srid srs.SRS, family geometry.Family) (vstore.Layer, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	if !h.readWrite {
		return nil, vstore.ErrReadOnly
	}
	h.ds.mu.Lock()
	defer h.ds.mu.Unlock()
	ld := &layerData{name: name, srid: srid, family: family}
	h.ds.layers = append(h.ds.layers, ld)
	return &layer{h: h, data: ld}, nil
}

func (h *handle) Close() error {
	h.closed = true
	return nil
}

type layer struct {
	h          *handle
	data       *layerData
	spatial    geometry.Geometry
	attrFilter string
}

func (l *layer) Name() string {
	return l.data.name
}

func (l *layer) SRS() srs.SRS {
	return l.data.srid
}

func (l *layer) SetSpatialFilter(aoi geometry.Geometry) error {
	l.spatial = aoi
	return nil
}

// SetAttributeFilter is not expressible here: memory layers hold bare
// geometries, there are no attributes to filter on.
func (l *layer) SetAttributeFilter(expr string) error {
	return fmt.Errorf("%w: attribute filter on Memory layer", vstore.ErrFilterUnsupported)
}

// Feature addresses a geometry by its insert position.
func (l *layer) Feature(fid int64) (geometry.Geometry, error) {
	if err := l.h.check(); err != nil {
		return nil, err
	}
	l.h.ds.mu.Lock()
	defer l.h.ds.mu.Unlock()
	if fid < 0 || fid >= int64(len(l.data.geoms)) {
		return nil, fmt.Errorf("no feature with id %d in layer %q", fid, l.data.name)
	}
	return l.data.geoms[fid], nil
}

func (l *layer) Features() geometry.Seq {
	if err := l.h.check(); err != nil {
		return func(yield func(geometry.Geometry, error) bool) {
			yield(nil, err)
		}
	}
	l.h.ds.mu.Lock()
	snapshot := make([]geometry.Geometry, len(l.data.geoms))
	copy(snapshot, l.data.geoms)
	l.h.ds.mu.Unlock()
	spatial := l.spatial
	return func(yield func(geometry.Geometry, error) bool) {
		for _, g := range snapshot {
			if spatial != nil {
				hit, err := vstore.EnvelopeIntersects(g, spatial)
				if err != nil {
					yield(nil, err)
					return
				}
				if !hit {
					continue
				}
			}
			if !yield(g, nil) {
				return
			}
		}
	}
}

func (l *layer) CreateFeature(g geometry.Geometry) error {
	if err := l.h.check(); err != nil {
		return err
	}
	if !l.h.readWrite {
		return vstore.ErrReadOnly
	}
	l.h.ds.mu.Lock()
	defer l.h.ds.mu.Unlock()
	l.data.geoms = append(l.data.geoms, g)
	return nil
}
