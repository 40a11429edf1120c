// Package fgb provides the "FlatGeobuf" vector store driver. FlatGeobuf
// datasets hold a single layer and are written once: the driver reads
// existing files and creates new ones, but cannot reopen a file for
// writing, so update-style writes degrade to a fresh dataset upstream.
package fgb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	orbwkb "github.com/paulmach/orb/encoding/wkb"
	flatgeobuf "github.com/tingold/orb-flatgeobuf"

	"github.com/geomstream/vecio/geometry"
	"github.com/geomstream/vecio/srs"
	"github.com/geomstream/vecio/vstore"
)

func init() {
	vstore.Register("FlatGeobuf", Driver{})
}

// Driver implements vstore.Driver for FlatGeobuf files.
type Driver struct{}

func (Driver) Open(path string, readWrite bool) (vstore.Dataset, error) {
	if readWrite {
		return nil, fmt.Errorf("%w: FlatGeobuf files are written once", vstore.ErrReadOnly)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %q", vstore.ErrDatasetNotFound, path)
	}
	reader, err := flatgeobuf.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", vstore.ErrDatasetNotFound, path, err)
	}
	return &readDataset{path: path, reader: reader}, nil
}

func (Driver) Create(path string) (vstore.Dataset, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("dataset %q already exists", path)
	}
	return &writeDataset{path: path}, nil
}

func (Driver) DeleteDataset(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// readDataset exposes the file's one layer.
type readDataset struct {
	path   string
	reader *flatgeobuf.Reader
}

func (ds *readDataset) layer() *readLayer {
	header := ds.reader.Header()
	name := header.Name
	if name == `` {
		name = strings.TrimSuffix(filepath.Base(ds.path), filepath.Ext(ds.path))
	}
	return &readLayer{ds: ds, name: name, header: header}
}

func (ds *readDataset) Layers() ([]vstore.Layer, error) {
	return []vstore.Layer{ds.layer()}, nil
}

func (ds *readDataset) Layer(name string) (vstore.Layer, error) {
	l := ds.layer()
	if l.name != name {
		return nil, fmt.Errorf("%w: %q in %q", vstore.ErrLayerNotFound, name, ds.path)
	}
	return l, nil
}

func (ds *readDataset) LayerByIndex(i int) (vstore.Layer, error) {
	if i != 0 {
		return nil, fmt.Errorf("%w: index %d in %q", vstore.ErrLayerNotFound, i, ds.path)
	}
	return ds.layer(), nil
}

func (ds *readDataset) CreateLayer(string, srs.SRS, geometry.Family) (vstore.Layer, error) {
	return nil, vstore.ErrReadOnly
}

func (ds *readDataset) Close() error {
	return ds.reader.Close()
}

type readLayer struct {
	ds     *readDataset
	name   string
	header *flatgeobuf.Header
	bound  *orb.Bound
}

func (l *readLayer) Name() string {
	return l.name
}

func (l *readLayer) SRS() srs.SRS {
	if l.header == nil || l.header.CRS == nil || l.header.CRS.Code <= 0 {
		return srs.Unknown
	}
	return srs.SRS(l.header.CRS.Code)
}

// SetSpatialFilter pushes the aoi's envelope down into the file's packed
// spatial index.
func (l *readLayer) SetSpatialFilter(aoi geometry.Geometry) error {
	ext, err := aoi.Extent()
	if err != nil {
		return err
	}
	bound := orb.Bound{
		Min: orb.Point{ext.MinX(), ext.MinY()},
		Max: orb.Point{ext.MaxX(), ext.MaxY()},
	}
	l.bound = &bound
	return nil
}

// SetAttributeFilter is not expressible in the FlatGeobuf addressing model.
func (l *readLayer) SetAttributeFilter(expr string) error {
	return fmt.Errorf("%w: attribute filter on FlatGeobuf layer", vstore.ErrFilterUnsupported)
}

// Feature by identifier is not addressable either; callers fall back to a
// scan.
func (l *readLayer) Feature(fid int64) (geometry.Geometry, error) {
	return nil, fmt.Errorf("%w: feature id fetch on FlatGeobuf layer", vstore.ErrFilterUnsupported)
}

func (l *readLayer) Features() geometry.Seq {
	return func(yield func(geometry.Geometry, error) bool) {
		var geoms []orb.Geometry
		var err error
		if l.bound != nil {
			geoms, err = l.ds.reader.SearchGeometries(*l.bound)
		} else {
			geoms, err = l.ds.reader.ReadGeometries()
		}
		if err != nil {
			yield(nil, fmt.Errorf("reading FlatGeobuf %q: %w", l.ds.path, err))
			return
		}
		for _, og := range geoms {
			data, err := orbwkb.Marshal(og)
			if err != nil {
				yield(nil, fmt.Errorf("%w: %v", geometry.ErrDecode, err))
				return
			}
			if !yield(geometry.Geometry(data), nil) {
				return
			}
		}
	}
}

func (l *readLayer) CreateFeature(geometry.Geometry) error {
	return vstore.ErrReadOnly
}

// writeDataset accumulates one layer in memory and serializes the file,
// spatial index included, when closed.
type writeDataset struct {
	path  string
	layer *writeLayer
}

func (ds *writeDataset) Layers() ([]vstore.Layer, error) {
	if ds.layer == nil {
		return nil, nil
	}
	return []vstore.Layer{ds.layer}, nil
}

func (ds *writeDataset) Layer(name string) (vstore.Layer, error) {
	if ds.layer == nil || ds.layer.name != name {
		return nil, fmt.Errorf("%w: %q in %q", vstore.ErrLayerNotFound, name, ds.path)
	}
	return ds.layer, nil
}

func (ds *writeDataset) LayerByIndex(i int) (vstore.Layer, error) {
	if ds.layer == nil || i != 0 {
		return nil, fmt.Errorf("%w: index %d in %q", vstore.ErrLayerNotFound, i, ds.path)
	}
	return ds.layer, nil
}

func (ds *writeDataset) CreateLayer(name string, srid srs.SRS, family geometry.Family) (vstore.Layer, error) {
	if ds.layer != nil {
		return nil, fmt.Errorf("FlatGeobuf dataset %q already holds layer %q", ds.path, ds.layer.name)
	}
	ds.layer = &writeLayer{name: name, srid: srid}
	return ds.layer, nil
}

func (ds *writeDataset) Close() error {
	if ds.layer == nil || len(ds.layer.geoms) == 0 {
		return nil
	}
	f, err := os.Create(ds.path)
	if err != nil {
		return fmt.Errorf("creating FlatGeobuf %q: %w", ds.path, err)
	}
	opts := &flatgeobuf.Options{
		Name:         ds.layer.name,
		IncludeIndex: true,
	}
	if ds.layer.srid.Known() {
		opts.CRS = &flatgeobuf.CRS{Code: int(ds.layer.srid), Name: ds.layer.srid.String()}
	}
	if err := flatgeobuf.Write(f, ds.layer.geoms, opts); err != nil {
		f.Close()
		return fmt.Errorf("writing FlatGeobuf %q: %w", ds.path, err)
	}
	return f.Close()
}

type writeLayer struct {
	name  string
	srid  srs.SRS
	geoms []orb.Geometry
}

func (l *writeLayer) Name() string {
	return l.name
}

func (l *writeLayer) SRS() srs.SRS {
	return l.srid
}

func (l *writeLayer) SetSpatialFilter(geometry.Geometry) error {
	return fmt.Errorf("%w: spatial filter on a layer being written", vstore.ErrFilterUnsupported)
}

func (l *writeLayer) SetAttributeFilter(string) error {
	return fmt.Errorf("%w: attribute filter on a layer being written", vstore.ErrFilterUnsupported)
}

func (l *writeLayer) Feature(int64) (geometry.Geometry, error) {
	return nil, fmt.Errorf("%w: feature id fetch on a layer being written", vstore.ErrFilterUnsupported)
}

func (l *writeLayer) Features() geometry.Seq {
	return geometry.Empty()
}

func (l *writeLayer) CreateFeature(g geometry.Geometry) error {
	og, err := orbwkb.Unmarshal(g)
	if err != nil {
		return fmt.Errorf("%w: %v", geometry.ErrDecode, err)
	}
	l.geoms = append(l.geoms, og)
	return nil
}
