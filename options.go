package vecio

import (
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/geomstream/vecio/dbsource"
	"github.com/geomstream/vecio/geometry"
	"github.com/geomstream/vecio/srs"
	"github.com/geomstream/vecio/vstore"
)

var validate = validator.New()

// LayerSelector identifies one layer by name or by positional index within
// its dataset.
type LayerSelector struct {
	name    string
	index   int
	byIndex bool
}

// LayerName selects a layer by name.
func LayerName(name string) LayerSelector {
	return LayerSelector{name: name}
}

// LayerIndex selects a layer by position.
func LayerIndex(i int) LayerSelector {
	return LayerSelector{index: i, byIndex: true}
}

func (s LayerSelector) String() string {
	if s.byIndex {
		return fmt.Sprintf("#%d", s.index)
	}
	return s.name
}

func (s LayerSelector) resolve(ds vstore.Dataset) (vstore.Layer, error) {
	if s.byIndex {
		return ds.LayerByIndex(s.index)
	}
	return ds.Layer(s.name)
}

// LayerFilter restricts what is read from one layer. All fields are
// optional and independent. FIDs only takes effect when neither AOI nor
// AttributeFilter is set: identifier fetch cannot be combined with a
// predicate in the stores' addressing model, so combining them falls back
// to the filtered scan.
type LayerFilter struct {
	// AOI keeps only features intersecting it; AOISRS declares the
	// reference system it is expressed in.
	AOI    geometry.Geometry
	AOISRS srs.SRS
	// AttributeFilter is a predicate in the driver's native filter syntax,
	// passed through verbatim.
	AttributeFilter string
	// FIDs fetches exactly these features, bypassing the scan.
	FIDs []int64
}

// ExtractOptions configures ExtractFromFile.
type ExtractOptions struct {
	Path   string `validate:"required"`
	Driver string `validate:"required"`
	// Layers selects which layers to read, in order. Empty means all
	// layers in dataset order.
	Layers []LayerSelector
	// Filters maps a selected layer to its filter. A layer absent from the
	// map gets no filter; a filter for an unselected layer is an error.
	Filters map[LayerSelector]LayerFilter
	// Transform reprojects an AOI into a layer's reference system when the
	// two differ. Only needed when such a pair can occur.
	Transform srs.Service
	Logger    *slog.Logger
}

// Mode says how WriteToFile treats an existing dataset.
type Mode string

const (
	// ModeUpdate merges into the existing dataset, additively: every
	// geometry is appended as a new feature, nothing is overwritten or
	// deduplicated.
	ModeUpdate Mode = "update"
	// ModeOverwrite deletes any existing dataset and creates a fresh one.
	ModeOverwrite Mode = "overwrite"
)

// WriteOptions configures WriteToFile.
type WriteOptions struct {
	Path   string `validate:"required"`
	Driver string `validate:"required"`
	// Layer is the target layer name.
	Layer string `validate:"required"`
	// SourceSRS is the reference system the incoming geometries are
	// expressed in.
	SourceSRS srs.SRS
	Mode      Mode `validate:"required"`
	// Transform reprojects geometries into an existing layer's reference
	// system when the two differ.
	Transform srs.Service
	Logger    *slog.Logger
}

// FetchOptions configures FetchFromDatabase. Exactly one of SQL or the
// Schema/Table/Column triple must be supplied.
type FetchOptions struct {
	SQL    string
	Schema string
	Table  string
	Column string
	// AOI restricts retrieval to intersecting features; it is reprojected
	// into the store's native reference system before it is embedded into
	// the retrieval predicate, never after.
	AOI    geometry.Geometry
	AOISRS srs.SRS
	// OutputSRS asks the store to transform geometries server-side before
	// transfer.
	OutputSRS srs.SRS
	// Dialect defaults to PostGIS.
	Dialect   dbsource.Dialect
	Transform srs.Service
	Logger    *slog.Logger
}

func validateOptions(opts interface{}) error {
	if err := validate.Struct(opts); err != nil {
		return fmt.Errorf("%w: %v", ErrMissingParameter, err)
	}
	return nil
}
