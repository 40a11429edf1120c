// Package gpkg provides the "GPKG" vector store driver on top of the
// GeoPackage encoding. Feature tables are discovered through
// gpkg_geometry_columns and the native reference system through
// gpkg_spatial_ref_sys.
package gpkg

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/gpkg"

	"github.com/geomstream/vecio/geometry"
	"github.com/geomstream/vecio/srs"
	"github.com/geomstream/vecio/vstore"
)

func init() {
	vstore.Register("GPKG", Driver{})
}

// pagesize is how many features are written per insert transaction.
const pagesize = 1000

// Driver implements vstore.Driver for GeoPackage files.
type Driver struct{}

func (Driver) Open(path string, readWrite bool) (vstore.Dataset, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %q", vstore.ErrDatasetNotFound, path)
	}
	handle, err := gpkg.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", vstore.ErrDatasetNotFound, path, err)
	}
	return &Dataset{handle: handle, readWrite: readWrite}, nil
}

func (Driver) Create(path string) (vstore.Dataset, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("dataset %q already exists", path)
	}
	// gpkg.Open initializes a fresh GeoPackage when the file is missing.
	handle, err := gpkg.Open(path)
	if err != nil {
		return nil, fmt.Errorf("creating GeoPackage %q: %w", path, err)
	}
	return &Dataset{handle: handle, readWrite: true}, nil
}

func (Driver) DeleteDataset(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Dataset wraps an open GeoPackage handle; closing it flushes any pending
// feature pages and releases the file.
type Dataset struct {
	handle    *gpkg.Handle
	readWrite bool
	writers   []*Layer
}

// table holds the feature table metadata needed to read and write one layer.
type table struct {
	name    string
	gcolumn string
	gtype   gpkg.GeometryType
	srsID   int
}

func (ds *Dataset) Layers() ([]vstore.Layer, error) {
	tables, err := ds.tables(``)
	if err != nil {
		return nil, err
	}
	layers := make([]vstore.Layer, len(tables))
	for i := range tables {
		layers[i] = &Layer{ds: ds, table: tables[i]}
	}
	return layers, nil
}

func (ds *Dataset) Layer(name string) (vstore.Layer, error) {
	tables, err := ds.tables(name)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: %q", vstore.ErrLayerNotFound, name)
	}
	return &Layer{ds: ds, table: tables[0]}, nil
}

func (ds *Dataset) LayerByIndex(i int) (vstore.Layer, error) {
	tables, err := ds.tables(``)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(tables) {
		return nil, fmt.Errorf("%w: index %d", vstore.ErrLayerNotFound, i)
	}
	return &Layer{ds: ds, table: tables[i]}, nil
}

// tables reads the feature table registry, optionally restricted to one
// table name.
func (ds *Dataset) tables(name string) ([]table, error) {
	query := `SELECT table_name, column_name, geometry_type_name, srs_id FROM gpkg_geometry_columns`
	args := []interface{}{}
	if name != `` {
		query += ` WHERE table_name = ?`
		args = append(args, name)
	}
	rows, err := ds.handle.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading gpkg_geometry_columns: %w", err)
	}
	defer rows.Close()

	var tables []table
	for rows.Next() {
		var t table
		var gtype string
		if err := rows.Scan(&t.name, &t.gcolumn, &gtype, &t.srsID); err != nil {
			return nil, fmt.Errorf("reading feature table info: %w", err)
		}
		t.gtype = geometryTypeFromString(gtype)
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (ds *Dataset) CreateLayer(name string, srid srs.SRS, family geometry.Family) (vstore.Layer, error) {
	if !ds.readWrite {
		return nil, vstore.ErrReadOnly
	}
	if srid.Known() {
		err := ds.handle.UpdateSRS(gpkg.SpatialReferenceSystem{
			Name:                   srid.String(),
			ID:                     int(srid),
			Organization:           "EPSG",
			OrganizationCoordsysID: int(srid),
			Definition:             "undefined",
		})
		if err != nil {
			return nil, fmt.Errorf("registering %s in gpkg_spatial_ref_sys: %w", srid, err)
		}
	}
	t := table{name: name, gcolumn: "geom", gtype: geometryTypeFromFamily(family), srsID: int(srid)}
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%v" (fid INTEGER PRIMARY KEY AUTOINCREMENT, %v BLOB);`, t.name, t.gcolumn)
	if _, err := ds.handle.Exec(query); err != nil {
		return nil, fmt.Errorf("building feature table %q: %w", name, err)
	}
	err := ds.handle.AddGeometryTable(gpkg.TableDescription{
		Name:          t.name,
		ShortName:     t.name,
		Description:   t.name,
		GeometryField: t.gcolumn,
		GeometryType:  t.gtype,
		SRS:           int32(t.srsID),
		//
		Z: gpkg.Prohibited,
		M: gpkg.Prohibited,
	})
	if err != nil {
		return nil, fmt.Errorf("adding geometry table %q: %w", name, err)
	}
	return &Layer{ds: ds, table: t}, nil
}

func (ds *Dataset) Close() error {
	for _, l := range ds.writers {
		if err := l.flush(); err != nil {
			ds.handle.Close()
			return err
		}
	}
	ds.handle.Close()
	return nil
}

// Layer reads and appends features of one GeoPackage feature table.
type Layer struct {
	ds         *Dataset
	table      table
	aoi        *geom.Extent
	attrFilter string
	pending    []geometry.Geometry
	extent     *geom.Extent
	registered bool
}

func (l *Layer) Name() string {
	return l.table.name
}

// SRS resolves the table's srs_id through gpkg_spatial_ref_sys; non-EPSG
// organizations come back as unknown.
func (l *Layer) SRS() srs.SRS {
	query := `SELECT organization, organization_coordsys_id FROM gpkg_spatial_ref_sys WHERE srs_id = ?;`
	row := l.ds.handle.QueryRow(query, l.table.srsID)
	var organization string
	var code int
	if err := row.Scan(&organization, &code); err != nil {
		return srs.Unknown
	}
	id, err := srs.ParseAuthority(fmt.Sprintf("%s:%d", organization, code))
	if err != nil {
		return srs.Unknown
	}
	return id
}

func (l *Layer) SetSpatialFilter(aoi geometry.Geometry) error {
	ext, err := aoi.Extent()
	if err != nil {
		return err
	}
	l.aoi = ext
	return nil
}

// SetAttributeFilter installs a SQL WHERE fragment, passed through verbatim.
func (l *Layer) SetAttributeFilter(expr string) error {
	l.attrFilter = expr
	return nil
}

func (l *Layer) Feature(fid int64) (geometry.Geometry, error) {
	query := fmt.Sprintf(`SELECT "%v" FROM "%v" WHERE rowid = ?;`, l.table.gcolumn, l.table.name)
	row := l.ds.handle.QueryRow(query, fid)
	var blob []byte
	if err := row.Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no feature with id %d in layer %q", fid, l.table.name)
		}
		return nil, err
	}
	return decodeStandardBinary(blob)
}

func (l *Layer) Features() geometry.Seq {
	query := fmt.Sprintf(`SELECT "%v" FROM "%v"`, l.table.gcolumn, l.table.name)
	if l.attrFilter != `` {
		query += ` WHERE ` + l.attrFilter
	}
	return func(yield func(geometry.Geometry, error) bool) {
		rows, err := l.ds.handle.Query(query)
		if err != nil {
			yield(nil, fmt.Errorf("reading layer %q: %w", l.table.name, err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			var blob []byte
			if err := rows.Scan(&blob); err != nil {
				yield(nil, err)
				return
			}
			g, err := decodeStandardBinary(blob)
			if err != nil {
				yield(nil, err)
				return
			}
			if l.aoi != nil {
				ext, err := g.Extent()
				if err != nil {
					yield(nil, err)
					return
				}
				if _, hit := l.aoi.Intersect(ext); !hit {
					continue
				}
			}
			if !yield(g, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// CreateFeature buffers the geometry; a full page is written in one
// transaction, the remainder when the dataset closes.
func (l *Layer) CreateFeature(g geometry.Geometry) error {
	if !l.ds.readWrite {
		return vstore.ErrReadOnly
	}
	if !l.registered {
		l.ds.writers = append(l.ds.writers, l)
		l.registered = true
	}
	l.pending = append(l.pending, g)
	if len(l.pending) >= pagesize {
		return l.flush()
	}
	return nil
}

func (l *Layer) flush() error {
	if len(l.pending) == 0 {
		return nil
	}
	tx, err := l.ds.handle.Begin()
	if err != nil {
		return fmt.Errorf("could not start a transaction: %w", err)
	}
	query := fmt.Sprintf(`INSERT INTO "%v"("%v") VALUES(?)`, l.table.name, l.table.gcolumn)
	stmt, err := tx.Prepare(query)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("could not prepare a statement: %w", err)
	}
	for _, g := range l.pending {
		gg, err := geometry.Decode(g)
		if err != nil {
			stmt.Close()
			tx.Rollback()
			return err
		}
		sb, err := gpkg.NewBinary(int32(l.table.srsID), gg)
		if err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("could not create a binary geometry: %w", err)
		}
		if _, err := stmt.Exec(sb); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("inserting feature into %q: %w", l.table.name, err)
		}
		if l.extent == nil {
			ext, err := geom.NewExtentFromGeometry(gg)
			if err == nil {
				l.extent = ext
			}
		} else {
			l.extent.AddGeometry(gg)
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		return err
	}
	l.pending = nil
	if l.extent != nil {
		if err := l.ds.handle.UpdateGeometryExtent(l.table.name, l.extent); err != nil {
			return fmt.Errorf("failed to update extent of %q: %w", l.table.name, err)
		}
	}
	return nil
}

func decodeStandardBinary(blob []byte) (geometry.Geometry, error) {
	sb, err := gpkg.DecodeGeometry(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", geometry.ErrDecode, err)
	}
	return geometry.Encode(sb.Geometry)
}

// geometryTypeFromString returns the numeric value of a geometry string
func geometryTypeFromString(geometrytype string) gpkg.GeometryType {
	switch strings.ToUpper(geometrytype) {
	case "GEOMETRY":
		return gpkg.Geometry
	case "POINT":
		return gpkg.Point
	case "LINESTRING":
		return gpkg.Linestring
	case "POLYGON":
		return gpkg.Polygon
	case "MULTIPOINT":
		return gpkg.MultiPoint
	case "MULTILINESTRING":
		return gpkg.MultiLinestring
	case "MULTIPOLYGON":
		return gpkg.MultiPolygon
	case "GEOMETRYCOLLECTION":
		return gpkg.GeometryCollection
	default:
		return gpkg.Geometry
	}
}

func geometryTypeFromFamily(family geometry.Family) gpkg.GeometryType {
	switch family {
	case geometry.Point:
		return gpkg.Point
	case geometry.LineString:
		return gpkg.Linestring
	case geometry.Polygon:
		return gpkg.Polygon
	case geometry.MultiPoint:
		return gpkg.MultiPoint
	case geometry.MultiLineString:
		return gpkg.MultiLinestring
	case geometry.MultiPolygon:
		return gpkg.MultiPolygon
	case geometry.GeometryCollection:
		return gpkg.GeometryCollection
	default:
		return gpkg.Geometry
	}
}
