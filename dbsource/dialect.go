package dbsource

import (
	"fmt"

	"github.com/geomstream/vecio/srs"
)

// Dialect renders the spatial SQL fragments of one relational store. The
// fragments are assembled by Fetch into a single streaming query.
type Dialect interface {
	Name() string
	// FindSRID returns the query yielding the native reference system of a
	// geometry column; ok is false when the store keeps no spatial-metadata
	// registry.
	FindSRID(schema, table, column string) (query string, ok bool)
	// AsBinary wraps a geometry expression so geometries transfer as
	// well-known-binary.
	AsBinary(expr string) string
	// Transform wraps a geometry expression in a server-side reprojection,
	// so the transformation cost is paid once in the store's execution
	// plan instead of per row in the client.
	Transform(expr string, from, to srs.SRS) string
	// Intersects builds the spatial predicate between a geometry column
	// and a well-known-text literal in the given reference system.
	Intersects(column, wkt string, a srs.SRS) string
}

// PostGIS speaks the PostGIS function set.
type PostGIS struct{}

func (PostGIS) Name() string { return "postgis" }

func (PostGIS) FindSRID(schema, table, column string) (string, bool) {
	return fmt.Sprintf(`SELECT Find_SRID('%s', '%s', '%s');`, schema, table, column), true
}

func (PostGIS) AsBinary(expr string) string {
	return fmt.Sprintf(`ST_AsBinary(%s)`, expr)
}

func (PostGIS) Transform(expr string, _, to srs.SRS) string {
	return fmt.Sprintf(`ST_Transform(%s, %d)`, expr, int(to))
}

func (PostGIS) Intersects(column, wkt string, a srs.SRS) string {
	return fmt.Sprintf(`ST_Intersects(%s, ST_GeomFromText('%s', %d))`, column, wkt, int(a))
}

// DuckDB speaks the DuckDB spatial extension. The extension keeps no
// per-column SRID registry, so the native reference system of a column is
// unknown and callers must state reference systems explicitly.
type DuckDB struct{}

func (DuckDB) Name() string { return "duckdb" }

func (DuckDB) FindSRID(string, string, string) (string, bool) {
	return ``, false
}

func (DuckDB) AsBinary(expr string) string {
	return fmt.Sprintf(`ST_AsWKB(%s)`, expr)
}

func (DuckDB) Transform(expr string, from, to srs.SRS) string {
	return fmt.Sprintf(`ST_Transform(%s, '%s', '%s', always_xy := true)`, expr, from, to)
}

func (DuckDB) Intersects(column, wkt string, _ srs.SRS) string {
	return fmt.Sprintf(`ST_Intersects(%s, ST_GeomFromText('%s'))`, column, wkt)
}
