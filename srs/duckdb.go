package srs

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/duckdb/duckdb-go/v2"

	"github.com/geomstream/vecio/geometry"
)

// DuckDBService resolves coordinate transforms with an embedded in-memory
// DuckDB instance and its spatial extension. The extension carries the full
// EPSG identifier space, so any code pair the stores hand out is accepted.
type DuckDBService struct {
	db *sql.DB
}

// NewDuckDBService opens the in-memory database and loads the spatial
// extension. The service must be closed when no more transforms are needed;
// transforms constructed from it are invalidated by Close.
func NewDuckDBService(ctx context.Context) (*DuckDBService, error) {
	connector, err := duckdb.NewConnector("", nil)
	if err != nil {
		return nil, fmt.Errorf("opening transform database: %w", err)
	}
	db := sql.OpenDB(connector)
	if _, err := db.ExecContext(ctx, "INSTALL spatial; LOAD spatial;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("loading spatial extension: %w", err)
	}
	return &DuckDBService{db: db}, nil
}

func (s *DuckDBService) Close() error {
	return s.db.Close()
}

// Transform prepares a wkb-to-wkb conversion between the two reference
// systems. Construction probes the pair with a point so an unresolvable
// identifier fails here, not on the first geometry.
func (s *DuckDBService) Transform(src, dst SRS) (TransformFunc, error) {
	query := fmt.Sprintf(
		`SELECT ST_AsWKB(ST_Transform(ST_GeomFromWKB(?), '%s', '%s', always_xy := true))`,
		src, dst)
	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	probe, err := geometry.FromWKT("POINT (0 0)")
	if err != nil {
		stmt.Close()
		return nil, err
	}
	var out []byte
	if err := stmt.QueryRow([]byte(probe)).Scan(&out); err != nil {
		stmt.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return func(g geometry.Geometry) (geometry.Geometry, error) {
		var out []byte
		if err := stmt.QueryRow([]byte(g)).Scan(&out); err != nil {
			return nil, fmt.Errorf("transforming geometry %s to %s: %w", src, dst, err)
		}
		return geometry.Geometry(out), nil
	}, nil
}
