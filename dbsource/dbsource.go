// Package dbsource streams geometries out of a relational store's table or
// an arbitrary query, as well-known-binary, with the area-of-interest
// predicate and any output reprojection pushed down into the store.
package dbsource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geomstream/vecio/geometry"
	"github.com/geomstream/vecio/srs"
)

// ErrMissingParameter is returned when a required argument combination is
// not satisfied. It is raised before any I/O.
var ErrMissingParameter = errors.New("missing required parameter")

// Options selects what to fetch. Exactly one of SQL or the
// schema/table/column triple must be supplied.
type Options struct {
	// SQL is an explicit query whose first column is well-known-binary
	// geometry. When set, no query is assembled and no filter applies.
	SQL string
	// Schema, Table and Column address one geometry column; all three are
	// required when SQL is empty.
	Schema string
	Table  string
	Column string
	// AOI restricts retrieval to features intersecting it. AOISRS declares
	// the reference system the AOI is expressed in; when it differs from
	// the column's native system the AOI is reprojected before it is
	// embedded into the predicate.
	AOI    geometry.Geometry
	AOISRS srs.SRS
	// OutputSRS, when different from the native system, asks the store to
	// transform geometries before transfer.
	OutputSRS srs.SRS
	// Dialect defaults to PostGIS.
	Dialect Dialect
	// Resolver reprojects the AOI client-side when needed.
	Resolver srs.Resolver
	Logger   *slog.Logger
}

// Fetch resolves the query plan and returns a lazy, single-pass stream of
// geometries. Argument validation, the native-SRS lookup and the AOI
// reprojection happen here, once; the query runs when the stream is first
// consumed, and the cursor is released when the stream is drained or
// abandoned.
func Fetch(ctx context.Context, db *sql.DB, opts Options) (geometry.Seq, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: db", ErrMissingParameter)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	query := opts.SQL
	if query == `` {
		var err error
		query, err = buildQuery(ctx, db, &opts, logger)
		if err != nil {
			return nil, err
		}
	}
	logger.Debug("fetching geometries", "dialect", dialectName(opts.Dialect), "query", query)
	consumed := false
	return func(yield func(geometry.Geometry, error) bool) {
		if consumed {
			return
		}
		consumed = true
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			yield(nil, fmt.Errorf("querying geometries: %w", err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			var wkb []byte
			if err := rows.Scan(&wkb); err != nil {
				yield(nil, fmt.Errorf("reading geometry row: %w", err))
				return
			}
			g := geometry.Geometry(wkb)
			if _, err := geometry.FamilyOf(g); err != nil {
				yield(nil, err)
				return
			}
			if !yield(g, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}, nil
}

// buildQuery assembles the streaming query from the schema/table/column
// triple, mirroring the layer-level decisions: native-SRS discovery when an
// AOI or output reprojection asks for it, AOI reprojection before the
// predicate is built, output transform pushed down into the column
// expression.
func buildQuery(ctx context.Context, db *sql.DB, opts *Options, logger *slog.Logger) (string, error) {
	for _, arg := range []struct{ name, val string }{
		{"schema", opts.Schema}, {"table", opts.Table}, {"column", opts.Column},
	} {
		if arg.val == `` {
			return ``, fmt.Errorf("%w: %s (need either sql or schema+table+column)", ErrMissingParameter, arg.name)
		}
	}
	dialect := opts.Dialect
	if dialect == nil {
		dialect = PostGIS{}
	}

	native := srs.Unknown
	if opts.AOI != nil || opts.OutputSRS.Known() {
		var err error
		native, err = findSRID(ctx, db, dialect, opts.Schema, opts.Table, opts.Column)
		if err != nil {
			return ``, err
		}
		if !native.Known() {
			logger.Info("native reference system of column not discoverable",
				"dialect", dialect.Name(), "table", opts.Table, "column", opts.Column)
		}
	}

	where := fmt.Sprintf(`WHERE %s IS NOT NULL`, opts.Column)
	if opts.AOI != nil {
		aoi := opts.AOI
		if opts.AOISRS.Known() && native.Known() && opts.AOISRS != native {
			transform, err := opts.Resolver.ResolveTransform(opts.AOISRS, native)
			if err != nil {
				return ``, err
			}
			aoi, err = transform(aoi)
			if err != nil {
				return ``, err
			}
		}
		wkt, err := aoi.WKT()
		if err != nil {
			return ``, err
		}
		where += ` AND ` + dialect.Intersects(opts.Column, wkt, native)
	}

	// The output transform is only expressible relative to a discovered
	// native system; without one, geometries transfer untransformed.
	expr := opts.Column
	if opts.OutputSRS.Known() && native.Known() && opts.OutputSRS != native {
		expr = dialect.Transform(expr, native, opts.OutputSRS)
	}

	return fmt.Sprintf(`SELECT %s FROM %s.%s %s;`, dialect.AsBinary(expr), opts.Schema, opts.Table, where), nil
}

func findSRID(ctx context.Context, db *sql.DB, dialect Dialect, schema, table, column string) (srs.SRS, error) {
	query, ok := dialect.FindSRID(schema, table, column)
	if !ok {
		return srs.Unknown, nil
	}
	var srid int
	if err := db.QueryRowContext(ctx, query).Scan(&srid); err != nil {
		return srs.Unknown, fmt.Errorf("discovering native reference system of %s.%s.%s: %w", schema, table, column, err)
	}
	return srs.SRS(srid), nil
}

func dialectName(d Dialect) string {
	if d == nil {
		return (PostGIS{}).Name()
	}
	return d.Name()
}
