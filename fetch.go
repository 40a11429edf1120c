package vecio

import (
	"context"
	"database/sql"

	"github.com/geomstream/vecio/dbsource"
	"github.com/geomstream/vecio/geometry"
	"github.com/geomstream/vecio/srs"
)

// FetchFromDatabase streams geometries out of a table or an arbitrary query
// against the given connection. The query plan, the native-SRS lookup and
// any AOI reprojection are resolved before the stream is returned; the
// cursor runs when the stream is consumed and is released when it is
// drained or abandoned. The stream is single-pass.
func FetchFromDatabase(ctx context.Context, db *sql.DB, opts FetchOptions) (geometry.Seq, error) {
	logger := opts.Logger
	return dbsource.Fetch(ctx, db, dbsource.Options{
		SQL:       opts.SQL,
		Schema:    opts.Schema,
		Table:     opts.Table,
		Column:    opts.Column,
		AOI:       opts.AOI,
		AOISRS:    opts.AOISRS,
		OutputSRS: opts.OutputSRS,
		Dialect:   opts.Dialect,
		Resolver:  srs.NewResolver(opts.Transform, logger),
		Logger:    logger,
	})
}

// FetchFromDatabaseWithParams dials the store with pre-built credentials,
// fetches like FetchFromDatabase, and closes the connection once the
// stream is drained or abandoned.
func FetchFromDatabaseWithParams(ctx context.Context, params dbsource.Params, opts FetchOptions) (geometry.Seq, error) {
	db, err := dbsource.Open(params)
	if err != nil {
		return nil, err
	}
	seq, err := FetchFromDatabase(ctx, db, opts)
	if err != nil {
		db.Close()
		return nil, err
	}
	return func(yield func(geometry.Geometry, error) bool) {
		defer db.Close()
		for g, err := range seq {
			if !yield(g, err) {
				return
			}
		}
	}, nil
}
