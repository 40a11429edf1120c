package vecio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/geomstream/vecio/dbsource"
)

func TestFetchFromDatabaseNilConnection(t *testing.T) {
	_, err := FetchFromDatabase(context.Background(), nil, FetchOptions{
		Schema: "public", Table: "roads", Column: "geom",
	})
	require.ErrorIs(t, err, ErrMissingParameter)
}

func TestFetchFromDatabaseWithParamsIncomplete(t *testing.T) {
	_, err := FetchFromDatabaseWithParams(context.Background(), dbsource.Params{}, FetchOptions{
		SQL: `SELECT geom FROM roads;`,
	})
	require.ErrorIs(t, err, ErrMissingParameter)
}
