// Package vecio moves vector geometries between relational stores,
// file-backed vector datasets and in-memory streams, normalizing spatial
// reference systems on the way and applying spatial, attribute and
// feature-identifier filters.
//
// Geometries flow through the pipeline as well-known-binary values in lazy,
// single-pass streams: nothing is decoded, filtered or reprojected until
// the consumer asks for the next element. Whether and how an
// area-of-interest or a geometry is reprojected is decided once per layer
// or table, never per feature.
//
// The three public operations are FetchFromDatabase, ExtractFromFile and
// WriteToFile. File formats are reached through vector store drivers
// registered by name; importing a driver package registers it:
//
//	import (
//		_ "github.com/geomstream/vecio/vstore/fgb"
//		_ "github.com/geomstream/vecio/vstore/gpkg"
//	)
package vecio
