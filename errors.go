package vecio

import (
	"errors"

	"github.com/geomstream/vecio/dbsource"
	"github.com/geomstream/vecio/geometry"
	"github.com/geomstream/vecio/srs"
	"github.com/geomstream/vecio/vstore"
)

// The error kinds of the pipeline. Nothing is retried or swallowed: apart
// from the documented write-mode fallbacks and the unknown-SRS identity
// degradation, every failure propagates to the caller unmodified.
var (
	// ErrMissingParameter: a required argument combination is not
	// satisfied; raised before any I/O.
	ErrMissingParameter = dbsource.ErrMissingParameter
	// ErrDriverUnavailable: no vector store driver registered under the
	// requested name.
	ErrDriverUnavailable = vstore.ErrDriverUnavailable
	// ErrDatasetNotFound: the dataset path does not exist or cannot be
	// opened; raised before the first geometry is yielded.
	ErrDatasetNotFound = vstore.ErrDatasetNotFound
	// ErrUnsupportedSRS: a reference system identifier is not resolvable;
	// raised at transform-construction time.
	ErrUnsupportedSRS = srs.ErrUnsupported
	// ErrDecodeFailure: a malformed binary geometry; stops the stream,
	// prior yields remain valid.
	ErrDecodeFailure = geometry.ErrDecode

	// ErrInvalidMode: the write mode is neither update nor overwrite.
	ErrInvalidMode = errors.New("invalid write mode")
	// ErrEmptyInput: the sink was handed an empty geometry stream.
	ErrEmptyInput = errors.New("empty input geometry stream")
	// ErrMalformedFilterArgument: a per-layer filter references a layer
	// that is not part of the operation.
	ErrMalformedFilterArgument = errors.New("malformed filter argument")
	// ErrTypeMismatch: a geometry later in the stream does not belong to
	// the family declared by the first one.
	ErrTypeMismatch = errors.New("geometry type family mismatch")
)
