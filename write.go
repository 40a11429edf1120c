package vecio

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/geomstream/vecio/geometry"
	"github.com/geomstream/vecio/srs"
	"github.com/geomstream/vecio/vstore"
)

// WriteToFile drains the geometry stream into one layer of a file-backed
// dataset. ModeOverwrite replaces any existing dataset; ModeUpdate merges
// additively into an existing one, appending every geometry as a new
// feature. Update degrades gracefully: a missing or unwritable dataset is
// recreated, a missing layer falls back to the dataset's first layer and
// then to a fresh one. An empty stream fails with ErrEmptyInput before any
// dataset is touched.
func WriteToFile(geoms geometry.Seq, opts WriteOptions) error {
	if err := validateOptions(opts); err != nil {
		return err
	}
	if opts.Mode != ModeUpdate && opts.Mode != ModeOverwrite {
		return fmt.Errorf("%w: %q", ErrInvalidMode, opts.Mode)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	resolver := srs.NewResolver(opts.Transform, logger)

	driver, err := vstore.DriverByName(opts.Driver)
	if err != nil {
		return err
	}

	first, rest, err := geometry.Peek(geoms)
	if err != nil {
		if errors.Is(err, geometry.ErrEmptyStream) {
			return fmt.Errorf("%w: nothing to write to %s", ErrEmptyInput, opts.Path)
		}
		return err
	}
	family, err := geometry.FamilyOf(first)
	if err != nil {
		discardStream(rest)
		return err
	}

	if opts.Mode == ModeOverwrite {
		return createFresh(driver, rest, family, opts)
	}
	return update(driver, rest, family, opts, resolver, logger)
}

// createFresh replaces whatever is at the path with a new dataset holding a
// single layer in the source reference system. Geometries transfer
// untransformed.
func createFresh(driver vstore.Driver, geoms geometry.Seq, family geometry.Family, opts WriteOptions) error {
	if err := driver.DeleteDataset(opts.Path); err != nil {
		discardStream(geoms)
		return err
	}
	ds, err := driver.Create(opts.Path)
	if err != nil {
		discardStream(geoms)
		return err
	}
	layer, err := ds.CreateLayer(opts.Layer, opts.SourceSRS, family)
	if err != nil {
		discardStream(geoms)
		ds.Close()
		return err
	}
	if err := writeStream(layer, geoms, family, srs.Identity); err != nil {
		ds.Close()
		return err
	}
	return ds.Close()
}

func update(driver vstore.Driver, geoms geometry.Seq, family geometry.Family, opts WriteOptions, resolver srs.Resolver, logger *slog.Logger) error {
	ds, err := driver.Open(opts.Path, true)
	if err != nil {
		if errors.Is(err, vstore.ErrDatasetNotFound) || errors.Is(err, vstore.ErrReadOnly) {
			logger.Info("dataset not updatable, recreating it",
				"path", opts.Path, "driver", opts.Driver, "reason", err.Error())
			return createFresh(driver, geoms, family, opts)
		}
		discardStream(geoms)
		return err
	}

	layer, err := resolveTarget(ds, opts, family, logger)
	if err != nil {
		discardStream(geoms)
		ds.Close()
		return err
	}

	transform := srs.TransformFunc(srs.Identity)
	if native := layer.SRS(); native.Known() {
		transform, err = resolver.ResolveTransform(opts.SourceSRS, native)
		if err != nil {
			discardStream(geoms)
			ds.Close()
			return err
		}
		if opts.SourceSRS.Known() && opts.SourceSRS != native {
			logger.Info("reprojecting into the layer's reference system",
				"layer", layer.Name(), "from", opts.SourceSRS.String(), "to", native.String())
		}
	} else {
		logger.Info("layer reference system unknown, appending untransformed",
			"layer", layer.Name())
	}

	if err := writeStream(layer, geoms, family, transform); err != nil {
		ds.Close()
		return err
	}
	return ds.Close()
}

// resolveTarget finds the layer to merge into: the named layer, else the
// dataset's first layer, else a fresh layer under the requested name.
func resolveTarget(ds vstore.Dataset, opts WriteOptions, family geometry.Family, logger *slog.Logger) (vstore.Layer, error) {
	layer, err := ds.Layer(opts.Layer)
	if err == nil {
		return layer, nil
	}
	if !errors.Is(err, vstore.ErrLayerNotFound) {
		return nil, err
	}
	layer, err = ds.LayerByIndex(0)
	if err == nil {
		logger.Info("named layer absent, merging into the dataset's first layer",
			"requested", opts.Layer, "layer", layer.Name())
		return layer, nil
	}
	if !errors.Is(err, vstore.ErrLayerNotFound) {
		return nil, err
	}
	logger.Info("dataset has no layers, creating one", "layer", opts.Layer)
	return ds.CreateLayer(opts.Layer, opts.SourceSRS, family)
}

// discardStream releases a stream that will not be written. Peeked streams
// hold a pull iterator open until they are ranged; entering and immediately
// breaking runs its cleanup.
func discardStream(s geometry.Seq) {
	for range s {
		break
	}
}

// writeStream appends every geometry to the layer, transformed, rejecting
// geometries outside the stream's family. Multi and singular variants of
// the same base type are kin and pass.
func writeStream(layer vstore.Layer, geoms geometry.Seq, family geometry.Family, transform srs.TransformFunc) error {
	for g, err := range geoms {
		if err != nil {
			return err
		}
		fam, err := geometry.FamilyOf(g)
		if err != nil {
			return err
		}
		if !fam.Kin(family) {
			return fmt.Errorf("%w: %s in a %s stream", ErrTypeMismatch, fam, family)
		}
		out, err := transform(g)
		if err != nil {
			return err
		}
		if err := layer.CreateFeature(out); err != nil {
			return err
		}
	}
	return nil
}
