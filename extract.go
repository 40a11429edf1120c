package vecio

import (
	"fmt"
	"log/slog"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/geomstream/vecio/geometry"
	"github.com/geomstream/vecio/srs"
	"github.com/geomstream/vecio/vstore"
)

type layerPlan struct {
	layer vstore.Layer
	fids  []int64
}

// ExtractFromFile streams geometries out of a file-backed dataset, layer by
// layer in selection order. Layer resolution, filter installation and AOI
// reprojection all happen before the stream is returned, so configuration
// mistakes surface here rather than mid-iteration. The stream is lazy and
// single-pass; the dataset stays open until the stream is drained or
// abandoned.
func ExtractFromFile(opts ExtractOptions) (geometry.Seq, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	resolver := srs.NewResolver(opts.Transform, logger)

	driver, err := vstore.DriverByName(opts.Driver)
	if err != nil {
		return nil, err
	}
	ds, err := driver.Open(opts.Path, false)
	if err != nil {
		return nil, err
	}

	plan, err := buildPlan(ds, opts, resolver, logger)
	if err != nil {
		ds.Close()
		return nil, err
	}

	consumed := false
	return func(yield func(geometry.Geometry, error) bool) {
		if consumed {
			return
		}
		consumed = true
		defer ds.Close()
		for pair := plan.Oldest(); pair != nil; pair = pair.Next() {
			p := pair.Value
			if p.fids != nil {
				for _, fid := range p.fids {
					g, err := p.layer.Feature(fid)
					if !yield(g, err) {
						return
					}
					if err != nil {
						return
					}
				}
				continue
			}
			for g, err := range p.layer.Features() {
				if !yield(g, err) {
					return
				}
				if err != nil {
					return
				}
			}
		}
	}, nil
}

func buildPlan(ds vstore.Dataset, opts ExtractOptions, resolver srs.Resolver, logger *slog.Logger) (*orderedmap.OrderedMap[LayerSelector, *layerPlan], error) {
	plan := orderedmap.New[LayerSelector, *layerPlan]()
	if len(opts.Layers) == 0 {
		layers, err := ds.Layers()
		if err != nil {
			return nil, err
		}
		for i, layer := range layers {
			plan.Set(LayerIndex(i), &layerPlan{layer: layer})
		}
	} else {
		for _, sel := range opts.Layers {
			layer, err := sel.resolve(ds)
			if err != nil {
				return nil, err
			}
			plan.Set(sel, &layerPlan{layer: layer})
		}
	}

	for sel, filter := range opts.Filters {
		p, ok := findPlan(plan, sel)
		if !ok {
			return nil, fmt.Errorf("%w: filter for unselected layer %s", ErrMalformedFilterArgument, sel)
		}
		if err := installFilter(p, sel, filter, resolver, logger); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// findPlan resolves a filter key against the plan. Selector equality covers
// the usual case; a name key still matches a layer that entered the plan
// positionally when no explicit selection was given.
func findPlan(plan *orderedmap.OrderedMap[LayerSelector, *layerPlan], sel LayerSelector) (*layerPlan, bool) {
	if p, ok := plan.Get(sel); ok {
		return p, true
	}
	if sel.byIndex {
		return nil, false
	}
	for pair := plan.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.layer.Name() == sel.name {
			return pair.Value, true
		}
	}
	return nil, false
}

func installFilter(p *layerPlan, sel LayerSelector, filter LayerFilter, resolver srs.Resolver, logger *slog.Logger) error {
	filtered := false
	if filter.AOI != nil {
		aoi, err := reprojectAOI(filter.AOI, filter.AOISRS, p.layer.SRS(), resolver)
		if err != nil {
			return fmt.Errorf("layer %s: %w", sel, err)
		}
		if err := p.layer.SetSpatialFilter(aoi); err != nil {
			return fmt.Errorf("layer %s: %w", sel, err)
		}
		filtered = true
	}
	if filter.AttributeFilter != "" {
		if err := p.layer.SetAttributeFilter(filter.AttributeFilter); err != nil {
			return fmt.Errorf("layer %s: %w", sel, err)
		}
		filtered = true
	}
	if len(filter.FIDs) > 0 {
		if filtered {
			logger.Debug("identifier fetch cannot combine with a filter, falling back to the filtered scan",
				"layer", sel.String(), "fids", len(filter.FIDs))
		} else {
			p.fids = filter.FIDs
		}
	}
	return nil
}

func reprojectAOI(aoi geometry.Geometry, aoiSRS, layerSRS srs.SRS, resolver srs.Resolver) (geometry.Geometry, error) {
	transform, err := resolver.ResolveTransform(aoiSRS, layerSRS)
	if err != nil {
		return nil, fmt.Errorf("area of interest: %w", err)
	}
	out, err := transform(aoi)
	if err != nil {
		return nil, fmt.Errorf("area of interest: %w", err)
	}
	return out, nil
}
