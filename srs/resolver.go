package srs

import (
	"fmt"
	"log/slog"
)

// Resolver decides, once per layer or table, whether a transform is needed
// between a source and a target reference system. Skipping the transform
// when the source system is unknown is a policy choice, not a failure; the
// decision is logged so it stays observable.
type Resolver struct {
	Service Service
	Logger  *slog.Logger
}

// NewResolver returns a Resolver over the given service. A nil logger
// discards diagnostics.
func NewResolver(service Service, logger *slog.Logger) Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return Resolver{Service: service, Logger: logger}
}

// ResolveTransform returns the transform that maps geometries from src into
// dst. For a fixed pair of identifiers the result is always equivalent:
//
//   - src unknown: identity, logged as informational
//   - dst unknown: identity, no transform was requested
//   - src == dst: identity
//   - otherwise: a transform from the service; a service failure is fatal
//     and wraps ErrUnsupported
func (r Resolver) ResolveTransform(src, dst SRS) (TransformFunc, error) {
	if !src.Known() {
		r.Logger.Info("source reference system unknown, geometries pass through untransformed",
			"target", dst.String())
		return Identity, nil
	}
	if !dst.Known() || src == dst {
		return Identity, nil
	}
	if r.Service == nil {
		return nil, fmt.Errorf("%w: no transform service configured for %s to %s", ErrUnsupported, src, dst)
	}
	fn, err := r.Service.Transform(src, dst)
	if err != nil {
		return nil, fmt.Errorf("%w: %s to %s: %v", ErrUnsupported, src, dst, err)
	}
	return fn, nil
}
