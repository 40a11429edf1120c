package geometry

import (
	"errors"
	"iter"
)

// Seq is a lazy, single-pass stream of geometries. Consuming it drains the
// underlying source; re-ranging after exhaustion yields nothing. A non-nil
// error terminates the stream, geometries yielded before it remain valid.
type Seq = iter.Seq2[Geometry, error]

// ErrEmptyStream is returned by Peek when the stream holds no geometry.
var ErrEmptyStream = errors.New("empty geometry stream")

// FromSlice adapts an in-memory slice into a Seq.
func FromSlice(gs []Geometry) Seq {
	return func(yield func(Geometry, error) bool) {
		for _, g := range gs {
			if !yield(g, nil) {
				return
			}
		}
	}
}

// Empty returns a Seq that yields nothing.
func Empty() Seq {
	return func(yield func(Geometry, error) bool) {}
}

// Collect drains a Seq into a slice, stopping at the first stream error.
func Collect(s Seq) ([]Geometry, error) {
	var gs []Geometry
	for g, err := range s {
		if err != nil {
			return gs, err
		}
		gs = append(gs, g)
	}
	return gs, nil
}

// Peek pulls the first geometry of s and returns it together with a stream
// that replays it in front of the remainder, so no geometry is lost. An
// empty stream returns ErrEmptyStream; a stream whose first element is an
// error returns that error. The input must not be ranged again by the
// caller either way.
func Peek(s Seq) (Geometry, Seq, error) {
	next, stop := iter.Pull2(s)
	first, err, ok := next()
	if !ok {
		stop()
		return nil, nil, ErrEmptyStream
	}
	if err != nil {
		stop()
		return nil, nil, err
	}
	rest := func(yield func(Geometry, error) bool) {
		defer stop()
		if !yield(first, nil) {
			return
		}
		for {
			g, err, ok := next()
			if !ok {
				return
			}
			if !yield(g, err) {
				return
			}
		}
	}
	return first, rest, nil
}
