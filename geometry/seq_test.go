package geometry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustWKT(t *testing.T, s string) Geometry {
	t.Helper()
	g, err := FromWKT(s)
	require.NoError(t, err)
	return g
}

func TestCollect(t *testing.T) {
	gs := []Geometry{mustWKT(t, "POINT(0 0)"), mustWKT(t, "POINT(1 1)")}
	got, err := Collect(FromSlice(gs))
	require.NoError(t, err)
	assert.Equal(t, gs, got)
}

func TestCollectStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	seq := func(yield func(Geometry, error) bool) {
		if !yield(mustWKT(t, "POINT(0 0)"), nil) {
			return
		}
		yield(nil, boom)
	}
	got, err := Collect(seq)
	require.ErrorIs(t, err, boom)
	assert.Len(t, got, 1)
}

func TestPeek(t *testing.T) {
	gs := []Geometry{mustWKT(t, "POINT(0 0)"), mustWKT(t, "POINT(1 1)"), mustWKT(t, "POINT(2 2)")}
	first, rest, err := Peek(FromSlice(gs))
	require.NoError(t, err)
	assert.Equal(t, gs[0], first)

	// the replayed stream still carries every geometry
	got, err := Collect(rest)
	require.NoError(t, err)
	assert.Equal(t, gs, got)
}

func TestPeekEmpty(t *testing.T) {
	_, _, err := Peek(Empty())
	require.ErrorIs(t, err, ErrEmptyStream)
}

func TestPeekLeadingError(t *testing.T) {
	boom := errors.New("boom")
	seq := func(yield func(Geometry, error) bool) {
		yield(nil, boom)
	}
	_, _, err := Peek(seq)
	require.ErrorIs(t, err, boom)
}

func TestPeekSingleConsumption(t *testing.T) {
	pulls := 0
	seq := func(yield func(Geometry, error) bool) {
		for i := 0; i < 2; i++ {
			pulls++
			if !yield(mustWKT(t, "POINT(0 0)"), nil) {
				return
			}
		}
	}
	_, rest, err := Peek(seq)
	require.NoError(t, err)
	got, err := Collect(rest)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, pulls)
}
