package srs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geomstream/vecio/geometry"
)

func TestParseAuthority(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    SRS
		wantErr bool
	}{
		{"epsg pair", "EPSG:28992", SRS(28992), false},
		{"lowercase authority", "epsg:4326", SRS(4326), false},
		{"bare code", "3857", SRS(3857), false},
		{"ogc crs uri", "http://www.opengis.net/def/crs/EPSG/0/28992", SRS(28992), false},
		{"foreign authority", "ESRI:102100", Unknown, true},
		{"non-numeric code", "EPSG:rd-new", Unknown, true},
		{"zero code", "EPSG:0", Unknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAuthority(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupported)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSRSString(t *testing.T) {
	assert.Equal(t, "EPSG:28992", SRS(28992).String())
	assert.Equal(t, "unknown", Unknown.String())
}

// serviceSpy counts transform constructions and hands out a marker
// transform so tests can tell identity from a real transform.
type serviceSpy struct {
	calls int
	err   error
}

func (s *serviceSpy) Transform(src, dst SRS) (TransformFunc, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return func(g geometry.Geometry) (geometry.Geometry, error) {
		out := append(geometry.Geometry{}, g...)
		return out, nil
	}, nil
}

func TestResolveTransformIdentityCases(t *testing.T) {
	spy := &serviceSpy{}
	r := NewResolver(spy, nil)
	tests := []struct {
		name     string
		src, dst SRS
	}{
		{"source unknown", Unknown, SRS(28992)},
		{"target unknown", SRS(28992), Unknown},
		{"same system", SRS(28992), SRS(28992)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := r.ResolveTransform(tt.src, tt.dst)
			require.NoError(t, err)
			g := geometry.Geometry{1, 1, 0, 0, 0}
			got, err := fn(g)
			require.NoError(t, err)
			assert.Equal(t, g, got)
		})
	}
	assert.Zero(t, spy.calls, "identity cases must not consult the service")
}

func TestResolveTransformDelegates(t *testing.T) {
	spy := &serviceSpy{}
	r := NewResolver(spy, nil)
	fn, err := r.ResolveTransform(SRS(4326), SRS(28992))
	require.NoError(t, err)
	require.NotNil(t, fn)
	assert.Equal(t, 1, spy.calls)
}

func TestResolveTransformServiceFailure(t *testing.T) {
	spy := &serviceSpy{err: errors.New("no such crs")}
	r := NewResolver(spy, nil)
	_, err := r.ResolveTransform(SRS(4326), SRS(999999))
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestResolveTransformNoService(t *testing.T) {
	r := NewResolver(nil, nil)
	_, err := r.ResolveTransform(SRS(4326), SRS(28992))
	require.ErrorIs(t, err, ErrUnsupported)
}
