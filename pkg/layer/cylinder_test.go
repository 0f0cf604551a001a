package layer

import (
	"testing"

	"github.com/chazu/detgeo/pkg/geometry"
	"github.com/chazu/detgeo/pkg/surface"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCylinderLayer(t *testing.T, tr geometry.Transform, r, halfZ, thickness float64) *CylinderLayer {
	t.Helper()
	b, err := surface.NewCylinderBounds(r, halfZ)
	require.NoError(t, err)
	l, err := NewCylinderLayer(tr, b, Config{Thickness: thickness})
	require.NoError(t, err)
	return l
}

func faceRadius(t *testing.T, s surface.Surface) float64 {
	t.Helper()
	c, ok := s.(*surface.CylinderSurface)
	require.True(t, ok)
	return c.Radius()
}

func TestCylinderLayerFaces(t *testing.T) {
	l := mustCylinderLayer(t, geometry.Identity(), 50, 100, 4)
	ad := l.ApproachDescriptor()

	assert.InDelta(t, 52, faceRadius(t, ad.Outer()), 1e-12)
	assert.InDelta(t, 48, faceRadius(t, ad.Inner()), 1e-12)
	for _, f := range ad.Surfaces() {
		assertVec(t, l.Center(), f.Center())
		assert.InDelta(t, 100, f.(*surface.CylinderSurface).CylinderBounds().HalfZ(), 0)
	}
	assert.True(t, l.SurfaceRepresentation() == surface.Surface(l))
}

func TestCylinderLayerZeroThicknessSharesBounds(t *testing.T) {
	l := mustCylinderLayer(t, geometry.Identity(), 30, 10, 0)
	for _, f := range l.ApproachDescriptor().Surfaces() {
		assert.Same(t, l.CylinderBounds(), f.(*surface.CylinderSurface).CylinderBounds())
	}
}

func TestCylinderLayerTooThick(t *testing.T) {
	b, err := surface.NewCylinderBounds(1, 10)
	require.NoError(t, err)
	_, err = NewCylinderLayer(geometry.Identity(), b, Config{Thickness: 2})
	assert.ErrorIs(t, err, surface.ErrGeometry)
}

func TestCylinderTraverse(t *testing.T) {
	l := mustCylinderLayer(t, geometry.Identity(), 50, 100, 4)
	ad := l.ApproachDescriptor()

	entry, exit := ad.Traverse(v3.Vec{X: 100}, v3.Vec{X: -1})
	assert.Same(t, ad.Outer(), entry)
	assert.Same(t, ad.Inner(), exit)

	entry, exit = ad.Traverse(v3.Vec{}, v3.Vec{X: 1})
	assert.Same(t, ad.Inner(), entry)
	assert.Same(t, ad.Outer(), exit)

	face, hit, ok := ad.ApproachSurface(v3.Vec{}, v3.Vec{Y: 1})
	require.True(t, ok)
	assert.Same(t, ad.Inner(), face)
	assert.InDelta(t, 48, hit.PathLength, 1e-9)
}

func TestCylinderLayerShift(t *testing.T) {
	l := mustCylinderLayer(t, geometry.Identity(), 50, 100, 4)
	c, err := l.CloneWithShift(geometry.Translation(v3.Vec{X: 5}))
	require.NoError(t, err)

	assertVec(t, v3.Vec{X: 5}, c.Center())
	for _, f := range c.ApproachDescriptor().Surfaces() {
		assertVec(t, v3.Vec{X: 5}, f.Center())
	}
	assert.InDelta(t, 52, faceRadius(t, c.ApproachDescriptor().Outer()), 1e-12)
	assert.True(t, c.IsOnLayer(v3.Vec{X: 56}, true))
	assert.False(t, c.IsOnLayer(v3.Vec{X: 56}.Add(v3.Vec{Z: 101}), true))
	assert.False(t, l.IsOnLayer(v3.Vec{X: 58}, false))
}

func TestCylinderSuppliedDescriptor(t *testing.T) {
	b, err := surface.NewCylinderBounds(50, 100)
	require.NoError(t, err)

	face := func(tr geometry.Transform, r float64) surface.Surface {
		fb, err := surface.NewCylinderBounds(r, 100)
		require.NoError(t, err)
		s, err := surface.NewCylinderSurface(tr, fb)
		require.NoError(t, err)
		return s
	}
	plane, err := surface.NewPlaneSurface(geometry.Identity(), mustRect(t, 1, 1))
	require.NoError(t, err)

	tests := []struct {
		name  string
		faces []surface.Surface
		ok    bool
	}{
		{"coaxial", []surface.Surface{face(geometry.Identity(), 51), face(geometry.Identity(), 49)}, true},
		{"too far", []surface.Surface{face(geometry.Identity(), 60)}, false},
		{"displaced axis", []surface.Surface{face(geometry.Translation(v3.Vec{X: 1}), 50)}, false},
		{"tilted axis", []surface.Surface{face(geometry.RotationDegrees(0, 20, 0), 50)}, false},
		{"plane face", []surface.Surface{plane}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ad, err := NewApproachDescriptor(tt.faces...)
			require.NoError(t, err)
			_, err = NewCylinderLayer(geometry.Identity(), b, Config{Thickness: 4, ApproachDescriptor: ad})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInconsistentApproach)
			}
		})
	}
}
