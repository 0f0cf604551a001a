package catalog

import (
	"testing"

	"github.com/chazu/detgeo/pkg/geometry"
	"github.com/chazu/detgeo/pkg/layer"
	"github.com/chazu/detgeo/pkg/surface"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func planeLayer(t *testing.T, z float64, cfg layer.Config) *layer.PlaneLayer {
	t.Helper()
	b, err := surface.NewRectangleBounds(10, 10)
	require.NoError(t, err)
	l, err := layer.NewPlaneLayer(geometry.Translation(v3.Vec{Z: z}), b, cfg)
	require.NoError(t, err)
	return l
}

func mustAdd(t *testing.T, c *Catalog, name string, l layer.Layer, parent LayerID) *Entry {
	t.Helper()
	e, err := c.Add(name, l, "", parent)
	require.NoError(t, err)
	return e
}

// ---------------------------------------------------------------------------
// IDs
// ---------------------------------------------------------------------------

func TestLayerID(t *testing.T) {
	var zero LayerID
	assert.True(t, zero.IsZero())

	a := NewLayerID("a")
	assert.False(t, a.IsZero())
	assert.Equal(t, a, NewLayerID("a"))
	assert.NotEqual(t, a, NewLayerID("b"))
	assert.Len(t, a.String(), 64)
	assert.Equal(t, a.String()[:8], a.Short())

	text, err := a.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, a.String(), string(text))
}

func TestIDForDependsOnGeometry(t *testing.T) {
	l1 := planeLayer(t, 0, layer.Config{Thickness: 1})
	l2 := planeLayer(t, 5, layer.Config{Thickness: 1})
	assert.Equal(t, IDFor("x", l1), IDFor("x", l1))
	assert.NotEqual(t, IDFor("x", l1), IDFor("x", l2))
	assert.NotEqual(t, IDFor("x", l1), IDFor("y", l1))
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

func TestAddAndLookup(t *testing.T) {
	c := New()
	l := planeLayer(t, 0, layer.Config{})
	e := mustAdd(t, c, "pixel-0", l, LayerID{})

	assert.Equal(t, 1, c.Count())
	assert.Same(t, e, c.Lookup("pixel-0"))
	assert.Same(t, e, c.Get(e.ID))
	assert.Nil(t, c.Lookup("missing"))
	assert.Same(t, l, e.Layer)
}

func TestAddRejects(t *testing.T) {
	c := New()
	mustAdd(t, c, "a", planeLayer(t, 0, layer.Config{}), LayerID{})

	_, err := c.Add("a", planeLayer(t, 1, layer.Config{}), "", LayerID{})
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = c.Add("b", nil, "", LayerID{})
	assert.ErrorIs(t, err, ErrNilLayer)
	assert.Equal(t, 1, c.Count())
}

func TestUnnamedDuplicatesGetDistinctIDs(t *testing.T) {
	c := New()
	l := planeLayer(t, 0, layer.Config{})
	c1, err := l.CloneWithShift(geometry.Identity())
	require.NoError(t, err)

	e1 := mustAdd(t, c, "", l, LayerID{})
	e2 := mustAdd(t, c, "", c1, LayerID{})
	assert.NotEqual(t, e1.ID, e2.ID)
	assert.Equal(t, 2, c.Count())
}

func TestEntriesKeepOrderAndShifted(t *testing.T) {
	c := New()
	base := mustAdd(t, c, "base", planeLayer(t, 0, layer.Config{}), LayerID{})
	var names []string
	for i, z := range []float64{10, 20, 30} {
		l, err := base.Layer.CloneWithShift(geometry.Translation(v3.Vec{Z: z}))
		require.NoError(t, err)
		name := []string{"s1", "s2", "s3"}[i]
		mustAdd(t, c, name, l, base.ID)
		names = append(names, name)
	}

	var got []string
	for _, e := range c.Entries() {
		got = append(got, e.Name)
	}
	assert.Equal(t, append([]string{"base"}, names...), got)

	shifted := c.Shifted(base.ID)
	require.Len(t, shifted, 3)
	assert.Equal(t, "s1", shifted[0].Name)
	assert.Empty(t, c.Shifted(LayerID{}))
}
