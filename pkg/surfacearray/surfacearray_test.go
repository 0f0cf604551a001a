package surfacearray

import (
	"math"
	"sync"
	"testing"

	"github.com/chazu/detgeo/pkg/geometry"
	"github.com/chazu/detgeo/pkg/surface"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// grid returns nx*ny 2x2 mm modules centered on a 10 mm pitch in z=0.
func grid(t *testing.T, nx, ny int) []surface.Surface {
	t.Helper()
	b, err := surface.NewRectangleBounds(1, 1)
	require.NoError(t, err)
	var out []surface.Surface
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			c := v3.Vec{X: float64(i) * 10, Y: float64(j) * 10}
			s, err := surface.NewPlaneSurface(geometry.Translation(c), b)
			require.NoError(t, err)
			out = append(out, s)
		}
	}
	return out
}

func TestAxisValidate(t *testing.T) {
	tests := []struct {
		name string
		axis Axis
		ok   bool
	}{
		{"valid", Axis{Value: BinX, Min: 0, Max: 1, Bins: 1}, true},
		{"no bins", Axis{Value: BinX, Min: 0, Max: 1}, false},
		{"empty range", Axis{Value: BinX, Min: 1, Max: 1, Bins: 2}, false},
		{"inverted", Axis{Value: BinX, Min: 2, Max: 1, Bins: 2}, false},
		{"nan", Axis{Value: BinX, Min: math.NaN(), Max: 1, Bins: 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.axis.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidBinning)
			}
		})
	}
}

func TestAxisIndexClamps(t *testing.T) {
	a := Axis{Value: BinX, Min: 0, Max: 10, Bins: 5}
	assert.Equal(t, 0, a.Index(-100))
	assert.Equal(t, 0, a.Index(1.9))
	assert.Equal(t, 1, a.Index(2.1))
	assert.Equal(t, 4, a.Index(10))
	assert.Equal(t, 4, a.Index(1e9))
}

func TestBinValueOf(t *testing.T) {
	p := v3.Vec{X: 0, Y: 3, Z: 4}
	assert.Equal(t, 0.0, BinX.Of(p))
	assert.Equal(t, 3.0, BinY.Of(p))
	assert.Equal(t, 4.0, BinZ.Of(p))
	assert.InDelta(t, 3.0, BinR.Of(p), 1e-12)
	assert.InDelta(t, math.Pi/2, BinPhi.Of(p), 1e-12)
	assert.Equal(t, "phi", BinPhi.String())
	assert.Equal(t, "BinValue(9)", BinValue(9).String())
}

func TestNewRejectsBadInput(t *testing.T) {
	a := Axis{Value: BinX, Min: 0, Max: 1, Bins: 1}

	_, err := New(nil, a, a)
	assert.ErrorIs(t, err, ErrInvalidBinning)

	_, err = New([]surface.Surface{nil}, a, a)
	assert.ErrorIs(t, err, ErrInvalidBinning)

	_, err = New(grid(t, 1, 1), a, Axis{})
	assert.ErrorIs(t, err, ErrInvalidBinning)
}

func TestLookupFindsBinnedSurface(t *testing.T) {
	surfaces := grid(t, 3, 3)
	a, b, err := AutoAxes(surfaces, BinX, 3, BinY, 3)
	require.NoError(t, err)
	sa, err := New(surfaces, a, b)
	require.NoError(t, err)

	assert.Equal(t, 9, sa.Len())
	for _, s := range surfaces {
		found := sa.At(s.Center())
		require.Len(t, found, 1)
		assert.Same(t, s, found[0])
	}

	// Center module sees all nine through its neighbourhood.
	assert.Len(t, sa.Neighbours(v3.Vec{X: 10, Y: 10}), 9)
	// A corner sees its 2x2 block.
	assert.Len(t, sa.Neighbours(v3.Vec{}), 4)
}

func TestClosedAxisWrapsNeighbours(t *testing.T) {
	a := Axis{Value: BinPhi, Min: -math.Pi, Max: math.Pi, Bins: 4, Closed: true}
	assert.ElementsMatch(t, []int{0, 1, 3}, a.neighbours(0))

	open := Axis{Value: BinX, Min: 0, Max: 4, Bins: 4}
	assert.ElementsMatch(t, []int{0, 1}, open.neighbours(0))
}

func TestAutoAxesPhi(t *testing.T) {
	a, _, err := AutoAxes(grid(t, 2, 1), BinPhi, 8, BinZ, 1)
	require.NoError(t, err)
	assert.True(t, a.Closed)
	assert.Equal(t, -math.Pi, a.Min)
	assert.Equal(t, math.Pi, a.Max)
}

func TestSurfacesReturnsCopy(t *testing.T) {
	surfaces := grid(t, 2, 1)
	a, b, err := AutoAxes(surfaces, BinX, 2, BinY, 1)
	require.NoError(t, err)
	sa, err := New(surfaces, a, b)
	require.NoError(t, err)

	got := sa.Surfaces()
	got[0] = nil
	assert.NotNil(t, sa.Surfaces()[0])

	surfaces[1] = nil
	assert.NotNil(t, sa.Surfaces()[1])
}

func TestClaimIsExclusive(t *testing.T) {
	surfaces := grid(t, 1, 1)
	a, b, err := AutoAxes(surfaces, BinX, 1, BinY, 1)
	require.NoError(t, err)
	sa, err := New(surfaces, a, b)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sa.Claim() == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.True(t, sa.Claimed())
	assert.ErrorIs(t, sa.Claim(), ErrOwned)
}
