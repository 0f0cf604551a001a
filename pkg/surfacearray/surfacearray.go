// Package surfacearray indexes the sensitive surfaces of a layer on a
// regular two-dimensional grid over global coordinates.
//
// A SurfaceArray is exclusively owned: once a layer claims it, no other layer
// may attach it. Its binning is placement-specific, so shifted layer clones
// never inherit it.
package surfacearray

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/chazu/detgeo/pkg/surface"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrOwned is returned when a surface array is attached to a second layer.
var ErrOwned = errors.New("surface array already owned by a layer")

// ErrInvalidBinning is returned for unusable axes or surface lists.
var ErrInvalidBinning = errors.New("invalid binning")

// BinValue selects the global coordinate an axis bins in.
type BinValue int

const (
	BinX BinValue = iota
	BinY
	BinZ
	BinR
	BinPhi
)

func (b BinValue) String() string {
	switch b {
	case BinX:
		return "x"
	case BinY:
		return "y"
	case BinZ:
		return "z"
	case BinR:
		return "r"
	case BinPhi:
		return "phi"
	default:
		return fmt.Sprintf("BinValue(%d)", int(b))
	}
}

// Of returns the coordinate of p this value bins in.
func (b BinValue) Of(p v3.Vec) float64 {
	switch b {
	case BinX:
		return p.X
	case BinY:
		return p.Y
	case BinZ:
		return p.Z
	case BinR:
		return math.Hypot(p.X, p.Y)
	case BinPhi:
		return math.Atan2(p.Y, p.X)
	default:
		return 0
	}
}

// Axis is an equidistant binning of one coordinate over [Min, Max].
// Closed axes (phi) wrap around when looking up neighbours.
type Axis struct {
	Value  BinValue
	Min    float64
	Max    float64
	Bins   int
	Closed bool
}

// Validate checks that the axis has at least one bin and a positive range.
func (a Axis) Validate() error {
	if a.Bins < 1 {
		return fmt.Errorf("%w: axis %s has %d bins", ErrInvalidBinning, a.Value, a.Bins)
	}
	if !(a.Max > a.Min) {
		return fmt.Errorf("%w: axis %s range [%g, %g] is empty", ErrInvalidBinning, a.Value, a.Min, a.Max)
	}
	return nil
}

// Index returns the bin of v, clamped to the axis.
func (a Axis) Index(v float64) int {
	i := int(math.Floor((v - a.Min) / (a.Max - a.Min) * float64(a.Bins)))
	if i < 0 {
		return 0
	}
	if i >= a.Bins {
		return a.Bins - 1
	}
	return i
}

// neighbours returns i and its adjacent bins.
func (a Axis) neighbours(i int) []int {
	out := []int{i}
	for _, j := range []int{i - 1, i + 1} {
		switch {
		case j >= 0 && j < a.Bins:
			out = append(out, j)
		case a.Closed && a.Bins > 2:
			out = append(out, (j+a.Bins)%a.Bins)
		}
	}
	return out
}

// SurfaceArray holds sensitive surfaces and their bin assignment.
type SurfaceArray struct {
	surfaces []surface.Surface
	a, b     Axis
	bins     [][]int // a-major: bins[ia*b.Bins+ib]

	claimed atomic.Bool
}

// New bins surfaces by their centers on axes a and b.
func New(surfaces []surface.Surface, a, b Axis) (*SurfaceArray, error) {
	if len(surfaces) == 0 {
		return nil, fmt.Errorf("%w: no surfaces", ErrInvalidBinning)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	sa := &SurfaceArray{
		surfaces: make([]surface.Surface, len(surfaces)),
		a:        a,
		b:        b,
		bins:     make([][]int, a.Bins*b.Bins),
	}
	for i, s := range surfaces {
		if s == nil {
			return nil, fmt.Errorf("%w: surface %d is nil", ErrInvalidBinning, i)
		}
		sa.surfaces[i] = s
		c := s.Center()
		k := sa.flat(a.Index(a.Value.Of(c)), b.Index(b.Value.Of(c)))
		sa.bins[k] = append(sa.bins[k], i)
	}
	return sa, nil
}

// AutoAxes derives axes spanning the surface centers, padded by half a bin
// on each side. Phi axes always span [-π, π) and are closed.
func AutoAxes(surfaces []surface.Surface, va BinValue, na int, vb BinValue, nb int) (Axis, Axis, error) {
	if len(surfaces) == 0 {
		return Axis{}, Axis{}, fmt.Errorf("%w: no surfaces", ErrInvalidBinning)
	}
	build := func(v BinValue, n int) Axis {
		if v == BinPhi {
			return Axis{Value: v, Min: -math.Pi, Max: math.Pi, Bins: n, Closed: true}
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, s := range surfaces {
			if s == nil {
				continue
			}
			x := v.Of(s.Center())
			lo = math.Min(lo, x)
			hi = math.Max(hi, x)
		}
		pad := 1.0
		if n > 1 && hi > lo {
			pad = 0.5 * (hi - lo) / float64(n-1)
		}
		return Axis{Value: v, Min: lo - pad, Max: hi + pad, Bins: n}
	}
	a, b := build(va, na), build(vb, nb)
	if err := a.Validate(); err != nil {
		return Axis{}, Axis{}, err
	}
	if err := b.Validate(); err != nil {
		return Axis{}, Axis{}, err
	}
	return a, b, nil
}

func (sa *SurfaceArray) flat(ia, ib int) int {
	return ia*sa.b.Bins + ib
}

// Len returns the number of surfaces.
func (sa *SurfaceArray) Len() int { return len(sa.surfaces) }

// Surfaces returns the surfaces in insertion order. The slice is a copy.
func (sa *SurfaceArray) Surfaces() []surface.Surface {
	out := make([]surface.Surface, len(sa.surfaces))
	copy(out, sa.surfaces)
	return out
}

// Axes returns the two binning axes.
func (sa *SurfaceArray) Axes() (Axis, Axis) { return sa.a, sa.b }

// At returns the surfaces binned at the bin containing global.
func (sa *SurfaceArray) At(global v3.Vec) []surface.Surface {
	k := sa.flat(sa.a.Index(sa.a.Value.Of(global)), sa.b.Index(sa.b.Value.Of(global)))
	return sa.collect([]int{k})
}

// Neighbours returns the surfaces of the bin containing global and of all
// adjacent bins.
func (sa *SurfaceArray) Neighbours(global v3.Vec) []surface.Surface {
	ia := sa.a.Index(sa.a.Value.Of(global))
	ib := sa.b.Index(sa.b.Value.Of(global))
	var ks []int
	for _, i := range sa.a.neighbours(ia) {
		for _, j := range sa.b.neighbours(ib) {
			ks = append(ks, sa.flat(i, j))
		}
	}
	return sa.collect(ks)
}

func (sa *SurfaceArray) collect(ks []int) []surface.Surface {
	var out []surface.Surface
	for _, k := range ks {
		for _, i := range sa.bins[k] {
			out = append(out, sa.surfaces[i])
		}
	}
	return out
}

// Claim marks the array as owned. It fails with ErrOwned on every call after
// the first. Layer constructors call it; callers normally do not.
func (sa *SurfaceArray) Claim() error {
	if !sa.claimed.CompareAndSwap(false, true) {
		return ErrOwned
	}
	return nil
}

// Claimed reports whether a layer owns the array.
func (sa *SurfaceArray) Claimed() bool {
	return sa.claimed.Load()
}
