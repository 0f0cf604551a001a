package surface

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/detgeo/pkg/geometry"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var (
	// ErrInvalidBounds is returned when a surface is built without bounds or
	// with bounds whose extents are not usable.
	ErrInvalidBounds = errors.New("invalid bounds")

	// ErrGeometry is returned when a derived quantity (normal, offset face)
	// cannot be computed.
	ErrGeometry = errors.New("geometry computation failure")
)

// Kind distinguishes the concrete surface shapes.
type Kind int

const (
	KindPlane    Kind = iota // bounded plane
	KindDisc                 // annulus in a plane
	KindCylinder             // open cylinder along local z
)

func (k Kind) String() string {
	switch k {
	case KindPlane:
		return "plane"
	case KindDisc:
		return "disc"
	case KindCylinder:
		return "cylinder"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Intersection is the result of intersecting a straight line with a surface.
// PathLength is signed and measured along the normalized direction.
type Intersection struct {
	Position   v3.Vec
	PathLength float64
	Valid      bool
}

// Surface is the geometric capability set.
type Surface interface {
	Kind() Kind
	Transform() geometry.Transform
	Bounds() Bounds

	// Center is the global position of the local origin.
	Center() v3.Vec
	// Normal is the unit normal at a local position.
	Normal(local v2.Vec) v3.Vec

	LocalToGlobal(local v2.Vec) v3.Vec
	// GlobalToLocal returns false if global is not on the surface.
	GlobalToLocal(global v3.Vec) (v2.Vec, bool)

	IsOnSurface(global v3.Vec, boundaryCheck bool) bool
	Intersect(position, direction v3.Vec, boundaryCheck bool) Intersection
}

// frame holds a placement and its precomputed inverse.
type frame struct {
	transform geometry.Transform
	inverse   geometry.Transform
}

func newFrame(t geometry.Transform) (frame, error) {
	inv, err := t.Inverse()
	if err != nil {
		return frame{}, err
	}
	return frame{transform: t, inverse: inv}, nil
}

// Transform returns the surface placement.
func (f frame) Transform() geometry.Transform {
	return f.transform
}

// Center returns the global position of the local origin.
func (f frame) Center() v3.Vec {
	return f.transform.TranslationPart()
}

func (f frame) axis() v3.Vec {
	return f.transform.Axis(2)
}

// intersectPlane intersects a line with the local z=0 plane of the frame.
// The returned local position is in the frame's coordinates.
func (f frame) intersectPlane(position, direction v3.Vec) (Intersection, v3.Vec) {
	if direction.Length() < geometry.Tolerance {
		return Intersection{}, v3.Vec{}
	}
	dir := direction.Normalize()
	n := f.axis()
	denom := n.Dot(dir)
	if math.Abs(denom) < geometry.Tolerance {
		return Intersection{}, v3.Vec{}
	}
	s := n.Dot(f.Center().Sub(position)) / denom
	global := position.Add(dir.MulScalar(s))
	return Intersection{Position: global, PathLength: s, Valid: true}, f.inverse.Apply(global)
}

// NormalAt returns the normal of s at its local origin, failing with
// ErrGeometry if it is not a finite unit vector.
func NormalAt(s Surface) (v3.Vec, error) {
	n := s.Normal(v2.Vec{})
	if !geometry.IsFinite(n) || math.Abs(n.Length()-1) > 1e-6 {
		return v3.Vec{}, fmt.Errorf("%w: normal of %s surface is %v", ErrGeometry, s.Kind(), n)
	}
	return n, nil
}
