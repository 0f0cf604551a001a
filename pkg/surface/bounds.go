package surface

import (
	"fmt"
	"math"

	"github.com/chazu/detgeo/pkg/geometry"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Bounds describes the extent of a surface in its local coordinates.
// Implementations are immutable and may be shared by any number of surfaces.
type Bounds interface {
	// Inside reports whether a local position lies within the bounds,
	// boundary included.
	Inside(local v2.Vec) bool
	// Validate returns ErrInvalidBounds if the extents are unusable. It is
	// safe to call on a nil receiver.
	Validate() error
	String() string
}

// PlanarBounds are bounds usable by a PlaneSurface.
type PlanarBounds interface {
	Bounds
	// Vertices returns the outline in local coordinates, counter-clockwise.
	Vertices() []v2.Vec
	planar()
}

// validateBounds rejects both a nil interface and a typed nil pointer.
func validateBounds(b Bounds) error {
	if b == nil {
		return fmt.Errorf("%w: bounds are absent", ErrInvalidBounds)
	}
	return b.Validate()
}

func positive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%w: %s is %g, must be positive", ErrInvalidBounds, name, v)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Rectangle
// ---------------------------------------------------------------------------

// RectangleBounds is a centered rectangle with half-lengths along local x/y.
type RectangleBounds struct {
	box sdf.Box2
}

// NewRectangleBounds returns rectangle bounds of the given half-lengths.
func NewRectangleBounds(halfX, halfY float64) (*RectangleBounds, error) {
	if err := positive("half-x", halfX); err != nil {
		return nil, err
	}
	if err := positive("half-y", halfY); err != nil {
		return nil, err
	}
	return &RectangleBounds{box: sdf.NewBox2(v2.Vec{}, v2.Vec{X: 2 * halfX, Y: 2 * halfY})}, nil
}

// HalfX returns the half-length along local x.
func (b *RectangleBounds) HalfX() float64 { return b.box.Max.X }

// HalfY returns the half-length along local y.
func (b *RectangleBounds) HalfY() float64 { return b.box.Max.Y }

// Inside reports whether local lies within the rectangle.
func (b *RectangleBounds) Inside(local v2.Vec) bool {
	const tol = geometry.Tolerance
	return local.X >= b.box.Min.X-tol && local.X <= b.box.Max.X+tol &&
		local.Y >= b.box.Min.Y-tol && local.Y <= b.box.Max.Y+tol
}

// Validate checks the extents.
func (b *RectangleBounds) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: rectangle bounds are nil", ErrInvalidBounds)
	}
	if err := positive("half-x", b.HalfX()); err != nil {
		return err
	}
	return positive("half-y", b.HalfY())
}

// Vertices returns the four corners.
func (b *RectangleBounds) Vertices() []v2.Vec {
	hx, hy := b.HalfX(), b.HalfY()
	return []v2.Vec{{X: -hx, Y: -hy}, {X: hx, Y: -hy}, {X: hx, Y: hy}, {X: -hx, Y: hy}}
}

func (b *RectangleBounds) String() string {
	return fmt.Sprintf("RectangleBounds{%.3f, %.3f}", b.HalfX(), b.HalfY())
}

func (*RectangleBounds) planar() {}

// ---------------------------------------------------------------------------
// Radial
// ---------------------------------------------------------------------------

// RadialBounds is an annulus rMin <= r <= rMax in the local x/y plane.
// rMin may be zero for a full disc.
type RadialBounds struct {
	rMin, rMax float64
}

// NewRadialBounds returns annulus bounds.
func NewRadialBounds(rMin, rMax float64) (*RadialBounds, error) {
	b := &RadialBounds{rMin: rMin, rMax: rMax}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// RMin returns the inner radius.
func (b *RadialBounds) RMin() float64 { return b.rMin }

// RMax returns the outer radius.
func (b *RadialBounds) RMax() float64 { return b.rMax }

// Inside reports whether local lies within the annulus.
func (b *RadialBounds) Inside(local v2.Vec) bool {
	r := local.Length()
	return r >= b.rMin-geometry.Tolerance && r <= b.rMax+geometry.Tolerance
}

// Validate checks the radii.
func (b *RadialBounds) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: radial bounds are nil", ErrInvalidBounds)
	}
	if math.IsNaN(b.rMin) || b.rMin < 0 {
		return fmt.Errorf("%w: r-min is %g, must be >= 0", ErrInvalidBounds, b.rMin)
	}
	if err := positive("r-max", b.rMax); err != nil {
		return err
	}
	if b.rMin >= b.rMax {
		return fmt.Errorf("%w: r-min %g must be below r-max %g", ErrInvalidBounds, b.rMin, b.rMax)
	}
	return nil
}

func (b *RadialBounds) String() string {
	return fmt.Sprintf("RadialBounds{%.3f, %.3f}", b.rMin, b.rMax)
}

// ---------------------------------------------------------------------------
// Cylinder
// ---------------------------------------------------------------------------

// CylinderBounds is a cylinder of the given radius spanning |z| <= halfZ.
// Local coordinates are (r·phi, z).
type CylinderBounds struct {
	radius, halfZ float64
}

// NewCylinderBounds returns cylinder bounds.
func NewCylinderBounds(radius, halfZ float64) (*CylinderBounds, error) {
	b := &CylinderBounds{radius: radius, halfZ: halfZ}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Radius returns the cylinder radius.
func (b *CylinderBounds) Radius() float64 { return b.radius }

// HalfZ returns the half-length along the axis.
func (b *CylinderBounds) HalfZ() float64 { return b.halfZ }

// Inside reports whether local lies within the axial extent. The phi
// coordinate is unbounded.
func (b *CylinderBounds) Inside(local v2.Vec) bool {
	return math.Abs(local.Y) <= b.halfZ+geometry.Tolerance
}

// Validate checks radius and half-length.
func (b *CylinderBounds) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: cylinder bounds are nil", ErrInvalidBounds)
	}
	if err := positive("radius", b.radius); err != nil {
		return err
	}
	return positive("half-z", b.halfZ)
}

func (b *CylinderBounds) String() string {
	return fmt.Sprintf("CylinderBounds{r=%.3f, halfZ=%.3f}", b.radius, b.halfZ)
}
