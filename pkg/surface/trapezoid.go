package surface

import (
	"fmt"

	v2 "github.com/deadsy/sdfx/vec/v2"
	geom "github.com/peterstace/simplefeatures/geom"
)

// TrapezoidBounds is a symmetric trapezoid: half-width minHalfX at y=-halfY
// and maxHalfX at y=+halfY. Containment is delegated to a simplefeatures
// polygon so the boundary is inclusive.
type TrapezoidBounds struct {
	minHalfX, maxHalfX, halfY float64
	poly                      geom.Polygon
}

// NewTrapezoidBounds returns trapezoid bounds.
func NewTrapezoidBounds(minHalfX, maxHalfX, halfY float64) (*TrapezoidBounds, error) {
	if err := positive("min-half-x", minHalfX); err != nil {
		return nil, err
	}
	if err := positive("max-half-x", maxHalfX); err != nil {
		return nil, err
	}
	if err := positive("half-y", halfY); err != nil {
		return nil, err
	}

	b := &TrapezoidBounds{minHalfX: minHalfX, maxHalfX: maxHalfX, halfY: halfY}

	verts := b.Vertices()
	flat := make([]float64, 0, 2*(len(verts)+1))
	for _, v := range verts {
		flat = append(flat, v.X, v.Y)
	}
	flat = append(flat, verts[0].X, verts[0].Y) // close the ring

	ring, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return nil, fmt.Errorf("%w: trapezoid ring: %v", ErrInvalidBounds, err)
	}
	// NewPolygon validates the ring: closed, simple, non-degenerate.
	b.poly, err = geom.NewPolygon([]geom.LineString{ring})
	if err != nil {
		return nil, fmt.Errorf("%w: trapezoid outline: %v", ErrInvalidBounds, err)
	}
	return b, nil
}

// MinHalfX returns the half-width at -halfY.
func (b *TrapezoidBounds) MinHalfX() float64 { return b.minHalfX }

// MaxHalfX returns the half-width at +halfY.
func (b *TrapezoidBounds) MaxHalfX() float64 { return b.maxHalfX }

// HalfY returns the half-length along local y.
func (b *TrapezoidBounds) HalfY() float64 { return b.halfY }

// Area returns the enclosed area in mm².
func (b *TrapezoidBounds) Area() float64 {
	return b.poly.Area()
}

// Inside reports whether local lies within the trapezoid.
func (b *TrapezoidBounds) Inside(local v2.Vec) bool {
	pt, err := geom.XY{X: local.X, Y: local.Y}.AsPoint()
	if err != nil {
		// Non-finite coordinates are never inside.
		return false
	}
	return geom.Intersects(pt.AsGeometry(), b.poly.AsGeometry())
}

// Validate checks the extents.
func (b *TrapezoidBounds) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: trapezoid bounds are nil", ErrInvalidBounds)
	}
	if err := positive("max-half-x", b.maxHalfX); err != nil {
		return err
	}
	if err := positive("half-y", b.halfY); err != nil {
		return err
	}
	if b.poly.IsEmpty() {
		return fmt.Errorf("%w: trapezoid has no outline", ErrInvalidBounds)
	}
	return nil
}

// Vertices returns the four corners counter-clockwise from bottom left.
func (b *TrapezoidBounds) Vertices() []v2.Vec {
	return []v2.Vec{
		{X: -b.minHalfX, Y: -b.halfY},
		{X: b.minHalfX, Y: -b.halfY},
		{X: b.maxHalfX, Y: b.halfY},
		{X: -b.maxHalfX, Y: b.halfY},
	}
}

func (b *TrapezoidBounds) String() string {
	return fmt.Sprintf("TrapezoidBounds{%.3f, %.3f, %.3f}", b.minHalfX, b.maxHalfX, b.halfY)
}

func (*TrapezoidBounds) planar() {}
