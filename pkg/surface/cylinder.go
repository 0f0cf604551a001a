package surface

import (
	"fmt"
	"math"

	"github.com/chazu/detgeo/pkg/geometry"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var _ Surface = (*CylinderSurface)(nil)

// CylinderSurface is an open cylinder around the local z axis.
type CylinderSurface struct {
	frame
	bounds *CylinderBounds
}

// NewCylinderSurface places cylinder bounds with t.
func NewCylinderSurface(t geometry.Transform, b *CylinderBounds) (*CylinderSurface, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("cylinder surface: %w", err)
	}
	f, err := newFrame(t)
	if err != nil {
		return nil, fmt.Errorf("cylinder surface: %w", err)
	}
	return &CylinderSurface{frame: f, bounds: b}, nil
}

// Kind returns KindCylinder.
func (s *CylinderSurface) Kind() Kind { return KindCylinder }

// Bounds returns the cylinder bounds.
func (s *CylinderSurface) Bounds() Bounds { return s.bounds }

// CylinderBounds returns the bounds with their concrete type.
func (s *CylinderSurface) CylinderBounds() *CylinderBounds { return s.bounds }

// Radius returns the cylinder radius.
func (s *CylinderSurface) Radius() float64 { return s.bounds.radius }

// Axis returns the cylinder axis in global space.
func (s *CylinderSurface) Axis() v3.Vec { return s.axis() }

// Normal returns the outward radial direction at local (r·phi, z).
func (s *CylinderSurface) Normal(local v2.Vec) v3.Vec {
	phi := local.X / s.bounds.radius
	return s.transform.ApplyDirection(v3.Vec{X: math.Cos(phi), Y: math.Sin(phi)}).Normalize()
}

// LocalToGlobal maps (r·phi, z) to global space.
func (s *CylinderSurface) LocalToGlobal(local v2.Vec) v3.Vec {
	r := s.bounds.radius
	phi := local.X / r
	return s.transform.Apply(v3.Vec{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: local.Y})
}

// GlobalToLocal returns (r·phi, z); false if global is off the mantle.
func (s *CylinderSurface) GlobalToLocal(global v3.Vec) (v2.Vec, bool) {
	l := s.inverse.Apply(global)
	r := math.Hypot(l.X, l.Y)
	phi := math.Atan2(l.Y, l.X)
	return v2.Vec{X: s.bounds.radius * phi, Y: l.Z}, math.Abs(r-s.bounds.radius) <= geometry.Tolerance
}

// IsOnSurface reports whether global lies on the mantle and, optionally,
// within the axial extent.
func (s *CylinderSurface) IsOnSurface(global v3.Vec, boundaryCheck bool) bool {
	local, ok := s.GlobalToLocal(global)
	if !ok {
		return false
	}
	return !boundaryCheck || s.bounds.Inside(local)
}

// Intersect returns the first intersection along direction at or after
// position, or the closest one behind it if the line only crosses backwards.
func (s *CylinderSurface) Intersect(position, direction v3.Vec, boundaryCheck bool) Intersection {
	if direction.Length() < geometry.Tolerance {
		return Intersection{}
	}
	dir := direction.Normalize()
	p := s.inverse.Apply(position)
	d := s.inverse.ApplyDirection(dir)

	// (px + s·dx)² + (py + s·dy)² = R²
	a := d.X*d.X + d.Y*d.Y
	if a < geometry.Tolerance {
		return Intersection{} // parallel to the axis
	}
	b := 2 * (p.X*d.X + p.Y*d.Y)
	c := p.X*p.X + p.Y*p.Y - s.bounds.radius*s.bounds.radius
	disc := b*b - 4*a*c
	if disc < 0 {
		return Intersection{}
	}
	sq := math.Sqrt(disc)
	s1, s2 := (-b-sq)/(2*a), (-b+sq)/(2*a)

	candidates := []float64{s1, s2}
	if s1 < -geometry.Tolerance {
		candidates = []float64{s2, s1}
	}
	for _, sl := range candidates {
		local := p.Add(d.MulScalar(sl))
		if boundaryCheck && math.Abs(local.Z) > s.bounds.halfZ+geometry.Tolerance {
			continue
		}
		return Intersection{Position: position.Add(dir.MulScalar(sl)), PathLength: sl, Valid: true}
	}
	return Intersection{}
}

func (s *CylinderSurface) String() string {
	return fmt.Sprintf("CylinderSurface{%s %s}", s.transform, s.bounds)
}
