package surface

import (
	"fmt"
	"math"

	"github.com/chazu/detgeo/pkg/geometry"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface checks.
var (
	_ Surface = (*PlaneSurface)(nil)
	_ Surface = (*DiscSurface)(nil)
)

// PlaneSurface is a bounded plane, the local z=0 plane of its transform.
type PlaneSurface struct {
	frame
	bounds PlanarBounds
}

// NewPlaneSurface places planar bounds with t.
func NewPlaneSurface(t geometry.Transform, b PlanarBounds) (*PlaneSurface, error) {
	if err := validateBounds(b); err != nil {
		return nil, fmt.Errorf("plane surface: %w", err)
	}
	f, err := newFrame(t)
	if err != nil {
		return nil, fmt.Errorf("plane surface: %w", err)
	}
	return &PlaneSurface{frame: f, bounds: b}, nil
}

// Kind returns KindPlane.
func (s *PlaneSurface) Kind() Kind { return KindPlane }

// Bounds returns the planar bounds.
func (s *PlaneSurface) Bounds() Bounds { return s.bounds }

// PlanarBounds returns the bounds with their planar type.
func (s *PlaneSurface) PlanarBounds() PlanarBounds { return s.bounds }

// Normal returns the local z axis in global space; it is the same everywhere.
func (s *PlaneSurface) Normal(v2.Vec) v3.Vec { return s.axis() }

// LocalToGlobal maps (x, y) on the plane to global space.
func (s *PlaneSurface) LocalToGlobal(local v2.Vec) v3.Vec {
	return s.transform.Apply(v3.Vec{X: local.X, Y: local.Y})
}

// GlobalToLocal projects global into the plane frame.
func (s *PlaneSurface) GlobalToLocal(global v3.Vec) (v2.Vec, bool) {
	l := s.inverse.Apply(global)
	return v2.Vec{X: l.X, Y: l.Y}, math.Abs(l.Z) <= geometry.Tolerance
}

// IsOnSurface reports whether global lies on the plane and, optionally,
// within bounds.
func (s *PlaneSurface) IsOnSurface(global v3.Vec, boundaryCheck bool) bool {
	local, ok := s.GlobalToLocal(global)
	if !ok {
		return false
	}
	return !boundaryCheck || s.bounds.Inside(local)
}

// Intersect intersects the line position + s·direction with the plane.
func (s *PlaneSurface) Intersect(position, direction v3.Vec, boundaryCheck bool) Intersection {
	is, local := s.intersectPlane(position, direction)
	if is.Valid && boundaryCheck && !s.bounds.Inside(v2.Vec{X: local.X, Y: local.Y}) {
		is.Valid = false
	}
	return is
}

func (s *PlaneSurface) String() string {
	return fmt.Sprintf("PlaneSurface{%s %s}", s.transform, s.bounds)
}

// ---------------------------------------------------------------------------
// Disc
// ---------------------------------------------------------------------------

// DiscSurface is an annulus in the local z=0 plane.
type DiscSurface struct {
	frame
	bounds *RadialBounds
}

// NewDiscSurface places radial bounds with t.
func NewDiscSurface(t geometry.Transform, b *RadialBounds) (*DiscSurface, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("disc surface: %w", err)
	}
	f, err := newFrame(t)
	if err != nil {
		return nil, fmt.Errorf("disc surface: %w", err)
	}
	return &DiscSurface{frame: f, bounds: b}, nil
}

// Kind returns KindDisc.
func (s *DiscSurface) Kind() Kind { return KindDisc }

// Bounds returns the radial bounds.
func (s *DiscSurface) Bounds() Bounds { return s.bounds }

// RadialBounds returns the bounds with their concrete type.
func (s *DiscSurface) RadialBounds() *RadialBounds { return s.bounds }

// Normal returns the local z axis in global space.
func (s *DiscSurface) Normal(v2.Vec) v3.Vec { return s.axis() }

// LocalToGlobal maps Cartesian (x, y) in the disc plane to global space.
func (s *DiscSurface) LocalToGlobal(local v2.Vec) v3.Vec {
	return s.transform.Apply(v3.Vec{X: local.X, Y: local.Y})
}

// GlobalToLocal projects global into the disc frame.
func (s *DiscSurface) GlobalToLocal(global v3.Vec) (v2.Vec, bool) {
	l := s.inverse.Apply(global)
	return v2.Vec{X: l.X, Y: l.Y}, math.Abs(l.Z) <= geometry.Tolerance
}

// IsOnSurface reports whether global lies on the disc plane and, optionally,
// within the annulus.
func (s *DiscSurface) IsOnSurface(global v3.Vec, boundaryCheck bool) bool {
	local, ok := s.GlobalToLocal(global)
	if !ok {
		return false
	}
	return !boundaryCheck || s.bounds.Inside(local)
}

// Intersect intersects the line position + s·direction with the disc plane.
func (s *DiscSurface) Intersect(position, direction v3.Vec, boundaryCheck bool) Intersection {
	is, local := s.intersectPlane(position, direction)
	if is.Valid && boundaryCheck && !s.bounds.Inside(v2.Vec{X: local.X, Y: local.Y}) {
		is.Valid = false
	}
	return is
}

func (s *DiscSurface) String() string {
	return fmt.Sprintf("DiscSurface{%s %s}", s.transform, s.bounds)
}
