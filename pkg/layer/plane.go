package layer

import (
	"fmt"

	"github.com/chazu/detgeo/pkg/geometry"
	"github.com/chazu/detgeo/pkg/surface"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var (
	_ Layer           = (*PlaneLayer)(nil)
	_ surface.Surface = (*PlaneLayer)(nil)
)

// PlaneLayer is a layer whose central surface is a bounded plane.
type PlaneLayer struct {
	*surface.PlaneSurface
	core
}

// NewPlaneLayer builds a plane layer placed at t with the given bounds.
func NewPlaneLayer(t geometry.Transform, b surface.PlanarBounds, cfg Config) (*PlaneLayer, error) {
	s, err := surface.NewPlaneSurface(t, b)
	if err != nil {
		return nil, fmt.Errorf("plane layer: %w", err)
	}
	l := &PlaneLayer{PlaneSurface: s}
	if err := l.core.init(l, l, cfg); err != nil {
		return nil, fmt.Errorf("plane layer: %w", err)
	}
	return l, nil
}

// NewShiftedPlaneLayer places a copy of src at shift ∘ src.Transform().
// Bounds, thickness, type and material are shared with src; the approach
// faces are rebuilt and the sensitive surfaces are not carried over.
func NewShiftedPlaneLayer(src *PlaneLayer, shift geometry.Transform) (*PlaneLayer, error) {
	if src == nil {
		return nil, fmt.Errorf("shift plane layer: %w: nil source", surface.ErrInvalidBounds)
	}
	if err := shift.Validate(); err != nil {
		return nil, fmt.Errorf("shift plane layer: %w", err)
	}
	l, err := NewPlaneLayer(shift.Compose(src.Transform()), src.PlanarBounds(), Config{
		Thickness: src.thickness,
		Type:      src.typ,
	})
	if err != nil {
		return nil, err
	}
	l.inherit(&src.core)
	return l, nil
}

// SurfaceRepresentation returns l.
func (l *PlaneLayer) SurfaceRepresentation() surface.Surface { return l }

// CloneWithShift is NewShiftedPlaneLayer behind the Layer interface.
func (l *PlaneLayer) CloneWithShift(shift geometry.Transform) (Layer, error) {
	c, err := NewShiftedPlaneLayer(l, shift)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// IsOnLayer reports whether global lies within the slab.
func (l *PlaneLayer) IsOnLayer(global v3.Vec, boundaryCheck bool) bool {
	return onPlanarSlab(l.PlaneSurface, l.thickness, global, boundaryCheck)
}

func (l *PlaneLayer) synthesize(thickness float64) ([]surface.Surface, error) {
	b := l.PlanarBounds()
	return offsetFaces(l.PlaneSurface, thickness, func(t geometry.Transform) (surface.Surface, error) {
		return surface.NewPlaneSurface(t, b)
	})
}

func (l *PlaneLayer) checkFace(face surface.Surface, thickness float64) error {
	return checkFlatFace(l.PlaneSurface, face, thickness)
}

func (l *PlaneLayer) String() string {
	return fmt.Sprintf("PlaneLayer{%s %s t=%g}", l.PlaneSurface, l.typ, l.thickness)
}
