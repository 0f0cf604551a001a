package layer

import (
	"fmt"

	"github.com/chazu/detgeo/pkg/geometry"
	"github.com/chazu/detgeo/pkg/surface"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var _ Layer = (*DiscLayer)(nil)

// DiscLayer is a layer whose central surface is an annulus, as used for
// endcap disks.
type DiscLayer struct {
	*surface.DiscSurface
	core
}

// NewDiscLayer builds a disc layer placed at t with the given bounds.
func NewDiscLayer(t geometry.Transform, b *surface.RadialBounds, cfg Config) (*DiscLayer, error) {
	s, err := surface.NewDiscSurface(t, b)
	if err != nil {
		return nil, fmt.Errorf("disc layer: %w", err)
	}
	l := &DiscLayer{DiscSurface: s}
	if err := l.core.init(l, l, cfg); err != nil {
		return nil, fmt.Errorf("disc layer: %w", err)
	}
	return l, nil
}

// NewShiftedDiscLayer places a copy of src at shift ∘ src.Transform().
func NewShiftedDiscLayer(src *DiscLayer, shift geometry.Transform) (*DiscLayer, error) {
	if src == nil {
		return nil, fmt.Errorf("shift disc layer: %w: nil source", surface.ErrInvalidBounds)
	}
	if err := shift.Validate(); err != nil {
		return nil, fmt.Errorf("shift disc layer: %w", err)
	}
	l, err := NewDiscLayer(shift.Compose(src.Transform()), src.RadialBounds(), Config{
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
func (l *DiscLayer) SurfaceRepresentation() surface.Surface { return l }

// CloneWithShift is NewShiftedDiscLayer behind the Layer interface.
func (l *DiscLayer) CloneWithShift(shift geometry.Transform) (Layer, error) {
	c, err := NewShiftedDiscLayer(l, shift)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// IsOnLayer reports whether global lies within the slab.
func (l *DiscLayer) IsOnLayer(global v3.Vec, boundaryCheck bool) bool {
	return onPlanarSlab(l.DiscSurface, l.thickness, global, boundaryCheck)
}

func (l *DiscLayer) synthesize(thickness float64) ([]surface.Surface, error) {
	b := l.RadialBounds()
	return offsetFaces(l.DiscSurface, thickness, func(t geometry.Transform) (surface.Surface, error) {
		return surface.NewDiscSurface(t, b)
	})
}

func (l *DiscLayer) checkFace(face surface.Surface, thickness float64) error {
	return checkFlatFace(l.DiscSurface, face, thickness)
}

func (l *DiscLayer) String() string {
	return fmt.Sprintf("DiscLayer{%s %s t=%g}", l.DiscSurface, l.typ, l.thickness)
}
