package layer

import (
	"fmt"
	"math"

	"github.com/chazu/detgeo/pkg/geometry"
	"github.com/chazu/detgeo/pkg/surface"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var _ Layer = (*CylinderLayer)(nil)

// CylinderLayer is a layer whose central surface is a cylinder mantle, as
// used for barrel layers. Its normal is radial, so the approach faces are
// concentric cylinders at radius R ± t/2 rather than translated copies.
type CylinderLayer struct {
	*surface.CylinderSurface
	core
}

// NewCylinderLayer builds a cylinder layer placed at t with the given bounds.
func NewCylinderLayer(t geometry.Transform, b *surface.CylinderBounds, cfg Config) (*CylinderLayer, error) {
	s, err := surface.NewCylinderSurface(t, b)
	if err != nil {
		return nil, fmt.Errorf("cylinder layer: %w", err)
	}
	l := &CylinderLayer{CylinderSurface: s}
	if err := l.core.init(l, l, cfg); err != nil {
		return nil, fmt.Errorf("cylinder layer: %w", err)
	}
	return l, nil
}

// NewShiftedCylinderLayer places a copy of src at shift ∘ src.Transform().
func NewShiftedCylinderLayer(src *CylinderLayer, shift geometry.Transform) (*CylinderLayer, error) {
	if src == nil {
		return nil, fmt.Errorf("shift cylinder layer: %w: nil source", surface.ErrInvalidBounds)
	}
	if err := shift.Validate(); err != nil {
		return nil, fmt.Errorf("shift cylinder layer: %w", err)
	}
	l, err := NewCylinderLayer(shift.Compose(src.Transform()), src.CylinderBounds(), Config{
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
func (l *CylinderLayer) SurfaceRepresentation() surface.Surface { return l }

// CloneWithShift is NewShiftedCylinderLayer behind the Layer interface.
func (l *CylinderLayer) CloneWithShift(shift geometry.Transform) (Layer, error) {
	c, err := NewShiftedCylinderLayer(l, shift)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// radial splits global into its axial coordinate and distance from the axis.
func (l *CylinderLayer) radial(global v3.Vec) (z, r float64) {
	v := global.Sub(l.Center())
	a := l.Axis()
	z = a.Dot(v)
	return z, v.Sub(a.MulScalar(z)).Length()
}

// IsOnLayer reports whether global lies within the cylindrical shell.
func (l *CylinderLayer) IsOnLayer(global v3.Vec, boundaryCheck bool) bool {
	z, r := l.radial(global)
	if math.Abs(r-l.Radius()) > l.thickness/2+geometry.Tolerance {
		return false
	}
	return !boundaryCheck || math.Abs(z) <= l.CylinderBounds().HalfZ()+geometry.Tolerance
}

func (l *CylinderLayer) synthesize(thickness float64) ([]surface.Surface, error) {
	r := l.Radius()
	if r-thickness/2 <= geometry.Tolerance {
		return nil, fmt.Errorf("%w: thickness %g leaves no inner face at radius %g", surface.ErrGeometry, thickness, r)
	}
	halfZ := l.CylinderBounds().HalfZ()
	faces := make([]surface.Surface, 0, 2)
	for _, sign := range []float64{1, -1} {
		var b *surface.CylinderBounds
		if thickness == 0 {
			b = l.CylinderBounds()
		} else {
			var err error
			if b, err = surface.NewCylinderBounds(r+sign*thickness/2, halfZ); err != nil {
				return nil, fmt.Errorf("%w: approach face: %v", surface.ErrGeometry, err)
			}
		}
		f, err := surface.NewCylinderSurface(l.Transform(), b)
		if err != nil {
			return nil, fmt.Errorf("%w: approach face: %v", surface.ErrGeometry, err)
		}
		faces = append(faces, f)
	}
	return faces, nil
}

// checkFace verifies that face is a coaxial cylinder within half the
// thickness of the central radius.
func (l *CylinderLayer) checkFace(face surface.Surface, thickness float64) error {
	c, ok := face.(*surface.CylinderSurface)
	if !ok {
		return fmt.Errorf("%w: %s face on cylinder layer", ErrInconsistentApproach, face.Kind())
	}
	if math.Abs(math.Abs(c.Axis().Dot(l.Axis()))-1) > parallelTolerance {
		return fmt.Errorf("%w: face axis is not parallel to the layer", ErrInconsistentApproach)
	}
	if _, r := l.radial(c.Center()); r > geometry.Tolerance {
		return fmt.Errorf("%w: face axis is displaced by %g", ErrInconsistentApproach, r)
	}
	if d := math.Abs(c.Radius() - l.Radius()); d > thickness/2+geometry.Tolerance {
		return fmt.Errorf("%w: face radius offset %g exceeds half thickness %g", ErrInconsistentApproach, d, thickness/2)
	}
	return nil
}

func (l *CylinderLayer) String() string {
	return fmt.Sprintf("CylinderLayer{%s %s t=%g}", l.CylinderSurface, l.typ, l.thickness)
}
