package layer

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/chazu/detgeo/pkg/geometry"
	"github.com/chazu/detgeo/pkg/surface"
	"github.com/chazu/detgeo/pkg/surfacearray"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var (
	// ErrInvalidThickness is returned for negative or non-finite thickness.
	ErrInvalidThickness = errors.New("invalid layer thickness")

	// ErrInvalidType is returned for an unknown layer type.
	ErrInvalidType = errors.New("invalid layer type")

	// ErrOwned is returned when an approach descriptor already belongs to
	// another layer.
	ErrOwned = errors.New("approach descriptor already owned by a layer")

	// ErrInconsistentApproach is returned when a supplied approach descriptor
	// does not match the layer's placement, bounds or thickness.
	ErrInconsistentApproach = fmt.Errorf("inconsistent approach descriptor: %w", surface.ErrGeometry)

	// ErrMaterialAssigned is returned on the second material assignment.
	ErrMaterialAssigned = errors.New("material already assigned")

	// ErrInvalidMaterial is returned for non-physical material constants.
	ErrInvalidMaterial = errors.New("invalid material")
)

// ---------------------------------------------------------------------------
// Type
// ---------------------------------------------------------------------------

// Type is the role of a layer during navigation.
type Type int

const (
	// TypeActive layers carry sensitive surfaces used in pattern recognition.
	TypeActive Type = iota
	// TypePassive layers only contribute material.
	TypePassive
	// TypeNavigation layers are pure navigation boundaries.
	TypeNavigation
)

func (t Type) String() string {
	switch t {
	case TypeActive:
		return "active"
	case TypePassive:
		return "passive"
	case TypeNavigation:
		return "navigation"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ParseType maps a type name to its Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "active":
		return TypeActive, nil
	case "passive":
		return TypePassive, nil
	case "navigation":
		return TypeNavigation, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

func (t Type) valid() bool {
	return t >= TypeActive && t <= TypeNavigation
}

// ---------------------------------------------------------------------------
// Material
// ---------------------------------------------------------------------------

// Material describes the homogeneous material of a layer slab.
type Material struct {
	Name    string
	X0      float64 // radiation length, mm
	L0      float64 // nuclear interaction length, mm
	Density float64 // g/cm³
}

// Validate checks that the material constants are physical.
func (m Material) Validate() error {
	if !(m.X0 > 0) || math.IsInf(m.X0, 0) {
		return fmt.Errorf("%w: %s: x0 must be positive, got %g", ErrInvalidMaterial, m.Name, m.X0)
	}
	if !(m.L0 > 0) || math.IsInf(m.L0, 0) {
		return fmt.Errorf("%w: %s: l0 must be positive, got %g", ErrInvalidMaterial, m.Name, m.L0)
	}
	if !(m.Density >= 0) || math.IsInf(m.Density, 0) {
		return fmt.Errorf("%w: %s: density must be non-negative, got %g", ErrInvalidMaterial, m.Name, m.Density)
	}
	return nil
}

// ThicknessInX0 returns the slab thickness in radiation lengths.
func (m Material) ThicknessInX0(thickness float64) float64 {
	return thickness / m.X0
}

// ---------------------------------------------------------------------------
// Layer
// ---------------------------------------------------------------------------

// Layer is the navigation capability set. Every Layer is also a Surface.
type Layer interface {
	surface.Surface

	// SurfaceRepresentation returns the layer itself viewed as a surface.
	SurfaceRepresentation() surface.Surface
	// CloneWithShift returns an independent layer placed at shift ∘ current.
	CloneWithShift(shift geometry.Transform) (Layer, error)

	Thickness() float64
	Type() Type
	// SurfaceArray returns the sensitive surfaces, or nil.
	SurfaceArray() *surfacearray.SurfaceArray
	ApproachDescriptor() *ApproachDescriptor

	Material() (Material, bool)
	AssignMaterial(m Material) error

	// IsOnLayer reports whether global lies within the layer slab.
	IsOnLayer(global v3.Vec, boundaryCheck bool) bool
}

// Config holds the optional parts of a layer. The zero value builds an
// active layer of zero thickness with synthesized approach faces and no
// sensitive surfaces.
type Config struct {
	SurfaceArray       *surfacearray.SurfaceArray
	Thickness          float64
	ApproachDescriptor *ApproachDescriptor
	Type               Type
}

// noCopy makes go vet's copylocks check flag copies of a layer.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// core is the navigation state shared by all layer kinds.
type core struct {
	_ noCopy

	thickness float64
	typ       Type
	array     *surfacearray.SurfaceArray
	approach  *ApproachDescriptor
	material  atomic.Pointer[Material]
}

// faceSource builds or checks the approach faces of one layer kind.
type faceSource interface {
	synthesize(thickness float64) ([]surface.Surface, error)
	checkFace(face surface.Surface, thickness float64) error
}

// init validates cfg and attaches its parts to owner. Nothing is claimed
// unless every check passes.
func (c *core) init(owner Layer, src faceSource, cfg Config) error {
	if math.IsNaN(cfg.Thickness) || math.IsInf(cfg.Thickness, 0) || cfg.Thickness < 0 {
		return fmt.Errorf("%w: %g", ErrInvalidThickness, cfg.Thickness)
	}
	if !cfg.Type.valid() {
		return fmt.Errorf("%w: %s", ErrInvalidType, cfg.Type)
	}

	ad := cfg.ApproachDescriptor
	if ad == nil {
		faces, err := src.synthesize(cfg.Thickness)
		if err != nil {
			return err
		}
		ad = &ApproachDescriptor{surfaces: faces}
	} else {
		if ad.Owned() {
			return ErrOwned
		}
		for i, f := range ad.surfaces {
			if err := src.checkFace(f, cfg.Thickness); err != nil {
				return fmt.Errorf("approach face %d: %w", i, err)
			}
		}
	}
	if cfg.SurfaceArray != nil && cfg.SurfaceArray.Claimed() {
		return surfacearray.ErrOwned
	}

	if err := ad.claim(owner); err != nil {
		return err
	}
	if cfg.SurfaceArray != nil {
		if err := cfg.SurfaceArray.Claim(); err != nil {
			ad.release()
			return err
		}
	}

	c.thickness = cfg.Thickness
	c.typ = cfg.Type
	c.array = cfg.SurfaceArray
	c.approach = ad
	return nil
}

// inherit copies the placement-independent state of src into a clone.
func (c *core) inherit(src *core) {
	c.material.Store(src.material.Load())
}

// Thickness returns the slab thickness along the normal.
func (c *core) Thickness() float64 { return c.thickness }

// Type returns the layer role.
func (c *core) Type() Type { return c.typ }

// SurfaceArray returns the sensitive surfaces, or nil.
func (c *core) SurfaceArray() *surfacearray.SurfaceArray { return c.array }

// ApproachDescriptor returns the entry and exit faces.
func (c *core) ApproachDescriptor() *ApproachDescriptor { return c.approach }

// Material returns the assigned material, if any.
func (c *core) Material() (Material, bool) {
	m := c.material.Load()
	if m == nil {
		return Material{}, false
	}
	return *m, true
}

// AssignMaterial attaches m. It succeeds at most once per layer.
func (c *core) AssignMaterial(m Material) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if !c.material.CompareAndSwap(nil, &m) {
		return ErrMaterialAssigned
	}
	return nil
}

// onPlanarSlab reports whether global lies within half the thickness of a
// flat surface and, projected onto it, within its bounds.
func onPlanarSlab(s surface.Surface, thickness float64, global v3.Vec, boundaryCheck bool) bool {
	n := s.Normal(v2.Vec{})
	d := n.Dot(global.Sub(s.Center()))
	if math.Abs(d) > thickness/2+geometry.Tolerance {
		return false
	}
	return s.IsOnSurface(global.Sub(n.MulScalar(d)), boundaryCheck)
}
