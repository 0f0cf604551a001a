// Package tessellate walks a layer catalog and produces triangle meshes
// using a geometry kernel. Each layer yields one slab mesh, optionally
// followed by meshes for its approach faces and sensitive modules.
package tessellate

import (
	"fmt"

	"github.com/chazu/detgeo/pkg/catalog"
	"github.com/chazu/detgeo/pkg/kernel"
	"github.com/chazu/detgeo/pkg/surface"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// DefaultMinThickness is the rendered thickness in mm of zero-thickness
// layers and of bare surfaces.
const DefaultMinThickness = 1.0

// Options selects what is meshed.
type Options struct {
	// MinThickness is the lower bound on rendered slab thickness.
	MinThickness float64
	// Approach adds one thin mesh per approach face.
	Approach bool
	// Modules adds one thin mesh per sensitive surface.
	Modules bool
}

func (o Options) minThickness() float64 {
	if o.MinThickness > 0 {
		return o.MinThickness
	}
	return DefaultMinThickness
}

// Tessellate produces meshes for every layer in catalog order. The
// tessellator is read-only and never mutates the catalog.
func Tessellate(c *catalog.Catalog, k kernel.Kernel, opts Options) ([]*kernel.Mesh, error) {
	if c == nil {
		return nil, nil
	}

	var meshes []*kernel.Mesh
	for _, e := range c.Entries() {
		collected, err := meshEntry(k, e, opts)
		if err != nil {
			return nil, fmt.Errorf("tessellate: layer %s: %w", label(e), err)
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}

func label(e *catalog.Entry) string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID.Short()
}

// meshEntry meshes one layer and, as requested, its faces and modules.
func meshEntry(k kernel.Kernel, e *catalog.Entry, opts Options) ([]*kernel.Mesh, error) {
	minT := opts.minThickness()
	name := label(e)

	thickness := e.Layer.Thickness()
	if thickness < minT {
		thickness = minT
	}
	slab, err := meshSurface(k, e.Layer.SurfaceRepresentation(), thickness)
	if err != nil {
		return nil, fmt.Errorf("slab: %w", err)
	}
	slab.Layer, slab.Role = name, kernel.RoleSlab
	meshes := []*kernel.Mesh{slab}

	if opts.Approach {
		if ad := e.Layer.ApproachDescriptor(); ad != nil {
			for i, f := range ad.Surfaces() {
				m, err := meshSurface(k, f, minT)
				if err != nil {
					return nil, fmt.Errorf("approach face %d: %w", i, err)
				}
				m.Layer, m.Role = name, kernel.RoleApproach
				meshes = append(meshes, m)
			}
		}
	}

	if opts.Modules {
		if sa := e.Layer.SurfaceArray(); sa != nil {
			for i, s := range sa.Surfaces() {
				m, err := meshSurface(k, s, minT)
				if err != nil {
					return nil, fmt.Errorf("module %d: %w", i, err)
				}
				m.Layer, m.Role = name, kernel.RoleModule
				meshes = append(meshes, m)
			}
		}
	}
	return meshes, nil
}

func meshSurface(k kernel.Kernel, s surface.Surface, thickness float64) (*kernel.Mesh, error) {
	solid, err := Solid(k, s, thickness)
	if err != nil {
		return nil, err
	}
	return k.ToMesh(solid)
}

// Bounds accessors shared by bare surfaces and the layers embedding them.
type (
	planar  interface{ PlanarBounds() surface.PlanarBounds }
	radial  interface{ RadialBounds() *surface.RadialBounds }
	tubular interface{ CylinderBounds() *surface.CylinderBounds }
)

// Solid builds the slab of a surface thickened symmetrically by
// thickness, placed with the surface transform. Planes and discs thicken
// along their normal; cylinders thicken radially.
func Solid(k kernel.Kernel, s surface.Surface, thickness float64) (kernel.Solid, error) {
	var (
		solid kernel.Solid
		err   error
	)
	switch sf := s.(type) {
	case planar:
		solid, err = planarSlab(k, sf.PlanarBounds(), thickness)
	case radial:
		b := sf.RadialBounds()
		solid, err = annulus(k, b.RMin(), b.RMax(), thickness)
	case tubular:
		b := sf.CylinderBounds()
		solid, err = annulus(k, b.Radius()-thickness/2, b.Radius()+thickness/2, 2*b.HalfZ())
	default:
		return nil, fmt.Errorf("unsupported surface %T", s)
	}
	if err != nil {
		return nil, err
	}
	return k.Transform(solid, s.Transform()), nil
}

// planarSlab uses a box for rectangles and a prism for any other outline.
func planarSlab(k kernel.Kernel, b surface.PlanarBounds, thickness float64) (kernel.Solid, error) {
	switch pb := b.(type) {
	case *surface.RectangleBounds:
		return k.Box(2*pb.HalfX(), 2*pb.HalfY(), thickness)
	case interface{ Vertices() []v2.Vec }:
		return k.Prism(pb.Vertices(), thickness)
	default:
		return nil, fmt.Errorf("bounds %T have no outline", b)
	}
}

// annulus is a z-aligned tube; rMin <= 0 gives a full cylinder.
func annulus(k kernel.Kernel, rMin, rMax, height float64) (kernel.Solid, error) {
	outer, err := k.Cylinder(height, rMax)
	if err != nil {
		return nil, err
	}
	if rMin <= 0 {
		return outer, nil
	}
	// The bore is taller than the tube so its caps never coincide.
	bore, err := k.Cylinder(2*height, rMin)
	if err != nil {
		return nil, err
	}
	return k.Difference(outer, bore), nil
}
