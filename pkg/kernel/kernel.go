// Package kernel defines the abstract solid kernel used to turn layer
// slabs into triangle meshes for inspection. Implementations provide
// primitives and boolean operations behind this interface so the
// tessellator never touches a concrete CAD library.
package kernel

import (
	"errors"

	"github.com/chazu/detgeo/pkg/geometry"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// ErrEmptySolid is returned when a primitive would enclose no volume.
var ErrEmptySolid = errors.New("solid encloses no volume")

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract solid kernel. All primitives are centred on the
// local origin; prisms and cylinders run along local z.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) (Solid, error)
	Prism(outline []v2.Vec, height float64) (Solid, error)
	Cylinder(height, radius float64) (Solid, error)

	// Boolean operations
	Difference(a, b Solid) Solid

	// Placement
	Transform(s Solid, t geometry.Transform) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
