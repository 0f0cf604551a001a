package layer

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/chazu/detgeo/pkg/geometry"
	"github.com/chazu/detgeo/pkg/surface"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ApproachDescriptor holds the faces bounding a layer slab. Index 0 is the
// outer face (positive normal side), the last index is the inner face.
type ApproachDescriptor struct {
	surfaces []surface.Surface
	owner    atomic.Pointer[ownerRef]
}

type ownerRef struct{ layer Layer }

// NewApproachDescriptor builds an unowned descriptor from explicit faces,
// outer first. The faces are checked against the layer it is attached to.
func NewApproachDescriptor(faces ...surface.Surface) (*ApproachDescriptor, error) {
	if len(faces) == 0 {
		return nil, fmt.Errorf("%w: approach descriptor needs at least one face", surface.ErrGeometry)
	}
	out := make([]surface.Surface, len(faces))
	for i, f := range faces {
		if f == nil {
			return nil, fmt.Errorf("%w: approach face %d is nil", surface.ErrGeometry, i)
		}
		out[i] = f
	}
	return &ApproachDescriptor{surfaces: out}, nil
}

// Surfaces returns the faces, outer first. The slice is a copy.
func (ad *ApproachDescriptor) Surfaces() []surface.Surface {
	out := make([]surface.Surface, len(ad.surfaces))
	copy(out, ad.surfaces)
	return out
}

// Outer returns the face on the positive normal side.
func (ad *ApproachDescriptor) Outer() surface.Surface { return ad.surfaces[0] }

// Inner returns the face on the negative normal side.
func (ad *ApproachDescriptor) Inner() surface.Surface { return ad.surfaces[len(ad.surfaces)-1] }

// Contains reports whether s is one of the faces.
func (ad *ApproachDescriptor) Contains(s surface.Surface) bool {
	for _, f := range ad.surfaces {
		if f == s {
			return true
		}
	}
	return false
}

// Layer returns the owning layer, or nil for an unattached descriptor.
func (ad *ApproachDescriptor) Layer() Layer {
	if r := ad.owner.Load(); r != nil {
		return r.layer
	}
	return nil
}

// Owned reports whether a layer has claimed the descriptor.
func (ad *ApproachDescriptor) Owned() bool {
	return ad.owner.Load() != nil
}

func (ad *ApproachDescriptor) claim(l Layer) error {
	if !ad.owner.CompareAndSwap(nil, &ownerRef{layer: l}) {
		return ErrOwned
	}
	return nil
}

func (ad *ApproachDescriptor) release() {
	ad.owner.Store(nil)
}

// Traverse returns the face a straight line starting at position enters the
// slab through and the face it leaves through. The face crossed first along
// direction is the entry. When both faces are crossed at the same path
// length (zero thickness) or a face is missed, a line moving against the
// outer normal enters through the outer face and any other line through the
// inner face.
func (ad *ApproachDescriptor) Traverse(position, direction v3.Vec) (entry, exit surface.Surface) {
	outer, inner := ad.Outer(), ad.Inner()
	if outer == inner {
		return outer, inner
	}
	so := outer.Intersect(position, direction, false)
	si := inner.Intersect(position, direction, false)
	if so.Valid && si.Valid && math.Abs(so.PathLength-si.PathLength) > geometry.Tolerance {
		if so.PathLength < si.PathLength {
			return outer, inner
		}
		return inner, outer
	}

	local, _ := outer.GlobalToLocal(position)
	if direction.Dot(outer.Normal(local)) > 0 {
		return inner, outer
	}
	return outer, inner
}

// ApproachSurface returns the face closest along direction, at or after
// position, whose bounds contain the hit.
func (ad *ApproachDescriptor) ApproachSurface(position, direction v3.Vec) (surface.Surface, surface.Intersection, bool) {
	var (
		best    surface.Surface
		bestHit surface.Intersection
	)
	for _, f := range ad.surfaces {
		hit := f.Intersect(position, direction, true)
		if !hit.Valid || hit.PathLength < -geometry.Tolerance {
			continue
		}
		if best == nil || hit.PathLength < bestHit.PathLength {
			best, bestHit = f, hit
		}
	}
	return best, bestHit, best != nil
}

func (ad *ApproachDescriptor) String() string {
	return fmt.Sprintf("ApproachDescriptor{%d faces}", len(ad.surfaces))
}

// ---------------------------------------------------------------------------
// Face checks shared by the flat layer kinds
// ---------------------------------------------------------------------------

// checkFlatFace verifies that face is parallel to the central surface and
// offset from it by at most half the thickness.
func checkFlatFace(central, face surface.Surface, thickness float64) error {
	if face.Kind() != central.Kind() {
		return fmt.Errorf("%w: %s face on %s layer", ErrInconsistentApproach, face.Kind(), central.Kind())
	}
	n, err := surface.NormalAt(central)
	if err != nil {
		return err
	}
	fn, err := surface.NormalAt(face)
	if err != nil {
		return err
	}
	if math.Abs(math.Abs(n.Dot(fn))-1) > parallelTolerance {
		return fmt.Errorf("%w: face is not parallel to the layer", ErrInconsistentApproach)
	}
	if d := math.Abs(n.Dot(face.Center().Sub(central.Center()))); d > thickness/2+geometry.Tolerance {
		return fmt.Errorf("%w: face offset %g exceeds half thickness %g", ErrInconsistentApproach, d, thickness/2)
	}
	return nil
}

// parallelTolerance bounds 1-|cos| between normals considered parallel.
const parallelTolerance = 1e-9

// offsetFaces returns the central surface shifted by +t/2 and -t/2 along its
// normal, built by mk.
func offsetFaces(central surface.Surface, thickness float64, mk func(geometry.Transform) (surface.Surface, error)) ([]surface.Surface, error) {
	n, err := surface.NormalAt(central)
	if err != nil {
		return nil, err
	}
	faces := make([]surface.Surface, 0, 2)
	for _, sign := range []float64{1, -1} {
		shift := geometry.Translation(n.MulScalar(sign * thickness / 2))
		f, err := mk(shift.Compose(central.Transform()))
		if err != nil {
			return nil, fmt.Errorf("%w: approach face: %v", surface.ErrGeometry, err)
		}
		faces = append(faces, f)
	}
	return faces, nil
}
