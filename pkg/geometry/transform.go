package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrDegenerateTransform is returned when a placement is singular, not rigid
// or contains non-finite entries.
var ErrDegenerateTransform = errors.New("degenerate transform")

// Transform places a local frame in global space. It is a value type: every
// holder owns its own copy, so a transform can never be mutated behind the
// back of a layer that uses it.
type Transform struct {
	m sdf.M44
}

// Identity returns the identity placement.
func Identity() Transform {
	return Transform{m: sdf.Identity3d()}
}

// Translation returns a pure translation by v.
func Translation(v v3.Vec) Transform {
	return Transform{m: sdf.Translate3d(v)}
}

// Rotation returns a rotation by Euler angles (radians) applied X, then Y,
// then Z, matching the kernel's placement convention.
func Rotation(x, y, z float64) Transform {
	return Transform{m: sdf.RotateZ(z).Mul(sdf.RotateY(y)).Mul(sdf.RotateX(x))}
}

// RotationDegrees is Rotation with angles in degrees.
func RotationDegrees(x, y, z float64) Transform {
	return Rotation(x*math.Pi/180.0, y*math.Pi/180.0, z*math.Pi/180.0)
}

// FromMatrix wraps a matrix, rejecting any that is not a finite rigid
// placement.
func FromMatrix(m sdf.M44) (Transform, error) {
	t := Transform{m: m}
	if err := t.Validate(); err != nil {
		return Transform{}, err
	}
	return t, nil
}

// Placement builds a rotation (degrees) followed by a translation, the order
// used by the DSL's :rotate / :at keywords.
func Placement(at, rotateDeg v3.Vec) Transform {
	return Translation(at).Compose(RotationDegrees(rotateDeg.X, rotateDeg.Y, rotateDeg.Z))
}

// Matrix returns the underlying matrix.
func (t Transform) Matrix() sdf.M44 {
	return t.m
}

// Compose returns t ∘ inner: inner is applied first, then t.
func (t Transform) Compose(inner Transform) Transform {
	return Transform{m: t.m.Mul(inner.m)}
}

// Apply maps a local position to global space.
func (t Transform) Apply(p v3.Vec) v3.Vec {
	return t.m.MulPosition(p)
}

// ApplyDirection maps a local direction to global space (no translation).
func (t Transform) ApplyDirection(d v3.Vec) v3.Vec {
	return t.m.MulPosition(d).Sub(t.m.MulPosition(v3.Vec{}))
}

// TranslationPart returns the global position of the local origin.
func (t Transform) TranslationPart() v3.Vec {
	return t.m.MulPosition(v3.Vec{})
}

// Axis returns the unit vector of local axis i (0=x, 1=y, 2=z) in global space.
func (t Transform) Axis(i int) v3.Vec {
	var local v3.Vec
	switch i {
	case 0:
		local = UnitX
	case 1:
		local = UnitY
	default:
		local = UnitZ
	}
	return t.ApplyDirection(local).Normalize()
}

// Determinant returns the determinant of the placement matrix.
func (t Transform) Determinant() float64 {
	return t.m.Determinant()
}

// Validate returns ErrDegenerateTransform if t is singular, non-finite or
// has a linear part that is not orthonormal within OrthonormalTolerance.
// Surfaces rely on the image of local z being perpendicular to the image
// of the local xy plane, so scale and shear are rejected. Reflections are
// orthonormal and pass.
func (t Transform) Validate() error {
	for _, p := range []v3.Vec{{}, UnitX, UnitY, UnitZ} {
		if !IsFinite(t.Apply(p)) {
			return fmt.Errorf("%w: non-finite entries", ErrDegenerateTransform)
		}
	}
	det := t.Determinant()
	if !finite(det) || math.Abs(det) < DeterminantTolerance {
		return fmt.Errorf("%w: determinant %g", ErrDegenerateTransform, det)
	}

	cols := [3]v3.Vec{t.ApplyDirection(UnitX), t.ApplyDirection(UnitY), t.ApplyDirection(UnitZ)}
	for i, c := range cols {
		if n := c.Length(); math.Abs(n-1) > OrthonormalTolerance {
			return fmt.Errorf("%w: axis %d has length %g", ErrDegenerateTransform, i, n)
		}
		for j := i + 1; j < len(cols); j++ {
			if d := c.Dot(cols[j]); math.Abs(d) > OrthonormalTolerance {
				return fmt.Errorf("%w: axes %d and %d not perpendicular (dot %g)", ErrDegenerateTransform, i, j, d)
			}
		}
	}
	return nil
}

// Inverse returns the inverse placement.
func (t Transform) Inverse() (Transform, error) {
	if err := t.Validate(); err != nil {
		return Transform{}, err
	}
	return Transform{m: t.m.Inverse()}, nil
}

// Equal reports whether t and o map the origin and the unit axes to the same
// positions within tol.
func (t Transform) Equal(o Transform, tol float64) bool {
	for _, p := range []v3.Vec{{}, UnitX, UnitY, UnitZ} {
		if !NearlyEqualTol(t.Apply(p), o.Apply(p), tol) {
			return false
		}
	}
	return true
}

func (t Transform) String() string {
	c := t.TranslationPart()
	n := t.Axis(2)
	return fmt.Sprintf("Transform{at=(%.3f, %.3f, %.3f) z=(%.3f, %.3f, %.3f)}", c.X, c.Y, c.Z, n.X, n.Y, n.Z)
}
