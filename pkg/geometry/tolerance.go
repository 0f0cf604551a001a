package geometry

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

const (
	// Tolerance is the distance (mm) under which two positions are considered
	// coincident. Zero-thickness approach faces are compared against it.
	Tolerance = 1e-9

	// DeterminantTolerance is the smallest |det| accepted for a placement.
	// A rigid transform has |det| == 1, so anything this close to zero is
	// singular for every practical detector geometry.
	DeterminantTolerance = 1e-12

	// OrthonormalTolerance bounds how far the placement axes may stray from
	// unit length and mutual perpendicularity. Composed trig rotations stay
	// many orders of magnitude inside it.
	OrthonormalTolerance = 1e-9
)

// UnitX, UnitY and UnitZ are the local frame axes.
var (
	UnitX = v3.Vec{X: 1}
	UnitY = v3.Vec{Y: 1}
	UnitZ = v3.Vec{Z: 1}
)

// NearlyEqual reports whether a and b are within Tolerance of each other.
func NearlyEqual(a, b v3.Vec) bool {
	return a.Sub(b).Length() <= Tolerance
}

// NearlyEqualTol is NearlyEqual with an explicit tolerance.
func NearlyEqualTol(a, b v3.Vec, tol float64) bool {
	return a.Sub(b).Length() <= tol
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v v3.Vec) bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
