package catalog

import (
	"fmt"
	"math"

	"github.com/chazu/detgeo/pkg/geometry"
	"github.com/chazu/detgeo/pkg/layer"
	"github.com/chazu/detgeo/pkg/surface"
)

// ---------------------------------------------------------------------------
// Tier 2 — Geometric validation (errors + warnings)
// ---------------------------------------------------------------------------

func validateGeometry(c *Catalog) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	errs = append(errs, validateApproachFaces(c)...)
	warnings = append(warnings, validateSensitiveContainment(c)...)
	warnings = append(warnings, validateCoincident(c)...)
	return errs, warnings
}

type radiusOf interface{ Radius() float64 }

// faceOffset returns the signed distance of face from the central surface of
// l: along the normal for flat layers, in radius for cylinders.
func faceOffset(l layer.Layer, face surface.Surface) (float64, error) {
	if l.Kind() == surface.KindCylinder {
		lr, ok1 := l.(radiusOf)
		fr, ok2 := face.(radiusOf)
		if !ok1 || !ok2 {
			return 0, fmt.Errorf("%s face on cylinder layer", face.Kind())
		}
		return fr.Radius() - lr.Radius(), nil
	}
	n, err := surface.NormalAt(l)
	if err != nil {
		return 0, err
	}
	return n.Dot(face.Center().Sub(l.Center())), nil
}

// validateApproachFaces checks that all faces lie within the slab and that
// the outer face is not below the inner one.
func validateApproachFaces(c *Catalog) []ValidationError {
	var errs []ValidationError
	for _, id := range c.order {
		l := c.entries[id].Layer
		ad := l.ApproachDescriptor()
		if ad == nil {
			errs = append(errs, ValidationError{ID: id, Message: "layer has no approach descriptor", Severity: SeverityError})
			continue
		}
		half := l.Thickness()/2 + geometry.Tolerance
		for i, f := range ad.Surfaces() {
			d, err := faceOffset(l, f)
			if err != nil {
				errs = append(errs, ValidationError{ID: id, Message: fmt.Sprintf("approach face %d: %v", i, err), Severity: SeverityError})
				continue
			}
			if math.Abs(d) > half {
				errs = append(errs, ValidationError{
					ID:       id,
					Message:  fmt.Sprintf("approach face %d is %.4f mm from the layer, beyond half thickness %.4f", i, d, l.Thickness()/2),
					Severity: SeverityError,
				})
			}
		}
		do, err1 := faceOffset(l, ad.Outer())
		di, err2 := faceOffset(l, ad.Inner())
		if err1 == nil && err2 == nil && do < di-geometry.Tolerance {
			errs = append(errs, ValidationError{
				ID:       id,
				Message:  fmt.Sprintf("outer approach face (%.4f) lies below inner face (%.4f)", do, di),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateSensitiveContainment warns about sensitive surfaces whose center
// is outside the layer slab.
func validateSensitiveContainment(c *Catalog) []ValidationWarning {
	var warnings []ValidationWarning
	for _, id := range c.order {
		l := c.entries[id].Layer
		sa := l.SurfaceArray()
		if sa == nil {
			continue
		}
		for i, s := range sa.Surfaces() {
			if !l.IsOnLayer(s.Center(), true) {
				warnings = append(warnings, ValidationWarning{
					ID:      id,
					Message: fmt.Sprintf("sensitive surface %d at %v lies outside the layer slab", i, s.Center()),
				})
			}
		}
	}
	return warnings
}

// validateCoincident warns about layers of the same kind sharing a placement.
func validateCoincident(c *Catalog) []ValidationWarning {
	var warnings []ValidationWarning
	for i, a := range c.order {
		la := c.entries[a].Layer
		for _, b := range c.order[i+1:] {
			lb := c.entries[b].Layer
			if la.Kind() == lb.Kind() && la.Transform().Equal(lb.Transform(), geometry.Tolerance) {
				warnings = append(warnings, ValidationWarning{
					ID:      b,
					Message: fmt.Sprintf("coincides with layer %s", a.Short()),
				})
			}
		}
	}
	return warnings
}

// ---------------------------------------------------------------------------
// Tier 3 — Role advisories (warnings only)
// ---------------------------------------------------------------------------

func validateRoles(c *Catalog) []ValidationWarning {
	var warnings []ValidationWarning
	for _, id := range c.order {
		l := c.entries[id].Layer
		_, hasMaterial := l.Material()
		switch l.Type() {
		case layer.TypeActive:
			if l.SurfaceArray() == nil {
				warnings = append(warnings, ValidationWarning{ID: id, Message: "active layer has no sensitive surfaces"})
			}
		case layer.TypePassive:
			if !hasMaterial {
				warnings = append(warnings, ValidationWarning{ID: id, Message: "passive layer has no material"})
			}
		case layer.TypeNavigation:
			if hasMaterial {
				warnings = append(warnings, ValidationWarning{ID: id, Message: "navigation layer carries material"})
			}
			if l.SurfaceArray() != nil {
				warnings = append(warnings, ValidationWarning{ID: id, Message: "navigation layer carries sensitive surfaces"})
			}
		}
	}
	return warnings
}
