package catalog

import (
	"fmt"

	"github.com/chazu/detgeo/pkg/layer"
	"github.com/chazu/detgeo/pkg/surfacearray"
)

// ValidationSeverity indicates whether a finding blocks the build or is
// merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks the build
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	ID       LayerID // zero if catalog-level
	Message  string
	Severity ValidationSeverity
}

func (e ValidationError) Error() string {
	if e.ID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] layer %s: %s", e.Severity, e.ID.Short(), e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	ID      LayerID
	Message string
}

// ValidationResult bundles errors and warnings from all tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs the Tier 1 structural checks. An empty slice means the
// catalog is consistent. It never mutates the catalog.
func Validate(c *Catalog) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateNames(c)...)
	errs = append(errs, validateParents(c)...)
	errs = append(errs, validateOwnership(c)...)
	return errs
}

// ValidateAll runs all tiers (structural, geometric, advisory).
func ValidateAll(c *Catalog) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(c) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{ID: e.ID, Message: e.Message})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}

	geomErrs, geomWarnings := validateGeometry(c)
	result.Errors = append(result.Errors, geomErrs...)
	result.Warnings = append(result.Warnings, geomWarnings...)
	result.Warnings = append(result.Warnings, validateRoles(c)...)
	return result
}

// validateNames checks that every name index entry points to an existing
// entry carrying that name.
func validateNames(c *Catalog) []ValidationError {
	var errs []ValidationError
	for name, id := range c.names {
		e, ok := c.entries[id]
		if !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references non-existent layer %s", name, id.Short()),
				Severity: SeverityError,
			})
			continue
		}
		if e.Name != name {
			errs = append(errs, ValidationError{
				ID:       id,
				Message:  fmt.Sprintf("name index entry %q points at layer named %q", name, e.Name),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateParents checks that shift parents exist.
func validateParents(c *Catalog) []ValidationError {
	var errs []ValidationError
	for _, id := range c.order {
		e := c.entries[id]
		if e.Parent.IsZero() {
			continue
		}
		if _, ok := c.entries[e.Parent]; !ok {
			errs = append(errs, ValidationError{
				ID:       id,
				Message:  fmt.Sprintf("parent layer %s does not exist", e.Parent.Short()),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateOwnership checks that each approach descriptor points back at its
// layer and that no surface array or descriptor is reachable from two
// entries.
func validateOwnership(c *Catalog) []ValidationError {
	var errs []ValidationError
	arrays := make(map[*surfacearray.SurfaceArray]LayerID)
	descriptors := make(map[*layer.ApproachDescriptor]LayerID)

	for _, id := range c.order {
		l := c.entries[id].Layer
		if ad := l.ApproachDescriptor(); ad != nil {
			if ad.Layer() != l {
				errs = append(errs, ValidationError{
					ID:       id,
					Message:  "approach descriptor is owned by another layer",
					Severity: SeverityError,
				})
			}
			if first, ok := descriptors[ad]; ok {
				errs = append(errs, ValidationError{
					ID:       id,
					Message:  fmt.Sprintf("approach descriptor shared with layer %s", first.Short()),
					Severity: SeverityError,
				})
			} else {
				descriptors[ad] = id
			}
		}
		if sa := l.SurfaceArray(); sa != nil {
			if first, ok := arrays[sa]; ok {
				errs = append(errs, ValidationError{
					ID:       id,
					Message:  fmt.Sprintf("surface array shared with layer %s", first.Short()),
					Severity: SeverityError,
				})
			} else {
				arrays[sa] = id
			}
		}
	}
	return errs
}
