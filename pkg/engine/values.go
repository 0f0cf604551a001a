package engine

import (
	"fmt"

	"github.com/chazu/detgeo/pkg/catalog"
	"github.com/chazu/detgeo/pkg/geometry"
	"github.com/chazu/detgeo/pkg/layer"
	"github.com/chazu/detgeo/pkg/surface"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values between builtins
// ---------------------------------------------------------------------------

type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpBounds wraps any bounds; the layer builtins check the concrete kind.
type sexpBounds struct {
	bounds surface.Bounds
}

func (b *sexpBounds) SexpString(ps *zygo.PrintState) string { return b.bounds.String() }
func (b *sexpBounds) Type() *zygo.RegisteredType            { return nil }

type sexpMaterial struct {
	mat layer.Material
}

func (m *sexpMaterial) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(material :name %q)", m.mat.Name)
}
func (m *sexpMaterial) Type() *zygo.RegisteredType { return nil }

// sexpModule is a sensitive module placed in its layer's local frame.
type sexpModule struct {
	bounds    surface.PlanarBounds
	placement geometry.Transform
}

func (m *sexpModule) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(module %s)", m.bounds)
}
func (m *sexpModule) Type() *zygo.RegisteredType { return nil }

// sexpLayerRef refers to a catalog entry.
type sexpLayerRef struct {
	id   catalog.LayerID
	name string
}

func (r *sexpLayerRef) SexpString(ps *zygo.PrintState) string {
	if r.name != "" {
		return fmt.Sprintf("(layer %q)", r.name)
	}
	return fmt.Sprintf("(layer %s)", r.id.Short())
}
func (r *sexpLayerRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func errMissing(kw string) error {
	return fmt.Errorf("missing :%s", kw)
}

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString accepts both :name and "name".
func toKeywordString(s zygo.Sexp) (string, error) {
	if name, ok := isKW(s); ok {
		return name, nil
	}
	str, err := toString(s)
	if err != nil {
		return "", fmt.Errorf("expected keyword or string: %w", err)
	}
	return str, nil
}

func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toBounds(s zygo.Sexp) (surface.Bounds, error) {
	if b, ok := s.(*sexpBounds); ok {
		return b.bounds, nil
	}
	return nil, fmt.Errorf("expected bounds, got %T (%s)", s, s.SexpString(nil))
}

func toMaterial(s zygo.Sexp) (layer.Material, error) {
	if m, ok := s.(*sexpMaterial); ok {
		return m.mat, nil
	}
	return layer.Material{}, fmt.Errorf("expected material, got %T (%s)", s, s.SexpString(nil))
}

func toModule(s zygo.Sexp) (*sexpModule, error) {
	if m, ok := s.(*sexpModule); ok {
		return m, nil
	}
	return nil, fmt.Errorf("expected module, got %T (%s)", s, s.SexpString(nil))
}

func toLayerRef(s zygo.Sexp) (*sexpLayerRef, error) {
	if r, ok := s.(*sexpLayerRef); ok {
		return r, nil
	}
	return nil, fmt.Errorf("expected layer reference, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a list or array to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// placement reads :at and :rotate (degrees) into a transform.
func placement(a kwArgs) (geometry.Transform, error) {
	var at, rot v3.Vec
	if v, ok := a.kw["at"]; ok {
		vec, err := toVec3(v)
		if err != nil {
			return geometry.Transform{}, fmt.Errorf("at: %w", err)
		}
		at = vec
	}
	if v, ok := a.kw["rotate"]; ok {
		vec, err := toVec3(v)
		if err != nil {
			return geometry.Transform{}, fmt.Errorf("rotate: %w", err)
		}
		rot = vec
	}
	return geometry.Placement(at, rot), nil
}
