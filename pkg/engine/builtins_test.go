package engine

import (
	"strings"
	"testing"

	"github.com/chazu/detgeo/pkg/catalog"
	"github.com/chazu/detgeo/pkg/geometry"
	"github.com/chazu/detgeo/pkg/layer"
	"github.com/chazu/detgeo/pkg/surface"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"simple keyword", `(rect :half-x 10)`, `(rect "__kw_half-x" 10)`},
		{"multiple keywords", `(radial :r-min 1 :r-max 2)`, `(radial "__kw_r-min" 1 "__kw_r-max" 2)`},
		{"keyword in string preserved", `"thing with :keyword inside"`, `"thing with :keyword inside"`},
		{"escaped quote in string", `"a \" :b" :c`, `"a \" :b" "__kw_c"`},
		{"backtick string preserved", "`raw :kw`", "`raw :kw`"},
		{"assignment operator preserved", `(def x := 10)`, `(def x := 10)`},
		{"kebab-case identifier", `(plane-layer "a")`, `(plane_layer "a")`},
		{"minus operator preserved", `(- 10 5)`, `(- 10 5)`},
		{"negative number preserved", `(vec3 -1 0 0)`, `(vec3 -1 0 0)`},
		{"comment converted to // style", `;; comment with :keyword`, `// comment with :keyword`},
		{"single semicolon comment", `; simple comment`, `// simple comment`},
		{"keyword value", `:type :passive`, `"__kw_type" "__kw_passive"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func mustEval(t *testing.T, src string) *catalog.Catalog {
	t.Helper()
	res, err := NewEngine(Options{}).Evaluate(src)
	c, evalErrs := res.Catalog, res.Errors
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return c
}

func evalFails(t *testing.T, src, substr string) {
	t.Helper()
	res, err := NewEngine(Options{}).Evaluate(src)
	c, evalErrs := res.Catalog, res.Errors
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if c != nil {
		t.Errorf("expected nil catalog")
	}
	for _, e := range evalErrs {
		if strings.Contains(e.Message, substr) {
			return
		}
	}
	t.Errorf("expected eval error containing %q, got %v", substr, evalErrs)
}

func lookup(t *testing.T, c *catalog.Catalog, name string) *catalog.Entry {
	t.Helper()
	e := c.Lookup(name)
	if e == nil {
		t.Fatalf("no layer named %q", name)
	}
	return e
}

func near(a, b v3.Vec) bool {
	return geometry.NearlyEqualTol(a, b, 1e-9)
}

// ---------------------------------------------------------------------------
// Layers
// ---------------------------------------------------------------------------

func TestPlaneLayerAndShift(t *testing.T) {
	c := mustEval(t, `
(def si (material :name "Si" :x0 93.7 :l0 465.2 :density 2.329))
(plane-layer "pixel-0"
  :bounds (rect :half-x 10 :half-y 10)
  :thickness 2
  :material si
  :modules (list (module :bounds (rect :half-x 4 :half-y 4) :at (vec3 -5 0 0))
                 (module :bounds (rect :half-x 4 :half-y 4) :at (vec3 5 0 0))))
(shift (layer "pixel-0") :by (vec3 5 0 0) :as "pixel-1")
`)
	if c.Count() != 2 {
		t.Fatalf("expected 2 layers, got %d", c.Count())
	}

	p0 := lookup(t, c, "pixel-0")
	l0, ok := p0.Layer.(*layer.PlaneLayer)
	if !ok {
		t.Fatalf("expected *layer.PlaneLayer, got %T", p0.Layer)
	}
	if l0.Thickness() != 2 {
		t.Errorf("thickness = %g, want 2", l0.Thickness())
	}
	if sa := l0.SurfaceArray(); sa == nil || sa.Len() != 2 {
		t.Errorf("expected 2 sensitive surfaces, got %v", sa)
	}
	if m, ok := l0.Material(); !ok || m.Name != "Si" {
		t.Errorf("material = %v, %v", m, ok)
	}

	p1 := lookup(t, c, "pixel-1")
	if p1.Parent != p0.ID {
		t.Errorf("parent = %s, want %s", p1.Parent.Short(), p0.ID.Short())
	}
	ad := p1.Layer.ApproachDescriptor()
	if !near(p1.Layer.Center(), v3.Vec{X: 5}) {
		t.Errorf("center = %v", p1.Layer.Center())
	}
	if !near(ad.Outer().Center(), v3.Vec{X: 5, Z: 1}) || !near(ad.Inner().Center(), v3.Vec{X: 5, Z: -1}) {
		t.Errorf("faces at %v and %v", ad.Outer().Center(), ad.Inner().Center())
	}
	if p1.Layer.SurfaceArray() != nil {
		t.Error("shifted layer must not inherit the surface array")
	}
	if _, ok := p1.Layer.Material(); !ok {
		t.Error("shifted layer should carry the material")
	}
}

func TestDiscAndCylinderLayers(t *testing.T) {
	c := mustEval(t, `
(disc-layer "endcap" :bounds (radial :r-min 30 :r-max 120) :thickness 4
  :at (vec3 0 0 500) :type :navigation)
(cylinder-layer "barrel" :bounds (cylinder-bounds :radius 50 :half-z 400) :thickness 4
  :type :navigation)
`)
	endcap := lookup(t, c, "endcap").Layer
	if endcap.Kind() != surface.KindDisc {
		t.Errorf("endcap kind = %s", endcap.Kind())
	}
	if !near(endcap.ApproachDescriptor().Outer().Center(), v3.Vec{Z: 502}) {
		t.Errorf("endcap outer face at %v", endcap.ApproachDescriptor().Outer().Center())
	}

	barrel := lookup(t, c, "barrel").Layer
	if barrel.Kind() != surface.KindCylinder {
		t.Errorf("barrel kind = %s", barrel.Kind())
	}
	if barrel.Type() != layer.TypeNavigation {
		t.Errorf("barrel type = %s", barrel.Type())
	}
	outer, ok := barrel.ApproachDescriptor().Outer().(*surface.CylinderSurface)
	if !ok || outer.Radius() != 52 {
		t.Errorf("outer face = %v", barrel.ApproachDescriptor().Outer())
	}
}

func TestTrapezoidLayerWithRotation(t *testing.T) {
	c := mustEval(t, `
(plane-layer "wedge" :bounds (trapezoid :min-half-x 5 :max-half-x 8 :half-y 20)
  :thickness 1 :at (vec3 0 0 100) :rotate (vec3 90 0 0) :type :navigation)
`)
	l := lookup(t, c, "wedge").Layer
	n, err := surface.NormalAt(l)
	if err != nil {
		t.Fatal(err)
	}
	if !near(n, v3.Vec{Y: -1}) {
		t.Errorf("normal = %v, want (0,-1,0)", n)
	}
}

func TestVariableReference(t *testing.T) {
	c := mustEval(t, `
(def t 3)
(def b (rect :half-x 10 :half-y 10))
(plane-layer "a" :bounds b :thickness t :type :navigation)
(plane-layer "b" :bounds b :thickness t :at (vec3 0 0 50) :type :navigation)
`)
	a, b := lookup(t, c, "a").Layer, lookup(t, c, "b").Layer
	if a.Thickness() != 3 {
		t.Errorf("thickness = %g, want 3", a.Thickness())
	}
	if a.Bounds() != b.Bounds() {
		t.Error("layers built from one bounds value should share it")
	}
}

// ---------------------------------------------------------------------------
// Failures
// ---------------------------------------------------------------------------

func TestConstructionFailures(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		substr string
	}{
		{"missing bounds", `(plane-layer "a" :thickness 1)`, "missing :bounds"},
		{"negative thickness", `(plane-layer "a" :bounds (rect :half-x 1 :half-y 1) :thickness -1)`, "thickness"},
		{"bad rect", `(rect :half-x 0 :half-y 1)`, "half-x"},
		{"wrong bounds kind", `(disc-layer "a" :bounds (rect :half-x 1 :half-y 1))`, "must be radial"},
		{"too thick cylinder", `(cylinder-layer "a" :bounds (cylinder-bounds :radius 1 :half-z 5) :thickness 4)`, "inner face"},
		{"unknown type", `(plane-layer "a" :bounds (rect :half-x 1 :half-y 1) :type :sensitive)`, "invalid layer type"},
		{"unknown layer", `(shift (layer "nope") :by (vec3 1 0 0))`, "no layer named"},
		{"duplicate name", `(plane-layer "a" :bounds (rect :half-x 1 :half-y 1)) (plane-layer "a" :bounds (rect :half-x 1 :half-y 1))`, "duplicate layer name"},
		{"bad material", `(material :name "x" :x0 0 :l0 1)`, "x0"},
		{"circular module", `(module :bounds (radial :r-max 1))`, "rect or trapezoid"},
		{"vec3 arity", `(vec3 1 2)`, "exactly 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evalFails(t, tt.src, tt.substr)
		})
	}
}

func TestCoincidentLayersOnlyWarn(t *testing.T) {
	// The same layer claimed twice cannot happen through the DSL, so a
	// coincident pair only warns; the build still succeeds.
	res, err := NewEngine(Options{}).Evaluate(`
(plane-layer "a" :bounds (rect :half-x 1 :half-y 1) :type :navigation)
(plane-layer "b" :bounds (rect :half-x 1 :half-y 1) :type :navigation)
`)
	if err != nil || len(res.Errors) > 0 {
		t.Fatalf("err=%v evalErrs=%v", err, res.Errors)
	}
	if res.Catalog.Count() != 2 {
		t.Fatalf("expected 2 layers, got %d", res.Catalog.Count())
	}
	found := false
	for _, w := range res.Warnings {
		if w.ID == lookup(t, res.Catalog, "b").ID && strings.Contains(w.Message, "coincides with layer") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a coincidence warning on b, got %v", res.Warnings)
	}
}
