package engine

import (
	"fmt"
	"math"

	"github.com/chazu/detgeo/pkg/catalog"
	"github.com/chazu/detgeo/pkg/geometry"
	"github.com/chazu/detgeo/pkg/layer"
	"github.com/chazu/detgeo/pkg/surface"
	"github.com/chazu/detgeo/pkg/surfacearray"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/rs/zerolog"
)

// builder is the state shared by the builtins of one evaluation.
type builder struct {
	cat *catalog.Catalog
	log zerolog.Logger
}

// layerSpec holds the arguments common to all layer forms.
type layerSpec struct {
	name      string
	pa        kwArgs
	placement geometry.Transform
	cfg       layer.Config
	material  *layer.Material
	modules   []*sexpModule
	binsA     int
	binsB     int
}

func parseLayerSpec(form string, args []zygo.Sexp) (*layerSpec, error) {
	pa := parseArgs(args)
	if len(pa.positional) < 1 {
		return nil, fmt.Errorf("%s requires a name", form)
	}
	name, err := toString(pa.positional[0])
	if err != nil {
		return nil, fmt.Errorf("%s: name: %w", form, err)
	}
	spec := &layerSpec{name: name, pa: pa}

	if spec.placement, err = placement(pa); err != nil {
		return nil, fmt.Errorf("%s %q: %w", form, name, err)
	}
	if spec.cfg.Thickness, err = pa.float("thickness", 0); err != nil {
		return nil, fmt.Errorf("%s %q: thickness: %w", form, name, err)
	}
	if v, ok := pa.kw["type"]; ok {
		s, err := toKeywordString(v)
		if err != nil {
			return nil, fmt.Errorf("%s %q: type: %w", form, name, err)
		}
		if spec.cfg.Type, err = layer.ParseType(s); err != nil {
			return nil, fmt.Errorf("%s %q: %w", form, name, err)
		}
	}
	if v, ok := pa.kw["material"]; ok {
		m, err := toMaterial(v)
		if err != nil {
			return nil, fmt.Errorf("%s %q: material: %w", form, name, err)
		}
		spec.material = &m
	}
	if v, ok := pa.kw["modules"]; ok {
		items, err := sexpListToSlice(v)
		if err != nil {
			return nil, fmt.Errorf("%s %q: modules: %w", form, name, err)
		}
		for i, item := range items {
			m, err := toModule(item)
			if err != nil {
				return nil, fmt.Errorf("%s %q: module %d: %w", form, name, i, err)
			}
			spec.modules = append(spec.modules, m)
		}
	}
	def := int(math.Ceil(math.Sqrt(float64(len(spec.modules)))))
	spec.binsA, spec.binsB = def, def
	for kw, dst := range map[string]*int{"bins-a": &spec.binsA, "bins-b": &spec.binsB} {
		if v, ok := pa.kw[kw]; ok {
			n, err := toInt(v)
			if err != nil {
				return nil, fmt.Errorf("%s %q: %s: %w", form, name, kw, err)
			}
			*dst = n
		}
	}
	return spec, nil
}

// attachModules places the modules in the layer frame and bins them.
func (s *layerSpec) attachModules(va, vb surfacearray.BinValue) error {
	if len(s.modules) == 0 {
		return nil
	}
	surfaces := make([]surface.Surface, 0, len(s.modules))
	for i, m := range s.modules {
		ps, err := surface.NewPlaneSurface(s.placement.Compose(m.placement), m.bounds)
		if err != nil {
			return fmt.Errorf("module %d: %w", i, err)
		}
		surfaces = append(surfaces, ps)
	}
	a, b, err := surfacearray.AutoAxes(surfaces, va, s.binsA, vb, s.binsB)
	if err != nil {
		return err
	}
	sa, err := surfacearray.New(surfaces, a, b)
	if err != nil {
		return err
	}
	s.cfg.SurfaceArray = sa
	return nil
}

// register assigns material and adds l to the catalog.
func (b *builder) register(form string, s *layerSpec, l layer.Layer) (zygo.Sexp, error) {
	if s.material != nil {
		if err := l.AssignMaterial(*s.material); err != nil {
			return zygo.SexpNull, fmt.Errorf("%s %q: %w", form, s.name, err)
		}
	}
	e, err := b.cat.Add(s.name, l, fmt.Sprintf("(%s %q)", form, s.name), catalog.LayerID{})
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: %w", form, err)
	}
	b.log.Debug().
		Str("layer", s.name).
		Str("kind", l.Kind().String()).
		Str("type", l.Type().String()).
		Float64("thickness", l.Thickness()).
		Int("modules", len(s.modules)).
		Msg("layer built")
	return &sexpLayerRef{id: e.ID, name: s.name}, nil
}

// registerBuiltins installs the geometry DSL into env. Source must be
// preprocessed with preprocessSource first so keywords are recognizable.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var xyz [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			xyz[i] = f
		}
		return &sexpVec3{vec: v3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (rect :half-x 10 :half-y 10)
	// -----------------------------------------------------------------------
	env.AddFunction("rect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		hx, err := pa.requireFloat("half-x")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect: %w", err)
		}
		hy, err := pa.requireFloat("half-y")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect: %w", err)
		}
		bounds, err := surface.NewRectangleBounds(hx, hy)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect: %w", err)
		}
		return &sexpBounds{bounds: bounds}, nil
	})

	// -----------------------------------------------------------------------
	// (trapezoid :min-half-x 5 :max-half-x 8 :half-y 20)
	// -----------------------------------------------------------------------
	env.AddFunction("trapezoid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var v [3]float64
		for i, kw := range []string{"min-half-x", "max-half-x", "half-y"} {
			f, err := pa.requireFloat(kw)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("trapezoid: %w", err)
			}
			v[i] = f
		}
		bounds, err := surface.NewTrapezoidBounds(v[0], v[1], v[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("trapezoid: %w", err)
		}
		return &sexpBounds{bounds: bounds}, nil
	})

	// -----------------------------------------------------------------------
	// (radial :r-min 30 :r-max 120)
	// -----------------------------------------------------------------------
	env.AddFunction("radial", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		rMin, err := pa.float("r-min", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("radial: r-min: %w", err)
		}
		rMax, err := pa.requireFloat("r-max")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("radial: %w", err)
		}
		bounds, err := surface.NewRadialBounds(rMin, rMax)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("radial: %w", err)
		}
		return &sexpBounds{bounds: bounds}, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder-bounds :radius 50 :half-z 400)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder_bounds", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		r, err := pa.requireFloat("radius")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder-bounds: %w", err)
		}
		hz, err := pa.requireFloat("half-z")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder-bounds: %w", err)
		}
		bounds, err := surface.NewCylinderBounds(r, hz)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder-bounds: %w", err)
		}
		return &sexpBounds{bounds: bounds}, nil
	})

	// -----------------------------------------------------------------------
	// (material :name "Si" :x0 93.7 :l0 465.2 :density 2.329)
	// -----------------------------------------------------------------------
	env.AddFunction("material", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var m layer.Material
		if v, ok := pa.kw["name"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("material: name: %w", err)
			}
			m.Name = s
		}
		var err error
		if m.X0, err = pa.requireFloat("x0"); err != nil {
			return zygo.SexpNull, fmt.Errorf("material: %w", err)
		}
		if m.L0, err = pa.requireFloat("l0"); err != nil {
			return zygo.SexpNull, fmt.Errorf("material: %w", err)
		}
		if m.Density, err = pa.float("density", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("material: density: %w", err)
		}
		if err := m.Validate(); err != nil {
			return zygo.SexpNull, fmt.Errorf("material: %w", err)
		}
		return &sexpMaterial{mat: m}, nil
	})

	// -----------------------------------------------------------------------
	// (module :bounds (rect ...) :at (vec3 ...) :rotate (vec3 ...))
	// Placement is relative to the layer the module is attached to.
	// -----------------------------------------------------------------------
	env.AddFunction("module", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		v, ok := pa.kw["bounds"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("module: %w", errMissing("bounds"))
		}
		bounds, err := toBounds(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("module: bounds: %w", err)
		}
		pb, ok := bounds.(surface.PlanarBounds)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("module: bounds must be rect or trapezoid, got %s", bounds)
		}
		t, err := placement(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("module: %w", err)
		}
		return &sexpModule{bounds: pb, placement: t}, nil
	})

	// -----------------------------------------------------------------------
	// (plane-layer "name" :bounds (rect ...) :thickness 2 :at (vec3 ...)
	//              :rotate (vec3 ...) :type :active :material m
	//              :modules (list (module ...) ...) :bins-a 3 :bins-b 3)
	// -----------------------------------------------------------------------
	env.AddFunction("plane_layer", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		const form = "plane-layer"
		spec, err := parseLayerSpec(form, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		bounds, err := layerBounds(form, spec)
		if err != nil {
			return zygo.SexpNull, err
		}
		pb, ok := bounds.(surface.PlanarBounds)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("%s %q: bounds must be rect or trapezoid, got %s", form, spec.name, bounds)
		}
		if err := spec.attachModules(surfacearray.BinX, surfacearray.BinY); err != nil {
			return zygo.SexpNull, fmt.Errorf("%s %q: %w", form, spec.name, err)
		}
		l, err := layer.NewPlaneLayer(spec.placement, pb, spec.cfg)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s %q: %w", form, spec.name, err)
		}
		return b.register(form, spec, l)
	})

	// -----------------------------------------------------------------------
	// (disc-layer "name" :bounds (radial ...) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("disc_layer", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		const form = "disc-layer"
		spec, err := parseLayerSpec(form, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		bounds, err := layerBounds(form, spec)
		if err != nil {
			return zygo.SexpNull, err
		}
		rb, ok := bounds.(*surface.RadialBounds)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("%s %q: bounds must be radial, got %s", form, spec.name, bounds)
		}
		if err := spec.attachModules(surfacearray.BinR, surfacearray.BinPhi); err != nil {
			return zygo.SexpNull, fmt.Errorf("%s %q: %w", form, spec.name, err)
		}
		l, err := layer.NewDiscLayer(spec.placement, rb, spec.cfg)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s %q: %w", form, spec.name, err)
		}
		return b.register(form, spec, l)
	})

	// -----------------------------------------------------------------------
	// (cylinder-layer "name" :bounds (cylinder-bounds ...) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder_layer", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		const form = "cylinder-layer"
		spec, err := parseLayerSpec(form, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		bounds, err := layerBounds(form, spec)
		if err != nil {
			return zygo.SexpNull, err
		}
		cb, ok := bounds.(*surface.CylinderBounds)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("%s %q: bounds must be cylinder-bounds, got %s", form, spec.name, bounds)
		}
		if err := spec.attachModules(surfacearray.BinPhi, surfacearray.BinZ); err != nil {
			return zygo.SexpNull, fmt.Errorf("%s %q: %w", form, spec.name, err)
		}
		l, err := layer.NewCylinderLayer(spec.placement, cb, spec.cfg)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s %q: %w", form, spec.name, err)
		}
		return b.register(form, spec, l)
	})

	// -----------------------------------------------------------------------
	// (layer "name")
	// -----------------------------------------------------------------------
	env.AddFunction("layer", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("layer requires a name argument")
		}
		layerName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("layer: name: %w", err)
		}
		e := b.cat.Lookup(layerName)
		if e == nil {
			return zygo.SexpNull, fmt.Errorf("layer: no layer named %q", layerName)
		}
		return &sexpLayerRef{id: e.ID, name: layerName}, nil
	})

	// -----------------------------------------------------------------------
	// (shift (layer "pixel-0") :by (vec3 0 0 50) :rotate (vec3 0 0 0) :as "pixel-1")
	// -----------------------------------------------------------------------
	env.AddFunction("shift", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("shift requires a layer reference as first argument")
		}
		ref, err := toLayerRef(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("shift: %w", err)
		}
		src := b.cat.Get(ref.id)
		if src == nil {
			return zygo.SexpNull, fmt.Errorf("shift: layer %s is not in this build", ref.id.Short())
		}

		var by, rot v3.Vec
		if v, ok := pa.kw["by"]; ok {
			if by, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("shift: by: %w", err)
			}
		}
		if v, ok := pa.kw["rotate"]; ok {
			if rot, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("shift: rotate: %w", err)
			}
		}
		var as string
		if v, ok := pa.kw["as"]; ok {
			if as, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("shift: as: %w", err)
			}
		}

		clone, err := src.Layer.CloneWithShift(geometry.Placement(by, rot))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("shift %s: %w", ref.SexpString(nil), err)
		}
		e, err := b.cat.Add(as, clone, fmt.Sprintf("(shift %s)", ref.SexpString(nil)), src.ID)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("shift: %w", err)
		}
		b.log.Debug().Str("layer", as).Str("from", src.Name).Msg("layer shifted")
		return &sexpLayerRef{id: e.ID, name: as}, nil
	})
}

func layerBounds(form string, spec *layerSpec) (surface.Bounds, error) {
	v, ok := spec.pa.kw["bounds"]
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", form, spec.name, errMissing("bounds"))
	}
	bounds, err := toBounds(v)
	if err != nil {
		return nil, fmt.Errorf("%s %q: bounds: %w", form, spec.name, err)
	}
	return bounds, nil
}
