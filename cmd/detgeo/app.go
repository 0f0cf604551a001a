package main

import (
	"github.com/chazu/detgeo/pkg/catalog"
	"github.com/chazu/detgeo/pkg/config"
	"github.com/chazu/detgeo/pkg/engine"
	"github.com/chazu/detgeo/pkg/kernel"
	"github.com/chazu/detgeo/pkg/kernel/sdfx"
	"github.com/chazu/detgeo/pkg/layer"
	"github.com/chazu/detgeo/pkg/surface"
	"github.com/chazu/detgeo/pkg/tessellate"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/rs/zerolog"
)

// colorPalette is a default palette used to assign distinct colors to layers.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App evaluates geometry scripts and reports the layers they build.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
	mesh   tessellate.Options
	log    zerolog.Logger
}

// MeshOptions selects mesh output for one evaluation.
type MeshOptions struct {
	Enabled  bool
	Approach bool
	Modules  bool
}

// FaceData describes one approach face.
type FaceData struct {
	Kind   string     `json:"kind"`
	Center [3]float64 `json:"center"`
	Normal [3]float64 `json:"normal"`
	Radius float64    `json:"radius,omitempty"`
}

// MaterialData is the JSON form of a layer material.
type MaterialData struct {
	Name    string  `json:"name"`
	X0      float64 `json:"x0"`
	L0      float64 `json:"l0"`
	Density float64 `json:"density,omitempty"`
}

// LayerData summarises one catalog entry.
type LayerData struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Kind      string        `json:"kind"`
	Type      string        `json:"type"`
	Thickness float64       `json:"thickness"`
	Center    [3]float64    `json:"center"`
	Bounds    string        `json:"bounds"`
	Parent    string        `json:"parent,omitempty"`
	Shifts    []string      `json:"shifts,omitempty"`
	Material  *MaterialData `json:"material,omitempty"`
	Sensitive int           `json:"sensitive"`
	Approach  []FaceData    `json:"approach"`
}

// MeshData is the JSON-serializable mesh format.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Layer    string    `json:"layer"`
	Role     string    `json:"role"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result printed by the eval command.
type EvalResult struct {
	Layers   []LayerData     `json:"layers"`
	Meshes   []MeshData      `json:"meshes,omitempty"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// OK reports whether the script built without errors.
func (r EvalResult) OK() bool { return len(r.Errors) == 0 }

// NewApp creates an App from loaded settings.
func NewApp(s config.Settings, log zerolog.Logger) *App {
	return &App{
		engine: engine.NewEngine(engine.Options{Timeout: s.Engine.Timeout, Logger: &log}),
		kernel: sdfx.New(sdfx.WithMeshCells(s.Mesh.Cells)),
		mesh:   tessellate.Options{MinThickness: s.Mesh.MinThickness},
		log:    log,
	}
}

// Evaluate takes script source and returns the layer summary, optional
// meshes and any errors.
func (a *App) Evaluate(source string, mo MeshOptions) EvalResult {
	result := EvalResult{
		Layers:   []LayerData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the script into a layer catalog.
	res, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.log.Error().Err(err).Msg("evaluate fatal error")
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	// Step 2: Convert eval errors to the output format.
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	// Step 3: Summarise layers and carry advisory findings.
	c := res.Catalog
	for _, e := range c.Entries() {
		result.Layers = append(result.Layers, summarise(c, e))
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: warningText(c, w)})
	}

	if !mo.Enabled {
		return result
	}

	// Step 4: Tessellate the layers into triangle meshes.
	opts := a.mesh
	opts.Approach, opts.Modules = mo.Approach, mo.Modules
	meshes, err := tessellate.Tessellate(c, a.kernel, opts)
	if err != nil {
		a.log.Error().Err(err).Msg("tessellate error")
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}

	// Step 5: Colour meshes per layer so faces and modules match their slab.
	colors := map[string]string{}
	for _, m := range meshes {
		color, ok := colors[m.Layer]
		if !ok {
			color = colorPalette[len(colors)%len(colorPalette)]
			colors[m.Layer] = color
		}
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Layer:    m.Layer,
			Role:     string(m.Role),
			Color:    color,
		})
	}

	return result
}

func warningText(c *catalog.Catalog, w catalog.ValidationWarning) string {
	if e := c.Get(w.ID); e != nil && e.Name != "" {
		return "layer " + e.Name + ": " + w.Message
	}
	if w.ID.IsZero() {
		return w.Message
	}
	return "layer " + w.ID.Short() + ": " + w.Message
}

func summarise(c *catalog.Catalog, e *catalog.Entry) LayerData {
	l := e.Layer
	d := LayerData{
		ID:        e.ID.String(),
		Name:      e.Name,
		Kind:      l.Kind().String(),
		Type:      l.Type().String(),
		Thickness: l.Thickness(),
		Center:    vec(l.Center()),
		Bounds:    l.Bounds().String(),
		Approach:  []FaceData{},
	}
	if !e.Parent.IsZero() {
		d.Parent = e.Parent.String()
	}
	for _, s := range c.Shifted(e.ID) {
		d.Shifts = append(d.Shifts, s.ID.String())
	}
	if m, ok := l.Material(); ok {
		d.Material = materialData(m)
	}
	if sa := l.SurfaceArray(); sa != nil {
		d.Sensitive = sa.Len()
	}
	if ad := l.ApproachDescriptor(); ad != nil {
		for _, f := range ad.Surfaces() {
			d.Approach = append(d.Approach, faceData(f))
		}
	}
	return d
}

func materialData(m layer.Material) *MaterialData {
	return &MaterialData{Name: m.Name, X0: m.X0, L0: m.L0, Density: m.Density}
}

func faceData(s surface.Surface) FaceData {
	f := FaceData{Kind: s.Kind().String(), Center: vec(s.Center())}
	if n, err := surface.NormalAt(s); err == nil {
		f.Normal = vec(n)
	}
	if c, ok := s.(*surface.CylinderSurface); ok {
		f.Radius = c.Radius()
	}
	return f
}

func vec(v v3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
