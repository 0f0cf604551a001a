package tessellate_test

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/detgeo/pkg/catalog"
	"github.com/chazu/detgeo/pkg/geometry"
	"github.com/chazu/detgeo/pkg/kernel"
	"github.com/chazu/detgeo/pkg/kernel/sdfx"
	"github.com/chazu/detgeo/pkg/layer"
	"github.com/chazu/detgeo/pkg/surface"
	"github.com/chazu/detgeo/pkg/surfacearray"
	"github.com/chazu/detgeo/pkg/tessellate"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// newKernel returns a coarse sdfx kernel for testing.
func newKernel() kernel.Kernel {
	return sdfx.New(sdfx.WithMeshCells(40))
}

func add(t *testing.T, c *catalog.Catalog, name string, l layer.Layer) {
	t.Helper()
	if _, err := c.Add(name, l, "", catalog.LayerID{}); err != nil {
		t.Fatalf("Add(%q): %v", name, err)
	}
}

func planeLayer(t *testing.T, at v3.Vec, hx, hy, thickness float64, array *surfacearray.SurfaceArray) *layer.PlaneLayer {
	t.Helper()
	b, err := surface.NewRectangleBounds(hx, hy)
	if err != nil {
		t.Fatal(err)
	}
	l, err := layer.NewPlaneLayer(geometry.Translation(at), b, layer.Config{Thickness: thickness, SurfaceArray: array})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

// assertExtent checks the mesh bounding box against an expected box.
// Marching cubes snaps to its grid, so tol should be a few cells wide.
func assertExtent(t *testing.T, m *kernel.Mesh, wantMin, wantMax [3]float64, tol float64) {
	t.Helper()
	min, max, ok := m.Bounds()
	if !ok {
		t.Fatal("mesh is empty")
	}
	for i := 0; i < 3; i++ {
		if math.Abs(float64(min[i])-wantMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected ~%f", i, min[i], wantMin[i])
		}
		if math.Abs(float64(max[i])-wantMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected ~%f", i, max[i], wantMax[i])
		}
	}
}

// ---------------------------------------------------------------------------
// Basics
// ---------------------------------------------------------------------------

func TestTessellateNilCatalog(t *testing.T) {
	meshes, err := tessellate.Tessellate(nil, newKernel(), tessellate.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meshes != nil {
		t.Errorf("expected nil meshes, got %d", len(meshes))
	}
}

func TestTessellateEmptyCatalog(t *testing.T) {
	meshes, err := tessellate.Tessellate(catalog.New(), newKernel(), tessellate.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(meshes))
	}
}

// ---------------------------------------------------------------------------
// Slabs
// ---------------------------------------------------------------------------

func TestPlaneSlab(t *testing.T) {
	c := catalog.New()
	add(t, c, "pixel", planeLayer(t, v3.Vec{Z: 100}, 10, 5, 2, nil))

	meshes, err := tessellate.Tessellate(c, newKernel(), tessellate.Options{})
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	m := meshes[0]
	if m.Layer != "pixel" || m.Role != kernel.RoleSlab {
		t.Errorf("mesh labelled %q/%q", m.Layer, m.Role)
	}
	assertExtent(t, m, [3]float64{-10, -5, 99}, [3]float64{10, 5, 101}, 1)
}

func TestZeroThicknessUsesMinimum(t *testing.T) {
	c := catalog.New()
	add(t, c, "nav", planeLayer(t, v3.Vec{}, 10, 10, 0, nil))

	meshes, err := tessellate.Tessellate(c, newKernel(), tessellate.Options{MinThickness: 2})
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	if meshes[0].IsEmpty() {
		t.Fatal("zero-thickness layer should render at the minimum thickness")
	}
}

func TestTrapezoidSlab(t *testing.T) {
	b, err := surface.NewTrapezoidBounds(5, 8, 20)
	if err != nil {
		t.Fatal(err)
	}
	l, err := layer.NewPlaneLayer(geometry.Identity(), b, layer.Config{Thickness: 2})
	if err != nil {
		t.Fatal(err)
	}
	c := catalog.New()
	add(t, c, "wedge", l)

	meshes, err := tessellate.Tessellate(c, newKernel(), tessellate.Options{})
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	assertExtent(t, meshes[0], [3]float64{-8, -20, -1}, [3]float64{8, 20, 1}, 1.5)
}

func TestDiscSlab(t *testing.T) {
	b, err := surface.NewRadialBounds(30, 120)
	if err != nil {
		t.Fatal(err)
	}
	l, err := layer.NewDiscLayer(geometry.Translation(v3.Vec{Z: 500}), b, layer.Config{Thickness: 4})
	if err != nil {
		t.Fatal(err)
	}
	s, err := tessellate.Solid(newKernel(), l, l.Thickness())
	if err != nil {
		t.Fatalf("Solid: %v", err)
	}
	min, max := s.BoundingBox()
	if math.Abs(max[0]-120) > 0.5 || math.Abs(min[2]-498) > 0.5 || math.Abs(max[2]-502) > 0.5 {
		t.Errorf("disc slab bounds %v..%v", min, max)
	}
}

func TestCylinderSlab(t *testing.T) {
	b, err := surface.NewCylinderBounds(50, 100)
	if err != nil {
		t.Fatal(err)
	}
	l, err := layer.NewCylinderLayer(geometry.Identity(), b, layer.Config{Thickness: 4})
	if err != nil {
		t.Fatal(err)
	}
	s, err := tessellate.Solid(newKernel(), l, l.Thickness())
	if err != nil {
		t.Fatalf("Solid: %v", err)
	}
	min, max := s.BoundingBox()
	if math.Abs(max[0]-52) > 0.5 || math.Abs(max[2]-100) > 0.5 || math.Abs(min[2]+100) > 0.5 {
		t.Errorf("tube bounds %v..%v", min, max)
	}
}

// ---------------------------------------------------------------------------
// Faces and modules
// ---------------------------------------------------------------------------

func TestApproachFacesAndModules(t *testing.T) {
	mb, err := surface.NewRectangleBounds(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	var modules []surface.Surface
	for _, x := range []float64{-5, 5} {
		s, err := surface.NewPlaneSurface(geometry.Translation(v3.Vec{X: x}), mb)
		if err != nil {
			t.Fatal(err)
		}
		modules = append(modules, s)
	}
	a, bAxis, err := surfacearray.AutoAxes(modules, surfacearray.BinX, 2, surfacearray.BinY, 1)
	if err != nil {
		t.Fatal(err)
	}
	sa, err := surfacearray.New(modules, a, bAxis)
	if err != nil {
		t.Fatal(err)
	}

	c := catalog.New()
	add(t, c, "pixel", planeLayer(t, v3.Vec{}, 10, 10, 2, sa))

	meshes, err := tessellate.Tessellate(c, newKernel(), tessellate.Options{MinThickness: 2, Approach: true, Modules: true})
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	roles := map[kernel.Role]int{}
	for _, m := range meshes {
		if m.Layer != "pixel" {
			t.Errorf("mesh labelled %q", m.Layer)
		}
		if m.IsEmpty() {
			t.Errorf("%s mesh is empty", m.Role)
		}
		roles[m.Role]++
	}
	if roles[kernel.RoleSlab] != 1 || roles[kernel.RoleApproach] != 2 || roles[kernel.RoleModule] != 2 {
		t.Errorf("roles = %v", roles)
	}
}

func TestSolidRejectsNonPositiveThickness(t *testing.T) {
	l := planeLayer(t, v3.Vec{}, 1, 1, 0, nil)
	if _, err := tessellate.Solid(newKernel(), l, 0); !errors.Is(err, kernel.ErrEmptySolid) {
		t.Errorf("err = %v, want ErrEmptySolid", err)
	}
}
