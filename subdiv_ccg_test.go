package subdiv

import (
	"errors"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestToCCGLayout(t *testing.T) {
	m := quadWithTriangle()
	s := newTestSubdiv(t, DefaultSettings(), m)
	ccg, err := ToCCG(s, CCGSettings{Resolution: 3}, m)
	if err != nil {
		t.Fatalf("ToCCG() error = %v", err)
	}
	if ccg.NumGrids() != 7 {
		t.Fatalf("NumGrids() = %d, want 7", ccg.NumGrids())
	}
	if want := []int{0, 4, 7}; !slices.Equal(ccg.FaceGridOffsets, want) {
		t.Errorf("FaceGridOffsets = %v, want %v", ccg.FaceGridOffsets, want)
	}
	if want := []int{0, 0, 0, 0, 1, 1, 1}; !slices.Equal(ccg.GridToFace, want) {
		t.Errorf("GridToFace = %v, want %v", ccg.GridToFace, want)
	}
	for g, grid := range ccg.Grids {
		if len(grid) != 9 {
			t.Errorf("grid %d has %d elements", g, len(grid))
		}
	}
	if ccg.HasNormals || ccg.Element(0, 1, 1).No != (mgl64.Vec3{}) {
		t.Error("normals computed without NeedNormal")
	}
}

func TestToCCGGridsMeet(t *testing.T) {
	m := NewCubeMesh(1)
	s := newTestSubdiv(t, DefaultSettings(), m)
	ccg, err := ToCCG(s, CCGSettings{Resolution: 5, NeedNormal: true}, m)
	if err != nil {
		t.Fatalf("ToCCG() error = %v", err)
	}
	if ccg.NumGrids() != 24 {
		t.Fatalf("NumGrids() = %d, want 24", ccg.NumGrids())
	}
	for f := 0; f < 6; f++ {
		first := ccg.FaceGridOffsets[f]
		center := ccg.Element(first, 0, 0).Co
		for c := 0; c < 4; c++ {
			next := first + (c+1)%4
			if p := ccg.Element(first+c, 0, 0).Co; !vecAlmostEqual(p, center) {
				t.Errorf("face %d grid %d center %v != %v", f, c, p, center)
			}
			for x := 0; x < ccg.GridSize; x++ {
				a := ccg.Element(first+c, x, 0).Co
				b := ccg.Element(next, 0, x).Co
				if !vecAlmostEqual(a, b) {
					t.Errorf("face %d grids %d and %d differ at %d: %v != %v", f, c, (c+1)%4, x, a, b)
				}
			}
		}
	}
}

func TestToCCGNormals(t *testing.T) {
	m := NewCubeMesh(1)
	s := newTestSubdiv(t, DefaultSettings(), m)
	ccg, err := ToCCG(s, CCGSettings{Resolution: 4, NeedNormal: true}, m)
	if err != nil {
		t.Fatal(err)
	}
	for g, grid := range ccg.Grids {
		for i, e := range grid {
			if !almostEqual(e.No.Len(), 1) {
				t.Fatalf("grid %d element %d normal %v is not unit length", g, i, e.No)
			}
			if e.No.Dot(e.Co) <= 0 {
				t.Fatalf("grid %d element %d normal %v points inward at %v", g, i, e.No, e.Co)
			}
		}
	}
}

func TestToCCGNGonCenter(t *testing.T) {
	m := NewNGonMesh(5, 1)
	s := newTestSubdiv(t, DefaultSettings(), m)
	ccg, err := ToCCG(s, CCGSettings{Resolution: 3}, m)
	if err != nil {
		t.Fatal(err)
	}
	if ccg.NumGrids() != 5 {
		t.Fatalf("NumGrids() = %d, want 5", ccg.NumGrids())
	}
	for g := 0; g < 5; g++ {
		if p := ccg.Element(g, 0, 0).Co; !vecAlmostEqual(p, mgl64.Vec3{}) {
			t.Errorf("grid %d center = %v, want origin", g, p)
		}
	}
	// The corner element of each grid sits on its vertex's limit position,
	// which stays on the circle's ray.
	for g := 0; g < 5; g++ {
		corner := ccg.Element(g, 2, 2).Co
		vert := m.Positions[m.Faces[0][g]]
		if !almostEqual(corner[0]*vert[1], corner[1]*vert[0]) {
			t.Errorf("grid %d corner %v is off the ray through %v", g, corner, vert)
		}
	}
}

func TestToCCGSharedEdgesAgree(t *testing.T) {
	// Faces [0 1 4 3] and [1 2 5 4] share the edge 1-4. Only the second
	// face is displaced.
	m := NewGridMesh(2, 1, 1)
	m.AddMultires(1)
	fillDisps(m, func(face, _, _ int) mgl64.Vec3 {
		if face == 1 {
			return mgl64.Vec3{0, 0, 1}
		}
		return mgl64.Vec3{}
	})
	s := multiresSubdiv(t, m, 1)
	ccg, err := ToCCG(s, CCGSettings{Resolution: 3, NeedNormal: true}, m)
	if err != nil {
		t.Fatal(err)
	}
	left := ccg.FaceGridOffsets[0] + 1  // corner at vertex 1, next vertex 4
	right := ccg.FaceGridOffsets[1] + 0 // corner at vertex 1, previous vertex 4
	last := ccg.GridSize - 1

	a, b := ccg.Element(left, last, last), ccg.Element(right, last, last)
	if !vecAlmostEqual(a.Co, b.Co) || !almostEqual(a.Co[2], 0.5) {
		t.Errorf("vertex 1: %v and %v, want z = 0.5", a.Co, b.Co)
	}
	for i := 0; i < last; i++ {
		a, b := ccg.Element(left, last, i), ccg.Element(right, i, last)
		if !vecAlmostEqual(a.Co, b.Co) || !almostEqual(a.Co[2], 0.5) {
			t.Errorf("edge step %d: %v and %v, want z = 0.5", i, a.Co, b.Co)
		}
		if !vecAlmostEqual(a.No, b.No) || !almostEqual(a.No.Len(), 1) {
			t.Errorf("edge step %d normals %v and %v", i, a.No, b.No)
		}
	}
	if p := ccg.Element(right, 1, 1).Co; !almostEqual(p[2], 1) {
		t.Errorf("interior of the displaced face at %v, want z = 1", p)
	}
	if p := ccg.Element(left, 1, 1).Co; !almostEqual(p[2], 0) {
		t.Errorf("interior of the flat face at %v, want z = 0", p)
	}
}

func TestToCCGInvalidResolution(t *testing.T) {
	m := NewQuadMesh(1)
	s := newTestSubdiv(t, DefaultSettings(), m)
	if _, err := ToCCG(s, CCGSettings{Resolution: 1}, m); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("ToCCG() error = %v, want ErrInvalidSettings", err)
	}
}
