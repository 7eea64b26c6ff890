package subdiv

import (
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

func TestToMeshCounts(t *testing.T) {
	testCases := []struct {
		name       string
		mesh       *Mesh
		resolution int
		verts      int
		faces      int
	}{
		{"quad", NewQuadMesh(1), 3, 9, 4},
		{"quad res 5", NewQuadMesh(1), 5, 25, 16},
		{"cube", NewCubeMesh(1), 3, 26, 24},
		{"pentagon", NewNGonMesh(5, 1), 3, 11, 5},
		{"quad and triangle", quadWithTriangle(), 3, 9 + 4, 4 + 3},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSubdiv(t, DefaultSettings(), tc.mesh)
			out, err := ToMesh(s, ToMeshSettings{Resolution: tc.resolution}, tc.mesh)
			if err != nil {
				t.Fatalf("ToMesh() error = %v", err)
			}
			if out.NumVertices() != tc.verts || out.NumFaces() != tc.faces {
				t.Errorf("got %d vertices and %d faces, want %d and %d",
					out.NumVertices(), out.NumFaces(), tc.verts, tc.faces)
			}
			if len(out.UVLayers) != 1 || out.UVLayers[0].Name != "UVMap" {
				t.Errorf("uv layers = %d", len(out.UVLayers))
			}
			if _, err := NewTopologyRefiner(DefaultSettings(), NewMeshConverter(out)); err != nil {
				t.Errorf("tessellation is not a valid mesh: %v", err)
			}
		})
	}
}

func TestToMeshLinearQuadUVs(t *testing.T) {
	m := NewQuadMesh(1)
	settings := withLevel(2)
	settings.IsSimple = true
	s := newTestSubdiv(t, settings, m)
	out, err := ToMesh(s, ToMeshSettings{Resolution: 4}, m)
	if err != nil {
		t.Fatal(err)
	}
	for f, loop := range out.Faces {
		for k, v := range loop {
			p := out.Positions[v]
			uv := out.UVLayers[0].UVs[f][k]
			if !almostEqual(p[0], uv[0]) || !almostEqual(p[1], uv[1]) {
				t.Fatalf("face %d corner %d: position %v, uv %v", f, k, p, uv)
			}
		}
	}
}

func TestToMeshDisplacement(t *testing.T) {
	m := NewQuadMesh(1)
	m.AddMultires(1)
	fillDisps(m, func(int, int, int) mgl64.Vec3 { return mgl64.Vec3{0, 0, 0.1} })
	s := multiresSubdiv(t, m, 1)
	out, err := ToMesh(s, ToMeshSettings{Resolution: 5}, m)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range out.Positions {
		if !almostEqual(p[2], 0.1) {
			t.Fatalf("vertex %d at %v, want z = 0.1", i, p)
		}
	}
}

func TestToMeshStats(t *testing.T) {
	m := NewCubeMesh(1)
	s := newTestSubdiv(t, DefaultSettings(), m)
	s.stats.now = (&fakeClock{t: time.Unix(0, 0), step: time.Second}).now
	if _, err := ToMesh(s, ToMeshSettings{Resolution: 3}, m); err != nil {
		t.Fatal(err)
	}
	stats := s.Stats()
	if stats.SubdivToMeshGeometryTime() <= 0 {
		t.Errorf("geometry time = %v", stats.SubdivToMeshGeometryTime())
	}
	if stats.SubdivToMeshTime() <= stats.SubdivToMeshGeometryTime() {
		t.Errorf("mesh time %v does not contain geometry time %v",
			stats.SubdivToMeshTime(), stats.SubdivToMeshGeometryTime())
	}
	if stats.EvaluatorCreationTime() <= 0 || stats.EvaluatorRefineTime() <= 0 {
		t.Errorf("evaluator times = %v, %v", stats.EvaluatorCreationTime(), stats.EvaluatorRefineTime())
	}
}

func TestToMeshInvalidResolution(t *testing.T) {
	m := NewQuadMesh(1)
	s := newTestSubdiv(t, DefaultSettings(), m)
	if _, err := ToMesh(s, ToMeshSettings{Resolution: 1}, m); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("ToMesh() error = %v, want ErrInvalidSettings", err)
	}
	if _, err := ToMesh(s, ToMeshSettings{Resolution: 3}, NewCubeMesh(1)); !errors.Is(err, ErrVertexCountMismatch) {
		t.Errorf("ToMesh() with another mesh error = %v, want ErrVertexCountMismatch", err)
	}
}
