package subdiv

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestMeshAddVertexWelds(t *testing.T) {
	m := NewMesh()
	a := m.AddVertex(mgl64.Vec3{1, 2, 3})
	b := m.AddVertex(mgl64.Vec3{4, 5, 6})
	c := m.AddVertex(mgl64.Vec3{1, 2, 3 + 1e-12})
	if a == b {
		t.Fatal("distinct points were welded")
	}
	if a != c {
		t.Errorf("coincident point got index %d, want %d", c, a)
	}
	if m.NumVertices() != 2 {
		t.Errorf("NumVertices() = %d, want 2", m.NumVertices())
	}
}

func TestMeshAddFaceExtendsLayers(t *testing.T) {
	m := NewQuadMesh(1)
	m.AddMultires(1)
	e := m.AddVertex(mgl64.Vec3{2, 0, 0})
	f := m.AddFace(1, e, 2)
	if len(m.UVLayers[0].UVs[f]) != 3 {
		t.Errorf("uv layer has %d corners for the new face, want 3", len(m.UVLayers[0].UVs[f]))
	}
	if len(m.Disps) != 2 || len(m.Disps[f]) != 3 {
		t.Errorf("displacement grids not extended: %d faces", len(m.Disps))
	}
	if m.NumLoops() != 7 {
		t.Errorf("NumLoops() = %d, want 7", m.NumLoops())
	}
}

func TestMeshCreases(t *testing.T) {
	m := NewQuadMesh(1)
	m.SetEdgeCrease(1, 0, 2)
	if got := m.EdgeCreases[MakeEdge(0, 1)]; got != 1 {
		t.Errorf("crease = %f, want clamped to 1", got)
	}
	m.SetEdgeCrease(0, 1, 0)
	if _, found := m.EdgeCreases[MakeEdge(0, 1)]; found {
		t.Error("zero crease was kept")
	}
	m.SetVertexCrease(2, 0.5)
	if got := m.VertexCreases[2]; got != 0.5 {
		t.Errorf("vertex crease = %f", got)
	}
}

func TestMeshFaceNormalAndCenter(t *testing.T) {
	m := NewQuadMesh(2)
	if n := m.FaceNormal(0); !vecAlmostEqual(n, mgl64.Vec3{0, 0, 1}) {
		t.Errorf("FaceNormal() = %v", n)
	}
	if c := m.FaceCenter(0); !vecAlmostEqual(c, mgl64.Vec3{1, 1, 0}) {
		t.Errorf("FaceCenter() = %v", c)
	}
	cube := NewCubeMesh(2)
	for f := range cube.Faces {
		if cube.FaceNormal(f).Dot(cube.FaceCenter(f)) <= 0 {
			t.Errorf("cube face %d points inward", f)
		}
	}
}

func TestMeshCopyIsDeep(t *testing.T) {
	m := NewCubeMesh(1)
	m.SetEdgeCrease(0, 1, 1)
	m.AddMultires(1)
	c := m.Copy()

	c.Positions[0] = mgl64.Vec3{9, 9, 9}
	c.Faces[0][0] = 3
	c.UVLayers[0].UVs[0][0] = mgl64.Vec2{7, 7}
	c.Disps[0][0].Displacements[0] = mgl64.Vec3{1, 1, 1}
	c.SetEdgeCrease(0, 1, 0)

	if m.Positions[0] == c.Positions[0] || m.Faces[0][0] == 3 {
		t.Error("copy shares geometry")
	}
	if m.UVLayers[0].UVs[0][0] == (mgl64.Vec2{7, 7}) {
		t.Error("copy shares uvs")
	}
	if m.Disps[0][0].Displacements[0] != (mgl64.Vec3{}) {
		t.Error("copy shares displacement grids")
	}
	if m.EdgeCreases[MakeEdge(0, 1)] != 1 {
		t.Error("copy shares creases")
	}
	if i := c.AddVertex(c.Positions[1]); i != 1 {
		t.Errorf("copy lost its point index: got %d", i)
	}
}

func TestPrimitives(t *testing.T) {
	testCases := []struct {
		name         string
		mesh         *Mesh
		verts, faces int
		loops        int
	}{
		{"quad", NewQuadMesh(1), 4, 1, 4},
		{"pentagon", NewNGonMesh(5, 1), 5, 1, 5},
		{"cube", NewCubeMesh(1), 8, 6, 24},
		{"grid", NewGridMesh(3, 2, 1), 12, 6, 24},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.mesh.NumVertices() != tc.verts || tc.mesh.NumFaces() != tc.faces || tc.mesh.NumLoops() != tc.loops {
				t.Errorf("got %d verts, %d faces, %d loops", tc.mesh.NumVertices(), tc.mesh.NumFaces(), tc.mesh.NumLoops())
			}
			if len(tc.mesh.UVLayers) != 1 {
				t.Errorf("got %d uv layers, want 1", len(tc.mesh.UVLayers))
			}
			if _, err := NewTopologyRefiner(DefaultSettings(), NewMeshConverter(tc.mesh)); err != nil {
				t.Errorf("topology rejected: %v", err)
			}
		})
	}
}
