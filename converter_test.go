package subdiv

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestMeshConverterWeldsUVs(t *testing.T) {
	testCases := []struct {
		name     string
		mesh     *Mesh
		numUVs   int
		numEdges int
	}{
		{"quad", NewQuadMesh(1), 4, 0},
		{"continuous grid", NewGridMesh(2, 2, 1), 9, 0},
		// Every cube face maps to the full UV square; only a few corners
		// happen to land on the same UV as a neighbour.
		{"cube", NewCubeMesh(1), 20, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conv := NewMeshConverter(tc.mesh)
			if conv.NumUVLayers() != 1 {
				t.Fatalf("NumUVLayers() = %d", conv.NumUVLayers())
			}
			if got := conv.NumUVCoordinates(0); got != tc.numUVs {
				t.Errorf("NumUVCoordinates() = %d, want %d", got, tc.numUVs)
			}
			if got := conv.NumEdges(); got != tc.numEdges {
				t.Errorf("NumEdges() = %d, want %d", got, tc.numEdges)
			}
		})
	}
}

func TestMeshConverterSharedUVIndex(t *testing.T) {
	m := NewGridMesh(2, 1, 2)
	conv := NewMeshConverter(m)
	// Corner 1 of face 0 and corner 0 of face 1 are the same vertex with
	// the same UV.
	if a, b := conv.FaceCornerUVIndex(0, 0, 1), conv.FaceCornerUVIndex(0, 1, 0); a != b {
		t.Errorf("shared corner got uv indices %d and %d", a, b)
	}
	values := conv.(*meshConverter).uvValues(0)
	uv := values[conv.FaceCornerUVIndex(0, 1, 2)]
	if !almostEqual(uv[0], 1) || !almostEqual(uv[1], 1) {
		t.Errorf("uv of face 1 corner 2 = %v, want (1, 1)", uv)
	}
}

func TestMeshConverterSharpness(t *testing.T) {
	m := NewCubeMesh(1)
	m.SetEdgeCrease(1, 0, 1)
	m.SetEdgeCrease(5, 6, 0.5)
	m.SetVertexCrease(3, 1)
	conv := NewMeshConverter(m)
	if conv.NumEdges() != 2 {
		t.Fatalf("NumEdges() = %d, want 2", conv.NumEdges())
	}
	if a, b := conv.EdgeVertices(0); a != 0 || b != 1 {
		t.Errorf("EdgeVertices(0) = %d, %d", a, b)
	}
	if got := conv.EdgeSharpness(0); !almostEqual(got, 10) {
		t.Errorf("EdgeSharpness(0) = %f, want 10", got)
	}
	if got := conv.EdgeSharpness(1); !almostEqual(got, 2.5) {
		t.Errorf("EdgeSharpness(1) = %f, want 2.5", got)
	}
	if got := conv.VertexSharpness(3); !almostEqual(got, 10) {
		t.Errorf("VertexSharpness(3) = %f", got)
	}
	if got := conv.VertexSharpness(4); got != 0 {
		t.Errorf("VertexSharpness(4) = %f", got)
	}
}

func rawMesh(numVerts int, faces ...[]int) *Mesh {
	m := NewMesh()
	for i := 0; i < numVerts; i++ {
		m.Positions = append(m.Positions, mgl64.Vec3{float64(i), float64(i * i), 0})
	}
	m.pointIndex = nil
	for _, f := range faces {
		m.AddFace(f...)
	}
	return m
}

func TestExtractTopologyRejectsInvalid(t *testing.T) {
	testCases := []struct {
		name string
		mesh *Mesh
	}{
		{"two vertex face", rawMesh(3, []int{0, 1})},
		{"vertex out of range", rawMesh(3, []int{0, 1, 3})},
		{"negative vertex", rawMesh(3, []int{0, -1, 2})},
		{"repeated vertex", rawMesh(4, []int{0, 1, 1, 2})},
		{"same winding twice", rawMesh(4, []int{0, 1, 2}, []int{0, 1, 3})},
		{"three faces on an edge", rawMesh(5, []int{0, 1, 2}, []int{1, 0, 3}, []int{4, 0, 1})},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := extractTopology(DefaultSettings(), NewMeshConverter(tc.mesh))
			if !errors.Is(err, ErrInvalidTopology) {
				t.Errorf("extractTopology() error = %v, want ErrInvalidTopology", err)
			}
		})
	}
}

func TestExtractTopologyEmptyMesh(t *testing.T) {
	topo, err := extractTopology(DefaultSettings(), NewMeshConverter(NewMesh()))
	if err != nil {
		t.Fatalf("extractTopology() error = %v", err)
	}
	if topo.numFaces() != 0 || topo.numVertices != 0 {
		t.Errorf("got %d faces, %d vertices", topo.numFaces(), topo.numVertices)
	}
}

func TestTopologyEquality(t *testing.T) {
	extract := func(t *testing.T, settings Settings, m *Mesh) *topology {
		t.Helper()
		topo, err := extractTopology(settings, NewMeshConverter(m))
		if err != nil {
			t.Fatal(err)
		}
		return topo
	}
	settings := DefaultSettings()
	cube := extract(t, settings, NewCubeMesh(1))

	if !cube.equal(extract(t, settings, NewCubeMesh(3))) {
		t.Error("positions changed the topology")
	}

	creased := NewCubeMesh(1)
	creased.SetEdgeCrease(0, 1, 0.7)
	if cube.equal(extract(t, settings, creased)) {
		t.Error("a crease did not change the topology")
	}

	noCreases := settings
	noCreases.UseCreases = false
	if !extract(t, noCreases, NewCubeMesh(1)).equal(extract(t, noCreases, creased)) {
		t.Error("creases matter with UseCreases off")
	}

	moved := NewCubeMesh(1)
	moved.SetFaceUVs(0, 0, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 1}, mgl64.Vec2{1, 1}, mgl64.Vec2{0, 1})
	if cube.equal(extract(t, settings, moved)) {
		t.Error("uv topology change went unnoticed")
	}

	// A fingerprint collision must not be enough.
	forged := *cube
	forged.faceVerts = append([]int(nil), cube.faceVerts...)
	forged.faceVerts[0], forged.faceVerts[1] = forged.faceVerts[1], forged.faceVerts[0]
	if cube.equal(&forged) {
		t.Error("equal fingerprints short-circuited the comparison")
	}
}
