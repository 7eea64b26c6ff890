package subdiv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const creasedQuadsPLY = `ply
format ascii 1.0
comment two quads sharing an edge
element vertex 6
property float x
property float y
property float z
property float s
property float t
element face 2
property list uchar int vertex_indices
element edge 1
property int vertex1
property int vertex2
property float crease
end_header
0 0 0 0 0
1 0 0 0.5 0
1 1 0 0.5 1
0 1 0 0 1
2 0 0 1 0
2 1 0 1 1
4 0 1 2 3
4 1 4 5 2
1 2 0.5
`

func TestLoadMeshFromPLYReader(t *testing.T) {
	m, err := LoadMeshFromPLYReader(strings.NewReader(creasedQuadsPLY))
	if err != nil {
		t.Fatalf("LoadMeshFromPLYReader() error = %v", err)
	}
	if m.NumVertices() != 6 || m.NumFaces() != 2 {
		t.Fatalf("got %d vertices and %d faces", m.NumVertices(), m.NumFaces())
	}
	if got := m.EdgeCreases[MakeEdge(1, 2)]; !almostEqual(got, 0.5) {
		t.Errorf("crease of edge 1-2 = %f, want 0.5", got)
	}
	if len(m.UVLayers) != 1 || m.UVLayers[0].Name != "UVMap" {
		t.Fatalf("uv layers = %+v", m.UVLayers)
	}
	if uv := m.UVLayers[0].UVs[1][2]; uv != (mgl64.Vec2{1, 1}) {
		t.Errorf("uv of face 1 corner 2 = %v, want (1, 1)", uv)
	}
	if p := m.Positions[m.Faces[1][1]]; !vecAlmostEqual(p, mgl64.Vec3{2, 0, 0}) {
		t.Errorf("face 1 corner 1 at %v", p)
	}
}

func TestLoadMeshFromPLYReaderWeldsDuplicates(t *testing.T) {
	src := `ply
format ascii 1.0
element vertex 5
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
1 1 0
0 1 0
1 0 0
4 0 4 2 3
`
	m, err := LoadMeshFromPLYReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadMeshFromPLYReader() error = %v", err)
	}
	if m.NumVertices() != 4 {
		t.Errorf("NumVertices() = %d, want 4", m.NumVertices())
	}
	if m.Faces[0][1] != 1 {
		t.Errorf("duplicate vertex not remapped: %v", m.Faces[0])
	}
	if len(m.UVLayers) != 0 {
		t.Errorf("got %d uv layers without texture coordinates", len(m.UVLayers))
	}
}

func TestLoadMeshFromPLYReaderErrors(t *testing.T) {
	header := "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\nelement face 1\nproperty list uchar int vertex_indices\nend_header\n"
	testCases := []struct {
		name  string
		input string
	}{
		{"missing magic", "off\n"},
		{"binary", "ply\nformat binary_little_endian 1.0\nend_header\n"},
		{"no end header", "ply\nformat ascii 1.0\nelement vertex 1\n"},
		{"truncated vertices", header + "0 0 0\n"},
		{"bad float", header + "0 0 0\n1 x 0\n0 1 0\n3 0 1 2\n"},
		{"index out of range", header + "0 0 0\n1 0 0\n0 1 0\n3 0 1 7\n"},
		{"short face", header + "0 0 0\n1 0 0\n0 1 0\n3 0 1\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadMeshFromPLYReader(strings.NewReader(tc.input)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadMeshFromPLYFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quads.ply")
	if err := os.WriteFile(path, []byte(creasedQuadsPLY), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadMeshFromPLYFile(path)
	if err != nil {
		t.Fatalf("LoadMeshFromPLYFile() error = %v", err)
	}
	if m.NumFaces() != 2 {
		t.Errorf("NumFaces() = %d", m.NumFaces())
	}
	if _, err := LoadMeshFromPLYFile(filepath.Join(t.TempDir(), "missing.ply")); err == nil {
		t.Error("missing file loaded")
	}
}
