package subdiv

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Edge is an undirected edge between two vertices. Use MakeEdge to get the
// canonical form used as a map key.
type Edge [2]int

// MakeEdge returns the edge with the smaller vertex index first.
func MakeEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{a, b}
}

// UVLayer holds one face-varying UV map, one coordinate per face corner.
type UVLayer struct {
	Name string
	UVs  [][]mgl64.Vec2
}

// MDisps is the multires displacement grid of one face corner. Values are
// tangent-space displacements stored row by row, GridSizeFromLevel(Level)
// values per side.
type MDisps struct {
	Level         int
	Displacements []mgl64.Vec3
}

// Mesh is the editable base mesh the descriptor is built from.
type Mesh struct {
	Positions     []mgl64.Vec3
	Faces         [][]int
	EdgeCreases   map[Edge]float64
	VertexCreases map[int]float64
	UVLayers      []UVLayer
	// Disps holds per face corner multires grids, parallel to Faces. Nil
	// when the mesh has no multires data.
	Disps [][]MDisps

	pointIndex map[[3]int64]int
}

// weldPrecision is the spacing of the lattice AddVertex welds positions on.
const weldPrecision = 1e-9

func NewMesh() *Mesh {
	return &Mesh{
		Positions:     make([]mgl64.Vec3, 0, 16),
		EdgeCreases:   make(map[Edge]float64),
		VertexCreases: make(map[int]float64),
		pointIndex:    make(map[[3]int64]int),
	}
}

func pointKey(p mgl64.Vec3) [3]int64 {
	return [3]int64{
		int64(math.Round(p[0] / weldPrecision)),
		int64(math.Round(p[1] / weldPrecision)),
		int64(math.Round(p[2] / weldPrecision)),
	}
}

// AddVertex adds a vertex and returns its index. A vertex at the same
// position as an existing one is welded to it.
func (m *Mesh) AddVertex(p mgl64.Vec3) int {
	if m.pointIndex == nil {
		m.rebuildPointIndex()
	}
	key := pointKey(p)
	if index, found := m.pointIndex[key]; found {
		return index
	}
	m.Positions = append(m.Positions, p)
	index := len(m.Positions) - 1
	m.pointIndex[key] = index
	return index
}

func (m *Mesh) rebuildPointIndex() {
	m.pointIndex = make(map[[3]int64]int, len(m.Positions))
	for i, p := range m.Positions {
		key := pointKey(p)
		if _, found := m.pointIndex[key]; !found {
			m.pointIndex[key] = i
		}
	}
}

// AddFace appends a face loop and returns its index. UV layers and
// displacement grids get zero-valued entries for the new face.
func (m *Mesh) AddFace(verts ...int) int {
	loop := make([]int, len(verts))
	copy(loop, verts)
	m.Faces = append(m.Faces, loop)
	for i := range m.UVLayers {
		m.UVLayers[i].UVs = append(m.UVLayers[i].UVs, make([]mgl64.Vec2, len(loop)))
	}
	if m.Disps != nil {
		m.Disps = append(m.Disps, make([]MDisps, len(loop)))
	}
	return len(m.Faces) - 1
}

// SetEdgeCrease sets the crease of the edge between a and b. A zero crease
// removes the entry.
func (m *Mesh) SetEdgeCrease(a, b int, crease float64) {
	if m.EdgeCreases == nil {
		m.EdgeCreases = make(map[Edge]float64)
	}
	if crease <= 0 {
		delete(m.EdgeCreases, MakeEdge(a, b))
		return
	}
	m.EdgeCreases[MakeEdge(a, b)] = math.Min(crease, 1)
}

func (m *Mesh) SetVertexCrease(v int, crease float64) {
	if m.VertexCreases == nil {
		m.VertexCreases = make(map[int]float64)
	}
	if crease <= 0 {
		delete(m.VertexCreases, v)
		return
	}
	m.VertexCreases[v] = math.Min(crease, 1)
}

// AddUVLayer adds a UV layer with all coordinates at the origin.
func (m *Mesh) AddUVLayer(name string) int {
	uvs := make([][]mgl64.Vec2, len(m.Faces))
	for i, f := range m.Faces {
		uvs[i] = make([]mgl64.Vec2, len(f))
	}
	m.UVLayers = append(m.UVLayers, UVLayer{Name: name, UVs: uvs})
	return len(m.UVLayers) - 1
}

// SetFaceUVs sets the UVs of all corners of a face.
func (m *Mesh) SetFaceUVs(layer, face int, uvs ...mgl64.Vec2) {
	copy(m.UVLayers[layer].UVs[face], uvs)
}

// AddMultires allocates zeroed displacement grids of the given level for
// every face corner.
func (m *Mesh) AddMultires(level int) {
	size := GridSizeFromLevel(level)
	m.Disps = make([][]MDisps, len(m.Faces))
	for i, f := range m.Faces {
		m.Disps[i] = make([]MDisps, len(f))
		for c := range f {
			m.Disps[i][c] = MDisps{Level: level, Displacements: make([]mgl64.Vec3, size*size)}
		}
	}
}

func (m *Mesh) NumVertices() int { return len(m.Positions) }

func (m *Mesh) NumFaces() int { return len(m.Faces) }

// NumLoops returns the number of face corners.
func (m *Mesh) NumLoops() int {
	n := 0
	for _, f := range m.Faces {
		n += len(f)
	}
	return n
}

// FaceNormal returns the unit normal of a face using Newell's method, so
// non-planar polygons get a stable average normal.
func (m *Mesh) FaceNormal(face int) mgl64.Vec3 {
	loop := m.Faces[face]
	if len(loop) < 3 {
		return mgl64.Vec3{0, 0, 1}
	}
	var n mgl64.Vec3
	for i := range loop {
		a := m.Positions[loop[i]]
		b := m.Positions[loop[(i+1)%len(loop)]]
		n[0] += (a[1] - b[1]) * (a[2] + b[2])
		n[1] += (a[2] - b[2]) * (a[0] + b[0])
		n[2] += (a[0] - b[0]) * (a[1] + b[1])
	}
	if n.Len() == 0 {
		return mgl64.Vec3{0, 0, 1}
	}
	return n.Normalize()
}

// FaceCenter returns the average of the face vertices.
func (m *Mesh) FaceCenter(face int) mgl64.Vec3 {
	loop := m.Faces[face]
	if len(loop) == 0 {
		return mgl64.Vec3{}
	}
	var sum mgl64.Vec3
	for _, v := range loop {
		sum = sum.Add(m.Positions[v])
	}
	return sum.Mul(1.0 / float64(len(loop)))
}

// Copy returns a deep copy of the mesh.
func (m *Mesh) Copy() *Mesh {
	c := &Mesh{
		Positions:     append([]mgl64.Vec3(nil), m.Positions...),
		Faces:         make([][]int, len(m.Faces)),
		EdgeCreases:   make(map[Edge]float64, len(m.EdgeCreases)),
		VertexCreases: make(map[int]float64, len(m.VertexCreases)),
	}
	for i, f := range m.Faces {
		c.Faces[i] = append([]int(nil), f...)
	}
	for k, v := range m.EdgeCreases {
		c.EdgeCreases[k] = v
	}
	for k, v := range m.VertexCreases {
		c.VertexCreases[k] = v
	}
	for _, layer := range m.UVLayers {
		uvs := make([][]mgl64.Vec2, len(layer.UVs))
		for i, f := range layer.UVs {
			uvs[i] = append([]mgl64.Vec2(nil), f...)
		}
		c.UVLayers = append(c.UVLayers, UVLayer{Name: layer.Name, UVs: uvs})
	}
	c.Disps = copyDisps(m.Disps)
	c.rebuildPointIndex()
	return c
}

func copyDisps(disps [][]MDisps) [][]MDisps {
	if disps == nil {
		return nil
	}
	out := make([][]MDisps, len(disps))
	for i, corners := range disps {
		out[i] = make([]MDisps, len(corners))
		for j, d := range corners {
			out[i][j] = MDisps{Level: d.Level, Displacements: append([]mgl64.Vec3(nil), d.Displacements...)}
		}
	}
	return out
}
