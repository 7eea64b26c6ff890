package subdiv

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// NewQuadMesh returns a single square quad of the given size in the XY
// plane, with a UV layer covering [0,1]².
func NewQuadMesh(size float64) *Mesh {
	m := NewMesh()
	a := m.AddVertex(mgl64.Vec3{0, 0, 0})
	b := m.AddVertex(mgl64.Vec3{size, 0, 0})
	c := m.AddVertex(mgl64.Vec3{size, size, 0})
	d := m.AddVertex(mgl64.Vec3{0, size, 0})
	f := m.AddFace(a, b, c, d)
	layer := m.AddUVLayer("UVMap")
	m.SetFaceUVs(layer, f, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0}, mgl64.Vec2{1, 1}, mgl64.Vec2{0, 1})
	return m
}

// NewNGonMesh returns a single regular polygon with n sides.
func NewNGonMesh(n int, radius float64) *Mesh {
	m := NewMesh()
	verts := make([]int, n)
	uvs := make([]mgl64.Vec2, n)
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		cos, sin := math.Cos(angle), math.Sin(angle)
		verts[i] = m.AddVertex(mgl64.Vec3{radius * cos, radius * sin, 0})
		uvs[i] = mgl64.Vec2{0.5 + 0.5*cos, 0.5 + 0.5*sin}
	}
	f := m.AddFace(verts...)
	layer := m.AddUVLayer("UVMap")
	m.SetFaceUVs(layer, f, uvs...)
	return m
}

// NewCubeMesh returns a closed cube centered on the origin with outward
// facing quads.
func NewCubeMesh(size float64) *Mesh {
	m := NewMesh()
	s := size / 2
	corners := []mgl64.Vec3{
		{-s, -s, -s}, {s, -s, -s}, {s, s, -s}, {-s, s, -s},
		{-s, -s, s}, {s, -s, s}, {s, s, s}, {-s, s, s},
	}
	for _, c := range corners {
		m.AddVertex(c)
	}
	faces := [][]int{
		{4, 5, 6, 7}, // Z+
		{0, 3, 2, 1}, // Z-
		{0, 1, 5, 4}, // Y-
		{3, 7, 6, 2}, // Y+
		{1, 2, 6, 5}, // X+
		{0, 4, 7, 3}, // X-
	}
	for _, f := range faces {
		m.AddFace(f...)
	}
	layer := m.AddUVLayer("UVMap")
	for f := range faces {
		m.SetFaceUVs(layer, f, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0}, mgl64.Vec2{1, 1}, mgl64.Vec2{0, 1})
	}
	return m
}

// NewGridMesh returns a flat nx by ny grid of quads spanning size in X
// and Y.
func NewGridMesh(nx, ny int, size float64) *Mesh {
	m := NewMesh()
	index := func(i, j int) int { return j*(nx+1) + i }
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			m.AddVertex(mgl64.Vec3{size * float64(i) / float64(nx), size * float64(j) / float64(ny), 0})
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			m.AddFace(index(i, j), index(i+1, j), index(i+1, j+1), index(i, j+1))
		}
	}
	layer := m.AddUVLayer("UVMap")
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			u0, u1 := float64(i)/float64(nx), float64(i+1)/float64(nx)
			v0, v1 := float64(j)/float64(ny), float64(j+1)/float64(ny)
			m.SetFaceUVs(layer, j*nx+i, mgl64.Vec2{u0, v0}, mgl64.Vec2{u1, v0}, mgl64.Vec2{u1, v1}, mgl64.Vec2{u0, v1})
		}
	}
	return m
}
