package subdiv

import (
	"math"
	"sort"
)

// Converter is the pull interface the refiner reads base topology from.
// Implementations only need to be valid for the duration of the call that
// receives them; nothing is retained.
type Converter interface {
	NumVertices() int
	NumFaces() int
	FaceVertices(face int) []int

	// Edges only carry sharpness. Edges of the faces that are not listed
	// are smooth; listed edges that no face uses are ignored.
	NumEdges() int
	EdgeVertices(edge int) (int, int)
	EdgeSharpness(edge int) float64

	VertexSharpness(vertex int) float64

	// Face-varying topology: every face corner references one of
	// NumUVCoordinates(layer) shared UV values.
	NumUVLayers() int
	NumUVCoordinates(layer int) int
	FaceCornerUVIndex(layer, face, corner int) int
}

// uvWeldPrecision is the distance below which corner UVs of the same vertex
// are treated as one face-varying value.
const uvWeldPrecision = 1e-5

type uvKey struct {
	vertex int
	u, v   int64
}

type meshUVLayer struct {
	values  [][2]float64
	corners [][]int
}

type meshConverter struct {
	mesh  *Mesh
	edges []Edge
	uvs   []meshUVLayer
}

// NewMeshConverter exposes a Mesh through the Converter interface. Edge
// creases are converted to sharpness and corner UVs are welded per vertex.
func NewMeshConverter(m *Mesh) Converter {
	c := &meshConverter{mesh: m}

	c.edges = make([]Edge, 0, len(m.EdgeCreases))
	for e := range m.EdgeCreases {
		c.edges = append(c.edges, e)
	}
	sort.Slice(c.edges, func(i, j int) bool {
		if c.edges[i][0] != c.edges[j][0] {
			return c.edges[i][0] < c.edges[j][0]
		}
		return c.edges[i][1] < c.edges[j][1]
	})

	c.uvs = make([]meshUVLayer, len(m.UVLayers))
	for l, layer := range m.UVLayers {
		c.uvs[l] = weldUVLayer(m, layer)
	}
	return c
}

func weldUVLayer(m *Mesh, layer UVLayer) meshUVLayer {
	out := meshUVLayer{corners: make([][]int, len(m.Faces))}
	index := make(map[uvKey]int)
	for f, loop := range m.Faces {
		out.corners[f] = make([]int, len(loop))
		for c, v := range loop {
			var uv [2]float64
			if f < len(layer.UVs) && c < len(layer.UVs[f]) {
				uv = [2]float64{layer.UVs[f][c][0], layer.UVs[f][c][1]}
			}
			key := uvKey{
				vertex: v,
				u:      int64(math.Round(uv[0] / uvWeldPrecision)),
				v:      int64(math.Round(uv[1] / uvWeldPrecision)),
			}
			i, found := index[key]
			if !found {
				i = len(out.values)
				out.values = append(out.values, uv)
				index[key] = i
			}
			out.corners[f][c] = i
		}
	}
	return out
}

func (c *meshConverter) NumVertices() int { return len(c.mesh.Positions) }

func (c *meshConverter) NumFaces() int { return len(c.mesh.Faces) }

func (c *meshConverter) FaceVertices(face int) []int { return c.mesh.Faces[face] }

func (c *meshConverter) NumEdges() int { return len(c.edges) }

func (c *meshConverter) EdgeVertices(edge int) (int, int) {
	return c.edges[edge][0], c.edges[edge][1]
}

func (c *meshConverter) EdgeSharpness(edge int) float64 {
	return CreaseToSharpness(c.mesh.EdgeCreases[c.edges[edge]])
}

func (c *meshConverter) VertexSharpness(vertex int) float64 {
	return CreaseToSharpness(c.mesh.VertexCreases[vertex])
}

func (c *meshConverter) NumUVLayers() int { return len(c.uvs) }

func (c *meshConverter) NumUVCoordinates(layer int) int { return len(c.uvs[layer].values) }

func (c *meshConverter) FaceCornerUVIndex(layer, face, corner int) int {
	return c.uvs[layer].corners[face][corner]
}

// uvValues returns the welded UV values of a layer, in UV index order.
func (c *meshConverter) uvValues(layer int) [][2]float64 {
	return c.uvs[layer].values
}
