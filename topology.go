package subdiv

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"slices"
	"sort"
)

type sharpEdge struct {
	edge      Edge
	sharpness float64
}

type sharpVertex struct {
	vertex    int
	sharpness float64
}

type uvTopology struct {
	numValues int
	// corners is parallel to topology.faceVerts.
	corners []int
}

// topology is the canonical, settings-applied description of a base mesh.
// Two descriptors built from equal topologies and equal settings are
// interchangeable.
type topology struct {
	numVertices int
	faceOffsets []int
	faceVerts   []int

	edgeSharpness   []sharpEdge
	vertexSharpness []sharpVertex
	uvLayers        []uvTopology

	fingerprint uint64
}

func (t *topology) numFaces() int { return len(t.faceOffsets) - 1 }

func (t *topology) face(f int) []int {
	return t.faceVerts[t.faceOffsets[f]:t.faceOffsets[f+1]]
}

func invalidTopology(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTopology, fmt.Sprintf(format, args...))
}

// extractTopology pulls the base topology out of a converter and validates
// it against what the refiner can represent.
func extractTopology(settings Settings, conv Converter) (*topology, error) {
	t := &topology{numVertices: conv.NumVertices()}
	if t.numVertices < 0 {
		return nil, invalidTopology("negative vertex count %d", t.numVertices)
	}

	numFaces := conv.NumFaces()
	t.faceOffsets = make([]int, 1, numFaces+1)
	directed := make(map[[2]int]struct{})
	undirected := make(map[Edge]int)
	for f := 0; f < numFaces; f++ {
		verts := conv.FaceVertices(f)
		if len(verts) < 3 {
			return nil, invalidTopology("face %d has %d vertices", f, len(verts))
		}
		for i, v := range verts {
			if v < 0 || v >= t.numVertices {
				return nil, invalidTopology("face %d references vertex %d of %d", f, v, t.numVertices)
			}
			for _, w := range verts[:i] {
				if w == v {
					return nil, invalidTopology("face %d uses vertex %d twice", f, v)
				}
			}
		}
		for i, a := range verts {
			b := verts[(i+1)%len(verts)]
			key := [2]int{a, b}
			if _, dup := directed[key]; dup {
				return nil, invalidTopology("edge %d-%d is used twice with the same winding", a, b)
			}
			directed[key] = struct{}{}
			e := MakeEdge(a, b)
			undirected[e]++
			if undirected[e] > 2 {
				return nil, invalidTopology("edge %d-%d is shared by more than two faces", a, b)
			}
		}
		t.faceVerts = append(t.faceVerts, verts...)
		t.faceOffsets = append(t.faceOffsets, len(t.faceVerts))
	}

	if settings.UseCreases {
		edges := make(map[Edge]float64)
		for e := 0; e < conv.NumEdges(); e++ {
			a, b := conv.EdgeVertices(e)
			edge := MakeEdge(a, b)
			if _, used := undirected[edge]; !used {
				continue
			}
			if s := conv.EdgeSharpness(e); s > 0 {
				edges[edge] = s
			}
		}
		for edge, s := range edges {
			t.edgeSharpness = append(t.edgeSharpness, sharpEdge{edge: edge, sharpness: s})
		}
		sort.Slice(t.edgeSharpness, func(i, j int) bool {
			a, b := t.edgeSharpness[i].edge, t.edgeSharpness[j].edge
			if a[0] != b[0] {
				return a[0] < b[0]
			}
			return a[1] < b[1]
		})
		for v := 0; v < t.numVertices; v++ {
			if s := conv.VertexSharpness(v); s > 0 {
				t.vertexSharpness = append(t.vertexSharpness, sharpVertex{vertex: v, sharpness: s})
			}
		}
	}

	for layer := 0; layer < conv.NumUVLayers(); layer++ {
		uv := uvTopology{
			numValues: conv.NumUVCoordinates(layer),
			corners:   make([]int, 0, len(t.faceVerts)),
		}
		for f := 0; f < numFaces; f++ {
			for c := 0; c < t.faceOffsets[f+1]-t.faceOffsets[f]; c++ {
				i := conv.FaceCornerUVIndex(layer, f, c)
				if i < 0 || i >= uv.numValues {
					return nil, invalidTopology("uv layer %d: face %d corner %d references uv %d of %d", layer, f, c, i, uv.numValues)
				}
				uv.corners = append(uv.corners, i)
			}
		}
		t.uvLayers = append(t.uvLayers, uv)
	}

	t.fingerprint = t.computeFingerprint()
	return t, nil
}

// computeFingerprint hashes every field with FNV-1a. It is only used to
// reject mismatches quickly; equal fingerprints are confirmed by equal.
func (t *topology) computeFingerprint() uint64 {
	h := fnv.New64a()
	buf := make([]byte, 8)
	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(buf, uint64(v))
		_, _ = h.Write(buf) // fnv.Write never returns an error
	}
	writeFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		_, _ = h.Write(buf)
	}

	writeInt(t.numVertices)
	writeInt(len(t.faceOffsets))
	for _, o := range t.faceOffsets {
		writeInt(o)
	}
	for _, v := range t.faceVerts {
		writeInt(v)
	}
	writeInt(len(t.edgeSharpness))
	for _, e := range t.edgeSharpness {
		writeInt(e.edge[0])
		writeInt(e.edge[1])
		writeFloat(e.sharpness)
	}
	writeInt(len(t.vertexSharpness))
	for _, v := range t.vertexSharpness {
		writeInt(v.vertex)
		writeFloat(v.sharpness)
	}
	writeInt(len(t.uvLayers))
	for _, uv := range t.uvLayers {
		writeInt(uv.numValues)
		for _, c := range uv.corners {
			writeInt(c)
		}
	}
	return h.Sum64()
}

func (t *topology) equal(o *topology) bool {
	if t.fingerprint != o.fingerprint {
		return false
	}
	if t.numVertices != o.numVertices ||
		!slices.Equal(t.faceOffsets, o.faceOffsets) ||
		!slices.Equal(t.faceVerts, o.faceVerts) ||
		!slices.Equal(t.edgeSharpness, o.edgeSharpness) ||
		!slices.Equal(t.vertexSharpness, o.vertexSharpness) ||
		len(t.uvLayers) != len(o.uvLayers) {
		return false
	}
	for i := range t.uvLayers {
		if t.uvLayers[i].numValues != o.uvLayers[i].numValues ||
			!slices.Equal(t.uvLayers[i].corners, o.uvLayers[i].corners) {
			return false
		}
	}
	return true
}
