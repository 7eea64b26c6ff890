package subdiv

import "fmt"

// gridCell is one face of the last refinement level covering a cell of a
// ptex grid. rot is the corner of the face that sits at the lower left of
// the cell.
type gridCell struct {
	face int
	rot  int
}

func (c gridCell) corner(faceVerts [][]int, k int) int {
	return faceVerts[c.face][(c.rot+k)&3]
}

// ptexGrid covers one ptex face with size × size cells, row major with u
// along rows.
type ptexGrid struct {
	size  int
	cells []gridCell
}

// subCellRot is the rotation of each sub-cell, in lower left, lower right,
// upper right, upper left order, relative to its parent cell.
var subCellRot = [4]int{0, 3, 2, 1}

var subCellOffset = [4][2]int{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

// splitCell returns the four children of a face whose child faces start at
// firstChild, as seen from the corner rot.
func splitCell(firstChild, rot int) [4]gridCell {
	var out [4]gridCell
	for sub := range out {
		out[sub] = gridCell{face: firstChild + (rot+sub)%4, rot: subCellRot[sub]}
	}
	return out
}

func (g *ptexGrid) refine() {
	size := g.size * 2
	cells := make([]gridCell, size*size)
	for j := 0; j < g.size; j++ {
		for i := 0; i < g.size; i++ {
			c := g.cells[j*g.size+i]
			for sub, child := range splitCell(4*c.face, c.rot) {
				x := 2*i + subCellOffset[sub][0]
				y := 2*j + subCellOffset[sub][1]
				cells[y*size+x] = child
			}
		}
	}
	g.size = size
	g.cells = cells
}

// channel is one refined data channel: the vertex positions or one UV
// layer.
type channel struct {
	rules     refineRules
	numCoarse int
	stencils  []*stencilTable
	limit     *stencilTable
	// faceVerts of the last level.
	faceVerts [][]int
	numVerts  []int
}

func buildChannel(base *refineLevel, levels int, rules refineRules) *channel {
	ch := &channel{
		rules:     rules,
		numCoarse: base.numVerts,
		numVerts:  []int{base.numVerts},
	}
	level := base
	for i := 0; i < levels; i++ {
		next, st := level.refine(rules)
		ch.stencils = append(ch.stencils, st)
		ch.numVerts = append(ch.numVerts, next.numVerts)
		level = next
	}
	ch.limit = level.limitStencils(rules)
	ch.faceVerts = level.faceVerts
	return ch
}

// TopologyRefiner holds the refinement hierarchy of a base mesh: the
// stencils of every level for positions and UVs, and the ptex grids the
// evaluator samples.
type TopologyRefiner struct {
	settings Settings
	topo     *topology
	levels   int

	numFaces []int
	vertex   *channel
	uvs      []*channel

	ptexOffsets []int
	grids       []ptexGrid
}

// NewTopologyRefiner validates the topology read from conv and refines it
// to the level of settings. Level 0 is refined once so that every ptex face
// has a grid.
func NewTopologyRefiner(settings Settings, conv Converter) (*TopologyRefiner, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	topo, err := extractTopology(settings, conv)
	if err != nil {
		return nil, err
	}
	return newTopologyRefiner(settings, topo), nil
}

func newTopologyRefiner(settings Settings, topo *topology) *TopologyRefiner {
	r := &TopologyRefiner{
		settings: settings,
		topo:     topo,
		levels:   max(1, settings.Level),
	}

	faces := make([][]int, topo.numFaces())
	for f := range faces {
		faces[f] = topo.face(f)
	}
	base := newRefineLevel(topo.numVertices, faces)
	for _, e := range topo.edgeSharpness {
		if i, found := base.edgeIndex[e.edge]; found {
			base.edges[i].sharpness = e.sharpness
		}
	}
	for _, v := range topo.vertexSharpness {
		base.vertSharpness[v.vertex] = v.sharpness
	}
	r.vertex = buildChannel(base, r.levels, vertexRules(settings))

	for _, layer := range topo.uvLayers {
		uvFaces := make([][]int, len(faces))
		offset := 0
		for f, verts := range faces {
			uvFaces[f] = layer.corners[offset : offset+len(verts)]
			offset += len(verts)
		}
		r.uvs = append(r.uvs, buildChannel(newRefineLevel(layer.numValues, uvFaces), r.levels, uvRules(settings)))
	}

	r.numFaces = []int{len(faces)}
	n := len(faces)
	for i := 0; i < r.levels; i++ {
		if i == 0 {
			n = len(topo.faceVerts)
		} else {
			n *= 4
		}
		r.numFaces = append(r.numFaces, n)
	}

	r.buildPtexGrids()
	return r
}

func vertexRules(s Settings) refineRules {
	return refineRules{
		linear:         s.IsSimple,
		cornerBoundary: s.VtxBoundaryInterpolation == VtxBoundaryEdgeAndCorner,
	}
}

func uvRules(s Settings) refineRules {
	rules := refineRules{linear: s.IsSimple}
	switch s.FVarLinearInterpolation {
	case FVarLinearAll:
		rules.linear = true
	case FVarLinearBoundaries:
		rules.fixBoundary = true
	case FVarLinearCornersOnly, FVarLinearCornersAndJunctions, FVarLinearCornersJunctionsAndConcave:
		rules.cornerBoundary = true
	}
	return rules
}

func (r *TopologyRefiner) buildPtexGrids() {
	numFaces := r.topo.numFaces()
	r.ptexOffsets = make([]int, numFaces+1)
	firstChild := 0
	for f := 0; f < numFaces; f++ {
		n := r.topo.faceOffsets[f+1] - r.topo.faceOffsets[f]
		if n == 4 {
			cells := splitCell(firstChild, 0)
			g := ptexGrid{size: 2, cells: make([]gridCell, 4)}
			for sub, c := range cells {
				g.cells[subCellOffset[sub][1]*2+subCellOffset[sub][0]] = c
			}
			r.grids = append(r.grids, g)
			r.ptexOffsets[f+1] = r.ptexOffsets[f] + 1
		} else {
			for k := 0; k < n; k++ {
				r.grids = append(r.grids, ptexGrid{size: 1, cells: []gridCell{{face: firstChild + k}}})
			}
			r.ptexOffsets[f+1] = r.ptexOffsets[f] + n
		}
		firstChild += n
	}
	for i := range r.grids {
		for level := 1; level < r.levels; level++ {
			r.grids[i].refine()
		}
	}
}

func (r *TopologyRefiner) Settings() Settings { return r.settings }

// NumLevels returns the number of refinement steps applied to the base
// mesh.
func (r *TopologyRefiner) NumLevels() int { return r.levels }

// NumVertices returns the number of base mesh vertices.
func (r *TopologyRefiner) NumVertices() int { return r.topo.numVertices }

// NumFaces returns the number of base mesh faces.
func (r *TopologyRefiner) NumFaces() int { return r.topo.numFaces() }

func (r *TopologyRefiner) NumFaceVertices(face int) int {
	return r.topo.faceOffsets[face+1] - r.topo.faceOffsets[face]
}

// FaceVertices returns the vertices of a base face. The slice must not be
// modified.
func (r *TopologyRefiner) FaceVertices(face int) []int { return r.topo.face(face) }

// LevelNumVertices returns the vertex count of a refinement level, level 0
// being the base mesh.
func (r *TopologyRefiner) LevelNumVertices(level int) int { return r.vertex.numVerts[level] }

func (r *TopologyRefiner) LevelNumFaces(level int) int { return r.numFaces[level] }

// NumPtexFaces returns the number of ptex faces: one per quad and one per
// corner of any other face.
func (r *TopologyRefiner) NumPtexFaces() int { return len(r.grids) }

// PtexGridSize returns the number of grid cells on a side of a ptex face.
func (r *TopologyRefiner) PtexGridSize(ptexFace int) int { return r.grids[ptexFace].size }

func (r *TopologyRefiner) NumUVLayers() int { return len(r.uvs) }

func (r *TopologyRefiner) NumUVCoordinates(layer int) int { return r.uvs[layer].numCoarse }

func (r *TopologyRefiner) String() string {
	return fmt.Sprintf("TopologyRefiner(faces=%d, vertices=%d, levels=%d, ptex=%d)",
		r.NumFaces(), r.NumVertices(), r.levels, len(r.grids))
}

// matches reports whether the refiner was built for the given settings and
// topology.
func (r *TopologyRefiner) matches(settings Settings, topo *topology) bool {
	return SettingsEqual(r.settings, settings) && r.topo.equal(topo)
}
