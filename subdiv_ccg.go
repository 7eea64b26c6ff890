package subdiv

import (
	"fmt"
	"runtime"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"
)

// CCGSettings controls the grids built by ToCCG.
type CCGSettings struct {
	// Resolution is the number of elements on a grid side.
	Resolution int
	NeedNormal bool
}

// CCGElement is one grid sample.
type CCGElement struct {
	Co mgl64.Vec3
	No mgl64.Vec3
}

// CCG stores the final surface as one grid per base face corner. Grid
// element (x, y) is at index y*GridSize+x; (0, 0) is the face center and
// the last element the corner vertex.
type CCG struct {
	GridSize int
	Grids    [][]CCGElement
	// GridToFace maps a grid to its base face.
	GridToFace []int
	// FaceGridOffsets[f] is the first grid of face f; the last entry is the
	// number of grids.
	FaceGridOffsets []int
	HasNormals      bool
}

// NumGrids returns the number of grids.
func (c *CCG) NumGrids() int { return len(c.Grids) }

// Element returns grid element (x, y).
func (c *CCG) Element(grid, x, y int) CCGElement {
	return c.Grids[grid][y*c.GridSize+x]
}

// ToCCG evaluates the grids of every base face corner. Faces are evaluated
// in parallel. coarse must have the topology s was built for.
func ToCCG(s *Subdiv, settings CCGSettings, coarse *Mesh) (*CCG, error) {
	if settings.Resolution < 2 {
		return nil, fmt.Errorf("%w: grid resolution %d", ErrInvalidSettings, settings.Resolution)
	}
	stats := s.Stats()
	stats.Begin(StatsSubdivToCCG)
	defer stats.End(StatsSubdivToCCG)

	if err := s.EvalBeginFromMesh(coarse); err != nil {
		return nil, err
	}

	refiner := s.TopologyRefiner()
	ptexOffsets := s.FacePtexOffsets()
	numFaces := refiner.NumFaces()
	ccg := &CCG{
		GridSize:        settings.Resolution,
		FaceGridOffsets: make([]int, numFaces+1),
		HasNormals:      settings.NeedNormal,
	}
	for f := 0; f < numFaces; f++ {
		n := refiner.NumFaceVertices(f)
		ccg.FaceGridOffsets[f+1] = ccg.FaceGridOffsets[f] + n
		for c := 0; c < n; c++ {
			ccg.GridToFace = append(ccg.GridToFace, f)
		}
	}
	ccg.Grids = make([][]CCGElement, ccg.FaceGridOffsets[numFaces])

	stats.Begin(StatsSubdivToCCGElements)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for f := 0; f < numFaces; f++ {
		f := f
		g.Go(func() error {
			evalFaceGrids(s, ccg, f, refiner.NumFaceVertices(f) == 4, ptexOffsets[f])
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		ccg.averageBoundaries(refiner)
	}
	stats.End(StatsSubdivToCCGElements)
	if err != nil {
		return nil, err
	}
	return ccg, nil
}

// ccgBoundaryKey identifies an element on a base edge or vertex. Edge
// elements are counted in steps from the edge midpoint toward a vertex;
// a vertex element uses the edge {v, v}.
type ccgBoundaryKey struct {
	edge   Edge
	toward int
	step   int
}

func edgeElementKey(a, b, step int) ccgBoundaryKey {
	k := ccgBoundaryKey{edge: MakeEdge(a, b), toward: a, step: step}
	if step == 0 {
		k.toward = -1
	}
	return k
}

// averageBoundaries makes the grids of adjacent faces agree on their shared
// edges and vertices. Faces are evaluated separately, so displacement read
// from their own grids can differ there.
func (c *CCG) averageBoundaries(r *TopologyRefiner) {
	last := c.GridSize - 1
	shared := make(map[ccgBoundaryKey][]*CCGElement)
	for f := 0; f+1 < len(c.FaceGridOffsets); f++ {
		verts := r.FaceVertices(f)
		n := len(verts)
		for corner, v := range verts {
			grid := c.Grids[c.FaceGridOffsets[f]+corner]
			next, prev := verts[(corner+1)%n], verts[(corner+n-1)%n]
			vk := ccgBoundaryKey{edge: Edge{v, v}, toward: v}
			shared[vk] = append(shared[vk], &grid[last*c.GridSize+last])
			for i := 0; i < last; i++ {
				nk := edgeElementKey(v, next, i)
				shared[nk] = append(shared[nk], &grid[i*c.GridSize+last])
				pk := edgeElementKey(v, prev, i)
				shared[pk] = append(shared[pk], &grid[last*c.GridSize+i])
			}
		}
	}
	for _, elems := range shared {
		if len(elems) < 2 {
			continue
		}
		var co, no mgl64.Vec3
		for _, e := range elems {
			co = co.Add(e.Co)
			no = no.Add(e.No)
		}
		co = co.Mul(1 / float64(len(elems)))
		if c.HasNormals {
			no = safeNormalize(no)
		}
		for _, e := range elems {
			e.Co = co
			if c.HasNormals {
				e.No = no
			}
		}
	}
}

func evalFaceGrids(s *Subdiv, ccg *CCG, face int, quad bool, ptexOffset int) {
	size := ccg.GridSize
	step := 1.0 / float64(size-1)
	first := ccg.FaceGridOffsets[face]
	for corner := 0; corner < ccg.FaceGridOffsets[face+1]-first; corner++ {
		grid := make([]CCGElement, size*size)
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				gu, gv := float64(x)*step, float64(y)*step
				ptex := ptexOffset
				var u, v float64
				if quad {
					u, v = RotateGridToQuad(corner, gu, gv)
				} else {
					ptex += corner
					u, v = GridUVToPtexFaceUV(gu, gv)
				}
				p, dPdu, dPdv := s.EvalLimitPoint(ptex, u, v)
				elem := &grid[y*size+x]
				elem.Co = p.Add(s.EvalDisplacement(ptex, u, v, dPdu, dPdv))
				if ccg.HasNormals {
					elem.No = safeNormalize(dPdu.Cross(dPdv))
				}
			}
		}
		ccg.Grids[first+corner] = grid
	}
}
