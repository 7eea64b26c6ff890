package subdiv

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ToMeshSettings controls the tessellation of ToMesh.
type ToMeshSettings struct {
	// Resolution is the number of samples along a quad ptex face edge.
	// Other faces use Resolution/2+1 per corner, so odd resolutions make
	// their samples line up with neighbouring quads.
	Resolution int
}

// meshWeldPrecision is the spacing of the lattice samples with equal limit
// positions are welded on.
const meshWeldPrecision = 1e-6

type weldedVertex struct {
	limit        mgl64.Vec3
	displacement mgl64.Vec3
	samples      int
}

// ToMesh tessellates the final surface of s into quads. coarse supplies the
// positions and UVs and must have the topology s was built for.
func ToMesh(s *Subdiv, settings ToMeshSettings, coarse *Mesh) (*Mesh, error) {
	if settings.Resolution < 2 {
		return nil, fmt.Errorf("%w: mesh resolution %d", ErrInvalidSettings, settings.Resolution)
	}
	stats := s.Stats()
	stats.Begin(StatsSubdivToMesh)
	defer stats.End(StatsSubdivToMesh)

	if err := s.EvalBeginFromMesh(coarse); err != nil {
		return nil, err
	}

	refiner := s.TopologyRefiner()
	offsets := s.FacePtexOffsets()
	numPtex := offsets[len(offsets)-1]
	resolutions := make([]int, numPtex)
	for f := 0; f < refiner.NumFaces(); f++ {
		for p := offsets[f]; p < offsets[f+1]; p++ {
			if refiner.NumFaceVertices(f) == 4 {
				resolutions[p] = settings.Resolution
			} else {
				resolutions[p] = settings.Resolution/2 + 1
			}
		}
	}

	stats.Begin(StatsSubdivToMeshGeometry)
	index := make(map[[3]int64]int)
	var verts []weldedVertex
	// ptexVerts[p][j*res+i] is the welded vertex of sample (i, j).
	ptexVerts := make([][]int, numPtex)
	for p, res := range resolutions {
		ptexVerts[p] = make([]int, res*res)
		step := 1.0 / float64(res-1)
		for j := 0; j < res; j++ {
			for i := 0; i < res; i++ {
				u, v := float64(i)*step, float64(j)*step
				limit, dPdu, dPdv := s.EvalLimitPoint(p, u, v)
				key := [3]int64{
					int64(math.Round(limit[0] / meshWeldPrecision)),
					int64(math.Round(limit[1] / meshWeldPrecision)),
					int64(math.Round(limit[2] / meshWeldPrecision)),
				}
				vi, found := index[key]
				if !found {
					vi = len(verts)
					verts = append(verts, weldedVertex{limit: limit})
					index[key] = vi
				}
				verts[vi].displacement = verts[vi].displacement.Add(s.EvalDisplacement(p, u, v, dPdu, dPdv))
				verts[vi].samples++
				ptexVerts[p][j*res+i] = vi
			}
		}
	}
	out := NewMesh()
	out.Positions = make([]mgl64.Vec3, len(verts))
	for i, w := range verts {
		out.Positions[i] = w.limit.Add(w.displacement.Mul(1 / float64(w.samples)))
	}
	out.pointIndex = nil
	stats.End(StatsSubdivToMeshGeometry)

	for l := 0; l < refiner.NumUVLayers() && l < len(coarse.UVLayers); l++ {
		out.AddUVLayer(coarse.UVLayers[l].Name)
	}
	for p, res := range resolutions {
		step := 1.0 / float64(res-1)
		for j := 0; j < res-1; j++ {
			for i := 0; i < res-1; i++ {
				corners := [4][2]int{{i, j}, {i + 1, j}, {i + 1, j + 1}, {i, j + 1}}
				loop := make([]int, 4)
				for k, c := range corners {
					loop[k] = ptexVerts[p][c[1]*res+c[0]]
				}
				f := out.AddFace(loop...)
				for l := range out.UVLayers {
					uvs := make([]mgl64.Vec2, 4)
					for k, c := range corners {
						uvs[k] = s.EvalFaceVarying(l, p, float64(c[0])*step, float64(c[1])*step)
					}
					out.SetFaceUVs(l, f, uvs...)
				}
			}
		}
	}
	Logger().Debug("subdivision mesh built", "vertices", len(out.Positions), "faces", len(out.Faces))
	return out, nil
}
