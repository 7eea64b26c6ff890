package subdiv

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Evaluator pushes coarse positions and UVs through the refiner stencils
// and samples the result per ptex face. It is immutable after Refine and
// safe for concurrent evaluation.
type Evaluator struct {
	refiner *TopologyRefiner

	coarse   []mgl64.Vec3
	uvCoarse [][]mgl64.Vec3

	// surface holds the points grid cells interpolate: the last level for
	// uniform settings, its limit projection for adaptive ones.
	surface   []mgl64.Vec3
	uvSurface [][]mgl64.Vec3

	refined bool
}

func newEvaluator(r *TopologyRefiner) *Evaluator {
	e := &Evaluator{
		refiner:   r,
		uvCoarse:  make([][]mgl64.Vec3, len(r.uvs)),
		uvSurface: make([][]mgl64.Vec3, len(r.uvs)),
	}
	for i, ch := range r.uvs {
		e.uvCoarse[i] = make([]mgl64.Vec3, ch.numCoarse)
	}
	return e
}

// SetCoarsePositions sets the base mesh vertex positions.
func (e *Evaluator) SetCoarsePositions(positions []mgl64.Vec3) error {
	if len(positions) != e.refiner.vertex.numCoarse {
		return fmt.Errorf("%w: got %d positions, topology has %d vertices",
			ErrVertexCountMismatch, len(positions), e.refiner.vertex.numCoarse)
	}
	e.coarse = append(e.coarse[:0], positions...)
	e.refined = false
	return nil
}

// SetCoarseUVs sets the UV values of a layer, in the index space of the
// converter the refiner was built from.
func (e *Evaluator) SetCoarseUVs(layer int, uvs []mgl64.Vec2) error {
	if layer < 0 || layer >= len(e.uvCoarse) {
		return fmt.Errorf("%w: uv layer %d of %d", ErrVertexCountMismatch, layer, len(e.uvCoarse))
	}
	if len(uvs) != len(e.uvCoarse[layer]) {
		return fmt.Errorf("%w: uv layer %d has %d values, topology has %d",
			ErrVertexCountMismatch, layer, len(uvs), len(e.uvCoarse[layer]))
	}
	for i, uv := range uvs {
		e.uvCoarse[layer][i] = mgl64.Vec3{uv[0], uv[1], 0}
	}
	e.refined = false
	return nil
}

// Refine computes the surface points from the coarse data.
func (e *Evaluator) Refine() error {
	if len(e.coarse) != e.refiner.vertex.numCoarse {
		return fmt.Errorf("%w: coarse positions are not set", ErrVertexCountMismatch)
	}
	adaptive := e.refiner.settings.IsAdaptive
	e.surface = e.refiner.vertex.evaluate(e.coarse, adaptive)
	for i, ch := range e.refiner.uvs {
		e.uvSurface[i] = ch.evaluate(e.uvCoarse[i], adaptive)
	}
	e.refined = true
	return nil
}

// IsRefined reports whether Refine succeeded since the coarse data was
// last changed.
func (e *Evaluator) IsRefined() bool { return e.refined }

func (ch *channel) evaluate(coarse []mgl64.Vec3, limit bool) []mgl64.Vec3 {
	src := coarse
	for _, st := range ch.stencils {
		dst := make([]mgl64.Vec3, st.numStencils())
		st.apply(src, dst)
		src = dst
	}
	if !limit {
		if len(ch.stencils) == 0 {
			return append([]mgl64.Vec3(nil), src...)
		}
		return src
	}
	dst := make([]mgl64.Vec3, ch.limit.numStencils())
	ch.limit.apply(src, dst)
	return dst
}

// locate returns the grid cell containing (u, v) and the position within
// the cell.
func (e *Evaluator) locate(ptexFace int, u, v float64) (gridCell, float64, float64, float64) {
	g := &e.refiner.grids[ptexFace]
	m := float64(g.size)
	u = mgl64.Clamp(u, 0, 1)
	v = mgl64.Clamp(v, 0, 1)
	x, y := u*m, v*m
	i := min(int(x), g.size-1)
	j := min(int(y), g.size-1)
	return g.cells[j*g.size+i], x - float64(i), y - float64(j), m
}

// EvaluateLimit returns the surface point of a ptex face and its first
// derivatives in ptex space.
func (e *Evaluator) EvaluateLimit(ptexFace int, u, v float64) (p, dPdu, dPdv mgl64.Vec3) {
	cell, s, t, m := e.locate(ptexFace, u, v)
	faceVerts := e.refiner.vertex.faceVerts
	a := e.surface[cell.corner(faceVerts, 0)]
	b := e.surface[cell.corner(faceVerts, 1)]
	c := e.surface[cell.corner(faceVerts, 2)]
	d := e.surface[cell.corner(faceVerts, 3)]
	return bilinear(a, b, c, d, s, t),
		b.Sub(a).Mul(1 - t).Add(c.Sub(d).Mul(t)).Mul(m),
		d.Sub(a).Mul(1 - s).Add(c.Sub(b).Mul(s)).Mul(m)
}

// EvaluateFaceVarying returns the UV of a layer at a ptex face point.
func (e *Evaluator) EvaluateFaceVarying(layer, ptexFace int, u, v float64) mgl64.Vec2 {
	cell, s, t, _ := e.locate(ptexFace, u, v)
	ch := e.refiner.uvs[layer]
	values := e.uvSurface[layer]
	p := bilinear(
		values[cell.corner(ch.faceVerts, 0)],
		values[cell.corner(ch.faceVerts, 1)],
		values[cell.corner(ch.faceVerts, 2)],
		values[cell.corner(ch.faceVerts, 3)],
		s, t)
	return mgl64.Vec2{p[0], p[1]}
}

func bilinear(a, b, c, d mgl64.Vec3, s, t float64) mgl64.Vec3 {
	return a.Mul((1 - s) * (1 - t)).
		Add(b.Mul(s * (1 - t))).
		Add(c.Mul(s * t)).
		Add(d.Mul((1 - s) * t))
}
