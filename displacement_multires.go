package subdiv

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MultiresSettings selects the multires level grids are stored at.
type MultiresSettings struct {
	TotalLevels int
}

type ptexCorner struct {
	face   int
	corner int
	quad   bool
}

// multiresDisplacement evaluates tangent space displacement grids stored
// per face corner.
type multiresDisplacement struct {
	totalLevels int
	gridSize    int
	faceSizes   []int
	disps       [][]MDisps

	// evaluator returns the evaluator of the owning descriptor. Corner
	// grids of non-quad faces live on separate ptex faces, and their frames
	// are read from it.
	evaluator func() *Evaluator

	ptexFaces       []ptexCorner
	facePtexOffsets []int
}

// AttachMultiresDisplacement attaches the multires grids of m. A mesh
// without grids or zero total levels detaches any displacement instead.
// The grids are copied.
func (s *Subdiv) AttachMultiresDisplacement(m *Mesh, mmd MultiresSettings) {
	s.checkAlive()
	if mmd.TotalLevels <= 0 || m.Disps == nil {
		s.DetachDisplacement()
		return
	}
	d := &multiresDisplacement{
		totalLevels: mmd.TotalLevels,
		gridSize:    GridSizeFromLevel(mmd.TotalLevels),
		faceSizes:   make([]int, len(m.Faces)),
		disps:       copyDisps(m.Disps),
		evaluator:   func() *Evaluator { return s.evaluator },
	}
	for f, loop := range m.Faces {
		d.faceSizes[f] = len(loop)
	}
	s.AttachDisplacement(d)
}

func (d *multiresDisplacement) Initialize() error {
	if len(d.disps) != len(d.faceSizes) {
		return fmt.Errorf("%w: %d faces have grids, mesh has %d faces",
			ErrInvalidDisplacement, len(d.disps), len(d.faceSizes))
	}
	d.ptexFaces = d.ptexFaces[:0]
	d.facePtexOffsets = make([]int, len(d.faceSizes)+1)
	for f, n := range d.faceSizes {
		if len(d.disps[f]) != n {
			return fmt.Errorf("%w: face %d has %d grids for %d corners",
				ErrInvalidDisplacement, f, len(d.disps[f]), n)
		}
		for c, grid := range d.disps[f] {
			if grid.Level != d.totalLevels {
				return fmt.Errorf("%w: face %d corner %d is at level %d, expected %d",
					ErrInvalidDisplacement, f, c, grid.Level, d.totalLevels)
			}
			if len(grid.Displacements) != d.gridSize*d.gridSize {
				return fmt.Errorf("%w: face %d corner %d has %d values, expected %d",
					ErrInvalidDisplacement, f, c, len(grid.Displacements), d.gridSize*d.gridSize)
			}
		}
		if n == 4 {
			d.ptexFaces = append(d.ptexFaces, ptexCorner{face: f, quad: true})
		} else {
			for c := 0; c < n; c++ {
				d.ptexFaces = append(d.ptexFaces, ptexCorner{face: f, corner: c})
			}
		}
		d.facePtexOffsets[f+1] = len(d.ptexFaces)
	}
	Logger().Debug("multires displacement initialized", "levels", d.totalLevels, "ptex_faces", len(d.ptexFaces))
	return nil
}

func (d *multiresDisplacement) Free() {
	d.disps = nil
	d.ptexFaces = nil
	d.facePtexOffsets = nil
	d.evaluator = nil
}

func (d *multiresDisplacement) EvalDisplacement(ptexFace int, u, v float64, dPdu, dPdv mgl64.Vec3) mgl64.Vec3 {
	if ptexFace < 0 || ptexFace >= len(d.ptexFaces) {
		return mgl64.Vec3{}
	}
	pc := d.ptexFaces[ptexFace]
	corner := pc.corner
	var gu, gv float64
	if pc.quad {
		var cu, cv float64
		corner, cu, cv = RotateQuadToCorner(u, v)
		gu, gv = PtexFaceUVToGridUV(cu, cv)
	} else {
		gu, gv = PtexFaceUVToGridUV(u, v)
	}
	return d.averagedDisplacement(pc.face, corner, gu, gv, dPdu, dPdv)
}

// gridIndex returns the nearest grid point to a grid coordinate.
func (d *multiresDisplacement) gridIndex(g float64) int {
	i := int(math.Round(mgl64.Clamp(g, 0, 1) * float64(d.gridSize-1)))
	return min(max(i, 0), d.gridSize-1)
}

func (d *multiresDisplacement) sample(face, corner, x, y int) mgl64.Vec3 {
	return d.disps[face][corner].Displacements[y*d.gridSize+x]
}

// averagedDisplacement returns the object space displacement read from the
// grid of a corner. The grid's zero edges are shared with the neighbouring
// corners of the same face and the origin with all of them, so samples
// there are averaged with the neighbours' samples, each taken to object
// space in its own frame.
func (d *multiresDisplacement) averagedDisplacement(face, corner int, gu, gv float64, dPdu, dPdv mgl64.Vec3) mgl64.Vec3 {
	n := d.faceSizes[face]
	x, y := d.gridIndex(gu), d.gridIndex(gv)
	frame := 0
	if n == 4 {
		frame = corner
	}
	own := tangentMatrix(frame, dPdu, dPdv).Mul3x1(d.sample(face, corner, x, y))
	switch {
	case x == 0 && y == 0:
		sum := own
		for k := 1; k < n; k++ {
			sum = sum.Add(d.neighbourDisplacement(face, (corner+k)%n, 0, 0, 0, 0, dPdu, dPdv))
		}
		return sum.Mul(1 / float64(n))
	case x == 0:
		// (0, t) here is (t, 0) of the previous corner.
		prev := d.neighbourDisplacement(face, (corner+n-1)%n, y, 0, gv, gu, dPdu, dPdv)
		return own.Add(prev).Mul(0.5)
	case y == 0:
		// (t, 0) here is (0, t) of the next corner.
		next := d.neighbourDisplacement(face, (corner+1)%n, 0, x, gv, gu, dPdu, dPdv)
		return own.Add(next).Mul(0.5)
	}
	return own
}

// neighbourDisplacement converts sample (x, y) of another corner grid of
// the same face to object space. (gu, gv) is the point in that grid. The
// corners of a quad share one ptex face and so the derivatives at the
// point; other faces have a ptex face per corner, whose derivatives come
// from the evaluator.
func (d *multiresDisplacement) neighbourDisplacement(face, corner, x, y int, gu, gv float64, dPdu, dPdv mgl64.Vec3) mgl64.Vec3 {
	disp := d.sample(face, corner, x, y)
	if d.faceSizes[face] == 4 {
		return tangentMatrix(corner, dPdu, dPdv).Mul3x1(disp)
	}
	if e := d.evaluator(); e != nil && e.IsRefined() {
		u, v := GridUVToPtexFaceUV(gu, gv)
		_, dPdu, dPdv = e.EvaluateLimit(d.facePtexOffsets[face]+corner, u, v)
	}
	return tangentMatrix(0, dPdu, dPdv).Mul3x1(disp)
}

// tangentMatrix builds the frame a corner grid is stored in from the ptex
// derivatives at the evaluated point. Corners of a quad are rotated
// quarters of one ptex face; every other grid uses frame 0.
func tangentMatrix(corner int, dPdu, dPdv mgl64.Vec3) mgl64.Mat3 {
	var tu, tv mgl64.Vec3
	switch corner & 3 {
	case 0:
		tu, tv = dPdv.Mul(-1), dPdu.Mul(-1)
	case 1:
		tu, tv = dPdu, dPdv.Mul(-1)
	case 2:
		tu, tv = dPdv, dPdu
	default:
		tu, tv = dPdu.Mul(-1), dPdv
	}
	return mgl64.Mat3FromCols(safeNormalize(tu), safeNormalize(tv), safeNormalize(dPdu.Cross(dPdv)))
}

func safeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	if l := v.Len(); l > 0 {
		return v.Mul(1 / l)
	}
	return v
}
