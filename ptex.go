package subdiv

import "math"

// PtexFaceUVToGridUV maps (u, v) within a ptex face to the coordinate within
// the corner grid. The grid origin is at the face center.
func PtexFaceUVToGridUV(ptexU, ptexV float64) (gridU, gridV float64) {
	return 1.0 - ptexV, 1.0 - ptexU
}

// GridUVToPtexFaceUV is the inverse of PtexFaceUVToGridUV.
func GridUVToPtexFaceUV(gridU, gridV float64) (ptexU, ptexV float64) {
	return 1.0 - gridV, 1.0 - gridU
}

// GridSizeFromLevel returns the number of grid points on a side of a grid
// of the given subdivision level.
func GridSizeFromLevel(level int) int {
	return (1 << level) + 1
}

// RotateQuadToCorner converts normalized quad coordinates into the corner
// they fall into and the ptex coordinates within that corner. Only defined
// for quads.
func RotateQuadToCorner(quadU, quadV float64) (corner int, cornerU, cornerV float64) {
	switch {
	case quadU <= 0.5 && quadV <= 0.5:
		return 0, 2.0 * quadU, 2.0 * quadV
	case quadU > 0.5 && quadV <= 0.5:
		return 1, 2.0 * quadV, 2.0 * (1.0 - quadU)
	case quadU > 0.5 && quadV > 0.5:
		return 2, 2.0 * (1.0 - quadU), 2.0 * (1.0 - quadV)
	default:
		return 3, 2.0 * (1.0 - quadV), 2.0 * quadU
	}
}

// RotateGridToQuad converts (u, v) within the grid of a corner to the
// normalized ptex coordinates of the quad. Corner grids meet along their
// zero edges: the point (t, 0) of corner c is the point (0, t) of corner
// c+1.
func RotateGridToQuad(corner int, gridU, gridV float64) (quadU, quadV float64) {
	switch corner & 3 {
	case 0:
		return 0.5 - gridV*0.5, 0.5 - gridU*0.5
	case 1:
		return 0.5 + gridU*0.5, 0.5 - gridV*0.5
	case 2:
		return 0.5 + gridV*0.5, 0.5 + gridU*0.5
	default:
		return 0.5 - gridU*0.5, 0.5 + gridV*0.5
	}
}

// maxSharpness is the sharpness of a fully creased edge.
const maxSharpness = 10.0

// CreaseToSharpness converts an edge crease in [0, 1] to refiner sharpness.
func CreaseToSharpness(crease float64) float64 {
	return crease * crease * maxSharpness
}

// SharpnessToCrease converts refiner sharpness back to a crease. Values
// past the saturation point map to a crease of 1.
func SharpnessToCrease(sharpness float64) float64 {
	if sharpness <= 0 {
		return 0
	}
	if sharpness >= maxSharpness {
		return 1
	}
	return math.Sqrt(sharpness / maxSharpness)
}
