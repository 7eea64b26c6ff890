package subdiv

import "errors"

var (
	// ErrInvalidTopology is returned when the base mesh cannot be represented
	// by the refiner (degenerate faces, non-manifold edges, flipped winding).
	ErrInvalidTopology = errors.New("subdiv: invalid topology")

	// ErrInvalidSettings is returned for out of range settings.
	ErrInvalidSettings = errors.New("subdiv: invalid settings")

	// ErrVertexCountMismatch is returned when coarse positions do not match
	// the topology the descriptor was built for.
	ErrVertexCountMismatch = errors.New("subdiv: coarse vertex count mismatch")

	// ErrNoEvaluator is returned by consumers when evaluation was requested
	// before the evaluator was refined with coarse positions.
	ErrNoEvaluator = errors.New("subdiv: evaluator is not refined")

	// ErrInvalidDisplacement is returned by displacement initialization when
	// the attached data does not match the mesh.
	ErrInvalidDisplacement = errors.New("subdiv: invalid displacement data")
)

const freedMessage = "subdiv: use of freed descriptor"
