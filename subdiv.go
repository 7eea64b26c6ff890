package subdiv

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Subdiv is a subdivision surface descriptor: the refined topology of a
// base mesh for one set of settings, with an optional evaluator and
// displacement. The converter or mesh it was built from is not retained.
//
// A descriptor is built and updated from a single goroutine. Once EvalBegin
// and a refine have run, the Eval methods may be called concurrently.
type Subdiv struct {
	settings     Settings
	refiner      *TopologyRefiner
	evaluator    *Evaluator
	displacement *displacementLatch
	stats        *Stats

	freed bool
}

// NewFromConverter builds a descriptor for the topology read from conv.
func NewFromConverter(settings Settings, conv Converter) (*Subdiv, error) {
	return newFromConverter(settings, conv, NewStats())
}

// NewFromMesh builds a descriptor for a mesh.
func NewFromMesh(settings Settings, m *Mesh) (*Subdiv, error) {
	return NewFromConverter(settings, NewMeshConverter(m))
}

func newFromConverter(settings Settings, conv Converter, stats *Stats) (*Subdiv, error) {
	if err := settings.Validate(); err != nil {
		countDescriptor("failed")
		return nil, err
	}
	stats.Begin(StatsTopologyRefinerCreationTime)
	topo, err := extractTopology(settings, conv)
	if err != nil {
		stats.End(StatsTopologyRefinerCreationTime)
		countDescriptor("failed")
		return nil, err
	}
	s := build(settings, topo, stats)
	countDescriptor("created")
	return s, nil
}

// build finishes a descriptor. The refiner creation phase must be running
// on stats.
func build(settings Settings, topo *topology, stats *Stats) *Subdiv {
	refiner := newTopologyRefiner(settings, topo)
	stats.End(StatsTopologyRefinerCreationTime)
	Logger().Info("subdivision descriptor created",
		"faces", refiner.NumFaces(),
		"vertices", refiner.NumVertices(),
		"level", settings.Level,
		"ptex_faces", refiner.NumPtexFaces())
	return &Subdiv{
		settings: settings,
		refiner:  refiner,
		stats:    stats,
	}
}

// UpdateFromConverter returns a descriptor for settings and conv, reusing s
// when neither changed. Otherwise s is freed and a new descriptor is built
// that keeps the accumulated stats of s. A nil s behaves as
// NewFromConverter. On error s is freed and nil is returned.
func UpdateFromConverter(s *Subdiv, settings Settings, conv Converter) (*Subdiv, error) {
	if s == nil {
		return NewFromConverter(settings, conv)
	}
	s.checkAlive()

	s.stats.Begin(StatsTopologyCompare)
	topo, topoErr := extractTopology(settings, conv)
	same := topoErr == nil && s.refiner.matches(settings, topo)
	s.stats.End(StatsTopologyCompare)
	if same {
		Logger().Info("subdivision descriptor reused", "faces", s.refiner.NumFaces())
		countDescriptor("reused")
		return s, nil
	}

	stats := NewStats()
	stats.carryOver(s.stats)
	s.Free()
	if topoErr != nil {
		countDescriptor("failed")
		return nil, topoErr
	}
	if err := settings.Validate(); err != nil {
		countDescriptor("failed")
		return nil, err
	}
	stats.Begin(StatsTopologyRefinerCreationTime)
	rebuilt := build(settings, topo, stats)
	Logger().Info("subdivision descriptor rebuilt", "faces", rebuilt.refiner.NumFaces())
	countDescriptor("rebuilt")
	return rebuilt, nil
}

// UpdateFromMesh is UpdateFromConverter for a mesh.
func UpdateFromMesh(s *Subdiv, settings Settings, m *Mesh) (*Subdiv, error) {
	return UpdateFromConverter(s, settings, NewMeshConverter(m))
}

// Free releases the descriptor and its displacement. Any later use of s
// panics.
func (s *Subdiv) Free() {
	s.checkAlive()
	s.DetachDisplacement()
	s.refiner = nil
	s.evaluator = nil
	s.freed = true
}

func (s *Subdiv) checkAlive() {
	if s.freed {
		panic(freedMessage)
	}
}

func (s *Subdiv) Settings() Settings {
	s.checkAlive()
	return s.settings
}

func (s *Subdiv) TopologyRefiner() *TopologyRefiner {
	s.checkAlive()
	return s.refiner
}

// Stats returns the phase timings of the descriptor. Stats are not safe for
// concurrent use.
func (s *Subdiv) Stats() *Stats {
	s.checkAlive()
	return s.stats
}

// FacePtexOffsets returns, for every base face, the index of its first ptex
// face, followed by the total number of ptex faces. The slice belongs to
// the topology refiner and must not be modified.
func (s *Subdiv) FacePtexOffsets() []int {
	s.checkAlive()
	return s.refiner.ptexOffsets
}

// EvalBegin creates the evaluator if needed and initializes the attached
// displacement.
func (s *Subdiv) EvalBegin() error {
	s.checkAlive()
	if s.evaluator == nil {
		s.stats.Begin(StatsEvaluatorCreate)
		s.evaluator = newEvaluator(s.refiner)
		s.stats.End(StatsEvaluatorCreate)
	}
	if s.displacement != nil {
		s.displacement.initialize()
	}
	return nil
}

// EvalBeginFromMesh begins evaluation and refines it with the positions and
// UVs of m, which must have the topology the descriptor was built for.
func (s *Subdiv) EvalBeginFromMesh(m *Mesh) error {
	if err := s.EvalBegin(); err != nil {
		return err
	}
	if len(m.Positions) != s.refiner.NumVertices() {
		return fmt.Errorf("%w: mesh has %d vertices, topology has %d",
			ErrVertexCountMismatch, len(m.Positions), s.refiner.NumVertices())
	}
	conv := NewMeshConverter(m).(*meshConverter)
	if conv.NumUVLayers() < s.refiner.NumUVLayers() {
		return fmt.Errorf("%w: mesh has %d uv layers, topology has %d",
			ErrVertexCountMismatch, conv.NumUVLayers(), s.refiner.NumUVLayers())
	}
	for layer := 0; layer < s.refiner.NumUVLayers(); layer++ {
		values := conv.uvValues(layer)
		uvs := make([]mgl64.Vec2, len(values))
		for i, uv := range values {
			uvs[i] = mgl64.Vec2{uv[0], uv[1]}
		}
		if err := s.evaluator.SetCoarseUVs(layer, uvs); err != nil {
			return err
		}
	}
	return s.EvalRefineFromPositions(m.Positions)
}

// EvalRefineFromPositions refines the evaluator with new coarse positions,
// keeping the UVs set before.
func (s *Subdiv) EvalRefineFromPositions(positions []mgl64.Vec3) error {
	s.checkAlive()
	if s.evaluator == nil {
		return ErrNoEvaluator
	}
	if err := s.evaluator.SetCoarsePositions(positions); err != nil {
		return err
	}
	s.stats.Begin(StatsEvaluatorRefine)
	err := s.evaluator.Refine()
	s.stats.End(StatsEvaluatorRefine)
	return err
}

// Evaluator returns the evaluator, or nil before EvalBegin.
func (s *Subdiv) Evaluator() *Evaluator {
	s.checkAlive()
	return s.evaluator
}

func (s *Subdiv) refinedEvaluator() *Evaluator {
	s.checkAlive()
	if s.evaluator == nil || !s.evaluator.IsRefined() {
		panic(ErrNoEvaluator)
	}
	return s.evaluator
}

// EvalLimitPoint returns the surface point at (u, v) of a ptex face and its
// derivatives. It panics if the evaluator was not refined.
func (s *Subdiv) EvalLimitPoint(ptexFace int, u, v float64) (p, dPdu, dPdv mgl64.Vec3) {
	return s.refinedEvaluator().EvaluateLimit(ptexFace, u, v)
}

// EvalFinalPoint returns the displaced surface point.
func (s *Subdiv) EvalFinalPoint(ptexFace int, u, v float64) mgl64.Vec3 {
	p, dPdu, dPdv := s.EvalLimitPoint(ptexFace, u, v)
	return p.Add(s.EvalDisplacement(ptexFace, u, v, dPdu, dPdv))
}

// EvalFaceVarying returns the UV of a layer at a ptex face point.
func (s *Subdiv) EvalFaceVarying(layer, ptexFace int, u, v float64) mgl64.Vec2 {
	return s.refinedEvaluator().EvaluateFaceVarying(layer, ptexFace, u, v)
}
