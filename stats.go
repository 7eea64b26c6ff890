package subdiv

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// StatsValue names one timed phase.
type StatsValue int

const (
	// StatsTopologyRefinerCreationTime covers the conversion of the base mesh
	// and the construction of all refinement levels.
	StatsTopologyRefinerCreationTime StatsValue = iota
	// StatsSubdivToMesh is the total time spent in ToMesh.
	StatsSubdivToMesh
	// StatsSubdivToMeshGeometry is the vertex evaluation part of ToMesh.
	StatsSubdivToMeshGeometry
	// StatsEvaluatorCreate is the evaluator creation from the refiner.
	StatsEvaluatorCreate
	// StatsEvaluatorRefine is the time spent pushing coarse positions
	// through the refinement stencils.
	StatsEvaluatorRefine
	// StatsSubdivToCCG is the total time spent in ToCCG.
	StatsSubdivToCCG
	// StatsSubdivToCCGElements is the grid element evaluation part of ToCCG.
	StatsSubdivToCCGElements
	// StatsTopologyCompare is the reuse check of the Update functions.
	StatsTopologyCompare

	numStatsValues
)

var statsLabels = [numStatsValues]string{
	"Topology refiner creation time",
	"Subdivision to mesh time",
	"    Geometry time",
	"Evaluator creation time",
	"Evaluator refine time",
	"Subdivision to CCG time",
	"    Elements time",
	"Topology compare time",
}

var statsMetricNames = [numStatsValues]string{
	"topology_refiner_creation",
	"subdiv_to_mesh",
	"subdiv_to_mesh_geometry",
	"evaluator_create",
	"evaluator_refine",
	"subdiv_to_ccg",
	"subdiv_to_ccg_elements",
	"topology_compare",
}

func (v StatsValue) String() string {
	if v < 0 || v >= numStatsValues {
		return fmt.Sprintf("StatsValue(%d)", int(v))
	}
	return statsMetricNames[v]
}

// Stats accumulates phase durations of one descriptor. It is not safe for
// concurrent use.
type Stats struct {
	values [numStatsValues]time.Duration
	begin  [numStatsValues]time.Time

	now func() time.Time
}

// NewStats returns zeroed stats.
func NewStats() *Stats {
	return &Stats{now: time.Now}
}

func (s *Stats) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// Begin records the start of a phase. Beginning a phase that is already
// running keeps the original start time.
func (s *Stats) Begin(value StatsValue) {
	if s.begin[value].IsZero() {
		s.begin[value] = s.clock()
		return
	}
	Logger().Warn("stats phase begun twice", "phase", value.String())
}

// End adds the time elapsed since the matching Begin to the phase. End
// without a Begin does nothing.
func (s *Stats) End(value StatsValue) {
	start := s.begin[value]
	if start.IsZero() {
		Logger().Warn("stats phase ended without begin", "phase", value.String())
		return
	}
	elapsed := s.clock().Sub(start)
	s.values[value] += elapsed
	s.begin[value] = time.Time{}
	observePhase(value, elapsed)
	Logger().Debug("stats phase", "phase", value.String(), "elapsed", elapsed)
}

// Reset zeroes the accumulated value of one phase.
func (s *Stats) Reset(value StatsValue) {
	s.values[value] = 0
}

// Value returns the accumulated duration of a phase.
func (s *Stats) Value(value StatsValue) time.Duration {
	return s.values[value]
}

func (s *Stats) TopologyRefinerCreationTime() time.Duration {
	return s.values[StatsTopologyRefinerCreationTime]
}

func (s *Stats) SubdivToMeshTime() time.Duration { return s.values[StatsSubdivToMesh] }

func (s *Stats) SubdivToMeshGeometryTime() time.Duration {
	return s.values[StatsSubdivToMeshGeometry]
}

func (s *Stats) EvaluatorCreationTime() time.Duration { return s.values[StatsEvaluatorCreate] }

func (s *Stats) EvaluatorRefineTime() time.Duration { return s.values[StatsEvaluatorRefine] }

func (s *Stats) SubdivToCCGTime() time.Duration { return s.values[StatsSubdivToCCG] }

func (s *Stats) SubdivToCCGElementsTime() time.Duration {
	return s.values[StatsSubdivToCCGElements]
}

func (s *Stats) TopologyCompareTime() time.Duration { return s.values[StatsTopologyCompare] }

// Print writes a human readable report of all phases.
func (s *Stats) Print(w io.Writer) error {
	_, err := io.WriteString(w, s.String())
	return err
}

func (s *Stats) String() string {
	var b strings.Builder
	b.WriteString("Subdivision surface statistics:\n")
	for i, label := range statsLabels {
		fmt.Fprintf(&b, "%s: %fs\n", label, s.values[i].Seconds())
	}
	return b.String()
}

// carryOver copies the accumulators of another Stats. Running phases are
// not carried.
func (s *Stats) carryOver(other *Stats) {
	s.values = other.values
}
