package subdiv

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// stencilTable expresses every destination point as a weighted sum of
// source points. Stencil i covers indices[offsets[i]:offsets[i+1]].
type stencilTable struct {
	offsets []int
	indices []int
	weights []float64
}

func newStencilTable(capacity int) *stencilTable {
	return &stencilTable{offsets: make([]int, 1, capacity+1)}
}

func (st *stencilTable) numStencils() int { return len(st.offsets) - 1 }

// apply evaluates all stencils. dst must have numStencils entries.
func (st *stencilTable) apply(src, dst []mgl64.Vec3) {
	for i := range dst {
		var p mgl64.Vec3
		for k := st.offsets[i]; k < st.offsets[i+1]; k++ {
			p = p.Add(src[st.indices[k]].Mul(st.weights[k]))
		}
		dst[i] = p
	}
}

// stencilBuilder accumulates the weights of one stencil. Stencils are
// small, so a linear scan beats a map.
type stencilBuilder struct {
	indices []int
	weights []float64
}

func (sb *stencilBuilder) reset() {
	sb.indices = sb.indices[:0]
	sb.weights = sb.weights[:0]
}

func (sb *stencilBuilder) add(index int, weight float64) {
	if weight == 0 {
		return
	}
	for i, existing := range sb.indices {
		if existing == index {
			sb.weights[i] += weight
			return
		}
	}
	sb.indices = append(sb.indices, index)
	sb.weights = append(sb.weights, weight)
}

func (sb *stencilBuilder) normalize() {
	total := 0.0
	for _, w := range sb.weights {
		total += w
	}
	if total == 0 {
		return
	}
	for i := range sb.weights {
		sb.weights[i] /= total
	}
}

func (sb *stencilBuilder) Len() int           { return len(sb.indices) }
func (sb *stencilBuilder) Less(i, j int) bool { return sb.indices[i] < sb.indices[j] }
func (sb *stencilBuilder) Swap(i, j int) {
	sb.indices[i], sb.indices[j] = sb.indices[j], sb.indices[i]
	sb.weights[i], sb.weights[j] = sb.weights[j], sb.weights[i]
}

// flush appends the accumulated stencil to the table, sorted by source
// index so tables are deterministic, and resets the builder.
func (sb *stencilBuilder) flush(st *stencilTable) {
	sort.Sort(sb)
	st.indices = append(st.indices, sb.indices...)
	st.weights = append(st.weights, sb.weights...)
	st.offsets = append(st.offsets, len(st.indices))
	sb.reset()
}
