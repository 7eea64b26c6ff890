package subdiv

import "math"

type levelEdge struct {
	verts     Edge
	faces     []int
	sharpness float64
}

// boundary edges have anything but two incident faces. Face-varying levels
// are not required to be manifold, so more than two faces is also treated
// as a boundary.
func (e *levelEdge) boundary() bool { return len(e.faces) != 2 }

func (e *levelEdge) other(v int) int {
	if e.verts[0] == v {
		return e.verts[1]
	}
	return e.verts[0]
}

// refineLevel is one level of the refinement hierarchy with the adjacency
// the subdivision rules need.
type refineLevel struct {
	numVerts  int
	faceVerts [][]int

	edges     []levelEdge
	edgeIndex map[Edge]int
	// faceEdges[f][k] is the edge from corner k to corner k+1.
	faceEdges [][]int
	vertFaces [][]int
	vertEdges [][]int

	vertSharpness []float64
}

func newRefineLevel(numVerts int, faceVerts [][]int) *refineLevel {
	l := &refineLevel{
		numVerts:      numVerts,
		faceVerts:     faceVerts,
		edgeIndex:     make(map[Edge]int),
		faceEdges:     make([][]int, len(faceVerts)),
		vertFaces:     make([][]int, numVerts),
		vertEdges:     make([][]int, numVerts),
		vertSharpness: make([]float64, numVerts),
	}
	for f, verts := range faceVerts {
		l.faceEdges[f] = make([]int, len(verts))
		for k, a := range verts {
			b := verts[(k+1)%len(verts)]
			key := MakeEdge(a, b)
			e, found := l.edgeIndex[key]
			if !found {
				e = len(l.edges)
				l.edges = append(l.edges, levelEdge{verts: key})
				l.edgeIndex[key] = e
				l.vertEdges[key[0]] = append(l.vertEdges[key[0]], e)
				if key[1] != key[0] {
					l.vertEdges[key[1]] = append(l.vertEdges[key[1]], e)
				}
			}
			l.edges[e].faces = append(l.edges[e].faces, f)
			l.faceEdges[f][k] = e
			l.vertFaces[a] = append(l.vertFaces[a], f)
		}
	}
	return l
}

func (l *refineLevel) numFaces() int { return len(l.faceVerts) }

// refineRules selects the subdivision rules of one channel.
type refineRules struct {
	linear bool
	// cornerBoundary keeps boundary vertices of a single face in place.
	cornerBoundary bool
	// fixBoundary keeps every boundary vertex in place.
	fixBoundary bool
}

type vertexRule int

const (
	ruleSmooth vertexRule = iota
	ruleCrease
	ruleCorner
)

type vertexClass struct {
	rule vertexRule
	ends [2]int
}

// classify picks the rule of vertex v, counting edges sharper than
// threshold as sharp. Boundary edges are infinitely sharp.
func (l *refineLevel) classify(v int, rules refineRules, threshold float64) vertexClass {
	faces := l.vertFaces[v]
	if len(faces) == 0 || l.vertSharpness[v] > threshold {
		return vertexClass{rule: ruleCorner}
	}
	var c vertexClass
	boundary := false
	sharp := 0
	for _, e := range l.vertEdges[v] {
		edge := &l.edges[e]
		isBoundary := edge.boundary()
		if isBoundary {
			boundary = true
		}
		if isBoundary || edge.sharpness > threshold {
			if sharp < 2 {
				c.ends[sharp] = edge.other(v)
			}
			sharp++
		}
	}
	if boundary && (rules.fixBoundary || (rules.cornerBoundary && len(faces) == 1)) {
		return vertexClass{rule: ruleCorner}
	}
	switch {
	case sharp > 2:
		return vertexClass{rule: ruleCorner}
	case sharp == 2:
		c.rule = ruleCrease
		return c
	default:
		return vertexClass{rule: ruleSmooth}
	}
}

// transitionWeight is the fraction of the sharp rule used for a vertex
// whose rule changes during this refinement step.
func (l *refineLevel) transitionWeight(v int) float64 {
	sum, n := 0.0, 0
	if s := l.vertSharpness[v]; s > 0 && s <= 1 {
		sum += s
		n++
	}
	for _, e := range l.vertEdges[v] {
		edge := &l.edges[e]
		if !edge.boundary() && edge.sharpness > 0 && edge.sharpness <= 1 {
			sum += edge.sharpness
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return math.Min(sum/float64(n), 1)
}

func (l *refineLevel) addFaceCenter(sb *stencilBuilder, f int, weight float64) {
	verts := l.faceVerts[f]
	w := weight / float64(len(verts))
	for _, u := range verts {
		sb.add(u, w)
	}
}

func (l *refineLevel) addVertexRule(sb *stencilBuilder, v int, c vertexClass, weight float64) {
	switch c.rule {
	case ruleCorner:
		sb.add(v, weight)
	case ruleCrease:
		sb.add(v, weight*6.0/8.0)
		sb.add(c.ends[0], weight/8.0)
		sb.add(c.ends[1], weight/8.0)
	default:
		edges := l.vertEdges[v]
		faces := l.vertFaces[v]
		n := float64(len(edges))
		sb.add(v, weight*(n-3)/n)
		for _, f := range faces {
			l.addFaceCenter(sb, f, weight/(n*float64(len(faces))))
		}
		for _, e := range edges {
			w := weight / (n * n)
			sb.add(v, w)
			sb.add(l.edges[e].other(v), w)
		}
	}
}

func (l *refineLevel) vertexStencil(sb *stencilBuilder, v int, rules refineRules) {
	if rules.linear {
		sb.add(v, 1)
		return
	}
	parent := l.classify(v, rules, 0)
	child := l.classify(v, rules, 1)
	if parent == child {
		l.addVertexRule(sb, v, parent, 1)
		return
	}
	w := l.transitionWeight(v)
	l.addVertexRule(sb, v, parent, w)
	l.addVertexRule(sb, v, child, 1-w)
}

func (l *refineLevel) edgeStencil(sb *stencilBuilder, e int, rules refineRules) {
	edge := &l.edges[e]
	a, b := edge.verts[0], edge.verts[1]
	s := edge.sharpness
	if rules.linear || edge.boundary() || s >= 1 {
		sb.add(a, 0.5)
		sb.add(b, 0.5)
		return
	}
	smooth := 1 - s
	sb.add(a, 0.5*s+0.25*smooth)
	sb.add(b, 0.5*s+0.25*smooth)
	l.addFaceCenter(sb, edge.faces[0], 0.25*smooth)
	l.addFaceCenter(sb, edge.faces[1], 0.25*smooth)
}

// limitStencil projects vertex v of the last level onto the limit surface.
// All faces past level 0 are quads.
func (l *refineLevel) limitStencil(sb *stencilBuilder, v int, rules refineRules) {
	if rules.linear {
		sb.add(v, 1)
		return
	}
	c := l.classify(v, rules, 0)
	switch c.rule {
	case ruleCorner:
		sb.add(v, 1)
	case ruleCrease:
		sb.add(v, 4.0/6.0)
		sb.add(c.ends[0], 1.0/6.0)
		sb.add(c.ends[1], 1.0/6.0)
	default:
		n := float64(len(l.vertEdges[v]))
		sb.add(v, n*n)
		for _, e := range l.vertEdges[v] {
			sb.add(l.edges[e].other(v), 4)
		}
		for _, f := range l.vertFaces[v] {
			verts := l.faceVerts[f]
			if len(verts) != 4 {
				l.addFaceCenter(sb, f, 1)
				continue
			}
			for k, u := range verts {
				if u == v {
					sb.add(verts[(k+2)%4], 1)
					break
				}
			}
		}
		sb.normalize()
	}
}

// refine builds the next level and the stencils producing its vertices
// from the vertices of l. Child vertices are ordered face points, edge
// points, vertex points. Child face k of face f is
// [V(k), E(k, k+1), F(f), E(k-1, k)].
func (l *refineLevel) refine(rules refineRules) (*refineLevel, *stencilTable) {
	numFaces, numEdges := len(l.faceVerts), len(l.edges)
	edgeBase := numFaces
	vertBase := numFaces + numEdges
	numChildVerts := vertBase + l.numVerts

	st := newStencilTable(numChildVerts)
	var sb stencilBuilder
	for f := range l.faceVerts {
		l.addFaceCenter(&sb, f, 1)
		sb.flush(st)
	}
	for e := range l.edges {
		l.edgeStencil(&sb, e, rules)
		sb.flush(st)
	}
	for v := 0; v < l.numVerts; v++ {
		l.vertexStencil(&sb, v, rules)
		sb.flush(st)
	}

	numChildFaces := 0
	for _, verts := range l.faceVerts {
		numChildFaces += len(verts)
	}
	childFaces := make([][]int, 0, numChildFaces)
	for f, verts := range l.faceVerts {
		n := len(verts)
		for k, v := range verts {
			childFaces = append(childFaces, []int{
				vertBase + v,
				edgeBase + l.faceEdges[f][k],
				f,
				edgeBase + l.faceEdges[f][(k+n-1)%n],
			})
		}
	}

	child := newRefineLevel(numChildVerts, childFaces)
	for e := range l.edges {
		s := l.edges[e].sharpness - 1
		if s <= 0 {
			continue
		}
		mid := edgeBase + e
		for _, end := range l.edges[e].verts {
			if ce, found := child.edgeIndex[MakeEdge(mid, vertBase+end)]; found {
				child.edges[ce].sharpness = s
			}
		}
	}
	for v, s := range l.vertSharpness {
		if s > 1 {
			child.vertSharpness[vertBase+v] = s - 1
		}
	}
	return child, st
}

// limitStencils builds the projection of every vertex of l onto the limit
// surface.
func (l *refineLevel) limitStencils(rules refineRules) *stencilTable {
	st := newStencilTable(l.numVerts)
	var sb stencilBuilder
	for v := 0; v < l.numVerts; v++ {
		l.limitStencil(&sb, v, rules)
		sb.flush(st)
	}
	return st
}
