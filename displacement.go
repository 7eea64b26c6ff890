package subdiv

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Displacement offsets the limit surface. Initialize is called once, lazily,
// before the first EvalDisplacement; after that EvalDisplacement may be
// called from many goroutines at once.
type Displacement interface {
	Initialize() error
	// EvalDisplacement returns the object space offset at a ptex face
	// point, given the surface derivatives there.
	EvalDisplacement(ptexFace int, u, v float64, dPdu, dPdv mgl64.Vec3) mgl64.Vec3
	Free()
}

// displacementLatch runs Initialize exactly once and publishes its result
// to every goroutine that evaluates afterwards.
type displacementLatch struct {
	impl  Displacement
	once  sync.Once
	ready bool
}

func (l *displacementLatch) initialize() bool {
	l.once.Do(func() {
		if err := l.impl.Initialize(); err != nil {
			Logger().Warn("displacement initialization failed, displacement disabled", "err", err)
			return
		}
		l.ready = true
	})
	return l.ready
}

func (l *displacementLatch) eval(ptexFace int, u, v float64, dPdu, dPdv mgl64.Vec3) mgl64.Vec3 {
	if !l.initialize() {
		return mgl64.Vec3{}
	}
	return l.impl.EvalDisplacement(ptexFace, u, v, dPdu, dPdv)
}

// AttachDisplacement attaches d, replacing and freeing any displacement
// attached before. A nil d detaches.
func (s *Subdiv) AttachDisplacement(d Displacement) {
	s.checkAlive()
	s.DetachDisplacement()
	if d == nil {
		return
	}
	s.displacement = &displacementLatch{impl: d}
}

// DetachDisplacement frees the attached displacement, if any.
func (s *Subdiv) DetachDisplacement() {
	s.checkAlive()
	if s.displacement == nil {
		return
	}
	s.displacement.impl.Free()
	s.displacement = nil
}

func (s *Subdiv) HasDisplacement() bool {
	s.checkAlive()
	return s.displacement != nil
}

// EvalDisplacement returns the displacement at a ptex face point, or the
// zero vector when nothing is attached or initialization failed.
func (s *Subdiv) EvalDisplacement(ptexFace int, u, v float64, dPdu, dPdv mgl64.Vec3) mgl64.Vec3 {
	s.checkAlive()
	if s.displacement == nil {
		return mgl64.Vec3{}
	}
	return s.displacement.eval(ptexFace, u, v, dPdu, dPdv)
}
