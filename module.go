package subdiv

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// phaseDuration tracks completed stats phases of all descriptors.
	phaseDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "subdiv_phase_duration_seconds",
		Help:    "Duration of subdivision surface phases in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
	}, []string{"phase"})

	// descriptorTotal counts descriptor construction outcomes.
	descriptorTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "subdiv_descriptor_total",
		Help: "Subdivision descriptors by construction result",
	}, []string{"result"}) // created, reused, rebuilt, failed
)

var module struct {
	mu         sync.Mutex
	registerer prometheus.Registerer
}

// Init sets up process wide state: it registers the package metrics with
// reg. It is meant to be called once by the hosting application; calling it
// again without Exit is a no-op. A nil reg uses the default registerer.
func Init(reg prometheus.Registerer) error {
	module.mu.Lock()
	defer module.mu.Unlock()

	if module.registerer != nil {
		return nil
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := reg.Register(phaseDuration); err != nil {
		return err
	}
	if err := reg.Register(descriptorTotal); err != nil {
		reg.Unregister(phaseDuration)
		return err
	}
	module.registerer = reg
	Logger().Info("subdiv module initialized")
	return nil
}

// Exit tears down what Init set up.
func Exit() {
	module.mu.Lock()
	defer module.mu.Unlock()

	if module.registerer == nil {
		return
	}
	module.registerer.Unregister(phaseDuration)
	module.registerer.Unregister(descriptorTotal)
	module.registerer = nil
	Logger().Info("subdiv module exited")
}

func moduleInitialized() bool {
	module.mu.Lock()
	defer module.mu.Unlock()
	return module.registerer != nil
}

func observePhase(value StatsValue, elapsed time.Duration) {
	if !moduleInitialized() {
		return
	}
	phaseDuration.WithLabelValues(value.String()).Observe(elapsed.Seconds())
}

func countDescriptor(result string) {
	if !moduleInitialized() {
		return
	}
	descriptorTotal.WithLabelValues(result).Inc()
}
