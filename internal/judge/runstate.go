package judge

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"localjudge/internal/monitor"
)

type runState struct {
	cancel   context.CancelFunc
	inFlight int
}

// RunManager enforces one live judge run per source file: starting a new run
// for a source cancels the previous one, and a run can be stopped
// explicitly. Runs for different sources are independent.
type RunManager struct {
	metrics *monitor.Metrics

	mu   sync.Mutex
	runs map[string]*runState
}

// NewRunManager creates a RunManager. metrics may be nil.
func NewRunManager(metrics *monitor.Metrics) *RunManager {
	return &RunManager{
		metrics: metrics,
		runs:    make(map[string]*runState),
	}
}

// Begin registers a run for sourcePath, cancelling any run already live for
// it, and returns the context the run must use plus a completion callback.
// The callback must be called exactly once, whether the run finished or was
// cancelled.
func (m *RunManager) Begin(ctx context.Context, sourcePath string) (context.Context, func()) {
	runCtx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	st, ok := m.runs[sourcePath]
	if ok && st.cancel != nil {
		log.Debug().Str("source", sourcePath).Msg("superseding in-flight run")
		st.cancel()
	}
	if !ok {
		st = &runState{}
		m.runs[sourcePath] = st
	}
	st.cancel = cancel
	st.inFlight++
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ActiveRuns.Inc()
	}

	var once sync.Once
	done := func() {
		once.Do(func() {
			cancel()
			m.mu.Lock()
			st.inFlight--
			if st.inFlight == 0 {
				delete(m.runs, sourcePath)
			}
			m.mu.Unlock()
			if m.metrics != nil {
				m.metrics.ActiveRuns.Dec()
			}
		})
	}
	return runCtx, done
}

// Stop cancels the live run for sourcePath, if any, and reports whether one
// was found.
func (m *RunManager) Stop(sourcePath string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.runs[sourcePath]
	if !ok || st.cancel == nil {
		return false
	}
	st.cancel()
	return true
}

// StopAll cancels every live run. Used during shutdown.
func (m *RunManager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.runs {
		if st.cancel != nil {
			st.cancel()
		}
	}
}

// Active returns the number of sources with in-flight runs.
func (m *RunManager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs)
}
