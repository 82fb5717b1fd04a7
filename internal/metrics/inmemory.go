package metrics

import (
	"sync"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	// GatewayCalls is keyed by "operation/outcome".
	GatewayCalls           map[string]uint64
	GatewayDurationTotalNs int64
	AuthFailures           map[string]uint64
	HTTPRequests           uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu                     sync.Mutex
	gatewayCalls           map[string]uint64
	gatewayDurationTotalNs int64
	authFailures           map[string]uint64
	httpRequests           uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		gatewayCalls: make(map[string]uint64),
		authFailures: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		GatewayCalls:           make(map[string]uint64, len(m.gatewayCalls)),
		GatewayDurationTotalNs: m.gatewayDurationTotalNs,
		AuthFailures:           make(map[string]uint64, len(m.authFailures)),
		HTTPRequests:           m.httpRequests,
	}
	for k, v := range m.gatewayCalls {
		snap.GatewayCalls[k] = v
	}
	for k, v := range m.authFailures {
		snap.AuthFailures[k] = v
	}
	return snap
}

// ObserveGatewayCall counts a gateway call by operation and outcome.
func (m *InMemoryRecorder) ObserveGatewayCall(operation, outcome string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gatewayCalls[operation+"/"+outcome]++
	m.gatewayDurationTotalNs += duration.Nanoseconds()
}

// IncAuthFailure counts a rejected request by reason.
func (m *InMemoryRecorder) IncAuthFailure(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authFailures[reason]++
}

// ObserveHTTPRequest counts a served request.
func (m *InMemoryRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.httpRequests++
}
