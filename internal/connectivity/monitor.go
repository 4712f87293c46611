// Package connectivity tracks whether the platform currently reports the
// network as reachable.
//
// A Monitor is a two-state machine driven only by signals handed to Set.
// It never probes the network itself; a Watcher (or a test) produces the
// signals.
package connectivity

import "sync"

type State int

const (
	Offline State = iota
	Online
)

func (s State) String() string {
	if s == Online {
		return "online"
	}
	return "offline"
}

// FromBool maps a platform "is online" flag to a State.
func FromBool(online bool) State {
	if online {
		return Online
	}
	return Offline
}

type Monitor struct {
	mu       sync.Mutex
	state    State
	onOnline func()
}

// NewMonitor starts in the state the platform reported at startup.
func NewMonitor(initial State) *Monitor {
	return &Monitor{state: initial}
}

// OnOnline sets the callback run on every Offline→Online transition.
// There is one slot: a second call replaces the first callback.
func (m *Monitor) OnOnline(fn func()) {
	m.mu.Lock()
	m.onOnline = fn
	m.mu.Unlock()
}

func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Monitor) Online() bool { return m.State() == Online }

// Set applies a platform signal and reports whether it changed the state.
// Repeated signals for the current state are ignored. The reconnect
// callback runs after the lock is released, once per transition.
func (m *Monitor) Set(s State) bool {
	m.mu.Lock()
	if m.state == s {
		m.mu.Unlock()
		return false
	}
	m.state = s
	fn := m.onOnline
	m.mu.Unlock()

	if s == Online && fn != nil {
		fn()
	}
	return true
}
