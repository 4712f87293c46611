package connectivity

import (
	"context"
	"net"
	"time"

	"github.com/charmbracelet/log"
)

// Probe answers "is the platform online right now".
type Probe interface {
	Online(ctx context.Context) bool
}

// DialProbe treats the network as up when a TCP connection to Addr
// succeeds within Timeout.
type DialProbe struct {
	Addr    string
	Timeout time.Duration
}

func (p DialProbe) Online(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// StaticProbe always reports the same status; used for --offline and tests.
type StaticProbe bool

func (p StaticProbe) Online(context.Context) bool { return bool(p) }

// Watcher turns a Probe into edge-triggered platform signals: emit is
// called only when the probed status differs from the last one seen.
type Watcher struct {
	Probe    Probe
	Interval time.Duration
	Logger   *log.Logger
}

// Run probes every Interval until ctx is done. initial is the status the
// caller already knows about (usually the startup probe), so the first
// emitted signal is a real change.
func (w Watcher) Run(ctx context.Context, initial State, emit func(State)) {
	interval := w.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := initial
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := FromBool(w.Probe.Online(ctx))
			if ctx.Err() != nil {
				return
			}
			if cur == last {
				continue
			}
			if w.Logger != nil {
				w.Logger.Info("connectivity changed", "from", last, "to", cur)
			}
			last = cur
			emit(cur)
		}
	}
}

// Detect returns the platform's current status.
func Detect(ctx context.Context, p Probe) State {
	return FromBool(p.Online(ctx))
}
