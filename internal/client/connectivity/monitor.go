// Package connectivity tracks whether the remote store is reachable and
// notifies listeners when the client comes back online.
package connectivity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/stockcounter/internal/logging"
)

// Prober checks reachability of the remote side.
type Prober interface {
	Ping(ctx context.Context) error
}

// Handler runs on every offline → online transition.
type Handler func(ctx context.Context)

// Monitor holds a binary online/offline state. The state changes either
// through Run, which polls a Prober on an interval, or through SetOnline.
// Handlers fire only on the offline → online edge, never on a schedule.
type Monitor struct {
	prober       Prober
	interval     time.Duration
	probeTimeout time.Duration
	log          logging.Logger

	online atomic.Bool

	mu       sync.Mutex
	handlers []Handler
}

const defaultProbeTimeout = 3 * time.Second

// NewMonitor returns a monitor that starts offline.
func NewMonitor(p Prober, interval time.Duration, log logging.Logger) *Monitor {
	return &Monitor{
		prober:       p,
		interval:     interval,
		probeTimeout: defaultProbeTimeout,
		log:          log.With("component", "connectivity"),
	}
}

func (m *Monitor) IsOnline() bool {
	return m.online.Load()
}

// OnOnline registers h to run on each offline → online transition.
func (m *Monitor) OnOnline(h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, h)
}

// SetOnline records the new state and reports whether it changed. On an
// offline → online edge the handlers run synchronously, in registration order.
func (m *Monitor) SetOnline(ctx context.Context, online bool) bool {
	prev := m.online.Swap(online)
	if prev == online {
		return false
	}

	if online {
		m.log.Info(ctx, "switched to online mode")
		m.mu.Lock()
		hs := append([]Handler(nil), m.handlers...)
		m.mu.Unlock()
		for _, h := range hs {
			h(ctx)
		}
	} else {
		m.log.Warn(ctx, "switched to offline mode")
	}
	return true
}

// Check probes once and updates the state. It returns the new state.
func (m *Monitor) Check(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	err := m.prober.Ping(pctx)
	cancel()

	if err != nil {
		m.log.Debug(ctx, "probe failed", "error", err)
	}
	m.SetOnline(ctx, err == nil)
	return err == nil
}

// Run probes immediately and then on every tick until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Start runs the monitor in a goroutine. The returned stop function cancels
// it and waits for the goroutine to exit.
func (m *Monitor) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}
