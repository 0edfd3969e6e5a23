package crawler

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/toytoons/scraper/internal/telemetry"
)

// HostGate spaces requests to the same host by a random interval drawn from
// [delayMin, delayMax]. Callers targeting the same host serialize through the
// host's wait-then-stamp sequence; different hosts proceed in parallel.
type HostGate struct {
	mu    sync.Mutex
	hosts map[string]*hostState

	delayMin time.Duration
	delayMax time.Duration
	clock    Clock
	// randFloat and sleep are injection points for tests.
	randFloat func() float64
	sleep     func(ctx context.Context, d time.Duration) error
}

type hostState struct {
	mu   sync.Mutex
	last time.Time
}

// NewHostGate constructs a gate for one crawl run.
func NewHostGate(delayMin, delayMax time.Duration, clock Clock) *HostGate {
	if clock == nil {
		clock = SystemClock{}
	}
	if delayMax < delayMin {
		delayMax = delayMin
	}
	return &HostGate{
		hosts:     make(map[string]*hostState),
		delayMin:  delayMin,
		delayMax:  delayMax,
		clock:     clock,
		randFloat: rand.Float64,
		sleep:     sleepCtx,
	}
}

// WaitSlot blocks until the politeness interval since the host's last request
// has elapsed, then records now as the new last-request time. Each call draws
// its interval independently.
func (g *HostGate) WaitSlot(ctx context.Context, host string) error {
	state := g.state(host)

	// Holding the per-host lock across the wait serializes concurrent
	// callers so only one can observe and stamp the timestamp at a time.
	state.mu.Lock()
	defer state.mu.Unlock()

	if !state.last.IsZero() {
		delay := g.drawDelay()
		elapsed := g.clock.Now().Sub(state.last)
		if remaining := delay - elapsed; remaining > 0 {
			telemetry.ObservePolitenessWait(remaining)
			if err := g.sleep(ctx, remaining); err != nil {
				return err
			}
		}
	}
	state.last = g.clock.Now()
	return nil
}

func (g *HostGate) state(host string) *hostState {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.hosts[host]
	if !ok {
		s = &hostState{}
		g.hosts[host] = s
	}
	return s
}

func (g *HostGate) drawDelay() time.Duration {
	span := g.delayMax - g.delayMin
	if span <= 0 {
		return g.delayMin
	}
	return g.delayMin + time.Duration(g.randFloat()*float64(span))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
