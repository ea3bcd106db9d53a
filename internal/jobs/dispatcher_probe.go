package jobs

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"briefdesk/internal/dispatch"
	"briefdesk/internal/metrics"
)

// DispatcherProbe periodically pings the generation worker's health endpoint
// so operators can tell a down worker apart from a quiet one. The last result
// feeds /healthz and the reachability gauge; dispatch itself never consults
// it, the synchronous dispatch call is its own reachability check.
type DispatcherProbe struct {
	dispatcher  dispatch.Dispatcher
	interval    time.Duration
	reachable   atomic.Bool
	lastChecked atomic.Int64 // unix seconds, 0 until the first probe
}

// NewDispatcherProbe creates a probe with the given interval.
func NewDispatcherProbe(dispatcher dispatch.Dispatcher, interval time.Duration) *DispatcherProbe {
	return &DispatcherProbe{
		dispatcher: dispatcher,
		interval:   interval,
	}
}

// Start begins the probe loop and blocks until the context is cancelled.
func (p *DispatcherProbe) Start(ctx context.Context) {
	slog.Info("dispatcher probe started", "interval", p.interval)

	// Probe immediately on start
	p.check(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("dispatcher probe stopped")
			return
		case <-ticker.C:
			p.check(ctx)
		}
	}
}

func (p *DispatcherProbe) check(ctx context.Context) {
	err := p.dispatcher.Ping(ctx)
	up := err == nil

	was := p.reachable.Swap(up)
	p.lastChecked.Store(time.Now().Unix())
	metrics.SetDispatcherReachable(up)

	if up != was {
		if up {
			slog.Info("dispatcher reachable")
		} else {
			slog.Warn("dispatcher unreachable", "error", err)
		}
	}
}

// Reachable reports the last probe result.
func (p *DispatcherProbe) Reachable() bool {
	return p.reachable.Load()
}

// LastChecked returns the time of the last probe, zero before the first one.
func (p *DispatcherProbe) LastChecked() time.Time {
	secs := p.lastChecked.Load()
	if secs == 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0)
}
