// Package poller provides cancellable recurring refresh tasks. Each poller is
// tied to a gating condition by its owner: when the condition becomes false
// the owner stops the poller, and a stopped poller never fires again.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/fieldline/dispatch/core/logger"
)

// Task is the recurring work invoked by a Poller.
type Task func(ctx context.Context)

// Poller runs a task at a fixed interval while started. Start and Stop are
// idempotent and safe for concurrent use.
type Poller struct {
	name     string
	interval time.Duration
	task     Task
	log      logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Poller. The task runs once immediately on Start and then on
// every interval tick.
func New(name string, interval time.Duration, task Task, log logger.Logger) *Poller {
	return &Poller{name: name, interval: interval, task: task, log: log}
}

// Start launches the polling goroutine. It is a no-op when already running.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.log.Debugf("%s poller started, interval %s", p.name, p.interval)
	go func() {
		defer close(done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		p.task(runCtx)
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				p.task(runCtx)
			}
		}
	}()
}

// Stop cancels the polling goroutine and waits for it to exit. It is a no-op
// when not running.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.log.Debugf("%s poller stopped", p.name)
}

// Running reports whether the poller is currently active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Apply starts or stops the poller to match the gating condition.
func (p *Poller) Apply(ctx context.Context, gate bool) {
	if gate {
		p.Start(ctx)
		return
	}
	p.Stop()
}
