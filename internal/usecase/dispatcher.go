package usecase

import (
	"context"
	"log/slog"
	"sync"
)

// Dispatcher runs posted work one item at a time on the goroutine that
// calls Run. All aggregator logic executes there, so display models need no
// locking. Post never blocks, which lets work running on the dispatcher
// post more work.
type Dispatcher struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher whose queue starts with the given capacity.
func NewDispatcher(capacity int, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		queue:  make([]func(), 0, capacity),
		wake:   make(chan struct{}, 1),
		logger: logger.With("component", "dispatcher"),
	}
}

func (d *Dispatcher) Post(fn func()) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued items.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Run executes posted work until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher stopped", "pending", d.Pending())
			return nil
		case <-d.wake:
		}
		for {
			fn, ok := d.next()
			if !ok {
				break
			}
			fn()
			if ctx.Err() != nil {
				break
			}
		}
	}
}

func (d *Dispatcher) next() (func(), bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return nil, false
	}
	fn := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	return fn, true
}
