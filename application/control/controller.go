// Package control holds the pause and stop flags shared between the fill loop
// and the terminal.
package control

import (
	"context"
	"sync"
	"time"

	"form_filler/domain/entities"
)

// Controller is safe for concurrent use. Stop is final.
type Controller struct {
	mu      sync.Mutex
	paused  bool
	resumed chan struct{} // closed when the pause ends
	stopped chan struct{}
	stopOne sync.Once
}

func New() *Controller {
	return &Controller{stopped: make(chan struct{})}
}

// Pause makes WaitWhilePaused block. It returns false if already paused or stopped.
func (c *Controller) Pause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused || c.Stopped() {
		return false
	}
	c.paused = true
	c.resumed = make(chan struct{})
	return true
}

// Resume releases waiters. It returns false if not paused.
func (c *Controller) Resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return false
	}
	c.paused = false
	close(c.resumed)
	return true
}

// Toggle flips the pause state and reports whether the controller is now paused.
func (c *Controller) Toggle() bool {
	if c.Pause() {
		return true
	}
	c.Resume()
	return false
}

func (c *Controller) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Stop ends the run. Paused waiters wake up and see ErrStopped.
func (c *Controller) Stop() {
	c.stopOne.Do(func() {
		close(c.stopped)
		c.Resume()
	})
}

func (c *Controller) Stopped() bool {
	select {
	case <-c.stopped:
		return true
	default:
		return false
	}
}

// Done is closed once Stop is called.
func (c *Controller) Done() <-chan struct{} {
	return c.stopped
}

// WaitWhilePaused blocks until the controller is resumed, stopped or ctx ends.
func (c *Controller) WaitWhilePaused(ctx context.Context) error {
	for {
		if c.Stopped() {
			return entities.ErrStopped
		}
		c.mu.Lock()
		paused, resumed := c.paused, c.resumed
		c.mu.Unlock()
		if !paused {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopped:
			return entities.ErrStopped
		case <-resumed:
		}
	}
}

// Sleep waits for d unless the run is stopped or ctx ends first.
func (c *Controller) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		return entities.ErrStopped
	case <-t.C:
		return nil
	}
}
