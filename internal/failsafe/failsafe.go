// Package failsafe implements the double-trigger escape hatch that suspends
// cursor confinement for a fixed period.
package failsafe

import (
	"sync"
	"time"
)

const (
	// Window is the maximum gap between two triggers that activates the fail-safe
	Window = 2 * time.Second
	// Duration is how long the fail-safe stays active
	Duration = 10 * time.Second
)

// Stopper cancels a scheduled callback. *time.Timer satisfies it.
type Stopper interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d
type AfterFunc func(d time.Duration, f func()) Stopper

// Option configures a Controller
type Option func(*Controller)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithAfterFunc replaces time.AfterFunc
func WithAfterFunc(after AfterFunc) Option {
	return func(c *Controller) { c.afterFunc = after }
}

// Controller tracks trigger timestamps and the active window. Activation
// lasts exactly Duration and is not extended by further triggers.
type Controller struct {
	now       func() time.Time
	afterFunc AfterFunc

	onActivate   func()
	onDeactivate func()

	mu     sync.Mutex
	last   time.Time
	active bool
	timer  Stopper
	gen    uint64
	closed bool
}

// New returns a Controller. onActivate and onDeactivate run outside the
// controller's lock and may be nil.
func New(onActivate, onDeactivate func(), opts ...Option) *Controller {
	c := &Controller{
		now: time.Now,
		afterFunc: func(d time.Duration, f func()) Stopper {
			return time.AfterFunc(d, f)
		},
		onActivate:   onActivate,
		onDeactivate: onDeactivate,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Trigger records a trigger and reports whether it activated the fail-safe
func (c *Controller) Trigger() bool {
	c.mu.Lock()
	now := c.now()
	prev := c.last
	c.last = now

	if c.closed || c.active || prev.IsZero() || now.Sub(prev) >= Window {
		c.mu.Unlock()
		return false
	}

	c.active = true
	c.gen++
	gen := c.gen
	c.timer = c.afterFunc(Duration, func() { c.expire(gen) })
	c.mu.Unlock()

	if c.onActivate != nil {
		c.onActivate()
	}
	return true
}

func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	if c.closed || !c.active || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.active = false
	c.timer = nil
	c.mu.Unlock()

	if c.onDeactivate != nil {
		c.onDeactivate()
	}
}

// Active reports whether the fail-safe is currently suspending confinement
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Close drops any pending deactivation without running its callback. Later
// triggers are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.active = false
	c.closed = true
}
