// Package input owns the global pointer hook. Confinement itself is the OS's
// job; the interceptor keeps it repaired on every move and performs a
// corrective warp when the OS refused to confine.
package input

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bnema/noreveal/internal/confine"
	"github.com/bnema/noreveal/internal/geom"
	"github.com/bnema/noreveal/internal/logger"
	"github.com/bnema/noreveal/internal/platform"
)

// Snapshot is the engine state read on every event
type Snapshot struct {
	Policy   confine.Policy
	Bounds   geom.Rect
	FailSafe bool
}

// Enforcer is what the interceptor needs from the engine. All methods are
// called on the hook path and must not block.
type Enforcer interface {
	Snapshot() Snapshot
	// Reconcile checks and repairs the OS confinement
	Reconcile()
	// Confined reports whether the OS currently enforces the region
	Confined() bool
}

// Host is the slice of the platform the interceptor drives
type Host interface {
	InstallMouseHook(fn platform.HookFunc) (platform.Hook, error)
	SetCursorPos(p geom.Point) error
}

// Interceptor installs the mouse hook and decides the fate of each event
type Interceptor struct {
	host Host
	enf  Enforcer

	mu   sync.Mutex
	hook platform.Hook

	// correcting is set around our own cursor write so the synthetic move it
	// produces is not processed again
	correcting atomic.Bool
}

// NewInterceptor returns an Interceptor that is not yet installed
func NewInterceptor(host Host, enf Enforcer) *Interceptor {
	return &Interceptor{host: host, enf: enf}
}

// Start installs the hook. It is a no-op when already installed.
func (i *Interceptor) Start() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.hook != nil {
		return nil
	}

	h, err := i.host.InstallMouseHook(i.handle)
	if err != nil {
		return fmt.Errorf("failed to install mouse hook: %w", err)
	}
	i.hook = h
	logger.Debug("Mouse hook installed")
	return nil
}

// Stop removes the hook. Safe to call at any time, including while a
// callback is in flight.
func (i *Interceptor) Stop() error {
	i.mu.Lock()
	h := i.hook
	i.hook = nil
	i.mu.Unlock()

	if h == nil {
		return nil
	}
	if err := h.Close(); err != nil {
		return fmt.Errorf("failed to remove mouse hook: %w", err)
	}
	logger.Debug("Mouse hook removed")
	return nil
}

// Installed reports whether the hook is currently installed
func (i *Interceptor) Installed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.hook != nil
}

func (i *Interceptor) handle(ev platform.MoveEvent) (verdict platform.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Mouse hook callback panicked: %v", r)
			verdict = platform.Pass
		}
	}()

	if ev.Kind != platform.EventMove || ev.Injected || i.correcting.Load() {
		return platform.Pass
	}

	snap := i.enf.Snapshot()
	if !snap.Policy.Active() || snap.FailSafe {
		return platform.Pass
	}

	i.enf.Reconcile()
	if i.enf.Confined() {
		return platform.Pass
	}

	return i.correct(ev.Point, snap)
}

// correct is the fallback used when the OS is not confining the cursor. Only
// the bottom edge is handled.
func (i *Interceptor) correct(p geom.Point, snap Snapshot) platform.Verdict {
	if !snap.Policy.Edges.Has(confine.Bottom) {
		return platform.Pass
	}

	limit := snap.Bounds.Bottom - snap.Policy.Margin
	if p.Y < limit {
		return platform.Pass
	}

	target := geom.Point{X: p.X, Y: limit - 1}
	if target == p || !snap.Bounds.Contains(target) {
		return platform.Pass
	}

	i.correcting.Store(true)
	err := i.host.SetCursorPos(target)
	i.correcting.Store(false)

	if err != nil {
		logger.Debugf("Corrective cursor move to (%d,%d) failed: %v", target.X, target.Y, err)
		return platform.Pass
	}
	return platform.Consume
}
