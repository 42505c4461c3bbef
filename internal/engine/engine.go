// Package engine composes bounds resolution, confinement reconciliation, the
// fail-safe and the pointer hook into one lifecycle.
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/noreveal/internal/confine"
	"github.com/bnema/noreveal/internal/display"
	"github.com/bnema/noreveal/internal/failsafe"
	"github.com/bnema/noreveal/internal/input"
	"github.com/bnema/noreveal/internal/logger"
	"github.com/bnema/noreveal/internal/platform"
)

// Status messages emitted to OnStatus listeners
const (
	MsgFailSafeActivated   = "Fail-safe activated - blocking disabled for 10 seconds"
	MsgFailSafeDeactivated = "Fail-safe deactivated - blocking restored"
	MsgEmergencyDisable    = "Emergency disable - mouse hook stopped"
)

// DefaultTickInterval is how often the confinement is re-validated
const DefaultTickInterval = time.Second

// Option configures an Engine
type Option func(*Engine)

// WithTickInterval overrides DefaultTickInterval
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) { e.tick = d }
}

// WithFailSafeOptions passes options through to the fail-safe controller
func WithFailSafeOptions(opts ...failsafe.Option) Option {
	return func(e *Engine) { e.failSafeOpts = append(e.failSafeOpts, opts...) }
}

// Engine is the confinement composition root. Policy and screen bounds are
// immutable snapshots swapped atomically, so the hook path never waits on
// the lifecycle lock.
type Engine struct {
	plat         platform.Platform
	provider     *display.Provider
	recon        *confine.Reconciler
	failSafe     *failsafe.Controller
	interceptor  *input.Interceptor
	tick         time.Duration
	failSafeOpts []failsafe.Option

	policy  atomic.Pointer[confine.Policy]
	bounds  atomic.Pointer[display.Bounds]
	running atomic.Bool

	// reconcileMu orders reconciles against the fail-safe and Stop clearing
	// the confinement, so an in-flight apply cannot land after a clear
	reconcileMu sync.Mutex

	mu          sync.Mutex
	disposed    bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	unsubscribe func()

	statusMu  sync.Mutex
	listeners []func(string)
}

// New builds an engine over plat enforcing policy. Nothing is installed
// until Start.
func New(plat platform.Platform, policy confine.Policy, opts ...Option) *Engine {
	e := &Engine{
		plat:     plat,
		provider: display.NewProvider(plat),
		recon:    confine.NewReconciler(plat),
		tick:     DefaultTickInterval,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.failSafe = failsafe.New(e.onFailSafeActivated, e.onFailSafeDeactivated, e.failSafeOpts...)
	e.interceptor = input.NewInterceptor(plat, enforcer{e})
	e.policy.Store(&policy)
	e.bounds.Store(&display.Bounds{Rect: display.FallbackBounds, Origin: display.OriginFallback})
	logger.Infof("Engine configured: %s", policy)
	return e
}

// Start installs the hook, resolves the screen bounds, applies confinement,
// starts the periodic re-validation and subscribes to display changes. It
// returns false only when the hook cannot be installed.
func (e *Engine) Start() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.disposed {
		logger.Warn("Start called on a disposed engine")
		return false
	}
	if e.running.Load() {
		return true
	}

	if err := e.interceptor.Start(); err != nil {
		logger.Errorf("Cannot start confinement: %v", err)
		return false
	}
	e.refreshBounds()
	e.running.Store(true)
	e.reconcile()

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.wg.Add(1)
	go e.tickLoop(ctx)

	unsubscribe, err := e.plat.SubscribeDisplayChanges(e.onDisplayChange)
	if err != nil {
		logger.Warnf("Display change notifications unavailable: %v", err)
	} else {
		e.unsubscribe = unsubscribe
	}

	logger.Info("Confinement engine started", "policy", e.Policy().String())
	return true
}

// Stop clears the confinement, removes the hook, stops the ticker and
// unsubscribes from display changes. Every step runs even if an earlier one
// fails; the failures are joined.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopLocked()
}

func (e *Engine) stopLocked() error {
	wasRunning := e.running.Swap(false)

	var errs []error
	if err := e.interceptor.Stop(); err != nil {
		errs = append(errs, err)
	}

	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.wg.Wait()

	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}

	// Last, so nothing above can re-apply it. Runs even if the hook never
	// existed.
	if err := e.clear(); err != nil {
		errs = append(errs, err)
	}

	if wasRunning {
		logger.Info("Confinement engine stopped")
	}
	return errors.Join(errs...)
}

// IsRunning reports whether the hook is installed
func (e *Engine) IsRunning() bool {
	return e.running.Load()
}

// UpdateConfiguration replaces the policy and reconciles against it. An
// inactive policy always clears, even when the engine is stopped. An active
// one is only applied while running; see Resume for a stopped engine.
func (e *Engine) UpdateConfiguration(p confine.Policy) {
	e.policy.Store(&p)
	logger.Infof("Policy updated: %s", p)

	if e.running.Load() {
		e.refreshBounds()
	}
	e.reconcile()
}

// Resume starts a stopped engine when the current policy is active, which
// is how blocking comes back after an emergency disable. It reports whether
// the engine is running afterwards.
func (e *Engine) Resume() bool {
	if e.running.Load() {
		return true
	}
	if !e.Policy().Active() {
		return false
	}
	logger.Info("Restarting confinement engine")
	return e.Start()
}

// RefreshScreenBounds re-queries the screen bounds and reconciles
func (e *Engine) RefreshScreenBounds() {
	e.refreshBounds()
	e.reconcile()
}

// ActivateFailSafe records a fail-safe trigger and reports whether it
// activated the fail-safe
func (e *Engine) ActivateFailSafe() bool {
	return e.failSafe.Trigger()
}

// EmergencyDisable forces the policy off, clears the confinement and stops
// the engine
func (e *Engine) EmergencyDisable() error {
	p := e.Policy().Disabled()
	e.policy.Store(&p)

	err := e.Stop()
	logger.Warn("Emergency disable activated - mouse hook removed")
	e.emit(MsgEmergencyDisable)
	return err
}

// Dispose stops the engine and drops any pending fail-safe deactivation.
// A disposed engine cannot be started again.
func (e *Engine) Dispose() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.disposed {
		return nil
	}
	e.disposed = true
	e.failSafe.Close()
	err := e.stopLocked()

	e.statusMu.Lock()
	e.listeners = nil
	e.statusMu.Unlock()
	return err
}

// OnStatus registers fn to receive status messages. Listeners run
// synchronously on the goroutine that produced the message.
func (e *Engine) OnStatus(fn func(msg string)) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// Policy returns the current policy
func (e *Engine) Policy() confine.Policy {
	return *e.policy.Load()
}

// Bounds returns the last resolved screen bounds
func (e *Engine) Bounds() display.Bounds {
	return *e.bounds.Load()
}

// ConfinementState returns the reconciler's view of the OS confinement
func (e *Engine) ConfinementState() confine.State {
	return e.recon.State()
}

// FailSafeActive reports whether the fail-safe is suspending confinement
func (e *Engine) FailSafeActive() bool {
	return e.failSafe.Active()
}

func (e *Engine) emit(msg string) {
	e.statusMu.Lock()
	listeners := make([]func(string), len(e.listeners))
	copy(listeners, e.listeners)
	e.statusMu.Unlock()

	for _, fn := range listeners {
		fn(msg)
	}
}

func (e *Engine) refreshBounds() {
	b := e.provider.Current()
	prev := e.bounds.Swap(&b)
	if prev != nil && *prev == b {
		return
	}

	switch b.Origin {
	case display.OriginFallback:
		logger.Warnf("Screen bounds unavailable, using fallback %s", b.Rect)
	default:
		logger.Infof("Screen bounds: %s (%s)", b.Rect, b.Origin)
	}
}

// reconcile is the single entry point shared by the ticker, display changes,
// policy updates and the hook. An inactive policy always clears. An active
// one is left alone while stopped or while the fail-safe is active.
func (e *Engine) reconcile() {
	e.reconcileMu.Lock()
	defer e.reconcileMu.Unlock()
	e.reconcileLocked()
}

// tryReconcile is reconcile for the hook path: when another reconcile is in
// flight the event does not wait for it
func (e *Engine) tryReconcile() {
	if !e.reconcileMu.TryLock() {
		return
	}
	defer e.reconcileMu.Unlock()
	e.reconcileLocked()
}

func (e *Engine) reconcileLocked() {
	p := e.Policy()
	if p.Active() && (!e.running.Load() || e.failSafe.Active()) {
		return
	}
	e.recon.EnsureApplied(e.Bounds().Rect, p)
}

func (e *Engine) clear() error {
	e.reconcileMu.Lock()
	defer e.reconcileMu.Unlock()
	return e.recon.Clear()
}

func (e *Engine) tickLoop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.reconcile()
		}
	}
}

func (e *Engine) onDisplayChange() {
	logger.Debug("Display configuration changed")
	e.RefreshScreenBounds()
}

func (e *Engine) onFailSafeActivated() {
	logger.Warn("Fail-safe activated - blocking temporarily disabled")
	_ = e.clear()
	e.emit(MsgFailSafeActivated)
}

func (e *Engine) onFailSafeDeactivated() {
	logger.Info("Fail-safe deactivated")
	e.reconcile()
	e.emit(MsgFailSafeDeactivated)
}

// enforcer adapts the engine to the interceptor's view of it
type enforcer struct {
	e *Engine
}

func (f enforcer) Snapshot() input.Snapshot {
	return input.Snapshot{
		Policy:   f.e.Policy(),
		Bounds:   f.e.Bounds().Rect,
		FailSafe: f.e.failSafe.Active(),
	}
}

func (f enforcer) Reconcile() {
	f.e.tryReconcile()
}

func (f enforcer) Confined() bool {
	return f.e.recon.IsApplied()
}
