package confine

import (
	"fmt"
	"sync"

	"github.com/bnema/noreveal/internal/geom"
	"github.com/bnema/noreveal/internal/logger"
)

// Clipper is the OS confinement primitive
type Clipper interface {
	ClipCursor(r geom.Rect) error
	ClearClip() error
	CurrentClip() (geom.Rect, error)
}

// StateKind says whether the OS is believed to enforce a region
type StateKind int

const (
	NotApplied StateKind = iota
	Applied
	Failed
)

func (k StateKind) String() string {
	switch k {
	case Applied:
		return "applied"
	case Failed:
		return "failed"
	default:
		return "not applied"
	}
}

// State is the reconciler's own record of the confinement. Region is only
// meaningful when Kind is Applied.
type State struct {
	Kind   StateKind
	Region geom.Rect
}

// Reconciler treats the OS confinement as a cache that other programs can
// silently drop, and re-applies it whenever it drifts. It is safe for
// concurrent use; the lock only guards the recorded state and is never held
// across an OS call.
type Reconciler struct {
	clip Clipper

	mu    sync.Mutex
	state State
	// queryFailing is set while CurrentClip keeps erroring, so the failure
	// is logged once rather than on every event
	queryFailing bool
}

// NewReconciler returns a Reconciler driving clip
func NewReconciler(clip Clipper) *Reconciler {
	return &Reconciler{clip: clip}
}

// State returns the recorded confinement state
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// IsApplied reports whether the OS is believed to enforce a region
func (r *Reconciler) IsApplied() bool {
	return r.State().Kind == Applied
}

// swap records s and returns the previous state
func (r *Reconciler) swap(s State) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.state
	r.state = s
	return prev
}

// Apply asks the OS to confine the cursor to region. Failures are logged and
// recorded, never returned.
func (r *Reconciler) Apply(region geom.Rect) bool {
	if err := r.clip.ClipCursor(region); err != nil {
		if prev := r.swap(State{Kind: Failed}); prev.Kind != Failed {
			logger.Warnf("Failed to confine cursor to %s: %v", region, err)
		}
		return false
	}

	prev := r.swap(State{Kind: Applied, Region: region})
	if prev.Kind != Applied || prev.Region != region {
		logger.Infof("Cursor confined to %s", region)
	}
	return true
}

// Clear releases any OS confinement. It is unconditional and idempotent. The
// state becomes NotApplied even when the OS call fails; the error is logged
// and returned for callers that aggregate failures.
func (r *Reconciler) Clear() error {
	err := r.clip.ClearClip()
	if err != nil {
		logger.Warnf("Failed to clear cursor confinement: %v", err)
		err = fmt.Errorf("failed to clear cursor confinement: %w", err)
	}
	if prev := r.swap(State{Kind: NotApplied}); prev.Kind == Applied {
		logger.Info("Cursor confinement cleared")
	}
	return err
}

// setQueryFailing records whether the last CurrentClip failed and reports
// whether that changed
func (r *Reconciler) setQueryFailing(failing bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := r.queryFailing != failing
	r.queryFailing = failing
	return changed
}

// EnsureApplied brings the OS confinement in line with policy over bounds.
// An inactive policy clears. Otherwise the region currently enforced by the
// OS is compared with the desired one and re-applied on any difference, or
// unconditionally when it cannot be queried.
func (r *Reconciler) EnsureApplied(bounds geom.Rect, p Policy) {
	if !p.Active() {
		_ = r.Clear()
		return
	}

	desired := ComputeRegion(bounds, p)

	current, err := r.clip.CurrentClip()
	if err != nil {
		if r.setQueryFailing(true) {
			logger.Debugf("Could not query cursor confinement, re-applying on every check: %v", err)
		}
		r.Apply(desired)
		return
	}
	if r.setQueryFailing(false) {
		logger.Debug("Cursor confinement query working again")
	}

	st := r.State()
	if st.Kind != Applied || st.Region != desired || current != desired {
		if st.Kind == Applied && current != desired {
			logger.Debugf("Cursor confinement drifted (OS reports %s), re-applying", current)
		}
		r.Apply(desired)
	}
}
