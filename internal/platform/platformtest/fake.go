// Package platformtest provides an in-memory platform.Platform for tests.
package platformtest

import (
	"sync"

	"github.com/bnema/noreveal/internal/geom"
	"github.com/bnema/noreveal/internal/platform"
)

// Fake records every call and lets tests inject failures. The clip it
// reports is whatever was last applied, unless ClipOverride is set.
type Fake struct {
	mu sync.Mutex

	Virtual    geom.Rect
	VirtualErr error
	Primary    geom.Rect
	PrimaryErr error

	HookErr      error
	ClipErr      error
	ClearErr     error
	QueryErr     error
	SetPosErr    error
	SubscribeErr error

	// ClipOverride, when non-nil, is returned by CurrentClip instead of the
	// applied region. It simulates another process changing the clip.
	ClipOverride *geom.Rect

	hook      platform.HookFunc
	hookOpen  bool
	clip      geom.Rect
	clipped   bool
	cursor    geom.Point
	displayFn func()

	// OnSetCursorPos runs inside SetCursorPos before it returns
	OnSetCursorPos func(p geom.Point)

	HookInstalls   int
	HookCloses     int
	ClipCalls      []geom.Rect
	ClearCalls     int
	QueryCalls     int
	SetPosCalls    []geom.Point
	Subscriptions  int
	Unsubscribes   int
	PlatformCloses int
}

// New returns a Fake with a single 1920x1080 display
func New() *Fake {
	r := geom.NewRect(0, 0, 1920, 1080)
	return &Fake{Virtual: r, Primary: r}
}

type fakeHook struct {
	f    *Fake
	once sync.Once
}

func (h *fakeHook) Close() error {
	h.once.Do(func() {
		h.f.mu.Lock()
		defer h.f.mu.Unlock()
		h.f.hook = nil
		h.f.hookOpen = false
		h.f.HookCloses++
	})
	return nil
}

func (f *Fake) InstallMouseHook(fn platform.HookFunc) (platform.Hook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.HookErr != nil {
		return nil, f.HookErr
	}
	if f.hookOpen {
		return nil, platform.ErrHookInstalled
	}
	f.hook = fn
	f.hookOpen = true
	f.HookInstalls++
	return &fakeHook{f: f}, nil
}

func (f *Fake) ClipCursor(r geom.Rect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ClipCalls = append(f.ClipCalls, r)
	if f.ClipErr != nil {
		return f.ClipErr
	}
	f.clip = r
	f.clipped = true
	return nil
}

func (f *Fake) ClearClip() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ClearCalls++
	if f.ClearErr != nil {
		return f.ClearErr
	}
	f.clipped = false
	f.clip = geom.Rect{}
	return nil
}

// CurrentClip reports the virtual screen when nothing is clipped, like the
// Windows API does
func (f *Fake) CurrentClip() (geom.Rect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.QueryCalls++
	if f.QueryErr != nil {
		return geom.Rect{}, f.QueryErr
	}
	if f.ClipOverride != nil {
		return *f.ClipOverride, nil
	}
	if !f.clipped {
		return f.Virtual, nil
	}
	return f.clip, nil
}

func (f *Fake) SetCursorPos(p geom.Point) error {
	f.mu.Lock()
	f.SetPosCalls = append(f.SetPosCalls, p)
	err := f.SetPosErr
	if err == nil {
		f.cursor = p
	}
	cb := f.OnSetCursorPos
	f.mu.Unlock()

	if cb != nil {
		cb(p)
	}
	return err
}

func (f *Fake) VirtualScreen() (geom.Rect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Virtual, f.VirtualErr
}

func (f *Fake) PrimaryDisplay() (geom.Rect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Primary, f.PrimaryErr
}

func (f *Fake) SubscribeDisplayChanges(fn func()) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubscribeErr != nil {
		return nil, f.SubscribeErr
	}
	f.displayFn = fn
	f.Subscriptions++
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.displayFn = nil
			f.Unsubscribes++
		})
	}, nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PlatformCloses++
	return nil
}

// Fire delivers ev to the installed hook. Without a hook the event passes.
func (f *Fake) Fire(ev platform.MoveEvent) platform.Verdict {
	f.mu.Lock()
	fn := f.hook
	f.mu.Unlock()
	if fn == nil {
		return platform.Pass
	}
	return fn(ev)
}

// Move is shorthand for firing a physical move to (x, y)
func (f *Fake) Move(x, y int32) platform.Verdict {
	return f.Fire(platform.MoveEvent{Kind: platform.EventMove, Point: geom.Point{X: x, Y: y}})
}

// FireDisplayChange invokes the display-change subscriber, if any
func (f *Fake) FireDisplayChange() {
	f.mu.Lock()
	fn := f.displayFn
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// HookInstalled reports whether a hook is currently open
func (f *Fake) HookInstalled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hookOpen
}

// Clip returns the applied clip and whether one is active
func (f *Fake) Clip() (geom.Rect, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clip, f.clipped
}

// Cursor returns the last position written by SetCursorPos
func (f *Fake) Cursor() geom.Point {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursor
}

// SetClipOverride makes CurrentClip report r regardless of what was applied
func (f *Fake) SetClipOverride(r *geom.Rect) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ClipOverride = r
}

// Counts returns (clip calls, clear calls, query calls) under the lock
func (f *Fake) Counts() (clips, clears, queries int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ClipCalls), f.ClearCalls, f.QueryCalls
}

// SetErrors replaces the injected clip/clear/query errors under the lock
func (f *Fake) SetErrors(clip, clear, query error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ClipErr, f.ClearErr, f.QueryErr = clip, clear, query
}

var _ platform.Platform = (*Fake)(nil)
