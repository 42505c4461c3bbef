// Package platform abstracts the OS primitives the confinement engine needs:
// a global pointer-move hook, cursor confinement, cursor warping, screen
// geometry and display-change notifications. Each host provides its own
// backend; tests use platformtest.Fake.
package platform

import (
	"errors"

	"github.com/bnema/noreveal/internal/geom"
)

var (
	// ErrUnsupported is returned for primitives the host cannot provide
	ErrUnsupported = errors.New("not supported on this platform")
	// ErrHookInstalled is returned when a second hook is requested from a backend
	// that only supports one
	ErrHookInstalled = errors.New("mouse hook already installed")
)

// EventKind classifies a low-level pointer event
type EventKind int

const (
	// EventMove is a genuine pointer move
	EventMove EventKind = iota
	// EventOther covers buttons, wheel and anything else the hook sees
	EventOther
)

// MoveEvent is what the OS hands to the hook callback
type MoveEvent struct {
	Kind     EventKind
	Point    geom.Point
	Injected bool // synthesized by software rather than a physical device
}

// Verdict tells the backend what to do with an event
type Verdict int

const (
	// Pass forwards the event unmodified
	Pass Verdict = iota
	// Consume reports the event as handled so it never reaches the system
	Consume
)

// HookFunc is invoked synchronously for every pointer event. It sits on the
// system input path and must return quickly.
type HookFunc func(ev MoveEvent) Verdict

// Hook is an installed global pointer hook
type Hook interface {
	Close() error
}

// Platform is the set of OS primitives consumed by the engine
type Platform interface {
	InstallMouseHook(fn HookFunc) (Hook, error)

	// ClipCursor confines the cursor to r. Right and Bottom are inclusive.
	ClipCursor(r geom.Rect) error
	ClearClip() error
	CurrentClip() (geom.Rect, error)

	SetCursorPos(p geom.Point) error

	VirtualScreen() (geom.Rect, error)
	PrimaryDisplay() (geom.Rect, error)

	// SubscribeDisplayChanges calls fn whenever the display configuration
	// changes. The returned cancel func stops delivery.
	SubscribeDisplayChanges(fn func()) (cancel func(), err error)

	Close() error
}

// New returns the backend for the running OS
func New() (Platform, error) {
	return newPlatform()
}
