//go:build linux

package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ThomasT75/uinput"
	"github.com/bnema/noreveal/internal/display"
	"github.com/bnema/noreveal/internal/geom"
	"github.com/bnema/noreveal/internal/logger"
	"github.com/godbus/dbus/v5"
	evdev "github.com/gvalkov/golang-evdev"
)

// virtualPointerName identifies our own uinput device so its events are not
// fed back into the hook
const virtualPointerName = "NoReveal Virtual Pointer"

// linuxPlatform reads relative motion from evdev and tracks an estimate of
// the cursor position, since Wayland offers no global pointer query. There
// is no cursor clip; the engine falls back to corrective warps through a
// uinput absolute pointer.
type linuxPlatform struct {
	mu     sync.Mutex
	cursor geom.Point
	screen geom.Rect

	pad       uinput.TouchPad
	padBounds geom.Rect

	hook *evdevHook
}

func newPlatform() (Platform, error) {
	if _, err := os.Stat("/dev/input"); err != nil {
		return nil, fmt.Errorf("evdev unavailable: %w", err)
	}
	return &linuxPlatform{}, nil
}

func (p *linuxPlatform) ClipCursor(geom.Rect) error {
	return fmt.Errorf("cursor clip: %w", ErrUnsupported)
}

// ClearClip succeeds because nothing is ever clipped
func (p *linuxPlatform) ClearClip() error {
	return nil
}

func (p *linuxPlatform) CurrentClip() (geom.Rect, error) {
	return geom.Rect{}, fmt.Errorf("cursor clip query: %w", ErrUnsupported)
}

func (p *linuxPlatform) VirtualScreen() (geom.Rect, error) {
	monitors, err := display.DetectMonitors()
	if err != nil {
		return geom.Rect{}, err
	}
	r, err := display.VirtualBounds(monitors)
	if err != nil {
		return geom.Rect{}, err
	}
	p.setScreen(r)
	return r, nil
}

func (p *linuxPlatform) PrimaryDisplay() (geom.Rect, error) {
	monitors, err := display.DetectMonitors()
	if err != nil {
		return geom.Rect{}, err
	}
	m := display.PrimaryMonitor(monitors)
	if m == nil {
		return geom.Rect{}, fmt.Errorf("no primary monitor")
	}
	r := m.Rect()
	p.setScreen(r)
	return r, nil
}

func (p *linuxPlatform) setScreen(r geom.Rect) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.screen == r {
		return
	}
	first := !p.screen.Valid()
	p.screen = r
	if first {
		// Best guess until the first warp: the middle of the desktop
		p.cursor = geom.Point{X: r.Left + r.Width()/2, Y: r.Top + r.Height()/2}
	} else {
		p.cursor = r.Clamp(p.cursor)
	}
}

// track applies a relative motion to the cursor estimate and returns it
func (p *linuxPlatform) track(dx, dy int32) geom.Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor = p.screen.Clamp(geom.Point{X: p.cursor.X + dx, Y: p.cursor.Y + dy})
	return p.cursor
}

// SetCursorPos warps the cursor through a uinput absolute pointer covering
// the whole desktop
func (p *linuxPlatform) SetCursorPos(pt geom.Point) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.screen.Valid() {
		return fmt.Errorf("screen bounds not yet known")
	}

	if p.pad == nil || p.padBounds != p.screen {
		if p.pad != nil {
			_ = p.pad.Close()
			p.pad = nil
		}
		pad, err := uinput.CreateTouchPad("/dev/uinput", []byte(virtualPointerName),
			0, p.screen.Width()-1, 0, p.screen.Height()-1)
		if err != nil {
			return fmt.Errorf("failed to create virtual pointer: %w", err)
		}
		p.pad = pad
		p.padBounds = p.screen
	}

	if err := p.pad.MoveTo(pt.X-p.screen.Left, pt.Y-p.screen.Top); err != nil {
		return fmt.Errorf("virtual pointer move: %w", err)
	}
	p.cursor = p.screen.Clamp(pt)
	return nil
}

func (p *linuxPlatform) InstallMouseHook(fn HookFunc) (Hook, error) {
	p.mu.Lock()
	if p.hook != nil {
		p.mu.Unlock()
		return nil, ErrHookInstalled
	}
	p.mu.Unlock()

	devices, err := openPointerDevices()
	if err != nil {
		return nil, err
	}

	h := &evdevHook{platform: p, fn: fn, devices: devices, done: make(chan struct{})}
	p.mu.Lock()
	p.hook = h
	p.mu.Unlock()

	for _, dev := range devices {
		h.wg.Add(1)
		go h.readLoop(dev)
	}
	logger.Debugf("Watching %d pointer device(s) for motion", len(devices))
	return h, nil
}

// openPointerDevices opens every readable evdev node reporting REL_X/REL_Y
func openPointerDevices() ([]*evdev.InputDevice, error) {
	paths, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return nil, err
	}

	var devices []*evdev.InputDevice
	var openErrs []error
	for _, path := range paths {
		dev, err := evdev.Open(path)
		if err != nil {
			openErrs = append(openErrs, err)
			continue
		}
		if dev.Name == virtualPointerName || !hasRelativeMotion(dev) {
			_ = dev.File.Close()
			continue
		}
		logger.Debugf("Pointer device: %s (%s)", dev.Name, dev.Fn)
		devices = append(devices, dev)
	}

	if len(devices) == 0 {
		if len(openErrs) > 0 {
			return nil, fmt.Errorf("no readable pointer device (is the user in the input group?): %w", errors.Join(openErrs...))
		}
		return nil, fmt.Errorf("no pointer device found under /dev/input")
	}
	return devices, nil
}

func hasRelativeMotion(dev *evdev.InputDevice) bool {
	for capType, codes := range dev.Capabilities {
		if capType.Type != evdev.EV_REL {
			continue
		}
		for _, c := range codes {
			if c.Code == evdev.REL_X || c.Code == evdev.REL_Y {
				return true
			}
		}
	}
	return false
}

type evdevHook struct {
	platform *linuxPlatform
	fn       HookFunc
	devices  []*evdev.InputDevice

	// dispatch serializes callbacks across devices
	dispatch sync.Mutex
	wg       sync.WaitGroup
	done     chan struct{}
	once     sync.Once
}

func (h *evdevHook) readLoop(dev *evdev.InputDevice) {
	defer h.wg.Done()

	var dx, dy int32
	for {
		events, err := dev.Read()
		if err != nil {
			select {
			case <-h.done:
				return
			default:
			}
			if strings.Contains(err.Error(), "resource temporarily unavailable") {
				continue
			}
			logger.Warnf("Stopped reading %s: %v", dev.Name, err)
			return
		}

		for _, ev := range events {
			switch ev.Type {
			case evdev.EV_REL:
				switch ev.Code {
				case evdev.REL_X:
					dx += ev.Value
				case evdev.REL_Y:
					dy += ev.Value
				}
			case evdev.EV_SYN:
				if dx == 0 && dy == 0 {
					continue
				}
				pt := h.platform.track(dx, dy)
				dx, dy = 0, 0
				h.deliver(MoveEvent{Kind: EventMove, Point: pt})
			}
		}
	}
}

// deliver hands ev to the callback. Consume has no effect: evdev readers
// cannot suppress events without grabbing the device.
func (h *evdevHook) deliver(ev MoveEvent) {
	h.dispatch.Lock()
	defer h.dispatch.Unlock()

	select {
	case <-h.done:
		return
	default:
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Pointer hook callback panicked: %v", r)
		}
	}()
	h.fn(ev)
}

func (h *evdevHook) Close() error {
	var errs []error
	h.once.Do(func() {
		close(h.done)
		for _, dev := range h.devices {
			if err := dev.File.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", dev.Fn, err))
			}
		}
		h.wg.Wait()

		h.platform.mu.Lock()
		if h.platform.hook == h {
			h.platform.hook = nil
		}
		h.platform.mu.Unlock()
	})
	return errors.Join(errs...)
}

// displayChangeSignals are the session-bus signals emitted by compositors
// when the monitor layout changes
var displayChangeSignals = []struct {
	iface  string
	member string
}{
	{"org.gnome.Mutter.DisplayConfig", "MonitorsChanged"},
	{"org.kde.kscreen.Backend", "configChanged"},
}

func (p *linuxPlatform) SubscribeDisplayChanges(fn func()) (func(), error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	for _, sig := range displayChangeSignals {
		if err := conn.AddMatchSignal(
			dbus.WithMatchInterface(sig.iface),
			dbus.WithMatchMember(sig.member),
		); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to watch %s.%s: %w", sig.iface, sig.member, err)
		}
	}

	signals := make(chan *dbus.Signal, 8)
	conn.Signal(signals)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for sig := range signals {
			if sig == nil {
				continue
			}
			logger.Debugf("Display change signal: %s", sig.Name)
			fn()
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			conn.RemoveSignal(signals)
			conn.Close()
			close(signals)
			<-done
		})
	}
	return cancel, nil
}

func (p *linuxPlatform) Close() error {
	p.mu.Lock()
	h := p.hook
	pad := p.pad
	p.pad = nil
	p.mu.Unlock()

	var errs []error
	if h != nil {
		errs = append(errs, h.Close())
	}
	if pad != nil {
		errs = append(errs, pad.Close())
	}
	return errors.Join(errs...)
}
