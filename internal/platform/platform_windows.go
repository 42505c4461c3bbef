//go:build windows

package platform

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/bnema/noreveal/internal/geom"
	"github.com/bnema/noreveal/internal/logger"
	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPeekMessageW        = user32.NewProc("PeekMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessageW    = user32.NewProc("DispatchMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procPostMessageW        = user32.NewProc("PostMessageW")
	procPostQuitMessage     = user32.NewProc("PostQuitMessage")
	procRegisterClassExW    = user32.NewProc("RegisterClassExW")
	procCreateWindowExW     = user32.NewProc("CreateWindowExW")
	procDefWindowProcW      = user32.NewProc("DefWindowProcW")
	procDestroyWindow       = user32.NewProc("DestroyWindow")
	procClipCursor          = user32.NewProc("ClipCursor")
	procGetClipCursor       = user32.NewProc("GetClipCursor")
	procSetCursorPos        = user32.NewProc("SetCursorPos")
	procGetSystemMetrics    = user32.NewProc("GetSystemMetrics")

	procSetProcessDpiAwarenessContext = user32.NewProc("SetProcessDpiAwarenessContext")

	procGetModuleHandleW = kernel32.NewProc("GetModuleHandleW")
)

const (
	whMouseLL       = 14
	hcAction        = 0
	llmhfInjected   = 0x00000001
	pmNoRemove      = 0x0000
	wmDestroy       = 0x0002
	wmClose         = 0x0010
	wmQuit          = 0x0012
	wmDisplayChange = 0x007E
	wmMouseMove     = 0x0200

	smCxScreen        = 0
	smCyScreen        = 1
	smXVirtualScreen  = 76
	smYVirtualScreen  = 77
	smCxVirtualScreen = 78
	smCyVirtualScreen = 79
)

// DPI_AWARENESS_CONTEXT_PER_MONITOR_AWARE_V2 is the handle value -4
var dpiAwarenessPerMonitorV2 = ^uintptr(3)

type point struct {
	X int32
	Y int32
}

type rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

type msllHookStruct struct {
	Pt        point
	MouseData uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

type msg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}

type wndClassEx struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   windows.Handle
	Icon       windows.Handle
	Cursor     windows.Handle
	Background windows.Handle
	MenuName   *uint16
	ClassName  *uint16
	IconSm     windows.Handle
}

// windowsPlatform drives the Win32 low-level mouse hook and ClipCursor
type windowsPlatform struct{}

func newPlatform() (Platform, error) {
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("load user32.dll: %w", err)
	}

	// Coordinates from the hook and GetSystemMetrics must be physical pixels
	if procSetProcessDpiAwarenessContext.Find() == nil {
		if r, _, err := procSetProcessDpiAwarenessContext.Call(dpiAwarenessPerMonitorV2); r == 0 {
			logger.Debugf("SetProcessDpiAwarenessContext failed: %v", err)
		}
	}

	return &windowsPlatform{}, nil
}

// Low-level hook plumbing. windows.NewCallback slots are never freed, so a
// single trampoline is created and dispatches to the active hook.
var (
	hookCallback     uintptr
	hookCallbackOnce sync.Once
	activeHook       atomic.Pointer[winHook]
)

type winHook struct {
	fn        HookFunc
	handle    uintptr
	threadID  uint32
	done      chan struct{}
	closeOnce sync.Once
}

func (p *windowsPlatform) InstallMouseHook(fn HookFunc) (Hook, error) {
	hookCallbackOnce.Do(func() {
		hookCallback = windows.NewCallback(lowLevelMouseProc)
	})

	h := &winHook{fn: fn, done: make(chan struct{})}
	if !activeHook.CompareAndSwap(nil, h) {
		return nil, ErrHookInstalled
	}

	ready := make(chan error, 1)
	go h.run(ready)
	if err := <-ready; err != nil {
		activeHook.CompareAndSwap(h, nil)
		return nil, err
	}
	return h, nil
}

// run owns the hook for its whole life: WH_MOUSE_LL callbacks are delivered
// through the message loop of the installing thread.
func (h *winHook) run(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(h.done)

	h.threadID = windows.GetCurrentThreadId()

	// Force creation of the thread message queue so Close can always post WM_QUIT
	var m msg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmNoRemove)

	mod, _, _ := procGetModuleHandleW.Call(0)
	handle, _, err := procSetWindowsHookExW.Call(whMouseLL, hookCallback, mod, 0)
	if handle == 0 {
		ready <- fmt.Errorf("SetWindowsHookEx(WH_MOUSE_LL): %w", err)
		return
	}
	h.handle = handle
	ready <- nil

	pumpMessages()

	if r, _, err := procUnhookWindowsHookEx.Call(h.handle); r == 0 {
		logger.Warnf("UnhookWindowsHookEx failed: %v", err)
	}
}

func (h *winHook) Close() error {
	var err error
	h.closeOnce.Do(func() {
		// Stop dispatching before the hook is torn down
		activeHook.CompareAndSwap(h, nil)
		if r, _, e := procPostThreadMessageW.Call(uintptr(h.threadID), wmQuit, 0, 0); r == 0 {
			err = fmt.Errorf("PostThreadMessage(WM_QUIT): %w", e)
			return
		}
		<-h.done
	})
	return err
}

func lowLevelMouseProc(nCode, wParam, lParam uintptr) (ret uintptr) {
	h := activeHook.Load()
	if h == nil || int32(nCode) < hcAction {
		return callNextHook(nCode, wParam, lParam)
	}

	// A panic must never unwind into user32
	defer func() {
		if r := recover(); r != nil {
			ret = callNextHook(nCode, wParam, lParam)
		}
	}()

	info := (*msllHookStruct)(unsafe.Pointer(lParam))
	ev := MoveEvent{
		Kind:     EventOther,
		Point:    geom.Point{X: info.Pt.X, Y: info.Pt.Y},
		Injected: info.Flags&llmhfInjected != 0,
	}
	if wParam == wmMouseMove {
		ev.Kind = EventMove
	}

	if h.fn(ev) == Consume {
		return 1
	}
	return callNextHook(nCode, wParam, lParam)
}

func callNextHook(nCode, wParam, lParam uintptr) uintptr {
	r, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return r
}

func pumpMessages() {
	var m msg
	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		// 0 is WM_QUIT, -1 is an error
		if int32(r) <= 0 {
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

func (p *windowsPlatform) ClipCursor(r geom.Rect) error {
	rc := rect{Left: r.Left, Top: r.Top, Right: r.Right, Bottom: r.Bottom}
	if ok, _, err := procClipCursor.Call(uintptr(unsafe.Pointer(&rc))); ok == 0 {
		return fmt.Errorf("ClipCursor: %w", err)
	}
	return nil
}

func (p *windowsPlatform) ClearClip() error {
	if ok, _, err := procClipCursor.Call(0); ok == 0 {
		return fmt.Errorf("ClipCursor(NULL): %w", err)
	}
	return nil
}

func (p *windowsPlatform) CurrentClip() (geom.Rect, error) {
	var rc rect
	if ok, _, err := procGetClipCursor.Call(uintptr(unsafe.Pointer(&rc))); ok == 0 {
		return geom.Rect{}, fmt.Errorf("GetClipCursor: %w", err)
	}
	return geom.Rect{Left: rc.Left, Top: rc.Top, Right: rc.Right, Bottom: rc.Bottom}, nil
}

func (p *windowsPlatform) SetCursorPos(pt geom.Point) error {
	if ok, _, err := procSetCursorPos.Call(uintptr(pt.X), uintptr(pt.Y)); ok == 0 {
		return fmt.Errorf("SetCursorPos(%d,%d): %w", pt.X, pt.Y, err)
	}
	return nil
}

func systemMetric(index uintptr) int32 {
	r, _, _ := procGetSystemMetrics.Call(index)
	return int32(r)
}

func (p *windowsPlatform) VirtualScreen() (geom.Rect, error) {
	return geom.NewRect(
		systemMetric(smXVirtualScreen),
		systemMetric(smYVirtualScreen),
		systemMetric(smCxVirtualScreen),
		systemMetric(smCyVirtualScreen),
	), nil
}

// PrimaryDisplay returns the primary monitor, which Windows always places at
// the origin of the virtual desktop
func (p *windowsPlatform) PrimaryDisplay() (geom.Rect, error) {
	cx, cy := systemMetric(smCxScreen), systemMetric(smCyScreen)
	if cx <= 0 || cy <= 0 {
		return geom.Rect{}, fmt.Errorf("primary display metrics unavailable (%dx%d)", cx, cy)
	}
	return geom.NewRect(0, 0, cx, cy), nil
}

// Display-change notifications arrive as WM_DISPLAYCHANGE broadcasts, which
// only top-level windows receive. Each subscription owns a hidden window.
var (
	displayClassOnce sync.Once
	displayClassName *uint16
	displayClassErr  error
	displayFns       sync.Map // hwnd -> func()
)

func registerDisplayClass() error {
	displayClassOnce.Do(func() {
		displayClassName, displayClassErr = windows.UTF16PtrFromString("NoRevealDisplayWatcher")
		if displayClassErr != nil {
			return
		}
		mod, _, _ := procGetModuleHandleW.Call(0)
		wc := wndClassEx{
			WndProc:   windows.NewCallback(displayWndProc),
			Instance:  windows.Handle(mod),
			ClassName: displayClassName,
		}
		wc.Size = uint32(unsafe.Sizeof(wc))
		if atom, _, err := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc))); atom == 0 {
			displayClassErr = fmt.Errorf("RegisterClassEx: %w", err)
		}
	})
	return displayClassErr
}

func displayWndProc(hwnd, umsg, wParam, lParam uintptr) uintptr {
	switch uint32(umsg) {
	case wmDisplayChange:
		if fn, ok := displayFns.Load(hwnd); ok {
			go fn.(func())()
		}
		return 0
	case wmClose:
		procDestroyWindow.Call(hwnd)
		return 0
	case wmDestroy:
		displayFns.Delete(hwnd)
		procPostQuitMessage.Call(0)
		return 0
	}
	r, _, _ := procDefWindowProcW.Call(hwnd, umsg, wParam, lParam)
	return r
}

func (p *windowsPlatform) SubscribeDisplayChanges(fn func()) (func(), error) {
	if err := registerDisplayClass(); err != nil {
		return nil, err
	}

	type created struct {
		hwnd uintptr
		err  error
	}
	ready := make(chan created, 1)
	done := make(chan struct{})

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(done)

		mod, _, _ := procGetModuleHandleW.Call(0)
		hwnd, _, err := procCreateWindowExW.Call(
			0,
			uintptr(unsafe.Pointer(displayClassName)),
			uintptr(unsafe.Pointer(displayClassName)),
			0, 0, 0, 0, 0,
			0, 0, mod, 0,
		)
		if hwnd == 0 {
			ready <- created{err: fmt.Errorf("CreateWindowEx: %w", err)}
			return
		}
		displayFns.Store(hwnd, fn)
		ready <- created{hwnd: hwnd}
		pumpMessages()
	}()

	c := <-ready
	if c.err != nil {
		return nil, c.err
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			displayFns.Delete(c.hwnd)
			procPostMessageW.Call(c.hwnd, wmClose, 0, 0)
			<-done
		})
	}
	return cancel, nil
}

func (p *windowsPlatform) Close() error {
	return nil
}
