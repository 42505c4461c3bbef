// Package notify surfaces status messages to the desktop
package notify

import (
	"fmt"
	"sync"

	"github.com/bnema/noreveal/internal/logger"
	"github.com/godbus/dbus/v5"
)

const appName = "NoReveal"

// Notifier shows a short message to the user
type Notifier interface {
	Notify(summary, body string) error
	Close() error
}

// New returns a desktop notifier when a notification daemon is reachable on
// the session bus, and a log-only notifier otherwise
func New() Notifier {
	n, err := NewDBus()
	if err != nil {
		logger.Debugf("Desktop notifications unavailable, logging instead: %v", err)
		return LogNotifier{}
	}
	return n
}

// LogNotifier writes notifications to the log
type LogNotifier struct{}

func (LogNotifier) Notify(summary, body string) error {
	logger.Info(summary, "message", body)
	return nil
}

func (LogNotifier) Close() error { return nil }

// busObject is the part of dbus.BusObject the notifier calls
type busObject interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// DBusNotifier talks to org.freedesktop.Notifications. Each message replaces
// the previous one instead of stacking.
type DBusNotifier struct {
	conn *dbus.Conn
	obj  busObject

	mu     sync.Mutex
	lastID uint32
}

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = "org.freedesktop.Notifications.Notify"

	// expireMillis is how long a notification stays on screen
	expireMillis = int32(3000)
)

// NewDBus connects to the session bus and checks that a notification daemon
// answers
func NewDBus() (*DBusNotifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	obj := conn.Object(notifyDest, dbus.ObjectPath(notifyPath))
	call := obj.Call("org.freedesktop.Notifications.GetServerInformation", 0)
	if call.Err != nil {
		conn.Close()
		return nil, fmt.Errorf("no notification daemon: %w", call.Err)
	}

	return &DBusNotifier{conn: conn, obj: obj}, nil
}

func (n *DBusNotifier) Notify(summary, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	call := n.obj.Call(notifyMethod, 0,
		appName,
		n.lastID,
		"input-mouse",
		summary,
		body,
		[]string{},
		map[string]dbus.Variant{},
		expireMillis,
	)
	if call.Err != nil {
		return fmt.Errorf("notification failed: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err == nil {
		n.lastID = id
	}
	return nil
}

func (n *DBusNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}

// Gated drops messages while show returns false
type Gated struct {
	Notifier
	Show func() bool
}

func (g Gated) Notify(summary, body string) error {
	if g.Show != nil && !g.Show() {
		logger.Debug("Notification suppressed", "summary", summary, "message", body)
		return nil
	}
	return g.Notifier.Notify(summary, body)
}
