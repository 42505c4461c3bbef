// Package display handles monitor detection and screen bounds resolution
package display

import (
	"fmt"

	"github.com/bnema/noreveal/internal/geom"
)

// Monitor represents a physical display
type Monitor struct {
	ID      string
	Name    string
	X       int32 // Position in global coordinate space
	Y       int32
	Width   int32
	Height  int32
	Primary bool
	Scale   float64
}

// Rect returns the monitor's area in virtual-screen coordinates
func (m *Monitor) Rect() geom.Rect {
	return geom.NewRect(m.X, m.Y, m.Width, m.Height)
}

// Contains checks if a point is within this monitor
func (m *Monitor) Contains(x, y int32) bool {
	return x >= m.X && x < m.X+m.Width && y >= m.Y && y < m.Y+m.Height
}

func (m *Monitor) String() string {
	primary := ""
	if m.Primary {
		primary = " (primary)"
	}
	return fmt.Sprintf("%s %dx%d+%d+%d%s", m.Name, m.Width, m.Height, m.X, m.Y, primary)
}

// VirtualBounds returns the bounding box of every monitor with a usable size
func VirtualBounds(monitors []*Monitor) (geom.Rect, error) {
	var r geom.Rect
	for _, m := range monitors {
		r = r.Union(m.Rect())
	}
	if !r.Valid() {
		return geom.Rect{}, fmt.Errorf("no monitor with a usable size")
	}
	return r, nil
}

// PrimaryMonitor returns the monitor flagged primary, or the first one
func PrimaryMonitor(monitors []*Monitor) *Monitor {
	for _, m := range monitors {
		if m.Primary {
			return m
		}
	}
	if len(monitors) > 0 {
		return monitors[0]
	}
	return nil
}

// determinePrimaryMonitor marks a primary when the backend did not report one.
// The monitor at position (0,0) wins, with fallback to the first monitor.
func determinePrimaryMonitor(monitors []*Monitor) {
	for _, m := range monitors {
		if m.Primary {
			return
		}
	}

	for _, m := range monitors {
		if m.X == 0 && m.Y == 0 {
			m.Primary = true
			return
		}
	}

	if len(monitors) > 0 {
		monitors[0].Primary = true
	}
}
