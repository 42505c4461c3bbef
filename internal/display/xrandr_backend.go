package display

import (
	"encoding/json"
	"fmt"
	"strings"
)

// xrandrBackend covers X11 sessions and XWayland
type xrandrBackend struct {
	run runner
}

func (x *xrandrBackend) Name() string { return "xrandr" }

func (x *xrandrBackend) GetMonitors() ([]*Monitor, error) {
	output, err := x.run("xrandr", "--query")
	if err != nil {
		return nil, fmt.Errorf("failed to run xrandr: %w", err)
	}
	return parseXrandr(string(output))
}

// parseXrandr reads lines like
// "DP-1 connected primary 2560x1440+1920+0 (normal left inverted ...) 597mm x 336mm"
func parseXrandr(output string) ([]*Monitor, error) {
	var monitors []*Monitor
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, " connected") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 3 {
			continue
		}

		m := &Monitor{
			ID:    fmt.Sprintf("%d", len(monitors)),
			Name:  parts[0],
			Scale: 1.0,
		}
		found := false
		for _, part := range parts[2:] {
			if part == "primary" {
				m.Primary = true
				continue
			}
			var w, h, px, py int32
			if n, _ := fmt.Sscanf(part, "%dx%d+%d+%d", &w, &h, &px, &py); n == 4 {
				m.Width, m.Height, m.X, m.Y = w, h, px, py
				found = true
				break
			}
		}
		// Connected but switched off
		if !found {
			continue
		}
		monitors = append(monitors, m)
	}

	if len(monitors) == 0 {
		return nil, fmt.Errorf("no active monitors in xrandr output")
	}
	return monitors, nil
}

// hyprctlBackend asks Hyprland directly
type hyprctlBackend struct {
	run runner
}

func (h *hyprctlBackend) Name() string { return "hyprctl" }

func (h *hyprctlBackend) GetMonitors() ([]*Monitor, error) {
	output, err := h.run("hyprctl", "monitors", "-j")
	if err != nil {
		return nil, fmt.Errorf("failed to run hyprctl: %w", err)
	}
	return parseHyprctl(output)
}

func parseHyprctl(data []byte) ([]*Monitor, error) {
	var hyprMonitors []struct {
		ID       int     `json:"id"`
		Name     string  `json:"name"`
		Width    int     `json:"width"`
		Height   int     `json:"height"`
		X        int     `json:"x"`
		Y        int     `json:"y"`
		Scale    float64 `json:"scale"`
		Disabled bool    `json:"disabled"`
	}
	if err := json.Unmarshal(data, &hyprMonitors); err != nil {
		return nil, fmt.Errorf("failed to parse hyprctl output: %w", err)
	}

	var monitors []*Monitor
	for _, hm := range hyprMonitors {
		if hm.Disabled || hm.Width <= 0 || hm.Height <= 0 {
			continue
		}
		scale := hm.Scale
		if scale == 0 {
			scale = 1.0
		}
		monitors = append(monitors, &Monitor{
			ID:     fmt.Sprintf("%d", hm.ID),
			Name:   hm.Name,
			X:      int32(hm.X),
			Y:      int32(hm.Y),
			Width:  logicalSize(hm.Width, scale),
			Height: logicalSize(hm.Height, scale),
			Scale:  scale,
		})
	}
	if len(monitors) == 0 {
		return nil, fmt.Errorf("no active monitors in hyprctl output")
	}
	return monitors, nil
}
