package display

import (
	"encoding/json"
	"fmt"
	"strings"
)

// wlrRandrBackend uses wlr-randr for display detection on wlroots compositors
type wlrRandrBackend struct {
	run runner
}

func (w *wlrRandrBackend) Name() string { return "wlr-randr" }

func (w *wlrRandrBackend) GetMonitors() ([]*Monitor, error) {
	output, err := w.run("wlr-randr", "--json")
	if err == nil {
		if monitors, perr := parseWlrRandrJSON(output); perr == nil {
			return monitors, nil
		}
	}

	// Older wlr-randr builds have no --json flag
	output, err = w.run("wlr-randr")
	if err != nil {
		return nil, fmt.Errorf("failed to run wlr-randr: %w", err)
	}
	return parseWlrRandrText(string(output))
}

type wlrOutput struct {
	Name    string  `json:"name"`
	Enabled bool    `json:"enabled"`
	Scale   float64 `json:"scale"`
	Primary bool    `json:"primary"`
	Modes   []struct {
		Width   int     `json:"width"`
		Height  int     `json:"height"`
		Refresh float64 `json:"refresh"`
		Current bool    `json:"current"`
	} `json:"modes"`
	Position struct {
		X int `json:"x"`
		Y int `json:"y"`
	} `json:"position"`
}

func parseWlrRandrJSON(data []byte) ([]*Monitor, error) {
	var outputs []wlrOutput
	if err := json.Unmarshal(data, &outputs); err != nil {
		return nil, fmt.Errorf("failed to parse wlr-randr output: %w", err)
	}

	var monitors []*Monitor
	for i, out := range outputs {
		if !out.Enabled {
			continue
		}

		var width, height int
		for _, mode := range out.Modes {
			if mode.Current {
				width, height = mode.Width, mode.Height
				break
			}
		}
		if width == 0 || height == 0 {
			continue
		}

		scale := out.Scale
		if scale == 0 {
			scale = 1.0
		}

		monitors = append(monitors, &Monitor{
			ID:      fmt.Sprintf("%d", i),
			Name:    out.Name,
			X:       int32(out.Position.X),
			Y:       int32(out.Position.Y),
			Width:   logicalSize(width, scale),
			Height:  logicalSize(height, scale),
			Scale:   scale,
			Primary: out.Primary,
		})
	}

	if len(monitors) == 0 {
		return nil, fmt.Errorf("no active monitors found")
	}
	return monitors, nil
}

// logicalSize converts a mode size to layout pixels. Positions reported by
// wlroots are already logical.
func logicalSize(px int, scale float64) int32 {
	if scale <= 0 {
		return int32(px)
	}
	return int32(float64(px)/scale + 0.5)
}

func parseWlrRandrText(output string) ([]*Monitor, error) {
	var monitors []*Monitor
	var current *Monitor
	var width, height int

	flush := func() {
		if current != nil && width > 0 && height > 0 {
			current.Width = logicalSize(width, current.Scale)
			current.Height = logicalSize(height, current.Scale)
			monitors = append(monitors, current)
		}
		current = nil
		width, height = 0, 0
	}

	for _, raw := range strings.Split(output, "\n") {
		if raw == "" {
			continue
		}

		// Output headers are the only unindented lines
		if raw[0] != ' ' && raw[0] != '\t' {
			flush()
			if parts := strings.Fields(raw); len(parts) > 0 {
				current = &Monitor{
					ID:    fmt.Sprintf("%d", len(monitors)),
					Name:  parts[0],
					Scale: 1.0,
				}
			}
			continue
		}
		if current == nil {
			continue
		}

		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "Enabled:"):
			if !strings.Contains(line, "yes") {
				current = nil
				width, height = 0, 0
			}
		case strings.HasPrefix(line, "Position:"):
			fmt.Sscanf(strings.TrimSpace(strings.TrimPrefix(line, "Position:")), "%d,%d", &current.X, &current.Y)
		case strings.HasPrefix(line, "Scale:"):
			fmt.Sscanf(strings.TrimSpace(strings.TrimPrefix(line, "Scale:")), "%f", &current.Scale)
		case strings.Contains(line, "current"):
			// "1920x1080 px, 60.000000 Hz (preferred, current)"
			if fields := strings.Fields(line); len(fields) > 0 {
				fmt.Sscanf(fields[0], "%dx%d", &width, &height)
			}
		}
	}
	flush()

	if len(monitors) == 0 {
		return nil, fmt.Errorf("no monitors detected from wlr-randr output")
	}
	return monitors, nil
}
