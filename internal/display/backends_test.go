package display

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wlrRandrJSON = `[
  {
    "name": "DP-1",
    "enabled": true,
    "scale": 1.0,
    "modes": [
      {"width": 3840, "height": 2160, "refresh": 60.0, "current": false},
      {"width": 2560, "height": 1440, "refresh": 144.0, "current": true}
    ],
    "position": {"x": 0, "y": 0}
  },
  {
    "name": "eDP-1",
    "enabled": true,
    "scale": 2.0,
    "modes": [{"width": 2880, "height": 1800, "refresh": 60.0, "current": true}],
    "position": {"x": 2560, "y": 0}
  },
  {
    "name": "HDMI-A-1",
    "enabled": false,
    "modes": [{"width": 1920, "height": 1080, "refresh": 60.0, "current": true}],
    "position": {"x": 0, "y": 0}
  }
]`

const wlrRandrText = `DP-1 "Dell Inc. DELL U2720Q"
  Enabled: yes
  Modes:
    3840x2160 px, 59.997002 Hz (preferred)
    2560x1440 px, 59.951000 Hz (current)
  Position: -2560,0
  Transform: normal
  Scale: 1.000000
HDMI-A-1 "Unknown"
  Enabled: no
  Modes:
    1920x1080 px, 60.000000 Hz (current)
eDP-1 "BOE 0x0BCA"
  Enabled: yes
  Modes:
    1920x1200 px, 60.000000 Hz (preferred, current)
  Position: 0,0
  Transform: normal
  Scale: 1.250000
`

const xrandrOutput = `Screen 0: minimum 320 x 200, current 4480 x 1440, maximum 16384 x 16384
DP-1 connected primary 2560x1440+1920+0 (normal left inverted right x axis y axis) 597mm x 336mm
   2560x1440     59.95*+
HDMI-1 connected 1920x1080+0+180 (normal left inverted right x axis y axis) 527mm x 296mm
   1920x1080     60.00*+
DP-2 connected (normal left inverted right x axis y axis)
DP-3 disconnected (normal left inverted right x axis y axis)
`

func TestParseWlrRandrJSON(t *testing.T) {
	monitors, err := parseWlrRandrJSON([]byte(wlrRandrJSON))
	require.NoError(t, err)
	require.Len(t, monitors, 2)

	assert.Equal(t, "DP-1", monitors[0].Name)
	assert.Equal(t, int32(2560), monitors[0].Width)
	assert.Equal(t, int32(1440), monitors[0].Height)

	// 2880x1800 at scale 2 is laid out as 1440x900
	assert.Equal(t, "eDP-1", monitors[1].Name)
	assert.Equal(t, int32(2560), monitors[1].X)
	assert.Equal(t, int32(1440), monitors[1].Width)
	assert.Equal(t, int32(900), monitors[1].Height)

	_, err = parseWlrRandrJSON([]byte("not json"))
	assert.Error(t, err)
}

func TestParseWlrRandrText(t *testing.T) {
	monitors, err := parseWlrRandrText(wlrRandrText)
	require.NoError(t, err)
	require.Len(t, monitors, 2)

	assert.Equal(t, "DP-1", monitors[0].Name)
	assert.Equal(t, int32(-2560), monitors[0].X)
	assert.Equal(t, int32(2560), monitors[0].Width)

	assert.Equal(t, "eDP-1", monitors[1].Name)
	assert.Equal(t, int32(1536), monitors[1].Width)
	assert.Equal(t, int32(960), monitors[1].Height)

	_, err = parseWlrRandrText("")
	assert.Error(t, err)
}

func TestParseXrandr(t *testing.T) {
	monitors, err := parseXrandr(xrandrOutput)
	require.NoError(t, err)
	require.Len(t, monitors, 2)

	assert.Equal(t, "DP-1", monitors[0].Name)
	assert.True(t, monitors[0].Primary)
	assert.Equal(t, int32(1920), monitors[0].X)
	assert.Equal(t, int32(2560), monitors[0].Width)

	assert.Equal(t, "HDMI-1", monitors[1].Name)
	assert.False(t, monitors[1].Primary)
	assert.Equal(t, int32(180), monitors[1].Y)
}

func TestParseHyprctl(t *testing.T) {
	data := `[{"id":0,"name":"DP-1","width":2560,"height":1440,"x":0,"y":0,"scale":1.0,"disabled":false},
	{"id":1,"name":"DP-2","width":1920,"height":1080,"x":2560,"y":0,"scale":1.0,"disabled":true}]`

	monitors, err := parseHyprctl([]byte(data))
	require.NoError(t, err)
	require.Len(t, monitors, 1)
	assert.Equal(t, "DP-1", monitors[0].Name)
}

type stubBackend struct {
	name     string
	monitors []*Monitor
	err      error
	calls    int
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) GetMonitors() ([]*Monitor, error) {
	s.calls++
	return s.monitors, s.err
}

func TestDetectWithFallsThrough(t *testing.T) {
	failing := &stubBackend{name: "broken", err: errors.New("boom")}
	empty := &stubBackend{name: "empty"}
	working := &stubBackend{name: "ok", monitors: []*Monitor{
		{ID: "0", X: 1920, Width: 1920, Height: 1080},
	}}
	unused := &stubBackend{name: "unused"}

	monitors, err := detectWith([]Backend{failing, empty, working, unused})
	require.NoError(t, err)
	require.Len(t, monitors, 1)
	assert.True(t, monitors[0].Primary, "a primary is always designated")
	assert.Equal(t, 0, unused.calls)
}

func TestDetectWithAllFailing(t *testing.T) {
	_, err := detectWith([]Backend{
		&stubBackend{name: "a", err: errors.New("no a")},
		&stubBackend{name: "b", err: errors.New("no b")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no a")
	assert.Contains(t, err.Error(), "no b")
}

func TestWlrRandrBackendFallsBackToText(t *testing.T) {
	b := &wlrRandrBackend{run: func(name string, args ...string) ([]byte, error) {
		if len(args) > 0 && args[0] == "--json" {
			return nil, errors.New("unknown flag")
		}
		return []byte(wlrRandrText), nil
	}}

	monitors, err := b.GetMonitors()
	require.NoError(t, err)
	assert.Len(t, monitors, 2)
}
