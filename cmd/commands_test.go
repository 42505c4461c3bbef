package cmd

import (
	"encoding/json"
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/bnema/noreveal/internal/confine"
	"github.com/bnema/noreveal/internal/display"
	"github.com/bnema/noreveal/internal/emergency"
	"github.com/bnema/noreveal/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleaseCreatesTriggerFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Setenv("TMP", t.TempDir())
	} else {
		t.Setenv("TMPDIR", t.TempDir())
	}
	path := tempConfigPath(t)

	out, err := executeCommand(t, rootCmd, "--config", path, "release")
	require.NoError(t, err)
	assert.Contains(t, out, "Release requested")
	assert.FileExists(t, emergency.TriggerFile())
}

func TestVersion(t *testing.T) {
	path := tempConfigPath(t)

	out, err := executeCommand(t, rootCmd, "--config", path, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "noreveal "+Version))
}

func TestStatusNotRunning(t *testing.T) {
	path := tempConfigPath(t)

	out, err := executeCommand(t, rootCmd, "--config", path, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not running")
	assert.Contains(t, out, "Blocking Bottom, 2px")
}

func TestDescribeBounds(t *testing.T) {
	b := display.Bounds{Rect: geom.NewRect(0, 0, 1920, 1080), Origin: display.OriginVirtual}
	p := confine.Policy{Enabled: true, Margin: 2, Edges: confine.NewEdgeSet(confine.Bottom)}
	monitors := []*display.Monitor{
		{ID: "DP-1", Name: "DP-1", Width: 1920, Height: 1080, Primary: true, Scale: 1},
	}

	info := describeBounds(b, p, monitors)
	assert.Equal(t, RectInfo{Right: 1920, Bottom: 1080}, info.Bounds)
	assert.Equal(t, "virtual screen", info.Origin)
	require.NotNil(t, info.Region)
	assert.Equal(t, confine.ComputeRegion(b.Rect, p).Bottom, info.Region.Bottom)
	require.Len(t, info.Monitors, 1)
	assert.True(t, info.Monitors[0].Primary)

	data, err := json.Marshal(info)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"origin":"virtual screen"`)
}

func TestDescribeBoundsDisabled(t *testing.T) {
	b := display.Bounds{Rect: display.FallbackBounds, Origin: display.OriginFallback}
	info := describeBounds(b, confine.Policy{Enabled: false, Margin: 2, Edges: confine.NewEdgeSet(confine.Top)}, nil)
	assert.Nil(t, info.Region)

	var sb strings.Builder
	printBounds(&sb, info)
	assert.Contains(t, sb.String(), "1920x1080 at (0, 0) [fallback]")
	assert.Contains(t, sb.String(), "unrestricted")
	assert.NotContains(t, sb.String(), "monitor(s)")
}

func TestMain(m *testing.M) {
	// Keep test runs from touching the real user config
	dir, err := os.MkdirTemp("", "noreveal-cmd-test-*")
	if err != nil {
		panic(err)
	}
	os.Setenv("XDG_CONFIG_HOME", dir)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}
