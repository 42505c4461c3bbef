package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bnema/noreveal/internal/config"
	"github.com/bnema/noreveal/internal/confine"
	"github.com/bnema/noreveal/internal/display"
	"github.com/bnema/noreveal/internal/geom"
	"github.com/bnema/noreveal/internal/platform"
	"github.com/spf13/cobra"
)

// BoundsInfo is the JSON output of the bounds command
type BoundsInfo struct {
	Bounds   RectInfo      `json:"bounds"`
	Origin   string        `json:"origin"`
	Policy   string        `json:"policy"`
	Region   *RectInfo     `json:"region,omitempty"`
	Monitors []MonitorInfo `json:"monitors,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// RectInfo is a rectangle in screen coordinates, right and bottom exclusive
type RectInfo struct {
	Left   int32 `json:"left"`
	Top    int32 `json:"top"`
	Right  int32 `json:"right"`
	Bottom int32 `json:"bottom"`
}

// MonitorInfo represents information about a single monitor
type MonitorInfo struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	X       int32   `json:"x"`
	Y       int32   `json:"y"`
	Width   int32   `json:"width"`
	Height  int32   `json:"height"`
	Primary bool    `json:"primary"`
	Scale   float64 `json:"scale"`
}

var jsonOutput bool

var boundsCmd = &cobra.Command{
	Use:     "bounds",
	Aliases: []string{"monitors"},
	Short:   "Show screen bounds and the confinement region",
	Long: `Show the screen bounds NoReveal would use, where they came from
(virtual screen, primary display or the 1920x1080 fallback), the connected
monitors and the region the cursor is kept inside for the current policy.`,
	RunE: runBounds,
}

func init() {
	boundsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.AddCommand(boundsCmd)
}

func runBounds(cmd *cobra.Command, args []string) error {
	var src display.Source = unavailableSource{}
	var srcErr error
	if plat, err := platform.New(); err == nil {
		defer plat.Close()
		src = plat
	} else {
		srcErr = err
	}

	monitors, _ := display.DetectMonitors()
	info := describeBounds(display.NewProvider(src).Current(), config.Get().Policy(), monitors)
	if srcErr != nil {
		info.Error = srcErr.Error()
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	printBounds(cmd.OutOrStdout(), info)
	return nil
}

// unavailableSource stands in when the platform cannot be opened, so the
// provider reports the fallback bounds
type unavailableSource struct{}

func (unavailableSource) VirtualScreen() (geom.Rect, error)  { return geom.Rect{}, platform.ErrUnsupported }
func (unavailableSource) PrimaryDisplay() (geom.Rect, error) { return geom.Rect{}, platform.ErrUnsupported }

func describeBounds(b display.Bounds, p confine.Policy, monitors []*display.Monitor) BoundsInfo {
	info := BoundsInfo{
		Bounds: rectInfo(b.Rect),
		Origin: b.Origin.String(),
		Policy: p.String(),
	}
	if p.Active() {
		r := rectInfo(confine.ComputeRegion(b.Rect, p))
		info.Region = &r
	}
	for _, mon := range monitors {
		info.Monitors = append(info.Monitors, MonitorInfo{
			ID:      mon.ID,
			Name:    mon.Name,
			X:       mon.X,
			Y:       mon.Y,
			Width:   mon.Width,
			Height:  mon.Height,
			Primary: mon.Primary,
			Scale:   mon.Scale,
		})
	}
	return info
}

func rectInfo(r geom.Rect) RectInfo {
	return RectInfo{Left: r.Left, Top: r.Top, Right: r.Right, Bottom: r.Bottom}
}

func printBounds(w io.Writer, info BoundsInfo) {
	b := info.Bounds
	fmt.Fprintf(w, "Screen bounds: %dx%d at (%d, %d) [%s]\n", b.Right-b.Left, b.Bottom-b.Top, b.Left, b.Top, info.Origin)
	if info.Error != "" {
		fmt.Fprintf(w, "  Platform:   %s\n", info.Error)
	}
	fmt.Fprintf(w, "Policy:        %s\n", info.Policy)
	if info.Region != nil {
		r := info.Region
		fmt.Fprintf(w, "Cursor region: L=%d T=%d R=%d B=%d\n", r.Left, r.Top, r.Right, r.Bottom)
	} else {
		fmt.Fprintln(w, "Cursor region: unrestricted (blocking disabled)")
	}

	if len(info.Monitors) == 0 {
		return
	}
	fmt.Fprintf(w, "\nDetected %d monitor(s):\n\n", len(info.Monitors))
	for i, mon := range info.Monitors {
		fmt.Fprintf(w, "Monitor %d:\n", i+1)
		fmt.Fprintf(w, "  Name:       %s\n", mon.Name)
		if mon.ID != "" && mon.ID != mon.Name {
			fmt.Fprintf(w, "  ID:         %s\n", mon.ID)
		}
		fmt.Fprintf(w, "  Resolution: %dx%d\n", mon.Width, mon.Height)
		fmt.Fprintf(w, "  Position:   (%d, %d)\n", mon.X, mon.Y)
		if mon.Primary {
			fmt.Fprintf(w, "  Primary:    Yes\n")
		}
		if mon.Scale != 0 && mon.Scale != 1.0 {
			fmt.Fprintf(w, "  Scale:      %.1fx\n", mon.Scale)
		}
		fmt.Fprintln(w)
	}
}
