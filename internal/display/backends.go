package display

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/bnema/noreveal/internal/logger"
)

// Backend is one way of asking the desktop for its monitor layout
type Backend interface {
	Name() string
	GetMonitors() ([]*Monitor, error)
}

// runner executes an external tool and returns its stdout
type runner func(name string, args ...string) ([]byte, error)

func execRunner(name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%s not found: %w", name, err)
	}
	return exec.Command(name, args...).Output()
}

// Backends returns the detection methods in order of preference
func Backends() []Backend {
	return []Backend{
		&wlrRandrBackend{run: execRunner},
		&hyprctlBackend{run: execRunner},
		&xrandrBackend{run: execRunner},
	}
}

// DetectMonitors tries each backend in turn and returns the first
// non-empty layout
func DetectMonitors() ([]*Monitor, error) {
	return detectWith(Backends())
}

func detectWith(backends []Backend) ([]*Monitor, error) {
	var errs []error
	for _, b := range backends {
		monitors, err := b.GetMonitors()
		if err != nil {
			logger.Debugf("Display backend %s failed: %v", b.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}
		if len(monitors) == 0 {
			errs = append(errs, fmt.Errorf("%s: no monitors", b.Name()))
			continue
		}
		determinePrimaryMonitor(monitors)
		logger.Debugf("Display backend %s found %d monitor(s)", b.Name(), len(monitors))
		return monitors, nil
	}
	return nil, fmt.Errorf("no display backend available: %w", errors.Join(errs...))
}
