//go:build !windows && !linux

package platform

import "fmt"

func newPlatform() (Platform, error) {
	return nil, fmt.Errorf("cursor confinement backend: %w", ErrUnsupported)
}
