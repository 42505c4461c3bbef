//go:build !unix

package emergency

import "os"

// Windows has no user signal; the trigger file is the only channel
func releaseSignals() []os.Signal {
	return nil
}
