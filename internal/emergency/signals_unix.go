//go:build unix

package emergency

import (
	"os"
	"syscall"
)

func releaseSignals() []os.Signal {
	return []os.Signal{syscall.SIGUSR1}
}
