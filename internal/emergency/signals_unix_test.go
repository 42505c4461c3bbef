//go:build unix

package emergency

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalTrigger(t *testing.T) {
	rec := &recorder{}
	w := NewWatcher(rec.record, WithTriggerFile(filepath.Join(t.TempDir(), TriggerFileName)))
	w.Start(context.Background())
	defer w.Stop()

	p, err := os.FindProcess(os.Getpid())
	require.NoError(t, err)
	require.NoError(t, p.Signal(syscall.SIGUSR1))

	assert.Eventually(t, func() bool {
		return len(rec.get()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"signal"}, rec.get())
}
