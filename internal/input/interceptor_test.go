package input

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/bnema/noreveal/internal/confine"
	"github.com/bnema/noreveal/internal/geom"
	"github.com/bnema/noreveal/internal/platform"
	"github.com/bnema/noreveal/internal/platform/platformtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEnforcer struct {
	snap       Snapshot
	confined   bool
	reconciles atomic.Int32
	panicOn    bool
}

func (s *stubEnforcer) Snapshot() Snapshot {
	if s.panicOn {
		panic("snapshot exploded")
	}
	return s.snap
}

func (s *stubEnforcer) Reconcile()     { s.reconciles.Add(1) }
func (s *stubEnforcer) Confined() bool { return s.confined }

func bottomSnapshot() Snapshot {
	return Snapshot{
		Policy: confine.Policy{Enabled: true, Margin: 2, Edges: confine.NewEdgeSet(confine.Bottom)},
		Bounds: geom.NewRect(0, 0, 1920, 1080),
	}
}

func startInterceptor(t *testing.T, enf Enforcer) (*Interceptor, *platformtest.Fake) {
	t.Helper()
	fake := platformtest.New()
	i := NewInterceptor(fake, enf)
	require.NoError(t, i.Start())
	t.Cleanup(func() { _ = i.Stop() })
	return i, fake
}

func TestStartIsIdempotent(t *testing.T) {
	fake := platformtest.New()
	i := NewInterceptor(fake, &stubEnforcer{})

	require.NoError(t, i.Start())
	require.NoError(t, i.Start())
	assert.Equal(t, 1, fake.HookInstalls)
	assert.True(t, i.Installed())

	require.NoError(t, i.Stop())
	require.NoError(t, i.Stop())
	assert.Equal(t, 1, fake.HookCloses)
	assert.False(t, i.Installed())
}

func TestStartFailure(t *testing.T) {
	fake := platformtest.New()
	fake.HookErr = errors.New("access denied")
	i := NewInterceptor(fake, &stubEnforcer{})

	err := i.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, fake.HookErr)
	assert.False(t, i.Installed())
}

func TestPassThroughCases(t *testing.T) {
	tests := []struct {
		name   string
		snap   func() Snapshot
		event  platform.MoveEvent
		reconc bool
	}{
		{
			name:  "not a move",
			snap:  bottomSnapshot,
			event: platform.MoveEvent{Kind: platform.EventOther, Point: geom.Point{X: 10, Y: 1079}},
		},
		{
			name:  "injected",
			snap:  bottomSnapshot,
			event: platform.MoveEvent{Kind: platform.EventMove, Point: geom.Point{X: 10, Y: 1079}, Injected: true},
		},
		{
			name: "policy disabled",
			snap: func() Snapshot {
				s := bottomSnapshot()
				s.Policy.Enabled = false
				return s
			},
			event: platform.MoveEvent{Kind: platform.EventMove, Point: geom.Point{X: 10, Y: 1079}},
		},
		{
			name: "fail-safe active",
			snap: func() Snapshot {
				s := bottomSnapshot()
				s.FailSafe = true
				return s
			},
			event: platform.MoveEvent{Kind: platform.EventMove, Point: geom.Point{X: 10, Y: 1079}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enf := &stubEnforcer{snap: tt.snap()}
			_, fake := startInterceptor(t, enf)

			assert.Equal(t, platform.Pass, fake.Fire(tt.event))
			assert.Empty(t, fake.SetPosCalls)
			assert.Equal(t, int32(0), enf.reconciles.Load())
		})
	}
}

func TestConfinedPassesAfterReconcile(t *testing.T) {
	enf := &stubEnforcer{snap: bottomSnapshot(), confined: true}
	_, fake := startInterceptor(t, enf)

	assert.Equal(t, platform.Pass, fake.Move(10, 1079))
	assert.Equal(t, int32(1), enf.reconciles.Load())
	assert.Empty(t, fake.SetPosCalls)
}

func TestBottomFallbackCorrects(t *testing.T) {
	enf := &stubEnforcer{snap: bottomSnapshot()}
	_, fake := startInterceptor(t, enf)

	// margin 2 on a 1080 screen: rows 1078 and 1079 are blocked
	assert.Equal(t, platform.Pass, fake.Move(500, 1077))
	assert.Empty(t, fake.SetPosCalls)

	assert.Equal(t, platform.Consume, fake.Move(500, 1078))
	assert.Equal(t, platform.Consume, fake.Move(500, 1200))
	assert.Equal(t, []geom.Point{{X: 500, Y: 1077}, {X: 500, Y: 1077}}, fake.SetPosCalls)
}

func TestFallbackOnlyHandlesBottom(t *testing.T) {
	snap := bottomSnapshot()
	snap.Policy.Edges = confine.NewEdgeSet(confine.Top, confine.Left, confine.Right)
	enf := &stubEnforcer{snap: snap}
	_, fake := startInterceptor(t, enf)

	assert.Equal(t, platform.Pass, fake.Move(0, 0))
	assert.Equal(t, platform.Pass, fake.Move(1919, 1079))
	assert.Empty(t, fake.SetPosCalls)
}

func TestFallbackWriteFailurePasses(t *testing.T) {
	enf := &stubEnforcer{snap: bottomSnapshot()}
	_, fake := startInterceptor(t, enf)
	fake.SetPosErr = errors.New("blocked by UIPI")

	assert.Equal(t, platform.Pass, fake.Move(500, 1079))
	assert.Len(t, fake.SetPosCalls, 1)
}

func TestFallbackTargetOutsideBoundsPasses(t *testing.T) {
	snap := bottomSnapshot()
	snap.Bounds = geom.NewRect(0, 0, 1920, 2)
	snap.Policy.Margin = 5
	enf := &stubEnforcer{snap: snap}
	_, fake := startInterceptor(t, enf)

	assert.Equal(t, platform.Pass, fake.Move(10, 1))
	assert.Empty(t, fake.SetPosCalls)
}

func TestReentrantEventIsIgnored(t *testing.T) {
	enf := &stubEnforcer{snap: bottomSnapshot()}
	_, fake := startInterceptor(t, enf)

	var nested platform.Verdict = -1
	fake.OnSetCursorPos = func(p geom.Point) {
		// The OS delivers the warp as a new move before SetCursorPos returns
		nested = fake.Move(p.X, 1079)
	}

	assert.Equal(t, platform.Consume, fake.Move(500, 1079))
	assert.Equal(t, platform.Pass, nested)
	assert.Len(t, fake.SetPosCalls, 1)
	assert.Equal(t, int32(1), enf.reconciles.Load())

	// The guard is cleared synchronously
	fake.OnSetCursorPos = nil
	assert.Equal(t, platform.Consume, fake.Move(500, 1079))
}

func TestPanicInCallbackPasses(t *testing.T) {
	enf := &stubEnforcer{snap: bottomSnapshot(), panicOn: true}
	_, fake := startInterceptor(t, enf)

	assert.NotPanics(t, func() {
		assert.Equal(t, platform.Pass, fake.Move(500, 1079))
	})
}
