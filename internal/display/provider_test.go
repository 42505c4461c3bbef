package display

import (
	"errors"
	"testing"

	"github.com/bnema/noreveal/internal/geom"
	"github.com/stretchr/testify/assert"
)

type stubSource struct {
	virtual    geom.Rect
	virtualErr error
	primary    geom.Rect
	primaryErr error
}

func (s stubSource) VirtualScreen() (geom.Rect, error)  { return s.virtual, s.virtualErr }
func (s stubSource) PrimaryDisplay() (geom.Rect, error) { return s.primary, s.primaryErr }

func TestProviderCurrent(t *testing.T) {
	virtual := geom.NewRect(-1920, 0, 4480, 1440)
	primary := geom.NewRect(0, 0, 2560, 1440)

	tests := []struct {
		name   string
		src    Source
		want   geom.Rect
		origin Origin
	}{
		{
			name:   "virtual screen",
			src:    stubSource{virtual: virtual, primary: primary},
			want:   virtual,
			origin: OriginVirtual,
		},
		{
			name:   "zero-width virtual screen uses primary",
			src:    stubSource{virtual: geom.NewRect(0, 0, 0, 1080), primary: primary},
			want:   primary,
			origin: OriginPrimary,
		},
		{
			name:   "virtual screen error uses primary",
			src:    stubSource{virtualErr: errors.New("no metrics"), primary: primary},
			want:   primary,
			origin: OriginPrimary,
		},
		{
			name:   "nothing usable",
			src:    stubSource{virtualErr: errors.New("x"), primaryErr: errors.New("y")},
			want:   FallbackBounds,
			origin: OriginFallback,
		},
		{
			name:   "negative height everywhere",
			src:    stubSource{virtual: geom.NewRect(0, 0, 100, -5), primary: geom.NewRect(0, 0, -1, 10)},
			want:   FallbackBounds,
			origin: OriginFallback,
		},
		{
			name:   "nil source",
			want:   FallbackBounds,
			origin: OriginFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewProvider(tt.src).Current()
			assert.Equal(t, tt.want, got.Rect)
			assert.Equal(t, tt.origin, got.Origin)
		})
	}
}

func TestFallbackBounds(t *testing.T) {
	assert.Equal(t, geom.Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1080}, FallbackBounds)
	assert.Equal(t, "fallback", OriginFallback.String())
}
