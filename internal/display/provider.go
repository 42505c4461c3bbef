package display

import (
	"github.com/bnema/noreveal/internal/geom"
)

// FallbackBounds is used when neither the virtual screen nor the primary
// display can be queried
var FallbackBounds = geom.NewRect(0, 0, 1920, 1080)

// Origin records which query produced a Bounds value
type Origin int

const (
	OriginVirtual Origin = iota
	OriginPrimary
	OriginFallback
)

func (o Origin) String() string {
	switch o {
	case OriginVirtual:
		return "virtual screen"
	case OriginPrimary:
		return "primary display"
	default:
		return "fallback"
	}
}

// Bounds is a usable screen rectangle and where it came from
type Bounds struct {
	geom.Rect
	Origin Origin
}

// Source is the subset of the platform that reports screen geometry
type Source interface {
	VirtualScreen() (geom.Rect, error)
	PrimaryDisplay() (geom.Rect, error)
}

// Provider resolves the screen rectangle the confinement is computed from.
// It never fails; callers log the result.
type Provider struct {
	src Source
}

// NewProvider returns a Provider reading from src
func NewProvider(src Source) *Provider {
	return &Provider{src: src}
}

// Current returns the virtual screen, then the primary display, then
// FallbackBounds, whichever is first to have a positive size
func (p *Provider) Current() Bounds {
	if p.src != nil {
		if r, err := p.src.VirtualScreen(); err == nil && r.Valid() {
			return Bounds{Rect: r, Origin: OriginVirtual}
		}
		if r, err := p.src.PrimaryDisplay(); err == nil && r.Valid() {
			return Bounds{Rect: r, Origin: OriginPrimary}
		}
	}
	return Bounds{Rect: FallbackBounds, Origin: OriginFallback}
}
