package confine

import "github.com/bnema/noreveal/internal/geom"

// ComputeRegion shrinks bounds by the policy margin on every restricted edge
// and returns the inclusive rectangle handed to the OS. bounds uses exclusive
// Right/Bottom. The result always spans at least two pixels on each axis.
func ComputeRegion(bounds geom.Rect, p Policy) geom.Rect {
	var lm, tm, rm, bm int32
	if p.Edges.Has(Left) {
		lm = p.Margin
	}
	if p.Edges.Has(Top) {
		tm = p.Margin
	}
	if p.Edges.Has(Right) {
		rm = p.Margin
	}
	if p.Edges.Has(Bottom) {
		bm = p.Margin
	}

	r := geom.Rect{
		Left:   bounds.Left + lm,
		Top:    bounds.Top + tm,
		Right:  bounds.Right - rm - 1,
		Bottom: bounds.Bottom - bm - 1,
	}
	if r.Right <= r.Left {
		r.Right = r.Left + 1
	}
	if r.Bottom <= r.Top {
		r.Bottom = r.Top + 1
	}
	return r
}
