// Package confine computes the cursor confinement region for a policy and
// keeps the operating system's confinement in sync with it.
package confine

import (
	"fmt"
	"strings"
)

const (
	// MinMargin and MaxMargin bound the blocked strip width in pixels
	MinMargin = 1
	MaxMargin = 50
)

// Edge is one side of the screen
type Edge uint8

const (
	Top Edge = 1 << iota
	Bottom
	Left
	Right
)

// AllEdges lists the edges in display order
var AllEdges = []Edge{Top, Bottom, Left, Right}

func (e Edge) String() string {
	switch e {
	case Top:
		return "Top"
	case Bottom:
		return "Bottom"
	case Left:
		return "Left"
	case Right:
		return "Right"
	default:
		return fmt.Sprintf("Edge(%d)", uint8(e))
	}
}

// ParseEdge accepts an edge name in any case
func ParseEdge(s string) (Edge, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top":
		return Top, nil
	case "bottom":
		return Bottom, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return 0, fmt.Errorf("unknown edge %q", s)
}

// EdgeSet is a set of edges
type EdgeSet uint8

// NewEdgeSet builds a set from the given edges
func NewEdgeSet(edges ...Edge) EdgeSet {
	var s EdgeSet
	for _, e := range edges {
		s = s.Add(e)
	}
	return s
}

func (s EdgeSet) Has(e Edge) bool { return s&EdgeSet(e) != 0 }

func (s EdgeSet) Add(e Edge) EdgeSet { return s | EdgeSet(e) }

func (s EdgeSet) Remove(e Edge) EdgeSet { return s &^ EdgeSet(e) }

func (s EdgeSet) Empty() bool { return s&EdgeSet(Top|Bottom|Left|Right) == 0 }

// Edges returns the members in Top, Bottom, Left, Right order
func (s EdgeSet) Edges() []Edge {
	var out []Edge
	for _, e := range AllEdges {
		if s.Has(e) {
			out = append(out, e)
		}
	}
	return out
}

func (s EdgeSet) Len() int { return len(s.Edges()) }

func (s EdgeSet) String() string {
	edges := s.Edges()
	if len(edges) == 0 {
		return "None"
	}
	names := make([]string, len(edges))
	for i, e := range edges {
		names[i] = e.String()
	}
	return strings.Join(names, ", ")
}

// Policy is the confinement configuration the engine enforces. It is
// replaced wholesale, never mutated while shared.
type Policy struct {
	Enabled bool
	Margin  int32
	Edges   EdgeSet
}

// Active reports whether the policy asks for any confinement at all. An
// empty edge set counts as disabled.
func (p Policy) Active() bool {
	return p.Enabled && !p.Edges.Empty()
}

// Disabled returns a copy with Enabled cleared
func (p Policy) Disabled() Policy {
	p.Enabled = false
	return p
}

func (p Policy) String() string {
	return fmt.Sprintf("enabled=%t margin=%dpx edges=[%s]", p.Enabled, p.Margin, p.Edges)
}
