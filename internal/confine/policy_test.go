package confine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEdge(t *testing.T) {
	for _, in := range []string{"bottom", "Bottom", " BOTTOM "} {
		e, err := ParseEdge(in)
		require.NoError(t, err, in)
		assert.Equal(t, Bottom, e)
	}

	_, err := ParseEdge("middle")
	assert.Error(t, err)
}

func TestEdgeSet(t *testing.T) {
	s := NewEdgeSet(Right, Top, Right)
	assert.True(t, s.Has(Top))
	assert.True(t, s.Has(Right))
	assert.False(t, s.Has(Bottom))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []Edge{Top, Right}, s.Edges())
	assert.Equal(t, "Top, Right", s.String())

	s = s.Remove(Top).Remove(Right)
	assert.True(t, s.Empty())
	assert.Equal(t, "None", s.String())
}

func TestPolicyActive(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		want   bool
	}{
		{"enabled with edges", Policy{Enabled: true, Margin: 1, Edges: NewEdgeSet(Bottom)}, true},
		{"disabled", Policy{Enabled: false, Margin: 1, Edges: NewEdgeSet(Bottom)}, false},
		{"no edges", Policy{Enabled: true, Margin: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Active())
		})
	}
}

func TestPolicyDisabledCopies(t *testing.T) {
	p := Policy{Enabled: true, Margin: 3, Edges: NewEdgeSet(Left)}
	d := p.Disabled()
	assert.True(t, p.Enabled)
	assert.False(t, d.Enabled)
	assert.Equal(t, p.Margin, d.Margin)
	assert.Equal(t, p.Edges, d.Edges)
}
