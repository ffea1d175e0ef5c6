package vlbi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStream(samples []float64) Stream {
	return Stream{
		Samples:      samples,
		StartTimeUTC: time.Unix(0, 0).UTC(),
		SampleRate:   1e6,
		Wavelength:   0.21,
		Location:     [3]float64{1000, 2000, 3000},
	}
}

func TestNodeRegistryAddAndGet(t *testing.T) {
	r := NewNodeRegistry()
	n, err := r.Add(sampleStream([]float64{1, 2, 3}), "alpha", false)
	require.NoError(t, err)
	assert.Equal(t, 0, n.Index)

	got, err := r.Get("alpha")
	require.NoError(t, err)
	assert.Same(t, n, got)
}

func TestNodeRegistryDuplicateName(t *testing.T) {
	r := NewNodeRegistry()
	_, err := r.Add(sampleStream(nil), "alpha", false)
	require.NoError(t, err)

	_, err = r.Add(sampleStream(nil), "alpha", false)
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrDuplicateName))
}

func TestNodeRegistryUnknownName(t *testing.T) {
	r := NewNodeRegistry()
	_, err := r.Get("missing")
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrUnknownName))
}

func TestNodeRegistryIndexStabilityAcrossRemoval(t *testing.T) {
	r := NewNodeRegistry()
	a, err := r.Add(sampleStream(nil), "a", false)
	require.NoError(t, err)
	b, err := r.Add(sampleStream(nil), "b", false)
	require.NoError(t, err)
	c, err := r.Add(sampleStream(nil), "c", false)
	require.NoError(t, err)

	require.NoError(t, r.Remove("b"))

	// c's index must not shift to fill b's slot.
	assert.Equal(t, a.Index, r.At(a.Index).Index)
	assert.Nil(t, r.At(b.Index))
	assert.Equal(t, c.Index, r.At(c.Index).Index)

	// Re-adding a node gets a fresh index, never the removed one.
	d, err := r.Add(sampleStream(nil), "d", false)
	require.NoError(t, err)
	assert.NotEqual(t, b.Index, d.Index)

	list := r.List()
	assert.Len(t, list, 3)
}

func TestNodeRegistryRevisionBumpsOnMembershipChange(t *testing.T) {
	r := NewNodeRegistry()
	start := r.Revision()
	_, err := r.Add(sampleStream(nil), "a", false)
	require.NoError(t, err)
	assert.Greater(t, r.Revision(), start)

	afterAdd := r.Revision()
	require.NoError(t, r.Remove("a"))
	assert.Greater(t, r.Revision(), afterAdd)
}

func TestNodeRegistryCopyDoesNotAlias(t *testing.T) {
	r := NewNodeRegistry()
	_, err := r.Add(sampleStream([]float64{1, 2, 3}), "src", false)
	require.NoError(t, err)

	cp, err := r.Copy("dup", "src")
	require.NoError(t, err)

	cp.Stream.Samples[0] = 99
	src, err := r.Get("src")
	require.NoError(t, err)
	assert.Equal(t, 1.0, src.Stream.Samples[0])
}

func TestNodeRegistryFilterLowpassRegistersNewNode(t *testing.T) {
	r := NewNodeRegistry()
	_, err := r.Add(sampleStream([]float64{1, -1, 1, -1, 1, -1}), "src", false)
	require.NoError(t, err)

	filtered, err := r.FilterLowpass("src_lp", "src", 0.1)
	require.NoError(t, err)
	assert.Len(t, filtered.Stream.Samples, 6)

	src, err := r.Get("src")
	require.NoError(t, err)
	assert.NotEqual(t, src.Stream.Samples, filtered.Stream.Samples)
}

func TestNodeLocationGeographicConversion(t *testing.T) {
	n := &Node{
		Geographic: true,
		Stream:     Stream{Location: [3]float64{0, 0, 0}},
	}
	loc := n.Location()
	assert.InDelta(t, 6378137.0, loc.X, 1.0)
	assert.InDelta(t, 0, loc.Y, 1e-6)
	assert.InDelta(t, 0, loc.Z, 1e-6)
}

func TestNodeLocationAtStepFallsBackWhenOutOfRange(t *testing.T) {
	n := &Node{
		Stream: Stream{
			Location:      [3]float64{1, 2, 3},
			LocationTrack: [][3]float64{{10, 20, 30}},
		},
	}
	assert.Equal(t, n.Location(), n.LocationAtStep(5))
	assert.NotEqual(t, n.Location(), n.LocationAtStep(0))
}
