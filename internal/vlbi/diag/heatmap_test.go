package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGrid struct {
	visibility []complex128
	coverage   []float64
}

func (f fakeGrid) Visibility() []complex128 { return f.visibility }
func (f fakeGrid) Coverage() []float64      { return f.coverage }

func TestRenderCoverageHeatmapProducesHTML(t *testing.T) {
	g := fakeGrid{
		visibility: make([]complex128, 4),
		coverage:   []float64{0, 1, 2, 3},
	}
	var buf bytes.Buffer
	require.NoError(t, RenderCoverageHeatmap(&buf, g, 2, 2, "test"))
	assert.True(t, strings.Contains(buf.String(), "<html"))
}

func TestRenderAmplitudeHeatmapProducesHTML(t *testing.T) {
	g := fakeGrid{
		visibility: []complex128{1 + 1i, 2, 0, 3 + 4i},
		coverage:   make([]float64, 4),
	}
	var buf bytes.Buffer
	require.NoError(t, RenderAmplitudeHeatmap(&buf, g, 2, 2, "test"))
	assert.True(t, strings.Contains(buf.String(), "<html"))
}

func TestRenderHeatmapDimensionMismatch(t *testing.T) {
	g := fakeGrid{visibility: make([]complex128, 4), coverage: make([]float64, 4)}
	var buf bytes.Buffer
	err := RenderCoverageHeatmap(&buf, g, 3, 3, "test")
	assert.Error(t, err)
}
