package vlbi

import (
	"testing"

	"github.com/banshee-data/vlbicore/internal/geo"
	"github.com/banshee-data/vlbicore/internal/units"
	"github.com/banshee-data/vlbicore/internal/vlbitime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geoStream(latDeg, lonDeg, elevM float64) Stream {
	return Stream{
		Wavelength: 0.21,
		Location:   [3]float64{units.DegToRad(latDeg), units.DegToRad(lonDeg), elevM},
	}
}

func threeNodeRegistry(t *testing.T) *NodeRegistry {
	t.Helper()
	r := NewNodeRegistry()
	_, err := r.Add(geoStream(40.0, -75.0, 10), "a", true)
	require.NoError(t, err)
	_, err = r.Add(geoStream(40.5, -75.2, 20), "b", true)
	require.NoError(t, err)
	_, err = r.Add(geoStream(41.0, -74.8, 30), "c", true)
	require.NoError(t, err)
	return r
}

func TestBaselineSetCountIsNChoose2(t *testing.T) {
	r := threeNodeRegistry(t)
	set := NewBaselineSet(r, ReferenceArray, geo.GeodeticPoint{LatRad: units.DegToRad(40), LonRad: units.DegToRad(-75)})
	assert.Len(t, set.All(), 3) // 3*(3-1)/2

	_, err := r.Add(geoStream(39.0, -76.0, 5), "d", true)
	require.NoError(t, err)
	assert.Len(t, set.All(), 6) // 4*(4-1)/2
}

func TestBaselineSetCanonicalOrdering(t *testing.T) {
	r := threeNodeRegistry(t)
	set := NewBaselineSet(r, ReferenceArray, geo.GeodeticPoint{})
	for _, bl := range set.All() {
		assert.Less(t, bl.N1.Index, bl.N2.Index)
	}
}

func TestBaselineSetRebuildsOnlyOnRevisionChange(t *testing.T) {
	r := threeNodeRegistry(t)
	set := NewBaselineSet(r, ReferenceArray, geo.GeodeticPoint{})
	first := set.All()
	second := set.All()
	assert.Same(t, &first[0], &second[0])
}

func TestBaselineProjectOverheadTargetNonZero(t *testing.T) {
	r := threeNodeRegistry(t)
	set := NewBaselineSet(r, ReferenceArray, geo.GeodeticPoint{LatRad: units.DegToRad(40), LonRad: units.DegToRad(-75)})
	bl := set.All()[0]

	// RA equal to node a's local sidereal time at t=0 puts the target on
	// its meridian; with dec equal to its latitude that is the zenith.
	overheadRA := units.HoursToRad(vlbitime.J2000ToLST(0, -75))
	u, v, w, tau, ok := bl.Project(0, overheadRA, units.DegToRad(40))
	require.True(t, ok)
	assert.False(t, u == 0 && v == 0 && w == 0)
	_ = tau
}

func TestBaselineProjectBelowHorizonBothNodes(t *testing.T) {
	r := threeNodeRegistry(t)
	set := NewBaselineSet(r, ReferenceArray, geo.GeodeticPoint{LatRad: units.DegToRad(40), LonRad: units.DegToRad(-75)})
	bl := set.All()[0]

	// Declination far south of a mid-northern-latitude site never rises.
	_, _, _, _, ok := bl.Project(0, 0, units.DegToRad(-85))
	assert.False(t, ok)
}

func TestBaselineLockUnlock(t *testing.T) {
	r := threeNodeRegistry(t)
	set := NewBaselineSet(r, ReferenceArray, geo.GeodeticPoint{})
	bl := set.All()[0]

	buf := []complex128{1 + 2i, 3 + 4i}
	bl.Lock(buf)
	assert.True(t, bl.Locked)
	assert.Equal(t, buf, bl.LockedBuffer)

	bl.Unlock()
	assert.False(t, bl.Locked)
	assert.Nil(t, bl.LockedBuffer)
}

func TestBaselineSetArrayReferenceForcesRebuild(t *testing.T) {
	r := threeNodeRegistry(t)
	set := NewBaselineSet(r, ReferenceArray, geo.GeodeticPoint{LatRad: 0, LonRad: 0})
	bl := set.All()[0]
	oldLat := bl.refLatRad

	set.SetArrayReference(geo.GeodeticPoint{LatRad: units.DegToRad(50), LonRad: units.DegToRad(-75)})
	bl = set.All()[0]
	assert.NotEqual(t, oldLat, bl.refLatRad)
}

func TestBaselineSetRelativeModeUsesMidpoint(t *testing.T) {
	r := threeNodeRegistry(t)
	set := NewBaselineSet(r, ReferenceRelative, geo.GeodeticPoint{})
	bl := set.All()[0]

	mid := geo.Midpoint(bl.N1.Location(), bl.N2.Location())
	wantLat, wantLon, _ := geo.ECEFToGeodetic(mid)
	assert.InDelta(t, wantLat, bl.refLatRad, 1e-9)
	assert.InDelta(t, wantLon, bl.refLonRad, 1e-9)
}
