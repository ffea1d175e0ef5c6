package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeodeticECEFRoundTrip(t *testing.T) {
	cases := []struct {
		name           string
		latDeg, lonDeg float64
		elevM          float64
	}{
		{"equator prime meridian", 0, 0, 0},
		{"equator 90E", 0, 90, 100},
		{"mid-lat", 51.4769, -0.0005, 45},
		{"south pole-ish", -89.9, 30, 2835},
		{"north high lat", 78.2, 15.6, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			latRad := tc.latDeg * math.Pi / 180
			lonRad := tc.lonDeg * math.Pi / 180

			ecef := GeodeticToECEF(latRad, lonRad, tc.elevM)
			lat2, lon2, elev2 := ECEFToGeodetic(ecef)

			assert.InDelta(t, latRad, lat2, 1e-9)
			assert.InDelta(t, lonRad, lon2, 1e-9)
			assert.InDelta(t, tc.elevM, elev2, 1.0) // within 1 meter
		})
	}
}

func TestMidpoint(t *testing.T) {
	a := ECEF{X: 0, Y: 0, Z: 0}
	b := ECEF{X: 10, Y: 20, Z: 30}
	m := Midpoint(a, b)
	assert.Equal(t, ECEF{X: 5, Y: 10, Z: 15}, m)
}

func TestECEFArithmetic(t *testing.T) {
	a := ECEF{X: 1, Y: 2, Z: 3}
	b := ECEF{X: 4, Y: 5, Z: 6}
	assert.Equal(t, ECEF{X: -3, Y: -3, Z: -3}, a.Sub(b))
	assert.Equal(t, ECEF{X: 5, Y: 7, Z: 9}, a.Add(b))
	assert.Equal(t, ECEF{X: 2, Y: 4, Z: 6}, a.Scale(2))
}

func TestAltAzZenith(t *testing.T) {
	// Observer at lat=0, lon=0. Target at dec=0, RA chosen so hour angle=0
	// (on the meridian) at lst=0 -> should be near zenith (alt ~ 90deg).
	alt, _ := AltAz(0, 0, 0, 0, 0)
	assert.InDelta(t, math.Pi/2, alt, 1e-6)
}

func TestAltAzBelowHorizon(t *testing.T) {
	// Target at the opposite pole from the observer's zenith: alt should be
	// strongly negative (below horizon).
	alt, _ := AltAz(12, 0, 0, 0, 0)
	assert.Less(t, alt, 0.0)
}

func TestAltAzAzimuthRange(t *testing.T) {
	for _, ha := range []float64{0, 1, 6, 12, 18, 23} {
		_, az := AltAz(ha, 0.2, 0.3, 0.9, -1.2)
		assert.GreaterOrEqual(t, az, 0.0)
		assert.LessOrEqual(t, az, 2*math.Pi)
	}
}
