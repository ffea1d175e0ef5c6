package vlbitime

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// j2000Epoch is 2000-01-01T12:00:00 UTC, the reference instant for J2000
// seconds.
var j2000Epoch = time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)

// UTCToJ2000 converts a UTC time.Time into J2000 seconds: seconds elapsed
// since 2000-01-01T12:00:00 UTC.
func UTCToJ2000(t time.Time) float64 {
	return t.UTC().Sub(j2000Epoch).Seconds()
}

// J2000ToUTC converts J2000 seconds back into a UTC time.Time.
func J2000ToUTC(t float64) time.Time {
	return j2000Epoch.Add(time.Duration(t * float64(time.Second)))
}

// utcLayout is the canonical millisecond-precision UTC string format used
// by StringToUTC/UTCToString: "YYYY-MM-DDThh:mm:ss.sss".
const utcLayout = "2006-01-02T15:04:05.000"

// StringToUTC parses a "YYYY-MM-DDThh:mm:ss.sss" string as UTC.
func StringToUTC(s string) (time.Time, error) {
	t, err := time.Parse(utcLayout, s)
	if err != nil {
		// Tolerate a missing fractional-seconds component.
		if t2, err2 := time.Parse("2006-01-02T15:04:05", s); err2 == nil {
			return t2.UTC(), nil
		}
		return time.Time{}, fmt.Errorf("vlbitime: parse utc string %q: %w", s, err)
	}
	return t.UTC(), nil
}

// UTCToString formats t as a millisecond-precision "YYYY-MM-DDThh:mm:ss.sss"
// string, the inverse of StringToUTC.
func UTCToString(t time.Time) string {
	return t.UTC().Format(utcLayout)
}

// J2000ToLST returns the Greenwich (if lonDeg==0) or local (for
// lonDeg != 0) mean sidereal time in hours, in [0, 24), for J2000 seconds t
// and observer longitude lonDeg (degrees east positive). No nutation
// (equation of the equinoxes) term is applied, so the result is mean, not
// apparent, sidereal time.
//
// This folds the longitude into the Greenwich mean sidereal time computed
// from t. geo.AltAz accepts a separately-computed sidereal time plus
// its own longitude argument so that callers who already have GMST for an
// instant can derive alt/az for many sites without recomputing GMST per
// site; J2000ToLST is the convenience entry point for the common one-site
// case.
func J2000ToLST(t float64, lonDeg float64) float64 {
	days := t / 86400.0 // days since J2000.0 (JD 2451545.0)
	centuries := days / 36525.0

	gmstDeg := 280.46061837 +
		360.98564736629*days +
		0.000387933*centuries*centuries -
		centuries*centuries*centuries/38710000.0

	lstDeg := gmstDeg + lonDeg
	lstDeg = math.Mod(lstDeg, 360.0)
	if lstDeg < 0 {
		lstDeg += 360.0
	}
	return lstDeg / 15.0
}

// ParseDurationOrZero is a small helper used by config loading for optional
// duration-string fields; it returns 0 for an empty string.
func ParseDurationOrZero(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
